package cooldown

import (
	"fmt"
	"sync"
	"time"

	"github.com/bloops-games/launched/internal/cache"
)

type Verdict uint8

const (
	// VerdictNotice asks the caller to tell the user the command was invalid.
	VerdictNotice Verdict = iota
	// VerdictCooldownStarted asks the caller to announce the cooldown.
	VerdictCooldownStarted
	// VerdictSilent means the user is on cooldown and gets no reply.
	VerdictSilent
)

func (v Verdict) String() string {
	switch v {
	case VerdictNotice:
		return "notice"
	case VerdictCooldownStarted:
		return "cooldown_started"
	default:
		return "silent"
	}
}

type Config struct {
	// Invalid commands tolerated before the cooldown starts
	MaxErrors int `envconfig:"MAX_ERRORS" default:"3" validate:"min:1"`
	// How long a user stays silenced
	Delay time.Duration `envconfig:"DELAY" default:"10s"`
	// A quiet period this long resets the error count
	ResetAfter time.Duration `envconfig:"RESET_AFTER" default:"10s"`
	// Number of users tracked at once
	CacheSize int `envconfig:"CACHE_SIZE" default:"1024" validate:"min:1"`
}

type entry struct {
	errors     int
	resetAt    time.Time
	onCooldown bool
	deadline   time.Time
}

// cooldownDone clears an expired cooldown. The check happens only when the
// user sends another invalid command.
func (e *entry) cooldownDone(now time.Time) bool {
	if !e.onCooldown || !now.After(e.deadline) {
		return false
	}

	e.onCooldown = false
	e.deadline = time.Time{}
	return true
}

func New(config Config, c cache.Cache) *Tracker {
	return &Tracker{config: config, cache: c, now: time.Now}
}

// NewFromConfig backs the tracker with an ARC cache of config.CacheSize users.
func NewFromConfig(config Config) (*Tracker, error) {
	c, err := cache.NewUsers(config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("cooldown cache: %w", err)
	}
	return New(config, c), nil
}

// Tracker counts invalid commands per user. State lives only in memory, an
// evicted user starts over.
type Tracker struct {
	mtx    sync.Mutex
	config Config
	cache  cache.Cache
	now    func() time.Time
}

func (t *Tracker) Invalid(userID int64) Verdict {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	now := t.now()
	v, ok := t.cache.Get(userID)
	if !ok {
		t.cache.Add(userID, &entry{errors: 1, resetAt: now})
		return VerdictNotice
	}

	e := v.(*entry)
	e.errors++

	switch {
	case !e.onCooldown && now.After(e.resetAt.Add(t.config.ResetAfter)):
		e.errors = 1
		e.resetAt = now
		return VerdictNotice
	case !e.onCooldown && e.errors > t.config.MaxErrors:
		e.onCooldown = true
		e.deadline = now.Add(t.config.Delay)
		return VerdictCooldownStarted
	case e.cooldownDone(now):
		e.errors = 1
		return VerdictNotice
	case !e.onCooldown:
		return VerdictNotice
	default:
		return VerdictSilent
	}
}

func (t *Tracker) OnCooldown(userID int64) bool {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	v, ok := t.cache.Get(userID)
	return ok && v.(*entry).onCooldown && !t.now().After(v.(*entry).deadline)
}

// Forget drops the user, for example on deregistration.
func (t *Tracker) Forget(userID int64) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	t.cache.Remove(userID)
}
