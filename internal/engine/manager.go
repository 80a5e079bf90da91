package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bloops-games/launched/internal/codec"
	"github.com/bloops-games/launched/internal/gamestat"
	"github.com/bloops-games/launched/internal/logging"
	"github.com/bloops-games/launched/internal/metrics"
	"github.com/bloops-games/launched/internal/presence"
	"github.com/bloops-games/launched/internal/registry"
	"github.com/bloops-games/launched/internal/snapshot"
	"github.com/google/uuid"
)

var ErrNotRegistered = registry.ErrNotRegistered

// ErrStopped is returned by Submit once the engine loop is shutting down.
var ErrStopped = fmt.Errorf("engine stopped")

// Notifier delivers marked-game notifications. It is called outside of the
// engine lock.
type Notifier interface {
	Notify(ctx context.Context, n presence.Notification) error
}

// Stats is a copy of one user's profile.
type Stats struct {
	UserID        int64
	Games         []gamestat.Record
	MostLaunched  *gamestat.Record
	LeastLaunched *gamestat.Record
	LastLaunched  *gamestat.Record
}

func NewManager(config *Config, store snapshot.Store, notifier Notifier, m metrics.Metrics) (*Manager, error) {
	seeding, err := gamestat.ParseLeastSeeding(config.LeastSeeding)
	if err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}

	if m == nil {
		m = metrics.Noop{}
	}

	size := config.QueueSize
	if size < 1 {
		size = 1
	}

	return &Manager{
		registry: registry.New(seeding),
		handler:  presence.NewHandler(),
		store:    store,
		notifier: notifier,
		metrics:  m,
		queue:    make(chan presence.Event, size),
		now:      time.Now,
		stopping: make(chan struct{}),
	}, nil
}

// Manager applies presence events and user commands to the registry and
// writes the whole registry after every change. One mutex covers mutation,
// snapshot and write, so the stored document always matches some state the
// registry passed through.
type Manager struct {
	mtx sync.Mutex

	registry *registry.Registry
	handler  *presence.Handler
	store    snapshot.Store
	notifier Notifier
	metrics  metrics.Metrics

	hookMtx  sync.RWMutex
	onChange []func(userID int64)

	queue chan presence.Event
	now   func() time.Time

	// Submit holds submitMtx for reading while it enqueues. Run closes
	// stopping, then takes the write lock, so nothing is enqueued after the
	// final drain.
	submitMtx sync.RWMutex
	stopping  chan struct{}
	stopOnce  sync.Once
}

// SetNotifier replaces the notifier. It must be called before events are
// handled.
func (m *Manager) SetNotifier(n Notifier) {
	m.notifier = n
}

// OnChange registers fn to be called after a user's profile changed.
func (m *Manager) OnChange(fn func(userID int64)) {
	m.hookMtx.Lock()
	defer m.hookMtx.Unlock()
	m.onChange = append(m.onChange, fn)
}

func (m *Manager) changed(userID int64) {
	m.hookMtx.RLock()
	defer m.hookMtx.RUnlock()
	for _, fn := range m.onChange {
		fn(userID)
	}
}

// Restore replaces the registry with the stored document. Entries that do not
// decode are logged and left out.
func (m *Manager) Restore(ctx context.Context) error {
	logger := logging.FromContext(ctx).Named("engine.restore")

	m.mtx.Lock()
	defer m.mtx.Unlock()

	data, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	decoded, err := codec.Decode(data, m.registry.Seeding())
	if err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	for _, e := range decoded.Skipped {
		logger.Warnf("skipped: %v", e)
	}

	m.registry.Replace(decoded.Profiles)
	m.metrics.SetRegisteredUsers(m.registry.Len())
	logger.Infof("restored %d users, skipped %d entries", len(decoded.Profiles), len(decoded.Skipped))

	return nil
}

// HandleEvent applies one presence change. Errors from inside the transition
// are logged and returned, the event is dropped. Write failures are only
// logged: the next change writes the full registry again.
func (m *Manager) HandleEvent(ctx context.Context, ev presence.Event) (presence.Result, error) {
	logger := logging.FromContext(ctx).Named("engine").With("user_id", ev.UserID, "event_id", uuid.New().String())
	ctx = logging.WithLogger(ctx, logger)
	m.metrics.IncEvents()

	ev = ev.Normalize(m.now())

	var res presence.Result
	m.mtx.Lock()
	err := m.registry.Update(ev.UserID, func(p *gamestat.Profile) error {
		var err error
		res, err = m.handler.Apply(p, ev)
		return err
	})
	if res.Mutated {
		m.persistLocked(ctx)
	}
	m.mtx.Unlock()

	if errors.Is(err, registry.ErrNotRegistered) {
		logger.Debugf("ignored event of unregistered user")
		return presence.Result{}, nil
	}

	if res.Mutated {
		m.metrics.IncMutations()
		m.changed(ev.UserID)
	}

	if err != nil {
		logger.Errorf("apply event: %v", err)
		return res, fmt.Errorf("apply event: %w", err)
	}

	m.deliver(ctx, res.Notifications)
	return res, nil
}

func (m *Manager) deliver(ctx context.Context, ns []presence.Notification) {
	if m.notifier == nil {
		return
	}

	logger := logging.FromContext(ctx)
	for _, n := range ns {
		err := m.notifier.Notify(ctx, n)
		m.metrics.IncNotifications(err == nil)
		if err != nil {
			logger.Errorf("notify %q: %v", n.Game, err)
		}
	}
}

// Persist writes the current registry. It is the final write at shutdown.
func (m *Manager) Persist(ctx context.Context) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return m.write(ctx)
}

func (m *Manager) persistLocked(ctx context.Context) {
	if err := m.write(ctx); err != nil {
		m.metrics.IncPersistenceFailures()
		logging.FromContext(ctx).Errorf("persist: %v", err)
	}
}

func (m *Manager) write(ctx context.Context) error {
	start := time.Now()

	var data []byte
	if err := m.registry.View(func(profiles map[int64]*gamestat.Profile) error {
		var err error
		data, err = codec.Encode(profiles)
		return err
	}); err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	if err := m.store.Save(ctx, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	m.metrics.ObservePersistenceDuration(time.Since(start))
	return nil
}

// mutate runs fn under the engine lock and persists when it reports a change.
func (m *Manager) mutate(ctx context.Context, userID int64, fn func() (bool, error)) (bool, error) {
	m.mtx.Lock()
	changed, err := fn()
	if changed {
		m.persistLocked(ctx)
	}
	m.mtx.Unlock()

	if changed {
		m.metrics.IncMutations()
		m.metrics.SetRegisteredUsers(m.registry.Len())
		m.changed(userID)
	}

	return changed, err
}

// Register creates an empty profile. It reports false if the user was
// already registered.
func (m *Manager) Register(ctx context.Context, userID int64) (bool, error) {
	return m.mutate(ctx, userID, func() (bool, error) {
		return m.registry.Register(userID), nil
	})
}

// Deregister drops the user's profile and all of its history.
func (m *Manager) Deregister(ctx context.Context, userID int64) (bool, error) {
	return m.mutate(ctx, userID, func() (bool, error) {
		return m.registry.Deregister(userID), nil
	})
}

func (m *Manager) Mark(ctx context.Context, userID int64, game string, marked bool) error {
	_, err := m.mutate(ctx, userID, func() (bool, error) {
		if err := m.registry.Mark(userID, game, marked); err != nil {
			return false, err
		}
		return true, nil
	})
	return err
}

func (m *Manager) IsRegistered(userID int64) bool {
	return m.registry.IsRegistered(userID)
}

func (m *Manager) ListGames(userID int64) ([]gamestat.Record, error) {
	return m.registry.ListGames(userID)
}

func (m *Manager) MarkedGames(userID int64) ([]gamestat.Record, error) {
	return m.registry.MarkedGames(userID)
}

func (m *Manager) Profile(userID int64) (Stats, error) {
	var stats Stats
	err := m.registry.View(func(profiles map[int64]*gamestat.Profile) error {
		p, ok := profiles[userID]
		if !ok {
			return ErrNotRegistered
		}

		stats = Stats{
			UserID:        userID,
			Games:         p.Games(),
			MostLaunched:  copyRecord(p.MostLaunched()),
			LeastLaunched: copyRecord(p.LeastLaunched()),
			LastLaunched:  copyRecord(p.LastLaunched()),
		}
		return nil
	})

	return stats, err
}

func (m *Manager) UserIDs() []int64 {
	return m.registry.IDs()
}

func copyRecord(r *gamestat.Record) *gamestat.Record {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// Submit queues an event for Run. It blocks while the queue is full and fails
// with ErrStopped once Run is shutting down.
func (m *Manager) Submit(ctx context.Context, ev presence.Event) error {
	m.submitMtx.RLock()
	defer m.submitMtx.RUnlock()

	select {
	case <-m.stopping:
		return fmt.Errorf("submit event: %w", ErrStopped)
	default:
	}

	select {
	case m.queue <- ev:
		return nil
	case <-m.stopping:
		return fmt.Errorf("submit event: %w", ErrStopped)
	case <-ctx.Done():
		return fmt.Errorf("submit event: %w", ctx.Err())
	}
}

func (m *Manager) stop() {
	m.stopOnce.Do(func() {
		close(m.stopping)
	})

	// Wait for Submit calls that already passed the stopping check.
	m.submitMtx.Lock()
	defer m.submitMtx.Unlock()
}

// Run applies events in delivery order from events and from Submit until ctx
// is done. Events already queued are applied before it returns.
func (m *Manager) Run(ctx context.Context, events <-chan presence.Event) error {
	logger := logging.FromContext(ctx).Named("engine.run")
	logger.Infof("engine loop started")

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			_, _ = m.HandleEvent(ctx, ev)
		case ev := <-m.queue:
			_, _ = m.HandleEvent(ctx, ev)
		case <-ctx.Done():
			m.stop()
			m.drain(context.WithoutCancel(ctx))
			logger.Infof("engine loop stopped")
			return nil
		}
	}
}

func (m *Manager) drain(ctx context.Context) {
	for {
		select {
		case ev := <-m.queue:
			_, _ = m.HandleEvent(ctx, ev)
		default:
			return
		}
	}
}
