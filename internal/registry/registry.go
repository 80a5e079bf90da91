package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bloops-games/launched/internal/gamestat"
)

var ErrNotRegistered = fmt.Errorf("user not registered")

func New(seeding gamestat.LeastSeeding) *Registry {
	return &Registry{seeding: seeding, profiles: map[int64]*gamestat.Profile{}}
}

// Registry maps user ids to their launch statistics.
type Registry struct {
	mtx sync.RWMutex

	seeding  gamestat.LeastSeeding
	profiles map[int64]*gamestat.Profile
}

func (r *Registry) Seeding() gamestat.LeastSeeding {
	return r.seeding
}

// Register creates an empty profile. It reports false if the user already had one.
func (r *Registry) Register(userID int64) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if _, ok := r.profiles[userID]; ok {
		return false
	}

	r.profiles[userID] = gamestat.NewProfile(r.seeding)
	return true
}

// Deregister drops the profile and every record in it.
func (r *Registry) Deregister(userID int64) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if _, ok := r.profiles[userID]; !ok {
		return false
	}

	delete(r.profiles, userID)
	return true
}

func (r *Registry) IsRegistered(userID int64) bool {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	_, ok := r.profiles[userID]
	return ok
}

func (r *Registry) ListGames(userID int64) ([]gamestat.Record, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, ErrNotRegistered
	}

	return p.Games(), nil
}

func (r *Registry) MarkedGames(userID int64) ([]gamestat.Record, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, ErrNotRegistered
	}

	return p.Marked(), nil
}

func (r *Registry) Mark(userID int64, name string, marked bool) error {
	return r.Update(userID, func(p *gamestat.Profile) error {
		return p.Mark(name, marked)
	})
}

// Update runs fn on the user's profile under the write lock.
func (r *Registry) Update(userID int64, fn func(p *gamestat.Profile) error) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return ErrNotRegistered
	}

	return fn(p)
}

// View runs fn over all profiles under the read lock. fn must not keep the map.
func (r *Registry) View(fn func(profiles map[int64]*gamestat.Profile) error) error {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return fn(r.profiles)
}

// Replace swaps the whole content, used when restoring from a snapshot.
func (r *Registry) Replace(profiles map[int64]*gamestat.Profile) {
	if profiles == nil {
		profiles = map[int64]*gamestat.Profile{}
	}

	r.mtx.Lock()
	r.profiles = profiles
	r.mtx.Unlock()
}

func (r *Registry) IDs() []int64 {
	r.mtx.RLock()
	ids := make([]int64, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	r.mtx.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *Registry) Len() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return len(r.profiles)
}
