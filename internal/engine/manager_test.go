package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bloops-games/launched/internal/codec"
	"github.com/bloops-games/launched/internal/gamestat"
	"github.com/bloops-games/launched/internal/presence"
	"github.com/bloops-games/launched/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2021, 3, 14, 20, 0, 0, 0, time.UTC)

func newManager(t *testing.T, store *testutil.MemStore, n Notifier) *Manager {
	t.Helper()

	m, err := NewManager(&Config{QueueSize: 8, LeastSeeding: "trigger"}, store, n, nil)
	require.NoError(t, err)
	return m
}

func event(userID int64, before, after presence.Activity, observed time.Time) presence.Event {
	return presence.Event{UserID: userID, Before: before, After: after, ObservedAt: observed}
}

func TestNewManager_InvalidSeeding(t *testing.T) {
	t.Parallel()

	_, err := NewManager(&Config{QueueSize: 1, LeastSeeding: "random"}, &testutil.MemStore{}, nil, nil)
	assert.Error(t, err)
}

func TestManager_RegisterPersists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &testutil.MemStore{}
	m := newManager(t, store, nil)

	created, err := m.Register(ctx, 1)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, store.SaveCount())

	created, err = m.Register(ctx, 1)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, store.SaveCount())
	assert.True(t, m.IsRegistered(1))

	removed, err := m.Deregister(ctx, 1)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, m.IsRegistered(1))
	assert.Equal(t, 2, store.SaveCount())

	_, err = m.ListGames(1)
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestManager_IgnoresUnregisteredUsers(t *testing.T) {
	t.Parallel()

	store := &testutil.MemStore{}
	m := newManager(t, store, nil)

	res, err := m.HandleEvent(context.Background(), event(9, presence.Idle(), presence.Playing("Chess", t0), t0))
	require.NoError(t, err)
	assert.False(t, res.Mutated)
	assert.Zero(t, store.SaveCount())
}

func TestManager_HandleEventWritesOnlyOnChange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &testutil.MemStore{}
	m := newManager(t, store, nil)
	_, err := m.Register(ctx, 1)
	require.NoError(t, err)

	res, err := m.HandleEvent(ctx, event(1, presence.Idle(), presence.Playing("Chess", t0), t0))
	require.NoError(t, err)
	assert.True(t, res.Mutated)
	assert.Equal(t, 2, store.SaveCount())

	res, err = m.HandleEvent(ctx, event(1, presence.Playing("Chess", t0), presence.Playing("Chess", t0), t0.Add(time.Minute)))
	require.NoError(t, err)
	assert.False(t, res.Mutated)
	assert.Equal(t, 2, store.SaveCount())

	stats, err := m.Profile(1)
	require.NoError(t, err)
	require.Len(t, stats.Games, 1)
	assert.Equal(t, "Chess", stats.MostLaunched.Name)
	assert.Equal(t, "Chess", stats.LeastLaunched.Name)
	assert.Equal(t, "Chess", stats.LastLaunched.Name)

	decoded, err := codec.Decode(store.Snapshot(), gamestat.SeedFromTrigger)
	require.NoError(t, err)
	require.Contains(t, decoded.Profiles, int64(1))
	assert.True(t, decoded.Profiles[1].Has("Chess"))
}

func TestManager_NotifiesMarkedGame(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	n := &testutil.Notifier{}
	m := newManager(t, &testutil.MemStore{}, n)
	_, err := m.Register(ctx, 1)
	require.NoError(t, err)

	_, err = m.HandleEvent(ctx, event(1, presence.Idle(), presence.Playing("Chess", t0), t0))
	require.NoError(t, err)
	assert.Empty(t, n.Notifications())

	require.NoError(t, m.Mark(ctx, 1, "Chess", true))
	assert.ErrorIs(t, m.Mark(ctx, 1, "Go", true), gamestat.ErrUnknownRecord)

	_, err = m.HandleEvent(ctx, event(1, presence.Playing("Chess", t0), presence.Idle(), t0.Add(time.Hour)))
	require.NoError(t, err)
	_, err = m.HandleEvent(ctx, event(1, presence.Idle(), presence.Playing("Chess", t0.Add(2*time.Hour)), t0.Add(2*time.Hour)))
	require.NoError(t, err)

	assert.Equal(t, []presence.Notification{{UserID: 1, Game: "Chess"}}, n.Notifications())

	marked, err := m.MarkedGames(1)
	require.NoError(t, err)
	require.Len(t, marked, 1)
	assert.Equal(t, 3, marked[0].LaunchCount)
}

func TestManager_NotifierFailureDoesNotFailEvent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	n := &testutil.Notifier{Err: errors.New("chat not found")}
	m := newManager(t, &testutil.MemStore{}, n)
	_, err := m.Register(ctx, 1)
	require.NoError(t, err)
	_, err = m.HandleEvent(ctx, event(1, presence.Idle(), presence.Playing("Chess", t0), t0))
	require.NoError(t, err)
	require.NoError(t, m.Mark(ctx, 1, "Chess", true))

	_, err = m.HandleEvent(ctx, event(1, presence.Playing("Chess", t0), presence.Playing("Chess", t0.Add(time.Hour)), t0.Add(time.Hour)))
	assert.NoError(t, err)
	assert.Len(t, n.Notifications(), 1)
}

func TestManager_WriteFailureRecoversOnNextChange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &testutil.MemStore{}
	m := newManager(t, store, nil)
	_, err := m.Register(ctx, 1)
	require.NoError(t, err)

	store.SaveErr = errors.New("disk full")
	_, err = m.HandleEvent(ctx, event(1, presence.Idle(), presence.Playing("Chess", t0), t0))
	require.NoError(t, err)

	games, err := m.ListGames(1)
	require.NoError(t, err)
	assert.Len(t, games, 1)

	store.SaveErr = nil
	_, err = m.HandleEvent(ctx, event(1, presence.Playing("Chess", t0), presence.Playing("Go", t0.Add(time.Hour)), t0.Add(time.Hour)))
	require.NoError(t, err)

	decoded, err := codec.Decode(store.Snapshot(), gamestat.SeedFromTrigger)
	require.NoError(t, err)
	p := decoded.Profiles[1]
	require.NotNil(t, p)
	assert.True(t, p.Has("Chess"))
	assert.True(t, p.Has("Go"))
}

func TestManager_Restore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &testutil.MemStore{}
	first := newManager(t, store, nil)
	_, err := first.Register(ctx, 1)
	require.NoError(t, err)
	_, err = first.Register(ctx, 2)
	require.NoError(t, err)
	_, err = first.HandleEvent(ctx, event(1, presence.Idle(), presence.Playing("Chess", t0), t0))
	require.NoError(t, err)
	require.NoError(t, first.Mark(ctx, 1, "Chess", true))

	second := newManager(t, store, nil)
	require.NoError(t, second.Restore(ctx))
	assert.Equal(t, []int64{1, 2}, second.UserIDs())

	want, err := first.Profile(1)
	require.NoError(t, err)
	got, err := second.Profile(1)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestManager_RestoreEmptyAndErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	m := newManager(t, &testutil.MemStore{}, nil)
	require.NoError(t, m.Restore(ctx))
	assert.Empty(t, m.UserIDs())

	m = newManager(t, &testutil.MemStore{LoadErr: errors.New("permission denied")}, nil)
	assert.Error(t, m.Restore(ctx))

	m = newManager(t, &testutil.MemStore{Data: []byte("[oops")}, nil)
	assert.Error(t, m.Restore(ctx))

	m = newManager(t, &testutil.MemStore{Data: []byte(`{"1": {"type": "UserStatsProfile", "games": {}}, "x": {}}`)}, nil)
	require.NoError(t, m.Restore(ctx))
	assert.Equal(t, []int64{1}, m.UserIDs())
}

func TestManager_OnChange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t, &testutil.MemStore{}, nil)

	var changed []int64
	m.OnChange(func(userID int64) {
		changed = append(changed, userID)
	})

	_, err := m.Register(ctx, 1)
	require.NoError(t, err)
	_, err = m.HandleEvent(ctx, event(1, presence.Idle(), presence.Playing("Chess", t0), t0))
	require.NoError(t, err)
	_, err = m.HandleEvent(ctx, event(1, presence.Playing("Chess", t0), presence.Playing("Chess", t0), t0))
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 1}, changed)
}

func TestManager_RunAppliesSubmittedEvents(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	store := &testutil.MemStore{}
	m := newManager(t, store, nil)
	_, err := m.Register(ctx, 1)
	require.NoError(t, err)

	external := make(chan presence.Event, 1)
	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx, external)
	}()

	require.NoError(t, m.Submit(ctx, event(1, presence.Idle(), presence.Playing("Chess", t0), t0)))
	require.NoError(t, m.Submit(ctx, event(1, presence.Playing("Chess", t0), presence.Idle(), t0.Add(time.Hour))))
	external <- event(1, presence.Idle(), presence.Playing("Go", t0.Add(2*time.Hour)), t0.Add(2*time.Hour))
	close(external)

	require.Eventually(t, func() bool {
		games, err := m.ListGames(1)
		return err == nil && len(games) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	stats, err := m.Profile(1)
	require.NoError(t, err)
	assert.Equal(t, "Chess", stats.MostLaunched.Name)
}

func TestManager_SubmitAfterRunStops(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	m := newManager(t, &testutil.MemStore{}, nil)
	_, err := m.Register(context.Background(), 1)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx, nil)
	}()

	require.NoError(t, m.Submit(context.Background(), event(1, presence.Idle(), presence.Playing("Chess", t0), t0)))
	cancel()
	require.NoError(t, <-done)

	err = m.Submit(context.Background(), event(1, presence.Idle(), presence.Playing("Go", t0.Add(time.Hour)), t0.Add(time.Hour)))
	assert.ErrorIs(t, err, ErrStopped)

	// Accepted events were applied by the final drain.
	games, err := m.ListGames(1)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Chess", games[0].Name)
}

func TestManager_StopReleasesBlockedSubmit(t *testing.T) {
	t.Parallel()

	m, err := NewManager(&Config{QueueSize: 1}, &testutil.MemStore{}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, m.Submit(context.Background(), event(1, presence.Idle(), presence.Idle(), t0)))

	blocked := make(chan error, 1)
	go func() {
		blocked <- m.Submit(context.Background(), event(1, presence.Idle(), presence.Idle(), t0))
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, m.Run(ctx, nil))

	select {
	case err := <-blocked:
		if err != nil {
			assert.ErrorIs(t, err, ErrStopped)
		}
	case <-time.After(time.Second):
		t.Fatal("submit still blocked after stop")
	}
}
