package testutil

import (
	"context"
	"sync"

	"github.com/bloops-games/launched/internal/presence"
)

// MemStore keeps the last saved document in memory.
type MemStore struct {
	mtx     sync.Mutex
	Data    []byte
	Saves   int
	SaveErr error
	LoadErr error
	Closed  bool
}

func (s *MemStore) Save(_ context.Context, data []byte) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.Data = append([]byte(nil), data...)
	s.Saves++
	return nil
}

func (s *MemStore) Load(_ context.Context) ([]byte, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	return s.Data, nil
}

func (s *MemStore) Close() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.Closed = true
	return nil
}

func (s *MemStore) SaveCount() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.Saves
}

func (s *MemStore) Snapshot() []byte {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return append([]byte(nil), s.Data...)
}

// Notifier records every notification it is asked to deliver.
type Notifier struct {
	mtx  sync.Mutex
	Sent []presence.Notification
	Err  error
}

func (n *Notifier) Notify(_ context.Context, v presence.Notification) error {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.Sent = append(n.Sent, v)
	return n.Err
}

func (n *Notifier) Notifications() []presence.Notification {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	return append([]presence.Notification(nil), n.Sent...)
}
