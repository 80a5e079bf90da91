package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

var _ Cache = (*Users)(nil)

// Users keeps per-user values in an adaptive replacement cache. It is safe
// for concurrent use.
type Users struct {
	arc *lru.ARCCache
}

func NewUsers(size int) (*Users, error) {
	arc, err := lru.NewARC(size)
	if err != nil {
		return nil, fmt.Errorf("user cache of size %d: %w", size, err)
	}

	return &Users{arc: arc}, nil
}

func (u *Users) Get(userID int64) (interface{}, bool) {
	return u.arc.Get(userID)
}

func (u *Users) Add(userID int64, value interface{}) {
	u.arc.Add(userID, value)
}

func (u *Users) Remove(userID int64) {
	u.arc.Remove(userID)
}

func (u *Users) Len() int {
	return u.arc.Len()
}
