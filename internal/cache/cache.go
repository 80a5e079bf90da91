package cache

// Cache is a bounded per-user store. Entries may be evicted at any time.
type Cache interface {
	Get(userID int64) (interface{}, bool)
	Add(userID int64, value interface{})
	Remove(userID int64)
	Len() int
}
