package strpool

import (
	"strings"
	"sync"
)

var builders = sync.Pool{
	New: func() interface{} {
		return &strings.Builder{}
	},
}

// Build runs fn on a pooled builder and returns what it wrote.
func Build(fn func(b *strings.Builder)) string {
	b := builders.Get().(*strings.Builder)
	fn(b)
	s := b.String()
	// Reset drops the buffer s points into, so s stays valid.
	b.Reset()
	builders.Put(b)
	return s
}
