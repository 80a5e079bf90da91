package strpool

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	first := Build(func(b *strings.Builder) {
		b.WriteString("Chess")
	})
	second := Build(func(b *strings.Builder) {
		assert.Zero(t, b.Len())
		b.WriteString("Go")
	})

	assert.Equal(t, "Chess", first)
	assert.Equal(t, "Go", second)
}
