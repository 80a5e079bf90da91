package byteutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeInt64ToBytes(t *testing.T) {
	t.Parallel()

	for _, v := range []int64{0, 1, -1, 1616961600, 1 << 62} {
		b := EncodeInt64ToBytes(v)
		assert.Len(t, b, 8)
		assert.Equal(t, v, DecodeBytesToInt64(b))
	}

	assert.Zero(t, DecodeBytesToInt64([]byte{1, 2}))
}
