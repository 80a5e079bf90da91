package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Level(t *testing.T) {
	t.Parallel()

	debug := NewLogger(true)
	require.NotNil(t, debug)
	assert.True(t, debug.Desugar().Core().Enabled(zapcore.DebugLevel))

	info := NewLogger(false)
	require.NotNil(t, info)
	assert.False(t, info.Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, info.Desugar().Core().Enabled(zapcore.InfoLevel))
}

func TestDefaultLogger_Once(t *testing.T) {
	t.Parallel()

	assert.Same(t, DefaultLogger(), DefaultLogger())
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	assert.Same(t, DefaultLogger(), FromContext(context.Background()))

	logger := NewLogger(false).Named("engine")
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}
