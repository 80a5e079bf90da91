package shutdown

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterruptContext_Signal(t *testing.T) {
	ctx, cancel := InterruptContext(context.Background(), syscall.SIGUSR1)
	defer cancel()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not canceled by the signal")
	}
}

func TestInterruptContext_Parent(t *testing.T) {
	t.Parallel()

	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := InterruptContext(parent, syscall.SIGUSR2)
	defer cancel()

	cancelParent()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestNew(t *testing.T) {
	t.Parallel()

	ctx, cancel := New()
	assert.NoError(t, ctx.Err())
	cancel()
	assert.Error(t, ctx.Err())
}
