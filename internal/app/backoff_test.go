package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_DoublesUpToMax(t *testing.T) {
	b := newBackoff(time.Millisecond, 3*time.Millisecond)
	ctx := context.Background()

	assert.NoError(t, b.Wait(ctx))
	assert.Equal(t, 2*time.Millisecond, b.Current())
	assert.NoError(t, b.Wait(ctx))
	assert.Equal(t, 3*time.Millisecond, b.Current())

	b.Reset()
	assert.Equal(t, time.Millisecond, b.Current())
}

func TestBackoff_WaitCanceled(t *testing.T) {
	b := newBackoff(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, b.Wait(ctx), context.Canceled)
	assert.Equal(t, time.Hour, b.Current())
}
