package backoff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLinearSequence(t *testing.T) {
	b := NewLinear(10*time.Millisecond, 0)
	ctx := context.Background()

	require.Equal(t, time.Duration(0), b.NextDuration)

	require.NoError(t, b.Backoff(ctx))
	require.Equal(t, time.Duration(0), b.LastDuration)
	require.Equal(t, 10*time.Millisecond, b.NextDuration)

	require.NoError(t, b.Backoff(ctx))
	require.Equal(t, 10*time.Millisecond, b.LastDuration)
	require.Equal(t, 20*time.Millisecond, b.NextDuration)
}

func TestLimitCapsWait(t *testing.T) {
	b := NewLinear(10*time.Millisecond, 15*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, b.Backoff(ctx))
	require.Equal(t, 10*time.Millisecond, b.NextDuration)

	require.NoError(t, b.Backoff(ctx))
	require.Equal(t, 15*time.Millisecond, b.NextDuration)

	require.NoError(t, b.Backoff(ctx))
	require.Equal(t, 15*time.Millisecond, b.NextDuration)
}

func TestResetRestartsSchedule(t *testing.T) {
	b := NewLinear(5*time.Millisecond, 0)
	ctx := context.Background()

	require.NoError(t, b.Backoff(ctx))
	require.NoError(t, b.Backoff(ctx))

	b.Reset()
	require.Equal(t, time.Duration(0), b.LastDuration)
	require.Equal(t, time.Duration(0), b.NextDuration)
}

func TestCancelledContextAbortsWait(t *testing.T) {
	b := NewLinear(time.Minute, 0)
	ctx, cancel := context.WithCancel(context.Background())

	// burn the zero-length first wait
	require.NoError(t, b.Backoff(ctx))

	cancel()
	start := time.Now()
	err := b.Backoff(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), time.Second)
}
