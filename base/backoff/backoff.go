package backoff

import (
	"context"
	"time"
)

// Backoff waits out a linearly growing delay between retry attempts. The
// first wait is zero so callers get one immediate retry before slowing down.
type Backoff struct {
	LastDuration time.Duration
	NextDuration time.Duration
	start        time.Duration
	limit        time.Duration
	count        int
}

// NewLinear returns a backoff whose waits grow by start each attempt,
// capped at limit when limit is positive.
func NewLinear(start time.Duration, limit time.Duration) *Backoff {
	backoff := &Backoff{start: start, limit: limit}
	backoff.Reset()
	return backoff
}

func (b *Backoff) Reset() {
	b.count = 0
	b.LastDuration = 0
	b.NextDuration = b.next()
}

// Backoff blocks for NextDuration, then advances the schedule. It returns
// the context error when ctx ends before the wait elapses.
func (b *Backoff) Backoff(ctx context.Context) (err error) {
	sleepCtx, cancelSleep := context.WithTimeout(ctx, b.NextDuration)
	<-sleepCtx.Done()
	cancelSleep()
	if sleepCtx.Err() == context.DeadlineExceeded {
		b.count++
		b.LastDuration = b.NextDuration
		b.NextDuration = b.next()
		return nil
	}
	return sleepCtx.Err()
}

func (b *Backoff) next() time.Duration {
	backoff := time.Duration(b.count) * b.start
	if b.limit > 0 && backoff > b.limit {
		backoff = b.limit
	}
	return backoff
}
