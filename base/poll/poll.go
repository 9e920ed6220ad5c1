package poll

import (
	"errors"
	"time"
)

var ErrExhausted = errors.New("polling attempts exhausted")

// Clock abstracts time for tests
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

type Poller struct {
	maxAttempts int
	interval    time.Duration
	clock       Clock
}

type PollerCfg struct {
	MaxAttempts int
	Interval    time.Duration
	Clock       Clock
}

func New(cfg *PollerCfg) *Poller {
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	return &Poller{
		maxAttempts: cfg.MaxAttempts,
		interval:    cfg.Interval,
		clock:       clock,
	}
}

// Until invokes cond up to maxAttempts times, waiting interval between
// attempts, and returns nil as soon as cond succeeds. A done signal aborts
// the wait early.
func (p *Poller) Until(done <-chan struct{}, cond func() (bool, error)) error {
	for i := 0; i < p.maxAttempts; i++ {
		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if i == p.maxAttempts-1 {
			break
		}
		select {
		case <-done:
			return ErrExhausted
		case <-p.clock.After(p.interval):
		}
	}
	return ErrExhausted
}
