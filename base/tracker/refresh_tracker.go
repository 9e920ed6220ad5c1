package tracker

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	baseabi "github.com/reimerr12/nft-marketplace/base/abi"
	bCtx "github.com/reimerr12/nft-marketplace/base/ctx"
	"github.com/reimerr12/nft-marketplace/base/goroutine"
	"github.com/reimerr12/nft-marketplace/base/log"
	"github.com/reimerr12/nft-marketplace/base/metrics"
	"github.com/reimerr12/nft-marketplace/base/poll"
	"github.com/reimerr12/nft-marketplace/domain"
)

const (
	defaultDebounce     = 4 * time.Second
	resubscribeAttempts = 5
	resubscribeInterval = 3 * time.Second
)

type RefreshTrackerCfg struct {
	// WsClient must support log subscriptions, i.e. be backed by a
	// websocket endpoint
	WsClient        domain.EthClientRepo
	ContractAddress domain.Address
	// Debounce collapses bursts of ledger events into one change
	// notification, default 4s
	Debounce time.Duration
	// PollInterval enables an unconditional refresh backstop when > 0, for
	// deployments where the subscription silently drops events
	PollInterval time.Duration
}

// RefreshTracker watches the marketplace contract for state-mutating events
// and notifies subscribers after the burst settles. Notifications carry no
// payload; subscribers re-synchronize whatever scopes they care about.
type RefreshTracker struct {
	client       domain.EthClientRepo
	contract     common.Address
	debounce     time.Duration
	pollInterval time.Duration
	met          metrics.Service

	mu        sync.Mutex
	subs      map[int]func()
	nextSubId int

	kick chan struct{}
	done chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

func NewRefreshTracker(cfg *RefreshTrackerCfg) *RefreshTracker {
	debounce := cfg.Debounce
	if debounce == 0 {
		debounce = defaultDebounce
	}
	return &RefreshTracker{
		client:       cfg.WsClient,
		contract:     common.HexToAddress(cfg.ContractAddress.ToLowerStr()),
		debounce:     debounce,
		pollInterval: cfg.PollInterval,
		met:          metrics.New("refresh_tracker"),
		subs:         map[int]func(){},
		kick:         make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
}

// Subscribe registers onChange and returns its unsubscribe function. The
// returned function is safe to call more than once.
func (t *RefreshTracker) Subscribe(onChange func()) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextSubId
	t.nextSubId++
	t.subs[id] = onChange

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs, id)
	}
}

func (t *RefreshTracker) Start(c bCtx.Ctx) {
	t.startOnce.Do(func() {
		goroutine.RecoverableGo(func() {
			t.watch(c)
		})
		goroutine.RecoverableGo(func() {
			t.settle(c)
		})
		if t.pollInterval > 0 {
			goroutine.RecoverableGo(func() {
				t.backstop(c)
			})
		}
	})
}

func (t *RefreshTracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.done)
	})
}

// watch maintains the log subscription, re-establishing it with bounded
// retries when it drops.
func (t *RefreshTracker) watch(c bCtx.Ctx) {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{t.contract},
		Topics:    baseabi.MutationEventTopics(),
	}

	for {
		select {
		case <-t.done:
			return
		default:
		}

		logs := make(chan types.Log, 64)
		var sub ethereum.Subscription
		poller := poll.New(&poll.PollerCfg{
			MaxAttempts: resubscribeAttempts,
			Interval:    resubscribeInterval,
		})
		err := poller.Until(t.done, func() (bool, error) {
			s, err := t.client.SubscribeFilterLogs(c, query, logs)
			if err != nil {
				c.WithField("err", err).Warn("failed to client.SubscribeFilterLogs")
				t.met.BumpSum("subscribe.err", 1)
				return false, nil
			}
			sub = s
			return true, nil
		})
		if err != nil {
			c.WithField("err", err).Error("log subscription unavailable")
			return
		}

		t.consume(c, sub, logs)
	}
}

func (t *RefreshTracker) consume(c bCtx.Ctx, sub ethereum.Subscription, logs chan types.Log) {
	defer sub.Unsubscribe()
	for {
		select {
		case <-t.done:
			return
		case err := <-sub.Err():
			c.WithField("err", err).Warn("log subscription dropped")
			t.met.BumpSum("subscribe.dropped", 1)
			return
		case l := <-logs:
			c.WithFields(log.Fields{
				"blockNumber": l.BlockNumber,
				"txHash":      l.TxHash.Hex(),
			}).Debug("mutation event observed")
			t.met.BumpSum("event.observed", 1)
			t.signal()
		}
	}
}

// settle turns raw event signals into debounced change notifications. The
// timer restarts on every signal, so a burst produces exactly one
// notification, t.debounce after its last event.
func (t *RefreshTracker) settle(c bCtx.Ctx) {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-t.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-t.kick:
			if timer == nil {
				timer = time.NewTimer(t.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-fire:
					default:
					}
				}
				timer.Reset(t.debounce)
			}
		case <-fire:
			timer = nil
			fire = nil
			t.notify(c)
		}
	}
}

func (t *RefreshTracker) backstop(c bCtx.Ctx) {
	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.met.BumpSum("backstop.fired", 1)
			t.notify(c)
		}
	}
}

func (t *RefreshTracker) signal() {
	select {
	case t.kick <- struct{}{}:
	default:
	}
}

func (t *RefreshTracker) notify(c bCtx.Ctx) {
	t.mu.Lock()
	subs := make([]func(), 0, len(t.subs))
	for _, f := range t.subs {
		subs = append(subs, f)
	}
	t.mu.Unlock()

	t.met.BumpSum("notify", float64(len(subs)))
	for _, f := range subs {
		f()
	}
}
