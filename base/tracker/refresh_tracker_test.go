package tracker

import (
	"context"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	bCtx "github.com/reimerr12/nft-marketplace/base/ctx"
	"github.com/reimerr12/nft-marketplace/domain"
)

type fakeSubscription struct {
	errs chan error
}

func (s *fakeSubscription) Unsubscribe() {}

func (s *fakeSubscription) Err() <-chan error { return s.errs }

type fakeEthClient struct {
	logs chan<- types.Log
}

func (f *fakeEthClient) BlockNumber(context.Context) (uint64, error) { return 0, nil }

func (f *fakeEthClient) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return nil, nil
}

func (f *fakeEthClient) FilterLogs(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (f *fakeEthClient) SubscribeFilterLogs(_ context.Context, _ ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	f.logs = ch
	return &fakeSubscription{errs: make(chan error)}, nil
}

func (f *fakeEthClient) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, nil
}

func (f *fakeEthClient) emit() {
	for i := 0; i < 50; i++ {
		if f.logs != nil {
			f.logs <- types.Log{}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	panic("subscription never established")
}

func TestDebounceCollapsesBurst(t *testing.T) {
	client := &fakeEthClient{}
	tracker := NewRefreshTracker(&RefreshTrackerCfg{
		WsClient:        client,
		ContractAddress: domain.Address("0x000000000000000000000000000000000000dead"),
		Debounce:        120 * time.Millisecond,
	})

	var fired int32
	unsubscribe := tracker.Subscribe(func() {
		atomic.AddInt32(&fired, 1)
	})
	defer unsubscribe()

	tracker.Start(bCtx.Background())
	defer tracker.Stop()

	client.emit()
	time.Sleep(40 * time.Millisecond)
	client.emit()

	time.Sleep(400 * time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestSeparatedEventsNotifyTwice(t *testing.T) {
	client := &fakeEthClient{}
	tracker := NewRefreshTracker(&RefreshTrackerCfg{
		WsClient:        client,
		ContractAddress: domain.Address("0x000000000000000000000000000000000000dead"),
		Debounce:        50 * time.Millisecond,
	})

	var fired int32
	unsubscribe := tracker.Subscribe(func() {
		atomic.AddInt32(&fired, 1)
	})
	defer unsubscribe()

	tracker.Start(bCtx.Background())
	defer tracker.Stop()

	client.emit()
	time.Sleep(200 * time.Millisecond)
	client.emit()
	time.Sleep(200 * time.Millisecond)

	require.Equal(t, int32(2), atomic.LoadInt32(&fired))
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	tracker := NewRefreshTracker(&RefreshTrackerCfg{
		WsClient:        &fakeEthClient{},
		ContractAddress: domain.Address("0x000000000000000000000000000000000000dead"),
	})

	first := tracker.Subscribe(func() {})
	second := tracker.Subscribe(func() {})

	first()
	first()

	tracker.mu.Lock()
	remaining := len(tracker.subs)
	tracker.mu.Unlock()
	require.Equal(t, 1, remaining)

	second()
	tracker.mu.Lock()
	remaining = len(tracker.subs)
	tracker.mu.Unlock()
	require.Equal(t, 0, remaining)
}
