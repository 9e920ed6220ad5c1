package chain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/reimerr12/nft-marketplace/base/backoff"
	bCtx "github.com/reimerr12/nft-marketplace/base/ctx"
	"github.com/reimerr12/nft-marketplace/base/log"
	"github.com/reimerr12/nft-marketplace/base/metrics"
	"github.com/reimerr12/nft-marketplace/domain"
)

const (
	defaultFreshAttempts  = 3
	defaultFreshRetryStep = 500 * time.Millisecond
)

type ClientCfg struct {
	RpcUrl string
	// FreshAttempts bounds the forced-fresh connection retries, default 3
	FreshAttempts int
	// FreshRetryStep is the linear backoff step between retries
	FreshRetryStep time.Duration
}

// Client performs read-only contract calls. Call uses a long-lived cached
// connection; CallFresh dials a new connection bound to latest state and
// falls back to the cached path when every attempt fails.
type Client interface {
	Call(c bCtx.Ctx, addr common.Address, _abi abi.ABI, method string, params ...interface{}) ([]interface{}, error)
	CallFresh(c bCtx.Ctx, addr common.Address, _abi abi.ABI, method string, params ...interface{}) ([]interface{}, error)
}

type clientImpl struct {
	rpcUrl         string
	cached         *ethclient.Client
	freshAttempts  int
	freshRetryStep time.Duration
	met            metrics.Service
}

func NewClient(ctx bCtx.Ctx, cfg *ClientCfg) (Client, error) {
	if len(cfg.RpcUrl) == 0 {
		return nil, domain.ErrTerminalConfiguration
	}
	client, err := ethclient.DialContext(ctx, cfg.RpcUrl)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"url": cfg.RpcUrl,
		}).Error("failed to dial rpc")
		return nil, err
	}
	attempts := cfg.FreshAttempts
	if attempts == 0 {
		attempts = defaultFreshAttempts
	}
	step := cfg.FreshRetryStep
	if step == 0 {
		step = defaultFreshRetryStep
	}
	return &clientImpl{
		rpcUrl:         cfg.RpcUrl,
		cached:         client,
		freshAttempts:  attempts,
		freshRetryStep: step,
		met:            metrics.New("chain"),
	}, nil
}

func (c *clientImpl) Call(ctx bCtx.Ctx, addr common.Address, _abi abi.ABI, method string, params ...interface{}) ([]interface{}, error) {
	defer c.met.BumpTime("call.time", "method", method).End()
	return c.call(ctx, c.cached, addr, _abi, method, params...)
}

func (c *clientImpl) CallFresh(ctx bCtx.Ctx, addr common.Address, _abi abi.ABI, method string, params ...interface{}) ([]interface{}, error) {
	defer c.met.BumpTime("callFresh.time", "method", method).End()

	bo := backoff.NewLinear(c.freshRetryStep, 0)
	for i := 0; i < c.freshAttempts; i++ {
		fresh, err := ethclient.DialContext(ctx, c.rpcUrl)
		if err == nil {
			res, callErr := c.call(ctx, fresh, addr, _abi, method, params...)
			fresh.Close()
			if callErr == nil {
				return res, nil
			}
			err = callErr
		}
		ctx.WithFields(log.Fields{
			"err":     err,
			"method":  method,
			"attempt": i + 1,
		}).Warn("fresh read attempt failed")
		c.met.BumpSum("callFresh.warn", 1, "method", method)
		if err := bo.Backoff(ctx); err != nil {
			return nil, err
		}
	}

	// freshness is best-effort, fall back to the cached connection instead
	// of failing the whole operation
	ctx.WithField("method", method).Warn("fresh read exhausted, falling back to cached connection")
	c.met.BumpSum("callFresh.fallback", 1, "method", method)
	return c.call(ctx, c.cached, addr, _abi, method, params...)
}

func (c *clientImpl) call(ctx bCtx.Ctx, client *ethclient.Client, addr common.Address, _abi abi.ABI, method string, params ...interface{}) ([]interface{}, error) {
	data, err := _abi.Pack(method, params...)
	if err != nil {
		ctx.WithFields(log.Fields{
			"method": method,
			"params": params,
			"err":    err,
		}).Error("abi.Pack failed")
		return nil, err
	}
	msg := ethereum.CallMsg{
		To:   &addr,
		Data: data,
	}
	res, err := client.CallContract(ctx, msg, (*big.Int)(nil))
	if err != nil {
		ctx.WithField("err", err).Error("client.CallContract failed")
		return nil, err
	}
	unpacked, err := _abi.Unpack(method, res)
	if err != nil {
		ctx.WithField("err", err).Error("abi.Unpack failed")
		return nil, err
	}
	return unpacked, nil
}
