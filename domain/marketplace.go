package domain

import (
	bCtx "github.com/reimerr12/nft-marketplace/base/ctx"
)

// RawTokenInfo is the unnormalized per-item state read from the marketplace
// contract. Numeric fields stay interface{} until they pass through the
// value normalizer; absent values on-chain normalize to zero there.
type RawTokenInfo struct {
	Owner          Address
	IsListed       bool
	IsAuctioned    bool
	Price          interface{}
	HighestBid     interface{}
	AuctionEndTime interface{}
}

// ReadOption tunes a single ledger read.
type ReadOption func(*ReadOptions)

type ReadOptions struct {
	// Fresh forces a new connection bound to latest state, bypassing any
	// connection-level cache. Best-effort: after bounded retries the read
	// falls back to the cached connection.
	Fresh bool
}

func WithFreshRead() ReadOption {
	return func(o *ReadOptions) {
		o.Fresh = true
	}
}

func GetReadOptions(opts ...ReadOption) ReadOptions {
	res := ReadOptions{}
	for _, opt := range opts {
		opt(&res)
	}
	return res
}

// MarketplaceReaderRepo is the read-only accessor to marketplace ledger
// state. All methods return raw ledger values.
type MarketplaceReaderRepo interface {
	ListActiveListings(c bCtx.Ctx, opts ...ReadOption) ([]TokenId, error)
	ListActiveAuctions(c bCtx.Ctx, opts ...ReadOption) ([]TokenId, error)
	GetInfo(c bCtx.Ctx, tokenId TokenId, opts ...ReadOption) (*RawTokenInfo, error)
	ListCreatedBy(c bCtx.Ctx, account Address, opts ...ReadOption) ([]TokenId, error)
	ListPurchasedBy(c bCtx.Ctx, account Address, opts ...ReadOption) ([]TokenId, error)
	GetWithdrawableBalance(c bCtx.Ctx, account Address, opts ...ReadOption) (interface{}, error)
	TokenURI(c bCtx.Ctx, tokenId TokenId, opts ...ReadOption) (string, error)
}
