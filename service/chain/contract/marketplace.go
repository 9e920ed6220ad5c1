package contract

import (
	"math/big"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	baseabi "github.com/reimerr12/nft-marketplace/base/abi"
	bCtx "github.com/reimerr12/nft-marketplace/base/ctx"
	"github.com/reimerr12/nft-marketplace/base/log"
	"github.com/reimerr12/nft-marketplace/domain"
	"github.com/reimerr12/nft-marketplace/service/chain"
)

// ReadContext is the read-only context the marketplace reader is bound to.
// Its owner refreshes it; the engine never caches it longer than one
// synchronization call.
type ReadContext struct {
	MarketplaceAddress domain.Address
}

type Marketplace struct {
	chainService chain.Client
	abi          ethabi.ABI
	addr         common.Address
}

func NewMarketplace(chainService chain.Client, readCtx ReadContext) (*Marketplace, error) {
	if readCtx.MarketplaceAddress.IsEmpty() {
		return nil, domain.ErrTerminalConfiguration
	}
	return &Marketplace{
		chainService: chainService,
		abi:          baseabi.MarketplaceABI,
		addr:         common.HexToAddress(string(readCtx.MarketplaceAddress)),
	}, nil
}

func (m *Marketplace) ListActiveListings(ctx bCtx.Ctx, opts ...domain.ReadOption) ([]domain.TokenId, error) {
	return m.listTokenIds(ctx, "getActiveListings", opts)
}

func (m *Marketplace) ListActiveAuctions(ctx bCtx.Ctx, opts ...domain.ReadOption) ([]domain.TokenId, error) {
	return m.listTokenIds(ctx, "getActiveAuctions", opts)
}

func (m *Marketplace) ListCreatedBy(ctx bCtx.Ctx, account domain.Address, opts ...domain.ReadOption) ([]domain.TokenId, error) {
	return m.listTokenIds(ctx, "getCreatedTokens", opts, common.HexToAddress(string(account)))
}

func (m *Marketplace) ListPurchasedBy(ctx bCtx.Ctx, account domain.Address, opts ...domain.ReadOption) ([]domain.TokenId, error) {
	return m.listTokenIds(ctx, "getPurchasedTokens", opts, common.HexToAddress(string(account)))
}

func (m *Marketplace) GetInfo(ctx bCtx.Ctx, tokenId domain.TokenId, opts ...domain.ReadOption) (*domain.RawTokenInfo, error) {
	id, err := tokenId.ToBig()
	if err != nil {
		return nil, err
	}
	unpacked, err := m.call(ctx, "getInfo", opts, id)
	if err != nil {
		return nil, err
	}
	if len(unpacked) != 6 {
		ctx.WithFields(log.Fields{
			"method":  "getInfo",
			"outputs": len(unpacked),
		}).Error("unexpected output arity")
		return nil, domain.ErrInvalidNumberFormat
	}
	return &domain.RawTokenInfo{
		Owner:          domain.Address(unpacked[0].(common.Address).String()).ToLower(),
		IsListed:       unpacked[1].(bool),
		IsAuctioned:    unpacked[2].(bool),
		Price:          unpacked[3],
		HighestBid:     unpacked[4],
		AuctionEndTime: unpacked[5],
	}, nil
}

func (m *Marketplace) GetWithdrawableBalance(ctx bCtx.Ctx, account domain.Address, opts ...domain.ReadOption) (interface{}, error) {
	unpacked, err := m.call(ctx, "getWithdrawableBalance", opts, common.HexToAddress(string(account)))
	if err != nil {
		return nil, err
	}
	return unpacked[0], nil
}

func (m *Marketplace) TokenURI(ctx bCtx.Ctx, tokenId domain.TokenId, opts ...domain.ReadOption) (string, error) {
	id, err := tokenId.ToBig()
	if err != nil {
		return "", err
	}
	unpacked, err := m.call(ctx, "tokenURI", opts, id)
	if err != nil {
		return "", err
	}
	return unpacked[0].(string), nil
}

func (m *Marketplace) listTokenIds(ctx bCtx.Ctx, method string, opts []domain.ReadOption, params ...interface{}) ([]domain.TokenId, error) {
	unpacked, err := m.call(ctx, method, opts, params...)
	if err != nil {
		return nil, err
	}
	raw, ok := unpacked[0].([]*big.Int)
	if !ok {
		ctx.WithField("method", method).Error("unexpected output type")
		return nil, domain.ErrInvalidNumberFormat
	}
	ids := make([]domain.TokenId, 0, len(raw))
	for _, r := range raw {
		ids = append(ids, domain.TokenIdFromBig(r))
	}
	return ids, nil
}

func (m *Marketplace) call(ctx bCtx.Ctx, method string, opts []domain.ReadOption, params ...interface{}) ([]interface{}, error) {
	o := domain.GetReadOptions(opts...)
	if o.Fresh {
		return m.chainService.CallFresh(ctx, m.addr, m.abi, method, params...)
	}
	return m.chainService.Call(ctx, m.addr, m.abi, method, params...)
}
