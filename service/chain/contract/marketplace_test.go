package contract

import (
	"math/big"
	"testing"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	bCtx "github.com/reimerr12/nft-marketplace/base/ctx"
	"github.com/reimerr12/nft-marketplace/domain"
)

type fakeChainClient struct {
	outputs      map[string][]interface{}
	freshMethods []string
}

func (f *fakeChainClient) Call(c bCtx.Ctx, addr common.Address, _abi ethabi.ABI, method string, params ...interface{}) ([]interface{}, error) {
	return f.outputs[method], nil
}

func (f *fakeChainClient) CallFresh(c bCtx.Ctx, addr common.Address, _abi ethabi.ABI, method string, params ...interface{}) ([]interface{}, error) {
	f.freshMethods = append(f.freshMethods, method)
	return f.outputs[method], nil
}

func newTestMarketplace(t *testing.T, client *fakeChainClient) *Marketplace {
	m, err := NewMarketplace(client, ReadContext{
		MarketplaceAddress: domain.Address("0x000000000000000000000000000000000000dead"),
	})
	require.NoError(t, err)
	return m
}

func TestNewMarketplaceRequiresAddress(t *testing.T) {
	_, err := NewMarketplace(&fakeChainClient{}, ReadContext{})
	require.ErrorIs(t, err, domain.ErrTerminalConfiguration)
}

func TestGetInfoUnpacksRawValues(t *testing.T) {
	owner := common.HexToAddress("0x00000000000000000000000000000000000000AB")
	client := &fakeChainClient{outputs: map[string][]interface{}{
		"getInfo": {owner, true, false, big.NewInt(100), big.NewInt(0), big.NewInt(1700000000)},
	}}
	m := newTestMarketplace(t, client)

	info, err := m.GetInfo(bCtx.Background(), domain.TokenId("7"))
	require.NoError(t, err)
	require.Equal(t, domain.Address(owner.String()).ToLower(), info.Owner)
	require.True(t, info.IsListed)
	require.False(t, info.IsAuctioned)
	require.Equal(t, big.NewInt(100), info.Price)
}

func TestGetInfoRejectsWrongArity(t *testing.T) {
	client := &fakeChainClient{outputs: map[string][]interface{}{
		"getInfo": {true, false},
	}}
	m := newTestMarketplace(t, client)

	_, err := m.GetInfo(bCtx.Background(), domain.TokenId("7"))
	require.Error(t, err)
}

func TestGetInfoRejectsMalformedTokenId(t *testing.T) {
	m := newTestMarketplace(t, &fakeChainClient{})
	_, err := m.GetInfo(bCtx.Background(), domain.TokenId("not-a-number"))
	require.Error(t, err)
}

func TestListTokenIdsConvertsBigInts(t *testing.T) {
	client := &fakeChainClient{outputs: map[string][]interface{}{
		"getActiveListings": {[]*big.Int{big.NewInt(1), big.NewInt(10)}},
	}}
	m := newTestMarketplace(t, client)

	ids, err := m.ListActiveListings(bCtx.Background())
	require.NoError(t, err)
	require.Equal(t, []domain.TokenId{"1", "10"}, ids)
}

func TestFreshReadOptionRoutesToCallFresh(t *testing.T) {
	client := &fakeChainClient{outputs: map[string][]interface{}{
		"getActiveListings": {[]*big.Int{}},
		"getActiveAuctions": {[]*big.Int{}},
	}}
	m := newTestMarketplace(t, client)

	_, err := m.ListActiveListings(bCtx.Background())
	require.NoError(t, err)
	require.Empty(t, client.freshMethods)

	_, err = m.ListActiveAuctions(bCtx.Background(), domain.WithFreshRead())
	require.NoError(t, err)
	require.Equal(t, []string{"getActiveAuctions"}, client.freshMethods)
}
