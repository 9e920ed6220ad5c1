package catalog

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reimerr12/nft-marketplace/domain"
)

func TestQueryStateResetsPageOnInputChange(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(q *QueryState)
	}{
		{"search", func(q *QueryState) { q.SetSearch("whale") }},
		{"status", func(q *QueryState) { q.SetStatus(StatusListed) }},
		{"priceRange", func(q *QueryState) { q.SetPriceRange(big.NewInt(1), nil) }},
		{"sort", func(q *QueryState) { q.SetSort(SortPriceHigh) }},
		{"pageSize", func(q *QueryState) { q.SetPageSize(24) }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			q := NewQueryState()
			q.SetPage(5)
			c.mutate(q)
			require.Equal(t, 1, q.Page())
		})
	}
}

func TestQueryStateIgnoresNoopChanges(t *testing.T) {
	q := NewQueryState()
	q.SetSearch("whale")
	q.SetPage(3)

	q.SetSearch("whale")
	require.Equal(t, 3, q.Page())

	q.SetStatus(Status("bogus"))
	require.Equal(t, 3, q.Page())

	q.SetPageSize(7)
	require.Equal(t, 3, q.Page())
	require.Equal(t, DefaultPageSize, q.PageSize())
}

func TestSetPageClampsBelowOne(t *testing.T) {
	q := NewQueryState()
	q.SetPage(0)
	require.Equal(t, 1, q.Page())
	q.SetPage(-3)
	require.Equal(t, 1, q.Page())
}

func TestScopeValidity(t *testing.T) {
	require.True(t, ActiveScope().IsValid())
	require.True(t, CreatedByScope(domain.Address("0xAB")).IsValid())
	require.False(t, Scope{Kind: ScopeKindCreatedBy}.IsValid())
	require.False(t, Scope{Kind: ScopeKind("bogus")}.IsValid())
}

func TestScopeKeyLowercasesAccount(t *testing.T) {
	s := CreatedByScope(domain.Address("0xABCD"))
	require.Equal(t, "createdBy:0xabcd", s.Key())
}

func TestActiveValuePicksBidWhileAuctioned(t *testing.T) {
	e := &CatalogEntry{
		Info: TokenInfo{
			IsAuctioned: true,
			Price:       big.NewInt(100),
			HighestBid:  big.NewInt(7),
		},
	}
	require.Equal(t, big.NewInt(7), e.ActiveValue())

	e.Info.IsAuctioned = false
	require.Equal(t, big.NewInt(100), e.ActiveValue())

	e.Info.Price = nil
	require.Equal(t, big.NewInt(0), e.ActiveValue())
}

func TestCompareTokenIdsIsNumeric(t *testing.T) {
	require.Less(t, CompareTokenIds(domain.TokenId("2"), domain.TokenId("10")), 0)
	require.Greater(t, CompareTokenIds(domain.TokenId("10"), domain.TokenId("2")), 0)
	require.Equal(t, 0, CompareTokenIds(domain.TokenId("7"), domain.TokenId("7")))
}
