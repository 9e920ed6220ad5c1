package usecase

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reimerr12/nft-marketplace/domain"
	"github.com/reimerr12/nft-marketplace/domain/catalog"
)

func listedEntry(id int, price int64, name string) *catalog.CatalogEntry {
	return &catalog.CatalogEntry{
		TokenId:  domain.TokenId(fmt.Sprint(id)),
		Metadata: &catalog.Metadata{Name: name},
		Info: catalog.TokenInfo{
			IsListed:   true,
			Price:      big.NewInt(price),
			HighestBid: big.NewInt(0),
		},
	}
}

func snapshotOf(entries ...*catalog.CatalogEntry) *catalog.Catalog {
	return catalog.NewCatalog(catalog.ActiveScope(), entries, "test")
}

func TestPaginationCoversAllEntriesWithoutOverlap(t *testing.T) {
	entries := make([]*catalog.CatalogEntry, 0, 20)
	for i := 1; i <= 20; i++ {
		entries = append(entries, listedEntry(i, int64(i), ""))
	}
	snap := snapshotOf(entries...)

	state := catalog.NewQueryState()
	state.SetPageSize(8)

	seen := map[domain.TokenId]bool{}
	for pageNum := 1; pageNum <= 3; pageNum++ {
		state.SetPage(pageNum)
		page := runQuery(snap, state, false)
		require.Equal(t, 20, page.Total)
		require.Equal(t, 3, page.TotalPages)
		for _, e := range page.Entries {
			require.False(t, seen[e.TokenId], "entry %s appeared twice", e.TokenId)
			seen[e.TokenId] = true
		}
	}
	require.Len(t, seen, 20)

	state.SetPage(4)
	page := runQuery(snap, state, false)
	require.Empty(t, page.Entries)
	require.Equal(t, 20, page.Total)
}

func TestPaginationBoundary(t *testing.T) {
	entries := make([]*catalog.CatalogEntry, 0, 10)
	for i := 1; i <= 10; i++ {
		entries = append(entries, listedEntry(i, int64(i), ""))
	}
	snap := snapshotOf(entries...)

	state := catalog.NewQueryState()
	state.SetPageSize(4)

	state.SetPage(1)
	require.Len(t, runQuery(snap, state, false).Entries, 4)
	state.SetPage(3)
	require.Len(t, runQuery(snap, state, false).Entries, 2)
	state.SetPage(4)
	require.Empty(t, runQuery(snap, state, false).Entries)
}

func TestSearchMatchesNameAndDescription(t *testing.T) {
	a := listedEntry(1, 10, "Cosmic Whale")
	b := listedEntry(2, 20, "Pixel Cat")
	b.Metadata.Description = "a whale of a deal"
	c := listedEntry(3, 30, "Mountain")
	snap := snapshotOf(a, b, c)

	state := catalog.NewQueryState()
	state.SetSearch("WHALE")

	page := runQuery(snap, state, false)
	require.Len(t, page.Entries, 2)
}

func TestSearchFallbackNameIsSearchable(t *testing.T) {
	e := listedEntry(42, 10, "")
	e.Metadata = nil
	snap := snapshotOf(e)

	state := catalog.NewQueryState()
	state.SetSearch("#nft42")

	page := runQuery(snap, state, false)
	require.Len(t, page.Entries, 1)
}

func TestPriceRangeFiltersOnActiveValue(t *testing.T) {
	listed := listedEntry(1, 100, "")
	auctioned := &catalog.CatalogEntry{
		TokenId: domain.TokenId("2"),
		Info: catalog.TokenInfo{
			IsAuctioned: true,
			Price:       big.NewInt(999),
			HighestBid:  big.NewInt(50),
		},
	}
	snap := snapshotOf(listed, auctioned)

	state := catalog.NewQueryState()
	state.SetPriceRange(big.NewInt(60), nil)

	page := runQuery(snap, state, false)
	require.Len(t, page.Entries, 1)
	require.Equal(t, domain.TokenId("1"), page.Entries[0].TokenId)
}

func TestSortOrders(t *testing.T) {
	snap := snapshotOf(
		listedEntry(3, 300, ""),
		listedEntry(1, 200, ""),
		listedEntry(2, 100, ""),
		listedEntry(10, 200, ""),
	)

	cases := []struct {
		key  catalog.SortKey
		want []domain.TokenId
	}{
		{catalog.SortTokenIdAsc, []domain.TokenId{"1", "2", "3", "10"}},
		{catalog.SortTokenIdDesc, []domain.TokenId{"10", "3", "2", "1"}},
		{catalog.SortPriceLow, []domain.TokenId{"2", "1", "10", "3"}},
		{catalog.SortPriceHigh, []domain.TokenId{"3", "1", "10", "2"}},
	}
	for _, c := range cases {
		state := catalog.NewQueryState()
		state.SetSort(c.key)
		page := runQuery(snap, state, false)
		got := make([]domain.TokenId, 0, len(page.Entries))
		for _, e := range page.Entries {
			got = append(got, e.TokenId)
		}
		require.Equal(t, c.want, got, "sort %s", c.key)
	}
}

func TestStalePropagatesToPage(t *testing.T) {
	snap := snapshotOf(listedEntry(1, 10, ""))
	page := runQuery(snap, catalog.NewQueryState(), true)
	require.True(t, page.Stale)
}
