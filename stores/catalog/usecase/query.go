package usecase

import (
	"sort"
	"strings"

	"github.com/reimerr12/nft-marketplace/domain/catalog"
)

// runQuery evaluates the view state against a snapshot. Pure with respect to
// both inputs, so repeated evaluation against the same snapshot yields the
// same page.
func runQuery(snap *catalog.Catalog, state *catalog.QueryState, stale bool) *catalog.Page {
	entries := filterEntries(snap.List(), state)
	sortEntries(entries, state.Sort())
	return paginate(entries, state, stale)
}

func filterEntries(entries []*catalog.CatalogEntry, state *catalog.QueryState) []*catalog.CatalogEntry {
	search := strings.ToLower(strings.TrimSpace(state.Search()))
	status := state.Status()
	minPrice := state.MinPrice()
	maxPrice := state.MaxPrice()

	res := make([]*catalog.CatalogEntry, 0, len(entries))
	for _, e := range entries {
		if len(search) > 0 &&
			!strings.Contains(strings.ToLower(e.DisplayName()), search) &&
			!strings.Contains(strings.ToLower(e.Description()), search) {
			continue
		}
		if status != catalog.StatusAll && e.Status() != status {
			continue
		}
		value := e.ActiveValue()
		if minPrice != nil && value.Cmp(minPrice) < 0 {
			continue
		}
		if maxPrice != nil && value.Cmp(maxPrice) > 0 {
			continue
		}
		res = append(res, e)
	}
	return res
}

// sortEntries orders entries in place. Value sorts break ties on token id so
// the order is total and stable across evaluations.
func sortEntries(entries []*catalog.CatalogEntry, key catalog.SortKey) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch key {
		case catalog.SortTokenIdDesc:
			return catalog.CompareTokenIds(a.TokenId, b.TokenId) > 0
		case catalog.SortPriceLow:
			if cmp := a.ActiveValue().Cmp(b.ActiveValue()); cmp != 0 {
				return cmp < 0
			}
			return catalog.CompareTokenIds(a.TokenId, b.TokenId) < 0
		case catalog.SortPriceHigh:
			if cmp := a.ActiveValue().Cmp(b.ActiveValue()); cmp != 0 {
				return cmp > 0
			}
			return catalog.CompareTokenIds(a.TokenId, b.TokenId) < 0
		default:
			return catalog.CompareTokenIds(a.TokenId, b.TokenId) < 0
		}
	})
}

// paginate slices the ordered result. A page past the end yields an empty
// entry list, never an error.
func paginate(entries []*catalog.CatalogEntry, state *catalog.QueryState, stale bool) *catalog.Page {
	total := len(entries)
	size := state.PageSize()
	totalPages := (total + size - 1) / size

	page := &catalog.Page{
		Entries:    []*catalog.CatalogEntry{},
		Total:      total,
		PageNum:    state.Page(),
		PageSize:   size,
		TotalPages: totalPages,
		Stale:      stale,
	}

	start := (state.Page() - 1) * size
	if start >= total {
		return page
	}
	end := start + size
	if end > total {
		end = total
	}
	page.Entries = entries[start:end]
	return page
}
