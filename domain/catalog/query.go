package catalog

import (
	"math/big"

	"github.com/reimerr12/nft-marketplace/domain"
)

type Status string

const (
	StatusAll     Status = "all"
	StatusListed  Status = "listed"
	StatusAuction Status = "auction"
	StatusSold    Status = "sold"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusAll, StatusListed, StatusAuction, StatusSold:
		return true
	default:
		return false
	}
}

type SortKey string

const (
	SortTokenIdAsc  SortKey = "token_id"
	SortTokenIdDesc SortKey = "token_id_desc"
	SortPriceLow    SortKey = "price_low"
	SortPriceHigh   SortKey = "price_high"
)

func (k SortKey) IsValid() bool {
	switch k {
	case SortTokenIdAsc, SortTokenIdDesc, SortPriceLow, SortPriceHigh:
		return true
	default:
		return false
	}
}

// AllowedPageSizes is the caller-chosen set of page sizes the pipeline
// accepts.
var AllowedPageSizes = []int{4, 8, 12, 24, 48}

const DefaultPageSize = 12

func isAllowedPageSize(size int) bool {
	for _, s := range AllowedPageSizes {
		if s == size {
			return true
		}
	}
	return false
}

// QueryState is ephemeral, caller-held view state. Every input change resets
// the current page to 1; a stale page would show entries inconsistent with
// the new predicate.
type QueryState struct {
	search   string
	status   Status
	minPrice *big.Int
	maxPrice *big.Int
	sort     SortKey
	pageSize int
	page     int
}

func NewQueryState() *QueryState {
	return &QueryState{
		status:   StatusAll,
		sort:     SortTokenIdAsc,
		pageSize: DefaultPageSize,
		page:     1,
	}
}

func (q *QueryState) Search() string     { return q.search }
func (q *QueryState) Status() Status     { return q.status }
func (q *QueryState) MinPrice() *big.Int { return q.minPrice }
func (q *QueryState) MaxPrice() *big.Int { return q.maxPrice }
func (q *QueryState) Sort() SortKey      { return q.sort }
func (q *QueryState) PageSize() int      { return q.pageSize }
func (q *QueryState) Page() int          { return q.page }

func (q *QueryState) SetSearch(text string) {
	if q.search == text {
		return
	}
	q.search = text
	q.page = 1
}

func (q *QueryState) SetStatus(status Status) {
	if !status.IsValid() || q.status == status {
		return
	}
	q.status = status
	q.page = 1
}

// SetPriceRange takes normalized bounds; nil disables a bound.
func (q *QueryState) SetPriceRange(min, max *big.Int) {
	q.minPrice = min
	q.maxPrice = max
	q.page = 1
}

func (q *QueryState) SetSort(key SortKey) {
	if !key.IsValid() || q.sort == key {
		return
	}
	q.sort = key
	q.page = 1
}

func (q *QueryState) SetPageSize(size int) {
	if !isAllowedPageSize(size) || q.pageSize == size {
		return
	}
	q.pageSize = size
	q.page = 1
}

func (q *QueryState) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	q.page = page
}

// Page is one ordered slice of query results.
type Page struct {
	Entries    []*CatalogEntry `json:"entries"`
	Total      int             `json:"total"`
	PageNum    int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
	// Stale flags that the last refresh attempt failed and these results
	// come from the previous good snapshot.
	Stale bool `json:"stale"`
}

// CompareTokenIds orders ids numerically when both parse, falling back to
// string order for malformed ids.
func CompareTokenIds(a, b domain.TokenId) int {
	ba, errA := a.ToBig()
	bb, errB := b.ToBig()
	if errA == nil && errB == nil {
		return ba.Cmp(bb)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
