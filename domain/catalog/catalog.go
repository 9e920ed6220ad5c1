package catalog

import (
	"fmt"
	"math/big"
	"sort"
	"time"

	bCtx "github.com/reimerr12/nft-marketplace/base/ctx"
	"github.com/reimerr12/nft-marketplace/domain"
)

type ScopeKind string

const (
	// ScopeKindActive covers every token with an active listing or auction
	ScopeKindActive ScopeKind = "active"
	// ScopeKindCreatedBy covers tokens minted by one account
	ScopeKindCreatedBy ScopeKind = "createdBy"
	// ScopeKindPurchasedBy covers tokens bought by one account
	ScopeKindPurchasedBy ScopeKind = "purchasedBy"
)

// Scope names one query context, e.g. "all active marketplace listings" or
// "tokens created by account X".
type Scope struct {
	Kind    ScopeKind      `json:"kind"`
	Account domain.Address `json:"account,omitempty"`
}

func ActiveScope() Scope {
	return Scope{Kind: ScopeKindActive}
}

func CreatedByScope(account domain.Address) Scope {
	return Scope{Kind: ScopeKindCreatedBy, Account: account.ToLower()}
}

func PurchasedByScope(account domain.Address) Scope {
	return Scope{Kind: ScopeKindPurchasedBy, Account: account.ToLower()}
}

func (s Scope) Key() string {
	if s.Account.IsEmpty() {
		return string(s.Kind)
	}
	return fmt.Sprintf("%s:%s", s.Kind, s.Account.ToLowerStr())
}

func (s Scope) IsValid() bool {
	switch s.Kind {
	case ScopeKindActive:
		return true
	case ScopeKindCreatedBy, ScopeKindPurchasedBy:
		return !s.Account.IsEmpty()
	default:
		return false
	}
}

// TokenInfo is the on-chain state snapshot of one token. Price, HighestBid
// and AuctionEndTime are always normalized, never nil after hydration.
type TokenInfo struct {
	Owner          domain.Address `json:"owner"`
	OwnerName      string         `json:"ownerName,omitempty"`
	IsListed       bool           `json:"isListed"`
	IsAuctioned    bool           `json:"isAuctioned"`
	Price          *big.Int       `json:"price"`
	HighestBid     *big.Int       `json:"highestBid"`
	AuctionEndTime int64          `json:"auctionEndTime"`
}

type CatalogEntry struct {
	TokenId domain.TokenId `json:"tokenId"`
	// Metadata is nil when the content document was unavailable; never a
	// fabricated partial document. Replaced wholesale on re-fetch.
	Metadata *Metadata `json:"metadata"`
	Info     TokenInfo `json:"info"`
}

// DisplayName returns the metadata name, falling back to #NFT<tokenId> when
// no name-like field is present.
func (e *CatalogEntry) DisplayName() string {
	if e.Metadata != nil && len(e.Metadata.Name) > 0 {
		return e.Metadata.Name
	}
	return fmt.Sprintf("#NFT%s", e.TokenId)
}

func (e *CatalogEntry) Description() string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata.Description
}

// ActiveValue is the monetary value that is semantically active for the
// entry's status: the highest bid while auctioned, the asking price otherwise.
func (e *CatalogEntry) ActiveValue() *big.Int {
	if e.Info.IsAuctioned {
		if e.Info.HighestBid == nil {
			return new(big.Int)
		}
		return e.Info.HighestBid
	}
	if e.Info.Price == nil {
		return new(big.Int)
	}
	return e.Info.Price
}

func (e *CatalogEntry) Status() Status {
	switch {
	case e.Info.IsAuctioned:
		return StatusAuction
	case e.Info.IsListed:
		return StatusListed
	default:
		return StatusSold
	}
}

// Catalog is the hydrated, per-scope collection of entries. Membership is
// refreshed wholesale per synchronization cycle, never patched incrementally.
type Catalog struct {
	Scope    Scope                            `json:"scope"`
	Entries  map[domain.TokenId]*CatalogEntry `json:"entries"`
	SyncedAt time.Time                        `json:"syncedAt"`
	SyncId   string                           `json:"syncId"`
}

func NewCatalog(scope Scope, entries []*CatalogEntry, syncId string) *Catalog {
	m := make(map[domain.TokenId]*CatalogEntry, len(entries))
	for _, e := range entries {
		m[e.TokenId] = e
	}
	return &Catalog{
		Scope:    scope,
		Entries:  m,
		SyncedAt: time.Now(),
		SyncId:   syncId,
	}
}

func (c *Catalog) Get(id domain.TokenId) (*CatalogEntry, bool) {
	e, ok := c.Entries[id]
	return e, ok
}

func (c *Catalog) Len() int {
	return len(c.Entries)
}

// List returns entries in token id order so iteration is deterministic.
func (c *Catalog) List() []*CatalogEntry {
	res := make([]*CatalogEntry, 0, len(c.Entries))
	for _, e := range c.Entries {
		res = append(res, e)
	}
	sort.Slice(res, func(i, j int) bool {
		return CompareTokenIds(res[i].TokenId, res[j].TokenId) < 0
	})
	return res
}

// Usecase is the engine surface consumed by delivery and other callers.
type Usecase interface {
	Synchronize(c bCtx.Ctx, scope Scope, refresh bool) (*Catalog, error)
	Query(c bCtx.Ctx, scope Scope, state *QueryState) (*Page, error)
	Subscribe(onChange func()) (unsubscribe func())
	GetWithdrawableBalance(c bCtx.Ctx, account domain.Address) (*big.Int, error)
}
