package usecase

import (
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"github.com/reimerr12/nft-marketplace/base/bignum"
	bCtx "github.com/reimerr12/nft-marketplace/base/ctx"
	"github.com/reimerr12/nft-marketplace/base/log"
	"github.com/reimerr12/nft-marketplace/base/metrics"
	"github.com/reimerr12/nft-marketplace/base/tracker"
	"github.com/reimerr12/nft-marketplace/domain"
	"github.com/reimerr12/nft-marketplace/domain/catalog"
	"github.com/reimerr12/nft-marketplace/service/ens"
)

type CatalogUseCaseCfg struct {
	Market   domain.MarketplaceReaderRepo
	Metadata catalog.MetadataUseCase
	// Ens annotates owners with their primary name, best-effort; nil
	// disables annotation
	Ens ens.ENS
	// Tracker feeds change notifications to Subscribe; nil disables them
	Tracker    *tracker.RefreshTracker
	ChunkSize  int
	ChunkDelay time.Duration
}

type catalogUseCase struct {
	market   domain.MarketplaceReaderRepo
	hydrator *hydrator
	ens      ens.ENS
	tracker  *tracker.RefreshTracker
	met      metrics.Service

	mu        sync.RWMutex
	snapshots map[string]*catalog.Catalog
	stale     map[string]bool
}

func NewCatalogUseCase(cfg *CatalogUseCaseCfg) catalog.Usecase {
	return &catalogUseCase{
		market:    cfg.Market,
		hydrator:  newHydrator(cfg.Market, cfg.Metadata, cfg.ChunkSize, cfg.ChunkDelay),
		ens:       cfg.Ens,
		tracker:   cfg.Tracker,
		met:       metrics.New("catalog"),
		snapshots: map[string]*catalog.Catalog{},
		stale:     map[string]bool{},
	}
}

// Synchronize refreshes the scope's snapshot and returns it. With refresh
// false an existing snapshot is returned as-is. Concurrent cycles for the
// same scope are not serialized; the last completed cycle wins the snapshot
// slot, which is acceptable because every cycle reads the same upstream
// state or newer.
func (u *catalogUseCase) Synchronize(c bCtx.Ctx, scope catalog.Scope, refresh bool) (*catalog.Catalog, error) {
	if !scope.IsValid() {
		return nil, domain.ErrBadParamInput
	}

	key := scope.Key()
	if !refresh {
		if snap := u.snapshot(key); snap != nil {
			u.met.BumpSum("synchronize.hit", 1)
			return snap, nil
		}
	}

	syncId := uuid.New().String()
	c = bCtx.WithValue(c, "syncId", syncId)
	defer u.met.BumpTime("synchronize.latency", "scope", string(scope.Kind)).End()

	ids, err := u.enumerate(c, scope, refresh)
	if err != nil {
		c.WithFields(log.Fields{
			"scope": key,
			"err":   err,
		}).Error("failed to enumerate scope")
		u.met.BumpSum("synchronize.err", 1)

		prev := u.snapshot(key)
		if prev == nil {
			return nil, err
		}
		u.markStale(key)
		return prev, xerrors.Errorf("scope %s: %w", key, domain.ErrRefreshFailed)
	}

	var opts []domain.ReadOption
	if refresh {
		opts = append(opts, domain.WithFreshRead())
	}
	entries := u.hydrator.hydrate(c, ids, opts...)
	u.annotateOwners(c, entries)

	snap := catalog.NewCatalog(scope, entries, syncId)
	u.mu.Lock()
	u.snapshots[key] = snap
	u.stale[key] = false
	u.mu.Unlock()

	c.WithFields(log.Fields{
		"scope":   key,
		"entries": snap.Len(),
	}).Info("scope synchronized")
	return snap, nil
}

// Query evaluates the caller's view state against the scope's snapshot,
// synchronizing first when the scope has never been loaded.
func (u *catalogUseCase) Query(c bCtx.Ctx, scope catalog.Scope, state *catalog.QueryState) (*catalog.Page, error) {
	if !scope.IsValid() {
		return nil, domain.ErrBadParamInput
	}

	key := scope.Key()
	snap := u.snapshot(key)
	if snap == nil {
		loaded, err := u.Synchronize(c, scope, false)
		if err != nil {
			return nil, err
		}
		snap = loaded
	}

	u.mu.RLock()
	stale := u.stale[key]
	u.mu.RUnlock()

	return runQuery(snap, state, stale), nil
}

func (u *catalogUseCase) Subscribe(onChange func()) func() {
	if u.tracker == nil {
		return func() {}
	}
	return u.tracker.Subscribe(onChange)
}

func (u *catalogUseCase) GetWithdrawableBalance(c bCtx.Ctx, account domain.Address) (*big.Int, error) {
	if account.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}
	raw, err := u.market.GetWithdrawableBalance(c, account, domain.WithFreshRead())
	if err != nil {
		c.WithFields(log.Fields{
			"account": account.ToLowerStr(),
			"err":     err,
		}).Error("failed to market.GetWithdrawableBalance")
		return nil, err
	}
	return bignum.Normalize(raw), nil
}

func (u *catalogUseCase) enumerate(c bCtx.Ctx, scope catalog.Scope, refresh bool) ([]domain.TokenId, error) {
	var opts []domain.ReadOption
	if refresh {
		opts = append(opts, domain.WithFreshRead())
	}

	switch scope.Kind {
	case catalog.ScopeKindActive:
		listings, err := u.market.ListActiveListings(c, opts...)
		if err != nil {
			return nil, err
		}
		auctions, err := u.market.ListActiveAuctions(c, opts...)
		if err != nil {
			return nil, err
		}
		return dedupeTokenIds(append(listings, auctions...)), nil
	case catalog.ScopeKindCreatedBy:
		return u.market.ListCreatedBy(c, scope.Account, opts...)
	case catalog.ScopeKindPurchasedBy:
		return u.market.ListPurchasedBy(c, scope.Account, opts...)
	default:
		return nil, domain.ErrBadParamInput
	}
}

// annotateOwners resolves each distinct owner's primary name once per cycle.
// Failures leave the name empty.
func (u *catalogUseCase) annotateOwners(c bCtx.Ctx, entries []*catalog.CatalogEntry) {
	if u.ens == nil {
		return
	}

	names := map[domain.Address]string{}
	for _, e := range entries {
		owner := e.Info.Owner
		if owner.IsEmpty() {
			continue
		}
		name, ok := names[owner]
		if !ok {
			resolved, err := u.ens.ReverseResolve(c, owner)
			if err != nil {
				c.WithFields(log.Fields{
					"owner": owner.ToLowerStr(),
					"err":   err,
				}).Warn("failed to ens.ReverseResolve")
				resolved = ""
			}
			names[owner] = resolved
			name = resolved
		}
		e.Info.OwnerName = name
	}
}

func (u *catalogUseCase) snapshot(key string) *catalog.Catalog {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.snapshots[key]
}

func (u *catalogUseCase) markStale(key string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stale[key] = true
}
