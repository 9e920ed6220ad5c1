package usecase

import (
	"sync"
	"time"

	"github.com/viney-shih/goroutines"

	"github.com/reimerr12/nft-marketplace/base/bignum"
	bCtx "github.com/reimerr12/nft-marketplace/base/ctx"
	"github.com/reimerr12/nft-marketplace/base/log"
	"github.com/reimerr12/nft-marketplace/base/metrics"
	"github.com/reimerr12/nft-marketplace/domain"
	"github.com/reimerr12/nft-marketplace/domain/catalog"
)

const (
	defaultChunkSize  = 2
	defaultChunkDelay = 200 * time.Millisecond
)

// hydrator resolves token ids into catalog entries. Ids are processed in
// sequential chunks so a large scope cannot flood the upstream endpoints;
// items within a chunk resolve concurrently.
type hydrator struct {
	market     domain.MarketplaceReaderRepo
	metadata   catalog.MetadataUseCase
	chunkSize  int
	chunkDelay time.Duration
	met        metrics.Service
}

func newHydrator(market domain.MarketplaceReaderRepo, metadata catalog.MetadataUseCase, chunkSize int, chunkDelay time.Duration) *hydrator {
	if chunkSize < 1 {
		chunkSize = defaultChunkSize
	}
	if chunkDelay == 0 {
		chunkDelay = defaultChunkDelay
	}
	return &hydrator{
		market:     market,
		metadata:   metadata,
		chunkSize:  chunkSize,
		chunkDelay: chunkDelay,
		met:        metrics.New("hydrator"),
	}
}

// hydrate resolves ids into entries. An item whose ledger read fails is
// dropped from the result; a failed metadata fetch keeps the entry with nil
// metadata. The result holds at most one entry per distinct id.
func (h *hydrator) hydrate(c bCtx.Ctx, ids []domain.TokenId, opts ...domain.ReadOption) []*catalog.CatalogEntry {
	defer h.met.BumpTime("hydrate.latency").End()

	ids = dedupeTokenIds(ids)
	entries := make([]*catalog.CatalogEntry, 0, len(ids))
	mu := sync.Mutex{}

	for start := 0; start < len(ids); start += h.chunkSize {
		end := start + h.chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		pool := goroutines.NewPool(len(chunk))
		wg := sync.WaitGroup{}
		for _, id := range chunk {
			id := id
			wg.Add(1)
			pool.Schedule(func() {
				defer wg.Done()
				entry, err := h.hydrateOne(c, id, opts...)
				if err != nil {
					c.WithFields(log.Fields{
						"tokenId": id,
						"err":     err,
					}).Warn("failed to hydrate token")
					h.met.BumpSum("hydrate.dropped", 1)
					return
				}
				mu.Lock()
				entries = append(entries, entry)
				mu.Unlock()
			})
		}
		wg.Wait()
		pool.Release()

		if end < len(ids) {
			select {
			case <-c.Done():
				return entries
			case <-time.After(h.chunkDelay):
			}
		}
	}

	h.met.BumpAvg("hydrate.size", float64(len(entries)))
	return entries
}

func (h *hydrator) hydrateOne(c bCtx.Ctx, id domain.TokenId, opts ...domain.ReadOption) (*catalog.CatalogEntry, error) {
	raw, err := h.market.GetInfo(c, id, opts...)
	if err != nil {
		return nil, err
	}

	entry := &catalog.CatalogEntry{
		TokenId: id,
		Info: catalog.TokenInfo{
			Owner:          raw.Owner.ToLower(),
			IsListed:       raw.IsListed,
			IsAuctioned:    raw.IsAuctioned,
			Price:          bignum.Normalize(raw.Price),
			HighestBid:     bignum.Normalize(raw.HighestBid),
			AuctionEndTime: bignum.NormalizeUnix(raw.AuctionEndTime),
		},
	}

	uri, err := h.market.TokenURI(c, id, opts...)
	if err != nil {
		c.WithFields(log.Fields{
			"tokenId": id,
			"err":     err,
		}).Warn("failed to market.TokenURI")
		return entry, nil
	}

	meta, err := h.metadata.GetFromURI(c, uri)
	if err != nil {
		c.WithFields(log.Fields{
			"tokenId": id,
			"err":     err,
		}).Warn("metadata unavailable")
		h.met.BumpSum("metadata.miss", 1)
		return entry, nil
	}
	entry.Metadata = meta
	return entry, nil
}

// dedupeTokenIds drops repeated ids, keeping first-seen order.
func dedupeTokenIds(ids []domain.TokenId) []domain.TokenId {
	seen := make(map[domain.TokenId]struct{}, len(ids))
	res := make([]domain.TokenId, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	return res
}
