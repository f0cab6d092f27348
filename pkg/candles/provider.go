// Package candles implements the hybrid candle provider (C4): for a
// requested (mint, chain, interval, from, to) range it resolves through
// three tiers — an in-process LRU, the time-series store, and finally
// the external market-data client for whatever gap remains — merging
// and deduplicating the results into one ascending, gap-filled slice.
//
// The three-tier resolution and cache-key shape are grounded in the
// reference trading backend's internal/cache key-namespacing helpers
// and its pkg/market.Provider interface (Snapshot/ListAssets); the LRU
// tier itself reuses go-zero's core/collection.Cache, the same
// size-and-TTL-bounded primitive go-zero ships for exactly this kind of
// read-through cache.
package candles

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/zeromicro/go-zero/core/collection"
	"github.com/zeromicro/go-zero/core/logx"

	"alertlab/pkg/mintaddr"
	"alertlab/pkg/ohlcv"
)

// Store is the C1 time-series read/write surface this provider needs.
type Store interface {
	GetRange(ctx context.Context, chain mintaddr.Chain, mint mintaddr.Address, intervalSeconds, fromUnix, toUnix int64) ([]ohlcv.Candle, error)
	Upsert(ctx context.Context, candles []ohlcv.Candle) error
}

// Fetcher is the C3 external client surface this provider needs.
type Fetcher interface {
	FetchCandles(ctx context.Context, mint mintaddr.Address, intervalSeconds, fromUnix, toUnix int64) ([]ohlcv.Candle, error)
}

// Provider resolves candle ranges through the cache -> store -> API
// chain described above.
type Provider struct {
	store   Store
	fetcher Fetcher
	lru     *collection.Cache
	lruTTL  time.Duration
}

// lruMaxEntries bounds the in-process cache tier; past it the least
// recently used range is evicted.
const lruMaxEntries = 1024

// New builds a Provider. lruTTL of 0 disables the in-process cache tier.
func New(store Store, fetcher Fetcher, lruTTL time.Duration) (*Provider, error) {
	if store == nil {
		return nil, fmt.Errorf("candles: store is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("candles: fetcher is required")
	}
	p := &Provider{store: store, fetcher: fetcher, lruTTL: lruTTL}
	if lruTTL > 0 {
		lru, err := collection.NewCache(lruTTL, collection.WithLimit(lruMaxEntries))
		if err != nil {
			return nil, fmt.Errorf("candles: build lru cache: %w", err)
		}
		p.lru = lru
	}
	return p, nil
}

// Gap is a [from, to) sub-range with no candle coverage.
type Gap struct {
	FromUnix int64
	ToUnix   int64
}

func cacheKey(chain mintaddr.Chain, mint mintaddr.Address, intervalSeconds, fromUnix, toUnix int64) string {
	return fmt.Sprintf("%s:%s:%d:%d:%d", chain.String(), mint.String(), intervalSeconds, fromUnix, toUnix)
}

// Resolve returns the deduplicated, ascending candle series covering
// [fromUnix, toUnix) for mint at intervalSeconds, fetching from the API
// only for the portion the store doesn't already have. The range is
// half-open: a candle stamped exactly at toUnix is not included.
func (p *Provider) Resolve(ctx context.Context, mint mintaddr.Address, intervalSeconds, fromUnix, toUnix int64) ([]ohlcv.Candle, error) {
	chain := mint.Chain()
	key := cacheKey(chain, mint, intervalSeconds, fromUnix, toUnix)

	if p.lru != nil {
		if cached, ok := p.lru.Get(key); ok {
			if candles, ok := cached.([]ohlcv.Candle); ok {
				return candles, nil
			}
		}
	}

	stored, err := p.store.GetRange(ctx, chain, mint, intervalSeconds, fromUnix, toUnix)
	if err != nil {
		return nil, fmt.Errorf("candles: read store: %w", err)
	}

	gaps := FindGaps(stored, intervalSeconds, fromUnix, toUnix)
	merged := stored
	for _, gap := range gaps {
		fetched, err := p.fetcher.FetchCandles(ctx, mint, intervalSeconds, gap.FromUnix, gap.ToUnix)
		if err != nil {
			logx.WithContext(ctx).Errorf("candles: fetch gap [%d,%d) mint=%s: %v", gap.FromUnix, gap.ToUnix, mint.CacheKey(), err)
			continue
		}
		if len(fetched) == 0 {
			continue
		}
		if err := p.store.Upsert(ctx, fetched); err != nil {
			logx.WithContext(ctx).Errorf("candles: persist fetched gap mint=%s: %v", mint.CacheKey(), err)
		}
		merged = append(merged, fetched...)
	}

	result := Dedup(merged)

	if p.lru != nil {
		p.lru.Set(key, result)
	}
	return result, nil
}

// FindGaps returns the sub-ranges of [fromUnix, toUnix) at
// intervalSeconds resolution that existing does not cover. existing
// need not be sorted or deduplicated.
func FindGaps(existing []ohlcv.Candle, intervalSeconds, fromUnix, toUnix int64) []Gap {
	if intervalSeconds <= 0 || fromUnix >= toUnix {
		return nil
	}
	have := make(map[int64]struct{}, len(existing))
	for _, c := range existing {
		have[c.TsUnix] = struct{}{}
	}

	var gaps []Gap
	var gapStart int64 = -1
	for ts := fromUnix; ts < toUnix; ts += intervalSeconds {
		if _, ok := have[ts]; ok {
			if gapStart >= 0 {
				gaps = append(gaps, Gap{FromUnix: gapStart, ToUnix: ts})
				gapStart = -1
			}
			continue
		}
		if gapStart < 0 {
			gapStart = ts
		}
	}
	if gapStart >= 0 {
		gaps = append(gaps, Gap{FromUnix: gapStart, ToUnix: toUnix})
	}
	return gaps
}

// Dedup sorts candles ascending by timestamp and collapses duplicate
// timestamps to a single representative, last-write-wins by slice
// order. The write path (C1's ON CONFLICT upsert) makes this the same
// representative that would win on disk, so dedup on read never
// disagrees with what's actually persisted.
func Dedup(candles []ohlcv.Candle) []ohlcv.Candle {
	if len(candles) == 0 {
		return candles
	}
	byTs := make(map[int64]ohlcv.Candle, len(candles))
	order := make([]int64, 0, len(candles))
	for _, c := range candles {
		if _, ok := byTs[c.TsUnix]; !ok {
			order = append(order, c.TsUnix)
		}
		byTs[c.TsUnix] = c
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	out := make([]ohlcv.Candle, len(order))
	for i, ts := range order {
		out[i] = byTs[ts]
	}
	return out
}
