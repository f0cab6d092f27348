// Package cache builds namespaced Redis keys and derives their TTLs from
// config, generalized from the reference trading backend's price/position
// key helpers to this module's candle/run/leaderboard keys.
package cache

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"alertlab/internal/config"
)

// Namespace is the Redis key prefix for this application.
const Namespace = "alertlab"

// TTLClass represents a config-driven TTL bucket.
type TTLClass string

const (
	TTLShort  TTLClass = "short"
	TTLMedium TTLClass = "medium"
	TTLLong   TTLClass = "long"
)

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Short:  durationOrDefault(cfg.Short, 10*time.Second),
		Medium: durationOrDefault(cfg.Medium, time.Minute),
		Long:   durationOrDefault(cfg.Long, 5*time.Minute),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLMedium:
		return t.Medium
	case TTLLong:
		return t.Long
	default:
		return 0
	}
}

// Scaled applies a multiplier to a TTL class, useful for half/double TTL variants.
func (t TTLSet) Scaled(class TTLClass, factor float64) time.Duration {
	base := t.Duration(class)
	if base <= 0 || factor <= 0 {
		return base
	}
	return time.Duration(float64(base) * factor)
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// --- Candle keys (C4 hybrid candle provider cache tier) --------------------

// CandleRangeKey identifies a cached candle slice for one resolution request.
func CandleRangeKey(chain, mint string, intervalSeconds, fromUnix, toUnix int64) string {
	return formatKey("candles", chain, mint, itoa(intervalSeconds), itoa(fromUnix), itoa(toUnix))
}

// CandleLatestKey caches only the most recent candle for a mint/interval.
func CandleLatestKey(chain, mint string, intervalSeconds int64) string {
	return formatKey("candles", "latest", chain, mint, itoa(intervalSeconds))
}

// --- Market cap / mint price keys -------------------------------------------

func MintPriceKey(chain, mint string) string {
	return formatKey("mintprice", chain, mint)
}

// --- Run / experiment keys --------------------------------------------------

func RunStatusKey(runID string) string {
	return formatKey("run", runID, "status")
}

// RunLockKey guards against two workers publishing the same run concurrently.
func RunLockKey(runID string) string {
	return formatKey("lock", "run", runID)
}

func LeaderboardZSetKey(strategyID string) string {
	return formatKey("leaderboard", strategyID)
}

// AlertIngestGuardKey de-duplicates alert ingestion on (chat_id, message_id).
func AlertIngestGuardKey(chatID, messageID string) string {
	return formatKey("ingest", "alert", chatID, messageID)
}

// --- TTL Helpers ------------------------------------------------------------

// CandleRangeTTL returns the TTL for cached candle ranges.
func CandleRangeTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLMedium)
}

// CandleLatestTTL returns the TTL for the latest-candle cache entry.
func CandleLatestTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLShort)
}

// MintPriceTTL returns the TTL for resolved mint-price lookups.
func MintPriceTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLShort)
}

// RunLockTTL returns the TTL for run-publication locks.
func RunLockTTL(ttl TTLSet) time.Duration {
	return ttl.Scaled(TTLShort, 0.5) // target ~5s when short=10s
}

// LeaderboardTTL returns the TTL for leaderboard caches.
func LeaderboardTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLLong)
}

// AlertIngestGuardTTL returns the TTL for alert idempotency guards.
func AlertIngestGuardTTL() time.Duration {
	return 24 * time.Hour
}

// FormatCacheKey is exported for dynamic key construction when patterns
// are not covered by helpers (e.g. diagnostics keys).
func FormatCacheKey(parts ...string) string {
	return formatKey(parts...)
}

// BuildKeyWithSuffix appends an arbitrary suffix to an existing key.
func BuildKeyWithSuffix(baseKey, suffix string) string {
	if strings.TrimSpace(suffix) == "" {
		return baseKey
	}
	return fmt.Sprintf("%s:%s", baseKey, strings.TrimSpace(suffix))
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
