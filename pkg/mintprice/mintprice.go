// Package mintprice computes market capitalization for a mint, including
// the pump.fun / bonk.fun fast path that derives mcap directly from a
// bonding-curve price without a metadata round trip, and the supply
// lookup used when that path isn't available. Compute produces only the
// pump_bonk and api_metadata sources; chat_regex and inferred are defined
// as Source values but nothing in this package derives them.
package mintprice

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"alertlab/pkg/mintaddr"
)

// Source tags where a MarketCap value came from, per the Open Question
// resolution in SPEC_FULL.md: every result carries enough provenance for
// downstream consumers to decide how much to trust it.
type Source string

const (
	SourcePumpBonk     Source = "pump_bonk"
	SourceAPIMetadata  Source = "api_metadata"
	SourceChatRegex    Source = "chat_regex"
	SourceInferred     Source = "inferred"
	SourceUnknown      Source = "unknown"
	pumpSuffix                = "pump"
	bonkSuffix                = "bonk"
	defaultPumpSupply         = "1000000000" // 1e9 tokens, the pump.fun default mint supply
)

// MarketCap is the result of a mcap computation, always tagged with its
// Source and whether the token supply used was assumed rather than read
// from on-chain metadata.
type MarketCap struct {
	Value         decimal.Decimal
	Source        Source
	SupplyAssumed bool
}

// SupplyLookup resolves the circulating supply for a mint when the fast
// path cannot be used. Implementations typically call C3.
type SupplyLookup interface {
	CirculatingSupply(ctx context.Context, addr mintaddr.Address) (decimal.Decimal, error)
}

var ErrNoPrice = errors.New("mintprice: no price available")

// IsFastPathMint reports whether addr's on-chain suffix marks it as a
// pump.fun or bonk.fun bonding-curve mint, which carries a known default
// supply and therefore doesn't need a metadata lookup.
func IsFastPathMint(addr mintaddr.Address) bool {
	v := addr.String()
	return strings.HasSuffix(v, pumpSuffix) || strings.HasSuffix(v, bonkSuffix)
}

// Compute derives a MarketCap from a price and a mint address. When addr
// is a pump/bonk fast-path mint, it skips the supply lookup and assumes
// the default bonding-curve supply (flagging SupplyAssumed so a caller
// can detect drift if the project later migrates off the default). For
// any other mint it calls lookup for the real circulating supply.
func Compute(ctx context.Context, addr mintaddr.Address, price decimal.Decimal, lookup SupplyLookup) (MarketCap, error) {
	if price.IsZero() || price.IsNegative() {
		return MarketCap{}, ErrNoPrice
	}

	if IsFastPathMint(addr) {
		supply, _ := decimal.NewFromString(defaultPumpSupply)
		return MarketCap{
			Value:         price.Mul(supply),
			Source:        SourcePumpBonk,
			SupplyAssumed: true,
		}, nil
	}

	if lookup == nil {
		return MarketCap{}, errors.New("mintprice: supply lookup required for non fast-path mint")
	}
	supply, err := lookup.CirculatingSupply(ctx, addr)
	if err != nil {
		return MarketCap{}, err
	}
	if supply.IsZero() || supply.IsNegative() {
		return MarketCap{}, ErrNoPrice
	}
	return MarketCap{
		Value:         price.Mul(supply),
		Source:        SourceAPIMetadata,
		SupplyAssumed: false,
	}, nil
}
