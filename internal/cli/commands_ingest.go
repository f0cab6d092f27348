package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"alertlab/internal/store/relational/model"
	"alertlab/pkg/mintaddr"
	"alertlab/pkg/mintprice"
)

func runIngestOHLCV(ctx context.Context, deps *Deps, args []string) error {
	fs := flag.NewFlagSet("ingest.ohlcv", flag.ContinueOnError)
	chain := fs.String("chain", "solana", "chain name (solana, evm:<id>)")
	mint := fs.String("mint", "", "mint / token address, case preserved")
	interval := fs.Int64("interval", 60, "candle interval in seconds")
	from := fs.Int64("from", 0, "range start, unix seconds")
	to := fs.Int64("to", 0, "range end, unix seconds")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *mint == "" {
		return fmt.Errorf("ingest.ohlcv: -mint is required")
	}

	addr, err := mintaddr.New(mustParseChain(*chain), *mint)
	if err != nil {
		return fmt.Errorf("ingest.ohlcv: %w", err)
	}

	candles, err := deps.Candles.Resolve(ctx, addr, *interval, *from, *to)
	if err != nil {
		return fmt.Errorf("ingest.ohlcv: %w", err)
	}
	fmt.Printf("ingest.ohlcv: resolved %d candles for %s over [%d,%d)\n", len(candles), addr.CacheKey(), *from, *to)

	if len(candles) > 0 {
		last := candles[len(candles)-1]
		mcap, err := mintprice.Compute(ctx, addr, last.Close, deps.MarketClient)
		if err != nil {
			logx.Errorf("ingest.ohlcv: market cap unavailable for %s: %v", addr.CacheKey(), err)
		} else {
			fmt.Printf("ingest.ohlcv: mcap=%s source=%s supplyAssumed=%t\n", mcap.Value.String(), mcap.Source, mcap.SupplyAssumed)
		}
	}
	return nil
}

func runIngestTelegram(ctx context.Context, deps *Deps, args []string) error {
	fs := flag.NewFlagSet("ingest.telegram", flag.ContinueOnError)
	platform := fs.String("platform", "telegram", "caller platform")
	callerExternalID := fs.String("caller-id", "", "caller's external channel id")
	callerName := fs.String("caller-name", "", "caller display name")
	chatID := fs.String("chat", "", "chat id the alert was posted in")
	messageID := fs.String("message", "", "message id, used for idempotent ingestion")
	chain := fs.String("chain", "solana", "chain name")
	mint := fs.String("mint", "", "mint / token address, case preserved")
	symbol := fs.String("symbol", "", "token symbol")
	entry := fs.String("entry", "", "entry price")
	stop := fs.String("stop", "", "stop price")
	targetsJSON := fs.String("targets", "[]", `JSON target ladder, e.g. [{"multiple":"1.5","exitFraction":"0.5"}]`)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *callerExternalID == "" || *chatID == "" || *messageID == "" || *mint == "" || *entry == "" || *stop == "" {
		return fmt.Errorf("ingest.telegram: -caller-id, -chat, -message, -mint, -entry and -stop are all required")
	}

	now := time.Now().Unix()

	callerID, err := deps.Relational.Callers.Insert(ctx, &model.Caller{
		Platform: *platform, ExternalID: *callerExternalID, DisplayName: *callerName, CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("ingest.telegram: caller: %w", err)
	}

	// mint is bound as typed here purely to validate it before writing;
	// the stored token_address is the original raw string, never the
	// validated type's normalized form (there isn't one: Address has no
	// case-folding path).
	if _, err := mintaddr.New(mustParseChain(*chain), *mint); err != nil {
		return fmt.Errorf("ingest.telegram: %w", err)
	}

	tokenID, err := deps.Relational.Tokens.Insert(ctx, &model.Token{
		Chain: *chain, TokenAddress: *mint, Symbol: *symbol, CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("ingest.telegram: token: %w", err)
	}

	alertID, err := deps.Relational.Alerts.Insert(ctx, &model.Alert{
		CallerID: callerID, TokenID: tokenID, ChatID: *chatID, MessageID: *messageID,
		EntryPrice: *entry, StopPrice: *stop, TargetsJSON: *targetsJSON, Status: "pending", CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("ingest.telegram: alert: %w", err)
	}

	fmt.Printf("ingest.telegram: alert id=%d (idempotent on chat=%s message=%s)\n", alertID, *chatID, *messageID)
	return nil
}
