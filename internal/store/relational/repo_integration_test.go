package relational_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"alertlab/internal/store/relational"
	"alertlab/internal/store/relational/model"
)

// TestAlertIngestIsIdempotentByChatMessage exercises the same
// idempotent-reingest property C1 enforces for candles (S4), here for
// the (chat_id, message_id) unique constraint on alerts: re-ingesting
// the same Telegram message must not create a second row.
func TestAlertIngestIsIdempotentByChatMessage(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set; skipping Postgres integration test")
	}

	conn := sqlx.NewSqlConn("pgx", dsn)
	set := relational.New(conn, cache.CacheConf{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tokenID, err := set.Tokens.Insert(ctx, &model.Token{
		Chain: "solana", TokenAddress: "RepoTestMint", Symbol: "RTM", Name: "Repo Test Mint",
		CreatedAt: time.Now().Unix(),
	})
	require.NoError(t, err)

	callerID, err := set.Callers.Insert(ctx, &model.Caller{
		Platform: "telegram", ExternalID: "chan-1", DisplayName: "Test Channel",
		CreatedAt: time.Now().Unix(),
	})
	require.NoError(t, err)

	alert := &model.Alert{
		CallerID: callerID, TokenID: tokenID, ChatID: "chat-1", MessageID: "msg-1",
		EntryPrice: "0.01", StopPrice: "0.005", TargetsJSON: "[]", Status: "pending",
		CreatedAt: time.Now().Unix(),
	}
	firstID, err := set.Alerts.Insert(ctx, alert)
	require.NoError(t, err)
	secondID, err := set.Alerts.Insert(ctx, alert)
	require.NoError(t, err)
	require.Equal(t, firstID, secondID)
}

// TestLeaderboardAggregatesPnLAcrossRuns exercises the three-table join
// behind experiment.leaderboard: two runs of the same strategy should
// fold into one leaderboard row summing both runs' realized P&L.
func TestLeaderboardAggregatesPnLAcrossRuns(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set; skipping Postgres integration test")
	}

	conn := sqlx.NewSqlConn("pgx", dsn)
	set := relational.New(conn, cache.CacheConf{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := time.Now().Unix()

	tokenID, err := set.Tokens.Insert(ctx, &model.Token{
		Chain: "solana", TokenAddress: "LeaderboardTestMint", Symbol: "LTM", CreatedAt: now,
	})
	require.NoError(t, err)
	callerID, err := set.Callers.Insert(ctx, &model.Caller{
		Platform: "telegram", ExternalID: "chan-leaderboard", DisplayName: "Leaderboard Channel", CreatedAt: now,
	})
	require.NoError(t, err)
	alertID, err := set.Alerts.Insert(ctx, &model.Alert{
		CallerID: callerID, TokenID: tokenID, ChatID: "chat-lb", MessageID: "msg-lb",
		EntryPrice: "1", StopPrice: "0.5", TargetsJSON: "[]", Status: "pending", CreatedAt: now,
	})
	require.NoError(t, err)

	strategyID, err := set.Strategies.Insert(ctx, &model.Strategy{
		Name: "leaderboard-strategy", ConfigJSON: "{}", CreatedAt: now,
	})
	require.NoError(t, err)

	for i, runID := range []string{"lb-run-1", "lb-run-2"} {
		_, err := set.SimulationRuns.Insert(ctx, &model.SimulationRun{
			RunID: runID, StrategyID: strategyID, Seed: int64(i), Status: "completed", CreatedAt: now,
		})
		require.NoError(t, err)
		require.NoError(t, set.SimulationResults.InsertBatch(ctx, []model.SimulationResultSummary{{
			RunID: runID, AlertID: alertID, RealizedPnL: "10.5", Status: "closed", FinalPrice: "1.5", FillsCount: 1,
		}}))
	}

	rows, err := set.SimulationResults.LeaderboardByStrategy(ctx, 10)
	require.NoError(t, err)

	var found bool
	for _, r := range rows {
		if r.StrategyName == "leaderboard-strategy" {
			found = true
			require.Equal(t, int64(2), r.RunCount)
			require.Equal(t, "21.0", r.TotalPnL)
		}
	}
	require.True(t, found, "expected leaderboard-strategy in leaderboard results")
}
