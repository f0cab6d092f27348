package cli_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertlab/internal/cli"
)

func TestLookupFindsRegisteredCommands(t *testing.T) {
	for _, name := range []string{
		"experiment.run", "experiment.replay", "experiment.list", "experiment.show",
		"experiment.leaderboard", "ingest.ohlcv", "ingest.telegram", "migrate.up", "migrate.down",
	} {
		_, ok := cli.Lookup(name)
		assert.True(t, ok, "expected %s to be registered", name)
	}
}

func TestDispatchRejectsUnknownCommand(t *testing.T) {
	err := cli.Dispatch(context.Background(), &cli.Deps{}, "does.not.exist", nil)
	require.Error(t, err)
}
