package persist

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/config"
)

func TestOpenRejectsBadDSN(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{DSN: "host=localhost pool_max_conns=lots"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse database dsn")
}

func TestLedgerSchemaIsEmbedded(t *testing.T) {
	files, err := fs.Glob(schemaFiles, "migrations/*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"migrations/00001_player_ledger.sql"}, files)

	raw, err := fs.ReadFile(schemaFiles, files[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "CREATE TABLE IF NOT EXISTS player_stats")
	assert.Contains(t, string(raw), "-- +goose Down")
}
