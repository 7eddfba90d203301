package migrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emds/internal/db"
)

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(t.TempDir())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, Migrate(ctx, conn))
	require.NoError(t, Migrate(ctx, conn))

	latest, err := Latest()
	require.NoError(t, err)
	v, err := Version(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, latest, v)

	_, err = conn.ExecContext(ctx, `INSERT INTO kv_documents(key, value, updated_at) VALUES ('k', '{}', 'now')`)
	require.NoError(t, err)
}
