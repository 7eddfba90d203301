package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesStateDir(t *testing.T) {
	dir := t.TempDir()
	conn, err := Open(dir)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Ping())
	_, err = os.Stat(filepath.Join(dir, StateDir, "emds.db"))
	assert.NoError(t, err)

	var mode string
	require.NoError(t, conn.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}
