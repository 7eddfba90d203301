package repo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emds/internal/db"
	"emds/internal/domain"
	"emds/internal/migrate"
	"emds/internal/seed"
)

func newTestStore(t *testing.T) (*SnapshotStore, *sql.DB) {
	t.Helper()
	conn, err := db.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(context.Background(), conn))
	store := NewSnapshotStore(conn, nil)
	store.Now = func() time.Time { return time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC) }
	return store, conn
}

func TestLoadSeedsEmptyDatabase(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Divisions, 9)
	assert.Equal(t, seed.Users(), snap.Users)
	assert.NotEmpty(t, snap.Cases)

	raw, err := store.Repo.GetDocument(ctx, StateKey)
	require.NoError(t, err)
	assert.Contains(t, raw, `"collaborationNotes"`)

	again, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, again)
}

func TestSaveReplacesDocument(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	snap := domain.Snapshot{
		Cases:     []domain.Case{{ID: "c1", Title: "Genset", Status: domain.CaseInAssessment}},
		Subtasks:  []domain.Subtask{{ID: "t1", CaseID: "c1", Division: "TEK", Status: domain.TaskPending}},
		Users:     []domain.User{{ID: "u1", Name: "Budi", Role: domain.RoleAdmin}},
		Divisions: []domain.DivisionConfig{{ID: "d1", Code: "TEK", Name: "Teknik"}},
	}
	require.NoError(t, store.Save(ctx, snap))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Cases, 1)
	assert.Equal(t, "Genset", got.Cases[0].Title)
	assert.NotNil(t, got.Subtasks[0].Solutions)
	assert.NotNil(t, got.Logs)
	assert.Len(t, got.Users, 1)

	ts, err := store.Repo.DocumentUpdatedAt(ctx, StateKey)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-10T09:00:00Z", ts)
}

func TestLoadBackfillsOlderDocuments(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	old := `{"cases":[{"id":"c1","title":"Lama","status":"IN_ASSESSMENT"}],
"subtasks":[{"id":"t1","caseId":"c1","division":"TEK","status":"PENDING"}],
"logs":null}`
	require.NoError(t, store.Repo.PutDocument(ctx, StateKey, old, "2024-01-01T00:00:00Z"))

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Cases, 1)
	assert.Equal(t, []domain.CollaborationNote{}, snap.CollaborationNotes)
	assert.Equal(t, []domain.Log{}, snap.Logs)
	assert.Equal(t, []domain.Solution{}, snap.Subtasks[0].Solutions)
	assert.Equal(t, seed.Users(), snap.Users)
	assert.Equal(t, seed.Divisions(), snap.Divisions)
}

func TestLoadKeepsExplicitEmptyRoster(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	require.NoError(t, store.Repo.PutDocument(ctx, StateKey, `{"users":[],"divisions":[]}`, "x"))

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Users)
	assert.Empty(t, snap.Divisions)
}

func TestLoadCorruptDocumentIsPersistenceError(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	require.NoError(t, store.Repo.PutDocument(ctx, StateKey, `{"cases": [`, "x"))

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, domain.ErrPersistence)
}

func TestSaveOnClosedDatabaseIsPersistenceError(t *testing.T) {
	store, conn := newTestStore(t)
	require.NoError(t, conn.Close())

	err := store.Save(context.Background(), domain.Snapshot{})
	require.ErrorIs(t, err, domain.ErrPersistence)
	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "save", perr.Op)
}
