package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"emds/internal/domain"
	"emds/internal/seed"
)

// StateKey names the snapshot document.
const StateKey = "emds_state_v1"

// SnapshotStore persists the whole engine state as one JSON document.
type SnapshotStore struct {
	Repo   Repo
	Logger *zap.Logger
	Now    func() time.Time
}

func NewSnapshotStore(db *sql.DB, logger *zap.Logger) *SnapshotStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotStore{Repo: Repo{DB: db}, Logger: logger, Now: time.Now}
}

func (s *SnapshotStore) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Load returns the stored snapshot. The first load on an empty database
// writes and returns the seed snapshot.
func (s *SnapshotStore) Load(ctx context.Context) (domain.Snapshot, error) {
	raw, err := s.Repo.GetDocument(ctx, StateKey)
	if errors.Is(err, ErrNotFound) {
		snap := seed.Snapshot(s.now())
		if err := s.Save(ctx, snap); err != nil {
			return domain.Snapshot{}, err
		}
		s.Logger.Info("seeded snapshot", zap.String("key", StateKey), zap.Int("cases", len(snap.Cases)))
		return snap, nil
	}
	if err != nil {
		s.Logger.Error("read snapshot", zap.Error(err))
		return domain.Snapshot{}, &domain.PersistenceError{Op: "load", Err: err}
	}
	snap, defaulted, err := decodeSnapshot([]byte(raw))
	if err != nil {
		s.Logger.Error("decode snapshot", zap.String("key", StateKey), zap.Error(err))
		return domain.Snapshot{}, &domain.PersistenceError{Op: "load", Err: err}
	}
	if len(defaulted) > 0 {
		s.Logger.Info("backfilled snapshot collections", zap.Strings("keys", defaulted))
	}
	return snap, nil
}

// Save replaces the stored document atomically.
func (s *SnapshotStore) Save(ctx context.Context, snap domain.Snapshot) error {
	snap.Normalize()
	data, err := json.Marshal(snap)
	if err != nil {
		return &domain.PersistenceError{Op: "save", Err: fmt.Errorf("encode: %w", err)}
	}
	ts := s.now().UTC().Format(time.RFC3339)
	if err := s.Repo.PutDocument(ctx, StateKey, string(data), ts); err != nil {
		s.Logger.Error("write snapshot", zap.Error(err))
		return &domain.PersistenceError{Op: "save", Err: err}
	}
	return nil
}

// decodeSnapshot parses a stored document, defaulting collections that older
// documents lack. It reports which top-level keys were defaulted.
func decodeSnapshot(data []byte) (domain.Snapshot, []string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return domain.Snapshot{}, nil, fmt.Errorf("decode %s: %w", StateKey, err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, nil, fmt.Errorf("decode %s: %w", StateKey, err)
	}
	var defaulted []string
	missing := func(key string) bool {
		v, ok := fields[key]
		if !ok || string(v) == "null" {
			defaulted = append(defaulted, key)
			return true
		}
		return false
	}
	// evaluated for every key so the report is complete
	for _, key := range []string{"cases", "subtasks", "logs", "collaborationNotes"} {
		missing(key)
	}
	if missing("users") {
		snap.Users = seed.Users()
	}
	if missing("divisions") {
		snap.Divisions = seed.Divisions()
	}
	snap.Normalize()
	return snap, defaulted, nil
}
