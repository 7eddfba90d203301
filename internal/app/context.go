package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"emds/internal/config"
	"emds/internal/db"
	"emds/internal/domain"
	"emds/internal/engine"
	"emds/internal/logging"
	"emds/internal/migrate"
	"emds/internal/repo"
)

// Login picks the first user holding role (and division, when given). With
// no match it returns a temporary actor so the session can still proceed.
func Login(users []domain.User, role domain.Role, division domain.DivisionCode) domain.Actor {
	for _, u := range users {
		if u.Role != role {
			continue
		}
		if division != "" && u.Division != division {
			continue
		}
		return domain.ActorFromUser(u)
	}
	return domain.Actor{ID: "temp", Name: fmt.Sprintf("User %s", role), Role: role, Division: division}
}

// ResolveActor prefers an explicit user id and falls back to Login by role.
func ResolveActor(users []domain.User, actorID string, role domain.Role, division domain.DivisionCode) (domain.Actor, error) {
	if actorID != "" {
		for _, u := range users {
			if u.ID == actorID {
				return domain.ActorFromUser(u), nil
			}
		}
		return domain.Actor{}, domain.NotFound("user", actorID)
	}
	if role == "" {
		return domain.Actor{}, errors.New("no actor: pass --actor-id or --role")
	}
	if !role.IsValid() {
		return domain.Actor{}, domain.Invalid("unknown role %s", role)
	}
	return Login(users, role, division), nil
}

// Runtime bundles what a command needs to run engine operations against a
// workspace.
type Runtime struct {
	DB     *sql.DB
	Config *config.Config
	Logger *zap.Logger
	Engine *engine.Engine

	closeLog func() error
}

// Open loads emds.yml (or defaults), migrates the workspace database and
// loads the engine snapshot.
func Open(ctx context.Context, workspace string) (*Runtime, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := logging.New(cfg.Logging, workspace)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	conn, err := db.Open(workspace)
	if err != nil {
		closeLog()
		return nil, err
	}
	if err := migrate.Migrate(ctx, conn); err != nil {
		conn.Close()
		closeLog()
		return nil, err
	}
	store := repo.NewSnapshotStore(conn, logger)
	eng, err := engine.New(ctx, store, cfg, logger)
	if err != nil {
		conn.Close()
		closeLog()
		return nil, err
	}
	return &Runtime{DB: conn, Config: cfg, Logger: logger, Engine: eng, closeLog: closeLog}, nil
}

func (r *Runtime) Close() error {
	_ = r.Logger.Sync()
	err := r.DB.Close()
	if r.closeLog != nil {
		if cerr := r.closeLog(); err == nil {
			err = cerr
		}
	}
	return err
}

// Status describes the state of an opened workspace.
type Status struct {
	SchemaVersion     int    `json:"schema_version"`
	LatestSchema      int    `json:"latest_schema"`
	SnapshotUpdatedAt string `json:"snapshot_updated_at"`
	Cases             int    `json:"cases"`
	Subtasks          int    `json:"subtasks"`
	Users             int    `json:"users"`
}

// Status reads the applied schema version and the last snapshot write.
func (r *Runtime) Status(ctx context.Context) (Status, error) {
	applied, err := migrate.Version(ctx, r.DB)
	if err != nil {
		return Status{}, fmt.Errorf("schema version: %w", err)
	}
	latest, err := migrate.Latest()
	if err != nil {
		return Status{}, err
	}
	updatedAt, err := repo.Repo{DB: r.DB}.DocumentUpdatedAt(ctx, repo.StateKey)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return Status{}, fmt.Errorf("snapshot timestamp: %w", err)
	}
	snap := r.Engine.Snapshot()
	return Status{
		SchemaVersion:     applied,
		LatestSchema:      latest,
		SnapshotUpdatedAt: updatedAt,
		Cases:             len(snap.Cases),
		Subtasks:          len(snap.Subtasks),
		Users:             len(snap.Users),
	}, nil
}
