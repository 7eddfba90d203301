package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"emds/internal/config"
	"emds/internal/domain"
	"emds/internal/engine/auth"
	"emds/internal/events"
	"emds/internal/query"
)

// Store is the durable home of the snapshot.
type Store interface {
	Load(ctx context.Context) (domain.Snapshot, error)
	Save(ctx context.Context, snap domain.Snapshot) error
}

// Engine owns the in-memory snapshot and applies every workflow operation
// to it. Operations are serialized; each one commits only after Store.Save
// succeeds.
type Engine struct {
	Store  Store
	Auth   auth.Service
	Config *config.Config
	Logger *zap.Logger
	Now    func() time.Time
	NewID  func() string

	mu    sync.Mutex
	state domain.Snapshot
}

// New loads the current snapshot from store.
func New(ctx context.Context, store Store, cfg *config.Config, logger *zap.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	snap, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	snap.Normalize()
	return &Engine{
		Store:  store,
		Auth:   auth.NewService(cfg),
		Config: cfg,
		Logger: logger,
		Now:    time.Now,
		NewID:  uuid.NewString,
		state:  snap,
	}, nil
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

func (e *Engine) timestamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

// change describes the log entry of a successful mutation. noop marks a
// call that was accepted but changed nothing.
type change struct {
	caseID  string
	action  string
	details string
	noop    bool
}

// mutate runs fn against a private copy of the snapshot, records the log
// entry, saves, and only then publishes the copy.
func (e *Engine) mutate(ctx context.Context, actor domain.Actor, fn func(next *domain.Snapshot, now string) (change, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.state.Clone()
	next.Normalize()
	ch, err := fn(&next, e.timestamp())
	if err != nil {
		return err
	}
	if ch.noop {
		return nil
	}
	events.Writer{Now: e.now, NewID: e.newID}.Append(&next, actor, ch.caseID, ch.action, ch.details)
	next.Normalize()

	if err := e.Store.Save(ctx, next); err != nil {
		var perr *domain.PersistenceError
		if !errors.As(err, &perr) {
			err = &domain.PersistenceError{Op: "save", Err: err}
		}
		e.Logger.Error("operation not committed",
			zap.String("action", ch.action),
			zap.String("case", ch.caseID),
			zap.String("actor", actor.ID),
			zap.Error(err))
		return err
	}
	e.state = next
	e.Logger.Debug("committed",
		zap.String("action", ch.action),
		zap.String("case", ch.caseID),
		zap.String("actor", actor.ID))
	return nil
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

func (e *Engine) Case(id string) (domain.Case, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := e.state.CaseIndex(id)
	if idx < 0 {
		return domain.Case{}, domain.NotFound("case", id)
	}
	return e.state.Cases[idx], nil
}

func (e *Engine) Subtask(id string) (domain.Subtask, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := e.state.SubtaskIndex(id)
	if idx < 0 {
		return domain.Subtask{}, domain.NotFound("subtask", id)
	}
	return e.state.Subtasks[idx].Clone(), nil
}

// Solution returns a solution with its owning subtask.
func (e *Engine) Solution(id string) (domain.Solution, domain.Subtask, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ti, si := e.state.SolutionIndex(id)
	if ti < 0 {
		return domain.Solution{}, domain.Subtask{}, domain.NotFound("solution", id)
	}
	t := e.state.Subtasks[ti].Clone()
	return t.Solutions[si], t, nil
}

// Templates returns the configured case template catalog.
func (e *Engine) Templates() []domain.CaseTemplate {
	return append([]domain.CaseTemplate(nil), e.Config.Templates...)
}

// CaseInput carries the requester-supplied fields of a new case.
type CaseInput struct {
	Title             string
	Description       string
	Location          string
	Urgency           domain.Urgency
	TargetDate        string
	Justification     string
	AttachmentURL     string
	TemplateID        string
	RequiredDivisions []domain.DivisionCode
	OptionalDivisions []domain.DivisionCode
}

// CreateCase opens a case with one pending subtask per distinct division.
// A catalog template supplies the divisions when none are given.
func (e *Engine) CreateCase(ctx context.Context, actor domain.Actor, in CaseInput) (domain.Case, error) {
	if err := e.Auth.Require(actor, auth.PermCaseCreate); err != nil {
		return domain.Case{}, err
	}
	if strings.TrimSpace(in.Title) == "" {
		in.Title = "Untitled"
	}
	if in.Urgency == "" {
		in.Urgency = domain.UrgencyMedium
	}
	if !in.Urgency.IsValid() {
		return domain.Case{}, domain.Invalid("unknown urgency %s", in.Urgency)
	}
	if in.TemplateID == "" {
		in.TemplateID = domain.CustomTemplateID
	}
	if in.TemplateID != domain.CustomTemplateID {
		tpl, ok := e.Config.Template(in.TemplateID)
		if !ok {
			return domain.Case{}, domain.Invalid("unknown template %s", in.TemplateID)
		}
		if len(in.RequiredDivisions)+len(in.OptionalDivisions) == 0 {
			in.RequiredDivisions = tpl.RequiredDivisions
			in.OptionalDivisions = tpl.OptionalDivisions
		}
	}
	divisions := unionDivisions(in.RequiredDivisions, in.OptionalDivisions)
	if len(divisions) == 0 {
		return domain.Case{}, domain.Invalid("a case needs at least one division")
	}

	var created domain.Case
	err := e.mutate(ctx, actor, func(next *domain.Snapshot, now string) (change, error) {
		for _, d := range divisions {
			if !next.HasDivision(d) {
				return change{}, domain.Invalid("unknown division %s", d)
			}
		}
		created = domain.Case{
			ID:            e.newID(),
			Title:         strings.TrimSpace(in.Title),
			Description:   in.Description,
			Location:      in.Location,
			Urgency:       in.Urgency,
			TargetDate:    in.TargetDate,
			Justification: in.Justification,
			AttachmentURL: in.AttachmentURL,
			TemplateID:    in.TemplateID,
			RequesterID:   actor.ID,
			RequesterName: actor.Name,
			Status:        domain.CaseInAssessment,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		next.Cases = append([]domain.Case{created}, next.Cases...)
		for _, d := range divisions {
			next.Subtasks = append(next.Subtasks, domain.Subtask{
				ID:        e.newID(),
				CaseID:    created.ID,
				Division:  d,
				Status:    domain.TaskPending,
				Solutions: []domain.Solution{},
				UpdatedAt: now,
			})
		}
		return change{caseID: created.ID, action: events.CaseCreated, details: "Template: " + created.TemplateID}, nil
	})
	if err != nil {
		return domain.Case{}, err
	}
	return created, nil
}

// CloneCase creates a new custom case pre-filled from source. Non-empty
// fields of overrides replace the copied values.
func (e *Engine) CloneCase(ctx context.Context, actor domain.Actor, sourceID string, overrides CaseInput) (domain.Case, error) {
	snap := e.Snapshot()
	idx := snap.CaseIndex(sourceID)
	if idx < 0 {
		return domain.Case{}, domain.NotFound("case", sourceID)
	}
	src := snap.Cases[idx]
	in := CaseInput{
		Title:             "Copy of " + src.Title,
		Description:       src.Description,
		Location:          src.Location,
		Urgency:           src.Urgency,
		Justification:     src.Justification,
		AttachmentURL:     src.AttachmentURL,
		TemplateID:        domain.CustomTemplateID,
		RequiredDivisions: query.InvolvedDivisions(sourceID, snap.Subtasks),
	}
	if overrides.Title != "" {
		in.Title = overrides.Title
	}
	if overrides.Description != "" {
		in.Description = overrides.Description
	}
	if overrides.Location != "" {
		in.Location = overrides.Location
	}
	if overrides.Urgency != "" {
		in.Urgency = overrides.Urgency
	}
	if overrides.TargetDate != "" {
		in.TargetDate = overrides.TargetDate
	}
	if overrides.Justification != "" {
		in.Justification = overrides.Justification
	}
	if overrides.AttachmentURL != "" {
		in.AttachmentURL = overrides.AttachmentURL
	}
	if len(overrides.RequiredDivisions)+len(overrides.OptionalDivisions) > 0 {
		in.RequiredDivisions = overrides.RequiredDivisions
		in.OptionalDivisions = overrides.OptionalDivisions
	}
	return e.CreateCase(ctx, actor, in)
}

// CaseEdit lists the block-A fields a requester may change. Nil fields are
// left untouched.
type CaseEdit struct {
	Title         *string
	Description   *string
	Location      *string
	Urgency       *domain.Urgency
	TargetDate    *string
	Justification *string
	AttachmentURL *string
}

// EditCaseBlockA answers a revision request: the case goes back to
// assessment and every subtask in REVISION reopens.
func (e *Engine) EditCaseBlockA(ctx context.Context, actor domain.Actor, caseID string, edit CaseEdit) (domain.Case, error) {
	if err := e.Auth.Require(actor, auth.PermCaseEdit); err != nil {
		return domain.Case{}, err
	}
	if edit.Title != nil && strings.TrimSpace(*edit.Title) == "" {
		return domain.Case{}, domain.Invalid("title is required")
	}
	if edit.Urgency != nil && !edit.Urgency.IsValid() {
		return domain.Case{}, domain.Invalid("unknown urgency %s", *edit.Urgency)
	}
	var updated domain.Case
	err := e.mutate(ctx, actor, func(next *domain.Snapshot, now string) (change, error) {
		idx := next.CaseIndex(caseID)
		if idx < 0 {
			return change{}, domain.NotFound("case", caseID)
		}
		c := &next.Cases[idx]
		if c.Status != domain.CaseRevision {
			return change{}, domain.Illegal("case %s is %s, edits answer a revision request", caseID, c.Status)
		}
		if actor.Role != domain.RoleAdmin && actor.ID != c.RequesterID {
			return change{}, domain.Illegal("only the requester of case %s may edit it", caseID)
		}
		applyString(&c.Title, edit.Title)
		applyString(&c.Description, edit.Description)
		applyString(&c.Location, edit.Location)
		applyString(&c.TargetDate, edit.TargetDate)
		applyString(&c.Justification, edit.Justification)
		applyString(&c.AttachmentURL, edit.AttachmentURL)
		if edit.Urgency != nil {
			c.Urgency = *edit.Urgency
		}
		c.Status = domain.CaseInAssessment
		c.UpdatedAt = now
		for i := range next.Subtasks {
			t := &next.Subtasks[i]
			if t.CaseID == caseID && t.Status == domain.TaskRevision {
				t.Status = domain.TaskInProgress
				t.UpdatedAt = now
			}
		}
		updated = *c
		return change{caseID: caseID, action: events.CaseUpdated, details: "Requester updated details (revision response)"}, nil
	})
	if err != nil {
		return domain.Case{}, err
	}
	return updated, nil
}

// SubmitExecutiveDecision stamps the decision and moves the case to the
// status it maps to.
func (e *Engine) SubmitExecutiveDecision(ctx context.Context, actor domain.Actor, caseID string, decision domain.ExecutiveDecision, note string) (domain.Case, error) {
	if err := e.Auth.Require(actor, auth.PermDecisionSubmit); err != nil {
		return domain.Case{}, err
	}
	if !decision.IsValid() {
		return domain.Case{}, domain.Invalid("unknown decision %s", decision)
	}
	var updated domain.Case
	err := e.mutate(ctx, actor, func(next *domain.Snapshot, now string) (change, error) {
		idx := next.CaseIndex(caseID)
		if idx < 0 {
			return change{}, domain.NotFound("case", caseID)
		}
		c := &next.Cases[idx]
		if e.Config.Engine.StrictDecisions && c.Status != domain.CaseWaitingExecDecision {
			return change{}, domain.Illegal("case %s is %s, not waiting for a decision", caseID, c.Status)
		}
		c.Status = decision.Outcome()
		c.ExecutiveDecision = decision
		c.ExecutiveNote = note
		c.UpdatedAt = now
		updated = *c
		return change{caseID: caseID, action: events.ExecutiveDecision, details: fmt.Sprintf("%s: %s", decision, note)}, nil
	})
	if err != nil {
		return domain.Case{}, err
	}
	return updated, nil
}

func unionDivisions(lists ...[]domain.DivisionCode) []domain.DivisionCode {
	seen := map[domain.DivisionCode]bool{}
	var out []domain.DivisionCode
	for _, list := range lists {
		for _, d := range list {
			d = domain.DivisionCode(strings.ToUpper(strings.TrimSpace(string(d))))
			if d == "" || seen[d] {
				continue
			}
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

func applyString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
