package engine

import (
	"context"
	"fmt"
	"strings"

	"emds/internal/domain"
	"emds/internal/engine/auth"
	"emds/internal/events"
)

// SolutionInput carries a division's proposal.
type SolutionInput struct {
	Title         string
	Description   string
	IsFeasible    bool
	AttachmentURL string
}

// SolutionEdit lists the editable solution fields. Nil fields are kept.
type SolutionEdit struct {
	Title         *string
	Description   *string
	IsFeasible    *bool
	AttachmentURL *string
}

// ProgressInput is one execution report against a solution.
type ProgressInput struct {
	Percent     int
	Note        string
	EvidenceURL string
}

func parentCase(next *domain.Snapshot, caseID string) (*domain.Case, error) {
	idx := next.CaseIndex(caseID)
	if idx < 0 {
		return nil, domain.NotFound("case", caseID)
	}
	return &next.Cases[idx], nil
}

func assessableCase(next *domain.Snapshot, caseID string) (*domain.Case, error) {
	c, err := parentCase(next, caseID)
	if err != nil {
		return nil, err
	}
	if !c.Status.InAssessmentPhase() {
		return nil, domain.Illegal("case %s is %s, assessment is closed", caseID, c.Status)
	}
	return c, nil
}

// rederive applies the readiness of the case's subtasks to the case.
func rederive(next *domain.Snapshot, c *domain.Case, now string) {
	c.Status = DeriveCaseReadiness(c.ID, next.Subtasks)
	c.UpdatedAt = now
}

// AddSolution attaches a proposal to a subtask. The subtask reopens as
// IN_PROGRESS even when it was already finalized, and the case readiness is
// recomputed.
func (e *Engine) AddSolution(ctx context.Context, actor domain.Actor, subtaskID string, in SolutionInput) (domain.Solution, error) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Solution{}, domain.Invalid("solution title is required")
	}
	var created domain.Solution
	err := e.mutate(ctx, actor, func(next *domain.Snapshot, now string) (change, error) {
		ti := next.SubtaskIndex(subtaskID)
		if ti < 0 {
			return change{}, domain.NotFound("subtask", subtaskID)
		}
		t := &next.Subtasks[ti]
		if err := e.Auth.RequireDivision(actor, auth.PermSolutionWrite, t.Division); err != nil {
			return change{}, err
		}
		c, err := assessableCase(next, t.CaseID)
		if err != nil {
			return change{}, err
		}
		created = domain.Solution{
			ID:            e.newID(),
			SubtaskID:     t.ID,
			Title:         strings.TrimSpace(in.Title),
			Description:   in.Description,
			IsFeasible:    in.IsFeasible,
			AttachmentURL: in.AttachmentURL,
			ProgressLogs:  []domain.SolutionProgressLog{},
			CreatedAt:     now,
			CreatedBy:     actor.ID,
		}
		t.Solutions = append(t.Solutions, created)
		t.Status = domain.TaskInProgress
		t.UpdatedAt = now
		rederive(next, c, now)
		return change{caseID: c.ID, action: events.SolutionAdded, details: fmt.Sprintf("By %s: %s", t.Division, created.Title)}, nil
	})
	if err != nil {
		return domain.Solution{}, err
	}
	return created, nil
}

// lockedSolution resolves a solution that may still be changed.
func (e *Engine) lockedSolution(next *domain.Snapshot, actor domain.Actor, solutionID string) (*domain.Subtask, int, error) {
	ti, si := next.SolutionIndex(solutionID)
	if ti < 0 {
		return nil, -1, domain.NotFound("solution", solutionID)
	}
	t := &next.Subtasks[ti]
	if err := e.Auth.RequireDivision(actor, auth.PermSolutionWrite, t.Division); err != nil {
		return nil, -1, err
	}
	if _, err := assessableCase(next, t.CaseID); err != nil {
		return nil, -1, err
	}
	if t.Status.IsFinal() {
		return nil, -1, domain.Illegal("subtask %s is finalized as %s", t.ID, t.Status)
	}
	return t, si, nil
}

func (e *Engine) EditSolution(ctx context.Context, actor domain.Actor, solutionID string, edit SolutionEdit) (domain.Solution, error) {
	if edit.Title != nil && strings.TrimSpace(*edit.Title) == "" {
		return domain.Solution{}, domain.Invalid("solution title is required")
	}
	var updated domain.Solution
	err := e.mutate(ctx, actor, func(next *domain.Snapshot, now string) (change, error) {
		t, si, err := e.lockedSolution(next, actor, solutionID)
		if err != nil {
			return change{}, err
		}
		s := &t.Solutions[si]
		applyString(&s.Title, edit.Title)
		applyString(&s.Description, edit.Description)
		applyString(&s.AttachmentURL, edit.AttachmentURL)
		if edit.IsFeasible != nil {
			s.IsFeasible = *edit.IsFeasible
		}
		t.UpdatedAt = now
		updated = *s
		return change{caseID: t.CaseID, action: events.SolutionUpdated, details: fmt.Sprintf("By %s: %s", t.Division, s.Title)}, nil
	})
	if err != nil {
		return domain.Solution{}, err
	}
	return updated, nil
}

func (e *Engine) DeleteSolution(ctx context.Context, actor domain.Actor, solutionID string) error {
	return e.mutate(ctx, actor, func(next *domain.Snapshot, now string) (change, error) {
		t, si, err := e.lockedSolution(next, actor, solutionID)
		if err != nil {
			return change{}, err
		}
		title := t.Solutions[si].Title
		t.Solutions = append(t.Solutions[:si], t.Solutions[si+1:]...)
		t.UpdatedAt = now
		return change{caseID: t.CaseID, action: events.SolutionDeleted, details: fmt.Sprintf("By %s: %s", t.Division, title)}, nil
	})
}

// RequestRevision sends a subtask back to the requester. The case moves to
// REVISION regardless of the other subtasks.
func (e *Engine) RequestRevision(ctx context.Context, actor domain.Actor, subtaskID, note string) (domain.Subtask, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return domain.Subtask{}, domain.Invalid("revision note is required")
	}
	var updated domain.Subtask
	err := e.mutate(ctx, actor, func(next *domain.Snapshot, now string) (change, error) {
		ti := next.SubtaskIndex(subtaskID)
		if ti < 0 {
			return change{}, domain.NotFound("subtask", subtaskID)
		}
		t := &next.Subtasks[ti]
		if err := e.Auth.RequireDivision(actor, auth.PermSubtaskRevise, t.Division); err != nil {
			return change{}, err
		}
		c, err := assessableCase(next, t.CaseID)
		if err != nil {
			return change{}, err
		}
		t.Status = domain.TaskRevision
		t.RevisionNote = note
		t.UpdatedAt = now
		c.Status = domain.CaseRevision
		c.UpdatedAt = now
		updated = t.Clone()
		return change{caseID: c.ID, action: events.RevisionRequested, details: note}, nil
	})
	if err != nil {
		return domain.Subtask{}, err
	}
	return updated, nil
}

// FinalizeSubtask records a division's OK or NO and recomputes readiness.
func (e *Engine) FinalizeSubtask(ctx context.Context, actor domain.Actor, subtaskID string, outcome domain.TaskStatus) (domain.Subtask, error) {
	if outcome != domain.TaskOK && outcome != domain.TaskNO {
		return domain.Subtask{}, domain.Invalid("outcome must be OK or NO, got %s", outcome)
	}
	var updated domain.Subtask
	err := e.mutate(ctx, actor, func(next *domain.Snapshot, now string) (change, error) {
		ti := next.SubtaskIndex(subtaskID)
		if ti < 0 {
			return change{}, domain.NotFound("subtask", subtaskID)
		}
		t := &next.Subtasks[ti]
		if err := e.Auth.RequireDivision(actor, auth.PermSubtaskFinalize, t.Division); err != nil {
			return change{}, err
		}
		if len(t.Solutions) == 0 {
			return change{}, domain.Invalid("no solution proposed for subtask %s", t.ID)
		}
		c, err := assessableCase(next, t.CaseID)
		if err != nil {
			return change{}, err
		}
		// a final subtask may be confirmed again only to resync a case whose
		// status no longer follows its subtasks, which happens once the
		// requester has answered an executive REVISION
		if t.Status.IsFinal() && (c.Status == domain.CaseRevision || c.Status == DeriveCaseReadiness(c.ID, next.Subtasks)) {
			return change{}, domain.Illegal("subtask %s is already %s, add a solution to reopen it", t.ID, t.Status)
		}
		if t.Status == domain.TaskRevision {
			return change{}, domain.Illegal("subtask %s awaits the requester's revision", t.ID)
		}
		t.Status = outcome
		t.UpdatedAt = now
		rederive(next, c, now)
		updated = t.Clone()
		return change{caseID: c.ID, action: events.TaskFinalized, details: fmt.Sprintf("Task Status: %s -> Case Status: %s", outcome, c.Status)}, nil
	})
	if err != nil {
		return domain.Subtask{}, err
	}
	return updated, nil
}

// RecordProgress reports execution progress on a solution. A report lower
// than the current progress is dropped: it returns applied=false and no
// error. Reaching completion on every positive subtask completes the case.
func (e *Engine) RecordProgress(ctx context.Context, actor domain.Actor, solutionID string, in ProgressInput) (domain.Solution, bool, error) {
	if err := domain.ValidateProgress(in.Percent); err != nil {
		return domain.Solution{}, false, err
	}
	var (
		result  domain.Solution
		applied bool
	)
	err := e.mutate(ctx, actor, func(next *domain.Snapshot, now string) (change, error) {
		ti, si := next.SolutionIndex(solutionID)
		if ti < 0 {
			return change{}, domain.NotFound("solution", solutionID)
		}
		t := &next.Subtasks[ti]
		if err := e.Auth.RequireDivision(actor, auth.PermProgressRecord, t.Division); err != nil {
			return change{}, err
		}
		c, err := parentCase(next, t.CaseID)
		if err != nil {
			return change{}, err
		}
		if !c.Status.InExecutionPhase() {
			return change{}, domain.Illegal("case %s is %s, not in execution", c.ID, c.Status)
		}
		if t.Status == domain.TaskNO {
			return change{}, domain.Illegal("subtask %s was declined", t.ID)
		}
		s := &t.Solutions[si]
		if in.Percent < s.CurrentProgress {
			result = *s
			return change{noop: true}, nil
		}
		entry := domain.SolutionProgressLog{
			ID:              e.newID(),
			SolutionID:      s.ID,
			ProgressPercent: in.Percent,
			Note:            in.Note,
			EvidenceURL:     in.EvidenceURL,
			Timestamp:       now,
			CreatedBy:       actor.ID,
		}
		s.ProgressLogs = append([]domain.SolutionProgressLog{entry}, s.ProgressLogs...)
		s.CurrentProgress = in.Percent
		t.UpdatedAt = now
		if IsCaseComplete(c.ID, next.Subtasks) {
			c.Status = domain.CaseCompleted
			c.UpdatedAt = now
		}
		result = *s
		result.ProgressLogs = append([]domain.SolutionProgressLog(nil), s.ProgressLogs...)
		applied = true
		return change{caseID: c.ID, action: events.ExecutionProgress, details: fmt.Sprintf("Solution %s: %d%%", s.ID, in.Percent)}, nil
	})
	if err != nil {
		return domain.Solution{}, false, err
	}
	return result, applied, nil
}

// AddCollaborationNote posts a message from the actor's division to one
// division or to ALL.
func (e *Engine) AddCollaborationNote(ctx context.Context, actor domain.Actor, caseID string, target domain.DivisionCode, content string) (domain.CollaborationNote, error) {
	if err := e.Auth.Require(actor, auth.PermNoteAdd); err != nil {
		return domain.CollaborationNote{}, err
	}
	if actor.Division == "" {
		return domain.CollaborationNote{}, domain.Invalid("notes are sent on behalf of a division")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.CollaborationNote{}, domain.Invalid("note content is required")
	}
	if target == "" {
		target = domain.TargetAll
	}
	var created domain.CollaborationNote
	err := e.mutate(ctx, actor, func(next *domain.Snapshot, now string) (change, error) {
		if next.CaseIndex(caseID) < 0 {
			return change{}, domain.NotFound("case", caseID)
		}
		if target != domain.TargetAll && !next.HasDivision(target) {
			return change{}, domain.Invalid("unknown division %s", target)
		}
		created = domain.CollaborationNote{
			ID:             e.newID(),
			CaseID:         caseID,
			SenderDivision: actor.Division,
			TargetDivision: target,
			Content:        content,
			Timestamp:      now,
			SenderName:     actor.Name,
		}
		next.CollaborationNotes = append(next.CollaborationNotes, created)
		return change{caseID: caseID, action: events.NoteAdded, details: fmt.Sprintf("%s -> %s", actor.Division, target)}, nil
	})
	if err != nil {
		return domain.CollaborationNote{}, err
	}
	return created, nil
}
