package events

import (
	"time"

	"github.com/google/uuid"

	"emds/internal/domain"
)

// Action labels recorded in the activity log.
const (
	CaseCreated       = "Case Created"
	CaseUpdated       = "Case Updated"
	SolutionAdded     = "Solution Added"
	SolutionUpdated   = "Solution Updated"
	SolutionDeleted   = "Solution Deleted"
	RevisionRequested = "Revision Requested"
	TaskFinalized     = "Task Finalized"
	ExecutionProgress = "Execution Progress"
	NoteAdded         = "Note Added"
	ExecutiveDecision = "Executive Decision"
	UserAdded         = "User Added"
	UserUpdated       = "User Updated"
	UserDeleted       = "User Deleted"
	DivisionAdded     = "Division Added"
	DivisionUpdated   = "Division Updated"
	DivisionDeleted   = "Division Deleted"
)

const (
	systemUserID   = "sys"
	systemUserName = "System"
)

// Writer prepends activity entries to a snapshot. The caller owns the
// snapshot and persists it.
type Writer struct {
	Now   func() time.Time
	NewID func() string
}

// Append records one entry at the head of snap.Logs and returns it.
func (w Writer) Append(snap *domain.Snapshot, actor domain.Actor, caseID, action, details string) domain.Log {
	if w.Now == nil {
		w.Now = time.Now
	}
	if w.NewID == nil {
		w.NewID = uuid.NewString
	}
	entry := domain.Log{
		ID:        w.NewID(),
		CaseID:    caseID,
		UserID:    actor.ID,
		UserName:  actor.Name,
		Action:    action,
		Details:   details,
		Timestamp: w.Now().UTC().Format(time.RFC3339),
	}
	if entry.UserID == "" {
		entry.UserID, entry.UserName = systemUserID, systemUserName
	}
	snap.Logs = append([]domain.Log{entry}, snap.Logs...)
	return entry
}

// ForCase returns the entries of one case, newest first.
func ForCase(logs []domain.Log, caseID string) []domain.Log {
	res := []domain.Log{}
	for _, l := range logs {
		if l.CaseID == caseID {
			res = append(res, l)
		}
	}
	return res
}
