package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDivisions = []DivisionConfig{
	{ID: "d1", Code: "TEK", Name: "Teknik"},
	{ID: "d2", Code: "KEU", Name: "Keuangan"},
}

func TestTaskStatus_IsFinal(t *testing.T) {
	tests := []struct {
		status   TaskStatus
		expected bool
	}{
		{TaskPending, false},
		{TaskInProgress, false},
		{TaskRevision, false},
		{TaskOK, true},
		{TaskNO, true},
		{TaskDone, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.IsFinal())
		})
	}
}

func TestExecutiveDecision_Outcome(t *testing.T) {
	assert.Equal(t, CaseInExecution, DecisionApprove.Outcome())
	assert.Equal(t, CaseInExecution, DecisionApproveWithConditions.Outcome())
	assert.Equal(t, CaseRejected, DecisionReject.Outcome())
	assert.Equal(t, CaseRevision, DecisionRevision.Outcome())
	assert.False(t, ExecutiveDecision("MAYBE").IsValid())
}

func TestValidateUser(t *testing.T) {
	tests := []struct {
		name    string
		user    User
		wantErr bool
	}{
		{"reviewer with division", User{ID: "u1", Name: "Joko", Role: RoleReviewer, Division: "TEK"}, false},
		{"reviewer without division", User{ID: "u1", Name: "Joko", Role: RoleReviewer}, true},
		{"reviewer with unknown division", User{ID: "u1", Name: "Joko", Role: RoleReviewer, Division: "XYZ"}, true},
		{"requester without division", User{ID: "u2", Name: "Siti", Role: RoleRequester}, false},
		{"executive with division", User{ID: "u5", Name: "Dir", Role: RoleExecutive, Division: "TEK"}, true},
		{"unknown role", User{ID: "u9", Name: "X", Role: "guest"}, true},
		{"missing name", User{ID: "u9", Role: RoleAdmin}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUser(tt.user, testDivisions)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidation))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateDivision(t *testing.T) {
	require.NoError(t, ValidateDivision(DivisionConfig{ID: "d3", Code: "SDM", Name: "SDM"}, testDivisions))
	// updating an entry keeps its own code
	require.NoError(t, ValidateDivision(DivisionConfig{ID: "d1", Code: "TEK", Name: "Teknik IT"}, testDivisions))

	err := ValidateDivision(DivisionConfig{ID: "d3", Code: "TEK", Name: "Dup"}, testDivisions)
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "already in use")

	err = ValidateDivision(DivisionConfig{ID: "d3", Code: "tek", Name: "lower"}, testDivisions)
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "uppercase")

	require.ErrorIs(t, ValidateDivision(DivisionConfig{ID: "d3", Code: "ALL", Name: "All"}, testDivisions), ErrValidation)
}

func TestValidateProgress(t *testing.T) {
	require.NoError(t, ValidateProgress(0))
	require.NoError(t, ValidateProgress(100))
	require.ErrorIs(t, ValidateProgress(-1), ErrValidation)
	require.ErrorIs(t, ValidateProgress(101), ErrValidation)
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	orig := Snapshot{
		Cases: []Case{{ID: "c1", Status: CaseInExecution}},
		Subtasks: []Subtask{{
			ID: "t1", CaseID: "c1", Status: TaskOK,
			Solutions: []Solution{{ID: "s1", CurrentProgress: 10, ProgressLogs: []SolutionProgressLog{{ID: "p1"}}}},
		}},
	}
	cp := orig.Clone()
	cp.Cases[0].Status = CaseCompleted
	cp.Subtasks[0].Solutions[0].CurrentProgress = 100
	cp.Subtasks[0].Solutions[0].ProgressLogs[0].Note = "changed"

	assert.Equal(t, CaseInExecution, orig.Cases[0].Status)
	assert.Equal(t, 10, orig.Subtasks[0].Solutions[0].CurrentProgress)
	assert.Empty(t, orig.Subtasks[0].Solutions[0].ProgressLogs[0].Note)
}

func TestPersistenceErrorMatchesSentinel(t *testing.T) {
	cause := errors.New("disk full")
	err := error(&PersistenceError{Op: "save", Err: cause})
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "save snapshot: disk full", err.Error())
}
