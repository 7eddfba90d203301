package query

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emds/internal/domain"
)

func sol(feasible bool, progress int) domain.Solution {
	return domain.Solution{IsFeasible: feasible, CurrentProgress: progress}
}

func task(id, caseID string, div domain.DivisionCode, status domain.TaskStatus, sols ...domain.Solution) domain.Subtask {
	return domain.Subtask{ID: id, CaseID: caseID, Division: div, Status: status, Solutions: sols}
}

func TestCaseProgress(t *testing.T) {
	tests := []struct {
		name     string
		subtasks []domain.Subtask
		want     int
	}{
		{"no subtasks", nil, 0},
		{"no solutions none final", []domain.Subtask{task("a", "c1", "TEK", domain.TaskPending)}, 0},
		{"fallback ratio", []domain.Subtask{
			task("a", "c1", "TEK", domain.TaskOK),
			task("b", "c1", "KEU", domain.TaskPending),
			task("c", "c1", "UMU", domain.TaskNO),
		}, 33},
		{"fallback counts legacy done", []domain.Subtask{
			task("a", "c1", "TEK", domain.TaskDone),
			task("b", "c1", "KEU", domain.TaskPending),
		}, 50},
		{"fallback rounds half up", []domain.Subtask{
			task("a", "c1", "TEK", domain.TaskOK),
			task("b", "c1", "KEU", domain.TaskOK),
			task("c", "c1", "UMU", domain.TaskPending),
		}, 67},
		{"infeasible only uses fallback", []domain.Subtask{
			task("a", "c1", "TEK", domain.TaskOK, sol(false, 90)),
			task("b", "c1", "KEU", domain.TaskNO),
		}, 50},
		{"average of feasible", []domain.Subtask{
			task("a", "c1", "TEK", domain.TaskOK, sol(true, 100), sol(true, 65), sol(false, 0)),
			task("b", "c1", "MED", domain.TaskOK, sol(true, 40)),
		}, 68},
		{"average rounds half up", []domain.Subtask{
			task("a", "c1", "TEK", domain.TaskOK, sol(true, 50), sol(true, 51)),
		}, 51},
		{"other cases ignored", []domain.Subtask{
			task("a", "c1", "TEK", domain.TaskOK, sol(true, 20)),
			task("b", "c2", "TEK", domain.TaskOK, sol(true, 100)),
		}, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CaseProgress("c1", tt.subtasks))
		})
	}
}

func TestCaseProgressStaysInRange(t *testing.T) {
	statuses := []domain.TaskStatus{domain.TaskPending, domain.TaskInProgress, domain.TaskOK, domain.TaskNO, domain.TaskRevision, domain.TaskDone}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 300; i++ {
		var subtasks []domain.Subtask
		for j := 0; j < 1+rng.Intn(5); j++ {
			var sols []domain.Solution
			for k := 0; k < rng.Intn(4); k++ {
				sols = append(sols, sol(rng.Intn(2) == 0, rng.Intn(101)))
			}
			subtasks = append(subtasks, task("t", "c1", "TEK", statuses[rng.Intn(len(statuses))], sols...))
		}
		got := CaseProgress("c1", subtasks)
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, 100)
	}
}

func TestVisibleCases(t *testing.T) {
	cases := []domain.Case{
		{ID: "c1", RequesterID: "u2"},
		{ID: "c2", RequesterID: "u9"},
		{ID: "c3", RequesterID: "u3"},
	}
	subtasks := []domain.Subtask{
		task("t1", "c1", "TEK", domain.TaskPending),
		task("t2", "c2", "KEU", domain.TaskPending),
	}
	ids := func(cs []domain.Case) []string {
		var out []string
		for _, c := range cs {
			out = append(out, c.ID)
		}
		return out
	}

	assert.Equal(t, []string{"c1"}, ids(VisibleCases(domain.Actor{ID: "u2", Role: domain.RoleRequester}, cases, subtasks)))
	assert.Equal(t, []string{"c1", "c3"}, ids(VisibleCases(domain.Actor{ID: "u3", Role: domain.RoleReviewer, Division: "TEK"}, cases, subtasks)))
	assert.Equal(t, []string{"c2"}, ids(VisibleCases(domain.Actor{ID: "u4", Role: domain.RoleReviewer, Division: "KEU"}, cases, subtasks)))
	assert.Len(t, VisibleCases(domain.Actor{ID: "u1", Role: domain.RoleAdmin}, cases, subtasks), 3)
	assert.Len(t, VisibleCases(domain.Actor{ID: "u5", Role: domain.RoleExecutive}, cases, subtasks), 3)
	// a requester never sees cases through a division
	assert.Empty(t, VisibleCases(domain.Actor{ID: "u7", Role: domain.RoleRequester, Division: "TEK"}, cases, subtasks))

	assert.True(t, CanSeeCase(domain.Actor{ID: "u3", Role: domain.RoleReviewer, Division: "TEK"}, "c1", cases, subtasks))
	assert.False(t, CanSeeCase(domain.Actor{ID: "u3", Role: domain.RoleReviewer, Division: "TEK"}, "c2", cases, subtasks))
}

func TestFilterCases(t *testing.T) {
	cases := []domain.Case{
		{ID: "a", Title: "MUX Backup", Status: domain.CaseInAssessment, CreatedAt: "2026-01-02T00:00:00Z"},
		{ID: "b", Title: "Studio", Description: "virtual set mux", Status: domain.CaseInExecution, CreatedAt: "2026-01-03T00:00:00Z"},
		{ID: "c", Title: "Kamera", Status: domain.CaseInAssessment, CreatedAt: "2026-01-01T00:00:00Z"},
	}
	got := FilterCases(cases, CaseFilter{})
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[2].ID)

	got = FilterCases(cases, CaseFilter{Sort: SortOldest, Status: "ALL"})
	assert.Equal(t, "c", got[0].ID)

	got = FilterCases(cases, CaseFilter{Search: "MUX"})
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)

	got = FilterCases(cases, CaseFilter{Status: string(domain.CaseInAssessment), Sort: SortOldest})
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
}

func TestDivisionInboxAndExecutionQueue(t *testing.T) {
	cases := []domain.Case{
		{ID: "c1", Status: domain.CaseInAssessment},
		{ID: "c2", Status: domain.CaseRevision},
		{ID: "c3", Status: domain.CaseInExecution},
		{ID: "c4", Status: domain.CaseWaitingExecDecision},
		{ID: "c5", Status: domain.CaseNew},
	}
	subtasks := []domain.Subtask{
		{ID: "t1", CaseID: "c1", Division: "TEK", UpdatedAt: "2026-01-01T00:00:00Z"},
		{ID: "t2", CaseID: "c2", Division: "TEK", UpdatedAt: "2026-01-03T00:00:00Z"},
		{ID: "t3", CaseID: "c3", Division: "TEK", UpdatedAt: "2026-01-04T00:00:00Z"},
		{ID: "t4", CaseID: "c4", Division: "TEK", UpdatedAt: "2026-01-05T00:00:00Z"},
		{ID: "t5", CaseID: "c5", Division: "TEK", UpdatedAt: "2026-01-02T00:00:00Z"},
		{ID: "t6", CaseID: "c1", Division: "KEU", UpdatedAt: "2026-01-06T00:00:00Z"},
	}
	inbox := DivisionInbox("TEK", cases, subtasks)
	require.Len(t, inbox, 3)
	assert.Equal(t, "t2", inbox[0].Subtask.ID)
	assert.Equal(t, "t5", inbox[1].Subtask.ID)
	assert.Equal(t, "t1", inbox[2].Subtask.ID)
	assert.Equal(t, domain.CaseRevision, inbox[0].Case.Status)

	exec := ExecutionQueue("TEK", cases, subtasks)
	require.Len(t, exec, 1)
	assert.Equal(t, "t3", exec[0].Subtask.ID)
	assert.Empty(t, ExecutionQueue("KEU", cases, subtasks))
}

func TestExecutiveViews(t *testing.T) {
	cases := []domain.Case{
		{ID: "w", Status: domain.CaseWaitingExecDecision},
		{ID: "e", Status: domain.CaseInExecution},
		{ID: "d", Status: domain.CaseCompleted, Title: "MCR"},
		{ID: "r", Status: domain.CaseRejected, Title: "Heli"},
		{ID: "p", Status: domain.CaseApproved, Title: "Menara"},
		{ID: "i", Status: domain.CaseInAssessment},
	}
	require.Len(t, DecisionQueue(cases), 1)
	assert.Len(t, MonitoringCases(cases), 4)
	assert.Len(t, Archive(cases, ""), 3)
	arch := Archive(cases, "mcr")
	require.Len(t, arch, 1)
	assert.Equal(t, "d", arch[0].ID)
}

func TestVisibleNotes(t *testing.T) {
	notes := []domain.CollaborationNote{
		{ID: "n3", CaseID: "c1", SenderDivision: "KEU", TargetDivision: "TEK", Timestamp: "2026-01-03T00:00:00Z"},
		{ID: "n1", CaseID: "c1", SenderDivision: "SDM", TargetDivision: domain.TargetAll, Timestamp: "2026-01-01T00:00:00Z"},
		{ID: "n2", CaseID: "c1", SenderDivision: "TEK", TargetDivision: "UMU", Timestamp: "2026-01-02T00:00:00Z"},
		{ID: "n4", CaseID: "c1", SenderDivision: "KEU", TargetDivision: "UMU", Timestamp: "2026-01-04T00:00:00Z"},
		{ID: "n5", CaseID: "c2", SenderDivision: "KEU", TargetDivision: domain.TargetAll, Timestamp: "2026-01-04T00:00:00Z"},
	}
	var ids []string
	for _, n := range VisibleNotes("TEK", "c1", notes) {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"n1", "n2", "n3"}, ids)

	only := VisibleNotes("", "c1", notes)
	require.Len(t, only, 1)
	assert.Equal(t, "n1", only[0].ID)
}

func TestComputeStats(t *testing.T) {
	cases := []domain.Case{
		{Status: domain.CaseCompleted, Urgency: domain.UrgencyHigh, CreatedAt: "2026-01-01T00:00:00Z", UpdatedAt: "2026-01-11T00:00:00Z"},
		{Status: domain.CaseCompleted, Urgency: domain.UrgencyHigh, CreatedAt: "2026-01-01T00:00:00Z", UpdatedAt: "2026-01-06T00:00:00Z"},
		{Status: domain.CaseRejected, Urgency: domain.UrgencyLow},
		{Status: domain.CaseInExecution, Urgency: domain.UrgencyCritical},
	}
	st := ComputeStats(cases)
	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 1, st.Rejected)
	assert.Equal(t, 2, st.Completed)
	assert.InDelta(t, 7.5, st.AvgTurnaroundDays, 0.0001)
	assert.Equal(t, []StatusCount{
		{Status: domain.CaseInExecution, Count: 1},
		{Status: domain.CaseRejected, Count: 1},
		{Status: domain.CaseCompleted, Count: 2},
	}, st.ByStatus)
	require.Len(t, st.ByUrgency, 4)
	assert.Equal(t, UrgencyCount{Urgency: domain.UrgencyMedium, Count: 0}, st.ByUrgency[1])
	assert.Equal(t, 2, st.ByUrgency[2].Count)

	empty := ComputeStats(nil)
	assert.Zero(t, empty.AvgTurnaroundDays)
	assert.Len(t, empty.ByUrgency, 4)
}

func TestInvolvedDivisions(t *testing.T) {
	subtasks := []domain.Subtask{
		task("a", "c1", "TEK", domain.TaskOK),
		task("b", "c2", "SDM", domain.TaskOK),
		task("c", "c1", "KEU", domain.TaskOK),
		task("d", "c1", "TEK", domain.TaskOK),
	}
	assert.Equal(t, []domain.DivisionCode{"TEK", "KEU"}, InvolvedDivisions("c1", subtasks))
	assert.Nil(t, InvolvedDivisions("zz", subtasks))
}
