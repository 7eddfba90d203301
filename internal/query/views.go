package query

import (
	"sort"
	"strings"
	"time"

	"emds/internal/domain"
)

const (
	SortNewest = "newest"
	SortOldest = "oldest"
)

// CaseFilter narrows a case list. An empty or "ALL" status matches any.
type CaseFilter struct {
	Status string
	Search string
	Sort   string
}

// FilterCases applies status and text filters and orders by creation time.
func FilterCases(cases []domain.Case, f CaseFilter) []domain.Case {
	res := []domain.Case{}
	for _, c := range cases {
		if f.Status != "" && f.Status != "ALL" && string(c.Status) != f.Status {
			continue
		}
		if !matchesSearch(c, f.Search) {
			continue
		}
		res = append(res, c)
	}
	oldest := f.Sort == SortOldest
	sort.SliceStable(res, func(i, j int) bool {
		a, b := parseTime(res[i].CreatedAt), parseTime(res[j].CreatedAt)
		if oldest {
			return a.Before(b)
		}
		return a.After(b)
	})
	return res
}

func matchesSearch(c domain.Case, search string) bool {
	q := strings.ToLower(strings.TrimSpace(search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Title), q) || strings.Contains(strings.ToLower(c.Description), q)
}

// TaskView pairs a subtask with its parent case.
type TaskView struct {
	Subtask domain.Subtask
	Case    domain.Case
}

func divisionTasks(division domain.DivisionCode, cases []domain.Case, subtasks []domain.Subtask, keep func(domain.CaseStatus) bool) []TaskView {
	byID := make(map[string]domain.Case, len(cases))
	for _, c := range cases {
		byID[c.ID] = c
	}
	res := []TaskView{}
	for _, t := range subtasks {
		if t.Division != division {
			continue
		}
		c, ok := byID[t.CaseID]
		if !ok || !keep(c.Status) {
			continue
		}
		res = append(res, TaskView{Subtask: t, Case: c})
	}
	return res
}

// DivisionInbox lists the division's subtasks on cases still under
// assessment, most recently updated first.
func DivisionInbox(division domain.DivisionCode, cases []domain.Case, subtasks []domain.Subtask) []TaskView {
	res := divisionTasks(division, cases, subtasks, func(s domain.CaseStatus) bool {
		return s == domain.CaseNew || s == domain.CaseInAssessment || s == domain.CaseRevision
	})
	sort.SliceStable(res, func(i, j int) bool {
		return parseTime(res[i].Subtask.UpdatedAt).After(parseTime(res[j].Subtask.UpdatedAt))
	})
	return res
}

// ExecutionQueue lists the division's subtasks on cases in execution.
func ExecutionQueue(division domain.DivisionCode, cases []domain.Case, subtasks []domain.Subtask) []TaskView {
	return divisionTasks(division, cases, subtasks, func(s domain.CaseStatus) bool {
		return s == domain.CaseInExecution
	})
}

// DecisionQueue lists cases waiting for the executive.
func DecisionQueue(cases []domain.Case) []domain.Case {
	return casesWith(cases, domain.CaseWaitingExecDecision)
}

// MonitoringCases lists decided cases for the executive cockpit.
func MonitoringCases(cases []domain.Case) []domain.Case {
	return casesWith(cases, domain.CaseInExecution, domain.CaseCompleted, domain.CaseRejected, domain.CaseApproved)
}

// Archive is the knowledge-base view over closed cases.
func Archive(cases []domain.Case, search string) []domain.Case {
	res := []domain.Case{}
	for _, c := range cases {
		if c.Status.IsArchived() && matchesSearch(c, search) {
			res = append(res, c)
		}
	}
	return res
}

func casesWith(cases []domain.Case, statuses ...domain.CaseStatus) []domain.Case {
	res := []domain.Case{}
	for _, c := range cases {
		for _, s := range statuses {
			if c.Status == s {
				res = append(res, c)
				break
			}
		}
	}
	return res
}

// VisibleNotes returns the notes of a case the division may read: those
// addressed to ALL, to the division, or sent by it. Oldest first.
func VisibleNotes(division domain.DivisionCode, caseID string, notes []domain.CollaborationNote) []domain.CollaborationNote {
	res := []domain.CollaborationNote{}
	for _, n := range notes {
		if n.CaseID != caseID {
			continue
		}
		if n.TargetDivision == domain.TargetAll || (division != "" && (n.TargetDivision == division || n.SenderDivision == division)) {
			res = append(res, n)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return parseTime(res[i].Timestamp).Before(parseTime(res[j].Timestamp))
	})
	return res
}

// InvolvedDivisions returns the distinct divisions of a case in subtask order.
func InvolvedDivisions(caseID string, subtasks []domain.Subtask) []domain.DivisionCode {
	seen := map[domain.DivisionCode]bool{}
	var res []domain.DivisionCode
	for _, t := range subtasks {
		if t.CaseID != caseID || seen[t.Division] {
			continue
		}
		seen[t.Division] = true
		res = append(res, t.Division)
	}
	return res
}

type StatusCount struct {
	Status domain.CaseStatus `json:"status"`
	Count  int               `json:"count"`
}

type UrgencyCount struct {
	Urgency domain.Urgency `json:"urgency"`
	Count   int            `json:"count"`
}

// Stats summarizes a case list for the executive KPI view.
type Stats struct {
	Total             int            `json:"total"`
	ByStatus          []StatusCount  `json:"byStatus"`
	ByUrgency         []UrgencyCount `json:"byUrgency"`
	Rejected          int            `json:"rejected"`
	Completed         int            `json:"completed"`
	AvgTurnaroundDays float64        `json:"avgTurnaroundDays"`
}

// ComputeStats counts cases by status (only non-empty statuses), by urgency
// (all levels) and averages the created-to-updated span of completed cases.
func ComputeStats(cases []domain.Case) Stats {
	st := Stats{Total: len(cases)}
	for _, s := range domain.CaseStatuses {
		n := len(casesWith(cases, s))
		if n > 0 {
			st.ByStatus = append(st.ByStatus, StatusCount{Status: s, Count: n})
		}
	}
	for _, u := range domain.Urgencies {
		n := 0
		for _, c := range cases {
			if c.Urgency == u {
				n++
			}
		}
		st.ByUrgency = append(st.ByUrgency, UrgencyCount{Urgency: u, Count: n})
	}
	st.Rejected = len(casesWith(cases, domain.CaseRejected))
	var span time.Duration
	for _, c := range casesWith(cases, domain.CaseCompleted) {
		span += parseTime(c.UpdatedAt).Sub(parseTime(c.CreatedAt))
		st.Completed++
	}
	if st.Completed > 0 {
		st.AvgTurnaroundDays = span.Hours() / 24 / float64(st.Completed)
	}
	return st
}

// parseTime reads an RFC 3339 timestamp; unparsable values sort as zero.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
