package engine

import "emds/internal/domain"

// DeriveCaseReadiness computes the assessment status of a case from the
// full subtask list. A revision anywhere wins; otherwise the case waits for
// the executive once every division has finalized.
func DeriveCaseReadiness(caseID string, subtasks []domain.Subtask) domain.CaseStatus {
	tasks := domain.SubtasksOf(caseID, subtasks)
	if len(tasks) == 0 {
		return domain.CaseInAssessment
	}
	allFinal := true
	for _, t := range tasks {
		if t.Status == domain.TaskRevision {
			return domain.CaseRevision
		}
		if !t.Status.IsFinal() {
			allFinal = false
		}
	}
	if allFinal {
		return domain.CaseWaitingExecDecision
	}
	return domain.CaseInAssessment
}

// IsCaseComplete reports whether every feasible solution of every OK
// subtask is at 100. Other subtasks, legacy DONE included, are ignored; a
// case with no OK subtask is never complete.
func IsCaseComplete(caseID string, subtasks []domain.Subtask) bool {
	accepted := 0
	for _, t := range domain.SubtasksOf(caseID, subtasks) {
		if t.Status != domain.TaskOK {
			continue
		}
		accepted++
		if len(t.Solutions) == 0 {
			return false
		}
		for _, s := range t.Solutions {
			if s.IsFeasible && s.CurrentProgress != 100 {
				return false
			}
		}
	}
	return accepted > 0
}
