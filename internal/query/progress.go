// Package query derives read-only views from a snapshot. Nothing here
// mutates its inputs.
package query

import (
	"math"

	"emds/internal/domain"
)

// CaseProgress returns the execution percentage of a case. With feasible
// solutions it averages their progress; before any exist it falls back to
// the share of positively finalized subtasks.
func CaseProgress(caseID string, subtasks []domain.Subtask) int {
	tasks := domain.SubtasksOf(caseID, subtasks)
	if len(tasks) == 0 {
		return 0
	}
	total, feasible, positive := 0, 0, 0
	for _, t := range tasks {
		if t.Status.IsPositive() {
			positive++
		}
		for _, s := range t.Solutions {
			if s.IsFeasible {
				total += s.CurrentProgress
				feasible++
			}
		}
	}
	if feasible == 0 {
		return clampPercent(roundHalfUp(100 * float64(positive) / float64(len(tasks))))
	}
	return clampPercent(roundHalfUp(float64(total) / float64(feasible)))
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
