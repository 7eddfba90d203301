package query

import "emds/internal/domain"

// VisibleCases filters cases to what the actor's role may see. Requesters
// see their own cases, reviewers additionally see cases involving their
// division, admins and executives see everything.
func VisibleCases(actor domain.Actor, cases []domain.Case, subtasks []domain.Subtask) []domain.Case {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleExecutive:
		return append([]domain.Case{}, cases...)
	}
	involved := map[string]bool{}
	if actor.Role == domain.RoleReviewer && actor.Division != "" {
		for _, t := range subtasks {
			if t.Division == actor.Division {
				involved[t.CaseID] = true
			}
		}
	}
	res := []domain.Case{}
	for _, c := range cases {
		if c.RequesterID == actor.ID || involved[c.ID] {
			res = append(res, c)
		}
	}
	return res
}

// CanSeeCase reports whether caseID is visible to actor.
func CanSeeCase(actor domain.Actor, caseID string, cases []domain.Case, subtasks []domain.Subtask) bool {
	for _, c := range VisibleCases(actor, cases, subtasks) {
		if c.ID == caseID {
			return true
		}
	}
	return false
}
