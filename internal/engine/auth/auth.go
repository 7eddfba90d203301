package auth

import (
	"fmt"

	"emds/internal/config"
	"emds/internal/domain"
)

// Permission ids referenced by engine operations.
const (
	PermCaseCreate      = "case.create"
	PermCaseEdit        = "case.edit"
	PermSolutionWrite   = "solution.write"
	PermSubtaskFinalize = "subtask.finalize"
	PermSubtaskRevise   = "subtask.revise"
	PermProgressRecord  = "progress.record"
	PermNoteAdd         = "note.add"
	PermDecisionSubmit  = "decision.submit"
	PermUserManage      = "user.manage"
	PermDivisionManage  = "division.manage"
)

// ForbiddenError indicates missing permission.
type ForbiddenError struct {
	Permission string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("permission %s required", e.Permission)
}

// ForbiddenDivisionError indicates a reviewer acting outside their division.
type ForbiddenDivisionError struct {
	Actor    domain.DivisionCode
	Division domain.DivisionCode
}

func (e ForbiddenDivisionError) Error() string {
	if e.Actor == "" {
		return fmt.Sprintf("division %s required", e.Division)
	}
	return fmt.Sprintf("division %s cannot act on %s subtasks", e.Actor, e.Division)
}

// Service answers permission questions from the configured role table.
type Service struct {
	roles map[domain.Role]map[string]bool
}

func NewService(cfg *config.Config) Service {
	s := Service{roles: map[domain.Role]map[string]bool{}}
	if cfg == nil {
		return s
	}
	for roleID, role := range cfg.RBAC.Roles {
		perms := map[string]bool{}
		for _, p := range role.Permissions {
			perms[p] = true
		}
		s.roles[domain.Role(roleID)] = perms
	}
	return s
}

func (s Service) ActorHasPermission(actor domain.Actor, perm string) bool {
	return s.roles[actor.Role][perm]
}

// Require returns ForbiddenError when the actor's role lacks perm.
func (s Service) Require(actor domain.Actor, perm string) error {
	if !s.ActorHasPermission(actor, perm) {
		return ForbiddenError{Permission: perm}
	}
	return nil
}

// RequireDivision restricts reviewers to their own division's subtasks.
// Other roles holding perm act on any division.
func (s Service) RequireDivision(actor domain.Actor, perm string, division domain.DivisionCode) error {
	if err := s.Require(actor, perm); err != nil {
		return err
	}
	if actor.Role == domain.RoleReviewer && actor.Division != division {
		return ForbiddenDivisionError{Actor: actor.Division, Division: division}
	}
	return nil
}

// ActorPermissions lists the permissions granted to the actor's role.
func (s Service) ActorPermissions(actor domain.Actor) []string {
	var perms []string
	for p := range s.roles[actor.Role] {
		perms = append(perms, p)
	}
	return perms
}
