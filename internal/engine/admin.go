package engine

import (
	"context"
	"strings"

	"emds/internal/domain"
	"emds/internal/engine/auth"
	"emds/internal/events"
)

// UserEdit lists the editable user fields. Nil fields are kept; a non-nil
// empty Division clears it.
type UserEdit struct {
	Name     *string
	Role     *domain.Role
	Division *domain.DivisionCode
	Avatar   *string
}

// DivisionEdit lists the editable division fields.
type DivisionEdit struct {
	Code        *domain.DivisionCode
	Name        *string
	Description *string
}

func (e *Engine) AddUser(ctx context.Context, actor domain.Actor, u domain.User) (domain.User, error) {
	if err := e.Auth.Require(actor, auth.PermUserManage); err != nil {
		return domain.User{}, err
	}
	err := e.mutate(ctx, actor, func(next *domain.Snapshot, now string) (change, error) {
		if u.ID == "" {
			u.ID = e.newID()
		}
		if next.UserIndex(u.ID) >= 0 {
			return change{}, domain.Invalid("user %s already exists", u.ID)
		}
		if err := domain.ValidateUser(u, next.Divisions); err != nil {
			return change{}, err
		}
		next.Users = append(next.Users, u)
		return change{action: events.UserAdded, details: userDetails(u)}, nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (e *Engine) UpdateUser(ctx context.Context, actor domain.Actor, id string, edit UserEdit) (domain.User, error) {
	if err := e.Auth.Require(actor, auth.PermUserManage); err != nil {
		return domain.User{}, err
	}
	var updated domain.User
	err := e.mutate(ctx, actor, func(next *domain.Snapshot, now string) (change, error) {
		idx := next.UserIndex(id)
		if idx < 0 {
			return change{}, domain.NotFound("user", id)
		}
		u := next.Users[idx]
		applyString(&u.Name, edit.Name)
		applyString(&u.Avatar, edit.Avatar)
		if edit.Role != nil {
			u.Role = *edit.Role
		}
		if edit.Division != nil {
			u.Division = *edit.Division
		}
		if err := domain.ValidateUser(u, next.Divisions); err != nil {
			return change{}, err
		}
		next.Users[idx] = u
		updated = u
		return change{action: events.UserUpdated, details: userDetails(u)}, nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return updated, nil
}

func (e *Engine) DeleteUser(ctx context.Context, actor domain.Actor, id string) error {
	if err := e.Auth.Require(actor, auth.PermUserManage); err != nil {
		return err
	}
	if id == actor.ID {
		return domain.Illegal("user %s cannot delete themselves", id)
	}
	return e.mutate(ctx, actor, func(next *domain.Snapshot, now string) (change, error) {
		idx := next.UserIndex(id)
		if idx < 0 {
			return change{}, domain.NotFound("user", id)
		}
		u := next.Users[idx]
		next.Users = append(next.Users[:idx], next.Users[idx+1:]...)
		return change{action: events.UserDeleted, details: userDetails(u)}, nil
	})
}

func (e *Engine) AddDivision(ctx context.Context, actor domain.Actor, d domain.DivisionConfig) (domain.DivisionConfig, error) {
	if err := e.Auth.Require(actor, auth.PermDivisionManage); err != nil {
		return domain.DivisionConfig{}, err
	}
	d.Code = domain.DivisionCode(strings.TrimSpace(string(d.Code)))
	err := e.mutate(ctx, actor, func(next *domain.Snapshot, now string) (change, error) {
		if d.ID == "" {
			d.ID = e.newID()
		}
		if next.DivisionIndex(d.ID) >= 0 {
			return change{}, domain.Invalid("division %s already exists", d.ID)
		}
		if err := domain.ValidateDivision(d, next.Divisions); err != nil {
			return change{}, err
		}
		next.Divisions = append(next.Divisions, d)
		return change{action: events.DivisionAdded, details: string(d.Code) + " " + d.Name}, nil
	})
	if err != nil {
		return domain.DivisionConfig{}, err
	}
	return d, nil
}

// UpdateDivision edits a division. Its code may only change while nothing
// references it.
func (e *Engine) UpdateDivision(ctx context.Context, actor domain.Actor, id string, edit DivisionEdit) (domain.DivisionConfig, error) {
	if err := e.Auth.Require(actor, auth.PermDivisionManage); err != nil {
		return domain.DivisionConfig{}, err
	}
	var updated domain.DivisionConfig
	err := e.mutate(ctx, actor, func(next *domain.Snapshot, now string) (change, error) {
		idx := next.DivisionIndex(id)
		if idx < 0 {
			return change{}, domain.NotFound("division", id)
		}
		d := next.Divisions[idx]
		old := d.Code
		if edit.Code != nil {
			d.Code = domain.DivisionCode(strings.TrimSpace(string(*edit.Code)))
		}
		applyString(&d.Name, edit.Name)
		applyString(&d.Description, edit.Description)
		if err := domain.ValidateDivision(d, next.Divisions); err != nil {
			return change{}, err
		}
		if d.Code != old {
			if where := divisionReference(next, old); where != "" {
				return change{}, domain.Illegal("division %s is referenced by %s", old, where)
			}
		}
		next.Divisions[idx] = d
		updated = d
		return change{action: events.DivisionUpdated, details: string(d.Code) + " " + d.Name}, nil
	})
	if err != nil {
		return domain.DivisionConfig{}, err
	}
	return updated, nil
}

// DeleteDivision removes an unreferenced division.
func (e *Engine) DeleteDivision(ctx context.Context, actor domain.Actor, id string) error {
	if err := e.Auth.Require(actor, auth.PermDivisionManage); err != nil {
		return err
	}
	return e.mutate(ctx, actor, func(next *domain.Snapshot, now string) (change, error) {
		idx := next.DivisionIndex(id)
		if idx < 0 {
			return change{}, domain.NotFound("division", id)
		}
		d := next.Divisions[idx]
		if where := divisionReference(next, d.Code); where != "" {
			return change{}, domain.Illegal("division %s is referenced by %s", d.Code, where)
		}
		next.Divisions = append(next.Divisions[:idx], next.Divisions[idx+1:]...)
		return change{action: events.DivisionDeleted, details: string(d.Code) + " " + d.Name}, nil
	})
}

// divisionReference names the first entity still pointing at code.
func divisionReference(s *domain.Snapshot, code domain.DivisionCode) string {
	for _, t := range s.Subtasks {
		if t.Division == code {
			return "subtask " + t.ID
		}
	}
	for _, u := range s.Users {
		if u.Division == code {
			return "user " + u.ID
		}
	}
	for _, n := range s.CollaborationNotes {
		if n.SenderDivision == code || n.TargetDivision == code {
			return "note " + n.ID
		}
	}
	return ""
}

func userDetails(u domain.User) string {
	if u.Division != "" {
		return u.Name + " (" + string(u.Role) + ", " + string(u.Division) + ")"
	}
	return u.Name + " (" + string(u.Role) + ")"
}
