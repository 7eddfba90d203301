package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emds/internal/config"
	"emds/internal/domain"
)

func TestRequireUsesDefaultRoleTable(t *testing.T) {
	svc := NewService(config.Default())
	requester := domain.Actor{ID: "u2", Role: domain.RoleRequester}
	exec := domain.Actor{ID: "u5", Role: domain.RoleExecutive}
	admin := domain.Actor{ID: "u1", Role: domain.RoleAdmin}

	require.NoError(t, svc.Require(requester, PermCaseCreate))
	require.NoError(t, svc.Require(exec, PermDecisionSubmit))
	require.NoError(t, svc.Require(admin, PermUserManage))

	err := svc.Require(requester, PermDecisionSubmit)
	var forbidden ForbiddenError
	require.True(t, errors.As(err, &forbidden))
	assert.Equal(t, PermDecisionSubmit, forbidden.Permission)
	assert.Equal(t, "permission decision.submit required", err.Error())

	assert.Error(t, svc.Require(domain.Actor{Role: "guest"}, PermCaseCreate))
	assert.ElementsMatch(t, []string{PermCaseCreate, PermCaseEdit}, svc.ActorPermissions(requester))
}

func TestRequireDivision(t *testing.T) {
	svc := NewService(config.Default())
	tek := domain.Actor{ID: "u3", Role: domain.RoleReviewer, Division: "TEK"}
	admin := domain.Actor{ID: "u1", Role: domain.RoleAdmin}

	require.NoError(t, svc.RequireDivision(tek, PermSolutionWrite, "TEK"))
	require.NoError(t, svc.RequireDivision(admin, PermSolutionWrite, "KEU"))

	err := svc.RequireDivision(tek, PermSolutionWrite, "KEU")
	var scoped ForbiddenDivisionError
	require.True(t, errors.As(err, &scoped))
	assert.Equal(t, domain.DivisionCode("KEU"), scoped.Division)
}

func TestNilConfigDeniesEverything(t *testing.T) {
	svc := NewService(nil)
	assert.Error(t, svc.Require(domain.Actor{Role: domain.RoleAdmin}, PermUserManage))
}
