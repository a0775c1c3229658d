package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	statements, err := DefaultStatements()
	require.NoError(t, err)
	return NewEngine(statements)
}

func TestNewRoleValidatesGrants(t *testing.T) {
	engine := newTestEngine(t)

	// Every registered (resource, action) pair is a legal single grant.
	for _, resource := range engine.Statements().Resources() {
		actions, err := engine.Statements().ActionsFor(resource)
		require.NoError(t, err)
		for _, action := range actions {
			_, err := engine.NewRole("probe", Grants{resource: {action}})
			require.NoError(t, err, "%s:%s", resource, action)
		}
	}

	_, err := engine.NewRole("bad", Grants{ResourceUser: {"not-a-real-action"}})
	require.ErrorIs(t, err, ErrUnknownAction)

	_, err = engine.NewRole("bad", Grants{"warp-drive": {ActionRead}})
	require.ErrorIs(t, err, ErrUnknownResource)

	_, err = engine.NewRole("", Grants{ResourceUser: {ActionRead}})
	require.Error(t, err)
}

func TestRoleIsImmutable(t *testing.T) {
	engine := newTestEngine(t)
	grants := Grants{ResourceProduct: {ActionRead}}
	role, err := engine.NewRole("reader", grants)
	require.NoError(t, err)

	// Mutating the source map after construction must not leak into the role.
	grants[ResourceProduct] = append(grants[ResourceProduct], ActionDelete)
	grants[ResourceUser] = []Action{ActionBan}

	require.True(t, role.Allows(ResourceProduct, ActionRead))
	require.False(t, role.Allows(ResourceProduct, ActionDelete))
	require.False(t, role.Allows(ResourceUser, ActionBan))
}

func TestCheckUnionOverRoles(t *testing.T) {
	engine := newTestEngine(t)
	definitions := DefaultRoleDefinitions(engine.Statements())
	adminRole, err := engine.NewRole(RoleAdmin, definitions[RoleAdmin])
	require.NoError(t, err)
	userRole, err := engine.NewRole(RoleUser, definitions[RoleUser])
	require.NoError(t, err)

	require.True(t, engine.Check([]Role{adminRole}, ResourceUser, ActionBan))
	require.False(t, engine.Check([]Role{userRole}, ResourceUser, ActionBan))

	// Any granting role wins, regardless of order.
	require.True(t, engine.Check([]Role{userRole, adminRole}, ResourceUser, ActionBan))
	require.True(t, engine.Check([]Role{adminRole, userRole}, ResourceUser, ActionBan))

	require.False(t, engine.Check(nil, ResourceUser, ActionRead))
}

func TestCheckIsIdempotent(t *testing.T) {
	engine := newTestEngine(t)
	definitions := DefaultRoleDefinitions(engine.Statements())
	userRole, err := engine.NewRole(RoleUser, definitions[RoleUser])
	require.NoError(t, err)

	first := engine.Check([]Role{userRole}, ResourceSale, ActionCreate)
	second := engine.Check([]Role{userRole}, ResourceSale, ActionCreate)
	require.Equal(t, first, second)
	require.True(t, first)
}

func TestCheckAll(t *testing.T) {
	engine := newTestEngine(t)
	definitions := DefaultRoleDefinitions(engine.Statements())
	userRole, err := engine.NewRole(RoleUser, definitions[RoleUser])
	require.NoError(t, err)

	granted := []Requirement{
		{ResourceProduct, ActionRead},
		{ResourceStock, ActionRead},
		{ResourceSale, ActionCreate},
	}
	require.True(t, engine.CheckAll([]Role{userRole}, granted))

	// One failing requirement denies the whole set even if the rest pass.
	mixed := append(granted, Requirement{ResourceUser, ActionBan})
	require.False(t, engine.CheckAll([]Role{userRole}, mixed))

	require.True(t, engine.CheckAll([]Role{userRole}, nil))
}

func TestStatementCeilingScenario(t *testing.T) {
	statements := NewStatements()
	require.NoError(t, statements.Register("product", "create", "read"))
	require.NoError(t, statements.Register("stock", "read"))
	engine := NewEngine(statements)

	role, err := engine.NewRole("user", Grants{
		"product": {"read"},
		"stock":   {"read"},
	})
	require.NoError(t, err)

	require.False(t, engine.Check([]Role{role}, "product", "create"))
	require.True(t, engine.Check([]Role{role}, "product", "read"))
}
