package authz

import "fmt"

// Grants maps resources to the actions a role holds on them.
type Grants map[Resource][]Action

// Role is a named, immutable bundle of permission grants. Roles are built
// through Engine.NewRole so every grant is validated against the statement
// table; a Role in circulation can never reference an unregistered
// resource or action.
type Role struct {
	name   string
	grants map[Resource]map[Action]struct{}
}

// Name returns the role name.
func (r Role) Name() string {
	return r.name
}

// Allows reports whether this role alone grants action on resource.
func (r Role) Allows(resource Resource, action Action) bool {
	actions, ok := r.grants[resource]
	if !ok {
		return false
	}
	_, ok = actions[action]
	return ok
}

// Engine builds roles from grants validated against the statement table and
// evaluates permission queries. The model is purely additive: there are no
// negative permissions and no precedence between roles.
type Engine struct {
	statements *Statements
}

// NewEngine constructs an Engine over the given statement table.
func NewEngine(statements *Statements) *Engine {
	return &Engine{statements: statements}
}

// Statements exposes the table the engine validates against.
func (e *Engine) Statements() *Statements {
	return e.statements
}

// NewRole validates every grant against the statement table and returns an
// immutable Role. The grants map is copied; callers may reuse it.
func (e *Engine) NewRole(name string, grants Grants) (Role, error) {
	if name == "" {
		return Role{}, fmt.Errorf("authz: role name required")
	}
	owned := make(map[Resource]map[Action]struct{}, len(grants))
	for resource, actions := range grants {
		for _, action := range actions {
			if err := e.statements.permits(resource, action); err != nil {
				return Role{}, fmt.Errorf("role %s: %w", name, err)
			}
			if owned[resource] == nil {
				owned[resource] = make(map[Action]struct{}, len(actions))
			}
			owned[resource][action] = struct{}{}
		}
	}
	return Role{name: name, grants: owned}, nil
}

// Check reports whether at least one of the held roles grants action on
// resource. Union over roles: any granting role wins.
func (e *Engine) Check(roles []Role, resource Resource, action Action) bool {
	for _, role := range roles {
		if role.Allows(resource, action) {
			return true
		}
	}
	return false
}

// CheckAll reports whether every requirement individually passes Check.
// It short-circuits on the first failing requirement; callers needing to
// know which one failed should call Check per requirement.
func (e *Engine) CheckAll(roles []Role, requirements []Requirement) bool {
	for _, req := range requirements {
		if !e.Check(roles, req.Resource, req.Action) {
			return false
		}
	}
	return true
}
