// Package authz implements the role-based access control core: the permission
// statement table, role construction and evaluation, the named role catalog,
// and the request-scoped authorization guard. Everything here is built once
// during startup and is read-only afterwards, so concurrent use needs no
// locking.
package authz

import "fmt"

// Resource is a domain noun permissions are scoped to, e.g. "product".
type Resource string

// Action is an operation name scoped to a single resource, e.g. "delete".
// The same action name may carry different meanings under different
// resources; there is no cross-resource aliasing.
type Action string

// Requirement pairs a resource with the action demanded on it.
type Requirement struct {
	Resource Resource
	Action   Action
}

func (r Requirement) String() string {
	return string(r.Resource) + ":" + string(r.Action)
}

// Statements is the statement table: for every resource, the complete
// superset of actions that may ever be granted. It is the ceiling any role
// draws from.
type Statements struct {
	order []Resource
	table map[Resource][]Action
	index map[Resource]map[Action]struct{}
}

// NewStatements returns an empty statement table ready for registration.
func NewStatements() *Statements {
	return &Statements{
		table: make(map[Resource][]Action),
		index: make(map[Resource]map[Action]struct{}),
	}
}

// Register declares the full action set for a resource. Re-registration
// fails: the table is fixed configuration, not runtime state.
func (s *Statements) Register(resource Resource, actions ...Action) error {
	if resource == "" {
		return fmt.Errorf("%w: empty resource name", ErrUnknownResource)
	}
	if _, ok := s.table[resource]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateResource, resource)
	}
	if len(actions) == 0 {
		return fmt.Errorf("authz: resource %s registered with no actions", resource)
	}
	index := make(map[Action]struct{}, len(actions))
	ordered := make([]Action, 0, len(actions))
	for _, action := range actions {
		if _, ok := index[action]; ok {
			continue
		}
		index[action] = struct{}{}
		ordered = append(ordered, action)
	}
	s.order = append(s.order, resource)
	s.table[resource] = ordered
	s.index[resource] = index
	return nil
}

// ActionsFor returns the registered action set for a resource in
// registration order.
func (s *Statements) ActionsFor(resource Resource) ([]Action, error) {
	actions, ok := s.table[resource]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResource, resource)
	}
	out := make([]Action, len(actions))
	copy(out, actions)
	return out, nil
}

// Resources returns every registered resource in registration order.
func (s *Statements) Resources() []Resource {
	out := make([]Resource, len(s.order))
	copy(out, s.order)
	return out
}

// permits reports whether (resource, action) is a legal statement.
func (s *Statements) permits(resource Resource, action Action) error {
	index, ok := s.index[resource]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownResource, resource)
	}
	if _, ok := index[action]; !ok {
		return fmt.Errorf("%w: %s on %s", ErrUnknownAction, action, resource)
	}
	return nil
}
