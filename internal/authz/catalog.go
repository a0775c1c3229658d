package authz

import "fmt"

// Catalog holds the named, pre-built roles the rest of the system references
// by name. Membership is fixed at process start.
type Catalog struct {
	roles map[string]Role
}

// NewCatalog builds each role definition through the engine and returns the
// catalog. Any invalid grant fails construction; the process should refuse
// to start rather than serve with an inconsistent permission model.
func NewCatalog(engine *Engine, definitions map[string]Grants) (*Catalog, error) {
	roles := make(map[string]Role, len(definitions))
	for name, grants := range definitions {
		role, err := engine.NewRole(name, grants)
		if err != nil {
			return nil, err
		}
		roles[name] = role
	}
	return &Catalog{roles: roles}, nil
}

// Resolve maps role names to Role values. It fails with ErrUnknownRole for
// any unrecognized name; order of names does not affect evaluation.
func (c *Catalog) Resolve(names ...string) ([]Role, error) {
	roles := make([]Role, 0, len(names))
	for _, name := range names {
		role, ok := c.roles[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRole, name)
		}
		roles = append(roles, role)
	}
	return roles, nil
}

// Names returns every role name held by the catalog.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.roles))
	for name := range c.roles {
		names = append(names, name)
	}
	return names
}
