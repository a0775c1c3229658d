package authz

// Resources managed by the back office.
const (
	ResourceUser         Resource = "user"
	ResourceSession      Resource = "session"
	ResourceAccount      Resource = "account"
	ResourceVerification Resource = "verification"
	ResourceProduct      Resource = "product"
	ResourceCategory     Resource = "category"
	ResourceStock        Resource = "stock"
	ResourcePurchase     Resource = "purchase"
	ResourceSale         Resource = "sale"
	ResourceCustomer     Resource = "customer"
	ResourceSupplier     Resource = "supplier"
)

// Common actions shared across resources.
const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
)

// Resource-specific actions.
const (
	ActionSetRole     Action = "set-role"
	ActionBan         Action = "ban"
	ActionUnban       Action = "unban"
	ActionImpersonate Action = "impersonate"
	ActionSetPassword Action = "set-password"
	ActionRevoke      Action = "revoke"
	ActionArchive     Action = "archive"
	ActionAdjust      Action = "adjust"
	ActionMove        Action = "move"
	ActionReceive     Action = "receive"
	ActionRefund      Action = "refund"
)

// Baseline role names.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// DefaultStatements returns the statement table for the back office: every
// resource and the full superset of actions grantable on it.
func DefaultStatements() (*Statements, error) {
	statements := NewStatements()
	entries := []struct {
		resource Resource
		actions  []Action
	}{
		{ResourceUser, []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionList, ActionSetRole, ActionBan, ActionUnban, ActionImpersonate, ActionSetPassword}},
		{ResourceSession, []Action{ActionRead, ActionRevoke}},
		{ResourceAccount, []Action{ActionRead, ActionUpdate}},
		{ResourceVerification, []Action{ActionCreate, ActionRead}},
		{ResourceProduct, []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionArchive}},
		{ResourceCategory, []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}},
		{ResourceStock, []Action{ActionRead, ActionAdjust, ActionMove, ActionReceive}},
		{ResourcePurchase, []Action{ActionCreate, ActionRead, ActionUpdate, ActionReceive}},
		{ResourceSale, []Action{ActionCreate, ActionRead, ActionRefund}},
		{ResourceCustomer, []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}},
		{ResourceSupplier, []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}},
	}
	for _, entry := range entries {
		if err := statements.Register(entry.resource, entry.actions...); err != nil {
			return nil, err
		}
	}
	return statements, nil
}

// DefaultRoleDefinitions returns the baseline role grants. "admin" carries
// every statement in the table; "user" is the narrow operator role. Nothing
// in the code treats "admin" as a special identity: every privileged route
// states the (resource, action) it needs and admin qualifies purely through
// its grants.
func DefaultRoleDefinitions(statements *Statements) map[string]Grants {
	admin := make(Grants)
	for _, resource := range statements.Resources() {
		actions, _ := statements.ActionsFor(resource)
		admin[resource] = actions
	}
	user := Grants{
		ResourceProduct:  {ActionCreate, ActionRead, ActionUpdate},
		ResourceStock:    {ActionRead},
		ResourceSale:     {ActionCreate, ActionRead},
		ResourceCustomer: {ActionCreate, ActionRead, ActionUpdate},
	}
	return map[string]Grants{
		RoleAdmin: admin,
		RoleUser:  user,
	}
}

// DefaultCatalog builds the statement table, the engine over it, and the
// baseline role catalog. Called once in main before the listener starts.
func DefaultCatalog() (*Engine, *Catalog, error) {
	statements, err := DefaultStatements()
	if err != nil {
		return nil, nil, err
	}
	engine := NewEngine(statements)
	catalog, err := NewCatalog(engine, DefaultRoleDefinitions(statements))
	if err != nil {
		return nil, nil, err
	}
	return engine, catalog, nil
}
