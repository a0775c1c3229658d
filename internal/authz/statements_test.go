package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatementsRegister(t *testing.T) {
	statements := NewStatements()
	require.NoError(t, statements.Register("product", ActionCreate, ActionRead))

	actions, err := statements.ActionsFor("product")
	require.NoError(t, err)
	require.Equal(t, []Action{ActionCreate, ActionRead}, actions)
}

func TestStatementsDuplicateResource(t *testing.T) {
	statements := NewStatements()
	require.NoError(t, statements.Register("product", ActionRead))

	err := statements.Register("product", ActionCreate)
	require.ErrorIs(t, err, ErrDuplicateResource)

	// Original registration is untouched.
	actions, err := statements.ActionsFor("product")
	require.NoError(t, err)
	require.Equal(t, []Action{ActionRead}, actions)
}

func TestStatementsUnknownResource(t *testing.T) {
	statements := NewStatements()
	_, err := statements.ActionsFor("ghost")
	require.ErrorIs(t, err, ErrUnknownResource)
}

func TestStatementsRejectsEmpty(t *testing.T) {
	statements := NewStatements()
	require.Error(t, statements.Register("product"))
	require.Error(t, statements.Register("", ActionRead))
}

func TestStatementsDeduplicatesActions(t *testing.T) {
	statements := NewStatements()
	require.NoError(t, statements.Register("stock", ActionRead, ActionRead, ActionAdjust))

	actions, err := statements.ActionsFor("stock")
	require.NoError(t, err)
	require.Equal(t, []Action{ActionRead, ActionAdjust}, actions)
}

func TestDefaultStatementsCoverEveryResource(t *testing.T) {
	statements, err := DefaultStatements()
	require.NoError(t, err)

	for _, resource := range []Resource{
		ResourceUser, ResourceSession, ResourceAccount, ResourceVerification,
		ResourceProduct, ResourceCategory, ResourceStock, ResourcePurchase,
		ResourceSale, ResourceCustomer, ResourceSupplier,
	} {
		actions, err := statements.ActionsFor(resource)
		require.NoError(t, err, "resource %s", resource)
		require.NotEmpty(t, actions, "resource %s", resource)
	}
}
