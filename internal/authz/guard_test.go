package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubSource struct {
	principal *Principal
	err       error
}

func (s *stubSource) Resolve(ctx context.Context, r *http.Request) (*Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.principal, s.err
}

type recordedDecision struct {
	outcome string
	reason  string
}

type stubRecorder struct {
	decisions []recordedDecision
}

func (s *stubRecorder) RecordDecision(outcome, reason string) {
	s.decisions = append(s.decisions, recordedDecision{outcome, reason})
}

func newTestGuard(t *testing.T, source SessionSource, recorder DecisionRecorder) *Guard {
	t.Helper()
	engine, catalog, err := DefaultCatalog()
	require.NoError(t, err)
	return NewGuard(engine, catalog, source, nil, recorder)
}

func TestAuthorizeNoSession(t *testing.T) {
	recorder := &stubRecorder{}
	guard := newTestGuard(t, &stubSource{}, recorder)
	req := httptest.NewRequest(http.MethodPost, "/admin/users", nil)

	_, err := guard.Authorize(req.Context(), req, Requirement{ResourceUser, ActionBan})
	require.ErrorIs(t, err, ErrUnauthenticated)
	require.Equal(t, []recordedDecision{{OutcomeDenied, ReasonNoSession}}, recorder.decisions)

	// No requirement at all still demands a session.
	_, err = guard.Authorize(req.Context(), req)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthorizeLookupErrorFailsClosed(t *testing.T) {
	guard := newTestGuard(t, &stubSource{err: context.DeadlineExceeded}, nil)
	req := httptest.NewRequest(http.MethodGet, "/products", nil)

	_, err := guard.Authorize(req.Context(), req, Requirement{ResourceProduct, ActionRead})
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthorizeCancelledContext(t *testing.T) {
	principal := &Principal{ID: 7, Roles: []string{RoleAdmin}}
	guard := newTestGuard(t, &stubSource{principal: principal}, nil)
	req := httptest.NewRequest(http.MethodGet, "/products", nil)

	ctx, cancel := context.WithCancel(req.Context())
	cancel()

	_, err := guard.Authorize(ctx, req, Requirement{ResourceProduct, ActionRead})
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthorizeForbidden(t *testing.T) {
	principal := &Principal{ID: 3, Roles: []string{RoleUser}}
	recorder := &stubRecorder{}
	guard := newTestGuard(t, &stubSource{principal: principal}, recorder)
	req := httptest.NewRequest(http.MethodPost, "/admin/users/9/ban", nil)

	_, err := guard.Authorize(req.Context(), req, Requirement{ResourceUser, ActionBan})
	require.ErrorIs(t, err, ErrForbidden)
	require.Equal(t, []recordedDecision{{OutcomeDenied, ReasonInsufficient}}, recorder.decisions)
}

func TestAuthorizeGrantedReturnsPrincipal(t *testing.T) {
	principal := &Principal{ID: 1, OrgID: 42, Email: "root@example.com", Roles: []string{RoleAdmin}}
	recorder := &stubRecorder{}
	guard := newTestGuard(t, &stubSource{principal: principal}, recorder)
	req := httptest.NewRequest(http.MethodPost, "/admin/users/9/ban", nil)

	got, err := guard.Authorize(req.Context(), req, Requirement{ResourceUser, ActionBan})
	require.NoError(t, err)
	require.Equal(t, principal, got)
	require.Equal(t, []recordedDecision{{OutcomeGranted, ReasonOK}}, recorder.decisions)
}

func TestAuthorizeUnknownStoredRole(t *testing.T) {
	principal := &Principal{ID: 5, Roles: []string{"manager"}}
	recorder := &stubRecorder{}
	guard := newTestGuard(t, &stubSource{principal: principal}, recorder)
	req := httptest.NewRequest(http.MethodGet, "/products", nil)

	// A stored role missing from the catalog fails closed as unauthenticated,
	// not as a 500 and not as granted.
	_, err := guard.Authorize(req.Context(), req, Requirement{ResourceProduct, ActionRead})
	require.ErrorIs(t, err, ErrUnauthenticated)
	require.Equal(t, []recordedDecision{{OutcomeDenied, ReasonUnknownRole}}, recorder.decisions)
}

func TestAuthorizeMultiRoleUnion(t *testing.T) {
	principal := &Principal{ID: 2, Roles: []string{RoleUser, RoleAdmin}}
	guard := newTestGuard(t, &stubSource{principal: principal}, nil)
	req := httptest.NewRequest(http.MethodPost, "/admin/users/9/ban", nil)

	_, err := guard.Authorize(req.Context(), req, Requirement{ResourceUser, ActionBan})
	require.NoError(t, err)
}

func TestAuthorizeFor(t *testing.T) {
	admin := &Principal{ID: 1, Roles: []string{RoleAdmin}}
	guard := newTestGuard(t, &stubSource{principal: admin}, nil)
	req := httptest.NewRequest(http.MethodGet, "/admin/users/9/can", nil)
	callerReq := []Requirement{{ResourceUser, ActionRead}}

	principal, allowed, err := guard.AuthorizeFor(req.Context(), req, callerReq, []string{RoleUser}, Requirement{ResourceUser, ActionBan})
	require.NoError(t, err)
	require.Equal(t, admin, principal)
	require.False(t, allowed)

	_, allowed, err = guard.AuthorizeFor(req.Context(), req, callerReq, []string{RoleUser}, Requirement{ResourceSale, ActionCreate})
	require.NoError(t, err)
	require.True(t, allowed)

	_, _, err = guard.AuthorizeFor(req.Context(), req, callerReq, []string{"ghost"}, Requirement{ResourceSale, ActionCreate})
	require.ErrorIs(t, err, ErrUnknownRole)
}

func TestAuthorizeForDeniesNonAdminCaller(t *testing.T) {
	caller := &Principal{ID: 3, Roles: []string{RoleUser}}
	guard := newTestGuard(t, &stubSource{principal: caller}, nil)
	req := httptest.NewRequest(http.MethodGet, "/admin/users/9/can", nil)

	_, _, err := guard.AuthorizeFor(req.Context(), req,
		[]Requirement{{ResourceUser, ActionRead}}, []string{RoleAdmin}, Requirement{ResourceUser, ActionBan})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestMiddlewareRequire(t *testing.T) {
	admin := &Principal{ID: 1, Roles: []string{RoleAdmin}}
	source := &stubSource{principal: admin}
	guard := newTestGuard(t, source, nil)

	var denied error
	mw := NewMiddleware(guard, func(w http.ResponseWriter, err error) {
		denied = err
		w.WriteHeader(http.StatusForbidden)
	})

	var seen *Principal
	handler := mw.Require(ResourceUser, ActionBan)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin/users/9/ban", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, admin, seen)
	require.NoError(t, denied)

	source.principal = &Principal{ID: 3, Roles: []string{RoleUser}}
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusForbidden, res.Code)
	require.ErrorIs(t, denied, ErrForbidden)
}
