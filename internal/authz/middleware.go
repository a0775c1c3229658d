package authz

import "net/http"

// denialWriter translates a guard denial into the wire response. Injected by
// the app layer so this package stays free of the response envelope.
type denialWriter func(w http.ResponseWriter, err error)

// Middleware wires the Guard into chi route groups. Every privileged route
// shares this one enforcement path.
type Middleware struct {
	guard *Guard
	deny  denialWriter
}

// NewMiddleware constructs Middleware over the guard. deny writes the
// 401/403 response for a denial error.
func NewMiddleware(guard *Guard, deny func(w http.ResponseWriter, err error)) Middleware {
	return Middleware{guard: guard, deny: deny}
}

// Require guards a route group with a single (resource, action) requirement.
func (m Middleware) Require(resource Resource, action Action) func(http.Handler) http.Handler {
	return m.RequireAll(Requirement{Resource: resource, Action: action})
}

// RequireAll guards a route group with a set of requirements, all of which
// must hold. With no requirements it only demands an authenticated session.
func (m Middleware) RequireAll(requirements ...Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := m.guard.Authorize(r.Context(), r, requirements...)
			if err != nil {
				m.deny(w, err)
				return
			}
			ctx := ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
