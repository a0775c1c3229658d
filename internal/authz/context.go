package authz

import "context"

type principalContextKey struct{}

// ContextWithPrincipal stores the authorized principal in context. Set by
// the middleware after a granted decision.
func ContextWithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext extracts the authorized principal, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	principal, _ := ctx.Value(principalContextKey{}).(*Principal)
	return principal
}
