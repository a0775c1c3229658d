package auth

import (
	"context"
	"net/http"
	"strconv"

	"github.com/meridian-pos/meridian/internal/authz"
	"github.com/meridian-pos/meridian/internal/shared"
)

// PrincipalSource adapts the cookie session into the guard's SessionSource.
// Identity and role names are stamped into the session at login; a role
// assignment change therefore takes effect on the user's next login, while a
// ban revokes the live session immediately (see users.Service.Ban).
type PrincipalSource struct{}

var _ authz.SessionSource = PrincipalSource{}

// Resolve reads the session the middleware stored in the request context.
// A nil principal with nil error means no authenticated session.
func (PrincipalSource) Resolve(ctx context.Context, r *http.Request) (*authz.Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sess := shared.SessionFromContext(ctx)
	if sess == nil || sess.User() == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil {
		return nil, nil
	}
	return &authz.Principal{
		ID:    id,
		OrgID: sess.OrgID(),
		Email: sess.Get("email"),
		Roles: sess.Roles(),
	}, nil
}
