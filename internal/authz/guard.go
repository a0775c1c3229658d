package authz

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// Principal describes the authenticated caller whose roles are evaluated.
type Principal struct {
	ID    int64
	OrgID int64
	Email string
	Roles []string
}

// SessionSource resolves the caller behind a request. Implementations look
// the session up in external storage; a nil principal with a nil error means
// "no session". The Guard treats lookup errors, cancellation and timeouts
// identically to a missing session: never assume authorization in the
// absence of a definitive answer.
type SessionSource interface {
	Resolve(ctx context.Context, r *http.Request) (*Principal, error)
}

// DecisionRecorder receives the outcome of every authorization attempt.
// Implemented by the observability package; optional.
type DecisionRecorder interface {
	RecordDecision(outcome, reason string)
}

// Decision outcomes and reasons reported to the DecisionRecorder.
const (
	OutcomeGranted = "granted"
	OutcomeDenied  = "denied"

	ReasonOK           = "ok"
	ReasonNoSession    = "no_session"
	ReasonUnknownRole  = "unknown_role"
	ReasonInsufficient = "insufficient_permissions"
)

// Guard is the single choke point every privileged operation calls before
// executing. It never mutates state: it is a decision function plus the
// identity pass-through callers need for stamping createdBy and the like.
type Guard struct {
	engine   *Engine
	catalog  *Catalog
	source   SessionSource
	logger   *slog.Logger
	recorder DecisionRecorder
}

// NewGuard constructs a Guard. recorder may be nil.
func NewGuard(engine *Engine, catalog *Catalog, source SessionSource, logger *slog.Logger, recorder DecisionRecorder) *Guard {
	return &Guard{engine: engine, catalog: catalog, source: source, logger: logger, recorder: recorder}
}

// Authorize resolves the caller's session, maps its role names through the
// catalog and evaluates the requirements. With no requirements it acts as an
// authentication check only. On success the principal is returned so the
// caller can use its identity.
func (g *Guard) Authorize(ctx context.Context, r *http.Request, requirements ...Requirement) (*Principal, error) {
	principal, err := g.source.Resolve(ctx, r)
	if err != nil {
		if g.logger != nil {
			g.logger.Warn("session lookup failed", slog.Any("error", err))
		}
		g.record(OutcomeDenied, ReasonNoSession)
		return nil, ErrUnauthenticated
	}
	if principal == nil {
		g.record(OutcomeDenied, ReasonNoSession)
		return nil, ErrUnauthenticated
	}

	roles, err := g.catalog.Resolve(principal.Roles...)
	if err != nil {
		// A stored role name missing from the catalog is a data-integrity
		// anomaly; fail closed rather than open.
		if g.logger != nil {
			g.logger.Error("stored role not in catalog",
				slog.Int64("user_id", principal.ID), slog.Any("error", err))
		}
		g.record(OutcomeDenied, ReasonUnknownRole)
		return nil, ErrUnauthenticated
	}

	if !g.engine.CheckAll(roles, requirements) {
		g.record(OutcomeDenied, ReasonInsufficient)
		return nil, ErrForbidden
	}

	g.record(OutcomeGranted, ReasonOK)
	return principal, nil
}

// AuthorizeFor first authorizes the caller against callerRequirements, then
// answers whether a principal holding targetRoles would hold
// targetRequirement. The caller gains nothing from the target's grants; this
// serves the admin diagnostics endpoint.
func (g *Guard) AuthorizeFor(ctx context.Context, r *http.Request, callerRequirements []Requirement, targetRoles []string, targetRequirement Requirement) (*Principal, bool, error) {
	principal, err := g.Authorize(ctx, r, callerRequirements...)
	if err != nil {
		return nil, false, err
	}
	resolved, err := g.catalog.Resolve(targetRoles...)
	if err != nil {
		return nil, false, fmt.Errorf("target roles: %w", err)
	}
	return principal, g.engine.Check(resolved, targetRequirement.Resource, targetRequirement.Action), nil
}

func (g *Guard) record(outcome, reason string) {
	if g.recorder != nil {
		g.recorder.RecordDecision(outcome, reason)
	}
}
