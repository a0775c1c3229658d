package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-pos/meridian/internal/authz"
	"github.com/meridian-pos/meridian/internal/shared"
)

// ErrUnknownRoleName indicates a role assignment referencing a role absent
// from the catalog. Rejected up front so the guard never meets it at
// decision time.
var ErrUnknownRoleName = errors.New("users: unknown role name")

// Service handles user lifecycle business logic. Every mutation is audited;
// bans and deletions revoke the target's live sessions immediately, while
// role changes take effect on the next login.
type Service struct {
	repo     RepositoryPort
	catalog  *authz.Catalog
	sessions *shared.SessionManager
	audit    *shared.AuditLogger
	logger   *slog.Logger
}

// NewService builds a Service instance. audit may be nil in tests.
func NewService(repo RepositoryPort, catalog *authz.Catalog, sessions *shared.SessionManager, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, sessions: sessions, audit: audit, logger: logger}
}

// List returns the org's users with pagination metadata.
func (s *Service) List(ctx context.Context, orgID int64, page, perPage int) ([]User, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	users, total, err := s.repo.List(ctx, orgID, p)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return users, shared.NewPagination(page, perPage, total), nil
}

// Get fetches one user scoped to the org.
func (s *Service) Get(ctx context.Context, orgID, id int64) (User, error) {
	return s.repo.Get(ctx, orgID, id)
}

// Create registers a new account with the given roles.
func (s *Service) Create(ctx context.Context, actor *authz.Principal, input CreateInput) (User, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if err := s.validateRoles(input.Roles); err != nil {
		return User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("users: hash password: %w", err)
	}
	user, err := s.repo.Create(ctx, actor.OrgID, input, string(hash))
	if err != nil {
		return User{}, err
	}
	s.record(ctx, actor, "user.create", user.ID, map[string]any{"email": user.Email, "roles": user.Roles})
	return user, nil
}

// SetRoles replaces the user's role names. The change reaches the guard on
// the target's next login; existing sessions keep the roles stamped at
// login.
func (s *Service) SetRoles(ctx context.Context, actor *authz.Principal, id int64, roles []string) error {
	if err := s.validateRoles(roles); err != nil {
		return err
	}
	if err := s.repo.SetRoles(ctx, actor.OrgID, id, roles); err != nil {
		return err
	}
	s.record(ctx, actor, "user.set_role", id, map[string]any{"roles": roles})
	return nil
}

// Ban marks the account banned and revokes its live sessions.
func (s *Service) Ban(ctx context.Context, actor *authz.Principal, id int64, input BanInput) error {
	if err := s.repo.Ban(ctx, actor.OrgID, id, input); err != nil {
		return err
	}
	s.revokeSessions(ctx, id)
	s.record(ctx, actor, "user.ban", id, map[string]any{"reason": input.Reason, "expires": input.Expires})
	return nil
}

// Unban lifts a ban.
func (s *Service) Unban(ctx context.Context, actor *authz.Principal, id int64) error {
	if err := s.repo.Unban(ctx, actor.OrgID, id); err != nil {
		return err
	}
	s.record(ctx, actor, "user.unban", id, nil)
	return nil
}

// Delete removes the account and revokes its sessions.
func (s *Service) Delete(ctx context.Context, actor *authz.Principal, id int64) error {
	s.revokeSessions(ctx, id)
	if err := s.repo.Delete(ctx, actor.OrgID, id); err != nil {
		return err
	}
	s.record(ctx, actor, "user.delete", id, nil)
	return nil
}

// SetPassword replaces the account password.
func (s *Service) SetPassword(ctx context.Context, actor *authz.Principal, id int64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("users: hash password: %w", err)
	}
	if err := s.repo.SetPasswordHash(ctx, actor.OrgID, id, string(hash)); err != nil {
		return err
	}
	s.record(ctx, actor, "user.set_password", id, nil)
	return nil
}

// Impersonate returns the target account after recording the act. The
// handler swaps the caller's session to the target's identity.
func (s *Service) Impersonate(ctx context.Context, actor *authz.Principal, id int64) (User, error) {
	user, err := s.repo.Get(ctx, actor.OrgID, id)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, actor, "user.impersonate", id, map[string]any{"email": user.Email})
	return user, nil
}

func (s *Service) validateRoles(roles []string) error {
	if len(roles) == 0 {
		return fmt.Errorf("%w: at least one role required", ErrUnknownRoleName)
	}
	if _, err := s.catalog.Resolve(roles...); err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownRoleName, err)
	}
	return nil
}

func (s *Service) revokeSessions(ctx context.Context, userID int64) {
	ids, err := s.repo.SessionIDs(ctx, userID)
	if err != nil {
		s.warn("list sessions for revocation", err)
		return
	}
	for _, sid := range ids {
		if s.sessions != nil {
			if err := s.sessions.Revoke(ctx, sid); err != nil {
				s.warn("revoke redis session", err)
			}
		}
	}
	if err := s.repo.DeleteSessions(ctx, userID); err != nil {
		s.warn("delete session records", err)
	}
}

func (s *Service) record(ctx context.Context, actor *authz.Principal, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	log := shared.AuditLog{
		OrgID:    actor.OrgID,
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.warn("audit record", err)
	}
}

func (s *Service) warn(msg string, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, slog.Any("error", err))
	}
}
