package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-pos/meridian/internal/authz"
	"github.com/meridian-pos/meridian/internal/shared"
)

type memoryRepo struct {
	users        map[int64]User
	hashes       map[int64]string
	sessionsByID map[int64][]string
	nextID       int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		users:        make(map[int64]User),
		hashes:       make(map[int64]string),
		sessionsByID: make(map[int64][]string),
	}
}

func (r *memoryRepo) List(ctx context.Context, orgID int64, page shared.Pagination) ([]User, int, error) {
	var out []User
	for _, u := range r.users {
		if u.OrgID == orgID {
			out = append(out, u)
		}
	}
	return out, len(out), nil
}

func (r *memoryRepo) Get(ctx context.Context, orgID, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok || u.OrgID != orgID {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (r *memoryRepo) Create(ctx context.Context, orgID int64, input CreateInput, passwordHash string) (User, error) {
	for _, u := range r.users {
		if u.Email == input.Email {
			return User{}, ErrDuplicateEmail
		}
	}
	r.nextID++
	u := User{ID: r.nextID, OrgID: orgID, Email: input.Email, Name: input.Name, Roles: input.Roles, IsActive: true}
	r.users[u.ID] = u
	r.hashes[u.ID] = passwordHash
	return u, nil
}

func (r *memoryRepo) SetRoles(ctx context.Context, orgID, id int64, roles []string) error {
	u, ok := r.users[id]
	if !ok || u.OrgID != orgID {
		return shared.ErrNotFound
	}
	u.Roles = roles
	r.users[id] = u
	return nil
}

func (r *memoryRepo) Ban(ctx context.Context, orgID, id int64, input BanInput) error {
	u, ok := r.users[id]
	if !ok || u.OrgID != orgID {
		return shared.ErrNotFound
	}
	now := time.Now()
	u.BannedAt = &now
	u.BanReason = input.Reason
	u.BanExpires = input.Expires
	r.users[id] = u
	return nil
}

func (r *memoryRepo) Unban(ctx context.Context, orgID, id int64) error {
	u, ok := r.users[id]
	if !ok || u.OrgID != orgID {
		return shared.ErrNotFound
	}
	u.BannedAt = nil
	u.BanReason = ""
	u.BanExpires = nil
	r.users[id] = u
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, orgID, id int64) error {
	u, ok := r.users[id]
	if !ok || u.OrgID != orgID {
		return shared.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memoryRepo) SetPasswordHash(ctx context.Context, orgID, id int64, hash string) error {
	if _, ok := r.users[id]; !ok {
		return shared.ErrNotFound
	}
	r.hashes[id] = hash
	return nil
}

func (r *memoryRepo) SessionIDs(ctx context.Context, id int64) ([]string, error) {
	return r.sessionsByID[id], nil
}

func (r *memoryRepo) DeleteSessions(ctx context.Context, id int64) error {
	delete(r.sessionsByID, id)
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	_, catalog, err := authz.DefaultCatalog()
	require.NoError(t, err)
	repo := newMemoryRepo()
	return NewService(repo, catalog, nil, nil, nil), repo
}

func admin() *authz.Principal {
	return &authz.Principal{ID: 1, OrgID: 1, Roles: []string{authz.RoleAdmin}}
}

func TestCreateHashesPasswordAndValidatesRoles(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, admin(), CreateInput{
		Email:    "Clerk@Example.com",
		Name:     "Clerk",
		Password: "s3cret-pass",
		Roles:    []string{authz.RoleUser},
	})
	require.NoError(t, err)
	require.Equal(t, "clerk@example.com", user.Email)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.hashes[user.ID]), []byte("s3cret-pass")))

	_, err = svc.Create(ctx, admin(), CreateInput{
		Email:    "other@example.com",
		Name:     "Other",
		Password: "s3cret-pass",
		Roles:    []string{"warehouse-goblin"},
	})
	require.ErrorIs(t, err, ErrUnknownRoleName)

	_, err = svc.Create(ctx, admin(), CreateInput{
		Email:    "clerk@example.com",
		Name:     "Dup",
		Password: "s3cret-pass",
		Roles:    []string{authz.RoleUser},
	})
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestSetRolesValidatesAgainstCatalog(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.users[5] = User{ID: 5, OrgID: 1, Email: "a@b.c", Roles: []string{authz.RoleUser}}

	require.NoError(t, svc.SetRoles(ctx, admin(), 5, []string{authz.RoleAdmin, authz.RoleUser}))
	require.Equal(t, []string{authz.RoleAdmin, authz.RoleUser}, repo.users[5].Roles)

	err := svc.SetRoles(ctx, admin(), 5, []string{"superuser"})
	require.ErrorIs(t, err, ErrUnknownRoleName)

	err = svc.SetRoles(ctx, admin(), 5, nil)
	require.ErrorIs(t, err, ErrUnknownRoleName)
}

func TestBanClearsSessions(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.users[5] = User{ID: 5, OrgID: 1, Email: "a@b.c", Roles: []string{authz.RoleUser}}
	repo.sessionsByID[5] = []string{"sess-1", "sess-2"}

	require.NoError(t, svc.Ban(ctx, admin(), 5, BanInput{Reason: "abuse"}))
	require.NotNil(t, repo.users[5].BannedAt)
	require.Empty(t, repo.sessionsByID[5])

	require.NoError(t, svc.Unban(ctx, admin(), 5))
	require.Nil(t, repo.users[5].BannedAt)
}

func TestDeleteScopedToOrg(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.users[5] = User{ID: 5, OrgID: 2, Email: "a@b.c"}

	// Actor belongs to org 1; the target lives in org 2.
	err := svc.Delete(ctx, admin(), 5)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Contains(t, repo.users, int64(5))
}

func TestImpersonateReturnsTarget(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.users[9] = User{ID: 9, OrgID: 1, Email: "target@example.com", Roles: []string{authz.RoleUser}}

	target, err := svc.Impersonate(ctx, admin(), 9)
	require.NoError(t, err)
	require.Equal(t, "target@example.com", target.Email)

	_, err = svc.Impersonate(ctx, admin(), 404)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
