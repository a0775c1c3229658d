package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-pos/meridian/internal/auth"
	"github.com/meridian-pos/meridian/internal/authz"
	"github.com/meridian-pos/meridian/internal/shared"
	_ "github.com/meridian-pos/meridian/testing"
)

type stubRepo struct {
	user     *auth.User
	sessions []string
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || !strings.EqualFold(s.user.Email, email) {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID, orgID int64, expiresAt time.Time, ip, ua string) error {
	s.sessions = append(s.sessions, id)
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	for i, sid := range s.sessions {
		if sid == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
		}
	}
	return nil
}

func testUser(t *testing.T) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	return &auth.User{
		ID:           7,
		OrgID:        1,
		Email:        "clerk@example.com",
		Name:         "Clerk",
		PasswordHash: string(hash),
		Roles:        []string{authz.RoleUser},
		IsActive:     true,
	}
}

func newHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")
	return auth.NewHandler(nil, auth.NewService(repo), sessions, csrf), sessions
}

func doLogin(t *testing.T, handler *auth.Handler, sessions *shared.SessionManager, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)

	router := chi.NewRouter()
	router.Route("/auth", handler.MountRoutes)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.NoError(t, sessions.Commit(ctx, res, req, sess))
	return res
}

func TestLoginSuccess(t *testing.T) {
	repo := &stubRepo{user: testUser(t)}
	handler, sessions := newHandler(t, repo)

	res := doLogin(t, handler, sessions, `{"email":"clerk@example.com","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusOK, res.Code)

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			UserID int64    `json:"user_id"`
			Roles  []string `json:"roles"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	require.Equal(t, int64(7), envelope.Data.UserID)
	require.Equal(t, []string{authz.RoleUser}, envelope.Data.Roles)
	require.Len(t, repo.sessions, 1)
	require.NotEmpty(t, res.Header().Get("Set-Cookie"))
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := &stubRepo{user: testUser(t)}
	handler, sessions := newHandler(t, repo)

	res := doLogin(t, handler, sessions, `{"email":"clerk@example.com","password":"wrong-password"}`)
	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.Contains(t, res.Body.String(), `"success":false`)
	require.Empty(t, repo.sessions)
}

func TestLoginBannedUser(t *testing.T) {
	user := testUser(t)
	now := time.Now()
	user.BannedAt = &now
	user.BanReason = "chargeback fraud"
	repo := &stubRepo{user: user}
	handler, sessions := newHandler(t, repo)

	res := doLogin(t, handler, sessions, `{"email":"clerk@example.com","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusForbidden, res.Code)
	require.Contains(t, res.Body.String(), "banned")
}

func TestLoginExpiredBan(t *testing.T) {
	user := testUser(t)
	past := time.Now().Add(-48 * time.Hour)
	expired := time.Now().Add(-24 * time.Hour)
	user.BannedAt = &past
	user.BanExpires = &expired
	repo := &stubRepo{user: user}
	handler, sessions := newHandler(t, repo)

	res := doLogin(t, handler, sessions, `{"email":"clerk@example.com","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestLoginValidation(t *testing.T) {
	handler, sessions := newHandler(t, &stubRepo{})

	res := doLogin(t, handler, sessions, `{"email":"not-an-email","password":"short"}`)
	require.Equal(t, http.StatusBadRequest, res.Code)
}
