package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian/internal/shared"
)

// ErrDuplicateEmail indicates the email is already registered.
var ErrDuplicateEmail = errors.New("users: email already registered")

// RepositoryPort defines data access methods for user management.
type RepositoryPort interface {
	List(ctx context.Context, orgID int64, page shared.Pagination) ([]User, int, error)
	Get(ctx context.Context, orgID, id int64) (User, error)
	Create(ctx context.Context, orgID int64, input CreateInput, passwordHash string) (User, error)
	SetRoles(ctx context.Context, orgID, id int64, roles []string) error
	Ban(ctx context.Context, orgID, id int64, input BanInput) error
	Unban(ctx context.Context, orgID, id int64) error
	Delete(ctx context.Context, orgID, id int64) error
	SetPasswordHash(ctx context.Context, orgID, id int64, hash string) error
	SessionIDs(ctx context.Context, id int64) ([]string, error)
	DeleteSessions(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{pool: pool}
}

const userColumns = `id, org_id, email, name, roles, is_active, banned_at, ban_reason, ban_expires, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	var banReason *string
	err := row.Scan(&u.ID, &u.OrgID, &u.Email, &u.Name, &u.Roles, &u.IsActive,
		&u.BannedAt, &banReason, &u.BanExpires, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	if banReason != nil {
		u.BanReason = *banReason
	}
	return u, nil
}

func (r *repository) List(ctx context.Context, orgID int64, page shared.Pagination) ([]User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE org_id = $1`, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE org_id = $1 ORDER BY email LIMIT $2 OFFSET $3`,
		orgID, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, orgID, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE org_id = $1 AND id = $2`, orgID, id)
	return scanUser(row)
}

func (r *repository) Create(ctx context.Context, orgID int64, input CreateInput, passwordHash string) (User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (org_id, email, name, password_hash, roles, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
		 RETURNING `+userColumns,
		orgID, input.Email, input.Name, passwordHash, input.Roles)
	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrDuplicateEmail
		}
		return User{}, err
	}
	return u, nil
}

func (r *repository) SetRoles(ctx context.Context, orgID, id int64, roles []string) error {
	return r.exec(ctx, `UPDATE users SET roles = $3, updated_at = NOW() WHERE org_id = $1 AND id = $2`, orgID, id, roles)
}

func (r *repository) Ban(ctx context.Context, orgID, id int64, input BanInput) error {
	return r.exec(ctx,
		`UPDATE users SET banned_at = NOW(), ban_reason = $3, ban_expires = $4, updated_at = NOW()
		 WHERE org_id = $1 AND id = $2`, orgID, id, input.Reason, input.Expires)
}

func (r *repository) Unban(ctx context.Context, orgID, id int64) error {
	return r.exec(ctx,
		`UPDATE users SET banned_at = NULL, ban_reason = NULL, ban_expires = NULL, updated_at = NOW()
		 WHERE org_id = $1 AND id = $2`, orgID, id)
}

func (r *repository) Delete(ctx context.Context, orgID, id int64) error {
	return r.exec(ctx, `DELETE FROM users WHERE org_id = $1 AND id = $2`, orgID, id)
}

func (r *repository) SetPasswordHash(ctx context.Context, orgID, id int64, hash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $3, updated_at = NOW() WHERE org_id = $1 AND id = $2`, orgID, id, hash)
}

func (r *repository) SessionIDs(ctx context.Context, id int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM sessions WHERE user_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var sid string
		if err := rows.Scan(&sid); err != nil {
			return nil, err
		}
		ids = append(ids, sid)
	}
	return ids, rows.Err()
}

func (r *repository) DeleteSessions(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, id)
	return err
}

func (r *repository) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
