package users

import "time"

// User represents a user account for management.
type User struct {
	ID         int64      `json:"id"`
	OrgID      int64      `json:"org_id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Roles      []string   `json:"roles"`
	IsActive   bool       `json:"is_active"`
	BannedAt   *time.Time `json:"banned_at,omitempty"`
	BanReason  string     `json:"ban_reason,omitempty"`
	BanExpires *time.Time `json:"ban_expires,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CreateInput carries the fields for a new account.
type CreateInput struct {
	Email    string
	Name     string
	Password string
	Roles    []string
}

// BanInput carries the fields for banning an account.
type BanInput struct {
	Reason  string
	Expires *time.Time
}
