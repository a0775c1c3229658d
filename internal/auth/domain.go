package auth

import "time"

// User represents an authenticated user account.
type User struct {
	ID           int64
	OrgID        int64
	Email        string
	Name         string
	PasswordHash string
	Roles        []string
	IsActive     bool
	BannedAt     *time.Time
	BanReason    string
	BanExpires   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Banned reports whether the account is currently banned. A ban with an
// expiry in the past no longer blocks login.
func (u *User) Banned(now time.Time) bool {
	if u.BannedAt == nil {
		return false
	}
	if u.BanExpires != nil && now.After(*u.BanExpires) {
		return false
	}
	return true
}
