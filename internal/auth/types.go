package auth

import "time"

// Roles supported by the service. Every identity is exactly one of these.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an identity record held in the credential store.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	DisplayName  string     `json:"full_name,omitempty"`
	Active       bool       `json:"is_active"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login,omitempty"`
}

// IsAdmin reports whether the identity holds the admin role.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// RevocationEntry is one row of the append-only revocation ledger.
// OriginalExpiresAt lets expired entries be purged later.
type RevocationEntry struct {
	TokenID           string    `json:"token_id"`
	Subject           string    `json:"subject"`
	RevokedAt         time.Time `json:"revoked_at"`
	OriginalExpiresAt time.Time `json:"original_expires_at"`
}

// UserUpdate carries optional identity edits; nil fields stay unchanged.
type UserUpdate struct {
	Email       *string `json:"email,omitempty"`
	Password    *string `json:"password,omitempty"`
	DisplayName *string `json:"full_name,omitempty"`
	Active      *bool   `json:"is_active,omitempty"`
	Role        *string `json:"role,omitempty"`
}

// Stats summarizes the identity table for the admin dashboard.
type Stats struct {
	TotalUsers   int `json:"total_users"`
	ActiveUsers  int `json:"active_users"`
	AdminUsers   int `json:"admin_users"`
	RegularUsers int `json:"regular_users"`
}
