package model

import "time"

// Role identifies which of the three workflow actors a user is.  The
// value is carried in the JWT "role" claim and passed explicitly into
// every workflow engine call – the engine never reads ambient session
// state.  Admins create and manage bookings; the two officer roles
// each own exactly one review stage.
type Role string

const (
    RoleAdmin          Role = "ADMIN"
    RoleRecommendation Role = "RECOMMENDATION"
    RoleApproval       Role = "APPROVAL"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
    switch r {
    case RoleAdmin, RoleRecommendation, RoleApproval:
        return true
    }
    return false
}

// User represents an application user record as stored in the `users`
// table.  Handlers define separate response types with JSON tags; this
// struct is used by the repository layer.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – workflow role (ADMIN, RECOMMENDATION, APPROVAL).
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         Role      // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only a
// SHA-256 hash of the raw token is stored.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
