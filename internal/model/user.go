package model

import "time"

// User roles. Only admins may upload or delete videos; super admins manage users.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// User is an admin account row.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

// Permissions are the role-derived capabilities of an account.
type Permissions struct {
	CanUploadVideos bool `json:"canUploadVideos"`
	CanDeleteVideos bool `json:"canDeleteVideos"`
	CanManageUsers  bool `json:"canManageUsers"`
}

// PermissionsForRole maps a role to its capabilities. Unknown roles get none.
func PermissionsForRole(role string) Permissions {
	switch role {
	case RoleSuperAdmin:
		return Permissions{CanUploadVideos: true, CanDeleteVideos: true, CanManageUsers: true}
	case RoleAdmin:
		return Permissions{CanUploadVideos: true, CanDeleteVideos: true}
	default:
		return Permissions{}
	}
}

// LoginRequest is the POST /auth/login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest is the POST /auth/refresh payload.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ChangePasswordRequest is the POST /auth/change-password payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int    `json:"expiresIn"`
}
