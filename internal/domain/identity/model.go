package identity

import (
	"strings"
	"time"

	"github.com/ampara/clinic/internal/platform/auth"
	"github.com/ampara/clinic/pkg/optional"
)

// User is a staff account stored in the users collection.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"passwordHash" bson:"passwordHash"`
	Role         string    `json:"role" bson:"role"`
	Phone        string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Active       bool      `json:"active" bson:"active"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// UserResponse is the client view of a user. It never carries the hash.
type UserResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Role        string            `json:"role"`
	RoleLabel   string            `json:"roleLabel"`
	Phone       string            `json:"phone,omitempty"`
	Active      bool              `json:"active"`
	Permissions []auth.Permission `json:"permissions"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func (u *User) Response() UserResponse {
	role := auth.ParseRole(u.Role)
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		RoleLabel:   role.Label(),
		Phone:       u.Phone,
		Active:      u.Active,
		Permissions: auth.GetRolePermissions(role),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (u *User) Identity() auth.Identity {
	return auth.Identity{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// RoleInfo describes one role for the roles listing.
type RoleInfo struct {
	Value              string            `json:"value"`
	Label              string            `json:"label"`
	Description        string            `json:"description"`
	HealthProfessional bool              `json:"isHealthProfessional"`
	Permissions        []auth.Permission `json:"permissions"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyTokenRequest struct {
	Token string `json:"token"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// TokenInfo is returned by verify-token.
type TokenInfo struct {
	Valid     bool          `json:"valid"`
	User      auth.Identity `json:"user"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
	Active   *bool  `json:"active"`
}

// UpdateUserRequest is a patch: absent fields are left untouched.
type UpdateUserRequest struct {
	Name     optional.Value[string] `json:"name"`
	Email    optional.Value[string] `json:"email"`
	Role     optional.Value[string] `json:"role"`
	Phone    optional.Value[string] `json:"phone"`
	Active   optional.Value[bool]   `json:"active"`
	Password optional.Value[string] `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
