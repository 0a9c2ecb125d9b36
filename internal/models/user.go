package models

import (
	"time"
)

// Role represents user roles in the system
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// User represents a user in the system
type User struct {
	ID           string     `bson:"_id" json:"id"`
	Username     string     `bson:"username" json:"username"`
	Email        string     `bson:"email" json:"email"`
	PasswordHash string     `bson:"password_hash" json:"-"`
	Role         Role       `bson:"role" json:"role"`
	FirstName    string     `bson:"first_name" json:"first_name"`
	LastName     string     `bson:"last_name" json:"last_name"`
	IsActive     bool       `bson:"is_active" json:"is_active"`
	LastLogin    *time.Time `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Claims represents JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Exp      int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleOperator, RoleViewer:
		return true
	default:
		return false
	}
}

// Can reports whether the role grants an action. Viewers read, operators
// additionally write the vehicle ledger, managers do everything short of
// account administration, admins do everything.
func (r Role) Can(action string) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleManager:
		return action != "delete_user" && action != "manage_users"
	case RoleOperator:
		switch action {
		case "view_vehicles", "view_ledger", "view_metrics", "view_reminders",
			"register_vehicle", "update_odometer", "record_maintenance",
			"record_fuel", "manage_reminders":
			return true
		}
		return false
	case RoleViewer:
		switch action {
		case "view_vehicles", "view_ledger", "view_metrics", "view_reminders":
			return true
		}
		return false
	default:
		return false
	}
}

// HasPermission checks if a user has permission for a specific action
func (u *User) HasPermission(action string) bool {
	return u.Role.Can(action)
}
