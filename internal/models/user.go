package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account that can log in to the backend.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password  string    `json:"password,omitempty" gorm:"type:varchar(255)" validate:"required,min=6"`
	Role      string    `json:"role" gorm:"type:varchar(16);default:user" validate:"omitempty,oneof=user admin"`
	FullName  string    `json:"fullName" gorm:"type:varchar(150)" validate:"omitempty,max=150"`
	Phone     string    `json:"phone" gorm:"type:varchar(32)" validate:"omitempty,max=32"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuthContext carries the caller identity resolved once per request.
type AuthContext struct {
	UserID string
	Email  string
	Role   string
}

// IsAdmin reports whether the caller holds the admin role.
func (a AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Authenticated reports whether the context belongs to a logged-in user.
func (a AuthContext) Authenticated() bool {
	return a.UserID != ""
}
