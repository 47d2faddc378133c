package entity

import (
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSalesRep Role = "sales_rep"
	RoleAnalyst  Role = "analyst"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSalesRep, RoleAnalyst:
		return true
	}
	return false
}

type User struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	Username       string     `json:"username"`
	FullName       string     `json:"full_name,omitempty"`
	HashedPassword string     `json:"-"`
	Role           Role       `json:"role"`
	IsActive       bool       `json:"is_active"`
	IsVerified     bool       `json:"is_verified"`
	Phone          string     `json:"phone,omitempty"`
	AvatarURL      string     `json:"avatar_url,omitempty"`
	Timezone       string     `json:"timezone,omitempty"`
	Language       string     `json:"language,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
}

// DisplayName is the label used when the user authors a lead interaction.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.Email != "" {
		return u.Email
	}
	return "Administrator"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
