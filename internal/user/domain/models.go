package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// User is a staff or admin account.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Username     string       `gorm:"column:username;size:80;not null;uniqueIndex:ux_users_username" json:"username"`
	PasswordHash string       `gorm:"column:password_hash;type:text;not null" json:"-"`
	Role         string       `gorm:"column:role;size:20;not null" json:"role"`
	CreatedAt    time.Time    `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NormalizeRole maps anything other than admin to staff.
func NormalizeRole(role string) string {
	if role == RoleAdmin {
		return RoleAdmin
	}
	return RoleStaff
}
