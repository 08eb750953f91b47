package models

import (
	"time"
)

const StaffUserTable = "bodega_staff_users"

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// StaffUser 仓库操作员（bodeguero）或管理员，借出记录里的经手人
type StaffUser struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	Username     string `gorm:"uniqueIndex;size:255;not null" json:"username"`
	DisplayName  string `gorm:"size:255;not null" json:"displayName"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Role         string `gorm:"size:20;not null;default:'staff'" json:"role"`

	LastLoginAt *time.Time `gorm:"index" json:"lastLoginAt,omitempty"`
	LastSeenAt  *time.Time `gorm:"index" json:"lastSeenAt,omitempty"`
	LoginCount  int64      `gorm:"not null;default:0" json:"loginCount"`
	LastLoginIP string     `gorm:"size:45" json:"-"`
	LastLoginUA string     `gorm:"size:255" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (StaffUser) TableName() string { return StaffUserTable }

func (u StaffUser) IsAdmin() bool { return u.Role == RoleAdmin }

func ValidRole(role string) bool { return role == RoleAdmin || role == RoleStaff }
