package models

import (
	"time"
)

type User struct {
	UserID    int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	UserFname string     `gorm:"column:user_fname" json:"user_fname"`
	UserLname string     `gorm:"column:user_lname" json:"user_lname"`
	Email     string     `gorm:"column:email;unique;size:255" json:"email"`
	Password  string     `gorm:"column:password" json:"-"`
	Roles     string     `gorm:"column:roles" json:"roles"`
	CreateAt  *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt  *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt  *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// SystemRoles returns the institution-wide roles stored on the account.
// OWNER and CO_EDITOR are relational and never stored here.
func (u *User) SystemRoles() []Role {
	roles := ParseRoles(u.Roles)
	out := roles[:0]
	for _, role := range roles {
		if role == RoleOwner || role == RoleCoEditor {
			continue
		}
		out = append(out, role)
	}
	return out
}

func (u *User) FullName() string {
	if u.UserLname == "" {
		return u.UserFname
	}
	return u.UserFname + " " + u.UserLname
}
