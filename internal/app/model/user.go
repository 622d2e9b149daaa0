package model

import (
	"time"
)

type UserRole string

const (
	RoleUser      UserRole = "user"      // registered shopper
	RoleAdmin     UserRole = "admin"     // catalog and order administration
	RoleAnonymous UserRole = "anonymous" // minted for a cookie session
)

// AnonymousUsernamePrefix marks usernames generated for anonymous shoppers.
const AnonymousUsernamePrefix = "anon-"

type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(254);index" json:"email,omitempty"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FirstName    string    `gorm:"type:varchar(150)" json:"first_name"`
	LastName     string    `gorm:"type:varchar(150)" json:"last_name"`
	Role         UserRole  `gorm:"type:varchar(20);default:'user';index" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAnonymous() bool {
	return u.Role == RoleAnonymous
}
