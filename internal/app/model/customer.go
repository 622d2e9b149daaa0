package model

import (
	"time"

	"gorm.io/gorm"
)

// Customer is the shopping profile of a user. Anonymous users get one too.
type Customer struct {
	ID      uint   `gorm:"primarykey" json:"id"`
	UserID  uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Phone   string `gorm:"type:varchar(20)" json:"phone"`
	Address string `gorm:"type:varchar(255)" json:"address"`
	// LastSeenAt is refreshed while an anonymous session is in use.
	LastSeenAt time.Time `gorm:"index" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	User   User    `gorm:"foreignKey:UserID" json:"user"`
	Orders []Order `gorm:"many2many:customer_orders" json:"orders,omitempty"`
}

func (Customer) TableName() string {
	return "customers"
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.LastSeenAt.IsZero() {
		c.LastSeenAt = time.Now()
	}
	return nil
}

func (c *Customer) IsAnonymous() bool {
	return c.User.Role == RoleAnonymous
}
