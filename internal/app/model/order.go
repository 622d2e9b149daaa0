package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string
type BuyingType string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusReady      OrderStatus = "ready"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusPayed      OrderStatus = "payed"

	BuyingTypeSelfPickup BuyingType = "self_pickup"
	BuyingTypeDelivery   BuyingType = "delivery"
)

// OrderStatuses lists every valid status in workflow order.
var OrderStatuses = []OrderStatus{
	OrderStatusNew,
	OrderStatusInProgress,
	OrderStatusReady,
	OrderStatusCompleted,
	OrderStatusPayed,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Order is immutable after checkout except for Status.
type Order struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	CustomerID    uint            `gorm:"not null;index" json:"customer_id"`
	CartID        *uint           `gorm:"index" json:"cart_id,omitempty"`
	FirstName     string          `gorm:"type:varchar(255);not null" json:"first_name"`
	LastName      string          `gorm:"type:varchar(255);not null" json:"last_name"`
	Phone         string          `gorm:"type:varchar(20);not null" json:"phone"`
	Address       string          `gorm:"type:varchar(1024)" json:"address"`
	Status        OrderStatus     `gorm:"type:varchar(100);not null;default:'new';index" json:"status"`
	BuyingType    BuyingType      `gorm:"type:varchar(100);not null;default:'self_pickup'" json:"buying_type"`
	Comment       string          `gorm:"type:text" json:"comment"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(9,2);not null" json:"total_price"`
	RequestedDate time.Time       `gorm:"type:date;not null" json:"order_date"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"-"`
	Cart     *Cart     `gorm:"foreignKey:CartID;constraint:OnDelete:SET NULL" json:"cart,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}
