package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart belongs to one customer. At most one cart per owner has InOrder false;
// that cart is the owner's active cart.
type Cart struct {
	ID               uint            `gorm:"primarykey" json:"id"`
	OwnerID          uint            `gorm:"not null;index;uniqueIndex:idx_carts_active_owner,where:in_order = false" json:"owner_id"`
	TotalItemCount   int             `gorm:"not null;default:0" json:"total_products"`
	TotalPrice       decimal.Decimal `gorm:"type:decimal(9,2);not null;default:0" json:"final_price"`
	InOrder          bool            `gorm:"not null;default:false;index" json:"in_order"`
	IsAnonymousOwner bool            `gorm:"not null;default:false" json:"for_anonymous_user"`
	Version          uint            `gorm:"not null;default:0" json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	Owner *Customer  `gorm:"foreignKey:OwnerID" json:"-"`
	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"products"`
}

func (Cart) TableName() string {
	return "carts"
}

// RecomputeTotals derives TotalItemCount and TotalPrice from Items.
func (c *Cart) RecomputeTotals() {
	count := 0
	total := decimal.Zero
	for _, item := range c.Items {
		count += item.Quantity
		total = total.Add(item.LineTotal)
	}
	c.TotalItemCount = count
	c.TotalPrice = total
}

type CartItem struct {
	ID         uint            `gorm:"primarykey" json:"-"`
	Token      string          `gorm:"type:varchar(36);uniqueIndex;not null" json:"token"`
	CustomerID uint            `gorm:"not null;index" json:"-"`
	CartID     uint            `gorm:"not null;uniqueIndex:idx_cart_items_cart_product" json:"-"`
	ProductID  uint            `gorm:"not null;uniqueIndex:idx_cart_items_cart_product" json:"product_id"`
	Quantity   int             `gorm:"not null;default:1" json:"qty"`
	LineTotal  decimal.Decimal `gorm:"type:decimal(9,2);not null" json:"final_price"`
	CreatedAt  time.Time       `json:"-"`
	UpdatedAt  time.Time       `json:"-"`

	Product Product `gorm:"foreignKey:ProductID" json:"product"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	if i.Token == "" {
		i.Token = uuid.NewString()
	}
	return nil
}

// BeforeSave keeps LineTotal equal to Quantity * Product.Price. The price is
// read from the database when Product is not loaded.
func (i *CartItem) BeforeSave(tx *gorm.DB) error {
	price := i.Product.Price
	if i.Product.ID == 0 {
		var product Product
		err := tx.Session(&gorm.Session{NewDB: true}).
			Select("id", "price").
			Where("id = ?", i.ProductID).
			Take(&product).Error
		if err != nil {
			return err
		}
		price = product.Price
	}
	i.LineTotal = price.Mul(decimal.NewFromInt(int64(i.Quantity)))
	return nil
}
