package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ProductKind string

const (
	ProductKindNotebook   ProductKind = "notebook"
	ProductKindSmartphone ProductKind = "smartphone"
)

// ParseProductKind accepts both singular and plural forms.
func ParseProductKind(s string) (ProductKind, error) {
	switch s {
	case "notebook", "notebooks":
		return ProductKindNotebook, nil
	case "smartphone", "smartphones":
		return ProductKindSmartphone, nil
	}
	return "", fmt.Errorf("unknown product kind %q", s)
}

// StoragePrefix is the object key prefix for images of this kind.
func (k ProductKind) StoragePrefix() string {
	switch k {
	case ProductKindNotebook:
		return "notebooks"
	case ProductKindSmartphone:
		return "smartphones"
	}
	return "products"
}

// Product is the shared part of every sellable item. Kind-specific
// attributes live in exactly one of Notebook or Smartphone.
type Product struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	Kind        ProductKind     `gorm:"type:varchar(20);not null;index" json:"kind"`
	CategoryID  uint            `gorm:"not null;index" json:"category_id"`
	Name        string          `gorm:"type:varchar(255);not null;index" json:"name"`
	Slug        string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(9,2);not null" json:"price"`
	ImageKey    string          `gorm:"type:varchar(512)" json:"-"`
	ImageURL    string          `gorm:"type:varchar(1024)" json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Category   *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Notebook   *NotebookSpec   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"notebook,omitempty"`
	Smartphone *SmartphoneSpec `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"smartphone,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

type NotebookSpec struct {
	ID          uint   `gorm:"primarykey" json:"-"`
	ProductID   uint   `gorm:"uniqueIndex;not null" json:"-"`
	Diagonal    string `gorm:"type:varchar(255)" json:"diagonal"`
	Display     string `gorm:"type:varchar(255)" json:"display"`
	Processor   string `gorm:"type:varchar(255)" json:"processor_freq"`
	RAM         string `gorm:"type:varchar(255)" json:"ram"`
	BatteryLife string `gorm:"type:varchar(255)" json:"battery_life"`
}

func (NotebookSpec) TableName() string {
	return "notebook_specs"
}

// SDMaxVolumes are the accepted values for SmartphoneSpec.SDMaxVolume.
var SDMaxVolumes = []string{"2", "4", "6", "8", "16"}

type SmartphoneSpec struct {
	ID              uint   `gorm:"primarykey" json:"-"`
	ProductID       uint   `gorm:"uniqueIndex;not null" json:"-"`
	Diagonal        string `gorm:"type:varchar(255)" json:"diagonal"`
	Display         string `gorm:"type:varchar(255)" json:"display"`
	Resolution      string `gorm:"type:varchar(255)" json:"resolution"`
	RAM             string `gorm:"type:varchar(255)" json:"ram"`
	SD              bool   `gorm:"not null" json:"sd"`
	SDMaxVolume     string `gorm:"type:varchar(10)" json:"sd_max_volume"`
	MainCameraMP    string `gorm:"type:varchar(255)" json:"main_camera_mp"`
	FrontalCameraMP string `gorm:"type:varchar(255)" json:"frontal_camera_mp"`
}

func (SmartphoneSpec) TableName() string {
	return "smartphone_specs"
}
