package repository

import (
	"testing"

	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func createCustomer(t *testing.T, testDB *gorm.DB, username string, role model.UserRole) *model.Customer {
	t.Helper()
	user := &model.User{Username: username, PasswordHash: "hash", Role: role}
	require.NoError(t, testDB.Create(user).Error)
	customer := &model.Customer{UserID: user.ID}
	require.NoError(t, testDB.Omit("User", "Orders").Create(customer).Error)
	customer.User = *user
	return customer
}

func createCategory(t *testing.T, testDB *gorm.DB, slug string) *model.Category {
	t.Helper()
	category := &model.Category{Name: slug, Slug: slug}
	require.NoError(t, testDB.Create(category).Error)
	return category
}

func createNotebook(t *testing.T, testDB *gorm.DB, category *model.Category, slug, price string) *model.Product {
	t.Helper()
	product := &model.Product{
		Kind:       model.ProductKindNotebook,
		CategoryID: category.ID,
		Name:       "Notebook " + slug,
		Slug:       slug,
		Price:      decimal.RequireFromString(price),
		Notebook:   &model.NotebookSpec{Diagonal: "15.6", Display: "IPS", Processor: "3.2 GHz", RAM: "16 GB", BatteryLife: "10h"},
	}
	require.NoError(t, testDB.Omit("Category").Create(product).Error)
	return product
}

func createSmartphone(t *testing.T, testDB *gorm.DB, category *model.Category, slug, price string) *model.Product {
	t.Helper()
	product := &model.Product{
		Kind:       model.ProductKindSmartphone,
		CategoryID: category.ID,
		Name:       "Phone " + slug,
		Slug:       slug,
		Price:      decimal.RequireFromString(price),
		Smartphone: &model.SmartphoneSpec{Diagonal: "6.1", Display: "OLED", Resolution: "2532x1170", RAM: "6 GB", SD: false},
	}
	require.NoError(t, testDB.Omit("Category").Create(product).Error)
	return product
}
