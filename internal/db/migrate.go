package db

import (
	"errors"

	"github.com/ikkim/gadgetshop-backend/config"
	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table owned by the service, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Customer{},
		&model.Category{},
		&model.Product{},
		&model.NotebookSpec{},
		&model.SmartphoneSpec{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB migrates the given connection and seeds default data.
func MigrateDB(conn *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := conn.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := seedCategories(conn); err != nil {
		logger.Error("Failed to seed initial data during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// seedCategories creates the default categories that are not present yet.
func seedCategories(conn *gorm.DB) error {
	created := 0
	for _, c := range config.DefaultCategories {
		var existing model.Category
		err := conn.Where("slug = ?", c.Slug).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := conn.Create(&model.Category{Name: c.Name, Slug: c.Slug}).Error; err != nil {
			return err
		}
		created++
	}

	if created > 0 {
		logger.Info("Default categories seeded", map[string]interface{}{
			"created": created,
		})
	}
	return nil
}
