package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pureclarity/feedsync/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate all entities
	err = db.AutoMigrate(
		&entities.Store{},
		&entities.StateRecord{},
		&entities.Product{},
		&entities.ProductImage{},
		&entities.ProductCategory{},
		&entities.ProductLink{},
		&entities.BundleSelection{},
		&entities.AttributeDefinition{},
		&entities.AttributeOption{},
		&entities.ProductAttributeValue{},
		&entities.Category{},
		&entities.Customer{},
		&entities.Order{},
		&entities.OrderItem{},
		&entities.CatalogRule{},
		&entities.CatalogRuleProduct{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) GetStore(id int) (*entities.Store, error) {
	var store entities.Store
	err := d.DB.First(&store, id).Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (d *Database) GetActiveStores() ([]entities.Store, error) {
	var stores []entities.Store
	err := d.DB.Where("active = ?", true).Order("id ASC").Find(&stores).Error
	return stores, err
}
