// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/your-org/uniform-sales-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("Running database auto-migrations...")

	// Models in dependency order
	models := []interface{}{
		&catalog.School{},
		&catalog.Product{},
		&catalog.GlobalProduct{},
	}

	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("Creating additional database indexes...")

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_schools_active ON schools(is_active)",
		"CREATE INDEX IF NOT EXISTS idx_school_products_school_active ON school_products(school_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_school_products_name ON school_products(name)",
		"CREATE INDEX IF NOT EXISTS idx_global_products_active ON global_products(is_active)",
		"CREATE INDEX IF NOT EXISTS idx_global_products_name ON global_products(name)",
	}

	for _, index := range indexes {
		if err := m.db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	log.Println("Database indexes created successfully")
	return nil
}

// SeedInitialData seeds development data: a couple of schools with local
// catalogs and a small global catalog
func (m *Migration) SeedInitialData() error {
	var count int64
	if err := m.db.Model(&catalog.School{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count schools: %w", err)
	}
	if count > 0 {
		return nil // Already seeded
	}

	log.Println("Seeding initial catalog data...")

	intPtr := func(v int) *int { return &v }

	schools := []catalog.School{
		{Name: "San Martín Primary", Code: "SMP", IsActive: true},
		{Name: "Belgrano Secondary", Code: "BGS", IsActive: true},
	}
	if err := m.db.Create(&schools).Error; err != nil {
		return fmt.Errorf("failed to seed schools: %w", err)
	}

	products := []catalog.Product{
		{SchoolID: schools[0].ID, Name: "Polo shirt", Size: "8", Price: 120000, InventoryQuantity: intPtr(25), IsActive: true},
		{SchoolID: schools[0].ID, Name: "Polo shirt", Size: "10", Price: 125000, InventoryQuantity: intPtr(18), IsActive: true},
		{SchoolID: schools[0].ID, Name: "Jumper", Size: "8", Price: 340000, Stock: intPtr(7), IsActive: true},
		{SchoolID: schools[1].ID, Name: "Blazer", Size: "M", Price: 520000, InventoryQuantity: intPtr(12), IsActive: true},
		{SchoolID: schools[1].ID, Name: "Tie", Size: "", Price: 60000, InventoryQuantity: intPtr(40), IsActive: true},
	}
	if err := m.db.Create(&products).Error; err != nil {
		return fmt.Errorf("failed to seed school products: %w", err)
	}

	globals := []catalog.GlobalProduct{
		{Name: "White socks", Size: "One size", Price: 25000, InventoryQuantity: intPtr(100), IsActive: true},
		{Name: "Gym shorts", Size: "M", Price: 85000, InventoryQuantity: intPtr(30), IsActive: true},
	}
	if err := m.db.Create(&globals).Error; err != nil {
		return fmt.Errorf("failed to seed global products: %w", err)
	}

	log.Println("Initial catalog data seeded successfully")
	return nil
}
