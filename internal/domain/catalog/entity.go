// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"gorm.io/gorm"
)

// School represents a school whose uniforms are sold through the store
type School struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null;size:255" json:"name"`
	Code      string         `gorm:"uniqueIndex;size:50" json:"code"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Products []Product `gorm:"foreignKey:SchoolID" json:"products,omitempty"`
}

// Product represents a school-scoped catalog item
type Product struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	SchoolID          uint           `gorm:"not null;index" json:"school_id"`
	Name              string         `gorm:"not null;size:255" json:"name"`
	Size              string         `gorm:"size:50" json:"size"`
	Price             int64          `gorm:"not null" json:"price"` // Price in cents
	InventoryQuantity *int           `json:"inventory_quantity"`
	Stock             *int           `json:"stock"` // Legacy stock column, superseded by inventory_quantity
	IsActive          bool           `gorm:"default:true" json:"is_active"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	School School `gorm:"foreignKey:SchoolID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"school,omitempty"`
}

// GlobalProduct represents an item from the cross-school catalog
type GlobalProduct struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Name              string         `gorm:"not null;size:255" json:"name"`
	Size              string         `gorm:"size:50" json:"size"`
	Price             int64          `gorm:"not null" json:"price"` // Price in cents
	InventoryQuantity *int           `json:"inventory_quantity"`
	Stock             *int           `json:"stock"` // Legacy stock column, superseded by inventory_quantity
	IsActive          bool           `gorm:"default:true" json:"is_active"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides
func (School) TableName() string        { return "schools" }
func (Product) TableName() string       { return "school_products" }
func (GlobalProduct) TableName() string { return "global_products" }

// Available returns the sellable quantity: inventory_quantity when set,
// otherwise the legacy stock column, otherwise 0.
func (p *Product) Available() int {
	return availableQuantity(p.InventoryQuantity, p.Stock)
}

// Available returns the sellable quantity: inventory_quantity when set,
// otherwise the legacy stock column, otherwise 0.
func (p *GlobalProduct) Available() int {
	return availableQuantity(p.InventoryQuantity, p.Stock)
}

func availableQuantity(inventory, legacy *int) int {
	if inventory != nil {
		return *inventory
	}
	if legacy != nil {
		return *legacy
	}
	return 0
}

// ProductSnapshot is the catalog view the composition workflow validates against.
// It is a point-in-time read; the sales backend remains the authority at submission.
type ProductSnapshot struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Size      string `json:"size"`
	Price     int64  `json:"price"`
	Available int    `json:"available"`
	IsGlobal  bool   `json:"is_global"`
}

// Snapshot converts a school product to its catalog snapshot
func (p *Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:        p.ID,
		Name:      p.Name,
		Size:      p.Size,
		Price:     p.Price,
		Available: p.Available(),
		IsGlobal:  false,
	}
}

// Snapshot converts a global product to its catalog snapshot
func (p *GlobalProduct) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:        p.ID,
		Name:      p.Name,
		Size:      p.Size,
		Price:     p.Price,
		Available: p.Available(),
		IsGlobal:  true,
	}
}
