// internal/domain/catalog/service.go
package catalog

import (
	"fmt"

	"github.com/your-org/uniform-sales-backend/internal/config"
	"gorm.io/gorm"
)

// Service handles catalog business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new catalog service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// GetSchool retrieves an active school by ID
func (s *Service) GetSchool(id uint) (*School, error) {
	var school School
	result := s.db.Where("id = ? AND is_active = ?", id, true).First(&school)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("school not found")
		}
		return nil, fmt.Errorf("failed to retrieve school: %w", result.Error)
	}
	return &school, nil
}

// ListSchools retrieves all active schools
func (s *Service) ListSchools() ([]School, error) {
	var schools []School
	if err := s.db.Where("is_active = ?", true).Order("name asc").Find(&schools).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve schools: %w", err)
	}
	return schools, nil
}

// ListSchoolProducts retrieves the school-local catalog for one school
func (s *Service) ListSchoolProducts(schoolID uint) ([]Product, error) {
	var products []Product
	err := s.db.Where("school_id = ? AND is_active = ?", schoolID, true).
		Order("name asc").Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve school products: %w", err)
	}
	return products, nil
}

// ListGlobalProducts retrieves the cross-school catalog
func (s *Service) ListGlobalProducts() ([]GlobalProduct, error) {
	var products []GlobalProduct
	err := s.db.Where("is_active = ?", true).Order("name asc").Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve global products: %w", err)
	}
	return products, nil
}

// ResolveProduct resolves a product against the appropriate catalog. A global
// product id never resolves against a school-local catalog and vice versa.
func (s *Service) ResolveProduct(schoolID, productID uint, isGlobal bool) (*ProductSnapshot, error) {
	if isGlobal {
		var prod GlobalProduct
		result := s.db.Where("id = ? AND is_active = ?", productID, true).First(&prod)
		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				return nil, fmt.Errorf("global product not found")
			}
			return nil, fmt.Errorf("failed to resolve global product: %w", result.Error)
		}
		snapshot := prod.Snapshot()
		return &snapshot, nil
	}

	var prod Product
	result := s.db.Where("id = ? AND school_id = ? AND is_active = ?", productID, schoolID, true).First(&prod)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("product not found for school")
		}
		return nil, fmt.Errorf("failed to resolve product: %w", result.Error)
	}
	snapshot := prod.Snapshot()
	return &snapshot, nil
}
