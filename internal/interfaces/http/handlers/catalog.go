// internal/interfaces/http/handlers/catalog.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/uniform-sales-backend/internal/config"
	"github.com/your-org/uniform-sales-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// CatalogHandler handles school and product catalog endpoints
type CatalogHandler struct {
	catalogService *catalog.Service
	config         *config.Config
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(db *gorm.DB, cfg *config.Config) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalog.NewService(db, cfg),
		config:         cfg,
	}
}

// ListSchools handles GET /schools
func (h *CatalogHandler) ListSchools(c *gin.Context) {
	schools, err := h.catalogService.ListSchools()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve schools",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Schools retrieved successfully",
		"data":    schools,
	})
}

// ListSchoolProducts handles GET /schools/:id/products
func (h *CatalogHandler) ListSchoolProducts(c *gin.Context) {
	schoolID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid school ID",
		})
		return
	}

	products, err := h.catalogService.ListSchoolProducts(uint(schoolID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve school products",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "School products retrieved successfully",
		"data":    products,
	})
}

// ListGlobalProducts handles GET /products/global
func (h *CatalogHandler) ListGlobalProducts(c *gin.Context) {
	products, err := h.catalogService.ListGlobalProducts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve global products",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Global products retrieved successfully",
		"data":    products,
	})
}
