// internal/interfaces/http/handlers/composition.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/uniform-sales-backend/internal/config"
	"github.com/your-org/uniform-sales-backend/internal/domain/catalog"
	"github.com/your-org/uniform-sales-backend/internal/domain/composition"
	"github.com/your-org/uniform-sales-backend/internal/pkg/pdf"
	"github.com/your-org/uniform-sales-backend/internal/sales"
	"gorm.io/gorm"
)

// CompositionHandler handles sale composition endpoints
type CompositionHandler struct {
	compositionService *composition.Service
	pdfService         *pdf.Service
	config             *config.Config
}

// NewCompositionHandler creates a new composition handler
func NewCompositionHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) *CompositionHandler {
	store := composition.NewRedisStore(redisClient, cfg.Session.TTL)
	catalogService := catalog.NewService(db, cfg)
	salesClient := sales.NewClient(cfg, logger)

	return &CompositionHandler{
		compositionService: composition.NewService(store, catalogService, salesClient, cfg, logger),
		pdfService:         pdf.NewService(cfg),
		config:             cfg,
	}
}

// Open handles POST /compositions
func (h *CompositionHandler) Open(c *gin.Context) {
	var req composition.OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	session, err := h.compositionService.Open(c.Request.Context(), &req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Composition session opened successfully",
		"data":    session,
	})
}

// Get handles GET /compositions/:id
func (h *CompositionHandler) Get(c *gin.Context) {
	session, err := h.compositionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Composition session retrieved successfully",
		"data":    session,
	})
}

// SelectSchool handles PUT /compositions/:id/school
func (h *CompositionHandler) SelectSchool(c *gin.Context) {
	var req struct {
		SchoolID uint `json:"school_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	session, products, err := h.compositionService.SelectSchool(c.Request.Context(), c.Param("id"), req.SchoolID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "School selected successfully",
		"data": gin.H{
			"session":  session,
			"products": products,
		},
	})
}

// SelectClient handles PUT /compositions/:id/client
func (h *CompositionHandler) SelectClient(c *gin.Context) {
	var req struct {
		ClientID *uint `json:"client_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	session, err := h.compositionService.SelectClient(c.Request.Context(), c.Param("id"), *req.ClientID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Client selected successfully",
		"data":    session,
	})
}

// AddItem handles POST /compositions/:id/items
func (h *CompositionHandler) AddItem(c *gin.Context) {
	var req composition.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	session, err := h.compositionService.AddItem(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added successfully",
		"data":    session,
	})
}

// RemoveItem handles DELETE /compositions/:id/items/:index
func (h *CompositionHandler) RemoveItem(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid item index",
		})
		return
	}

	session, err := h.compositionService.RemoveItem(c.Request.Context(), c.Param("id"), index)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed successfully",
		"data":    session,
	})
}

// Summary handles GET /compositions/:id/summary
func (h *CompositionHandler) Summary(c *gin.Context) {
	summary, err := h.compositionService.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Summary retrieved successfully",
		"data":    summary,
	})
}

// Submit handles POST /compositions/:id/submit
func (h *CompositionHandler) Submit(c *gin.Context) {
	var req composition.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	result, err := h.compositionService.Submit(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sales created successfully",
		"data":    result,
	})
}

// Receipt handles GET /compositions/:id/receipt
func (h *CompositionHandler) Receipt(c *gin.Context) {
	session, err := h.compositionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	if !session.Submitted() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Receipt is only available after a successful submission",
		})
		return
	}

	buf, err := h.pdfService.GenerateReceipt(session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate receipt",
		})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=sale-summary.pdf")
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// Dismiss handles DELETE /compositions/:id
func (h *CompositionHandler) Dismiss(c *gin.Context) {
	if err := h.compositionService.Dismiss(c.Request.Context(), c.Param("id")); err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Composition session dismissed successfully",
	})
}

// renderError maps workflow errors onto HTTP responses. Validation failures
// and partial submissions are recoverable; the session stays usable.
func (h *CompositionHandler) renderError(c *gin.Context, err error) {
	var partial *composition.PartialSubmissionError
	if errors.As(err, &partial) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":            partial.Error(),
			"committed":        partial.Committed,
			"failed_school_id": partial.FailedSchoolID,
		})
		return
	}

	if composition.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	if errors.Is(err, composition.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Composition session not found",
		})
		return
	}

	var apiErr *sales.APIError
	if errors.As(err, &apiErr) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": apiErr.Error(),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Internal server error",
	})
}
