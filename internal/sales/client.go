// internal/sales/client.go
package sales

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/your-org/uniform-sales-backend/internal/config"
)

// SaleItem is one line of a per-school sale payload
type SaleItem struct {
	ProductID uint  `json:"product_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
	IsGlobal  bool  `json:"is_global"`
}

// CreateSaleRequest is the payload of the sale-creation endpoint. A nil
// ClientID means the sale has no client reference.
type CreateSaleRequest struct {
	ClientID      *uint      `json:"client_id,omitempty"`
	Items         []SaleItem `json:"items"`
	PaymentMethod string     `json:"payment_method"`
	Notes         string     `json:"notes,omitempty"`
	Historical    bool       `json:"historical"`
	SoldAt        string     `json:"sold_at,omitempty"`

	// IdempotencyKey is sent as a header, not in the body
	IdempotencyKey string `json:"-"`
}

// Sale is the created sale record as returned by the backend
type Sale struct {
	ID   uint   `json:"id"`
	Code string `json:"code"`
}

// Creator creates sales on the remote sales backend
type Creator interface {
	CreateSale(ctx context.Context, schoolID uint, req *CreateSaleRequest) (*Sale, error)
}

// IdempotencyKey derives the per-partition key from one submission attempt's
// key, so retrying an attempt cannot double-create a school's sale
func IdempotencyKey(attemptKey string, schoolID uint) string {
	return fmt.Sprintf("%s-%d", attemptKey, schoolID)
}

// APIError is a rejected backend request, carrying the structured error
// detail when the backend provided one
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("sales backend request failed with status %d", e.StatusCode)
}

// Client is the HTTP implementation of Creator
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a sales backend client
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    cfg.Sales.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Sales.RequestTimeout},
		logger:     logger,
	}
}

// CreateSale issues one create-sale call for one school partition
func (c *Client) CreateSale(ctx context.Context, schoolID uint, req *CreateSaleRequest) (*Sale, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sale payload: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/schools/%d/sales", c.baseURL, schoolID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sales backend request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}

		// Surface the backend's structured detail when available
		var detail struct {
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(body, &detail); err == nil {
			apiErr.Detail = detail.Detail
		}

		c.logger.WithFields(logrus.Fields{
			"school_id":   schoolID,
			"status_code": resp.StatusCode,
			"detail":      apiErr.Detail,
		}).Warn("Sale creation rejected by sales backend")

		return nil, apiErr
	}

	var sale Sale
	if err := json.Unmarshal(body, &sale); err != nil {
		return nil, fmt.Errorf("failed to decode sale response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"school_id": schoolID,
		"sale_id":   sale.ID,
		"sale_code": sale.Code,
	}).Info("Sale created on sales backend")

	return &sale, nil
}
