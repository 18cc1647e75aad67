package sales

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/uniform-sales-backend/internal/config"
)

func newTestClient(baseURL string) *Client {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{}
	cfg.Sales.BaseURL = baseURL
	cfg.Sales.RequestTimeout = 5 * time.Second

	return NewClient(cfg, logger)
}

func clientID(v uint) *uint { return &v }

func TestCreateSale_Success(t *testing.T) {
	var gotPath, gotIdempotencyKey, gotContentType string
	var gotBody CreateSaleRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotIdempotencyKey = r.Header.Get("Idempotency-Key")
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 91, "code": "SALE-091"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	sale, err := client.CreateSale(context.Background(), 10, &CreateSaleRequest{
		ClientID: clientID(42),
		Items: []SaleItem{
			{ProductID: 1, Quantity: 2, UnitPrice: 1000},
			{ProductID: 4, Quantity: 1, UnitPrice: 250, IsGlobal: true},
		},
		PaymentMethod:  "cash",
		IdempotencyKey: "attempt-abc-10",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sale.ID != 91 || sale.Code != "SALE-091" {
		t.Errorf("unexpected sale: %+v", sale)
	}
	if gotPath != "/api/v1/schools/10/sales" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotIdempotencyKey != "attempt-abc-10" {
		t.Errorf("unexpected idempotency key %q", gotIdempotencyKey)
	}
	if gotContentType != "application/json" {
		t.Errorf("unexpected content type %q", gotContentType)
	}
	if gotBody.ClientID == nil || *gotBody.ClientID != 42 {
		t.Errorf("unexpected client in payload: %v", gotBody.ClientID)
	}
	if len(gotBody.Items) != 2 || gotBody.Items[1].ProductID != 4 || !gotBody.Items[1].IsGlobal {
		t.Errorf("unexpected items in payload: %+v", gotBody.Items)
	}
}

func TestCreateSale_OmitsAbsentClient(t *testing.T) {
	var rawBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&rawBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 1, "code": "SALE-001"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.CreateSale(context.Background(), 10, &CreateSaleRequest{
		Items:         []SaleItem{{ProductID: 1, Quantity: 1, UnitPrice: 1000}},
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, present := rawBody["client_id"]; present {
		t.Error("nil client must be omitted from the payload")
	}
}

func TestCreateSale_BackendDetailSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"detail": "insufficient stock for product 1"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.CreateSale(context.Background(), 10, &CreateSaleRequest{
		Items:         []SaleItem{{ProductID: 1, Quantity: 99, UnitPrice: 1000}},
		PaymentMethod: "cash",
	})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d", apiErr.StatusCode)
	}
	if apiErr.Error() != "insufficient stock for product 1" {
		t.Errorf("expected backend detail as message, got %q", apiErr.Error())
	}
}

func TestCreateSale_GenericMessageWithoutDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream timeout"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.CreateSale(context.Background(), 10, &CreateSaleRequest{
		Items:         []SaleItem{{ProductID: 1, Quantity: 1, UnitPrice: 1000}},
		PaymentMethod: "cash",
	})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Error() != "sales backend request failed with status 502" {
		t.Errorf("unexpected message %q", apiErr.Error())
	}
}

func TestIdempotencyKey(t *testing.T) {
	if got := IdempotencyKey("attempt-abc", 10); got != "attempt-abc-10" {
		t.Errorf("unexpected key %q", got)
	}
}
