package composition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/your-org/uniform-sales-backend/internal/config"
	"github.com/your-org/uniform-sales-backend/internal/domain/catalog"
	"github.com/your-org/uniform-sales-backend/internal/sales"
)

// memoryStore keeps marshalled sessions so stored state is decoupled from
// the caller's pointer, matching the Redis store's behavior
type memoryStore struct {
	sessions map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: make(map[string][]byte)}
}

func (s *memoryStore) Get(_ context.Context, id string) (*Session, error) {
	data, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *memoryStore) Save(_ context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	s.sessions[session.ID] = data
	return nil
}

func (s *memoryStore) Delete(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

type fakeCatalog struct {
	schools map[uint]string
	local   map[[2]uint]catalog.ProductSnapshot // key: {schoolID, productID}
	global  map[uint]catalog.ProductSnapshot
}

func (c *fakeCatalog) GetSchool(id uint) (*catalog.School, error) {
	name, ok := c.schools[id]
	if !ok {
		return nil, fmt.Errorf("school not found")
	}
	return &catalog.School{ID: id, Name: name}, nil
}

func (c *fakeCatalog) ListSchoolProducts(schoolID uint) ([]catalog.Product, error) {
	return nil, nil
}

func (c *fakeCatalog) ResolveProduct(schoolID, productID uint, isGlobal bool) (*catalog.ProductSnapshot, error) {
	if isGlobal {
		snap, ok := c.global[productID]
		if !ok {
			return nil, fmt.Errorf("global product not found")
		}
		return &snap, nil
	}
	snap, ok := c.local[[2]uint{schoolID, productID}]
	if !ok {
		return nil, fmt.Errorf("product not found for school")
	}
	return &snap, nil
}

type creatorCall struct {
	schoolID uint
	req      sales.CreateSaleRequest
}

type fakeCreator struct {
	calls      []creatorCall
	failSchool uint
	failErr    error
	nextID     uint
}

func (c *fakeCreator) CreateSale(_ context.Context, schoolID uint, req *sales.CreateSaleRequest) (*sales.Sale, error) {
	c.calls = append(c.calls, creatorCall{schoolID: schoolID, req: *req})
	if c.failSchool != 0 && schoolID == c.failSchool {
		return nil, c.failErr
	}
	c.nextID++
	return &sales.Sale{ID: c.nextID, Code: fmt.Sprintf("SALE-%03d", c.nextID)}, nil
}

func newTestService(cat Catalog, creator sales.Creator) (*Service, *memoryStore) {
	store := newMemoryStore()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewService(store, cat, creator, &config.Config{}, logger), store
}

func testCatalog() *fakeCatalog {
	return &fakeCatalog{
		schools: map[uint]string{10: "School A", 20: "School B", 30: "School C"},
		local: map[[2]uint]catalog.ProductSnapshot{
			{10, 1}: {ID: 1, Name: "Polo shirt", Size: "8", Price: 1000, Available: 5},
			{20, 2}: {ID: 2, Name: "Blazer", Size: "M", Price: 5000, Available: 3},
			{30, 3}: {ID: 3, Name: "Tie", Price: 700, Available: 9},
		},
		global: map[uint]catalog.ProductSnapshot{
			4: {ID: 4, Name: "White socks", Price: 250, Available: 2, IsGlobal: true},
		},
	}
}

func openSession(t *testing.T, svc *Service, historical bool) *Session {
	t.Helper()
	session, err := svc.Open(context.Background(), &OpenRequest{Historical: historical})
	if err != nil {
		t.Fatalf("failed to open session: %v", err)
	}
	return session
}

func addItem(t *testing.T, svc *Service, sessionID string, schoolID, productID uint, isGlobal bool, qty int) *Session {
	t.Helper()
	ctx := context.Background()
	if _, _, err := svc.SelectSchool(ctx, sessionID, schoolID); err != nil {
		t.Fatalf("failed to select school %d: %v", schoolID, err)
	}
	session, err := svc.AddItem(ctx, sessionID, &AddItemRequest{
		ProductID: productID,
		IsGlobal:  isGlobal,
		Quantity:  qty,
	})
	if err != nil {
		t.Fatalf("failed to add item %d: %v", productID, err)
	}
	return session
}

func uintPtr(v uint) *uint { return &v }

func TestAddItem_MergesCumulativeQuantity(t *testing.T) {
	svc, _ := newTestService(testCatalog(), &fakeCreator{})
	session := openSession(t, svc, false)

	addItem(t, svc, session.ID, 10, 1, false, 3)
	session = addItem(t, svc, session.ID, 10, 1, false, 2)

	if len(session.Items) != 1 {
		t.Fatalf("expected 1 merged line, got %d", len(session.Items))
	}
	if session.Items[0].Quantity != 5 {
		t.Errorf("expected merged quantity 5, got %d", session.Items[0].Quantity)
	}
	if session.Items[0].DisplayName != "Polo shirt" || session.Items[0].SchoolName != "School A" {
		t.Errorf("expected denormalized fields, got %+v", session.Items[0])
	}
}

func TestAddItem_RejectsCumulativeOverstock(t *testing.T) {
	svc, _ := newTestService(testCatalog(), &fakeCreator{})
	session := openSession(t, svc, false)

	addItem(t, svc, session.ID, 10, 1, false, 3)

	// 3 already in cart, 5 available: 3 more would exceed the snapshot
	_, err := svc.AddItem(context.Background(), session.ID, &AddItemRequest{
		ProductID: 1,
		Quantity:  3,
	})
	if !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// The rejected add must not have touched the cart
	got, err := svc.Get(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("failed to reload session: %v", err)
	}
	if got.Items[0].Quantity != 3 {
		t.Errorf("cart mutated by rejected add: quantity %d", got.Items[0].Quantity)
	}
}

func TestAddItem_HistoricalBypassesStock(t *testing.T) {
	svc, _ := newTestService(testCatalog(), &fakeCreator{})
	session := openSession(t, svc, true)

	// Far beyond the available 5; historical sales ignore inventory
	session = addItem(t, svc, session.ID, 10, 1, false, 50)

	if session.Items[0].Quantity != 50 {
		t.Errorf("expected quantity 50, got %d", session.Items[0].Quantity)
	}
}

func TestAddItem_Validation(t *testing.T) {
	svc, _ := newTestService(testCatalog(), &fakeCreator{})
	ctx := context.Background()
	session := openSession(t, svc, false)

	// No school selected yet
	if _, err := svc.AddItem(ctx, session.ID, &AddItemRequest{ProductID: 1, Quantity: 1}); !IsValidationError(err) {
		t.Errorf("expected validation error without school context, got %v", err)
	}

	if _, _, err := svc.SelectSchool(ctx, session.ID, 10); err != nil {
		t.Fatalf("failed to select school: %v", err)
	}

	// Non-positive quantity
	if _, err := svc.AddItem(ctx, session.ID, &AddItemRequest{ProductID: 1, Quantity: 0}); !IsValidationError(err) {
		t.Errorf("expected validation error for quantity 0, got %v", err)
	}

	// Unresolvable product: 2 belongs to school 20, not 10
	if _, err := svc.AddItem(ctx, session.ID, &AddItemRequest{ProductID: 2, Quantity: 1}); !IsValidationError(err) {
		t.Errorf("expected validation error for foreign product, got %v", err)
	}

	// A school-local id does not resolve against the global catalog
	if _, err := svc.AddItem(ctx, session.ID, &AddItemRequest{ProductID: 1, IsGlobal: true, Quantity: 1}); !IsValidationError(err) {
		t.Errorf("expected validation error for wrong catalog, got %v", err)
	}
}

func TestSelectSchool_KeepsCartAndClient(t *testing.T) {
	svc, _ := newTestService(testCatalog(), &fakeCreator{})
	ctx := context.Background()
	session := openSession(t, svc, false)

	addItem(t, svc, session.ID, 10, 1, false, 2)
	if _, err := svc.SelectClient(ctx, session.ID, 77); err != nil {
		t.Fatalf("failed to select client: %v", err)
	}

	updated, _, err := svc.SelectSchool(ctx, session.ID, 20)
	if err != nil {
		t.Fatalf("failed to switch school: %v", err)
	}

	if updated.ActiveSchoolID != 20 {
		t.Errorf("expected active school 20, got %d", updated.ActiveSchoolID)
	}
	if len(updated.Items) != 1 || updated.Items[0].SchoolID != 10 {
		t.Errorf("switching school must not clear other schools' items: %+v", updated.Items)
	}
	if updated.ClientID == nil || *updated.ClientID != 77 {
		t.Errorf("switching school must not clear the client, got %v", updated.ClientID)
	}
}

func TestSubmit_PartitionsBySchool(t *testing.T) {
	creator := &fakeCreator{}
	svc, _ := newTestService(testCatalog(), creator)
	ctx := context.Background()
	session := openSession(t, svc, false)

	addItem(t, svc, session.ID, 10, 1, false, 1)
	addItem(t, svc, session.ID, 20, 2, false, 1)
	addItem(t, svc, session.ID, 30, 3, false, 2)

	result, err := svc.Submit(ctx, session.ID, &SubmitRequest{
		ClientID:      uintPtr(42),
		PaymentMethod: "card",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(creator.calls) != 3 {
		t.Fatalf("expected 3 backend calls, got %d", len(creator.calls))
	}
	if len(result.Results) != 3 {
		t.Fatalf("expected 3 sale results, got %d", len(result.Results))
	}

	// Sequential, first-appearance order, each call carrying only its partition
	wantSchools := []uint{10, 20, 30}
	for i, call := range creator.calls {
		if call.schoolID != wantSchools[i] {
			t.Errorf("call %d: expected school %d, got %d", i, wantSchools[i], call.schoolID)
		}
		if len(call.req.Items) != 1 {
			t.Errorf("call %d: expected 1 item, got %d", i, len(call.req.Items))
		}
		if call.req.ClientID == nil || *call.req.ClientID != 42 {
			t.Errorf("call %d: expected client 42, got %v", i, call.req.ClientID)
		}
		if call.req.IdempotencyKey == "" {
			t.Errorf("call %d: expected an idempotency key", i)
		}
	}
}

func TestSubmit_MultiSchoolScenario(t *testing.T) {
	creator := &fakeCreator{}
	svc, _ := newTestService(testCatalog(), creator)
	ctx := context.Background()
	session := openSession(t, svc, false)

	// School A: 2 x 1000, School B: 1 x 5000
	addItem(t, svc, session.ID, 10, 1, false, 2)
	addItem(t, svc, session.ID, 20, 2, false, 1)

	result, err := svc.Submit(ctx, session.ID, &SubmitRequest{
		ClientID:      uintPtr(NoClientID),
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(creator.calls) != 2 {
		t.Fatalf("expected 2 backend calls, got %d", len(creator.calls))
	}
	for i, call := range creator.calls {
		if call.req.ClientID != nil {
			t.Errorf("call %d: sentinel client must be absent in payload, got %v", i, call.req.ClientID)
		}
		if call.req.PaymentMethod != "cash" {
			t.Errorf("call %d: expected payment method cash, got %q", i, call.req.PaymentMethod)
		}
	}

	if result.Results[0].Subtotal != 2000 {
		t.Errorf("expected school A subtotal 2000, got %d", result.Results[0].Subtotal)
	}
	if result.Results[1].Subtotal != 5000 {
		t.Errorf("expected school B subtotal 5000, got %d", result.Results[1].Subtotal)
	}
	if result.GrandTotal != 7000 {
		t.Errorf("expected grand total 7000, got %d", result.GrandTotal)
	}
}

func TestSubmit_Validation(t *testing.T) {
	svc, _ := newTestService(testCatalog(), &fakeCreator{})
	ctx := context.Background()

	// Empty cart
	session := openSession(t, svc, false)
	_, err := svc.Submit(ctx, session.ID, &SubmitRequest{ClientID: uintPtr(1), PaymentMethod: "cash"})
	if !IsValidationError(err) {
		t.Errorf("expected validation error for empty cart, got %v", err)
	}

	// No client selection at all
	session = openSession(t, svc, false)
	addItem(t, svc, session.ID, 10, 1, false, 1)
	_, err = svc.Submit(ctx, session.ID, &SubmitRequest{PaymentMethod: "cash"})
	if !IsValidationError(err) {
		t.Errorf("expected validation error without client selection, got %v", err)
	}
}

func TestSubmit_HistoricalDate(t *testing.T) {
	creator := &fakeCreator{}
	svc, _ := newTestService(testCatalog(), creator)
	ctx := context.Background()

	session := openSession(t, svc, true)
	addItem(t, svc, session.ID, 10, 1, false, 1)

	// Missing date parts
	_, err := svc.Submit(ctx, session.ID, &SubmitRequest{ClientID: uintPtr(1), PaymentMethod: "cash"})
	if !IsValidationError(err) {
		t.Fatalf("expected validation error without date, got %v", err)
	}

	// Implausible date
	_, err = svc.Submit(ctx, session.ID, &SubmitRequest{
		ClientID:       uintPtr(1),
		PaymentMethod:  "cash",
		HistoricalDate: &HistoricalDate{Day: 31, Month: 2, Year: 2024},
	})
	if !IsValidationError(err) {
		t.Fatalf("expected validation error for 31/02/2024, got %v", err)
	}
	if len(creator.calls) != 0 {
		t.Fatalf("no backend call may be issued before validation passes, got %d", len(creator.calls))
	}

	// Valid date: midday timestamp, historical flag carried
	_, err = svc.Submit(ctx, session.ID, &SubmitRequest{
		ClientID:       uintPtr(1),
		PaymentMethod:  "cash",
		HistoricalDate: &HistoricalDate{Day: 15, Month: 6, Year: 2023},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creator.calls[0].req.SoldAt != "2023-06-15T12:00:00" {
		t.Errorf("expected sold_at 2023-06-15T12:00:00, got %q", creator.calls[0].req.SoldAt)
	}
	if !creator.calls[0].req.Historical {
		t.Error("expected historical flag on the payload")
	}
}

func TestSubmit_PartialFailureKeepsCommittedPrefix(t *testing.T) {
	creator := &fakeCreator{
		failSchool: 20,
		failErr:    &sales.APIError{StatusCode: 422, Detail: "insufficient stock"},
	}
	svc, store := newTestService(testCatalog(), creator)
	ctx := context.Background()

	session := openSession(t, svc, false)
	addItem(t, svc, session.ID, 10, 1, false, 1)
	addItem(t, svc, session.ID, 20, 2, false, 1)
	addItem(t, svc, session.ID, 30, 3, false, 1)

	_, err := svc.Submit(ctx, session.ID, &SubmitRequest{
		ClientID:      uintPtr(1),
		PaymentMethod: "cash",
	})

	var partial *PartialSubmissionError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialSubmissionError, got %v", err)
	}

	// School 30's call must never have been issued
	if len(creator.calls) != 2 {
		t.Fatalf("expected the loop to abort after 2 calls, got %d", len(creator.calls))
	}

	if partial.FailedSchoolID != 20 {
		t.Errorf("expected failed school 20, got %d", partial.FailedSchoolID)
	}
	if len(partial.Committed) != 1 || partial.Committed[0].SchoolID != 10 {
		t.Errorf("expected exactly school 10 committed, got %+v", partial.Committed)
	}
	if partial.Committed[0].SaleCode == "" {
		t.Error("expected the committed result to carry a sale code")
	}

	// The committed prefix must survive on the stored session
	stored, err := store.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("failed to reload session: %v", err)
	}
	if len(stored.Committed) != 1 || stored.Committed[0].SchoolID != 10 {
		t.Errorf("expected committed prefix persisted, got %+v", stored.Committed)
	}

	// The backend detail is surfaced through the error chain
	if partial.Unwrap().Error() != "insufficient stock" {
		t.Errorf("expected backend detail surfaced, got %q", partial.Unwrap().Error())
	}
}

func TestDismiss(t *testing.T) {
	svc, _ := newTestService(testCatalog(), &fakeCreator{})
	ctx := context.Background()

	session := openSession(t, svc, false)
	if err := svc.Dismiss(ctx, session.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Get(ctx, session.ID); err != ErrSessionNotFound {
		t.Errorf("expected session to be gone, got %v", err)
	}
}

func TestOpen_PreSeedsItem(t *testing.T) {
	svc, _ := newTestService(testCatalog(), &fakeCreator{})

	session, err := svc.Open(context.Background(), &OpenRequest{
		SchoolID:  uintPtr(10),
		ProductID: uintPtr(1),
		Quantity:  2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(session.Items) != 1 {
		t.Fatalf("expected pre-seeded cart line, got %d lines", len(session.Items))
	}
	if session.Items[0].Quantity != 2 || session.Items[0].SchoolID != 10 {
		t.Errorf("unexpected pre-seeded line: %+v", session.Items[0])
	}
}
