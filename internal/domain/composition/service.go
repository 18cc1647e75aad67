// internal/domain/composition/service.go
package composition

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/uniform-sales-backend/internal/config"
	"github.com/your-org/uniform-sales-backend/internal/domain/catalog"
	"github.com/your-org/uniform-sales-backend/internal/sales"
)

// Catalog is the catalog surface the workflow depends on. The school context
// is always passed explicitly so the core stays testable without the HTTP
// layer or a shared active-school store.
type Catalog interface {
	GetSchool(id uint) (*catalog.School, error)
	ListSchoolProducts(schoolID uint) ([]catalog.Product, error)
	ResolveProduct(schoolID, productID uint, isGlobal bool) (*catalog.ProductSnapshot, error)
}

// Service handles the sale composition workflow
type Service struct {
	store   Store
	catalog Catalog
	sales   sales.Creator
	config  *config.Config
	logger  *logrus.Logger
}

// NewService creates a new composition service
func NewService(store Store, cat Catalog, creator sales.Creator, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		store:   store,
		catalog: cat,
		sales:   creator,
		config:  cfg,
		logger:  logger,
	}
}

// OpenRequest represents the options of a new composition session. The
// optional product fields pre-seed the cart.
type OpenRequest struct {
	Historical bool  `json:"historical"`
	SchoolID   *uint `json:"school_id"`
	ProductID  *uint `json:"product_id"`
	IsGlobal   bool  `json:"is_global"`
	Quantity   int   `json:"quantity"`
}

// AddItemRequest represents an add-to-cart request. SchoolID overrides the
// session's active school when set.
type AddItemRequest struct {
	ProductID uint  `json:"product_id" binding:"required"`
	IsGlobal  bool  `json:"is_global"`
	Quantity  int   `json:"quantity" binding:"required"`
	SchoolID  *uint `json:"school_id"`
}

// HistoricalDate represents the operator-entered date of a back-dated sale
type HistoricalDate struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// SubmitRequest represents a submission of the composed cart
type SubmitRequest struct {
	ClientID       *uint           `json:"client_id"`
	PaymentMethod  string          `json:"payment_method" binding:"required"`
	Notes          string          `json:"notes"`
	HistoricalDate *HistoricalDate `json:"historical_date"`
}

// SubmitResult is the consolidated outcome of a fully successful submission
type SubmitResult struct {
	Results    []SaleResult `json:"results"`
	GrandTotal int64        `json:"grand_total"`
}

// Open creates a new composition session, optionally pre-seeded with one
// product
func (s *Service) Open(ctx context.Context, req *OpenRequest) (*Session, error) {
	now := time.Now().UTC()
	session := &Session{
		ID:         uuid.New().String(),
		Historical: req.Historical,
		Items:      []CartItem{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if req.SchoolID != nil {
		school, err := s.catalog.GetSchool(*req.SchoolID)
		if err != nil {
			return nil, NewValidationError("school %d cannot be selected: %v", *req.SchoolID, err)
		}
		session.ActiveSchoolID = school.ID
		session.ActiveSchoolName = school.Name
	}

	if req.ProductID != nil {
		quantity := req.Quantity
		if quantity == 0 {
			quantity = 1
		}
		if err := s.addItem(session, &AddItemRequest{
			ProductID: *req.ProductID,
			IsGlobal:  req.IsGlobal,
			Quantity:  quantity,
		}); err != nil {
			return nil, err
		}
	}

	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"historical": session.Historical,
	}).Info("Composition session opened")

	return session, nil
}

// Get retrieves a session by ID
func (s *Service) Get(ctx context.Context, sessionID string) (*Session, error) {
	return s.store.Get(ctx, sessionID)
}

// SelectSchool switches the active school context used for product loading
// and for attributing newly added items. Existing cart items of other schools
// and the chosen client are kept. Returns the school's local catalog, since
// selecting a school reloads it; the global catalog is school-independent.
func (s *Service) SelectSchool(ctx context.Context, sessionID string, schoolID uint) (*Session, []catalog.Product, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	school, err := s.catalog.GetSchool(schoolID)
	if err != nil {
		return nil, nil, NewValidationError("school %d cannot be selected: %v", schoolID, err)
	}

	session.ActiveSchoolID = school.ID
	session.ActiveSchoolName = school.Name

	if err := s.store.Save(ctx, session); err != nil {
		return nil, nil, err
	}

	products, err := s.catalog.ListSchoolProducts(school.ID)
	if err != nil {
		return nil, nil, err
	}

	return session, products, nil
}

// SelectClient records the client selection. Clients are school-independent;
// switching schools never clears this.
func (s *Service) SelectClient(ctx context.Context, sessionID string, clientID uint) (*Session, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.ClientID = &clientID

	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// AddItem resolves a product from the appropriate catalog and merges it into
// the cart. For non-historical sessions the cumulative quantity for the
// identity triple is validated against the catalog snapshot's available
// stock.
func (s *Service) AddItem(ctx context.Context, sessionID string, req *AddItemRequest) (*Session, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.addItem(session, req); err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (s *Service) addItem(session *Session, req *AddItemRequest) error {
	if req.Quantity <= 0 {
		return NewValidationError("quantity must be a positive integer")
	}

	schoolID := session.ActiveSchoolID
	schoolName := session.ActiveSchoolName
	if req.SchoolID != nil {
		school, err := s.catalog.GetSchool(*req.SchoolID)
		if err != nil {
			return NewValidationError("school %d cannot be selected: %v", *req.SchoolID, err)
		}
		schoolID = school.ID
		schoolName = school.Name
	}
	if schoolID == 0 {
		return NewValidationError("no school selected")
	}

	snapshot, err := s.catalog.ResolveProduct(schoolID, req.ProductID, req.IsGlobal)
	if err != nil {
		return NewValidationError("product cannot be resolved: %v", err)
	}

	// Historical sales are back-dated migration records and must not be
	// constrained by current inventory
	if !session.Historical {
		existing := QuantityInCart(session.Items, req.ProductID, req.IsGlobal, schoolID)
		if existing+req.Quantity > snapshot.Available {
			return NewValidationError("insufficient stock for %q: available %d, requested %d",
				snapshot.Name, snapshot.Available, existing+req.Quantity)
		}
	}

	session.Items = MergeItem(session.Items, CartItem{
		ProductID:   snapshot.ID,
		IsGlobal:    snapshot.IsGlobal,
		Quantity:    req.Quantity,
		UnitPrice:   snapshot.Price,
		SchoolID:    schoolID,
		SchoolName:  schoolName,
		DisplayName: snapshot.Name,
		Size:        snapshot.Size,
	})

	return nil
}

// RemoveItem deletes one cart line by position, with no merge or
// re-validation side effects
func (s *Service) RemoveItem(ctx context.Context, sessionID string, index int) (*Session, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	items, err := RemoveItem(session.Items, index)
	if err != nil {
		return nil, err
	}
	session.Items = items

	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// Summary returns the derived grouping view of a session
func (s *Service) Summary(ctx context.Context, sessionID string) (*Summary, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	summary := Summarize(session.Items)
	return &summary, nil
}

// Submit partitions the cart by school and issues one create-sale call per
// partition, sequentially and in first-appearance order. The loop aborts on
// the first failure; partitions already committed are not rolled back, but
// the committed prefix is persisted on the session before each subsequent
// call and reported exactly in the returned PartialSubmissionError.
//
// Stock is not re-validated here: the catalog snapshot was checked at add
// time and the sales backend is the authority at submission.
func (s *Service) Submit(ctx context.Context, sessionID string, req *SubmitRequest) (*SubmitResult, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if len(session.Items) == 0 {
		return nil, NewValidationError("the cart is empty")
	}

	clientID := req.ClientID
	if clientID == nil {
		clientID = session.ClientID
	}
	if clientID == nil {
		return nil, NewValidationError("a client selection is required")
	}
	// The "no client" sentinel becomes an absent client reference
	var clientRef *uint
	if *clientID != NoClientID {
		clientRef = clientID
	}

	var soldAt string
	if session.Historical {
		if req.HistoricalDate == nil {
			return nil, NewValidationError("a historical sale requires day, month and year")
		}
		soldAt, err = HistoricalTimestamp(req.HistoricalDate.Day, req.HistoricalDate.Month, req.HistoricalDate.Year)
		if err != nil {
			return nil, err
		}
	}

	// One idempotency key per submission attempt; each partition call derives
	// its own from it so a retried attempt cannot double-create sales
	attemptKey := uuid.New().String()

	groups := GroupBySchool(session.Items)
	committed := make([]SaleResult, 0, len(groups))

	for _, group := range groups {
		items := make([]sales.SaleItem, 0, len(group.Items))
		for _, it := range group.Items {
			items = append(items, sales.SaleItem{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
				IsGlobal:  it.IsGlobal,
			})
		}

		sale, err := s.sales.CreateSale(ctx, group.SchoolID, &sales.CreateSaleRequest{
			ClientID:       clientRef,
			Items:          items,
			PaymentMethod:  req.PaymentMethod,
			Notes:          req.Notes,
			Historical:     session.Historical,
			SoldAt:         soldAt,
			IdempotencyKey: sales.IdempotencyKey(attemptKey, group.SchoolID),
		})
		if err != nil {
			// Keep the committed-prefix record even though this attempt failed
			session.Committed = committed
			if saveErr := s.store.Save(ctx, session); saveErr != nil {
				s.logger.WithError(saveErr).Error("Failed to persist committed sales after submission failure")
			}

			s.logger.WithFields(logrus.Fields{
				"session_id":  sessionID,
				"school_id":   group.SchoolID,
				"committed":   len(committed),
				"total_parts": len(groups),
			}).Error("Sale submission aborted mid-loop")

			return nil, &PartialSubmissionError{
				FailedSchoolID:   group.SchoolID,
				FailedSchoolName: group.SchoolName,
				Committed:        committed,
				Err:              err,
			}
		}

		committed = append(committed, SaleResult{
			SchoolID:   group.SchoolID,
			SchoolName: group.SchoolName,
			SaleID:     sale.ID,
			SaleCode:   sale.Code,
			Subtotal:   group.Subtotal,
		})

		// Persist the committed prefix before the next call so a mid-loop
		// failure never loses the success record
		session.Committed = committed
		if err := s.store.Save(ctx, session); err != nil {
			s.logger.WithError(err).Error("Failed to persist committed sales mid-submission")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"sales":      len(committed),
		"total":      Total(session.Items),
	}).Info("Composition submitted successfully")

	return &SubmitResult{
		Results:    committed,
		GrandTotal: Total(session.Items),
	}, nil
}

// Dismiss closes a session, whether cancelled or after the summary was
// acknowledged
func (s *Service) Dismiss(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}
