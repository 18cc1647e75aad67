// internal/domain/composition/cart.go
package composition

import (
	"fmt"
	"time"
)

// CartItem represents one prospective purchase line held in a composition
// session before submission. Identity is the (ProductID, IsGlobal, SchoolID)
// triple; DisplayName and Size are denormalized for presentation only.
type CartItem struct {
	ProductID   uint   `json:"product_id"`
	IsGlobal    bool   `json:"is_global"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"` // Price at time of adding
	SchoolID    uint   `json:"school_id"`
	SchoolName  string `json:"school_name"`
	DisplayName string `json:"display_name"`
	Size        string `json:"size,omitempty"`
}

// SameIdentity reports whether two lines would merge
func (i CartItem) SameIdentity(other CartItem) bool {
	return i.ProductID == other.ProductID &&
		i.IsGlobal == other.IsGlobal &&
		i.SchoolID == other.SchoolID
}

// LineTotal returns quantity times the captured unit price
func (i CartItem) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// SaleResult represents the outcome of one per-school sale submission
type SaleResult struct {
	SchoolID   uint   `json:"school_id"`
	SchoolName string `json:"school_name"`
	SaleID     uint   `json:"sale_id"`
	SaleCode   string `json:"sale_code"`
	Subtotal   int64  `json:"subtotal"`
}

// SchoolGroup is one partition of the cart, the unit of submission
type SchoolGroup struct {
	SchoolID   uint       `json:"school_id"`
	SchoolName string     `json:"school_name"`
	Items      []CartItem `json:"items"`
	Subtotal   int64      `json:"subtotal"`
}

// MergeItem folds an item into the cart. A line sharing the identity triple
// absorbs the quantity; otherwise the item is appended. The invariant that no
// two lines share a triple holds as long as all additions go through here.
func MergeItem(items []CartItem, item CartItem) []CartItem {
	for i := range items {
		if items[i].SameIdentity(item) {
			items[i].Quantity += item.Quantity
			return items
		}
	}
	return append(items, item)
}

// RemoveItem deletes one cart line by position, preserving the order of the
// remaining lines
func RemoveItem(items []CartItem, index int) ([]CartItem, error) {
	if index < 0 || index >= len(items) {
		return nil, NewValidationError("cart item index %d out of range", index)
	}
	return append(items[:index], items[index+1:]...), nil
}

// QuantityInCart returns the quantity already held for an identity triple
func QuantityInCart(items []CartItem, productID uint, isGlobal bool, schoolID uint) int {
	for _, it := range items {
		if it.ProductID == productID && it.IsGlobal == isGlobal && it.SchoolID == schoolID {
			return it.Quantity
		}
	}
	return 0
}

// Total returns the grand total over all cart lines
func Total(items []CartItem) int64 {
	var total int64
	for _, it := range items {
		total += it.LineTotal()
	}
	return total
}

// GroupBySchool derives the per-school partitions of the cart. Partition
// order is the order in which each school first appears in the cart, so the
// submission prefix is deterministic. The grouping is recomputed from the
// cart on demand and never stored.
func GroupBySchool(items []CartItem) []SchoolGroup {
	var groups []SchoolGroup
	index := make(map[uint]int)

	for _, it := range items {
		i, ok := index[it.SchoolID]
		if !ok {
			i = len(groups)
			index[it.SchoolID] = i
			groups = append(groups, SchoolGroup{
				SchoolID:   it.SchoolID,
				SchoolName: it.SchoolName,
			})
		}
		groups[i].Items = append(groups[i].Items, it)
		groups[i].Subtotal += it.LineTotal()
	}

	return groups
}

// HistoricalTimestamp validates the day/month/year of a back-dated sale and
// synthesizes its timestamp. The time is fixed at midday so the date survives
// timezone-boundary shifts on the backend.
func HistoricalTimestamp(day, month, year int) (string, error) {
	if day < 1 || day > 31 {
		return "", NewValidationError("historical sale day must be between 1 and 31")
	}
	if month < 1 || month > 12 {
		return "", NewValidationError("historical sale month must be between 1 and 12")
	}
	if year < 2020 {
		return "", NewValidationError("historical sale year must be 2020 or later")
	}

	// time.Date normalizes overflow (Feb 31 becomes Mar 2), which is how an
	// implausible combination is detected
	t := time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return "", NewValidationError("%02d/%02d/%d is not a valid calendar date", day, month, year)
	}

	return fmt.Sprintf("%04d-%02d-%02dT12:00:00", year, month, day), nil
}
