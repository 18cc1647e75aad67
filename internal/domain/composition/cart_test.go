package composition

import (
	"testing"
)

func item(productID uint, global bool, schoolID uint, qty int, price int64) CartItem {
	return CartItem{
		ProductID:  productID,
		IsGlobal:   global,
		Quantity:   qty,
		UnitPrice:  price,
		SchoolID:   schoolID,
		SchoolName: "School",
	}
}

func TestMergeItem_SumsQuantityForSameIdentity(t *testing.T) {
	var items []CartItem
	items = MergeItem(items, item(1, false, 10, 2, 1000))
	items = MergeItem(items, item(1, false, 10, 3, 1000))
	items = MergeItem(items, item(1, false, 10, 1, 1000))

	if len(items) != 1 {
		t.Fatalf("expected 1 cart line, got %d", len(items))
	}
	if items[0].Quantity != 6 {
		t.Errorf("expected merged quantity 6, got %d", items[0].Quantity)
	}
}

func TestMergeItem_DistinguishesIdentityTriple(t *testing.T) {
	var items []CartItem
	items = MergeItem(items, item(1, false, 10, 1, 1000))
	items = MergeItem(items, item(1, true, 10, 1, 1000))  // same product id, global catalog
	items = MergeItem(items, item(1, false, 20, 1, 1000)) // same product id, other school

	if len(items) != 3 {
		t.Fatalf("expected 3 distinct cart lines, got %d", len(items))
	}
	for i := range items {
		if items[i].Quantity != 1 {
			t.Errorf("line %d: expected quantity 1, got %d", i, items[i].Quantity)
		}
	}
}

func TestRemoveItem(t *testing.T) {
	items := []CartItem{
		item(1, false, 10, 1, 100),
		item(2, false, 10, 2, 200),
		item(3, false, 20, 3, 300),
	}

	items, err := RemoveItem(items, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 lines after removal, got %d", len(items))
	}
	if items[0].ProductID != 1 || items[0].Quantity != 1 {
		t.Errorf("first line changed: %+v", items[0])
	}
	if items[1].ProductID != 3 || items[1].Quantity != 3 {
		t.Errorf("expected third line shifted into index 1, got %+v", items[1])
	}
}

func TestRemoveItem_OutOfRange(t *testing.T) {
	items := []CartItem{item(1, false, 10, 1, 100)}

	if _, err := RemoveItem(items, 1); !IsValidationError(err) {
		t.Errorf("expected validation error for index 1, got %v", err)
	}
	if _, err := RemoveItem(items, -1); !IsValidationError(err) {
		t.Errorf("expected validation error for index -1, got %v", err)
	}
}

func TestTotal(t *testing.T) {
	items := []CartItem{
		item(1, false, 10, 2, 1000),
		item(2, false, 20, 1, 5000),
	}

	if got := Total(items); got != 7000 {
		t.Errorf("expected total 7000, got %d", got)
	}
	if got := Total(nil); got != 0 {
		t.Errorf("expected empty cart total 0, got %d", got)
	}
}

func TestGroupBySchool(t *testing.T) {
	items := []CartItem{
		item(1, false, 10, 2, 1000),
		item(2, false, 20, 1, 5000),
		item(3, true, 10, 1, 250),
	}

	groups := GroupBySchool(items)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	// First-appearance order
	if groups[0].SchoolID != 10 || groups[1].SchoolID != 20 {
		t.Errorf("expected school order [10 20], got [%d %d]", groups[0].SchoolID, groups[1].SchoolID)
	}

	if len(groups[0].Items) != 2 {
		t.Errorf("expected 2 items for school 10, got %d", len(groups[0].Items))
	}
	if groups[0].Subtotal != 2250 {
		t.Errorf("expected school 10 subtotal 2250, got %d", groups[0].Subtotal)
	}
	if groups[1].Subtotal != 5000 {
		t.Errorf("expected school 20 subtotal 5000, got %d", groups[1].Subtotal)
	}
}

func TestQuantityInCart(t *testing.T) {
	items := []CartItem{
		item(1, false, 10, 4, 1000),
	}

	if got := QuantityInCart(items, 1, false, 10); got != 4 {
		t.Errorf("expected quantity 4, got %d", got)
	}
	if got := QuantityInCart(items, 1, true, 10); got != 0 {
		t.Errorf("expected 0 for the global variant, got %d", got)
	}
	if got := QuantityInCart(items, 2, false, 10); got != 0 {
		t.Errorf("expected 0 for an absent product, got %d", got)
	}
}

func TestHistoricalTimestamp(t *testing.T) {
	ts, err := HistoricalTimestamp(15, 6, 2023)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts != "2023-06-15T12:00:00" {
		t.Errorf("expected 2023-06-15T12:00:00, got %q", ts)
	}
}

func TestHistoricalTimestamp_Invalid(t *testing.T) {
	cases := []struct {
		name             string
		day, month, year int
	}{
		{"implausible calendar date", 31, 2, 2024},
		{"day zero", 0, 6, 2023},
		{"day too large", 32, 6, 2023},
		{"month zero", 15, 0, 2023},
		{"month too large", 15, 13, 2023},
		{"year before 2020", 15, 6, 2019},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := HistoricalTimestamp(tc.day, tc.month, tc.year); !IsValidationError(err) {
				t.Errorf("expected validation error for %02d/%02d/%d, got %v", tc.day, tc.month, tc.year, err)
			}
		})
	}
}

func TestHistoricalTimestamp_LeapDay(t *testing.T) {
	ts, err := HistoricalTimestamp(29, 2, 2024)
	if err != nil {
		t.Fatalf("unexpected error for a real leap day: %v", err)
	}
	if ts != "2024-02-29T12:00:00" {
		t.Errorf("expected 2024-02-29T12:00:00, got %q", ts)
	}

	if _, err := HistoricalTimestamp(29, 2, 2023); !IsValidationError(err) {
		t.Errorf("expected validation error for 29/02/2023, got %v", err)
	}
}
