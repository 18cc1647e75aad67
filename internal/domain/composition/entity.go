// internal/domain/composition/entity.go
package composition

import (
	"time"
)

// NoClientID is the "walk-in" client sentinel. It satisfies the requirement
// that a client selection exists while translating to an absent client
// reference in the sale payload.
const NoClientID uint = 0

// Session represents one open sale composition: the transient cart, the
// active school context, the client selection, and the results committed so
// far. Stored as JSON in Redis with a TTL; durable state lives only in the
// sales backend once a sale is created.
type Session struct {
	ID               string       `json:"id"`
	Historical       bool         `json:"historical"`
	ActiveSchoolID   uint         `json:"active_school_id,omitempty"`
	ActiveSchoolName string       `json:"active_school_name,omitempty"`
	ClientID         *uint        `json:"client_id,omitempty"`
	Items            []CartItem   `json:"items"`
	Committed        []SaleResult `json:"committed,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// Submitted reports whether the session holds a completed submission,
// meaning every school partition was committed
func (s *Session) Submitted() bool {
	if len(s.Committed) == 0 {
		return false
	}
	return len(s.Committed) == len(GroupBySchool(s.Items))
}

// Summary is the derived view of a session: per-school groups, subtotals and
// the grand total
type Summary struct {
	Groups     []SchoolGroup `json:"groups"`
	ItemCount  int           `json:"item_count"`
	GrandTotal int64         `json:"grand_total"`
}

// Summarize recomputes the grouping view from the cart
func Summarize(items []CartItem) Summary {
	return Summary{
		Groups:     GroupBySchool(items),
		ItemCount:  len(items),
		GrandTotal: Total(items),
	}
}
