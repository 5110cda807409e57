package quotes

import (
	"fmt"
	"time"
)

// Status is the quote workflow state.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusExpired  Status = "expired"
	StatusInvoiced Status = "invoiced"
	StatusArchived Status = "archived"
)

// ValidStatus reports whether s is one of the seven workflow states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusSent, StatusAccepted, StatusDeclined,
		StatusExpired, StatusInvoiced, StatusArchived:
		return true
	}
	return false
}

// Labour rate types. The resolved hourly rate is snapshotted onto the
// quote whenever the type is (re)selected, so historical quotes keep
// the rate they were priced at.
const (
	RateTypeStandard = "standard"
	RateTypePremium  = "premium"
)

// DocTypeQuote is the document type key used by the sequence allocator.
const DocTypeQuote = "Q"

// FormatQuoteNumber renders the wire-visible quote number, e.g. Q2025-0007.
func FormatQuoteNumber(year int, seq int64) string {
	return fmt.Sprintf("Q%d-%04d", year, seq)
}

// LabourMinutes tracks the seven work phases of an upholstery job.
type LabourMinutes struct {
	Stripping  int `json:"stripping" validate:"gte=0"`
	Patterns   int `json:"patterns" validate:"gte=0"`
	Cutting    int `json:"cutting" validate:"gte=0"`
	Sewing     int `json:"sewing" validate:"gte=0"`
	Upholstery int `json:"upholstery" validate:"gte=0"`
	Assembly   int `json:"assembly" validate:"gte=0"`
	Handling   int `json:"handling" validate:"gte=0"`
}

// Total returns the summed minutes across all categories.
func (l LabourMinutes) Total() int {
	return l.Stripping + l.Patterns + l.Cutting + l.Sewing +
		l.Upholstery + l.Assembly + l.Handling
}

// Quote is the aggregate root. Revisions of the same logical quote
// share QuoteNumber; lineage is grouped by number, not a foreign key.
type Quote struct {
	ID             int64      `json:"id"`
	QuoteNumber    string     `json:"quote_number"`
	Revision       int        `json:"revision"`
	Status         Status     `json:"status"`
	PreviousStatus *Status    `json:"previous_status,omitempty"`
	ClientID       *int64     `json:"client_id,omitempty"`
	ProjectID      *int64     `json:"project_id,omitempty"`
	QuoteDate      time.Time  `json:"quote_date"`
	ExpiryDate     time.Time  `json:"expiry_date"`

	Labour         LabourMinutes `json:"labour"`
	LabourRateType string        `json:"labour_rate_type"`
	LabourRate     float64       `json:"labour_rate"`

	// Cached totals, recomputed and persisted on every pricing input
	// change. Never derived on read.
	SubtotalMaterials float64 `json:"subtotal_materials"`
	SubtotalMisc      float64 `json:"subtotal_misc"`
	SubtotalLabour    float64 `json:"subtotal_labour"`
	TotalExclGST      float64 `json:"total_excl_gst"`
	GSTAmount         float64 `json:"gst_amount"`
	TotalInclGST      float64 `json:"total_incl_gst"`

	Notes     *string   `json:"notes,omitempty"`
	CreatedBy int64     `json:"created_by"`
	UpdatedBy int64     `json:"updated_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	MaterialLines []MaterialLine `json:"material_lines,omitempty"`
	MiscLines     []MiscLine     `json:"misc_lines,omitempty"`
}

// IsEditable reports whether field and line mutations are legal.
func (q *Quote) IsEditable() bool {
	return q.Status == StatusDraft
}

// MaterialLine is a quantity-times-unit-cost line. MaterialID is nil
// for free-text lines not tied to inventory.
type MaterialLine struct {
	ID              int64   `json:"id"`
	QuoteID         int64   `json:"quote_id"`
	MaterialID      *int64  `json:"material_id,omitempty"`
	ItemDescription string  `json:"item_description"`
	Quantity        float64 `json:"quantity"`
	UnitCost        float64 `json:"unit_cost"`
	LineTotal       float64 `json:"line_total"`
	SortOrder       int     `json:"sort_order"`
}

// MiscLine is a flat-price optional extra. Name and Price are
// snapshots taken from the catalog at seeding time, so renaming or
// repricing a catalog entry leaves historical quotes untouched.
// Unincluded lines stay visible and editable but contribute nothing.
type MiscLine struct {
	ID             int64   `json:"id"`
	QuoteID        int64   `json:"quote_id"`
	MiscMaterialID int64   `json:"misc_material_id"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	Quantity       int     `json:"quantity"`
	Included       bool    `json:"included"`
}
