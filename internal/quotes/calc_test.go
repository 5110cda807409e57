package quotes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateWorkedExample(t *testing.T) {
	// 90 minutes at $75/h with $100 materials and a $20 included extra.
	materials := []MaterialLine{
		{ItemDescription: "Fabric", Quantity: 10, UnitCost: 10, LineTotal: 100},
	}
	misc := []MiscLine{
		{Name: "Buttons", Price: 20, Quantity: 1, Included: true},
	}
	labour := LabourMinutes{Upholstery: 60, Sewing: 30}

	totals := Calculate(materials, misc, labour, 75, 15)

	assert.InDelta(t, 100.00, totals.Materials, 1e-9)
	assert.InDelta(t, 20.00, totals.Misc, 1e-9)
	assert.InDelta(t, 112.50, totals.Labour, 1e-9)
	assert.InDelta(t, 232.50, totals.ExclGST, 1e-9)
	assert.InDelta(t, 34.88, totals.GST, 1e-9)
	assert.InDelta(t, 267.38, totals.InclGST, 1e-9)
}

func TestCalculateMiscIncludedOnly(t *testing.T) {
	misc := []MiscLine{
		{Name: "Piping", Price: 35, Quantity: 2, Included: true},
		{Name: "Zips", Price: 12, Quantity: 5, Included: false},
		{Name: "Foam wrap", Price: 18.50, Quantity: 1, Included: true},
	}

	totals := Calculate(nil, misc, LabourMinutes{}, 75, 15)

	assert.InDelta(t, 88.50, totals.Misc, 1e-9)
	assert.InDelta(t, 88.50, totals.ExclGST, 1e-9)

	// Toggling the big line off drops its contribution entirely.
	misc[0].Included = false
	totals = Calculate(nil, misc, LabourMinutes{}, 75, 15)
	assert.InDelta(t, 18.50, totals.Misc, 1e-9)
}

func TestCalculateLabourAllCategories(t *testing.T) {
	labour := LabourMinutes{
		Stripping:  10,
		Patterns:   20,
		Cutting:    30,
		Sewing:     40,
		Upholstery: 50,
		Assembly:   60,
		Handling:   70,
	}
	require.Equal(t, 280, labour.Total())

	totals := Calculate(nil, nil, labour, 95, 15)
	// 280/60 * 95 = 443.3333...
	assert.InDelta(t, 443.33, totals.Labour, 1e-9)
}

func TestCalculateEmptyQuote(t *testing.T) {
	totals := Calculate(nil, nil, LabourMinutes{}, 75, 15)
	assert.Zero(t, totals.Materials)
	assert.Zero(t, totals.Misc)
	assert.Zero(t, totals.Labour)
	assert.Zero(t, totals.ExclGST)
	assert.Zero(t, totals.GST)
	assert.Zero(t, totals.InclGST)
}

func TestLineTotalRounds(t *testing.T) {
	assert.InDelta(t, 1.01, LineTotal(3, 0.335), 1e-9)
	assert.InDelta(t, 103.13, LineTotal(2.5, 41.25), 1e-9)
	assert.InDelta(t, 0, LineTotal(0, 99.99), 1e-9)
}

func TestRound2HalfAwayFromZero(t *testing.T) {
	assert.InDelta(t, 34.88, round2(34.875), 1e-9)
	assert.InDelta(t, 0.13, round2(0.125), 1e-9)
	assert.InDelta(t, -0.13, round2(-0.125), 1e-9)
}

func TestFormatQuoteNumber(t *testing.T) {
	assert.Equal(t, "Q2025-0007", FormatQuoteNumber(2025, 7))
	assert.Equal(t, "Q2026-0001", FormatQuoteNumber(2026, 1))
	assert.Equal(t, "Q2025-10001", FormatQuoteNumber(2025, 10001))
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusDraft, StatusSent, StatusAccepted, StatusDeclined, StatusExpired, StatusInvoiced, StatusArchived} {
		assert.True(t, ValidStatus(s), string(s))
	}
	assert.False(t, ValidStatus("approved"))
	assert.False(t, ValidStatus(""))
}
