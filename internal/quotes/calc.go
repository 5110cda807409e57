package quotes

import "math"

// Totals holds the five derived monetary fields plus the labour
// subtotal they are built from.
type Totals struct {
	Materials float64 `json:"subtotal_materials"`
	Misc      float64 `json:"subtotal_misc"`
	Labour    float64 `json:"subtotal_labour"`
	ExclGST   float64 `json:"total_excl_gst"`
	GST       float64 `json:"gst_amount"`
	InclGST   float64 `json:"total_incl_gst"`
}

// round2 rounds half away from zero to two decimal places. Applied at
// every step so rounding drift cannot compound across subtotals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LineTotal computes a material line total from quantity and unit cost.
func LineTotal(quantity, unitCost float64) float64 {
	return round2(quantity * unitCost)
}

// Calculate derives the quote totals from its pricing inputs. Pure:
// material line totals are trusted as stored (they are recomputed on
// every write), misc lines count only while included, labour is
// minutes across all categories at the snapshotted hourly rate.
func Calculate(materials []MaterialLine, misc []MiscLine, labour LabourMinutes, labourRate, gstRate float64) Totals {
	var t Totals

	for _, line := range materials {
		t.Materials += line.LineTotal
	}
	t.Materials = round2(t.Materials)

	for _, line := range misc {
		if !line.Included {
			continue
		}
		t.Misc += line.Price * float64(line.Quantity)
	}
	t.Misc = round2(t.Misc)

	t.Labour = round2(float64(labour.Total()) / 60 * labourRate)

	t.ExclGST = round2(t.Materials + t.Misc + t.Labour)
	t.GST = round2(t.ExclGST * gstRate / 100)
	t.InclGST = round2(t.ExclGST + t.GST)
	return t
}
