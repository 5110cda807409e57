package catalog

// Material is an inventory item quoted by quantity and unit cost.
type Material struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	UnitCost float64 `json:"unit_cost"`
	Active   bool    `json:"active"`
}

// MiscMaterial is a flat-price optional extra. Every new quote is
// seeded with one unincluded misc line per active entry.
type MiscMaterial struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Active bool    `json:"active"`
}
