package settings

// Setting keys consumed by the quote pricing pipeline.
const (
	KeyGSTRate            = "gst_rate"
	KeyLabourRateStandard = "labour_rate_standard"
	KeyLabourRatePremium  = "labour_rate_premium"
	KeyQuoteValidityDays  = "quote_validity_days"
)

// Defaults applied when a key has never been set.
const (
	DefaultGSTRate            = 15.0
	DefaultLabourRateStandard = 75.0
	DefaultLabourRatePremium  = 95.0
	DefaultQuoteValidityDays  = 30
)

// Setting is one named configuration value.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
