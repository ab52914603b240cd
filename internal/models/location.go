// internal/models/location.go
package models

import "fmt"

// GeoQuery is a single coordinate pair handed to the geocoding providers.
type GeoQuery struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (q GeoQuery) String() string {
	return fmt.Sprintf("%.5f,%.5f", q.Latitude, q.Longitude)
}

// PostalFormat identifies which accepted postal code shape a record has.
type PostalFormat string

const (
	FiveDigitZip PostalFormat = "FiveDigitZip"
	SixDigitPin  PostalFormat = "SixDigitPin"
)

// PostalCodeRecord is the normalized output of the location resolver.
type PostalCodeRecord struct {
	Code   string       `json:"code"`
	Format PostalFormat `json:"format"`
}

// LocationData describes the area behind a postal code.
type LocationData struct {
	ZipCode                string   `json:"zip_code"`
	City                   string   `json:"city"`
	State                  string   `json:"state"`
	DataSource             string   `json:"data_source,omitempty"`
	AverageMonthlyBill     *float64 `json:"average_monthly_bill,omitempty"`
	AverageMonthlyUsageKWh *float64 `json:"average_monthly_usage_kwh,omitempty"`
	UtilityRatePerKWh      *float64 `json:"utility_rate_per_kwh,omitempty"`
	Period                 string   `json:"period,omitempty"`
}

// CreditReference is the area-level credit score published for a postal code.
type CreditReference struct {
	ZipCode      string `json:"zip_code"`
	VantageScore int    `json:"vantage_score"`
	Source       string `json:"source"`
	EndpointUsed string `json:"endpoint_used,omitempty"`
}

// SuggestedBand converts the vantage score into the wizard's credit bands.
func (c CreditReference) SuggestedBand() CreditBand {
	switch {
	case c.VantageScore >= 750:
		return CreditExcellent
	case c.VantageScore >= 670:
		return CreditGood
	case c.VantageScore >= 580:
		return CreditFair
	default:
		return CreditPoor
	}
}
