// internal/models/qualification.go
package models

// QualificationStatus is the discriminator of QualificationResult.
type QualificationStatus string

const (
	StatusApproved     QualificationStatus = "approved"
	StatusBorderline   QualificationStatus = "borderline"
	StatusNotQualified QualificationStatus = "not_qualified"
)

// QualificationResult is the normalized response of the scoring service.
// Which optional fields are set depends on Status; a nil field means the
// value does not apply to that status.
type QualificationResult struct {
	Status                 QualificationStatus `json:"status"`
	SystemSizeKW           *float64            `json:"system_size_kw,omitempty"`
	MonthlyPayment         *float64            `json:"monthly_payment,omitempty"`
	PaybackYears           *float64            `json:"payback_years,omitempty"`
	LifetimeSavings        *float64            `json:"lifetime_savings,omitempty"`
	TotalCost              *float64            `json:"total_cost,omitempty"`
	NetCostAfterIncentives *float64            `json:"net_cost_after_incentives,omitempty"`
	Explanation            string              `json:"explanation,omitempty"`
	Location               *ResultLocation     `json:"location,omitempty"`
	LoanTerms              *LoanTerms          `json:"loan_terms,omitempty"`
	Calculations           *Calculations       `json:"calculations,omitempty"`
}

type ResultLocation struct {
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

type LoanTerms struct {
	APR                float64 `json:"apr"`
	TermYears          float64 `json:"term_years"`
	DownPaymentPercent float64 `json:"down_payment_percent"`
}

type Calculations struct {
	MonthlyKWhUsage        float64 `json:"monthly_kwh_usage"`
	SystemAnnualProduction float64 `json:"system_annual_production"`
}

// Quotable reports whether the result lets the user move on to financing.
func (r QualificationResult) Quotable() bool {
	return r.Status == StatusApproved || r.Status == StatusBorderline
}

// NotQualified builds the result returned when the service cannot be used.
func NotQualified(explanation string) QualificationResult {
	return QualificationResult{
		Status:      StatusNotQualified,
		Explanation: explanation,
	}
}
