// internal/qualification/models.go
package qualification

import "solar-checker/internal/models"

// Request is the body of POST /api/check-qualification.
type Request struct {
	ZipCode      string  `json:"zipCode"`
	ElectricBill float64 `json:"electricBill"`
	CreditBand   string  `json:"creditBand"`
	RoofSize     float64 `json:"roofSize"`
}

// wireResponse covers both response shapes the scoring backend produces:
// the snake_case one and the camelCase one of the rule engine.
type wireResponse struct {
	Status      string `json:"status"`
	Explanation string `json:"explanation"`
	Error       string `json:"error"`

	SystemSizeKW           *float64 `json:"system_size_kw"`
	LifetimeSavings        *float64 `json:"lifetime_savings"`
	TotalCost              *float64 `json:"total_cost"`
	NetCostAfterIncentives *float64 `json:"net_cost_after_incentives"`
	MonthlyPayment         *float64 `json:"monthly_payment"`
	PaybackYears           *float64 `json:"payback_years"`
	LoanTerms              *wireLoan `json:"loan_terms"`

	SystemSizeKWCamel   *float64        `json:"systemSizeKW"`
	TotalSavings        *float64        `json:"totalSavings"`
	MonthlyPaymentCamel *float64        `json:"monthlyPayment"`
	PaybackYearsCamel   *float64        `json:"paybackYears"`
	SystemCost          *wireSystemCost `json:"systemCost"`
	LoanTermsCamel      *wireLoan       `json:"loanTerms"`

	Location     *models.ResultLocation `json:"location"`
	Calculations *models.Calculations   `json:"calculations"`
}

type wireSystemCost struct {
	GrossCost *float64 `json:"gross_cost"`
	NetCost   *float64 `json:"net_cost"`
}

type wireLoan struct {
	APR                *float64 `json:"apr"`
	TermYears          *float64 `json:"term_years"`
	Term               *float64 `json:"term"`
	DownPaymentPercent *float64 `json:"down_payment_percent"`
	DownPayment        *float64 `json:"downPayment"`
}

type errorBody struct {
	Error string `json:"error"`
}

func firstOf(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			out := *v
			return &out
		}
	}
	return nil
}

func valueOf(values ...*float64) float64 {
	if v := firstOf(values...); v != nil {
		return *v
	}
	return 0
}

func (l *wireLoan) toModel() *models.LoanTerms {
	if l == nil {
		return nil
	}
	return &models.LoanTerms{
		APR:                valueOf(l.APR),
		TermYears:          valueOf(l.TermYears, l.Term),
		DownPaymentPercent: valueOf(l.DownPaymentPercent, l.DownPayment),
	}
}

func (w *wireResponse) toResult() models.QualificationResult {
	result := models.QualificationResult{
		Status:          models.QualificationStatus(w.Status),
		SystemSizeKW:    firstOf(w.SystemSizeKW, w.SystemSizeKWCamel),
		MonthlyPayment:  firstOf(w.MonthlyPayment, w.MonthlyPaymentCamel),
		PaybackYears:    firstOf(w.PaybackYears, w.PaybackYearsCamel),
		LifetimeSavings: firstOf(w.LifetimeSavings, w.TotalSavings),
		TotalCost:       w.TotalCost,
		Explanation:     w.Explanation,
		Location:        w.Location,
		Calculations:    w.Calculations,
	}

	result.NetCostAfterIncentives = w.NetCostAfterIncentives
	if w.SystemCost != nil {
		result.TotalCost = firstOf(result.TotalCost, w.SystemCost.GrossCost)
		result.NetCostAfterIncentives = firstOf(result.NetCostAfterIncentives, w.SystemCost.NetCost)
	}

	if w.LoanTerms != nil {
		result.LoanTerms = w.LoanTerms.toModel()
	} else {
		result.LoanTerms = w.LoanTermsCamel.toModel()
	}
	return result
}
