// internal/models/wizard.go
package models

import (
	"strconv"
	"strings"
)

// CreditBand is the self-reported credit tier collected on stage 3.
type CreditBand string

const (
	CreditExcellent CreditBand = "Excellent"
	CreditGood      CreditBand = "Good"
	CreditFair      CreditBand = "Fair"
	CreditPoor      CreditBand = "Poor"
)

// DefaultCreditBand is used when a label cannot be recognised.
const DefaultCreditBand = CreditGood

// ParseCreditBand maps a free-form label to a CreditBand. Unknown labels fall
// back to DefaultCreditBand.
func ParseCreditBand(label string) CreditBand {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "excellent":
		return CreditExcellent
	case "good":
		return CreditGood
	case "fair":
		return CreditFair
	case "poor":
		return CreditPoor
	default:
		return DefaultCreditBand
	}
}

// RoofCategory is one of the predefined roof size buckets.
type RoofCategory string

const (
	RoofSmall      RoofCategory = "small"
	RoofMedium     RoofCategory = "medium"
	RoofLarge      RoofCategory = "large"
	RoofExtraLarge RoofCategory = "extra-large"
)

// DefaultRoofCategory is used when a label cannot be recognised.
const DefaultRoofCategory = RoofMedium

// roofMidpoints holds the square footage sent upstream for each bucket.
var roofMidpoints = map[RoofCategory]float64{
	RoofSmall:      750,
	RoofMedium:     1500,
	RoofLarge:      2500,
	RoofExtraLarge: 3500,
}

// ParseRoofCategory maps a label such as "Large" or "extra_large" to a bucket.
func ParseRoofCategory(label string) RoofCategory {
	norm := strings.ToLower(strings.TrimSpace(label))
	norm = strings.NewReplacer("_", "-", " ", "-").Replace(norm)
	switch norm {
	case "small":
		return RoofSmall
	case "medium":
		return RoofMedium
	case "large":
		return RoofLarge
	case "extra-large", "extralarge", "xl":
		return RoofExtraLarge
	default:
		return DefaultRoofCategory
	}
}

// SquareFeet returns the midpoint used for this bucket.
func (c RoofCategory) SquareFeet() float64 {
	if v, ok := roofMidpoints[c]; ok {
		return v
	}
	return roofMidpoints[DefaultRoofCategory]
}

// RoofSize is either a predefined category or a custom square footage.
// Exactly one of the two is set.
type RoofSize struct {
	Category         RoofCategory `json:"category,omitempty"`
	CustomSquareFeet *float64     `json:"customSquareFeet,omitempty"`
}

// RoofFromCategory builds a RoofSize for a predefined bucket.
func RoofFromCategory(c RoofCategory) RoofSize {
	return RoofSize{Category: c}
}

// RoofFromSquareFeet builds a RoofSize for a custom measurement.
func RoofFromSquareFeet(sqft float64) RoofSize {
	return RoofSize{CustomSquareFeet: &sqft}
}

// ParseRoofSize accepts either a number (custom footage) or a category label.
func ParseRoofSize(value string) RoofSize {
	if n, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
		return RoofFromSquareFeet(n)
	}
	return RoofFromCategory(ParseRoofCategory(value))
}

// IsCustom reports whether a custom footage was given.
func (r RoofSize) IsCustom() bool {
	return r.CustomSquareFeet != nil
}

// SquareFeet is the numeric footage the scoring service expects.
func (r RoofSize) SquareFeet() float64 {
	if r.CustomSquareFeet != nil {
		return *r.CustomSquareFeet
	}
	return r.Category.SquareFeet()
}

func (r RoofSize) String() string {
	if r.CustomSquareFeet != nil {
		return strconv.FormatFloat(*r.CustomSquareFeet, 'f', -1, 64) + " sq ft"
	}
	return string(r.Category)
}

// WizardAnswers accumulates the values of completed stages. Nil means the
// stage has not been completed yet.
type WizardAnswers struct {
	PostalCode        *string     `json:"postalCode,omitempty"`
	MonthlyBillAmount *float64    `json:"monthlyBillAmount,omitempty"`
	CreditBand        *CreditBand `json:"creditBand,omitempty"`
	RoofSize          *RoofSize   `json:"roofSize,omitempty"`
}

// Clone returns a deep copy so snapshots never alias controller state.
func (a WizardAnswers) Clone() WizardAnswers {
	var out WizardAnswers
	if a.PostalCode != nil {
		v := *a.PostalCode
		out.PostalCode = &v
	}
	if a.MonthlyBillAmount != nil {
		v := *a.MonthlyBillAmount
		out.MonthlyBillAmount = &v
	}
	if a.CreditBand != nil {
		v := *a.CreditBand
		out.CreditBand = &v
	}
	if a.RoofSize != nil {
		v := *a.RoofSize
		if v.CustomSquareFeet != nil {
			sq := *v.CustomSquareFeet
			v.CustomSquareFeet = &sq
		}
		out.RoofSize = &v
	}
	return out
}

// IsEmpty reports whether no stage has been completed.
func (a WizardAnswers) IsEmpty() bool {
	return a.PostalCode == nil && a.MonthlyBillAmount == nil && a.CreditBand == nil && a.RoofSize == nil
}

// Complete reports whether all four stages have been answered.
func (a WizardAnswers) Complete() bool {
	return a.PostalCode != nil && a.MonthlyBillAmount != nil && a.CreditBand != nil && a.RoofSize != nil
}
