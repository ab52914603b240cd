// internal/flow/answers.go
package flow

import (
	"fmt"
	"strings"

	stderrors "solar-checker/internal/common/errors"
	"solar-checker/internal/common/validation"
	"solar-checker/internal/models"
)

// Answer is the value submitted for one stage. The set is closed.
type Answer interface {
	// Stage is the stage number the answer belongs to.
	Stage() int
	flowAnswer()
}

// PostalAnswer answers stage 1.
type PostalAnswer struct {
	Code string
}

// BillAnswer answers stage 2 with the average monthly electricity bill.
type BillAnswer struct {
	Amount float64
}

// CreditAnswer answers stage 3. Unknown labels are read as Good.
type CreditAnswer struct {
	Label string
}

// RoofAnswer answers stage 4.
type RoofAnswer struct {
	Size models.RoofSize
}

func (PostalAnswer) Stage() int { return 1 }
func (BillAnswer) Stage() int   { return 2 }
func (CreditAnswer) Stage() int { return 3 }
func (RoofAnswer) Stage() int   { return 4 }

func (PostalAnswer) flowAnswer() {}
func (BillAnswer) flowAnswer()   {}
func (CreditAnswer) flowAnswer() {}
func (RoofAnswer) flowAnswer()   {}

// ==========================
// Stage validity
// ==========================

func (c *Controller) validatePostal(s *state, a PostalAnswer) (string, error) {
	code := strings.TrimSpace(a.Code)
	switch {
	case !validation.IsAcceptablePostalCode(code):
		return "", stderrors.NewValidationError("postalCode", "Please enter a valid 5 or 6 digit postal code")
	case s.detecting:
		return "", stderrors.NewValidationError("postalCode", "Location detection is still in progress")
	case code != s.postalInput:
		return "", stderrors.NewValidationError("postalCode", "Location data has not been requested for this postal code")
	case s.lookup.Status == LookupPending:
		return "", stderrors.NewValidationError("postalCode", "Location data is still loading")
	case s.lookup.Status != LookupSucceeded || s.lookup.Zip != code:
		return "", stderrors.NewValidationError("postalCode", "Location data could not be loaded for this postal code")
	}
	return code, nil
}

func (c *Controller) validateBill(a BillAnswer) (float64, error) {
	if a.Amount < c.cfg.BillMin || a.Amount > c.cfg.BillMax {
		return 0, stderrors.NewValidationError("monthlyBillAmount",
			fmt.Sprintf("Electric bill must be between $%.0f and $%.0f", c.cfg.BillMin, c.cfg.BillMax))
	}
	return a.Amount, nil
}

func validateCredit(a CreditAnswer) (models.CreditBand, error) {
	if strings.TrimSpace(a.Label) == "" {
		return "", stderrors.NewValidationError("creditBand", "Please select a credit score range")
	}
	return models.ParseCreditBand(a.Label), nil
}

func (c *Controller) validateRoof(a RoofAnswer) (models.RoofSize, error) {
	if a.Size.IsCustom() {
		sqft := *a.Size.CustomSquareFeet
		if sqft < c.cfg.RoofMin || sqft > c.cfg.RoofMax {
			return models.RoofSize{}, stderrors.NewValidationError("roofSize",
				fmt.Sprintf("Roof size must be between %.0f and %.0f sq ft", c.cfg.RoofMin, c.cfg.RoofMax))
		}
		return models.RoofFromSquareFeet(sqft), nil
	}
	if a.Size.Category == "" {
		return models.RoofSize{}, stderrors.NewValidationError("roofSize", "Please select a roof size")
	}
	return models.RoofFromCategory(models.ParseRoofCategory(string(a.Size.Category))), nil
}
