// internal/documents/requirements.go
package documents

import (
	"strings"

	"solar-checker/internal/models"
)

// Method is a financing option offered after a quotable result.
type Method string

const (
	MethodPPA   Method = "PPA Monthly"
	MethodLease Method = "Lease"
	MethodLoan  Method = "Loan"
	MethodCash  Method = "Cash"
)

// Methods lists the financing options in display order.
func Methods() []Method {
	return []Method{MethodPPA, MethodLease, MethodLoan, MethodCash}
}

// ParseMethod matches name case-insensitively. "PPA" and "PPA Monthly" are
// the same method.
func ParseMethod(name string) (Method, bool) {
	switch strings.ToLower(strings.Join(strings.Fields(name), " ")) {
	case "ppa", "ppa monthly":
		return MethodPPA, true
	case "lease":
		return MethodLease, true
	case "loan":
		return MethodLoan, true
	case "cash":
		return MethodCash, true
	default:
		return "", false
	}
}

// Requirement ids.
const (
	CreditCheck        = "credit-check"
	ProofOfIdentity    = "proof-identity"
	ProofOfAddress     = "proof-address"
	PPAAgreement       = "ppa-agreement"
	LeaseAgreement     = "lease-agreement"
	IncomeVerification = "income-verification"
	LoanAgreement      = "loan-agreement"
	PurchaseAgreement  = "purchase-agreement"
)

var catalog = map[string]models.DocumentRequirement{
	CreditCheck: {
		ID:          CreditCheck,
		Title:       "Credit Check",
		Description: "Soft/hard credit pull authorization",
		Required:    true,
	},
	ProofOfIdentity: {
		ID:          ProofOfIdentity,
		Title:       "Proof of Identity",
		Description: "Government-issued ID (Driver's License, Passport, etc.)",
		Required:    true,
	},
	ProofOfAddress: {
		ID:          ProofOfAddress,
		Title:       "Proof of Address",
		Description: "Utility bill, bank statement, or lease agreement",
		Required:    true,
	},
	PPAAgreement: {
		ID:          PPAAgreement,
		Title:       "PPA Agreement",
		Description: "Power Purchase Agreement documentation",
		Required:    true,
	},
	LeaseAgreement: {
		ID:          LeaseAgreement,
		Title:       "Lease Agreement",
		Description: "Solar equipment lease agreement",
		Required:    true,
	},
	IncomeVerification: {
		ID:          IncomeVerification,
		Title:       "Income Verification",
		Description: "Pay stubs, tax returns, or employment verification",
		Required:    true,
	},
	LoanAgreement: {
		ID:          LoanAgreement,
		Title:       "Loan Agreement",
		Description: "Solar loan documentation",
		Required:    true,
	},
	PurchaseAgreement: {
		ID:          PurchaseAgreement,
		Title:       "Purchase Agreement/Invoice",
		Description: "Solar system purchase documentation",
		Required:    true,
	},
}

var (
	baseline = []string{CreditCheck, ProofOfIdentity, ProofOfAddress}

	byMethod = map[Method][]string{
		MethodPPA:   append(append([]string{}, baseline...), PPAAgreement),
		MethodLease: append(append([]string{}, baseline...), LeaseAgreement),
		MethodLoan:  append(append([]string{}, baseline...), IncomeVerification, LoanAgreement),
		MethodCash:  {ProofOfIdentity, ProofOfAddress, PurchaseAgreement},
	}
)

// RequirementsFor returns the documents needed for a financing method.
// Unknown names get the baseline set. The returned slice is a fresh copy.
func RequirementsFor(name string) []models.DocumentRequirement {
	ids := baseline
	if method, ok := ParseMethod(name); ok {
		ids = byMethod[method]
	}

	out := make([]models.DocumentRequirement, 0, len(ids))
	for _, id := range ids {
		out = append(out, catalog[id])
	}
	return out
}

// Lookup returns the requirement with the given id.
func Lookup(id string) (models.DocumentRequirement, bool) {
	req, ok := catalog[id]
	return req, ok
}
