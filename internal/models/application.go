// internal/models/application.go
package models

import "time"

// ApplicationSubmission is handed to the application workflow once every
// required document is present.
type ApplicationSubmission struct {
	ApplicationID       string              `json:"applicationId"`
	ZipCode             string              `json:"zipCode"`
	MonthlyBill         float64             `json:"monthlyBill"`
	CreditBand          CreditBand          `json:"creditBand"`
	RoofSquareFeet      float64             `json:"roofSquareFeet"`
	FinancingMethod     string              `json:"financingMethod"`
	QualificationStatus QualificationStatus `json:"qualificationStatus"`
	Documents           []DocumentMetadata  `json:"documents"`
	SubmittedAt         time.Time           `json:"submittedAt"`
}
