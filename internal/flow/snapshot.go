// internal/flow/snapshot.go
package flow

import (
	"context"

	"solar-checker/internal/geocode"
	"solar-checker/internal/models"
	"solar-checker/internal/upload"
)

// LookupStatus tracks the location-data request for the stage 1 input.
type LookupStatus string

const (
	LookupIdle      LookupStatus = "idle"
	LookupPending   LookupStatus = "pending"
	LookupSucceeded LookupStatus = "succeeded"
	LookupFailed    LookupStatus = "failed"
)

type LookupState struct {
	Status LookupStatus         `json:"status"`
	Zip    string               `json:"zip,omitempty"`
	Data   *models.LocationData `json:"data,omitempty"`
	Error  string               `json:"error,omitempty"`
}

// HandoffStatus tracks delivery of a submitted application.
type HandoffStatus string

const (
	HandoffNone      HandoffStatus = "none"
	HandoffPending   HandoffStatus = "pending"
	HandoffDelivered HandoffStatus = "delivered"
	HandoffFailed    HandoffStatus = "failed"
)

type HandoffState struct {
	Status    HandoffStatus `json:"status"`
	Reference string        `json:"reference,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Snapshot is an immutable copy of the controller state.
type Snapshot struct {
	Mode    Mode                 `json:"-"`
	Answers models.WizardAnswers `json:"answers"`
	Epoch   uint64               `json:"epoch"`

	PostalInput      string                `json:"postalInput,omitempty"`
	Lookup           LookupState           `json:"lookup"`
	Detecting        bool                  `json:"detecting"`
	DetectionFailure geocode.FailureReason `json:"detectionFailure,omitempty"`
	DetectionError   string                `json:"detectionError,omitempty"`

	CreditHint *models.CreditReference `json:"creditHint,omitempty"`

	Result *models.QualificationResult `json:"result,omitempty"`

	FinancingMethod string                       `json:"financingMethod,omitempty"`
	Requirements    []models.DocumentRequirement `json:"requirements,omitempty"`
	Documents       []models.DocumentMetadata    `json:"documents,omitempty"`

	ApplicationID string       `json:"applicationId,omitempty"`
	Handoff       HandoffState `json:"handoff"`
}

// SuggestedCreditBand is the band implied by the area credit reference.
func (s Snapshot) SuggestedCreditBand() (models.CreditBand, bool) {
	if s.CreditHint == nil {
		return "", false
	}
	return s.CreditHint.SuggestedBand(), true
}

// state is owned by the controller loop goroutine.
type state struct {
	mode    Mode
	answers models.WizardAnswers
	epoch   uint64

	epochCtx    context.Context
	cancelEpoch context.CancelFunc

	postalInput      string
	lookup           LookupState
	detecting        bool
	detectSeq        uint64
	detectionFailure geocode.FailureReason
	detectionError   string

	creditHint    *models.CreditReference
	creditHintZip string

	qualifySeq uint64
	result     *models.QualificationResult

	financingMethod string
	requirements    []models.DocumentRequirement
	session         *upload.Session

	applicationID string
	handoff       HandoffState

	pending     int
	idleWaiters []chan struct{}
}

func (s *state) snapshot() Snapshot {
	snap := Snapshot{
		Mode:             s.mode,
		Answers:          s.answers.Clone(),
		Epoch:            s.epoch,
		PostalInput:      s.postalInput,
		Lookup:           s.lookup,
		Detecting:        s.detecting,
		DetectionFailure: s.detectionFailure,
		DetectionError:   s.detectionError,
		FinancingMethod:  s.financingMethod,
		ApplicationID:    s.applicationID,
		Handoff:          s.handoff,
	}
	if s.lookup.Data != nil {
		data := *s.lookup.Data
		snap.Lookup.Data = &data
	}
	if s.creditHint != nil {
		hint := *s.creditHint
		snap.CreditHint = &hint
	}
	if s.result != nil {
		result := *s.result
		snap.Result = &result
	}
	if s.requirements != nil {
		snap.Requirements = append([]models.DocumentRequirement(nil), s.requirements...)
	}
	if s.session != nil {
		snap.Documents = s.session.Metadata()
	}
	return snap
}
