package flow

import (
	"context"
	"testing"
	"time"

	stderrors "solar-checker/internal/common/errors"
	"solar-checker/internal/documents"
	"solar-checker/internal/geocode"
	"solar-checker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Construction
// ==========================

func TestNew_MissingDependencies(t *testing.T) {
	_, err := New(Dependencies{}, nil)
	assert.ErrorIs(t, err, ErrMissingDependency)

	_, err = New(Dependencies{Resolver: &fakeResolver{}, Gateway: &fakeGateway{}, Reference: newFakeReference()}, &Config{})
	assert.Error(t, err)
}

func TestController_StartsAtStageOne(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)

	snap := h.must(t)(h.ctrl.Snapshot())

	assert.Equal(t, Stage(1), snap.Mode)
	assert.True(t, snap.Answers.IsEmpty())
	assert.Equal(t, LookupIdle, snap.Lookup.Status)
	assert.Equal(t, HandoffNone, snap.Handoff.Status)
}

func TestController_ClosedRejectsCommands(t *testing.T) {
	h := newHarness(t, 0)
	h.ctrl.Close()
	h.ctrl.Close()

	_, err := h.ctrl.Snapshot()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = h.ctrl.Back()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, h.ctrl.WaitIdle(context.Background()), ErrClosed)
}

// ==========================
// Stage 1
// ==========================

func TestController_PostalRequiresSuccessfulLookup(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)

	_, err := h.ctrl.Submit(PostalAnswer{Code: "90210"})
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeValidationFailed))

	h.reference.unknown["99999"] = true
	h.must(t)(h.ctrl.SetPostalInput("99999"))
	snap := h.idle(t)
	assert.Equal(t, LookupFailed, snap.Lookup.Status)
	assert.Equal(t, "No data available. Please try again.", snap.Lookup.Error)

	snap, err = h.ctrl.Submit(PostalAnswer{Code: "99999"})
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeValidationFailed))
	assert.Equal(t, Stage(1), snap.Mode)

	h.must(t)(h.ctrl.SetPostalInput(" 90210 "))
	snap = h.idle(t)
	require.Equal(t, LookupSucceeded, snap.Lookup.Status)
	assert.Equal(t, "City 90210", snap.Lookup.Data.City)

	snap = h.must(t)(h.ctrl.Submit(PostalAnswer{Code: "90210"}))
	assert.Equal(t, Stage(2), snap.Mode)
	require.NotNil(t, snap.Answers.PostalCode)
	assert.Equal(t, "90210", *snap.Answers.PostalCode)
}

func TestController_UnacceptableInputStartsNoLookup(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)

	for _, input := range []string{"", "1234", "1234567", "abcde"} {
		snap := h.must(t)(h.ctrl.SetPostalInput(input))
		assert.Equal(t, LookupIdle, snap.Lookup.Status, input)
	}
	h.idle(t)
	assert.Zero(t, h.reference.callCount("location:1234"))
}

func TestController_PendingLookupBlocksAdvance(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)
	release := h.reference.gate("90210")

	snap := h.must(t)(h.ctrl.SetPostalInput("90210"))
	assert.Equal(t, LookupPending, snap.Lookup.Status)

	snap, err := h.ctrl.Submit(PostalAnswer{Code: "90210"})
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeValidationFailed))
	assert.Equal(t, Stage(1), snap.Mode)

	release()
	h.idle(t)
	snap = h.must(t)(h.ctrl.Submit(PostalAnswer{Code: "90210"}))
	assert.Equal(t, Stage(2), snap.Mode)
}

func TestController_RepeatedInputDoesNotRefetch(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)

	h.must(t)(h.ctrl.SetPostalInput("90210"))
	h.idle(t)
	h.must(t)(h.ctrl.SetPostalInput("90210"))
	h.idle(t)

	assert.Equal(t, 1, h.reference.callCount("location:90210"))
}

func TestController_StaleLookupDoesNotOverwriteNewerInput(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)
	releaseOld := h.reference.gate("10001")
	releaseNew := h.reference.gate("20002")

	h.must(t)(h.ctrl.SetPostalInput("10001"))
	h.must(t)(h.ctrl.SetPostalInput("20002"))

	releaseNew()
	releaseOld()
	snap := h.idle(t)

	assert.Equal(t, "20002", snap.PostalInput)
	assert.Equal(t, LookupSucceeded, snap.Lookup.Status)
	assert.Equal(t, "20002", snap.Lookup.Zip)
	assert.Equal(t, "City 20002", snap.Lookup.Data.City)

	_, err := h.ctrl.Submit(PostalAnswer{Code: "10001"})
	assert.Error(t, err)
	snap = h.must(t)(h.ctrl.Submit(PostalAnswer{Code: "20002"}))
	assert.Equal(t, "20002", *snap.Answers.PostalCode)
}

func TestController_StaleLookupArrivingFirstIsDiscarded(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)
	releaseOld := h.reference.gate("10001")
	releaseNew := h.reference.gate("20002")

	h.must(t)(h.ctrl.SetPostalInput("10001"))
	h.must(t)(h.ctrl.SetPostalInput("20002"))
	releaseOld()

	assert.Never(t, func() bool {
		snap, _ := h.ctrl.Snapshot()
		return snap.Lookup.Zip != "20002" || snap.Lookup.Status != LookupPending
	}, 100*time.Millisecond, 5*time.Millisecond)

	releaseNew()
	snap := h.idle(t)
	assert.Equal(t, LookupSucceeded, snap.Lookup.Status)
	assert.Equal(t, "City 20002", snap.Lookup.Data.City)
}

func TestController_DetectLocation(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)

	snap := h.must(t)(h.ctrl.DetectLocation(geocode.StaticLocator{}))
	assert.True(t, snap.Detecting)

	snap = h.idle(t)
	assert.False(t, snap.Detecting)
	assert.Equal(t, "90210", snap.PostalInput)
	assert.Equal(t, LookupSucceeded, snap.Lookup.Status)

	snap = h.must(t)(h.ctrl.Submit(PostalAnswer{Code: "90210"}))
	assert.Equal(t, Stage(2), snap.Mode)
}

func TestController_DetectLocationFailure(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)
	h.resolver.err = &geocode.ResolutionFailure{Reason: geocode.PermissionDenied, Err: geocode.ErrPermissionDenied}

	h.must(t)(h.ctrl.DetectLocation(geocode.StaticLocator{}))
	snap := h.idle(t)

	assert.False(t, snap.Detecting)
	assert.Equal(t, geocode.PermissionDenied, snap.DetectionFailure)
	assert.Equal(t, "Could not determine your postal code. Please try entering it manually.", snap.DetectionError)
	assert.Empty(t, snap.PostalInput)
}

func TestController_DetectionBlocksAdvanceAndTypingCancelsIt(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)

	h.must(t)(h.ctrl.SetPostalInput("20002"))
	h.idle(t)

	gate := make(chan struct{})
	h.resolver.gate = gate
	h.must(t)(h.ctrl.DetectLocation(geocode.StaticLocator{}))

	_, err := h.ctrl.Submit(PostalAnswer{Code: "20002"})
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeValidationFailed))

	snap := h.must(t)(h.ctrl.SetPostalInput("20002"))
	assert.False(t, snap.Detecting)

	close(gate)
	snap = h.idle(t)
	assert.Equal(t, "20002", snap.PostalInput)
	assert.Equal(t, "20002", snap.Lookup.Zip)
}

// ==========================
// Stages 2-4
// ==========================

func TestController_StageValidation(t *testing.T) {
	tests := []struct {
		name   string
		answer Answer
		stage  int
		field  string
	}{
		{"bill below range", BillAnswer{Amount: 49.99}, 2, "monthlyBillAmount"},
		{"bill above range", BillAnswer{Amount: 500.01}, 2, "monthlyBillAmount"},
		{"empty credit", CreditAnswer{Label: "  "}, 3, "creditBand"},
		{"roof too small", RoofAnswer{Size: models.RoofFromSquareFeet(99)}, 4, "roofSize"},
		{"roof too large", RoofAnswer{Size: models.RoofFromSquareFeet(10001)}, 4, "roofSize"},
		{"no roof", RoofAnswer{}, 4, "roofSize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 0)
			t.Cleanup(h.ctrl.Close)
			h.must(t)(h.ctrl.SetPostalInput("90210"))
			h.idle(t)
			prior := []Answer{PostalAnswer{Code: "90210"}, BillAnswer{Amount: 180}, CreditAnswer{Label: "Good"}}
			for _, a := range prior[:tt.stage-1] {
				h.must(t)(h.ctrl.Submit(a))
			}

			snap, err := h.ctrl.Submit(tt.answer)

			require.Error(t, err)
			var stdErr *stderrors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, stderrors.ErrCodeValidationFailed, stdErr.Code)
			assert.Equal(t, tt.field, stdErr.Metadata["field"])
			assert.Equal(t, Stage(tt.stage), snap.Mode)
		})
	}
}

func TestController_BoundaryValuesAccepted(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)
	h.must(t)(h.ctrl.SetPostalInput("90210"))
	h.idle(t)

	h.must(t)(h.ctrl.Submit(PostalAnswer{Code: "90210"}))
	h.must(t)(h.ctrl.Submit(BillAnswer{Amount: 50}))
	snap := h.must(t)(h.ctrl.Submit(CreditAnswer{Label: "platinum"}))
	assert.Equal(t, models.CreditGood, *snap.Answers.CreditBand)
	snap = h.must(t)(h.ctrl.Submit(RoofAnswer{Size: models.RoofFromSquareFeet(10000)}))
	assert.Equal(t, LoadingMode{}, snap.Mode)
	assert.Equal(t, 10000.0, snap.Answers.RoofSize.SquareFeet())
}

func TestController_RepeatedSubmitIsIdempotent(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)
	h.must(t)(h.ctrl.SetPostalInput("90210"))
	h.idle(t)

	first := h.must(t)(h.ctrl.Submit(PostalAnswer{Code: "90210"}))
	second, err := h.ctrl.Submit(PostalAnswer{Code: "90210"})

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, first.Mode, second.Mode)
	assert.Equal(t, first.Answers, second.Answers)
}

func TestController_CannotSkipStages(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)

	for _, a := range []Answer{BillAnswer{Amount: 180}, CreditAnswer{Label: "Good"}, RoofAnswer{Size: models.RoofFromCategory(models.RoofSmall)}, nil} {
		snap, err := h.ctrl.Submit(a)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeInvalidTransition))
		assert.Equal(t, Stage(1), snap.Mode)
		assert.True(t, snap.Answers.IsEmpty())
	}
}

func TestController_BackKeepsAnswers(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)

	snap := h.must(t)(h.ctrl.Back())
	assert.Equal(t, Stage(1), snap.Mode)

	h.must(t)(h.ctrl.SetPostalInput("90210"))
	h.idle(t)
	h.must(t)(h.ctrl.Submit(PostalAnswer{Code: "90210"}))
	h.must(t)(h.ctrl.Submit(BillAnswer{Amount: 220}))

	snap = h.must(t)(h.ctrl.Back())
	assert.Equal(t, Stage(2), snap.Mode)
	snap = h.must(t)(h.ctrl.Back())
	assert.Equal(t, Stage(1), snap.Mode)
	assert.Equal(t, "90210", *snap.Answers.PostalCode)
	assert.Equal(t, 220.0, *snap.Answers.MonthlyBillAmount)

	h.must(t)(h.ctrl.Submit(PostalAnswer{Code: "90210"}))
	snap = h.must(t)(h.ctrl.Submit(BillAnswer{Amount: 240}))
	assert.Equal(t, Stage(3), snap.Mode)
	assert.Equal(t, 240.0, *snap.Answers.MonthlyBillAmount)
}

func TestController_CreditHintOnStageThree(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)
	h.reference.credit["90210"] = &models.CreditReference{ZipCode: "90210", VantageScore: 781}

	h.must(t)(h.ctrl.SetPostalInput("90210"))
	h.idle(t)
	h.must(t)(h.ctrl.Submit(PostalAnswer{Code: "90210"}))
	snap := h.idle(t)
	_, ok := snap.SuggestedCreditBand()
	assert.False(t, ok)

	h.must(t)(h.ctrl.Submit(BillAnswer{Amount: 180}))
	snap = h.idle(t)

	band, ok := snap.SuggestedCreditBand()
	require.True(t, ok)
	assert.Equal(t, models.CreditExcellent, band)

	h.must(t)(h.ctrl.Back())
	h.must(t)(h.ctrl.Submit(BillAnswer{Amount: 180}))
	h.idle(t)
	assert.Equal(t, 1, h.reference.callCount("credit:90210"))
}

func TestController_NoCreditHintWhenUnpublished(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)

	h.must(t)(h.ctrl.SetPostalInput("90210"))
	h.idle(t)
	h.must(t)(h.ctrl.Submit(PostalAnswer{Code: "90210"}))
	h.must(t)(h.ctrl.Submit(BillAnswer{Amount: 180}))
	snap := h.idle(t)

	assert.Equal(t, Stage(3), snap.Mode)
	assert.Nil(t, snap.CreditHint)
}

// ==========================
// Loading / Results
// ==========================

func TestController_LoadingIsObservable(t *testing.T) {
	h := newHarness(t, 30*time.Millisecond)
	t.Cleanup(h.ctrl.Close)
	h.must(t)(h.ctrl.SetPostalInput("90210"))
	h.idle(t)
	h.must(t)(h.ctrl.Submit(PostalAnswer{Code: "90210"}))
	h.must(t)(h.ctrl.Submit(BillAnswer{Amount: 180}))
	h.must(t)(h.ctrl.Submit(CreditAnswer{Label: "Fair"}))

	start := time.Now()
	snap := h.must(t)(h.ctrl.Submit(RoofAnswer{Size: models.RoofFromCategory(models.RoofMedium)}))
	assert.Equal(t, LoadingMode{}, snap.Mode)
	assert.Nil(t, snap.Result)

	snap = h.idle(t)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, ResultsMode{}, snap.Mode)
	require.NotNil(t, snap.Result)
	assert.Equal(t, models.StatusApproved, snap.Result.Status)

	assert.Equal(t, 1500.0, h.gateway.last.RoofSize.SquareFeet())
	assert.Equal(t, models.CreditFair, *h.gateway.last.CreditBand)
}

func TestController_ZeroDelayStillPassesThroughLoading(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)
	gate := make(chan struct{})
	h.gateway.gate = gate
	h.must(t)(h.ctrl.SetPostalInput("90210"))
	h.idle(t)
	h.must(t)(h.ctrl.Submit(PostalAnswer{Code: "90210"}))
	h.must(t)(h.ctrl.Submit(BillAnswer{Amount: 180}))
	h.must(t)(h.ctrl.Submit(CreditAnswer{Label: "Good"}))

	snap := h.must(t)(h.ctrl.Submit(RoofAnswer{Size: models.RoofFromCategory(models.RoofLarge)}))
	assert.Equal(t, LoadingMode{}, snap.Mode)

	_, err := h.ctrl.Back()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	close(gate)
	snap = h.idle(t)
	assert.Equal(t, ResultsMode{}, snap.Mode)
}

func TestController_NotQualifiedCannotSelectQuote(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)
	h.gateway.result = models.NotQualified("Credit band too low")

	snap := h.completeStages(t)
	require.Equal(t, ResultsMode{}, snap.Mode)
	assert.Equal(t, "Credit band too low", snap.Result.Explanation)

	snap, err := h.ctrl.SelectQuote()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, ResultsMode{}, snap.Mode)
}

func TestController_RestartDuringLoadingDiscardsResult(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)
	gate := make(chan struct{})
	h.gateway.gate = gate
	h.must(t)(h.ctrl.SetPostalInput("90210"))
	h.idle(t)
	h.must(t)(h.ctrl.Submit(PostalAnswer{Code: "90210"}))
	h.must(t)(h.ctrl.Submit(BillAnswer{Amount: 180}))
	h.must(t)(h.ctrl.Submit(CreditAnswer{Label: "Good"}))
	h.must(t)(h.ctrl.Submit(RoofAnswer{Size: models.RoofFromCategory(models.RoofLarge)}))

	snap := h.must(t)(h.ctrl.Restart())
	assert.Equal(t, uint64(1), snap.Epoch)
	close(gate)
	snap = h.idle(t)

	assert.Equal(t, Stage(1), snap.Mode)
	assert.Nil(t, snap.Result)
	assert.True(t, snap.Answers.IsEmpty())
}

// ==========================
// Financing / Documents / Submit
// ==========================

func TestController_FullCashFlow(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)
	h.completeStages(t)

	snap := h.must(t)(h.ctrl.SelectQuote())
	assert.Equal(t, FinancingMode{}, snap.Mode)

	snap = h.must(t)(h.ctrl.Proceed("cash"))
	assert.Equal(t, DocumentsMode{}, snap.Mode)
	assert.Equal(t, "Cash", snap.FinancingMethod)
	assert.Equal(t, documents.RequirementsFor("Cash"), snap.Requirements)

	h.must(t)(h.ctrl.AttachDocument(documents.ProofOfIdentity, pngFile("id.png")))
	h.must(t)(h.ctrl.AttachDocument(documents.ProofOfAddress, pdfFile("bill.pdf")))

	snap, err := h.ctrl.SubmitApplication()
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeValidationFailed))
	assert.Equal(t, DocumentsMode{}, snap.Mode)

	h.must(t)(h.ctrl.AttachDocument(documents.PurchaseAgreement, pdfFile("invoice.pdf")))
	snap = h.must(t)(h.ctrl.SubmitApplication())
	assert.Equal(t, SubmittedMode{}, snap.Mode)
	assert.NotEmpty(t, snap.ApplicationID)
	assert.Equal(t, HandoffPending, snap.Handoff.Status)

	snap = h.idle(t)
	assert.Equal(t, HandoffDelivered, snap.Handoff.Status)
	assert.Equal(t, "instance-"+snap.ApplicationID[:8], snap.Handoff.Reference)

	apps := h.publisher.published()
	require.Len(t, apps, 1)
	app := apps[0]
	assert.Equal(t, snap.ApplicationID, app.ApplicationID)
	assert.Equal(t, "90210", app.ZipCode)
	assert.Equal(t, 180.0, app.MonthlyBill)
	assert.Equal(t, models.CreditGood, app.CreditBand)
	assert.Equal(t, 2500.0, app.RoofSquareFeet)
	assert.Equal(t, "Cash", app.FinancingMethod)
	assert.Equal(t, models.StatusApproved, app.QualificationStatus)
	assert.Len(t, app.Documents, 3)
}

func TestController_HandoffFailureStillSubmitted(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)
	h.publisher.err = errBrokerDown
	h.completeStages(t)
	h.must(t)(h.ctrl.SelectQuote())
	h.must(t)(h.ctrl.Proceed("Cash"))
	for _, id := range []string{documents.ProofOfIdentity, documents.ProofOfAddress, documents.PurchaseAgreement} {
		h.must(t)(h.ctrl.AttachDocument(id, pdfFile(id+".pdf")))
	}

	snap := h.must(t)(h.ctrl.SubmitApplication())
	assert.Equal(t, SubmittedMode{}, snap.Mode)

	snap = h.idle(t)
	assert.Equal(t, SubmittedMode{}, snap.Mode)
	assert.Equal(t, HandoffFailed, snap.Handoff.Status)
	assert.Equal(t, "Application could not be forwarded", snap.Handoff.Error)
}

func TestController_UploadRejectionLeavesOtherSlots(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)
	h.completeStages(t)
	h.must(t)(h.ctrl.SelectQuote())
	h.must(t)(h.ctrl.Proceed("Loan"))
	h.must(t)(h.ctrl.AttachDocument(documents.CreditCheck, pdfFile("auth.pdf")))

	snap, err := h.ctrl.AttachDocument(documents.LoanAgreement, models.File{Name: "loan.docx", ContentType: "application/msword", Data: []byte("x")})

	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeUploadRejected))
	require.Len(t, snap.Documents, 1)
	assert.Equal(t, documents.CreditCheck, snap.Documents[0].DocumentID)

	_, err = h.ctrl.AttachDocument(documents.PurchaseAgreement, pdfFile("invoice.pdf"))
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeUnknownSlot))
}

func TestController_ChangingMethodStartsFreshSession(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)
	h.completeStages(t)
	h.must(t)(h.ctrl.SelectQuote())
	h.must(t)(h.ctrl.Proceed("PPA"))
	h.must(t)(h.ctrl.AttachDocument(documents.ProofOfIdentity, pngFile("id.png")))
	require.Equal(t, 1, h.previews.Active())

	snap := h.must(t)(h.ctrl.Back())
	assert.Equal(t, FinancingMode{}, snap.Mode)
	snap = h.must(t)(h.ctrl.Proceed("PPA Monthly"))
	assert.Len(t, snap.Documents, 1)

	h.must(t)(h.ctrl.Back())
	snap = h.must(t)(h.ctrl.Proceed("Lease"))
	assert.Empty(t, snap.Documents)
	assert.Zero(t, h.previews.Active())
	assert.Equal(t, documents.LeaseAgreement, snap.Requirements[len(snap.Requirements)-1].ID)
}

func TestController_RestartFromDocumentsReleasesPreviews(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)
	h.completeStages(t)
	h.must(t)(h.ctrl.SelectQuote())
	h.must(t)(h.ctrl.Proceed("Loan"))
	h.must(t)(h.ctrl.AttachDocument(documents.ProofOfIdentity, pngFile("id.png")))
	h.must(t)(h.ctrl.AttachDocument(documents.ProofOfAddress, pngFile("bill.png")))
	require.Equal(t, 2, h.previews.Active())

	snap := h.must(t)(h.ctrl.Restart())

	assert.Zero(t, h.previews.Active())
	assert.Equal(t, Stage(1), snap.Mode)
	assert.True(t, snap.Answers.IsEmpty())
	assert.Empty(t, snap.Documents)
	assert.Nil(t, snap.Result)
	assert.Empty(t, snap.FinancingMethod)
	assert.Equal(t, LookupIdle, snap.Lookup.Status)
}

func TestController_CloseReleasesPreviews(t *testing.T) {
	h := newHarness(t, 0)
	h.completeStages(t)
	h.must(t)(h.ctrl.SelectQuote())
	h.must(t)(h.ctrl.Proceed("Cash"))
	h.must(t)(h.ctrl.AttachDocument(documents.ProofOfIdentity, pngFile("id.png")))

	h.ctrl.Close()

	assert.Zero(t, h.previews.Active())
}

func TestController_InvalidTransitions(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)

	commands := map[string]func() (Snapshot, error){
		"selectQuote":       h.ctrl.SelectQuote,
		"proceed":           func() (Snapshot, error) { return h.ctrl.Proceed("Loan") },
		"attachDocument":    func() (Snapshot, error) { return h.ctrl.AttachDocument("x", pdfFile("x.pdf")) },
		"removeDocument":    func() (Snapshot, error) { return h.ctrl.RemoveDocument("x") },
		"submitApplication": h.ctrl.SubmitApplication,
	}
	for name, cmd := range commands {
		snap, err := cmd()
		assert.ErrorIs(t, err, ErrInvalidTransition, name)
		assert.Equal(t, Stage(1), snap.Mode, name)
	}

	h.completeStages(t)
	for name, cmd := range map[string]func() (Snapshot, error){
		"setPostalInput": func() (Snapshot, error) { return h.ctrl.SetPostalInput("90210") },
		"detectLocation": func() (Snapshot, error) { return h.ctrl.DetectLocation(nil) },
		"submit":         func() (Snapshot, error) { return h.ctrl.Submit(RoofAnswer{}) },
		"back":           h.ctrl.Back,
	} {
		snap, err := cmd()
		assert.ErrorIs(t, err, ErrInvalidTransition, name)
		assert.Equal(t, ResultsMode{}, snap.Mode, name)
	}
}

func TestController_ProceedRequiresMethod(t *testing.T) {
	h := newHarness(t, 0)
	t.Cleanup(h.ctrl.Close)
	h.completeStages(t)
	h.must(t)(h.ctrl.SelectQuote())

	snap, err := h.ctrl.Proceed("  ")

	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeValidationFailed))
	assert.Equal(t, FinancingMode{}, snap.Mode)
}
