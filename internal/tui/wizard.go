// internal/tui/wizard.go
package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	stderrors "solar-checker/internal/common/errors"
	"solar-checker/internal/common/logger"
	"solar-checker/internal/common/validation"
	"solar-checker/internal/documents"
	"solar-checker/internal/flow"
	"solar-checker/internal/geocode"
	"solar-checker/internal/models"

	"github.com/spf13/afero"
)

// Flow is the part of the flow controller the wizard drives.
type Flow interface {
	Snapshot() (flow.Snapshot, error)
	WaitIdle(ctx context.Context) error
	SetPostalInput(code string) (flow.Snapshot, error)
	DetectLocation(loc geocode.Locator) (flow.Snapshot, error)
	Submit(answer flow.Answer) (flow.Snapshot, error)
	Back() (flow.Snapshot, error)
	Restart() (flow.Snapshot, error)
	SelectQuote() (flow.Snapshot, error)
	Proceed(method string) (flow.Snapshot, error)
	AttachDocument(documentID string, file models.File) (flow.Snapshot, error)
	RemoveDocument(documentID string) (flow.Snapshot, error)
	SubmitApplication() (flow.Snapshot, error)
}

const backKeyword = "back"

const (
	optionBack       = "Back"
	optionSelect     = "Select this quote"
	optionStartOver  = "Start over"
	optionQuit       = "Quit"
	optionSubmit     = "Submit application"
	optionCustomRoof = "Custom size"
	optionDetect     = "Detect my location"
	optionManual     = "Enter my postal code"
	optionReplace    = "Replace file"
	optionRemove     = "Remove file"
	optionCancel     = "Cancel"
)

var creditOptions = []models.CreditBand{
	models.CreditExcellent,
	models.CreditGood,
	models.CreditFair,
	models.CreditPoor,
}

var roofOptions = []models.RoofCategory{
	models.RoofSmall,
	models.RoofMedium,
	models.RoofLarge,
	models.RoofExtraLarge,
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithLocator enables the "detect my location" choice on the first stage.
func WithLocator(loc geocode.Locator) Option {
	return func(w *Wizard) { w.locator = loc }
}

// WithFs sets the filesystem document paths are read from.
func WithFs(fs afero.Fs) Option {
	return func(w *Wizard) { w.fs = fs }
}

func WithLogger(log logger.Logger) Option {
	return func(w *Wizard) { w.logger = log }
}

// Wizard walks a person through the flow on a terminal.
type Wizard struct {
	flow    Flow
	driver  PromptDriver
	locator geocode.Locator
	fs      afero.Fs
	logger  logger.Logger

	detectOffered bool
}

func NewWizard(f Flow, driver PromptDriver, opts ...Option) *Wizard {
	w := &Wizard{
		flow:   f,
		driver: driver,
		fs:     afero.NewOsFs(),
		logger: logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logger.ForComponent(w.logger, "tui")
	return w
}

// Run prompts until the application is submitted or the user quits. The
// final snapshot is returned in both cases.
func (w *Wizard) Run(ctx context.Context) (flow.Snapshot, error) {
	for {
		if err := w.flow.WaitIdle(ctx); err != nil {
			return flow.Snapshot{}, err
		}
		snap, err := w.flow.Snapshot()
		if err != nil {
			return snap, err
		}

		var quit bool
		switch m := snap.Mode.(type) {
		case flow.StageMode:
			err = w.stage(ctx, snap, m.N)
		case flow.LoadingMode:
			err = w.driver.Info(ctx, "Checking your qualification...")
		case flow.ResultsMode:
			quit, err = w.results(ctx, snap)
		case flow.FinancingMode:
			err = w.financing(ctx, snap)
		case flow.DocumentsMode:
			err = w.documents(ctx, snap)
		case flow.SubmittedMode:
			return snap, w.submitted(ctx, snap)
		default:
			return snap, fmt.Errorf("tui: unexpected mode %v", snap.Mode)
		}
		if err != nil {
			return snap, err
		}
		if quit {
			return w.flow.Snapshot()
		}
	}
}

// report shows a flow error inline. Errors that are not part of the flow
// taxonomy are returned.
func (w *Wizard) report(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var stdErr *stderrors.StandardError
	if errors.As(err, &stdErr) {
		w.logger.Debug("command rejected", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
		})
		return w.driver.Info(ctx, stderrors.UserMessage(stdErr))
	}
	return err
}

func (w *Wizard) back(ctx context.Context) error {
	_, err := w.flow.Back()
	return w.report(ctx, err)
}

func (w *Wizard) settle(ctx context.Context) (flow.Snapshot, error) {
	if err := w.flow.WaitIdle(ctx); err != nil {
		return flow.Snapshot{}, err
	}
	return w.flow.Snapshot()
}

// ==========================
// Stages
// ==========================

func (w *Wizard) stage(ctx context.Context, snap flow.Snapshot, n int) error {
	switch n {
	case 1:
		return w.postal(ctx, snap)
	case 2:
		return w.bill(ctx, snap)
	case 3:
		return w.credit(ctx, snap)
	default:
		return w.roof(ctx, snap)
	}
}

func (w *Wizard) postal(ctx context.Context, snap flow.Snapshot) error {
	if w.locator != nil && !w.detectOffered && snap.PostalInput == "" {
		w.detectOffered = true
		idx, err := w.driver.Select(ctx, SelectConfig{
			Message: "Where is the property?",
			Options: []string{optionDetect, optionManual},
		})
		if err != nil {
			return err
		}
		if idx == 0 {
			if _, err := w.flow.DetectLocation(w.locator); err != nil {
				return w.report(ctx, err)
			}
			if snap, err = w.settle(ctx); err != nil {
				return err
			}
			if snap.DetectionError != "" {
				if err := w.driver.Info(ctx, snap.DetectionError); err != nil {
					return err
				}
			}
		}
	}

	code, err := w.driver.Input(ctx, InputConfig{
		Message:   "ZIP / postal code",
		Default:   snap.PostalInput,
		Help:      "5-digit ZIP code or 6-digit PIN code",
		Validator: postalValidator,
	})
	if err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if _, err := w.flow.SetPostalInput(code); err != nil {
		return w.report(ctx, err)
	}
	if snap, err = w.settle(ctx); err != nil {
		return err
	}
	switch snap.Lookup.Status {
	case flow.LookupFailed:
		return w.driver.Info(ctx, snap.Lookup.Error)
	case flow.LookupSucceeded:
		if err := w.driver.Info(ctx, describeLocation(snap.Lookup.Data)); err != nil {
			return err
		}
	}
	_, err = w.flow.Submit(flow.PostalAnswer{Code: code})
	return w.report(ctx, err)
}

func postalValidator(s string) error {
	if validation.IsAcceptablePostalCode(strings.TrimSpace(s)) {
		return nil
	}
	return errors.New("please enter a 5-digit ZIP or 6-digit PIN code")
}

func (w *Wizard) bill(ctx context.Context, snap flow.Snapshot) error {
	def := ""
	switch {
	case snap.Answers.MonthlyBillAmount != nil:
		def = formatAmount(*snap.Answers.MonthlyBillAmount)
	case snap.Lookup.Data != nil && snap.Lookup.Data.AverageMonthlyBill != nil:
		def = formatAmount(*snap.Lookup.Data.AverageMonthlyBill)
	}
	raw, err := w.driver.Input(ctx, InputConfig{
		Message: "Average monthly electric bill ($)",
		Default: def,
		Help:    "Type \"back\" to change the postal code",
	})
	if err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, backKeyword) {
		return w.back(ctx)
	}
	amount, err := strconv.ParseFloat(strings.TrimPrefix(raw, "$"), 64)
	if err != nil {
		return w.driver.Info(ctx, "Please enter your monthly bill as a number")
	}
	_, err = w.flow.Submit(flow.BillAnswer{Amount: amount})
	return w.report(ctx, err)
}

func (w *Wizard) credit(ctx context.Context, snap flow.Snapshot) error {
	selected := models.DefaultCreditBand
	message := "Credit score range"
	if band, ok := snap.SuggestedCreditBand(); ok {
		selected = band
		message = fmt.Sprintf("Credit score range (area average VantageScore %d)", snap.CreditHint.VantageScore)
	}
	if snap.Answers.CreditBand != nil {
		selected = *snap.Answers.CreditBand
	}

	options := make([]string, 0, len(creditOptions)+1)
	def := 0
	for i, band := range creditOptions {
		options = append(options, string(band))
		if band == selected {
			def = i
		}
	}
	options = append(options, optionBack)

	idx, err := w.driver.Select(ctx, SelectConfig{Message: message, Options: options, DefaultIndex: def})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(creditOptions) {
		return w.back(ctx)
	}
	_, err = w.flow.Submit(flow.CreditAnswer{Label: string(creditOptions[idx])})
	return w.report(ctx, err)
}

func (w *Wizard) roof(ctx context.Context, snap flow.Snapshot) error {
	options := make([]string, 0, len(roofOptions)+2)
	def := 1
	for i, c := range roofOptions {
		options = append(options, fmt.Sprintf("%s (about %s sq ft)", c, formatAmount(c.SquareFeet())))
		if snap.Answers.RoofSize != nil && snap.Answers.RoofSize.Category == c {
			def = i
		}
	}
	options = append(options, optionCustomRoof, optionBack)
	if snap.Answers.RoofSize != nil && snap.Answers.RoofSize.IsCustom() {
		def = len(roofOptions)
	}

	idx, err := w.driver.Select(ctx, SelectConfig{Message: "Roof size", Options: options, DefaultIndex: def})
	if err != nil {
		return err
	}
	var size models.RoofSize
	switch {
	case idx >= 0 && idx < len(roofOptions):
		size = models.RoofFromCategory(roofOptions[idx])
	case idx == len(roofOptions):
		raw, err := w.driver.Input(ctx, InputConfig{Message: "Roof size in square feet"})
		if err != nil {
			return err
		}
		sqft, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return w.driver.Info(ctx, "Please enter the roof size as a number")
		}
		size = models.RoofFromSquareFeet(sqft)
	default:
		return w.back(ctx)
	}
	_, err = w.flow.Submit(flow.RoofAnswer{Size: size})
	return w.report(ctx, err)
}

// ==========================
// Results and financing
// ==========================

func (w *Wizard) results(ctx context.Context, snap flow.Snapshot) (bool, error) {
	if snap.Result != nil {
		if err := w.driver.Info(ctx, describeResult(*snap.Result)); err != nil {
			return false, err
		}
	}
	options := []string{optionStartOver, optionQuit}
	if snap.Result != nil && snap.Result.Quotable() {
		options = append([]string{optionSelect}, options...)
	}
	idx, err := w.driver.Select(ctx, SelectConfig{Message: "What would you like to do?", Options: options})
	if err != nil {
		return false, err
	}
	switch indexOption(options, idx) {
	case optionSelect:
		_, err = w.flow.SelectQuote()
		return false, w.report(ctx, err)
	case optionStartOver:
		w.detectOffered = false
		_, err = w.flow.Restart()
		return false, w.report(ctx, err)
	default:
		return true, nil
	}
}

func (w *Wizard) financing(ctx context.Context, snap flow.Snapshot) error {
	methods := documents.Methods()
	options := make([]string, 0, len(methods)+1)
	def := 0
	for i, m := range methods {
		options = append(options, string(m))
		if string(m) == snap.FinancingMethod {
			def = i
		}
	}
	options = append(options, optionBack)

	idx, err := w.driver.Select(ctx, SelectConfig{Message: "How would you like to pay?", Options: options, DefaultIndex: def})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(methods) {
		return w.back(ctx)
	}
	_, err = w.flow.Proceed(string(methods[idx]))
	return w.report(ctx, err)
}

// ==========================
// Documents
// ==========================

func (w *Wizard) documents(ctx context.Context, snap flow.Snapshot) error {
	uploaded := make(map[string]models.DocumentMetadata, len(snap.Documents))
	for _, d := range snap.Documents {
		uploaded[d.DocumentID] = d
	}

	options := make([]string, 0, len(snap.Requirements)+2)
	for _, r := range snap.Requirements {
		options = append(options, requirementLabel(r, uploaded))
	}
	options = append(options, optionSubmit, optionBack)

	idx, err := w.driver.Select(ctx, SelectConfig{
		Message:  fmt.Sprintf("Documents for %s", snap.FinancingMethod),
		Options:  options,
		PageSize: len(options),
	})
	if err != nil {
		return err
	}
	switch {
	case idx >= 0 && idx < len(snap.Requirements):
		req := snap.Requirements[idx]
		if _, ok := uploaded[req.ID]; ok {
			return w.manageDocument(ctx, req)
		}
		return w.attach(ctx, req)
	case indexOption(options, idx) == optionSubmit:
		_, err = w.flow.SubmitApplication()
		return w.report(ctx, err)
	default:
		return w.back(ctx)
	}
}

func (w *Wizard) manageDocument(ctx context.Context, req models.DocumentRequirement) error {
	options := []string{optionReplace, optionRemove, optionCancel}
	idx, err := w.driver.Select(ctx, SelectConfig{Message: req.Title, Options: options})
	if err != nil {
		return err
	}
	switch indexOption(options, idx) {
	case optionReplace:
		return w.attach(ctx, req)
	case optionRemove:
		_, err = w.flow.RemoveDocument(req.ID)
		return w.report(ctx, err)
	default:
		return nil
	}
}

func (w *Wizard) attach(ctx context.Context, req models.DocumentRequirement) error {
	path, err := w.driver.Input(ctx, InputConfig{
		Message: fmt.Sprintf("Path to %s", req.Title),
		Help:    req.Description,
	})
	if err != nil {
		return err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	file, err := w.readFile(path)
	if err != nil {
		return w.report(ctx, err)
	}
	_, err = w.flow.AttachDocument(req.ID, file)
	return w.report(ctx, err)
}

// readFile loads a document from the wizard filesystem. The content type is
// left empty so the upload session sniffs it.
func (w *Wizard) readFile(path string) (models.File, error) {
	if !validation.IsAcceptedExtension(path) {
		return models.File{}, stderrors.NewUploadRejectedError(filepath.Base(path), string(validation.RejectUnsupportedType))
	}
	data, err := afero.ReadFile(w.fs, path)
	if err != nil {
		w.logger.Warn("document read failed", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return models.File{}, stderrors.NewValidationError("file", fmt.Sprintf("Could not read %s", path))
	}
	return models.File{
		Name: filepath.Base(path),
		Size: int64(len(data)),
		Data: data,
	}, nil
}

func (w *Wizard) submitted(ctx context.Context, snap flow.Snapshot) error {
	lines := []string{fmt.Sprintf("Application submitted. Reference: %s", snap.ApplicationID)}
	switch snap.Handoff.Status {
	case flow.HandoffDelivered:
		lines = append(lines, fmt.Sprintf("Forwarded for processing (%s)", snap.Handoff.Reference))
	case flow.HandoffFailed:
		lines = append(lines, snap.Handoff.Error)
	}
	return w.driver.Info(ctx, strings.Join(lines, "\n"))
}

// ==========================
// Formatting
// ==========================

func indexOption(options []string, idx int) string {
	if idx < 0 || idx >= len(options) {
		return ""
	}
	return options[idx]
}

func requirementLabel(r models.DocumentRequirement, uploaded map[string]models.DocumentMetadata) string {
	mark := "[ ]"
	label := r.Title
	if d, ok := uploaded[r.ID]; ok {
		mark = "[x]"
		label += " - " + d.FileName
	}
	if !r.Required {
		label += " (optional)"
	}
	return mark + " " + label
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func describeLocation(d *models.LocationData) string {
	if d == nil {
		return ""
	}
	s := fmt.Sprintf("%s, %s", d.City, d.State)
	if d.AverageMonthlyBill != nil {
		s += fmt.Sprintf(" - average bill $%.2f", *d.AverageMonthlyBill)
	}
	return s
}

func describeResult(r models.QualificationResult) string {
	var b strings.Builder
	switch r.Status {
	case models.StatusApproved:
		b.WriteString("You qualify for solar.")
	case models.StatusBorderline:
		b.WriteString("You may qualify for solar.")
	default:
		b.WriteString("You do not qualify right now.")
	}
	if r.Explanation != "" {
		b.WriteString("\n" + r.Explanation)
	}
	line := func(label, format string, v *float64) {
		if v != nil {
			b.WriteString("\n  " + label + ": " + fmt.Sprintf(format, *v))
		}
	}
	line("System size", "%.1f kW", r.SystemSizeKW)
	line("Monthly payment", "$%.2f", r.MonthlyPayment)
	line("Payback", "%.1f years", r.PaybackYears)
	line("Lifetime savings", "$%.0f", r.LifetimeSavings)
	line("Total cost", "$%.0f", r.TotalCost)
	line("Net cost after incentives", "$%.0f", r.NetCostAfterIncentives)
	if r.LoanTerms != nil {
		b.WriteString(fmt.Sprintf("\n  Loan: %.2f%% APR over %.0f years", r.LoanTerms.APR, r.LoanTerms.TermYears))
	}
	return b.String()
}
