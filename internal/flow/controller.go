// internal/flow/controller.go
package flow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	stderrors "solar-checker/internal/common/errors"
	"solar-checker/internal/common/logger"
	"solar-checker/internal/common/observability"
	"solar-checker/internal/common/validation"
	"solar-checker/internal/documents"
	"solar-checker/internal/geocode"
	"solar-checker/internal/models"
	"solar-checker/internal/upload"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransition = errors.New("INVALID_TRANSITION")
	ErrClosed            = errors.New("CONTROLLER_CLOSED")
	ErrMissingDependency = errors.New("MISSING_DEPENDENCY")
)

// ==========================
// Dependencies
// ==========================

type LocationResolver interface {
	Detect(ctx context.Context, loc geocode.Locator) (models.PostalCodeRecord, error)
}

type QualificationGateway interface {
	Submit(ctx context.Context, answers models.WizardAnswers) models.QualificationResult
}

type ReferenceData interface {
	LocationData(ctx context.Context, zip string) (*models.LocationData, error)
	CreditReference(ctx context.Context, zip string) (*models.CreditReference, error)
}

type ApplicationPublisher interface {
	Publish(ctx context.Context, app models.ApplicationSubmission) (string, error)
}

type Dependencies struct {
	Resolver  LocationResolver
	Gateway   QualificationGateway
	Reference ReferenceData
	// Requirements defaults to documents.RequirementsFor.
	Requirements func(method string) []models.DocumentRequirement
	// Previews defaults to an in-memory store.
	Previews *upload.PreviewStore
	// Publisher is optional; without one submitted applications are not
	// handed off.
	Publisher     ApplicationPublisher
	Logger        logger.Logger
	Observability *observability.Observability
}

// ==========================
// Controller
// ==========================

// Controller drives the wizard. One goroutine owns the state; commands and
// async completions are applied on it one at a time.
type Controller struct {
	deps   Dependencies
	cfg    *Config
	logger logger.Logger
	obs    *observability.Observability
	errs   *stderrors.ErrorHandler
	now    func() time.Time

	inbox   chan func(*state)
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once

	rootCtx    context.Context
	cancelRoot context.CancelFunc
	st         *state
}

func New(deps Dependencies, cfg *Config) (*Controller, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case deps.Resolver == nil:
		return nil, errors.Join(ErrMissingDependency, errors.New("location resolver"))
	case deps.Gateway == nil:
		return nil, errors.Join(ErrMissingDependency, errors.New("qualification gateway"))
	case deps.Reference == nil:
		return nil, errors.Join(ErrMissingDependency, errors.New("reference data"))
	}
	if deps.Requirements == nil {
		deps.Requirements = documents.RequirementsFor
	}
	if deps.Previews == nil {
		deps.Previews = upload.NewMemoryPreviewStore()
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if deps.Observability == nil {
		deps.Observability = observability.NewNoop()
	}

	log := logger.ForComponent(deps.Logger, "flow")
	rootCtx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		deps:       deps,
		cfg:        cfg,
		logger:     log,
		obs:        deps.Observability,
		errs:       stderrors.NewErrorHandler(log),
		now:        time.Now,
		inbox:      make(chan func(*state)),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		rootCtx:    rootCtx,
		cancelRoot: cancel,
		st:         newState(0),
	}
	c.startEpoch(c.st)

	go c.run()
	return c, nil
}

func newState(epoch uint64) *state {
	return &state{
		mode:    Stage(FirstStage),
		epoch:   epoch,
		lookup:  LookupState{Status: LookupIdle},
		handoff: HandoffState{Status: HandoffNone},
	}
}

func (c *Controller) run() {
	defer close(c.stopped)
	for {
		select {
		case msg := <-c.inbox:
			msg(c.st)
		case <-c.done:
			c.cancelRoot()
			if c.st.cancelEpoch != nil {
				c.st.cancelEpoch()
			}
			if c.st.session != nil {
				c.st.session.Close()
			}
			return
		}
	}
}

// Close stops the loop, cancels outstanding work and releases every
// preview. Safe to call more than once.
func (c *Controller) Close() {
	c.once.Do(func() {
		close(c.done)
		<-c.stopped
	})
}

func (c *Controller) exec(msg func(*state)) error {
	select {
	case c.inbox <- msg:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// do runs fn on the loop and returns the resulting snapshot.
func (c *Controller) do(fn func(s *state) error) (Snapshot, error) {
	type reply struct {
		snap Snapshot
		err  error
	}
	replies := make(chan reply, 1)
	if err := c.exec(func(s *state) {
		err := fn(s)
		replies <- reply{snap: s.snapshot(), err: err}
	}); err != nil {
		return Snapshot{}, err
	}
	r := <-replies
	return r.snap, r.err
}

func (c *Controller) post(msg func(*state)) {
	select {
	case c.inbox <- msg:
	case <-c.done:
	}
}

// spawn runs work off the loop. The returned closure is applied on the
// loop and reports false when its token no longer matches the state.
func (c *Controller) spawn(ctx context.Context, s *state, kind string, work func(ctx context.Context) func(*state) bool) {
	s.pending++
	go func() {
		start := time.Now()
		apply := work(ctx)
		c.post(func(s *state) {
			outcome := "applied"
			if !apply(s) {
				outcome = "stale"
				c.obs.RecordStale(c.rootCtx, kind)
				c.logger.Debug("discarded stale completion", map[string]interface{}{
					"kind":  kind,
					"epoch": s.epoch,
				})
			}
			c.obs.RecordAsyncDuration(c.rootCtx, kind, time.Since(start), outcome)

			s.pending--
			if s.pending == 0 {
				for _, w := range s.idleWaiters {
					close(w)
				}
				s.idleWaiters = nil
			}
		})
	}()
}

// WaitIdle blocks until no async work is outstanding.
func (c *Controller) WaitIdle(ctx context.Context) error {
	idle := make(chan struct{})
	if err := c.exec(func(s *state) {
		if s.pending == 0 {
			close(idle)
			return
		}
		s.idleWaiters = append(s.idleWaiters, idle)
	}); err != nil {
		return err
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

func (c *Controller) Snapshot() (Snapshot, error) {
	return c.do(func(*state) error { return nil })
}

func (c *Controller) startEpoch(s *state) {
	if s.cancelEpoch != nil {
		s.cancelEpoch()
	}
	s.epochCtx, s.cancelEpoch = context.WithCancel(c.rootCtx)
}

func (c *Controller) transition(s *state, to Mode) {
	from := s.mode
	s.mode = to
	c.obs.RecordTransition(c.rootCtx, from.String(), to.String())
	c.logger.Info("flow transition", map[string]interface{}{
		"from":  from.String(),
		"to":    to.String(),
		"epoch": s.epoch,
	})
}

func (c *Controller) invalid(command string, s *state) error {
	c.logger.Debug("command rejected", map[string]interface{}{
		"command": command,
		"mode":    s.mode.String(),
	})
	return stderrors.NewInvalidTransitionError(command, s.mode.String()).WithCause(ErrInvalidTransition)
}

// ==========================
// Stage 1: location
// ==========================

// SetPostalInput records the stage 1 text input. An acceptable code starts
// a location-data lookup; typing cancels a running detection.
func (c *Controller) SetPostalInput(code string) (Snapshot, error) {
	return c.do(func(s *state) error {
		if StageOf(s.mode) != 1 {
			return c.invalid("setPostalInput", s)
		}
		if s.detecting {
			s.detectSeq++
			s.detecting = false
		}
		c.setPostalInput(s, strings.TrimSpace(code))
		return nil
	})
}

func (c *Controller) setPostalInput(s *state, code string) {
	if code == s.postalInput && s.lookup.Zip == code &&
		(s.lookup.Status == LookupPending || s.lookup.Status == LookupSucceeded) {
		return
	}
	s.postalInput = code
	if !validation.IsAcceptablePostalCode(code) {
		s.lookup = LookupState{Status: LookupIdle}
		return
	}

	s.lookup = LookupState{Status: LookupPending, Zip: code}
	epoch := s.epoch
	c.spawn(s.epochCtx, s, "location_data", func(ctx context.Context) func(*state) bool {
		data, err := c.deps.Reference.LocationData(ctx, code)
		return func(s *state) bool {
			if s.epoch != epoch || s.postalInput != code || s.lookup.Zip != code || s.lookup.Status != LookupPending {
				return false
			}
			if err == nil && data == nil {
				err = stderrors.NewUpstreamSchemaError("reference", []string{"empty location data"})
			}
			if err != nil {
				s.lookup = LookupState{Status: LookupFailed, Zip: code, Error: c.errs.Handle("location_data", err)}
				return true
			}
			s.lookup = LookupState{Status: LookupSucceeded, Zip: code, Data: data}
			return true
		}
	})
}

// DetectLocation asks loc for coordinates and resolves them to a postal
// code, which then becomes the stage 1 input.
func (c *Controller) DetectLocation(loc geocode.Locator) (Snapshot, error) {
	return c.do(func(s *state) error {
		if StageOf(s.mode) != 1 {
			return c.invalid("detectLocation", s)
		}
		s.detectSeq++
		seq, epoch := s.detectSeq, s.epoch
		s.detecting = true
		s.detectionFailure, s.detectionError = "", ""

		c.spawn(s.epochCtx, s, "detect_location", func(ctx context.Context) func(*state) bool {
			record, err := c.deps.Resolver.Detect(ctx, loc)
			return func(s *state) bool {
				if s.epoch != epoch || s.detectSeq != seq || !s.detecting {
					return false
				}
				s.detecting = false
				if err != nil {
					reason := geocode.FailureReasonOf(err)
					if reason == "" {
						reason = geocode.Unavailable
					}
					s.detectionFailure = reason
					s.detectionError = c.errs.Handle("detect_location", stderrors.NewResolutionFailedError(string(reason), err))
					return true
				}
				c.setPostalInput(s, record.Code)
				return true
			}
		})
		return nil
	})
}

// ==========================
// Stages
// ==========================

// Submit completes the current stage. An answer for any other stage is an
// invalid transition; an invalid value is a validation error. Neither
// changes state.
func (c *Controller) Submit(answer Answer) (Snapshot, error) {
	return c.do(func(s *state) error {
		n := StageOf(s.mode)
		if n == 0 || answer == nil || answer.Stage() != n {
			return c.invalid("submit", s)
		}

		switch a := answer.(type) {
		case PostalAnswer:
			code, err := c.validatePostal(s, a)
			if err != nil {
				return err
			}
			s.answers.PostalCode = &code
		case BillAnswer:
			amount, err := c.validateBill(a)
			if err != nil {
				return err
			}
			s.answers.MonthlyBillAmount = &amount
		case CreditAnswer:
			band, err := validateCredit(a)
			if err != nil {
				return err
			}
			s.answers.CreditBand = &band
		case RoofAnswer:
			roof, err := c.validateRoof(a)
			if err != nil {
				return err
			}
			s.answers.RoofSize = &roof
		}

		if n < LastStage {
			c.enterStage(s, n+1)
			return nil
		}
		c.transition(s, LoadingMode{})
		c.qualify(s)
		return nil
	})
}

func (c *Controller) enterStage(s *state, n int) {
	c.transition(s, Stage(n))
	if n == 3 {
		c.fetchCreditHint(s)
	}
}

func (c *Controller) fetchCreditHint(s *state) {
	if s.answers.PostalCode == nil {
		return
	}
	zip := *s.answers.PostalCode
	if s.creditHintZip == zip {
		return
	}
	s.creditHintZip = zip
	s.creditHint = nil

	epoch := s.epoch
	c.spawn(s.epochCtx, s, "credit_reference", func(ctx context.Context) func(*state) bool {
		ref, err := c.deps.Reference.CreditReference(ctx, zip)
		return func(s *state) bool {
			if s.epoch != epoch || s.creditHintZip != zip {
				return false
			}
			if err != nil {
				c.logger.Warn("credit reference unavailable", map[string]interface{}{
					"zip":   zip,
					"error": err.Error(),
				})
				return true
			}
			s.creditHint = ref
			return true
		}
	})
}

// qualify calls the gateway and holds Loading for at least LoadingDelay.
func (c *Controller) qualify(s *state) {
	s.qualifySeq++
	seq, epoch := s.qualifySeq, s.epoch
	answers := s.answers.Clone()
	delay := c.cfg.LoadingDelay

	c.spawn(s.epochCtx, s, "qualification", func(ctx context.Context) func(*state) bool {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		result := c.deps.Gateway.Submit(ctx, answers)
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
		return func(s *state) bool {
			if s.epoch != epoch || s.qualifySeq != seq {
				return false
			}
			if _, ok := s.mode.(LoadingMode); !ok {
				return false
			}
			s.result = &result
			c.transition(s, ResultsMode{})
			return true
		}
	})
}

// Back returns to the previous screen. It is a no-op on stage 1.
func (c *Controller) Back() (Snapshot, error) {
	return c.do(func(s *state) error {
		switch m := s.mode.(type) {
		case StageMode:
			if m.N > FirstStage {
				c.enterStage(s, m.N-1)
			}
			return nil
		case FinancingMode:
			c.transition(s, ResultsMode{})
			return nil
		case DocumentsMode:
			c.transition(s, FinancingMode{})
			return nil
		default:
			return c.invalid("back", s)
		}
	})
}

// Restart returns to stage 1 from any mode, clearing every answer and
// releasing every preview. Completions of earlier work are discarded.
func (c *Controller) Restart() (Snapshot, error) {
	return c.do(func(s *state) error {
		if s.session != nil {
			s.session.Close()
		}
		from := s.mode
		cancel := s.cancelEpoch
		pending, waiters := s.pending, s.idleWaiters

		*s = *newState(s.epoch + 1)
		s.cancelEpoch = cancel
		s.pending, s.idleWaiters = pending, waiters
		c.startEpoch(s)

		c.obs.RecordTransition(c.rootCtx, from.String(), s.mode.String())
		c.logger.Info("flow restarted", map[string]interface{}{
			"from":  from.String(),
			"epoch": s.epoch,
		})
		return nil
	})
}

// ==========================
// Post-qualification
// ==========================

// SelectQuote moves from a quotable result to financing.
func (c *Controller) SelectQuote() (Snapshot, error) {
	return c.do(func(s *state) error {
		if _, ok := s.mode.(ResultsMode); !ok || s.result == nil || !s.result.Quotable() {
			return c.invalid("selectQuote", s)
		}
		c.transition(s, FinancingMode{})
		return nil
	})
}

// Proceed records the financing method and opens the document step. A
// different method than before starts a fresh upload session.
func (c *Controller) Proceed(method string) (Snapshot, error) {
	return c.do(func(s *state) error {
		if _, ok := s.mode.(FinancingMode); !ok {
			return c.invalid("proceed", s)
		}
		name := strings.TrimSpace(method)
		if name == "" {
			return stderrors.NewValidationError("financingMethod", "Please choose a financing option")
		}
		if m, ok := documents.ParseMethod(name); ok {
			name = string(m)
		}

		if s.session != nil && s.financingMethod != name {
			s.session.Close()
			s.session = nil
		}
		s.financingMethod = name
		s.requirements = c.deps.Requirements(name)
		if s.session == nil {
			s.session = upload.NewSession(c.deps.Previews, s.requirements, c.logger)
		}
		c.transition(s, DocumentsMode{})
		return nil
	})
}

// AttachDocument stores file in the slot for documentID.
func (c *Controller) AttachDocument(documentID string, file models.File) (Snapshot, error) {
	return c.do(func(s *state) error {
		if _, ok := s.mode.(DocumentsMode); !ok {
			return c.invalid("attachDocument", s)
		}
		_, err := s.session.Attach(documentID, file)
		return err
	})
}

// RemoveDocument empties the slot for documentID.
func (c *Controller) RemoveDocument(documentID string) (Snapshot, error) {
	return c.do(func(s *state) error {
		if _, ok := s.mode.(DocumentsMode); !ok {
			return c.invalid("removeDocument", s)
		}
		s.session.Remove(documentID)
		return nil
	})
}

// SubmitApplication finishes the wizard once every required document is
// present. The handoff runs in the background and never blocks Submitted.
func (c *Controller) SubmitApplication() (Snapshot, error) {
	return c.do(func(s *state) error {
		if _, ok := s.mode.(DocumentsMode); !ok {
			return c.invalid("submitApplication", s)
		}
		if !s.session.AllRequiredPresent(s.requirements) {
			return stderrors.NewValidationError("documents", "Please upload all required documents")
		}

		app := models.ApplicationSubmission{
			ApplicationID:   uuid.NewString(),
			FinancingMethod: s.financingMethod,
			Documents:       s.session.Metadata(),
			SubmittedAt:     c.now().UTC(),
		}
		if s.answers.PostalCode != nil {
			app.ZipCode = *s.answers.PostalCode
		}
		if s.answers.MonthlyBillAmount != nil {
			app.MonthlyBill = *s.answers.MonthlyBillAmount
		}
		if s.answers.CreditBand != nil {
			app.CreditBand = *s.answers.CreditBand
		}
		if s.answers.RoofSize != nil {
			app.RoofSquareFeet = s.answers.RoofSize.SquareFeet()
		}
		if s.result != nil {
			app.QualificationStatus = s.result.Status
		}

		s.applicationID = app.ApplicationID
		c.transition(s, SubmittedMode{})
		c.handoff(s, app)
		return nil
	})
}

func (c *Controller) handoff(s *state, app models.ApplicationSubmission) {
	if c.deps.Publisher == nil {
		s.handoff = HandoffState{Status: HandoffNone}
		return
	}
	s.handoff = HandoffState{Status: HandoffPending}

	epoch := s.epoch
	c.spawn(c.rootCtx, s, "handoff", func(ctx context.Context) func(*state) bool {
		ref, err := c.deps.Publisher.Publish(ctx, app)
		if err != nil {
			c.logger.Error("application handoff failed", map[string]interface{}{
				"applicationId": app.ApplicationID,
				"error":         err.Error(),
			})
		}
		return func(s *state) bool {
			if s.epoch != epoch || s.applicationID != app.ApplicationID {
				return false
			}
			if err != nil {
				s.handoff = HandoffState{
					Status: HandoffFailed,
					Error:  c.errs.Handle("handoff", stderrors.NewHandoffFailedError(err)),
				}
				return true
			}
			s.handoff = HandoffState{Status: HandoffDelivered, Reference: ref}
			return true
		}
	})
}
