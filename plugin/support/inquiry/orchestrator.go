// Package inquiry drives the repair inquiry form: diagnosis, cost estimate,
// submission and follow-up notes over one draft.
//
// Each operation has its own loading and error slot, so a failing step never
// blocks the others. Diagnosis and estimate may run at the same time.
package inquiry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	apperrors "github.com/hrygo/repairdesk/internal/errors"
	"github.com/hrygo/repairdesk/internal/observability"
	"github.com/hrygo/repairdesk/plugin/support/timeout"
	"github.com/hrygo/repairdesk/server/gateway"
)

const (
	// DraftFrozenMessage is returned when the draft can no longer be edited.
	DraftFrozenMessage = "送信済みのため、内容を変更できません。"
	// BusyMessage is returned when an operation is not allowed outside editing.
	BusyMessage = "現在この操作は実行できません。"
	// NoDealMessage is returned for notes without a deal from this form.
	NoDealMessage = "お問い合わせが完了していないため、メッセージを送信できません。"
	// StaleResultMessage is returned when the symptom changed while a request was in flight.
	StaleResultMessage = "症状が変更されたため、結果を破棄しました。"
	// SupersededMessage is returned when a newer request for the same step was made.
	SupersededMessage = "新しいリクエストが送信されたため、結果を破棄しました。"
	// NoteFailedMessage is shown when the backend rejects a note without a reason.
	NoteFailedMessage = "メッセージの送信に失敗しました。"
)

// Backend is the part of the gateway the orchestrator talks to.
type Backend interface {
	Diagnose(ctx context.Context, req *gateway.DiagnoseRequest) (*gateway.DiagnoseReply, error)
	Estimate(ctx context.Context, req *gateway.EstimateRequest) (*gateway.EstimateReply, error)
	CreateDeal(ctx context.Context, req *gateway.DealRequest) (*gateway.DealReply, error)
	AddNote(ctx context.Context, dealID, note string) (*gateway.NoteReply, error)
}

// SessionProvider supplies the session id used to correlate logs.
type SessionProvider interface {
	GetOrCreate(ctx context.Context) string
}

// Orchestrator owns one inquiry draft.
type Orchestrator struct {
	backend    Backend
	defaults   Draft
	session    SessionProvider
	logger     *slog.Logger
	metrics    *observability.Metrics
	resetDelay time.Duration
	now        func() time.Time

	mu    sync.Mutex
	state State
	draft Draft
	// generation changes whenever SymptomDetail changes; results requested
	// under an older generation are discarded.
	generation uint64
	// diagnosisSeq and estimateSeq count requests per step; only the latest
	// request of a step may settle it.
	diagnosisSeq uint64
	estimateSeq  uint64

	diagnosis       *DiagnosisResult
	diagnosisStatus StepStatus
	estimate        *CostEstimate
	estimateStatus  StepStatus
	submitStatus    StepStatus

	deal        *Deal
	fieldsReset bool
	resetTimer  *time.Timer
	closed      bool

	pendingNote string
	noteStatus  StepStatus
	notes       []Note
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSession sets the session provider.
func WithSession(s SessionProvider) Option {
	return func(o *Orchestrator) { o.session = s }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithResetDelay overrides how long a submitted draft is shown before reset.
func WithResetDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.resetDelay = d }
}

// WithClock overrides the time source for note timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator in StateEditing with the draft set to defaults.
func New(backend Backend, defaults Draft, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend:    backend,
		defaults:   defaults,
		logger:     slog.Default(),
		metrics:    observability.GlobalMetrics(),
		resetDelay: timeout.SubmitResetDelay,
		now:        time.Now,
		state:      StateEditing,
		draft:      defaults,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) requestContext(ctx context.Context, operation string) *observability.RequestContext {
	var sessionID string
	if o.session != nil {
		sessionID = o.session.GetOrCreate(ctx)
	}
	return observability.NewRequestContext(o.logger, operation, sessionID)
}

// Update edits the draft. It fails once submission has started.
// Changing SymptomDetail clears the diagnosis and the estimate.
// fn runs under the orchestrator lock and must not call back into it.
func (o *Orchestrator) Update(fn func(*Draft)) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateEditing {
		return apperrors.InvalidState(DraftFrozenMessage)
	}
	before := o.draft.SymptomDetail
	fn(&o.draft)
	if o.draft.SymptomDetail != before {
		o.invalidateLocked()
	}
	return nil
}

func (o *Orchestrator) invalidateLocked() {
	o.generation++
	o.diagnosis = nil
	o.diagnosisStatus = StepStatus{}
	o.estimate = nil
	o.estimateStatus = StepStatus{}
}

// RequestDiagnosis asks the backend to diagnose the current symptom.
// A failure keeps the draft and any earlier result intact. A newer request
// supersedes one still in flight.
func (o *Orchestrator) RequestDiagnosis(ctx context.Context) (*DiagnosisResult, error) {
	o.mu.Lock()
	if err := o.checkSymptomLocked(); err != nil {
		o.mu.Unlock()
		return nil, err
	}
	gen := o.generation
	o.diagnosisSeq++
	seq := o.diagnosisSeq
	req := &gateway.DiagnoseRequest{
		Message:  fmt.Sprintf("カテゴリ: %s\n症状: %s", o.draft.SymptomCategory, strings.TrimSpace(o.draft.SymptomDetail)),
		Category: o.draft.SymptomCategory,
	}
	o.diagnosisStatus = StepStatus{Loading: true}
	o.mu.Unlock()

	reqCtx := o.requestContext(ctx, "diagnose")
	o.metrics.RecordRequest("diagnose")
	reply, err := o.backend.Diagnose(ctx, req)
	o.metrics.RecordDuration("diagnose", reqCtx.Duration())

	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.generation {
		reqCtx.Debug("discarding diagnosis for edited symptom")
		return nil, apperrors.InvalidState(StaleResultMessage)
	}
	if seq != o.diagnosisSeq {
		reqCtx.Debug("discarding superseded diagnosis")
		return nil, apperrors.InvalidState(SupersededMessage)
	}
	if err != nil {
		appErr := o.fail(reqCtx, "diagnose", err)
		o.diagnosisStatus = StepStatus{Err: appErr}
		return nil, appErr
	}

	o.diagnosis = toDiagnosis(reply)
	o.diagnosisStatus = StepStatus{}
	reqCtx.Info("diagnosis received", reqCtx.DurationAttr())
	res := *o.diagnosis
	return &res, nil
}

// RequestCostEstimate asks the backend to estimate the repair cost of the
// current symptom. It is independent of RequestDiagnosis.
func (o *Orchestrator) RequestCostEstimate(ctx context.Context) (*CostEstimate, error) {
	o.mu.Lock()
	if err := o.checkSymptomLocked(); err != nil {
		o.mu.Unlock()
		return nil, err
	}
	gen := o.generation
	o.estimateSeq++
	seq := o.estimateSeq
	req := &gateway.EstimateRequest{
		Symptoms: strings.TrimSpace(o.draft.SymptomDetail),
		Category: o.draft.SymptomCategory,
	}
	o.estimateStatus = StepStatus{Loading: true}
	o.mu.Unlock()

	reqCtx := o.requestContext(ctx, "estimate")
	o.metrics.RecordRequest("estimate")
	reply, err := o.backend.Estimate(ctx, req)
	o.metrics.RecordDuration("estimate", reqCtx.Duration())

	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.generation {
		reqCtx.Debug("discarding estimate for edited symptom")
		return nil, apperrors.InvalidState(StaleResultMessage)
	}
	if seq != o.estimateSeq {
		reqCtx.Debug("discarding superseded estimate")
		return nil, apperrors.InvalidState(SupersededMessage)
	}
	if err != nil {
		appErr := o.fail(reqCtx, "estimate", err)
		o.estimateStatus = StepStatus{Err: appErr}
		return nil, appErr
	}

	o.estimate = toEstimate(reply)
	o.estimateStatus = StepStatus{}
	reqCtx.Info("estimate received", reqCtx.DurationAttr())
	res := *o.estimate
	return &res, nil
}

func (o *Orchestrator) checkSymptomLocked() error {
	if o.state != StateEditing {
		return apperrors.InvalidState(BusyMessage)
	}
	if blank(o.draft.SymptomDetail) {
		return apperrors.InvalidArgument(MissingDetailMessage)
	}
	return nil
}

// Submit validates the draft and creates the deal. Validation failures make
// no network call. A backend failure returns the form to StateEditing.
// After success the editable fields are reset to the defaults once the reset
// delay has passed; the deal stays.
func (o *Orchestrator) Submit(ctx context.Context) (*Deal, error) {
	o.mu.Lock()
	if o.state != StateEditing {
		o.mu.Unlock()
		return nil, apperrors.InvalidState(BusyMessage)
	}
	if err := o.draft.Validate(); err != nil {
		o.mu.Unlock()
		return nil, err
	}
	submitted := o.draft
	o.state = StateSubmitting
	o.submitStatus = StepStatus{Loading: true}
	o.mu.Unlock()

	reqCtx := o.requestContext(ctx, "deal")
	o.metrics.RecordRequest("deal")
	reply, err := o.backend.CreateDeal(ctx, submitted.dealRequest())
	o.metrics.RecordDuration("deal", reqCtx.Duration())
	if err == nil && (reply == nil || reply.DealID == "") {
		err = apperrors.Backend(gateway.BackendMessagePrefix+"deal_id missing in response", nil)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if err != nil {
		appErr := o.fail(reqCtx, "deal", err)
		o.state = StateEditing
		o.submitStatus = StepStatus{Err: appErr}
		return nil, appErr
	}

	o.deal = &Deal{ID: reply.DealID.String(), Draft: submitted}
	o.state = StateSubmitted
	o.submitStatus = StepStatus{}
	if !o.closed {
		o.resetTimer = time.AfterFunc(o.resetDelay, o.resetFields)
	}
	reqCtx.Info("inquiry submitted", slog.String(observability.LogFieldDealID, o.deal.ID), reqCtx.DurationAttr())

	deal := *o.deal
	return &deal, nil
}

func (o *Orchestrator) resetFields() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.draft = o.defaults
	o.invalidateLocked()
	o.fieldsReset = true
}

// AddFollowUpNote sends a note for a deal created by this orchestrator.
// The text is kept as the pending note until a send succeeds.
func (o *Orchestrator) AddFollowUpNote(ctx context.Context, dealID, text string) (*NoteResult, error) {
	o.mu.Lock()
	o.pendingNote = text
	if o.deal == nil || o.deal.ID != dealID {
		o.mu.Unlock()
		return nil, apperrors.InvalidState(NoDealMessage)
	}
	if blank(text) {
		o.mu.Unlock()
		return nil, apperrors.InvalidArgument(EmptyNoteMessage)
	}
	o.noteStatus = StepStatus{Loading: true}
	o.mu.Unlock()

	note := strings.TrimSpace(text)
	reqCtx := o.requestContext(ctx, "note")
	o.metrics.RecordRequest("note")
	reply, err := o.backend.AddNote(ctx, dealID, note)
	o.metrics.RecordDuration("note", reqCtx.Duration())

	if err == nil && (reply == nil || !reply.Success) {
		msg := NoteFailedMessage
		if reply != nil && reply.Error != "" {
			msg = reply.Error
		}
		err = apperrors.Backend(gateway.BackendMessagePrefix+msg, nil)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if err != nil {
		appErr := o.fail(reqCtx, "note", err)
		o.noteStatus = StepStatus{Err: appErr}
		return &NoteResult{Success: false, Error: appErr.UserMessage()}, appErr
	}

	o.notes = append(o.notes, Note{DealID: dealID, Text: note, SentAt: o.now()})
	if o.pendingNote == text {
		o.pendingNote = ""
	}
	o.noteStatus = StepStatus{}
	reqCtx.Info("note sent", slog.String(observability.LogFieldDealID, dealID))
	return &NoteResult{Success: true}, nil
}

func (o *Orchestrator) fail(reqCtx *observability.RequestContext, operation string, err error) *apperrors.AppError {
	o.metrics.RecordFailure(operation)
	appErr := gateway.ToAppError(err)
	reqCtx.Warn(operation+" failed",
		slog.String(observability.LogFieldErrorCode, string(appErr.Code)),
		slog.String("error", observability.Truncate(err.Error(), timeout.MaxTruncateLength)),
	)
	return appErr
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := Snapshot{
		State:           o.state,
		Draft:           o.draft,
		DiagnosisStatus: o.diagnosisStatus,
		EstimateStatus:  o.estimateStatus,
		SubmitStatus:    o.submitStatus,
		FieldsReset:     o.fieldsReset,
		PendingNote:     o.pendingNote,
		NoteStatus:      o.noteStatus,
		Notes:           append([]Note(nil), o.notes...),
	}
	if o.diagnosis != nil {
		d := *o.diagnosis
		s.Diagnosis = &d
	}
	if o.estimate != nil {
		e := *o.estimate
		s.Estimate = &e
	}
	if o.deal != nil {
		d := *o.deal
		s.Deal = &d
	}
	return s
}

// Close stops a pending field reset.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.closed = true
	if o.resetTimer != nil {
		o.resetTimer.Stop()
	}
}
