// Package channel sends chat messages and turns each exchange into timeline entries.
//
// A send appends the user's message, dispatches exactly one backend call and
// races it against a soft deadline. The deadline only changes what is shown:
// the call keeps running and its answer is appended when it arrives.
package channel

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	apperrors "github.com/hrygo/repairdesk/internal/errors"
	"github.com/hrygo/repairdesk/internal/observability"
	"github.com/hrygo/repairdesk/plugin/support/timeline"
	"github.com/hrygo/repairdesk/plugin/support/timeout"
	"github.com/hrygo/repairdesk/server/gateway"
)

const (
	// WelcomeMessage is appended when the conversation start succeeds.
	WelcomeMessage = "こんにちは。お車の不具合について、気になる症状をお気軽にお聞かせください。"
	// TimeoutNotice is appended when the reply deadline elapses.
	TimeoutNotice = "回答の生成に時間がかかっています。このままもう少々お待ちください。"
	// ApologyReply replaces an empty reply.
	ApologyReply = "申し訳ありません。回答を取得できませんでした。"
	// EmptyMessageError is returned for blank input.
	EmptyMessageError = "メッセージを入力してください。"
)

// Backend is the part of the gateway the channel talks to.
type Backend interface {
	StartConversation(ctx context.Context, sessionID string) error
	SendMessage(ctx context.Context, req *gateway.ChatRequest) (*gateway.ChatReply, error)
}

// SessionProvider supplies the conversation session id.
type SessionProvider interface {
	GetOrCreate(ctx context.Context) string
}

// Outcome is how a send was resolved when Send returned.
type Outcome int

const (
	OutcomeDelivered Outcome = iota
	OutcomeTimedOut
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the typed outcome of one send.
type Result struct {
	Outcome Outcome
	// ReplyText is set when Outcome is OutcomeDelivered.
	ReplyText string
	// Reason is set when Outcome is OutcomeFailed.
	Reason gateway.FailureReason
	// Err is set when Outcome is OutcomeFailed or OutcomeTimedOut.
	Err *apperrors.AppError
	// Message is the timeline entry appended for this outcome.
	Message timeline.Message
}

type callResult struct {
	reply *gateway.ChatReply
	err   error
}

// Channel sends messages for one session and records them on its timeline.
type Channel struct {
	backend     Backend
	session     SessionProvider
	timeline    *timeline.Timeline
	deadline    time.Duration
	callTimeout time.Duration
	logger      *slog.Logger
	metrics     *observability.Metrics

	// pending tracks replies still expected after a timeout.
	pending sync.WaitGroup
}

// Option configures a Channel.
type Option func(*Channel)

// WithDeadline overrides the soft reply deadline.
func WithDeadline(d time.Duration) Option {
	return func(c *Channel) { c.deadline = d }
}

// WithCallTimeout overrides the hard cap on the underlying call.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Channel) { c.callTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Channel) { c.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Channel) { c.metrics = m }
}

// New creates a Channel appending to tl.
func New(backend Backend, session SessionProvider, tl *timeline.Timeline, opts ...Option) *Channel {
	c := &Channel{
		backend:     backend,
		session:     session,
		timeline:    tl,
		deadline:    timeout.ChatReplyDeadline,
		callTimeout: timeout.ProxyRequestTimeout,
		logger:      slog.Default(),
		metrics:     observability.GlobalMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Timeline returns the timeline the channel appends to.
func (c *Channel) Timeline() *timeline.Timeline {
	return c.timeline
}

// Start announces the conversation. On success the welcome message is
// appended. A failure leaves the timeline untouched and does not prevent
// sending; the error is returned for logging only.
func (c *Channel) Start(ctx context.Context) error {
	sessionID := c.session.GetOrCreate(ctx)
	reqCtx := observability.NewRequestContext(c.logger, "chat.start", sessionID)

	if err := c.backend.StartConversation(ctx, sessionID); err != nil {
		reqCtx.Warn("conversation start failed", slog.String("error", err.Error()))
		return err
	}
	c.timeline.AppendText(timeline.SenderSystem, WelcomeMessage)
	reqCtx.Debug("conversation started", reqCtx.DurationAttr())
	return nil
}

// Send sends text. Blank text is rejected before anything is appended or sent.
//
// The user message is appended before the call is dispatched. When the call
// settles before the deadline its outcome is appended and returned. Otherwise
// TimeoutNotice is appended, OutcomeTimedOut is returned, and the eventual
// outcome is appended exactly once when the call settles. Cancelling ctx does
// not cancel the call.
func (c *Channel) Send(ctx context.Context, text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, apperrors.InvalidArgument(EmptyMessageError)
	}

	sessionID := c.session.GetOrCreate(ctx)
	reqCtx := observability.NewRequestContext(c.logger, "chat", sessionID)
	c.metrics.RecordRequest("chat")

	c.timeline.AppendText(timeline.SenderUser, text)

	done := make(chan callResult, 1)
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.callTimeout)
	go func() {
		defer cancel()
		reply, err := c.backend.SendMessage(callCtx, &gateway.ChatRequest{Message: text, SessionID: sessionID})
		done <- callResult{reply: reply, err: err}
	}()

	timer := time.NewTimer(c.deadline)
	defer timer.Stop()

	select {
	case res := <-done:
		return c.settle(reqCtx, res), nil
	case <-timer.C:
	}

	notice := c.timeline.AppendText(timeline.SenderSystem, TimeoutNotice)
	c.metrics.RecordTimeout()
	reqCtx.Warn("reply deadline elapsed", slog.Duration("deadline", c.deadline))

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		late := c.settle(reqCtx, <-done)
		reqCtx.Info("late reply appended", slog.String("outcome", late.Outcome.String()), reqCtx.DurationAttr())
	}()

	return Result{Outcome: OutcomeTimedOut, Err: apperrors.Timeout(TimeoutNotice), Message: notice}, nil
}

// Wait blocks until every reply still expected after a timeout has been appended.
func (c *Channel) Wait() {
	c.pending.Wait()
}

// settle appends the outcome of a finished call.
func (c *Channel) settle(reqCtx *observability.RequestContext, res callResult) Result {
	c.metrics.RecordDuration("chat", reqCtx.Duration())

	if res.err != nil {
		c.metrics.RecordFailure("chat")
		appErr := gateway.ToAppError(res.err)
		reason := gateway.ClassifyFailure(res.err)
		reqCtx.Warn("chat failed",
			slog.String("reason", string(reason)),
			slog.String(observability.LogFieldErrorCode, string(appErr.Code)),
			slog.String("error", observability.Truncate(res.err.Error(), timeout.MaxTruncateLength)),
		)
		msg := c.timeline.AppendText(timeline.SenderSystem, appErr.UserMessage())
		return Result{Outcome: OutcomeFailed, Reason: reason, Err: appErr, Message: msg}
	}

	text := replyText(res.reply)
	msg := c.timeline.AppendText(timeline.SenderAI, text)
	reqCtx.Debug("reply received",
		slog.Int(observability.LogFieldMessageLen, len(text)),
		slog.String("reply", observability.Truncate(text, timeout.MaxTruncateLength)),
		reqCtx.DurationAttr(),
	)
	return Result{Outcome: OutcomeDelivered, ReplyText: text, Message: msg}
}

// replyText picks answer, then response, then the apology.
func replyText(reply *gateway.ChatReply) string {
	if reply == nil {
		return ApologyReply
	}
	if s := strings.TrimSpace(reply.Answer); s != "" {
		return reply.Answer
	}
	if s := strings.TrimSpace(reply.Response); s != "" {
		return reply.Response
	}
	return ApologyReply
}
