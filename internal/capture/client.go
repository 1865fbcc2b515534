// internal/capture/client.go
package capture

import (
	"errors"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/xkilldash9x/bugtrap/api/schemas"
)

// Reporter is the outbound sink. Delivery is fire-and-forget: the capture layer
// never inspects a result, and timing or batching is the sink's concern.
type Reporter interface {
	Report(msg schemas.Message)
}

// ReporterFunc adapts a plain function to the Reporter interface.
type ReporterFunc func(msg schemas.Message)

func (f ReporterFunc) Report(msg schemas.Message) { f(msg) }

// notInitializedMsg is the single diagnostic line emitted by gated entry points.
const notInitializedMsg = "bugtrap is not initialized: call capture.Init before using this entry point"

// Client ties the classifier and wrappers to a reporter and the initialization state.
type Client struct {
	state    *State
	reporter Reporter
	logger   *zap.Logger
	// diag receives the "not initialized" diagnostics (the error console).
	diag *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithDiagnostics routes the not-initialized diagnostics to a dedicated logger.
func WithDiagnostics(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.diag = logger
		}
	}
}

// NewClient creates a client. A nil state behaves as never initialized.
func NewClient(state *State, reporter Reporter, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if state == nil {
		state = NewState()
	}
	c := &Client{
		state:    state,
		reporter: reporter,
		logger:   logger.Named("capture"),
	}
	c.diag = c.logger
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handle classifies a raw event and delivers the resulting message, if any. It
// never panics and always returns false, matching the window.onerror convention
// of letting the default handling proceed.
func (c *Client) Handle(d Discriminator, raw interface{}) bool {
	msg, ok, err := Classify(d, raw)
	if err != nil {
		c.reportFailure(d, err)
		return false
	}
	if ok {
		c.deliver(msg)
	} else {
		c.logger.Debug("Event dropped by classifier.",
			zap.String("discriminator", string(d)),
			zap.String("shape", describeShape(raw)))
	}
	return false
}

// HandleError is the entry point for window "error" events.
func (c *Client) HandleError(raw interface{}) bool {
	return c.Handle(Default, raw)
}

// HandleRejection is the entry point for window "unhandledrejection" events.
func (c *Client) HandleRejection(ev *RejectionEvent) bool {
	return c.Handle(Promise, ev)
}

// ReportError sends a caller-defined payload as-is. Payloads are not validated and
// repeated calls are never deduplicated.
func (c *Client) ReportError(payload interface{}) {
	if !c.state.Initialized() {
		c.notInitialized("ReportError")
		return
	}
	c.deliver(schemas.NewMessage(schemas.ReportDescriptor{Payload: payload}))
}

// deliver hands a message to the reporter. A panicking reporter is converted into
// an internal failure report so the host never sees it.
func (c *Client) deliver(msg schemas.Message) {
	if c.reporter == nil {
		c.logger.Warn("No reporter configured; message discarded.", zap.String("kind", string(msg.Kind)))
		return
	}
	if err := c.safeReport(msg); err != nil {
		c.reportFailure("report", err)
	}
}

func (c *Client) safeReport(msg schemas.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ClassifyError{Source: "report", Cause: r, Stack: string(debug.Stack())}
		}
	}()
	c.reporter.Report(msg)
	return nil
}

// reportFailure routes a classifier failure through the same reporter. If the
// reporter fails again, the failure is only logged.
func (c *Client) reportFailure(source Discriminator, err error) {
	failure := schemas.InternalFailure{
		Message: err.Error(),
		Source:  string(source),
	}
	var ce *ClassifyError
	if errors.As(err, &ce) {
		failure.Stack = ce.Stack
	}

	c.logger.Warn("Classifier failure.", zap.String("source", string(source)), zap.Error(err))
	if c.reporter == nil {
		return
	}
	msg := schemas.NewMessage(schemas.ReportDescriptor{Payload: failure})
	if rerr := c.safeReport(msg); rerr != nil {
		c.logger.Error("Reporter failed while delivering a classifier failure.",
			zap.Error(fmt.Errorf("%w (original: %v)", rerr, err)))
	}
}

func (c *Client) notInitialized(entry string, fields ...zap.Field) {
	c.diag.Error(notInitializedMsg, append([]zap.Field{zap.String("entry", entry)}, fields...)...)
}
