// -- cmd/pipeline.go --
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/bugtrap/api/schemas"
	"github.com/xkilldash9x/bugtrap/internal/capture"
	"github.com/xkilldash9x/bugtrap/internal/config"
	"github.com/xkilldash9x/bugtrap/internal/observability"
	"github.com/xkilldash9x/bugtrap/internal/reporting"
	"github.com/xkilldash9x/bugtrap/internal/store"
)

// pipeline is the capture client plus the sinks it reports into.
type pipeline struct {
	client  *capture.Client
	sink    reporting.Sink
	counter *reporting.Counter
}

// newPipeline initializes capture and builds the configured sink. An
// uninitialized capture state is logged, not fatal: the event handler is not
// gated on it.
func newPipeline(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*pipeline, error) {
	state, err := capture.Init(cfg.Capture())
	if err != nil {
		logger.Warn("Capture is not initialized; gated entry points will only emit diagnostics.", zap.Error(err))
	}

	sink, err := buildSink(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	counter := reporting.NewCounter()
	combined := reporting.Multi(sink, counter)
	client := capture.NewClient(state, combined, logger,
		capture.WithDiagnostics(observability.NewConsoleLogger(cfg.Logger())))

	return &pipeline{client: client, sink: combined, counter: counter}, nil
}

// buildSink selects the reporting sink for the configured output format.
func buildSink(ctx context.Context, cfg config.Interface, logger *zap.Logger) (reporting.Sink, error) {
	out := cfg.Output()
	if out.Format == "postgres" {
		s, closePool, err := store.Connect(ctx, cfg.Database(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to the message store: %w", err)
		}
		return store.NewSink(s, closePool), nil
	}

	path := out.Path
	if path != "" && path != "stdout" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("invalid output path %q: %w", path, err)
		}
		path = expanded
	}
	return reporting.New(out.Format, path, Version)
}

// Close flushes and closes the sinks.
func (p *pipeline) Close() error {
	return p.sink.Close()
}

// printSummary writes one line per captured kind, followed by the total.
func (p *pipeline) printSummary(w io.Writer) {
	counts := p.counter.Counts()
	for _, kind := range schemas.Kinds {
		if n := counts[kind]; n > 0 {
			fmt.Fprintf(w, "%-14s %d\n", kind, n)
		}
	}
	fmt.Fprintf(w, "Captured %d message(s).\n", p.counter.Total())
}

// applyOutputFlags copies the --format and --output flags onto cfg and re-validates it.
func applyOutputFlags(cfg config.Interface, format, output string) error {
	cfg.SetOutput(format, output)
	if v, ok := cfg.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid flags: %w", err)
		}
	}
	return nil
}
