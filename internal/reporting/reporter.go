// internal/reporting/reporter.go
package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/xkilldash9x/bugtrap/internal/capture"
)

// Sink is a capture.Reporter that owns an output and must be closed to flush it.
type Sink interface {
	capture.Reporter
	// Close finalizes the output and releases any underlying resources (e.g., file handles).
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a file or stdout backed sink for the specified format. The
// "postgres" format is built by the store package, not here.
func New(format, outputPath, toolVersion string) (Sink, error) {
	if format == "log" {
		return NewLogSink(nil), nil
	}

	var writer io.WriteCloser
	isStdOut := outputPath == "" || outputPath == "stdout"

	if isStdOut {
		// Wrap Stdout so Close() is a no-op.
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}

	switch format {
	case "jsonl", "":
		return NewJSONLinesSink(writer), nil
	case "sarif":
		// NewSARIFReporter takes ownership of the writer.
		return NewSARIFReporter(writer, toolVersion), nil
	default:
		if !isStdOut {
			writer.Close()
		}
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
