// internal/ingest/stream.go
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/hpcloud/tail"
	"go.uber.org/zap"

	"github.com/xkilldash9x/bugtrap/internal/capture"
)

// maxLineSize bounds a single serialized event. Resource events carry outerHTML,
// which can be large for inline scripts.
const maxLineSize = 4 * 1024 * 1024

// Handler receives each decoded event. The capture client's Handle method
// satisfies it.
type Handler func(d capture.Discriminator, raw interface{}) bool

// Stats summarizes a read.
type Stats struct {
	Events  int
	Skipped int
}

// ReadLines decodes newline-delimited envelopes from r and passes each to h.
// Blank lines are ignored; undecodable lines are logged and skipped.
func ReadLines(ctx context.Context, r io.Reader, logger *zap.Logger, h Handler) (Stats, error) {
	var stats Stats
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		lineNo++
		if handleLine(scanner.Bytes(), logger.With(zap.Int("line", lineNo)), h) {
			stats.Events++
		} else if len(bytes.TrimSpace(scanner.Bytes())) > 0 {
			stats.Skipped++
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read events: %w", err)
	}
	return stats, nil
}

// Follow tails the event file at path and dispatches every new line until ctx is
// cancelled. With fromStart the existing content is replayed first.
func Follow(ctx context.Context, path string, fromStart bool, logger *zap.Logger, h Handler) error {
	whence := io.SeekEnd
	if fromStart {
		whence = io.SeekStart
	}
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Poll:      true,
		Location:  &tail.SeekInfo{Offset: 0, Whence: whence},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to tail event file: %w", err)
	}
	defer func() {
		_ = t.Stop()
		t.Cleanup()
	}()

	logger.Info("Following event file.", zap.String("path", path))
	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping event file follower.")
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				logger.Warn("Error reading from event file", zap.Error(line.Err))
				continue
			}
			handleLine([]byte(line.Text), logger, h)
		}
	}
}

// handleLine decodes and dispatches one line, reporting whether an event was
// handed to h.
func handleLine(line []byte, logger *zap.Logger, h Handler) bool {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return false
	}
	d, raw, err := Decode(line)
	if err != nil {
		logger.Warn("Skipping undecodable event.", zap.Error(err))
		return false
	}
	h(d, raw)
	return true
}
