// internal/reporting/jsonl.go
package reporting

import (
	"fmt"
	"io"
	"sync"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/bugtrap/api/schemas"
	"github.com/xkilldash9x/bugtrap/internal/observability"
)

// JSONLinesSink writes one {"type","desc"} object per line. It is safe for
// concurrent use.
type JSONLinesSink struct {
	writer io.WriteCloser
	logger *zap.Logger
	mu     sync.Mutex
	enc    *json.Encoder
}

// NewJSONLinesSink creates a sink writing to w. The sink owns w.
func NewJSONLinesSink(w io.WriteCloser) *JSONLinesSink {
	return &JSONLinesSink{
		writer: w,
		logger: observability.GetLogger().Named("jsonl_sink"),
		enc:    json.NewEncoder(w),
	}
}

// Report encodes msg. Failures are logged; delivery is fire-and-forget.
func (s *JSONLinesSink) Report(msg schemas.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(msg); err != nil {
		s.logger.Error("Failed to write message.", zap.String("kind", string(msg.Kind)), zap.Error(err))
	}
}

func (s *JSONLinesSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writer.Close(); err != nil {
		return fmt.Errorf("failed to close output writer: %w", err)
	}
	return nil
}
