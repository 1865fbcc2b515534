// internal/store/sink.go
package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/bugtrap/api/schemas"
)

// defaultInsertTimeout bounds a single insert so a slow database cannot stall
// the event source.
const defaultInsertTimeout = 5 * time.Second

// Sink adapts a Store to the reporting sink contract. Inserts are synchronous
// and failures are logged, never returned.
type Sink struct {
	store   *Store
	timeout time.Duration
	closer  func()
}

// NewSink wraps s. closer, if set, runs on Close (typically the pool's Close).
func NewSink(s *Store, closer func()) *Sink {
	return &Sink{store: s, timeout: defaultInsertTimeout, closer: closer}
}

func (k *Sink) Report(msg schemas.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()

	id, err := k.store.PersistMessage(ctx, msg)
	if err != nil {
		k.store.log.Error("Failed to persist message.", zap.String("kind", string(msg.Kind)), zap.Error(err))
		return
	}
	k.store.log.Debug("Persisted message.", zap.String("id", id.String()), zap.String("kind", string(msg.Kind)))
}

func (k *Sink) Close() error {
	if k.closer != nil {
		k.closer()
	}
	return nil
}
