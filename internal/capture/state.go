// internal/capture/state.go
package capture

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/xkilldash9x/bugtrap/internal/config"
)

// ErrNotInitialized is returned by Init when the configuration cannot activate reporting.
var ErrNotInitialized = errors.New("capture not initialized")

// State holds the process-wide "initialized" flag. It is written once by the
// initialization step and only read by the capture entry points.
type State struct {
	initialized atomic.Bool
}

// NewState returns an uninitialized state.
func NewState() *State {
	return &State{}
}

// MarkInitialized flips the flag on.
func (s *State) MarkInitialized() {
	s.initialized.Store(true)
}

// Initialized reports whether reporting is active. A nil state is never initialized.
func (s *State) Initialized() bool {
	return s != nil && s.initialized.Load()
}

// Init performs the initialization step: a configuration with an API key yields an
// initialized state. Otherwise the returned state stays uninitialized, so gated
// entry points fall back to diagnostics, and the error explains why.
func Init(cfg config.CaptureConfig) (*State, error) {
	state := NewState()
	if strings.TrimSpace(cfg.APIKey) == "" {
		return state, errors.Join(ErrNotInitialized, errors.New("capture.api_key is required"))
	}
	state.MarkInitialized()
	return state, nil
}
