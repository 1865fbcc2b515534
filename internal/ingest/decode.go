// internal/ingest/decode.go
package ingest

import (
	"errors"
	"fmt"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/bugtrap/internal/browser/dom"
	"github.com/xkilldash9x/bugtrap/internal/capture"
)

// ErrUnknownKind is returned for envelopes whose kind names no listener.
var ErrUnknownKind = errors.New("unknown event kind")

// Envelope is the serialized form of one raw event, as sent by the in-page hook
// over the CDP binding and as stored one per line in event files.
type Envelope struct {
	Kind  string          `json:"kind"`
	Event json.RawMessage `json:"event"`
}

// wireErrorEvent mirrors the fields the hook copies off an ErrorEvent.
type wireErrorEvent struct {
	Message    string          `json:"message"`
	Filename   string          `json:"filename"`
	Lineno     int             `json:"lineno"`
	Colno      int             `json:"colno"`
	Error      interface{}     `json:"error"`
	Target     *dom.Snapshot   `json:"target"`
	SrcElement *dom.Snapshot   `json:"srcElement"`
	Path       []*dom.Snapshot `json:"path"`
	TimeStamp  float64         `json:"timeStamp"`
}

// Decode parses one envelope into the discriminator and the raw event the
// classifier expects. Shapes the classifier knows how to reject (null events,
// non-object rejections) are passed through rather than treated as decode
// errors, so they surface as internal failures.
func Decode(data []byte) (capture.Discriminator, interface{}, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("failed to decode event envelope: %w", err)
	}

	switch d := capture.Discriminator(env.Kind); d {
	case capture.Default:
		raw, err := decodeDefault(env.Event)
		return d, raw, err
	case capture.Promise:
		raw, err := decodeRejection(env.Event)
		return d, raw, err
	default:
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
}

func decodeDefault(data json.RawMessage) (interface{}, error) {
	var generic interface{}
	if err := json.Unmarshal(orNull(data), &generic); err != nil {
		return nil, fmt.Errorf("failed to decode error event: %w", err)
	}
	if _, ok := generic.(map[string]interface{}); !ok {
		// Strings (syntax errors reported as text), null and scalars are
		// classified as-is.
		return generic, nil
	}

	var wire wireErrorEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode error event: %w", err)
	}
	ev := &capture.ErrorEvent{
		Message:    wire.Message,
		Filename:   wire.Filename,
		Lineno:     wire.Lineno,
		Colno:      wire.Colno,
		Error:      wire.Error,
		Target:     wire.Target.AsNode(),
		SrcElement: wire.SrcElement.AsNode(),
		TimeStamp:  wire.TimeStamp,
	}
	if len(wire.Path) > 0 {
		ev.Path = make([]capture.Node, len(wire.Path))
		for i, s := range wire.Path {
			ev.Path[i] = s.AsNode()
		}
	}
	return ev, nil
}

func decodeRejection(data json.RawMessage) (interface{}, error) {
	var generic interface{}
	if err := json.Unmarshal(orNull(data), &generic); err != nil {
		return nil, fmt.Errorf("failed to decode rejection event: %w", err)
	}
	obj, ok := generic.(map[string]interface{})
	if !ok {
		return generic, nil
	}
	return &capture.RejectionEvent{Reason: obj["reason"]}, nil
}

func orNull(data json.RawMessage) []byte {
	if len(data) == 0 {
		return []byte("null")
	}
	return data
}
