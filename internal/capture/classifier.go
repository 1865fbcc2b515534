// internal/capture/classifier.go
package capture

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/xkilldash9x/bugtrap/api/schemas"
)

// ErrMalformedEvent is returned when a raw event cannot be read at all.
var ErrMalformedEvent = errors.New("malformed event")

// ClassifyError wraps a failure raised while classifying a raw event.
type ClassifyError struct {
	Source Discriminator
	// Cause is either an error or a recovered panic value.
	Cause interface{}
	Stack string
}

func (e *ClassifyError) Error() string {
	return fmt.Sprintf("classify %s event: %v", e.Source, e.Cause)
}

func (e *ClassifyError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}

// Classify turns a raw event into a message. It has no side effects; ok is false
// when the event is deliberately dropped. Panics raised while reading the event
// (for example by a misbehaving Node) are returned as a *ClassifyError.
func Classify(d Discriminator, raw interface{}) (msg schemas.Message, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			msg, ok = schemas.Message{}, false
			err = &ClassifyError{Source: d, Cause: r, Stack: string(debug.Stack())}
		}
	}()

	var desc schemas.Descriptor
	switch d {
	case Default:
		desc, err = classifyDefault(raw)
	case Promise:
		desc, err = classifyRejection(raw)
	default:
		// Unknown listeners are ignored rather than treated as failures.
		return schemas.Message{}, false, nil
	}
	if err != nil {
		return schemas.Message{}, false, &ClassifyError{Source: d, Cause: err}
	}
	if desc == nil {
		return schemas.Message{}, false, nil
	}
	return schemas.NewMessage(desc), true, nil
}

func classifyDefault(raw interface{}) (schemas.Descriptor, error) {
	var ev *ErrorEvent
	switch t := raw.(type) {
	case *ErrorEvent:
		if t == nil {
			return nil, fmt.Errorf("%w: nil *ErrorEvent", ErrMalformedEvent)
		}
		ev = t
	case ErrorEvent:
		ev = &t
	case string:
		// A bare string has no message field and no target.
		return schemas.GrammarDescriptor(t), nil
	case nil:
		return nil, fmt.Errorf("%w: nil event", ErrMalformedEvent)
	default:
		// Any other shape reads as an event with every field absent.
		return nil, nil
	}

	if ev.Message != "" {
		if !truthy(ev.Error) {
			// Bare messages without an error object (cross-origin "Script error.")
			// carry nothing actionable and are dropped.
			return nil, nil
		}
		return schemas.UncaughtDescriptor{
			Message:  ev.Message,
			Filename: ev.Filename,
			Row:      ev.Lineno,
			Col:      ev.Colno,
			Error:    stackOrValue(ev.Error),
		}, nil
	}

	target := ev.Target
	if target == nil {
		target = ev.SrcElement
	}
	if target == nil {
		return nil, nil
	}
	return describeResource(target, ev), nil
}

func describeResource(target Node, ev *ErrorEvent) schemas.ResourceDescriptor {
	return schemas.ResourceDescriptor{
		OuterHTML: target.OuterHTML(),
		Src:       target.Attr("src"),
		TagName:   target.TagName(),
		ID:        target.ID(),
		ClassName: target.ClassName(),
		Name:      target.Attr("name"),
		Type:      target.Attr("type"),
		Selector:  BuildSelector(target, ev.Path),
		TimeStamp: ev.TimeStamp,
	}
}

func classifyRejection(raw interface{}) (schemas.Descriptor, error) {
	var reason interface{}
	switch t := raw.(type) {
	case *RejectionEvent:
		if t == nil {
			return nil, fmt.Errorf("%w: nil *RejectionEvent", ErrMalformedEvent)
		}
		reason = t.Reason
	case RejectionEvent:
		reason = t.Reason
	default:
		return nil, fmt.Errorf("%w: %s is not a rejection event", ErrMalformedEvent, describeShape(raw))
	}

	text := reason
	if m, ok := messageOf(reason); ok {
		text = m
	}
	return schemas.PromiseDescriptor{
		Message: text,
		Error:   stackOrValue(reason),
	}, nil
}
