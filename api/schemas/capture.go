// api/schemas/capture.go
package schemas

import (
	"encoding/json"
	"fmt"
)

// -- Message Taxonomy --

// Kind identifies which of the captured error categories a Message belongs to.
// The set is closed; a message's kind is always derived from its descriptor.
type Kind string

// Constants for the captured error kinds. The values double as the wire "type" field.
const (
	KindUncaughtError Kind = "uncaughtError" // Runtime error with a realized error object.
	KindResourceError Kind = "resourceError" // A resource element (img, script, link) failed to load.
	KindGrammarError  Kind = "grammarError"  // Syntax-level error surfaced as a bare string.
	KindPromiseError  Kind = "promiseError"  // Unhandled promise rejection.
	KindCaughtError   Kind = "caughtError"   // Failure observed inside a wrapped method.
	KindReportError   Kind = "reportError"   // Caller-supplied payload sent through ReportError.
)

// Kinds lists every Kind in declaration order.
var Kinds = []Kind{
	KindUncaughtError,
	KindResourceError,
	KindGrammarError,
	KindPromiseError,
	KindCaughtError,
	KindReportError,
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Descriptor is the kind-specific body of a Message.
type Descriptor interface {
	Kind() Kind
}

// Message is a single normalized error handed to a reporting sink. It is built,
// delivered and dropped within one call; it carries no identity.
type Message struct {
	Kind       Kind
	Descriptor Descriptor
}

// NewMessage wraps a descriptor, taking the kind from the descriptor itself so
// that a kind and a mismatched descriptor shape can never be combined.
func NewMessage(desc Descriptor) Message {
	if desc == nil {
		return Message{}
	}
	return Message{Kind: desc.Kind(), Descriptor: desc}
}

// IsZero reports whether the message is empty (no descriptor was attached).
func (m Message) IsZero() bool {
	return m.Descriptor == nil
}

// wireMessage is the JSON shape shared with the browser-side reporting protocol.
type wireMessage struct {
	Type Kind        `json:"type"`
	Desc interface{} `json:"desc"`
}

// MarshalJSON encodes the message as {"type": kind, "desc": descriptor}.
func (m Message) MarshalJSON() ([]byte, error) {
	if m.Descriptor == nil {
		return nil, fmt.Errorf("cannot marshal message without a descriptor")
	}
	var desc interface{} = m.Descriptor
	switch d := m.Descriptor.(type) {
	case GrammarDescriptor:
		desc = string(d)
	case ReportDescriptor:
		desc = d.Payload
	}
	return json.Marshal(wireMessage{Type: m.Kind, Desc: desc})
}

// -- Descriptors --

// UncaughtDescriptor describes a runtime error that reached the window error handler
// together with a realized error object.
type UncaughtDescriptor struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	// Error holds the error's stack trace, or the raw error value when it has none.
	Error interface{} `json:"error"`
}

func (UncaughtDescriptor) Kind() Kind { return KindUncaughtError }

// ResourceDescriptor describes an element whose resource failed to load.
type ResourceDescriptor struct {
	OuterHTML string  `json:"outerHTML"`
	Src       string  `json:"src,omitempty"`
	TagName   string  `json:"tagName"`
	ID        string  `json:"id,omitempty"`
	ClassName string  `json:"className,omitempty"`
	Name      string  `json:"name,omitempty"`
	Type      string  `json:"type,omitempty"`
	Selector  string  `json:"selector"`
	TimeStamp float64 `json:"timeStamp"`
}

func (ResourceDescriptor) Kind() Kind { return KindResourceError }

// GrammarDescriptor is the raw string surfaced for syntax-level errors.
type GrammarDescriptor string

func (GrammarDescriptor) Kind() Kind { return KindGrammarError }

// PromiseDescriptor describes an unhandled rejection. Both fields fall back to the
// rejection reason itself when it is not error-like.
type PromiseDescriptor struct {
	Message interface{} `json:"message"`
	Error   interface{} `json:"error"`
}

func (PromiseDescriptor) Kind() Kind { return KindPromiseError }

// CaughtDescriptor describes a failure inside a wrapped method.
type CaughtDescriptor struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
	Error  interface{}   `json:"error"`
}

func (CaughtDescriptor) Kind() Kind { return KindCaughtError }

// ReportDescriptor carries an arbitrary, unvalidated caller payload.
type ReportDescriptor struct {
	Payload interface{}
}

func (ReportDescriptor) Kind() Kind { return KindReportError }

// -- Error Values --

// JSError is a realized JavaScript Error object as seen by the capture layer.
type JSError struct {
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// Error implements the error interface using the JavaScript "Name: message" form.
func (e *JSError) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return e.Name + ": " + e.Message
}

// ErrorMessage returns the bare message field, without the name prefix.
func (e *JSError) ErrorMessage() string { return e.Message }

// StackTrace returns the recorded stack, which may be empty.
func (e *JSError) StackTrace() string { return e.Stack }

// InternalFailure is the payload reported when classification itself fails.
// It travels as a reportError message so the kind set stays closed.
type InternalFailure struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
	// Source names the entry point that failed (e.g. "default", "promise").
	Source string `json:"source"`
}
