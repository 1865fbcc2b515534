// internal/capture/event.go
package capture

import (
	"fmt"
	"math"
	"reflect"

	"github.com/xkilldash9x/bugtrap/api/schemas"
)

// Discriminator selects which listener produced a raw event.
type Discriminator string

const (
	// Default covers window "error" events: runtime errors, resource failures and bare strings.
	Default Discriminator = "default"
	// Promise covers window "unhandledrejection" events.
	Promise Discriminator = "promise"
)

// ErrorEvent is the window-level error event as delivered to the capture layer.
type ErrorEvent struct {
	Message  string
	Filename string
	Lineno   int
	Colno    int
	// Error is the realized error object, if any. Values that are falsy in
	// JavaScript terms (nil, "", 0, false) count as absent.
	Error interface{}

	// Target and SrcElement identify the element of a resource failure; SrcElement
	// is the legacy field and is only consulted when Target is nil.
	Target     Node
	SrcElement Node
	// Path is the composed dispatch path, target first.
	Path      []Node
	TimeStamp float64
}

// RejectionEvent is the window-level unhandledrejection event.
type RejectionEvent struct {
	Reason interface{}
}

// stackTracer is implemented by error values that carry a stack trace.
type stackTracer interface {
	StackTrace() string
}

// messager is implemented by error-like values that expose a message field.
type messager interface {
	ErrorMessage() string
}

// truthy applies JavaScript truthiness to a decoded or in-process value.
func truthy(v interface{}) bool {
	if v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0 && !math.IsNaN(t)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// stackOf returns the stack trace carried by v, or "" when it has none.
func stackOf(v interface{}) string {
	switch t := v.(type) {
	case stackTracer:
		return t.StackTrace()
	case map[string]interface{}:
		if s, ok := t["stack"].(string); ok {
			return s
		}
	}
	return ""
}

// messageOf returns the message field of an error-like value and whether one was
// found with a truthy value.
func messageOf(v interface{}) (interface{}, bool) {
	switch t := v.(type) {
	case messager:
		m := t.ErrorMessage()
		return m, m != ""
	case error:
		m := t.Error()
		return m, m != ""
	case map[string]interface{}:
		m, ok := t["message"]
		return m, ok && truthy(m)
	}
	return nil, false
}

// stackOrValue implements the "stack, else the value itself" fallback used by
// every descriptor's error field. Go errors other than *schemas.JSError fall
// back to their text, since their fields are usually unexported and would
// encode as an empty object.
func stackOrValue(v interface{}) interface{} {
	if s := stackOf(v); s != "" {
		return s
	}
	switch t := v.(type) {
	case *schemas.JSError:
		return t
	case error:
		return t.Error()
	}
	return v
}

// describeShape names the dynamic type of a raw event for failure reports.
func describeShape(raw interface{}) string {
	if raw == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", raw)
}
