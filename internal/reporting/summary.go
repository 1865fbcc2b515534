// internal/reporting/summary.go
package reporting

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xkilldash9x/bugtrap/api/schemas"
)

// Summary renders a one-line human description of msg.
func Summary(msg schemas.Message) string {
	switch d := msg.Descriptor.(type) {
	case schemas.UncaughtDescriptor:
		return d.Message
	case schemas.ResourceDescriptor:
		if d.Src != "" {
			return fmt.Sprintf("Failed to load %s resource %s", strings.ToLower(d.TagName), d.Src)
		}
		return fmt.Sprintf("Failed to load %s resource", strings.ToLower(d.TagName))
	case schemas.GrammarDescriptor:
		return string(d)
	case schemas.PromiseDescriptor:
		return fmt.Sprintf("Unhandled rejection: %v", valueOrUndefined(d.Message))
	case schemas.CaughtDescriptor:
		return fmt.Sprintf("Error in %s", d.Method)
	case schemas.ReportDescriptor:
		if f, ok := d.Payload.(schemas.InternalFailure); ok {
			return "Internal failure: " + f.Message
		}
		return "Reported error"
	}
	return string(msg.Kind)
}

// Location returns where the error happened, when the descriptor says so: a
// "file:row:col" for runtime errors and the element selector for resources.
func Location(msg schemas.Message) string {
	switch d := msg.Descriptor.(type) {
	case schemas.UncaughtDescriptor:
		if d.Filename == "" {
			return ""
		}
		return fmt.Sprintf("%s:%d:%d", d.Filename, d.Row, d.Col)
	case schemas.ResourceDescriptor:
		return d.Selector
	}
	return ""
}

func valueOrUndefined(v interface{}) interface{} {
	if v == nil {
		return "undefined"
	}
	return v
}

// -- Fan-out and counting --

// multi fans every message out to several reporters in order.
type multi []Sink

// Multi returns a sink delivering to each of sinks. Close closes all of them and
// returns the first error.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

func (m multi) Report(msg schemas.Message) {
	for _, s := range m {
		s.Report(msg)
	}
}

func (m multi) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Counter tallies messages per kind.
type Counter struct {
	mu     sync.Mutex
	counts map[schemas.Kind]int
}

func NewCounter() *Counter {
	return &Counter{counts: make(map[schemas.Kind]int)}
}

func (c *Counter) Report(msg schemas.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[msg.Kind]++
}

func (c *Counter) Close() error { return nil }

// Counts returns a copy of the tally.
func (c *Counter) Counts() map[schemas.Kind]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[schemas.Kind]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// Total returns the number of messages seen.
func (c *Counter) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, v := range c.counts {
		total += v
	}
	return total
}
