package capture

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/bugtrap/api/schemas"
)

// calculator gives the wrapped methods an instance context to close over.
type calculator struct {
	offset int
}

func (c *calculator) Plus(args ...interface{}) (interface{}, error) {
	sum := c.offset
	for _, a := range args {
		n, ok := a.(int)
		if !ok {
			return nil, errors.New("not a number: " + strconv.Quote(a.(string)))
		}
		sum += n
	}
	return sum, nil
}

func (c *calculator) Divide(args ...interface{}) (interface{}, error) {
	return args[0].(int) / args[1].(int), nil
}

func caught(t *testing.T, reporter *recordingReporter) schemas.CaughtDescriptor {
	t.Helper()
	msg := reporter.single(t)
	require.Equal(t, schemas.KindCaughtError, msg.Kind)
	return msg.Descriptor.(schemas.CaughtDescriptor)
}

func TestWrap(t *testing.T) {
	t.Run("passes results through", func(t *testing.T) {
		client, reporter, _ := newTestClient(true)
		plus := client.Wrap("plus", (&calculator{offset: 1}).Plus)

		got, err := plus(2, 3)
		require.NoError(t, err)
		assert.Equal(t, 6, got, "receiver state must be preserved")
		assert.Empty(t, reporter.all())
	})

	t.Run("reports and returns the same error", func(t *testing.T) {
		client, reporter, _ := newTestClient(true)
		plus := client.Wrap("plus", (&calculator{}).Plus)

		_, err := plus(1, "two")
		require.Error(t, err)

		desc := caught(t, reporter)
		assert.Equal(t, "plus", desc.Method)
		assert.Equal(t, []interface{}{1, "two"}, desc.Params)
		assert.Equal(t, `not a number: "two"`, desc.Error, "errors without a stack are reported by their text")
	})

	t.Run("error identity is preserved", func(t *testing.T) {
		client, _, _ := newTestClient(true)
		sentinel := &schemas.JSError{Name: "RangeError", Message: "out of range", Stack: "RangeError: out of range\n    at f"}
		failing := client.Wrap("failing", func(args ...interface{}) (interface{}, error) {
			return "partial", sentinel
		})

		got, err := failing()
		assert.Equal(t, "partial", got)
		assert.Same(t, sentinel, err)
	})

	t.Run("uses the stack when the error has one", func(t *testing.T) {
		client, reporter, _ := newTestClient(true)
		sentinel := &schemas.JSError{Message: "m", Stack: "at g"}
		failing := client.Wrap("failing", func(args ...interface{}) (interface{}, error) {
			return nil, sentinel
		})

		_, _ = failing()
		desc := caught(t, reporter)
		assert.Equal(t, "at g", desc.Error)
		assert.Equal(t, []interface{}{}, desc.Params)
	})

	t.Run("reports and re-panics with the original value", func(t *testing.T) {
		client, reporter, _ := newTestClient(true)
		divide := client.Wrap("divide", (&calculator{}).Divide)

		var recovered interface{}
		func() {
			defer func() { recovered = recover() }()
			_, _ = divide(1, 0)
		}()

		require.NotNil(t, recovered)
		runtimeErr, ok := recovered.(error)
		require.True(t, ok)
		assert.Contains(t, runtimeErr.Error(), "integer divide by zero")

		desc := caught(t, reporter)
		assert.Equal(t, "divide", desc.Method)
		assert.Equal(t, []interface{}{1, 0}, desc.Params)
		assert.Equal(t, runtimeErr.Error(), desc.Error)
	})

	t.Run("reports once per failing call", func(t *testing.T) {
		client, reporter, _ := newTestClient(true)
		plus := client.Wrap("plus", (&calculator{}).Plus)

		_, _ = plus("a")
		_, _ = plus(1)
		_, _ = plus("b")
		assert.Len(t, reporter.all(), 2)
	})

	t.Run("nil method behaves as a no-op", func(t *testing.T) {
		client, reporter, _ := newTestClient(true)
		got, err := client.Wrap("missing", nil)()
		assert.Nil(t, got)
		assert.NoError(t, err)
		assert.Empty(t, reporter.all())
	})

	t.Run("is inert when not initialized", func(t *testing.T) {
		client, reporter, logs := newTestClient(false)
		plus := client.Wrap("plus", (&calculator{}).Plus)

		require.Equal(t, 1, logs.Len(), "one diagnostic at wrap time")
		assert.Equal(t, "plus", logs.All()[0].ContextMap()["method"])

		_, err := plus("x")
		assert.Error(t, err)
		assert.Empty(t, reporter.all())
		assert.Equal(t, 1, logs.Len(), "calls add no diagnostics")
	})
}

func TestWrapTyped(t *testing.T) {
	t.Run("single argument", func(t *testing.T) {
		client, reporter, _ := newTestClient(true)
		parse := WrapFunc1(client, "parse", strconv.Atoi)

		n, err := parse("12")
		require.NoError(t, err)
		assert.Equal(t, 12, n)

		_, err = parse("twelve")
		var numErr *strconv.NumError
		require.ErrorAs(t, err, &numErr)

		desc := caught(t, reporter)
		assert.Equal(t, "parse", desc.Method)
		assert.Equal(t, []interface{}{"twelve"}, desc.Params)
		assert.Equal(t, numErr.Error(), desc.Error)
	})

	t.Run("two arguments with panic", func(t *testing.T) {
		client, reporter, _ := newTestClient(true)
		div := WrapFunc2(client, "div", func(a, b int) (int, error) {
			if b == 0 {
				panic("division by zero")
			}
			return a / b, nil
		})

		assert.PanicsWithValue(t, "division by zero", func() {
			_, _ = div(4, 0)
		})
		desc := caught(t, reporter)
		assert.Equal(t, []interface{}{4, 0}, desc.Params)
		assert.Equal(t, "division by zero", desc.Error)
	})

	t.Run("uninitialized returns the original function", func(t *testing.T) {
		client, _, logs := newTestClient(false)
		WrapFunc2(client, "div", func(a, b int) (int, error) { return a / b, nil })
		assert.Equal(t, 1, logs.Len())
	})
}

func TestWrapLazy(t *testing.T) {
	t.Run("exposes the produced value and captures nothing", func(t *testing.T) {
		client, reporter, logs := newTestClient(true)
		handler := WrapLazy(client, "onClick", func() func(int) int {
			return func(n int) int { return n * 2 }
		})

		assert.Equal(t, 8, handler()(4))
		assert.Empty(t, reporter.all())
		assert.Zero(t, logs.Len())
	})

	t.Run("logs when not initialized", func(t *testing.T) {
		client, _, logs := newTestClient(false)
		value := WrapLazy(client, "field", func() string { return "v" })
		assert.Equal(t, "v", value())
		assert.Equal(t, 1, logs.Len())
	})
}
