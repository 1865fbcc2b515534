// internal/capture/wrap.go
package capture

import (
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/xkilldash9x/bugtrap/api/schemas"
)

// Method is an instrumentable operation. Receivers travel in the closure, so a
// method value (obj.Do) keeps its instance context when wrapped.
type Method func(args ...interface{}) (interface{}, error)

// Wrap returns an observed version of m. Results pass through unchanged. When m
// returns an error, one caughtError message is reported and the very same error is
// returned; when m panics, one message is reported and the same value is
// re-panicked. The wrapper never swallows a failure.
//
// Wrapping is decided once, at wrap time: if the client is not initialized a
// diagnostic is logged and m is returned as is.
func (c *Client) Wrap(name string, m Method) Method {
	if !c.state.Initialized() {
		c.notInitialized("Wrap", zap.String("method", name))
		return m
	}
	return func(args ...interface{}) (interface{}, error) {
		if m == nil {
			return nil, nil
		}
		return observe(c, name, args, func() (interface{}, error) {
			return m(args...)
		})
	}
}

// WrapFunc1 is the typed form of Wrap for single-argument functions.
func WrapFunc1[A, R any](c *Client, name string, fn func(A) (R, error)) func(A) (R, error) {
	if !c.state.Initialized() {
		c.notInitialized("Wrap", zap.String("method", name))
		return fn
	}
	return func(a A) (R, error) {
		return observe(c, name, []interface{}{a}, func() (R, error) {
			return fn(a)
		})
	}
}

// WrapFunc2 is the typed form of Wrap for two-argument functions.
func WrapFunc2[A, B, R any](c *Client, name string, fn func(A, B) (R, error)) func(A, B) (R, error) {
	if !c.state.Initialized() {
		c.notInitialized("Wrap", zap.String("method", name))
		return fn
	}
	return func(a A, b B) (R, error) {
		return observe(c, name, []interface{}{a, b}, func() (R, error) {
			return fn(a, b)
		})
	}
}

// WrapLazy covers values produced at construction time, such as function-typed
// struct fields. Nothing is captured: the producer sees no call arguments, so a
// caughtError cannot be built here and failures are left to the global handlers.
// The producer is returned unchanged.
func WrapLazy[T any](c *Client, name string, init func() T) func() T {
	if !c.state.Initialized() {
		c.notInitialized("WrapLazy", zap.String("field", name))
	}
	return init
}

// observe runs call and reports a caughtError on failure before handing the
// failure back to the caller untouched.
func observe[R any](c *Client, name string, args []interface{}, call func() (R, error)) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.reportCaught(name, args, stackOrValue(r), string(debug.Stack()))
			panic(r)
		}
	}()

	result, err = call()
	if err != nil {
		c.reportCaught(name, args, stackOrValue(err), "")
	}
	return result, err
}

func (c *Client) reportCaught(name string, args []interface{}, failure interface{}, goStack string) {
	params := make([]interface{}, len(args))
	copy(params, args)

	if goStack != "" {
		c.logger.Debug("Wrapped method panicked.", zap.String("method", name), zap.String("stack", goStack))
	}
	c.deliver(schemas.NewMessage(schemas.CaughtDescriptor{
		Method: name,
		Params: params,
		Error:  failure,
	}))
}
