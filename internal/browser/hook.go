// internal/browser/hook.go
package browser

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// BindingName is the page-global function the hook calls with each serialized event.
const BindingName = "__bugtrapReport"

//go:embed hook.js
var hookScript string

// Instrument exposes the binding and installs the listener hook on every new
// document of the tab. It must run before navigation.
func Instrument() chromedp.Tasks {
	return chromedp.Tasks{
		runtime.Enable(),
		runtime.AddBinding(BindingName),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if _, err := page.AddScriptToEvaluateOnNewDocument(hookScript).Do(ctx); err != nil {
				return fmt.Errorf("failed to inject error hook: %w", err)
			}
			return nil
		}),
	}
}
