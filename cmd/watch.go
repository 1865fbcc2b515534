// -- cmd/watch.go --
package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/bugtrap/internal/browser"
	"github.com/xkilldash9x/bugtrap/internal/observability"
)

// newWatchCmd creates the `watch` command.
func newWatchCmd() *cobra.Command {
	var (
		format   string
		output   string
		headless bool
		settle   time.Duration
	)

	watchCmd := &cobra.Command{
		Use:   "watch URL...",
		Short: "Loads pages in a headless browser and reports every error they raise",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("headless") {
				cfg.SetBrowserHeadless(headless)
			}
			if cmd.Flags().Changed("settle") {
				if settle < 0 {
					return fmt.Errorf("invalid flags: --settle must not be negative")
				}
				cfg.SetBrowserSettle(settle)
			}
			if err := applyOutputFlags(cfg, format, output); err != nil {
				return err
			}

			urls := normalizeURLs(args)
			p, err := newPipeline(ctx, cfg, logger)
			if err != nil {
				return err
			}

			watcher := browser.NewWatcher(cfg.Browser(), p.client, logger)
			watchErr := watcher.Watch(ctx, urls...)
			closeErr := p.Close()
			p.printSummary(cmd.ErrOrStderr())

			if watchErr != nil {
				if ctx.Err() != nil && errors.Is(watchErr, ctx.Err()) {
					logger.Warn("Watch interrupted.", zap.Error(watchErr))
					return closeErr
				}
				return fmt.Errorf("watch failed: %w", watchErr)
			}
			if closeErr != nil {
				return fmt.Errorf("failed to close output: %w", closeErr)
			}
			return nil
		},
	}

	watchCmd.Flags().StringVarP(&format, "format", "f", "", "output format: jsonl, sarif, log or postgres (default from config)")
	watchCmd.Flags().StringVarP(&output, "output", "o", "", "output file, or stdout (default from config)")
	watchCmd.Flags().BoolVar(&headless, "headless", true, "run the browser without a window")
	watchCmd.Flags().DurationVar(&settle, "settle", 0, "how long to observe each page after it loads (default from config)")
	return watchCmd
}

// normalizeURLs defaults scheme-less targets to https.
func normalizeURLs(args []string) []string {
	urls := make([]string, 0, len(args))
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		if !strings.Contains(arg, "://") && !strings.HasPrefix(arg, "about:") && !strings.HasPrefix(arg, "data:") {
			arg = "https://" + arg
		}
		urls = append(urls, arg)
	}
	return urls
}
