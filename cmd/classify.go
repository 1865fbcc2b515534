// -- cmd/classify.go --
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/antchfx/htmlquery"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/bugtrap/internal/browser/dom"
	"github.com/xkilldash9x/bugtrap/internal/capture"
	"github.com/xkilldash9x/bugtrap/internal/ingest"
	"github.com/xkilldash9x/bugtrap/internal/observability"
)

// defaultResourceXPath matches the elements whose failed loads produce resource errors.
const defaultResourceXPath = "//img | //script | //link | //iframe | //video | //audio | //source"

type classifyOptions struct {
	format    string
	output    string
	follow    bool
	fromStart bool
	htmlFile  string
	xpath     string
}

// newClassifyCmd creates the `classify` command.
func newClassifyCmd() *cobra.Command {
	opts := &classifyOptions{}

	classifyCmd := &cobra.Command{
		Use:   "classify [FILE]",
		Short: "Classifies recorded browser error events read from a file or stdin",
		Long: `Reads newline-delimited {"kind":"default"|"promise","event":{...}} envelopes,
classifies each event and reports the resulting messages.

With --html, the document is parsed instead and one resource failure is
simulated for every element matched by --xpath.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 && args[0] != "-" {
				path = args[0]
			}
			return runClassify(cmd, opts, path)
		},
	}

	classifyCmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: jsonl, sarif, log or postgres (default from config)")
	classifyCmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, or stdout (default from config)")
	classifyCmd.Flags().BoolVar(&opts.follow, "follow", false, "keep reading FILE as it grows until interrupted")
	classifyCmd.Flags().BoolVar(&opts.fromStart, "from-start", false, "with --follow, replay the existing content first")
	classifyCmd.Flags().StringVar(&opts.htmlFile, "html", "", "HTML document to simulate resource failures against")
	classifyCmd.Flags().StringVar(&opts.xpath, "xpath", defaultResourceXPath, "with --html, the elements whose resources fail")
	classifyCmd.MarkFlagsMutuallyExclusive("follow", "html")
	return classifyCmd
}

func runClassify(cmd *cobra.Command, opts *classifyOptions, path string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	if opts.follow && path == "" {
		return errors.New("--follow requires a FILE argument")
	}
	if opts.htmlFile != "" && path != "" {
		return errors.New("--html cannot be combined with a FILE argument")
	}

	cfg, err := getConfigFromContext(ctx)
	if err != nil {
		return err
	}
	if err := applyOutputFlags(cfg, opts.format, opts.output); err != nil {
		return err
	}

	p, err := newPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}

	runErr := func() error {
		switch {
		case opts.htmlFile != "":
			return classifyHTML(opts.htmlFile, opts.xpath, p.client, logger)
		case opts.follow:
			file, err := homedir.Expand(path)
			if err != nil {
				return err
			}
			return ingest.Follow(ctx, file, opts.fromStart, logger, p.client.Handle)
		default:
			return classifyStream(cmd, path, p.client, logger)
		}
	}()

	closeErr := p.Close()
	p.printSummary(cmd.ErrOrStderr())
	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output: %w", closeErr)
	}
	return nil
}

// classifyStream reads envelopes from path, or from the command's stdin when path is empty.
func classifyStream(cmd *cobra.Command, path string, client *capture.Client, logger *zap.Logger) error {
	var r io.Reader = cmd.InOrStdin()
	if path != "" {
		file, err := homedir.Expand(path)
		if err != nil {
			return err
		}
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("failed to open event file: %w", err)
		}
		defer f.Close()
		r = f
	}

	stats, err := ingest.ReadLines(cmd.Context(), r, logger, client.Handle)
	logger.Info("Finished reading events.", zap.Int("events", stats.Events), zap.Int("skipped", stats.Skipped))
	return err
}

// classifyHTML simulates a resource failure for each element xpath selects in the document.
func classifyHTML(path, xpath string, client *capture.Client, logger *zap.Logger) error {
	file, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	doc, err := htmlquery.LoadDoc(file)
	if err != nil {
		return fmt.Errorf("failed to parse HTML document: %w", err)
	}

	// Event timestamps are milliseconds, as in the browser.
	events, err := dom.ResourceEvents(doc, xpath, float64(time.Now().UnixMilli()))
	if err != nil {
		return err
	}
	for _, ev := range events {
		client.Handle(capture.Default, ev)
	}
	logger.Info("Simulated resource failures.", zap.String("document", file), zap.Int("elements", len(events)))
	return nil
}
