// internal/reporting/sarif_reporter.go
package reporting

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/bugtrap/api/schemas"
	"github.com/xkilldash9x/bugtrap/internal/observability"
	"github.com/xkilldash9x/bugtrap/internal/reporting/sarif"
)

// Constants for tool identification in the SARIF report.
const (
	ToolName     = "bugtrap"
	ToolInfoURI  = "https://github.com/xkilldash9x/bugtrap"
	SARIFVersion = "2.1.0"
	SARIFSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
)

// ruleIDSanitizer replaces characters not typically safe or allowed in SARIF Rule IDs.
var ruleIDSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_.]+`)

// camelBoundary finds the lower-to-upper transitions in a kind name.
var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// ruleDefinition is the static description of one message kind.
type ruleDefinition struct {
	name        string
	description string
	level       sarif.Level
}

var rulesByKind = map[schemas.Kind]ruleDefinition{
	schemas.KindUncaughtError: {"Uncaught runtime error", "A runtime error reached the window error handler with an error object attached.", sarif.LevelError},
	schemas.KindResourceError: {"Resource load failure", "An element's resource (image, script, stylesheet) failed to load.", sarif.LevelWarning},
	schemas.KindGrammarError:  {"Syntax error", "A syntax-level error was surfaced to the error handler as a bare string.", sarif.LevelError},
	schemas.KindPromiseError:  {"Unhandled promise rejection", "A promise was rejected and no handler was attached.", sarif.LevelError},
	schemas.KindCaughtError:   {"Error in instrumented method", "An instrumented method failed; the failure was reported and re-raised.", sarif.LevelError},
	schemas.KindReportError:   {"Reported error", "A payload was reported explicitly by the application.", sarif.LevelNote},
}

// SARIFReporter buffers messages as SARIF 2.1.0 results and writes the log on
// Close. It is thread safe.
type SARIFReporter struct {
	writer io.WriteCloser
	logger *zap.Logger
	log    *sarif.Log
	// mu protects the log structure and the rule index.
	mu    sync.Mutex
	rules map[schemas.Kind]string
}

// NewSARIFReporter creates a new reporter that writes SARIF output.
func NewSARIFReporter(writer io.WriteCloser, toolVersion string) *SARIFReporter {
	logger := observability.GetLogger().Named("sarif_reporter")
	log := &sarif.Log{
		Version: SARIFVersion,
		Schema:  SARIFSchema,
		Runs: []*sarif.Run{
			{
				Tool: &sarif.Tool{
					Driver: &sarif.ToolComponent{
						Name:           ToolName,
						Version:        pString(toolVersion),
						InformationURI: pString(ToolInfoURI),
						// Initialize empty slices (not nil) for proper JSON marshalling
						Rules: []*sarif.ReportingDescriptor{},
					},
				},
				Results: []*sarif.Result{},
			},
		},
	}

	return &SARIFReporter{
		writer: writer,
		logger: logger,
		log:    log,
		rules:  make(map[schemas.Kind]string),
	}
}

// Report converts a message into a SARIF result.
func (r *SARIFReporter) Report(msg schemas.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ruleID := r.ensureRule(msg.Kind)
	result := &sarif.Result{
		RuleID:     ruleID,
		Message:    &sarif.Message{Text: pString(Summary(msg))},
		Level:      levelFor(msg.Kind),
		Locations:  createLocations(msg),
		Properties: &sarif.PropertyBag{"desc": msg.Descriptor},
	}
	if msg.Kind == schemas.KindReportError {
		// ReportDescriptor has no JSON tags of its own; store the payload directly.
		result.Properties = &sarif.PropertyBag{"desc": msg.Descriptor.(schemas.ReportDescriptor).Payload}
	}
	r.log.Runs[0].Results = append(r.log.Runs[0].Results, result)
}

// Close finalizes the SARIF log and writes it to the output writer.
func (r *SARIFReporter) Close() error {
	startTime := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	run := r.log.Runs[0]
	r.logger.Info("Finalizing SARIF report",
		zap.Int("total_results", len(run.Results)),
		zap.Int("total_rules", len(run.Tool.Driver.Rules)),
	)

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")

	encodeErr := encoder.Encode(r.log)
	// Always attempt to close the writer, regardless of encoding success.
	closeErr := r.writer.Close()

	if encodeErr != nil {
		r.logger.Error("Failed to encode SARIF log to JSON", zap.Error(encodeErr))
		return fmt.Errorf("failed to encode SARIF output: %w", encodeErr)
	}
	if closeErr != nil {
		r.logger.Error("Failed to close output writer", zap.Error(closeErr))
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}

	r.logger.Info("Successfully wrote SARIF report",
		zap.Duration("duration_ms", time.Since(startTime)),
	)
	return nil
}

// ruleID derives a stable rule ID from a kind: "resourceError" becomes
// "BUGTRAP-RESOURCE-ERROR".
func ruleID(kind schemas.Kind) string {
	name := camelBoundary.ReplaceAllString(string(kind), "${1}-${2}")
	name = strings.Trim(ruleIDSanitizer.ReplaceAllString(strings.ToUpper(name), "-"), "-")
	if name == "" {
		name = "UNKNOWN"
	}
	return "BUGTRAP-" + name
}

// ensureRule registers the rule for kind on first use and returns its ID.
// NOTE: Must be called while holding the mutex.
func (r *SARIFReporter) ensureRule(kind schemas.Kind) string {
	if id, ok := r.rules[kind]; ok {
		return id
	}

	id := ruleID(kind)
	def, known := rulesByKind[kind]
	if !known {
		def = ruleDefinition{name: string(kind), description: string(kind), level: sarif.LevelNote}
	}
	r.logger.Debug("Registering new SARIF rule definition", zap.String("rule_id", id))

	driver := r.log.Runs[0].Tool.Driver
	driver.Rules = append(driver.Rules, &sarif.ReportingDescriptor{
		ID:               id,
		Name:             pString(def.name),
		ShortDescription: &sarif.MultiformatMessageString{Text: pString(def.name)},
		FullDescription:  &sarif.MultiformatMessageString{Text: pString(def.description)},
		Properties: &sarif.PropertyBag{
			"tags": []string{"frontend", "bugtrap", string(kind)},
		},
	})
	r.rules[kind] = id
	return id
}

func levelFor(kind schemas.Kind) sarif.Level {
	if def, ok := rulesByKind[kind]; ok {
		return def.level
	}
	return sarif.LevelNote
}

// createLocations maps runtime errors to a file region and resource failures to
// the failed URL plus the element selector.
func createLocations(msg schemas.Message) []*sarif.Location {
	switch d := msg.Descriptor.(type) {
	case schemas.UncaughtDescriptor:
		if d.Filename == "" {
			return nil
		}
		loc := &sarif.PhysicalLocation{
			ArtifactLocation: &sarif.ArtifactLocation{URI: pString(d.Filename)},
		}
		if d.Row > 0 {
			loc.Region = &sarif.Region{StartLine: d.Row, StartColumn: d.Col}
		}
		return []*sarif.Location{{PhysicalLocation: loc}}

	case schemas.ResourceDescriptor:
		location := &sarif.Location{
			Message: &sarif.Message{Text: pString(fmt.Sprintf("<%s> element failed to load", strings.ToLower(d.TagName)))},
		}
		if d.Src != "" {
			location.PhysicalLocation = &sarif.PhysicalLocation{
				ArtifactLocation: &sarif.ArtifactLocation{URI: pString(d.Src)},
			}
		}
		if d.Selector != "" {
			location.LogicalLocations = []*sarif.LogicalLocation{{
				FullyQualifiedName: pString(d.Selector),
				Kind:               pString("element"),
			}}
		}
		return []*sarif.Location{location}
	}
	return nil
}

// pString returns a pointer to the given string value. Helper for optional SARIF fields.
func pString(s string) *string {
	return &s
}
