// File: cmd/main_test.go
package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/bugtrap/internal/observability"
)

// resetForTest provides the single source of truth for resetting test state.
func resetForTest(t *testing.T) {
	t.Helper()

	// Keep config discovery away from the developer's own files.
	homedir.DisableCache = true
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BUGTRAP_API_KEY", "")
	t.Setenv("BUGTRAP_DATABASE_URL", "")

	cfgFile = ""
	osExit = os.Exit
	logWriter = zapcore.AddSync(io.Discard)

	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)
}

// executeCommand runs a fresh root command and returns everything written to
// its stdout and stderr.
func executeCommand(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()

	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	if stdin != nil {
		root.SetIn(stdin)
	}
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

// createTempFile writes content to a new file in a per-test directory.
func createTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// readJSONLines decodes every line of a JSON-lines file.
func readJSONLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.NoError(t, scanner.Err())
	return lines
}
