package printer_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsysio/adsys/internal/authentik"
	"github.com/adsysio/adsys/internal/model"
	"github.com/adsysio/adsys/internal/printer"
)

func TestTablePrinterExecResult(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	require.NoError(p.PrintExecResult(model.ExecResult{
		Stdout:   "hello",
		Stderr:   "warning: something",
		ExitCode: 2,
	}))

	out := buf.String()
	assert.Contains(out, "hello")
	assert.Contains(out, "warning: something")
	assert.Contains(out, "exit code: 2")
}

func TestTablePrinterExecutionList(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	require.NoError(p.PrintExecutionList([]model.Execution{
		{
			ID:        "exec-1",
			Command:   "echo hello",
			ExitCode:  0,
			Duration:  120 * time.Millisecond,
			CreatedAt: time.Now().UTC().Add(-2 * time.Minute),
		},
	}))

	out := buf.String()
	assert.Contains(out, "ID")
	assert.Contains(out, "COMMAND")
	assert.Contains(out, "echo hello")
	assert.Contains(out, "2 minutes ago (UTC)")
}

func TestTablePrinterExecutionListEmpty(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	require.NoError(p.PrintExecutionList(nil))
	assert.Empty(buf.String())
}

func TestTablePrinterInstanceList(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	require.NoError(p.PrintInstanceList([]model.Instance{
		{ID: "i-0abc", Name: "web-1", State: "running", Type: "t3.micro", PublicIP: "52.1.2.3"},
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(lines, 2)
	assert.Contains(lines[0], "STATE")
	assert.Contains(lines[1], "web-1")
	assert.Contains(lines[1], "running")
}

func TestJSONPrinterExecutionList(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	createdAt := time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)
	require.NoError(p.PrintExecutionList([]model.Execution{
		{ID: "exec-1", Command: "echo hello", Duration: 120 * time.Millisecond, CreatedAt: createdAt},
	}))

	var items []map[string]any
	require.NoError(json.Unmarshal(buf.Bytes(), &items))
	require.Len(items, 1)
	assert.Equal("exec-1", items[0]["id"])
	assert.Equal("echo hello", items[0]["command"])
	assert.Equal(float64(120), items[0]["duration_ms"])
}

func TestJSONPrinterOAuthResults(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	require.NoError(p.PrintOAuthResults([]authentik.OAuthResult{
		{
			App:          authentik.OAuthApp{AppName: "Grafana", AppSlug: "grafana", ClientID: "grafana-client"},
			ClientSecret: "s3cret",
		},
		{
			App: authentik.OAuthApp{AppName: "Broken", ClientID: "broken-client"},
			Err: fmt.Errorf("something happened"),
		},
	}))

	var items []map[string]any
	require.NoError(json.Unmarshal(buf.Bytes(), &items))
	require.Len(items, 2)
	assert.Equal("s3cret", items[0]["client_secret"])
	assert.Equal("something happened", items[1]["error"])
}

func TestJSONPrinterMessage(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	require.NoError(p.PrintMessage("done"))
	assert.JSONEq(`{"message": "done"}`, buf.String())
}
