package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-settingstext/pkg/report"
	"github.com/dd0wney/cluso-settingstext/pkg/traversal"
)

const prompt = `{
  "1": {"class_type": "CheckpointLoaderSimple", "inputs": {"ckpt_name": "model.safetensors"}},
  "2": {"class_type": "KSampler", "inputs": {"model": ["1", 0], "seed": 5}}
}`

const workflow = `{"nodes": [
  {"id": 1, "type": "CheckpointLoaderSimple", "title": "Loader", "widgets_values": {"ckpt_name": "model.safetensors"}},
  {"id": 2, "type": "KSampler", "inputs": [{"name": "model", "link": 1}]},
  {"id": 9, "type": "Note", "mode": 4}
], "links": [[1, 1, 0, 2, 0, "MODEL"]]}`

func writeFixtures(t *testing.T, selection string) (promptPath, workflowPath, selectionPath string) {
	t.Helper()
	dir := t.TempDir()
	promptPath = filepath.Join(dir, "prompt.json")
	workflowPath = filepath.Join(dir, "workflow.json")
	selectionPath = filepath.Join(dir, "selection.json")
	require.NoError(t, os.WriteFile(promptPath, []byte(prompt), 0o644))
	require.NoError(t, os.WriteFile(workflowPath, []byte(workflow), 0o644))
	require.NoError(t, os.WriteFile(selectionPath, []byte(selection), 0o644))
	return promptPath, workflowPath, selectionPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SETTINGSTEXT_LOG_LEVEL", "error")

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRender_Grouped(t *testing.T) {
	p, w, s := writeFixtures(t, `[{"id": 2, "param": "model", "title": "Sampler"}, {"id": 2, "param": "seed"}]`)

	out, err := run(t, "render", "-p", p, "-w", w, "-s", s)
	require.NoError(t, err)
	assert.Equal(t, "Sampler - #2\nmodel: model.safetensors\nseed: 5\n", out)
}

func TestRender_StatusLine(t *testing.T) {
	p, w, s := writeFixtures(t, `not json`)

	out, err := run(t, "render", "-p", p, "-w", w, "-s", s)
	require.NoError(t, err)
	assert.Equal(t, report.StatusInvalidSelection+"\n", out)
}

func TestRender_AllAsTable(t *testing.T) {
	p, w, _ := writeFixtures(t, `[]`)

	out, err := run(t, "render", "-p", p, "-w", w, "--all", "--mode", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "model.safetensors")
	assert.Contains(t, out, "ckpt_name")
	assert.NotContains(t, out, "Note", "bypassed nodes are not selected")
}

func TestRender_ToFileAndExport(t *testing.T) {
	p, w, s := writeFixtures(t, `[{"id": 2, "param": "seed"}]`)
	dir := t.TempDir()
	outPath := filepath.Join(dir, "report.txt")
	exportDir := filepath.Join(dir, "exports")

	t.Setenv("SETTINGSTEXT_EXPORT_KIND", "file")
	t.Setenv("SETTINGSTEXT_EXPORT_DIR", exportDir)

	out, err := run(t, "render", "-p", p, "-w", w, "-s", s, "-o", outPath, "--export")
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "Node #2 - #2\nseed: 5\n", string(data))

	exported, err := filepath.Glob(filepath.Join(exportDir, "report-*.txt"))
	require.NoError(t, err)
	assert.Len(t, exported, 1)
}

func TestRender_FlagErrors(t *testing.T) {
	p, w, s := writeFixtures(t, `[]`)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no selection", []string{"render", "-p", p}, "--selection or --all"},
		{"all without workflow", []string{"render", "-p", p, "--all"}, "--all needs --workflow"},
		{"both", []string{"render", "-p", p, "-w", w, "-s", s, "--all"}, "none of the others"},
		{"bad mode", []string{"render", "-p", p, "-s", s, "--mode", "html"}, "html"},
		{"missing prompt", []string{"render", "-s", s}, "prompt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestResolve(t *testing.T) {
	p, w, _ := writeFixtures(t, `[]`)

	out, err := run(t, "resolve", "-p", p, "-w", w, "--node", "2", "--param", "model")
	require.NoError(t, err)
	assert.Equal(t, "model.safetensors\n", out)

	out, err = run(t, "resolve", "-p", p, "--node", "2", "--param", "model", "--json")
	require.NoError(t, err)
	var res traversal.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, traversal.Result{Value: "model.safetensors", Outcome: traversal.OutcomeLiteral, Depth: 1}, res)
}

func TestSelectAll(t *testing.T) {
	_, w, _ := writeFixtures(t, `[]`)

	out, err := run(t, "select-all", "-w", w, "--exclude", "1")
	require.NoError(t, err)

	sel, err := report.ParseSelection([]byte(strings.TrimSpace(out)))
	require.NoError(t, err)
	assert.Equal(t, []report.Entry{{ID: "2", Param: "model", Title: "KSampler"}}, sel.Entries)
}

func TestConfigFlag(t *testing.T) {
	p, w, s := writeFixtures(t, `[{"id": 2, "param": "seed"}]`)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("mode: markdown\n"), 0o644))

	out, err := run(t, "--config", cfgPath, "render", "-p", p, "-w", w, "-s", s)
	require.NoError(t, err)
	assert.Contains(t, out, "| ")

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "select-all", "-w", w)
	assert.Error(t, err)
}
