package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serialScenario = `name: serial_plain
description: "serial shorthand with one binding"
document:
  set:
    - scheduler: serial
  local:
    - "n int = 7"
assertions:
  - type: scheduler
    fields: {kind: serial, placement: inline}
  - type: bindings
    names: [n]
`

func TestRunScenarios(t *testing.T) {
	scenariosDir := filepath.Join("..", "harness", "testdata", "scenarios")

	output, err := execute(NewTestCommand(&RootOptions{Format: "text"}), scenariosDir)
	require.NoError(t, err)
	assert.Contains(t, output, "✓ greedy_reduce")
	assert.Contains(t, output, "✓ collect_reducer_conflict")
	assert.Contains(t, output, "0 failed")
	assert.Contains(t, output, "✓ All scenarios passed")
}

func TestRunScenariosJSON(t *testing.T) {
	scenariosDir := filepath.Join("..", "harness", "testdata", "scenarios")

	output, err := execute(NewTestCommand(&RootOptions{Format: "json"}), scenariosDir, "--filter", "greedy_*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Passed)
}

func TestUpdateGoldenFiles(t *testing.T) {
	dir := t.TempDir()
	writePlan(t, dir, "serial_plain.yaml", serialScenario)

	output, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, output, "(golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "serial_plain.golden"))
	require.NoError(t, err)
	assert.Equal(t,
		`{"plan":{"bindings":[{"expr":"7","name":"n","type":"int"}],"mode":"foreach","scheduler":{"chunking":"none","kind":"serial","placement":"inline"}},"scenario_name":"serial_plain"}`,
		string(golden))

	// Compares against the golden file just written
	_, err = execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
}

func TestGoldenMismatchFails(t *testing.T) {
	dir := t.TempDir()
	writePlan(t, dir, "serial_plain.yaml", serialScenario)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))
	writePlan(t, dir, filepath.Join("golden", "serial_plain.golden"), `{"scenario_name":"serial_plain"}`)

	output, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, output, "✗ serial_plain")
	assert.Contains(t, output, "does not match golden file")
}

func TestFailingAssertion(t *testing.T) {
	dir := t.TempDir()
	writePlan(t, dir, "wrong.yaml", `name: wrong
description: "expects the wrong mode"
document:
  set:
    - collect: true
assertions:
  - type: mode
    value: foreach
`)

	output, err := execute(NewTestCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestInvalidScenarioFile(t *testing.T) {
	dir := t.TempDir()
	writePlan(t, dir, "broken.yaml", "name: broken\n")

	output, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, output, "✗ broken.yaml")
	assert.Contains(t, output, "failed to load scenario")
}

func TestNoScenarios(t *testing.T) {
	output, err := execute(NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, output, "No scenarios found.")
}

func TestScenariosDirNotFound(t *testing.T) {
	_, err := execute(NewTestCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidFilterPattern(t *testing.T) {
	dir := t.TempDir()
	writePlan(t, dir, "serial_plain.yaml", serialScenario)

	_, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestUpdateGoldenFilesJSON(t *testing.T) {
	dir := t.TempDir()
	writePlan(t, dir, "serial_plain.yaml", serialScenario)

	output, err := execute(NewTestCommand(&RootOptions{Format: "json"}), dir, "--update")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "serial_plain", resp.Data.Scenarios[0].Name)
	assert.True(t, resp.Data.Scenarios[0].GoldenUpdated)
	assert.FileExists(t, filepath.Join(dir, "golden", "serial_plain.golden"))
}
