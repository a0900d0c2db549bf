package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCompileValidPlan(t *testing.T) {
	rootOpts := &RootOptions{Format: "text", Workers: 4}
	output, err := execute(NewCompileCommand(rootOpts), planFixture("reduce.yaml"))
	require.NoError(t, err)

	assert.Contains(t, output, "✓ Compiled 1 plan(s)")
	assert.Contains(t, output, "greedy(")
	assert.Contains(t, output, "task_count=3")
	assert.Contains(t, output, "reduce(+)")
	assert.Contains(t, output, "acc int, buf []float64")
	assert.Contains(t, output, "reducer must be commutative")
}

func TestCompileValidPlanJSON(t *testing.T) {
	rootOpts := &RootOptions{Format: "json", Workers: 4}
	output, err := execute(NewCompileCommand(rootOpts), planFixture("reduce.yaml"), planFixture("reduce.toml"))
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Plans, 2)

	yamlPlan, tomlPlan := resp.Data.Plans[0], resp.Data.Plans[1]
	assert.Equal(t, "reduce", yamlPlan.Plan.Mode)
	assert.Equal(t, "+", yamlPlan.Plan.Reducer)
	assert.True(t, yamlPlan.RequiresCommutative)
	assert.Len(t, yamlPlan.Fingerprint, 64)
	assert.Equal(t, yamlPlan.Fingerprint, tomlPlan.Fingerprint, "equivalent documents compile to the same plan")
}

func TestCompileValidPlanYAML(t *testing.T) {
	rootOpts := &RootOptions{Format: "yaml", Workers: 8}
	output, err := execute(NewCompileCommand(rootOpts), planFixture("static.yml"))
	require.NoError(t, err)

	var resp struct {
		Status string            `yaml:"status"`
		Data   CompilationResult `yaml:"data"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Plans, 1)
	assert.Equal(t, "collect", resp.Data.Plans[0].Plan.Mode)
	assert.Equal(t, 8, resp.Data.Plans[0].Plan.Scheduler.ChunkCount)
}

func TestCompileDirectory(t *testing.T) {
	dir := t.TempDir()
	writePlan(t, dir, "a.yaml", "set:\n  - scheduler: serial\n")
	writePlan(t, dir, "b.json", `{"set": [{"collect": true}]}`)
	writePlan(t, dir, "notes.txt", "not a plan")

	output, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, output, "✓ Compiled 2 plan(s)")
	assert.NotContains(t, output, "notes.txt")
}

func TestCompileOutputToFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "plans.json")

	rootOpts := &RootOptions{Format: "text", Workers: 4}
	output, err := execute(NewCompileCommand(rootOpts), planFixture("reduce.yaml"), "--output", outputFile)
	require.NoError(t, err)
	assert.Contains(t, output, "Wrote plans to")

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Plans, 1)
	assert.Equal(t, planFixture("reduce.yaml"), result.Plans[0].Source)
	require.Len(t, result.Plans[0].Plan.Bindings, 2)
	assert.Equal(t, "make([]float64, 8)", result.Plans[0].Plan.Bindings[1].Expr)
}

func TestCompileRecordsHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	rootOpts := &RootOptions{Format: "text", Workers: 4}

	_, err := execute(NewCompileCommand(rootOpts), planFixture("reduce.yaml"), "--db", db)
	require.NoError(t, err)
	// Recording the same document twice keeps one entry
	_, err = execute(NewCompileCommand(rootOpts), planFixture("reduce.yaml"), "--db", db)
	require.NoError(t, err)

	output, err := execute(NewPlansCommand(&RootOptions{Format: "json"}), "--db", db)
	require.NoError(t, err)

	var resp struct {
		Data PlansResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	require.Len(t, resp.Data.Plans, 1)
	assert.Equal(t, planFixture("reduce.yaml"), resp.Data.Plans[0].Source)
}

func TestCompileDefaultScheduler(t *testing.T) {
	path := writePlan(t, t.TempDir(), "plain.yaml", "set:\n  - collect: true\n")

	output, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), path, "--default-scheduler", "serial")
	require.NoError(t, err)
	assert.Contains(t, output, "serial(")
}

func TestCompileUnknownDefaultScheduler(t *testing.T) {
	path := writePlan(t, t.TempDir(), "plain.yaml", "set: []\n")

	output, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), path, "--default-scheduler", "fifo")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, output, ErrCodeUnknownScheduler)
}

func TestCompileConfigurationError(t *testing.T) {
	output, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), planFixture("conflict.toml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	assert.Contains(t, output, "✗ Compilation failed")
	assert.Contains(t, output, ErrCodeCollectAndReducer)
	assert.Contains(t, output, "collect")
}

func TestCompileCollectsAllErrors(t *testing.T) {
	rootOpts := &RootOptions{Format: "json"}
	output, err := execute(NewCompileCommand(rootOpts),
		planFixture("conflict.toml"),
		planFixture("reduce.yaml"),
		planFixture("duplicate.json"),
		planFixture("bad_schema.yaml"),
	)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   []CLIError `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "error", resp.Status)
	require.Len(t, resp.Data, 3)
	assert.Equal(t, ErrCodeCollectAndReducer, resp.Error.Code)

	codes := []string{resp.Data[0].Code, resp.Data[1].Code, resp.Data[2].Code}
	assert.Equal(t, []string{ErrCodeCollectAndReducer, ErrCodeDuplicateBinding, ErrCodeInvalidDocument}, codes)
}

func TestCompileMissingPath(t *testing.T) {
	output, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, output, ErrCodeNotFound)
}

func TestCompileRequiresArgs(t *testing.T) {
	_, err := execute(NewCompileCommand(&RootOptions{Format: "text"}))
	assert.Error(t, err)
}
