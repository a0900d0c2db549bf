package planfile

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loopplan/internal/compiler"
	"github.com/roach88/loopplan/internal/plan"
)

var testWorkers = plan.WorkerCounts{Default: 4, Interactive: 1}

func compileFile(t *testing.T, name string) (*plan.Plan, error) {
	t.Helper()
	doc, err := Load(filepath.Join("testdata", name))
	require.NoError(t, err)
	directives, err := doc.Directives()
	if err != nil {
		return nil, err
	}
	return compiler.New(compiler.WithWorkers(testWorkers)).Compile(directives, nil)
}

// =============================================================================
// Format Tests
// =============================================================================

func TestFormatForPath(t *testing.T) {
	tests := map[string]Format{
		"a.cue":     FormatCUE,
		"a.yaml":    FormatYAML,
		"dir/b.YML": FormatYAML,
		"c.toml":    FormatTOML,
		"d.hcl":     FormatHCL,
		"e.json":    FormatJSON,
	}
	for path, want := range tests {
		got, err := FormatForPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
		assert.True(t, IsPlanFile(path))
	}

	_, err := FormatForPath("plan.txt")
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.False(t, IsPlanFile("plan.txt"))
}

func TestAllFormatsDecodeToSameDocument(t *testing.T) {
	want := []string{"acc int = 0", "buf []float64 = make([]float64, 8)"}

	for _, name := range []string{"reduce.cue", "reduce.yaml", "reduce.toml", "reduce.hcl", "reduce.json"} {
		t.Run(name, func(t *testing.T) {
			doc, err := Load(filepath.Join("testdata", name))
			require.NoError(t, err)

			assert.Equal(t, want, doc.Local)
			require.Len(t, doc.Set, 2)

			sched, ok := doc.Set[0]["scheduler"].(map[string]any)
			require.True(t, ok, "scheduler should decode as a map, got %T", doc.Set[0]["scheduler"])
			assert.Equal(t, "greedy", sched["kind"])
			assert.Equal(t, json.Number("3"), sched["task_count"])
			assert.Equal(t, "+", doc.Set[1]["reducer"])
		})
	}
}

func TestAllFormatsCompileToSamePlan(t *testing.T) {
	var fingerprints []string
	for _, name := range []string{"reduce.cue", "reduce.yaml", "reduce.toml", "reduce.hcl", "reduce.json"} {
		p, err := compileFile(t, name)
		require.NoError(t, err, name)

		g, ok := p.Scheduler().(plan.Greedy)
		require.True(t, ok, name)
		assert.Equal(t, 3, g.TaskCount())
		assert.Equal(t, plan.Chunking{Mode: plan.FixedCount, Count: 16, Split: plan.Scatter}, g.Chunking())
		assert.Equal(t, "reduce(+)", p.Mode().String())

		fp, err := p.Fingerprint()
		require.NoError(t, err)
		fingerprints = append(fingerprints, fp)
	}
	for _, fp := range fingerprints[1:] {
		assert.Equal(t, fingerprints[0], fp)
	}
}

// =============================================================================
// Directive Tests
// =============================================================================

func TestDirectivesOrder(t *testing.T) {
	doc, err := Load(filepath.Join("testdata", "reduce.yaml"))
	require.NoError(t, err)

	directives, err := doc.Directives()
	require.NoError(t, err)
	require.Len(t, directives, 4)

	first, ok := directives[0].(compiler.DeclareBinding)
	require.True(t, ok)
	assert.Equal(t, "acc", first.Name)

	set, ok := directives[2].(compiler.SetOption)
	require.True(t, ok)
	assert.Equal(t, compiler.OptionScheduler, set.Name)
}

func TestShorthandAndCollect(t *testing.T) {
	p, err := compileFile(t, "static.yml")
	require.NoError(t, err)
	assert.Equal(t, plan.KindStatic, p.Scheduler().Kind())
	assert.Equal(t, plan.Collect, p.Mode().Kind())
}

func TestLastWriteWinsAcrossFileBlocks(t *testing.T) {
	p, err := compileFile(t, "last_write.yaml")
	require.NoError(t, err)
	assert.Equal(t, plan.KindSerial, p.Scheduler().Kind())
	assert.Equal(t, plan.Foreach, p.Mode().Kind())
}

func TestFileConfigurationErrors(t *testing.T) {
	tests := []struct {
		file string
		want plan.Cause
	}{
		{"conflict.toml", plan.CauseCollectWithReducer},
		{"duplicate.json", plan.CauseDuplicateBinding},
	}
	for _, tt := range tests {
		_, err := compileFile(t, tt.file)
		require.Error(t, err, tt.file)
		cause, ok := plan.CauseOf(err)
		require.True(t, ok, "%s: %v", tt.file, err)
		assert.Equal(t, tt.want, cause, tt.file)
	}
}

func TestMalformedLocalKeepsCause(t *testing.T) {
	doc, err := Parse([]byte(`{"local": ["acc = 0"]}`), FormatJSON, "inline.json")
	require.NoError(t, err)

	_, err = doc.Directives()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local[0]")
	cause, ok := plan.CauseOf(err)
	require.True(t, ok)
	assert.Equal(t, plan.CauseMalformedBinding, cause)
}

// =============================================================================
// Document Error Tests
// =============================================================================

func TestSchemaViolations(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "bad_schema.yaml"))
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, FormatYAML, fe.Format)
	assert.NotEmpty(t, fe.Path)
	assert.Contains(t, fe.Error(), "/local/0")
}

func TestIncompleteCUE(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "incomplete.cue"))
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, FormatCUE, fe.Format)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		format Format
		data   string
	}{
		{FormatJSON, `{"set": [`},
		{FormatYAML, "set: [\n"},
		{FormatTOML, "[[set]\n"},
		{FormatHCL, "set {\n"},
		{FormatHCL, "set {\n  scheduler = var.kind\n}\n"},
		{FormatCUE, "set: [{"},
	}
	for _, tt := range tests {
		_, err := Parse([]byte(tt.data), tt.format, "inline")
		var fe *Error
		assert.ErrorAs(t, err, &fe, "%s: %q", tt.format, tt.data)
	}
}

func TestEmptyDocuments(t *testing.T) {
	for _, f := range []Format{FormatYAML, FormatTOML, FormatHCL, FormatCUE} {
		doc, err := Parse(nil, f, "empty")
		require.NoError(t, err, f)
		directives, err := doc.Directives()
		require.NoError(t, err)
		assert.Empty(t, directives, f)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "missing.yaml"))
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Error(), "read failed")
}
