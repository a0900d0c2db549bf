package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// decodeResponse parses out with the decoder matching format.
func decodeResponse(t *testing.T, format string, out []byte) CLIResponse {
	t.Helper()
	var resp CLIResponse
	switch format {
	case "json":
		require.NoError(t, json.Unmarshal(out, &resp))
	case "yaml":
		require.NoError(t, yaml.Unmarshal(out, &resp))
	default:
		t.Fatalf("no decoder for %q", format)
	}
	return resp
}

func TestOutputFormatter_StructuredResponses(t *testing.T) {
	for _, format := range []string{"json", "yaml"} {
		t.Run(format+"/success", func(t *testing.T) {
			var buf bytes.Buffer
			f := &OutputFormatter{Format: format, Writer: &buf}
			require.NoError(t, f.Success(map[string]int{"plans": 2}))

			resp := decodeResponse(t, format, buf.Bytes())
			assert.Equal(t, "ok", resp.Status)
			assert.Nil(t, resp.Error)
			assert.NotNil(t, resp.Data)
		})

		t.Run(format+"/error", func(t *testing.T) {
			var buf bytes.Buffer
			f := &OutputFormatter{Format: format, Writer: &buf}
			details := map[string]string{"file": "plan.yaml", "field": "collect"}
			require.NoError(t, f.Error("E209", "collect and reducer are mutually exclusive", details))

			resp := decodeResponse(t, format, buf.Bytes())
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "E209", resp.Error.Code)
			assert.Equal(t, "collect and reducer are mutually exclusive", resp.Error.Message)
			assert.NotNil(t, resp.Error.Details)
		})
	}
}

func TestOutputFormatter_TextMode(t *testing.T) {
	details := map[string]string{"field": "scheduler.kind", "file": "plan.yaml"}

	tests := []struct {
		name     string
		verbose  bool
		write    func(*OutputFormatter) error
		contains []string
		absent   []string
	}{
		{
			name:     "success",
			write:    func(f *OutputFormatter) error { return f.Success("All plan files valid") },
			contains: []string{"All plan files valid\n"},
		},
		{
			name:     "error_quiet",
			write:    func(f *OutputFormatter) error { return f.Error("E206", "unknown scheduler", details) },
			contains: []string{"Error [E206]: unknown scheduler"},
			absent:   []string{"plan.yaml"},
		},
		{
			name:     "error_verbose",
			verbose:  true,
			write:    func(f *OutputFormatter) error { return f.Error("E206", "unknown scheduler", details) },
			contains: []string{"Error [E206]", "  field: scheduler.kind\n  file: plan.yaml\n"},
		},
		{
			name:     "error_verbose_non_map",
			verbose:  true,
			write:    func(f *OutputFormatter) error { return f.Error("E001", "failed", []string{"a", "b"}) },
			contains: []string{"  details: [a b]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			f := &OutputFormatter{Format: "text", Writer: &buf, Verbose: tt.verbose}
			require.NoError(t, tt.write(f))
			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestOutputFormatter_EncodeRejectsText(t *testing.T) {
	f := &OutputFormatter{Format: "text", Writer: &bytes.Buffer{}}
	assert.False(t, f.Structured())
	assert.Error(t, f.Encode(CLIResponse{Status: "ok"}))
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	t.Run("separate_writer", func(t *testing.T) {
		var out, diag bytes.Buffer
		f := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &diag, Verbose: true}
		f.VerboseLog("Compiled %s", "plan.yaml")
		assert.Empty(t, out.String())
		assert.Equal(t, "Compiled plan.yaml\n", diag.String())
	})

	t.Run("falls_back_to_writer", func(t *testing.T) {
		var out bytes.Buffer
		f := &OutputFormatter{Format: "text", Writer: &out, Verbose: true}
		f.VerboseLog("Read %d plan(s)", 3)
		assert.Equal(t, "Read 3 plan(s)\n", out.String())
	})

	t.Run("quiet", func(t *testing.T) {
		var out, diag bytes.Buffer
		f := &OutputFormatter{Format: "text", Writer: &out, ErrWriter: &diag}
		f.VerboseLog("Compiled %s", "plan.yaml")
		assert.Empty(t, out.String())
		assert.Empty(t, diag.String())
	})
}
