package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

// CLIResponse is the envelope of every json and yaml result.
type CLIResponse struct {
	Status string    `json:"status" yaml:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty" yaml:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty" yaml:"error,omitempty"`
}

// CLIError is a coded error in a CLIResponse. Codes are listed in loader.go.
type CLIError struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
	Details any    `json:"details,omitempty" yaml:"details,omitempty"`
}

// encoders maps each structured format to its writer.
var encoders = map[string]func(io.Writer, CLIResponse) error{
	"json": func(w io.Writer, resp CLIResponse) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
	"yaml": func(w io.Writer, resp CLIResponse) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return err
		}
		return enc.Close()
	},
}

// OutputFormatter renders command results as text, json or yaml. Results
// go to Writer; verbose diagnostics go to ErrWriter so they never mix with
// structured output.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // nil means Writer
	Verbose   bool
}

// Structured reports whether Format has an encoder.
func (f *OutputFormatter) Structured() bool {
	_, ok := encoders[f.Format]
	return ok
}

// Encode writes resp with the encoder for Format.
func (f *OutputFormatter) Encode(resp CLIResponse) error {
	enc, ok := encoders[f.Format]
	if !ok {
		return fmt.Errorf("format %q has no structured encoding", f.Format)
	}
	return enc(f.Writer, resp)
}

// Success writes data as an ok response, or with fmt's default verb in
// text mode.
func (f *OutputFormatter) Success(data any) error {
	if f.Structured() {
		return f.Encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error writes a coded error. Text mode prints details only when verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Structured() {
		return f.Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	if _, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message); err != nil {
		return err
	}
	if f.Verbose && details != nil {
		writeDetails(f.Writer, details)
	}
	return nil
}

// writeDetails prints string maps one sorted key per line and anything else
// on a single line.
func writeDetails(w io.Writer, details any) {
	m, ok := details.(map[string]string)
	if !ok {
		fmt.Fprintf(w, "  details: %v\n", details)
		return
	}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		fmt.Fprintf(w, "  %s: %s\n", k, m[k])
	}
}

// VerboseLog writes a diagnostic line when verbose output is on.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.diag(), format+"\n", args...)
	}
}

func (f *OutputFormatter) diag() io.Writer {
	if f.ErrWriter == nil {
		return f.Writer
	}
	return f.ErrWriter
}
