package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines a plan conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Plan is the path to a plan document. Exactly one of Plan and Document
	// must be set.
	Plan string `yaml:"plan,omitempty"`

	// Document is an inline plan document.
	Document map[string]any `yaml:"document,omitempty"`

	// Workers fixes the worker counts used for scheduler defaults.
	Workers WorkerSpec `yaml:"workers"`

	// DefaultScheduler is the scheduler used when the document sets none.
	// Empty selects the library default.
	DefaultScheduler string `yaml:"default_scheduler,omitempty"`

	// Assertions validate the compiled plan or the compile error.
	Assertions []Assertion `yaml:"assertions"`
}

// WorkerSpec holds per-pool worker counts.
type WorkerSpec struct {
	Default     int `yaml:"default"`
	Interactive int `yaml:"interactive"`
}

// Assertion validates a compilation outcome.
type Assertion struct {
	// Type specifies the assertion type. See the package documentation.
	Type string `yaml:"type"`

	// Fields are expected scheduler descriptor fields (scheduler).
	// Subset match - only specified fields are validated.
	Fields map[string]any `yaml:"fields,omitempty"`

	// Value is the expected mode string (mode) or boolean
	// (requires_commutative).
	Value any `yaml:"value,omitempty"`

	// Names are the expected binding names in order (bindings).
	Names []string `yaml:"names,omitempty"`

	// Cause is the expected configuration error cause (error).
	Cause string `yaml:"cause,omitempty"`

	// Plan is another plan document path (same_plan).
	Plan string `yaml:"plan,omitempty"`

	// Tasks, Items and Seed drive the task simulation (init_once_per_task).
	Tasks int   `yaml:"tasks,omitempty"`
	Items int   `yaml:"items,omitempty"`
	Seed  int64 `yaml:"seed,omitempty"`
}

// Assertion type constants.
const (
	AssertScheduler           = "scheduler"
	AssertMode                = "mode"
	AssertBindings            = "bindings"
	AssertError               = "error"
	AssertRequiresCommutative = "requires_commutative"
	AssertSamePlan            = "same_plan"
	AssertInitOncePerTask     = "init_once_per_task"
)

// LoadScenario reads and parses a scenario YAML file, resolving plan paths
// relative to the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file, resolving
// plan paths relative to basePath.
//
// Returns an error if the file doesn't exist, is malformed, contains unknown
// fields (typos), or is missing required fields.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	scenario.Plan = resolve(basePath, scenario.Plan)
	for i := range scenario.Assertions {
		scenario.Assertions[i].Plan = resolve(basePath, scenario.Assertions[i].Plan)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every .yaml and .yml scenario directly inside dir,
// sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	files, err := ScenarioFiles(dir)
	if err != nil {
		return nil, err
	}
	out := make([]*Scenario, 0, len(files))
	for _, f := range files {
		s, err := LoadScenario(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(f), err)
		}
		out = append(out, s)
	}
	return out, nil
}

// ScenarioFiles returns the scenario files directly inside dir, sorted.
func ScenarioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenarios directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Plan == "" && s.Document == nil:
		return fmt.Errorf("one of plan or document is required")
	case s.Plan != "" && s.Document != nil:
		return fmt.Errorf("plan and document are mutually exclusive")
	}

	if s.Plan != "" {
		if _, err := os.Stat(s.Plan); os.IsNotExist(err) {
			return fmt.Errorf("plan file not found: %s", s.Plan)
		}
	}

	if s.Workers.Default < 0 || s.Workers.Interactive < 0 {
		return fmt.Errorf("worker counts must be non-negative")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertScheduler:
		if len(a.Fields) == 0 {
			return fmt.Errorf("assertions[%d]: fields are required for scheduler", index)
		}
	case AssertMode:
		if _, ok := a.Value.(string); !ok {
			return fmt.Errorf("assertions[%d]: value must be a string for mode", index)
		}
	case AssertBindings:
		if a.Names == nil {
			return fmt.Errorf("assertions[%d]: names is required for bindings (use [] for none)", index)
		}
	case AssertError:
		if a.Cause == "" {
			return fmt.Errorf("assertions[%d]: cause is required for error", index)
		}
	case AssertRequiresCommutative:
		if _, ok := a.Value.(bool); !ok {
			return fmt.Errorf("assertions[%d]: value must be a boolean for requires_commutative", index)
		}
	case AssertSamePlan:
		if a.Plan == "" {
			return fmt.Errorf("assertions[%d]: plan is required for same_plan", index)
		}
	case AssertInitOncePerTask:
		if a.Tasks <= 0 || a.Items < 0 {
			return fmt.Errorf("assertions[%d]: tasks must be positive and items non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
