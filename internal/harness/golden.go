package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/loopplan/internal/plan"
)

// Snapshot renders a result as canonical JSON for golden comparison: the
// plan descriptor when compilation succeeded, the error cause otherwise.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := map[string]any{
		"scenario_name": scenarioName,
	}
	if result.Descriptor != nil {
		snapshot["plan"] = result.Descriptor.Fields()
	} else {
		snapshot["error"] = result.Cause
	}
	return plan.MarshalCanonical(snapshot)
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares a result's snapshot against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
