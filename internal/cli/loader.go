package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/roach88/loopplan/internal/compiler"
	"github.com/roach88/loopplan/internal/plan"
	"github.com/roach88/loopplan/internal/planfile"
)

// LoadMode controls how errors are handled during plan loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadedPlan is one compiled plan document.
type LoadedPlan struct {
	Path string
	Plan *plan.Plan
}

// LoadError represents an error that occurred while loading or compiling a
// plan document.
type LoadError struct {
	Path    string
	Code    string
	Field   string
	Message string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// PlanLoader compiles plan documents with one compiler and default scheduler.
type PlanLoader struct {
	Compiler         *compiler.Compiler
	DefaultScheduler plan.Scheduler
}

// Load compiles every plan document named by paths. Directories are expanded
// to the plan files they contain. If mode is LoadModeFailFast, returns on the
// first error.
func (l *PlanLoader) Load(paths []string, mode LoadMode) ([]LoadedPlan, []error) {
	files, err := FindPlanFiles(paths)
	if err != nil {
		return nil, []error{err}
	}

	var (
		loaded []LoadedPlan
		errs   []error
	)
	for _, path := range files {
		p, err := l.compileFile(path)
		if err != nil {
			errs = append(errs, convertLoadError(path, err))
			if mode == LoadModeFailFast {
				return loaded, errs
			}
			continue
		}
		loaded = append(loaded, LoadedPlan{Path: path, Plan: p})
	}
	return loaded, errs
}

func (l *PlanLoader) compileFile(path string) (*plan.Plan, error) {
	doc, err := planfile.Load(path)
	if err != nil {
		return nil, err
	}
	directives, err := doc.Directives()
	if err != nil {
		return nil, err
	}
	return l.Compiler.Compile(directives, l.DefaultScheduler)
}

// FindPlanFiles resolves paths to plan files. Files are kept as given,
// directories are walked for files with a plan extension.
func FindPlanFiles(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: "no plan files given"}
	}

	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			return nil, &LoadError{Path: p, Code: ErrCodeNotFound, Message: "path not found"}
		}
		if err != nil {
			return nil, &LoadError{Path: p, Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing path: %v", err)}
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && planfile.IsPlanFile(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, &LoadError{Path: p, Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
		}
		if len(found) == 0 {
			return nil, &LoadError{Path: p, Code: ErrCodeNoFiles, Message: "no plan files found"}
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

// convertLoadError converts a document or configuration error to a LoadError.
func convertLoadError(path string, err error) *LoadError {
	var cfgErr *plan.ConfigurationError
	if errors.As(err, &cfgErr) {
		return &LoadError{
			Path:    path,
			Code:    MapCauseToErrorCode(cfgErr.Cause),
			Field:   cfgErr.Field,
			Message: cfgErr.Message,
		}
	}
	var docErr *planfile.Error
	if errors.As(err, &docErr) {
		code := ErrCodeInvalidDocument
		if errors.Is(err, fs.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return &LoadError{Path: path, Code: code, Field: docErr.Path, Message: docErr.Error()}
	}
	return &LoadError{Path: path, Code: ErrCodeGeneric, Message: err.Error()}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric         = "E001" // Generic/unknown error
	ErrCodeScanError       = "E002" // Directory scan error
	ErrCodeNoFiles         = "E003" // No plan files found
	ErrCodeInvalidDocument = "E004" // Plan document unreadable or schema violation
	ErrCodeNotFound        = "E005" // Path not found
	ErrCodeStoreFailed     = "E006" // Plan history database error
	ErrCodeWriteFailed     = "E007" // File write error
	ErrCodeScenarioFailed  = "E008" // One or more scenarios failed

	// Scheduler configuration errors
	ErrCodeExclusiveSizing   = "E201"
	ErrCodeMissingSizing     = "E202"
	ErrCodeInvalidThreadpool = "E203"
	ErrCodeNonPositiveTasks  = "E204"
	ErrCodeInvalidSchedArg   = "E205"
	ErrCodeUnknownScheduler  = "E206"

	// Directive errors
	ErrCodeUnknownOption     = "E207"
	ErrCodeCollectNotBool    = "E208"
	ErrCodeCollectAndReducer = "E209"
	ErrCodeInvalidReducer    = "E210"
	ErrCodeDuplicateBinding  = "E211"
	ErrCodeMalformedBinding  = "E212"
)

var causeCodes = map[plan.Cause]string{
	plan.CauseExclusiveSizing:     ErrCodeExclusiveSizing,
	plan.CauseMissingSizing:       ErrCodeMissingSizing,
	plan.CauseInvalidThreadpool:   ErrCodeInvalidThreadpool,
	plan.CauseNonPositiveTasks:    ErrCodeNonPositiveTasks,
	plan.CauseInvalidSchedulerArg: ErrCodeInvalidSchedArg,
	plan.CauseUnknownScheduler:    ErrCodeUnknownScheduler,
	plan.CauseUnknownOption:       ErrCodeUnknownOption,
	plan.CauseCollectNotBool:      ErrCodeCollectNotBool,
	plan.CauseCollectWithReducer:  ErrCodeCollectAndReducer,
	plan.CauseInvalidReducer:      ErrCodeInvalidReducer,
	plan.CauseDuplicateBinding:    ErrCodeDuplicateBinding,
	plan.CauseMalformedBinding:    ErrCodeMalformedBinding,
}

// MapCauseToErrorCode maps a configuration error cause to an error code.
func MapCauseToErrorCode(cause plan.Cause) string {
	if code, ok := causeCodes[cause]; ok {
		return code
	}
	return ErrCodeGeneric
}
