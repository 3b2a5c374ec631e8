package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/joe/internal/compiler"
	"github.com/roach88/joe/internal/model"
	"github.com/roach88/joe/internal/record"
	"github.com/roach88/joe/internal/store"
)

// LoadResult contains the results of loading declarations from a directory.
type LoadResult struct {
	Registry  *compiler.Registry
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// LoadError represents an error that occurred while loading declarations.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSchemas loads the CUE package in dir and compiles its record
// declarations. Go checks from the built-in model are available to
// {func: "<name>"} declarations.
func LoadSchemas(dir string) (*LoadResult, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schemas directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schemas directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	reg, err := compiler.Compile(value, model.Checks())
	if err != nil {
		return nil, convertCompileError(err)
	}

	return &LoadResult{
		Registry:  reg,
		CUEValue:  value,
		FileCount: len(cueFiles),
	}, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeCompileFailed,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeCompileFailed, Message: err.Error()}
}

// Error code constants - unified across all CLI commands.
// Construction failures report the record error code itself
// (TYPE_MISMATCH, VALIDATION_FAILED, ...).
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = "E002" // Directory scan error
	ErrCodeNoFiles       = "E003" // No CUE files found
	ErrCodeLoadFailed    = "E004" // CUE load failed
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeBuildFailed   = "E006" // CUE build failed
	ErrCodeWriteFailed   = "E007" // File write error
	ErrCodeCompileFailed = "E008" // Declarations do not compile

	// Lookup errors
	ErrCodeUnknownType     = "E201" // No such record type
	ErrCodeUnknownTemplate = "E202" // No such template
	ErrCodeReadFailed      = "E203" // Input file unreadable
	ErrCodeInvalidQuery    = "E204" // --where filter does not apply to the type

	// Store errors
	ErrCodeStoreOpen   = "E301" // Store could not be opened
	ErrCodeNotStored   = "E302" // No record under (type, id)
	ErrCodeConflict    = "E303" // Record stored with different content
	ErrCodeStoreFailed = "E304" // Other store failure

	// Scenario errors
	ErrCodeScenariosFailed = "E401" // One or more scenarios failed
)

// loadErrorResponse writes a load failure and returns the command error.
func loadErrorResponse(f *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		var details interface{}
		if loadErr.Pos.IsValid() {
			details = map[string]any{
				"file":   loadErr.Pos.Filename(),
				"line":   loadErr.Pos.Line(),
				"column": loadErr.Pos.Column(),
			}
		}
		return f.Fail(ExitCommandError, loadErr.Code, loadErr.Message, details)
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return f.Fail(exitErr.Code, ErrCodeCompileFailed, err.Error(), nil)
	}
	return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
}

// lookupType resolves a record type name, writing the error response when
// it is unknown.
func lookupType(f *OutputFormatter, opts *RootOptions, name string) (*compiler.Registry, *record.Type, error) {
	reg, err := opts.registry()
	if err != nil {
		return nil, nil, loadErrorResponse(f, err)
	}
	t, ok := reg.Lookup(name)
	if !ok {
		return nil, nil, f.Fail(ExitCommandError, ErrCodeUnknownType,
			fmt.Sprintf("unknown record type %q", name), map[string]any{"types": typeNames(reg)})
	}
	return reg, t, nil
}

func typeNames(reg *compiler.Registry) []string {
	types := reg.Types()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name
	}
	return names
}

// constructionErrorResponse writes a record construction failure.
// Rejected input is a validation failure (exit 1).
func constructionErrorResponse(f *OutputFormatter, err error) error {
	var re *record.Error
	if !errors.As(err, &re) {
		return f.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
	}
	details := map[string]any{}
	if re.Type != "" {
		details["type"] = re.Type
	}
	if re.Path != "" {
		details["path"] = re.Path
	}
	if re.Expected != "" {
		details["expected"] = re.Expected
	}
	if re.Check != "" {
		details["check"] = re.Check
	}
	if re.Enum != "" {
		details["enum"] = re.Enum
	}
	if re.Code == record.ErrCodeArityMismatch {
		details["expected_arity"] = re.ExpectedArity
		details["actual_arity"] = re.ActualArity
	}
	if len(re.Attempts) > 0 {
		attempts := make([]string, len(re.Attempts))
		for i, a := range re.Attempts {
			attempts[i] = fmt.Sprintf("%s: %v", a.Signature, a.Err)
		}
		details["attempts"] = attempts
	}
	message := re.Message
	if re.Path != "" {
		message = fmt.Sprintf("%s: %s", re.Path, re.Message)
	}
	return f.Fail(ExitFailure, string(re.Code), message, details)
}

// openStore opens the store selected by --db.
func openStore(f *OutputFormatter, opts *RootOptions) (*store.Store, error) {
	st, err := store.Open(opts.DB)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStoreOpen, fmt.Sprintf("open store %s: %v", opts.DB, err), nil)
	}
	return st, nil
}

// storeErrorResponse writes a store failure.
func storeErrorResponse(f *OutputFormatter, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return f.Fail(ExitFailure, ErrCodeNotStored, err.Error(), nil)
	case errors.Is(err, store.ErrConflict):
		return f.Fail(ExitFailure, ErrCodeConflict, err.Error(), nil)
	}
	return f.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
}

// readInput reads a file argument; "-" reads standard input.
func readInput(f *OutputFormatter, in io.Reader, path string) ([]byte, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeReadFailed, fmt.Sprintf("read %s: %v", path, err), nil)
	}
	return data, nil
}
