// Package cerrors defines the compiler's error taxonomy (spec §7) and
// the exit-code mapping the CLI surface reports (spec §6). Each kind
// is a distinct type so callers can use errors.As to branch, the way
// the teacher's storage package distinguishes lock contention from
// I/O failure.
package cerrors

import (
	"fmt"
	"sort"
	"strings"
)

// Severity distinguishes diagnostics that block generation from ones
// that merely get reported.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one reported problem, carrying enough context to sort
// and print deterministically.
type Diagnostic struct {
	Severity  Severity
	Model     string // model name, "" if not model-scoped
	FieldPath string // e.g. "columns[3].reference_table"
	Message   string
}

func (d Diagnostic) String() string {
	if d.Model == "" {
		return fmt.Sprintf("[%s] %s", d.Severity, d.Message)
	}
	if d.FieldPath == "" {
		return fmt.Sprintf("[%s] %s: %s", d.Severity, d.Model, d.Message)
	}
	return fmt.Sprintf("[%s] %s.%s: %s", d.Severity, d.Model, d.FieldPath, d.Message)
}

// Diagnostics is an accumulated, sortable list of Diagnostic. Loader
// and Validator accumulate into one of these rather than returning on
// the first problem (spec §7 propagation policy).
type Diagnostics []Diagnostic

// Add appends a diagnostic.
func (d *Diagnostics) Add(sev Severity, model, fieldPath, format string, args ...any) {
	*d = append(*d, Diagnostic{
		Severity:  sev,
		Model:     model,
		FieldPath: fieldPath,
		Message:   fmt.Sprintf(format, args...),
	})
}

// Errorf is shorthand for Add(SeverityError, ...).
func (d *Diagnostics) Errorf(model, fieldPath, format string, args ...any) {
	d.Add(SeverityError, model, fieldPath, format, args...)
}

// Warnf is shorthand for Add(SeverityWarning, ...).
func (d *Diagnostics) Warnf(model, fieldPath, format string, args ...any) {
	d.Add(SeverityWarning, model, fieldPath, format, args...)
}

// HasErrors reports whether any error-severity diagnostic exists,
// which per spec §7 must halt the pipeline before generation.
func (d Diagnostics) HasErrors() bool {
	for _, diag := range d {
		if diag.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity diagnostics.
func (d Diagnostics) Errors() Diagnostics {
	var out Diagnostics
	for _, diag := range d {
		if diag.Severity == SeverityError {
			out = append(out, diag)
		}
	}
	return out
}

// Warnings returns only the warning-severity diagnostics.
func (d Diagnostics) Warnings() Diagnostics {
	var out Diagnostics
	for _, diag := range d {
		if diag.Severity == SeverityWarning {
			out = append(out, diag)
		}
	}
	return out
}

// Sort orders diagnostics by model name then field path, the
// deterministic order spec §7 requires on the error stream.
func (d Diagnostics) Sort() {
	sort.SliceStable(d, func(i, j int) bool {
		if d[i].Model != d[j].Model {
			return d[i].Model < d[j].Model
		}
		return d[i].FieldPath < d[j].FieldPath
	})
}

// ExitCode is implemented by every error kind below so the CLI surface
// can map a returned error directly to a process exit code.
type ExitCoder interface {
	error
	ExitCode() int
}

// LoadError: a definition file was unreadable or structurally
// malformed. The loader itself does not construct one: it records
// per-file problems as error-severity Diagnostics and keeps loading
// the other files.
type LoadError struct {
	File string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.File, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }
func (e *LoadError) ExitCode() int { return 4 }

// ValidationError: an invariant I1-I9 was violated.
type ValidationError struct {
	Diagnostics Diagnostics
}

func (e *ValidationError) Error() string {
	e.Diagnostics.Sort()
	lines := make([]string, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics.Errors() {
		lines = append(lines, d.String())
	}
	return strings.Join(lines, "\n")
}
func (e *ValidationError) ExitCode() int { return 1 }

// CycleError: the dependency graph contains a cycle. Members is the
// ordered list (alphabetical starting point) of the cycle's
// participants, per spec §4.4.
type CycleError struct {
	Members []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Members, " -> "))
}
func (e *CycleError) ExitCode() int { return 2 }

// GenerationError: SQL generation could not proceed for a model (a
// seed model with nothing to select from, a missing alias mapping, a
// macro the dialect does not support), or graph export was asked for
// an unknown format. An unknown dialect is an UnknownDialectError
// instead.
type GenerationError struct {
	Model string
	Msg   string
}

func (e *GenerationError) Error() string {
	if e.Model == "" {
		return "generation error: " + e.Msg
	}
	return fmt.Sprintf("generation error in %s: %s", e.Model, e.Msg)
}
func (e *GenerationError) ExitCode() int { return 1 }

// StateError: snapshot conflict, malformed snapshot, or lock
// contention. Per spec §7, apply() leaves the previous snapshot
// intact when this is returned.
type StateError struct {
	Env string
	Msg string
}

func (e *StateError) Error() string { return fmt.Sprintf("state error (%s): %s", e.Env, e.Msg) }
func (e *StateError) ExitCode() int { return 3 }

// IOError: a filesystem failure not otherwise classified above.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("io error on %s: %v", e.Path, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }
func (e *IOError) ExitCode() int { return 4 }

// UnknownDialectError: the invoker selected a dialect the compiler
// does not recognize (spec §6).
type UnknownDialectError struct {
	Dialect string
}

func (e *UnknownDialectError) Error() string { return fmt.Sprintf("unknown dialect %q", e.Dialect) }
func (e *UnknownDialectError) ExitCode() int  { return 5 }
