package evaluation

import (
	"errors"
	"fmt"
)

// Mode selects how an evaluation is aggregated.
type Mode string

const (
	ModeRun      Mode = "run"
	ModeSubmit   Mode = "submit"
	ModeValidate Mode = "validate"
)

// HiddenMarker replaces hidden test case content in submit verdicts.
const HiddenMarker = "Hidden"

// ErrUnsupportedLanguage indicates the language has no judge id.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// ErrUnknownMode indicates an evaluation mode outside run, submit and validate.
var ErrUnknownMode = errors.New("unknown evaluation mode")

// TestCase is one input/expected output pair of a problem.
type TestCase struct {
	Input          string
	ExpectedOutput string
	Visible        bool
}

// Cases groups a problem's test cases by visibility.
type Cases struct {
	Visible []TestCase
	Hidden  []TestCase
}

// Program is a piece of source code in a judge language.
type Program struct {
	Language   string
	SourceCode string
}

// CaseVerdict is the per test case outcome.
type CaseVerdict struct {
	Passed         bool    `json:"passed"`
	Status         Label   `json:"status"`
	Input          string  `json:"input"`
	ExpectedOutput string  `json:"expected_output"`
	ActualOutput   string  `json:"actual_output"`
	Error          string  `json:"error,omitempty"`
	RuntimeSeconds float64 `json:"runtime_seconds"`
	MemoryKB       int     `json:"memory_kb"`
	Visible        bool    `json:"visible"`
}

// Verdict aggregates every evaluated case of one program.
type Verdict struct {
	Mode           Mode          `json:"mode"`
	Status         Label         `json:"status"`
	PassedCount    int           `json:"passed_count"`
	TotalCount     int           `json:"total_count"`
	RuntimeSeconds float64       `json:"runtime_seconds"`
	PeakMemoryKB   int           `json:"peak_memory_kb"`
	ErrorMessage   string        `json:"error_message,omitempty"`
	Cases          []CaseVerdict `json:"cases,omitempty"`
}

// Accepted reports whether every case passed.
func (v Verdict) Accepted() bool {
	return v.Status == LabelAccepted
}

// ValidationFailure is returned when a reference solution does not satisfy its
// own problem's test cases.
type ValidationFailure struct {
	Language string
	Label    Label
}

func (e *ValidationFailure) Error() string {
	return fmt.Sprintf("reference solution for %s failed: %s", e.Language, e.Label)
}
