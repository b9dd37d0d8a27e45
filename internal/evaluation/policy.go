package evaluation

import "fmt"

// Policy decides how far aggregation goes and what it reports for each mode.
type Policy interface {
	Mode() Mode
	// Select returns the cases evaluated under this mode, visible cases first.
	Select(cases Cases) []TestCase
	// StopAfterFailure reports whether aggregation halts once tc has failed.
	StopAfterFailure(tc TestCase) bool
	// ReportCases reports whether per-case verdicts are returned.
	ReportCases() bool
	// Redact reports whether tc's content must be hidden from the caller.
	Redact(tc TestCase) bool
}

// RunPolicy evaluates visible cases only and never stops early.
type RunPolicy struct{}

func (RunPolicy) Mode() Mode { return ModeRun }

func (RunPolicy) Select(cases Cases) []TestCase {
	return markVisibility(cases.Visible, true)
}

func (RunPolicy) StopAfterFailure(TestCase) bool { return false }

func (RunPolicy) ReportCases() bool { return true }

func (RunPolicy) Redact(TestCase) bool { return false }

// SubmitPolicy reports every visible case, then stops at the first failing
// hidden case. Hidden content is redacted.
type SubmitPolicy struct{}

func (SubmitPolicy) Mode() Mode { return ModeSubmit }

func (SubmitPolicy) Select(cases Cases) []TestCase {
	return allCases(cases)
}

func (SubmitPolicy) StopAfterFailure(tc TestCase) bool { return !tc.Visible }

func (SubmitPolicy) ReportCases() bool { return true }

func (SubmitPolicy) Redact(tc TestCase) bool { return !tc.Visible }

// ValidatePolicy stops at the first failing case of any visibility and only
// reports the failing label.
type ValidatePolicy struct{}

func (ValidatePolicy) Mode() Mode { return ModeValidate }

func (ValidatePolicy) Select(cases Cases) []TestCase {
	return allCases(cases)
}

func (ValidatePolicy) StopAfterFailure(TestCase) bool { return true }

func (ValidatePolicy) ReportCases() bool { return false }

func (ValidatePolicy) Redact(TestCase) bool { return false }

// PolicyFor returns the policy for mode.
func PolicyFor(mode Mode) (Policy, error) {
	switch mode {
	case ModeRun:
		return RunPolicy{}, nil
	case ModeSubmit:
		return SubmitPolicy{}, nil
	case ModeValidate:
		return ValidatePolicy{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

func allCases(cases Cases) []TestCase {
	selected := make([]TestCase, 0, len(cases.Visible)+len(cases.Hidden))
	selected = append(selected, markVisibility(cases.Visible, true)...)
	selected = append(selected, markVisibility(cases.Hidden, false)...)
	return selected
}

func markVisibility(cases []TestCase, visible bool) []TestCase {
	marked := make([]TestCase, len(cases))
	for i, tc := range cases {
		tc.Visible = visible
		marked[i] = tc
	}
	return marked
}
