package evaluation

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-judge-api/pkg/judge"
)

// Aggregate folds judge results into a verdict. results[i] must belong to
// cases[i]; cases are expected in the order produced by policy.Select.
func Aggregate(results []judge.Result, cases []TestCase, policy Policy, logger zerolog.Logger) (Verdict, error) {
	if len(results) != len(cases) {
		return Verdict{}, fmt.Errorf("%w: %d results for %d cases", ErrProtocol, len(results), len(cases))
	}

	verdict := Verdict{
		Mode:       policy.Mode(),
		Status:     LabelAccepted,
		TotalCount: len(cases),
	}
	if policy.ReportCases() {
		verdict.Cases = make([]CaseVerdict, 0, len(cases))
	}

	failed := false
	for i, tc := range cases {
		result := results[i]

		label, err := Classify(result.StatusID)
		if err != nil {
			return Verdict{}, fmt.Errorf("case %d: %w", i+1, err)
		}
		if !KnownStatus(result.StatusID) {
			logger.Warn().Int("status_id", result.StatusID).Int("case", i+1).Msg("unknown judge status, treating as internal error")
		}

		if label == LabelAccepted {
			verdict.PassedCount++
			verdict.RuntimeSeconds += result.TimeSeconds
			if result.MemoryKB > verdict.PeakMemoryKB {
				verdict.PeakMemoryKB = result.MemoryKB
			}
			if policy.ReportCases() {
				verdict.Cases = append(verdict.Cases, caseVerdict(tc, result, label, policy.Redact(tc)))
			}
			continue
		}

		if !failed {
			failed = true
			verdict.Status = label
			verdict.ErrorMessage = string(label)
		}
		if policy.ReportCases() {
			verdict.Cases = append(verdict.Cases, caseVerdict(tc, result, label, policy.Redact(tc)))
		}
		if policy.StopAfterFailure(tc) {
			break
		}
	}

	return verdict, nil
}

func caseVerdict(tc TestCase, result judge.Result, label Label, redact bool) CaseVerdict {
	cv := CaseVerdict{
		Passed:         label == LabelAccepted,
		Status:         label,
		Input:          tc.Input,
		ExpectedOutput: tc.ExpectedOutput,
		ActualOutput:   result.Stdout,
		RuntimeSeconds: result.TimeSeconds,
		MemoryKB:       result.MemoryKB,
		Visible:        tc.Visible,
	}
	if redact {
		cv.Input = HiddenMarker
		cv.ExpectedOutput = HiddenMarker
		cv.ActualOutput = HiddenMarker
	}
	if !cv.Passed {
		cv.Error = failureMessage(cv, result, label, redact)
	}
	return cv
}

// failureMessage prefers stderr, then compiler output, then an expected/got
// comparison for wrong answers. Program output of a redacted case can echo
// its input, so stderr is never surfaced for one.
func failureMessage(cv CaseVerdict, result judge.Result, label Label, redact bool) string {
	if redact {
		if label == LabelWrongAnswer {
			return fmt.Sprintf("Expected %s, got %s", HiddenMarker, HiddenMarker)
		}
		return string(label)
	}
	if stderr := strings.TrimSpace(result.Stderr); stderr != "" {
		return stderr
	}
	if compile := strings.TrimSpace(result.CompileOutput); compile != "" {
		return compile
	}
	if label == LabelWrongAnswer {
		return fmt.Sprintf("Expected %s, got %s", strings.TrimSpace(cv.ExpectedOutput), strings.TrimSpace(cv.ActualOutput))
	}
	return string(label)
}
