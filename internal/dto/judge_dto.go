package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/noah-isme/gema-judge-api/internal/evaluation"
	"github.com/noah-isme/gema-judge-api/internal/models"
)

// CodeRequest is the payload for running or submitting a program.
type CodeRequest struct {
	Language string `json:"language" validate:"required"`
	Source   string `json:"source" validate:"required,min=1"`
}

// CaseResponse is the per test case outcome returned to users.
type CaseResponse struct {
	Passed         bool    `json:"passed"`
	Status         string  `json:"status"`
	Input          string  `json:"input"`
	ExpectedOutput string  `json:"expected_output"`
	ActualOutput   string  `json:"actual_output"`
	Error          string  `json:"error,omitempty"`
	RuntimeSeconds float64 `json:"runtime_seconds"`
	MemoryKB       int     `json:"memory_kb"`
	Visible        bool    `json:"visible"`
}

// VerdictResponse is an aggregated evaluation result.
type VerdictResponse struct {
	Mode           string         `json:"mode"`
	Status         string         `json:"status"`
	Accepted       bool           `json:"accepted"`
	PassedCount    int            `json:"passed_count"`
	TotalCount     int            `json:"total_count"`
	RuntimeSeconds float64        `json:"runtime_seconds"`
	PeakMemoryKB   int            `json:"peak_memory_kb"`
	ErrorMessage   *string        `json:"error_message"`
	Cases          []CaseResponse `json:"cases"`
}

// SubmissionResponse is a stored submission with its verdict.
type SubmissionResponse struct {
	ID        uint            `json:"id"`
	ProblemID uint            `json:"problem_id"`
	UserID    uint            `json:"user_id"`
	Language  string          `json:"language"`
	Source    string          `json:"source,omitempty"`
	Verdict   VerdictResponse `json:"verdict"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewVerdictResponse converts an evaluation verdict into a DTO.
func NewVerdictResponse(verdict evaluation.Verdict) VerdictResponse {
	response := VerdictResponse{
		Mode:           string(verdict.Mode),
		Status:         string(verdict.Status),
		Accepted:       verdict.Accepted(),
		PassedCount:    verdict.PassedCount,
		TotalCount:     verdict.TotalCount,
		RuntimeSeconds: verdict.RuntimeSeconds,
		PeakMemoryKB:   verdict.PeakMemoryKB,
		Cases:          make([]CaseResponse, 0, len(verdict.Cases)),
	}
	if verdict.ErrorMessage != "" {
		message := verdict.ErrorMessage
		response.ErrorMessage = &message
	}
	for _, cv := range verdict.Cases {
		response.Cases = append(response.Cases, CaseResponse{
			Passed:         cv.Passed,
			Status:         string(cv.Status),
			Input:          cv.Input,
			ExpectedOutput: cv.ExpectedOutput,
			ActualOutput:   cv.ActualOutput,
			Error:          cv.Error,
			RuntimeSeconds: cv.RuntimeSeconds,
			MemoryKB:       cv.MemoryKB,
			Visible:        cv.Visible,
		})
	}
	return response
}

// NewSubmissionResponse builds a response DTO from a stored submission. A
// per-case blob that does not decode is an error.
func NewSubmissionResponse(submission models.Submission, includeSource bool) (SubmissionResponse, error) {
	verdict := evaluation.Verdict{
		Mode:           evaluation.ModeSubmit,
		Status:         evaluation.Label(submission.Status),
		PassedCount:    submission.PassedCount,
		TotalCount:     submission.TotalCount,
		RuntimeSeconds: submission.RuntimeSeconds,
		PeakMemoryKB:   submission.PeakMemoryKB,
		ErrorMessage:   submission.ErrorMessage,
	}
	if len(submission.Cases) > 0 {
		var cases []evaluation.CaseVerdict
		if err := json.Unmarshal(submission.Cases, &cases); err != nil {
			return SubmissionResponse{}, fmt.Errorf("decode cases of submission %d: %w", submission.ID, err)
		}
		verdict.Cases = cases
	}

	response := SubmissionResponse{
		ID:        submission.ID,
		ProblemID: submission.ProblemID,
		UserID:    submission.UserID,
		Language:  submission.Language,
		Verdict:   NewVerdictResponse(verdict),
		CreatedAt: submission.CreatedAt,
	}
	if includeSource {
		response.Source = submission.Source
	}
	return response, nil
}
