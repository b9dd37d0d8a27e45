package dto

import (
	"time"

	"github.com/noah-isme/gema-judge-api/internal/models"
)

// TestCasePayload describes one test case in an authoring request.
type TestCasePayload struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output" validate:"required"`
}

// ReferenceSolutionPayload is the author's program for one language.
type ReferenceSolutionPayload struct {
	Language   string `json:"language" validate:"required"`
	SourceCode string `json:"source_code" validate:"required"`
}

// ProblemCreateRequest is the payload for authoring a problem.
type ProblemCreateRequest struct {
	Title              string                     `json:"title" validate:"required,max=255"`
	Description        string                     `json:"description" validate:"required"`
	Difficulty         string                     `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Tags               []string                   `json:"tags"`
	VisibleTestCases   []TestCasePayload          `json:"visible_test_cases" validate:"required,min=1,dive"`
	HiddenTestCases    []TestCasePayload          `json:"hidden_test_cases" validate:"dive"`
	Boilerplate        map[string]string          `json:"boilerplate"`
	ReferenceSolutions []ReferenceSolutionPayload `json:"reference_solutions" validate:"required,min=1,dive"`
}

// ProblemFilter defines query parameters for listing problems.
type ProblemFilter struct {
	Difficulty string   `query:"difficulty"`
	Tags       []string `query:"tags"`
	Search     string   `query:"search"`
	Page       int      `query:"page"`
	PageSize   int      `query:"page_size"`
}

// Pagination describes pagination metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
}

// TestCaseResponse is a visible test case.
type TestCaseResponse struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

// ProblemSummaryResponse is a problem in a list.
type ProblemSummaryResponse struct {
	ID         uint      `json:"id"`
	Title      string    `json:"title"`
	Difficulty string    `json:"difficulty"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProblemResponse is a problem with its visible test cases. Hidden cases are
// only counted.
type ProblemResponse struct {
	ProblemSummaryResponse
	Description      string             `json:"description"`
	Boilerplate      map[string]string  `json:"boilerplate"`
	Languages        []string           `json:"languages"`
	VisibleTestCases []TestCaseResponse `json:"visible_test_cases"`
	HiddenTestCount  int                `json:"hidden_test_count"`
	Solved           bool               `json:"solved"`
}

// ProblemListResponse wraps problems and pagination metadata.
type ProblemListResponse struct {
	Items      []ProblemSummaryResponse `json:"items"`
	Pagination Pagination               `json:"pagination"`
}

// NewProblemSummaryResponse builds a summary DTO from the model.
func NewProblemSummaryResponse(problem models.Problem) ProblemSummaryResponse {
	return ProblemSummaryResponse{
		ID:         problem.ID,
		Title:      problem.Title,
		Difficulty: problem.Difficulty,
		Tags:       problem.TagsSlice(),
		CreatedAt:  problem.CreatedAt,
	}
}

// NewProblemResponse builds a detail DTO from the model.
func NewProblemResponse(problem models.Problem) ProblemResponse {
	response := ProblemResponse{
		ProblemSummaryResponse: NewProblemSummaryResponse(problem),
		Description:            problem.Description,
		Boilerplate:            map[string]string{},
		Languages:              make([]string, 0, len(problem.References)),
		VisibleTestCases:       []TestCaseResponse{},
	}

	for language := range problem.Boilerplate {
		response.Boilerplate[language] = problem.BoilerplateFor(language)
	}
	for _, reference := range problem.References {
		response.Languages = append(response.Languages, reference.Language)
	}
	for _, tc := range problem.TestCases {
		if !tc.Visible {
			response.HiddenTestCount++
			continue
		}
		response.VisibleTestCases = append(response.VisibleTestCases, TestCaseResponse{
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
		})
	}

	return response
}

// NewProblemSummaries builds summary DTOs in the given order.
func NewProblemSummaries(problems []models.Problem) []ProblemSummaryResponse {
	items := make([]ProblemSummaryResponse, 0, len(problems))
	for _, problem := range problems {
		items = append(items, NewProblemSummaryResponse(problem))
	}
	return items
}

// NewProblemListResponse builds a list DTO.
func NewProblemListResponse(problems []models.Problem, pagination Pagination) ProblemListResponse {
	return ProblemListResponse{Items: NewProblemSummaries(problems), Pagination: pagination}
}
