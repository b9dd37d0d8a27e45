package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-judge-api/internal/dto"
	"github.com/noah-isme/gema-judge-api/internal/evaluation"
	"github.com/noah-isme/gema-judge-api/internal/models"
	"github.com/noah-isme/gema-judge-api/internal/repository"
)

// ErrProblemNotFound indicates the requested problem does not exist.
var ErrProblemNotFound = errors.New("problem not found")

// ErrDuplicateReference indicates two reference solutions share a language.
var ErrDuplicateReference = errors.New("duplicate reference solution language")

// ProgramEvaluator runs programs against a problem's test cases.
type ProgramEvaluator interface {
	Evaluate(ctx context.Context, cases evaluation.Cases, req evaluation.Request) (evaluation.Verdict, error)
	Validate(ctx context.Context, cases evaluation.Cases, references []evaluation.Program) error
}

// ProblemService exposes problem authoring and browsing.
type ProblemService interface {
	Create(ctx context.Context, authorID uint, payload dto.ProblemCreateRequest) (dto.ProblemResponse, error)
	Get(ctx context.Context, id, viewerID uint) (dto.ProblemResponse, error)
	List(ctx context.Context, filter dto.ProblemFilter) (dto.ProblemListResponse, error)
	ListSolved(ctx context.Context, userID uint) ([]dto.ProblemSummaryResponse, error)
}

type problemService struct {
	repo      repository.ProblemRepository
	solved    repository.SolvedProblemRepository
	evaluator ProgramEvaluator
	validator *validator.Validate
	policy    *bluemonday.Policy
	strict    *bluemonday.Policy
	logger    zerolog.Logger
}

// NewProblemService builds a problem service.
func NewProblemService(repo repository.ProblemRepository, solved repository.SolvedProblemRepository, evaluator ProgramEvaluator, validate *validator.Validate, logger zerolog.Logger) ProblemService {
	return &problemService{
		repo:      repo,
		solved:    solved,
		evaluator: evaluator,
		validator: validate,
		policy:    bluemonday.UGCPolicy(),
		strict:    bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "problem_service").Logger(),
	}
}

// Create validates every reference solution against the problem's cases and
// persists the problem only when all of them are accepted.
func (s *problemService) Create(ctx context.Context, authorID uint, payload dto.ProblemCreateRequest) (dto.ProblemResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProblemResponse{}, err
	}

	references, err := normaliseReferences(payload.ReferenceSolutions)
	if err != nil {
		return dto.ProblemResponse{}, err
	}

	boilerplate := datatypes.JSONMap{}
	for language, code := range payload.Boilerplate {
		normalised := evaluation.NormalizeLanguage(language)
		if _, err := evaluation.LanguageID(normalised); err != nil {
			return dto.ProblemResponse{}, fmt.Errorf("boilerplate: %w", err)
		}
		boilerplate[normalised] = code
	}

	problem := models.Problem{
		Title:       strings.TrimSpace(s.strict.Sanitize(payload.Title)),
		Description: strings.TrimSpace(s.policy.Sanitize(payload.Description)),
		Difficulty:  strings.ToLower(strings.TrimSpace(payload.Difficulty)),
		Tags:        strings.Join(normaliseTags(payload.Tags), ","),
		Boilerplate: boilerplate,
		AuthorID:    authorID,
	}

	cases := evaluation.Cases{}
	position := 0
	for _, tc := range payload.VisibleTestCases {
		problem.TestCases = append(problem.TestCases, models.TestCase{Position: position, Input: tc.Input, ExpectedOutput: tc.ExpectedOutput, Visible: true})
		cases.Visible = append(cases.Visible, evaluation.TestCase{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput, Visible: true})
		position++
	}
	for _, tc := range payload.HiddenTestCases {
		problem.TestCases = append(problem.TestCases, models.TestCase{Position: position, Input: tc.Input, ExpectedOutput: tc.ExpectedOutput})
		cases.Hidden = append(cases.Hidden, evaluation.TestCase{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput})
		position++
	}

	programs := make([]evaluation.Program, 0, len(references))
	for _, ref := range references {
		programs = append(programs, evaluation.Program{Language: ref.Language, SourceCode: ref.SourceCode})
		problem.References = append(problem.References, ref)
	}

	if err := s.evaluator.Validate(ctx, cases, programs); err != nil {
		var failure *evaluation.ValidationFailure
		if errors.As(err, &failure) {
			s.logger.Info().
				Uint("author_id", authorID).
				Str("language", failure.Language).
				Str("label", string(failure.Label)).
				Msg("problem rejected by reference validation")
		}
		return dto.ProblemResponse{}, err
	}

	if err := s.repo.Create(ctx, &problem); err != nil {
		return dto.ProblemResponse{}, err
	}

	s.logger.Info().Uint("problem_id", problem.ID).Uint("author_id", authorID).Msg("problem created")
	return dto.NewProblemResponse(problem), nil
}

// Get returns the problem with the viewer's solved flag.
func (s *problemService) Get(ctx context.Context, id, viewerID uint) (dto.ProblemResponse, error) {
	problem, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProblemResponse{}, ErrProblemNotFound
		}
		return dto.ProblemResponse{}, err
	}

	response := dto.NewProblemResponse(problem)
	if viewerID != 0 {
		solved, err := s.solved.IsSolved(ctx, viewerID, id)
		if err != nil {
			return dto.ProblemResponse{}, err
		}
		response.Solved = solved
	}
	return response, nil
}

// ListSolved returns the problems the user has had accepted, oldest solve first.
func (s *problemService) ListSolved(ctx context.Context, userID uint) ([]dto.ProblemSummaryResponse, error) {
	ids, err := s.solved.ListSolved(ctx, userID)
	if err != nil {
		return nil, err
	}

	problems, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return dto.NewProblemSummaries(problems), nil
}

func (s *problemService) List(ctx context.Context, filter dto.ProblemFilter) (dto.ProblemListResponse, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	query := repository.ProblemQuery{
		Difficulty: strings.ToLower(strings.TrimSpace(filter.Difficulty)),
		Search:     strings.TrimSpace(filter.Search),
		Tags:       normaliseTags(filter.Tags),
		Offset:     (page - 1) * pageSize,
		Limit:      pageSize,
	}

	problems, total, err := s.repo.List(ctx, query)
	if err != nil {
		return dto.ProblemListResponse{}, err
	}

	return dto.NewProblemListResponse(problems, dto.Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: int(total),
	}), nil
}

func normaliseReferences(payload []dto.ReferenceSolutionPayload) ([]models.ReferenceSolution, error) {
	seen := make(map[string]struct{}, len(payload))
	references := make([]models.ReferenceSolution, 0, len(payload))
	for _, ref := range payload {
		language := evaluation.NormalizeLanguage(ref.Language)
		if _, err := evaluation.LanguageID(language); err != nil {
			return nil, err
		}
		if _, ok := seen[language]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateReference, language)
		}
		seen[language] = struct{}{}
		references = append(references, models.ReferenceSolution{Language: language, SourceCode: ref.SourceCode})
	}
	return references, nil
}

func normaliseTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.ToLower(strings.TrimSpace(tag))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
