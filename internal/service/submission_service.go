package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-judge-api/internal/dto"
	"github.com/noah-isme/gema-judge-api/internal/evaluation"
	"github.com/noah-isme/gema-judge-api/internal/models"
	"github.com/noah-isme/gema-judge-api/internal/observability"
	"github.com/noah-isme/gema-judge-api/internal/repository"
)

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrSubmissionForbidden indicates the viewer may not read the submission.
var ErrSubmissionForbidden = errors.New("submission belongs to another user")

const defaultHistoryLimit = 50

// SubmissionService runs and grades programs against stored problems.
type SubmissionService interface {
	Run(ctx context.Context, userID, problemID uint, payload dto.CodeRequest) (dto.VerdictResponse, error)
	Submit(ctx context.Context, userID, problemID uint, payload dto.CodeRequest) (dto.SubmissionResponse, error)
	Get(ctx context.Context, id, viewerID uint, role string) (dto.SubmissionResponse, error)
	ListForProblem(ctx context.Context, userID, problemID uint, limit int) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	problems    repository.ProblemRepository
	submissions repository.SubmissionRepository
	solved      repository.SolvedProblemRepository
	evaluator   ProgramEvaluator
	events      SubmissionEventPublisher
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance. events may be nil.
func NewSubmissionService(
	problems repository.ProblemRepository,
	submissions repository.SubmissionRepository,
	solved repository.SolvedProblemRepository,
	evaluator ProgramEvaluator,
	events SubmissionEventPublisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		problems:    problems,
		submissions: submissions,
		solved:      solved,
		evaluator:   evaluator,
		events:      events,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

// Run evaluates the program against visible cases only. Nothing is persisted.
func (s *submissionService) Run(ctx context.Context, userID, problemID uint, payload dto.CodeRequest) (dto.VerdictResponse, error) {
	verdict, err := s.evaluate(ctx, userID, problemID, payload, evaluation.ModeRun)
	if err != nil {
		return dto.VerdictResponse{}, err
	}
	return dto.NewVerdictResponse(verdict), nil
}

// Submit grades the program against every case, records the verdict and marks
// the problem solved when it is accepted.
func (s *submissionService) Submit(ctx context.Context, userID, problemID uint, payload dto.CodeRequest) (dto.SubmissionResponse, error) {
	verdict, err := s.evaluate(ctx, userID, problemID, payload, evaluation.ModeSubmit)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	cases, err := json.Marshal(verdict.Cases)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission := models.Submission{
		ProblemID:      problemID,
		UserID:         userID,
		Language:       evaluation.NormalizeLanguage(payload.Language),
		Source:         payload.Source,
		Status:         string(verdict.Status),
		PassedCount:    verdict.PassedCount,
		TotalCount:     verdict.TotalCount,
		RuntimeSeconds: verdict.RuntimeSeconds,
		PeakMemoryKB:   verdict.PeakMemoryKB,
		ErrorMessage:   verdict.ErrorMessage,
		Cases:          datatypes.JSON(cases),
		CreatedAt:      s.now().UTC(),
	}
	if err := s.submissions.Record(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if verdict.Accepted() {
		if err := s.solved.MarkSolved(ctx, userID, problemID); err != nil {
			return dto.SubmissionResponse{}, err
		}
	}

	s.publish(ctx, submission, verdict)

	return dto.NewSubmissionResponse(submission, true)
}

func (s *submissionService) Get(ctx context.Context, id, viewerID uint, role string) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if submission.UserID != viewerID && !isStaffRole(role) {
		return dto.SubmissionResponse{}, ErrSubmissionForbidden
	}

	response, err := dto.NewSubmissionResponse(submission, true)
	if err != nil {
		s.logger.Error().Err(err).Uint("submission_id", id).Msg("stored verdict is unreadable")
		return dto.SubmissionResponse{}, err
	}
	return response, nil
}

func (s *submissionService) ListForProblem(ctx context.Context, userID, problemID uint, limit int) ([]dto.SubmissionResponse, error) {
	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}

	submissions, err := s.submissions.ListByUserAndProblem(ctx, userID, problemID, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		response, err := dto.NewSubmissionResponse(submission, false)
		if err != nil {
			s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("stored verdict is unreadable")
			return nil, err
		}
		responses = append(responses, response)
	}
	return responses, nil
}

func (s *submissionService) evaluate(ctx context.Context, userID, problemID uint, payload dto.CodeRequest, mode evaluation.Mode) (evaluation.Verdict, error) {
	if err := s.validator.Struct(payload); err != nil {
		return evaluation.Verdict{}, err
	}

	stored, err := s.problems.GetTestCases(ctx, problemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return evaluation.Verdict{}, ErrProblemNotFound
		}
		return evaluation.Verdict{}, err
	}

	return s.evaluator.Evaluate(ctx, toEvaluationCases(stored), evaluation.Request{
		Identity: SubmitIdentity(userID),
		Program:  evaluation.Program{Language: payload.Language, SourceCode: payload.Source},
		Mode:     mode,
	})
}

func (s *submissionService) publish(ctx context.Context, submission models.Submission, verdict evaluation.Verdict) {
	if s.events == nil {
		return
	}

	event := SubmissionJudgedEvent{
		SubmissionID: submission.ID,
		ProblemID:    submission.ProblemID,
		UserID:       submission.UserID,
		Language:     submission.Language,
		Status:       submission.Status,
		Accepted:     verdict.Accepted(),
		PassedCount:  submission.PassedCount,
		TotalCount:   submission.TotalCount,
		JudgedAt:     submission.CreatedAt,
	}

	if err := s.events.PublishJudged(ctx, event); err != nil {
		observability.SubmissionEvents().WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to publish submission event")
		return
	}
	observability.SubmissionEvents().WithLabelValues("published").Inc()
}

func toEvaluationCases(stored repository.ProblemCases) evaluation.Cases {
	cases := evaluation.Cases{
		Visible: make([]evaluation.TestCase, 0, len(stored.Visible)),
		Hidden:  make([]evaluation.TestCase, 0, len(stored.Hidden)),
	}
	for _, tc := range stored.Visible {
		cases.Visible = append(cases.Visible, evaluation.TestCase{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput, Visible: true})
	}
	for _, tc := range stored.Hidden {
		cases.Hidden = append(cases.Hidden, evaluation.TestCase{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput})
	}
	return cases
}

// SubmitIdentity is the identity string shared by the cooldown guard and logs.
func SubmitIdentity(userID uint) string {
	return "user:" + strconv.FormatUint(uint64(userID), 10)
}

func isStaffRole(role string) bool {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "admin", "teacher":
		return true
	default:
		return false
	}
}
