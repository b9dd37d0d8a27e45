package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-judge-api/internal/dto"
	"github.com/noah-isme/gema-judge-api/internal/evaluation"
	"github.com/noah-isme/gema-judge-api/internal/models"
	"github.com/noah-isme/gema-judge-api/internal/repository"
)

func newProblemServiceUnderTest(t *testing.T, gateway *fakeJudge) (ProblemService, repository.ProblemRepository, repository.SolvedProblemRepository) {
	t.Helper()
	db := setupJudgeDB(t)
	repo := repository.NewProblemRepository(db)
	solved := repository.NewSolvedProblemRepository(db)
	return NewProblemService(repo, solved, newJudgeEngine(gateway), newValidator(), zerolog.Nop()), repo, solved
}

func TestProblemServiceCreatePersistsValidatedProblem(t *testing.T) {
	gateway := &fakeJudge{}
	svc, repo, _ := newProblemServiceUnderTest(t, gateway)

	created, err := svc.Create(context.Background(), 9, sumProblemPayload())
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, []string{"math", "warmup"}, created.Tags)
	require.Equal(t, "<p>Add two numbers.</p>", created.Description)
	require.Len(t, created.VisibleTestCases, 2)
	require.Equal(t, 1, created.HiddenTestCount)
	require.Equal(t, "import sys\n", created.Boilerplate["python"])

	// one batch per reference, each with every case
	require.Equal(t, 2, gateway.batchCount())
	require.Len(t, gateway.batches[0], 3)
	require.Equal(t, 109, gateway.batches[0][0].LanguageID)
	require.Equal(t, 54, gateway.batches[1][0].LanguageID)

	cases, err := repo.GetTestCases(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, cases.Visible, 2)
	require.Len(t, cases.Hidden, 1)
	require.Len(t, cases.References, 2)
}

func TestProblemServiceCreateRejectsFailingReference(t *testing.T) {
	gateway := &fakeJudge{statuses: map[string][]int{"ref-cpp": {3, 3, 5}}}
	svc, repo, _ := newProblemServiceUnderTest(t, gateway)

	_, err := svc.Create(context.Background(), 9, sumProblemPayload())
	var failure *evaluation.ValidationFailure
	require.True(t, errors.As(err, &failure))
	require.Equal(t, "cpp", failure.Language)
	require.Equal(t, evaluation.LabelTimeLimitExceeded, failure.Label)

	_, total, err := repo.List(context.Background(), repository.ProblemQuery{})
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestProblemServiceCreateValidatesPayload(t *testing.T) {
	gateway := &fakeJudge{}
	svc, _, _ := newProblemServiceUnderTest(t, gateway)

	payload := sumProblemPayload()
	payload.VisibleTestCases = nil
	_, err := svc.Create(context.Background(), 9, payload)
	var validationErrors validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrors))

	payload = sumProblemPayload()
	payload.ReferenceSolutions = append(payload.ReferenceSolutions, dto.ReferenceSolutionPayload{Language: "ruby", SourceCode: "x"})
	_, err = svc.Create(context.Background(), 9, payload)
	require.ErrorIs(t, err, evaluation.ErrUnsupportedLanguage)

	payload = sumProblemPayload()
	payload.ReferenceSolutions = append(payload.ReferenceSolutions, dto.ReferenceSolutionPayload{Language: "Python", SourceCode: "again"})
	_, err = svc.Create(context.Background(), 9, payload)
	require.ErrorIs(t, err, ErrDuplicateReference)

	require.Zero(t, gateway.batchCount())
}

func TestProblemServiceGetHidesHiddenCases(t *testing.T) {
	svc, _, _ := newProblemServiceUnderTest(t, &fakeJudge{})

	created, err := svc.Create(context.Background(), 1, sumProblemPayload())
	require.NoError(t, err)

	problem, err := svc.Get(context.Background(), created.ID, 0)
	require.NoError(t, err)
	require.Len(t, problem.VisibleTestCases, 2)
	for _, tc := range problem.VisibleTestCases {
		require.NotEqual(t, "42", tc.ExpectedOutput)
	}
	require.ElementsMatch(t, []string{"python", "cpp"}, problem.Languages)

	_, err = svc.Get(context.Background(), 404, 0)
	require.ErrorIs(t, err, ErrProblemNotFound)
}

func TestProblemServiceListPaginates(t *testing.T) {
	svc, repo, _ := newProblemServiceUnderTest(t, &fakeJudge{})
	ctx := context.Background()

	for _, difficulty := range []string{models.ProblemDifficultyEasy, models.ProblemDifficultyHard, models.ProblemDifficultyHard} {
		require.NoError(t, repo.Create(ctx, &models.Problem{Title: "P", Description: "d", Difficulty: difficulty, AuthorID: 1}))
	}

	list, err := svc.List(ctx, dto.ProblemFilter{Difficulty: "Hard", PageSize: 1})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Equal(t, 2, list.Pagination.TotalItems)
	require.Equal(t, 1, list.Pagination.Page)

	list, err = svc.List(ctx, dto.ProblemFilter{PageSize: 500})
	require.NoError(t, err)
	require.Equal(t, 100, list.Pagination.PageSize)
	require.Len(t, list.Items, 3)
}

func TestProblemServiceReportsSolvedProblems(t *testing.T) {
	svc, repo, solved := newProblemServiceUnderTest(t, &fakeJudge{})
	ctx := context.Background()

	var ids []uint
	for _, title := range []string{"First", "Second", "Third"} {
		problem := models.Problem{Title: title, Description: "d", Difficulty: models.ProblemDifficultyEasy, AuthorID: 1}
		require.NoError(t, repo.Create(ctx, &problem))
		ids = append(ids, problem.ID)
	}

	require.NoError(t, solved.MarkSolved(ctx, 7, ids[2]))
	require.NoError(t, solved.MarkSolved(ctx, 7, ids[0]))
	require.NoError(t, solved.MarkSolved(ctx, 8, ids[1]))

	detail, err := svc.Get(ctx, ids[2], 7)
	require.NoError(t, err)
	require.True(t, detail.Solved)

	detail, err = svc.Get(ctx, ids[1], 7)
	require.NoError(t, err)
	require.False(t, detail.Solved)

	list, err := svc.ListSolved(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.ElementsMatch(t, []uint{ids[0], ids[2]}, []uint{list[0].ID, list[1].ID})

	empty, err := svc.ListSolved(ctx, 99)
	require.NoError(t, err)
	require.Empty(t, empty)
}
