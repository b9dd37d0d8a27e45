package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-judge-api/internal/models"
)

func setupJudgeTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Problem{}, &models.TestCase{}, &models.ReferenceSolution{}, &models.Submission{}, &models.SolvedProblem{}))
	return db
}

func sampleProblem() models.Problem {
	return models.Problem{
		Title:       "Sum",
		Description: "Add two numbers",
		Difficulty:  models.ProblemDifficultyEasy,
		Tags:        "math, warmup",
		Boilerplate: datatypes.JSONMap{"python": "def solve():\n    pass"},
		AuthorID:    7,
		TestCases: []models.TestCase{
			{Position: 2, Input: "5 5", ExpectedOutput: "10", Visible: false},
			{Position: 0, Input: "1 2", ExpectedOutput: "3", Visible: true},
			{Position: 1, Input: "2 2", ExpectedOutput: "4", Visible: true},
		},
		References: []models.ReferenceSolution{
			{Language: "python", SourceCode: "print(sum(map(int, input().split())))"},
		},
	}
}

func TestProblemRepositoryCreateAndGetTestCases(t *testing.T) {
	db := setupJudgeTestDB(t)
	repo := NewProblemRepository(db)
	ctx := context.Background()

	problem := sampleProblem()
	require.NoError(t, repo.Create(ctx, &problem))
	require.NotZero(t, problem.ID)

	stored, err := repo.GetByID(ctx, problem.ID)
	require.NoError(t, err)
	require.Len(t, stored.TestCases, 3)
	require.Equal(t, "1 2", stored.TestCases[0].Input)
	require.Equal(t, []string{"math", "warmup"}, stored.TagsSlice())

	cases, err := repo.GetTestCases(ctx, problem.ID)
	require.NoError(t, err)
	require.Len(t, cases.Visible, 2)
	require.Len(t, cases.Hidden, 1)
	require.Equal(t, "2 2", cases.Visible[1].Input)
	require.Equal(t, "10", cases.Hidden[0].ExpectedOutput)
	require.Equal(t, "def solve():\n    pass", cases.Boilerplate["python"])
	require.Len(t, cases.References, 1)
}

func TestProblemRepositoryGetMissing(t *testing.T) {
	repo := NewProblemRepository(setupJudgeTestDB(t))

	_, err := repo.GetTestCases(context.Background(), 99)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestProblemRepositoryListFilters(t *testing.T) {
	db := setupJudgeTestDB(t)
	repo := NewProblemRepository(db)
	ctx := context.Background()

	easy := sampleProblem()
	hard := sampleProblem()
	hard.Title = "Graph Paths"
	hard.Difficulty = models.ProblemDifficultyHard
	hard.Tags = "graphs"
	require.NoError(t, repo.Create(ctx, &easy))
	require.NoError(t, repo.Create(ctx, &hard))

	items, total, err := repo.List(ctx, ProblemQuery{Difficulty: "HARD"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Graph Paths", items[0].Title)

	items, total, err = repo.List(ctx, ProblemQuery{Tags: []string{"math"}})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Sum", items[0].Title)

	items, total, err = repo.List(ctx, ProblemQuery{Limit: 1})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, items, 1)
}

func TestProblemRepositoryListByIDsKeepsRequestedOrder(t *testing.T) {
	repo := NewProblemRepository(setupJudgeTestDB(t))
	ctx := context.Background()

	var ids []uint
	for _, title := range []string{"A", "B", "C"} {
		problem := models.Problem{Title: title, Description: "d", Difficulty: models.ProblemDifficultyEasy, AuthorID: 1}
		require.NoError(t, repo.Create(ctx, &problem))
		ids = append(ids, problem.ID)
	}

	problems, err := repo.ListByIDs(ctx, []uint{ids[2], 404, ids[0]})
	require.NoError(t, err)
	require.Len(t, problems, 2)
	require.Equal(t, "C", problems[0].Title)
	require.Equal(t, "A", problems[1].Title)

	problems, err = repo.ListByIDs(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, problems)
}

func TestSubmissionRepositoryRecordAndList(t *testing.T) {
	db := setupJudgeTestDB(t)
	problems := NewProblemRepository(db)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	problem := sampleProblem()
	require.NoError(t, problems.Create(ctx, &problem))

	for _, status := range []string{"Wrong Answer", "Accepted"} {
		submission := models.Submission{ProblemID: problem.ID, UserID: 3, Language: "python", Source: "x", Status: status, TotalCount: 3}
		require.NoError(t, repo.Record(ctx, &submission))
		require.NotZero(t, submission.ID)
	}
	other := models.Submission{ProblemID: problem.ID, UserID: 4, Language: "c", Status: "Accepted"}
	require.NoError(t, repo.Record(ctx, &other))

	items, err := repo.ListByUserAndProblem(ctx, 3, problem.ID, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Accepted", items[0].Status)

	stored, err := repo.GetByID(ctx, other.ID)
	require.NoError(t, err)
	require.Equal(t, uint(4), stored.UserID)
}

func TestSolvedProblemRepositoryIsIdempotent(t *testing.T) {
	repo := NewSolvedProblemRepository(setupJudgeTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.MarkSolved(ctx, 1, 10))
	require.NoError(t, repo.MarkSolved(ctx, 1, 10))
	require.NoError(t, repo.MarkSolved(ctx, 1, 11))

	solved, err := repo.IsSolved(ctx, 1, 10)
	require.NoError(t, err)
	require.True(t, solved)

	solved, err = repo.IsSolved(ctx, 2, 10)
	require.NoError(t, err)
	require.False(t, solved)

	ids, err := repo.ListSolved(ctx, 1)
	require.NoError(t, err)
	require.ElementsMatch(t, []uint{10, 11}, ids)
}
