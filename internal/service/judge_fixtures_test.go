package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-judge-api/internal/dto"
	"github.com/noah-isme/gema-judge-api/internal/evaluation"
	"github.com/noah-isme/gema-judge-api/internal/models"
	"github.com/noah-isme/gema-judge-api/pkg/judge"
)

// fakeJudge answers every batch instantly. Statuses are looked up by source
// code; missing entries are accepted.
type fakeJudge struct {
	mu       sync.Mutex
	statuses map[string][]int
	batches  [][]judge.Submission
	pollErr  error
}

func (f *fakeJudge) SubmitBatch(ctx context.Context, submissions []judge.Submission) ([]judge.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, submissions)
	tokens := make([]judge.Token, len(submissions))
	for i := range tokens {
		tokens[i] = judge.Token(fmt.Sprintf("b%d-%d", len(f.batches), i))
	}
	return tokens, nil
}

func (f *fakeJudge) PollUntilComplete(ctx context.Context, tokens []judge.Token, interval, deadline time.Duration) ([]judge.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	batch := f.batches[len(f.batches)-1]
	codes := f.statuses[batch[0].SourceCode]
	results := make([]judge.Result, len(tokens))
	for i := range tokens {
		code := judge.StatusAccepted
		if i < len(codes) {
			code = codes[i]
		}
		results[i] = judge.Result{Token: tokens[i], StatusID: code, Stdout: batch[i].ExpectedOutput, TimeSeconds: 0.02, MemoryKB: 2048}
	}
	return results, nil
}

func (f *fakeJudge) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

type recordingPublisher struct {
	events []SubmissionJudgedEvent
	err    error
}

func (p *recordingPublisher) PublishJudged(ctx context.Context, event SubmissionJudgedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func setupJudgeDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Problem{}, &models.TestCase{}, &models.ReferenceSolution{}, &models.Submission{}, &models.SolvedProblem{}))
	return db
}

func newJudgeEngine(gateway evaluation.Gateway) *evaluation.Engine {
	return evaluation.NewEngine(gateway, evaluation.Config{PollInterval: time.Millisecond, PollDeadline: time.Second}, zerolog.Nop())
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func sumProblemPayload() dto.ProblemCreateRequest {
	return dto.ProblemCreateRequest{
		Title:       "Sum of Two",
		Description: "<p>Add two numbers.</p><script>alert(1)</script>",
		Difficulty:  "easy",
		Tags:        []string{"Math", "math", " warmup "},
		VisibleTestCases: []dto.TestCasePayload{
			{Input: "1 2", ExpectedOutput: "3"},
			{Input: "2 2", ExpectedOutput: "4"},
		},
		HiddenTestCases: []dto.TestCasePayload{
			{Input: "40 2", ExpectedOutput: "42"},
		},
		Boilerplate: map[string]string{"Python": "import sys\n"},
		ReferenceSolutions: []dto.ReferenceSolutionPayload{
			{Language: "python", SourceCode: "ref-python"},
			{Language: "cpp", SourceCode: "ref-cpp"},
		},
	}
}
