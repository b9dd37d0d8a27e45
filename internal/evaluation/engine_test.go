package evaluation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-judge-api/pkg/judge"
)

type stubGateway struct {
	statuses  map[string][]int
	submitted [][]judge.Submission
	submitErr error
	pollErr   error
	tokens    int
}

func (s *stubGateway) SubmitBatch(ctx context.Context, submissions []judge.Submission) ([]judge.Token, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	s.submitted = append(s.submitted, submissions)
	count := len(submissions)
	if s.tokens > 0 {
		count = s.tokens
	}
	tokens := make([]judge.Token, count)
	for i := range tokens {
		tokens[i] = judge.Token(fmt.Sprintf("%d-%d", len(s.submitted), i))
	}
	return tokens, nil
}

func (s *stubGateway) PollUntilComplete(ctx context.Context, tokens []judge.Token, interval, deadline time.Duration) ([]judge.Result, error) {
	if s.pollErr != nil {
		return nil, s.pollErr
	}
	batch := s.submitted[len(s.submitted)-1]
	codes := s.statuses[batch[0].SourceCode]
	results := make([]judge.Result, len(tokens))
	for i := range tokens {
		code := 3
		if i < len(codes) {
			code = codes[i]
		}
		results[i] = judge.Result{Token: tokens[i], StatusID: code, Stdout: batch[i].ExpectedOutput, TimeSeconds: 0.01, MemoryKB: 1000 + i}
	}
	return results, nil
}

func newTestEngine(gateway Gateway) *Engine {
	return NewEngine(gateway, Config{PollInterval: time.Millisecond, PollDeadline: time.Second}, zerolog.Nop())
}

func TestEngineSubmitHiddenSegfault(t *testing.T) {
	gateway := &stubGateway{statuses: map[string][]int{"solve()": {3, 3, 7}}}
	engine := newTestEngine(gateway)

	cases := Cases{Visible: visibleCases(2), Hidden: hiddenCases(1)}
	verdict, err := engine.Evaluate(context.Background(), cases, Request{
		Identity: "user-1",
		Program:  Program{Language: "cpp", SourceCode: "solve()"},
		Mode:     ModeSubmit,
	})
	require.NoError(t, err)
	require.Equal(t, LabelRuntimeSIGSEGV, verdict.Status)
	require.Equal(t, 2, verdict.PassedCount)
	require.Equal(t, 3, verdict.TotalCount)
	require.Equal(t, ModeSubmit, verdict.Mode)

	require.Len(t, gateway.submitted, 1)
	batch := gateway.submitted[0]
	require.Len(t, batch, 3)
	for _, submission := range batch {
		require.Equal(t, 54, submission.LanguageID)
		require.Equal(t, "solve()", submission.SourceCode)
	}
	require.Equal(t, "in-0", batch[0].Stdin)
	require.Equal(t, "secret-in-0", batch[2].Stdin)
	require.Equal(t, "secret-out-0", batch[2].ExpectedOutput)
}

func TestEngineRunSendsVisibleCasesOnly(t *testing.T) {
	gateway := &stubGateway{statuses: map[string][]int{"x": {3, 4}}}
	engine := newTestEngine(gateway)

	verdict, err := engine.Evaluate(context.Background(), Cases{Visible: visibleCases(2), Hidden: hiddenCases(5)}, Request{
		Program: Program{Language: "python", SourceCode: "x"},
		Mode:    ModeRun,
	})
	require.NoError(t, err)
	require.Len(t, gateway.submitted[0], 2)
	require.Len(t, verdict.Cases, 2)
	require.Equal(t, LabelWrongAnswer, verdict.Status)
}

func TestEngineRejectsUnsupportedLanguage(t *testing.T) {
	gateway := &stubGateway{}
	engine := newTestEngine(gateway)

	_, err := engine.Evaluate(context.Background(), Cases{Visible: visibleCases(1)}, Request{
		Program: Program{Language: "cobol", SourceCode: "x"},
		Mode:    ModeRun,
	})
	require.ErrorIs(t, err, ErrUnsupportedLanguage)
	require.Empty(t, gateway.submitted)
}

func TestEnginePropagatesGatewayErrors(t *testing.T) {
	timeout := &judge.Error{Kind: judge.KindTimeout, Op: "poll"}
	engine := newTestEngine(&stubGateway{pollErr: timeout})

	_, err := engine.Evaluate(context.Background(), Cases{Visible: visibleCases(1)}, Request{
		Program: Program{Language: "c", SourceCode: "x"},
		Mode:    ModeSubmit,
	})
	require.ErrorIs(t, err, judge.ErrTimeout)

	engine = newTestEngine(&stubGateway{submitErr: &judge.Error{Kind: judge.KindTransient, Op: "submit"}})
	_, err = engine.Evaluate(context.Background(), Cases{Visible: visibleCases(1)}, Request{
		Program: Program{Language: "c", SourceCode: "x"},
		Mode:    ModeSubmit,
	})
	require.ErrorIs(t, err, judge.ErrGateway)
}

func TestEngineRejectsTokenCountMismatch(t *testing.T) {
	engine := newTestEngine(&stubGateway{tokens: 1})

	_, err := engine.Evaluate(context.Background(), Cases{Visible: visibleCases(3)}, Request{
		Program: Program{Language: "java", SourceCode: "x"},
		Mode:    ModeRun,
	})
	require.ErrorIs(t, err, ErrProtocol)
}

func TestEngineSkipsJudgeForEmptySelection(t *testing.T) {
	gateway := &stubGateway{}
	engine := newTestEngine(gateway)

	verdict, err := engine.Evaluate(context.Background(), Cases{Hidden: hiddenCases(2)}, Request{
		Program: Program{Language: "java", SourceCode: "x"},
		Mode:    ModeRun,
	})
	require.NoError(t, err)
	require.True(t, verdict.Accepted())
	require.Empty(t, gateway.submitted)
}

func TestEngineValidateReportsFirstFailingReference(t *testing.T) {
	gateway := &stubGateway{statuses: map[string][]int{
		"good": {3, 3, 3, 3, 3},
		"bad":  {3, 3, 4, 5, 3},
	}}
	engine := newTestEngine(gateway)
	cases := Cases{Visible: visibleCases(2), Hidden: hiddenCases(3)}

	err := engine.Validate(context.Background(), cases, []Program{
		{Language: "python", SourceCode: "good"},
		{Language: "Java", SourceCode: "bad"},
		{Language: "c", SourceCode: "never-run"},
	})

	var failure *ValidationFailure
	require.True(t, errors.As(err, &failure))
	require.Equal(t, LabelWrongAnswer, failure.Label)
	require.Equal(t, "java", failure.Language)
	require.Len(t, gateway.submitted, 2)
}

func TestEngineValidateAcceptsPassingReferences(t *testing.T) {
	gateway := &stubGateway{statuses: map[string][]int{}}
	engine := newTestEngine(gateway)

	err := engine.Validate(context.Background(), Cases{Visible: visibleCases(1), Hidden: hiddenCases(1)}, []Program{
		{Language: "python", SourceCode: "a"},
		{Language: "javascript", SourceCode: "b"},
	})
	require.NoError(t, err)
	require.Len(t, gateway.submitted, 2)
	require.Len(t, gateway.submitted[0], 2)
}
