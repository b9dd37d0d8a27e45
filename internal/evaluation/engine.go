package evaluation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-judge-api/internal/observability"
	"github.com/noah-isme/gema-judge-api/pkg/judge"
)

// Gateway is the subset of the judge client the engine drives.
type Gateway interface {
	SubmitBatch(ctx context.Context, submissions []judge.Submission) ([]judge.Token, error)
	PollUntilComplete(ctx context.Context, tokens []judge.Token, interval, deadline time.Duration) ([]judge.Result, error)
}

// Config describes polling knobs used for every evaluation.
type Config struct {
	PollInterval time.Duration
	PollDeadline time.Duration
}

// Request describes one program evaluation.
type Request struct {
	Identity string
	Program  Program
	Mode     Mode
}

// Engine turns a program and a problem's test cases into a verdict.
type Engine struct {
	gateway Gateway
	cfg     Config
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// NewEngine constructs an evaluation engine.
func NewEngine(gateway Gateway, cfg Config, logger zerolog.Logger) *Engine {
	return &Engine{
		gateway: gateway,
		cfg:     cfg,
		tracer:  otel.Tracer("github.com/noah-isme/gema-judge-api/internal/evaluation"),
		logger:  logger.With().Str("component", "evaluation_engine").Logger(),
	}
}

// Evaluate runs req.Program against the cases selected by req.Mode.
func (e *Engine) Evaluate(ctx context.Context, cases Cases, req Request) (Verdict, error) {
	policy, err := PolicyFor(req.Mode)
	if err != nil {
		return Verdict{}, err
	}

	languageID, err := LanguageID(req.Program.Language)
	if err != nil {
		return Verdict{}, err
	}

	ctx, span := e.tracer.Start(ctx, "evaluation.evaluate", trace.WithAttributes(
		attribute.String("evaluation.mode", string(req.Mode)),
		attribute.String("evaluation.language", NormalizeLanguage(req.Program.Language)),
	))
	defer span.End()

	logger := e.logger.With().
		Str("identity", req.Identity).
		Str("mode", string(req.Mode)).
		Str("language", NormalizeLanguage(req.Program.Language)).
		Logger()

	selected := policy.Select(cases)
	submissions := make([]judge.Submission, len(selected))
	for i, tc := range selected {
		submissions[i] = judge.Submission{
			SourceCode:     req.Program.SourceCode,
			LanguageID:     languageID,
			Stdin:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
		}
	}

	start := time.Now()
	results, err := e.execute(ctx, submissions)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error().Err(err).Int("cases", len(selected)).Msg("evaluation aborted")
		return Verdict{}, err
	}

	verdict, err := Aggregate(results, selected, policy, logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error().Err(err).Msg("judge results could not be aggregated")
		return Verdict{}, err
	}

	observability.Evaluations().WithLabelValues(string(req.Mode), string(verdict.Status)).Inc()
	observability.EvaluationLatency().WithLabelValues(string(req.Mode)).Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.String("evaluation.status", string(verdict.Status)),
		attribute.Int("evaluation.passed", verdict.PassedCount),
		attribute.Int("evaluation.total", verdict.TotalCount),
	)

	logger.Info().
		Str("status", string(verdict.Status)).
		Int("passed", verdict.PassedCount).
		Int("total", verdict.TotalCount).
		Msg("evaluation finished")

	return verdict, nil
}

// Validate checks every reference program against all of the problem's cases.
// It returns a *ValidationFailure carrying the first failing label, or nil.
func (e *Engine) Validate(ctx context.Context, cases Cases, references []Program) error {
	for _, program := range references {
		verdict, err := e.Evaluate(ctx, cases, Request{Identity: "authoring", Program: program, Mode: ModeValidate})
		if err != nil {
			return err
		}
		if !verdict.Accepted() {
			return &ValidationFailure{Language: NormalizeLanguage(program.Language), Label: verdict.Status}
		}
	}
	return nil
}

func (e *Engine) execute(ctx context.Context, submissions []judge.Submission) ([]judge.Result, error) {
	if len(submissions) == 0 {
		return []judge.Result{}, nil
	}

	tokens, err := e.gateway.SubmitBatch(ctx, submissions)
	if err != nil {
		return nil, err
	}
	if len(tokens) != len(submissions) {
		return nil, fmt.Errorf("%w: %d tokens for %d submissions", ErrProtocol, len(tokens), len(submissions))
	}

	return e.gateway.PollUntilComplete(ctx, tokens, e.cfg.PollInterval, e.cfg.PollDeadline)
}
