// Package pipeline drives the generate, reflect, verify and refine loop that
// turns a staged diff into an accepted commit message.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/thomas-vilte/commitlens/internal/ai"
	"github.com/thomas-vilte/commitlens/internal/commitmsg"
	apperrors "github.com/thomas-vilte/commitlens/internal/errors"
	"github.com/thomas-vilte/commitlens/internal/logger"
	"github.com/thomas-vilte/commitlens/internal/models"
)

type State string

const (
	StateGenerating State = "generating"
	StateReflecting State = "reflecting"
	StateVerifying  State = "verifying"
	StateRefining   State = "refining"
	StateAccepted   State = "accepted"
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
)

// StateFunc observes state transitions. It runs on the caller's goroutine and
// must not block.
type StateFunc func(state State, iteration int)

// Input is everything a run needs besides the generator.
type Input struct {
	Changes  models.StagedChanges
	Analysis models.DiffAnalysis
	AST      []models.ASTAnalysis
	OnState  StateFunc
}

type Pipeline struct {
	gen ai.TextGenerator
	cfg Config
}

func New(gen ai.TextGenerator, cfg Config) (*Pipeline, error) {
	if gen == nil {
		return nil, apperrors.ErrProviderUnavailable.WithError(errors.New("no text generator configured"))
	}
	return &Pipeline{gen: gen, cfg: cfg.withDefaults()}, nil
}

func (p *Pipeline) Config() Config {
	return p.cfg
}

// run holds the mutable state of a single invocation.
type run struct {
	*Pipeline
	in      Input
	result  *models.PipelineResult
	state   State
	started time.Time

	analysis string
	astText  string
	files    string
	history  string
}

// Run executes the state machine. Input errors and an unreachable provider
// short-circuit with a nil result. Once generation has started the returned
// result is never nil: on cancellation, failure or panic it holds the partial
// audit trail and the error is returned alongside it.
func (p *Pipeline) Run(ctx context.Context, in Input) (result *models.PipelineResult, err error) {
	if strings.TrimSpace(in.Changes.Diff) == "" || len(in.Changes.Files) == 0 {
		return nil, apperrors.ErrNothingToAnalyze
	}

	if checker, ok := p.gen.(ai.AvailabilityChecker); ok {
		if err := checker.CheckAvailability(ctx); err != nil {
			if errors.Is(err, apperrors.ErrProviderUnavailable) || errors.Is(err, apperrors.ErrAPIKeyInvalid) {
				return nil, err
			}
			return nil, apperrors.ErrProviderUnavailable.WithError(err)
		}
	}

	r := &run{
		Pipeline: p,
		in:       in,
		started:  time.Now(),
		result: &models.PipelineResult{
			RunID:         uuid.NewString(),
			Reflections:   []models.ReflectionFeedback{},
			Verifications: []models.VerificationResult{},
		},
		analysis: ai.FormatAnalysisForPrompt(in.Analysis),
		astText:  ai.FormatASTForPrompt(in.AST),
		files:    strings.Join(in.Changes.Files, ", "),
		history:  ai.FormatList(in.Changes.RecentCommits),
	}
	ctx = logger.With(ctx, "run_id", r.result.RunID)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error(ctx, "pipeline panicked", fmt.Errorf("%v", rec), "iteration", r.result.Iterations)
			result = r.panicResult(rec)
			err = apperrors.ErrPipelinePanic.WithError(fmt.Errorf("%v", rec))
		}
	}()

	err = r.execute(ctx)
	r.result.FinalState = string(r.state)
	r.result.Timings.Total = time.Since(r.started)
	if err != nil {
		r.result.Success = false
		r.result.Error = err.Error()
	}
	return r.result, err
}

func (r *run) transition(ctx context.Context, s State) {
	r.state = s
	logger.Debug(ctx, "pipeline state", "state", s, "iteration", r.result.Iterations)
	if r.in.OnState != nil {
		r.in.OnState(s, r.result.Iterations)
	}
}

func (r *run) execute(ctx context.Context) error {
	r.transition(ctx, StateGenerating)
	candidate, err := r.generate(ctx)
	if err != nil {
		return r.fail(ctx, err)
	}

	for i := 1; ; i++ {
		r.result.Iterations = i

		r.transition(ctx, StateReflecting)
		fb, err := r.reflect(ctx, candidate, i)
		if err != nil {
			return r.fail(ctx, err)
		}
		r.result.Reflections = append(r.result.Reflections, fb)

		r.transition(ctx, StateVerifying)
		v, err := r.verify(ctx, candidate)
		if err != nil {
			return r.fail(ctx, err)
		}
		r.result.Verifications = append(r.result.Verifications, v)

		threshold := Threshold(r.cfg, r.in.Analysis.Complexity, i)
		r.result.Threshold = threshold
		r.result.FinalQualityScore = fb.QualityScore
		r.result.FinalAccuracy = v.FactualAccuracy

		if accepted, reason := Decide(r.cfg, fb, v, threshold, i); accepted {
			r.accept(ctx, candidate, reason)
			return nil
		}

		r.transition(ctx, StateRefining)
		refined, err := r.refine(ctx, candidate, fb, v)
		if err != nil {
			if r.cancelled(ctx) {
				return r.fail(ctx, err)
			}
			logger.Warn(ctx, "refinement failed, keeping current candidate", "error", err, "iteration", i)
			r.accept(ctx, candidate, ReasonRefinementFailed)
			return nil
		}
		candidate = refined
		r.transition(ctx, StateGenerating)
	}
}

func (r *run) accept(ctx context.Context, candidate models.CommitMessage, reason string) {
	r.transition(ctx, StateAccepted)
	r.result.Success = true
	r.result.Message = candidate
	r.result.FormattedMessage = commitmsg.Format(candidate)
	r.result.AcceptReason = reason
	r.result.Confidence = Confidence(r.result.FinalQualityScore, r.result.FinalAccuracy)

	logger.Info(ctx, "commit message accepted",
		"iteration", r.result.Iterations,
		"reason", reason,
		"quality_score", r.result.FinalQualityScore,
		"accuracy", r.result.FinalAccuracy,
		"threshold", r.result.Threshold)
}

// fail moves the run to a terminal error state. Cancellation of the caller's
// context is reported as ErrPipelineCancelled.
func (r *run) fail(ctx context.Context, err error) error {
	if r.cancelled(ctx) {
		r.transition(ctx, StateCancelled)
		logger.Warn(ctx, "pipeline cancelled", "iteration", r.result.Iterations)
		return apperrors.ErrPipelineCancelled.WithError(context.Cause(ctx))
	}
	r.transition(ctx, StateFailed)
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return apperrors.ErrAIGeneration.WithError(err)
	}
	return err
}

func (r *run) cancelled(ctx context.Context) bool {
	return ctx.Err() != nil
}

func (r *run) panicResult(rec any) *models.PipelineResult {
	return &models.PipelineResult{
		RunID:         r.result.RunID,
		Success:       false,
		Iterations:    r.result.Iterations,
		Reflections:   []models.ReflectionFeedback{},
		Verifications: []models.VerificationResult{},
		FinalState:    string(StateFailed),
		Error:         fmt.Sprint(rec),
	}
}

// call wraps one generation call with the per-call timeout and records its
// duration into the phase timer.
func (r *run) call(ctx context.Context, phase ai.Phase, data ai.PromptData, format ai.Format, timer *time.Duration) (string, error) {
	system, user, err := ai.BuildPrompt(phase, r.cfg.Language, data)
	if err != nil {
		return "", apperrors.NewAppError(apperrors.TypeInternal, "failed to build prompt", err)
	}

	callCtx := ctx
	if r.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.cfg.CallTimeout)
		defer cancel()
	}

	if r.cfg.Debug {
		logger.Debug(ctx, "prompt", "phase", phase, "system_len", len(system), "user_len", len(user), "preview", preview(user))
	}

	start := time.Now()
	text, err := r.gen.Generate(callCtx, system, user, ai.GenerateOptions{
		Temperature:     r.cfg.Temperature,
		MaxOutputTokens: r.cfg.MaxOutputTokens,
		Format:          format,
	})
	*timer += time.Since(start)

	if r.cfg.Debug && err == nil {
		logger.Debug(ctx, "model output", "phase", phase, "len", len(text), "preview", preview(text))
	}
	return text, err
}

func (r *run) baseData() ai.PromptData {
	return ai.PromptData{
		Files:       r.files,
		Diff:        r.in.Changes.Diff,
		Branch:      r.in.Changes.Branch,
		History:     r.history,
		Analysis:    r.analysis,
		ASTFindings: r.astText,
		MaxLength:   r.cfg.MaxLength,
	}
}

func (r *run) generate(ctx context.Context) (models.CommitMessage, error) {
	text, err := r.call(ctx, ai.PhaseGeneration, r.baseData(), ai.FormatJSON, &r.result.Timings.Generation)
	if err != nil {
		return models.CommitMessage{}, err
	}
	return r.parseCandidate(text)
}

func (r *run) reflect(ctx context.Context, candidate models.CommitMessage, iteration int) (models.ReflectionFeedback, error) {
	data := r.baseData()
	data.Candidate = commitmsg.Format(candidate)
	data.Iteration = iteration

	text, err := r.call(ctx, ai.PhaseReflection, data, ai.FormatJSON, &r.result.Timings.Reflection)
	if err != nil {
		if r.cancelled(ctx) {
			return models.ReflectionFeedback{}, err
		}
		logger.Warn(ctx, "reflection call failed, using default feedback", "error", err, "iteration", iteration)
		return models.DefaultReflection("reflection unavailable: " + err.Error()), nil
	}

	parsed := ai.ParseLenient(text, models.DefaultReflection("reflection output could not be parsed"))
	if !parsed.Parsed {
		logger.Warn(ctx, "unparseable reflection, using default feedback", "error", parsed.Err, "iteration", iteration)
		return parsed.Value, nil
	}
	return sanitizeReflection(parsed.Value), nil
}

func (r *run) verify(ctx context.Context, candidate models.CommitMessage) (models.VerificationResult, error) {
	data := r.baseData()
	data.Candidate = commitmsg.Format(candidate)

	text, err := r.call(ctx, ai.PhaseVerification, data, ai.FormatJSON, &r.result.Timings.Verification)
	if err != nil {
		if r.cancelled(ctx) {
			return models.VerificationResult{}, err
		}
		logger.Warn(ctx, "verification call failed, using default result", "error", err)
		return models.DefaultVerification("verification unavailable: " + err.Error()), nil
	}

	parsed := ai.ParseLenient(text, models.DefaultVerification("verification output could not be parsed"))
	if !parsed.Parsed {
		logger.Warn(ctx, "unparseable verification, using default result", "error", parsed.Err)
		return parsed.Value, nil
	}
	return sanitizeVerification(parsed.Value), nil
}

func (r *run) refine(ctx context.Context, candidate models.CommitMessage, fb models.ReflectionFeedback, v models.VerificationResult) (models.CommitMessage, error) {
	data := r.baseData()
	data.Candidate = commitmsg.Format(candidate)
	data.Iteration = r.result.Iterations
	data.Issues = ai.FormatList(append(append([]string{}, fb.Issues...), v.Issues...))
	data.Improvements = ai.FormatList(append(append([]string{}, fb.Improvements...), v.Recommendations...))
	data.Verification = ai.FormatVerificationForPrompt(v)
	data.Criteria = ai.FormatCriteriaScores(fb.CriteriaScores)

	text, err := r.call(ctx, ai.PhaseRefinement, data, ai.FormatJSON, &r.result.Timings.Refinement)
	if err != nil {
		return models.CommitMessage{}, err
	}
	return r.parseCandidate(text)
}

// parseCandidate accepts the requested JSON shape and falls back to a plain
// conventional commit in the response text.
func (r *run) parseCandidate(text string) (models.CommitMessage, error) {
	parsed := ai.ParseLenient(text, models.CommitMessage{})
	msg := parsed.Value
	if !parsed.Parsed || msg.IsZero() {
		var err error
		msg, err = commitmsg.Parse(stripFences(text))
		if err != nil {
			return models.CommitMessage{}, err
		}
	}
	return commitmsg.Normalize(msg, r.cfg.MaxLength), nil
}

func sanitizeReflection(fb models.ReflectionFeedback) models.ReflectionFeedback {
	fb.Decision = models.Decision(strings.ToLower(strings.TrimSpace(string(fb.Decision))))
	if fb.Decision != models.DecisionAccept && fb.Decision != models.DecisionRefine {
		fb.Decision = models.DecisionRefine
	}
	fb.QualityScore = clampScore(fb.QualityScore)
	for k, v := range fb.CriteriaScores {
		fb.CriteriaScores[k] = clampScore(v)
	}
	fb.Issues = nonNil(fb.Issues)
	fb.Improvements = nonNil(fb.Improvements)
	return fb
}

func sanitizeVerification(v models.VerificationResult) models.VerificationResult {
	v.FactualAccuracy = clampScore(v.FactualAccuracy)
	v.Issues = nonNil(v.Issues)
	v.VerifiedSymbols = nonNil(v.VerifiedSymbols)
	v.MissingSymbols = nonNil(v.MissingSymbols)
	v.HallucinatedSymbols = nonNil(v.HallucinatedSymbols)
	v.Recommendations = nonNil(v.Recommendations)
	return v
}

func clampScore(s int) int {
	return min(max(s, 0), 100)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func preview(s string) string {
	const n = 200
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
