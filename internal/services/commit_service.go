package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/thomas-vilte/commitlens/internal/ai"
	"github.com/thomas-vilte/commitlens/internal/analyzer"
	"github.com/thomas-vilte/commitlens/internal/astdiff"
	apperrors "github.com/thomas-vilte/commitlens/internal/errors"
	"github.com/thomas-vilte/commitlens/internal/history"
	"github.com/thomas-vilte/commitlens/internal/logger"
	"github.com/thomas-vilte/commitlens/internal/models"
	"github.com/thomas-vilte/commitlens/internal/pipeline"
	"github.com/thomas-vilte/commitlens/internal/ports"
)

// Runner is the pipeline entry point the service drives.
type Runner interface {
	Run(ctx context.Context, in pipeline.Input) (*models.PipelineResult, error)
}

// AnalysisReport is the AI-free part of a commit generation.
type AnalysisReport struct {
	Changes  models.StagedChanges `json:"changes"`
	Analysis models.DiffAnalysis  `json:"analysis"`
	AST      []models.ASTAnalysis `json:"ast"`
}

type CommitService struct {
	git          ports.DiffSource
	analyzer     *analyzer.Analyzer
	detector     ports.RefactorDetector
	runner       Runner
	history      ports.RunRecorder
	usage        ai.UsageReporter
	maxDiffBytes int
	provider     string
	model        string
}

type CommitOption func(*CommitService)

// WithDetector enables syntax-tree enrichment.
func WithDetector(d ports.RefactorDetector) CommitOption {
	return func(s *CommitService) { s.detector = d }
}

func WithHistory(h ports.RunRecorder) CommitOption {
	return func(s *CommitService) { s.history = h }
}

// WithUsage attaches per-run token usage from the generator to results.
func WithUsage(u ai.UsageReporter) CommitOption {
	return func(s *CommitService) { s.usage = u }
}

func WithMaxDiffBytes(n int) CommitOption {
	return func(s *CommitService) { s.maxDiffBytes = n }
}

func WithModelInfo(provider, model string) CommitOption {
	return func(s *CommitService) {
		s.provider = provider
		s.model = model
	}
}

func NewCommitService(git ports.DiffSource, runner Runner, opts ...CommitOption) *CommitService {
	s := &CommitService{
		git:      git,
		analyzer: analyzer.New(),
		runner:   runner,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze reads the staged changes and runs the structural and syntax-tree
// analyzers. It never calls the text generator.
func (s *CommitService) Analyze(ctx context.Context) (*AnalysisReport, error) {
	changes, err := s.git.GetStagedChanges(ctx, s.maxDiffBytes)
	if err != nil {
		return nil, err
	}
	if len(changes.Files) == 0 {
		return nil, apperrors.ErrNoStagedFiles
	}
	if strings.TrimSpace(changes.Diff) == "" {
		return nil, apperrors.ErrNothingToAnalyze
	}

	analysis := s.analyzer.Analyze(changes.Diff, changes.Files)

	return &AnalysisReport{
		Changes:  changes,
		Analysis: analysis,
		AST:      s.analyzeAST(ctx, changes.Files),
	}, nil
}

func (s *CommitService) analyzeAST(ctx context.Context, files []string) []models.ASTAnalysis {
	if s.detector == nil {
		return []models.ASTAnalysis{}
	}

	versions := make([]astdiff.FileVersions, 0, len(files))
	for _, path := range files {
		if !s.detector.SupportsFile(path) {
			continue
		}
		oldContent, _, err := s.git.FileAtHEAD(ctx, path)
		if err != nil {
			logger.Warn(ctx, "skipping syntax tree analysis", "file", path, "error", err)
			continue
		}
		newContent, _, err := s.git.StagedFileContent(ctx, path)
		if err != nil {
			logger.Warn(ctx, "skipping syntax tree analysis", "file", path, "error", err)
			continue
		}
		versions = append(versions, astdiff.FileVersions{Path: path, Old: oldContent, New: newContent})
	}

	start := time.Now()
	results := s.detector.AnalyzeAll(ctx, versions)
	logger.Debug(ctx, "syntax tree analysis finished", "files", len(versions), "duration_ms", time.Since(start).Milliseconds())
	return results
}

// GenerateCommit analyzes the staged changes and runs the pipeline, reporting
// state transitions to onState when it is not nil. The run is recorded in
// history whether it succeeded or not; recording failures are only logged.
func (s *CommitService) GenerateCommit(ctx context.Context, onState pipeline.StateFunc) (*models.PipelineResult, *AnalysisReport, error) {
	report, err := s.Analyze(ctx)
	if err != nil {
		return nil, nil, err
	}

	var before models.TokenUsage
	if s.usage != nil {
		before = s.usage.Usage()
	}

	result, err := s.runner.Run(ctx, pipeline.Input{
		Changes:  report.Changes,
		Analysis: report.Analysis,
		AST:      report.AST,
		OnState:  onState,
	})
	if result == nil {
		return nil, report, err
	}

	if s.usage != nil {
		result.Usage = usageDelta(before, s.usage.Usage())
	}

	s.record(ctx, result, report)
	return result, report, err
}

func (s *CommitService) record(ctx context.Context, result *models.PipelineResult, report *AnalysisReport) {
	if s.history == nil {
		return
	}
	run, err := history.NewRun(result, history.RunMeta{
		Branch:     report.Changes.Branch,
		Complexity: report.Analysis.Complexity,
		FileCount:  len(report.Changes.Files),
		Provider:   s.provider,
		Model:      s.model,
	})
	if err == nil {
		// The caller may already be cancelled; the audit trail is still worth keeping.
		err = s.history.Save(context.WithoutCancel(ctx), run)
	}
	if err != nil {
		logger.Warn(ctx, "could not record pipeline run", "error", err, "run_id", result.RunID)
	}
}

// Commit creates a git commit with message.
func (s *CommitService) Commit(ctx context.Context, message string) error {
	if message == "" {
		return apperrors.ErrCreateCommit.WithError(errors.New("empty commit message"))
	}
	return s.git.CreateCommit(ctx, message)
}

func (s *CommitService) History(ctx context.Context, limit int) ([]history.Run, error) {
	if s.history == nil {
		return []history.Run{}, nil
	}
	return s.history.Recent(ctx, limit)
}

func (s *CommitService) Stats(ctx context.Context) (history.Stats, error) {
	if s.history == nil {
		return history.Stats{}, nil
	}
	return s.history.Stats(ctx)
}

func usageDelta(before, after models.TokenUsage) *models.TokenUsage {
	return &models.TokenUsage{
		Provider:     after.Provider,
		Model:        after.Model,
		Calls:        after.Calls - before.Calls,
		InputTokens:  after.InputTokens - before.InputTokens,
		OutputTokens: after.OutputTokens - before.OutputTokens,
		TotalTokens:  after.TotalTokens - before.TotalTokens,
		CostUSD:      after.CostUSD - before.CostUSD,
		CacheHits:    after.CacheHits - before.CacheHits,
		DurationMs:   after.DurationMs - before.DurationMs,
	}
}
