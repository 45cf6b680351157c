package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/thomas-vilte/commitlens/internal/astdiff"
	"github.com/thomas-vilte/commitlens/internal/history"
	"github.com/thomas-vilte/commitlens/internal/models"
	"github.com/thomas-vilte/commitlens/internal/pipeline"
)

type (
	MockGitService struct {
		mock.Mock
	}

	MockRunner struct {
		mock.Mock
	}

	MockDetector struct {
		mock.Mock
	}

	MockRecorder struct {
		mock.Mock
	}

	MockUsage struct {
		mock.Mock
	}
)

func (m *MockGitService) GetStagedChanges(ctx context.Context, maxDiffBytes int) (models.StagedChanges, error) {
	args := m.Called(ctx, maxDiffBytes)
	return args.Get(0).(models.StagedChanges), args.Error(1)
}

func (m *MockGitService) FileAtHEAD(ctx context.Context, path string) ([]byte, bool, error) {
	args := m.Called(ctx, path)
	content, _ := args.Get(0).([]byte)
	return content, args.Bool(1), args.Error(2)
}

func (m *MockGitService) StagedFileContent(ctx context.Context, path string) ([]byte, bool, error) {
	args := m.Called(ctx, path)
	content, _ := args.Get(0).([]byte)
	return content, args.Bool(1), args.Error(2)
}

func (m *MockGitService) CreateCommit(ctx context.Context, message string) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockRunner) Run(ctx context.Context, in pipeline.Input) (*models.PipelineResult, error) {
	args := m.Called(ctx, in)
	result, _ := args.Get(0).(*models.PipelineResult)
	return result, args.Error(1)
}

func (m *MockDetector) SupportsFile(path string) bool {
	args := m.Called(path)
	return args.Bool(0)
}

func (m *MockDetector) AnalyzeAll(ctx context.Context, files []astdiff.FileVersions) []models.ASTAnalysis {
	args := m.Called(ctx, files)
	return args.Get(0).([]models.ASTAnalysis)
}

func (m *MockRecorder) Save(ctx context.Context, run *history.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRecorder) Recent(ctx context.Context, limit int) ([]history.Run, error) {
	args := m.Called(ctx, limit)
	runs, _ := args.Get(0).([]history.Run)
	return runs, args.Error(1)
}

func (m *MockRecorder) Stats(ctx context.Context) (history.Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(history.Stats), args.Error(1)
}

func (m *MockUsage) Usage() models.TokenUsage {
	args := m.Called()
	return args.Get(0).(models.TokenUsage)
}
