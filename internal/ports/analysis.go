package ports

import (
	"context"

	"github.com/thomas-vilte/commitlens/internal/astdiff"
	"github.com/thomas-vilte/commitlens/internal/history"
	"github.com/thomas-vilte/commitlens/internal/models"
)

// RefactorDetector is the optional syntax-tree enrichment. Callers ask
// SupportsFile before fetching file versions.
type RefactorDetector interface {
	SupportsFile(path string) bool
	AnalyzeAll(ctx context.Context, files []astdiff.FileVersions) []models.ASTAnalysis
}

// RunRecorder persists the audit trail of pipeline runs.
type RunRecorder interface {
	Save(ctx context.Context, run *history.Run) error
	Recent(ctx context.Context, limit int) ([]history.Run, error)
	Stats(ctx context.Context) (history.Stats, error)
}
