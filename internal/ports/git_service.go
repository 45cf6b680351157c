package ports

import (
	"context"

	"github.com/thomas-vilte/commitlens/internal/models"
)

// DiffSource supplies the staged change set and the file versions the
// syntax-tree detector compares.
type DiffSource interface {
	GetStagedChanges(ctx context.Context, maxDiffBytes int) (models.StagedChanges, error)
	// FileAtHEAD returns ok=false when the file is new.
	FileAtHEAD(ctx context.Context, path string) (content []byte, ok bool, err error)
	// StagedFileContent returns ok=false when the file is deleted in the index.
	StagedFileContent(ctx context.Context, path string) (content []byte, ok bool, err error)
	CreateCommit(ctx context.Context, message string) error
}
