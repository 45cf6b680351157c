package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_WithError(t *testing.T) {
	baseErr := errors.New("original error")
	appErr := ErrGetDiff.WithError(baseErr)

	if appErr.Err != baseErr {
		t.Errorf("Expected underlying error to be %v, got %v", baseErr, appErr.Err)
	}

	if appErr.Type != TypeGit {
		t.Errorf("Expected type %s, got %s", TypeGit, appErr.Type)
	}

	if !errors.Is(appErr, baseErr) {
		t.Errorf("Expected errors.Is to reach the wrapped error")
	}
}

func TestAppError_WithContext(t *testing.T) {
	appErr := ErrReadStagedFile.WithContext("file", "test.txt").WithContext("stderr", "file not found")

	if appErr.Context["file"] != "test.txt" {
		t.Errorf("Expected file context 'test.txt', got %v", appErr.Context["file"])
	}

	if appErr.Context["stderr"] != "file not found" {
		t.Errorf("Expected stderr context 'file not found', got %v", appErr.Context["stderr"])
	}

	if ErrReadStagedFile.Context != nil {
		t.Errorf("Expected sentinel context to stay untouched, got %v", ErrReadStagedFile.Context)
	}
}

func TestAppError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same sentinel", ErrNothingToAnalyze, ErrNothingToAnalyze, true},
		{"derived with error", ErrProviderUnavailable.WithError(errors.New("dial tcp")), ErrProviderUnavailable, true},
		{"derived with context", ErrPipelineCancelled.WithContext("iterations", 1), ErrPipelineCancelled, true},
		{"wrapped with fmt", fmt.Errorf("run: %w", ErrInvalidAIOutput), ErrInvalidAIOutput, true},
		{"different sentinel", ErrNothingToAnalyze, ErrProviderUnavailable, false},
		{"plain error", errors.New("boom"), ErrAIGeneration, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Error_Format(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		contains []string
	}{
		{
			name: "Simple error without underlying error",
			err:  ErrNothingToAnalyze,
			contains: []string{
				"INPUT",
				"Nothing to analyze",
			},
		},
		{
			name: "Error with underlying error",
			err:  ErrGetBranch.WithError(errors.New("exit status 1")),
			contains: []string{
				"GIT",
				"Failed to get current branch",
				"exit status 1",
			},
		},
		{
			name: "Error with context including stderr",
			err: ErrGetDiff.WithError(errors.New("exit status 128")).
				WithContext("diff_type", "staged").
				WithContext("stderr", "not a git repository"),
			contains: []string{
				"GIT",
				"Failed to get diff",
				"exit status 128",
				"not a git repository",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("Error() = %q, expected to contain %q", msg, want)
				}
			}
		})
	}
}
