package git

import (
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/thomas-vilte/commitlens/internal/errors"
	"github.com/thomas-vilte/commitlens/internal/logger"
	"github.com/thomas-vilte/commitlens/internal/models"
)

const defaultRecentCommits = 10

// GitService is the diff source. Staged diffs and index content come from
// the git CLI because go-git cannot diff the index; history, branch and HEAD
// blobs are read through go-git.
type GitService struct {
	dir string
}

// NewGitService returns a service rooted at dir; an empty dir means the
// working directory.
func NewGitService(dir string) *GitService {
	return &GitService{dir: dir}
}

func (s *GitService) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.dir
	return cmd
}

// output runs git and returns stdout, attaching stderr to the error.
func (s *GitService) output(ctx context.Context, args ...string) (string, error) {
	cmd := s.command(ctx, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}

func (s *GitService) open() (*gogit.Repository, error) {
	path := s.dir
	if path == "" {
		path = "."
	}
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.ErrNotInGitRepo.WithError(err)
	}
	return repo, nil
}

func (s *GitService) IsRepository(ctx context.Context) bool {
	out, err := s.output(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// HasStagedChanges checks if there are changes in the staging area
func (s *GitService) HasStagedChanges(ctx context.Context) bool {
	cmd := s.command(ctx, "diff", "--cached", "--quiet")
	err := cmd.Run()

	// exit status 1 means the index differs from HEAD
	return err != nil && cmd.ProcessState != nil && cmd.ProcessState.ExitCode() == 1
}

func (s *GitService) GetStagedFiles(ctx context.Context) ([]string, error) {
	out, err := s.output(ctx, "diff", "--cached", "--name-only", "--no-renames")
	if err != nil {
		return nil, errors.ErrGetChangedFiles.WithError(err)
	}

	files := make([]string, 0)
	for _, line := range strings.Split(out, "\n") {
		if path := strings.TrimSpace(line); path != "" {
			files = append(files, path)
		}
	}
	return files, nil
}

func (s *GitService) GetStagedDiff(ctx context.Context) (string, error) {
	out, err := s.output(ctx, "diff", "--cached", "--no-color", "--no-ext-diff", "--no-renames")
	if err != nil {
		return "", errors.ErrGetDiff.WithError(err)
	}
	return out, nil
}

// GetCurrentBranch resolves HEAD, including unborn branches of a fresh
// repository.
func (s *GitService) GetCurrentBranch(ctx context.Context) (string, error) {
	repo, err := s.open()
	if err != nil {
		return "", err
	}

	ref, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", errors.ErrGetBranch.WithError(err)
	}
	if ref.Type() == plumbing.SymbolicReference {
		return ref.Target().Short(), nil
	}
	// Detached HEAD.
	return ref.Hash().String()[:7], nil
}

// GetRecentCommitMessages returns the subject lines of the last count commits,
// newest first. A repository without commits yields an empty list.
func (s *GitService) GetRecentCommitMessages(ctx context.Context, count int) ([]string, error) {
	repo, err := s.open()
	if err != nil {
		return nil, err
	}

	head, err := repo.Head()
	if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, errors.ErrGetRecentCommits.WithError(err)
	}

	iter, err := repo.Log(&gogit.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, errors.ErrGetRecentCommits.WithError(err)
	}
	defer iter.Close()

	messages := make([]string, 0, count)
	err = iter.ForEach(func(c *object.Commit) error {
		if len(messages) >= count {
			return storer.ErrStop
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		subject, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
		messages = append(messages, subject)
		return nil
	})
	if err != nil {
		return nil, errors.ErrGetRecentCommits.WithError(err)
	}
	return messages, nil
}

// FileAtHEAD returns the committed content of path. ok is false when the file
// does not exist at HEAD or the repository has no commits.
func (s *GitService) FileAtHEAD(ctx context.Context, path string) (content []byte, ok bool, err error) {
	repo, err := s.open()
	if err != nil {
		return nil, false, err
	}

	head, err := repo.Head()
	if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.ErrReadFileAtHEAD.WithError(err)
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, false, errors.ErrReadFileAtHEAD.WithError(err)
	}

	file, err := commit.File(path)
	if stderrors.Is(err, object.ErrFileNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.ErrReadFileAtHEAD.WithError(err).WithContext("path", path)
	}

	contents, err := file.Contents()
	if err != nil {
		return nil, false, errors.ErrReadFileAtHEAD.WithError(err).WithContext("path", path)
	}
	return []byte(contents), true, nil
}

// StagedFileContent returns the content of path in the index. ok is false
// for files deleted in the index.
func (s *GitService) StagedFileContent(ctx context.Context, path string) (content []byte, ok bool, err error) {
	cmd := s.command(ctx, "show", ":"+path)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := stderr.String()
		if strings.Contains(msg, "does not exist") || strings.Contains(msg, "not in the index") {
			return nil, false, nil
		}
		return nil, false, errors.ErrReadStagedFile.WithError(err).
			WithContext("path", path).
			WithContext("stderr", strings.TrimSpace(msg))
	}
	return out, true, nil
}

// GetStagedChanges collects everything the commit pipeline needs from the
// repository. Branch and history are best effort.
func (s *GitService) GetStagedChanges(ctx context.Context, maxDiffBytes int) (models.StagedChanges, error) {
	if !s.IsRepository(ctx) {
		return models.StagedChanges{}, errors.ErrNotInGitRepo
	}

	files, err := s.GetStagedFiles(ctx)
	if err != nil {
		return models.StagedChanges{}, err
	}
	if len(files) == 0 {
		return models.StagedChanges{}, errors.ErrNoStagedFiles
	}

	diff, err := s.GetStagedDiff(ctx)
	if err != nil {
		return models.StagedChanges{}, err
	}

	branch, err := s.GetCurrentBranch(ctx)
	if err != nil {
		logger.Warn(ctx, "could not resolve current branch", "error", err)
	}

	recent, err := s.GetRecentCommitMessages(ctx, defaultRecentCommits)
	if err != nil {
		logger.Warn(ctx, "could not read recent commits", "error", err)
	}

	truncated, info := TruncateDiff(diff, maxDiffBytes)
	if info.Truncated {
		logger.Info(ctx, "staged diff truncated",
			"original_bytes", info.OriginalBytes,
			"final_bytes", info.FinalBytes,
			"files", len(info.FilesTruncated))
	}

	return models.StagedChanges{
		Diff:          truncated,
		Files:         files,
		Branch:        branch,
		RecentCommits: recent,
		Truncation:    info,
	}, nil
}

func (s *GitService) CreateCommit(ctx context.Context, message string) error {
	if !s.HasStagedChanges(ctx) {
		return errors.ErrNoStagedFiles
	}

	if _, err := s.output(ctx, "commit", "-m", message); err != nil {
		return errors.ErrCreateCommit.WithError(err)
	}
	return nil
}
