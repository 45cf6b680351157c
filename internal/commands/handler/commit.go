package handler

import (
	"context"
	"fmt"
	"io"

	"github.com/thomas-vilte/commitlens/internal/i18n"
	"github.com/thomas-vilte/commitlens/internal/models"
	"github.com/thomas-vilte/commitlens/internal/ui"
)

// committer is a minimal interface for testing purposes
type committer interface {
	Commit(ctx context.Context, message string) error
}

// CommitHandler turns an accepted pipeline result into a git commit,
// optionally letting the user review and edit the message first.
type CommitHandler struct {
	committer committer
	t         *i18n.Translations
	out       io.Writer

	confirm func(question string) bool
	edit    func(initial, errMsg string) (string, error)
}

func NewCommitHandler(c committer, t *i18n.Translations, out io.Writer) *CommitHandler {
	return &CommitHandler{
		committer: c,
		t:         t,
		out:       out,
		confirm:   ui.AskConfirmation,
		edit:      ui.EditCommitMessage,
	}
}

// HandleResult commits result.FormattedMessage. With assumeYes the review
// prompts are skipped. Unaccepted results are never committed.
func (h *CommitHandler) HandleResult(ctx context.Context, result *models.PipelineResult, files []models.FileChange, assumeYes bool) error {
	if result == nil || !result.Success || result.FormattedMessage == "" {
		ui.PrintWarning(h.out, h.t.GetMessage("commit.not_accepted", 0, nil))
		return nil
	}

	message := result.FormattedMessage
	if !assumeYes {
		ui.ShowFilesTree(h.out, files, h.t.GetMessage("commit.files_header", 0, nil))

		if h.confirm(h.t.GetMessage("commit.ask_edit_message", 0, nil)) {
			edited, err := h.edit(message, h.t.GetMessage("commit.editor_error", 0, nil))
			if err != nil {
				return err
			}
			message = edited
			ui.PrintSuccess(h.out, h.t.GetMessage("commit.message_updated", 0, nil))
		}

		if !h.confirm(h.t.GetMessage("commit.ask_confirm", 0, nil)) {
			ui.PrintWarning(h.out, h.t.GetMessage("commit.cancelled", 0, nil))
			return nil
		}
	}

	if err := h.committer.Commit(ctx, message); err != nil {
		ui.PrintError(h.out, h.t.GetMessage("commit.error_creating", 0, nil))
		return err
	}

	ui.PrintSuccess(h.out, h.t.GetMessage("commit.created", 0, nil))
	_, _ = fmt.Fprintf(h.out, "\n   %s\n\n", message)
	return nil
}
