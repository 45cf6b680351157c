package completion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/commitlens/internal/i18n"
)

const bashCompletionScript = `#! /bin/bash

_commitlens_bash_autocomplete() {
  if [[ "${COMP_WORDS[0]}" != "source" ]]; then
    local cur opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    local cmd_context=("${COMP_WORDS[@]:0:$COMP_CWORD}")
    opts=$( "${cmd_context[@]}" --generate-shell-completion )
    COMPREPLY=( $(compgen -W "${opts}" -- ${cur}) )
    return 0
  fi
}

complete -o bashdefault -o default -o nospace -F _commitlens_bash_autocomplete commitlens
`

const zshCompletionScript = `#compdef commitlens

_commitlens() {
  local -a opts
  local cmd_context=("${(@)words[1,$CURRENT-1]}")
  opts=("${(@f)$("${cmd_context[@]}" --generate-shell-completion)}")
  _describe 'values' opts
}

compdef _commitlens commitlens
`

const installMarker = "# commitlens shell completion"

const installInfo = `
` + installMarker + `
if command -v commitlens >/dev/null 2>&1; then
	source <(commitlens completion %s)
fi
`

func NewCompletionCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:        "completion",
		Usage:       t.GetMessage("completion.command_usage", 0, nil),
		Description: t.GetMessage("completion.command_description", 0, nil),
		Commands: []*cli.Command{
			{
				Name:  "bash",
				Usage: t.GetMessage("completion.bash_usage", 0, nil),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					_, err := fmt.Fprint(cmd.Root().Writer, bashCompletionScript)
					return err
				},
			},
			{
				Name:  "zsh",
				Usage: t.GetMessage("completion.zsh_usage", 0, nil),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					_, err := fmt.Fprint(cmd.Root().Writer, zshCompletionScript)
					return err
				},
			},
			{
				Name:  "install",
				Usage: t.GetMessage("completion.install_usage", 0, nil),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return install(cmd, t)
				},
			},
		},
	}
}

// install appends the loader snippet to the rc file of the current shell,
// once.
func install(cmd *cli.Command, t *i18n.Translations) error {
	out := cmd.Root().Writer
	shell := os.Getenv("SHELL")
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("%s: %w", t.GetMessage("completion.error_home_dir", 0, nil), err)
	}

	var configFile, shellName string
	switch {
	case strings.Contains(shell, "zsh"):
		configFile = filepath.Join(home, ".zshrc")
		shellName = "zsh"
	case strings.Contains(shell, "bash"):
		configFile = filepath.Join(home, ".bashrc")
		shellName = "bash"
	default:
		return fmt.Errorf("%s", t.GetMessage("completion.error_unsupported_shell", 0, struct{ Shell string }{shell}))
	}

	fileContent, err := os.ReadFile(configFile)
	if err == nil && strings.Contains(string(fileContent), installMarker) {
		_, _ = fmt.Fprintln(out, t.GetMessage("completion.already_installed", 0, struct{ File string }{configFile}))
		return nil
	}

	f, err := os.OpenFile(configFile, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("%s: %w", t.GetMessage("completion.error_open_config", 0, nil), err)
	}
	defer func() { _ = f.Close() }()

	if _, err := fmt.Fprintf(f, installInfo, shellName); err != nil {
		return fmt.Errorf("%s: %w", t.GetMessage("completion.error_write_config", 0, nil), err)
	}

	_, _ = fmt.Fprintln(out, t.GetMessage("completion.installed_success", 0, struct{ File string }{configFile}))
	_, _ = fmt.Fprintln(out, t.GetMessage("completion.restart_shell", 0, nil))
	_, _ = fmt.Fprintf(out, "  source %s\n", configFile)
	return nil
}
