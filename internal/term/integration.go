package term

import (
	"fmt"
	"os"
	"path/filepath"
)

// integrationScript is sourced by the tracked bash shell instead of its
// normal rc file (which it chains to). The DEBUG trap fires once per
// interactive command line and reports the command base64-encoded, so the
// decoder never has to worry about shell text containing marker
// delimiters. PROMPT_COMMAND reports the exit code of the command that
// just finished before the next prompt is drawn.
//
// The trap also fires for PROMPT_COMMAND itself and for the hook
// functions, so those are filtered out: an empty Enter at the prompt must
// not look like an execution. $BASH_COMMAND only carries the first simple
// command of a compound line, so the full line is taken from history
// instead (HISTCONTROL is cleared so every line lands there).
const integrationScript = `[ -f "$HOME/.bashrc" ] && . "$HOME/.bashrc"

HISTCONTROL=
__boilterm_ready=1
__boilterm_preexec() {
	[ -n "$COMP_LINE" ] && return
	[ "$BASH_COMMAND" = "$PROMPT_COMMAND" ] && return
	case "$BASH_COMMAND" in
	__boilterm_*) return ;;
	esac
	[ -z "$__boilterm_ready" ] && return
	__boilterm_ready=
	__boilterm_line="$(HISTTIMEFORMAT= builtin history 1 | sed -e 's/^ *[0-9]* *//')"
	[ -z "$__boilterm_line" ] && __boilterm_line="$BASH_COMMAND"
	printf '\033]633;E;%s\007' "$(printf '%s' "$__boilterm_line" | base64 | tr -d '\n')"
	printf '\033]133;C\007'
}
__boilterm_precmd() {
	printf '\033]133;D;%s\007' "$1"
	printf '\033]133;A\007'
	__boilterm_ready=1
}
PROMPT_COMMAND='__boilterm_precmd $?'
trap '__boilterm_preexec' DEBUG
`

// writeIntegrationFile writes the rc file the tracked shell boots from.
// The caller removes it once the session ends.
func writeIntegrationFile(id string) (string, error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("boilterm-%s.bash", id))
	if err := os.WriteFile(path, []byte(integrationScript), 0o600); err != nil {
		return "", fmt.Errorf("write shell integration file: %w", err)
	}
	return path, nil
}
