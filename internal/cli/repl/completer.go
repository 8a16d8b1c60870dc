package repl

import (
	"sort"
	"strings"
)

// Completer suggests command names for a typed prefix.
type Completer struct {
	commands []string
}

// NewCompleter creates a completer over the given command names plus the
// built-in shell words.
func NewCompleter(commands ...string) *Completer {
	all := append([]string{"help", "exit", "quit"}, commands...)
	sort.Strings(all)
	return &Completer{commands: all}
}

// Complete returns completion suggestions for the given prefix.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
