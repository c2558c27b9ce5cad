// Package command parses the client's `!`-prefixed input lines (§4.5) into
// a verb and trimmed argument.
package command

import "strings"

// Command is a parsed `!`-prefixed input line. Verb is lower-cased; Arg is
// the remainder of the line with surrounding whitespace trimmed (empty if
// none was given).
type Command struct {
	Verb string
	Arg  string
}

// Verb constants recognized across idle and in-game input (§4.5).
const (
	Help       = "help"
	Who        = "who"
	Connect    = "connect"
	Quit       = "quit"
	Disconnect = "disconnect"
	Show       = "show"
	Shot       = "shot"
)

// Parse interprets one line of client input. ok is false if line does not
// begin with '!' (not a command at all — e.g. a bare shot token typed
// without the bang, which callers may choose to accept contextually).
func Parse(line string) (cmd Command, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "!") {
		return Command{}, false
	}
	body := strings.TrimSpace(line[1:])
	verb, arg, _ := strings.Cut(body, " ")
	return Command{
		Verb: strings.ToLower(verb),
		Arg:  strings.TrimSpace(arg),
	}, true
}
