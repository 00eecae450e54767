package terminal

import (
	"strings"
)

// CommandKind identifies a REPL command
type CommandKind int

const (
	// CmdNone means the line is a question, not a command
	CmdNone CommandKind = iota
	CmdExit
	CmdNew
	CmdHistory
	CmdOpen
	CmdReset
	CmdLang
	CmdVoice
	CmdClear
	CmdHelp
	CmdUnknown
)

// Command is a parsed REPL line
type Command struct {
	Kind CommandKind
	Name string
	Arg  string
}

var commands = map[string]CommandKind{
	"/exit":    CmdExit,
	"/quit":    CmdExit,
	"/new":     CmdNew,
	"/history": CmdHistory,
	"/open":    CmdOpen,
	"/reset":   CmdReset,
	"/lang":    CmdLang,
	"/voice":   CmdVoice,
	"/clear":   CmdClear,
	"/help":    CmdHelp,
}

// ParseCommand classifies a line read from the user
func ParseCommand(line string) Command {
	line = strings.TrimSpace(line)
	if line == "exit" || line == "quit" {
		return Command{Kind: CmdExit, Name: line}
	}
	if !strings.HasPrefix(line, "/") {
		return Command{Kind: CmdNone}
	}

	name, arg, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	kind, ok := commands[name]
	if !ok {
		kind = CmdUnknown
	}
	return Command{Kind: kind, Name: name, Arg: strings.TrimSpace(arg)}
}
