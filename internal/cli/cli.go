// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and the shared handler environment.
package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/chatptq/internal/config"
	"github.com/jeranaias/chatptq/internal/logging"
	"github.com/jeranaias/chatptq/internal/session"
	"github.com/jeranaias/chatptq/internal/storage"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdHistory
	CmdClear
	CmdConfig
	CmdExport
	CmdVersion
	CmdHelp
	CmdUnknown
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdHistory:
		return "history"
	case CmdClear:
		return "clear"
	case CmdConfig:
		return "config"
	case CmdExport:
		return "export"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Store      string // blob store backend: json or sqlite
	ConfigPath string
	LogLevel   string
	LogFile    string
	LogFormat  string
	Quiet      bool
	Verbose    bool
	JSON       bool

	// Name is the command word as typed, kept for CmdUnknown.
	Name string

	// Raw holds the arguments after the command word; each handler parses
	// its own with NewArgParser.
	Raw []string
}

const usageText = `chatptq - chat with an OpenAI-compatible model from the terminal

Usage:
  chatptq                         Start the TUI (default)
  chatptq ask "question"          Ask a single question
  chatptq chat                    Line-based chat on the saved conversation
  chatptq history                 Print the saved conversation
  chatptq clear                   Clear the saved conversation
  chatptq config [show|set|get|path|keys]
                                  Show or change settings
  chatptq export                  Write the conversation to a file

Ask:
  chatptq ask "What is a goroutine?"
  echo "text" | chatptq ask --translate fr
    -f, --file FILE               Append a file to the question
    --translate LANG              Ask for a translation of the input
    --system TEXT                 Prepend a system message

History:
    -n, --limit N                 Show only the last N entries
    --full                        Do not truncate entries

Clear:
    -y, --yes                     Do not ask for confirmation

Export:
    --format markdown|json        Output format (default: markdown)
    -o, --output DIR              Directory to write to (default: .)
    --stdout                      Print instead of writing a file
    --title TEXT                  Title of the export
    --all                         Include entries that were not sent
    --no-metadata                 Leave out the metadata header

Config:
  chatptq config show
  chatptq config get gpt_name
  chatptq config set api_key sk-...
  chatptq config set user_proxy 127.0.0.1:7890
  chatptq config set fast_send_mode LongPressEnter
  chatptq config path
  chatptq config keys

Global Flags:
  --store json|sqlite     Transcript storage backend (default: json)
  --config PATH           Config file (default: ~/.chatptq/config.toml)
  --log-level LEVEL       debug, info, warn, error
  --log-file PATH         Log file (the TUI logs to ~/.chatptq/chatptq.log)
  --log-format FORMAT     console or json
  -v, --verbose           Debug logging
  -q, --quiet             Minimal output
  --json                  Machine-readable output

Environment:
  CHATPTQ_HOME            Data directory (default: ~/.chatptq)
  HTTP_PROXY, HTTPS_PROXY Used when enable_system_proxy is on
  A .env file in the working directory is loaded at startup.

Version: %s
`

// PrintUsage writes the usage text to w.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information to w.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "chatptq version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse parses command-line arguments (without the program name).
func Parse(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	name := strings.ToLower(remaining[0])
	parsedArgs.Name = remaining[0]
	parsedArgs.Raw = remaining[1:]

	switch name {
	case "tui":
		return CmdTUI, parsedArgs
	case "ask":
		return CmdAsk, parsedArgs
	case "chat":
		return CmdChat, parsedArgs
	case "history", "log":
		return CmdHistory, parsedArgs
	case "clear", "reset":
		return CmdClear, parsedArgs
	case "config", "cfg":
		return CmdConfig, parsedArgs
	case "export":
		return CmdExport, parsedArgs
	case "version", "--version":
		return CmdVersion, parsedArgs
	case "help", "-h", "--help":
		return CmdHelp, parsedArgs
	}
	return CmdUnknown, parsedArgs
}

// parseGlobalFlags extracts global flags from args and returns the rest.
// Global flags may appear anywhere on the command line.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	valueFlags := map[string]*string{
		"--store":      &parsed.Store,
		"--config":     &parsed.ConfigPath,
		"--log-level":  &parsed.LogLevel,
		"--log-file":   &parsed.LogFile,
		"--log-format": &parsed.LogFormat,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			remaining = append(remaining, args[i:]...)
			break
		}

		switch arg {
		case "-q", "--quiet":
			parsed.Quiet = true
			continue
		case "-v", "--verbose":
			parsed.Verbose = true
			continue
		case "--json":
			parsed.JSON = true
			continue
		}

		if dst, ok := valueFlags[arg]; ok {
			if i+1 < len(args) {
				i++
				*dst = args[i]
			}
			continue
		}
		if name, value, ok := strings.Cut(arg, "="); ok {
			if dst, ok := valueFlags[name]; ok {
				*dst = value
				continue
			}
		}

		remaining = append(remaining, arg)
	}

	if parsed.Verbose && parsed.LogLevel == "" {
		parsed.LogLevel = "debug"
	}
	return remaining, parsed
}

// =============================================================================
// HANDLER ENVIRONMENT
// =============================================================================

// Env carries the collaborators the command handlers share.
type Env struct {
	Store     *config.Store
	Blobs     storage.BlobStore
	Gateway   session.Gateway
	Logger    *zap.Logger
	In        io.Reader
	Out       io.Writer
	Err       io.Writer
	Clipboard func(string) error

	// StdinTTY and StdoutTTY override terminal detection when set.
	StdinTTY  *bool
	StdoutTTY *bool
}

// OpenSession opens the persisted conversation. A transcript that could not
// be loaded is reported on Err and the session starts empty.
func (e *Env) OpenSession(opts ...session.Option) *session.Session {
	opts = append([]session.Option{session.WithLogger(logging.OrNop(e.Logger))}, opts...)
	sess, err := session.Open(e.Blobs, e.Gateway, opts...)
	if err != nil {
		fmt.Fprintf(e.Err, "%s %v\n", WarningStyle.Render("[!]"), err)
	}
	return sess
}

// CloseSession waits for the turn in flight and saves the conversation. A
// failed save is reported on Err, since a full-screen UI has already released
// the terminal by then.
func (e *Env) CloseSession(sess *session.Session) {
	if err := sess.Close(); err != nil {
		logging.OrNop(e.Logger).Warn("failed to save conversation on exit", zap.Error(err))
		fmt.Fprintf(e.Err, "%s %v\n", WarningStyle.Render("[!]"), err)
	}
}

func (e *Env) stdinTTY() bool {
	if e.StdinTTY != nil {
		return *e.StdinTTY
	}
	return IsTTY()
}

func (e *Env) stdoutTTY() bool {
	if e.StdoutTTY != nil {
		return *e.StdoutTTY
	}
	return IsStdoutTTY()
}
