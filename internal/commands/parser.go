// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// ErrUnknownCommand is returned for a slash command that is not registered.
var ErrUnknownCommand = errors.New("unknown command")

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParseResult is a line split into command name and arguments.
type ParseResult struct {
	// IsCommand reports whether the line starts with "/".
	IsCommand bool

	// Command is the registered command, nil when the name is unknown.
	Command *Command

	// CommandName is the name as typed, e.g. "/TR".
	CommandName string

	// Args are the arguments with quotes removed.
	Args []string

	// RawArgs is the text after the command name, trimmed.
	RawArgs string

	// Error is set for an unknown command.
	Error error
}

// =============================================================================
// PARSER
// =============================================================================

// Parser turns input lines into intents using a registry.
type Parser struct {
	registry *Registry
}

// NewParser creates a parser over registry.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse splits input into command name and arguments and looks the command
// up. Lines not starting with "/" have IsCommand false.
func (p *Parser) Parse(input string) ParseResult {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return ParseResult{}
	}

	result := ParseResult{IsCommand: true}
	name, rest := input, ""
	if i := strings.IndexFunc(input, unicode.IsSpace); i >= 0 {
		name, rest = input[:i], input[i:]
	}
	result.CommandName = name
	result.RawArgs = strings.TrimSpace(rest)
	result.Args = splitCommandLine(result.RawArgs)

	if result.Command = p.registry.Get(name); result.Command == nil {
		result.Error = fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return result
}

// defaultParser backs Parse.
var defaultParser = NewParser(NewRegistry())

// Parse parses input with the built-in commands. See Parser.Intent.
func Parse(input string) (Intent, error) {
	return defaultParser.Intent(input)
}

// Intent parses input into an intent. Text that is not a command is a Submit
// of the original input; "//" at the start escapes a literal slash.
func (p *Parser) Intent(input string) (Intent, error) {
	if strings.HasPrefix(strings.TrimSpace(input), "//") {
		return Submit{Text: strings.Replace(input, "//", "/", 1)}, nil
	}

	result := p.Parse(input)
	switch {
	case !result.IsCommand:
		return Submit{Text: input}, nil
	case result.Error != nil:
		return nil, result.Error
	}
	if err := ValidateArgs(result.Command, result.Args); err != nil {
		return nil, err
	}
	return result.Command.Build(result.Args, result.RawArgs)
}

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

// splitCommandLine splits s on unquoted whitespace. Single or double quotes
// group words; inside quotes a backslash escapes a quote or backslash.
func splitCommandLine(s string) []string {
	var (
		tokens  []string
		current strings.Builder
		quote   rune // 0 outside quotes
		started bool // current holds a token, possibly empty ("")
		escaped bool
	)
	flush := func() {
		if started {
			tokens = append(tokens, current.String())
			current.Reset()
			started = false
		}
	}

	for _, r := range s {
		switch {
		case escaped:
			if r != '"' && r != '\'' && r != '\\' {
				current.WriteRune('\\')
			}
			current.WriteRune(r)
			escaped = false
		case quote != 0 && r == '\\':
			escaped = true
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '"' || r == '\''):
			quote, started = r, true
		case quote == 0 && unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if escaped {
		current.WriteRune('\\')
	}
	flush()
	return tokens
}

// ValidateArgs checks required arguments and enum values.
func ValidateArgs(cmd *Command, args []string) error {
	if cmd == nil {
		return nil
	}
	for i, def := range cmd.Args {
		if i >= len(args) {
			if def.Required {
				return &ValidationError{Command: cmd.Name, Arg: def.Name, Message: "required argument missing", Expected: def.Description}
			}
			continue
		}
		if def.Type != ArgTypeEnum || len(def.Values) == 0 {
			continue
		}
		if !slices.ContainsFunc(def.Values, func(v string) bool { return strings.EqualFold(v, args[i]) }) {
			return &ValidationError{
				Command:  cmd.Name,
				Arg:      def.Name,
				Message:  "invalid value",
				Got:      args[i],
				Expected: strings.Join(def.Values, ", "),
			}
		}
	}
	return nil
}

// parseEntry converts a 1-based entry number or "last" into an intent index.
func parseEntry(command, s string) (int, error) {
	if strings.EqualFold(s, "last") {
		return LastEntry, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, &ValidationError{
			Command:  command,
			Arg:      "entry",
			Message:  "invalid value",
			Got:      s,
			Expected: "a positive entry number or 'last'",
		}
	}
	return n - 1, nil
}

// =============================================================================
// VALIDATION ERROR
// =============================================================================

// ValidationError is a bad or missing command argument.
type ValidationError struct {
	Command  string
	Arg      string
	Message  string
	Got      string
	Expected string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Command, e.Message)
	if e.Arg != "" {
		fmt.Fprintf(&b, " for argument '%s'", e.Arg)
	}
	if e.Got != "" {
		fmt.Fprintf(&b, " (got: %s)", e.Got)
	}
	if e.Expected != "" {
		fmt.Fprintf(&b, ", expected %s", e.Expected)
	}
	return b.String()
}
