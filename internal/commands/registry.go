// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"sort"
	"strings"

	"github.com/jeranaias/chatptq/internal/config"
	"github.com/jeranaias/chatptq/internal/session"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/proxy <host:port|direct>")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Build turns validated arguments into an intent. rest is the raw text
	// after the command name.
	Build func(args []string, rest string) (Intent, error)

	// Hidden commands don't appear in help
	Hidden bool

	// Category for grouping in help display
	Category string
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	Name        string
	Required    bool
	Type        ArgType
	Description string

	// Values for enum types
	Values []string
}

// ArgType indicates what kind of completion to provide.
type ArgType int

const (
	ArgTypeString   ArgType = iota // Free-form string
	ArgTypeEnum                    // One of predefined values
	ArgTypeConfig                  // Config key
	ArgTypeLanguage                // Translation target
	ArgTypeEntry                   // Transcript entry number or "last"
	ArgTypeCommand                 // Command name
)

// Completion represents a completion suggestion.
type Completion struct {
	Value       string
	Display     string
	Description string
	Score       int
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias, case-insensitively.
func (r *Registry) Get(name string) *Command {
	name = strings.ToLower(name)
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// ByCategory returns visible commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.All() {
		if cmd.Hidden {
			continue
		}
		category := cmd.Category
		if category == "" {
			category = "Other"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// Categories is the display order of help categories.
var Categories = []string{"Conversation", "Settings", "Navigation"}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

var onOff = []string{"on", "off"}

func (r *Registry) registerBuiltins() {
	modes := make([]string, len(config.FastSendModes))
	for i, m := range config.FastSendModes {
		modes[i] = string(m)
	}

	// Navigation commands
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show help and available commands",
		Usage:       "/help [command]",
		Args: []ArgDef{
			{Name: "command", Type: ArgTypeCommand, Description: "Command to describe"},
		},
		Category: "Navigation",
		Build: func(args []string, _ string) (Intent, error) {
			if len(args) == 0 {
				return Help{}, nil
			}
			topic := args[0]
			if !strings.HasPrefix(topic, "/") {
				topic = "/" + topic
			}
			return Help{Topic: topic}, nil
		},
	})

	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit chatptq",
		Category:    "Navigation",
		Build:       func([]string, string) (Intent, error) { return Quit{}, nil },
	})

	// Conversation commands
	r.Register(&Command{
		Name:        "/clear",
		Aliases:     []string{"/c", "/new"},
		Description: "Clear the conversation",
		Category:    "Conversation",
		Build:       func([]string, string) (Intent, error) { return Clear{}, nil },
	})

	r.Register(&Command{
		Name:        "/translate",
		Aliases:     []string{"/t"},
		Description: "Translate a transcript entry",
		Usage:       "/translate <n|last> <language>",
		Args: []ArgDef{
			{Name: "entry", Required: true, Type: ArgTypeEntry, Description: "Entry number (1-based) or 'last'"},
			{Name: "language", Required: true, Type: ArgTypeLanguage, Description: "Target language"},
		},
		Category: "Conversation",
		Build: func(args []string, _ string) (Intent, error) {
			index, err := parseEntry("/translate", args[0])
			if err != nil {
				return nil, err
			}
			tag, err := session.ParseLanguage(strings.Join(args[1:], " "))
			if err != nil {
				return nil, &ValidationError{Command: "/translate", Arg: "language", Message: "unknown language", Got: args[1]}
			}
			return Retranslate{Index: index, Lang: tag}, nil
		},
	})

	r.Register(&Command{
		Name:        "/tr",
		Description: "Translate text and send it",
		Usage:       "/tr <language> <text>",
		Args: []ArgDef{
			{Name: "language", Required: true, Type: ArgTypeLanguage, Description: "Target language"},
			{Name: "text", Required: true, Type: ArgTypeString, Description: "Text to translate"},
		},
		Category: "Conversation",
		Build: func(args []string, rest string) (Intent, error) {
			tag, err := session.ParseLanguage(args[0])
			if err != nil {
				return nil, &ValidationError{Command: "/tr", Arg: "language", Message: "unknown language", Got: args[0]}
			}
			return TranslateInput{Lang: tag, Text: afterFirstToken(rest)}, nil
		},
	})

	r.Register(&Command{
		Name:        "/copy",
		Aliases:     []string{"/y"},
		Description: "Copy an entry to the clipboard",
		Usage:       "/copy [n|last]",
		Args: []ArgDef{
			{Name: "entry", Type: ArgTypeEntry, Description: "Entry number (1-based) or 'last'"},
		},
		Category: "Conversation",
		Build: func(args []string, _ string) (Intent, error) {
			if len(args) == 0 {
				return Copy{Index: LastEntry}, nil
			}
			index, err := parseEntry("/copy", args[0])
			if err != nil {
				return nil, err
			}
			return Copy{Index: index}, nil
		},
	})

	// Settings commands
	r.Register(&Command{
		Name:        "/key",
		Description: "Set the API key",
		Usage:       "/key <api-key>",
		Args: []ArgDef{
			{Name: "key", Required: true, Type: ArgTypeString, Description: "API key"},
		},
		Category: "Settings",
		Build:    setKey("api_key"),
	})

	r.Register(&Command{
		Name:        "/proxy",
		Description: "Set the user proxy",
		Usage:       "/proxy <host:port|direct>",
		Args: []ArgDef{
			{Name: "proxy", Required: true, Type: ArgTypeString, Description: "host:port or 'direct'"},
		},
		Category: "Settings",
		Build:    setKey("user_proxy"),
	})

	r.Register(&Command{
		Name:        "/sysproxy",
		Description: "Use the system proxy",
		Usage:       "/sysproxy <on|off>",
		Args: []ArgDef{
			{Name: "state", Required: true, Type: ArgTypeEnum, Values: onOff},
		},
		Category: "Settings",
		Build:    setKey("enable_system_proxy"),
	})

	r.Register(&Command{
		Name:        "/autostart",
		Description: "Launch at login",
		Usage:       "/autostart <on|off>",
		Args: []ArgDef{
			{Name: "state", Required: true, Type: ArgTypeEnum, Values: onOff},
		},
		Category: "Settings",
		Build:    setKey("auto_start"),
	})

	r.Register(&Command{
		Name:        "/name",
		Description: "Set the assistant display name",
		Usage:       "/name <name>",
		Args: []ArgDef{
			{Name: "name", Required: true, Type: ArgTypeString, Description: "Display name"},
		},
		Category: "Settings",
		Build: func(_ []string, rest string) (Intent, error) {
			return UpdateConfig{Key: "gpt_name", Value: rest}, nil
		},
	})

	r.Register(&Command{
		Name:        "/mode",
		Description: "Set the fast send key",
		Usage:       "/mode <" + strings.Join(modes, "|") + ">",
		Args: []ArgDef{
			{Name: "mode", Required: true, Type: ArgTypeEnum, Values: modes},
		},
		Category: "Settings",
		Build:    setKey("fast_send_mode"),
	})

	r.Register(&Command{
		Name:        "/model",
		Aliases:     []string{"/m"},
		Description: "Set the chat model",
		Usage:       "/model <name>",
		Args: []ArgDef{
			{Name: "model", Required: true, Type: ArgTypeString, Description: "Model name"},
		},
		Category: "Settings",
		Build:    setKey("model"),
	})

	r.Register(&Command{
		Name:        "/set",
		Description: "Set any config key",
		Usage:       "/set <key> <value>",
		Args: []ArgDef{
			{Name: "key", Required: true, Type: ArgTypeConfig, Description: "Config key"},
			{Name: "value", Required: true, Type: ArgTypeString, Description: "New value"},
		},
		Category: "Settings",
		Build: func(args []string, rest string) (Intent, error) {
			return UpdateConfig{Key: args[0], Value: afterFirstToken(rest)}, nil
		},
	})

	r.Register(&Command{
		Name:        "/config",
		Aliases:     []string{"/cfg"},
		Description: "Show the configuration",
		Usage:       "/config [key]",
		Args: []ArgDef{
			{Name: "key", Type: ArgTypeConfig, Description: "Config key"},
		},
		Category: "Settings",
		Build: func(args []string, _ string) (Intent, error) {
			if len(args) == 0 {
				return ShowConfig{}, nil
			}
			return ShowConfig{Key: args[0]}, nil
		},
	})
}

// =============================================================================
// BUILD HELPERS
// =============================================================================

func setKey(key string) func([]string, string) (Intent, error) {
	return func(args []string, _ string) (Intent, error) {
		return UpdateConfig{Key: key, Value: args[0]}, nil
	}
}

// afterFirstToken returns the raw text after the first whitespace-separated
// token, preserving inner spacing.
func afterFirstToken(rest string) string {
	rest = strings.TrimSpace(rest)
	if i := strings.IndexAny(rest, " \t\n"); i >= 0 {
		return strings.TrimSpace(rest[i:])
	}
	return ""
}
