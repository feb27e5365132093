// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-based chat on the saved conversation.
//
// Command: chat
// Short:   Chat in a plain REPL instead of the TUI
//
// The REPL shares the conversation, the slash commands and the settings
// with the TUI. A line ending in a backslash continues on the next line.
//
// Examples:
//   chatptq chat
//   chatptq chat --resume 6    Print the last 6 entries first
//
// Interactive commands: see /help. Ctrl+D or /quit exits.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/jeranaias/chatptq/internal/commands"
	"github.com/jeranaias/chatptq/internal/config"
	"github.com/jeranaias/chatptq/internal/logging"
	"github.com/jeranaias/chatptq/internal/model"
	"github.com/jeranaias/chatptq/internal/session"
	"github.com/jeranaias/chatptq/internal/ui/styles"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader is the line editor the REPL reads from.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// ChatCLI provides input history and line editing for the REPL.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor that persists its history to historyFile.
func NewChatCLI(historyFile string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	c := &ChatCLI{line: line, historyFile: historyFile}
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return c
}

// Prompt reads one line.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	return c.line.Prompt(prompt)
}

// AppendHistory records a line for arrow-key recall.
func (c *ChatCLI) AppendHistory(item string) {
	c.line.AppendHistory(item)
}

// Close saves history with owner-only permissions and restores the terminal.
func (c *ChatCLI) Close() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0o700); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			_, _ = c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat runs the REPL until EOF, /quit or ctx is done.
func HandleChat(ctx context.Context, env *Env, args Args) error {
	p := NewArgParser(args.Raw)
	resume, err := p.FlagIntOrDefault("resume", 0)
	if err != nil {
		return err
	}

	dir, err := config.Dir()
	if err != nil {
		dir = os.TempDir()
	}
	input := NewChatCLI(filepath.Join(dir, "chat_history"))
	defer input.Close()

	repl := newChatREPL(env, args.Quiet)
	return repl.run(ctx, input, resume)
}

type chatREPL struct {
	env      *Env
	sess     *session.Session
	registry *commands.Registry
	parser   *commands.Parser
	logger   *zap.Logger
	quiet    bool
}

func newChatREPL(env *Env, quiet bool) *chatREPL {
	registry := commands.NewRegistry()
	r := &chatREPL{
		env:      env,
		registry: registry,
		parser:   commands.NewParser(registry),
		logger:   logging.OrNop(env.Logger).Named("chat"),
		quiet:    quiet,
	}
	r.sess = env.OpenSession(session.WithListener(session.Listener{
		Notify: func(msg string) {
			fmt.Fprintf(env.Err, "%s %s\n", WarningStyle.Render(styles.StatusIndicators.Warning), msg)
		},
	}))
	return r
}

func (r *chatREPL) run(ctx context.Context, in lineReader, resume int) error {
	defer func() {
		if err := r.sess.Close(); err != nil {
			r.logger.Warn("failed to save conversation on exit", zap.Error(err))
		}
	}()

	if !r.quiet {
		r.printWelcome(resume)
	}

	for ctx.Err() == nil {
		line, err := r.readMessage(in)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.env.Out)
				return nil
			}
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		in.AppendHistory(line)

		intent, err := r.parser.Intent(line)
		if err != nil {
			r.printError(err)
			continue
		}
		if quit := r.handle(ctx, intent); quit {
			return nil
		}
	}
	return nil
}

// readMessage reads one message, joining lines that end in a backslash.
func (r *chatREPL) readMessage(in lineReader) (string, error) {
	var lines []string
	prompt := PromptStyle.Render("you> ")
	for {
		line, err := in.Prompt(prompt)
		if err != nil {
			if len(lines) > 0 && errors.Is(err, io.EOF) {
				return strings.Join(lines, "\n"), nil
			}
			return "", err
		}
		if !strings.HasSuffix(line, `\`) {
			lines = append(lines, line)
			return strings.Join(lines, "\n"), nil
		}
		lines = append(lines, strings.TrimSuffix(line, `\`))
		prompt = PromptStyle.Render("...> ")
	}
}

// handle acts on one intent and reports whether the REPL should exit.
func (r *chatREPL) handle(ctx context.Context, intent commands.Intent) bool {
	switch in := intent.(type) {
	case commands.Submit:
		r.send(ctx, func() (*session.Turn, error) { return r.sess.Begin(in.Text) })

	case commands.TranslateInput:
		if strings.TrimSpace(in.Text) == "" {
			r.printError(errors.New("enter text to translate"))
			return false
		}
		r.send(ctx, func() (*session.Turn, error) {
			return r.sess.Begin(session.TranslatePrompt(in.Text, in.Lang))
		})

	case commands.Retranslate:
		index, _ := commands.ResolveIndex(in.Index, r.sess.Len())
		r.send(ctx, func() (*session.Turn, error) { return r.sess.BeginRetranslate(index, in.Lang) })

	case commands.Clear:
		r.sess.Clear()
		_ = r.sess.Save()
		r.printInfo("Conversation cleared")

	case commands.Copy:
		r.copyEntry(in.Index)

	case commands.UpdateConfig:
		if err := handleConfigSet(r.env, in.Key, in.Value, false); err != nil {
			r.printError(err)
		}

	case commands.ShowConfig:
		if in.Key == "" {
			if err := handleConfigShow(r.env, false); err != nil {
				r.printError(err)
			}
			return false
		}
		v, err := r.env.Store.Current().Redacted().Get(in.Key)
		if err != nil {
			r.printError(err)
			return false
		}
		fmt.Fprintf(r.env.Out, "%s%s\n", RenderLabel(in.Key), ValueStyle.Render(v))

	case commands.Help:
		text, err := r.registry.HelpText(in.Topic)
		if err != nil {
			r.printError(err)
			return false
		}
		displayResponse(r.env, text)

	case commands.Quit:
		return true

	default:
		r.logger.Warn("unhandled intent", zap.String("type", fmt.Sprintf("%T", intent)))
	}
	return false
}

// send runs one turn synchronously and prints the reply. Failures reach the
// user through the session's Notify.
func (r *chatREPL) send(ctx context.Context, begin func() (*session.Turn, error)) {
	turn, err := begin()
	if err != nil || turn == nil {
		return
	}

	if !r.quiet && r.env.stdoutTTY() {
		fmt.Fprint(r.env.Err, DimStyle.Render("thinking...")+"\r")
	}
	out := turn.Send(ctx, r.env.Gateway)
	if !r.quiet && r.env.stdoutTTY() {
		fmt.Fprint(r.env.Err, "           \r")
	}
	r.sess.Complete(out)
	if out.Err != nil {
		return
	}

	convs := r.sess.Conversations()
	if len(convs) > 0 {
		last := convs[len(convs)-1]
		fmt.Fprintln(r.env.Out, entryLabel(last, r.env.Store.Current().GPTName))
		displayResponse(r.env, last.Message.Content)
	}
	_ = r.sess.Save()
}

func (r *chatREPL) copyEntry(index int) {
	convs := r.sess.Conversations()
	if index == commands.LastEntry {
		for i := len(convs) - 1; i >= 0; i-- {
			if convs[i].Message.Role == model.RoleAssistant {
				index = i
				break
			}
		}
	}
	i, ok := commands.ResolveIndex(index, len(convs))
	if !ok || r.env.Clipboard == nil {
		r.printError(errors.New("nothing to copy"))
		return
	}
	if err := r.env.Clipboard(convs[i].Message.Content); err != nil {
		r.printError(fmt.Errorf("failed to copy: %w", err))
		return
	}
	r.printInfo(fmt.Sprintf("Copied entry %d", i+1))
}

func (r *chatREPL) printWelcome(resume int) {
	cfg := r.env.Store.Current()
	fmt.Fprintf(r.env.Out, "%s %s\n", TitleStyle.Render("chatptq"), DimStyle.Render("· "+cfg.GPTName+" · "+cfg.Model))

	convs := r.sess.Conversations()
	if resume > 0 && len(convs) > 0 {
		start := max(len(convs)-resume, 0)
		width := GetTerminalWidth()
		for i := start; i < len(convs); i++ {
			writeEntry(r.env.Out, i, len(convs), convs[i], cfg.GPTName, width, false)
		}
	} else if len(convs) > 0 {
		fmt.Fprintln(r.env.Out, DimStyle.Render(fmt.Sprintf("%d entries in the conversation.", len(convs))))
	}
	if cfg.APIKey == "" {
		fmt.Fprintf(r.env.Out, "%s no API key set, use /key\n", WarningStyle.Render(styles.StatusIndicators.Warning))
	}
	fmt.Fprintln(r.env.Out, DimStyle.Render("/help for commands, Ctrl+D to exit."))
}

func (r *chatREPL) printError(err error) {
	fmt.Fprintf(r.env.Err, "%s %v\n", ErrorStyle.Render("[Error]"), err)
}

func (r *chatREPL) printInfo(msg string) {
	if !r.quiet {
		fmt.Fprintf(r.env.Out, "%s %s\n", SuccessStyle.Render(styles.StatusIndicators.Success), msg)
	}
}
