// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single question command handler.
//
// Command: ask [question]
// Short:   Ask a single question
//
// The question is sent on its own; the saved conversation is neither read
// nor changed. With no question argument and piped stdin, stdin is the
// question.
//
// Examples:
//   chatptq ask "What is the capital of France?"
//   chatptq ask "Review this code:" --file main.go
//   echo "Guten Morgen" | chatptq ask --translate en
//   chatptq --json ask "ping"
//
// Flags:
//   -f, --file FILE     Append file content to the question
//   --translate LANG    Ask for a translation of the question into LANG
//   --system TEXT       Prepend a system message
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/chatptq/internal/logging"
	"github.com/jeranaias/chatptq/internal/model"
	"github.com/jeranaias/chatptq/internal/session"
)

// MaxFileSize is the largest file ask will attach (50KB).
const MaxFileSize = 50 * 1024

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// renderMarkdown renders content for a terminal of the given width. It
// returns content unchanged if rendering fails.
func renderMarkdown(content string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayResponse writes a reply, rendered as markdown only for terminals so
// piped output stays plain.
func displayResponse(env *Env, content string) {
	if env.stdoutTTY() {
		fmt.Fprint(env.Out, renderMarkdown(content, GetTerminalWidth()-4))
		return
	}
	fmt.Fprintln(env.Out, content)
}

// =============================================================================
// ASK HANDLER
// =============================================================================

// HandleAsk sends a single question and prints the reply.
func HandleAsk(ctx context.Context, env *Env, args Args) error {
	p := NewArgParser(args.Raw)
	logger := logging.OrNop(env.Logger)

	question := JoinPositionalArgs(p, 0)
	if question == "" || question == "-" {
		if env.stdinTTY() {
			return ErrMissingArgument("question", `chatptq ask "What is a goroutine?"`)
		}
		data, err := io.ReadAll(io.LimitReader(env.In, MaxFileSize+1))
		if err != nil {
			return NewCommandError("ask", "read", "could not read stdin", err)
		}
		question = string(data)
	}

	if path := p.FlagOrDefault("file", p.Flag("f")); path != "" {
		content, err := readFileForContext(path)
		if err != nil {
			return err
		}
		question = fmt.Sprintf("%s\n\nFile: %s\n```\n%s\n```", question, filepath.Base(path), content)
	}

	if lang := p.Flag("translate"); lang != "" {
		tag, err := session.ParseLanguage(lang)
		if err != nil {
			return NewValidationErrorWithExample("--translate", lang, "unknown language", "--translate fr")
		}
		question = session.TranslatePrompt(question, tag)
	}

	question = session.NormalizeInput(question)
	if question == "" {
		return ErrMissingArgument("question", `chatptq ask "What is a goroutine?"`)
	}

	msgs := make([]model.Message, 0, 2)
	if system := p.Flag("system"); system != "" {
		msgs = append(msgs, model.Message{Role: model.RoleSystem, Content: system})
	}
	msgs = append(msgs, model.NewUserMessage(question))

	logger.Debug("ask", zap.Int("chars", utf8.RuneCountInString(question)), zap.Int("messages", len(msgs)))

	resp, err := env.Gateway.Send(ctx, msgs)
	if err != nil {
		return NewCommandError("ask", "send", "request failed", err)
	}

	if args.JSON {
		return NewJSONResponse("ask", AskData{
			Model:            env.Store.Current().Model,
			Content:          resp.Message.Content,
			PromptTokens:     resp.PromptTokens,
			CompletionTokens: resp.CompletionTokens,
		}).Print(env.Out)
	}

	displayResponse(env, resp.Message.Content)
	if !args.Quiet {
		fmt.Fprintln(env.Err, DimStyle.Render(fmt.Sprintf("%d prompt + %d completion tokens",
			resp.PromptTokens, resp.CompletionTokens)))
	}
	return nil
}

// readFileForContext reads a text file to attach to a question.
func readFileForContext(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", NewCommandError("ask", "attach", "cannot read "+path, err)
	}
	if info.IsDir() {
		return "", NewValidationErrorWithExample("--file", path, "is a directory", "--file main.go")
	}
	if info.Size() > MaxFileSize {
		return "", NewValidationErrorWithExample("--file", path,
			fmt.Sprintf("larger than %dKB", MaxFileSize/1024), "--file main.go")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", NewCommandError("ask", "attach", "cannot read "+path, err)
	}
	if !utf8.Valid(data) {
		return "", NewValidationErrorWithExample("--file", path, "is not a text file", "--file main.go")
	}
	return strings.TrimRight(string(data), "\n"), nil
}
