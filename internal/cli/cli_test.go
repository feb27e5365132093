// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jeranaias/chatptq/internal/cloud"
	"github.com/jeranaias/chatptq/internal/config"
	"github.com/jeranaias/chatptq/internal/model"
	"github.com/jeranaias/chatptq/internal/netclient"
	"github.com/jeranaias/chatptq/internal/storage"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

type fakeGateway struct {
	mu    sync.Mutex
	calls [][]model.Message
	reply string
	err   error
}

func (g *fakeGateway) Send(_ context.Context, msgs []model.Message) (*model.ChatResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, msgs)
	if g.err != nil {
		return nil, g.err
	}
	return &model.ChatResponse{Message: model.NewAssistantMessage(g.reply), PromptTokens: 7, CompletionTokens: 3}, nil
}

func (g *fakeGateway) last() []model.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.calls) == 0 {
		return nil
	}
	return g.calls[len(g.calls)-1]
}

type testEnv struct {
	*Env
	out    *bytes.Buffer
	errOut *bytes.Buffer
	gw     *fakeGateway
	dir    string
	copied []string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	logger := zaptest.NewLogger(t)

	reg := netclient.NewRegistry(netclient.Config{})
	t.Cleanup(reg.Close)
	store := config.NewStore(reg,
		config.WithPath(filepath.Join(dir, "config.toml")),
		config.WithProperties(config.MapProperties{}),
		config.WithLogger(logger),
	)
	require.NoError(t, store.Open())

	blobs, err := storage.OpenJSONFile(filepath.Join(dir, "datastore.json"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { blobs.Close() })

	no := false
	te := &testEnv{
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
		gw:     &fakeGateway{reply: "pong"},
		dir:    dir,
	}
	te.Env = &Env{
		Store:     store,
		Blobs:     blobs,
		Gateway:   te.gw,
		Logger:    logger,
		In:        strings.NewReader(""),
		Out:       te.out,
		Err:       te.errOut,
		StdinTTY:  &no,
		StdoutTTY: &no,
		Clipboard: func(s string) error {
			te.copied = append(te.copied, s)
			return nil
		},
	}
	return te
}

func (te *testEnv) seed(t *testing.T, convs ...model.Conversation) {
	t.Helper()
	require.NoError(t, te.Blobs.Set(model.SessionKey, model.Session{Conversations: convs}))
}

func (te *testEnv) saved(t *testing.T) []model.Conversation {
	t.Helper()
	var s model.Session
	_, err := te.Blobs.Get(model.SessionKey, &s)
	require.NoError(t, err)
	return s.Conversations
}

func decodeJSON(t *testing.T, data []byte) JSONResponse {
	t.Helper()
	var resp JSONResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}

// =============================================================================
// ARG PARSER
// =============================================================================

func TestArgParser(t *testing.T) {
	p := NewArgParser([]string{"set", "--limit", "5", "--since=yesterday", "--json", "gpt_name", "Bot"}, "json")

	assert.Equal(t, "set", p.Positional(0))
	assert.Equal(t, "5", p.Flag("limit"))
	assert.Equal(t, "5", p.Flag("--limit"))
	assert.Equal(t, "yesterday", p.Flag("since"))
	assert.True(t, p.BoolFlag("json"))
	assert.Equal(t, "gpt_name", p.Positional(1), "a boolean flag does not swallow the next argument")
	assert.Equal(t, "gpt_name Bot", JoinPositionalArgs(p, 1))
	assert.Equal(t, 3, p.PositionalCount())
	assert.True(t, p.HasFlag("since"))
	assert.False(t, p.HasFlag("missing"))
	assert.Equal(t, "", p.Positional(9))
	assert.Empty(t, p.PositionalFrom(9))
}

func TestArgParser_DoubleDash(t *testing.T) {
	p := NewArgParser([]string{"--full", "--", "-1", "--not-a-flag"}, "full")
	assert.True(t, p.BoolFlag("full"))
	assert.Equal(t, []string{"-1", "--not-a-flag"}, p.PositionalFrom(0))
}

func TestArgParser_FlagIntOrDefault(t *testing.T) {
	n, err := NewArgParser(nil).FlagIntOrDefault("limit", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	n, err = NewArgParser([]string{"--limit", "3"}).FlagIntOrDefault("limit", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = NewArgParser([]string{"--limit", "x"}).FlagIntOrDefault("limit", 10)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"on", "YES", " y ", "1", "true"} {
		b, err := ParseBoolString(s)
		require.NoError(t, err, s)
		assert.True(t, b, s)
	}
	b, err := ParseBoolString("off")
	require.NoError(t, err)
	assert.False(t, b)

	_, err = ParseBoolString("maybe")
	assert.Error(t, err)
}

// =============================================================================
// COMMAND PARSING
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		argv []string
		want Command
		raw  []string
	}{
		{nil, CmdTUI, nil},
		{[]string{"tui"}, CmdTUI, []string{}},
		{[]string{"ask", "hello", "world"}, CmdAsk, []string{"hello", "world"}},
		{[]string{"chat"}, CmdChat, []string{}},
		{[]string{"log", "-n", "3"}, CmdHistory, []string{"-n", "3"}},
		{[]string{"reset", "--yes"}, CmdClear, []string{"--yes"}},
		{[]string{"cfg", "path"}, CmdConfig, []string{"path"}},
		{[]string{"export", "--stdout"}, CmdExport, []string{"--stdout"}},
		{[]string{"--version"}, CmdVersion, []string{}},
		{[]string{"-h"}, CmdHelp, []string{}},
		{[]string{"histroy"}, CmdUnknown, []string{}},
	}
	for _, tt := range tests {
		cmd, args := Parse(tt.argv)
		assert.Equal(t, tt.want, cmd, "%v", tt.argv)
		if tt.raw != nil {
			assert.Equal(t, tt.raw, args.Raw, "%v", tt.argv)
		}
	}
}

func TestParse_GlobalFlagsAnywhere(t *testing.T) {
	cmd, args := Parse([]string{"--store", "sqlite", "history", "--json", "--log-level=warn", "-v", "--config", "/tmp/c.toml", "-n", "2"})

	assert.Equal(t, CmdHistory, cmd)
	assert.Equal(t, "sqlite", args.Store)
	assert.Equal(t, "warn", args.LogLevel, "an explicit level wins over -v")
	assert.Equal(t, "/tmp/c.toml", args.ConfigPath)
	assert.True(t, args.JSON)
	assert.True(t, args.Verbose)
	assert.Equal(t, []string{"-n", "2"}, args.Raw)

	_, args = Parse([]string{"-v"})
	assert.Equal(t, "debug", args.LogLevel)
}

func TestSuggestCommand(t *testing.T) {
	assert.Equal(t, "history", SuggestCommand("histroy"))
	assert.Equal(t, "config", SuggestCommand("confg"))
	assert.Equal(t, "", SuggestCommand("chat"), "exact match needs no suggestion")
	assert.Equal(t, "", SuggestCommand("x"))
	assert.Equal(t, "", SuggestCommand("kubernetes"))
}

func TestUsageAndVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	assert.Contains(t, buf.String(), "chatptq ask")
	assert.Contains(t, buf.String(), Version)

	buf.Reset()
	PrintVersion(&buf)
	assert.Contains(t, buf.String(), "chatptq version "+Version)
}

// =============================================================================
// ERRORS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitUsageError, GetExitCode(ErrMissingArgument("question", "ask q")))
	assert.Equal(t, ExitUsageError, GetExitCode(fmt.Errorf("x: %w", config.ErrUnknownKey)))
	assert.Equal(t, ExitConfigError, GetExitCode(&config.ApplyError{}))
	assert.Equal(t, ExitAuthError, GetExitCode(NewCommandError("ask", "send", "failed", fmt.Errorf("%w: 401", cloud.ErrAuthFailed))))
	assert.Equal(t, ExitNetworkError, GetExitCode(fmt.Errorf("%w: refused", cloud.ErrTransport)))
	assert.Equal(t, ExitGeneralError, GetExitCode(errors.New("boom")))
}

func TestDisplayError(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, errors.New("boom"), false)
	assert.Contains(t, buf.String(), "boom")

	buf.Reset()
	DisplayError(&buf, errors.New("boom"), true)
	resp := decodeJSON(t, buf.Bytes())
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "boom", *resp.Error)
}

// failingSaves rejects every write.
type failingSaves struct {
	storage.BlobStore
}

func (failingSaves) Set(key string, _ any) error {
	return &storage.StoreError{Op: "set", Key: key, Err: errors.New("disk full")}
}

func TestCloseSession_ReportsSaveFailure(t *testing.T) {
	te := newTestEnv(t)
	te.Blobs = failingSaves{te.Blobs}

	sess := te.OpenSession()
	require.NoError(t, sess.Submit(context.Background(), "ping"))
	te.CloseSession(sess)

	assert.Contains(t, te.errOut.String(), "[!]")
	assert.Contains(t, te.errOut.String(), "disk full")
}

func TestCloseSession_QuietOnSuccess(t *testing.T) {
	te := newTestEnv(t)

	sess := te.OpenSession()
	require.NoError(t, sess.Submit(context.Background(), "ping"))
	te.CloseSession(sess)

	assert.Empty(t, te.errOut.String())
	assert.Len(t, te.saved(t), 2)
}

// =============================================================================
// ASK
// =============================================================================

func TestHandleAsk(t *testing.T) {
	te := newTestEnv(t)

	err := HandleAsk(context.Background(), te.Env, Args{Raw: []string{"what", "is", "go"}})
	require.NoError(t, err)

	assert.Equal(t, "pong\n", te.out.String())
	assert.Equal(t, []model.Message{model.NewUserMessage("what is go")}, te.gw.last())
	assert.Contains(t, te.errOut.String(), "7 prompt + 3 completion tokens")
	assert.Empty(t, te.saved(t), "ask leaves the conversation alone")
}

func TestHandleAsk_JSON(t *testing.T) {
	te := newTestEnv(t)

	require.NoError(t, HandleAsk(context.Background(), te.Env, Args{JSON: true, Raw: []string{"ping"}}))

	resp := decodeJSON(t, te.out.Bytes())
	assert.True(t, resp.Success)
	assert.Equal(t, "ask", resp.Command)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "pong", data["content"])
	assert.EqualValues(t, 7, data["prompt_tokens"])
}

func TestHandleAsk_StdinAndTranslate(t *testing.T) {
	te := newTestEnv(t)
	te.In = strings.NewReader("Guten Morgen\n")

	require.NoError(t, HandleAsk(context.Background(), te.Env, Args{Quiet: true, Raw: []string{"--translate", "English"}}))

	assert.Equal(t, "Translate the following into English:\nGuten Morgen", te.gw.last()[0].Content)
	assert.Empty(t, te.errOut.String())
}

func TestHandleAsk_SystemAndFile(t *testing.T) {
	te := newTestEnv(t)
	path := filepath.Join(te.dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("line one\n"), 0o600))

	err := HandleAsk(context.Background(), te.Env, Args{Raw: []string{"summarize", "-f", path, "--system", "be brief"}})
	require.NoError(t, err)

	msgs := te.gw.last()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleSystem, msgs[0].Role)
	assert.Equal(t, "be brief", msgs[0].Content)
	assert.Contains(t, msgs[1].Content, "summarize\nFile: notes.txt\n```\nline one\n```")
}

func TestHandleAsk_Errors(t *testing.T) {
	te := newTestEnv(t)
	yes := true
	te.StdinTTY = &yes

	err := HandleAsk(context.Background(), te.Env, Args{})
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	err = HandleAsk(context.Background(), te.Env, Args{Raw: []string{"hi", "--translate", "!!"}})
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	err = HandleAsk(context.Background(), te.Env, Args{Raw: []string{"hi", "--file", te.dir}})
	assert.Equal(t, ExitUsageError, GetExitCode(err), "a directory is not attachable")

	te.gw.err = fmt.Errorf("%w: bad key", cloud.ErrAuthFailed)
	err = HandleAsk(context.Background(), te.Env, Args{Raw: []string{"hi"}})
	assert.Equal(t, ExitAuthError, GetExitCode(err))
}

// =============================================================================
// HISTORY / CLEAR
// =============================================================================

func seedConversation() []model.Conversation {
	return []model.Conversation{
		model.NewConversation(model.NewUserMessage("first question")).WithTokenUsage(5),
		model.NewConversation(model.NewAssistantMessage("first\nanswer")).WithTokenUsage(2),
		model.NewConversation(model.NewUserMessage("lost one")).Failed(),
	}
}

func TestHandleHistory(t *testing.T) {
	te := newTestEnv(t)
	te.seed(t, seedConversation()...)

	require.NoError(t, HandleHistory(context.Background(), te.Env, Args{}))
	out := te.out.String()

	assert.Contains(t, out, "[1/3] You (5 tks)")
	assert.Contains(t, out, "first answer", "content is folded onto one line")
	assert.Contains(t, out, "[3/3] You [X] not sent")
}

func TestHandleHistory_LimitAndFull(t *testing.T) {
	te := newTestEnv(t)
	te.seed(t, seedConversation()...)

	require.NoError(t, HandleHistory(context.Background(), te.Env, Args{Raw: []string{"-n", "2", "--full"}}))
	out := te.out.String()

	assert.NotContains(t, out, "[1/3]")
	assert.Contains(t, out, "  first\n  answer\n")
}

func TestHandleHistory_JSON(t *testing.T) {
	te := newTestEnv(t)
	te.seed(t, seedConversation()...)

	require.NoError(t, HandleHistory(context.Background(), te.Env, Args{JSON: true}))

	var resp struct {
		Data []HistoryEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(te.out.Bytes(), &resp))
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "assistant", resp.Data[1].Role)
	assert.False(t, resp.Data[2].Success)
	assert.Nil(t, resp.Data[2].Tokens)
}

func TestHandleHistory_Empty(t *testing.T) {
	te := newTestEnv(t)
	require.NoError(t, HandleHistory(context.Background(), te.Env, Args{}))
	assert.Contains(t, te.out.String(), "No saved conversation.")

	err := HandleHistory(context.Background(), te.Env, Args{Raw: []string{"--limit=-1"}})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleClear(t *testing.T) {
	te := newTestEnv(t)
	te.seed(t, seedConversation()...)

	err := HandleClear(context.Background(), te.Env, Args{})
	assert.Equal(t, ExitUsageError, GetExitCode(err), "non-interactive clear needs --yes")
	assert.Len(t, te.saved(t), 3)

	require.NoError(t, HandleClear(context.Background(), te.Env, Args{Raw: []string{"--yes"}}))
	assert.Empty(t, te.saved(t))
	assert.Contains(t, te.out.String(), "Cleared 3 entries.")
}

func TestHandleClear_Confirm(t *testing.T) {
	te := newTestEnv(t)
	te.seed(t, seedConversation()...)
	yes := true
	te.StdinTTY = &yes

	te.In = strings.NewReader("n\n")
	require.NoError(t, HandleClear(context.Background(), te.Env, Args{}))
	assert.Len(t, te.saved(t), 3)

	te.In = strings.NewReader("y\n")
	require.NoError(t, HandleClear(context.Background(), te.Env, Args{}))
	assert.Empty(t, te.saved(t))
}

// =============================================================================
// CONFIG
// =============================================================================

func TestHandleConfig_SetGet(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, HandleConfig(ctx, te.Env, Args{Raw: []string{"set", "gpt_name", "Helper", "Bot"}}))
	assert.Equal(t, "Helper Bot", te.Store.Current().GPTName)
	assert.Contains(t, te.out.String(), "gpt_name = Helper Bot")

	te.out.Reset()
	require.NoError(t, HandleConfig(ctx, te.Env, Args{Raw: []string{"set", "api_key", "sk-abcdefgh12345678"}}))
	assert.NotContains(t, te.out.String(), "sk-abcdefgh12345678")

	te.out.Reset()
	require.NoError(t, HandleConfig(ctx, te.Env, Args{Raw: []string{"get", "api_key"}}))
	assert.Equal(t, "sk-...5678\n", te.out.String())

	te.out.Reset()
	require.NoError(t, HandleConfig(ctx, te.Env, Args{Raw: []string{"get", "api_key", "--reveal"}}))
	assert.Equal(t, "sk-abcdefgh12345678\n", te.out.String())

	// The change is on disk.
	path, err := te.Store.Path()
	require.NoError(t, err)
	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Helper Bot", loaded.GPTName)
}

func TestHandleConfig_Errors(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()

	err := HandleConfig(ctx, te.Env, Args{Raw: []string{"set", "no_such_key", "1"}})
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	err = HandleConfig(ctx, te.Env, Args{Raw: []string{"set", "fast_send_long_press_ms", "99999"}})
	assert.Equal(t, ExitConfigError, GetExitCode(err))

	err = HandleConfig(ctx, te.Env, Args{Raw: []string{"set", "gpt_name"}})
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	err = HandleConfig(ctx, te.Env, Args{Raw: []string{"frobnicate"}})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleConfig_AutoStartSavedButReported(t *testing.T) {
	te := newTestEnv(t)

	err := HandleConfig(context.Background(), te.Env, Args{Raw: []string{"set", "auto_start", "on"}})
	assert.Equal(t, ExitConfigError, GetExitCode(err))
	assert.True(t, te.Store.Current().AutoStart)
	assert.Contains(t, te.errOut.String(), "auto_start was saved")
}

func TestHandleConfig_ShowPathKeys(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, HandleConfig(ctx, te.Env, Args{JSON: true}))
	var resp struct {
		Data ConfigData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(te.out.Bytes(), &resp))
	assert.Equal(t, filepath.Join(te.dir, "config.toml"), resp.Data.Path)
	assert.Equal(t, "ShiftEnter", resp.Data.Values["fast_send_mode"])

	te.out.Reset()
	require.NoError(t, HandleConfig(ctx, te.Env, Args{Raw: []string{"show"}}))
	assert.Contains(t, te.out.String(), "fast_send_mode")

	te.out.Reset()
	require.NoError(t, HandleConfig(ctx, te.Env, Args{Raw: []string{"path"}}))
	assert.Equal(t, filepath.Join(te.dir, "config.toml")+"\n", te.out.String())

	te.out.Reset()
	require.NoError(t, HandleConfig(ctx, te.Env, Args{Raw: []string{"keys"}}))
	assert.Contains(t, te.out.String(), "user_proxy.host\n")
}

// =============================================================================
// CHAT REPL
// =============================================================================

type scriptedReader struct {
	lines   []string
	prompts []string
	history []string
}

func (r *scriptedReader) Prompt(prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) AppendHistory(item string) {
	r.history = append(r.history, item)
}

func runREPL(t *testing.T, te *testEnv, lines ...string) *scriptedReader {
	t.Helper()
	in := &scriptedReader{lines: lines}
	repl := newChatREPL(te.Env, false)
	require.NoError(t, repl.run(context.Background(), in, 0))
	return in
}

func TestChatREPL_SubmitAndPersist(t *testing.T) {
	te := newTestEnv(t)

	in := runREPL(t, te, "hello", "", "second \\", "line")

	saved := te.saved(t)
	require.Len(t, saved, 4)
	assert.Equal(t, "hello", saved[0].Message.Content)
	assert.Equal(t, "pong", saved[1].Message.Content)
	assert.Equal(t, "second \nline", saved[2].Message.Content)

	// Context sent with the second turn includes the first exchange.
	assert.Len(t, te.gw.last(), 3)
	assert.Equal(t, []string{"hello", "second \nline"}, in.history)
	assert.Contains(t, te.out.String(), "(3 tks)")
}

func TestChatREPL_Commands(t *testing.T) {
	te := newTestEnv(t)
	te.seed(t, seedConversation()...)

	runREPL(t, te, "/copy", "/name Robo", "/frob", "/clear", "/quit", "never read")

	assert.Equal(t, []string{"first\nanswer"}, te.copied)
	assert.Equal(t, "Robo", te.Store.Current().GPTName)
	assert.Contains(t, te.errOut.String(), "unknown command")
	assert.Empty(t, te.saved(t))
	assert.Empty(t, te.gw.calls)
}

func TestChatREPL_SendFailureKeepsFailedEntry(t *testing.T) {
	te := newTestEnv(t)
	te.gw.err = fmt.Errorf("%w: connection refused", cloud.ErrTransport)

	runREPL(t, te, "hello")

	saved := te.saved(t)
	require.Len(t, saved, 1)
	assert.False(t, saved[0].Success)
	assert.Contains(t, te.errOut.String(), "Send failed")
}

func TestChatREPL_Translate(t *testing.T) {
	te := newTestEnv(t)
	te.seed(t, seedConversation()...)

	runREPL(t, te, "/translate 2 French", "/tr de")

	req := te.gw.last()
	require.Len(t, req, 3, "the failed entry is not sent")
	assert.Equal(t, "Translate the following into French:\nfirst\nanswer", req[2].Content)
	assert.Len(t, te.gw.calls, 1, "/tr without text is rejected")
	assert.Contains(t, te.errOut.String(), "[Error]")
}

// =============================================================================
// EXPORT
// =============================================================================

func TestHandleExport_File(t *testing.T) {
	te := newTestEnv(t)
	te.seed(t, seedConversation()...)
	outDir := filepath.Join(te.dir, "exports")

	require.NoError(t, HandleExport(context.Background(), te.Env,
		Args{Raw: []string{"-o", outDir, "--title", "notes"}, Quiet: true}))

	path := strings.TrimSpace(te.out.String())
	assert.Equal(t, outDir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "conversation_notes_"))
	assert.Equal(t, ".md", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "first question")
	assert.NotContains(t, string(data), "lost one")
}

func TestHandleExport_StdoutJSON(t *testing.T) {
	te := newTestEnv(t)
	te.seed(t, seedConversation()...)

	require.NoError(t, HandleExport(context.Background(), te.Env,
		Args{Raw: []string{"--stdout", "--format", "json", "--all"}}))

	var sess model.Session
	require.NoError(t, json.Unmarshal(te.out.Bytes(), &sess))
	require.Len(t, sess.Conversations, 3)
	assert.False(t, sess.Conversations[2].Success)
}

func TestHandleExport_Errors(t *testing.T) {
	te := newTestEnv(t)

	err := HandleExport(context.Background(), te.Env, Args{Raw: []string{"--stdout"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to export")

	err = HandleExport(context.Background(), te.Env, Args{Raw: []string{"--format", "pdf"}})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}
