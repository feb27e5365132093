// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/language"

	"github.com/jeranaias/chatptq/internal/model"
	"github.com/jeranaias/chatptq/internal/storage"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type fakeGateway struct {
	mu    sync.Mutex
	calls [][]model.Message
	resp  *model.ChatResponse
	err   error
	block chan struct{}
}

func (g *fakeGateway) Send(ctx context.Context, msgs []model.Message) (*model.ChatResponse, error) {
	g.mu.Lock()
	g.calls = append(g.calls, msgs)
	block, resp, err := g.block, g.resp, g.err
	g.mu.Unlock()

	if block != nil {
		<-block
	}
	return resp, err
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func okGateway(reply string) *fakeGateway {
	return &fakeGateway{resp: &model.ChatResponse{
		Message:          model.NewAssistantMessage(reply),
		PromptTokens:     11,
		CompletionTokens: 5,
	}}
}

type recorder struct {
	mu          sync.Mutex
	transcripts [][]model.Conversation
	sending     []bool
	notices     []string
	order       []string
}

func (r *recorder) listener() Listener {
	return Listener{
		TranscriptChanged: func(c []model.Conversation) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.transcripts = append(r.transcripts, c)
			r.order = append(r.order, "transcript")
		},
		SendingChanged: func(b bool) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.sending = append(r.sending, b)
			if b {
				r.order = append(r.order, "sending:true")
			} else {
				r.order = append(r.order, "sending:false")
			}
		},
		Notify: func(msg string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.notices = append(r.notices, msg)
			r.order = append(r.order, "notify")
		},
	}
}

func newTestSession(t *testing.T, gw Gateway) (*Session, *recorder) {
	t.Helper()
	rec := &recorder{}
	s := New(gw, WithListener(rec.listener()), WithLogger(zaptest.NewLogger(t)))
	return s, rec
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_SuccessAddsTwoEntries(t *testing.T) {
	gw := okGateway("hello!")
	s, rec := newTestSession(t, gw)

	require.NoError(t, s.Submit(context.Background(), "hi\n\n\nthere"))
	s.Wait()

	convs := s.Conversations()
	require.Len(t, convs, 2)

	assert.Equal(t, model.NewUserMessage("hi\nthere"), convs[0].Message)
	assert.True(t, convs[0].Success)
	n, ok := convs[0].Tokens()
	assert.True(t, ok)
	assert.Equal(t, 11, n)

	assert.Equal(t, model.NewAssistantMessage("hello!"), convs[1].Message)
	n, _ = convs[1].Tokens()
	assert.Equal(t, 5, n)

	assert.False(t, s.Submitting())
	assert.Equal(t, []bool{true, false}, rec.sending)
	assert.Equal(t, []string{"transcript", "sending:true", "transcript", "sending:false"}, rec.order)

	// The optimistic transcript was visible while the call was outstanding.
	require.Len(t, rec.transcripts[0], 1)
	assert.Nil(t, rec.transcripts[0][0].TokenUsage)
}

func TestSubmit_FailureRollsBack(t *testing.T) {
	gw := &fakeGateway{err: errors.New("network error: connection refused")}
	s, rec := newTestSession(t, gw)

	require.NoError(t, s.Submit(context.Background(), "hi"))
	s.Wait()

	convs := s.Conversations()
	require.Len(t, convs, 1)
	assert.False(t, convs[0].Success)
	assert.Nil(t, convs[0].TokenUsage)
	assert.Equal(t, "hi", convs[0].Message.Content)

	require.Len(t, rec.notices, 1)
	assert.Contains(t, rec.notices[0], "connection refused")
	assert.Equal(t, []string{"transcript", "sending:true", "transcript", "notify", "sending:false"}, rec.order)
	assert.False(t, s.Submitting())
}

func TestSubmit_LengthAfterRollbackAndReconcile(t *testing.T) {
	gw := okGateway("ok")
	s, _ := newTestSession(t, gw)

	require.NoError(t, s.Submit(context.Background(), "first"))
	s.Wait()
	before := s.Len()

	gw.mu.Lock()
	gw.err, gw.resp = errors.New("boom"), nil
	gw.mu.Unlock()

	require.NoError(t, s.Submit(context.Background(), "second"))
	s.Wait()
	assert.Equal(t, before+1, s.Len())
	for _, c := range s.Conversations() {
		if c.Message.Content == "second" {
			assert.False(t, c.Success)
		}
	}
}

func TestSubmit_FailedEntriesExcludedFromContext(t *testing.T) {
	gw := &fakeGateway{err: errors.New("boom")}
	s, _ := newTestSession(t, gw)

	require.NoError(t, s.Submit(context.Background(), "lost"))
	s.Wait()

	gw.mu.Lock()
	gw.err = nil
	gw.resp = &model.ChatResponse{Message: model.NewAssistantMessage("a")}
	gw.mu.Unlock()

	require.NoError(t, s.Submit(context.Background(), "kept"))
	s.Wait()

	require.Equal(t, 2, gw.callCount())
	assert.Equal(t, []model.Message{model.NewUserMessage("kept")}, gw.calls[1])
	assert.Len(t, s.Conversations(), 3)
}

func TestSubmit_SingleFlight(t *testing.T) {
	gw := okGateway("done")
	gw.block = make(chan struct{})
	s, rec := newTestSession(t, gw)

	require.NoError(t, s.Submit(context.Background(), "one"))
	require.Eventually(t, func() bool { return gw.callCount() == 1 }, timeout, tick)
	lenDuring := s.Len()

	require.NoError(t, s.Submit(context.Background(), "two"))
	assert.Equal(t, lenDuring, s.Len(), "second submit must not change the transcript")
	assert.True(t, s.Submitting())

	close(gw.block)
	s.Wait()

	assert.Equal(t, 1, gw.callCount(), "no second request")
	assert.Len(t, s.Conversations(), 2)
	assert.Equal(t, []bool{true, false}, rec.sending)
}

func TestSubmit_EmptyInput(t *testing.T) {
	gw := okGateway("x")
	s, rec := newTestSession(t, gw)

	for _, in := range []string{"", "   ", "\n\n\r\n"} {
		err := s.Submit(context.Background(), in)
		require.ErrorIs(t, err, ErrEmptyInput)
		var ve *ValidationError
		assert.True(t, errors.As(err, &ve))
	}

	assert.Zero(t, s.Len())
	assert.Zero(t, gw.callCount())
	assert.Len(t, rec.notices, 3)
	assert.Empty(t, rec.transcripts)
}

func TestSubmit_ContextCancelDoesNotAbort(t *testing.T) {
	gw := okGateway("fine")
	s, _ := newTestSession(t, gw)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.Submit(ctx, "hi"))
	s.Wait()

	assert.Len(t, s.Conversations(), 2)
}

// =============================================================================
// CLEAR / EPOCH
// =============================================================================

func TestClear_DuringFlightDiscardsResult(t *testing.T) {
	gw := okGateway("late")
	gw.block = make(chan struct{})
	s, rec := newTestSession(t, gw)

	require.NoError(t, s.Submit(context.Background(), "hi"))
	require.Eventually(t, func() bool { return gw.callCount() == 1 }, timeout, tick)

	s.Clear()
	assert.Zero(t, s.Len())
	assert.True(t, s.Submitting(), "turn is still in flight")

	close(gw.block)
	s.Wait()

	assert.Zero(t, s.Len(), "stale result must be discarded")
	assert.False(t, s.Submitting())
	// begin, clear; the stale completion emits no transcript event.
	assert.Len(t, rec.transcripts, 2)
	assert.Equal(t, []bool{true, false}, rec.sending)
}

func TestClear_DuringFlightFailureAlsoDiscarded(t *testing.T) {
	gw := &fakeGateway{err: errors.New("boom"), block: make(chan struct{})}
	s, rec := newTestSession(t, gw)

	require.NoError(t, s.Submit(context.Background(), "hi"))
	require.Eventually(t, func() bool { return gw.callCount() == 1 }, timeout, tick)
	s.Clear()
	close(gw.block)
	s.Wait()

	assert.Zero(t, s.Len())
	assert.Empty(t, rec.notices)
}

func TestClear_BumpsEpoch(t *testing.T) {
	s, _ := newTestSession(t, okGateway("x"))
	e := s.Epoch()
	s.Clear()
	assert.Equal(t, e+1, s.Epoch())
}

// =============================================================================
// TURN PRIMITIVES
// =============================================================================

func TestBeginSendComplete(t *testing.T) {
	gw := okGateway("reply")
	s, _ := newTestSession(t, gw)

	turn, err := s.Begin("question")
	require.NoError(t, err)
	require.NotNil(t, turn)
	assert.NotEmpty(t, turn.ID)
	assert.Equal(t, 0, turn.Index)
	assert.Equal(t, []model.Message{model.NewUserMessage("question")}, turn.Request)

	again, err := s.Begin("another")
	assert.NoError(t, err)
	assert.Nil(t, again)

	out := turn.Send(context.Background(), gw)
	assert.Equal(t, 1, s.Len(), "Send must not mutate the session")

	s.Complete(out)
	assert.Equal(t, 2, s.Len())

	// A duplicate completion is ignored.
	s.Complete(out)
	assert.Equal(t, 2, s.Len())
}

type panicGateway struct{}

func (panicGateway) Send(context.Context, []model.Message) (*model.ChatResponse, error) {
	panic("kaboom")
}

func TestTurnSend_RecoversGatewayPanic(t *testing.T) {
	s, rec := newTestSession(t, panicGateway{})

	require.NoError(t, s.Submit(context.Background(), "hi"))
	s.Wait()

	convs := s.Conversations()
	require.Len(t, convs, 1)
	assert.False(t, convs[0].Success)
	require.Len(t, rec.notices, 1)
	assert.Contains(t, rec.notices[0], "kaboom")
}

func TestComplete_ListenerPanicStillClearsSubmitting(t *testing.T) {
	gw := okGateway("x")
	s := New(gw)

	turn, err := s.Begin("hi")
	require.NoError(t, err)

	s.SetListener(Listener{SendingChanged: func(bool) { panic("listener failed") }})
	out := turn.Send(context.Background(), gw)
	assert.NotPanics(t, func() { s.Complete(out) })

	assert.False(t, s.Submitting())
	s.SetListener(Listener{})

	next, err := s.Begin("again")
	require.NoError(t, err)
	assert.NotNil(t, next, "session must accept a new turn")
}

func TestBegin_ListenerPanicDoesNotStrandTurn(t *testing.T) {
	gw := okGateway("pong")
	var notified []string
	s := New(gw, WithListener(Listener{
		TranscriptChanged: func([]model.Conversation) { panic("boom") },
		Notify:            func(msg string) { notified = append(notified, msg) },
	}))

	require.NotPanics(t, func() {
		require.NoError(t, s.Submit(context.Background(), "ping"))
	})
	s.Wait()

	assert.False(t, s.Submitting())
	assert.Equal(t, 1, gw.callCount())
	assert.Len(t, s.Conversations(), 2)

	require.NoError(t, s.Submit(context.Background(), "again"))
	s.Wait()
	assert.Equal(t, 2, gw.callCount(), "later submits still reach the gateway")
	assert.Empty(t, notified)
}

// =============================================================================
// RETRANSLATE
// =============================================================================

func TestRetranslate(t *testing.T) {
	gw := okGateway("bonjour")
	s, _ := newTestSession(t, gw)

	require.NoError(t, s.Submit(context.Background(), "hello"))
	s.Wait()

	require.NoError(t, s.Retranslate(context.Background(), 1, language.French))
	s.Wait()

	require.Equal(t, 2, gw.callCount())
	last := gw.calls[1]
	assert.Equal(t, model.NewUserMessage("Translate the following into French:\nbonjour"), last[len(last)-1])
	assert.Len(t, s.Conversations(), 4)
}

func TestRetranslate_InvalidIndex(t *testing.T) {
	s, rec := newTestSession(t, okGateway("x"))

	for _, idx := range []int{-1, 0, 5} {
		err := s.Retranslate(context.Background(), idx, language.French)
		assert.ErrorIs(t, err, ErrInvalidIndex)
	}
	assert.Len(t, rec.notices, 3)
	assert.False(t, s.Submitting())
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func openStore(t *testing.T) storage.BlobStore {
	t.Helper()
	store, err := storage.OpenJSONFile(filepath.Join(t.TempDir(), "datastore.json"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpen_AbsentStartsEmpty(t *testing.T) {
	s, err := Open(openStore(t), okGateway("x"))
	require.NoError(t, err)
	assert.Zero(t, s.Len())
}

func TestOpen_MalformedStartsEmptyAndReports(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.Set(model.SessionKey, map[string]any{"conversations": "nope"}))

	s, err := Open(store, okGateway("x"))
	require.NotNil(t, s)
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "load", pe.Op)
	assert.Zero(t, s.Len())
}

func TestOpen_UnknownRoleIsMalformed(t *testing.T) {
	store := openStore(t)
	bad := model.Session{Conversations: []model.Conversation{{Message: model.Message{Role: "robot", Content: "x"}}}}
	require.NoError(t, store.Set(model.SessionKey, bad))

	s, err := Open(store, okGateway("x"))
	assert.Error(t, err)
	assert.Zero(t, s.Len())
}

func TestSaveAndReload(t *testing.T) {
	store := openStore(t)
	s, err := Open(store, okGateway("pong"))
	require.NoError(t, err)

	require.NoError(t, s.Submit(context.Background(), "ping"))
	assert.True(t, s.IsDirty())
	require.NoError(t, s.Close())
	assert.False(t, s.IsDirty())

	reopened, err := Open(store, okGateway("x"))
	require.NoError(t, err)
	assert.Equal(t, s.Conversations(), reopened.Conversations())
	assert.Len(t, reopened.Conversations(), 2)
}

type failingStore struct{ storage.BlobStore }

func (failingStore) Set(string, any) error { return errors.New("disk full") }

func TestSave_FailureIsReportedNotFatal(t *testing.T) {
	rec := &recorder{}
	s, err := Open(failingStore{openStore(t)}, okGateway("x"), WithListener(rec.listener()))
	require.NoError(t, err)

	require.NoError(t, s.Submit(context.Background(), "hi"))
	err = s.Close()

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "save", pe.Op)
	assert.Len(t, s.Conversations(), 2, "in-memory transcript stays authoritative")
	assert.Contains(t, rec.notices[len(rec.notices)-1], "disk full")
}

func TestSave_EmptyTranscriptPersistsEmptyList(t *testing.T) {
	store := openStore(t)
	s, err := Open(store, okGateway("x"))
	require.NoError(t, err)
	require.NoError(t, s.Save())

	var raw map[string]any
	found, err := store.Get(model.SessionKey, &raw)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []any{}, raw["conversations"])
}
