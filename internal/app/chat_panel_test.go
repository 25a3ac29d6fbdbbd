package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/efecanulku/docdash/internal/gateway"
	"github.com/efecanulku/docdash/internal/session"
	"github.com/efecanulku/docdash/internal/view"
)

func TestCreateSession_PrependsAndSelects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.ctrl.Chat().CreateSession(ctx, "First"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if err := env.ctrl.Chat().CreateSession(ctx, "Second"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	sessions := env.state.Sessions()
	if len(sessions) != 2 || sessions[0].SessionName != "Second" {
		t.Errorf("Sessions() = %+v, want newest first", sessions)
	}
	current, ok := env.state.CurrentSession()
	if !ok || current.SessionName != "Second" {
		t.Errorf("CurrentSession() = %+v, %v", current, ok)
	}
	if got := len(env.state.Transcript()); got != 0 {
		t.Errorf("transcript length = %d for a fresh session, want 0", got)
	}
}

func TestCreateSession_EmptyNameRejected(t *testing.T) {
	env := newTestEnv(t)
	before := env.requests.requests()

	err := env.ctrl.Chat().CreateSession(context.Background(), "   ")
	if err == nil || !strings.Contains(err.Error(), "name") {
		t.Fatalf("CreateSession(blank) error = %v, want validation error", err)
	}
	if got := env.requests.requests(); got != before {
		t.Errorf("%d requests for a rejected create, want 0", got-before)
	}
}

func TestSendMessage_OptimisticUserBubble(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.ctrl.Chat().CreateSession(ctx, "talk"); err != nil {
		t.Fatal(err)
	}
	if err := env.ctrl.Chat().SendMessage(ctx, "hello there"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	transcript := env.state.Transcript()
	if len(transcript) != 2 {
		t.Fatalf("transcript length = %d, want user + assistant", len(transcript))
	}
	if transcript[0].MessageType != "user" || transcript[0].Content != "hello there" {
		t.Errorf("first message = %+v, want the user's text", transcript[0])
	}
	if transcript[1].MessageType != "assistant" {
		t.Errorf("second message = %+v, want assistant reply", transcript[1])
	}
}

func TestSendMessage_EmptyIsNoop(t *testing.T) {
	env := newTestEnv(t)
	before := env.requests.requests()

	if err := env.ctrl.Chat().SendMessage(context.Background(), "   \n"); err != nil {
		t.Fatalf("SendMessage(blank) error = %v, want nil", err)
	}
	if got := len(env.state.Transcript()); got != 0 {
		t.Errorf("transcript length = %d after blank send, want 0", got)
	}
	if got := env.requests.requests(); got != before {
		t.Errorf("%d requests for a blank send, want 0", got-before)
	}
}

func TestSendMessage_AdoptsServerCreatedSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// No session selected: the backend creates one.
	if err := env.ctrl.Chat().SendMessage(ctx, "start fresh"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	current, ok := env.state.CurrentSession()
	if !ok {
		t.Fatal("no current session after server-side creation")
	}
	if current.ID == 0 {
		t.Error("adopted session has zero id")
	}

	// The optimistic exchange stays attached to the adopted session.
	if got := len(env.state.Transcript()); got != 2 {
		t.Errorf("transcript length = %d, want 2", got)
	}

	// A follow-up continues in the same session rather than opening another.
	if err := env.ctrl.Chat().SendMessage(ctx, "and continue"); err != nil {
		t.Fatalf("second SendMessage() error = %v", err)
	}
	again, _ := env.state.CurrentSession()
	if again.ID != current.ID {
		t.Errorf("session changed between sends: %d -> %d", current.ID, again.ID)
	}
}

// A session-list refresh kicked off by SendMessage can be overtaken by an
// explicit LoadChatSessions. The refresh took its generation first, so its
// late response must lose even though it arrives last.
func TestSendMessage_DelayedRefreshDoesNotClobberNewerLoad(t *testing.T) {
	refreshArrived := make(chan struct{})
	releaseRefresh := make(chan struct{})
	var listCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(gateway.ChatReply{Response: "ok", SessionID: 7})
	})
	mux.HandleFunc("/api/chat/sessions", func(w http.ResponseWriter, r *http.Request) {
		name := "Budget questions"
		if atomic.AddInt32(&listCalls, 1) == 1 {
			close(refreshArrived)
			<-releaseRefresh
			name = "New Chat"
		}
		json.NewEncoder(w).Encode([]gateway.ChatSession{
			{ID: 7, SessionName: name, CreatedAt: time.Now()},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sess, err := session.NewStore(&memTokens{token: "tok"})
	if err != nil {
		t.Fatalf("session.NewStore() error = %v", err)
	}
	state := view.NewState()
	ctrl := NewController(Options{
		Session: sess,
		Gateway: gateway.New(srv.URL, 5*time.Second, gateway.WithTokenSource(sess.Token)),
		State:   state,
	})

	// No current session, so the send adopts the server-created one and
	// refreshes the list. That refresh stalls on the server.
	sent := make(chan error, 1)
	go func() { sent <- ctrl.Chat().SendMessage(context.Background(), "hello") }()
	<-refreshArrived

	// A later-issued load completes first with the renamed session.
	if err := ctrl.LoadChatSessions(context.Background()); err != nil {
		t.Fatalf("LoadChatSessions() error = %v", err)
	}

	close(releaseRefresh)
	if err := <-sent; err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	sessions := state.Sessions()
	if len(sessions) != 1 || sessions[0].SessionName != "Budget questions" {
		t.Errorf("sessions = %+v, want the later-issued load kept", sessions)
	}
}

func TestSelectSession_LoadsTranscript(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.ctrl.Chat().CreateSession(ctx, "history"); err != nil {
		t.Fatal(err)
	}
	if err := env.ctrl.Chat().SendMessage(ctx, "remember this"); err != nil {
		t.Fatal(err)
	}
	current, _ := env.state.CurrentSession()

	// Select something else and come back via a fresh load.
	if err := env.ctrl.LoadChatSessions(ctx); err != nil {
		t.Fatal(err)
	}
	if err := env.ctrl.Chat().SelectSession(ctx, current.ID); err != nil {
		t.Fatalf("SelectSession() error = %v", err)
	}

	transcript := env.state.Transcript()
	if len(transcript) != 2 {
		t.Fatalf("transcript length = %d, want persisted exchange", len(transcript))
	}
	if transcript[0].Content != "remember this" {
		t.Errorf("first message = %q", transcript[0].Content)
	}
}

func TestSelectSession_UnknownIDIsNoop(t *testing.T) {
	env := newTestEnv(t)
	before := env.requests.requests()

	if err := env.ctrl.Chat().SelectSession(context.Background(), 999); err != nil {
		t.Fatalf("SelectSession(unknown) error = %v, want nil", err)
	}
	if got := env.requests.requests(); got != before {
		t.Errorf("%d requests for an unknown selection, want 0", got-before)
	}
}

func TestDeleteSession_Confirmed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.ctrl.Chat().CreateSession(ctx, "doomed"); err != nil {
		t.Fatal(err)
	}
	current, _ := env.state.CurrentSession()

	if err := env.ctrl.Chat().DeleteSession(ctx, current.ID); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, ok := env.state.CurrentSession(); ok {
		t.Error("deleted session still current")
	}
	if got := len(env.state.Sessions()); got != 0 {
		t.Errorf("sessions length = %d, want 0", got)
	}
}

func TestDeleteSession_DeclinedMakesNoRequest(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.Confirmer = declineAll{} })
	ctx := context.Background()

	if err := env.ctrl.Chat().CreateSession(ctx, "survivor"); err != nil {
		t.Fatal(err)
	}
	before := env.requests.requests()

	if err := env.ctrl.Chat().DeleteSession(ctx, 1); err != nil {
		t.Fatalf("DeleteSession() error = %v, want nil on decline", err)
	}
	if got := env.requests.requests(); got != before {
		t.Errorf("%d requests after declined delete, want 0", got-before)
	}
	if got := len(env.state.Sessions()); got != 1 {
		t.Errorf("sessions length = %d, want 1", got)
	}
}

func TestRenameSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.ctrl.Chat().CreateSession(ctx, "old name"); err != nil {
		t.Fatal(err)
	}
	current, _ := env.state.CurrentSession()

	if err := env.ctrl.Chat().RenameSession(ctx, current.ID, "new name"); err != nil {
		t.Fatalf("RenameSession() error = %v", err)
	}

	var found bool
	for _, sess := range env.state.Sessions() {
		if sess.ID == current.ID && sess.SessionName == "new name" {
			found = true
		}
	}
	if !found {
		t.Errorf("renamed session not in list: %+v", env.state.Sessions())
	}

	if err := env.ctrl.Chat().RenameSession(ctx, current.ID, "  "); err == nil {
		t.Error("RenameSession(blank) error = nil, want validation error")
	}
}
