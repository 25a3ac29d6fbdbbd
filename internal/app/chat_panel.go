package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/efecanulku/docdash/internal/gateway"
)

// ChatPanel runs the conversation workflow: session lifecycle, transcript
// loading, and the optimistic send-then-reply exchange.
type ChatPanel struct {
	c       *Controller
	confirm Confirmer
}

func newChatPanel(c *Controller, confirm Confirmer) *ChatPanel {
	return &ChatPanel{c: c, confirm: confirm}
}

// CreateSession makes a new named session, inserts it at the head of the
// list, and switches the conversation to it with an empty transcript.
func (p *ChatPanel) CreateSession(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: session name is required", ErrValidation)
	}
	session, err := p.c.gw.CreateChatSession(ctx, name)
	if err != nil {
		return fmt.Errorf("creating chat session: %w", err)
	}
	p.c.state.PrependSession(session)
	p.c.renderChat()
	p.c.notify.Success("Created session %q", session.SessionName)
	return nil
}

// SelectSession switches the conversation to a session already in the local
// list and loads its transcript. Selecting an unknown id is a no-op.
func (p *ChatPanel) SelectSession(ctx context.Context, id int) error {
	if _, ok := p.c.state.SelectSession(id); !ok {
		return nil
	}
	gen := p.c.state.BeginTranscriptLoad()
	messages, err := p.c.gw.ListChatMessages(ctx, id)
	if err != nil {
		return fmt.Errorf("loading chat history: %w", err)
	}
	if p.c.state.ApplyTranscript(gen, messages) {
		p.c.renderChat()
	}
	return nil
}

// SendMessage appends the user's text to the transcript immediately, then
// sends it. When no session is current the server creates one; the reply's
// session id is adopted so the follow-up messages land in it.
func (p *ChatPanel) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	p.c.state.AppendMessage(gateway.ChatMessage{
		MessageType: "user",
		Content:     text,
		Timestamp:   time.Now(),
	})
	p.c.renderChat()

	sessionID := 0
	if current, ok := p.c.state.CurrentSession(); ok {
		sessionID = current.ID
	}
	reply, err := p.c.gw.SendChat(ctx, text, sessionID)
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}

	if reply.SessionID != sessionID {
		// The server opened a session for us. Track it locally right away;
		// the list refresh fills in the real name when it succeeds.
		p.c.state.AdoptSession(gateway.ChatSession{
			ID:          reply.SessionID,
			SessionName: "New Chat",
			CreatedAt:   time.Now(),
		})
		gen := p.c.state.BeginSessionsLoad()
		if sessions, lerr := p.c.gw.ListChatSessions(ctx); lerr != nil {
			slog.Warn("session list refresh failed", "error", lerr)
		} else {
			p.c.state.ApplySessions(gen, sessions)
		}
	}

	p.c.state.AppendMessage(gateway.ChatMessage{
		SessionID:   reply.SessionID,
		MessageType: "assistant",
		Content:     reply.Response,
		Timestamp:   time.Now(),
	})
	p.c.renderChat()
	return nil
}

// DeleteSession removes a session after confirmation. Deleting the current
// session clears the conversation.
func (p *ChatPanel) DeleteSession(ctx context.Context, id int) error {
	if !p.confirm.Confirm(fmt.Sprintf("Delete chat session %d and its history?", id)) {
		p.c.notify.Info("Delete cancelled")
		return nil
	}
	if err := p.c.gw.DeleteChatSession(ctx, id); err != nil {
		return fmt.Errorf("deleting chat session: %w", err)
	}
	p.c.state.RemoveSession(id)
	p.c.renderChat()
	p.c.notify.Success("Session deleted")
	return nil
}

// RenameSession sets a session's display name and refreshes the list.
func (p *ChatPanel) RenameSession(ctx context.Context, id int, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: session name is required", ErrValidation)
	}
	if err := p.c.gw.RenameChatSession(ctx, id, name); err != nil {
		return fmt.Errorf("renaming chat session: %w", err)
	}
	return p.c.LoadChatSessions(ctx)
}
