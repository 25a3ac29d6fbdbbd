package app

import (
	"github.com/efecanulku/docdash/internal/gateway"
	"github.com/efecanulku/docdash/internal/view"
)

// Renderer is the thin adapter that draws state snapshots. Panels never
// touch an output surface directly; they hand immutable copies to the
// renderer so the state transitions stay testable without one.
type Renderer interface {
	ShowSection(section view.Section)
	RenderDashboard(stats gateway.Stats, recent []gateway.Document)
	RenderDocuments(docs []gateway.Document)
	RenderChat(sessions []gateway.ChatSession, current *gateway.ChatSession, transcript []gateway.ChatMessage)
	RenderSearch(filters gateway.SearchFilters, results gateway.SearchResult)
	RenderContent(content gateway.DocumentContent)
}

// Notifier shows transient user-facing messages, the terminal analog of a
// toast.
type Notifier interface {
	Success(format string, args ...any)
	Info(format string, args ...any)
	Warning(format string, args ...any)
}

// Confirmer asks the user to approve an irreversible action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// NopRenderer discards everything. Used by tests that only assert on state.
type NopRenderer struct{}

func (NopRenderer) ShowSection(view.Section)                                                     {}
func (NopRenderer) RenderDashboard(gateway.Stats, []gateway.Document)                            {}
func (NopRenderer) RenderDocuments([]gateway.Document)                                           {}
func (NopRenderer) RenderChat([]gateway.ChatSession, *gateway.ChatSession, []gateway.ChatMessage) {}
func (NopRenderer) RenderSearch(gateway.SearchFilters, gateway.SearchResult)                     {}
func (NopRenderer) RenderContent(gateway.DocumentContent)                                        {}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Success(string, ...any) {}
func (NopNotifier) Info(string, ...any)    {}
func (NopNotifier) Warning(string, ...any) {}

// AlwaysConfirm approves every prompt. Tests and --yes use it.
type AlwaysConfirm struct{}

func (AlwaysConfirm) Confirm(string) bool { return true }
