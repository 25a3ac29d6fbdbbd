// Package app is the client's section controller and panels: the state
// machine that switches between the dashboard, documents, chat, and search
// views, and the per-section operations that keep the in-memory mirrors in
// sync with the server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/efecanulku/docdash/internal/gateway"
	"github.com/efecanulku/docdash/internal/localstore"
	"github.com/efecanulku/docdash/internal/session"
	"github.com/efecanulku/docdash/internal/view"
)

// Options configures a Controller. Session, Gateway, and State are
// required; the rest default to no-ops or sensible values.
type Options struct {
	Session   *session.Store
	Gateway   *gateway.Client
	State     *view.State
	Local     *localstore.Store // optional persistent client state
	Renderer  Renderer
	Notifier  Notifier
	Confirmer Confirmer

	RecentLimit int           // dashboard preview size, default 5
	SearchLimit int           // search result cap, default 20
	ReloadDelay time.Duration // settle time before post-upload refresh
}

// Controller owns the current section and drives the per-section loads.
// Exactly one section is current; switching hides all others. Protected
// sections are guarded by the session store: an unauthenticated switch
// lands on Login instead, without triggering the section's data load.
type Controller struct {
	session *session.Store
	gw      *gateway.Client
	state   *view.State
	local   *localstore.Store
	render  Renderer
	notify  Notifier

	mu      sync.Mutex
	current view.Section

	recentLimit int

	docs   *DocumentPanel
	chat   *ChatPanel
	search *SearchPanel
}

func NewController(opts Options) *Controller {
	if opts.Renderer == nil {
		opts.Renderer = NopRenderer{}
	}
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}
	if opts.Confirmer == nil {
		opts.Confirmer = AlwaysConfirm{}
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 5
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 20
	}

	c := &Controller{
		session:     opts.Session,
		gw:          opts.Gateway,
		state:       opts.State,
		local:       opts.Local,
		render:      opts.Renderer,
		notify:      opts.Notifier,
		current:     view.SectionLogin,
		recentLimit: opts.RecentLimit,
	}
	c.docs = newDocumentPanel(c, opts.Confirmer, opts.ReloadDelay)
	c.chat = newChatPanel(c, opts.Confirmer)
	c.search = newSearchPanel(c, opts.SearchLimit)

	// A rejected credential anywhere drops the mirrored server data and
	// lands the user back on Login.
	c.session.SetLogoutHook(func() {
		c.state.Reset()
		c.showLogin()
	})
	return c
}

func (c *Controller) Documents() *DocumentPanel { return c.docs }
func (c *Controller) Chat() *ChatPanel          { return c.chat }
func (c *Controller) Search() *SearchPanel      { return c.search }

// Current returns the visible section.
func (c *Controller) Current() view.Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Controller) setCurrent(s view.Section) {
	c.mu.Lock()
	c.current = s
	c.mu.Unlock()
}

// showLogin navigates to the login entry point unconditionally. It never
// performs network or guard work, so it is safe to call from the gateway's
// 401 path.
func (c *Controller) showLogin() {
	c.setCurrent(view.SectionLogin)
	c.render.ShowSection(view.SectionLogin)
}

// Start enters the initial section: the pending-section handoff left by a
// prior invocation if one exists, otherwise the dashboard. The flag is
// consumed exactly once; a corrupt value falls back to the dashboard.
func (c *Controller) Start(ctx context.Context) error {
	target := view.SectionDashboard
	if c.local != nil {
		name, ok, err := c.local.ConsumePendingSection()
		if err != nil {
			slog.Warn("failed to read pending section", "error", err)
		} else if ok {
			if s, perr := view.ParseSection(name); perr == nil {
				target = s
			} else {
				slog.Warn("ignoring unknown pending section", "value", name)
			}
		}
	}
	return c.GoTo(ctx, target)
}

// GoTo switches the visible section and triggers its data load. Entering a
// protected section unauthenticated redirects to Login and returns
// ErrUnauthenticated; no protected data load runs.
func (c *Controller) GoTo(ctx context.Context, target view.Section) error {
	if target.Protected() && !c.session.IsAuthenticated() {
		c.showLogin()
		return ErrUnauthenticated
	}

	c.setCurrent(target)
	c.render.ShowSection(target)
	if c.local != nil {
		if err := c.local.SetLastSection(target.String()); err != nil {
			slog.Warn("failed to record last section", "error", err)
		}
	}

	switch target {
	case view.SectionDashboard:
		return c.loadDashboard(ctx)
	case view.SectionDocuments:
		return c.LoadDocuments(ctx)
	case view.SectionChat:
		return c.LoadChatSessions(ctx)
	case view.SectionSearch:
		c.search.LoadFilters(ctx)
		c.render.RenderSearch(c.state.SearchFilters(), c.state.SearchResults())
		return nil
	}
	return nil
}

// loadDashboard fetches stats and the recent-documents preview in parallel.
// Each half degrades independently: a failed stats fetch renders the
// zero-value record, a failed preview keeps whatever was shown before.
func (c *Controller) loadDashboard(ctx context.Context) error {
	statsGen := c.state.BeginStatsLoad()
	recentGen := c.state.BeginRecentLoad()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := c.gw.Stats(gCtx)
		if err != nil {
			slog.Warn("stats load failed, using defaults", "error", err)
			c.state.ApplyStats(statsGen, view.ZeroStats())
			return nil
		}
		c.state.ApplyStats(statsGen, stats)
		return nil
	})
	g.Go(func() error {
		docs, err := c.gw.ListDocuments(gCtx, c.recentLimit)
		if err != nil {
			slog.Warn("recent documents load failed", "error", err)
			return nil
		}
		c.state.ApplyRecent(recentGen, docs)
		return nil
	})
	g.Wait()

	c.render.RenderDashboard(c.state.Stats(), c.state.RecentDocuments())
	return nil
}

// LoadDocuments replaces the document mirror from the server. On failure
// the previous contents stay visible.
func (c *Controller) LoadDocuments(ctx context.Context) error {
	gen := c.state.BeginDocumentsLoad()
	docs, err := c.gw.ListDocuments(ctx, 0)
	if err != nil {
		return fmt.Errorf("loading documents: %w", err)
	}
	if c.state.ApplyDocuments(gen, docs) {
		c.render.RenderDocuments(c.state.Documents())
	}
	return nil
}

// LoadChatSessions replaces the session list from the server.
func (c *Controller) LoadChatSessions(ctx context.Context) error {
	gen := c.state.BeginSessionsLoad()
	sessions, err := c.gw.ListChatSessions(ctx)
	if err != nil {
		return fmt.Errorf("loading chat sessions: %w", err)
	}
	if c.state.ApplySessions(gen, sessions) {
		c.renderChat()
	}
	return nil
}

// refreshStats re-fetches the dashboard counters after a document mutation.
// Best-effort: failures keep the previous numbers.
func (c *Controller) refreshStats(ctx context.Context) {
	gen := c.state.BeginStatsLoad()
	stats, err := c.gw.Stats(ctx)
	if err != nil {
		slog.Warn("stats refresh failed", "error", err)
		return
	}
	c.state.ApplyStats(gen, stats)
}

func (c *Controller) renderChat() {
	var current *gateway.ChatSession
	if s, ok := c.state.CurrentSession(); ok {
		current = &s
	}
	c.render.RenderChat(c.state.Sessions(), current, c.state.Transcript())
}
