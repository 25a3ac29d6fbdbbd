package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/efecanulku/docdash/internal/app"
	"github.com/efecanulku/docdash/internal/config"
	"github.com/efecanulku/docdash/internal/gateway"
	"github.com/efecanulku/docdash/internal/localstore"
	"github.com/efecanulku/docdash/internal/session"
	"github.com/efecanulku/docdash/internal/view"
)

// cliApp wires the full client stack for one command invocation.
type cliApp struct {
	cfg     config.Config
	gw      *gateway.Client
	session *session.Store
	state   *view.State
	local   *localstore.Store
	ctrl    *app.Controller
}

func newApp() (*cliApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	setupLogging(cfg.Log.Level)
	if !cfg.UI.Color {
		noColor = true
	}

	sessionStore, err := session.NewStore(config.NewTokenStore())
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	gw := gateway.New(
		cfg.API.BaseURL,
		time.Duration(cfg.API.TimeoutSeconds)*time.Second,
		gateway.WithTokenSource(sessionStore.Token),
		gateway.WithUnauthorizedHandler(sessionStore.Logout),
	)

	// The local store is a convenience, not a requirement. A broken data
	// dir degrades to no section persistence.
	local, err := localstore.Open(cfg.Storage.DataDir)
	if err != nil {
		slog.Warn("local state store unavailable", "error", err)
		local = nil
	}

	var confirmer app.Confirmer = terminalConfirmer{in: os.Stdin}
	if assumeYes {
		confirmer = app.AlwaysConfirm{}
	}

	state := view.NewState()
	ctrl := app.NewController(app.Options{
		Session:     sessionStore,
		Gateway:     gw,
		State:       state,
		Local:       local,
		Renderer:    newTerminalRenderer(),
		Notifier:    terminalNotifier{},
		Confirmer:   confirmer,
		RecentLimit: cfg.Dashboard.RecentLimit,
		SearchLimit: cfg.Search.Limit,
		ReloadDelay: time.Second,
	})

	return &cliApp{
		cfg:     cfg,
		gw:      gw,
		session: sessionStore,
		state:   state,
		local:   local,
		ctrl:    ctrl,
	}, nil
}

func (a *cliApp) Close() {
	if a.local != nil {
		if err := a.local.Close(); err != nil {
			slog.Warn("closing local store", "error", err)
		}
	}
}
