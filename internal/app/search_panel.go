package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/efecanulku/docdash/internal/gateway"
)

// SearchPanel runs queries and keeps the filter options loaded.
type SearchPanel struct {
	c     *Controller
	limit int

	fileType string
}

func newSearchPanel(c *Controller, limit int) *SearchPanel {
	return &SearchPanel{c: c, limit: limit}
}

// LoadFilters fetches the available file types and sort options. Best-effort:
// the search box works without them, so a failure only logs.
func (p *SearchPanel) LoadFilters(ctx context.Context) {
	filters, err := p.c.gw.SearchFilters(ctx)
	if err != nil {
		slog.Warn("search filters load failed", "error", err)
		return
	}
	p.c.state.SetSearchFilters(filters)
}

// SetFileType restricts subsequent queries to one file type. Empty clears
// the restriction.
func (p *SearchPanel) SetFileType(fileType string) {
	p.fileType = strings.TrimSpace(fileType)
}

// SearchQuery runs a query and replaces the result set. A slow earlier query
// landing after a newer one is discarded.
func (p *SearchPanel) SearchQuery(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return fmt.Errorf("%w: search query is required", ErrValidation)
	}

	req := gateway.SearchRequest{Query: query, Limit: p.limit}
	if p.fileType != "" {
		req.DocumentTypes = []string{p.fileType}
	}

	gen := p.c.state.BeginSearchLoad()
	result, err := p.c.gw.Search(ctx, req)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}
	if p.c.state.ApplySearch(gen, result) {
		p.c.render.RenderSearch(p.c.state.SearchFilters(), p.c.state.SearchResults())
	}
	return nil
}

// Suggest returns completions for a partial query. Inputs shorter than two
// characters produce nothing without a round trip.
func (p *SearchPanel) Suggest(ctx context.Context, partial string) ([]string, error) {
	partial = strings.TrimSpace(partial)
	if len(partial) < 2 {
		return nil, nil
	}
	suggestions, err := p.c.gw.SearchSuggestions(ctx, partial)
	if err != nil {
		return nil, fmt.Errorf("loading suggestions: %w", err)
	}
	return suggestions, nil
}
