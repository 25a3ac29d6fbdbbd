// Package view holds the client's in-memory mirror of server state: the
// document list, chat sessions, the active session's transcript, dashboard
// stats, and transient search results. It has no persistence and no
// knowledge of rendering.
//
// Loads are tagged with a per-family generation so that a stale in-flight
// response can never overwrite the result of a later-issued load: callers
// obtain a token from Begin*Load and the matching Apply* is a no-op when a
// newer load has already been applied.
package view

import (
	"sort"
	"sync"

	"github.com/efecanulku/docdash/internal/gateway"
)

type generation struct {
	issued  uint64
	applied uint64
}

func (g *generation) next() uint64 {
	g.issued++
	return g.issued
}

// accept reports whether a result tagged gen may be applied, and records it.
func (g *generation) accept(gen uint64) bool {
	if gen <= g.applied {
		return false
	}
	g.applied = gen
	return true
}

// State is safe for concurrent use; the dashboard loads stats and recent
// documents in parallel.
type State struct {
	mu sync.Mutex

	documents  []gateway.Document
	recent     []gateway.Document
	sessions   []gateway.ChatSession
	current    *gateway.ChatSession
	transcript []gateway.ChatMessage
	stats      gateway.Stats
	results    gateway.SearchResult
	filters    gateway.SearchFilters

	docGen        generation
	recentGen     generation
	sessionGen    generation
	transcriptGen generation
	statsGen      generation
	searchGen     generation
}

func NewState() *State {
	return &State{stats: ZeroStats()}
}

// Reset drops every mirrored value and invalidates loads still in flight,
// so a response that returns after a logout cannot repopulate the state.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = nil
	s.recent = nil
	s.sessions = nil
	s.current = nil
	s.transcript = nil
	s.stats = ZeroStats()
	s.results = gateway.SearchResult{}
	s.filters = gateway.SearchFilters{}
	for _, g := range []*generation{
		&s.docGen, &s.recentGen, &s.sessionGen,
		&s.transcriptGen, &s.statsGen, &s.searchGen,
	} {
		g.applied = g.issued
	}
}

// ZeroStats is the safe default rendered when the stats fetch fails: all
// counters zero and an empty (non-nil) distribution.
func ZeroStats() gateway.Stats {
	return gateway.Stats{FileTypeDistribution: map[string]int{}}
}

// --- documents ---

func (s *State) BeginDocumentsLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docGen.next()
}

// ApplyDocuments replaces the document list wholesale. Returns false when a
// later-issued load already applied, in which case nothing changes.
func (s *State) ApplyDocuments(gen uint64, docs []gateway.Document) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.docGen.accept(gen) {
		return false
	}
	s.documents = append([]gateway.Document(nil), docs...)
	return true
}

func (s *State) Documents() []gateway.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gateway.Document(nil), s.documents...)
}

// RemoveDocument drops one record from the local mirror. Used as the
// optimistic removal on delete; the next reload is still authoritative.
func (s *State) RemoveDocument(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.documents[:0]
	for _, d := range s.documents {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	s.documents = kept
}

func (s *State) BeginRecentLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recentGen.next()
}

func (s *State) ApplyRecent(gen uint64, docs []gateway.Document) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recentGen.accept(gen) {
		return false
	}
	s.recent = append([]gateway.Document(nil), docs...)
	return true
}

func (s *State) RecentDocuments() []gateway.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gateway.Document(nil), s.recent...)
}

// --- chat sessions ---

func (s *State) BeginSessionsLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionGen.next()
}

func (s *State) ApplySessions(gen uint64, sessions []gateway.ChatSession) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sessionGen.accept(gen) {
		return false
	}
	s.sessions = append([]gateway.ChatSession(nil), sessions...)
	return true
}

func (s *State) Sessions() []gateway.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gateway.ChatSession(nil), s.sessions...)
}

// PrependSession inserts a freshly created session at position 0 and makes
// it current. This is the one optimistic insert the client performs: the
// create response already carries the authoritative record.
func (s *State) PrependSession(session gateway.ChatSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append([]gateway.ChatSession{session}, s.sessions...)
	s.current = &session
	s.transcript = nil
}

// SelectSession makes the locally known session with the given id current
// and reports whether it was found. Unknown ids leave the state untouched.
func (s *State) SelectSession(id int) (gateway.ChatSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if session.ID == id {
			chosen := session
			s.current = &chosen
			return chosen, true
		}
	}
	return gateway.ChatSession{}, false
}

// AdoptSession switches the current session to one the server picked or
// created during a send. The transcript is kept: the optimistic exchange
// already belongs to that session.
func (s *State) AdoptSession(session gateway.ChatSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &session
}

// RemoveSession drops a session from the list. When the removed session was
// current, the selection is cleared and the transcript resets to the empty
// welcome placeholder.
func (s *State) RemoveSession(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.sessions[:0]
	for _, session := range s.sessions {
		if session.ID != id {
			kept = append(kept, session)
		}
	}
	s.sessions = kept
	if s.current != nil && s.current.ID == id {
		s.current = nil
		s.transcript = nil
	}
}

// CurrentSession returns a copy of the current session, or false when none
// is selected.
func (s *State) CurrentSession() (gateway.ChatSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return gateway.ChatSession{}, false
	}
	return *s.current, true
}

// --- transcript ---

func (s *State) BeginTranscriptLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcriptGen.next()
}

func (s *State) ApplyTranscript(gen uint64, messages []gateway.ChatMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.transcriptGen.accept(gen) {
		return false
	}
	s.transcript = append([]gateway.ChatMessage(nil), messages...)
	return true
}

// AppendMessage adds one bubble to the visible transcript. The user bubble
// is appended before the request is sent; the assistant bubble only after a
// successful response.
func (s *State) AppendMessage(msg gateway.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, msg)
}

func (s *State) Transcript() []gateway.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gateway.ChatMessage(nil), s.transcript...)
}

// --- dashboard stats ---

func (s *State) BeginStatsLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsGen.next()
}

func (s *State) ApplyStats(gen uint64, stats gateway.Stats) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.statsGen.accept(gen) {
		return false
	}
	if stats.FileTypeDistribution == nil {
		stats.FileTypeDistribution = map[string]int{}
	}
	s.stats = stats
	return true
}

func (s *State) Stats() gateway.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.stats
	dist := make(map[string]int, len(stats.FileTypeDistribution))
	for k, v := range stats.FileTypeDistribution {
		dist[k] = v
	}
	stats.FileTypeDistribution = dist
	return stats
}

// --- search ---

func (s *State) BeginSearchLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchGen.next()
}

// ApplySearch replaces the transient result set. Search results are never
// merged into the document mirror.
func (s *State) ApplySearch(gen uint64, result gateway.SearchResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.searchGen.accept(gen) {
		return false
	}
	s.results = result
	s.results.Documents = append([]gateway.Document(nil), result.Documents...)
	return true
}

func (s *State) SearchResults() gateway.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := s.results
	result.Documents = append([]gateway.Document(nil), s.results.Documents...)
	return result
}

func (s *State) SetSearchFilters(filters gateway.SearchFilters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = filters
}

func (s *State) SearchFilters() gateway.SearchFilters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// TypeShare is one slice of the dashboard's file type distribution.
type TypeShare struct {
	Type    string
	Count   int
	Percent float64
}

// TypeShares converts a distribution into render-ready rows, largest first.
// Percentages are of the distribution total and sum to 100 up to rounding.
func TypeShares(dist map[string]int) []TypeShare {
	total := 0
	for _, count := range dist {
		total += count
	}
	if total == 0 {
		return nil
	}
	shares := make([]TypeShare, 0, len(dist))
	for typ, count := range dist {
		shares = append(shares, TypeShare{
			Type:    typ,
			Count:   count,
			Percent: float64(count) / float64(total) * 100,
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Type < shares[j].Type
	})
	return shares
}
