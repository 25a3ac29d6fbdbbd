package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/efecanulku/docdash/internal/gateway"
	"github.com/efecanulku/docdash/internal/localstore"
	"github.com/efecanulku/docdash/internal/session"
	"github.com/efecanulku/docdash/internal/stubserver"
	"github.com/efecanulku/docdash/internal/view"
)

type memTokens struct {
	mu    sync.Mutex
	token string
}

func (m *memTokens) GetToken() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *memTokens) SetToken(t string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = t
	return nil
}

func (m *memTokens) DeleteToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// recordingRenderer captures what the controller asked to draw.
type recordingRenderer struct {
	mu        sync.Mutex
	sections  []view.Section
	dashboard []gateway.Stats
	documents [][]gateway.Document
	chats     int
	searches  int
	contents  []gateway.DocumentContent
}

func (r *recordingRenderer) ShowSection(s view.Section) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sections = append(r.sections, s)
}

func (r *recordingRenderer) RenderDashboard(stats gateway.Stats, recent []gateway.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dashboard = append(r.dashboard, stats)
}

func (r *recordingRenderer) RenderDocuments(docs []gateway.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents = append(r.documents, docs)
}

func (r *recordingRenderer) RenderChat([]gateway.ChatSession, *gateway.ChatSession, []gateway.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats++
}

func (r *recordingRenderer) RenderSearch(gateway.SearchFilters, gateway.SearchResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searches++
}

func (r *recordingRenderer) RenderContent(c gateway.DocumentContent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contents = append(r.contents, c)
}

func (r *recordingRenderer) lastSection() view.Section {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sections) == 0 {
		return view.Section(-1)
	}
	return r.sections[len(r.sections)-1]
}

// declineAll refuses every confirmation prompt.
type declineAll struct{}

func (declineAll) Confirm(string) bool { return false }

// countingTransport counts round trips without changing them.
type countingTransport struct {
	mu    sync.Mutex
	count int
	next  http.RoundTripper
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	t.count++
	t.mu.Unlock()
	return t.next.RoundTrip(req)
}

func (t *countingTransport) requests() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

type testEnv struct {
	stub     *stubserver.Server
	gw       *gateway.Client
	session  *session.Store
	state    *view.State
	local    *localstore.Store
	render   *recordingRenderer
	ctrl     *Controller
	requests *countingTransport
}

// newTestEnv wires a controller against a live stub backend and signs in.
func newTestEnv(t *testing.T, opts ...func(*Options)) *testEnv {
	t.Helper()

	stub := stubserver.New()
	stub.SeedUser("user@example.com", "user", "secret")
	srv := httptest.NewServer(stub.Handler())
	t.Cleanup(srv.Close)

	transport := &countingTransport{next: http.DefaultTransport}
	sess, err := session.NewStore(&memTokens{})
	if err != nil {
		t.Fatalf("session.NewStore() error = %v", err)
	}
	gw := gateway.New(srv.URL, 5*time.Second,
		gateway.WithHTTPClient(&http.Client{Transport: transport, Timeout: 5 * time.Second}),
		gateway.WithTokenSource(sess.Token),
		gateway.WithUnauthorizedHandler(sess.Logout),
	)

	if err := sess.Login(context.Background(), gw, "user@example.com", "secret"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	local, err := localstore.Open(":memory:")
	if err != nil {
		t.Fatalf("localstore.Open() error = %v", err)
	}
	t.Cleanup(func() { local.Close() })

	render := &recordingRenderer{}
	o := Options{
		Session:  sess,
		Gateway:  gw,
		State:    view.NewState(),
		Local:    local,
		Renderer: render,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &testEnv{
		stub:     stub,
		gw:       gw,
		session:  sess,
		state:    o.State,
		local:    local,
		render:   render,
		ctrl:     NewController(o),
		requests: transport,
	}
}

func TestGoTo_UnauthenticatedLandsOnLogin(t *testing.T) {
	env := newTestEnv(t)
	env.session.Logout()
	before := env.requests.requests()

	err := env.ctrl.GoTo(context.Background(), view.SectionDocuments)
	if err != ErrUnauthenticated {
		t.Fatalf("GoTo() error = %v, want ErrUnauthenticated", err)
	}
	if env.ctrl.Current() != view.SectionLogin {
		t.Errorf("Current() = %v, want login", env.ctrl.Current())
	}
	if env.render.lastSection() != view.SectionLogin {
		t.Errorf("rendered section = %v, want login", env.render.lastSection())
	}
	if got := env.requests.requests(); got != before {
		t.Errorf("%d requests made for a guarded navigation, want 0", got-before)
	}
}

func TestLogout_ClearsMirrorsAndShowsLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.stub.SeedDocument("report.pdf", "quarterly earnings text")
	if err := env.ctrl.GoTo(ctx, view.SectionDocuments); err != nil {
		t.Fatalf("GoTo(documents) error = %v", err)
	}
	if err := env.ctrl.Chat().CreateSession(ctx, "scratch"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	env.session.Logout()

	if got := len(env.state.Documents()); got != 0 {
		t.Errorf("documents after logout = %d, want 0", got)
	}
	if got := len(env.state.Sessions()); got != 0 {
		t.Errorf("sessions after logout = %d, want 0", got)
	}
	if _, ok := env.state.CurrentSession(); ok {
		t.Error("current session survived logout")
	}
	if env.render.lastSection() != view.SectionLogin {
		t.Errorf("rendered section = %v, want login", env.render.lastSection())
	}
}

func TestGoTo_LoginSectionNeedsNoAuth(t *testing.T) {
	env := newTestEnv(t)
	env.session.Logout()

	if err := env.ctrl.GoTo(context.Background(), view.SectionLogin); err != nil {
		t.Fatalf("GoTo(login) error = %v", err)
	}
}

func TestGoTo_DocumentsLoadsAndRenders(t *testing.T) {
	env := newTestEnv(t)
	env.stub.SeedDocument("report.pdf", "quarterly numbers")

	if err := env.ctrl.GoTo(context.Background(), view.SectionDocuments); err != nil {
		t.Fatalf("GoTo(documents) error = %v", err)
	}
	if env.ctrl.Current() != view.SectionDocuments {
		t.Errorf("Current() = %v", env.ctrl.Current())
	}

	docs := env.state.Documents()
	if len(docs) != 1 || docs[0].OriginalFilename != "report.pdf" {
		t.Errorf("Documents() = %+v", docs)
	}
	if len(env.render.documents) == 0 {
		t.Error("documents never rendered")
	}

	if last, ok, _ := env.local.LastSection(); !ok || last != "documents" {
		t.Errorf("LastSection() = %q, %v, want documents", last, ok)
	}
}

func TestStart_ConsumesPendingSectionOnce(t *testing.T) {
	env := newTestEnv(t)
	if err := env.local.SetPendingSection("chat"); err != nil {
		t.Fatal(err)
	}

	if err := env.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if env.ctrl.Current() != view.SectionChat {
		t.Errorf("Current() = %v, want chat", env.ctrl.Current())
	}

	// The flag is gone; the next start falls back to the dashboard.
	if err := env.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if env.ctrl.Current() != view.SectionDashboard {
		t.Errorf("Current() after second start = %v, want dashboard", env.ctrl.Current())
	}
}

func TestStart_UnknownPendingSectionFallsBack(t *testing.T) {
	env := newTestEnv(t)
	env.local.SetPendingSection("garbage")

	if err := env.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if env.ctrl.Current() != view.SectionDashboard {
		t.Errorf("Current() = %v, want dashboard", env.ctrl.Current())
	}
}

func TestLoadDashboard_StatsFailureRendersZeros(t *testing.T) {
	// A backend that serves documents but fails stats.
	mux := http.NewServeMux()
	mux.HandleFunc("/api/search/stats", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"detail": "stats exploded"})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]gateway.Document{{ID: 1, OriginalFilename: "a.pdf"}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sess, _ := session.NewStore(&memTokens{token: "tok"})
	render := &recordingRenderer{}
	ctrl := NewController(Options{
		Session:  sess,
		Gateway:  gateway.New(srv.URL, 5*time.Second, gateway.WithTokenSource(sess.Token)),
		State:    view.NewState(),
		Renderer: render,
	})

	if err := ctrl.GoTo(context.Background(), view.SectionDashboard); err != nil {
		t.Fatalf("GoTo(dashboard) error = %v", err)
	}

	if len(render.dashboard) == 0 {
		t.Fatal("dashboard never rendered")
	}
	stats := render.dashboard[len(render.dashboard)-1]
	if stats.TotalDocuments != 0 || stats.ProcessedDocuments != 0 {
		t.Errorf("stats = %+v, want zero record on failure", stats)
	}
	if stats.FileTypeDistribution == nil {
		t.Error("FileTypeDistribution is nil, want empty map")
	}
}

func TestLoadDocuments_FailureKeepsPreviousList(t *testing.T) {
	fail := false
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		failing := fail
		mu.Unlock()
		if failing {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"detail": "down"})
			return
		}
		json.NewEncoder(w).Encode([]gateway.Document{{ID: 1, OriginalFilename: "keep.pdf"}})
	}))
	defer srv.Close()

	sess, _ := session.NewStore(&memTokens{token: "tok"})
	state := view.NewState()
	ctrl := NewController(Options{
		Session: sess,
		Gateway: gateway.New(srv.URL, 5*time.Second, gateway.WithTokenSource(sess.Token)),
		State:   state,
	})

	if err := ctrl.LoadDocuments(context.Background()); err != nil {
		t.Fatalf("LoadDocuments() error = %v", err)
	}

	mu.Lock()
	fail = true
	mu.Unlock()

	if err := ctrl.LoadDocuments(context.Background()); err == nil {
		t.Fatal("LoadDocuments() error = nil while backend is down")
	}

	docs := state.Documents()
	if len(docs) != 1 || docs[0].OriginalFilename != "keep.pdf" {
		t.Errorf("Documents() = %+v, want the previous list intact", docs)
	}
}

func TestUnauthorizedResponse_ForcesLogoutAndLoginSection(t *testing.T) {
	env := newTestEnv(t)
	env.stub.RevokeTokens()

	err := env.ctrl.GoTo(context.Background(), view.SectionDocuments)
	if err == nil {
		t.Fatal("GoTo() error = nil with a revoked token")
	}
	if env.session.IsAuthenticated() {
		t.Error("still authenticated after a 401")
	}
	if env.render.lastSection() != view.SectionLogin {
		t.Errorf("rendered section = %v, want login", env.render.lastSection())
	}
}

func TestLogoutLoginCycle(t *testing.T) {
	env := newTestEnv(t)

	env.session.Logout()
	if err := env.ctrl.GoTo(context.Background(), view.SectionDashboard); err != ErrUnauthenticated {
		t.Fatalf("GoTo() while logged out = %v, want ErrUnauthenticated", err)
	}

	if err := env.session.Login(context.Background(), env.gw, "user@example.com", "secret"); err != nil {
		t.Fatalf("re-login failed: %v", err)
	}
	if err := env.ctrl.GoTo(context.Background(), view.SectionDashboard); err != nil {
		t.Fatalf("GoTo(dashboard) after re-login error = %v", err)
	}
	if env.ctrl.Current() != view.SectionDashboard {
		t.Errorf("Current() = %v, want dashboard", env.ctrl.Current())
	}
}
