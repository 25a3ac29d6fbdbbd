// Package stubserver is an in-memory stand-in for the document backend.
// It implements the API surface the client speaks, enough for integration
// tests and offline demos. Nothing persists across restarts.
package stubserver

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/efecanulku/docdash/internal/gateway"
)

const maxUploadBodySize = 50 << 20

type account struct {
	user     gateway.User
	password string
}

// Server holds the fake backend's state. The zero value is not usable; use
// New.
type Server struct {
	mu sync.Mutex

	accounts map[string]*account // by email
	tokens   map[string]string   // token -> email

	docs     map[int]gateway.Document
	contents map[int]gateway.DocumentContent
	sessions map[int]gateway.ChatSession
	messages map[int][]gateway.ChatMessage

	nextUser, nextDoc, nextSession, nextMessage int
}

func New() *Server {
	return &Server{
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
		docs:     make(map[int]gateway.Document),
		contents: make(map[int]gateway.DocumentContent),
		sessions: make(map[int]gateway.ChatSession),
		messages: make(map[int][]gateway.ChatMessage),
		nextUser: 1, nextDoc: 1, nextSession: 1, nextMessage: 1,
	}
}

// SeedUser registers an account directly, bypassing the register endpoint.
func (s *Server) SeedUser(email, username, password string) gateway.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addAccount(email, username, "", password)
}

// SeedDocument inserts a processed document with the given extracted text.
func (s *Server) SeedDocument(filename, content string) gateway.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.addDocument(filename, int64(len(content)), true)
	s.contents[doc.ID] = gateway.DocumentContent{
		ID:          doc.ID,
		ContentText: content,
		Summary:     firstLine(content),
		Processed:   true,
	}
	return doc
}

func (s *Server) addAccount(email, username, company, password string) gateway.User {
	user := gateway.User{
		ID:          s.nextUser,
		Email:       email,
		Username:    username,
		CompanyName: company,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	s.nextUser++
	s.accounts[email] = &account{user: user, password: password}
	return user
}

func (s *Server) addDocument(filename string, size int64, processed bool) gateway.Document {
	doc := gateway.Document{
		ID:               s.nextDoc,
		Filename:         fmt.Sprintf("%d_%s", s.nextDoc, filename),
		OriginalFilename: filename,
		FilePath:         "/uploads/" + filename,
		FileType:         strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."),
		FileSize:         size,
		Processed:        processed,
		UploadDate:       time.Now().UTC(),
	}
	s.nextDoc++
	s.docs[doc.ID] = doc
	return doc
}

// Handler returns the routed HTTP surface.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.StripSlashes)

	r.Post("/api/auth/login", s.handleLogin)
	r.Post("/api/auth/register", s.handleRegister)

	r.Group(func(r chi.Router) {
		r.Use(s.requireBearer)

		r.Get("/api/auth/me", s.handleMe)
		r.Put("/api/auth/me", s.handleUpdateMe)

		r.Get("/api/documents", s.handleListDocuments)
		r.Post("/api/documents/upload", s.handleUpload)
		r.Get("/api/documents/{id}", s.handleGetDocument)
		r.Delete("/api/documents/{id}", s.handleDeleteDocument)
		r.Post("/api/documents/{id}/reprocess", s.handleReprocess)
		r.Get("/api/documents/{id}/content", s.handleContent)

		r.Get("/api/chat/sessions", s.handleListSessions)
		r.Post("/api/chat/sessions", s.handleCreateSession)
		r.Delete("/api/chat/sessions/{id}", s.handleDeleteSession)
		r.Put("/api/chat/sessions/{id}/name", s.handleRenameSession)
		r.Get("/api/chat/sessions/{id}/messages", s.handleListMessages)
		r.Post("/api/chat", s.handleChat)

		r.Get("/api/search/filters", s.handleFilters)
		r.Post("/api/search", s.handleSearch)
		r.Get("/api/search/suggestions", s.handleSuggestions)
		r.Get("/api/search/stats", s.handleStats)
	})

	return r
}

// requireBearer rejects requests whose bearer token was not issued by a
// login on this server.
func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(auth, prefix) {
			detail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		presented := auth[len(prefix):]
		s.mu.Lock()
		ok := false
		for token := range s.tokens {
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) == 1 {
				ok = true
				break
			}
		}
		s.mu.Unlock()
		if !ok {
			detail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RevokeTokens invalidates every issued token, so the next authenticated
// request fails with 401. Tests use it to simulate credential expiry.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
}

// --- auth handlers ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		detail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[req.Email]
	if !ok || acct.password != req.Password {
		detail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	token := uuid.New().String()
	s.tokens[token] = req.Email
	writeJSON(w, http.StatusOK, gateway.Token{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req gateway.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		detail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[req.Email]; exists {
		detail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	user := s.addAccount(req.Email, req.Username, req.CompanyName, req.Password)
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) currentUser(r *http.Request) (*account, bool) {
	auth := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	email, ok := s.tokens[auth]
	if !ok {
		return nil, false
	}
	acct, ok := s.accounts[email]
	return acct, ok
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.currentUser(r)
	if !ok {
		detail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	writeJSON(w, http.StatusOK, acct.user)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		detail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.currentUser(r)
	if !ok {
		detail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	if v, ok := fields["username"].(string); ok {
		acct.user.Username = v
	}
	if v, ok := fields["company_name"].(string); ok {
		acct.user.CompanyName = v
	}
	writeJSON(w, http.StatusOK, acct.user)
}

// --- document handlers ---

func (s *Server) sortedDocs() []gateway.Document {
	docs := make([]gateway.Document, 0, len(s.docs))
	for _, d := range s.docs {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID > docs[j].ID })
	return docs
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	docs := s.sortedDocs()
	s.mu.Unlock()

	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit >= 0 && limit < len(docs) {
			docs = docs[:limit]
		}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBodySize)
	file, header, err := r.FormFile("file")
	if err != nil {
		detail(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	s.mu.Lock()
	doc := s.addDocument(header.Filename, header.Size, true)
	s.contents[doc.ID] = gateway.DocumentContent{
		ID:          doc.ID,
		ContentText: fmt.Sprintf("extracted text of %s", header.Filename),
		Summary:     fmt.Sprintf("summary of %s", header.Filename),
		Processed:   true,
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, doc)
}

func docID(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "id"))
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := docID(r)
	if err != nil {
		detail(w, http.StatusUnprocessableEntity, "invalid document id")
		return
	}
	s.mu.Lock()
	doc, ok := s.docs[id]
	s.mu.Unlock()
	if !ok {
		detail(w, http.StatusNotFound, "Document not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := docID(r)
	if err != nil {
		detail(w, http.StatusUnprocessableEntity, "invalid document id")
		return
	}
	s.mu.Lock()
	_, ok := s.docs[id]
	delete(s.docs, id)
	delete(s.contents, id)
	s.mu.Unlock()
	if !ok {
		detail(w, http.StatusNotFound, "Document not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Document deleted successfully"})
}

func (s *Server) handleReprocess(w http.ResponseWriter, r *http.Request) {
	id, err := docID(r)
	if err != nil {
		detail(w, http.StatusUnprocessableEntity, "invalid document id")
		return
	}
	s.mu.Lock()
	doc, ok := s.docs[id]
	if ok {
		doc.Processed = true
		s.docs[id] = doc
	}
	s.mu.Unlock()
	if !ok {
		detail(w, http.StatusNotFound, "Document not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Document reprocessing started"})
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	id, err := docID(r)
	if err != nil {
		detail(w, http.StatusUnprocessableEntity, "invalid document id")
		return
	}
	s.mu.Lock()
	content, ok := s.contents[id]
	s.mu.Unlock()
	if !ok {
		detail(w, http.StatusNotFound, "Document not found")
		return
	}
	writeJSON(w, http.StatusOK, content)
}

// --- chat handlers ---

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sessions := make([]gateway.ChatSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID > sessions[j].ID })
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) createSession(name string) gateway.ChatSession {
	sess := gateway.ChatSession{
		ID:          s.nextSession,
		SessionName: name,
		CreatedAt:   time.Now().UTC(),
	}
	s.nextSession++
	s.sessions[sess.ID] = sess
	return sess
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("session_name")
	if name == "" {
		detail(w, http.StatusUnprocessableEntity, "session_name is required")
		return
	}
	s.mu.Lock()
	sess := s.createSession(name)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := docID(r)
	if err != nil {
		detail(w, http.StatusUnprocessableEntity, "invalid session id")
		return
	}
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	delete(s.messages, id)
	s.mu.Unlock()
	if !ok {
		detail(w, http.StatusNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Session deleted successfully"})
}

func (s *Server) handleRenameSession(w http.ResponseWriter, r *http.Request) {
	id, err := docID(r)
	if err != nil {
		detail(w, http.StatusUnprocessableEntity, "invalid session id")
		return
	}
	name := r.URL.Query().Get("session_name")
	if name == "" {
		detail(w, http.StatusUnprocessableEntity, "session_name is required")
		return
	}
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		sess.SessionName = name
		now := time.Now().UTC()
		sess.UpdatedAt = &now
		s.sessions[id] = sess
	}
	s.mu.Unlock()
	if !ok {
		detail(w, http.StatusNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Session renamed successfully"})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id, err := docID(r)
	if err != nil {
		detail(w, http.StatusUnprocessableEntity, "invalid session id")
		return
	}
	s.mu.Lock()
	_, ok := s.sessions[id]
	messages := append([]gateway.ChatMessage(nil), s.messages[id]...)
	s.mu.Unlock()
	if !ok {
		detail(w, http.StatusNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message   string `json:"message"`
		SessionID int    `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		detail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		detail(w, http.StatusUnprocessableEntity, "message is required")
		return
	}

	s.mu.Lock()
	sessionID := req.SessionID
	if _, ok := s.sessions[sessionID]; !ok {
		sessionID = s.createSession("New Chat").ID
	}
	s.appendMessage(sessionID, "user", req.Message)
	response := s.answer(req.Message)
	s.appendMessage(sessionID, "assistant", response)
	contextIDs := make([]int, 0, 3)
	for _, doc := range s.sortedDocs() {
		if len(contextIDs) == 3 {
			break
		}
		contextIDs = append(contextIDs, doc.ID)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, gateway.ChatReply{
		Response:         response,
		SessionID:        sessionID,
		ContextDocuments: contextIDs,
	})
}

func (s *Server) appendMessage(sessionID int, kind, content string) {
	s.messages[sessionID] = append(s.messages[sessionID], gateway.ChatMessage{
		ID:          s.nextMessage,
		SessionID:   sessionID,
		MessageType: kind,
		Content:     content,
		Timestamp:   time.Now().UTC(),
	})
	s.nextMessage++
}

// answer produces a canned assistant reply that quotes matching document
// content when any exists.
func (s *Server) answer(message string) string {
	needle := strings.ToLower(message)
	for _, content := range s.contents {
		if strings.Contains(strings.ToLower(content.ContentText), needle) {
			return fmt.Sprintf("Found a match in document %d: %s", content.ID, firstLine(content.ContentText))
		}
	}
	return "I could not find anything relevant in your documents."
}

// --- search handlers ---

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	seen := make(map[string]bool)
	var types []string
	for _, doc := range s.docs {
		if !seen[doc.FileType] {
			seen[doc.FileType] = true
			types = append(types, doc.FileType)
		}
	}
	s.mu.Unlock()
	sort.Strings(types)

	writeJSON(w, http.StatusOK, gateway.SearchFilters{
		FileTypes: types,
		SortOptions: []gateway.SortOption{
			{Value: "relevance", Label: "Relevance"},
			{Value: "date", Label: "Upload date"},
			{Value: "name", Label: "File name"},
		},
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req gateway.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		detail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		detail(w, http.StatusUnprocessableEntity, "query is required")
		return
	}

	needle := strings.ToLower(req.Query)
	allowed := make(map[string]bool)
	for _, t := range req.DocumentTypes {
		allowed[strings.ToLower(t)] = true
	}

	s.mu.Lock()
	var matched []gateway.Document
	for _, doc := range s.sortedDocs() {
		if len(allowed) > 0 && !allowed[doc.FileType] {
			continue
		}
		content := s.contents[doc.ID]
		if strings.Contains(strings.ToLower(doc.OriginalFilename), needle) ||
			strings.Contains(strings.ToLower(content.ContentText), needle) {
			matched = append(matched, doc)
		}
	}
	s.mu.Unlock()

	total := len(matched)
	if req.Limit > 0 && req.Limit < len(matched) {
		matched = matched[:req.Limit]
	}
	writeJSON(w, http.StatusOK, gateway.SearchResult{Documents: matched, TotalResults: total})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(r.URL.Query().Get("query"))
	var suggestions []string
	if len(query) >= 2 {
		s.mu.Lock()
		for _, doc := range s.sortedDocs() {
			if strings.Contains(strings.ToLower(doc.OriginalFilename), query) {
				suggestions = append(suggestions, doc.OriginalFilename)
			}
			if len(suggestions) == 10 {
				break
			}
		}
		s.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	stats := gateway.Stats{FileTypeDistribution: make(map[string]int)}
	for _, doc := range s.docs {
		stats.TotalDocuments++
		if doc.Processed {
			stats.ProcessedDocuments++
		}
		stats.FileTypeDistribution[doc.FileType]++
	}
	s.mu.Unlock()
	if stats.TotalDocuments > 0 {
		stats.ProcessingRate = float64(stats.ProcessedDocuments) / float64(stats.TotalDocuments) * 100
	}
	writeJSON(w, http.StatusOK, stats)
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}

// detail writes an error body in the backend's shape.
func detail(w http.ResponseWriter, code int, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"detail": fmt.Sprintf(format, args...)})
}
