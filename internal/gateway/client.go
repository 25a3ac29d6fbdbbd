package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// RequestHook mutates an outbound request before it is sent.
type RequestHook func(*http.Request)

// ResponseHook observes every received response, including error responses.
type ResponseHook func(*http.Response)

// Client wraps the backend REST API. Every request passes through the
// registered request hooks (bearer injection, request IDs) and every
// response through the response hooks (401 detection).
type Client struct {
	baseURL    string
	httpClient *http.Client

	tokenSource    func() string
	onUnauthorized func()
	requestHooks   []RequestHook
	responseHooks  []ResponseHook
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenSource sets the function consulted for the bearer token on each
// request. An empty return means "unauthenticated": no header is attached.
func WithTokenSource(fn func() string) Option {
	return func(c *Client) { c.tokenSource = fn }
}

// WithUnauthorizedHandler registers the callback invoked exactly once per
// request that fails with HTTP 401. The error still propagates to the
// caller afterwards.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithRequestHook appends an extra pre-send hook.
func WithRequestHook(h RequestHook) Option {
	return func(c *Client) { c.requestHooks = append(c.requestHooks, h) }
}

// WithResponseHook appends an extra post-receive hook.
func WithResponseHook(h ResponseHook) Option {
	return func(c *Client) { c.responseHooks = append(c.responseHooks, h) }
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req)
}

// send runs the hook chain around a single HTTP round trip.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	reqID := uuid.New().String()
	req.Header.Set("X-Request-ID", reqID)
	if c.tokenSource != nil {
		if token := c.tokenSource(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for _, h := range c.requestHooks {
		h(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("server not reachable at %s (%w)", c.baseURL, err)
	}

	for _, h := range c.responseHooks {
		h(resp)
	}
	if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
		slog.Debug("credential rejected, forcing logout", "request_id", reqID, "path", req.URL.Path)
		c.onUnauthorized()
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) put(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

func (c *Client) delete(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

// decodeJSON decodes a 2xx response into v, or turns an error response into
// an *APIError. v may be nil when the body is irrelevant.
func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil {
			apiErr.Detail = errBody.Detail
		}
		return apiErr
	}
	if v == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// --- auth ---

func (c *Client) Login(ctx context.Context, email, password string) (Token, error) {
	body := map[string]string{"email": email, "password": password}
	resp, err := c.post(ctx, "/api/auth/login", body)
	if err != nil {
		return Token{}, err
	}
	var token Token
	if err := decodeJSON(resp, &token); err != nil {
		return Token{}, err
	}
	return token, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (User, error) {
	resp, err := c.post(ctx, "/api/auth/register", req)
	if err != nil {
		return User{}, err
	}
	var user User
	if err := decodeJSON(resp, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (c *Client) Me(ctx context.Context) (User, error) {
	resp, err := c.get(ctx, "/api/auth/me")
	if err != nil {
		return User{}, err
	}
	var user User
	if err := decodeJSON(resp, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (c *Client) UpdateMe(ctx context.Context, fields map[string]any) (User, error) {
	resp, err := c.put(ctx, "/api/auth/me", fields)
	if err != nil {
		return User{}, err
	}
	var user User
	if err := decodeJSON(resp, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// --- documents ---

// ListDocuments returns the user's documents in server order. limit <= 0
// requests the full list.
func (c *Client) ListDocuments(ctx context.Context, limit int) ([]Document, error) {
	path := "/api/documents/"
	if limit > 0 {
		path = fmt.Sprintf("/api/documents/?limit=%d", limit)
	}
	resp, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var docs []Document
	if err := decodeJSON(resp, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *Client) GetDocument(ctx context.Context, id int) (Document, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/api/documents/%d", id))
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err := decodeJSON(resp, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// UploadDocument sends file content as multipart form data under the "file"
// field, matching the upload endpoint's contract.
func (c *Client) UploadDocument(ctx context.Context, filename string, content io.Reader) (Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Document{}, fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return Document{}, fmt.Errorf("reading file content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Document{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/documents/upload", &buf)
	if err != nil {
		return Document{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.send(req)
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err := decodeJSON(resp, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id int) error {
	resp, err := c.delete(ctx, fmt.Sprintf("/api/documents/%d", id))
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil)
}

func (c *Client) ReprocessDocument(ctx context.Context, id int) error {
	resp, err := c.post(ctx, fmt.Sprintf("/api/documents/%d/reprocess", id), nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil)
}

func (c *Client) DocumentContent(ctx context.Context, id int) (DocumentContent, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/api/documents/%d/content", id))
	if err != nil {
		return DocumentContent{}, err
	}
	var content DocumentContent
	if err := decodeJSON(resp, &content); err != nil {
		return DocumentContent{}, err
	}
	return content, nil
}

// --- chat ---

func (c *Client) ListChatSessions(ctx context.Context) ([]ChatSession, error) {
	resp, err := c.get(ctx, "/api/chat/sessions")
	if err != nil {
		return nil, err
	}
	var sessions []ChatSession
	if err := decodeJSON(resp, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateChatSession creates a named session. The name travels as a query
// parameter, matching the backend's contract.
func (c *Client) CreateChatSession(ctx context.Context, name string) (ChatSession, error) {
	path := "/api/chat/sessions?session_name=" + url.QueryEscape(name)
	resp, err := c.post(ctx, path, nil)
	if err != nil {
		return ChatSession{}, err
	}
	var session ChatSession
	if err := decodeJSON(resp, &session); err != nil {
		return ChatSession{}, err
	}
	return session, nil
}

func (c *Client) DeleteChatSession(ctx context.Context, id int) error {
	resp, err := c.delete(ctx, fmt.Sprintf("/api/chat/sessions/%d", id))
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil)
}

func (c *Client) RenameChatSession(ctx context.Context, id int, name string) error {
	path := fmt.Sprintf("/api/chat/sessions/%d/name?session_name=%s", id, url.QueryEscape(name))
	resp, err := c.put(ctx, path, nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil)
}

func (c *Client) ListChatMessages(ctx context.Context, sessionID int) ([]ChatMessage, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/api/chat/sessions/%d/messages", sessionID))
	if err != nil {
		return nil, err
	}
	var messages []ChatMessage
	if err := decodeJSON(resp, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// SendChat posts a message. sessionID == 0 lets the server create a new
// session; the reply names the session the exchange was attached to.
func (c *Client) SendChat(ctx context.Context, message string, sessionID int) (ChatReply, error) {
	body := map[string]any{"message": message}
	if sessionID != 0 {
		body["session_id"] = sessionID
	}
	resp, err := c.post(ctx, "/api/chat/", body)
	if err != nil {
		return ChatReply{}, err
	}
	var reply ChatReply
	if err := decodeJSON(resp, &reply); err != nil {
		return ChatReply{}, err
	}
	return reply, nil
}

// --- search ---

func (c *Client) SearchFilters(ctx context.Context) (SearchFilters, error) {
	resp, err := c.get(ctx, "/api/search/filters")
	if err != nil {
		return SearchFilters{}, err
	}
	var filters SearchFilters
	if err := decodeJSON(resp, &filters); err != nil {
		return SearchFilters{}, err
	}
	return filters, nil
}

func (c *Client) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	resp, err := c.post(ctx, "/api/search/", req)
	if err != nil {
		return SearchResult{}, err
	}
	var result SearchResult
	if err := decodeJSON(resp, &result); err != nil {
		return SearchResult{}, err
	}
	return result, nil
}

func (c *Client) SearchSuggestions(ctx context.Context, query string) ([]string, error) {
	resp, err := c.get(ctx, "/api/search/suggestions?query="+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}
	var body struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	return body.Suggestions, nil
}

func (c *Client) Stats(ctx context.Context) (Stats, error) {
	resp, err := c.get(ctx, "/api/search/stats")
	if err != nil {
		return Stats{}, err
	}
	var stats Stats
	if err := decodeJSON(resp, &stats); err != nil {
		return Stats{}, err
	}
	return stats, nil
}
