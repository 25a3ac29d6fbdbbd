package gateway

import "time"

// User is the authenticated user's profile as returned by /api/auth/me.
type User struct {
	ID          int       `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	CompanyName string    `json:"company_name"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Token is the credential returned by /api/auth/login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	CompanyName string `json:"company_name"`
	Password    string `json:"password"`
}

// Document is a server-owned document record. The client never patches
// these partially; lists are replaced wholesale on reload.
type Document struct {
	ID               int       `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	FilePath         string    `json:"file_path"`
	FileType         string    `json:"file_type"`
	FileSize         int64     `json:"file_size"`
	Summary          string    `json:"summary,omitempty"`
	Processed        bool      `json:"processed"`
	UploadDate       time.Time `json:"upload_date"`
}

// DocumentContent is the extracted text view of a single document.
type DocumentContent struct {
	ID          int    `json:"id"`
	ContentText string `json:"content_text"`
	Summary     string `json:"summary"`
	Processed   bool   `json:"processed"`
}

type ChatSession struct {
	ID          int        `json:"id"`
	SessionName string     `json:"session_name"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// ChatMessage belongs to exactly one session. MessageType is "user" or
// "assistant".
type ChatMessage struct {
	ID          int       `json:"id,omitempty"`
	SessionID   int       `json:"session_id,omitempty"`
	MessageType string    `json:"message_type"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
}

// ChatReply is the server's answer to POST /api/chat/. SessionID may name a
// session other than the one the client tracked: the server creates one when
// the request carried none.
type ChatReply struct {
	Response         string `json:"response"`
	SessionID        int    `json:"session_id"`
	ContextDocuments []int  `json:"context_documents"`
}

type SearchRequest struct {
	Query         string   `json:"query"`
	DocumentTypes []string `json:"document_types,omitempty"`
	Limit         int      `json:"limit,omitempty"`
}

type SearchResult struct {
	Documents    []Document `json:"documents"`
	TotalResults int        `json:"total_results"`
}

type SortOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type SearchFilters struct {
	FileTypes   []string     `json:"file_types"`
	SortOptions []SortOption `json:"sort_options"`
}

// Stats is the dashboard aggregate returned by /api/search/stats.
type Stats struct {
	TotalDocuments       int            `json:"total_documents"`
	ProcessedDocuments   int            `json:"processed_documents"`
	ProcessingRate       float64        `json:"processing_rate"`
	FileTypeDistribution map[string]int `json:"file_type_distribution"`
}
