package stubserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireBearer_RejectsMissingToken(t *testing.T) {
	srv := httptest.NewServer(New().Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/documents/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if body.Detail == "" {
		t.Error("error body has no detail field")
	}
}

func TestLogin_IssuesUsableToken(t *testing.T) {
	stub := New()
	stub.SeedUser("a@b.c", "a", "pw")
	srv := httptest.NewServer(stub.Handler())
	defer srv.Close()

	creds, _ := json.Marshal(map[string]string{"email": "a@b.c", "password": "pw"})
	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json", bytes.NewReader(creds))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		t.Fatal(err)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	meResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer meResp.Body.Close()
	if meResp.StatusCode != http.StatusOK {
		t.Errorf("me status = %d with fresh token, want 200", meResp.StatusCode)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	stub := New()
	stub.SeedUser("a@b.c", "a", "pw")
	srv := httptest.NewServer(stub.Handler())
	defer srv.Close()

	creds, _ := json.Marshal(map[string]string{"email": "a@b.c", "password": "nope"})
	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json", bytes.NewReader(creds))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}
