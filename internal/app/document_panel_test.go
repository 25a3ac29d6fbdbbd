package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUpload_TextFile(t *testing.T) {
	env := newTestEnv(t)
	path := writeTempFile(t, "notes.txt", "remember the milk")

	if err := env.ctrl.Documents().Upload(context.Background(), path); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	docs := env.state.Documents()
	if len(docs) != 1 || docs[0].OriginalFilename != "notes.txt" {
		t.Errorf("Documents() = %+v, want the upload listed", docs)
	}
}

func TestUpload_EmptyPathRejected(t *testing.T) {
	env := newTestEnv(t)
	before := env.requests.requests()

	err := env.ctrl.Documents().Upload(context.Background(), "  ")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Upload(blank) error = %v, want ErrValidation", err)
	}
	if got := env.requests.requests(); got != before {
		t.Errorf("%d requests for a rejected upload, want 0", got-before)
	}
}

func TestUpload_UnsupportedExtensionRejected(t *testing.T) {
	env := newTestEnv(t)
	path := writeTempFile(t, "malware.exe", "nope")

	err := env.ctrl.Documents().Upload(context.Background(), path)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Upload(.exe) error = %v, want ErrValidation", err)
	}
}

func TestUpload_MissingFileRejected(t *testing.T) {
	env := newTestEnv(t)

	err := env.ctrl.Documents().Upload(context.Background(), filepath.Join(t.TempDir(), "ghost.txt"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Upload(missing) error = %v, want ErrValidation", err)
	}
}

func TestUpload_BrokenPDFRejected(t *testing.T) {
	env := newTestEnv(t)
	path := writeTempFile(t, "broken.pdf", "this is not a pdf")
	before := env.requests.requests()

	err := env.ctrl.Documents().Upload(context.Background(), path)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Upload(broken pdf) error = %v, want ErrValidation", err)
	}
	if got := env.requests.requests(); got != before {
		t.Errorf("%d requests for an unreadable PDF, want 0", got-before)
	}
}

func TestDelete_RemovesDocument(t *testing.T) {
	env := newTestEnv(t)
	doc := env.stub.SeedDocument("doomed.txt", "gone soon")
	if err := env.ctrl.LoadDocuments(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := env.ctrl.Documents().Delete(context.Background(), doc.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got := len(env.state.Documents()); got != 0 {
		t.Errorf("Documents() length = %d after delete, want 0", got)
	}
}

func TestDelete_DeclinedMakesNoRequest(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.Confirmer = declineAll{} })
	doc := env.stub.SeedDocument("survivor.txt", "still here")
	if err := env.ctrl.LoadDocuments(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := env.requests.requests()

	if err := env.ctrl.Documents().Delete(context.Background(), doc.ID); err != nil {
		t.Fatalf("Delete() error = %v, want nil on decline", err)
	}
	if got := env.requests.requests(); got != before {
		t.Errorf("%d requests after declined delete, want 0", got-before)
	}
	if got := len(env.state.Documents()); got != 1 {
		t.Errorf("Documents() length = %d, want 1", got)
	}
}

func TestViewContent_RendersAndCaches(t *testing.T) {
	env := newTestEnv(t)
	doc := env.stub.SeedDocument("cached.txt", "the content body")

	if err := env.ctrl.Documents().ViewContent(context.Background(), doc.ID); err != nil {
		t.Fatalf("ViewContent() error = %v", err)
	}
	after := env.requests.requests()

	// Second view is served from the cache.
	if err := env.ctrl.Documents().ViewContent(context.Background(), doc.ID); err != nil {
		t.Fatalf("second ViewContent() error = %v", err)
	}
	if got := env.requests.requests(); got != after {
		t.Errorf("%d extra requests for a cached view, want 0", got-after)
	}

	if len(env.render.contents) != 2 {
		t.Fatalf("content rendered %d times, want 2", len(env.render.contents))
	}
	if env.render.contents[0].ContentText != "the content body" {
		t.Errorf("ContentText = %q", env.render.contents[0].ContentText)
	}
}

func TestViewContent_UnknownDocument(t *testing.T) {
	env := newTestEnv(t)
	if err := env.ctrl.Documents().ViewContent(context.Background(), 12345); err == nil {
		t.Fatal("ViewContent(unknown) error = nil, want not-found error")
	}
}

func TestReprocess(t *testing.T) {
	env := newTestEnv(t)
	doc := env.stub.SeedDocument("again.txt", "one more time")

	if err := env.ctrl.Documents().Reprocess(context.Background(), doc.ID); err != nil {
		t.Fatalf("Reprocess() error = %v", err)
	}
}
