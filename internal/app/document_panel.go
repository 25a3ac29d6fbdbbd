package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/efecanulku/docdash/internal/gateway"
	"github.com/ledongthuc/pdf"
	gocache "github.com/patrickmn/go-cache"
)

// maxUploadSize mirrors the server-side limit so oversized files are
// rejected before any bytes travel.
const maxUploadSize = 50 << 20 // 50MB

// allowedExtensions matches the set the upload endpoint accepts.
var allowedExtensions = map[string]bool{
	"pdf": true, "doc": true, "docx": true,
	"xls": true, "xlsx": true, "txt": true,
	"jpg": true, "jpeg": true, "png": true,
	"gif": true, "bmp": true, "tiff": true,
}

// DocumentPanel performs the document section's operations. Every operation
// reports its own failure; none clears previously loaded state on error.
type DocumentPanel struct {
	c           *Controller
	confirm     Confirmer
	content     *gocache.Cache
	reloadDelay time.Duration
}

func newDocumentPanel(c *Controller, confirm Confirmer, reloadDelay time.Duration) *DocumentPanel {
	return &DocumentPanel{
		c:       c,
		confirm: confirm,
		// Extracted content is immutable once processed; a short TTL keeps
		// repeat views cheap without holding stale "processing" snapshots.
		content:     gocache.New(2*time.Minute, 5*time.Minute),
		reloadDelay: reloadDelay,
	}
}

// Upload validates the file locally, posts it as multipart form data, and
// refreshes the document list and dashboard stats. The refresh runs after a
// short settle delay: server-side analysis is asynchronous and the delay
// only lets it begin, it does not guarantee completion.
func (p *DocumentPanel) Upload(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: no file selected", ErrValidation)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: file type %q is not supported", ErrValidation, ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if info.Size() > maxUploadSize {
		return fmt.Errorf("%w: file exceeds the 50MB upload limit", ErrValidation)
	}
	if ext == "pdf" {
		if err := checkPDF(path); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	doc, err := p.c.gw.UploadDocument(ctx, filepath.Base(path), f)
	if err != nil {
		return fmt.Errorf("uploading document: %w", err)
	}
	p.c.notify.Success("Uploaded %s; analysis started", doc.OriginalFilename)

	p.settle()
	if err := p.c.LoadDocuments(ctx); err != nil {
		p.c.notify.Warning("document list refresh failed: %v", err)
	}
	p.c.refreshStats(ctx)
	return nil
}

// checkPDF rejects files the backend's extractor would choke on: unreadable
// structure or zero pages.
func checkPDF(path string) error {
	f, r, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("unreadable PDF: %v", err)
	}
	defer f.Close()
	if r.NumPage() < 1 {
		return fmt.Errorf("PDF has no pages")
	}
	return nil
}

// Delete removes a document after explicit confirmation. The local mirror
// drops the record immediately; the follow-up reload is authoritative.
func (p *DocumentPanel) Delete(ctx context.Context, id int) error {
	if !p.confirm.Confirm(fmt.Sprintf("Delete document %d? This cannot be undone.", id)) {
		p.c.notify.Info("Delete cancelled")
		return nil
	}
	if err := p.c.gw.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	p.c.state.RemoveDocument(id)
	p.content.Delete(strconv.Itoa(id))
	p.c.notify.Success("Document deleted")

	if err := p.c.LoadDocuments(ctx); err != nil {
		p.c.notify.Warning("document list refresh failed: %v", err)
	}
	p.c.refreshStats(ctx)
	return nil
}

// Reprocess re-queues a document's analysis. It does not wait for
// completion; the delayed reload is a heuristic refresh.
func (p *DocumentPanel) Reprocess(ctx context.Context, id int) error {
	if err := p.c.gw.ReprocessDocument(ctx, id); err != nil {
		return fmt.Errorf("reprocessing document: %w", err)
	}
	p.content.Delete(strconv.Itoa(id))
	p.c.notify.Success("Document queued for reprocessing")

	p.settle()
	if err := p.c.LoadDocuments(ctx); err != nil {
		p.c.notify.Warning("document list refresh failed: %v", err)
	}
	return nil
}

// ViewContent fetches and renders a document's extracted text. Read-only:
// no state mutation beyond the short-lived content cache.
func (p *DocumentPanel) ViewContent(ctx context.Context, id int) error {
	key := strconv.Itoa(id)
	if cached, ok := p.content.Get(key); ok {
		p.c.render.RenderContent(cached.(gateway.DocumentContent))
		return nil
	}

	content, err := p.c.gw.DocumentContent(ctx, id)
	if err != nil {
		return fmt.Errorf("loading document content: %w", err)
	}
	if content.Processed {
		p.content.Set(key, content, gocache.DefaultExpiration)
	}
	p.c.render.RenderContent(content)
	return nil
}

func (p *DocumentPanel) settle() {
	if p.reloadDelay > 0 {
		time.Sleep(p.reloadDelay)
	}
}
