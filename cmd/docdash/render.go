package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/efecanulku/docdash/internal/gateway"
	"github.com/efecanulku/docdash/internal/view"
)

// terminalRenderer draws state snapshots as plain text tables on stdout.
type terminalRenderer struct {
	out io.Writer
}

func newTerminalRenderer() *terminalRenderer {
	return &terminalRenderer{out: os.Stdout}
}

func (r *terminalRenderer) ShowSection(section view.Section) {
	fmt.Fprintf(r.out, "\n%s\n", colorize(colorBold, "== "+strings.ToUpper(section.String())+" =="))
}

func (r *terminalRenderer) RenderDashboard(stats gateway.Stats, recent []gateway.Document) {
	fmt.Fprintf(r.out, "Documents: %d total, %d processed (%.1f%%)\n",
		stats.TotalDocuments, stats.ProcessedDocuments, stats.ProcessingRate)

	shares := view.TypeShares(stats.FileTypeDistribution)
	for _, share := range shares {
		bar := strings.Repeat("█", int(share.Percent/5))
		fmt.Fprintf(r.out, "  %-6s %3d  %s %.1f%%\n", share.Type, share.Count, colorize(colorCyan, bar), share.Percent)
	}

	if len(recent) > 0 {
		fmt.Fprintln(r.out, "\nRecent uploads:")
		for _, doc := range recent {
			fmt.Fprintf(r.out, "  %4d  %-40s %8s  %s\n",
				doc.ID, truncate(doc.OriginalFilename, 40), formatFileSize(doc.FileSize), formatDate(doc.UploadDate))
		}
	}
}

func (r *terminalRenderer) RenderDocuments(docs []gateway.Document) {
	if len(docs) == 0 {
		fmt.Fprintln(r.out, "No documents uploaded yet.")
		return
	}
	fmt.Fprintf(r.out, "%4s  %-40s %-6s %9s %-10s  %s\n", "ID", "NAME", "TYPE", "SIZE", "STATUS", "UPLOADED")
	for _, doc := range docs {
		status := colorize(colorYellow, "processing")
		if doc.Processed {
			status = colorize(colorGreen, "ready")
		}
		fmt.Fprintf(r.out, "%4d  %-40s %-6s %9s %-10s  %s\n",
			doc.ID, truncate(doc.OriginalFilename, 40), doc.FileType,
			formatFileSize(doc.FileSize), status, formatDate(doc.UploadDate))
	}
}

func (r *terminalRenderer) RenderChat(sessions []gateway.ChatSession, current *gateway.ChatSession, transcript []gateway.ChatMessage) {
	if len(sessions) > 0 {
		fmt.Fprintln(r.out, "Sessions:")
		for _, sess := range sessions {
			marker := "  "
			if current != nil && current.ID == sess.ID {
				marker = colorize(colorCyan, "* ")
			}
			fmt.Fprintf(r.out, "%s%4d  %s\n", marker, sess.ID, sess.SessionName)
		}
	}
	if len(transcript) == 0 {
		fmt.Fprintln(r.out, "\nNo messages yet. Ask something about your documents.")
		return
	}
	fmt.Fprintln(r.out)
	for _, msg := range transcript {
		speaker := colorize(colorBold, "you")
		if msg.MessageType == "assistant" {
			speaker = colorize(colorGreen, "assistant")
		}
		fmt.Fprintf(r.out, "%s  %s\n", speaker, msg.Content)
	}
}

func (r *terminalRenderer) RenderSearch(filters gateway.SearchFilters, results gateway.SearchResult) {
	if len(filters.FileTypes) > 0 {
		fmt.Fprintf(r.out, "Filter types: %s\n", strings.Join(filters.FileTypes, ", "))
	}
	if results.TotalResults == 0 {
		fmt.Fprintln(r.out, "No results.")
		return
	}
	fmt.Fprintf(r.out, "%d result(s):\n", results.TotalResults)
	for _, doc := range results.Documents {
		fmt.Fprintf(r.out, "  %4d  %-40s %s\n", doc.ID, truncate(doc.OriginalFilename, 40), truncate(doc.Summary, 60))
	}
}

func (r *terminalRenderer) RenderContent(content gateway.DocumentContent) {
	if !content.Processed {
		printWarning("Document %d is still processing; content may be incomplete.", content.ID)
	}
	if content.Summary != "" {
		fmt.Fprintf(r.out, "%s %s\n\n", colorize(colorBold, "Summary:"), content.Summary)
	}
	fmt.Fprintln(r.out, content.ContentText)
}

// terminalNotifier maps panel notifications onto the status helpers.
type terminalNotifier struct{}

func (terminalNotifier) Success(format string, args ...any) { printSuccess(format, args...) }
func (terminalNotifier) Info(format string, args ...any)    { printInfo(format, args...) }
func (terminalNotifier) Warning(format string, args ...any) { printWarning(format, args...) }

// terminalConfirmer prompts on stderr and reads one line from stdin.
// Anything but an explicit yes declines.
type terminalConfirmer struct {
	in io.Reader
}

func (c terminalConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(msgOut, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(c.in)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatFileSize(size int64) string {
	switch {
	case size >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(size)/(1<<30))
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
