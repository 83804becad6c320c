package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"bookshelf/internal/service"
	"bookshelf/internal/storage"
)

// printer renders command output. Colors are dropped automatically when the
// writer is not a terminal.
type printer struct {
	w      io.Writer
	header lipgloss.Style
	id     lipgloss.Style
	muted  lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	status map[storage.Status]lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:      w,
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7")),
		id:     r.NewStyle().Foreground(lipgloss.Color("#e0af68")).Width(5).Align(lipgloss.Right),
		muted:  r.NewStyle().Foreground(lipgloss.Color("#6b7089")),
		ok:     r.NewStyle().Foreground(lipgloss.Color("#9ece6a")).Bold(true),
		warn:   r.NewStyle().Foreground(lipgloss.Color("#f7768e")).Bold(true),
		status: map[storage.Status]lipgloss.Style{
			storage.StatusCurrentlyReading: r.NewStyle().Foreground(lipgloss.Color("#7dcfff")),
			storage.StatusUnread:           r.NewStyle().Foreground(lipgloss.Color("#a9b1d6")),
			storage.StatusFinished:         r.NewStyle().Foreground(lipgloss.Color("#9ece6a")),
		},
	}
}

func (p *printer) statusText(s storage.Status) string {
	if style, ok := p.status[s]; ok {
		return style.Render(s.String())
	}
	return s.String()
}

func (p *printer) books(books []storage.Book) {
	if len(books) == 0 {
		fmt.Fprintln(p.w, p.muted.Render("No books found."))
		return
	}
	fmt.Fprintln(p.w, p.header.Render(fmt.Sprintf("%5s  %-40s  %-24s  %s", "ID", "Title", "Author", "Status")))
	for _, b := range books {
		fmt.Fprintf(p.w, "%s  %-40s  %-24s  %s\n",
			p.id.Render(strconv.Itoa(b.ID)),
			truncate(b.Title, 40),
			truncate(b.Author, 24),
			p.statusText(b.Status),
		)
	}
	fmt.Fprintln(p.w, p.muted.Render(fmt.Sprintf("%d book(s)", len(books))))
}

func (p *printer) book(b storage.Book) {
	fmt.Fprintln(p.w, p.header.Render(fmt.Sprintf("#%d %s", b.ID, b.Title)))
	fmt.Fprintf(p.w, "  Author:      %s\n", b.Author)
	fmt.Fprintf(p.w, "  Status:      %s\n", p.statusText(b.Status))
	fmt.Fprintf(p.w, "  Category:    %s\n", b.Category)
	fmt.Fprintf(p.w, "  Genre:       %s\n", b.Genre)
	fmt.Fprintf(p.w, "  Description: %s\n", b.Description)
}

func (p *printer) similar(hits []service.SimilarBook) {
	if len(hits) == 0 {
		fmt.Fprintln(p.w, p.muted.Render("No similar books found."))
		return
	}
	for _, h := range hits {
		fmt.Fprintf(p.w, "%s  %-40s  %-24s  %s\n",
			p.id.Render(strconv.Itoa(h.Book.ID)),
			truncate(h.Book.Title, 40),
			truncate(h.Book.Author, 24),
			p.muted.Render(fmt.Sprintf("%.3f", h.Score)),
		)
	}
}

func (p *printer) success(format string, args ...any) {
	fmt.Fprintln(p.w, p.ok.Render(fmt.Sprintf(format, args...)))
}

func (p *printer) warning(format string, args ...any) {
	fmt.Fprintln(p.w, p.warn.Render(fmt.Sprintf(format, args...)))
}

func (p *printer) note(format string, args ...any) {
	fmt.Fprintln(p.w, p.muted.Render(fmt.Sprintf(format, args...)))
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
