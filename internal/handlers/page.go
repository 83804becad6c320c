package handlers

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghhtml "github.com/yuin/goldmark/renderer/html"

	"bookshelf/internal/contextutil"
	"bookshelf/internal/service"
	"bookshelf/internal/storage"
)

// PageHandler serves a book's detail page with its description rendered from markdown.
type PageHandler struct {
	books    service.BookService
	parser   goldmark.Markdown
	template *template.Template
}

// bookPageData holds template data for rendered book pages.
type bookPageData struct {
	Book        storage.Book
	Status      string
	Category    string
	Description template.HTML
}

var bookPage = template.Must(template.New("book").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Book.Title}} | Bookshelf</title>
<style>
body { font: 16px/1.6 Georgia, serif; max-width: 46rem; margin: 3rem auto; padding: 0 1rem; color: #222; background: #fdfbf7; }
h1 { font-size: 2.1rem; margin: 0.5rem 0 0; }
.byline { font-style: italic; color: #555; margin: 0 0 1.5rem; }
dl { display: grid; grid-template-columns: max-content auto; gap: 0.25rem 1rem; font: 14px/1.5 system-ui, sans-serif; }
dt { color: #777; }
dd { margin: 0; }
section { border-top: 1px solid #e2dccf; margin-top: 1.5rem; padding-top: 1rem; }
</style>
</head>
<body>
<h1>{{.Book.Title}}</h1>
<p class="byline">{{.Book.Author}}</p>
<dl>
<dt>Id</dt><dd>{{.Book.ID}}</dd>
<dt>Status</dt><dd>{{.Status}}</dd>
<dt>Category</dt><dd>{{.Category}}</dd>
<dt>Genre</dt><dd>{{.Book.Genre}}</dd>
</dl>
<section>{{.Description}}</section>
</body>
</html>`))

// NewPageHandler creates a new handler for book detail pages.
func NewPageHandler(books service.BookService) *PageHandler {
	return &PageHandler{
		books: books,
		parser: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Typographer,
			),
			goldmark.WithRendererOptions(ghhtml.WithHardWraps()),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		template: bookPage,
	}
}

// ServeHTTP renders the book at {id}.
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id, ok := bookID(r)
	if !ok {
		http.Error(w, "invalid book id", http.StatusBadRequest)
		return
	}

	book, err := h.books.Get(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			http.Error(w, "book not found", http.StatusNotFound)
		case errors.Is(err, service.ErrStoreUnavailable):
			logger.ErrorContext(ctx, "book store unavailable", "id", id, "error", err)
			http.Error(w, "book store unavailable", http.StatusServiceUnavailable)
		default:
			logger.ErrorContext(ctx, "failed to load book", "id", id, "error", err)
			http.Error(w, "failed to load book", http.StatusInternalServerError)
		}
		return
	}

	var description bytes.Buffer
	if err := h.parser.Convert([]byte(book.Description), &description); err != nil {
		logger.ErrorContext(ctx, "failed to render description", "id", id, "error", err)
		http.Error(w, "failed to render book", http.StatusInternalServerError)
		return
	}

	// goldmark escapes raw HTML in the description unless WithUnsafe is set.
	data := bookPageData{
		Book:        *book,
		Status:      book.Status.String(),
		Category:    book.Category.String(),
		Description: template.HTML(description.String()),
	}

	var page bytes.Buffer
	if err := h.template.Execute(&page, data); err != nil {
		logger.ErrorContext(ctx, "failed to execute book template", "id", id, "error", err)
		http.Error(w, "failed to render book", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = page.WriteTo(w)
}
