package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"bookshelf/internal/contextutil"
	"bookshelf/internal/llm"
	"bookshelf/internal/storage"
)

const metadataPrompt = `Correct any spelling errors or user errors (like putting the wrong author) and give the correct title of the book with proper capitalization, and the correct author.
Decide whether the book is Non-Fiction, Fiction, or Textbook: answer 0 for Non-Fiction, 1 for Fiction, 2 for Textbook.
Then give the genre of the book. Keep it broad, like 'Philosophy', 'Self Improvement' or 'Fantasy', but never 'Non-Fiction', 'Fiction' or 'Textbook'.
Finally, write a two sentence summary of the book.
Put each of the five answers on its own line, in this order: title, author, category number, genre, summary.

Example for 'the myth of sisiphus' by 'camus':
The Myth of Sisyphus
Albert Camus
0
Philosophy
In 'The Myth of Sisyphus,' Albert Camus explores absurdism, arguing that the search for meaning in a meaningless world is futile, yet that futility is where freedom lies. Through Sisyphus, eternally pushing a boulder uphill, Camus argues that the act of persevering, not the outcome, gives life its value.
[END OF EXAMPLE]

Only respond with the five lines requested. Don't introduce or conclude.`

// MetadataRequest is what the user typed before asking for suggestions.
type MetadataRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// Metadata is the completion generator's suggestion for a book.
type Metadata struct {
	Title       string           `json:"title"`
	Author      string           `json:"author"`
	Category    storage.Category `json:"category"`
	Genre       string           `json:"genre"`
	Description string           `json:"description"`
}

func metadataMessages(req MetadataRequest) []llm.Message {
	return []llm.Message{
		{Role: "system", Content: metadataPrompt},
		{Role: "user", Content: fmt.Sprintf("The book is: %s by %s", strings.TrimSpace(req.Title), strings.TrimSpace(req.Author))},
	}
}

// parseMetadata reads the five-line reply. Missing or unusable lines fall back
// to the request values and the stored-row defaults.
func parseMetadata(reply string, req MetadataRequest) Metadata {
	lines := make([]string, 0, 5)
	for _, line := range strings.Split(strings.ReplaceAll(reply, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "[END OF EXAMPLE]" {
			continue
		}
		lines = append(lines, line)
	}
	at := func(fallback string, idx int) string {
		if idx < len(lines) {
			return lines[idx]
		}
		return fallback
	}

	md := Metadata{
		Title:       at(strings.TrimSpace(req.Title), 0),
		Author:      at(strings.TrimSpace(req.Author), 1),
		Category:    storage.CategoryNonFiction,
		Genre:       at(storage.DefaultGenre, 3),
		Description: storage.DefaultDescription,
	}

	if len(lines) > 2 {
		if n, err := strconv.Atoi(strings.Trim(lines[2], ".* ")); err == nil {
			md.Category = storage.Category(n)
		}
	}
	if len(lines) > 4 {
		// Summaries occasionally wrap onto more than one line.
		md.Description = strings.Join(lines[4:], " ")
	}
	return md
}

// SuggestMetadata asks the completion generator for a corrected title, author,
// category, genre and description.
func (s *bookService) SuggestMetadata(ctx context.Context, req MetadataRequest) (Metadata, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Title) == "" {
		return Metadata{}, &ValidationError{Field: "title", Message: "cannot be empty"}
	}
	if strings.TrimSpace(req.Author) == "" {
		return Metadata{}, &ValidationError{Field: "author", Message: "cannot be empty"}
	}
	if s.llmClient == nil {
		return Metadata{}, fmt.Errorf("%w: no completion generator configured", ErrExternalService)
	}

	reply, err := s.llmClient.ChatWithMessages(ctx, metadataMessages(req), llm.ChatParams{Temperature: 0.2, MaxTokens: 400})
	if err != nil {
		logger.ErrorContext(ctx, "failed to generate book metadata", "error", err)
		return Metadata{}, fmt.Errorf("%w: %w", ErrExternalService, err)
	}

	md := parseMetadata(reply, req)
	logger.InfoContext(ctx, "book metadata generated", "title", md.Title, "category", md.Category.String(), "genre", md.Genre)
	return md, nil
}
