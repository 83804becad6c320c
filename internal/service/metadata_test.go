package service

import (
	"strings"
	"testing"

	"bookshelf/internal/storage"
)

func TestParseMetadata(t *testing.T) {
	req := MetadataRequest{Title: " dune ", Author: "herbert"}

	tests := []struct {
		name  string
		reply string
		want  Metadata
	}{
		{
			name:  "five lines",
			reply: "Dune\nFrank Herbert\n1\nScience Fiction\nA desert planet and its spice.",
			want: Metadata{Title: "Dune", Author: "Frank Herbert", Category: storage.CategoryFiction,
				Genre: "Science Fiction", Description: "A desert planet and its spice."},
		},
		{
			name:  "blank lines and crlf ignored",
			reply: "\r\nDune\r\n\r\nFrank Herbert\r\n2\r\nEcology\r\nSpice.\r\n",
			want: Metadata{Title: "Dune", Author: "Frank Herbert", Category: storage.CategoryTextbook,
				Genre: "Ecology", Description: "Spice."},
		},
		{
			name:  "wrapped summary joined",
			reply: "Dune\nFrank Herbert\n1\nScience Fiction\nFirst sentence.\nSecond sentence.",
			want: Metadata{Title: "Dune", Author: "Frank Herbert", Category: storage.CategoryFiction,
				Genre: "Science Fiction", Description: "First sentence. Second sentence."},
		},
		{
			name:  "decorated category digit",
			reply: "Dune\nFrank Herbert\n**1.**\nScience Fiction\nSpice.",
			want: Metadata{Title: "Dune", Author: "Frank Herbert", Category: storage.CategoryFiction,
				Genre: "Science Fiction", Description: "Spice."},
		},
		{
			name:  "unparseable category defaults to non-fiction",
			reply: "Dune\nFrank Herbert\nFiction\nScience Fiction\nSpice.",
			want: Metadata{Title: "Dune", Author: "Frank Herbert", Category: storage.CategoryNonFiction,
				Genre: "Science Fiction", Description: "Spice."},
		},
		{
			name:  "short reply falls back to request and defaults",
			reply: "Dune",
			want: Metadata{Title: "Dune", Author: "herbert", Category: storage.CategoryNonFiction,
				Genre: storage.DefaultGenre, Description: storage.DefaultDescription},
		},
		{
			name:  "empty reply",
			reply: "",
			want: Metadata{Title: "dune", Author: "herbert", Category: storage.CategoryNonFiction,
				Genre: storage.DefaultGenre, Description: storage.DefaultDescription},
		},
		{
			name:  "echoed example marker skipped",
			reply: "[END OF EXAMPLE]\nDune\nFrank Herbert\n1\nScience Fiction\nSpice.",
			want: Metadata{Title: "Dune", Author: "Frank Herbert", Category: storage.CategoryFiction,
				Genre: "Science Fiction", Description: "Spice."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseMetadata(tt.reply, req); got != tt.want {
				t.Errorf("parseMetadata() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMetadataMessages(t *testing.T) {
	msgs := metadataMessages(MetadataRequest{Title: " sapiens ", Author: "harari "})
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != "system" || !strings.Contains(msgs[0].Content, "five lines") {
		t.Errorf("system message = %+v", msgs[0])
	}
	if msgs[1].Role != "user" || msgs[1].Content != "The book is: sapiens by harari" {
		t.Errorf("user message = %+v", msgs[1])
	}
}
