package services

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkText(t *testing.T) {
	chunker := NewTextChunker()

	tests := []struct {
		name      string
		text      string
		size      int
		overlap   int
		wantCount int
	}{
		{name: "empty", text: "", size: 100, wantCount: 0},
		{name: "blank paragraphs only", text: "\n\n  \n\n", size: 100, wantCount: 0},
		{name: "fits in one chunk", text: "Go.\n\nSQL.", size: 100, wantCount: 1},
		{name: "paragraphs split across chunks", text: strings.Repeat("abcdefghij\n\n", 5), size: 25, wantCount: 3},
		{name: "long paragraph split by sentence", text: "One two three. Four five six. Seven eight nine.", size: 20, wantCount: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := chunker.ChunkText(tt.text, tt.size, tt.overlap)
			if len(chunks) != tt.wantCount {
				t.Fatalf("got %d chunks %q, want %d", len(chunks), chunks, tt.wantCount)
			}
			for _, c := range chunks {
				if strings.TrimSpace(c) == "" {
					t.Errorf("empty chunk in %q", chunks)
				}
			}
		})
	}
}

func TestChunkTextOverlap(t *testing.T) {
	chunks := NewTextChunker().ChunkText("aaaaaaaaaa\n\nbbbbbbbbbb", 12, 3)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks %q, want 2", len(chunks), chunks)
	}
	if !strings.HasPrefix(chunks[1], "aaa\n\nbbbbbbbbbb") {
		t.Errorf("second chunk %q does not start with the overlap", chunks[1])
	}
}

func TestChunkTextDefaults(t *testing.T) {
	text := strings.Repeat("word ", 400) // 2000 runes, one paragraph of one sentence
	chunks := NewTextChunker().ChunkText(text, 0, -1)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1 since a single sentence cannot be split", len(chunks))
	}
	if utf8.RuneCountInString(chunks[0]) == 0 {
		t.Error("expected content")
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want string
	}{
		{"short ascii", "abc", 5, "abc"},
		{"ascii cut", "abcdef", 4, "abcd"},
		{"multibyte kept whole", "héllo wörld", 8, "héllo wö"},
		{"fits in runes not bytes", "日本語", 3, "日本語"},
		{"cut inside a byte run", "日本語テキスト", 2, "日本"},
		{"zero", "abc", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateRunes(tt.text, tt.n)
			if got != tt.want {
				t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.text, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncateRunes(%q, %d) returned invalid UTF-8", tt.text, tt.n)
			}
		})
	}
}
