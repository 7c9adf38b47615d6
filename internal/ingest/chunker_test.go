package ingest

import (
	"fmt"
	"strings"
	"testing"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		window  int
		overlap int
		want    int
	}{
		{"empty text", "", 400, 50, 0},
		{"whitespace only", "   \n\t  ", 400, 50, 0},
		{"fits in one window", words(100), 400, 50, 1},
		{"exactly one window", words(400), 400, 50, 1},
		{"one word past window", words(401), 400, 50, 2},
		{"three pages worth", words(850), 400, 50, 3},
		{"no overlap", words(800), 400, 0, 2},
		{"overlap equals window", words(800), 400, 400, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitWords(tt.text, tt.window, tt.overlap)
			if len(got) != tt.want {
				t.Errorf("SplitWords() produced %d chunks, want %d", len(got), tt.want)
			}
		})
	}
}

func TestSplitWords_OverlapContent(t *testing.T) {
	chunks := SplitWords(words(850), 400, 50)
	if len(chunks) != 3 {
		t.Fatalf("SplitWords() produced %d chunks, want 3", len(chunks))
	}

	// Consecutive chunks share the trailing 50 words of the previous one.
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		cur := strings.Fields(chunks[i])
		tail := strings.Join(prev[len(prev)-50:], " ")
		head := strings.Join(cur[:50], " ")
		if tail != head {
			t.Errorf("chunk %d does not start with the previous chunk's tail", i)
		}
	}

	// Every word appears in at least one chunk, in order.
	last := strings.Fields(chunks[len(chunks)-1])
	if last[len(last)-1] != "w849" {
		t.Errorf("final chunk ends with %s, want w849", last[len(last)-1])
	}
}

func TestSplitWords_WindowSizes(t *testing.T) {
	chunks := SplitWords(words(850), 400, 50)
	for i, chunk := range chunks {
		n := len(strings.Fields(chunk))
		if n > 400 {
			t.Errorf("chunk %d holds %d words, want at most 400", i, n)
		}
	}
}
