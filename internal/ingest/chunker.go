package ingest

import "strings"

// SplitWords splits text into overlapping word windows. Each chunk holds at
// most window words, and consecutive chunks share overlap words. When overlap
// is not smaller than window, chunks are produced without overlap.
func SplitWords(text string, window, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}
	}
	if window <= 0 {
		window = 1
	}

	step := window - overlap
	if step <= 0 {
		step = window
	}

	chunks := []string{}
	for start := 0; start < len(words); start += step {
		end := start + window
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
