// Package chunker splits transcript text into fixed-size overlapping
// pieces for embedding. Splitting is deterministic: the same text and
// parameters always yield the same chunks, which keeps reprocessing
// idempotent.
package chunker

import "strings"

// Chunk is one slice of the input with its position. Offsets are rune
// offsets into the trimmed input.
type Chunk struct {
	Index     int
	Text      string
	CharStart int
	CharEnd   int
}

// Split cuts text into chunks of at most size runes, each overlapping the
// previous one by overlap runes. Whitespace-only input yields no chunks.
// An overlap >= size would never advance, so it is clamped to size-1.
func Split(text string, size, overlap int) []Chunk {
	if size <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	step := size - overlap
	chunks := make([]Chunk, 0, (len(runes)+step-1)/step)
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			Index:     len(chunks),
			Text:      string(runes[start:end]),
			CharStart: start,
			CharEnd:   end,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}
