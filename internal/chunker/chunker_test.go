package chunker_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/chunker"
)

func TestSplit_CoverageAndBounds(t *testing.T) {
	const (
		size    = 500
		overlap = 100
		total   = 10000
	)
	text := strings.Repeat("a", total)

	chunks := chunker.Split(text, size, overlap)

	// ceil((total - overlap) / (size - overlap)) full-coverage count
	step := size - overlap
	want := (total - overlap + step - 1) / step
	assert.Equal(t, want, len(chunks))

	for i, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c.Text)), size, "chunk %d", i)
		assert.Equal(t, i, c.Index)
	}

	// contiguous coverage with the declared overlap
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1].CharEnd-overlap, chunks[i].CharStart)
	}
	assert.Equal(t, 0, chunks[0].CharStart)
	assert.Equal(t, total, chunks[len(chunks)-1].CharEnd)
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("transcript text ", 200)
	a := chunker.Split(text, 500, 100)
	b := chunker.Split(text, 500, 100)
	assert.Equal(t, a, b)
}

func TestSplit_ShortInputSingleChunk(t *testing.T) {
	chunks := chunker.Split("short transcript", 500, 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short transcript", chunks[0].Text)
}

func TestSplit_EmptyInput(t *testing.T) {
	assert.Empty(t, chunker.Split("", 500, 100))
	assert.Empty(t, chunker.Split("   \n\t ", 500, 100))
}

func TestSplit_OverlapClamped(t *testing.T) {
	// overlap >= size must still advance
	chunks := chunker.Split(strings.Repeat("x", 30), 10, 10)
	require.NotEmpty(t, chunks)
	assert.Equal(t, 30, chunks[len(chunks)-1].CharEnd)
}

func TestSplit_MultiByteRunes(t *testing.T) {
	text := strings.Repeat("日本語のテキスト", 100) // 800 runes
	chunks := chunker.Split(text, 500, 100)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c.Text)), 500)
	}
	assert.Equal(t, 800, chunks[len(chunks)-1].CharEnd)
}
