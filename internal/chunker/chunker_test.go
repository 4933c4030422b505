package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyInput(t *testing.T) {
	s := NewSplitter(500, 50)
	assert.Nil(t, s.Split(""))
	assert.Nil(t, s.Split("   \n\t  \n"))
}

func TestSplitShortInput(t *testing.T) {
	s := NewSplitter(500, 50)
	chunks := s.Split("A single short paragraph.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "A single short paragraph.", chunks[0])
}

func TestSplitNormalizesLineEndings(t *testing.T) {
	s := NewSplitter(500, 50)
	chunks := s.Split("first line\r\nsecond line")
	require.Len(t, chunks, 1)
	assert.Equal(t, "first line\nsecond line", chunks[0])
}

func TestSplitBoundsAndOverlap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "Sentence number %03d ends right here.\n", i)
	}
	text := b.String()
	s := NewSplitter(500, 50)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), 500, "chunk %d exceeds chunk size", i)
	}
	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		require.GreaterOrEqual(t, len(prev), 50)
		require.GreaterOrEqual(t, len(cur), 50)
		assert.Equal(t, prev[len(prev)-50:], cur[:50], "chunks %d and %d do not overlap", i-1, i)
	}
}

func TestSplitReconstructsOriginal(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "Sentence number %03d ends right here.\n", i)
	}
	text := b.String()
	s := NewSplitter(500, 50)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)

	reconstructed := chunks[0]
	for _, c := range chunks[1:] {
		reconstructed += c[50:]
	}
	assert.Equal(t, text, reconstructed)
}

func TestSplitKeepsMultibyteRunesIntact(t *testing.T) {
	text := strings.Repeat("привет мир самолет ", 60)
	s := NewSplitter(500, 50)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk %d is not valid UTF-8: %q", i, c)
		assert.LessOrEqual(t, len([]rune(c)), 500, "chunk %d exceeds chunk size", i)
	}
	for i := 1; i < len(chunks); i++ {
		prev, cur := []rune(chunks[i-1]), []rune(chunks[i])
		require.GreaterOrEqual(t, len(prev), 50)
		require.GreaterOrEqual(t, len(cur), 50)
		assert.Equal(t, string(prev[len(prev)-50:]), string(cur[:50]), "chunks %d and %d do not overlap", i-1, i)
	}

	reconstructed := []rune(chunks[0])
	for _, c := range chunks[1:] {
		reconstructed = append(reconstructed, []rune(c)[50:]...)
	}
	assert.Equal(t, text, string(reconstructed))
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	para := strings.Repeat("word ", 60) // 300 chars
	text := para + "\n\n" + para
	s := NewSplitter(500, 50)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	// the first cut lands after the paragraph break, not mid-paragraph
	assert.True(t, strings.HasSuffix(chunks[0], "\n\n"), "first chunk should end at the paragraph break, got %q", chunks[0][len(chunks[0])-10:])
}

func TestNewSplitterGuardsOverlap(t *testing.T) {
	s := NewSplitter(100, 100)
	assert.Less(t, s.chunkOverlap, s.chunkSize)

	s = NewSplitter(0, -1)
	assert.Equal(t, 500, s.chunkSize)
	assert.Equal(t, 50, s.chunkOverlap)
}
