package chunker

import "strings"

// separators ordered coarsest first: paragraph, line, word.
var separators = []string{"\n\n", "\n", " "}

// Splitter cuts text into overlapping chunks bounded by chunkSize. Cuts
// prefer the coarsest separator found inside the size window; consecutive
// chunks overlap by chunkOverlap characters so context survives a boundary.
// Sizes and offsets count runes, not bytes, so multi-byte characters are
// never split. All input characters are preserved across chunks.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
}

// NewSplitter creates a splitter. chunkOverlap must be smaller than
// chunkSize; out-of-range values fall back to defaults.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 10
	}
	return &Splitter{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Split returns the ordered chunks of text. Empty or whitespace-only input
// yields no chunks; that is a valid "nothing to ingest" outcome.
func (s *Splitter) Split(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= s.chunkSize {
		return []string{text}
	}
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + s.chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		cut := s.cutPoint(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))
		next := cut - s.chunkOverlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// cutPoint finds where to end the chunk beginning at start: the last
// paragraph break inside the window, else the last line break, else the
// last space, else a hard cut at the window edge.
func (s *Splitter) cutPoint(runes []rune, start, end int) int {
	window := runes[start:end]
	for _, sep := range separators {
		if idx := lastIndexRunes(window, []rune(sep)); idx > 0 {
			return start + idx + len([]rune(sep))
		}
	}
	return end
}

// lastIndexRunes returns the rune index of the last occurrence of sep in
// window, or -1.
func lastIndexRunes(window, sep []rune) int {
	for i := len(window) - len(sep); i >= 0; i-- {
		match := true
		for j := range sep {
			if window[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
