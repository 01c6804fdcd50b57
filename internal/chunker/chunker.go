// Package chunker splits raw document text into overlapping segments
// suitable for embedding and retrieval.
package chunker

import (
	"fmt"

	"github.com/ragpipe/ragpipe/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of overlapping characters
// between consecutive chunks.
const DefaultOverlap = 200

// Span is a half-open [Start, End) character (rune) range within the
// input. Chunk size and overlap count characters, not bytes, so cuts
// never tear a multi-byte sequence.
type Span struct {
	Start int
	End   int
}

// Splitter produces boundary-aware overlapping chunks. Splitting is
// deterministic: identical input and parameters always yield an
// identical chunk sequence, which ingestion idempotence depends on.
type Splitter struct {
	chunkSize int
	overlap   int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		s.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		s.overlap = overlap
	}
}

// New creates a splitter. Requires chunkSize > overlap >= 0; anything
// else is rejected with domain.ErrInvalidInput rather than silently
// clamped, since the parameters shape stored chunk IDs.
func New(opts ...Option) (*Splitter, error) {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.overlap < 0 {
		return nil, fmt.Errorf("%w: overlap %d is negative", domain.ErrInvalidInput, s.overlap)
	}
	if s.chunkSize <= s.overlap {
		return nil, fmt.Errorf("%w: chunk size %d must exceed overlap %d",
			domain.ErrInvalidInput, s.chunkSize, s.overlap)
	}
	return s, nil
}

// ChunkSize returns the configured chunk size.
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int { return s.overlap }

// Split returns the chunk contents in document order. Empty text yields
// no chunks.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	spans := s.splitRunes(runes)
	chunks := make([]string, len(spans))
	for i, sp := range spans {
		chunks[i] = string(runes[sp.Start:sp.End])
	}
	return chunks
}

// SplitSpans scans the text left to right and returns the chunk spans in
// order. Consecutive spans overlap by the configured overlap (less when a
// forced minimal advance applies), so the spans cover the whole input
// with no gaps, and the final span always ends at the end of the text.
//
// Each window tentatively ends chunkSize characters after its start.
// When that is not the end of the text, the splitter prefers to cut at
// the nearest paragraph break ("\n\n"), then at the nearest sentence
// boundary (". "), searching backward from the tentative end; a cut is
// only taken when it lies within chunkSize/2 characters of the tentative
// end. With no acceptable boundary the window is cut hard at the
// tentative end, possibly mid-word.
func (s *Splitter) SplitSpans(text string) []Span {
	return s.splitRunes([]rune(text))
}

func (s *Splitter) splitRunes(runes []rune) []Span {
	if len(runes) == 0 {
		return nil
	}

	n := len(runes)
	spans := make([]Span, 0, n/(s.chunkSize-s.overlap)+1)

	start := 0
	for start < n {
		end := start + s.chunkSize
		if end >= n {
			spans = append(spans, Span{Start: start, End: n})
			break
		}

		end = s.cut(runes, start, end)
		spans = append(spans, Span{Start: start, End: end})

		// Overlap the next window with this one. The boundary search can
		// pull end close to start, so force strictly increasing starts to
		// guarantee termination.
		next := end - s.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return spans
}

// cut finds the chunk end for the window [start, tentative). It returns
// the best boundary within chunkSize/2 of the tentative end, or the
// tentative end itself when no boundary qualifies.
func (s *Splitter) cut(runes []rune, start, tentative int) int {
	window := runes[start:tentative]
	earliest := tentative - s.chunkSize/2

	// Paragraph break first: cut just after the blank line.
	if p := lastPair(window, '\n', '\n'); p >= 0 {
		if c := start + p + 2; c >= earliest && c > start {
			return c
		}
	}

	// Then sentence boundary: a period followed by a space.
	if p := lastPair(window, '.', ' '); p >= 0 {
		if c := start + p + 2; c >= earliest && c > start {
			return c
		}
	}

	return tentative
}

// lastPair returns the index of the last occurrence of the two-rune
// sequence a,b in window, or -1.
func lastPair(window []rune, a, b rune) int {
	for i := len(window) - 2; i >= 0; i-- {
		if window[i] == a && window[i+1] == b {
			return i
		}
	}
	return -1
}
