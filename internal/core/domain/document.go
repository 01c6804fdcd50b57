package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// DefaultVectorDimensions is the embedding size used when no model is
// configured. Matches the all-MiniLM class of sentence embedding models.
const DefaultVectorDimensions = 384

// Document is the unit of ingestion: raw text plus provenance metadata.
// It is immutable once handed to the pipeline and owned by the caller.
type Document struct {
	// SourceID is the stable identifier of the document's origin,
	// typically a file path or URL. Chunk IDs are derived from it, so
	// re-ingesting the same SourceID overwrites rather than duplicates.
	SourceID string

	// Title is an optional human-readable title.
	Title string

	// Text is the full raw text. Format-specific extraction (PDF, HTML)
	// happens upstream; the pipeline treats this as plain text.
	Text string

	// Metadata contains optional caller-supplied key-value pairs.
	Metadata map[string]string
}

// Chunk is a contiguous slice of a document's text, the unit of
// embedding and retrieval.
type Chunk struct {
	// ID is derived from (SourceID, Ordinal) via ChunkID.
	ID string

	// SourceID links back to the originating document.
	SourceID string

	// Ordinal is the zero-based position of the chunk within its document.
	Ordinal int

	// Text is the chunk content, including any overlap with neighbours.
	Text string
}

// ChunkID derives the stable identifier for a chunk from its document
// source and ordinal. The ID is the first 16 bytes of
// SHA-256(sourceID || NUL || ordinal) in hex, so identical documents
// always produce identical IDs across processes and re-ingestions.
func ChunkID(sourceID string, ordinal int) string {
	sum := sha256.Sum256([]byte(sourceID + "\x00" + strconv.Itoa(ordinal)))
	return hex.EncodeToString(sum[:16])
}

// Payload is the metadata stored alongside a vector in the index and
// returned with retrieval results.
type Payload struct {
	// Text is the chunk content.
	Text string

	// Source is the originating document's SourceID.
	Source string

	// Title is the originating document's title, if any.
	Title string

	// Ordinal is the chunk position within its document.
	Ordinal int
}

// IndexEntry is a (id, vector, payload) triple stored in the vector
// index. Upserting an existing ID replaces the entry entirely; there is
// no partial field merge.
type IndexEntry struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// ScoredEntry is a retrieval result: an index entry with its similarity
// score under the collection's metric.
type ScoredEntry struct {
	Entry IndexEntry
	Score float64
}

// ChunkOutcome records the result of ingesting a single chunk.
// An empty Error means the chunk was embedded and upserted.
type ChunkOutcome struct {
	ID      string
	Ordinal int
	Error   string
}

// IngestSummary reports the per-chunk outcome of an ingestion run.
// Ingestion never aborts on the first failure: failed chunks are
// recorded and the rest proceed, so Attempted == Succeeded + Failed.
type IngestSummary struct {
	SourceID  string
	Attempted int
	Succeeded int
	Failed    int
	Chunks    []ChunkOutcome
}

// AnswerRequest carries the parameters of a query-serving run.
type AnswerRequest struct {
	// Query is the natural-language question.
	Query string

	// TopK is the number of passages to retrieve. Must be positive.
	TopK int

	// MaxTokens bounds the generation length.
	MaxTokens int

	// Temperature is the sampling temperature for generation.
	Temperature float64
}

// SourcePassage is one retrieved passage as reported back with an
// answer: the chunk text, its provenance and its similarity score.
type SourcePassage struct {
	Text    string  `json:"text"`
	Source  string  `json:"source"`
	Title   string  `json:"title,omitempty"`
	Ordinal int     `json:"ordinal"`
	Score   float64 `json:"score"`
}

// AnswerResult is the outcome of a query-serving run: the generated
// answer plus the ranked passages that conditioned it, in retrieval
// order.
type AnswerResult struct {
	Answer  string          `json:"answer"`
	Sources []SourcePassage `json:"sources"`
}
