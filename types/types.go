package types

import (
	"time"

	"github.com/google/uuid"
)

// Chunk is a contiguous slice of a document's extracted text, the unit of
// embedding and retrieval. Index is the zero-based position of the chunk
// within its document.
type Chunk struct {
	Index   int    `json:"index"`
	Content string `json:"content"`
}

// Document is the metadata record kept for every uploaded file.
type Document struct {
	ID              uuid.UUID `json:"id"`
	Filename        string    `json:"filename"`
	Filepath        string    `json:"-"`
	Chars           int       `json:"chars"`
	VectorStorePath string    `json:"vector_store_path"`
	UploadDate      time.Time `json:"upload_date"`
}

// ConversationTurn is one prior question/answer pair. The full chat history
// is supplied by the caller on every ask request, there is no server-side
// session state.
type ConversationTurn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QAResult is the outcome of one ask request. Sources hold the raw text of
// the retrieved chunks in retrieval-rank order. Error is set when generation
// failed and Answer carries a fallback message instead of a model answer.
type QAResult struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
	Error   string   `json:"error,omitempty"`
}
