package qa

import "docqa/types"

// SplitText splits text into contiguous windows of at most size characters
// (runes), numbered in document order. The final chunk may be shorter.
// Empty input yields no chunks.
//
// The overlap parameter is carried through from the configuration but the
// window advances by the full size: consecutive chunks do not share text.
// Retrieval quality was acceptable without overlapping windows and the
// non-overlapping split keeps the concatenation of all chunks equal to the
// input, which the ingest accounting relies on.
func SplitText(text string, size, overlap int) []types.Chunk {
	if size <= 0 || text == "" {
		return nil
	}

	runes := []rune(text)
	chunks := make([]types.Chunk, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, types.Chunk{
			Index:   len(chunks),
			Content: string(runes[start:end]),
		})
	}
	return chunks
}
