package qa

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const systemPrompt = `You are an assistant answering questions about an uploaded document.
Answer clearly and to the point, using only the provided context.
If the context is empty or contains no information relevant to the question, say that the document has no information on it.
Do not add introductions like 'Of course!' or 'Here is the answer:'.`

// buildPrompt assembles the user prompt from the retrieved chunk texts and
// the question. Conversation history is not folded in here; the generator
// receives it separately.
func buildPrompt(contextChunks []string, question string) string {
	context := strings.Join(contextChunks, "\n\n")
	if context == "" {
		context = "empty"
	}
	return fmt.Sprintf(`Answer the question based on the given context.
Context:
%s
Question:
%s
Answer:`, context, question)
}

// countTokens reports the token length of the assembled prompt, for logging
// request size before the generation call.
func countTokens(data string) (int, error) {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(data, nil, nil)), nil
}
