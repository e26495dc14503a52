package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"docqa/store"
	"docqa/types"
)

// Asker answers a question against one document's index. Satisfied by
// *qa.Service; narrowed to an interface so handler tests can stub it.
type Asker interface {
	Answer(ctx context.Context, question, docID string, history []types.ConversationTurn) (*types.QAResult, error)
}

type QAHandler struct {
	qa Asker
}

func NewQAHandler(qa Asker) *QAHandler {
	return &QAHandler{qa: qa}
}

// HandleAsk serves POST /api/qa/ask. A never-ingested document id yields a
// 404; generation-side failures still come back as a 200 whose body carries
// the fallback answer and the underlying error.
func (h *QAHandler) HandleAsk(c *fiber.Ctx) error {
	var params types.AskParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if verrs := types.Validate(&params); len(verrs) > 0 {
		return NewValidationError(verrs)
	}

	result, err := h.qa.Answer(c.Context(), params.Question, params.FileID, params.ChatHistory)
	if err != nil {
		if errors.Is(err, store.ErrIndexNotFound) {
			return ErrVectorStoreNotFound()
		}
		return err
	}

	return c.JSON(result)
}
