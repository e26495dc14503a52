package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

// AskParams is the body of POST /api/qa/ask.
type AskParams struct {
	Question    string             `json:"question" validate:"required"`
	FileID      string             `json:"file_id" validate:"required"`
	ChatHistory []ConversationTurn `json:"chat_history"`
}

// UploadResponse is the body returned by POST /api/documents/upload.
type UploadResponse struct {
	Message         string `json:"message"`
	FileID          string `json:"file_id"`
	CharsExtracted  int    `json:"chars_extracted"`
	VectorStorePath string `json:"vector_store_path"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *AskParams) Validate() map[string]string {
	validate := validator.New()
	if err := validate.Struct(params); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}
