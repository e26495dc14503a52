package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAskParamsValidate(t *testing.T) {
	params := &AskParams{Question: "what?", FileID: "doc-1"}
	assert.Empty(t, params.Validate())

	params = &AskParams{Question: "what?"}
	errs := params.Validate()
	assert.Contains(t, errs, "FileID")

	params = &AskParams{}
	errs = params.Validate()
	assert.Contains(t, errs, "Question")
	assert.Contains(t, errs, "FileID")
}
