package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/store"
	"docqa/types"
)

type stubAsker struct {
	result *types.QAResult
	err    error
}

func (s stubAsker) Answer(context.Context, string, string, []types.ConversationTurn) (*types.QAResult, error) {
	return s.result, s.err
}

func newQATestApp(asker Asker) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Post("/api/qa/ask", NewQAHandler(asker).HandleAsk)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestHandleAskSuccess(t *testing.T) {
	app := newQATestApp(stubAsker{result: &types.QAResult{
		Answer:  "the answer",
		Sources: []string{"chunk one", "chunk two"},
	}})

	resp := postJSON(t, app, "/api/qa/ask", types.AskParams{
		Question: "what?",
		FileID:   "doc-1",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var result types.QAResult
	decodeBody(t, resp, &result)
	assert.Equal(t, "the answer", result.Answer)
	assert.Equal(t, []string{"chunk one", "chunk two"}, result.Sources)
}

func TestHandleAskNotFound(t *testing.T) {
	app := newQATestApp(stubAsker{err: fmt.Errorf("document doc-1: %w", store.ErrIndexNotFound)})

	resp := postJSON(t, app, "/api/qa/ask", types.AskParams{
		Question: "what?",
		FileID:   "doc-1",
	})

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var apiErr Error
	decodeBody(t, resp, &apiErr)
	assert.Contains(t, apiErr.Message, "upload the document first")
}

func TestHandleAskFallbackIsOK(t *testing.T) {
	// Generation-side failures arrive as a normal result with the fallback
	// answer; the transport status stays 200.
	app := newQATestApp(stubAsker{result: &types.QAResult{
		Answer:  "I encountered an error while processing your question.",
		Sources: []string{},
		Error:   "model exploded",
	}})

	resp := postJSON(t, app, "/api/qa/ask", types.AskParams{
		Question: "what?",
		FileID:   "doc-1",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var result types.QAResult
	decodeBody(t, resp, &result)
	assert.Equal(t, "model exploded", result.Error)
	assert.Empty(t, result.Sources)
}

func TestHandleAskValidation(t *testing.T) {
	app := newQATestApp(stubAsker{})

	resp := postJSON(t, app, "/api/qa/ask", types.AskParams{Question: "missing file id"})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var valErr ValidationError
	decodeBody(t, resp, &valErr)
	assert.Contains(t, valErr.Errors, "FileID")
}

func TestHandleAskBadJSON(t *testing.T) {
	app := newQATestApp(stubAsker{})

	req := httptest.NewRequest(http.MethodPost, "/api/qa/ask", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
