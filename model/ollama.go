package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"docqa/config"
	"docqa/types"
)

// OllamaClient implements Embedder and Generator against a local Ollama
// instance using its plain HTTP API.
type OllamaClient struct {
	generateURL string
	embedURL    string
	model       string
	embedModel  string
	httpClient  *http.Client
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func NewOllamaClient(cfg config.Config) *OllamaClient {
	return &OllamaClient{
		generateURL: cfg.OllamaURL,
		embedURL:    cfg.OllamaEmbeddingURL,
		model:       cfg.ModelName,
		embedModel:  cfg.OllamaEmbeddingModel,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbeddingRequest{Model: c.embedModel, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	respBody, err := c.post(ctx, c.embedURL, body)
	if err != nil {
		return nil, err
	}

	var resp ollamaEmbeddingResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal embedding response: %w", err)
	}

	vec := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		vec[i] = float32(v)
	}
	normalize(vec)
	return vec, nil
}

func (c *OllamaClient) Generate(ctx context.Context, system, prompt string, history []types.ConversationTurn) (string, error) {
	// The generate endpoint has no message structure, so prior turns are
	// folded into the prompt as a dialogue transcript.
	if len(history) > 0 {
		var b strings.Builder
		b.WriteString("Previous conversation:\n")
		for _, turn := range history {
			b.WriteString("User: " + turn.Question + "\n")
			b.WriteString("Assistant: " + turn.Answer + "\n")
		}
		b.WriteString("\n")
		b.WriteString(prompt)
		prompt = b.String()
	}

	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  c.model,
		System: system,
		Prompt: prompt,
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	respBody, err := c.post(ctx, c.generateURL, body)
	if err != nil {
		return "", err
	}

	var resp ollamaGenerateResponse
	if err := json.Unmarshal(respBody, &resp); err == nil && resp.Response != "" {
		return resp.Response, nil
	}

	// Streamed response: concatenate the chunks.
	var output strings.Builder
	decoder := json.NewDecoder(bytes.NewReader(respBody))
	for decoder.More() {
		var chunk ollamaGenerateResponse
		if err := decoder.Decode(&chunk); err != nil {
			return "", fmt.Errorf("decode generate response: %w", err)
		}
		output.WriteString(chunk.Response)
		if chunk.Done {
			break
		}
	}
	return output.String(), nil
}

func (c *OllamaClient) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// normalize scales v to unit length in place. Unit vectors let the stores
// rank by plain dot product.
func normalize(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
}
