package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Thagi/paper-scope/internal/domain"
)

// OllamaClient enriches papers through a locally hosted Ollama server.
type OllamaClient struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaClient(baseURL, model string) *OllamaClient {
	return &OllamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Format string `json:"format"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Message  struct {
		Content string `json:"content"`
	} `json:"message"`
}

func (c *OllamaClient) Analyze(ctx context.Context, record domain.PaperRecord, _ string) (domain.Analysis, error) {
	prompt := fmt.Sprintf(
		"Return JSON with fields summary, key_points, concepts, relationships, chapters summarizing the following paper.\nTitle: %s\nAuthors: %s\nAbstract: %s\n",
		record.Title, promptAuthors(record), promptAbstract(record))

	payload, err := json.Marshal(ollamaGenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Format: "json",
		Stream: false,
	})
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("llm: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("llm: ollama request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("llm: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Analysis{}, fmt.Errorf("llm: ollama returned status %d: %s", resp.StatusCode, truncate(string(body), 256))
	}

	var generated ollamaGenerateResponse
	if err := json.Unmarshal(body, &generated); err != nil {
		return domain.Analysis{}, fmt.Errorf("llm: decode response: %w", err)
	}
	content := generated.Response
	if content == "" {
		content = generated.Message.Content
	}
	if content == "" {
		return domain.Analysis{}, fmt.Errorf("llm: ollama response missing content")
	}
	return analysisFromJSON(record, []byte(content))
}
