package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Thagi/paper-scope/internal/domain"
)

const openAIChatCompletionsURL = "https://api.openai.com/v1/chat/completions"

// OpenAIClient enriches papers through the chat completions API in JSON mode.
type OpenAIClient struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:   apiKey,
		model:    model,
		endpoint: openAIChatCompletionsURL,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) Analyze(ctx context.Context, record domain.PaperRecord, _ string) (domain.Analysis, error) {
	system := "You are a research assistant that writes concise JSON summaries for academic papers. " +
		"Always return valid JSON matching the schema {summary: string, key_points: string[], " +
		"concepts: {name: string, description: string}[], relationships: {source: string, target: string, relation: string}[], " +
		"chapters: {title: string, explanation: string, related_concepts: (string | {label: string, type?: string})[]}[]}."
	user := fmt.Sprintf("Title: %s\nSource: %s\nAuthors: %s\nAbstract: %s\nReturn a structured JSON summary.",
		record.Title, record.Source, promptAuthors(record), promptAbstract(record))

	reqBody := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	reqBody.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("llm: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("llm: openai request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("llm: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Analysis{}, fmt.Errorf("llm: openai returned status %d: %s", resp.StatusCode, truncate(string(body), 256))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return domain.Analysis{}, fmt.Errorf("llm: decode response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return domain.Analysis{}, fmt.Errorf("llm: openai response has no choices")
	}
	return analysisFromJSON(record, []byte(completion.Choices[0].Message.Content))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
