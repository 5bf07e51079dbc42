package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Thagi/paper-scope/internal/domain"
)

// LLMClient produces an enrichment payload for a paper. pdfPath may be empty
// when no local copy is available.
type LLMClient interface {
	Analyze(ctx context.Context, record domain.PaperRecord, pdfPath string) (domain.Analysis, error)
}

// LLMConfig selects and configures the enrichment provider.
type LLMConfig struct {
	Provider      string
	OpenAIAPIKey  string
	OpenAIModel   string
	OllamaBaseURL string
	OllamaModel   string
}

// BuildLLMClient constructs the client named by cfg.Provider
// ("openai", "ollama" or "mock").
func BuildLLMClient(cfg LLMConfig) (LLMClient, error) {
	switch cfg.Provider {
	case "mock":
		return &MockLLMClient{}, nil
	case "ollama":
		return NewOllamaClient(cfg.OllamaBaseURL, cfg.OllamaModel), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("llm: openai provider selected but no api key configured")
		}
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	}
	return nil, fmt.Errorf("llm: unsupported provider %q", cfg.Provider)
}

// MockLLMClient derives a deterministic analysis from the record alone.
// Useful for development environments without a model backend.
type MockLLMClient struct{}

func (m *MockLLMClient) Analyze(_ context.Context, record domain.PaperRecord, _ string) (domain.Analysis, error) {
	summary := record.Abstract
	if summary == "" {
		summary = record.Title
	}
	concepts := make([]domain.Concept, 0, len(record.Tags))
	for _, tag := range record.Tags {
		concepts = append(concepts, domain.Concept{Name: tag})
	}
	return domain.Analysis{
		Summary:       summary,
		KeyPoints:     []string{record.Title},
		Concepts:      concepts,
		Relationships: []domain.Relationship{},
		Chapters:      []domain.Chapter{},
	}, nil
}

// analysisFromJSON turns a model's raw JSON content into an Analysis,
// tolerating the shape drift models produce: missing fields, key points that
// are not strings, related concepts given as bare strings instead of objects.
func analysisFromJSON(record domain.PaperRecord, content []byte) (domain.Analysis, error) {
	var parsed map[string]any
	if err := json.Unmarshal(content, &parsed); err != nil {
		return domain.Analysis{}, fmt.Errorf("llm: response was not valid JSON: %w", err)
	}

	summary := asString(parsed["summary"])
	if summary == "" {
		summary = record.Abstract
	}
	if summary == "" {
		summary = record.Title
	}

	keyPoints := make([]string, 0)
	for _, item := range asList(parsed["key_points"]) {
		keyPoints = append(keyPoints, stringify(item))
	}

	concepts := make([]domain.Concept, 0)
	for _, item := range asList(parsed["concepts"]) {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := asString(entry["name"])
		if name == "" {
			continue
		}
		concepts = append(concepts, domain.Concept{
			Name:        name,
			Description: asString(entry["description"]),
		})
	}

	relationships := make([]domain.Relationship, 0)
	for _, item := range asList(parsed["relationships"]) {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		target := asString(entry["target"])
		if target == "" {
			continue
		}
		source := asString(entry["source"])
		if source == "" {
			source = record.ExternalID
		}
		relation := asString(entry["relation"])
		if relation == "" {
			relation = "RELATES_TO"
		}
		relationships = append(relationships, domain.Relationship{
			Source:   source,
			Target:   target,
			Relation: relation,
		})
	}

	chapters := make([]domain.Chapter, 0)
	for _, item := range asList(parsed["chapters"]) {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		title := asString(entry["title"])
		if title == "" {
			title = asString(entry["name"])
		}
		if title == "" {
			continue
		}
		explanation := asString(entry["explanation"])
		if explanation == "" {
			explanation = asString(entry["summary"])
		}
		if explanation == "" {
			explanation = summary
		}
		related := make([]domain.ChapterConcept, 0)
		for _, rawConcept := range asList(entry["related_concepts"]) {
			switch c := rawConcept.(type) {
			case map[string]any:
				label := asString(c["label"])
				if label == "" {
					label = asString(c["name"])
				}
				if label == "" {
					continue
				}
				nodeType := asString(c["type"])
				if nodeType == "" {
					nodeType = asString(c["node_type"])
				}
				related = append(related, domain.ChapterConcept{Label: label, NodeType: nodeType})
			default:
				if label := stringify(c); label != "" {
					related = append(related, domain.ChapterConcept{Label: label})
				}
			}
		}
		chapters = append(chapters, domain.Chapter{
			Title:           title,
			Explanation:     explanation,
			RelatedConcepts: related,
		})
	}

	return domain.Analysis{
		Summary:       summary,
		KeyPoints:     keyPoints,
		Concepts:      concepts,
		Relationships: relationships,
		Chapters:      chapters,
	}, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asList(v any) []any {
	list, _ := v.([]any)
	return list
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func promptAuthors(record domain.PaperRecord) string {
	if len(record.Authors) == 0 {
		return "Unknown"
	}
	return strings.Join(record.Authors, ", ")
}

func promptAbstract(record domain.PaperRecord) string {
	if record.Abstract == "" {
		return "Not provided"
	}
	return record.Abstract
}
