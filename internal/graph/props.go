package graph

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Thagi/paper-scope/internal/domain"
)

// nonEmpty maps "" to nil so Cypher coalesce() treats it as absent and SET
// clears the property instead of storing an empty string.
func nonEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func stringList(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

func stringProp(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func stringSliceProp(props map[string]any, key string) []string {
	raw, ok := props[key].([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func timeProp(props map[string]any, key string) *time.Time {
	if v, ok := props[key].(time.Time); ok {
		return &v
	}
	return nil
}

func storedPaperFromNode(node neo4j.Node) domain.StoredPaper {
	title := stringProp(node.Props, "title")
	if title == "" {
		title = "Untitled"
	}
	return domain.StoredPaper{
		PaperID:     stringProp(node.Props, "external_id"),
		Title:       title,
		Source:      stringProp(node.Props, "source"),
		Summary:     stringProp(node.Props, "summary"),
		LandingURL:  stringProp(node.Props, "landing_url"),
		Tags:        stringSliceProp(node.Props, "tags"),
		Authors:     stringSliceProp(node.Props, "authors"),
		PublishedAt: timeProp(node.Props, "published_at"),
		StoragePath: stringProp(node.Props, "storage_path"),
		KeyPoints:   stringSliceProp(node.Props, "key_points"),
	}
}

// cleanMetadata drops nil values, empty strings and empty collections so
// projected payloads stay compact.
func cleanMetadata(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata))
	for key, value := range metadata {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			if v == "" {
				continue
			}
		case []string:
			if len(v) == 0 {
				continue
			}
		case []any:
			if len(v) == 0 {
				continue
			}
		case map[string]any:
			if len(v) == 0 {
				continue
			}
		}
		out[key] = value
	}
	return out
}
