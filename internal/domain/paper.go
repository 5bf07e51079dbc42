package domain

import (
	"strings"
	"time"
)

// PaperRecord is the metadata for a paper discovered during ingestion,
// produced by a trending source before any enrichment has happened.
type PaperRecord struct {
	ExternalID  string     `json:"external_id"`
	Source      string     `json:"source"`
	Title       string     `json:"title"`
	Abstract    string     `json:"abstract,omitempty"`
	Authors     []string   `json:"authors"`
	PDFURL      string     `json:"pdf_url"`
	LandingURL  string     `json:"landing_url,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Tags        []string   `json:"tags"`
}

// StorageKey returns a filesystem friendly key for storage paths. External
// ids such as arXiv identifiers may contain slashes.
func (r PaperRecord) StorageKey() string {
	return strings.ReplaceAll(r.ExternalID, "/", "-")
}

// Concept is a single concept extracted from a paper.
type Concept struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Relationship is a subject/predicate/object triple derived from a paper.
type Relationship struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

// ChapterConcept references a knowledge-graph node mentioned in a chapter.
type ChapterConcept struct {
	Label      string `json:"label"`
	Normalized string `json:"normalized,omitempty"`
	NodeType   string `json:"node_type,omitempty"`
}

// Chapter is a model generated explanation for one section of a paper.
// Chapters live in the metadata manifest on disk, not in the graph.
type Chapter struct {
	Title           string           `json:"title"`
	Explanation     string           `json:"explanation"`
	RelatedConcepts []ChapterConcept `json:"related_concepts"`
}

// Analysis is the enrichment payload produced for a paper. Empty concept and
// relationship lists are valid and mean nothing was extracted.
type Analysis struct {
	Summary       string         `json:"summary"`
	KeyPoints     []string       `json:"key_points"`
	Concepts      []Concept      `json:"concepts"`
	Relationships []Relationship `json:"relationships"`
	Chapters      []Chapter      `json:"chapters"`
}

// StoredPaper is the read model for a paper held in the graph.
type StoredPaper struct {
	PaperID     string     `json:"paper_id"`
	Title       string     `json:"title"`
	Source      string     `json:"source,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	LandingURL  string     `json:"landing_url,omitempty"`
	Tags        []string   `json:"tags"`
	Authors     []string   `json:"authors"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	StoragePath string     `json:"storage_path,omitempty"`
	KeyPoints   []string   `json:"key_points"`
}
