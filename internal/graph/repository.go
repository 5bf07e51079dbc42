package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Thagi/paper-scope/internal/domain"
	"github.com/Thagi/paper-scope/internal/platform/logger"
	"github.com/Thagi/paper-scope/internal/platform/neo4jdb"
)

// ErrMissingExternalID is returned when a record without an external id is
// handed to the upsert path. Rejected before any store interaction.
var ErrMissingExternalID = errors.New("graph: record has no external_id")

// Repository encapsulates every interaction with the property-graph store.
//
// Author nodes collapse on the exact name string; two distinct people with
// the same name share one node. That is inherited behavior downstream query
// semantics rely on, not something to disambiguate here.
type Repository struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewRepository(client *neo4jdb.Client, log *logger.Logger) *Repository {
	return &Repository{client: client, log: log.With("repo", "GraphRepository")}
}

func (r *Repository) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return r.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: r.client.Database,
	})
}

// EnsureConstraints declares the uniqueness constraints for the three node
// kinds. Safe to call on every startup; runs outside the request path.
func (r *Repository) EnsureConstraints(ctx context.Context) error {
	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	statements := []string{
		`CREATE CONSTRAINT paper_external_id_unique IF NOT EXISTS FOR (p:Paper) REQUIRE p.external_id IS UNIQUE`,
		`CREATE CONSTRAINT concept_normalized_name_unique IF NOT EXISTS FOR (c:Concept) REQUIRE c.normalized_name IS UNIQUE`,
		`CREATE CONSTRAINT author_name_unique IF NOT EXISTS FOR (a:Author) REQUIRE a.name IS UNIQUE`,
	}
	for _, stmt := range statements {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			return fmt.Errorf("graph: ensure constraints: %w", err)
		}
		if _, err := res.Consume(ctx); err != nil {
			return fmt.Errorf("graph: ensure constraints: %w", err)
		}
	}
	return nil
}

// UpsertPaper writes the paper, its authorship edges and its concept
// relationships in one transaction. The paper's outgoing RELATES_TO edge set
// is fully replaced, so repeated ingestion converges to the latest analysis
// instead of accumulating stale links. The delete and recreate happen inside
// the same transaction; no reader observes a half-replaced edge set.
func (r *Repository) UpsertPaper(ctx context.Context, record domain.PaperRecord, analysis domain.Analysis, storagePath string) error {
	externalID := strings.TrimSpace(record.ExternalID)
	if externalID == "" {
		return ErrMissingExternalID
	}

	props := map[string]any{
		"title":        record.Title,
		"abstract":     nonEmpty(record.Abstract),
		"source":       record.Source,
		"authors":      stringList(record.Authors),
		"landing_url":  nonEmpty(record.LandingURL),
		"tags":         stringList(record.Tags),
		"summary":      nonEmpty(analysis.Summary),
		"key_points":   stringList(analysis.KeyPoints),
		"storage_path": nonEmpty(storagePath),
	}
	if record.PublishedAt != nil {
		props["published_at"] = *record.PublishedAt
	} else {
		props["published_at"] = nil
	}

	authors := make([]any, 0, len(record.Authors))
	for _, name := range record.Authors {
		if name = strings.TrimSpace(name); name != "" {
			authors = append(authors, name)
		}
	}

	concepts := make([]any, 0, len(analysis.Concepts))
	for _, c := range analysis.Concepts {
		key := NormalizeConceptName(c.Name)
		if strings.TrimSpace(c.Name) == "" || key == "" {
			continue
		}
		concepts = append(concepts, map[string]any{
			"normalized_name": key,
			"name":            nonEmpty(c.Name),
			"description":     nonEmpty(c.Description),
		})
	}

	rels := make([]any, 0, len(analysis.Relationships))
	for _, rel := range analysis.Relationships {
		target := strings.TrimSpace(rel.Target)
		if target == "" {
			continue
		}
		key := NormalizeConceptName(target)
		if key == "" {
			continue
		}
		relation := rel.Relation
		if strings.TrimSpace(relation) == "" {
			relation = "RELATED"
		}
		rels = append(rels, map[string]any{
			"normalized_name": key,
			"display":         target,
			"relation":        relation,
			"source":          nonEmpty(rel.Source),
		})
	}

	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		run := func(query string, params map[string]any) error {
			res, err := tx.Run(ctx, query, params)
			if err != nil {
				return err
			}
			_, err = res.Consume(ctx)
			return err
		}

		if err := run(`
MERGE (p:Paper {external_id: $external_id})
SET p += $props,
    p.updated_at = datetime(),
    p.created_at = coalesce(p.created_at, datetime())
`, map[string]any{"external_id": externalID, "props": props}); err != nil {
			return nil, err
		}

		if len(authors) > 0 {
			if err := run(`
MATCH (p:Paper {external_id: $external_id})
UNWIND $authors AS author
MERGE (a:Author {name: author})
MERGE (p)-[:AUTHORED_BY]->(a)
`, map[string]any{"external_id": externalID, "authors": authors}); err != nil {
				return nil, err
			}
		}

		if err := run(`
MATCH (p:Paper {external_id: $external_id})-[old:RELATES_TO]->(:Concept)
DELETE old
`, map[string]any{"external_id": externalID}); err != nil {
			return nil, err
		}

		if len(concepts) > 0 {
			if err := run(`
MATCH (p:Paper {external_id: $external_id})
UNWIND $concepts AS concept
MERGE (c:Concept {normalized_name: concept.normalized_name})
SET c.name = coalesce(concept.name, c.name),
    c.description = coalesce(concept.description, c.description)
MERGE (p)-[:RELATES_TO {relation: 'TAG'}]->(c)
`, map[string]any{"external_id": externalID, "concepts": concepts}); err != nil {
				return nil, err
			}
		}

		if len(rels) > 0 {
			if err := run(`
MATCH (p:Paper {external_id: $external_id})
UNWIND $rels AS rel
MERGE (c:Concept {normalized_name: rel.normalized_name})
SET c.name = coalesce(rel.display, c.name)
MERGE (p)-[r:RELATES_TO {relation: rel.relation}]->(c)
SET r.source = rel.source
`, map[string]any{"external_id": externalID, "rels": rels}); err != nil {
				return nil, err
			}
		}

		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("graph: upsert paper %s: %w", externalID, err)
	}
	return nil
}

// PaperExists reports whether a paper with the given external id is stored.
func (r *Repository) PaperExists(ctx context.Context, externalID string) (bool, error) {
	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (p:Paper {external_id: $external_id})
RETURN count(p) > 0 AS exists
`, map[string]any{"external_id": externalID})
		if err != nil {
			return false, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return false, err
		}
		exists, _ := rec.Get("exists")
		flag, _ := exists.(bool)
		return flag, nil
	})
	if err != nil {
		return false, fmt.Errorf("graph: paper exists %s: %w", externalID, err)
	}
	return out.(bool), nil
}

// GetPaper returns the stored paper for an external id, or nil when absent.
func (r *Repository) GetPaper(ctx context.Context, externalID string) (*domain.StoredPaper, error) {
	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (p:Paper {external_id: $external_id})
RETURN p
`, map[string]any{"external_id": externalID})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return (*domain.StoredPaper)(nil), nil
		}
		raw, _ := records[0].Get("p")
		node, ok := raw.(neo4j.Node)
		if !ok {
			return nil, fmt.Errorf("unexpected value for paper node: %T", raw)
		}
		paper := storedPaperFromNode(node)
		return &paper, nil
	})
	if err != nil {
		return nil, fmt.Errorf("graph: get paper %s: %w", externalID, err)
	}
	return out.(*domain.StoredPaper), nil
}

// GetRecentPapers lists papers ordered by publication time, newest first.
// Papers without a publication time sort as the earliest; ties break on
// creation time.
func (r *Repository) GetRecentPapers(ctx context.Context, limit int) ([]domain.StoredPaper, error) {
	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (p:Paper)
RETURN p
ORDER BY coalesce(p.published_at, datetime({epochSeconds: 0})) DESC,
         coalesce(p.created_at, datetime({epochSeconds: 0})) DESC
LIMIT $limit
`, map[string]any{"limit": int64(limit)})
		if err != nil {
			return nil, err
		}
		papers := make([]domain.StoredPaper, 0, limit)
		for res.Next(ctx) {
			raw, _ := res.Record().Get("p")
			node, ok := raw.(neo4j.Node)
			if !ok {
				continue
			}
			papers = append(papers, storedPaperFromNode(node))
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return papers, nil
	})
	if err != nil {
		return nil, fmt.Errorf("graph: recent papers: %w", err)
	}
	return out.([]domain.StoredPaper), nil
}
