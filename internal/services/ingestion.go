package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Thagi/paper-scope/internal/domain"
	"github.com/Thagi/paper-scope/internal/platform/logger"
)

// GraphStore is the slice of the graph repository the ingestion pipeline
// needs.
type GraphStore interface {
	PaperExists(ctx context.Context, externalID string) (bool, error)
	UpsertPaper(ctx context.Context, record domain.PaperRecord, analysis domain.Analysis, storagePath string) error
}

// IngestionService coordinates the end-to-end pipeline: discover trending
// papers, download their PDFs, enrich them and persist the results into the
// graph. One failing paper is recorded in the run details and never aborts
// the rest of the batch; the graph repository performs no retries of its own.
type IngestionService struct {
	sources    []TrendingSource
	downloader *Downloader
	storage    *StorageService
	llm        LLMClient
	store      GraphStore
	cache      *GraphCache
	limit      int
	log        *logger.Logger
}

func NewIngestionService(
	sources []TrendingSource,
	downloader *Downloader,
	storage *StorageService,
	llm LLMClient,
	store GraphStore,
	cache *GraphCache,
	limit int,
	log *logger.Logger,
) *IngestionService {
	if limit <= 0 {
		limit = 10
	}
	return &IngestionService{
		sources:    sources,
		downloader: downloader,
		storage:    storage,
		llm:        llm,
		store:      store,
		cache:      cache,
		limit:      limit,
		log:        log.With("service", "IngestionService"),
	}
}

type sourceBatch struct {
	name    string
	records []domain.PaperRecord
	err     error
}

// Run executes one ingestion pass over every configured source. Sources are
// fetched concurrently; papers are then processed in discovery order so
// per-item log output and details stay readable.
func (s *IngestionService) Run(ctx context.Context, manualTrigger bool) domain.IngestionResult {
	result := domain.IngestionResult{
		RunID:         uuid.NewString(),
		ManualTrigger: manualTrigger,
		Details:       []domain.IngestionDetail{},
	}
	log := s.log.With("run_id", result.RunID)
	log.Info("ingestion run starting", "sources", len(s.sources), "limit", s.limit)

	for _, batch := range s.fetchAll(ctx) {
		if batch.err != nil {
			log.Warn("source fetch failed", "source", batch.name, "error", batch.err)
			result.Details = append(result.Details, domain.IngestionDetail{
				Source: batch.name,
				Status: "failed",
				Error:  batch.err.Error(),
			})
			continue
		}
		if len(batch.records) == 0 {
			result.Details = append(result.Details, domain.IngestionDetail{
				Source: batch.name,
				Status: "skipped",
				Reason: "no_records",
			})
			continue
		}

		result.Discovered += len(batch.records)
		for _, record := range batch.records {
			detail := s.ingestOne(ctx, log, batch.name, record, &result)
			result.Details = append(result.Details, detail)
		}
	}

	s.cache.Invalidate(ctx)
	log.Info("ingestion run finished",
		"discovered", result.Discovered,
		"downloaded", result.Downloaded,
		"enriched", result.Enriched,
		"persisted", result.Persisted,
	)
	return result
}

func (s *IngestionService) ingestOne(ctx context.Context, log *logger.Logger, sourceName string, record domain.PaperRecord, result *domain.IngestionResult) domain.IngestionDetail {
	detail := domain.IngestionDetail{Source: sourceName, ExternalID: record.ExternalID}

	exists, err := s.store.PaperExists(ctx, record.ExternalID)
	if err != nil {
		log.Warn("existence check failed", "external_id", record.ExternalID, "error", err)
		detail.Status = "failed"
		detail.Error = err.Error()
		return detail
	}

	pdfPath, err := s.storage.PDFPath(record)
	if err == nil {
		err = s.downloader.Download(ctx, record.PDFURL, pdfPath)
	}
	if err != nil {
		log.Warn("download failed", "external_id", record.ExternalID, "error", err)
		detail.Status = "failed"
		detail.Error = err.Error()
		return detail
	}
	result.Downloaded++

	analysis, err := s.llm.Analyze(ctx, record, pdfPath)
	if err != nil {
		log.Warn("enrichment failed", "external_id", record.ExternalID, "error", err)
		detail.Status = "failed"
		detail.Error = err.Error()
		return detail
	}
	result.Enriched++

	if _, err := s.storage.WriteMetadata(record, &analysis); err != nil {
		log.Warn("metadata write failed", "external_id", record.ExternalID, "error", err)
		detail.Status = "failed"
		detail.Error = err.Error()
		return detail
	}

	directory, err := s.storage.PaperDirectory(record)
	if err == nil {
		err = s.store.UpsertPaper(ctx, record, analysis, directory)
	}
	if err != nil {
		log.Warn("graph upsert failed", "external_id", record.ExternalID, "error", err)
		detail.Status = "failed"
		detail.Error = err.Error()
		return detail
	}
	result.Persisted++

	if exists {
		detail.Status = "updated"
	} else {
		detail.Status = "ingested"
	}
	return detail
}

// fetchAll queries every source concurrently, preserving source order in the
// returned batches.
func (s *IngestionService) fetchAll(ctx context.Context) []sourceBatch {
	batches := make([]sourceBatch, len(s.sources))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, source := range s.sources {
		i, source := i, source
		g.Go(func() error {
			records, err := source.Fetch(gctx, s.limit)
			mu.Lock()
			batches[i] = sourceBatch{name: source.Name(), records: records, err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return batches
}

// DryRun fetches records from every source without mutating any state.
func (s *IngestionService) DryRun(ctx context.Context) ([]domain.PaperRecord, error) {
	records := make([]domain.PaperRecord, 0, s.limit*len(s.sources))
	for _, batch := range s.fetchAll(ctx) {
		if batch.err != nil {
			return nil, batch.err
		}
		records = append(records, batch.records...)
	}
	return records, nil
}
