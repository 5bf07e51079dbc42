package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Thagi/paper-scope/internal/domain"
	"github.com/Thagi/paper-scope/internal/platform/apierr"
	"github.com/Thagi/paper-scope/internal/platform/logger"
	"github.com/Thagi/paper-scope/internal/services"
)

// PaperStore is the slice of the graph repository the paper routes need.
type PaperStore interface {
	GetRecentPapers(ctx context.Context, limit int) ([]domain.StoredPaper, error)
	GetPaper(ctx context.Context, externalID string) (*domain.StoredPaper, error)
	GetPaperGraph(ctx context.Context, externalID string) (domain.PaperGraph, error)
	UpsertPaper(ctx context.Context, record domain.PaperRecord, analysis domain.Analysis, storagePath string) error
}

type PapersHandler struct {
	log     *logger.Logger
	store   PaperStore
	storage *services.StorageService
	llm     services.LLMClient
	cache   *services.GraphCache
}

func NewPapersHandler(log *logger.Logger, store PaperStore, storage *services.StorageService, llm services.LLMClient, cache *services.GraphCache) *PapersHandler {
	return &PapersHandler{
		log:     log.With("handler", "PapersHandler"),
		store:   store,
		storage: storage,
		llm:     llm,
		cache:   cache,
	}
}

// GET /api/papers
func (h *PapersHandler) List(c *gin.Context) {
	limit := queryInt(c, "limit", 25, 1, 100)

	cacheKey := fmt.Sprintf("recent:%d", limit)
	var cached []domain.StoredPaper
	if h.cache.Get(c.Request.Context(), cacheKey, &cached) {
		RespondOK(c, cached)
		return
	}

	papers, err := h.store.GetRecentPapers(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("listing recent papers failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "papers_unavailable", err)
		return
	}
	h.cache.Set(c.Request.Context(), cacheKey, papers)
	RespondOK(c, papers)
}

// GET /api/papers/:external_id/graph
func (h *PapersHandler) Graph(c *gin.Context) {
	externalID := c.Param("external_id")
	graph, err := h.store.GetPaperGraph(c.Request.Context(), externalID)
	if err != nil {
		h.log.Error("paper graph projection failed", "external_id", externalID, "error", err)
		RespondError(c, http.StatusInternalServerError, "graph_unavailable", err)
		return
	}
	RespondOK(c, graph)
}

// GET /api/papers/:external_id/pdf
func (h *PapersHandler) PDF(c *gin.Context) {
	externalID := c.Param("external_id")
	paper, err := h.store.GetPaper(c.Request.Context(), externalID)
	if err != nil {
		h.log.Error("paper lookup failed", "external_id", externalID, "error", err)
		RespondError(c, http.StatusInternalServerError, "paper_unavailable", err)
		return
	}
	if paper == nil || paper.StoragePath == "" {
		RespondError(c, http.StatusNotFound, "paper_not_found", fmt.Errorf("paper not found"))
		return
	}
	pdfPath := h.storage.PDFPathIn(paper.StoragePath)
	if _, err := os.Stat(pdfPath); err != nil {
		RespondError(c, http.StatusNotFound, "pdf_not_available", fmt.Errorf("pdf not available"))
		return
	}
	c.FileAttachment(pdfPath, externalID+".pdf")
}

// POST /api/papers/:external_id/chapters/regenerate
func (h *PapersHandler) RegenerateChapters(c *gin.Context) {
	externalID := c.Param("external_id")
	refreshed, err := h.regenerate(c.Request.Context(), externalID)
	if err != nil {
		h.log.Error("chapter regeneration failed", "external_id", externalID, "error", err)
		RespondFromError(c, err)
		return
	}
	RespondOK(c, refreshed)
}

func (h *PapersHandler) regenerate(ctx context.Context, externalID string) (*domain.StoredPaper, error) {
	paper, err := h.store.GetPaper(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if paper == nil {
		return nil, apierr.New(http.StatusNotFound, "paper_not_found", fmt.Errorf("paper not found"))
	}
	if paper.StoragePath == "" {
		return nil, apierr.New(http.StatusBadRequest, "storage_path_missing", fmt.Errorf("paper storage path not available for regeneration"))
	}

	record, err := h.storage.LoadRecord(paper.StoragePath)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apierr.New(http.StatusBadRequest, "metadata_missing", fmt.Errorf("stored paper metadata is missing or invalid"))
	}

	pdfPath := h.storage.PDFPathIn(paper.StoragePath)
	if _, err := os.Stat(pdfPath); err != nil {
		pdfPath = ""
	}

	analysis, err := h.llm.Analyze(ctx, *record, pdfPath)
	if err != nil {
		return nil, err
	}
	if _, err := h.storage.WriteMetadata(*record, &analysis); err != nil {
		return nil, err
	}
	if err := h.store.UpsertPaper(ctx, *record, analysis, paper.StoragePath); err != nil {
		return nil, err
	}
	h.cache.Invalidate(ctx)

	refreshed, err := h.store.GetPaper(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if refreshed == nil {
		return nil, apierr.New(http.StatusInternalServerError, "reload_failed", fmt.Errorf("failed to load regenerated paper"))
	}
	return refreshed, nil
}

func queryInt(c *gin.Context, name string, def, min, max int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
