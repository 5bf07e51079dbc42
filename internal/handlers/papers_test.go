package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Thagi/paper-scope/internal/domain"
	"github.com/Thagi/paper-scope/internal/platform/logger"
	"github.com/Thagi/paper-scope/internal/services"
)

type fakePaperStore struct {
	papers    []domain.StoredPaper
	paper     *domain.StoredPaper
	graph     domain.PaperGraph
	listErr   error
	getErr    error
	graphErr  error
	upsertErr error

	lastLimit int
	listCalls int
	upserts   int
}

func (f *fakePaperStore) GetRecentPapers(_ context.Context, limit int) ([]domain.StoredPaper, error) {
	f.lastLimit = limit
	f.listCalls++
	return f.papers, f.listErr
}

func (f *fakePaperStore) GetPaper(_ context.Context, _ string) (*domain.StoredPaper, error) {
	return f.paper, f.getErr
}

func (f *fakePaperStore) GetPaperGraph(_ context.Context, _ string) (domain.PaperGraph, error) {
	if f.graphErr != nil {
		return domain.EmptyPaperGraph(), f.graphErr
	}
	return f.graph, nil
}

func (f *fakePaperStore) UpsertPaper(_ context.Context, _ domain.PaperRecord, _ domain.Analysis, _ string) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts++
	return nil
}

func testStorage(t *testing.T) *services.StorageService {
	t.Helper()
	storage, err := services.NewStorageService(t.TempDir(), logger.NewNop())
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	return storage
}

func newPapersRouter(t *testing.T, store *fakePaperStore, storage *services.StorageService, cache *services.GraphCache) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewPapersHandler(logger.NewNop(), store, storage, &services.MockLLMClient{}, cache)
	r := gin.New()
	r.GET("/api/papers", h.List)
	r.GET("/api/papers/:external_id/graph", h.Graph)
	r.GET("/api/papers/:external_id/pdf", h.PDF)
	r.POST("/api/papers/:external_id/chapters/regenerate", h.RegenerateChapters)
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListPapers(t *testing.T) {
	store := &fakePaperStore{papers: []domain.StoredPaper{
		{PaperID: "a1", Title: "Paper One", Tags: []string{}, Authors: []string{}, KeyPoints: []string{}},
	}}
	r := newPapersRouter(t, store, testStorage(t), nil)

	rec := doRequest(t, r, http.MethodGet, "/api/papers")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	if store.lastLimit != 25 {
		t.Fatalf("default limit should be 25, got %d", store.lastLimit)
	}

	var papers []domain.StoredPaper
	if err := json.Unmarshal(rec.Body.Bytes(), &papers); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(papers) != 1 || papers[0].PaperID != "a1" {
		t.Fatalf("unexpected payload: %+v", papers)
	}
}

func TestListPapersClampsLimit(t *testing.T) {
	store := &fakePaperStore{}
	r := newPapersRouter(t, store, testStorage(t), nil)

	doRequest(t, r, http.MethodGet, "/api/papers?limit=9999")
	if store.lastLimit != 100 {
		t.Fatalf("limit should clamp to 100, got %d", store.lastLimit)
	}

	doRequest(t, r, http.MethodGet, "/api/papers?limit=0")
	if store.lastLimit != 1 {
		t.Fatalf("limit should clamp to 1, got %d", store.lastLimit)
	}

	doRequest(t, r, http.MethodGet, "/api/papers?limit=nonsense")
	if store.lastLimit != 25 {
		t.Fatalf("unparseable limit should fall back to 25, got %d", store.lastLimit)
	}
}

func TestListPapersStoreFailure(t *testing.T) {
	store := &fakePaperStore{listErr: fmt.Errorf("store down")}
	r := newPapersRouter(t, store, testStorage(t), nil)

	rec := doRequest(t, r, http.MethodGet, "/api/papers")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var envelope ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Code != "papers_unavailable" {
		t.Fatalf("unexpected error code: %s", envelope.Error.Code)
	}
}

func TestListPapersServesFromCache(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { rdb.Close() })
	cache := services.NewGraphCache(rdb, time.Minute, logger.NewNop())

	store := &fakePaperStore{papers: []domain.StoredPaper{{PaperID: "a1", Title: "Paper One"}}}
	r := newPapersRouter(t, store, testStorage(t), cache)

	if rec := doRequest(t, r, http.MethodGet, "/api/papers"); rec.Code != http.StatusOK {
		t.Fatalf("first request failed: %d", rec.Code)
	}

	// The second request must be answered from the cache without touching
	// the store again.
	store.listErr = fmt.Errorf("store down")
	rec := doRequest(t, r, http.MethodGet, "/api/papers")
	if rec.Code != http.StatusOK {
		t.Fatalf("cached request failed: %d body=%s", rec.Code, rec.Body.String())
	}
	if store.listCalls != 1 {
		t.Fatalf("store should be hit once, got %d", store.listCalls)
	}
}

func TestPaperGraphUnknownIDIsEmptyOK(t *testing.T) {
	store := &fakePaperStore{graph: domain.EmptyPaperGraph()}
	r := newPapersRouter(t, store, testStorage(t), nil)

	rec := doRequest(t, r, http.MethodGet, "/api/papers/missing/graph")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var graph domain.PaperGraph
	if err := json.Unmarshal(rec.Body.Bytes(), &graph); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if graph.Nodes == nil || graph.Edges == nil {
		t.Fatalf("empty graph should serialize with empty arrays, body=%s", rec.Body.String())
	}
	if len(graph.Nodes) != 0 || len(graph.Edges) != 0 {
		t.Fatalf("expected empty graph, got %+v", graph)
	}
}

func TestPaperGraphStoreFailure(t *testing.T) {
	store := &fakePaperStore{graphErr: fmt.Errorf("store down")}
	r := newPapersRouter(t, store, testStorage(t), nil)

	rec := doRequest(t, r, http.MethodGet, "/api/papers/a1/graph")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestPaperPDFNotFound(t *testing.T) {
	r := newPapersRouter(t, &fakePaperStore{}, testStorage(t), nil)

	rec := doRequest(t, r, http.MethodGet, "/api/papers/a1/pdf")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestPaperPDFMissingFile(t *testing.T) {
	dir := t.TempDir()
	store := &fakePaperStore{paper: &domain.StoredPaper{PaperID: "a1", Title: "Paper One", StoragePath: dir}}
	r := newPapersRouter(t, store, testStorage(t), nil)

	rec := doRequest(t, r, http.MethodGet, "/api/papers/a1/pdf")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestPaperPDFServed(t *testing.T) {
	storage := testStorage(t)
	dir := t.TempDir()
	if err := os.WriteFile(storage.PDFPathIn(dir), []byte("%PDF-1.4 test"), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	store := &fakePaperStore{paper: &domain.StoredPaper{PaperID: "a1", Title: "Paper One", StoragePath: dir}}
	r := newPapersRouter(t, store, storage, nil)

	rec := doRequest(t, r, http.MethodGet, "/api/papers/a1/pdf")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got == "" {
		t.Fatal("expected an attachment disposition header")
	}
}

func TestRegenerateChaptersUnknownPaper(t *testing.T) {
	r := newPapersRouter(t, &fakePaperStore{}, testStorage(t), nil)

	rec := doRequest(t, r, http.MethodPost, "/api/papers/a1/chapters/regenerate")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var envelope ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Code != "paper_not_found" {
		t.Fatalf("unexpected error code: %s", envelope.Error.Code)
	}
}

func TestRegenerateChaptersMissingStoragePath(t *testing.T) {
	store := &fakePaperStore{paper: &domain.StoredPaper{PaperID: "a1", Title: "Paper One"}}
	r := newPapersRouter(t, store, testStorage(t), nil)

	rec := doRequest(t, r, http.MethodPost, "/api/papers/a1/chapters/regenerate")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestRegenerateChaptersMissingManifest(t *testing.T) {
	store := &fakePaperStore{paper: &domain.StoredPaper{PaperID: "a1", Title: "Paper One", StoragePath: t.TempDir()}}
	r := newPapersRouter(t, store, testStorage(t), nil)

	rec := doRequest(t, r, http.MethodPost, "/api/papers/a1/chapters/regenerate")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var envelope ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Code != "metadata_missing" {
		t.Fatalf("unexpected error code: %s", envelope.Error.Code)
	}
}

func TestRegenerateChaptersHappyPath(t *testing.T) {
	storage := testStorage(t)
	record := domain.PaperRecord{
		ExternalID: "a1",
		Source:     "huggingface",
		Title:      "Paper One",
		Tags:       []string{"llm"},
	}
	dir, err := storage.PaperDirectory(record)
	if err != nil {
		t.Fatalf("paper directory: %v", err)
	}
	if _, err := storage.WriteMetadata(record, nil); err != nil {
		t.Fatalf("write metadata: %v", err)
	}

	store := &fakePaperStore{paper: &domain.StoredPaper{PaperID: "a1", Title: "Paper One", StoragePath: dir}}
	r := newPapersRouter(t, store, storage, nil)

	rec := doRequest(t, r, http.MethodPost, "/api/papers/a1/chapters/regenerate")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	if store.upserts != 1 {
		t.Fatalf("expected one upsert, got %d", store.upserts)
	}

	var refreshed domain.StoredPaper
	if err := json.Unmarshal(rec.Body.Bytes(), &refreshed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if refreshed.PaperID != "a1" {
		t.Fatalf("unexpected payload: %+v", refreshed)
	}

	// The regenerated manifest must be back on disk.
	loaded, err := storage.LoadRecord(dir)
	if err != nil || loaded == nil {
		t.Fatalf("manifest missing after regeneration: %v", err)
	}
}
