package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Thagi/paper-scope/internal/domain"
	"github.com/Thagi/paper-scope/internal/handlers"
	"github.com/Thagi/paper-scope/internal/platform/logger"
	"github.com/Thagi/paper-scope/internal/services"
)

type stubStore struct{}

func (stubStore) GetRecentPapers(context.Context, int) ([]domain.StoredPaper, error) {
	return []domain.StoredPaper{}, nil
}

func (stubStore) GetPaper(context.Context, string) (*domain.StoredPaper, error) {
	return nil, nil
}

func (stubStore) GetPaperGraph(context.Context, string) (domain.PaperGraph, error) {
	return domain.EmptyPaperGraph(), nil
}

func (stubStore) GetPaperNetwork(context.Context, int) (domain.PaperGraph, error) {
	return domain.EmptyPaperGraph(), nil
}

func (stubStore) PaperExists(context.Context, string) (bool, error) {
	return false, nil
}

func (stubStore) UpsertPaper(context.Context, domain.PaperRecord, domain.Analysis, string) error {
	return nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()

	storage, err := services.NewStorageService(t.TempDir(), log)
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	llm := &services.MockLLMClient{}
	ingestion := services.NewIngestionService(nil, services.NewDownloader(log), storage, llm, stubStore{}, nil, 10, log)

	return NewRouter(RouterConfig{
		AllowOrigins:  []string{"http://localhost:3000"},
		PapersHandler: handlers.NewPapersHandler(log, stubStore{}, storage, llm, nil),
		GraphsHandler: handlers.NewGraphsHandler(log, stubStore{}, nil),
		IngestHandler: handlers.NewIngestHandler(log, ingestion),
	})
}

func TestRouterHealthcheck(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/papers", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow-origin header: %q", got)
	}
}

func TestRouterRoutesAreRegistered(t *testing.T) {
	r := newTestRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/papers"},
		{http.MethodGet, "/api/papers/a1/graph"},
		{http.MethodGet, "/api/graphs/network"},
		{http.MethodGet, "/api/ingest/preview"},
	}
	for _, p := range paths {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(p.method, p.path, nil))
		if rec.Code == http.StatusNotFound {
			t.Fatalf("route %s %s not registered", p.method, p.path)
		}
	}
}
