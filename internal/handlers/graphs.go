package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Thagi/paper-scope/internal/domain"
	"github.com/Thagi/paper-scope/internal/platform/logger"
	"github.com/Thagi/paper-scope/internal/services"
)

// NetworkStore projects the cross-paper concept network.
type NetworkStore interface {
	GetPaperNetwork(ctx context.Context, limit int) (domain.PaperGraph, error)
}

type GraphsHandler struct {
	log   *logger.Logger
	store NetworkStore
	cache *services.GraphCache
}

func NewGraphsHandler(log *logger.Logger, store NetworkStore, cache *services.GraphCache) *GraphsHandler {
	return &GraphsHandler{
		log:   log.With("handler", "GraphsHandler"),
		store: store,
		cache: cache,
	}
}

// GET /api/graphs/network
func (h *GraphsHandler) Network(c *gin.Context) {
	limit := queryInt(c, "limit", 50, 1, 200)

	cacheKey := fmt.Sprintf("network:%d", limit)
	var cached domain.PaperGraph
	if h.cache.Get(c.Request.Context(), cacheKey, &cached) {
		RespondOK(c, cached)
		return
	}

	graph, err := h.store.GetPaperNetwork(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("network projection failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "graph_unavailable", err)
		return
	}
	h.cache.Set(c.Request.Context(), cacheKey, graph)
	RespondOK(c, graph)
}
