package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Thagi/paper-scope/internal/platform/logger"
	"github.com/Thagi/paper-scope/internal/services"
)

type IngestHandler struct {
	log       *logger.Logger
	ingestion *services.IngestionService
}

func NewIngestHandler(log *logger.Logger, ingestion *services.IngestionService) *IngestHandler {
	return &IngestHandler{
		log:       log.With("handler", "IngestHandler"),
		ingestion: ingestion,
	}
}

// POST /api/ingest/run
func (h *IngestHandler) Run(c *gin.Context) {
	result := h.ingestion.Run(c.Request.Context(), true)
	c.JSON(http.StatusAccepted, result)
}

// GET /api/ingest/preview
func (h *IngestHandler) Preview(c *gin.Context) {
	records, err := h.ingestion.DryRun(c.Request.Context())
	if err != nil {
		h.log.Error("ingestion preview failed", "error", err)
		RespondError(c, http.StatusBadGateway, "preview_failed", err)
		return
	}
	RespondOK(c, records)
}
