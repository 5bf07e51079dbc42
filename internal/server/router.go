package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Thagi/paper-scope/internal/handlers"
)

type RouterConfig struct {
	AllowOrigins   []string
	PapersHandler  *handlers.PapersHandler
	GraphsHandler  *handlers.GraphsHandler
	IngestHandler  *handlers.IngestHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Papers
		api.GET("/papers", cfg.PapersHandler.List)
		api.GET("/papers/:external_id/graph", cfg.PapersHandler.Graph)
		api.GET("/papers/:external_id/pdf", cfg.PapersHandler.PDF)
		api.POST("/papers/:external_id/chapters/regenerate", cfg.PapersHandler.RegenerateChapters)
		// Graphs
		api.GET("/graphs/network", cfg.GraphsHandler.Network)
		// Ingestion
		api.POST("/ingest/run", cfg.IngestHandler.Run)
		api.GET("/ingest/preview", cfg.IngestHandler.Preview)
	}

	return router
}
