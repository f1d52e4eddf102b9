package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/lexibatch/internal/scheduling"
)

// RouterConfig configures NewRouter
type RouterConfig struct {
	JWTSecret        string
	CORSOrigins      []string
	DefaultBatchSize int
	Logger           *slog.Logger
	// Health reports storage reachability for /health; nil means always healthy
	Health func(ctx context.Context) error
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// NewRouter wires handlers and middleware onto a gin engine
func NewRouter(svc *scheduling.Service, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.Use(MetricsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		if cfg.Health != nil {
			if err := cfg.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	schedulerHandler := NewSchedulerHandler(svc, cfg.DefaultBatchSize, cfg.Logger)
	sessionHandler := NewSessionHandler(svc, cfg.Logger)

	api := r.Group("/api")
	api.Use(AuthMiddleware(cfg.JWTSecret))
	{
		// Batch learner
		api.POST("/review", schedulerHandler.Review)
		api.POST("/create-batches", schedulerHandler.CreateBatches)
		api.POST("/activate-next", schedulerHandler.ActivateNext)
		api.GET("/batch-stats", schedulerHandler.BatchStats)
		api.GET("/batch-cards", schedulerHandler.BatchCards)
		api.GET("/batches", schedulerHandler.ListBatches)

		// Databases
		api.GET("/databases", schedulerHandler.ListDatabases)
		api.DELETE("/databases/:id", schedulerHandler.DeleteDatabase)
		api.DELETE("/databases/:id/batches", schedulerHandler.DeleteBatches)
		api.POST("/databases/:id/known", schedulerHandler.MarkKnown)

		// Anki-style deck
		api.GET("/anki/deck", schedulerHandler.Deck)
		api.POST("/anki/review", schedulerHandler.ReviewDeck)

		// Study sessions
		api.POST("/sessions", sessionHandler.Create)
		api.GET("/sessions/:id", sessionHandler.Get)
		api.POST("/sessions/:id/reveal", sessionHandler.Reveal)
		api.POST("/sessions/:id/answer", sessionHandler.Answer)

		// Settings
		api.GET("/settings/notifications", schedulerHandler.GetNotificationSettings)
		api.PUT("/settings/notifications", schedulerHandler.UpdateNotificationSettings)
	}

	return r
}
