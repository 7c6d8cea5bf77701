package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"imageapi/internal/config"
	"imageapi/internal/domain/images"
	"imageapi/internal/middleware"
	"imageapi/internal/pkg/response"
	"imageapi/internal/storage"
)

const healthTimeout = 2 * time.Second

// NewRouter wires the image module onto a gin engine.
func NewRouter(cfg *config.Config, db *gorm.DB, store *storage.FileStore, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.MaxMultipartMemory = cfg.MaxUploadBytes

	r.GET("/healthz", healthHandler(db))

	imageService := images.NewService(images.NewRepository(db), store, logger)
	images.RegisterRoutes(r.Group(""), images.NewHandler(imageService, cfg.MaxUploadBytes))

	return r
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			_ = c.Error(err)
			response.Error(c, http.StatusServiceUnavailable, "UNAVAILABLE", "database unreachable")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
