package middleware

import (
	"log/slog"
	"slices"

	"booking-engine/internal/pkg/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// headers browsers must be able to read on booking responses
var bookingExposeHeaders = []string{"Idempotent-Replayed", "Retry-After"}

func NewCORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	expose := slices.Clone(cfg.ExposeHeaders)
	for _, h := range bookingExposeHeaders {
		if !slices.Contains(expose, h) {
			expose = append(expose, h)
		}
	}

	corsCfg := cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    expose,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}
	slog.Info("CORS middleware initialized", "allow_origins", cfg.AllowOrigins, "expose_headers", expose)
	return cors.New(corsCfg)
}
