package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"booking-engine/internal/handler/api"
	"booking-engine/internal/handler/middleware"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/jwt"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type Handlers struct {
	Booking *api.BookingHandler
	Webhook *api.WebhookHandler
	Trip    *api.TripHandler
	Ops     *api.OpsHandler
}

func NewRouter(engine *gin.Engine, cfg config.Config, logger *slog.Logger, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	setupMiddleware(engine, cfg, logger)
	setupRoutes(engine, h, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *slog.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(logger, cfg.Log))
	engine.Use(middleware.Metrics())
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	engine.GET("/health", healthCheck)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// providers sign the body, no token involved
	addRoutes(engine.Group("/webhooks"), []route{
		{Method: http.MethodPost, Path: "/payment", Handler: h.Webhook.Payment},
	})

	v1 := engine.Group("/v1")
	{
		addRoutes(v1, []route{
			{Method: http.MethodPost, Path: "/book", Handler: h.Booking.Book},
			{Method: http.MethodGet, Path: "/trips/:id", Handler: h.Trip.GetTrip},
			{Method: http.MethodGet, Path: "/payments/:reference", Handler: h.Trip.GetPayment},
		})

		addRoutes(v1, []route{
			{
				Method:  http.MethodPost,
				Path:    "/orders/issue",
				Handler: h.Ops.Issue,
				Mw:      []gin.HandlerFunc{authMiddleware.RequireService(jwt.ScopeTicketing)},
			},
			{
				Method:  http.MethodPost,
				Path:    "/quotes/:id/cancel",
				Handler: h.Ops.Cancel,
				Mw:      []gin.HandlerFunc{authMiddleware.RequireService(jwt.ScopeQuotes)},
			},
			{
				Method:  http.MethodPost,
				Path:    "/ops/sweep",
				Handler: h.Ops.Sweep,
				Mw:      []gin.HandlerFunc{authMiddleware.RequireService(jwt.ScopeSweep)},
			},
		})
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
