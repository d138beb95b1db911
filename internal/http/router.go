package http

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"

	"mediarr/internal/config"
	"mediarr/internal/extract"
	"mediarr/internal/llm"
	"mediarr/internal/metrics"
	"mediarr/internal/qbittorrent"
	"mediarr/internal/radarr"
	"mediarr/internal/sonarr"
)

// Deps bundles the outbound clients the handlers use.
type Deps struct {
	LLM       llm.Client
	Extractor *extract.Service
	Torrents  *qbittorrent.Client
	Radarr    *radarr.Client
	Sonarr    *sonarr.Client
}

type Server struct {
	app    *fiber.App
	config *config.Config
	logger *slog.Logger
}

func NewServer(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	app := fiber.New()

	// Any origin may call this service, with credentials. Fiber rejects
	// the literal "*" together with AllowCredentials, so echo every
	// origin back instead.
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(string) bool { return true },
		AllowCredentials: true,
	}))

	// Inject config and clients into context for handlers
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("config", cfg)
		c.Locals("llm", deps.LLM)
		c.Locals("extractor", deps.Extractor)
		c.Locals("qbittorrent", deps.Torrents)
		c.Locals("radarr", deps.Radarr)
		c.Locals("sonarr", deps.Sonarr)
		return c.Next()
	})

	// Request logging + metrics middleware
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()

		// Ensure a request ID exists
		reqID := c.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Locals("request_id", reqID)
		if logger != nil {
			c.Locals("logger", logger.With("request_id", reqID))
		}

		err := c.Next()

		latency := time.Since(start)
		status := c.Response().StatusCode()
		method := c.Method()
		path := c.Path()

		metrics.RecordRequest(method, path, status, latency.Milliseconds())

		if logger != nil {
			logger.Info("request",
				"request_id", reqID,
				"method", method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}

		return err
	})

	app.Get("/", rootHandler)
	app.Get("/health", healthHandler)
	app.Get("/extract", extractHandler)

	// Prometheus-style metrics endpoint
	app.Get("/metrics", func(c *fiber.Ctx) error {
		c.Type("text/plain")
		return c.SendString(metrics.Export())
	})

	app.Post("/api/torrent", addTorrentHandler)
	app.Post("/api/media", addMediaHandler)

	return &Server{
		app:    app,
		config: cfg,
		logger: logger,
	}
}

func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	return s.app.Listen(addr)
}

// requestLogger returns the per-request logger, or a default one in
// tests that skip the middleware.
func requestLogger(c *fiber.Ctx) *slog.Logger {
	if l, ok := c.Locals("logger").(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
