package http

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"mediarr/internal/config"
	"mediarr/internal/llm"
)

// rootHandler is a static liveness payload with no failure modes.
func rootHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"message": "Media Name Extractor API is running",
	})
}

// healthHandler probes the inference backend by listing its available
// models, the cheapest call the API offers.
func healthHandler(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)
	client := c.Locals("llm").(llm.Client)

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	if _, err := client.ListModels(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Detail: fmt.Sprintf("Ollama connection failed: %v", err),
		})
	}

	return c.JSON(fiber.Map{
		"status":      "healthy",
		"ollama_host": cfg.Ollama.Host,
		"model":       cfg.Ollama.Model,
	})
}
