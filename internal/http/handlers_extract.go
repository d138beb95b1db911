package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"mediarr/internal/config"
	"mediarr/internal/extract"
	"mediarr/internal/metrics"
)

// extractHandler implements GET /extract?q=<filename or link>. The
// inference call runs inside the request's context, so a dropped
// connection cancels it.
func extractHandler(c *fiber.Ctx) error {
	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Detail: "Query parameter 'q' is required",
		})
	}

	cfg := c.Locals("config").(*config.Config)
	svc := c.Locals("extractor").(*extract.Service)

	res, err := svc.Extract(c.Context(), q)
	if err != nil {
		metrics.RecordExtraction(cfg.Ollama.Model, false)

		var infErr *extract.InferenceError
		if errors.As(err, &infErr) {
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Detail: fmt.Sprintf("Error communicating with Ollama: %v", infErr.Unwrap()),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Detail: err.Error()})
	}
	metrics.RecordExtraction(cfg.Ollama.Model, true)

	// original_input echoes q byte-for-byte; no normalization.
	resp := ExtractionResponse{
		OriginalInput: q,
		ExtractedName: res.Name,
	}
	if res.Year != "" {
		resp.Year = &res.Year
	}
	if res.MediaType != "" {
		resp.MediaType = &res.MediaType
	}

	return c.JSON(resp)
}
