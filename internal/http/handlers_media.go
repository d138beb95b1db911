package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"mediarr/internal/metrics"
	"mediarr/internal/radarr"
	"mediarr/internal/sonarr"
)

// addMediaHandler implements POST /api/media: add a movie or series to
// the library by name, letting the backend hunt for a release.
func addMediaHandler(c *fiber.Ctx) error {
	var req AddMediaRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(AddMediaResponse{
			Success: false,
			Message: "Invalid request body: " + err.Error(),
		})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(AddMediaResponse{
			Success: false,
			Message: "Name is required",
		})
	}
	if req.Type == "" {
		return c.Status(fiber.StatusBadRequest).JSON(AddMediaResponse{
			Success: false,
			Message: "Type is required (movie or tv)",
		})
	}

	mediaType := strings.ToLower(req.Type)
	if mediaType != "movie" && mediaType != "tv" && mediaType != "series" {
		return c.Status(fiber.StatusBadRequest).JSON(AddMediaResponse{
			Success: false,
			Message: "Invalid type. Use 'movie' or 'tv'",
		})
	}

	// The year narrows the lookup when the caller knows it.
	term := req.Name
	if req.Year != "" {
		term = term + " " + req.Year
	}

	logger := requestLogger(c)
	logger.Info("adding media", "term", term, "type", mediaType)

	if mediaType == "movie" {
		rc := c.Locals("radarr").(*radarr.Client)
		movie, err := rc.AddByTerm(c.Context(), term, true)
		if err != nil {
			metrics.RecordMediaAdd("movie", false)
			logger.Error("adding movie failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(AddMediaResponse{
				Success: false,
				Message: "Failed to add movie: " + err.Error(),
			})
		}
		metrics.RecordMediaAdd("movie", true)

		return c.JSON(AddMediaResponse{
			Success:    true,
			Message:    "Movie added to Radarr",
			MediaTitle: movie.Title,
			MediaType:  "movie",
			MediaID:    movie.ID,
		})
	}

	sc := c.Locals("sonarr").(*sonarr.Client)
	series, err := sc.AddByTerm(c.Context(), term, true)
	if err != nil {
		metrics.RecordMediaAdd("tv", false)
		logger.Error("adding series failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(AddMediaResponse{
			Success: false,
			Message: "Failed to add series: " + err.Error(),
		})
	}
	metrics.RecordMediaAdd("tv", true)

	return c.JSON(AddMediaResponse{
		Success:    true,
		Message:    "Series added to Sonarr",
		MediaTitle: series.Title,
		MediaType:  "tv",
		MediaID:    series.ID,
	})
}
