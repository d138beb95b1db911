package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"mediarr/internal/detect"
	"mediarr/internal/extract"
	"mediarr/internal/metrics"
	"mediarr/internal/qbittorrent"
	"mediarr/internal/radarr"
	"mediarr/internal/sonarr"
)

// qBittorrent categories double as the routing decision between the
// two library backends.
const (
	categoryMovies = "radarr"
	categorySeries = "sonarr"
)

// addTorrentHandler implements POST /api/torrent: classify the magnet,
// hand it to qBittorrent under the right category, then register the
// title with Radarr or Sonarr.
func addTorrentHandler(c *fiber.Ctx) error {
	var req AddTorrentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(AddTorrentResponse{
			Success: false,
			Message: "Invalid request body: " + err.Error(),
		})
	}

	if req.MagnetLink == "" {
		return c.Status(fiber.StatusBadRequest).JSON(AddTorrentResponse{
			Success: false,
			Message: "Magnet link is required",
		})
	}
	if !detect.IsMagnetLink(req.MagnetLink) {
		return c.Status(fiber.StatusBadRequest).JSON(AddTorrentResponse{
			Success: false,
			Message: "Invalid magnet link format",
		})
	}

	var mediaType detect.MediaType
	switch req.Type {
	case "":
		mediaType = detect.Detect(req.MagnetLink)
	case "movie":
		mediaType = detect.Movie
	case "tv", "series":
		mediaType = detect.TV
	default:
		return c.Status(fiber.StatusBadRequest).JSON(AddTorrentResponse{
			Success: false,
			Message: "Invalid type. Use 'movie' or 'tv'",
		})
	}

	category := categoryMovies
	if mediaType == detect.TV {
		category = categorySeries
	}

	logger := requestLogger(c)
	logger.Info("adding torrent", "category", category)

	// Best-effort title extraction. A model failure falls back to the
	// regex cleaner and never blocks the qBittorrent add.
	svc := c.Locals("extractor").(*extract.Service)
	torrentName := detect.NameFromMagnet(req.MagnetLink)

	var title string
	if res, err := svc.Extract(c.Context(), torrentName); err != nil {
		logger.Warn("title extraction failed, using regex cleanup", "error", err)
		if mediaType == detect.TV {
			title = detect.CleanSeriesTitle(torrentName)
		} else {
			title = detect.CleanTitle(torrentName)
		}
	} else {
		title = res.Name
	}

	qb := c.Locals("qbittorrent").(*qbittorrent.Client)
	if err := qb.EnsureCategory(c.Context(), category); err != nil {
		logger.Warn("could not ensure category exists", "error", err)
	}

	if err := qb.AddTorrent(c.Context(), req.MagnetLink, category); err != nil {
		metrics.RecordTorrentAdd(category, false)
		logger.Error("adding torrent failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(AddTorrentResponse{
			Success: false,
			Message: "Failed to add torrent: " + err.Error(),
		})
	}
	metrics.RecordTorrentAdd(category, true)

	addToLibrary := req.AddToLibrary == nil || *req.AddToLibrary
	mediaTitle := title
	addedToLibrary := false

	if addToLibrary && title != "" {
		if mediaType == detect.Movie {
			rc := c.Locals("radarr").(*radarr.Client)
			movie, err := rc.AddByTerm(c.Context(), title, false)
			switch {
			case err == nil:
				logger.Info("movie added to radarr", "title", movie.Title)
				mediaTitle = movie.Title
				addedToLibrary = true
			case alreadyExists(err):
				logger.Info("movie already in radarr", "error", err)
			default:
				logger.Warn("could not add movie to radarr", "error", err)
			}
			metrics.RecordMediaAdd("movie", addedToLibrary)
		} else {
			sc := c.Locals("sonarr").(*sonarr.Client)
			series, err := sc.AddByTerm(c.Context(), title, false)
			switch {
			case err == nil:
				logger.Info("series added to sonarr", "title", series.Title)
				mediaTitle = series.Title
				addedToLibrary = true
			case alreadyExists(err):
				logger.Info("series already in sonarr", "error", err)
			default:
				logger.Warn("could not add series to sonarr", "error", err)
			}
			metrics.RecordMediaAdd("tv", addedToLibrary)
		}
	}

	message := "Torrent added to qBittorrent"
	if addedToLibrary {
		if mediaType == detect.Movie {
			message += " and movie added to Radarr"
		} else {
			message += " and series added to Sonarr"
		}
	}

	return c.JSON(AddTorrentResponse{
		Success:        true,
		Message:        message,
		Category:       category,
		MediaTitle:     mediaTitle,
		AddedToLibrary: addedToLibrary,
	})
}

// alreadyExists spots the duplicate-add errors Radarr and Sonarr return
// as plain 400s.
func alreadyExists(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "already") || strings.Contains(msg, "exists")
}
