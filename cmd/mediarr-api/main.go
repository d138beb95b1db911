package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"mediarr/internal/config"
	"mediarr/internal/extract"
	server "mediarr/internal/http"
	"mediarr/internal/llm"
	"mediarr/internal/qbittorrent"
	"mediarr/internal/radarr"
	"mediarr/internal/sonarr"
)

func main() {
	// Load .env file if it exists
	godotenv.Load()

	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg := config.Load(*configPath)

	// Set up logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))

	ollama := llm.NewOllamaClient(cfg.Ollama.Host, cfg.Ollama.Model,
		time.Duration(cfg.Ollama.TimeoutMs)*time.Millisecond)

	deps := server.Deps{
		LLM:       ollama,
		Extractor: extract.NewService(ollama),
		Torrents:  qbittorrent.NewClient(cfg.QBittorrent.URL, cfg.QBittorrent.Username, cfg.QBittorrent.Password),
		Radarr:    radarr.NewClient(cfg.Radarr.URL, cfg.Radarr.APIKey),
		Sonarr:    sonarr.NewClient(cfg.Sonarr.URL, cfg.Sonarr.APIKey),
	}

	s := server.NewServer(cfg, deps, logger)

	logger.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"ollama_host", cfg.Ollama.Host,
		"model", cfg.Ollama.Model,
	)

	if err := s.Listen(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
