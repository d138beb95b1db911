package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type OllamaConfig struct {
	Host string `yaml:"host"`
	// Model identifier passed to the chat endpoint, e.g. "deepseek-r1".
	Model string `yaml:"model"`
	// TimeoutMs bounds a single inference request. Zero means no client
	// timeout; a slow model run is then only cancelled when the caller
	// drops the HTTP connection.
	TimeoutMs int `yaml:"timeoutMs"`
}

type QBittorrentConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type RadarrConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"apiKey"`
}

type SonarrConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"apiKey"`
}

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Ollama      OllamaConfig      `yaml:"ollama"`
	QBittorrent QBittorrentConfig `yaml:"qbittorrent"`
	Radarr      RadarrConfig      `yaml:"radarr"`
	Sonarr      SonarrConfig      `yaml:"sonarr"`
}

// Load builds the process-wide configuration: defaults, then the YAML
// file at path if one exists, then environment overrides. The result is
// constructed once at startup and passed explicitly; nothing reads
// config from ambient state afterwards.
func Load(path string) *Config {
	cfg := &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8000},
		Ollama: OllamaConfig{
			Host:  "http://192.168.0.162:11434",
			Model: "deepseek-r1",
		},
	}

	if f, err := os.Open(path); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			log.Fatalf("failed to decode config: %v", err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("failed to open config file: %v", err)
	}

	applyEnv(cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid PORT value %q: %v", v, err)
		}
		cfg.Server.Port = p
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Ollama.Host = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.Ollama.Model = v
	}
	if v := os.Getenv("QBITTORRENT_URL"); v != "" {
		cfg.QBittorrent.URL = v
	}
	if v := os.Getenv("QBITTORRENT_USERNAME"); v != "" {
		cfg.QBittorrent.Username = v
	}
	if v := os.Getenv("QBITTORRENT_PASSWORD"); v != "" {
		cfg.QBittorrent.Password = v
	}
	if v := os.Getenv("RADARR_URL"); v != "" {
		cfg.Radarr.URL = v
	}
	if v := os.Getenv("RADARR_API_KEY"); v != "" {
		cfg.Radarr.APIKey = v
	}
	if v := os.Getenv("SONARR_URL"); v != "" {
		cfg.Sonarr.URL = v
	}
	if v := os.Getenv("SONARR_API_KEY"); v != "" {
		cfg.Sonarr.APIKey = v
	}
}
