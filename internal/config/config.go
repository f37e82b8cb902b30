// Package config loads settings from an optional YAML file and the
// environment. Environment variables take precedence over file values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level"`

	OpenAI struct {
		BaseURL        string `yaml:"base_url"`
		APIKey         string `yaml:"api_key"`
		EmbeddingModel string `yaml:"embedding_model"`
		ChatModel      string `yaml:"chat_model"`
		TimeoutSecs    int    `yaml:"timeout"`
	} `yaml:"openai"`

	Store struct {
		Path       string `yaml:"path"`
		Collection string `yaml:"collection"`
	} `yaml:"store"`

	Ingest struct {
		Dir string `yaml:"dir"`
	} `yaml:"ingest"`

	Retrieval struct {
		K      int     `yaml:"k"`
		High   float64 `yaml:"high"`
		Medium float64 `yaml:"medium"`
	} `yaml:"retrieval"`

	Server struct {
		Origins   string   `yaml:"origins"` // comma-separated allowed CORS origins
		RateRPS   float64  `yaml:"rate_rps"`
		Questions []string `yaml:"questions"`
	} `yaml:"server"`
}

// DefaultQuestions is the demo question list served by GET /questions.
var DefaultQuestions = []string{
	"Who has experience with React?",
	"Who has worked remotely?",
	"Who has led teams or had leadership responsibilities?",
}

func defaults() *Config {
	cfg := &Config{Addr: ":8089", LogLevel: "info"}
	cfg.OpenAI.BaseURL = "https://api.openai.com/v1"
	cfg.OpenAI.EmbeddingModel = "text-embedding-3-small"
	cfg.OpenAI.ChatModel = "gpt-4o-mini"
	cfg.OpenAI.TimeoutSecs = 60
	cfg.Store.Path = "./cvrag.db"
	cfg.Store.Collection = "cvs"
	cfg.Ingest.Dir = "./data"
	cfg.Retrieval.K = 3
	cfg.Retrieval.High = 0.9
	cfg.Retrieval.Medium = 1.1
	cfg.Server.Origins = "http://localhost:5173"
	cfg.Server.Questions = DefaultQuestions
	return cfg
}

// Load reads path (when it exists) and applies env overrides. An empty path
// means env and defaults only.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		b, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Addr, "CVRAG_ADDR")
	setString(&c.LogLevel, "CVRAG_LOG_LEVEL")
	setString(&c.OpenAI.BaseURL, "CVRAG_OPENAI_BASE_URL")
	setString(&c.OpenAI.APIKey, "CVRAG_OPENAI_API_KEY", "OPENAI_API_KEY")
	setString(&c.OpenAI.EmbeddingModel, "CVRAG_EMBEDDING_MODEL")
	setString(&c.OpenAI.ChatModel, "CVRAG_CHAT_MODEL")
	setInt(&c.OpenAI.TimeoutSecs, "CVRAG_OPENAI_TIMEOUT")
	setString(&c.Store.Path, "CVRAG_SQLITE_PATH")
	setString(&c.Store.Collection, "CVRAG_COLLECTION")
	setString(&c.Ingest.Dir, "CVRAG_DATA_DIR")
	setInt(&c.Retrieval.K, "CVRAG_RETRIEVAL_K")
	setFloat(&c.Retrieval.High, "CVRAG_CONFIDENCE_HIGH")
	setFloat(&c.Retrieval.Medium, "CVRAG_CONFIDENCE_MEDIUM")
	setString(&c.Server.Origins, "CVRAG_FRONTEND_ORIGINS")
	setFloat(&c.Server.RateRPS, "CVRAG_RATE_LIMIT_RPS")
}

// OriginList splits the configured origins on commas, trimming whitespace.
func (c *Config) OriginList() []string {
	parts := strings.Split(c.Server.Origins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func setString(dst *string, keys ...string) {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			*dst = v
			return
		}
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
