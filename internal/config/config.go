// Package config loads and validates the monitor's YAML settings.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"jobmonitor/internal/domain"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Company is one employer board to poll.
type Company struct {
	Name          string            `yaml:"name" validate:"required"`
	SourceKind    domain.SourceKind `yaml:"source_kind" validate:"required"`
	SourceID      string            `yaml:"source_id" validate:"required"`
	KeywordsBoost []string          `yaml:"keywords_boost,omitempty"`
}

type Weights struct {
	HighTitle   int `yaml:"high_title"`
	MediumTitle int `yaml:"medium_title"`
	Keyword     int `yaml:"keyword" validate:"gte=0"`
	Location    int `yaml:"location" validate:"gte=0"`
	Excluded    int `yaml:"excluded" validate:"lt=0"`
}

type Config struct {
	Companies     []Company `yaml:"companies"`
	CompaniesFile string    `yaml:"companies_file,omitempty"`

	RequiredKeywords     []string `yaml:"required_keywords"`
	HighPriorityTitles   []string `yaml:"high_priority_titles"`
	MediumPriorityTitles []string `yaml:"medium_priority_titles"`
	PreferredLocations   []string `yaml:"preferred_locations"`
	ExcludedKeywords     []string `yaml:"excluded_keywords"`
	ExcludedLocations    []string `yaml:"excluded_locations,omitempty"`

	Weights Weights `yaml:"weights"`

	Scoring struct {
		MatchDescription bool `yaml:"match_description"`
	} `yaml:"scoring"`

	Fetch        Fetch        `yaml:"fetch"`
	Store        Store        `yaml:"store"`
	Output       Output       `yaml:"output"`
	Schedule     Schedule     `yaml:"schedule"`
	Notification Notification `yaml:"notification"`
}

type Fetch struct {
	Concurrency       int     `yaml:"concurrency" validate:"min=1,max=64"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" validate:"min=1"`
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gt=0"`
	Burst             int     `yaml:"burst" validate:"min=1"`
	UserAgent         string  `yaml:"user_agent"`
}

// Timeout is the per-company fetch deadline.
func (f Fetch) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

type Store struct {
	Backend       string `yaml:"backend" validate:"oneof=json sqlite"`
	Path          string `yaml:"path" validate:"required"`
	RetentionDays int    `yaml:"retention_days" validate:"gte=0"`
}

type Output struct {
	Dir          string `yaml:"dir" validate:"required"`
	MarkdownFile string `yaml:"markdown_file" validate:"required"`
	ConsoleLimit int    `yaml:"console_limit" validate:"gte=0"`
}

type Schedule struct {
	Cron string `yaml:"cron"`
}

type Notification struct {
	Email     string   `yaml:"email" validate:"omitempty,email"`
	SendEmpty bool     `yaml:"send_empty"`
	SMTP      SMTP     `yaml:"smtp"`
	Telegram  Telegram `yaml:"telegram"`
}

type SMTP struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" validate:"omitempty,min=1,max=65535"`
	Username string `yaml:"username"`
	From     string `yaml:"from"`
}

type Telegram struct {
	ChatID int64 `yaml:"chat_id"`
}

// Default returns the settings used for anything the file leaves unset.
func Default() Config {
	var cfg Config
	cfg.Weights = Weights{HighTitle: 50, MediumTitle: 30, Keyword: 10, Location: 10, Excluded: -100}
	cfg.Fetch.Concurrency = 4
	cfg.Fetch.TimeoutSeconds = 30
	cfg.Fetch.RequestsPerSecond = 2
	cfg.Fetch.Burst = 2
	cfg.Fetch.UserAgent = "Mozilla/5.0 (compatible; jobmonitor/1.0)"
	cfg.Store.Backend = "json"
	cfg.Store.Path = "seen_jobs.json"
	cfg.Output.Dir = "output"
	cfg.Output.MarkdownFile = "new_jobs.md"
	cfg.Output.ConsoleLimit = 20
	cfg.Schedule.Cron = "0 8 * * *"
	return cfg
}

// Load reads the YAML file at path on top of Default. Any failure is an
// ErrConfig; the caller should stop before fetching anything.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("%w: read %s: %v", domain.ErrConfig, path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parse %s: %v", domain.ErrConfig, path, err)
	}
	if cfg.CompaniesFile != "" {
		if err := OverlayCompanies(&cfg, resolveRelative(path, cfg.CompaniesFile)); err != nil {
			return cfg, fmt.Errorf("%w: companies file: %v", domain.ErrConfig, err)
		}
	}
	for i := range cfg.Companies {
		cfg.Companies[i].SourceKind = domain.SourceKind(strings.ToLower(strings.TrimSpace(string(cfg.Companies[i].SourceKind))))
	}
	return cfg, nil
}

// LoadEnv reads a .env file if one exists. A missing file is not an error.
func LoadEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// EnvOr returns the environment value for key, or def when unset/blank.
func EnvOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
