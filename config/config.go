package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Config encapsulates build-time and preview-server options.
type Config struct {
	SiteName      string `json:"siteName"`
	BaseURL       string `json:"baseUrl"`
	ContentDir    string `json:"contentDir"`
	TemplateDir   string `json:"templateDir"`
	OutputDir     string `json:"outputDir"`
	DefaultLayout string `json:"defaultLayout"`
	IncludeDrafts bool   `json:"includeDrafts"`
	Minify        bool   `json:"minify"`
	Listen        string `json:"listen"`
	LogLevel      string `json:"logLevel"`
	Parallelism   int    `json:"parallelism"`
}

// Load reads configuration from disk and applies sane defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(bytes, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.SiteName = strings.TrimSpace(c.SiteName)
	if c.SiteName == "" {
		c.SiteName = "Untitled Site"
	}

	c.BaseURL = strings.TrimSpace(c.BaseURL)

	c.ContentDir = strings.TrimSpace(c.ContentDir)
	if c.ContentDir == "" {
		c.ContentDir = "./content"
	}
	c.TemplateDir = strings.TrimSpace(c.TemplateDir)
	if c.TemplateDir == "" {
		c.TemplateDir = "./template"
	}
	c.OutputDir = strings.TrimSpace(c.OutputDir)
	if c.OutputDir == "" {
		c.OutputDir = "./dist"
	}

	c.DefaultLayout = strings.TrimSpace(c.DefaultLayout)
	if c.DefaultLayout == "" {
		c.DefaultLayout = "page"
	}

	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Parallelism <= 0 {
		c.Parallelism = runtime.NumCPU()
	}
}

func (c *Config) validate() error {
	if sameCleanPath(c.ContentDir, c.OutputDir) {
		return fmt.Errorf("contentDir and outputDir must differ")
	}
	if sameCleanPath(c.TemplateDir, c.OutputDir) {
		return fmt.Errorf("templateDir and outputDir must differ")
	}
	if strings.ContainsAny(c.DefaultLayout, "/\\") {
		return fmt.Errorf("defaultLayout must be a bare template name, got %q", c.DefaultLayout)
	}
	return nil
}

func sameCleanPath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

// BasePath returns the site prefix normalized to "/" form for link generation.
func (c *Config) BasePath() string {
	base := strings.TrimSpace(c.BaseURL)
	if base == "" || base == "/" {
		return "/"
	}
	return "/" + strings.Trim(base, "/") + "/"
}
