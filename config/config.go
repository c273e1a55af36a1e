package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configDirName  = "~/.config/pagepdf"
	configFileName = "config.yaml"

	FormatPDF  = "pdf"
	FormatEPUB = "epub"

	FetcherColly = "colly"
	FetcherHTTP  = "http"

	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultAcceptLanguage = "en-US,en;q=0.5"
	DefaultStoryMarker    = "/porncomic/"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds every tunable of a run. Zero values are never valid on their
// own; start from Defaults and override.
type Config struct {
	Workers        int           `yaml:"workers"`
	Timeout        time.Duration `yaml:"timeout"`
	PageDelay      time.Duration `yaml:"page_delay"`
	MaxPages       int           `yaml:"max_pages"`
	DPI            int           `yaml:"dpi"`
	OutputDir      string        `yaml:"output_dir"`
	Format         string        `yaml:"format"`
	Fetcher        string        `yaml:"fetcher"`
	UserAgent      string        `yaml:"user_agent"`
	AcceptLanguage string        `yaml:"accept_language"`
	CookiesFile    string        `yaml:"cookies_file"`
	StoryMarker    string        `yaml:"story_marker"`
	Related        bool          `yaml:"related"`
	LogLevel       string        `yaml:"log_level"`
	TempDir        string        `yaml:"temp_dir"`
}

// Defaults returns the built in configuration.
func Defaults() Config {
	return Config{
		Workers:        8,
		Timeout:        30 * time.Second,
		PageDelay:      300 * time.Millisecond,
		MaxPages:       200,
		DPI:            100,
		OutputDir:      ".",
		Format:         FormatPDF,
		Fetcher:        FetcherColly,
		UserAgent:      DefaultUserAgent,
		AcceptLanguage: DefaultAcceptLanguage,
		StoryMarker:    DefaultStoryMarker,
		LogLevel:       "info",
	}
}

// Load reads the YAML file at path on top of Defaults and then applies
// PAGEPDF_* environment overrides. An empty path means the default location.
// A missing file is created with the default values.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path == "" {
		dir, err := Dir()
		if err != nil {
			return cfg, err
		}
		path = filepath.Join(dir, configFileName)
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if err := Save(path, cfg); err != nil {
			return cfg, fmt.Errorf("error creating config file: %w", err)
		}
	case err != nil:
		return cfg, fmt.Errorf("error reading config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("error parsing config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects values a run cannot work with.
func (c Config) Validate() error {
	var problems []string
	if c.Workers <= 0 {
		problems = append(problems, "workers must be positive")
	}
	if c.MaxPages <= 0 {
		problems = append(problems, "max_pages must be positive")
	}
	if c.DPI <= 0 {
		problems = append(problems, "dpi must be positive")
	}
	if c.Timeout <= 0 {
		problems = append(problems, "timeout must be positive")
	}
	if c.PageDelay < 0 {
		problems = append(problems, "page_delay cannot be negative")
	}
	if c.Format != FormatPDF && c.Format != FormatEPUB {
		problems = append(problems, fmt.Sprintf("unknown format %q", c.Format))
	}
	if c.Fetcher != FetcherColly && c.Fetcher != FetcherHTTP {
		problems = append(problems, fmt.Sprintf("unknown fetcher %q", c.Fetcher))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Dir returns ~/.config/pagepdf, creating it when missing.
func Dir() (string, error) {
	dir, err := ExpandPath(configDirName)
	if err != nil {
		return "", fmt.Errorf("cannot verify local configuration directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating directory %s: %w", dir, err)
	}
	return dir, nil
}

// ExpandPath expands a leading ~/ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(homeDir, path[2:]), nil
	}
	return path, nil
}

func applyEnv(c *Config) {
	c.Workers = getenvInt("PAGEPDF_WORKERS", c.Workers)
	c.Timeout = getenvDuration("PAGEPDF_TIMEOUT", c.Timeout)
	c.PageDelay = getenvDuration("PAGEPDF_PAGE_DELAY", c.PageDelay)
	c.MaxPages = getenvInt("PAGEPDF_MAX_PAGES", c.MaxPages)
	c.DPI = getenvInt("PAGEPDF_DPI", c.DPI)
	c.OutputDir = getenv("PAGEPDF_OUTPUT_DIR", c.OutputDir)
	c.Format = getenv("PAGEPDF_FORMAT", c.Format)
	c.Fetcher = getenv("PAGEPDF_FETCHER", c.Fetcher)
	c.UserAgent = getenv("PAGEPDF_USER_AGENT", c.UserAgent)
	c.AcceptLanguage = getenv("PAGEPDF_ACCEPT_LANGUAGE", c.AcceptLanguage)
	c.CookiesFile = getenv("PAGEPDF_COOKIES_FILE", c.CookiesFile)
	c.StoryMarker = getenv("PAGEPDF_STORY_MARKER", c.StoryMarker)
	c.Related = getenvBool("PAGEPDF_RELATED", c.Related)
	c.LogLevel = getenv("PAGEPDF_LOG_LEVEL", c.LogLevel)
	c.TempDir = getenv("PAGEPDF_TEMP_DIR", c.TempDir)
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
