package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xhad/papertag/internal/models"
	"gopkg.in/yaml.v3"
)

type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Project     string        `yaml:"project"`
	Region      string        `yaml:"region"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

type PipelineConfig struct {
	SourceDir      string   `yaml:"source_dir"`
	Extension      string   `yaml:"extension"`
	BatchSize      int      `yaml:"batch_size"`
	DailyLimit     int      `yaml:"daily_limit"`
	FragmentLength int      `yaml:"fragment_length"`
	Categories     []string `yaml:"categories"`
}

type BackoffConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	Cooldown     time.Duration `yaml:"cooldown"`
	QuotaBackoff time.Duration `yaml:"quota_backoff"`
}

type StoreConfig struct {
	Backend     string `yaml:"backend"`
	OutputDir   string `yaml:"output_dir"`
	SQLitePath  string `yaml:"sqlite_path"`
	DatabaseURL string `yaml:"database_url"`
	TablePrefix string `yaml:"table_prefix"`
	Embed       bool   `yaml:"embed"`
	EmbedModel  string `yaml:"embed_model"`
	VectorDim   int    `yaml:"vector_dim"`
}

type ScraperConfig struct {
	BaseURL   string        `yaml:"base_url"`
	OutputDir string        `yaml:"output_dir"`
	Years     []int         `yaml:"years"`
	RateLimit float64       `yaml:"rate_limit"`
	Timeout   time.Duration `yaml:"timeout"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Backoff  BackoffConfig  `yaml:"backoff"`
	Store    StoreConfig    `yaml:"store"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	Logging  LoggingConfig  `yaml:"logging"`
}

const (
	ProviderGoogleAI = "googleai"
	ProviderVertex   = "vertex"
	ProviderOllama   = "ollama"

	// MaxClassifyAttempts caps remote classification calls per document.
	MaxClassifyAttempts = 3

	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"papertag.yaml",
			"papertag.yml",
			filepath.Join(os.Getenv("HOME"), ".config/papertag/config.yaml"),
			"/etc/papertag/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Provider == "" {
		config.LLM.Provider = ProviderGoogleAI
	}
	if config.LLM.Model == "" {
		switch config.LLM.Provider {
		case ProviderOllama:
			config.LLM.Model = "mistral"
		default:
			config.LLM.Model = "gemini-1.5-flash"
		}
	}
	if config.LLM.Provider == ProviderOllama && config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.Region == "" {
		config.LLM.Region = "us-central1"
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.2
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 64
	}
	if config.LLM.Timeout == 0 {
		config.LLM.Timeout = 60 * time.Second
	}

	if config.Pipeline.SourceDir == "" {
		config.Pipeline.SourceDir = "papers"
	}
	if config.Pipeline.Extension == "" {
		config.Pipeline.Extension = ".pdf"
	}
	if config.Pipeline.BatchSize == 0 {
		config.Pipeline.BatchSize = 5
	}
	if config.Pipeline.DailyLimit == 0 {
		config.Pipeline.DailyLimit = 50
	}
	if config.Pipeline.FragmentLength == 0 {
		config.Pipeline.FragmentLength = 500
	}
	if len(config.Pipeline.Categories) == 0 {
		config.Pipeline.Categories = append([]string(nil), models.DefaultCategories...)
	}

	if config.Backoff.MaxAttempts == 0 {
		config.Backoff.MaxAttempts = 3
	}
	if config.Backoff.Cooldown == 0 {
		config.Backoff.Cooldown = 2 * time.Second
	}
	if config.Backoff.QuotaBackoff == 0 {
		config.Backoff.QuotaBackoff = 30 * time.Second
	}

	if config.Store.Backend == "" {
		config.Store.Backend = BackendCSV
	}
	if config.Store.OutputDir == "" {
		config.Store.OutputDir = "paper_data"
	}
	if config.Store.TablePrefix == "" {
		config.Store.TablePrefix = "papers"
	}
	if config.Store.EmbedModel == "" {
		config.Store.EmbedModel = "nomic-embed-text:latest"
	}
	if config.Store.VectorDim == 0 {
		config.Store.VectorDim = 768
	}

	if config.Scraper.BaseURL == "" {
		config.Scraper.BaseURL = "https://papers.nips.cc"
	}
	if len(config.Scraper.Years) == 0 {
		config.Scraper.Years = []int{2019, 2020, 2021, 2022, 2023, 2024}
	}
	if config.Scraper.RateLimit == 0 {
		config.Scraper.RateLimit = 2.0
	}
	if config.Scraper.Timeout == 0 {
		config.Scraper.Timeout = 30 * time.Second
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
}

// SQLiteFile is the sqlite database path, defaulting to papers.db inside the output directory.
func (c *Config) SQLiteFile() string {
	if c.Store.SQLitePath != "" {
		return c.Store.SQLitePath
	}
	return filepath.Join(c.Store.OutputDir, "papers.db")
}

// CrawlDir is where downloaded documents land, defaulting to the pipeline source directory.
func (c *Config) CrawlDir() string {
	if c.Scraper.OutputDir != "" {
		return c.Scraper.OutputDir
	}
	return c.Pipeline.SourceDir
}

func mergeWithEnv(config *Config) {
	if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if project := os.Getenv("GOOGLE_CLOUD_PROJECT"); project != "" {
		config.LLM.Project = project
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Store.DatabaseURL = dbURL
	}
	if dir := os.Getenv("PAPERTAG_SOURCE_DIR"); dir != "" {
		config.Pipeline.SourceDir = dir
	}
	if dir := os.Getenv("PAPERTAG_OUTPUT_DIR"); dir != "" {
		config.Store.OutputDir = dir
	}
}
