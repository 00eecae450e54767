package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"bgc-assistant/internal/locale"
)

// Providers of the language model
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// KnowledgeBase is the embedding index and source PDF of one interface language
type KnowledgeBase struct {
	Index string `yaml:"index"`
	PDF   string `yaml:"pdf"`
}

// Config holds all application configuration
type Config struct {
	// Language model settings
	Provider   string        `yaml:"provider"`
	LLMBaseURL string        `yaml:"llm_base_url"`
	ModelName  string        `yaml:"model"`
	APIKey     string        `yaml:"-"`
	LLMTimeout time.Duration `yaml:"llm_timeout"`
	MaxRetries int           `yaml:"max_retries"`

	// Ollama settings
	OllamaURL string `yaml:"ollama_url"`

	// Retriever settings
	RetrieverURL     string                   `yaml:"retriever_url"`
	RetrieverTimeout time.Duration            `yaml:"retriever_timeout"`
	TopK             int                      `yaml:"top_k"`
	KnowledgeBases   map[string]KnowledgeBase `yaml:"knowledge_bases"` // keyed by language code

	// Screenshot settings
	ScreenshotDir string  `yaml:"screenshot_dir"`
	RenderScale   float64 `yaml:"render_scale"`
	PdftoppmPath  string  `yaml:"pdftoppm"`

	// Session settings
	Language    string `yaml:"language"`
	TitleBudget int    `yaml:"title_budget"`
	StatePath   string `yaml:"state_path"`

	// Observability
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		// Groq's OpenAI-compatible endpoint
		Provider:   ProviderOpenAI,
		LLMBaseURL: "https://api.groq.com/openai/v1/",
		ModelName:  "gemma2-9b-it",
		LLMTimeout: 60 * time.Second,
		MaxRetries: 2,

		OllamaURL: "http://localhost:11434",

		RetrieverURL:     "http://localhost:8000",
		RetrieverTimeout: 30 * time.Second,
		TopK:             4,
		KnowledgeBases: map[string]KnowledgeBase{
			"en": {Index: "english", PDF: "BGC.pdf"},
			"ar": {Index: "arabic", PDF: "BGC-Ar.pdf"},
		},

		ScreenshotDir: expandHome("~/.bgc-assistant/screenshots"),
		RenderScale:   2.0,
		PdftoppmPath:  "pdftoppm",

		Language:    "en",
		TitleBudget: 50,

		LogLevel: "warning",
	}
}

// LoadEnv reads a .env file when present and picks up the API key
func (c *Config) LoadEnv(path string) {
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		log.WithError(err).WithField("path", path).Warn("failed to read env file")
	}
	if key := GetEnv("GROQ_API_KEY"); key != "" {
		c.APIKey = key
	} else if key := GetEnv("OPENAI_API_KEY"); key != "" {
		c.APIKey = key
	}
}

// LoadFile overlays the YAML file at path on top of the current values
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// BindFlags registers the configuration flags on fs
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Provider, "provider", c.Provider, "Language model provider (openai or ollama)")
	fs.StringVar(&c.LLMBaseURL, "llm-url", c.LLMBaseURL, "OpenAI-compatible API base URL")
	fs.StringVar(&c.ModelName, "model", c.ModelName, "Model name")
	fs.DurationVar(&c.LLMTimeout, "timeout", c.LLMTimeout, "Language model request timeout")
	fs.IntVar(&c.MaxRetries, "max-retries", c.MaxRetries, "Retries for failed language model requests")
	fs.StringVar(&c.OllamaURL, "ollama-url", c.OllamaURL, "Ollama API URL")

	fs.StringVar(&c.RetrieverURL, "retriever-url", c.RetrieverURL, "Embedding index search service URL, empty disables retrieval")
	fs.DurationVar(&c.RetrieverTimeout, "retriever-timeout", c.RetrieverTimeout, "Retriever request timeout")
	fs.IntVar(&c.TopK, "top-k", c.TopK, "Passages retrieved per question")

	fs.StringVar(&c.ScreenshotDir, "screenshot-dir", c.ScreenshotDir, "Directory for rendered page screenshots")
	fs.Float64Var(&c.RenderScale, "render-scale", c.RenderScale, "Page render scale (1.0 is 72 dpi)")
	fs.StringVar(&c.PdftoppmPath, "pdftoppm", c.PdftoppmPath, "Path to the pdftoppm binary")

	fs.StringVarP(&c.Language, "lang", "l", c.Language, "Interface language (en or ar)")
	fs.IntVar(&c.TitleBudget, "title-length", c.TitleBudget, "Characters kept in conversation titles")
	fs.StringVar(&c.StatePath, "state", c.StatePath, "Conversation snapshot file, empty keeps conversations in memory only")

	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Listen address for Prometheus metrics, empty disables")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warning, error)")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Write logs to this file instead of stderr")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.LLMBaseURL == "" {
			return fmt.Errorf("LLM base URL cannot be empty")
		}
	case ProviderOllama:
		if c.OllamaURL == "" {
			return fmt.Errorf("ollama URL cannot be empty")
		}
	default:
		return fmt.Errorf("unknown provider %q (use %s or %s)", c.Provider, ProviderOpenAI, ProviderOllama)
	}
	if c.ModelName == "" {
		return fmt.Errorf("model name cannot be empty")
	}
	if c.TopK < 1 || c.TopK > 50 {
		return fmt.Errorf("top-k must be between 1 and 50")
	}
	if c.RenderScale <= 0 {
		return fmt.Errorf("render scale must be positive")
	}
	if c.TitleBudget < 1 {
		return fmt.Errorf("title length must be at least 1")
	}
	if _, err := locale.Parse(c.Language); err != nil {
		return err
	}
	for code := range c.KnowledgeBases {
		if _, err := locale.Parse(code); err != nil {
			return fmt.Errorf("knowledge base %q: %w", code, err)
		}
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

// InterfaceLanguage returns the parsed interface language
func (c *Config) InterfaceLanguage() locale.Language {
	lang, err := locale.Parse(c.Language)
	if err != nil {
		return locale.English
	}
	return lang
}

// KnowledgeBasesByLanguage returns the knowledge bases keyed by parsed language
func (c *Config) KnowledgeBasesByLanguage() map[locale.Language]KnowledgeBase {
	out := make(map[locale.Language]KnowledgeBase, len(c.KnowledgeBases))
	for code, kb := range c.KnowledgeBases {
		lang, err := locale.Parse(code)
		if err != nil {
			continue
		}
		kb.PDF = expandHome(kb.PDF)
		out[lang] = kb
	}
	return out
}

// ConfigureLogging applies the log level and destination. The returned
// function closes the log file, if one was opened.
func (c *Config) ConfigureLogging() (func(), error) {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	if c.LogFile == "" {
		return func() {}, nil
	}
	f, err := os.OpenFile(expandHome(c.LogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(f)
	log.SetFormatter(&log.JSONFormatter{})
	return func() { _ = f.Close() }, nil
}

// expandHome expands the ~ in file paths to the user's home directory
func expandHome(path string) string {
	if strings.HasPrefix(path, "~") {
		return getHomeDir() + path[1:]
	}
	return path
}

// getHomeDir returns the user's home directory
func getHomeDir() string {
	if home := GetEnv("HOME"); home != "" {
		return home
	}
	// Fallback for Windows
	if home := GetEnv("USERPROFILE"); home != "" {
		return home
	}
	return "."
}

// GetEnv is a wrapper around os.Getenv for easier testing
var GetEnv = func(key string) string {
	// Will be replaced with os.Getenv in main
	return ""
}
