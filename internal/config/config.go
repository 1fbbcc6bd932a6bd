package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const appName = "redditpersona"

// Source names for fetching user history
const (
	SourceAPI = "api"
	SourceRSS = "rss"
)

// Entity recognition providers
const (
	ProviderSpacy     = "spacy"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderNone      = "none"
)

// Notification providers
const (
	NotifyNone     = "none"
	NotifySMTP     = "smtp"
	NotifyTelegram = "telegram"
)

// Validation errors
var (
	ErrUnknownSource       = errors.New("reddit.source must be 'api' or 'rss'")
	ErrInvalidCommentLimit = errors.New("reddit.comment_limit must be at least 1")
	ErrInvalidSubmitLimit  = errors.New("reddit.submission_limit must be non-negative")
	ErrInvalidRate         = errors.New("reddit.requests_per_minute must be at least 1")
	ErrUnknownProvider     = errors.New("entities.provider must be one of: spacy, anthropic, gemini, none")
	ErrInvalidTopN         = errors.New("entities.top_n must be at least 1")
	ErrMissingOutputDir    = errors.New("output.dir is required")
	ErrUnknownNotifier     = errors.New("notify.provider must be one of: none, smtp, telegram")
	ErrInvalidLogLevel     = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config holds all application configuration
type Config struct {
	Version  int            `toml:"version"`
	Reddit   RedditConfig   `toml:"reddit"`
	Entities EntitiesConfig `toml:"entities"`
	Lexicon  LexiconConfig  `toml:"lexicon"`
	Output   OutputConfig   `toml:"output"`
	Store    StoreConfig    `toml:"store"`
	Watch    WatchConfig    `toml:"watch"`
	Notify   NotifyConfig   `toml:"notify"`
	Logging  LoggingConfig  `toml:"logging"`
}

type RedditConfig struct {
	Source            string `toml:"source"`
	ClientID          string `toml:"client_id"`
	ClientSecret      string `toml:"client_secret"`
	UserAgent         string `toml:"user_agent"`
	CommentLimit      int    `toml:"comment_limit"`
	SubmissionLimit   int    `toml:"submission_limit"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
}

type EntitiesConfig struct {
	Provider        string   `toml:"provider"`
	Endpoint        string   `toml:"endpoint"`
	Model           string   `toml:"model"` // empty picks the provider's default
	APIKey          string   `toml:"api_key"`
	Labels          []string `toml:"labels"`
	TopN            int      `toml:"top_n"`
	BatchSize       int      `toml:"batch_size"`
	CacheTTLMinutes int      `toml:"cache_ttl_minutes"`
}

type LexiconConfig struct {
	// Path to a YAML lexicon file; empty uses the built-in word lists
	Path string `toml:"path"`
}

type OutputConfig struct {
	Dir     string `toml:"dir"`
	RawHTML bool   `toml:"raw_html"`
	PDF     bool   `toml:"pdf"`
	Open    bool   `toml:"open"`
}

type StoreConfig struct {
	Enabled       bool   `toml:"enabled"`
	Path          string `toml:"path"`
	SaveSnapshots bool   `toml:"save_snapshots"`
}

type WatchConfig struct {
	Schedule string   `toml:"schedule"`
	Timezone string   `toml:"timezone"`
	Users    []string `toml:"users"`
}

type NotifyConfig struct {
	Provider       string `toml:"provider"`
	SMTPHost       string `toml:"smtp_host"`
	SMTPPort       int    `toml:"smtp_port"`
	SMTPUser       string `toml:"smtp_user"`
	SMTPPass       string `toml:"smtp_pass"`
	FromAddr       string `toml:"from_address"`
	ToAddr         string `toml:"to_address"`
	TelegramToken  string `toml:"telegram_token"`
	TelegramChatID int64  `toml:"telegram_chat_id"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Reddit: RedditConfig{
			Source:            SourceAPI,
			UserAgent:         "redditpersona/1.0",
			CommentLimit:      100,
			SubmissionLimit:   30,
			RequestsPerMinute: 60,
			TimeoutSeconds:    30,
		},
		Entities: EntitiesConfig{
			Provider:        ProviderSpacy,
			Endpoint:        "http://localhost:8080",
			Labels:          []string{"GPE", "ORG", "PERSON", "NORP"},
			TopN:            5,
			CacheTTLMinutes: 360,
		},
		Output: OutputConfig{
			Dir: "output",
		},
		Store: StoreConfig{
			Enabled:       true,
			SaveSnapshots: true,
		},
		Watch: WatchConfig{
			Schedule: "0 */6 * * *",
			Timezone: "UTC",
			Users:    []string{},
		},
		Notify: NotifyConfig{
			Provider: NotifyNone,
			SMTPPort: 587,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CacheDir returns the platform-appropriate cache directory.
// On macOS this is ~/Library/Caches/redditpersona/
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, appName), nil
}

// Load reads config from the default location
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads config from path. Keys missing from the file keep their
// default values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the default location
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes config to path
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// ApplyEnv loads a .env file from the working directory (if present) and
// lets environment variables override file values.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("REDDIT_CLIENT_ID"); v != "" {
		c.Reddit.ClientID = v
	}
	if v := os.Getenv("REDDIT_CLIENT_SECRET"); v != "" {
		c.Reddit.ClientSecret = v
	}
	if v := os.Getenv("REDDIT_USER_AGENT"); v != "" {
		c.Reddit.UserAgent = v
	}
	if v := os.Getenv("PERSONA_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}

	if c.Entities.APIKey == "" {
		switch c.Entities.Provider {
		case ProviderAnthropic:
			c.Entities.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case ProviderGemini:
			c.Entities.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
// Credentials are deliberately not checked here; bad credentials surface on
// the first fetch.
func (c *Config) Validate() error {
	switch c.Reddit.Source {
	case SourceAPI, SourceRSS:
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownSource, c.Reddit.Source)
	}

	if c.Reddit.CommentLimit < 1 {
		return ErrInvalidCommentLimit
	}
	if c.Reddit.SubmissionLimit < 0 {
		return ErrInvalidSubmitLimit
	}
	if c.Reddit.RequestsPerMinute < 1 {
		return ErrInvalidRate
	}

	switch c.Entities.Provider {
	case ProviderSpacy, ProviderAnthropic, ProviderGemini, ProviderNone:
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownProvider, c.Entities.Provider)
	}
	if c.Entities.TopN < 1 {
		return ErrInvalidTopN
	}

	if c.Output.Dir == "" {
		return ErrMissingOutputDir
	}

	switch c.Notify.Provider {
	case NotifyNone, NotifySMTP, NotifyTelegram, "":
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownNotifier, c.Notify.Provider)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Watch.Timezone != "" {
		if _, err := time.LoadLocation(c.Watch.Timezone); err != nil {
			return fmt.Errorf("invalid watch.timezone %q: %w", c.Watch.Timezone, err)
		}
	}

	return nil
}

// StorePath returns the history database path, defaulting into the cache dir
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// Timeout returns the HTTP timeout for fetch requests
func (r RedditConfig) Timeout() time.Duration {
	if r.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long recognizer results are memoized
func (e EntitiesConfig) CacheTTL() time.Duration {
	return time.Duration(e.CacheTTLMinutes) * time.Minute
}
