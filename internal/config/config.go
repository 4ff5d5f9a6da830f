package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"murphy/internal/parser"
)

// #region types

// Retrieval selects how past-plan summaries are fetched during refinement.
type RetrievalSettings struct {
	Mode     string  `mapstructure:"mode"` // "keyword", "vector", or "off"
	MinScore float64 `mapstructure:"min_score"`
	TopK     int     `mapstructure:"top_k"`
}

// Config is the full daemon configuration. Values come from a config file
// when present, overridden by MURPHY_* environment variables.
type Config struct {
	ListenAddr string `mapstructure:"listen_addr"`
	DBPath     string `mapstructure:"db_path"`

	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`

	// ResponseMode is fixed at startup. The parser never inspects a response
	// to guess its format; switching modes is a restart.
	ResponseMode string `mapstructure:"response_mode"`

	Retrieval RetrievalSettings `mapstructure:"retrieval"`
}

// #endregion types

// #region load

// Load reads murphy-config from the working directory or $HOME, then applies
// environment overrides. A missing config file is fine; invalid values are
// not.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("murphy-config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")

	v.SetEnvPrefix("MURPHY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen_addr", ":8490")
	v.SetDefault("db_path", "murphy.db")
	v.SetDefault("model", "gemini-2.5-flash-lite")
	v.SetDefault("embedding_model", "text-embedding-004")
	v.SetDefault("base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("timeout_seconds", 30)
	v.SetDefault("response_mode", "delimited")
	v.SetDefault("retrieval.mode", "keyword")
	v.SetDefault("retrieval.min_score", 0.15)
	v.SetDefault("retrieval.top_k", 3)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	// Explicit reads: viper's Unmarshal does not see AutomaticEnv values
	// for keys that only exist as defaults.
	cfg := Config{
		ListenAddr:     v.GetString("listen_addr"),
		DBPath:         v.GetString("db_path"),
		APIKey:         v.GetString("api_key"),
		Model:          v.GetString("model"),
		EmbeddingModel: v.GetString("embedding_model"),
		BaseURL:        v.GetString("base_url"),
		TimeoutSeconds: v.GetInt("timeout_seconds"),
		ResponseMode:   v.GetString("response_mode"),
		Retrieval: RetrievalSettings{
			Mode:     v.GetString("retrieval.mode"),
			MinScore: v.GetFloat64("retrieval.min_score"),
			TopK:     v.GetInt("retrieval.top_k"),
		},
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.ResponseMode {
	case "delimited", "structured":
	default:
		return fmt.Errorf("response_mode %q: must be delimited or structured", c.ResponseMode)
	}
	switch c.Retrieval.Mode {
	case "keyword", "vector", "off":
	default:
		return fmt.Errorf("retrieval.mode %q: must be keyword, vector, or off", c.Retrieval.Mode)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds %d: must be positive", c.TimeoutSeconds)
	}
	return nil
}

// #endregion load

// #region derived

// ParserMode maps the configured string onto the parser's enum.
func (c Config) ParserMode() parser.ResponseMode {
	if c.ResponseMode == "structured" {
		return parser.ModeStructured
	}
	return parser.ModeDelimited
}

// Timeout returns the per-attempt gateway timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// #endregion derived
