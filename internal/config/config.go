// Package config loads the service configuration from defaults, an optional
// file and TRANSEVAL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/translation-arena/backend/internal/database"
	"github.com/translation-arena/backend/internal/gamification"
	"github.com/translation-arena/backend/internal/scoring"
)

const EnvPrefix = "TRANSEVAL"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Game     GameConfig     `mapstructure:"game"`
	Backends BackendsConfig `mapstructure:"backends"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"`
}

// DSN builds the connection string for the configured driver.
func (c DatabaseConfig) DSN() string {
	if c.Driver == database.DriverSQLite {
		return database.SQLiteDSN(c.Path)
	}
	return database.PostgresDSN(c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type ScoringConfig struct {
	Enabled              []string      `mapstructure:"enabled"`
	Timeout              time.Duration `mapstructure:"timeout"`
	MaxWords             int           `mapstructure:"max_words"`
	MaxDiffWords         int           `mapstructure:"max_diff_words"`
	Concurrency          int           `mapstructure:"concurrency"`
	TopKeywords          int           `mapstructure:"top_keywords"`
	SimilarityThreshold  float64       `mapstructure:"similarity_threshold"`
	LengthTolerance      float64       `mapstructure:"length_tolerance"`
	PunctuationTolerance int           `mapstructure:"punctuation_tolerance"`
	LexiconPath          string        `mapstructure:"lexicon_path"`
	NgramMetrics         []string      `mapstructure:"ngram_metrics"`
	SourceLanguage       string        `mapstructure:"source_language"`
	TargetLanguage       string        `mapstructure:"target_language"`
}

type GameConfig struct {
	ChallengeLimit time.Duration        `mapstructure:"challenge_limit"`
	Seed           uint64               `mapstructure:"seed"`
	Leaderboard    string               `mapstructure:"leaderboard"`
	Badges         []gamification.Badge `mapstructure:"badges"`
}

type BackendsConfig struct {
	// Classifier selects the NLI backend: anthropic, cli, sidecar or none.
	Classifier string `mapstructure:"classifier"`
	// Embedding selects the embedding backend: openai, sidecar or none.
	Embedding string `mapstructure:"embedding"`
	// Keywords selects the key-phrase extractor: rake, sidecar or none.
	Keywords string `mapstructure:"keywords"`

	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	ClaudeCLI ClaudeCLIConfig `mapstructure:"claude_cli"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Sidecar   SidecarConfig   `mapstructure:"sidecar"`
}

type AnthropicConfig struct {
	APIKey  string  `mapstructure:"api_key"`
	Model   string  `mapstructure:"model"`
	BaseURL string  `mapstructure:"base_url"`
	RPS     float64 `mapstructure:"rps"`
}

type ClaudeCLIConfig struct {
	Path  string `mapstructure:"path"`
	Model string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	BaseURL        string  `mapstructure:"base_url"`
	RPS            float64 `mapstructure:"rps"`
}

// SidecarConfig points at the local model server. FluencyURL doubles as the
// switch for the fluency scorer.
type SidecarConfig struct {
	URL        string        `mapstructure:"url"`
	FluencyURL string        `mapstructure:"fluency_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	v.SetDefault("database.driver", database.DriverSQLite)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "transeval")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "transeval.db")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 72*time.Hour)

	kinds := make([]string, len(scoring.AllKinds))
	for i, k := range scoring.AllKinds {
		kinds[i] = string(k)
	}
	v.SetDefault("scoring.enabled", kinds)
	v.SetDefault("scoring.timeout", 10*time.Second)
	v.SetDefault("scoring.max_words", 500)
	v.SetDefault("scoring.max_diff_words", 2000)
	v.SetDefault("scoring.concurrency", 0)
	v.SetDefault("scoring.top_keywords", scoring.DefaultTopKeywords)
	v.SetDefault("scoring.similarity_threshold", scoring.DefaultSimilarityThreshold)
	v.SetDefault("scoring.length_tolerance", scoring.DefaultLengthTolerance)
	v.SetDefault("scoring.punctuation_tolerance", scoring.DefaultPunctuationTolerance)
	v.SetDefault("scoring.lexicon_path", "")
	v.SetDefault("scoring.ngram_metrics", []string{"chrf", "bleu", "ter"})
	v.SetDefault("scoring.source_language", "en")
	v.SetDefault("scoring.target_language", "ar")

	v.SetDefault("game.challenge_limit", 5*time.Minute)
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.leaderboard", "sql")
	badges := make([]map[string]any, len(gamification.DefaultBadges))
	for i, b := range gamification.DefaultBadges {
		badges[i] = map[string]any{"name": b.Name, "min_points": b.MinPoints}
	}
	v.SetDefault("game.badges", badges)

	v.SetDefault("backends.classifier", "none")
	v.SetDefault("backends.embedding", "none")
	v.SetDefault("backends.keywords", "rake")
	v.SetDefault("backends.anthropic.api_key", "")
	v.SetDefault("backends.anthropic.model", "claude-sonnet-4-5")
	v.SetDefault("backends.anthropic.base_url", "")
	v.SetDefault("backends.anthropic.rps", 2.0)
	v.SetDefault("backends.claude_cli.path", "claude")
	v.SetDefault("backends.claude_cli.model", "")
	v.SetDefault("backends.openai.api_key", "")
	v.SetDefault("backends.openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("backends.openai.base_url", "")
	v.SetDefault("backends.openai.rps", 5.0)
	v.SetDefault("backends.sidecar.url", "")
	v.SetDefault("backends.sidecar.fluency_url", "")
	v.SetDefault("backends.sidecar.timeout", 10*time.Second)
}

type loadOptions struct {
	skipAuth bool
}

type LoadOption func(*loadOptions)

// WithoutAuth drops the JWT secret requirement, for tools that never issue tokens.
func WithoutAuth() LoadOption {
	return func(o *loadOptions) { o.skipAuth = true }
}

// Load reads the configuration. An explicit path must exist; without one,
// transeval.yaml or transeval.json in the working directory is used if present.
func Load(path string, opts ...LoadOption) (*Config, error) {
	var lo loadOptions
	for _, opt := range opts {
		opt(&lo)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		for _, candidate := range []string{"transeval.yaml", "transeval.yml", "transeval.json"} {
			if _, err := os.Stat(candidate); err != nil {
				continue
			}
			v.SetConfigFile(candidate)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", candidate, err)
			}
			break
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&cfg, lo); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func validateConfig(cfg *Config, lo loadOptions) error {
	var errs []error

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", cfg.Server.Port))
	}

	switch cfg.Database.Driver {
	case database.DriverSQLite:
		if cfg.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for sqlite3"))
		}
	case database.DriverPostgres:
		if cfg.Database.Host == "" || cfg.Database.Name == "" {
			errs = append(errs, errors.New("database.host and database.name are required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid database.driver: %s. Must be 'postgres' or 'sqlite3'", cfg.Database.Driver))
	}

	if cfg.Auth.JWTSecret == "" && !lo.skipAuth {
		errs = append(errs, errors.New("auth.jwt_secret is required (set TRANSEVAL_AUTH_JWT_SECRET)"))
	}

	if _, err := scoring.ParseKinds(cfg.Scoring.Enabled); err != nil {
		errs = append(errs, err)
	}
	if cfg.Scoring.Timeout <= 0 {
		errs = append(errs, errors.New("scoring.timeout must be positive"))
	}
	if cfg.Scoring.MaxWords < 1 {
		errs = append(errs, errors.New("scoring.max_words must be at least 1"))
	}
	if cfg.Scoring.MaxDiffWords < cfg.Scoring.MaxWords {
		errs = append(errs, errors.New("scoring.max_diff_words must be at least scoring.max_words"))
	}
	if cfg.Scoring.Concurrency < 0 {
		errs = append(errs, errors.New("scoring.concurrency must not be negative"))
	}
	if cfg.Scoring.SimilarityThreshold < 0 || cfg.Scoring.SimilarityThreshold > 1 {
		errs = append(errs, errors.New("scoring.similarity_threshold must be within [0, 1]"))
	}
	for _, m := range cfg.Scoring.NgramMetrics {
		if m != "bleu" && m != "chrf" && m != "ter" {
			errs = append(errs, fmt.Errorf("unknown n-gram metric %q", m))
		}
	}

	if cfg.Game.ChallengeLimit <= 0 {
		errs = append(errs, errors.New("game.challenge_limit must be positive"))
	}
	if cfg.Game.Leaderboard != "sql" && cfg.Game.Leaderboard != "memory" {
		errs = append(errs, fmt.Errorf("invalid game.leaderboard: %s. Must be 'sql' or 'memory'", cfg.Game.Leaderboard))
	}

	b := cfg.Backends
	switch b.Classifier {
	case "none", "cli":
	case "anthropic":
		if b.Anthropic.APIKey == "" {
			errs = append(errs, errors.New("backends.anthropic.api_key is required for the anthropic classifier"))
		}
	case "sidecar":
		if b.Sidecar.URL == "" {
			errs = append(errs, errors.New("backends.sidecar.url is required for the sidecar classifier"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid backends.classifier: %s", b.Classifier))
	}
	switch b.Embedding {
	case "none":
	case "openai":
		if b.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("backends.openai.api_key is required for openai embeddings"))
		}
	case "sidecar":
		if b.Sidecar.URL == "" {
			errs = append(errs, errors.New("backends.sidecar.url is required for sidecar embeddings"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid backends.embedding: %s", b.Embedding))
	}
	switch b.Keywords {
	case "none", "rake":
	case "sidecar":
		if b.Sidecar.URL == "" {
			errs = append(errs, errors.New("backends.sidecar.url is required for sidecar keywords"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid backends.keywords: %s", b.Keywords))
	}

	return errors.Join(errs...)
}
