// Package app assembles the scorers, stores and services from a Config. Both the
// HTTP server and the CLI start from here.
package app

import (
	"database/sql"
	"fmt"
	"log"
	"math/rand/v2"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/translation-arena/backend/internal/config"
	"github.com/translation-arena/backend/internal/database"
	"github.com/translation-arena/backend/internal/evaluation"
	"github.com/translation-arena/backend/internal/exercises"
	"github.com/translation-arena/backend/internal/gamification"
	"github.com/translation-arena/backend/internal/inference"
	"github.com/translation-arena/backend/internal/keywords"
	"github.com/translation-arena/backend/internal/langdetect"
	"github.com/translation-arena/backend/internal/metrics"
	"github.com/translation-arena/backend/internal/ngram"
	"github.com/translation-arena/backend/internal/scoring"
)

type App struct {
	Config   *config.Config
	DB       *sql.DB
	Registry *scoring.Registry
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	Aggregator  *evaluation.Aggregator
	Evaluations *evaluation.Service
	Game        *gamification.Service
	Exercises   *exercises.Service
}

// Backends builds the scorer capabilities the configuration asks for. Anything
// left unconfigured stays nil and its scorer reports unavailable.
func Backends(cfg *config.Config) (scoring.Backends, error) {
	var b scoring.Backends
	bc := cfg.Backends

	var sidecar *inference.Sidecar
	if bc.Sidecar.URL != "" {
		sidecar = inference.NewSidecar(bc.Sidecar.URL, bc.Sidecar.Timeout)
	}

	switch bc.Embedding {
	case "openai":
		b.Embedding = inference.NewOpenAIEmbedder(bc.OpenAI.APIKey, bc.OpenAI.EmbeddingModel, bc.OpenAI.BaseURL, bc.OpenAI.RPS)
	case "sidecar":
		if sidecar != nil {
			b.Embedding = sidecar
		}
	}

	switch bc.Classifier {
	case "anthropic":
		var opts []inference.APIClientOption
		if bc.Anthropic.BaseURL != "" {
			opts = append(opts, inference.WithBaseURL(bc.Anthropic.BaseURL))
		}
		client := inference.NewAPIClient(bc.Anthropic.APIKey, bc.Anthropic.Model, bc.Anthropic.RPS, opts...)
		b.Classifier = inference.NewJudgeClassifier(client)
	case "cli":
		b.Classifier = inference.NewJudgeClassifier(inference.NewCLIClient(bc.ClaudeCLI.Path, bc.ClaudeCLI.Model))
	case "sidecar":
		if sidecar != nil {
			b.Classifier = sidecar
		}
	}

	switch bc.Keywords {
	case "rake":
		b.Keywords = keywords.NewExtractor()
	case "sidecar":
		if sidecar != nil {
			b.Keywords = sidecar
		}
	}

	for _, name := range cfg.Scoring.NgramMetrics {
		switch name {
		case "bleu":
			b.Metrics = append(b.Metrics, ngram.NewBLEU())
		case "chrf":
			b.Metrics = append(b.Metrics, ngram.NewChrF())
		case "ter":
			b.Metrics = append(b.Metrics, ngram.TER{})
		}
	}

	detector, err := langdetect.New(cfg.Scoring.SourceLanguage, cfg.Scoring.TargetLanguage)
	if err != nil {
		return b, fmt.Errorf("language detector: %w", err)
	}
	b.Detector = detector
	if bc.Sidecar.FluencyURL != "" {
		b.Fluency = inference.NewSidecar(bc.Sidecar.FluencyURL, bc.Sidecar.Timeout)
	}

	lexicon, err := scoring.LoadLexicon(cfg.Scoring.LexiconPath)
	if err != nil {
		return b, err
	}
	b.Lexicon = lexicon
	return b, nil
}

// NewRegistry wires the scorers and logs which of them can run.
func NewRegistry(cfg *config.Config) (*scoring.Registry, error) {
	backends, err := Backends(cfg)
	if err != nil {
		return nil, err
	}
	reg := scoring.NewRegistry(backends, scoring.Options{
		SimilarityThreshold:  cfg.Scoring.SimilarityThreshold,
		TopKeywords:          cfg.Scoring.TopKeywords,
		LengthTolerance:      cfg.Scoring.LengthTolerance,
		PunctuationTolerance: cfg.Scoring.PunctuationTolerance,
	})
	readiness := reg.Readiness()
	for _, kind := range scoring.AllKinds {
		if err := readiness[kind]; err != nil {
			log.Printf("[scoring] %s unavailable: %v", kind, err)
		} else {
			log.Printf("[scoring] %s ready", kind)
		}
	}
	return reg, nil
}

func seededRand(seed, stream uint64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	return rand.New(rand.NewPCG(seed, stream))
}

// Open connects the database, runs migrations and builds every service.
// promReg may be nil, in which case a private registry is used.
func Open(cfg *config.Config, promReg *prometheus.Registry) (*App, error) {
	db, err := database.Connect(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db, cfg.Database.Driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	a, err := build(cfg, db, promReg)
	if err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func build(cfg *config.Config, db *sql.DB, promReg *prometheus.Registry) (*App, error) {
	if promReg == nil {
		promReg = prometheus.NewRegistry()
	}
	m := metrics.New(promReg)

	reg, err := NewRegistry(cfg)
	if err != nil {
		return nil, err
	}
	m.SetReadiness(reg.Readiness())

	enabled, err := scoring.ParseKinds(cfg.Scoring.Enabled)
	if err != nil {
		return nil, err
	}
	agg := evaluation.NewAggregator(reg, evaluation.Config{
		Enabled:      enabled,
		Timeout:      cfg.Scoring.Timeout,
		MaxWords:     cfg.Scoring.MaxWords,
		MaxDiffWords: cfg.Scoring.MaxDiffWords,
		Concurrency:  cfg.Scoring.Concurrency,
	}, evaluation.WithObserver(m))

	rules := gamification.DefaultRules()
	rules.ChallengeLimit = cfg.Game.ChallengeLimit

	gameStore := gamification.NewStore(db)
	var board gamification.Leaderboard = gameStore
	if cfg.Game.Leaderboard == "memory" {
		board = gamification.NewMemoryLeaderboard()
	}
	game := gamification.NewService(
		gamification.NewEngine(rules, cfg.Game.Badges, seededRand(cfg.Game.Seed, 1)),
		gamification.NewSessionStore(nil),
		board,
		gamification.WithEventLog(gameStore),
		gamification.WithObserver(m),
	)

	ex := exercises.NewService(exercises.NewStore(db), seededRand(cfg.Game.Seed, 2))

	return &App{
		Config:      cfg,
		DB:          db,
		Registry:    reg,
		Metrics:     m,
		Gatherer:    promReg,
		Aggregator:  agg,
		Evaluations: evaluation.NewService(agg, evaluation.NewStore(db), ex, game),
		Game:        game,
		Exercises:   ex,
	}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}
