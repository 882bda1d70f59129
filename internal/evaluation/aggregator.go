// Package evaluation runs the diff engine and the enabled scorers over one
// submission and merges their output into a Record.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/translation-arena/backend/internal/diff"
	"github.com/translation-arena/backend/internal/models"
	"github.com/translation-arena/backend/internal/scoring"
	"github.com/translation-arena/backend/internal/textnorm"
)

const DefaultScorerTimeout = 10 * time.Second

// Timing carries the optional start of a timed attempt.
type Timing struct {
	Start *time.Time
}

// Observer receives per-scorer and per-evaluation measurements.
type Observer interface {
	ScorerFinished(kind scoring.Kind, elapsed time.Duration, available bool)
	EvaluationFinished(elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) ScorerFinished(scoring.Kind, time.Duration, bool) {}
func (noopObserver) EvaluationFinished(time.Duration)                 {}

type Config struct {
	// Enabled is the default scorer set used when Evaluate is given none.
	Enabled  []scoring.Kind
	Timeout  time.Duration
	MaxWords int
	// MaxDiffWords caps the reference and candidate length when a diff runs.
	MaxDiffWords int
	Concurrency  int
}

type Aggregator struct {
	registry *scoring.Registry
	cfg      Config
	validate *validator.Validate
	clock    func() time.Time
	newID    func() string
	observer Observer
}

type Option func(*Aggregator)

func WithClock(clock func() time.Time) Option {
	return func(a *Aggregator) { a.clock = clock }
}

func WithIDGenerator(newID func() string) Option {
	return func(a *Aggregator) { a.newID = newID }
}

func WithObserver(o Observer) Option {
	return func(a *Aggregator) { a.observer = o }
}

func NewAggregator(registry *scoring.Registry, cfg Config, opts ...Option) *Aggregator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultScorerTimeout
	}
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = textnorm.DefaultMaxWords
	}
	if cfg.MaxDiffWords <= 0 {
		cfg.MaxDiffWords = textnorm.DefaultMaxDiffWords
	}
	a := &Aggregator{
		registry: registry,
		cfg:      cfg,
		validate: newValidator(),
		clock:    time.Now,
		newID:    uuid.NewString,
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Evaluate validates the submission, runs the diff and every enabled scorer
// concurrently, and merges the results. The only error it returns is a
// *models.ValidationError; scorer failures are recorded as unavailable results.
func (a *Aggregator) Evaluate(ctx context.Context, in models.SubmissionInput, enabled []scoring.Kind, timing Timing) (*Record, error) {
	in = models.SubmissionInput{
		SourceText:    textnorm.Normalize(in.SourceText),
		ReferenceText: textnorm.Normalize(in.ReferenceText),
		CandidateText: textnorm.Normalize(in.CandidateText),
	}
	if err := validateInput(a.validate, in); err != nil {
		return nil, err
	}
	if err := a.checkDiffSize(in); err != nil {
		return nil, err
	}
	if len(enabled) == 0 {
		enabled = a.cfg.Enabled
	}

	started := a.clock()
	wallStart := time.Now()

	scorerIn := models.SubmissionInput{
		SourceText:    textnorm.Truncate(in.SourceText, a.cfg.MaxWords),
		ReferenceText: textnorm.Truncate(in.ReferenceText, a.cfg.MaxWords),
		CandidateText: textnorm.Truncate(in.CandidateText, a.cfg.MaxWords),
	}

	scorers := a.registry.Select(enabled)
	results := make([]scoring.Result, len(scorers))
	var ops []diff.Opcode

	g, gctx := errgroup.WithContext(ctx)
	if a.cfg.Concurrency > 0 {
		g.SetLimit(a.cfg.Concurrency)
	}
	if in.HasReference() {
		g.Go(func() error {
			ops = diff.AlignText(in.ReferenceText, in.CandidateText)
			return nil
		})
	}
	for i, s := range scorers {
		g.Go(func() error {
			results[i] = a.runScorer(gctx, s, scorerIn)
			return nil
		})
	}
	_ = g.Wait()

	rec := &Record{
		ID:        a.newID(),
		Version:   RecordVersion,
		CreatedAt: started,
		Input:     in,
		Truncated: scorerIn != in,
		Opcodes:   ops,
		Feedback:  diff.Feedback(ops),
		Segments:  diff.Segments(ops),
		Scores:    make(map[scoring.Kind]scoring.Result, len(results)),
	}
	if len(ops) > 0 {
		rec.DiffHTML = diff.RenderHTML(ops)
	}
	for _, res := range results {
		rec.Kinds = append(rec.Kinds, res.Kind)
		rec.Scores[res.Kind] = res
	}
	rec.Warnings = mergeWarnings(results)
	rec.Highlights = collectHighlights(rec)
	rec.Suggestions = suggestions(rec.Highlights)
	rec.HighlightedHTML = HighlightHTML(in.CandidateText, rec.Highlights)

	finished := a.clock()
	rec.Duration = finished.Sub(started)
	if timing.Start != nil {
		elapsed := max(finished.Sub(*timing.Start), 0)
		rec.Elapsed = &elapsed
	}

	a.observer.EvaluationFinished(time.Since(wallStart))
	return rec, nil
}

// runScorer never fails: a missing backend, an error, a panic or a timeout all
// turn into an unavailable Result.
func (a *Aggregator) runScorer(ctx context.Context, s scoring.Scorer, in models.SubmissionInput) scoring.Result {
	kind := s.Kind()
	if err := s.Ready(); err != nil {
		a.observer.ScorerFinished(kind, 0, false)
		return scoring.Unavailable(kind, err)
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	type outcome struct {
		res scoring.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v: %w", r, scoring.ErrScorerUnavailable)}
			}
		}()
		res, err := s.Score(ctx, in)
		done <- outcome{res: res, err: err}
	}()

	var res scoring.Result
	select {
	case o := <-done:
		if o.err != nil {
			res = scoring.Unavailable(kind, o.err)
			if !errors.Is(o.err, scoring.ErrMissingReference) {
				log.Printf("[evaluation] scorer %s unavailable: %v", kind, o.err)
			}
		} else {
			res = o.res
			res.Kind = kind
			res.Available = true
			res.Error = ""
		}
	case <-ctx.Done():
		res = scoring.Unavailable(kind, fmt.Errorf("%w: %v", scoring.ErrScorerUnavailable, ctx.Err()))
		log.Printf("[evaluation] scorer %s timed out after %v", kind, a.cfg.Timeout)
	}

	a.observer.ScorerFinished(kind, time.Since(start), res.Available)
	return res
}

// mergeWarnings keeps the first warning of each kind, in scorer order.
func mergeWarnings(results []scoring.Result) []scoring.Warning {
	out := []scoring.Warning{}
	seen := make(map[scoring.WarningKind]bool)
	for _, res := range results {
		if !res.Available {
			continue
		}
		for _, w := range res.Warnings {
			if seen[w.Kind] {
				continue
			}
			seen[w.Kind] = true
			out = append(out, w)
		}
	}
	return out
}

func collectHighlights(rec *Record) Highlights {
	h := Highlights{Contradictions: []scoring.PhraseHit{}, LiteraryLoss: []string{}}
	if res, ok := rec.Result(scoring.KindContradiction); ok {
		if d, ok := res.Detail.(scoring.ContradictionDetail); ok {
			h.Contradictions = append(h.Contradictions, d.PhraseHits...)
		}
	}
	if res, ok := rec.Result(scoring.KindImageryLoss); ok {
		if d, ok := res.Detail.(scoring.ImageryDetail); ok {
			h.LiteraryLoss = append(h.LiteraryLoss, d.Missing...)
		}
	}
	return h
}

func suggestions(h Highlights) []string {
	out := []string{}
	for _, hit := range h.Contradictions {
		out = append(out, fmt.Sprintf("'%s' might contradict '%s' in the source. Check the meaning.", hit.Phrase, hit.Source))
	}
	for _, kw := range h.LiteraryLoss {
		out = append(out, fmt.Sprintf("'%s' might be missing literary imagery. Try preserving metaphors or key expressions.", kw))
	}
	return out
}

// checkDiffSize rejects submissions whose full texts are too long to align.
// Scorers only ever see truncated text, but the diff runs on the whole input.
func (a *Aggregator) checkDiffSize(in models.SubmissionInput) error {
	if !in.HasReference() {
		return nil
	}
	var msgs []string
	if n := textnorm.WordCount(in.ReferenceText); n > a.cfg.MaxDiffWords {
		msgs = append(msgs, fmt.Sprintf("reference_text has %d words, at most %d are allowed", n, a.cfg.MaxDiffWords))
	}
	if n := textnorm.WordCount(in.CandidateText); n > a.cfg.MaxDiffWords {
		msgs = append(msgs, fmt.Sprintf("candidate_text has %d words, at most %d are allowed", n, a.cfg.MaxDiffWords))
	}
	if len(msgs) > 0 {
		return &models.ValidationError{Errors: msgs}
	}
	return nil
}
