package evaluation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/translation-arena/backend/internal/diff"
	"github.com/translation-arena/backend/internal/models"
	"github.com/translation-arena/backend/internal/scoring"
)

type stubScorer struct {
	kind     scoring.Kind
	ready    error
	res      scoring.Result
	err      error
	block    chan struct{}
	panicMsg string

	mu   sync.Mutex
	seen models.SubmissionInput
}

func (s *stubScorer) Kind() scoring.Kind { return s.kind }
func (s *stubScorer) Ready() error       { return s.ready }

func (s *stubScorer) Score(_ context.Context, in models.SubmissionInput) (scoring.Result, error) {
	s.mu.Lock()
	s.seen = in
	s.mu.Unlock()
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.block != nil {
		<-s.block
	}
	return s.res, s.err
}

type recordingObserver struct {
	mu          sync.Mutex
	scorers     map[scoring.Kind]bool
	evaluations int
}

func (o *recordingObserver) ScorerFinished(kind scoring.Kind, _ time.Duration, available bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.scorers == nil {
		o.scorers = make(map[scoring.Kind]bool)
	}
	o.scorers[kind] = available
}

func (o *recordingObserver) EvaluationFinished(time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.evaluations++
}

// tickingClock advances one second per call.
func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := now
		now = now.Add(time.Second)
		return t
	}
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestAggregator(cfg Config, scorers ...scoring.Scorer) *Aggregator {
	reg := scoring.NewRegistry(scoring.Backends{}, scoring.DefaultOptions())
	for _, s := range scorers {
		reg.Register(s)
	}
	return NewAggregator(reg, cfg,
		WithClock(tickingClock(t0)),
		WithIDGenerator(func() string { return "eval-1" }),
	)
}

var greeting = models.SubmissionInput{
	SourceText:    "I am happy to see you today!",
	ReferenceText: "أنا سعيد لرؤيتك اليوم!",
	CandidateText: "أنا سعيد جدا لرؤيتك اليوم!",
}

func TestEvaluate_NoBackends(t *testing.T) {
	agg := newTestAggregator(Config{})
	in := greeting
	in.ReferenceText = ""

	rec, err := agg.Evaluate(context.Background(), in, nil, Timing{})
	require.NoError(t, err)

	assert.Equal(t, "eval-1", rec.ID)
	assert.Equal(t, RecordVersion, rec.Version)
	assert.Equal(t, scoring.AllKinds, rec.Kinds)
	assert.Equal(t, []scoring.Kind{scoring.KindLexicalEdit, scoring.KindStylisticMismatch}, rec.Available())

	lex, ok := rec.Lexical()
	require.True(t, ok)
	assert.Equal(t, "source", lex.Against)

	for _, k := range []scoring.Kind{scoring.KindSemantic, scoring.KindContradiction, scoring.KindImageryLoss, scoring.KindFluency} {
		res := rec.Scores[k]
		assert.False(t, res.Available, k)
		assert.NotEmpty(t, res.Error, k)
	}

	// No reference, no diff.
	assert.Empty(t, rec.Opcodes)
	assert.Empty(t, rec.DiffHTML)
	assert.Empty(t, rec.Suggestions)
	assert.NotNil(t, rec.Warnings)
	assert.Equal(t, time.Second, rec.Duration)
	assert.Nil(t, rec.Elapsed)
}

func TestEvaluate_DiffAgainstReference(t *testing.T) {
	agg := newTestAggregator(Config{})
	rec, err := agg.Evaluate(context.Background(), greeting, []scoring.Kind{scoring.KindLexicalEdit}, Timing{})
	require.NoError(t, err)

	require.NotEmpty(t, rec.Opcodes)
	assert.NotEmpty(t, rec.Feedback)
	assert.Contains(t, rec.DiffHTML, "جدا")
	assert.Equal(t, []scoring.Kind{scoring.KindLexicalEdit}, rec.Kinds)

	lex, ok := rec.Lexical()
	require.True(t, ok)
	assert.Equal(t, "reference", lex.Against)
}

func TestEvaluate_Validation(t *testing.T) {
	agg := newTestAggregator(Config{})
	tests := []struct {
		name string
		in   models.SubmissionInput
		want []string
	}{
		{"no candidate", models.SubmissionInput{SourceText: "hello"}, []string{"candidate_text is required"}},
		{"blank candidate", models.SubmissionInput{SourceText: "hello", CandidateText: " \n\t"}, []string{"candidate_text is required"}},
		{"nothing to compare", models.SubmissionInput{CandidateText: "مرحبا"}, []string{"source_text or reference_text is required"}},
		{"empty", models.SubmissionInput{}, []string{"source_text or reference_text is required", "candidate_text is required"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := agg.Evaluate(context.Background(), tt.in, nil, Timing{})
			assert.Nil(t, rec)
			var verr *models.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.ElementsMatch(t, tt.want, verr.Errors)
		})
	}
}

func TestEvaluate_ReferenceOnly(t *testing.T) {
	agg := newTestAggregator(Config{})
	rec, err := agg.Evaluate(context.Background(), models.SubmissionInput{
		ReferenceText: "أنا سعيد",
		CandidateText: "أنا سعيد",
	}, nil, Timing{})
	require.NoError(t, err)
	lex, ok := rec.Lexical()
	require.True(t, ok)
	assert.Equal(t, 100.0, lex.Similarity)
}

func TestEvaluate_ScorerFailuresAreIsolated(t *testing.T) {
	obs := &recordingObserver{}
	slow := &stubScorer{kind: scoring.KindSemantic, block: make(chan struct{})}
	defer close(slow.block)
	panicky := &stubScorer{kind: scoring.KindContradiction, panicMsg: "nil map"}
	failing := &stubScorer{kind: scoring.KindImageryLoss, err: errors.New("extractor down")}
	notReady := &stubScorer{kind: scoring.KindFluency, ready: scoring.ErrScorerUnavailable}

	reg := scoring.NewRegistry(scoring.Backends{}, scoring.DefaultOptions())
	for _, s := range []scoring.Scorer{slow, panicky, failing, notReady} {
		reg.Register(s)
	}
	agg := NewAggregator(reg, Config{Timeout: 20 * time.Millisecond}, WithObserver(obs))

	rec, err := agg.Evaluate(context.Background(), greeting, nil, Timing{})
	require.NoError(t, err)

	assert.Contains(t, rec.Scores[scoring.KindSemantic].Error, "scorer unavailable")
	assert.Contains(t, rec.Scores[scoring.KindContradiction].Error, "panic: nil map")
	assert.Equal(t, "extractor down", rec.Scores[scoring.KindImageryLoss].Error)
	assert.False(t, rec.Scores[scoring.KindFluency].Available)

	_, lexOK := rec.Lexical()
	assert.True(t, lexOK, "lexical must survive other scorers failing")

	assert.Equal(t, 1, obs.evaluations)
	assert.Len(t, obs.scorers, len(scoring.AllKinds))
	assert.False(t, obs.scorers[scoring.KindSemantic])
	assert.True(t, obs.scorers[scoring.KindLexicalEdit])
}

func TestEvaluate_WarningsMergedOncePerKind(t *testing.T) {
	semantic := &stubScorer{kind: scoring.KindSemantic, res: scoring.Result{
		Value:    0.4,
		Warnings: []scoring.Warning{{Kind: scoring.WarnLowSimilarity, Message: "first"}},
	}}
	fluency := &stubScorer{kind: scoring.KindFluency, res: scoring.Result{
		Value: 0.2,
		Warnings: []scoring.Warning{
			{Kind: scoring.WarnLowSimilarity, Message: "second"},
			{Kind: scoring.WarnLiteraryLoss, Message: "loss"},
		},
	}}
	agg := newTestAggregator(Config{}, semantic, fluency)

	rec, err := agg.Evaluate(context.Background(), greeting,
		[]scoring.Kind{scoring.KindSemantic, scoring.KindFluency}, Timing{})
	require.NoError(t, err)

	require.Len(t, rec.Warnings, 2)
	assert.Equal(t, "first", rec.Warnings[0].Message)
	assert.Equal(t, scoring.WarnLiteraryLoss, rec.Warnings[1].Kind)
	assert.True(t, rec.HasWarning(scoring.WarnLowSimilarity))
	assert.Equal(t, scoring.KindSemantic, rec.Scores[scoring.KindSemantic].Kind)
}

func TestEvaluate_HighlightsAndSuggestions(t *testing.T) {
	contradiction := &stubScorer{kind: scoring.KindContradiction, res: scoring.Result{
		Detail: scoring.ContradictionDetail{
			Label:      scoring.LabelContradiction,
			PhraseHits: []scoring.PhraseHit{{Phrase: "hate", Source: "love"}},
		},
	}}
	imagery := &stubScorer{kind: scoring.KindImageryLoss, res: scoring.Result{
		Detail: scoring.ImageryDetail{Missing: []string{"light wings"}},
	}}
	agg := newTestAggregator(Config{}, contradiction, imagery)

	rec, err := agg.Evaluate(context.Background(), models.SubmissionInput{
		SourceText:    "With love's light wings",
		CandidateText: "With hate I climbed",
	}, []scoring.Kind{scoring.KindContradiction, scoring.KindImageryLoss}, Timing{})
	require.NoError(t, err)

	assert.Equal(t, []scoring.PhraseHit{{Phrase: "hate", Source: "love"}}, rec.Highlights.Contradictions)
	assert.Equal(t, []string{"light wings"}, rec.Highlights.LiteraryLoss)
	assert.Equal(t, []string{
		"'hate' might contradict 'love' in the source. Check the meaning.",
		"'light wings' might be missing literary imagery. Try preserving metaphors or key expressions.",
	}, rec.Suggestions)
	assert.Equal(t, `With <span class="highlight-contradiction">hate</span> I climbed`, rec.HighlightedHTML)
}

func TestEvaluate_TruncatesScorerInput(t *testing.T) {
	spy := &stubScorer{kind: scoring.KindSemantic, res: scoring.Result{Value: 0.9}}
	agg := newTestAggregator(Config{MaxWords: 3}, spy)

	in := models.SubmissionInput{
		SourceText:    "one two three four five",
		CandidateText: "uno dos tres cuatro cinco",
	}
	rec, err := agg.Evaluate(context.Background(), in, []scoring.Kind{scoring.KindSemantic}, Timing{})
	require.NoError(t, err)

	assert.True(t, rec.Truncated)
	assert.Equal(t, in.CandidateText, rec.Input.CandidateText)
	assert.Equal(t, "uno dos tres", spy.seen.CandidateText)
	assert.Equal(t, "one two three", spy.seen.SourceText)
}

func TestEvaluate_DiffUsesFullText(t *testing.T) {
	agg := newTestAggregator(Config{MaxWords: 3})

	in := models.SubmissionInput{
		ReferenceText: "one two three four five six",
		CandidateText: "one two three four five seven",
	}
	rec, err := agg.Evaluate(context.Background(), in, []scoring.Kind{scoring.KindLexicalEdit}, Timing{})
	require.NoError(t, err)
	assert.True(t, rec.Truncated)

	// The alignment sees the sixth word even though scorers stop at the third.
	require.Len(t, rec.Opcodes, 2)
	assert.Equal(t, diff.Equal, rec.Opcodes[0].Tag)
	assert.Equal(t, diff.Replace, rec.Opcodes[1].Tag)
	assert.Equal(t, []string{"six"}, rec.Opcodes[1].Reference)
	assert.Equal(t, []string{"seven"}, rec.Opcodes[1].Candidate)
	assert.Equal(t, []string{"Replace 'seven' with 'six'"}, rec.Feedback)

	lex, ok := rec.Lexical()
	require.True(t, ok)
	assert.Equal(t, 0, lex.Distance)
	assert.Equal(t, 100.0, lex.Similarity)
}

func TestEvaluate_RejectsOversizedDiff(t *testing.T) {
	agg := newTestAggregator(Config{MaxWords: 3, MaxDiffWords: 5})
	long := "a b c d e f"

	tests := []struct {
		name string
		in   models.SubmissionInput
		want []string
	}{
		{"long reference", models.SubmissionInput{ReferenceText: long, CandidateText: "a b"},
			[]string{"reference_text has 6 words, at most 5 are allowed"}},
		{"long candidate", models.SubmissionInput{ReferenceText: "a b", CandidateText: long},
			[]string{"candidate_text has 6 words, at most 5 are allowed"}},
		{"both", models.SubmissionInput{ReferenceText: long, CandidateText: long},
			[]string{"reference_text has 6 words, at most 5 are allowed", "candidate_text has 6 words, at most 5 are allowed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := agg.Evaluate(context.Background(), tt.in, nil, Timing{})
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.want, verr.Errors)
		})
	}

	// Without a reference nothing is aligned, so only the scorer budget applies.
	rec, err := agg.Evaluate(context.Background(), models.SubmissionInput{SourceText: long, CandidateText: long},
		[]scoring.Kind{scoring.KindLexicalEdit}, Timing{})
	require.NoError(t, err)
	assert.True(t, rec.Truncated)
	assert.Empty(t, rec.Opcodes)
}

func TestEvaluate_NormalizesInput(t *testing.T) {
	agg := newTestAggregator(Config{})
	// The candidate spells é as e + combining acute accent.
	rec, err := agg.Evaluate(context.Background(), models.SubmissionInput{
		SourceText:    "  caf\u00e9  ",
		CandidateText: "cafe\u0301",
	}, []scoring.Kind{scoring.KindLexicalEdit}, Timing{})
	require.NoError(t, err)

	assert.Equal(t, "caf\u00e9", rec.Input.SourceText)
	lex, _ := rec.Lexical()
	assert.Equal(t, 0, lex.Distance)
}

func TestEvaluate_Elapsed(t *testing.T) {
	agg := newTestAggregator(Config{})
	start := t0.Add(-2 * time.Minute)

	rec, err := agg.Evaluate(context.Background(), greeting, []scoring.Kind{scoring.KindLexicalEdit}, Timing{Start: &start})
	require.NoError(t, err)
	require.NotNil(t, rec.Elapsed)
	// The clock reads t0 at start and t0+1s at the end.
	assert.Equal(t, 2*time.Minute+time.Second, *rec.Elapsed)
}

func TestEvaluate_ConcurrentCalls(t *testing.T) {
	agg := newTestAggregator(Config{Concurrency: 2})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := greeting
			in.CandidateText = strings.Repeat("ا", i+1)
			_, err := agg.Evaluate(context.Background(), in, nil, Timing{})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}
