package gamification

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/translation-arena/backend/internal/evaluation"
	"github.com/translation-arena/backend/internal/models"
	"github.com/translation-arena/backend/internal/scoring"
)

// Rules are the constants of the point award. Every contribution is an integer.
type Rules struct {
	// FallbackBase is the base award, and the floor of the similarity-scaled base.
	FallbackBase int
	// FallbackBonusMax bounds the random bonus [0, max) paid when the lexical
	// scorer produced nothing.
	FallbackBonusMax int

	ContradictionPoints int
	LiteraryLossPoints  int
	StylisticPoints     int

	TimeBonus      int
	ChallengeLimit time.Duration

	// SuccessDistance is the edit distance below which an attempt extends the streak.
	SuccessDistance  int
	StreakMultiplier int
}

func DefaultRules() Rules {
	return Rules{
		FallbackBase:        10,
		FallbackBonusMax:    10,
		ContradictionPoints: 10,
		LiteraryLossPoints:  5,
		StylisticPoints:     2,
		TimeBonus:           5,
		ChallengeLimit:      5 * time.Minute,
		SuccessDistance:     5,
		StreakMultiplier:    2,
	}
}

// BasePoints maps a 0-100 similarity to FallbackBase plus one point per full
// ten percent.
func (r Rules) BasePoints(similarity float64) int {
	similarity = math.Max(0, math.Min(100, similarity))
	return r.FallbackBase + int(math.Floor(similarity/10))
}

// Engine turns an evaluation record into points and the next session state.
type Engine struct {
	rules  Rules
	badges []Badge

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine builds an engine. rng drives the fallback bonus; pass a seeded source
// for reproducible awards.
func NewEngine(rules Rules, badges []Badge, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if badges == nil {
		badges = DefaultBadges
	}
	return &Engine{rules: rules, badges: badges, rng: rng}
}

func (e *Engine) Rules() Rules { return e.rules }

func (e *Engine) randomBonus() int {
	if e.rules.FallbackBonusMax <= 0 {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.IntN(e.rules.FallbackBonusMax)
}

// Award computes the points for rec and returns them with the updated session and
// the badges it unlocked. session is not modified.
func (e *Engine) Award(rec *evaluation.Record, session models.SessionState) (int, models.SessionState, models.PointsBreakdown, []string) {
	r := e.rules
	next := session.Clone()
	var b models.PointsBreakdown

	lex, lexOK := rec.Lexical()
	if lexOK {
		b.Base = r.BasePoints(lex.Similarity)
	} else {
		b.Base = r.FallbackBase
		b.RandomBonus = e.randomBonus()
	}

	b.Contradictions = r.ContradictionPoints * len(rec.Highlights.Contradictions)
	b.LiteraryLoss = r.LiteraryLossPoints * len(rec.Highlights.LiteraryLoss)
	if rec.HasWarning(scoring.WarnStylisticMismatch) {
		b.Stylistic = r.StylisticPoints
	}
	if rec.Elapsed != nil && *rec.Elapsed <= r.ChallengeLimit {
		b.TimeBonus = r.TimeBonus
	}

	// Without an edit distance the attempt is neither a success nor a failure.
	if lexOK {
		if lex.Distance < r.SuccessDistance {
			next.StreakCount++
			b.Successful = true
			b.StreakBonus = r.StreakMultiplier * next.StreakCount
		} else {
			next.StreakCount = 0
		}
	}

	b.Total = b.Base + b.RandomBonus + b.Contradictions + b.LiteraryLoss + b.Stylistic + b.TimeBonus + b.StreakBonus
	next.CumulativeScore += b.Total
	next.AttemptCount++

	unlocked := CheckBadges(next, e.badges)
	next.Badges = append(next.Badges, unlocked...)

	return b.Total, next, b, unlocked
}
