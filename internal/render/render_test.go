package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/translation-arena/backend/internal/diff"
	"github.com/translation-arena/backend/internal/evaluation"
	"github.com/translation-arena/backend/internal/models"
	"github.com/translation-arena/backend/internal/scoring"
)

func TestDiff_MarksEveryTag(t *testing.T) {
	p := New(&bytes.Buffer{})
	got := p.Diff(diff.Segments(diff.AlignText("the quick brown fox", "the slow brown fox jumps")))
	assert.Equal(t, "the slow (→ quick) brown fox {+jumps+}", got)

	got = p.Diff(diff.Segments(diff.AlignText("a b c", "a c")))
	assert.Equal(t, "a [-b-] c", got)
}

func TestRecord_PlainOutput(t *testing.T) {
	rec := &evaluation.Record{
		ID:       "eval-7",
		Segments: diff.Segments(diff.AlignText("a b c", "a c")),
		Kinds:    []scoring.Kind{scoring.KindLexicalEdit, scoring.KindSemantic},
		Scores: map[scoring.Kind]scoring.Result{
			scoring.KindLexicalEdit: {
				Kind: scoring.KindLexicalEdit, Value: 60, Available: true,
				Detail: scoring.LexicalDetail{Distance: 2, Similarity: 60, Against: "reference"},
			},
			scoring.KindSemantic: {Kind: scoring.KindSemantic, Error: "no embedding backend"},
		},
		Warnings:    []scoring.Warning{{Kind: scoring.WarnStylisticMismatch, Message: "Stylistic mismatch"}},
		Suggestions: []string{"Check the missing word."},
	}

	var buf bytes.Buffer
	New(&buf).Record(rec)
	out := buf.String()

	assert.NotContains(t, out, "\x1b[")
	assert.Contains(t, out, "Evaluation eval-7")
	assert.Contains(t, out, "a [-b-] c")
	assert.Contains(t, out, "60.00% (distance 2 vs reference)")
	assert.Contains(t, out, "unavailable: no embedding backend")
	assert.Contains(t, out, "! Stylistic mismatch")
	assert.Contains(t, out, "- Check the missing word.")
}

func TestAward_SkipsZeroParts(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Award(&models.AwardResponse{
		Points:         24,
		Breakdown:      models.PointsBreakdown{Base: 20, StreakBonus: 4, Total: 24},
		BadgesUnlocked: []string{"Poetry Master"},
		Session:        models.SessionState{CumulativeScore: 55, StreakCount: 2, AttemptCount: 3},
	})
	out := buf.String()

	assert.Contains(t, out, "+24 points")
	assert.Contains(t, out, "streak bonus")
	assert.NotContains(t, out, "time bonus")
	assert.Contains(t, out, "session 55 pts, streak 2, 3 attempts")
	assert.Contains(t, out, "Poetry Master unlocked")
}

func TestLeaderboard(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Leaderboard(&models.LeaderboardResponse{
		Entries: []models.LeaderboardEntry{
			{Rank: 1, UserID: "amal", Points: 80},
			{Rank: 2, UserID: "omar", Points: 40},
		},
		CurrentUser: &models.LeaderboardEntry{Rank: 9, UserID: "sami", Points: 5},
	})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	assert.Len(t, lines, 5)
	assert.Contains(t, lines[1], "amal")
	assert.Contains(t, lines[4], "sami")
	assert.Contains(t, lines[4], "(you)")

	buf.Reset()
	New(&buf).Leaderboard(&models.LeaderboardResponse{})
	assert.Contains(t, buf.String(), "no scores yet")
}
