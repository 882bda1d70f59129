// Package render prints evaluations, awards and leaderboards for a terminal.
// Colour is decided by the output: a pipe or buffer gets plain text.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/translation-arena/backend/internal/diff"
	"github.com/translation-arena/backend/internal/evaluation"
	"github.com/translation-arena/backend/internal/models"
	"github.com/translation-arena/backend/internal/scoring"
)

type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	insert  lipgloss.Style
	replace lipgloss.Style
	delete  lipgloss.Style
	warning lipgloss.Style
	points  lipgloss.Style
	badge   lipgloss.Style
	self    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		label:   r.NewStyle().Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("241")),
		insert:  r.NewStyle().Foreground(lipgloss.Color("10")),
		replace: r.NewStyle().Foreground(lipgloss.Color("11")),
		delete:  r.NewStyle().Foreground(lipgloss.Color("9")).Strikethrough(true),
		warning: r.NewStyle().Foreground(lipgloss.Color("214")),
		points:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		badge:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
		self:    r.NewStyle().Bold(true),
	}
}

// Printer writes styled reports to one writer.
type Printer struct {
	w  io.Writer
	st styles
}

func New(w io.Writer) *Printer {
	return &Printer{w: w, st: newStyles(lipgloss.NewRenderer(w))}
}

// ── Evaluation ────────────────────────────────────────────

// Record prints the diff, scores, warnings and suggestions of one evaluation.
func (p *Printer) Record(rec *evaluation.Record) {
	fmt.Fprintln(p.w, p.st.title.Render("Evaluation "+rec.ID))
	if rec.Truncated {
		fmt.Fprintln(p.w, p.st.muted.Render("(input truncated for scoring)"))
	}

	if len(rec.Segments) > 0 {
		fmt.Fprintln(p.w)
		fmt.Fprintln(p.w, p.st.label.Render("Diff"))
		fmt.Fprintln(p.w, "  "+p.Diff(rec.Segments))
	}

	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.st.label.Render("Scores"))
	for _, kind := range rec.Kinds {
		res := rec.Scores[kind]
		name := fmt.Sprintf("  %-20s", kind)
		if !res.Available {
			reason := "unavailable"
			if res.Error != "" {
				reason += ": " + res.Error
			}
			fmt.Fprintln(p.w, name+p.st.muted.Render(reason))
			continue
		}
		fmt.Fprintln(p.w, name+formatResult(res))
	}

	if len(rec.Warnings) > 0 {
		fmt.Fprintln(p.w)
		fmt.Fprintln(p.w, p.st.label.Render("Warnings"))
		for _, w := range rec.Warnings {
			fmt.Fprintln(p.w, p.st.warning.Render("  ! "+w.Message))
		}
	}

	if len(rec.Suggestions) > 0 {
		fmt.Fprintln(p.w)
		fmt.Fprintln(p.w, p.st.label.Render("Suggestions"))
		for _, s := range rec.Suggestions {
			fmt.Fprintln(p.w, "  - "+s)
		}
	}
}

// Diff renders segments inline. Inserted words are marked {+ +}, missing ones
// [- -], and substitutions carry the reference wording after an arrow.
func (p *Printer) Diff(segs []diff.Segment) string {
	parts := make([]string, 0, len(segs))
	for _, seg := range segs {
		switch seg.Tag {
		case diff.Equal:
			parts = append(parts, seg.Text)
		case diff.Insert:
			parts = append(parts, p.st.insert.Render("{+"+seg.Text+"+}"))
		case diff.Replace:
			parts = append(parts, p.st.replace.Render(seg.Text+" (→ "+seg.Suggestion+")"))
		case diff.Delete:
			parts = append(parts, p.st.delete.Render("[-"+seg.Text+"-]"))
		}
	}
	return strings.Join(parts, " ")
}

func formatResult(res scoring.Result) string {
	switch d := res.Detail.(type) {
	case scoring.LexicalDetail:
		return fmt.Sprintf("%.2f%% (distance %d vs %s)", d.Similarity, d.Distance, d.Against)
	case scoring.ImageryDetail:
		return fmt.Sprintf("%d missing of %d key phrases", len(d.Missing), len(d.SourceKeywords))
	}
	return fmt.Sprintf("%.2f", res.Value)
}

// ── Gamification ──────────────────────────────────────────

// Award prints the points of one evaluation and any badges it unlocked.
func (p *Printer) Award(a *models.AwardResponse) {
	fmt.Fprintln(p.w, p.st.points.Render(fmt.Sprintf("+%d points", a.Points)))

	b := a.Breakdown
	line := func(label string, n int) {
		if n != 0 {
			fmt.Fprintf(p.w, "  %-16s %+d\n", label, n)
		}
	}
	line("base", b.Base)
	line("random bonus", b.RandomBonus)
	line("contradictions", b.Contradictions)
	line("literary loss", b.LiteraryLoss)
	line("stylistic", b.Stylistic)
	line("time bonus", b.TimeBonus)
	line("streak bonus", b.StreakBonus)

	fmt.Fprintln(p.w, p.st.muted.Render(fmt.Sprintf("  session %d pts, streak %d, %d attempts",
		a.Session.CumulativeScore, a.Session.StreakCount, a.Session.AttemptCount)))
	for _, name := range a.BadgesUnlocked {
		fmt.Fprintln(p.w, p.st.badge.Render("  ★ "+name+" unlocked"))
	}
}

// Leaderboard prints ranked entries, marking the caller's row.
func (p *Printer) Leaderboard(resp *models.LeaderboardResponse) {
	fmt.Fprintln(p.w, p.st.title.Render("Leaderboard"))
	if len(resp.Entries) == 0 {
		fmt.Fprintln(p.w, p.st.muted.Render("  no scores yet"))
		return
	}
	for _, e := range resp.Entries {
		row := fmt.Sprintf("  %3d. %-24s %6d", e.Rank, e.UserID, e.Points)
		if e.IsCurrentUser {
			row = p.st.self.Render(row + "  (you)")
		}
		fmt.Fprintln(p.w, row)
	}
	if cu := resp.CurrentUser; cu != nil && !inEntries(resp.Entries, cu.UserID) {
		fmt.Fprintln(p.w, p.st.muted.Render("  ..."))
		fmt.Fprintln(p.w, p.st.self.Render(fmt.Sprintf("  %3d. %-24s %6d  (you)", cu.Rank, cu.UserID, cu.Points)))
	}
}

func inEntries(entries []models.LeaderboardEntry, userID string) bool {
	for _, e := range entries {
		if e.UserID == userID {
			return true
		}
	}
	return false
}

// Exercises prints one line per exercise.
func (p *Printer) Exercises(list []models.Exercise) {
	for _, ex := range list {
		fmt.Fprintf(p.w, "%4d  %s\n", ex.ID, p.st.label.Render(ex.Title))
		fmt.Fprintln(p.w, p.st.muted.Render("      "+ex.SourceText))
	}
}
