package gamification

import "github.com/translation-arena/backend/internal/models"

// Badge is earned once per session when the cumulative score reaches MinPoints.
type Badge struct {
	Name      string `mapstructure:"name" json:"name"`
	MinPoints int    `mapstructure:"min_points" json:"min_points"`
}

var DefaultBadges = []Badge{
	{Name: "Poetry Master", MinPoints: 50},
	{Name: "Translation Expert", MinPoints: 100},
}

// CheckBadges returns the badges the session now qualifies for but does not hold
// yet, in table order. It must run after the score update.
func CheckBadges(session models.SessionState, badges []Badge) []string {
	var earned []string
	for _, b := range badges {
		if session.CumulativeScore >= b.MinPoints && !session.HasBadge(b.Name) {
			earned = append(earned, b.Name)
		}
	}
	return earned
}
