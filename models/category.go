package models

// CategoryID names one of the three scored sections of an entry.
type CategoryID string

const (
	CategoryRegularSeasonStandings CategoryID = "regular_season_standings"
	CategoryPlayerAwards           CategoryID = "player_awards"
	CategoryPropsYesNo             CategoryID = "props_yes_no"
)

func (id CategoryID) Valid() bool {
	switch id {
	case CategoryRegularSeasonStandings, CategoryPlayerAwards, CategoryPropsYesNo:
		return true
	}
	return false
}

// Label is the section heading shown to users.
func (id CategoryID) Label() string {
	switch id {
	case CategoryRegularSeasonStandings:
		return "Regular Season Standings"
	case CategoryPlayerAwards:
		return "Player Awards"
	case CategoryPropsYesNo:
		return "Props"
	default:
		return string(id)
	}
}

// CategoryIDs lists the scored sections in display order.
func CategoryIDs() []CategoryID {
	return []CategoryID{CategoryRegularSeasonStandings, CategoryPlayerAwards, CategoryPropsYesNo}
}

// Category is one scored section of an entry. Exactly one of Standings
// and Answers is populated, depending on the section.
type Category struct {
	ID        CategoryID            `json:"id"`
	Label     string                `json:"label"`
	Points    int                   `json:"points"`
	MaxPoints int                   `json:"max_points"`
	Standings []StandingsPrediction `json:"standings,omitempty"`
	Answers   []AnswerPrediction    `json:"answers,omitempty"`
}

// Progress returns earned points as a share of the maximum, in
// [0, 1]. Sections with nothing to earn report zero, not NaN.
func (c Category) Progress() float64 {
	if c.MaxPoints <= 0 {
		return 0
	}
	return float64(c.Points) / float64(c.MaxPoints)
}
