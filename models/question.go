package models

// QuestionCategory groups questions on the season dashboard.
type QuestionCategory string

const (
	QuestionCategoryAwards QuestionCategory = "Awards"
	QuestionCategoryProps  QuestionCategory = "Props"
)

// PredictionType refines how an answer is interpreted and scored.
// Regular questions leave it empty.
type PredictionType string

const (
	PredictionTypeGroupWinner      PredictionType = "group_winner"
	PredictionTypeWildcard         PredictionType = "wildcard"
	PredictionTypeConferenceWinner PredictionType = "conference_winner"
	PredictionTypeTiebreaker       PredictionType = "tiebreaker"
)

type Question struct {
	ID             int              `json:"id"`
	Text           string           `json:"text"`
	Category       QuestionCategory `json:"category,omitempty"`
	PredictionType PredictionType   `json:"prediction_type,omitempty"`

	// PointValue is the canonical worth of the question: the maximum
	// value observed across all entries in the snapshot. Individual
	// answer rows may carry a stale or missing value; this one wins.
	PointValue int `json:"point_value"`
}

// IsBracket reports whether the question belongs to the in-season
// tournament bracket (group winners, wildcards, conference finals).
func (q Question) IsBracket() bool {
	switch q.PredictionType {
	case PredictionTypeGroupWinner, PredictionTypeWildcard, PredictionTypeConferenceWinner:
		return true
	}
	return false
}
