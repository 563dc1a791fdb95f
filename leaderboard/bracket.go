package leaderboard

import "github.com/francosolari/nba-props-board/models"

// BracketPick is one in-season tournament selection with its grading.
type BracketPick struct {
	QuestionID int            `json:"question_id"`
	Text       string         `json:"text"`
	Answer     string         `json:"answer"`
	Verdict    models.Verdict `json:"verdict"`
	Points     int            `json:"points"`
}

// Bracket groups a user's in-season tournament picks by stage.
type Bracket struct {
	GroupWinners      []BracketPick `json:"group_winners"`
	Wildcards         []BracketPick `json:"wildcards"`
	ConferenceWinners []BracketPick `json:"conference_winners"`
	Tiebreaker        *BracketPick  `json:"tiebreaker,omitempty"`
}

// Empty reports whether the entry made no tournament picks at all.
func (b Bracket) Empty() bool {
	return len(b.GroupWinners) == 0 && len(b.Wildcards) == 0 &&
		len(b.ConferenceWinners) == 0 && b.Tiebreaker == nil
}

// BracketFor projects an entry's answers into the in-season
// tournament view, grouped by each question's prediction type.
// Questions outside the bracket taxonomy are left out; only the first
// tiebreaker counts.
func BracketFor(e models.Entry) Bracket {
	var b Bracket
	for _, c := range e.Categories {
		for _, row := range c.Answers {
			if row.Question == nil {
				continue
			}
			pick := BracketPick{
				QuestionID: row.QuestionID,
				Text:       row.Question.Text,
				Answer:     row.Answer,
				Verdict:    row.Verdict,
				Points:     row.Points,
			}
			switch row.Question.PredictionType {
			case models.PredictionTypeGroupWinner:
				b.GroupWinners = append(b.GroupWinners, pick)
			case models.PredictionTypeWildcard:
				b.Wildcards = append(b.Wildcards, pick)
			case models.PredictionTypeConferenceWinner:
				b.ConferenceWinners = append(b.ConferenceWinners, pick)
			case models.PredictionTypeTiebreaker:
				if b.Tiebreaker == nil {
					b.Tiebreaker = &pick
				}
			}
		}
	}
	return b
}
