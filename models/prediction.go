package models

// Verdict is the grading state of an answer prediction. Upstream
// delivers it as a nullable boolean; null means the season has not
// graded the question yet.
type Verdict string

const (
	VerdictCorrect   Verdict = "correct"
	VerdictIncorrect Verdict = "incorrect"
	VerdictUnknown   Verdict = "unknown"
)

func VerdictFromBoolPtr(b *bool) Verdict {
	switch {
	case b == nil:
		return VerdictUnknown
	case *b:
		return VerdictCorrect
	default:
		return VerdictIncorrect
	}
}

// Graded reports whether the verdict is settled either way.
func (v Verdict) Graded() bool {
	return v == VerdictCorrect || v == VerdictIncorrect
}

// StandingsPrediction is one row of a user's predicted conference
// table: where they slotted the team against where it actually ended
// up. ActualPosition is 0 until real standings are known.
type StandingsPrediction struct {
	Team              Team `json:"team"`
	PredictedPosition int  `json:"predicted_position"`
	ActualPosition    int  `json:"actual_position,omitempty"`
	Points            int  `json:"points"`
}

type AnswerPrediction struct {
	QuestionID int     `json:"question_id"`
	Answer     string  `json:"answer"`
	Verdict    Verdict `json:"verdict"`
	Points     int     `json:"points"`

	Question *Question `json:"question,omitempty"`
}

// Text returns the question text when the question is attached.
func (p AnswerPrediction) Text() string {
	if p.Question != nil {
		return p.Question.Text
	}
	return ""
}

// Worth returns the canonical point value of the underlying question,
// falling back to the points already earned when no question is
// attached.
func (p AnswerPrediction) Worth() int {
	if p.Question != nil {
		return p.Question.PointValue
	}
	return p.Points
}
