// Package leaderboard holds the computation core of the prediction
// game: snapshot normalization, scoring, what-if simulation, ranking
// and display projections, plus the websocket hub that tells viewers
// when a board moved. Everything except the hub is pure and safe to
// call from tests with literal inputs.
package leaderboard

import "github.com/francosolari/nba-props-board/models"

// Points awarded by the standings distance rule.
const (
	PointsExactPosition    = 3
	PointsAdjacentPosition = 1
)

// ScoreStandings maps a predicted and an actual conference position to
// points under the distance rule:
//
//   - actual unknown (zero) -> 0
//   - exact hit -> 3
//   - off by one -> 1
//   - anything else -> 0
//
// The caller may pass a simulated actual position; the rule does not
// care where the value came from.
func ScoreStandings(predicted, actual int) int {
	if actual <= 0 || predicted <= 0 {
		return 0
	}
	switch d := predicted - actual; {
	case d == 0:
		return PointsExactPosition
	case d == 1 || d == -1:
		return PointsAdjacentPosition
	default:
		return 0
	}
}

// ScoreAnswer maps an answer prediction and a verdict to points:
// correct earns the question's canonical point value, incorrect earns
// nothing, and an ungraded question keeps whatever the server
// delivered. Re-grading is not this function's job.
func ScoreAnswer(p models.AnswerPrediction, verdict models.Verdict) int {
	switch verdict {
	case models.VerdictCorrect:
		return p.Worth()
	case models.VerdictIncorrect:
		return 0
	default:
		return p.Points
	}
}
