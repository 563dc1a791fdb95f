package leaderboard

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/francosolari/nba-props-board/models"
)

var (
	lakers   = models.Team{ID: 1, Name: "Los Angeles Lakers", Conference: models.ConferenceWest}
	warriors = models.Team{ID: 2, Name: "Golden State Warriors", Conference: models.ConferenceWest}
	suns     = models.Team{ID: 3, Name: "Phoenix Suns", Conference: models.ConferenceWest}
)

// standingsEntry predicts Lakers first, Warriors third, Suns second
// against a real finish of Lakers, Warriors, Suns: 3+1+1 points.
func standingsEntry(username string) models.Entry {
	return models.Entry{
		User: models.User{ID: 1, Username: username},
		Categories: []models.Category{{
			ID:     models.CategoryRegularSeasonStandings,
			Label:  models.CategoryRegularSeasonStandings.Label(),
			Points: 5,
			Standings: []models.StandingsPrediction{
				{Team: lakers, PredictedPosition: 1, ActualPosition: 1, Points: 3},
				{Team: warriors, PredictedPosition: 3, ActualPosition: 2, Points: 1},
				{Team: suns, PredictedPosition: 2, ActualPosition: 3, Points: 1},
			},
		}},
		TotalPoints:   5,
		OriginalTotal: 5,
	}
}

func propsEntry(id int, username, answer string, verdict models.Verdict, points int, q *models.Question) models.Entry {
	return models.Entry{
		User: models.User{ID: id, Username: username},
		Categories: []models.Category{{
			ID:     models.CategoryPropsYesNo,
			Label:  models.CategoryPropsYesNo.Label(),
			Points: points,
			Answers: []models.AnswerPrediction{
				{QuestionID: q.ID, Answer: answer, Verdict: verdict, Points: points, Question: q},
			},
		}},
		TotalPoints:   points,
		OriginalTotal: points,
	}
}

func TestSimulateEmptyOverridesIsIdentity(t *testing.T) {
	entries := []models.Entry{standingsEntry("franco")}

	out := Simulate(entries, QuestionIndex{}, models.Overrides{})

	require.Len(t, out, 1)
	assert.True(t, &out[0] == &entries[0], "empty overrides return the input slice itself")
}

func TestSimulateStandingsSwap(t *testing.T) {
	entries := []models.Entry{standingsEntry("franco")}

	// Hypothetical finish Lakers, Suns, Warriors.
	var ov models.Overrides
	ov.SetStandingsOrder(models.ConferenceWest, []int{lakers.ID, suns.ID, warriors.ID})

	out := Simulate(entries, QuestionIndex{}, ov)

	require.Len(t, out, 1)
	sim := out[0]
	assert.Equal(t, 9, sim.TotalPoints, "every pick is now exact")
	assert.Equal(t, 4, sim.Delta())
	assert.Equal(t, 5, sim.OriginalTotal)

	stand, ok := sim.Category(models.CategoryRegularSeasonStandings)
	require.True(t, ok)
	assert.Equal(t, 9, stand.Points)
	for _, row := range stand.Standings {
		assert.Equal(t, 3, row.Points, "team %s", row.Team.Name)
	}

	// Rows display the effective finish, not the real one.
	assert.Equal(t, 3, stand.Standings[1].ActualPosition, "warriors pushed to third")

	// The input entry is untouched.
	assert.Empty(t, cmp.Diff(standingsEntry("franco"), entries[0]))
}

func TestSimulateStandingsAbsentTeamKeepsRealPosition(t *testing.T) {
	entries := []models.Entry{standingsEntry("franco")}

	// Only the Suns are pinned to first; everyone else keeps their
	// real finish.
	var ov models.Overrides
	ov.SetStandingsOrder(models.ConferenceWest, []int{suns.ID})

	out := Simulate(entries, QuestionIndex{}, ov)

	stand, _ := out[0].Category(models.CategoryRegularSeasonStandings)
	// Suns: predicted 2, effective 1 -> adjacent.
	assert.Equal(t, 1, stand.Standings[2].Points)
	// Lakers and Warriors rescore against their real positions.
	assert.Equal(t, 3, stand.Standings[0].Points)
	assert.Equal(t, 1, stand.Standings[1].Points)
}

func TestSimulateAnswerFlips(t *testing.T) {
	q := &models.Question{ID: 5, Text: "Does any team win 70 games?", Category: models.QuestionCategoryProps, PointValue: 5}
	questions := QuestionIndex{q.ID: q}

	entries := []models.Entry{
		propsEntry(1, "x", "Yes", models.VerdictCorrect, 5, q),
		propsEntry(2, "y", "Yes", models.VerdictCorrect, 5, q),
		propsEntry(3, "z", "No", models.VerdictIncorrect, 0, q),
	}

	// Force "Yes" incorrect: advance the mark twice.
	var ov models.Overrides
	ov.AdvanceAnswer(q.ID, "Yes")
	ov.AdvanceAnswer(q.ID, "Yes")

	out := Simulate(entries, questions, ov)
	assert.Equal(t, 0, out[0].TotalPoints)
	assert.Equal(t, -5, out[0].Delta())
	assert.Equal(t, 0, out[1].TotalPoints)
	assert.Equal(t, 0, out[2].TotalPoints, "z answered No and is untouched")
	assert.Equal(t, models.VerdictIncorrect, out[0].Categories[0].Answers[0].Verdict)

	// Additionally force "No" correct.
	ov.AdvanceAnswer(q.ID, "No")

	out = Simulate(entries, questions, ov)
	assert.Equal(t, 0, out[0].TotalPoints)
	assert.Equal(t, 0, out[1].TotalPoints)
	assert.Equal(t, 5, out[2].TotalPoints)
	assert.Equal(t, 5, out[2].Delta())
}

func TestSimulateAnswerOverrideMatchesByFoldedKey(t *testing.T) {
	q := &models.Question{ID: 5, Text: "Finals MVP?", PointValue: 7}
	questions := QuestionIndex{q.ID: q}
	entries := []models.Entry{
		propsEntry(1, "x", "LeBron James", models.VerdictUnknown, 0, q),
	}

	var ov models.Overrides
	ov.AdvanceAnswer(q.ID, "  lebron JAMES ")

	out := Simulate(entries, questions, ov)
	assert.Equal(t, 7, out[0].TotalPoints)
	assert.Equal(t, models.VerdictCorrect, out[0].Categories[0].Answers[0].Verdict)
}

func TestSimulateUnknownQuestionOverrideIsDropped(t *testing.T) {
	q := &models.Question{ID: 5, PointValue: 5}
	questions := QuestionIndex{q.ID: q}
	entries := []models.Entry{
		propsEntry(1, "x", "Yes", models.VerdictCorrect, 5, q),
	}

	var ov models.Overrides
	ov.AdvanceAnswer(99, "Yes")

	out := Simulate(entries, questions, ov)
	assert.Empty(t, cmp.Diff(entries, out))
}

func TestSimulateOverridesComposeIndependently(t *testing.T) {
	q := &models.Question{ID: 5, Text: "Does any team win 70 games?", PointValue: 5}
	questions := QuestionIndex{q.ID: q}

	e := standingsEntry("franco")
	e.Categories = append(e.Categories, models.Category{
		ID:     models.CategoryPropsYesNo,
		Label:  models.CategoryPropsYesNo.Label(),
		Points: 0,
		Answers: []models.AnswerPrediction{
			{QuestionID: q.ID, Answer: "Yes", Verdict: models.VerdictUnknown, Points: 0, Question: q},
		},
	})
	e.TotalPoints = 5
	e.OriginalTotal = 5

	var ov models.Overrides
	ov.SetStandingsOrder(models.ConferenceWest, []int{lakers.ID, suns.ID, warriors.ID})
	ov.AdvanceAnswer(q.ID, "Yes")

	out := Simulate([]models.Entry{e}, questions, ov)

	require.Len(t, out, 1)
	assert.Equal(t, 14, out[0].TotalPoints, "9 standings + 5 forced props")
	assert.Equal(t, 9, out[0].CategoryPoints(models.CategoryRegularSeasonStandings))
	assert.Equal(t, 5, out[0].CategoryPoints(models.CategoryPropsYesNo))
}

func TestSimulateMovingTeamCloserNeverHurts(t *testing.T) {
	entries := []models.Entry{standingsEntry("franco")}

	before := Simulate(entries, QuestionIndex{}, models.Overrides{})[0].TotalPoints

	// Suns predicted second; drag them from third to second.
	var ov models.Overrides
	ov.SetStandingsOrder(models.ConferenceWest, []int{lakers.ID, suns.ID, warriors.ID})

	after := Simulate(entries, QuestionIndex{}, ov)[0]

	stand, _ := after.Category(models.CategoryRegularSeasonStandings)
	assert.GreaterOrEqual(t, stand.Standings[2].Points, 1)
	assert.GreaterOrEqual(t, after.TotalPoints, before)
}
