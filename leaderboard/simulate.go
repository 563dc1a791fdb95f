package leaderboard

import "github.com/francosolari/nba-props-board/models"

// Simulate applies what-if overrides to canonical entries and returns
// a fresh list with recomputed points. Rules:
//
//   - A conference listed in StandingsOrder rescores every standings
//     prediction in that conference: a team's effective finishing
//     position is its 1-based index in the list, teams absent from
//     the list keep their real position. Predicted positions never
//     change.
//   - An answer mark applies to every user whose normalized answer to
//     that question matches the overridden key: forced correct earns
//     the question's canonical value, forced incorrect earns zero.
//     Unmarked answers keep their delivered points.
//   - Overrides compose independently; marks on unknown question ids
//     are dropped silently.
//
// Inputs are never mutated. Empty overrides return the input slice
// itself, so callers can detect the no-op by reference.
func Simulate(entries []models.Entry, questions QuestionIndex, ov models.Overrides) []models.Entry {
	if ov.Empty() {
		return entries
	}

	confIdx := map[models.Conference]map[int]int{}
	for conf := range ov.StandingsOrder {
		if idx := ov.StandingsIndex(conf); idx != nil {
			confIdx[conf] = idx
		}
	}

	marks := map[int]map[string]models.OverrideState{}
	for qid, m := range ov.AnswerOverrides {
		if len(m) == 0 {
			continue
		}
		if _, known := questions[qid]; !known {
			continue
		}
		marks[qid] = m
	}

	out := make([]models.Entry, len(entries))
	for i, e := range entries {
		out[i] = simulateEntry(e, confIdx, marks)
	}
	return out
}

// Simulate applies overrides to the snapshot's own entries.
func (s Snapshot) Simulate(ov models.Overrides) []models.Entry {
	return Simulate(s.Entries, s.Questions, ov)
}

func simulateEntry(e models.Entry, confIdx map[models.Conference]map[int]int, marks map[int]map[string]models.OverrideState) models.Entry {
	sim := e
	sim.Categories = make([]models.Category, len(e.Categories))

	delta := 0
	for i, c := range e.Categories {
		sc, d := simulateCategory(c, confIdx, marks)
		sim.Categories[i] = sc
		delta += d
	}

	// Work in deltas rather than re-summing, so rows the overrides
	// never touched keep their delivered points bit for bit.
	sim.TotalPoints = e.TotalPoints + delta
	return sim
}

func simulateCategory(c models.Category, confIdx map[models.Conference]map[int]int, marks map[int]map[string]models.OverrideState) (models.Category, int) {
	if c.ID == models.CategoryRegularSeasonStandings {
		return simulateStandings(c, confIdx)
	}
	return simulateAnswers(c, marks)
}

func simulateStandings(c models.Category, confIdx map[models.Conference]map[int]int) (models.Category, int) {
	if len(confIdx) == 0 || len(c.Standings) == 0 {
		return c, 0
	}

	sc := c
	sc.Standings = make([]models.StandingsPrediction, len(c.Standings))

	delta := 0
	for i, row := range c.Standings {
		idx := confIdx[row.Team.Conference]
		if idx == nil {
			sc.Standings[i] = row
			continue
		}
		effective := row.ActualPosition
		if pos, ok := idx[row.Team.ID]; ok {
			effective = pos
		}
		pts := ScoreStandings(row.PredictedPosition, effective)
		delta += pts - row.Points
		row.ActualPosition = effective
		row.Points = pts
		sc.Standings[i] = row
	}
	sc.Points = c.Points + delta
	return sc, delta
}

func simulateAnswers(c models.Category, marks map[int]map[string]models.OverrideState) (models.Category, int) {
	if len(marks) == 0 || len(c.Answers) == 0 {
		return c, 0
	}

	sc := c
	sc.Answers = make([]models.AnswerPrediction, len(c.Answers))

	delta := 0
	for i, row := range c.Answers {
		mark, ok := answerMark(marks, row)
		if !ok {
			sc.Answers[i] = row
			continue
		}
		verdict := models.VerdictCorrect
		if mark == models.OverrideIncorrect {
			verdict = models.VerdictIncorrect
		}
		pts := ScoreAnswer(row, verdict)
		delta += pts - row.Points
		row.Verdict = verdict
		row.Points = pts
		sc.Answers[i] = row
	}
	sc.Points = c.Points + delta
	return sc, delta
}

func answerMark(marks map[int]map[string]models.OverrideState, row models.AnswerPrediction) (models.OverrideState, bool) {
	m := marks[row.QuestionID]
	if m == nil || !models.AnswerOverridable(row.Answer) {
		return "", false
	}
	mark, ok := m[models.NormalizeAnswer(row.Answer)]
	return mark, ok
}
