package leaderboard

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/francosolari/nba-props-board/models"
)

const (
	topSnapshotSize = 3
	maxRollupUsers  = 6
	maxNotes        = 8
)

// TopEntry is one podium slot: who, where they rank, and how far the
// what-if simulation moved them off their real total.
type TopEntry struct {
	User        models.User `json:"user"`
	Rank        int         `json:"rank"`
	TotalPoints int         `json:"total_points"`
	Delta       int         `json:"delta"`
}

// TopThree picks the podium from a displayed list. Entries are taken
// in rank order, so a pinned entry does not jump the podium; the delta
// is zero whenever simulation is off.
func TopThree(entries []models.Entry) []TopEntry {
	ranked := make([]models.Entry, len(entries))
	copy(ranked, entries)
	slices.SortStableFunc(ranked, func(a, b models.Entry) int {
		switch {
		case a.Rank > 0 && b.Rank > 0:
			return cmp.Compare(a.Rank, b.Rank)
		case a.Rank > 0:
			return -1
		case b.Rank > 0:
			return 1
		default:
			return cmp.Compare(b.TotalPoints, a.TotalPoints)
		}
	})
	if len(ranked) > topSnapshotSize {
		ranked = ranked[:topSnapshotSize]
	}

	out := make([]TopEntry, 0, len(ranked))
	for _, e := range ranked {
		out = append(out, TopEntry{
			User:        e.User,
			Rank:        e.Rank,
			TotalPoints: e.TotalPoints,
			Delta:       e.Delta(),
		})
	}
	return out
}

// TeamRollup lists who scored standings points on one team, best
// first.
type TeamRollup struct {
	Team  models.Team      `json:"team"`
	Users []TeamRollupUser `json:"users"`
}

type TeamRollupUser struct {
	User   models.User `json:"user"`
	Points int         `json:"points"`
}

// TeamRollups computes, for every team the snapshot knows, which of
// the displayed users earned standings points on it. Each team's rows
// sort points descending then name ascending and cap at six. Teams
// follow real finishing order, East before West.
func TeamRollups(snap Snapshot, entries []models.Entry) []TeamRollup {
	byTeam := map[int][]TeamRollupUser{}
	for _, e := range entries {
		c, ok := e.Category(models.CategoryRegularSeasonStandings)
		if !ok {
			continue
		}
		for _, row := range c.Standings {
			if row.Points <= 0 {
				continue
			}
			byTeam[row.Team.ID] = append(byTeam[row.Team.ID], TeamRollupUser{User: e.User, Points: row.Points})
		}
	}

	var out []TeamRollup
	for _, conf := range models.Conferences() {
		for _, team := range snap.ActualOrder(conf) {
			users := byTeam[team.ID]
			slices.SortStableFunc(users, func(a, b TeamRollupUser) int {
				if c := cmp.Compare(b.Points, a.Points); c != 0 {
					return c
				}
				return strings.Compare(a.User.Name(), b.User.Name())
			})
			if len(users) > maxRollupUsers {
				users = users[:maxRollupUsers]
			}
			if users == nil {
				users = []TeamRollupUser{}
			}
			out = append(out, TeamRollup{Team: team, Users: users})
		}
	}
	return out
}

// CategoryProgress is one progress bar: earned points, the ceiling,
// and the rounded percent between them.
type CategoryProgress struct {
	ID        models.CategoryID `json:"id"`
	Label     string            `json:"label"`
	Points    int               `json:"points"`
	MaxPoints int               `json:"max_points"`
	Percent   int               `json:"percent"`
}

// Progress reports each section's points against its maximum. A
// section with nothing to earn shows zero percent.
func Progress(e models.Entry) []CategoryProgress {
	out := make([]CategoryProgress, 0, len(e.Categories))
	for _, c := range e.Categories {
		p := CategoryProgress{ID: c.ID, Label: c.Label, Points: c.Points, MaxPoints: c.MaxPoints}
		if c.MaxPoints > 0 {
			p.Percent = int(math.Round(100 * float64(c.Points) / float64(c.MaxPoints)))
		}
		out = append(out, p)
	}
	return out
}

// PredictionNote is one line of a highlights or misses list.
type PredictionNote struct {
	Category models.CategoryID `json:"category"`
	Text     string            `json:"text"`
	Answer   string            `json:"answer,omitempty"`
	Points   int               `json:"points"`
}

// Highlights returns the first eight predictions that earned points,
// walking the entry's sections in display order.
func Highlights(e models.Entry) []PredictionNote {
	return collectNotes(e, func(points int, _ models.Verdict) bool {
		return points > 0
	})
}

// Misses returns the first eight predictions that went wrong: graded
// incorrect, or worth nothing.
func Misses(e models.Entry) []PredictionNote {
	return collectNotes(e, func(points int, verdict models.Verdict) bool {
		return verdict == models.VerdictIncorrect || points == 0
	})
}

func collectNotes(e models.Entry, keep func(int, models.Verdict) bool) []PredictionNote {
	var notes []PredictionNote
	for _, c := range e.Categories {
		for _, row := range c.Standings {
			if len(notes) == maxNotes {
				return notes
			}
			if !keep(row.Points, models.VerdictUnknown) {
				continue
			}
			notes = append(notes, standingsNote(c.ID, row))
		}
		for _, row := range c.Answers {
			if len(notes) == maxNotes {
				return notes
			}
			if !keep(row.Points, row.Verdict) {
				continue
			}
			text := row.Text()
			if text == "" {
				text = row.Answer
			}
			notes = append(notes, PredictionNote{
				Category: c.ID,
				Text:     text,
				Answer:   row.Answer,
				Points:   row.Points,
			})
		}
	}
	return notes
}

func standingsNote(id models.CategoryID, row models.StandingsPrediction) PredictionNote {
	answer := fmt.Sprintf("predicted %d", row.PredictedPosition)
	if row.ActualPosition > 0 {
		answer = fmt.Sprintf("predicted %d, finished %d", row.PredictedPosition, row.ActualPosition)
	}
	return PredictionNote{
		Category: id,
		Text:     row.Team.Name,
		Answer:   answer,
		Points:   row.Points,
	}
}
