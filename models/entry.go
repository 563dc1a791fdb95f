package models

// Entry is one user's scored leaderboard row for a season.
//
// TotalPoints is the figure the entry is ranked by. OriginalTotal is
// the server-graded total before any what-if simulation; for a freshly
// parsed snapshot the two are equal, and a simulated entry keeps
// OriginalTotal so the delta against reality stays visible.
type Entry struct {
	User          User       `json:"user"`
	Rank          int        `json:"rank"`
	TotalPoints   int        `json:"total_points"`
	OriginalTotal int        `json:"original_total"`
	Categories    []Category `json:"categories"`
}

// Category returns the section with the given id, if present.
func (e Entry) Category(id CategoryID) (Category, bool) {
	for _, c := range e.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryPoints returns the points earned in one section, zero when
// the entry has no such section.
func (e Entry) CategoryPoints(id CategoryID) int {
	if c, ok := e.Category(id); ok {
		return c.Points
	}
	return 0
}

// Delta is the simulated swing: total points minus the server-graded
// original. Zero for unsimulated entries.
func (e Entry) Delta() int {
	return e.TotalPoints - e.OriginalTotal
}
