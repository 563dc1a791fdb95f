package leaderboard

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/francosolari/nba-props-board/models"
)

// SortKey selects the primary ordering of the displayed leaderboard.
type SortKey string

const (
	SortByTotal   SortKey = "total"
	SortBySection SortKey = "section"
	SortByName    SortKey = "name"

	// SortByStandings survives in old links as a synonym for sorting
	// by the active section.
	SortByStandings SortKey = "standings"
)

// ParseSortKey maps a URL token to a canonical sort key. Unknown
// tokens fall back to total; the legacy "standings" token collapses
// into section sorting.
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortBySection, SortByStandings:
		return SortBySection
	case SortByName:
		return SortByName
	default:
		return SortByTotal
	}
}

// RankOptions parameterizes one ranking pass.
type RankOptions struct {
	SortBy SortKey
	// Section is the active section, consulted when SortBy is
	// section. Invalid values fall back to the standings section.
	Section models.CategoryID
	// Query drops entries whose name does not contain it,
	// case-insensitively.
	Query string
	// Pinned user ids are partitioned to the front after ranks are
	// assigned.
	Pinned []int
}

// Rank produces the displayed ordering: a stable sort by the primary
// key, then the query filter, then rank assignment by 1-based
// position, and finally a stable partition that moves pinned users to
// the front. Ranks are assigned before the pin partition, so a pinned
// entry keeps the rank it earned on merit. The input slice is never
// reordered.
func Rank(entries []models.Entry, opts RankOptions) []models.Entry {
	out := make([]models.Entry, len(entries))
	copy(out, entries)

	section := opts.Section
	if !section.Valid() {
		section = models.CategoryRegularSeasonStandings
	}

	key := opts.SortBy
	if key == SortByStandings {
		key = SortBySection
	}

	switch key {
	case SortBySection:
		slices.SortStableFunc(out, func(a, b models.Entry) int {
			if c := cmp.Compare(b.CategoryPoints(section), a.CategoryPoints(section)); c != 0 {
				return c
			}
			return cmp.Compare(b.TotalPoints, a.TotalPoints)
		})
	case SortByName:
		col := collate.New(language.English, collate.IgnoreCase)
		slices.SortStableFunc(out, func(a, b models.Entry) int {
			return col.CompareString(a.User.Name(), b.User.Name())
		})
	default:
		slices.SortStableFunc(out, func(a, b models.Entry) int {
			return cmp.Compare(b.TotalPoints, a.TotalPoints)
		})
	}

	if q := strings.ToLower(strings.TrimSpace(opts.Query)); q != "" {
		kept := out[:0]
		for _, e := range out {
			if strings.Contains(strings.ToLower(e.User.Name()), q) {
				kept = append(kept, e)
			}
		}
		out = kept
	}

	for i := range out {
		out[i].Rank = i + 1
	}

	if len(opts.Pinned) == 0 {
		return out
	}
	pinned := make(map[int]bool, len(opts.Pinned))
	for _, id := range opts.Pinned {
		pinned[id] = true
	}
	front := make([]models.Entry, 0, len(out))
	back := make([]models.Entry, 0, len(out))
	for _, e := range out {
		if pinned[e.User.ID] {
			front = append(front, e)
		} else {
			back = append(back, e)
		}
	}
	return append(front, back...)
}
