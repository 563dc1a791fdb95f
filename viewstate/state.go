// Package viewstate models the leaderboard page's selection state: who
// is shown and pinned, which section and sort are active, and the
// what-if toggle with its overrides. The state is a single record with
// explicit transitions, mirrored to a compact URL query so a view can
// be shared by link.
package viewstate

import (
	"cmp"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/francosolari/nba-props-board/leaderboard"
	"github.com/francosolari/nba-props-board/models"
)

// Mode selects how selected users are presented.
type Mode string

const (
	ModeShowcase Mode = "showcase"
	ModeCompare  Mode = "compare"
)

// topSeedSize is how many leaders join the initial selection.
const topSeedSize = 4

// State is the whole per-viewer page state. The zero value is not
// useful; build one with New.
type State struct {
	SelectedUserIDs []int
	PinnedUserIDs   []int
	ActiveSection   models.CategoryID
	Mode            Mode
	SortBy          leaderboard.SortKey
	Query           string
	WhatIfEnabled   bool
	ShowAll         bool

	Overrides models.Overrides

	// IntroAcknowledged records that the viewer has seen the what-if
	// explainer once this session.
	IntroAcknowledged bool
}

// InitOptions seed a fresh state before the URL is consulted.
type InitOptions struct {
	// InitialUserID is the profile the page was opened for, if any.
	InitialUserID int
	// LoggedInUserID joins and pins the selection implicitly, unless
	// the URL names users explicitly.
	LoggedInUserID int
	// Entries supply the top leaders that pad out the selection.
	Entries []models.Entry
}

// New builds the initial state. The URL query is read here, exactly
// once: an explicit users parameter replaces the implicit selection
// and suppresses the implicit self-pin.
func New(opts InitOptions, query url.Values) State {
	s := State{
		ActiveSection: models.CategoryRegularSeasonStandings,
		Mode:          ModeShowcase,
		SortBy:        leaderboard.SortByTotal,
	}

	if query.Has("section") {
		s.ActiveSection = ParseSection(query.Get("section"))
	}
	if query.Has("mode") {
		s.Mode = ParseMode(query.Get("mode"))
	}
	if query.Has("sortBy") {
		s.SortBy = leaderboard.ParseSortKey(query.Get("sortBy"))
	}
	s.Query = query.Get("q")
	s.WhatIfEnabled = query.Get("wi") == "1"
	s.ShowAll = query.Get("all") == "1"

	if query.Has("users") {
		for _, tok := range strings.Split(query.Get("users"), ",") {
			if id, err := strconv.Atoi(strings.TrimSpace(tok)); err == nil {
				s.SelectedUserIDs = appendUnique(s.SelectedUserIDs, id)
			}
		}
		return s
	}

	s.SelectedUserIDs = appendUnique(s.SelectedUserIDs, opts.InitialUserID)
	s.SelectedUserIDs = appendUnique(s.SelectedUserIDs, opts.LoggedInUserID)
	for _, id := range topIDs(opts.Entries, topSeedSize) {
		s.SelectedUserIDs = appendUnique(s.SelectedUserIDs, id)
	}
	if opts.LoggedInUserID != 0 {
		s.PinnedUserIDs = appendUnique(s.PinnedUserIDs, opts.LoggedInUserID)
	}
	return s
}

// Encode mirrors the state into URL values. Defaults are omitted so
// links stay short; writers should replace the query wholesale rather
// than push history entries.
func (s State) Encode() url.Values {
	v := url.Values{}
	if s.ActiveSection != models.CategoryRegularSeasonStandings {
		v.Set("section", SectionToken(s.ActiveSection))
	}
	if s.Mode != ModeShowcase {
		v.Set("mode", string(s.Mode))
	}
	if len(s.SelectedUserIDs) > 0 {
		v.Set("users", joinIDs(s.SelectedUserIDs))
	}
	if s.SortBy != leaderboard.SortByTotal {
		v.Set("sortBy", string(s.SortBy))
	}
	if s.Query != "" {
		v.Set("q", s.Query)
	}
	if s.WhatIfEnabled {
		v.Set("wi", "1")
	}
	if s.ShowAll {
		v.Set("all", "1")
	}
	return v
}

// ToggleUser adds or removes a user from the comparison set. Removing
// a user also drops their pin, since a pin implies selection.
func (s *State) ToggleUser(id int) {
	if id == 0 {
		return
	}
	if slices.Contains(s.SelectedUserIDs, id) {
		s.SelectedUserIDs = removeID(s.SelectedUserIDs, id)
		s.PinnedUserIDs = removeID(s.PinnedUserIDs, id)
		return
	}
	s.SelectedUserIDs = append(s.SelectedUserIDs, id)
}

// TogglePin flips a user's pin and makes sure a freshly pinned user is
// selected.
func (s *State) TogglePin(id int) {
	if id == 0 {
		return
	}
	if slices.Contains(s.PinnedUserIDs, id) {
		s.PinnedUserIDs = removeID(s.PinnedUserIDs, id)
		return
	}
	s.PinnedUserIDs = append(s.PinnedUserIDs, id)
	s.SelectedUserIDs = appendUnique(s.SelectedUserIDs, id)
}

func (s *State) SetSection(id models.CategoryID) {
	if id.Valid() {
		s.ActiveSection = id
	}
}

func (s *State) SetMode(m Mode) {
	if m == ModeShowcase || m == ModeCompare {
		s.Mode = m
	}
}

func (s *State) SetSortKey(k leaderboard.SortKey) {
	s.SortBy = leaderboard.ParseSortKey(string(k))
}

func (s *State) SetQuery(q string) {
	s.Query = q
}

func (s *State) SetShowAll(on bool) {
	s.ShowAll = on
}

// SetWhatIf flips simulation mode. Leaving what-if discards every
// override, so re-entering starts clean.
func (s *State) SetWhatIf(on bool) {
	if s.WhatIfEnabled && !on {
		s.Overrides = models.Overrides{}
	}
	s.WhatIfEnabled = on
}

// NeedsIntro reports whether the one-time what-if explainer should be
// shown.
func (s State) NeedsIntro() bool {
	return s.WhatIfEnabled && !s.IntroAcknowledged
}

func (s *State) AcknowledgeIntro() {
	s.IntroAcknowledged = true
}

// AdvanceAnswer cycles an answer override. Ignored outside what-if
// mode.
func (s *State) AdvanceAnswer(questionID int, answer string) {
	if !s.WhatIfEnabled {
		return
	}
	s.Overrides.AdvanceAnswer(questionID, answer)
}

// ApplyDrag folds a drag event over a conference's current ordering
// into the standings override. Ignored outside what-if mode.
func (s *State) ApplyDrag(conf models.Conference, current []int, ev models.DragEvent) {
	if !s.WhatIfEnabled {
		return
	}
	next := models.ReorderOnDrag(current, ev)
	if slices.Equal(next, current) {
		return
	}
	s.Overrides.SetStandingsOrder(conf, next)
}

// RankOptions projects the state into a ranking request.
func (s State) RankOptions() leaderboard.RankOptions {
	return leaderboard.RankOptions{
		SortBy:  s.SortBy,
		Section: s.ActiveSection,
		Query:   s.Query,
		Pinned:  slices.Clone(s.PinnedUserIDs),
	}
}

// Visible trims a displayed list to the selected users, preserving
// order. Show-all and an empty selection both show everyone.
func (s State) Visible(entries []models.Entry) []models.Entry {
	if s.ShowAll || len(s.SelectedUserIDs) == 0 {
		return entries
	}
	selected := make(map[int]bool, len(s.SelectedUserIDs))
	for _, id := range s.SelectedUserIDs {
		selected[id] = true
	}
	out := make([]models.Entry, 0, len(s.SelectedUserIDs))
	for _, e := range entries {
		if selected[e.User.ID] {
			out = append(out, e)
		}
	}
	return out
}

// ParseSection maps a URL token to a section; unknown tokens mean
// standings.
func ParseSection(tok string) models.CategoryID {
	switch strings.ToLower(strings.TrimSpace(tok)) {
	case "awards":
		return models.CategoryPlayerAwards
	case "props":
		return models.CategoryPropsYesNo
	default:
		return models.CategoryRegularSeasonStandings
	}
}

// SectionToken is the inverse of ParseSection.
func SectionToken(id models.CategoryID) string {
	switch id {
	case models.CategoryPlayerAwards:
		return "awards"
	case models.CategoryPropsYesNo:
		return "props"
	default:
		return "standings"
	}
}

// ParseMode maps a URL token to a mode; unknown tokens mean showcase.
func ParseMode(tok string) Mode {
	if strings.ToLower(strings.TrimSpace(tok)) == string(ModeCompare) {
		return ModeCompare
	}
	return ModeShowcase
}

func topIDs(entries []models.Entry, k int) []int {
	ranked := make([]models.Entry, len(entries))
	copy(ranked, entries)
	slices.SortStableFunc(ranked, func(a, b models.Entry) int {
		return cmp.Compare(b.TotalPoints, a.TotalPoints)
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	ids := make([]int, 0, len(ranked))
	for _, e := range ranked {
		if e.User.ID != 0 {
			ids = append(ids, e.User.ID)
		}
	}
	return ids
}

func appendUnique(ids []int, id int) []int {
	if id == 0 || slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

func removeID(ids []int, id int) []int {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func joinIDs(ids []int) string {
	toks := make([]string, 0, len(ids))
	for _, id := range ids {
		toks = append(toks, strconv.Itoa(id))
	}
	return strings.Join(toks, ",")
}
