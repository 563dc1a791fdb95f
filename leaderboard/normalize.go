package leaderboard

import (
	"cmp"
	"encoding/json"
	"errors"
	"slices"
	"strings"

	"github.com/francosolari/nba-props-board/models"
)

var (
	// ErrSnapshotSchema means the payload matched none of the known
	// leaderboard shapes.
	ErrSnapshotSchema = errors.New("snapshot did not match any known payload shape")
	// ErrSnapshotEmpty means the payload was well formed but carried
	// zero entries.
	ErrSnapshotEmpty = errors.New("snapshot contains no entries")
)

// QuestionIndex resolves question ids to the canonical Question value
// shared by every answer prediction in a snapshot.
type QuestionIndex map[int]*models.Question

// TeamIndex resolves every team id seen anywhere in a snapshot.
type TeamIndex map[int]models.Team

// Snapshot is the canonical result of normalizing one leaderboard
// payload. Entries are immutable once parsed; simulation returns fresh
// copies and never writes back.
type Snapshot struct {
	Entries   []models.Entry
	Questions QuestionIndex
	Teams     TeamIndex

	// real finishing position per team id, zero when unknown
	actual map[int]int
}

// ActualPosition returns the real finishing position for a team, zero
// when the snapshot never saw one.
func (s Snapshot) ActualPosition(teamID int) int {
	return s.actual[teamID]
}

// ActualOrder returns one conference's teams in real finishing order.
// Teams with no known position sort last, by name.
func (s Snapshot) ActualOrder(conf models.Conference) []models.Team {
	var teams []models.Team
	for _, t := range s.Teams {
		if t.Conference == conf {
			teams = append(teams, t)
		}
	}
	slices.SortFunc(teams, func(a, b models.Team) int {
		pa, pb := s.actual[a.ID], s.actual[b.ID]
		switch {
		case pa > 0 && pb > 0:
			if c := cmp.Compare(pa, pb); c != 0 {
				return c
			}
		case pa > 0:
			return -1
		case pb > 0:
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return teams
}

// ParseSnapshot normalizes a raw leaderboard payload into canonical
// entries. Three historical shapes are accepted, newest first: a flat
// array of entries, an object wrapping the list under "top_users", and
// a legacy object keyed by username. The first shape that yields at
// least one entry wins; shapes never mix.
//
// A payload that is well formed but has no entries returns
// ErrSnapshotEmpty; anything unrecognizable returns ErrSnapshotSchema.
// Both come with a usable zero-entry snapshot, so callers can treat
// the error as advisory.
func ParseSnapshot(data []byte) (Snapshot, error) {
	p := newSnapshotParser()
	sawEmpty := false

	// Shape 1: flat array of entries.
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err == nil {
		if entries := p.entries(rows); len(entries) > 0 {
			return p.snapshot(entries), nil
		}
		if len(rows) == 0 {
			sawEmpty = true
		}
	}

	// Shape 2: wrapped list under "top_users".
	var wrapped struct {
		TopUsers []json.RawMessage `json:"top_users"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.TopUsers != nil {
		if entries := p.entries(wrapped.TopUsers); len(entries) > 0 {
			return p.snapshot(entries), nil
		}
		if len(wrapped.TopUsers) == 0 {
			sawEmpty = true
		}
	}

	// Shape 3: legacy object keyed by username. Key order is not
	// meaningful, so impose a deterministic one.
	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(data, &keyed); err == nil {
		names := make([]string, 0, len(keyed))
		for name := range keyed {
			names = append(names, name)
		}
		slices.Sort(names)

		var entries []models.Entry
		for _, name := range names {
			if !looksLikeObject(keyed[name]) {
				continue
			}
			if e, ok := p.entry(keyed[name], name); ok {
				entries = append(entries, e)
			}
		}
		if len(entries) > 0 {
			slices.SortStableFunc(entries, func(a, b models.Entry) int {
				if c := cmp.Compare(b.TotalPoints, a.TotalPoints); c != 0 {
					return c
				}
				return strings.Compare(a.User.Username, b.User.Username)
			})
			return p.snapshot(entries), nil
		}
		if len(keyed) == 0 {
			sawEmpty = true
		}
	}

	err := ErrSnapshotSchema
	if sawEmpty {
		err = ErrSnapshotEmpty
	}
	return p.snapshot(nil), err
}

type rawUser struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	Avatar      string `json:"avatar"`
}

type rawCategory struct {
	Points      int               `json:"points"`
	MaxPoints   int               `json:"max_points"`
	Predictions []json.RawMessage `json:"predictions"`
}

type rawEntry struct {
	User        *rawUser               `json:"user"`
	Rank        int                    `json:"rank"`
	TotalPoints *int                   `json:"total_points"`
	Points      *int                   `json:"points"`
	Categories  map[string]rawCategory `json:"categories"`
}

type rawTeam struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Conference string `json:"conference"`
}

type rawStandingsPrediction struct {
	Team              *rawTeam `json:"team"`
	TeamID            int      `json:"team_id"`
	TeamName          string   `json:"team_name"`
	Conference        string   `json:"conference"`
	PredictedPosition int      `json:"predicted_position"`
	ActualPosition    *int     `json:"actual_position"`
	Points            int      `json:"points"`
}

type rawQuestion struct {
	ID             int    `json:"id"`
	Text           string `json:"text"`
	Category       string `json:"category"`
	PointValue     int    `json:"point_value"`
	PredictionType string `json:"prediction_type"`
}

type rawAnswerPrediction struct {
	QuestionID int          `json:"question_id"`
	Question   *rawQuestion `json:"question"`
	Answer     string       `json:"answer"`
	Correct    *bool        `json:"correct"`
	Points     int          `json:"points"`
	PointValue int          `json:"point_value"`
	Text       string       `json:"text"`
}

type snapshotParser struct {
	questions QuestionIndex
	teams     TeamIndex
	actual    map[int]int
}

func newSnapshotParser() *snapshotParser {
	return &snapshotParser{
		questions: QuestionIndex{},
		teams:     TeamIndex{},
		actual:    map[int]int{},
	}
}

func (p *snapshotParser) snapshot(entries []models.Entry) Snapshot {
	if entries == nil {
		entries = []models.Entry{}
	}
	return Snapshot{
		Entries:   entries,
		Questions: p.questions,
		Teams:     p.teams,
		actual:    p.actual,
	}
}

func (p *snapshotParser) entries(rows []json.RawMessage) []models.Entry {
	var entries []models.Entry
	for _, row := range rows {
		if e, ok := p.entry(row, ""); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// entry normalizes one row. fallbackUsername carries the object key of
// the legacy keyed shape, where the username lives outside the row.
func (p *snapshotParser) entry(raw json.RawMessage, fallbackUsername string) (models.Entry, bool) {
	var re rawEntry
	if err := json.Unmarshal(raw, &re); err != nil {
		return models.Entry{}, false
	}

	user := models.User{}
	if re.User != nil {
		user.ID = re.User.ID
		user.Username = re.User.Username
		user.DisplayName = re.User.DisplayName
		user.AvatarURL = re.User.AvatarURL
		if user.AvatarURL == "" {
			user.AvatarURL = re.User.Avatar
		}
	}
	if user.Username == "" {
		user.Username = fallbackUsername
	}
	if user.Username == "" && user.ID == 0 {
		return models.Entry{}, false
	}
	if user.DisplayName == "" {
		user.DisplayName = user.Username
	}

	categories := p.categories(re.Categories)

	total := 0
	switch {
	case re.TotalPoints != nil:
		total = *re.TotalPoints
	case re.Points != nil:
		total = *re.Points
	default:
		for _, c := range categories {
			total += c.Points
		}
	}

	return models.Entry{
		User:          user,
		Rank:          re.Rank,
		TotalPoints:   total,
		OriginalTotal: total,
		Categories:    categories,
	}, true
}

// categories collapses the wire's name-keyed category map into the
// closed three-section shape, in display order. Unknown names are
// dropped. When two wire names alias the same section the
// alphabetically first name wins, which keeps the result stable
// across runs.
func (p *snapshotParser) categories(raw map[string]rawCategory) []models.Category {
	if len(raw) == 0 {
		return nil
	}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	slices.Sort(names)

	byID := map[models.CategoryID]models.Category{}
	for _, name := range names {
		id, ok := canonicalCategory(name)
		if !ok {
			continue
		}
		if _, dup := byID[id]; dup {
			continue
		}
		byID[id] = p.category(id, raw[name])
	}

	var out []models.Category
	for _, id := range models.CategoryIDs() {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (p *snapshotParser) category(id models.CategoryID, rc rawCategory) models.Category {
	c := models.Category{
		ID:        id,
		Label:     id.Label(),
		Points:    rc.Points,
		MaxPoints: rc.MaxPoints,
	}
	for _, raw := range rc.Predictions {
		if id == models.CategoryRegularSeasonStandings {
			if row, ok := p.standingsRow(raw); ok {
				c.Standings = append(c.Standings, row)
			}
			continue
		}
		if row, ok := p.answerRow(raw, id); ok {
			c.Answers = append(c.Answers, row)
		}
	}
	return c
}

func (p *snapshotParser) standingsRow(raw json.RawMessage) (models.StandingsPrediction, bool) {
	var rs rawStandingsPrediction
	if err := json.Unmarshal(raw, &rs); err != nil {
		return models.StandingsPrediction{}, false
	}

	team := models.Team{ID: rs.TeamID, Name: rs.TeamName, Conference: parseConference(rs.Conference)}
	if rs.Team != nil {
		team = models.Team{ID: rs.Team.ID, Name: rs.Team.Name, Conference: parseConference(rs.Team.Conference)}
	}
	if team.ID == 0 && team.Name == "" {
		return models.StandingsPrediction{}, false
	}

	actual := 0
	if rs.ActualPosition != nil {
		actual = *rs.ActualPosition
	}
	p.registerTeam(team, actual)

	return models.StandingsPrediction{
		Team:              team,
		PredictedPosition: rs.PredictedPosition,
		ActualPosition:    actual,
		Points:            rs.Points,
	}, true
}

func (p *snapshotParser) answerRow(raw json.RawMessage, id models.CategoryID) (models.AnswerPrediction, bool) {
	var ra rawAnswerPrediction
	if err := json.Unmarshal(raw, &ra); err != nil {
		return models.AnswerPrediction{}, false
	}

	qid := ra.QuestionID
	if qid == 0 && ra.Question != nil {
		qid = ra.Question.ID
	}

	verdict := models.VerdictFromBoolPtr(ra.Correct)
	row := models.AnswerPrediction{
		QuestionID: qid,
		Answer:     ra.Answer,
		Verdict:    verdict,
		Points:     ra.Points,
	}
	if qid != 0 {
		row.Question = p.registerQuestion(qid, &ra, id, verdict)
	}
	return row, true
}

// registerQuestion upserts the shared canonical question and folds
// this row's evidence of its worth into the cached point value: the
// canonical value is the maximum seen anywhere in the snapshot,
// including points actually earned on a correct answer.
func (p *snapshotParser) registerQuestion(qid int, ra *rawAnswerPrediction, id models.CategoryID, verdict models.Verdict) *models.Question {
	q := p.questions[qid]
	if q == nil {
		q = &models.Question{ID: qid}
		if id == models.CategoryPlayerAwards {
			q.Category = models.QuestionCategoryAwards
		} else {
			q.Category = models.QuestionCategoryProps
		}
		p.questions[qid] = q
	}

	if ra.Question != nil {
		if q.Text == "" {
			q.Text = ra.Question.Text
		}
		if q.PredictionType == "" {
			q.PredictionType = models.PredictionType(ra.Question.PredictionType)
		}
		if ra.Question.PointValue > q.PointValue {
			q.PointValue = ra.Question.PointValue
		}
	}
	if q.Text == "" {
		q.Text = ra.Text
	}
	if ra.PointValue > q.PointValue {
		q.PointValue = ra.PointValue
	}
	if verdict == models.VerdictCorrect && ra.Points > q.PointValue {
		q.PointValue = ra.Points
	}
	return q
}

// registerTeam records a team and, when known, its real finishing
// position. The first non-zero position seen wins; a later row can
// still fill in a name the first one lacked.
func (p *snapshotParser) registerTeam(team models.Team, actual int) {
	if existing, ok := p.teams[team.ID]; ok {
		if existing.Name == "" && team.Name != "" {
			p.teams[team.ID] = team
		}
	} else {
		p.teams[team.ID] = team
	}
	if actual > 0 {
		if _, ok := p.actual[team.ID]; !ok {
			p.actual[team.ID] = actual
		}
	}
}

func parseConference(s string) models.Conference {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "east", "eastern":
		return models.ConferenceEast
	case "west", "western":
		return models.ConferenceWest
	}
	return models.Conference(strings.TrimSpace(s))
}

func looksLikeObject(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

// canonicalCategory maps the wire's loosely spelled category names to
// the closed section set.
func canonicalCategory(name string) (models.CategoryID, bool) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_") {
	case "regular_season_standings", "standings", "regular_season":
		return models.CategoryRegularSeasonStandings, true
	case "player_awards", "awards":
		return models.CategoryPlayerAwards, true
	case "props_yes_no", "props", "props_(yes/no)", "yes/no_props":
		return models.CategoryPropsYesNo, true
	}
	return "", false
}
