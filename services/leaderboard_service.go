package services

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/francosolari/nba-props-board/leaderboard"
	"github.com/francosolari/nba-props-board/metrics"
	"github.com/francosolari/nba-props-board/models"
	"github.com/francosolari/nba-props-board/storage"
	"github.com/francosolari/nba-props-board/upstream"
	"github.com/francosolari/nba-props-board/viewstate"
)

const (
	// snapshotTTL is how long a fetched leaderboard stays fresh.
	snapshotTTL = 60 * time.Second
	// refreshParallel caps concurrent background refetches.
	refreshParallel = 4
)

// LeaderboardView is the assembled page payload: the ranked entries a
// state makes visible plus the derived blocks around them.
type LeaderboardView struct {
	Season    models.Season `json:"season"`
	Kind      Kind          `json:"kind,omitempty"`
	Locked    bool          `json:"locked,omitempty"`
	OpensAt   *time.Time    `json:"opens_at,omitempty"`
	FetchedAt *time.Time    `json:"fetched_at,omitempty"`
	Stale     bool          `json:"stale,omitempty"`

	// EntryCount and QuestionCount describe the whole snapshot, not
	// just the visible slice.
	EntryCount    int `json:"entry_count"`
	QuestionCount int `json:"question_count"`

	Simulated  bool                     `json:"simulated,omitempty"`
	ShareQuery string                   `json:"share_query,omitempty"`
	Entries    []models.Entry           `json:"entries"`
	Top        []leaderboard.TopEntry   `json:"top,omitempty"`
	Rollups    []leaderboard.TeamRollup `json:"team_rollups,omitempty"`
	Primary    *EntryInsights           `json:"primary,omitempty"`
}

// EntryInsights is the per-user detail block rendered for the first
// selected user: progress bars, highlights, misses, and the playoff
// bracket reconstructed from their answers.
type EntryInsights struct {
	UserID     int                            `json:"user_id"`
	Rank       int                            `json:"rank"`
	Progress   []leaderboard.CategoryProgress `json:"progress"`
	Highlights []leaderboard.PredictionNote   `json:"highlights,omitempty"`
	Misses     []leaderboard.PredictionNote   `json:"misses,omitempty"`
	Bracket    leaderboard.Bracket            `json:"bracket"`
}

// SnapshotMeta says when a snapshot was fetched and whether it is a
// stale copy served because a refresh failed.
type SnapshotMeta struct {
	FetchedAt time.Time
	Stale     bool
}

type LeaderboardService interface {
	// View assembles the page payload for one season. The viewer's
	// state is built here, after the snapshot is in hand, so the
	// initial selection can seed from the top of the board.
	View(ctx context.Context, slug string, opts viewstate.InitOptions, query url.Values) (LeaderboardView, error)
	// Simulate assembles the payload under a caller-built state,
	// overrides included.
	Simulate(ctx context.Context, slug string, st viewstate.State) (LeaderboardView, error)
	// Snapshot returns the season's normalized leaderboard, from cache
	// when fresh.
	Snapshot(ctx context.Context, slug string) (leaderboard.Snapshot, SnapshotMeta, error)
	// Invalidate drops the cached snapshot so the next read refetches.
	Invalidate(slug string)
	// RefreshWatched refetches stale snapshots for seasons with live
	// socket viewers and nudges their rooms.
	RefreshWatched(ctx context.Context)
}

type cachedSnapshot struct {
	snap      leaderboard.Snapshot
	fetchedAt time.Time
}

type leaderboardService struct {
	client  upstream.Client
	seasons SeasonService
	hub     *leaderboard.Hub
	avatars *storage.AvatarResolver
	log     *slog.Logger
	ttl     time.Duration
	now     func() time.Time

	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]cachedSnapshot
	gen   map[string]uint64
}

func NewLeaderboardService(client upstream.Client, seasons SeasonService, hub *leaderboard.Hub, avatars *storage.AvatarResolver, log *slog.Logger) LeaderboardService {
	return &leaderboardService{
		client:  client,
		seasons: seasons,
		hub:     hub,
		avatars: avatars,
		log:     log,
		ttl:     snapshotTTL,
		now:     time.Now,
		cache:   make(map[string]cachedSnapshot),
		gen:     make(map[string]uint64),
	}
}

func (s *leaderboardService) View(ctx context.Context, slug string, opts viewstate.InitOptions, query url.Values) (LeaderboardView, error) {
	season, snap, meta, err := s.load(ctx, slug)
	if err != nil {
		return LeaderboardView{}, err
	}
	if season.Locked(s.now()) {
		return lockedView(season), nil
	}
	opts.Entries = snap.Entries
	return s.assemble(season, snap, meta, viewstate.New(opts, query)), nil
}

func (s *leaderboardService) Simulate(ctx context.Context, slug string, st viewstate.State) (LeaderboardView, error) {
	season, snap, meta, err := s.load(ctx, slug)
	if err != nil {
		return LeaderboardView{}, err
	}
	if season.Locked(s.now()) {
		return lockedView(season), nil
	}
	return s.assemble(season, snap, meta, st), nil
}

// load resolves the season and, unless the board is still hidden,
// its snapshot.
func (s *leaderboardService) load(ctx context.Context, slug string) (models.Season, leaderboard.Snapshot, SnapshotMeta, error) {
	season, err := s.seasons.BySlug(ctx, slug)
	if err != nil {
		return models.Season{}, leaderboard.Snapshot{}, SnapshotMeta{}, err
	}
	if season.Locked(s.now()) {
		return season, leaderboard.Snapshot{}, SnapshotMeta{}, nil
	}
	snap, meta, err := s.Snapshot(ctx, slug)
	if err != nil {
		return models.Season{}, leaderboard.Snapshot{}, SnapshotMeta{}, err
	}
	return season, snap, meta, nil
}

// lockedView is what renders while the submission window is open: the
// countdown, and nothing else.
func lockedView(season models.Season) LeaderboardView {
	return LeaderboardView{
		Season:  season,
		Kind:    KindLocked,
		Locked:  true,
		OpensAt: season.OpensAt(),
		Entries: []models.Entry{},
	}
}

func (s *leaderboardService) assemble(season models.Season, snap leaderboard.Snapshot, meta SnapshotMeta, st viewstate.State) LeaderboardView {
	view := LeaderboardView{Season: season, Entries: []models.Entry{}}
	fetched := meta.FetchedAt
	view.FetchedAt = &fetched
	view.Stale = meta.Stale
	view.EntryCount = len(snap.Entries)
	view.QuestionCount = len(snap.Questions)

	if len(snap.Entries) == 0 {
		view.Kind = KindEmpty
		return view
	}

	effective := snap.Simulate(st.Overrides)
	ranked := leaderboard.Rank(effective, st.RankOptions())

	view.Simulated = !st.Overrides.Empty()
	view.Entries = st.Visible(ranked)
	view.Top = leaderboard.TopThree(ranked)
	view.ShareQuery = st.Encode().Encode()
	if st.ShowAll && st.ActiveSection == models.CategoryRegularSeasonStandings {
		view.Rollups = leaderboard.TeamRollups(snap, ranked)
	}
	if len(st.SelectedUserIDs) > 0 {
		view.Primary = insightsFor(ranked, st.SelectedUserIDs[0])
	}
	return view
}

// insightsFor builds the detail block for one user off the ranked
// list, or nil when the user has no row.
func insightsFor(ranked []models.Entry, userID int) *EntryInsights {
	for _, e := range ranked {
		if e.User.ID != userID {
			continue
		}
		return &EntryInsights{
			UserID:     userID,
			Rank:       e.Rank,
			Progress:   leaderboard.Progress(e),
			Highlights: leaderboard.Highlights(e),
			Misses:     leaderboard.Misses(e),
			Bracket:    leaderboard.BracketFor(e),
		}
	}
	return nil
}

func (s *leaderboardService) Snapshot(ctx context.Context, slug string) (leaderboard.Snapshot, SnapshotMeta, error) {
	if snap, meta, ok := s.fresh(slug); ok {
		return snap, meta, nil
	}
	return s.refresh(ctx, slug)
}

func (s *leaderboardService) fresh(slug string) (leaderboard.Snapshot, SnapshotMeta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cache[slug]
	if !ok || s.now().Sub(c.fetchedAt) > s.ttl {
		return leaderboard.Snapshot{}, SnapshotMeta{}, false
	}
	return c.snap, SnapshotMeta{FetchedAt: c.fetchedAt}, true
}

// anyCached ignores the TTL; the fallback when a refresh fails.
func (s *leaderboardService) anyCached(slug string) (leaderboard.Snapshot, SnapshotMeta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cache[slug]
	if !ok {
		return leaderboard.Snapshot{}, SnapshotMeta{}, false
	}
	return c.snap, SnapshotMeta{FetchedAt: c.fetchedAt}, true
}

type refreshResult struct {
	snap leaderboard.Snapshot
	meta SnapshotMeta
}

func (s *leaderboardService) refresh(ctx context.Context, slug string) (leaderboard.Snapshot, SnapshotMeta, error) {
	v, err, _ := s.group.Do(slug, func() (interface{}, error) {
		if snap, meta, ok := s.fresh(slug); ok {
			return refreshResult{snap, meta}, nil
		}
		start := s.generation(slug)
		began := time.Now()
		body, err := s.client.LeaderboardSnapshot(ctx, slug)
		if err != nil {
			metrics.SnapshotRefreshes.WithLabelValues("network").Inc()
			return nil, translateUpstream(err)
		}
		snap, err := leaderboard.ParseSnapshot(body)
		if err != nil && !errors.Is(err, leaderboard.ErrSnapshotEmpty) {
			metrics.SnapshotRefreshes.WithLabelValues("schema").Inc()
			s.log.Error("leaderboard payload unrecognized", "season", slug, "error", err)
			return nil, schemaError(err)
		}
		metrics.SnapshotRefreshes.WithLabelValues("ok").Inc()
		metrics.SnapshotRefreshDuration.Observe(time.Since(began).Seconds())
		s.resolveAvatars(snap.Entries)
		at := s.now()
		s.store(slug, start, snap, at)
		return refreshResult{snap, SnapshotMeta{FetchedAt: at}}, nil
	})
	if err != nil {
		if snap, meta, ok := s.anyCached(slug); ok {
			s.log.Warn("serving stale leaderboard", "season", slug, "error", err)
			meta.Stale = true
			return snap, meta, nil
		}
		return leaderboard.Snapshot{}, SnapshotMeta{}, err
	}
	r := v.(refreshResult)
	return r.snap, r.meta, nil
}

// resolveAvatars runs while the parsed snapshot is still private to
// the refresh, so cached rows are never written to concurrently.
func (s *leaderboardService) resolveAvatars(entries []models.Entry) {
	if s.avatars == nil {
		return
	}
	for i := range entries {
		entries[i].User.AvatarURL = s.avatars.Resolve(entries[i].User.AvatarURL)
	}
}

func (s *leaderboardService) generation(slug string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen[slug]
}

// store commits a fetched snapshot unless an invalidation arrived
// while the fetch was in flight; the later writer wins.
func (s *leaderboardService) store(slug string, gen uint64, snap leaderboard.Snapshot, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen[slug] != gen {
		return
	}
	s.cache[slug] = cachedSnapshot{snap: snap, fetchedAt: at}
}

func (s *leaderboardService) Invalidate(slug string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen[slug]++
	delete(s.cache, slug)
}

func (s *leaderboardService) RefreshWatched(ctx context.Context) {
	watched := s.hub.Watched()
	if len(watched) == 0 {
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshParallel)
	for _, slug := range watched {
		slug := slug
		g.Go(func() error {
			if _, _, ok := s.fresh(slug); ok {
				return nil
			}
			before, _, hadCached := s.anyCached(slug)
			snap, meta, err := s.refresh(ctx, slug)
			if err != nil {
				s.log.Warn("background refresh failed", "season", slug, "error", err)
				return nil
			}
			if meta.Stale {
				return nil
			}
			if hadCached && sameTotals(before, snap) {
				return nil
			}
			s.hub.BroadcastSeason(slug, leaderboard.Event{
				Type:      leaderboard.EventLeaderboardUpdated,
				Season:    slug,
				UpdatedAt: meta.FetchedAt,
			})
			return nil
		})
	}
	g.Wait()
}

// sameTotals is a cheap change check between two snapshots; totals
// moving is what viewers care about.
func sameTotals(a, b leaderboard.Snapshot) bool {
	if len(a.Entries) != len(b.Entries) {
		return false
	}
	for i := range a.Entries {
		if a.Entries[i].User.ID != b.Entries[i].User.ID ||
			a.Entries[i].TotalPoints != b.Entries[i].TotalPoints {
			return false
		}
	}
	return true
}
