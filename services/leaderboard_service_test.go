package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/francosolari/nba-props-board/leaderboard"
	"github.com/francosolari/nba-props-board/models"
	"github.com/francosolari/nba-props-board/storage"
	"github.com/francosolari/nba-props-board/upstream"
	"github.com/francosolari/nba-props-board/viewstate"
)

type fakeUpstream struct {
	snapshotFn     func(ctx context.Context, season string) ([]byte, error)
	seasonsFn      func(ctx context.Context) ([]models.Season, error)
	participatedFn func(ctx context.Context, authToken string) ([]models.Season, error)
	answersFn      func(ctx context.Context, season, authToken string) ([]upstream.AnswerItem, error)
	saveFn         func(ctx context.Context, season, authToken string, answers []upstream.AnswerItem) (upstream.SaveResult, error)
}

func (f *fakeUpstream) LeaderboardSnapshot(ctx context.Context, season string) ([]byte, error) {
	return f.snapshotFn(ctx, season)
}

func (f *fakeUpstream) Seasons(ctx context.Context) ([]models.Season, error) {
	return f.seasonsFn(ctx)
}

func (f *fakeUpstream) ParticipatedSeasons(ctx context.Context, authToken string) ([]models.Season, error) {
	return f.participatedFn(ctx, authToken)
}

func (f *fakeUpstream) Answers(ctx context.Context, season, authToken string) ([]upstream.AnswerItem, error) {
	return f.answersFn(ctx, season, authToken)
}

func (f *fakeUpstream) SaveAnswers(ctx context.Context, season, authToken string, answers []upstream.AnswerItem) (upstream.SaveResult, error) {
	return f.saveFn(ctx, season, authToken, answers)
}

type fakeSeasons struct {
	list []models.Season
	err  error
}

func (f *fakeSeasons) List(ctx context.Context) ([]models.Season, error) {
	return f.list, f.err
}

func (f *fakeSeasons) Current(ctx context.Context) (models.Season, error) {
	if f.err != nil {
		return models.Season{}, f.err
	}
	if len(f.list) == 0 {
		return models.Season{}, ErrNoCurrentSeason
	}
	return f.list[0], nil
}

func (f *fakeSeasons) BySlug(ctx context.Context, slug string) (models.Season, error) {
	if f.err != nil {
		return models.Season{}, f.err
	}
	for _, s := range f.list {
		if s.Slug == slug {
			return s, nil
		}
	}
	return models.Season{}, ErrSeasonNotFound
}

func (f *fakeSeasons) Participated(ctx context.Context, authToken string) ([]models.Season, error) {
	return f.list, f.err
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// visibleSeason has a closed submission window, so its results show.
func visibleSeason(slug string) models.Season {
	open := false
	end := time.Date(2025, 10, 21, 12, 0, 0, 0, time.UTC)
	return models.Season{Slug: slug, Year: 2026, IsCurrent: true, SubmissionsOpen: &open, SubmissionEnd: &end}
}

// hiddenSeason is still collecting submissions.
func hiddenSeason(slug string) models.Season {
	open := true
	end := time.Date(2026, 10, 20, 12, 0, 0, 0, time.UTC)
	return models.Season{Slug: slug, Year: 2027, SubmissionsOpen: &open, SubmissionEnd: &end}
}

var boardJSON = []byte(`[
	{
		"user": {"id": 1, "username": "ana", "display_name": "Ana"},
		"total_points": 12,
		"categories": {
			"player_awards": {
				"points": 12,
				"max_points": 20,
				"predictions": [
					{"question": {"id": 7, "text": "Who wins MVP?", "point_value": 12}, "answer": "Jokic", "correct": true, "points": 12}
				]
			}
		}
	},
	{"user": {"id": 2, "username": "bo"}, "total_points": 9},
	{"user": {"id": 3, "username": "cy"}, "total_points": 7},
	{"user": {"id": 4, "username": "dee"}, "total_points": 15}
]`)

func newBoardService(t *testing.T, client upstream.Client, seasons SeasonService) (*leaderboardService, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 4, 15, 9, 0, 0, 0, time.UTC)}
	svc := NewLeaderboardService(client, seasons, leaderboard.NewHub(discardLogger()), nil, discardLogger()).(*leaderboardService)
	svc.now = clock.Now
	return svc, clock
}

func TestViewAssemblesBoard(t *testing.T) {
	client := &fakeUpstream{
		snapshotFn: func(_ context.Context, season string) ([]byte, error) {
			assert.Equal(t, "2025-26", season)
			return boardJSON, nil
		},
	}
	svc, _ := newBoardService(t, client, &fakeSeasons{list: []models.Season{visibleSeason("2025-26")}})

	view, err := svc.View(context.Background(), "2025-26", viewstate.InitOptions{}, url.Values{"users": {"1"}})
	require.NoError(t, err)

	assert.Empty(t, view.Kind)
	assert.False(t, view.Locked)
	require.NotNil(t, view.FetchedAt)
	assert.False(t, view.Stale)
	assert.False(t, view.Simulated)
	assert.Equal(t, 4, view.EntryCount)
	assert.Equal(t, 1, view.QuestionCount)
	assert.Equal(t, "users=1", view.ShareQuery)

	// Only the selected user is listed, but the podium ranks everyone.
	require.Len(t, view.Entries, 1)
	assert.Equal(t, "ana", view.Entries[0].User.Username)
	assert.Equal(t, 2, view.Entries[0].Rank)
	require.Len(t, view.Top, 3)
	assert.Equal(t, "dee", view.Top[0].User.Username)
	assert.Equal(t, 15, view.Top[0].TotalPoints)

	require.NotNil(t, view.Primary)
	assert.Equal(t, 1, view.Primary.UserID)
	assert.Equal(t, 2, view.Primary.Rank)
	require.Len(t, view.Primary.Progress, 1)
	assert.Equal(t, 60, view.Primary.Progress[0].Percent)
	require.Len(t, view.Primary.Highlights, 1)
	assert.Equal(t, "Who wins MVP?", view.Primary.Highlights[0].Text)
}

func TestViewHiddenSeasonSkipsFetch(t *testing.T) {
	fetched := false
	client := &fakeUpstream{
		snapshotFn: func(context.Context, string) ([]byte, error) {
			fetched = true
			return boardJSON, nil
		},
	}
	season := hiddenSeason("2026-27")
	svc, _ := newBoardService(t, client, &fakeSeasons{list: []models.Season{season}})

	view, err := svc.View(context.Background(), "2026-27", viewstate.InitOptions{}, url.Values{})
	require.NoError(t, err)

	assert.False(t, fetched)
	assert.Equal(t, KindLocked, view.Kind)
	assert.True(t, view.Locked)
	require.NotNil(t, view.OpensAt)
	assert.Equal(t, *season.SubmissionEnd, *view.OpensAt)
	assert.Empty(t, view.Entries)
	assert.Nil(t, view.FetchedAt)
}

func TestViewEmptyBoard(t *testing.T) {
	client := &fakeUpstream{
		snapshotFn: func(context.Context, string) ([]byte, error) {
			return []byte(`[]`), nil
		},
	}
	svc, _ := newBoardService(t, client, &fakeSeasons{list: []models.Season{visibleSeason("2025-26")}})

	view, err := svc.View(context.Background(), "2025-26", viewstate.InitOptions{}, url.Values{})
	require.NoError(t, err)

	assert.Equal(t, KindEmpty, view.Kind)
	assert.NotNil(t, view.Entries)
	assert.Empty(t, view.Entries)
}

func TestViewUnknownSeason(t *testing.T) {
	svc, _ := newBoardService(t, &fakeUpstream{}, &fakeSeasons{})

	_, err := svc.View(context.Background(), "1896-97", viewstate.InitOptions{}, url.Values{})
	assert.ErrorIs(t, err, ErrSeasonNotFound)
}

func TestViewSeedsSelectionFromBoard(t *testing.T) {
	client := &fakeUpstream{
		snapshotFn: func(context.Context, string) ([]byte, error) {
			return boardJSON, nil
		},
	}
	svc, _ := newBoardService(t, client, &fakeSeasons{list: []models.Season{visibleSeason("2025-26")}})

	view, err := svc.View(context.Background(), "2025-26", viewstate.InitOptions{LoggedInUserID: 3}, url.Values{})
	require.NoError(t, err)

	// The viewer joins first, then the top of the board fills out the
	// selection; the viewer's own row is pinned ahead of the ranking.
	assert.Equal(t, "users=3%2C4%2C1%2C2", view.ShareQuery)
	require.Len(t, view.Entries, 4)
	assert.Equal(t, "cy", view.Entries[0].User.Username)
	assert.Equal(t, 4, view.Entries[0].Rank)
	assert.Equal(t, "dee", view.Entries[1].User.Username)
	require.NotNil(t, view.Primary)
	assert.Equal(t, 3, view.Primary.UserID)
}

func TestViewClassifiesFailures(t *testing.T) {
	tests := []struct {
		name string
		fn   func(context.Context, string) ([]byte, error)
		kind Kind
	}{
		{
			name: "network",
			fn: func(context.Context, string) ([]byte, error) {
				return nil, upstream.ErrUnavailable
			},
			kind: KindNetwork,
		},
		{
			name: "schema",
			fn: func(context.Context, string) ([]byte, error) {
				return []byte(`"numbers to follow"`), nil
			},
			kind: KindSchema,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeUpstream{snapshotFn: tt.fn}
			svc, _ := newBoardService(t, client, &fakeSeasons{list: []models.Season{visibleSeason("2025-26")}})

			_, err := svc.View(context.Background(), "2025-26", viewstate.InitOptions{}, url.Values{})
			require.Error(t, err)
			kind, ok := Classify(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestViewMarksSimulation(t *testing.T) {
	client := &fakeUpstream{
		snapshotFn: func(context.Context, string) ([]byte, error) {
			return boardJSON, nil
		},
	}
	svc, _ := newBoardService(t, client, &fakeSeasons{list: []models.Season{visibleSeason("2025-26")}})

	st := viewstate.New(viewstate.InitOptions{}, url.Values{"wi": {"1"}})
	st.AdvanceAnswer(7, "Jokic")

	view, err := svc.Simulate(context.Background(), "2025-26", st)
	require.NoError(t, err)
	assert.True(t, view.Simulated)
}

func TestSnapshotResolvesAvatars(t *testing.T) {
	client := &fakeUpstream{
		snapshotFn: func(context.Context, string) ([]byte, error) {
			return []byte(`[{"user": {"id": 1, "username": "ana", "avatar_url": "avatars/ana.png"}, "total_points": 3}]`), nil
		},
	}
	svc, _ := newBoardService(t, client, &fakeSeasons{})
	resolver, err := storage.NewAvatarResolver("https://cdn.example.com")
	require.NoError(t, err)
	svc.avatars = resolver

	snap, _, err := svc.Snapshot(context.Background(), "2025-26")
	require.NoError(t, err)
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, "https://cdn.example.com/avatars/ana.png", snap.Entries[0].User.AvatarURL)
}

func TestSnapshotServedFromCache(t *testing.T) {
	calls := 0
	client := &fakeUpstream{
		snapshotFn: func(context.Context, string) ([]byte, error) {
			calls++
			return boardJSON, nil
		},
	}
	svc, clock := newBoardService(t, client, &fakeSeasons{})

	_, first, err := svc.Snapshot(context.Background(), "2025-26")
	require.NoError(t, err)
	_, second, err := svc.Snapshot(context.Background(), "2025-26")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, first.FetchedAt, second.FetchedAt)

	clock.Advance(snapshotTTL + time.Second)
	_, third, err := svc.Snapshot(context.Background(), "2025-26")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, third.FetchedAt.After(first.FetchedAt))
}

func TestSnapshotStaleFallback(t *testing.T) {
	healthy := true
	client := &fakeUpstream{
		snapshotFn: func(context.Context, string) ([]byte, error) {
			if !healthy {
				return nil, upstream.ErrUnavailable
			}
			return boardJSON, nil
		},
	}
	svc, clock := newBoardService(t, client, &fakeSeasons{})

	_, fresh, err := svc.Snapshot(context.Background(), "2025-26")
	require.NoError(t, err)

	healthy = false
	clock.Advance(snapshotTTL + time.Second)

	snap, meta, err := svc.Snapshot(context.Background(), "2025-26")
	require.NoError(t, err)
	assert.True(t, meta.Stale)
	assert.Equal(t, fresh.FetchedAt, meta.FetchedAt)
	assert.Len(t, snap.Entries, 4)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	calls := 0
	client := &fakeUpstream{
		snapshotFn: func(context.Context, string) ([]byte, error) {
			calls++
			return boardJSON, nil
		},
	}
	svc, _ := newBoardService(t, client, &fakeSeasons{})

	_, _, err := svc.Snapshot(context.Background(), "2025-26")
	require.NoError(t, err)
	svc.Invalidate("2025-26")
	_, _, err = svc.Snapshot(context.Background(), "2025-26")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestStoreDropsSupersededFetch(t *testing.T) {
	svc, clock := newBoardService(t, &fakeUpstream{}, &fakeSeasons{})

	gen := svc.generation("2025-26")
	svc.Invalidate("2025-26")
	svc.store("2025-26", gen, leaderboard.Snapshot{}, clock.Now())

	_, _, ok := svc.anyCached("2025-26")
	assert.False(t, ok, "a fetch that started before the invalidation must not repopulate the cache")
}

func TestSameTotals(t *testing.T) {
	a := leaderboard.Snapshot{Entries: []models.Entry{
		{User: models.User{ID: 1}, TotalPoints: 10},
		{User: models.User{ID: 2}, TotalPoints: 8},
	}}
	b := leaderboard.Snapshot{Entries: []models.Entry{
		{User: models.User{ID: 1}, TotalPoints: 10},
		{User: models.User{ID: 2}, TotalPoints: 8},
	}}
	assert.True(t, sameTotals(a, b))

	b.Entries[1].TotalPoints = 9
	assert.False(t, sameTotals(a, b))

	b.Entries = b.Entries[:1]
	assert.False(t, sameTotals(a, b))
}

func TestViewSurfacesStaleCopy(t *testing.T) {
	healthy := true
	client := &fakeUpstream{
		snapshotFn: func(context.Context, string) ([]byte, error) {
			if !healthy {
				return nil, errors.New("connection reset")
			}
			return boardJSON, nil
		},
	}
	svc, clock := newBoardService(t, client, &fakeSeasons{list: []models.Season{visibleSeason("2025-26")}})

	_, err := svc.View(context.Background(), "2025-26", viewstate.InitOptions{}, url.Values{})
	require.NoError(t, err)

	healthy = false
	clock.Advance(snapshotTTL + time.Minute)

	view, err := svc.View(context.Background(), "2025-26", viewstate.InitOptions{}, url.Values{})
	require.NoError(t, err)
	assert.True(t, view.Stale)
	require.Len(t, view.Top, 3)
}
