package services

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/francosolari/nba-props-board/models"
	"github.com/francosolari/nba-props-board/upstream"
)

// seasonListTTL bounds how long the season list is served from memory.
const seasonListTTL = 5 * time.Minute

type SeasonService interface {
	List(ctx context.Context) ([]models.Season, error)
	Current(ctx context.Context) (models.Season, error)
	BySlug(ctx context.Context, slug string) (models.Season, error)
	Participated(ctx context.Context, authToken string) ([]models.Season, error)
}

type seasonService struct {
	client upstream.Client
	log    *slog.Logger
	ttl    time.Duration
	now    func() time.Time

	group singleflight.Group

	mu        sync.RWMutex
	seasons   []models.Season
	fetchedAt time.Time
}

func NewSeasonService(client upstream.Client, log *slog.Logger) SeasonService {
	return &seasonService{
		client: client,
		log:    log,
		ttl:    seasonListTTL,
		now:    time.Now,
	}
}

// List returns every known season, newest first. The list changes once
// a year, so a short in-memory cache absorbs almost all traffic.
func (s *seasonService) List(ctx context.Context) ([]models.Season, error) {
	if cached, ok := s.cached(); ok {
		return cached, nil
	}

	v, err, _ := s.group.Do("seasons", func() (interface{}, error) {
		if cached, ok := s.cached(); ok {
			return cached, nil
		}
		seasons, err := s.client.Seasons(ctx)
		if err != nil {
			return nil, translateUpstream(err)
		}
		slices.SortStableFunc(seasons, func(a, b models.Season) int {
			return b.Year - a.Year
		})
		s.mu.Lock()
		s.seasons = seasons
		s.fetchedAt = s.now()
		s.mu.Unlock()
		return seasons, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Season), nil
}

func (s *seasonService) cached() ([]models.Season, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.seasons == nil || s.now().Sub(s.fetchedAt) > s.ttl {
		return nil, false
	}
	return s.seasons, true
}

// Current resolves the season the page opens on: the one flagged
// current, or the newest when the backend flags none.
func (s *seasonService) Current(ctx context.Context) (models.Season, error) {
	seasons, err := s.List(ctx)
	if err != nil {
		return models.Season{}, err
	}
	for _, season := range seasons {
		if season.IsCurrent {
			return season, nil
		}
	}
	if len(seasons) > 0 {
		return seasons[0], nil
	}
	return models.Season{}, ErrNoCurrentSeason
}

func (s *seasonService) BySlug(ctx context.Context, slug string) (models.Season, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return models.Season{}, ErrSeasonNotFound
	}
	seasons, err := s.List(ctx)
	if err != nil {
		return models.Season{}, err
	}
	for _, season := range seasons {
		if season.Slug == slug {
			return season, nil
		}
	}
	return models.Season{}, ErrSeasonNotFound
}

// Participated lists the seasons the authenticated user submitted
// predictions for. Per-user, so never cached.
func (s *seasonService) Participated(ctx context.Context, authToken string) ([]models.Season, error) {
	if authToken == "" {
		return nil, ErrUnauthorized
	}
	seasons, err := s.client.ParticipatedSeasons(ctx, authToken)
	if err != nil {
		return nil, translateUpstream(err)
	}
	slices.SortStableFunc(seasons, func(a, b models.Season) int {
		return b.Year - a.Year
	})
	return seasons, nil
}
