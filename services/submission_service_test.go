package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/francosolari/nba-props-board/models"
	"github.com/francosolari/nba-props-board/upstream"
)

func newSubmissionFixtureService(client upstream.Client, seasons SeasonService) (*submissionService, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 4, 15, 9, 0, 0, 0, time.UTC)}
	svc := NewSubmissionService(client, seasons, discardLogger()).(*submissionService)
	svc.now = clock.Now
	return svc, clock
}

func TestSaveAnswersValidation(t *testing.T) {
	tests := []struct {
		name    string
		answers []upstream.AnswerItem
	}{
		{name: "empty batch", answers: nil},
		{name: "missing question id", answers: []upstream.AnswerItem{{Answer: "yes"}}},
		{name: "blank answer", answers: []upstream.AnswerItem{{QuestionID: 4, Answer: "   "}}},
		{name: "oversized answer", answers: []upstream.AnswerItem{{QuestionID: 4, Answer: strings.Repeat("x", maxAnswerLength+1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newSubmissionFixtureService(&fakeUpstream{}, &fakeSeasons{})

			_, err := svc.SaveAnswers(context.Background(), "2026-27", "token", tt.answers)
			assert.ErrorIs(t, err, ErrValidationFailed)
		})
	}
}

func TestSaveAnswersRequiresToken(t *testing.T) {
	svc, _ := newSubmissionFixtureService(&fakeUpstream{}, &fakeSeasons{})

	_, err := svc.SaveAnswers(context.Background(), "2026-27", "", []upstream.AnswerItem{{QuestionID: 4, Answer: "yes"}})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSaveAnswersWindowClosed(t *testing.T) {
	seasons := &fakeSeasons{list: []models.Season{visibleSeason("2025-26")}}
	svc, _ := newSubmissionFixtureService(&fakeUpstream{}, seasons)

	_, err := svc.SaveAnswers(context.Background(), "2025-26", "token", []upstream.AnswerItem{{QuestionID: 4, Answer: "yes"}})
	assert.ErrorIs(t, err, ErrSubmissionsClosed)
}

func TestSaveAnswersPassesThrough(t *testing.T) {
	var gotSeason, gotToken string
	var gotAnswers []upstream.AnswerItem
	client := &fakeUpstream{
		saveFn: func(_ context.Context, season, authToken string, answers []upstream.AnswerItem) (upstream.SaveResult, error) {
			gotSeason, gotToken, gotAnswers = season, authToken, answers
			return upstream.SaveResult{Status: upstream.StatusSuccess, SavedCount: len(answers)}, nil
		},
	}
	seasons := &fakeSeasons{list: []models.Season{hiddenSeason("2026-27")}}
	svc, _ := newSubmissionFixtureService(client, seasons)

	answers := []upstream.AnswerItem{
		{QuestionID: 4, Answer: "yes"},
		{QuestionID: 9, Answer: "Thunder"},
	}
	result, err := svc.SaveAnswers(context.Background(), "2026-27", "token-123", answers)
	require.NoError(t, err)

	assert.Equal(t, "2026-27", gotSeason)
	assert.Equal(t, "token-123", gotToken)
	assert.Equal(t, answers, gotAnswers)
	assert.Equal(t, upstream.StatusSuccess, result.Status)
	assert.Equal(t, 2, result.SavedCount)
}

func TestSaveAnswersKeepsPartialResult(t *testing.T) {
	client := &fakeUpstream{
		saveFn: func(context.Context, string, string, []upstream.AnswerItem) (upstream.SaveResult, error) {
			return upstream.SaveResult{
				Status:     upstream.StatusPartialSuccess,
				SavedCount: 1,
				Errors:     map[int]string{9: "question is closed"},
			}, nil
		},
	}
	seasons := &fakeSeasons{list: []models.Season{hiddenSeason("2026-27")}}
	svc, _ := newSubmissionFixtureService(client, seasons)

	result, err := svc.SaveAnswers(context.Background(), "2026-27", "token", []upstream.AnswerItem{
		{QuestionID: 4, Answer: "yes"},
		{QuestionID: 9, Answer: "no"},
	})
	require.NoError(t, err)
	assert.Equal(t, upstream.StatusPartialSuccess, result.Status)
	assert.Equal(t, 1, result.SavedCount)
	assert.Equal(t, "question is closed", result.Errors[9])
}

func TestAnswers(t *testing.T) {
	client := &fakeUpstream{
		answersFn: func(_ context.Context, season, authToken string) ([]upstream.AnswerItem, error) {
			return []upstream.AnswerItem{{QuestionID: 4, Answer: "yes"}}, nil
		},
	}
	seasons := &fakeSeasons{list: []models.Season{hiddenSeason("2026-27")}}
	svc, _ := newSubmissionFixtureService(client, seasons)

	_, err := svc.Answers(context.Background(), "2026-27", "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Answers(context.Background(), "1946-47", "token")
	assert.ErrorIs(t, err, ErrSeasonNotFound)

	answers, err := svc.Answers(context.Background(), "2026-27", "token")
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, 4, answers[0].QuestionID)
}
