package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/francosolari/nba-props-board/upstream"
)

// maxAnswerLength bounds a single answer on the way through; the
// backend enforces its own limit, this one just fails fast.
const maxAnswerLength = 200

type SubmissionService interface {
	// Answers returns the authenticated user's saved answers for a
	// season.
	Answers(ctx context.Context, slug, authToken string) ([]upstream.AnswerItem, error)
	// SaveAnswers writes a batch of answers while the submission
	// window is open.
	SaveAnswers(ctx context.Context, slug, authToken string, answers []upstream.AnswerItem) (upstream.SaveResult, error)
}

type submissionService struct {
	client  upstream.Client
	seasons SeasonService
	log     *slog.Logger
	now     func() time.Time
}

func NewSubmissionService(client upstream.Client, seasons SeasonService, log *slog.Logger) SubmissionService {
	return &submissionService{
		client:  client,
		seasons: seasons,
		log:     log,
		now:     time.Now,
	}
}

func (s *submissionService) Answers(ctx context.Context, slug, authToken string) ([]upstream.AnswerItem, error) {
	if authToken == "" {
		return nil, ErrUnauthorized
	}
	if _, err := s.seasons.BySlug(ctx, slug); err != nil {
		return nil, err
	}
	answers, err := s.client.Answers(ctx, slug, authToken)
	if err != nil {
		return nil, translateUpstream(err)
	}
	return answers, nil
}

func (s *submissionService) SaveAnswers(ctx context.Context, slug, authToken string, answers []upstream.AnswerItem) (upstream.SaveResult, error) {
	if authToken == "" {
		return upstream.SaveResult{}, ErrUnauthorized
	}
	if len(answers) == 0 {
		return upstream.SaveResult{}, fmt.Errorf("%w: at least one answer is required", ErrValidationFailed)
	}
	for _, a := range answers {
		if a.QuestionID <= 0 {
			return upstream.SaveResult{}, fmt.Errorf("%w: answer is missing a question id", ErrValidationFailed)
		}
		if strings.TrimSpace(a.Answer) == "" {
			return upstream.SaveResult{}, fmt.Errorf("%w: answer for question %d is empty", ErrValidationFailed, a.QuestionID)
		}
		if len(a.Answer) > maxAnswerLength {
			return upstream.SaveResult{}, fmt.Errorf("%w: answer for question %d exceeds %d characters", ErrValidationFailed, a.QuestionID, maxAnswerLength)
		}
	}

	season, err := s.seasons.BySlug(ctx, slug)
	if err != nil {
		return upstream.SaveResult{}, err
	}
	// Locked means the window is still open; once results are public
	// the window is over and writes stop here.
	if !season.Locked(s.now()) {
		return upstream.SaveResult{}, ErrSubmissionsClosed
	}

	result, err := s.client.SaveAnswers(ctx, slug, authToken, answers)
	if err != nil {
		return upstream.SaveResult{}, translateUpstream(err)
	}
	if result.Status == upstream.StatusPartialSuccess {
		s.log.Warn("answers partially saved",
			"season", slug, "saved", result.SavedCount, "rejected", len(result.Errors))
	}
	return result, nil
}
