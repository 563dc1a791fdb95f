package services

import (
	"errors"
	"fmt"

	"github.com/francosolari/nba-props-board/upstream"
)

// Kind classifies a load failure the way the page treats it: network
// and schema problems surface as errors, while empty and locked are
// states the view renders on its own.
type Kind string

const (
	KindNetwork Kind = "network"
	KindSchema  Kind = "schema"
	KindEmpty   Kind = "empty"
	KindLocked  Kind = "locked"
)

// Sentinels shared across services and the HTTP mapping.
var (
	ErrSeasonNotFound    = errors.New("season not found")
	ErrNoCurrentSeason   = errors.New("no current season available")
	ErrUnauthorized      = errors.New("authentication required")
	ErrSubmissionsClosed = errors.New("the submission window is closed")
	ErrValidationFailed  = errors.New("validation failed")
)

// LoadError carries the kind alongside the underlying cause, so the
// handler can serialize a classified envelope while logs keep the
// detail.
type LoadError struct {
	Kind Kind
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load failed (%s): %v", e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func networkError(err error) error {
	return &LoadError{Kind: KindNetwork, Err: err}
}

func schemaError(err error) error {
	return &LoadError{Kind: KindSchema, Err: err}
}

// Classify extracts the load kind from an error chain, if any.
func Classify(err error) (Kind, bool) {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind, true
	}
	return "", false
}

// translateUpstream maps transport errors onto service sentinels.
// Anything unrecognized counts as a network failure.
func translateUpstream(err error) error {
	switch {
	case errors.Is(err, upstream.ErrNotFound):
		return ErrSeasonNotFound
	case errors.Is(err, upstream.ErrUnauthorized):
		return ErrUnauthorized
	default:
		return networkError(err)
	}
}
