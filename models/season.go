package models

import "time"

type Season struct {
	Slug      string `json:"slug"`
	Year      int    `json:"year"`
	IsCurrent bool   `json:"is_current,omitempty"`

	SubmissionStart *time.Time `json:"submission_start_date,omitempty"`
	SubmissionEnd   *time.Time `json:"submission_end_date,omitempty"`
	SubmissionsOpen *bool      `json:"submissions_open,omitempty"`
}

// Locked reports whether the leaderboard is still hidden because the
// submission window has not closed. An explicit SubmissionsOpen flag
// from upstream wins; otherwise the window is open while now is before
// SubmissionEnd. Seasons with no window information are never locked.
func (s Season) Locked(now time.Time) bool {
	if s.SubmissionsOpen != nil {
		return *s.SubmissionsOpen
	}
	if s.SubmissionEnd != nil {
		return now.Before(*s.SubmissionEnd)
	}
	return false
}

// OpensAt returns the moment results become visible, when known.
func (s Season) OpensAt() *time.Time {
	return s.SubmissionEnd
}
