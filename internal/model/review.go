package model

import "time"

type ReviewStatus string

const (
	ReviewOpen       ReviewStatus = "open"
	ReviewInProgress ReviewStatus = "in_progress"
	ReviewClosed     ReviewStatus = "closed"
)

// Values written by older clients; mapped onto the current set on every read and write.
const (
	legacyPending  ReviewStatus = "pending"
	legacyInReview ReviewStatus = "in_review"
	legacyResolved ReviewStatus = "resolved"
)

// Normalize maps legacy status values onto open/in_progress/closed.
// Unknown values are returned unchanged so callers can reject them.
func (s ReviewStatus) Normalize() ReviewStatus {
	switch s {
	case legacyPending:
		return ReviewOpen
	case legacyInReview:
		return ReviewInProgress
	case legacyResolved:
		return ReviewClosed
	}
	return s
}

// Valid reports whether s is one of the current statuses. Legacy values are not valid until normalized.
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewOpen, ReviewInProgress, ReviewClosed:
		return true
	}
	return false
}

// AdminReview is the triage record of complaint and suggestion chats.
type AdminReview struct {
	Status     ReviewStatus `json:"status"`
	AssignedTo *string      `json:"assignedTo"`
	ResolvedAt *time.Time   `json:"resolvedAt"`
	Notes      *string      `json:"notes"`
}

// NewAdminReview returns the record a fresh ticket starts with.
func NewAdminReview() *AdminReview {
	return &AdminReview{Status: ReviewOpen}
}

// Normalize rewrites a legacy status in place and reports whether anything changed.
func (r *AdminReview) Normalize() bool {
	if r == nil {
		return false
	}
	n := r.Status.Normalize()
	if n == r.Status {
		return false
	}
	r.Status = n
	return true
}
