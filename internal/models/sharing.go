package models

import (
	"time"

	"github.com/lib/pq"
)

// SharingStrategy controls how accepted content lands in the target library.
type SharingStrategy string

const (
	StrategyMerge   SharingStrategy = "merge"
	StrategyAddOnly SharingStrategy = "add_only"
	StrategyReplace SharingStrategy = "replace"
)

// Valid reports whether the strategy is one of the supported modes.
func (s SharingStrategy) Valid() bool {
	switch s {
	case StrategyMerge, StrategyAddOnly, StrategyReplace:
		return true
	}
	return false
}

// SharingStatus is the lifecycle state of a sharing request.
type SharingStatus string

const (
	SharingPending  SharingStatus = "pending"
	SharingAccepted SharingStatus = "accepted"
	SharingRejected SharingStatus = "rejected"
)

// SharingRequest is an offer from one teacher to copy library content to
// another. Content is read from the source library when the target accepts,
// so the request itself carries only the content type names.
type SharingRequest struct {
	ID                string          `db:"id" json:"id"`
	SourceTeacherID   string          `db:"source_teacher_id" json:"source_teacher_id"`
	SourceTeacherName string          `db:"source_teacher_name" json:"source_teacher_name"`
	TargetTeacherID   string          `db:"target_teacher_id" json:"target_teacher_id"`
	ContentTypes      pq.StringArray  `db:"content_types" json:"content_types"`
	Strategy          SharingStrategy `db:"strategy" json:"strategy"`
	Status            SharingStatus   `db:"status" json:"status"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	ExpiresAt         time.Time       `db:"expires_at" json:"expires_at"`
	ResolvedAt        *time.Time      `db:"resolved_at" json:"resolved_at,omitempty"`
}

// Expired reports whether the request has passed its acceptance window.
func (r SharingRequest) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
