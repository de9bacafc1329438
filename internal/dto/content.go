package dto

import "encoding/json"

// AddFragmentRequest appends one fragment to a content type sequence.
type AddFragmentRequest struct {
	Fragment json.RawMessage `json:"fragment" validate:"required"`
}

// UpdateFragmentRequest replaces the fragment at an index.
type UpdateFragmentRequest struct {
	Fragment json.RawMessage `json:"fragment" validate:"required"`
}

// SelectContentRequest asks for a deterministic pick from a content type.
type SelectContentRequest struct {
	StudentID string `form:"studentId" binding:"required"`
	Date      string `form:"date" binding:"required"`
	FirstName string `form:"firstName"`
}

// SelectedContentResponse carries the picked fragment with its index.
type SelectedContentResponse struct {
	ContentType string          `json:"contentType"`
	Index       int             `json:"index"`
	Fragment    json.RawMessage `json:"fragment"`
	Rendered    *string         `json:"rendered,omitempty"`
}
