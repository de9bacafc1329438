package dto

import "encoding/json"

// UpdatePreferencesRequest carries raw audience preference documents. The
// payloads are normalized before persistence, so unknown keys and missing
// sections are tolerated here.
type UpdatePreferencesRequest struct {
	Parent  json.RawMessage `json:"parent,omitempty"`
	Student json.RawMessage `json:"student,omitempty"`
}
