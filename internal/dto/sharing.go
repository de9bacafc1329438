package dto

// CreateSharingRequest offers library content to another teacher.
type CreateSharingRequest struct {
	TargetTeacherID string   `json:"targetTeacherId" validate:"required"`
	ContentTypes    []string `json:"contentTypes" validate:"required,min=1,dive,required"`
	Strategy        string   `json:"strategy" validate:"required,oneof=merge add_only replace"`
}

// SharingRequestSummary is the list view of an incoming request.
type SharingRequestSummary struct {
	ID                string   `json:"id"`
	SourceTeacherID   string   `json:"sourceTeacherId"`
	SourceTeacherName string   `json:"sourceTeacherName"`
	ContentTypes      []string `json:"contentTypes"`
	Strategy          string   `json:"strategy"`
	Status            string   `json:"status"`
	CreatedAt         string   `json:"createdAt"`
	ExpiresAt         string   `json:"expiresAt"`
}

// ResolveSharingResponse reports the outcome of accepting a request.
type ResolveSharingResponse struct {
	ID             string         `json:"id"`
	Status         string         `json:"status"`
	AppliedCounts  map[string]int `json:"appliedCounts,omitempty"`
	SkippedCounts  map[string]int `json:"skippedCounts,omitempty"`
	LibraryVersion int            `json:"libraryVersion,omitempty"`
}
