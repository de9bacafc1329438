package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/amly-app/daily-digest-api/internal/dto"
	"github.com/amly-app/daily-digest-api/internal/models"
	appErrors "github.com/amly-app/daily-digest-api/pkg/errors"
)

type sharingRequestRepo interface {
	Create(ctx context.Context, request *models.SharingRequest) error
	GetByID(ctx context.Context, id string) (*models.SharingRequest, error)
	ListPendingForTarget(ctx context.Context, targetTeacherID string, now time.Time) ([]models.SharingRequest, error)
	Resolve(ctx context.Context, id string, status models.SharingStatus, resolvedAt time.Time) (bool, error)
}

type teacherDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// SharingService runs the content sharing workflow between teachers.
type SharingService struct {
	requests   sharingRequestRepo
	teachers   teacherDirectory
	library    *ContentLibraryService
	validator  *validator.Validate
	requestTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewSharingService builds the service.
func NewSharingService(requests sharingRequestRepo, teachers teacherDirectory, library *ContentLibraryService, validate *validator.Validate, requestTTL time.Duration, logger *zap.Logger) *SharingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if requestTTL <= 0 {
		requestTTL = 7 * 24 * time.Hour
	}
	return &SharingService{
		requests:   requests,
		teachers:   teachers,
		library:    library,
		validator:  validate,
		requestTTL: requestTTL,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create produces a pending sharing request naming the content types the
// source teacher wants to share.
func (s *SharingService) Create(ctx context.Context, sourceTeacherID string, req dto.CreateSharingRequest) (*models.SharingRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if sourceTeacherID == req.TargetTeacherID {
		return nil, appErrors.ErrSelfShareRejected
	}

	for _, name := range req.ContentTypes {
		if !models.ContentType(name).Valid() {
			return nil, appErrors.Clone(appErrors.ErrInvalidContentType, "unknown content type: "+name)
		}
	}
	strategy := models.SharingStrategy(req.Strategy)
	if !strategy.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown sharing strategy: "+req.Strategy)
	}

	target, err := s.teachers.FindByID(ctx, req.TargetTeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrTargetNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target teacher")
	}
	if !target.Active {
		return nil, appErrors.ErrTargetNotFound
	}

	source, err := s.teachers.FindByID(ctx, sourceTeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "source teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load source teacher")
	}

	now := s.now()
	request := &models.SharingRequest{
		SourceTeacherID:   sourceTeacherID,
		SourceTeacherName: source.DisplayName,
		TargetTeacherID:   req.TargetTeacherID,
		ContentTypes:      req.ContentTypes,
		Strategy:          strategy,
		Status:            models.SharingPending,
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.requestTTL),
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create sharing request")
	}
	s.logger.Info("sharing request created",
		zap.String("request_id", request.ID),
		zap.String("source_teacher_id", sourceTeacherID),
		zap.String("target_teacher_id", req.TargetTeacherID),
		zap.String("strategy", req.Strategy))
	return request, nil
}

// ListPending returns the unexpired pending requests addressed to a teacher,
// soonest-expiring first. Expiry is evaluated lazily at read time.
func (s *SharingService) ListPending(ctx context.Context, teacherID string) ([]models.SharingRequest, error) {
	requests, err := s.requests.ListPendingForTarget(ctx, teacherID, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sharing requests")
	}
	return requests, nil
}

// Accept applies the request's content snapshot to the acting teacher's
// library per its strategy. The pending-to-accepted transition is claimed
// atomically before any content is written so a concurrent double accept can
// never apply merge effects twice.
func (s *SharingService) Accept(ctx context.Context, requestID, actingTeacherID string) (*dto.ResolveSharingResponse, error) {
	request, err := s.loadForResolution(ctx, requestID, actingTeacherID)
	if err != nil {
		return nil, err
	}

	won, err := s.requests.Resolve(ctx, requestID, models.SharingAccepted, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to accept sharing request")
	}
	if !won {
		return nil, appErrors.ErrAlreadyResolved
	}

	sourceLibrary, err := s.library.Get(ctx, request.SourceTeacherID)
	if err != nil {
		return nil, err
	}
	targetLibrary, err := s.library.Get(ctx, actingTeacherID)
	if err != nil {
		return nil, err
	}

	applied := map[string]int{}
	skipped := map[string]int{}
	updated := models.SectionMap{}
	for _, name := range request.ContentTypes {
		contentType := models.ContentType(name)
		incoming := sourceLibrary.Sections[contentType]
		existing := targetLibrary.Sections[contentType]
		merged, appliedCount, skippedCount := applyStrategy(existing, incoming, request.Strategy)
		updated[contentType] = merged
		applied[name] = appliedCount
		skipped[name] = skippedCount
	}

	version, err := s.library.ApplySections(ctx, actingTeacherID, updated)
	if err != nil {
		return nil, err
	}

	s.logger.Info("sharing request accepted",
		zap.String("request_id", requestID),
		zap.String("target_teacher_id", actingTeacherID),
		zap.String("strategy", string(request.Strategy)))
	return &dto.ResolveSharingResponse{
		ID:             requestID,
		Status:         string(models.SharingAccepted),
		AppliedCounts:  applied,
		SkippedCounts:  skipped,
		LibraryVersion: version,
	}, nil
}

// Reject marks the request rejected without copying any content.
func (s *SharingService) Reject(ctx context.Context, requestID, actingTeacherID string) (*dto.ResolveSharingResponse, error) {
	if _, err := s.loadForResolution(ctx, requestID, actingTeacherID); err != nil {
		return nil, err
	}

	won, err := s.requests.Resolve(ctx, requestID, models.SharingRejected, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject sharing request")
	}
	if !won {
		return nil, appErrors.ErrAlreadyResolved
	}

	s.logger.Info("sharing request rejected",
		zap.String("request_id", requestID),
		zap.String("target_teacher_id", actingTeacherID))
	return &dto.ResolveSharingResponse{
		ID:     requestID,
		Status: string(models.SharingRejected),
	}, nil
}

// loadForResolution runs the shared guard chain for accept and reject. An
// expired pending request is treated as already resolved.
func (s *SharingService) loadForResolution(ctx context.Context, requestID, actingTeacherID string) (*models.SharingRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "sharing request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sharing request")
	}
	if request.TargetTeacherID != actingTeacherID {
		return nil, appErrors.ErrForbidden
	}
	if request.Status != models.SharingPending {
		return nil, appErrors.ErrAlreadyResolved
	}
	if request.Expired(s.now()) {
		return nil, appErrors.ErrAlreadyResolved
	}
	return request, nil
}

// applyStrategy folds incoming fragments into the existing sequence.
func applyStrategy(existing, incoming []models.Fragment, strategy models.SharingStrategy) ([]models.Fragment, int, int) {
	switch strategy {
	case models.StrategyReplace:
		merged := make([]models.Fragment, len(incoming))
		copy(merged, incoming)
		return merged, len(incoming), 0

	case models.StrategyAddOnly:
		merged := make([]models.Fragment, len(existing), len(existing)+len(incoming))
		copy(merged, existing)
		skipped := 0
		for _, fragment := range incoming {
			duplicate := false
			for _, present := range merged {
				if models.FragmentsEqual(present, fragment) {
					duplicate = true
					break
				}
			}
			if duplicate {
				skipped++
				continue
			}
			merged = append(merged, fragment)
		}
		return merged, len(incoming) - skipped, skipped

	default: // merge keeps duplicates
		merged := make([]models.Fragment, 0, len(existing)+len(incoming))
		merged = append(merged, existing...)
		merged = append(merged, incoming...)
		return merged, len(incoming), 0
	}
}
