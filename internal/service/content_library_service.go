package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/amly-app/daily-digest-api/internal/models"
	appErrors "github.com/amly-app/daily-digest-api/pkg/errors"
)

type contentLibraryRepo interface {
	GetByTeacher(ctx context.Context, teacherID string) (*models.ContentLibrary, error)
	Create(ctx context.Context, library *models.ContentLibrary) error
	ReplaceSection(ctx context.Context, teacherID string, contentType models.ContentType, fragments []models.Fragment) (int, error)
	ReplaceSections(ctx context.Context, teacherID string, sections models.SectionMap) (int, error)
}

// ContentLibraryService owns the per-teacher content library lifecycle:
// lazy initialization with the default catalog, field-scoped mutations, and
// deterministic content previews.
type ContentLibraryService struct {
	repo     contentLibraryRepo
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewContentLibraryService builds the service.
func NewContentLibraryService(repo contentLibraryRepo, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *ContentLibraryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &ContentLibraryService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

func libraryCacheKey(teacherID string) string {
	return fmt.Sprintf("content:library:%s", teacherID)
}

// Get returns the teacher's library, creating it from the default catalog on
// first access. The result always carries every enumerated content type key.
func (s *ContentLibraryService) Get(ctx context.Context, teacherID string) (*models.ContentLibrary, error) {
	var cached models.ContentLibrary
	if hit, _ := s.cache.Get(ctx, libraryCacheKey(teacherID), &cached); hit {
		cached.EnsureSections()
		return &cached, nil
	}

	library, err := s.load(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, libraryCacheKey(teacherID), library, s.cacheTTL); err != nil {
		s.logger.Warn("content library cache write failed", zap.String("teacher_id", teacherID), zap.Error(err))
	}
	return library, nil
}

func (s *ContentLibraryService) load(ctx context.Context, teacherID string) (*models.ContentLibrary, error) {
	library, err := s.repo.GetByTeacher(ctx, teacherID)
	if err == nil {
		library.EnsureSections()
		return library, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load content library")
	}

	fresh := &models.ContentLibrary{
		TeacherID: teacherID,
		Sections:  DefaultSections(),
		Version:   DefaultLibraryVersion,
	}
	if err := s.repo.Create(ctx, fresh); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to initialize content library")
	}
	s.logger.Info("content library initialized with defaults", zap.String("teacher_id", teacherID))
	return fresh, nil
}

// validateFragment enforces the shape contract per content type: text types
// take non-blank JSON strings, structured types take JSON objects carrying a
// non-empty name.
func validateFragment(contentType models.ContentType, fragment models.Fragment) error {
	if len(fragment) == 0 {
		return appErrors.ErrEmptyFragment
	}
	if contentType.Structured() {
		var obj map[string]interface{}
		if err := json.Unmarshal(fragment, &obj); err != nil || len(obj) == 0 {
			return appErrors.Clone(appErrors.ErrEmptyFragment, "structured fragment must be a non-empty object")
		}
		if name, ok := models.FragmentName(fragment); !ok || strings.TrimSpace(name) == "" {
			return appErrors.Clone(appErrors.ErrEmptyFragment, "structured fragment requires a name")
		}
		return nil
	}
	if models.FragmentBlank(fragment) {
		return appErrors.ErrEmptyFragment
	}
	return nil
}

// AddFragment appends a fragment to one content type sequence.
func (s *ContentLibraryService) AddFragment(ctx context.Context, teacherID string, contentType models.ContentType, fragment models.Fragment) (*models.ContentLibrary, error) {
	if !contentType.Valid() {
		return nil, appErrors.ErrInvalidContentType
	}
	if err := validateFragment(contentType, fragment); err != nil {
		return nil, err
	}

	library, err := s.load(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	fragments := append(library.Sections[contentType], fragment)
	return s.writeSection(ctx, library, contentType, fragments)
}

// UpdateFragment replaces the fragment at the given index.
func (s *ContentLibraryService) UpdateFragment(ctx context.Context, teacherID string, contentType models.ContentType, index int, fragment models.Fragment) (*models.ContentLibrary, error) {
	if !contentType.Valid() {
		return nil, appErrors.ErrInvalidContentType
	}
	if err := validateFragment(contentType, fragment); err != nil {
		return nil, err
	}

	library, err := s.load(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	fragments := library.Sections[contentType]
	if index < 0 || index >= len(fragments) {
		return nil, appErrors.ErrIndexOutOfRange
	}
	updated := make([]models.Fragment, len(fragments))
	copy(updated, fragments)
	updated[index] = fragment
	return s.writeSection(ctx, library, contentType, updated)
}

// DeleteFragment removes the fragment at the given index.
func (s *ContentLibraryService) DeleteFragment(ctx context.Context, teacherID string, contentType models.ContentType, index int) (*models.ContentLibrary, error) {
	if !contentType.Valid() {
		return nil, appErrors.ErrInvalidContentType
	}

	library, err := s.load(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	fragments := library.Sections[contentType]
	if index < 0 || index >= len(fragments) {
		return nil, appErrors.ErrIndexOutOfRange
	}
	updated := make([]models.Fragment, 0, len(fragments)-1)
	updated = append(updated, fragments[:index]...)
	updated = append(updated, fragments[index+1:]...)
	return s.writeSection(ctx, library, contentType, updated)
}

// BulkReplace swaps the entire sequence for one content type.
func (s *ContentLibraryService) BulkReplace(ctx context.Context, teacherID string, contentType models.ContentType, fragments []models.Fragment) (*models.ContentLibrary, error) {
	if !contentType.Valid() {
		return nil, appErrors.ErrInvalidContentType
	}
	for _, fragment := range fragments {
		if err := validateFragment(contentType, fragment); err != nil {
			return nil, err
		}
	}

	library, err := s.load(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	return s.writeSection(ctx, library, contentType, fragments)
}

// Reset discards all teacher content and reinitializes with the default
// catalog.
func (s *ContentLibraryService) Reset(ctx context.Context, teacherID string) (*models.ContentLibrary, error) {
	library, err := s.load(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	defaults := DefaultSections()
	version, err := s.repo.ReplaceSections(ctx, teacherID, defaults)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset content library")
	}
	library.Sections = defaults
	library.Version = version
	s.invalidate(ctx, teacherID)
	return library, nil
}

// ApplySections writes several content type sequences at once. Used by the
// sharing workflow when an accepted request lands multiple types.
func (s *ContentLibraryService) ApplySections(ctx context.Context, teacherID string, sections models.SectionMap) (int, error) {
	// Ensure the target row exists before the scoped updates.
	if _, err := s.load(ctx, teacherID); err != nil {
		return 0, err
	}
	version, err := s.repo.ReplaceSections(ctx, teacherID, sections)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply shared content")
	}
	s.invalidate(ctx, teacherID)
	return version, nil
}

// SelectContent previews the deterministic pick for one content type.
func (s *ContentLibraryService) SelectContent(ctx context.Context, teacherID string, contentType models.ContentType, studentID, date string, values map[string]string) (int, models.Fragment, *string, error) {
	if !contentType.Valid() {
		return 0, nil, nil, appErrors.ErrInvalidContentType
	}

	library, err := s.Get(ctx, teacherID)
	if err != nil {
		return 0, nil, nil, err
	}

	fragments := library.Sections[contentType]
	fragment := SelectFragment(fragments, studentID, date, contentType)
	if fragment == nil {
		fallback := FallbackForHeader(contentType)
		if fallback == "" {
			return 0, nil, nil, nil
		}
		rendered := RenderTemplate(fallback, values)
		return 0, models.TextFragment(rendered), &rendered, nil
	}

	seed := studentID + "-" + date + "-" + string(contentType)
	index := 0
	if len(fragments) > 1 {
		index = seedIndex(seed, len(fragments))
	}

	if contentType.Structured() {
		return index, fragment, nil, nil
	}
	text, _ := models.FragmentText(fragment)
	rendered := RenderTemplate(text, values)
	return index, fragment, &rendered, nil
}

func (s *ContentLibraryService) writeSection(ctx context.Context, library *models.ContentLibrary, contentType models.ContentType, fragments []models.Fragment) (*models.ContentLibrary, error) {
	version, err := s.repo.ReplaceSection(ctx, library.TeacherID, contentType, fragments)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "content library not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update content library")
	}
	library.Sections[contentType] = fragments
	library.Version = version
	s.invalidate(ctx, library.TeacherID)
	return library, nil
}

func (s *ContentLibraryService) invalidate(ctx context.Context, teacherID string) {
	if err := s.cache.Invalidate(ctx, libraryCacheKey(teacherID)); err != nil {
		s.logger.Warn("content library cache invalidation failed", zap.String("teacher_id", teacherID), zap.Error(err))
	}
}
