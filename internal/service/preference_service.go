package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/amly-app/daily-digest-api/internal/dto"
	"github.com/amly-app/daily-digest-api/internal/models"
	appErrors "github.com/amly-app/daily-digest-api/pkg/errors"
)

type preferenceRepo interface {
	GetByTeacher(ctx context.Context, teacherID string) (*models.EmailPreferences, error)
	Upsert(ctx context.Context, prefs *models.EmailPreferences) error
}

// PreferenceService normalizes and persists per-teacher email preferences.
type PreferenceService struct {
	repo   preferenceRepo
	logger *zap.Logger
}

// NewPreferenceService builds the service.
func NewPreferenceService(repo preferenceRepo, logger *zap.Logger) *PreferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceService{repo: repo, logger: logger}
}

// DefaultPreferences returns the built-in audience matrices. Parent emails
// are on by default, student emails are opt-in.
func DefaultPreferences(teacherID string) models.EmailPreferences {
	return models.EmailPreferences{
		TeacherID: teacherID,
		Parent: models.AudiencePreferences{
			Enabled: true,
			Sections: map[models.EmailSection]models.SectionSetting{
				models.SectionAttendance:    {Enabled: true, ShowEmpty: true},
				models.SectionGrades:        {Enabled: true, ShowEmpty: false},
				models.SectionSubjectGrades: {Enabled: true, ShowEmpty: false},
				models.SectionBehavior:      {Enabled: true, ShowEmpty: true},
				models.SectionAssignments:   {Enabled: true, ShowEmpty: true},
				models.SectionUpcoming:      {Enabled: true, ShowEmpty: true},
				models.SectionLessons:       {Enabled: true, ShowEmpty: false},
				models.SectionReminders:     {Enabled: true, ShowEmpty: true},
			},
		},
		Student: models.AudiencePreferences{
			Enabled: false,
			Sections: map[models.EmailSection]models.SectionSetting{
				models.SectionAttendance:    {Enabled: true, ShowEmpty: false},
				models.SectionGrades:        {Enabled: true, ShowEmpty: false},
				models.SectionSubjectGrades: {Enabled: true, ShowEmpty: false},
				models.SectionBehavior:      {Enabled: true, ShowEmpty: false},
				models.SectionAssignments:   {Enabled: true, ShowEmpty: true},
				models.SectionUpcoming:      {Enabled: true, ShowEmpty: true},
				models.SectionLessons:       {Enabled: true, ShowEmpty: false},
				models.SectionReminders:     {Enabled: true, ShowEmpty: true},
			},
		},
	}
}

// NormalizeSectionFlags collapses a raw flat section map into an explicit
// boolean per enumerated section. The two audiences carry textually different
// default rules that agree over the valid input domain; both are kept as
// written so any future divergence stays localized here. Non-boolean section
// values are rejected rather than coerced.
func NormalizeSectionFlags(raw map[string]interface{}, audience models.Audience) (map[models.EmailSection]bool, error) {
	if !audience.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "audience must be parent or student")
	}

	normalized := make(map[models.EmailSection]bool, len(models.EmailSections()))
	for _, section := range models.EmailSections() {
		value, present := raw[string(section)]
		if present && value != nil {
			flag, ok := value.(bool)
			if !ok {
				return nil, appErrors.Clone(appErrors.ErrValidation, "section flags must be boolean")
			}
			if audience == models.AudienceParent {
				// Parent rule: enabled unless explicitly false.
				normalized[section] = flag != false
			} else {
				// Student rule: the stored value wins when present.
				normalized[section] = flag
			}
			continue
		}
		// Absent (or null) defaults to enabled for both audiences.
		normalized[section] = true
	}
	return normalized, nil
}

// rawAudienceDoc tolerates both the flat legacy shape (section -> bool) and
// the unified shape (section -> {enabled, showEmpty}).
type rawAudienceDoc struct {
	Enabled  *bool                      `json:"enabled"`
	Sections map[string]json.RawMessage `json:"sections"`
}

// NormalizeAudience merges a raw audience document over the defaults,
// returning a complete matrix with every section present.
func NormalizeAudience(raw json.RawMessage, audience models.Audience, defaults models.AudiencePreferences) (models.AudiencePreferences, error) {
	result := models.AudiencePreferences{
		Enabled:  defaults.Enabled,
		Sections: make(map[models.EmailSection]models.SectionSetting, len(defaults.Sections)),
	}
	for section, setting := range defaults.Sections {
		result.Sections[section] = setting
	}

	if len(raw) == 0 || string(raw) == "null" {
		return result, nil
	}

	var doc rawAudienceDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return models.AudiencePreferences{}, appErrors.Clone(appErrors.ErrValidation, "malformed preference document")
	}

	// Flat legacy shape: section -> flag at the top level, no wrapper keys.
	if doc.Enabled == nil && doc.Sections == nil {
		var flat map[string]interface{}
		if err := json.Unmarshal(raw, &flat); err != nil {
			return models.AudiencePreferences{}, appErrors.Clone(appErrors.ErrValidation, "malformed preference document")
		}
		flags, err := NormalizeSectionFlags(flat, audience)
		if err != nil {
			return models.AudiencePreferences{}, err
		}
		for section, enabled := range flags {
			current := result.Sections[section]
			current.Enabled = enabled
			result.Sections[section] = current
		}
		return result, nil
	}

	if doc.Enabled != nil {
		result.Enabled = *doc.Enabled
	}

	for name, value := range doc.Sections {
		section := models.EmailSection(name)
		if _, known := result.Sections[section]; !known {
			// Unknown sections are dropped, not persisted.
			continue
		}
		current := result.Sections[section]

		var flag bool
		if err := json.Unmarshal(value, &flag); err == nil {
			current.Enabled = flag
			result.Sections[section] = current
			continue
		}

		var setting struct {
			Enabled   *bool `json:"enabled"`
			ShowEmpty *bool `json:"showEmpty"`
		}
		if err := json.Unmarshal(value, &setting); err != nil {
			return models.AudiencePreferences{}, appErrors.Clone(appErrors.ErrValidation, "section values must be boolean or {enabled, showEmpty}")
		}
		if setting.Enabled != nil {
			current.Enabled = *setting.Enabled
		}
		if setting.ShowEmpty != nil {
			current.ShowEmpty = *setting.ShowEmpty
		}
		result.Sections[section] = current
	}
	return result, nil
}

// Get returns stored preferences or the defaults when none were saved yet.
func (s *PreferenceService) Get(ctx context.Context, teacherID string) (*models.EmailPreferences, error) {
	prefs, err := s.repo.GetByTeacher(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			defaults := DefaultPreferences(teacherID)
			return &defaults, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load email preferences")
	}
	return prefs, nil
}

// Update normalizes the supplied audience documents and persists the result.
// Audiences absent from the request keep their stored configuration.
func (s *PreferenceService) Update(ctx context.Context, teacherID string, req dto.UpdatePreferencesRequest) (*models.EmailPreferences, error) {
	current, err := s.Get(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	defaults := DefaultPreferences(teacherID)

	if req.Parent != nil {
		parent, err := NormalizeAudience(req.Parent, models.AudienceParent, defaults.Parent)
		if err != nil {
			return nil, err
		}
		current.Parent = parent
	}
	if req.Student != nil {
		student, err := NormalizeAudience(req.Student, models.AudienceStudent, defaults.Student)
		if err != nil {
			return nil, err
		}
		current.Student = student
	}

	current.TeacherID = teacherID
	if err := s.repo.Upsert(ctx, current); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save email preferences")
	}
	s.logger.Info("email preferences updated", zap.String("teacher_id", teacherID))
	return current, nil
}
