package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EmailSection identifies one block of the daily update email.
type EmailSection string

const (
	SectionAttendance    EmailSection = "attendance"
	SectionGrades        EmailSection = "grades"
	SectionSubjectGrades EmailSection = "subjectGrades"
	SectionBehavior      EmailSection = "behavior"
	SectionAssignments   EmailSection = "assignments"
	SectionUpcoming      EmailSection = "upcoming"
	SectionLessons       EmailSection = "lessons"
	SectionReminders     EmailSection = "reminders"
)

// EmailSections returns the fixed section set in email order.
func EmailSections() []EmailSection {
	return []EmailSection{
		SectionAttendance,
		SectionGrades,
		SectionSubjectGrades,
		SectionBehavior,
		SectionAssignments,
		SectionUpcoming,
		SectionLessons,
		SectionReminders,
	}
}

// Audience distinguishes the two recipient kinds an email can target.
type Audience string

const (
	AudienceParent  Audience = "parent"
	AudienceStudent Audience = "student"
)

// Valid reports whether the audience is one of the recognized values.
func (a Audience) Valid() bool {
	return a == AudienceParent || a == AudienceStudent
}

// SectionSetting controls one section for one audience.
type SectionSetting struct {
	Enabled   bool `json:"enabled"`
	ShowEmpty bool `json:"showEmpty"`
}

// AudiencePreferences is the full per-audience configuration, persisted as a
// JSONB document.
type AudiencePreferences struct {
	Enabled  bool                            `json:"enabled"`
	Sections map[EmailSection]SectionSetting `json:"sections"`
}

// Value implements driver.Valuer.
func (p AudiencePreferences) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *AudiencePreferences) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		*p = AudiencePreferences{}
		return nil
	default:
		return fmt.Errorf("unsupported preference source %T", src)
	}
}

// EmailPreferences is the per-teacher preference document covering both
// audiences.
type EmailPreferences struct {
	TeacherID string              `db:"teacher_id" json:"teacher_id"`
	Parent    AudiencePreferences `db:"parent" json:"parent"`
	Student   AudiencePreferences `db:"student" json:"student"`
	CreatedAt time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt time.Time           `db:"updated_at" json:"updated_at"`
}

// ForAudience returns the configuration for the requested audience.
func (p EmailPreferences) ForAudience(audience Audience) AudiencePreferences {
	if audience == AudienceStudent {
		return p.Student
	}
	return p.Parent
}
