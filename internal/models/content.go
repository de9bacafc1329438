package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// ContentType identifies one category of reusable email content.
type ContentType string

const (
	ContentGreetings                ContentType = "greetings"
	ContentGradeSectionHeaders      ContentType = "gradeSectionHeaders"
	ContentAssignmentSectionHeaders ContentType = "assignmentSectionHeaders"
	ContentBehaviorSectionHeaders   ContentType = "behaviorSectionHeaders"
	ContentLessonSectionHeaders     ContentType = "lessonSectionHeaders"
	ContentMotivationalQuotes       ContentType = "motivationalQuotes"
	ContentDailyChallenges          ContentType = "dailyChallenges"
	ContentVisualThemes             ContentType = "visualThemes"
	ContentAchievementBadges        ContentType = "achievementBadges"
)

// ContentTypes returns the fixed enumerated set in stable order.
func ContentTypes() []ContentType {
	return []ContentType{
		ContentGreetings,
		ContentGradeSectionHeaders,
		ContentAssignmentSectionHeaders,
		ContentBehaviorSectionHeaders,
		ContentLessonSectionHeaders,
		ContentMotivationalQuotes,
		ContentDailyChallenges,
		ContentVisualThemes,
		ContentAchievementBadges,
	}
}

// Valid reports whether the content type belongs to the enumerated set.
func (t ContentType) Valid() bool {
	for _, known := range ContentTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Structured reports whether fragments of this type are objects rather than
// plain strings.
func (t ContentType) Structured() bool {
	return t == ContentVisualThemes || t == ContentAchievementBadges
}

// Fragment is one reusable piece of email content: a JSON string for text
// types, a JSON object for structured types.
type Fragment = json.RawMessage

// TextFragment wraps a plain string as a fragment.
func TextFragment(s string) Fragment {
	raw, _ := json.Marshal(s)
	return raw
}

// FragmentText extracts the string value of a text fragment.
func FragmentText(f Fragment) (string, bool) {
	var s string
	if err := json.Unmarshal(f, &s); err != nil {
		return "", false
	}
	return s, true
}

// FragmentBlank reports whether a text fragment is empty or whitespace only.
func FragmentBlank(f Fragment) bool {
	s, ok := FragmentText(f)
	if !ok {
		return true
	}
	return strings.TrimSpace(s) == ""
}

// FragmentName extracts the name key of a structured fragment.
func FragmentName(f Fragment) (string, bool) {
	var obj map[string]interface{}
	if err := json.Unmarshal(f, &obj); err != nil {
		return "", false
	}
	name, ok := obj["name"].(string)
	return name, ok
}

// FragmentsEqual compares two fragments structurally so that object key
// ordering cannot produce false negatives.
func FragmentsEqual(a, b Fragment) bool {
	var av, bv interface{}
	if err := json.Unmarshal(a, &av); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}
	return reflect.DeepEqual(av, bv)
}

// SectionMap maps content types to their ordered fragment sequences. It is
// persisted as a single JSONB document.
type SectionMap map[ContentType][]Fragment

// Value implements driver.Valuer.
func (m SectionMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *SectionMap) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = SectionMap{}
		return nil
	default:
		return fmt.Errorf("unsupported section map source %T", src)
	}
}

// Clone returns a deep copy of the map; fragment bytes are shared because
// fragments are never mutated in place.
func (m SectionMap) Clone() SectionMap {
	clone := make(SectionMap, len(m))
	for contentType, fragments := range m {
		copied := make([]Fragment, len(fragments))
		copy(copied, fragments)
		clone[contentType] = copied
	}
	return clone
}

// ContentLibrary is the per-teacher document of reusable email content.
// Every enumerated content type key is always present, possibly empty.
type ContentLibrary struct {
	TeacherID string     `db:"teacher_id" json:"teacher_id"`
	Sections  SectionMap `db:"sections" json:"sections"`
	Version   int        `db:"version" json:"version"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// EnsureSections fills in any missing enumerated keys with empty sequences.
func (l *ContentLibrary) EnsureSections() {
	if l.Sections == nil {
		l.Sections = SectionMap{}
	}
	for _, contentType := range ContentTypes() {
		if _, ok := l.Sections[contentType]; !ok {
			l.Sections[contentType] = []Fragment{}
		}
	}
}
