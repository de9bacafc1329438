package service

import (
	"regexp"

	"github.com/amly-app/daily-digest-api/internal/models"
)

// placeholderPattern matches {word} tokens in flavor text templates.
var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// SelectFragment picks one fragment deterministically for a student and day.
// The same (fragments, studentID, date, contentType) tuple always yields the
// same pick, while different students or days spread across the sequence.
// Returns nil when the sequence is empty.
func SelectFragment(fragments []models.Fragment, studentID, date string, contentType models.ContentType) models.Fragment {
	if len(fragments) == 0 {
		return nil
	}
	if len(fragments) == 1 {
		return fragments[0]
	}
	seed := studentID + "-" + date + "-" + string(contentType)
	return fragments[seedIndex(seed, len(fragments))]
}

// seedIndex hashes the seed with the 31-multiplier rolling hash, wrapping at
// 32 bits, and maps it onto [0, length). The absolute value is taken in 64-bit
// space so the minimum 32-bit value cannot negate the index.
func seedIndex(seed string, length int) int {
	var hash int32
	for _, b := range []byte(seed) {
		hash = hash*31 + int32(b)
	}
	abs := int64(hash)
	if abs < 0 {
		abs = -abs
	}
	return int(abs % int64(length))
}

// RenderTemplate substitutes {key} placeholders with the supplied values.
// Unknown placeholders and empty values are left intact so a missing name
// never renders as a blank.
func RenderTemplate(template string, values map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]
		if value, ok := values[key]; ok && value != "" {
			return value
		}
		return match
	})
}

// SelectText picks a fragment and renders it as flavor text, substituting the
// fallback when the sequence is empty or holds a non-text fragment.
func SelectText(fragments []models.Fragment, studentID, date string, contentType models.ContentType, values map[string]string, fallback string) string {
	fragment := SelectFragment(fragments, studentID, date, contentType)
	if fragment == nil {
		return RenderTemplate(fallback, values)
	}
	text, ok := models.FragmentText(fragment)
	if !ok || text == "" {
		return RenderTemplate(fallback, values)
	}
	return RenderTemplate(text, values)
}
