package service

import "github.com/amly-app/daily-digest-api/internal/models"

// DefaultLibraryVersion tags libraries initialized from the built-in catalog.
const DefaultLibraryVersion = 1

// Static fallbacks used when a library sequence is empty at composition time.
// Flavor text is cosmetic, so an empty sequence degrades to these instead of
// failing the whole daily update.
const (
	FallbackGreeting                = "Hi {firstName}! Here's your daily update."
	FallbackGradeSectionHeader      = "Your Grades Today"
	FallbackAssignmentSectionHeader = "Upcoming Assignments"
	FallbackBehaviorSectionHeader   = "Character Spotlight"
	FallbackLessonSectionHeader     = "Today's Learning"
	FallbackMotivationalQuote       = "Keep up the great work!"
	FallbackDailyChallenge          = "Try something new today!"
)

func textFragments(values ...string) []models.Fragment {
	fragments := make([]models.Fragment, 0, len(values))
	for _, v := range values {
		fragments = append(fragments, models.TextFragment(v))
	}
	return fragments
}

// DefaultSections returns a fresh copy of the built-in content catalog. Every
// enumerated content type is present so new libraries are never partial.
func DefaultSections() models.SectionMap {
	return models.SectionMap{
		models.ContentGreetings: textFragments(
			"Hi {firstName}! Here's your daily update. ✨",
			"Hello {firstName}! Check out your progress today. 🚀",
			"Hey {firstName}! Here's what happened in class today. 📚",
		),
		models.ContentGradeSectionHeaders: textFragments(
			"📊 Your Grades Today",
			"🏆 Academic Progress",
			"📈 Performance Summary",
		),
		models.ContentAssignmentSectionHeaders: textFragments(
			"⏰ Upcoming Assignments",
			"🗓️ What's Next?",
			"📝 Work Ahead",
		),
		models.ContentBehaviorSectionHeaders: textFragments(
			"🌟 Character Spotlight",
			"💫 Positive Choices",
			"🌈 Social Growth",
		),
		models.ContentLessonSectionHeaders: textFragments(
			"📚 Today's Learning",
			"🔍 Classroom Highlights",
			"📖 Lessons Explored",
		),
		models.ContentMotivationalQuotes: textFragments(
			"Every expert was once a beginner. Keep learning! 🌱",
			"Mistakes are proof you're trying. Keep going! 💪",
			"Your effort today builds tomorrow's success. 🚀",
			"Small progress is still progress. Celebrate it! 🎉",
		),
		models.ContentDailyChallenges: textFragments(
			"Try something new today that makes you curious! 🔍",
			"Be kind to someone who needs encouragement! 💝",
			"Take on a challenge that helps you grow! 🌱",
		),
		models.ContentVisualThemes: []models.Fragment{
			models.Fragment(`{"name":"Ocean Blue","primary":"#1459a9","secondary":"#ed2024","header":"linear-gradient(135deg, #1459a9 0%, #0d3d7a 100%)","winsBorder":"#1459a9","assignmentsBorder":"#ed2024","starsBorder":"#ed2024"}`),
			models.Fragment(`{"name":"Forest Green","primary":"#2e7d32","secondary":"#f57c00","header":"linear-gradient(135deg, #2e7d32 0%, #1b5e20 100%)","winsBorder":"#2e7d32","assignmentsBorder":"#f57c00","starsBorder":"#f57c00"}`),
			models.Fragment(`{"name":"Sunset Orange","primary":"#ef6c00","secondary":"#5d4037","header":"linear-gradient(135deg, #ef6c00 0%, #e65100 100%)","winsBorder":"#ef6c00","assignmentsBorder":"#5d4037","starsBorder":"#5d4037"}`),
		},
		models.ContentAchievementBadges: []models.Fragment{
			models.Fragment(`{"name":"Attendance Champion","icon":"✅","description":"Perfect attendance this week!","color":"#4caf50"}`),
			models.Fragment(`{"name":"Grade Collector","icon":"🏅","description":"Outstanding performance on recent assignments","color":"#2196f3"}`),
			models.Fragment(`{"name":"Kindness Hero","icon":"❤️","description":"Demonstrated exceptional kindness","color":"#e91e63"}`),
		},
	}
}

// FallbackForHeader maps a header content type to its static fallback.
func FallbackForHeader(contentType models.ContentType) string {
	switch contentType {
	case models.ContentGreetings:
		return FallbackGreeting
	case models.ContentGradeSectionHeaders:
		return FallbackGradeSectionHeader
	case models.ContentAssignmentSectionHeaders:
		return FallbackAssignmentSectionHeader
	case models.ContentBehaviorSectionHeaders:
		return FallbackBehaviorSectionHeader
	case models.ContentLessonSectionHeaders:
		return FallbackLessonSectionHeader
	case models.ContentMotivationalQuotes:
		return FallbackMotivationalQuote
	case models.ContentDailyChallenges:
		return FallbackDailyChallenge
	}
	return ""
}
