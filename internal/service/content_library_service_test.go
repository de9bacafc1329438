package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amly-app/daily-digest-api/internal/models"
	appErrors "github.com/amly-app/daily-digest-api/pkg/errors"
)

type mockContentLibraryRepo struct {
	libraries map[string]*models.ContentLibrary
	created   int
}

func newMockContentLibraryRepo() *mockContentLibraryRepo {
	return &mockContentLibraryRepo{libraries: map[string]*models.ContentLibrary{}}
}

func (m *mockContentLibraryRepo) GetByTeacher(ctx context.Context, teacherID string) (*models.ContentLibrary, error) {
	library, ok := m.libraries[teacherID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *library
	cp.Sections = library.Sections.Clone()
	return &cp, nil
}

func (m *mockContentLibraryRepo) Create(ctx context.Context, library *models.ContentLibrary) error {
	cp := *library
	cp.Sections = library.Sections.Clone()
	m.libraries[library.TeacherID] = &cp
	m.created++
	return nil
}

func (m *mockContentLibraryRepo) ReplaceSection(ctx context.Context, teacherID string, contentType models.ContentType, fragments []models.Fragment) (int, error) {
	library, ok := m.libraries[teacherID]
	if !ok {
		return 0, sql.ErrNoRows
	}
	library.Sections[contentType] = fragments
	library.Version++
	return library.Version, nil
}

func (m *mockContentLibraryRepo) ReplaceSections(ctx context.Context, teacherID string, sections models.SectionMap) (int, error) {
	library, ok := m.libraries[teacherID]
	if !ok {
		return 0, sql.ErrNoRows
	}
	for contentType, fragments := range sections {
		library.Sections[contentType] = fragments
	}
	library.Version++
	return library.Version, nil
}

func newTestLibraryService(repo contentLibraryRepo) *ContentLibraryService {
	return NewContentLibraryService(repo, nil, 0, nil)
}

func TestContentLibraryLazyInitialization(t *testing.T) {
	repo := newMockContentLibraryRepo()
	svc := newTestLibraryService(repo)

	library, err := svc.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.created)
	assert.Equal(t, DefaultLibraryVersion, library.Version)

	// The default catalog covers every enumerated type with content.
	for _, contentType := range models.ContentTypes() {
		assert.NotEmpty(t, library.Sections[contentType], string(contentType))
	}
	assert.Len(t, library.Sections[models.ContentMotivationalQuotes], 4)
	assert.Len(t, library.Sections[models.ContentVisualThemes], 3)
	assert.Len(t, library.Sections[models.ContentAchievementBadges], 3)

	// A second read does not re-create.
	_, err = svc.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.created)
}

func TestContentLibraryAddFragment(t *testing.T) {
	repo := newMockContentLibraryRepo()
	svc := newTestLibraryService(repo)

	library, err := svc.AddFragment(context.Background(), "t1", models.ContentGreetings, models.TextFragment("Welcome back, {firstName}!"))
	require.NoError(t, err)
	assert.Len(t, library.Sections[models.ContentGreetings], 4)
	assert.Equal(t, DefaultLibraryVersion+1, library.Version)

	_, err = svc.AddFragment(context.Background(), "t1", models.ContentType("salutations"), models.TextFragment("x"))
	assert.ErrorIs(t, err, appErrors.ErrInvalidContentType)

	_, err = svc.AddFragment(context.Background(), "t1", models.ContentGreetings, models.TextFragment("   "))
	assert.Equal(t, appErrors.ErrEmptyFragment.Code, appErrors.FromError(err).Code)

	_, err = svc.AddFragment(context.Background(), "t1", models.ContentGreetings, nil)
	assert.Equal(t, appErrors.ErrEmptyFragment.Code, appErrors.FromError(err).Code)

	// Structured types require objects carrying a non-empty name.
	_, err = svc.AddFragment(context.Background(), "t1", models.ContentVisualThemes, models.TextFragment("not an object"))
	assert.Equal(t, appErrors.ErrEmptyFragment.Code, appErrors.FromError(err).Code)
	_, err = svc.AddFragment(context.Background(), "t1", models.ContentVisualThemes, models.Fragment(`{}`))
	assert.Equal(t, appErrors.ErrEmptyFragment.Code, appErrors.FromError(err).Code)
	_, err = svc.AddFragment(context.Background(), "t1", models.ContentVisualThemes, models.Fragment(`{"primary":"#ffffff"}`))
	assert.Equal(t, appErrors.ErrEmptyFragment.Code, appErrors.FromError(err).Code)
	_, err = svc.AddFragment(context.Background(), "t1", models.ContentVisualThemes, models.Fragment(`{"name":"   ","primary":"#ffffff"}`))
	assert.Equal(t, appErrors.ErrEmptyFragment.Code, appErrors.FromError(err).Code)
	_, err = svc.AddFragment(context.Background(), "t1", models.ContentVisualThemes, models.Fragment(`{"name":7,"primary":"#ffffff"}`))
	assert.Equal(t, appErrors.ErrEmptyFragment.Code, appErrors.FromError(err).Code)

	library, err = svc.AddFragment(context.Background(), "t1", models.ContentAchievementBadges, models.Fragment(`{"name":"Reader","icon":"📖"}`))
	require.NoError(t, err)
	assert.Len(t, library.Sections[models.ContentAchievementBadges], 4)
}

func TestContentLibraryUpdateAndDeleteFragment(t *testing.T) {
	repo := newMockContentLibraryRepo()
	svc := newTestLibraryService(repo)

	library, err := svc.UpdateFragment(context.Background(), "t1", models.ContentDailyChallenges, 0, models.TextFragment("Read a chapter today!"))
	require.NoError(t, err)
	text, ok := models.FragmentText(library.Sections[models.ContentDailyChallenges][0])
	require.True(t, ok)
	assert.Equal(t, "Read a chapter today!", text)

	_, err = svc.UpdateFragment(context.Background(), "t1", models.ContentDailyChallenges, 99, models.TextFragment("x"))
	assert.ErrorIs(t, err, appErrors.ErrIndexOutOfRange)
	_, err = svc.UpdateFragment(context.Background(), "t1", models.ContentDailyChallenges, -1, models.TextFragment("x"))
	assert.ErrorIs(t, err, appErrors.ErrIndexOutOfRange)

	library, err = svc.DeleteFragment(context.Background(), "t1", models.ContentDailyChallenges, 0)
	require.NoError(t, err)
	assert.Len(t, library.Sections[models.ContentDailyChallenges], 2)

	_, err = svc.DeleteFragment(context.Background(), "t1", models.ContentDailyChallenges, 5)
	assert.ErrorIs(t, err, appErrors.ErrIndexOutOfRange)
}

func TestContentLibraryBulkReplaceAndReset(t *testing.T) {
	repo := newMockContentLibraryRepo()
	svc := newTestLibraryService(repo)

	fragments := []models.Fragment{models.TextFragment("Only greeting")}
	library, err := svc.BulkReplace(context.Background(), "t1", models.ContentGreetings, fragments)
	require.NoError(t, err)
	assert.Len(t, library.Sections[models.ContentGreetings], 1)

	// One bad fragment rejects the whole batch.
	_, err = svc.BulkReplace(context.Background(), "t1", models.ContentGreetings, []models.Fragment{
		models.TextFragment("fine"),
		models.TextFragment(""),
	})
	require.Error(t, err)

	library, err = svc.Reset(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, library.Sections[models.ContentGreetings], 3)
}

func TestContentLibrarySelectContent(t *testing.T) {
	repo := newMockContentLibraryRepo()
	svc := newTestLibraryService(repo)

	values := map[string]string{"firstName": "Ana"}

	index, fragment, rendered, err := svc.SelectContent(context.Background(), "t1", models.ContentGreetings, "s1", "2024-01-10", values)
	require.NoError(t, err)
	require.NotNil(t, fragment)
	require.NotNil(t, rendered)
	assert.GreaterOrEqual(t, index, 0)
	assert.Less(t, index, 3)
	assert.Contains(t, *rendered, "Ana")

	// Deterministic across calls.
	again, _, renderedAgain, err := svc.SelectContent(context.Background(), "t1", models.ContentGreetings, "s1", "2024-01-10", values)
	require.NoError(t, err)
	assert.Equal(t, index, again)
	assert.Equal(t, *rendered, *renderedAgain)

	// Structured picks return the raw object without rendering.
	_, theme, rendered, err := svc.SelectContent(context.Background(), "t1", models.ContentVisualThemes, "s1", "2024-01-10", values)
	require.NoError(t, err)
	require.NotNil(t, theme)
	assert.Nil(t, rendered)
	name, ok := models.FragmentName(theme)
	require.True(t, ok)
	assert.NotEmpty(t, name)

	_, _, _, err = svc.SelectContent(context.Background(), "t1", models.ContentType("nope"), "s1", "2024-01-10", values)
	assert.ErrorIs(t, err, appErrors.ErrInvalidContentType)
}

func TestContentLibrarySelectContentEmptySequence(t *testing.T) {
	repo := newMockContentLibraryRepo()
	svc := newTestLibraryService(repo)

	_, err := svc.BulkReplace(context.Background(), "t1", models.ContentMotivationalQuotes, []models.Fragment{})
	require.NoError(t, err)

	_, fragment, rendered, err := svc.SelectContent(context.Background(), "t1", models.ContentMotivationalQuotes, "s1", "2024-01-10", nil)
	require.NoError(t, err)
	require.NotNil(t, rendered)
	assert.Equal(t, FallbackMotivationalQuote, *rendered)
	text, ok := models.FragmentText(fragment)
	require.True(t, ok)
	assert.Equal(t, FallbackMotivationalQuote, text)
}
