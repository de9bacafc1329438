package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amly-app/daily-digest-api/internal/models"
)

func TestPreferenceRepositoryGetByTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPreferenceRepository(db)

	parent := []byte(`{"enabled":true,"sections":{"grades":{"enabled":true,"showEmpty":false}}}`)
	student := []byte(`{"enabled":false,"sections":{}}`)
	rows := sqlmock.NewRows([]string{"teacher_id", "parent", "student", "created_at", "updated_at"}).
		AddRow("t1", parent, student, time.Now(), time.Now())
	mock.ExpectQuery("SELECT teacher_id, parent, student, created_at, updated_at FROM email_preferences").
		WithArgs("t1").
		WillReturnRows(rows)

	prefs, err := repo.GetByTeacher(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, prefs.Parent.Enabled)
	assert.False(t, prefs.Student.Enabled)
	assert.False(t, prefs.Parent.Sections[models.SectionGrades].ShowEmpty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceRepositoryGetByTeacherMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPreferenceRepository(db)

	mock.ExpectQuery("SELECT teacher_id, parent, student, created_at, updated_at FROM email_preferences").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByTeacher(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestPreferenceRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPreferenceRepository(db)

	mock.ExpectExec("INSERT INTO email_preferences").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	prefs := &models.EmailPreferences{
		TeacherID: "t1",
		Parent:    models.AudiencePreferences{Enabled: true, Sections: map[models.EmailSection]models.SectionSetting{}},
		Student:   models.AudiencePreferences{Enabled: false, Sections: map[models.EmailSection]models.SectionSetting{}},
	}
	require.NoError(t, repo.Upsert(context.Background(), prefs))
	assert.False(t, prefs.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
