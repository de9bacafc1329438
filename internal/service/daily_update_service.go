package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/amly-app/daily-digest-api/internal/dto"
	"github.com/amly-app/daily-digest-api/internal/models"
	appErrors "github.com/amly-app/daily-digest-api/pkg/errors"
)

const dayFormat = "2006-01-02"

type rosterRepo interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Student, error)
}

type classRecordRepo interface {
	ListAttendance(ctx context.Context, teacherID string) ([]models.AttendanceRecord, error)
	ListGrades(ctx context.Context, teacherID string) ([]models.GradeRecord, error)
	ListAssignments(ctx context.Context, teacherID string) ([]models.AssignmentRecord, error)
	ListBehavior(ctx context.Context, teacherID string) ([]models.BehaviorRecord, error)
	ListLessons(ctx context.Context, teacherID string) ([]models.LessonRecord, error)
}

// DailyUpdateService composes per-student daily updates and the class
// summary from classroom records, library content, and email preferences.
type DailyUpdateService struct {
	students       rosterRepo
	records        classRecordRepo
	teachers       teacherDirectory
	library        *ContentLibraryService
	preferences    *PreferenceService
	metrics        *MetricsService
	upcomingWindow time.Duration
	schoolName     string
	logger         *zap.Logger
}

// NewDailyUpdateService builds the service.
func NewDailyUpdateService(students rosterRepo, records classRecordRepo, teachers teacherDirectory, library *ContentLibraryService, preferences *PreferenceService, metrics *MetricsService, upcomingWindow time.Duration, schoolName string, logger *zap.Logger) *DailyUpdateService {
	if upcomingWindow <= 0 {
		upcomingWindow = 7 * 24 * time.Hour
	}
	if schoolName == "" {
		schoolName = "AMLY School"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DailyUpdateService{
		students:       students,
		records:        records,
		teachers:       teachers,
		library:        library,
		preferences:    preferences,
		metrics:        metrics,
		upcomingWindow: upcomingWindow,
		schoolName:     schoolName,
		logger:         logger,
	}
}

// composerInput bundles the teacher-scoped data one composition run folds
// over. Everything is filtered to the owning teacher before any per-student
// work so cross-teacher rows can never leak into an update.
type composerInput struct {
	teacher     *models.Teacher
	students    []models.Student
	attendance  []models.AttendanceRecord
	grades      []models.GradeRecord
	assignments []models.AssignmentRecord
	behavior    []models.BehaviorRecord
	lessons     []models.LessonRecord
	library     *models.ContentLibrary
	audience    models.AudiencePreferences
}

// Compose builds one update per roster student plus the class summary for
// the given ISO date.
func (s *DailyUpdateService) Compose(ctx context.Context, teacherID, date string, audience models.Audience) (*dto.DailyUpdateBatchResponse, error) {
	start := time.Now()
	day, err := time.Parse(dayFormat, date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD")
	}
	if !audience.Valid() {
		audience = models.AudienceParent
	}

	input, err := s.gather(ctx, teacherID, audience)
	if err != nil {
		return nil, err
	}

	updates := make([]dto.DailyUpdateResponse, 0, len(input.students))
	for _, student := range input.students {
		updates = append(updates, s.composeStudent(input, student, date, day))
	}

	batch := &dto.DailyUpdateBatchResponse{
		Date:         date,
		Updates:      updates,
		ClassSummary: s.classSummary(input, date, day),
	}
	s.metrics.ObserveCompose(time.Since(start))
	s.logger.Info("daily updates composed",
		zap.String("teacher_id", teacherID),
		zap.String("date", date),
		zap.Int("students", len(updates)))
	return batch, nil
}

// ComposeForStudent builds the update for a single roster student.
func (s *DailyUpdateService) ComposeForStudent(ctx context.Context, teacherID, studentID, date string, audience models.Audience) (*dto.DailyUpdateResponse, error) {
	day, err := time.Parse(dayFormat, date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD")
	}
	if !audience.Valid() {
		audience = models.AudienceParent
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.TeacherID != teacherID {
		return nil, appErrors.ErrForbidden
	}

	input, err := s.gather(ctx, teacherID, audience)
	if err != nil {
		return nil, err
	}
	update := s.composeStudent(input, *student, date, day)
	return &update, nil
}

func (s *DailyUpdateService) gather(ctx context.Context, teacherID string, audience models.Audience) (*composerInput, error) {
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	students, err := s.students.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	attendance, err := s.records.ListAttendance(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	grades, err := s.records.ListGrades(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}
	assignments, err := s.records.ListAssignments(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	behavior, err := s.records.ListBehavior(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load behavior")
	}
	lessons, err := s.records.ListLessons(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}

	library, err := s.library.Get(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	prefs, err := s.preferences.Get(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	return &composerInput{
		teacher:     teacher,
		students:    students,
		attendance:  filterAttendance(attendance, teacherID),
		grades:      filterGrades(grades, teacherID),
		assignments: filterAssignments(assignments, teacherID),
		behavior:    filterBehavior(behavior, teacherID),
		lessons:     filterLessons(lessons, teacherID),
		library:     library,
		audience:    prefs.ForAudience(audience),
	}, nil
}

// The record repositories already scope queries by teacher, but ownership is
// re-checked here: a cross-teacher row in an update is a correctness bug, not
// just a privacy one.
func filterAttendance(rows []models.AttendanceRecord, teacherID string) []models.AttendanceRecord {
	out := rows[:0:0]
	for _, row := range rows {
		if row.TeacherID == teacherID {
			out = append(out, row)
		}
	}
	return out
}

func filterGrades(rows []models.GradeRecord, teacherID string) []models.GradeRecord {
	out := rows[:0:0]
	for _, row := range rows {
		if row.TeacherID == teacherID {
			out = append(out, row)
		}
	}
	return out
}

func filterAssignments(rows []models.AssignmentRecord, teacherID string) []models.AssignmentRecord {
	out := rows[:0:0]
	for _, row := range rows {
		if row.TeacherID == teacherID {
			out = append(out, row)
		}
	}
	return out
}

func filterBehavior(rows []models.BehaviorRecord, teacherID string) []models.BehaviorRecord {
	out := rows[:0:0]
	for _, row := range rows {
		if row.TeacherID == teacherID {
			out = append(out, row)
		}
	}
	return out
}

func filterLessons(rows []models.LessonRecord, teacherID string) []models.LessonRecord {
	out := rows[:0:0]
	for _, row := range rows {
		if row.TeacherID == teacherID {
			out = append(out, row)
		}
	}
	return out
}

func (s *DailyUpdateService) composeStudent(input *composerInput, student models.Student, date string, day time.Time) dto.DailyUpdateResponse {
	update := dto.DailyUpdateResponse{
		StudentID:     student.ID,
		StudentName:   student.FullName(),
		Date:          date,
		Attendance:    todayAttendance(input.attendance, student.ID, date),
		Grades:        todayGrades(input.grades, input.assignments, student.ID, date),
		Behavior:      todayBehavior(input.behavior, student.ID, date),
		Lessons:       todayLessons(input.lessons, date),
		Reminders:     []string{},
		SubjectGrades: subjectGrades(input.grades, input.assignments, student.ID),
		SchoolName:    s.schoolName,
		TeacherName:   input.teacher.DisplayName,
		TeacherEmail:  input.teacher.Email,
	}
	if input.teacher.SchoolName != nil && *input.teacher.SchoolName != "" {
		update.SchoolName = *input.teacher.SchoolName
	}
	update.Assignments = todayAssignments(input.assignments, input.grades, student.ID, date)
	update.UpcomingAssignments = upcomingAssignments(input.assignments, day, s.upcomingWindow)
	update.OverallGrade = overallGrade(input.grades, student.ID)
	update.AttendanceRate = attendanceRate(input.attendance, student.ID)
	update.Flavor = s.flavor(input.library, student, date)
	update.IncludedSections = includedSections(input.audience, update)
	return update
}

func todayAttendance(rows []models.AttendanceRecord, studentID, date string) dto.AttendanceSnapshot {
	for _, row := range rows {
		if row.StudentID == studentID && row.Date == date {
			return dto.AttendanceSnapshot{Status: row.Status, Note: row.Note, Date: row.Date}
		}
	}
	note := "Attendance not yet recorded for today"
	return dto.AttendanceSnapshot{Status: models.AttendanceNotRecorded, Note: &note, Date: date}
}

func todayGrades(grades []models.GradeRecord, assignments []models.AssignmentRecord, studentID, date string) []dto.GradeLine {
	byID := make(map[string]models.AssignmentRecord, len(assignments))
	for _, assignment := range assignments {
		byID[assignment.ID] = assignment
	}

	lines := []dto.GradeLine{}
	for _, grade := range grades {
		if grade.StudentID != studentID || grade.Date != date {
			continue
		}
		line := dto.GradeLine{
			AssignmentName: "Unknown Assignment",
			Subject:        "Unknown Subject",
			Score:          grade.Score,
			Points:         grade.Points,
		}
		if grade.AssignmentID != nil {
			if assignment, ok := byID[*grade.AssignmentID]; ok {
				line.AssignmentName = assignment.Title
				if assignment.Subject != nil {
					line.Subject = *assignment.Subject
				}
			}
		}
		lines = append(lines, line)
	}
	return lines
}

func todayAssignments(assignments []models.AssignmentRecord, grades []models.GradeRecord, studentID, date string) []dto.AssignmentLine {
	lines := []dto.AssignmentLine{}
	for _, assignment := range assignments {
		if assignment.DueDate == date || assignment.CreatedAt.Format(dayFormat) == date {
			lines = append(lines, assignmentLine(assignment, false))
		}
	}

	// Classwork graded today counts as completed work even when it was due
	// earlier.
	byID := make(map[string]models.AssignmentRecord, len(assignments))
	for _, assignment := range assignments {
		byID[assignment.ID] = assignment
	}
	for _, grade := range grades {
		if grade.StudentID != studentID || grade.Date != date || grade.AssignmentID == nil {
			continue
		}
		if assignment, ok := byID[*grade.AssignmentID]; ok {
			lines = append(lines, assignmentLine(assignment, true))
		}
	}
	return lines
}

func assignmentLine(assignment models.AssignmentRecord, completed bool) dto.AssignmentLine {
	return dto.AssignmentLine{
		ID:        assignment.ID,
		Title:     assignment.Title,
		Subject:   assignment.Subject,
		DueDate:   assignment.DueDate,
		Points:    assignment.Points,
		Completed: completed,
	}
}

func todayBehavior(rows []models.BehaviorRecord, studentID, date string) []dto.BehaviorLine {
	lines := []dto.BehaviorLine{}
	for _, row := range rows {
		if row.StudentID == studentID && row.Date == date {
			lines = append(lines, dto.BehaviorLine{Category: row.Category, Note: row.Note, Date: row.Date})
		}
	}
	return lines
}

func todayLessons(rows []models.LessonRecord, date string) []dto.LessonLine {
	lines := []dto.LessonLine{}
	for _, row := range rows {
		if row.Date == date {
			lines = append(lines, dto.LessonLine{Title: row.Title, Subject: row.Subject, Summary: row.Summary, Date: row.Date})
		}
	}
	return lines
}

// upcomingAssignments returns assignments due strictly after the day and
// strictly before the end of the window, soonest first. The repository
// already orders by due date.
func upcomingAssignments(assignments []models.AssignmentRecord, day time.Time, window time.Duration) []dto.AssignmentLine {
	end := day.Add(window)
	lines := []dto.AssignmentLine{}
	for _, assignment := range assignments {
		due, err := time.Parse(dayFormat, assignment.DueDate)
		if err != nil {
			continue
		}
		if due.After(day) && due.Before(end) {
			lines = append(lines, assignmentLine(assignment, false))
		}
	}
	return lines
}

// overallGrade averages score/points percentages over all of the student's
// point-backed grades, rounded to the nearest integer. Nil when no grade
// qualifies.
func overallGrade(grades []models.GradeRecord, studentID string) *int {
	total := 0.0
	count := 0
	for _, grade := range grades {
		if grade.StudentID != studentID {
			continue
		}
		if grade.Points == nil || *grade.Points <= 0 {
			continue
		}
		total += grade.Score / *grade.Points * 100
		count++
	}
	if count == 0 {
		return nil
	}
	average := int(math.Round(total / float64(count)))
	return &average
}

// subjectGrades averages per subject, joining grades to assignments for the
// subject name. Grades without an assignment subject land in "General", and
// point-less scores count as percentages directly.
func subjectGrades(grades []models.GradeRecord, assignments []models.AssignmentRecord, studentID string) map[string]int {
	byID := make(map[string]models.AssignmentRecord, len(assignments))
	for _, assignment := range assignments {
		byID[assignment.ID] = assignment
	}

	type aggregate struct {
		sum   float64
		count int
	}
	totals := map[string]*aggregate{}

	for _, grade := range grades {
		if grade.StudentID != studentID {
			continue
		}
		percentage, ok := grade.Percentage()
		if !ok {
			continue
		}

		subject := "General"
		if grade.AssignmentID != nil {
			if assignment, found := byID[*grade.AssignmentID]; found && assignment.Subject != nil && *assignment.Subject != "" {
				subject = *assignment.Subject
			}
		}
		if totals[subject] == nil {
			totals[subject] = &aggregate{}
		}
		totals[subject].sum += percentage
		totals[subject].count++
	}

	averages := map[string]int{}
	for subject, agg := range totals {
		if agg.count > 0 {
			averages[subject] = int(math.Round(agg.sum / float64(agg.count)))
		}
	}
	return averages
}

// attendanceRate is the share of the student's recorded days marked present.
func attendanceRate(rows []models.AttendanceRecord, studentID string) int {
	total := 0
	present := 0
	for _, row := range rows {
		if row.StudentID != studentID {
			continue
		}
		total++
		if row.Status == models.AttendancePresent {
			present++
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(present) / float64(total) * 100))
}

func (s *DailyUpdateService) flavor(library *models.ContentLibrary, student models.Student, date string) dto.FlavorContent {
	values := map[string]string{
		"firstName": student.FirstName,
		"lastName":  student.LastName,
		"fullName":  student.FullName(),
	}
	pick := func(contentType models.ContentType, fallback string) string {
		return SelectText(library.Sections[contentType], student.ID, date, contentType, values, fallback)
	}

	flavor := dto.FlavorContent{
		Greeting:          pick(models.ContentGreetings, FallbackGreeting),
		GradeHeader:       pick(models.ContentGradeSectionHeaders, FallbackGradeSectionHeader),
		AssignmentHeader:  pick(models.ContentAssignmentSectionHeaders, FallbackAssignmentSectionHeader),
		BehaviorHeader:    pick(models.ContentBehaviorSectionHeaders, FallbackBehaviorSectionHeader),
		LessonHeader:      pick(models.ContentLessonSectionHeaders, FallbackLessonSectionHeader),
		MotivationalQuote: pick(models.ContentMotivationalQuotes, FallbackMotivationalQuote),
		DailyChallenge:    pick(models.ContentDailyChallenges, FallbackDailyChallenge),
	}
	if theme := SelectFragment(library.Sections[models.ContentVisualThemes], student.ID, date, models.ContentVisualThemes); theme != nil {
		flavor.Theme = theme
	}
	if badge := SelectFragment(library.Sections[models.ContentAchievementBadges], student.ID, date, models.ContentAchievementBadges); badge != nil {
		flavor.Badge = badge
	}
	return flavor
}

// includedSections applies the audience matrix to one composed update:
// disabled sections are always out, and enabled sections with showEmpty off
// are dropped when that student's data for the section is empty.
func includedSections(audience models.AudiencePreferences, update dto.DailyUpdateResponse) []string {
	if !audience.Enabled {
		return []string{}
	}

	included := []string{}
	for _, section := range models.EmailSections() {
		setting, ok := audience.Sections[section]
		if !ok || !setting.Enabled {
			continue
		}
		if !setting.ShowEmpty && sectionEmpty(section, update) {
			continue
		}
		included = append(included, string(section))
	}
	return included
}

func sectionEmpty(section models.EmailSection, update dto.DailyUpdateResponse) bool {
	switch section {
	case models.SectionAttendance:
		return update.Attendance.Status == models.AttendanceNotRecorded || update.Attendance.Status == ""
	case models.SectionGrades:
		return len(update.Grades) == 0
	case models.SectionSubjectGrades:
		return len(update.SubjectGrades) == 0
	case models.SectionBehavior:
		return len(update.Behavior) == 0
	case models.SectionAssignments:
		return len(update.Assignments) == 0
	case models.SectionUpcoming:
		return len(update.UpcomingAssignments) == 0
	case models.SectionLessons:
		return len(update.Lessons) == 0
	case models.SectionReminders:
		return len(update.Reminders) == 0
	}
	return false
}

func (s *DailyUpdateService) classSummary(input *composerInput, date string, day time.Time) dto.ClassSummaryResponse {
	summary := dto.ClassSummaryResponse{
		Date:          date,
		TotalStudents: len(input.students),
	}

	for _, row := range input.attendance {
		if row.Date != date {
			continue
		}
		switch row.Status {
		case models.AttendancePresent:
			summary.PresentToday++
		case models.AttendanceAbsent:
			summary.AbsentToday++
		case models.AttendanceTardy:
			summary.TardyToday++
		}
	}
	if summary.TotalStudents > 0 {
		summary.AttendanceRate = float64(summary.PresentToday) / float64(summary.TotalStudents) * 100
	}

	for _, grade := range input.grades {
		if grade.Date == date {
			summary.NewGradesToday++
		}
	}

	end := day.Add(s.upcomingWindow)
	for _, assignment := range input.assignments {
		due, err := time.Parse(dayFormat, assignment.DueDate)
		if err != nil {
			continue
		}
		if due.After(day) && due.Before(end) {
			summary.UpcomingAssignments++
		}
	}

	// Average of per-student averages, so a heavily graded student does not
	// dominate the class number.
	total := 0.0
	count := 0
	for _, student := range input.students {
		if grade := overallGrade(input.grades, student.ID); grade != nil {
			total += float64(*grade)
			count++
		}
	}
	if count > 0 {
		average := int(math.Round(total / float64(count)))
		summary.AverageGrade = &average
	}
	return summary
}
