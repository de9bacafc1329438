package dto

import "encoding/json"

// AttendanceSnapshot is the attendance block of a daily update. When nothing
// was recorded for the day the status falls back to "Not Recorded".
type AttendanceSnapshot struct {
	Status string  `json:"status"`
	Note   *string `json:"note,omitempty"`
	Date   string  `json:"date"`
}

// GradeLine is one grade entered today, joined with its assignment.
type GradeLine struct {
	AssignmentName string   `json:"assignmentName"`
	Subject        string   `json:"subject"`
	Score          float64  `json:"score"`
	Points         *float64 `json:"points,omitempty"`
}

// AssignmentLine describes classwork due or completed today.
type AssignmentLine struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Subject   *string  `json:"subject,omitempty"`
	DueDate   string   `json:"dueDate"`
	Points    *float64 `json:"points,omitempty"`
	Completed bool     `json:"completed"`
}

// BehaviorLine is one behavior observation from today.
type BehaviorLine struct {
	Category string  `json:"category"`
	Note     *string `json:"note,omitempty"`
	Date     string  `json:"date"`
}

// LessonLine is one lesson the class covered today.
type LessonLine struct {
	Title   string  `json:"title"`
	Subject *string `json:"subject,omitempty"`
	Summary *string `json:"summary,omitempty"`
	Date    string  `json:"date"`
}

// FlavorContent carries the deterministically selected library content for
// one student and day. Text fields fall back to static strings when the
// library sequence is empty, so they are never blank.
type FlavorContent struct {
	Greeting          string          `json:"greeting"`
	GradeHeader       string          `json:"gradeHeader"`
	AssignmentHeader  string          `json:"assignmentHeader"`
	BehaviorHeader    string          `json:"behaviorHeader"`
	LessonHeader      string          `json:"lessonHeader"`
	MotivationalQuote string          `json:"motivationalQuote"`
	DailyChallenge    string          `json:"dailyChallenge"`
	Theme             json.RawMessage `json:"theme,omitempty"`
	Badge             json.RawMessage `json:"badge,omitempty"`
}

// DailyUpdateResponse is the composed per-student daily update payload.
type DailyUpdateResponse struct {
	StudentID           string             `json:"studentId"`
	StudentName         string             `json:"studentName"`
	Date                string             `json:"date"`
	Attendance          AttendanceSnapshot `json:"attendance"`
	Grades              []GradeLine        `json:"grades"`
	Assignments         []AssignmentLine   `json:"assignments"`
	Behavior            []BehaviorLine     `json:"behavior"`
	Lessons             []LessonLine       `json:"lessons"`
	UpcomingAssignments []AssignmentLine   `json:"upcomingAssignments"`
	Reminders           []string           `json:"reminders"`
	OverallGrade        *int               `json:"overallGrade"`
	SubjectGrades       map[string]int     `json:"subjectGrades"`
	AttendanceRate      int                `json:"attendanceRate"`
	Flavor              FlavorContent      `json:"flavor"`
	IncludedSections    []string           `json:"includedSections"`
	SchoolName          string             `json:"schoolName"`
	TeacherName         string             `json:"teacherName"`
	TeacherEmail        string             `json:"teacherEmail"`
}

// ClassSummaryResponse aggregates one day across the whole roster.
type ClassSummaryResponse struct {
	Date                string  `json:"date"`
	TotalStudents       int     `json:"totalStudents"`
	PresentToday        int     `json:"presentToday"`
	AbsentToday         int     `json:"absentToday"`
	TardyToday          int     `json:"tardyToday"`
	AttendanceRate      float64 `json:"attendanceRate"`
	NewGradesToday      int     `json:"newGradesToday"`
	UpcomingAssignments int     `json:"upcomingAssignments"`
	AverageGrade        *int    `json:"averageGrade"`
}

// DailyUpdateBatchResponse bundles the per-student updates with the class
// summary for one composition run.
type DailyUpdateBatchResponse struct {
	Date         string                `json:"date"`
	Updates      []DailyUpdateResponse `json:"updates"`
	ClassSummary ClassSummaryResponse  `json:"classSummary"`
}
