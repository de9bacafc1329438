package models

import "time"

// Attendance status values recorded per student per day.
const (
	AttendancePresent     = "Present"
	AttendanceAbsent      = "Absent"
	AttendanceTardy       = "Tardy"
	AttendanceExcused     = "Excused"
	AttendanceNotRecorded = "Not Recorded"
)

// AttendanceRecord is one student's attendance entry for a calendar day.
// Date is stored as an ISO day string (YYYY-MM-DD).
type AttendanceRecord struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Date      string    `db:"date" json:"date"`
	Status    string    `db:"status" json:"status"`
	Note      *string   `db:"note" json:"note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// GradeRecord is a scored result for one student, optionally tied to an
// assignment. Points is nil when the score is already a percentage.
type GradeRecord struct {
	ID           string    `db:"id" json:"id"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	AssignmentID *string   `db:"assignment_id" json:"assignment_id,omitempty"`
	Score        float64   `db:"score" json:"score"`
	Points       *float64  `db:"points" json:"points,omitempty"`
	Date         string    `db:"date" json:"date"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Percentage converts the grade into a 0-100 value. Grades without a point
// total are treated as percentages already.
func (g GradeRecord) Percentage() (float64, bool) {
	if g.Points == nil {
		return g.Score, true
	}
	if *g.Points <= 0 {
		return 0, false
	}
	return g.Score / *g.Points * 100, true
}

// AssignmentRecord is classwork with a due date, shared by the whole roster.
type AssignmentRecord struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Title     string    `db:"title" json:"title"`
	Subject   *string   `db:"subject" json:"subject,omitempty"`
	DueDate   string    `db:"due_date" json:"due_date"`
	Points    *float64  `db:"points" json:"points,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BehaviorRecord is a positive or needs-work observation for one student.
type BehaviorRecord struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Date      string    `db:"date" json:"date"`
	Category  string    `db:"category" json:"category"`
	Note      *string   `db:"note" json:"note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LessonRecord describes what the class covered on a given day.
type LessonRecord struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Date      string    `db:"date" json:"date"`
	Subject   *string   `db:"subject" json:"subject,omitempty"`
	Title     string    `db:"title" json:"title"`
	Summary   *string   `db:"summary" json:"summary,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
