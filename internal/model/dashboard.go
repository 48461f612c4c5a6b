package model

import "time"

const (
	GoalDaily   = "daily"
	GoalWeekly  = "weekly"
	GoalMonthly = "monthly"
)

const (
	GoalActive    = "active"
	GoalAchieved  = "achieved"
	GoalAbandoned = "abandoned"
)

type StudyGoal struct {
	ID           int        `json:"id"`
	UserID       int        `json:"user_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	CourseID     *int       `json:"course_id,omitempty"`
	TargetValue  int        `json:"target_value"`
	CurrentValue int        `json:"current_value"`
	Unit         string     `json:"unit"`
	Period       string     `json:"period"`
	Status       string     `json:"status"`
	StartsAt     time.Time  `json:"starts_at"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (g StudyGoal) ProgressPercentage() int {
	if g.TargetValue <= 0 {
		return 0
	}
	pct := g.CurrentValue * 100 / g.TargetValue
	if pct > 100 {
		pct = 100
	}
	return pct
}

func (g StudyGoal) IsAchieved() bool {
	return g.CurrentValue >= g.TargetValue
}

type StudySession struct {
	ID              int        `json:"id"`
	UserID          int        `json:"user_id"`
	CourseID        *int       `json:"course_id,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	IsCompleted     bool       `json:"is_completed"`
	TopicsCovered   string     `json:"topics_covered"`
	Notes           string     `json:"notes"`
}

// Complete closes the session at end and returns the duration in whole
// minutes. Ending before the start clamps to zero.
func (s *StudySession) Complete(end time.Time) int {
	mins := int(end.Sub(s.StartedAt).Minutes())
	if mins < 0 {
		mins = 0
	}
	s.EndedAt = &end
	s.DurationMinutes = mins
	s.IsCompleted = true
	return mins
}

const (
	AnnouncementPlatform = "platform"
	AnnouncementCourse   = "course"
	AnnouncementSystem   = "system"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

type Announcement struct {
	ID                     int        `json:"id"`
	Title                  string     `json:"title"`
	Body                   string     `json:"body"`
	AnnouncementType       string     `json:"announcement_type"`
	Priority               string     `json:"priority"`
	CreatedBy              int        `json:"created_by"`
	CourseID               *int       `json:"course_id,omitempty"`
	StartsAt               time.Time  `json:"starts_at"`
	EndsAt                 *time.Time `json:"ends_at,omitempty"`
	IsActive               bool       `json:"is_active"`
	RequiresAcknowledgment bool       `json:"requires_acknowledgment"`
	CreatedAt              time.Time  `json:"created_at"`

	IsRead       bool `json:"is_read,omitempty"`
	Acknowledged bool `json:"acknowledged,omitempty"`
}

// IsCurrent reports whether the announcement should be shown at the
// given time.
func (a Announcement) IsCurrent(now time.Time) bool {
	if !a.IsActive || now.Before(a.StartsAt) {
		return false
	}
	if a.EndsAt != nil && now.After(*a.EndsAt) {
		return false
	}
	return true
}

type AnnouncementStatus struct {
	ID             int        `json:"id"`
	UserID         int        `json:"user_id"`
	AnnouncementID int        `json:"announcement_id"`
	IsRead         bool       `json:"is_read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
}

// AdminStats aggregates the platform-wide totals for the admin panel.
type AdminStats struct {
	TotalUsers           int `json:"total_users"`
	ActiveUsers          int `json:"active_users"`
	TotalCourses         int `json:"total_courses"`
	PublishedCourses     int `json:"published_courses"`
	TotalEnrollments     int `json:"total_enrollments"`
	CompletedEnrollments int `json:"completed_enrollments"`
	CertificatesIssued   int `json:"certificates_issued"`
	QuizAttempts         int `json:"quiz_attempts"`
	PointsAwarded        int `json:"points_awarded"`
}

// DashboardSummary aggregates the numbers the student dashboard shows.
type DashboardSummary struct {
	ActiveEnrollments    int     `json:"active_enrollments"`
	CompletedCourses     int     `json:"completed_courses"`
	CertificatesEarned   int     `json:"certificates_earned"`
	TotalPoints          int     `json:"total_points"`
	Level                int     `json:"level"`
	LevelName            string  `json:"level_name"`
	CurrentStreak        int     `json:"current_streak"`
	LongestStreak        int     `json:"longest_streak"`
	StudyMinutesThisWeek int     `json:"study_minutes_this_week"`
	AverageQuizScore     float64 `json:"average_quiz_score"`
	QuizzesPassed        int     `json:"quizzes_passed"`
}
