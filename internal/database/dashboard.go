package database

import (
	"database/sql"
	"fmt"
	"skillforge/internal/model"
	"time"
)

// GetDashboardSummary gathers the dashboard counters in one round trip
// per table. The streak and quiz aggregates reuse their own queries.
func (c *client) GetDashboardSummary(userID int) (model.DashboardSummary, error) {
	var summary model.DashboardSummary

	err := c.db.QueryRow(`SELECT
			(SELECT COUNT(*) FROM enrollments WHERE student_id = $1 AND status = 'active'),
			(SELECT COUNT(*) FROM enrollments WHERE student_id = $1 AND status = 'completed'),
			(SELECT COUNT(*) FROM certificates WHERE user_id = $1 AND status = 'issued'),
			u.experience_points,
			u.level,
			COALESCE((SELECT name FROM levels WHERE level_number = u.level), ''),
			COALESCE((SELECT SUM(duration_minutes) FROM study_sessions
				WHERE user_id = $1 AND started_at > NOW() - INTERVAL '7 days'), 0)
		FROM users u WHERE u.id = $1`, userID).Scan(
		&summary.ActiveEnrollments, &summary.CompletedCourses, &summary.CertificatesEarned,
		&summary.TotalPoints, &summary.Level, &summary.LevelName, &summary.StudyMinutesThisWeek,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.DashboardSummary{}, fmt.Errorf("no user found with id %d: %w", userID, ErrNotFound)
		}
		return model.DashboardSummary{}, fmt.Errorf("querying for dashboard summary: %w", err)
	}

	streak, err := c.GetStreak(userID)
	if err != nil {
		return model.DashboardSummary{}, err
	}
	summary.CurrentStreak = streak.CurrentStreak
	summary.LongestStreak = streak.LongestStreak

	avg, passed, err := c.AverageQuizPercentage(userID)
	if err != nil {
		return model.DashboardSummary{}, err
	}
	summary.AverageQuizScore = avg
	summary.QuizzesPassed = passed

	return summary, nil
}

// AdminStats gathers the platform-wide totals shown in the admin panel.
func (c *client) AdminStats() (model.AdminStats, error) {
	var stats model.AdminStats
	err := c.db.QueryRow(`SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_active),
			(SELECT COUNT(*) FROM courses),
			(SELECT COUNT(*) FROM courses WHERE status = 'published'),
			(SELECT COUNT(*) FROM enrollments),
			(SELECT COUNT(*) FROM enrollments WHERE status = 'completed'),
			(SELECT COUNT(*) FROM certificates WHERE status = 'issued'),
			(SELECT COUNT(*) FROM quiz_attempts),
			COALESCE((SELECT SUM(points) FROM point_transactions WHERE points > 0), 0)`).Scan(
		&stats.TotalUsers, &stats.ActiveUsers, &stats.TotalCourses, &stats.PublishedCourses,
		&stats.TotalEnrollments, &stats.CompletedEnrollments, &stats.CertificatesIssued,
		&stats.QuizAttempts, &stats.PointsAwarded,
	)
	if err != nil {
		return model.AdminStats{}, fmt.Errorf("querying for admin stats: %w", err)
	}

	return stats, nil
}

// RecentCourses returns the caller's most recently accessed active
// enrollments, newest first.
func (c *client) RecentCourses(userID, limit int) ([]model.Enrollment, error) {
	rows, err := c.db.Query(`SELECT `+enrollmentColumns+`, co.title, co.slug FROM enrollments e
		JOIN courses co ON co.id = e.course_id
		WHERE e.student_id = $1 AND e.status = 'active'
		ORDER BY e.last_accessed DESC NULLS LAST, e.enrolled_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying for recent courses: %w", err)
	}
	defer rows.Close()

	var enrollments []model.Enrollment
	for rows.Next() {
		var e model.Enrollment
		if err := rows.Scan(
			&e.ID, &e.StudentID, &e.CourseID, &e.Status, &e.CompletionPercentage,
			&e.EnrolledAt, &e.LastAccessed, &e.CompletedAt, &e.CertificateIssued,
			&e.CourseTitle, &e.CourseSlug,
		); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}

	return enrollments, rows.Err()
}

// RecommendedCourses suggests published courses the user is not
// enrolled in, most popular first.
func (c *client) RecommendedCourses(userID, limit int) ([]model.Course, error) {
	rows, err := c.db.Query(`SELECT `+courseColumns+` FROM courses c
		WHERE c.status = 'published'
			AND NOT EXISTS (SELECT 1 FROM enrollments e WHERE e.course_id = c.id AND e.student_id = $1)
		ORDER BY total_enrolled DESC, c.created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying for recommended courses: %w", err)
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}

	return courses, rows.Err()
}

const goalColumns = `id, user_id, title, description, course_id, target_value, current_value, unit, period,
	start_date, end_date, status, created_at`

func scanGoal(row interface{ Scan(...any) error }) (model.StudyGoal, error) {
	var g model.StudyGoal
	err := row.Scan(
		&g.ID, &g.UserID, &g.Title, &g.Description, &g.CourseID, &g.TargetValue, &g.CurrentValue,
		&g.Unit, &g.Period, &g.StartsAt, &g.EndsAt, &g.Status, &g.CreatedAt,
	)
	return g, err
}

func (c *client) CreateStudyGoal(goal model.StudyGoal) (model.StudyGoal, error) {
	created, err := scanGoal(c.db.QueryRow(`INSERT INTO study_goals (user_id, title, description, course_id,
			target_value, unit, period, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, CURRENT_DATE), $9)
		RETURNING `+goalColumns,
		goal.UserID, goal.Title, goal.Description, goal.CourseID, goal.TargetValue, goal.Unit,
		goal.Period, nullableTime(goal.StartsAt), goal.EndsAt,
	))
	if err != nil {
		return model.StudyGoal{}, fmt.Errorf("inserting study goal: %w", err)
	}

	return created, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (c *client) GetStudyGoals(userID int) ([]model.StudyGoal, error) {
	rows, err := c.db.Query(`SELECT `+goalColumns+` FROM study_goals WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying for study goals: %w", err)
	}
	defer rows.Close()

	var goals []model.StudyGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}

	return goals, rows.Err()
}

// AdvanceStudyGoal adds delta to the goal's progress, clamping at the
// target and flipping the status once the target is reached.
func (c *client) AdvanceStudyGoal(id, userID, delta int) (model.StudyGoal, error) {
	goal, err := scanGoal(c.db.QueryRow(`UPDATE study_goals
		SET current_value = LEAST(target_value, current_value + $1),
			status = CASE WHEN current_value + $1 >= target_value THEN 'achieved' ELSE status END,
			updated_at = NOW()
		WHERE id = $2 AND user_id = $3 AND status = 'active'
		RETURNING `+goalColumns, delta, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.StudyGoal{}, fmt.Errorf("no active goal %d for user %d: %w", id, userID, ErrNotFound)
		}
		return model.StudyGoal{}, fmt.Errorf("advancing study goal: %w", err)
	}

	return goal, nil
}

func (c *client) AbandonStudyGoal(id, userID int) error {
	res, err := c.db.Exec(`UPDATE study_goals SET status = 'abandoned', updated_at = NOW()
		WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("abandoning study goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no goal %d for user %d: %w", id, userID, ErrNotFound)
	}

	return nil
}

const sessionColumns = `id, user_id, course_id, started_at, ended_at, duration_minutes, is_completed, topics_covered, notes`

func scanSession(row interface{ Scan(...any) error }) (model.StudySession, error) {
	var s model.StudySession
	err := row.Scan(
		&s.ID, &s.UserID, &s.CourseID, &s.StartedAt, &s.EndedAt, &s.DurationMinutes,
		&s.IsCompleted, &s.TopicsCovered, &s.Notes,
	)
	return s, err
}

func (c *client) StartStudySession(session model.StudySession) (model.StudySession, error) {
	started, err := scanSession(c.db.QueryRow(`INSERT INTO study_sessions (user_id, course_id)
		VALUES ($1, $2) RETURNING `+sessionColumns, session.UserID, session.CourseID))
	if err != nil {
		return model.StudySession{}, fmt.Errorf("starting study session: %w", err)
	}

	return started, nil
}

func (c *client) GetOpenStudySession(userID int) (model.StudySession, error) {
	session, err := scanSession(c.db.QueryRow(`SELECT `+sessionColumns+` FROM study_sessions
		WHERE user_id = $1 AND NOT is_completed ORDER BY started_at DESC LIMIT 1`, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.StudySession{}, fmt.Errorf("no open study session for user %d: %w", userID, ErrNotFound)
		}
		return model.StudySession{}, fmt.Errorf("querying for open study session: %w", err)
	}

	return session, nil
}

func (c *client) CompleteStudySession(id, userID int, end time.Time, topics, notes string) (model.StudySession, error) {
	session, err := scanSession(c.db.QueryRow(`UPDATE study_sessions
		SET ended_at = $1,
			duration_minutes = GREATEST(0, EXTRACT(EPOCH FROM ($1 - started_at)) / 60)::int,
			is_completed = TRUE,
			topics_covered = $2,
			notes = $3
		WHERE id = $4 AND user_id = $5 AND NOT is_completed
		RETURNING `+sessionColumns, end, topics, notes, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.StudySession{}, fmt.Errorf("no open session %d for user %d: %w", id, userID, ErrNotFound)
		}
		return model.StudySession{}, fmt.Errorf("completing study session: %w", err)
	}

	return session, nil
}

func (c *client) GetStudySessions(userID, limit int) ([]model.StudySession, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := c.db.Query(`SELECT `+sessionColumns+` FROM study_sessions
		WHERE user_id = $1 ORDER BY started_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying for study sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.StudySession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

const announcementColumns = `a.id, a.title, a.content, a.announcement_type, a.priority, COALESCE(a.created_by, 0),
	a.course_id, a.starts_at, a.ends_at, a.is_active, a.requires_acknowledgment, a.created_at`

func (c *client) CreateAnnouncement(ann model.Announcement) (model.Announcement, error) {
	var created model.Announcement
	err := c.db.QueryRow(`INSERT INTO announcements (title, content, announcement_type, priority, created_by,
			course_id, starts_at, ends_at, is_active, requires_acknowledgment)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()), $8, $9, $10)
		RETURNING id, title, content, announcement_type, priority, COALESCE(created_by, 0), course_id,
			starts_at, ends_at, is_active, requires_acknowledgment, created_at`,
		ann.Title, ann.Body, ann.AnnouncementType, ann.Priority, ann.CreatedBy, ann.CourseID,
		nullableTime(ann.StartsAt), ann.EndsAt, ann.IsActive, ann.RequiresAcknowledgment,
	).Scan(&created.ID, &created.Title, &created.Body, &created.AnnouncementType, &created.Priority,
		&created.CreatedBy, &created.CourseID, &created.StartsAt, &created.EndsAt, &created.IsActive,
		&created.RequiresAcknowledgment, &created.CreatedAt)
	if err != nil {
		return model.Announcement{}, fmt.Errorf("inserting announcement: %w", err)
	}

	return created, nil
}

// GetAnnouncementsForUser returns the current platform-wide
// announcements plus course announcements for the user's enrollments,
// with the caller's read state joined in.
func (c *client) GetAnnouncementsForUser(userID int, now time.Time) ([]model.Announcement, error) {
	rows, err := c.db.Query(`SELECT `+announcementColumns+`,
			COALESCE(s.is_read, FALSE), COALESCE(s.acknowledged, FALSE)
		FROM announcements a
		LEFT JOIN announcement_statuses s ON s.announcement_id = a.id AND s.user_id = $1
		WHERE a.is_active AND a.starts_at <= $2 AND (a.ends_at IS NULL OR a.ends_at > $2)
			AND (a.course_id IS NULL OR a.course_id IN (
				SELECT course_id FROM enrollments WHERE student_id = $1 AND status IN ('active', 'completed')))
		ORDER BY a.priority = 'urgent' DESC, a.created_at DESC`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("querying for announcements: %w", err)
	}
	defer rows.Close()

	var announcements []model.Announcement
	for rows.Next() {
		var a model.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Body, &a.AnnouncementType, &a.Priority, &a.CreatedBy,
			&a.CourseID, &a.StartsAt, &a.EndsAt, &a.IsActive, &a.RequiresAcknowledgment, &a.CreatedAt,
			&a.IsRead, &a.Acknowledged); err != nil {
			return nil, err
		}
		announcements = append(announcements, a)
	}

	return announcements, rows.Err()
}

func (c *client) MarkAnnouncementRead(userID, announcementID int) error {
	_, err := c.db.Exec(`INSERT INTO announcement_statuses (user_id, announcement_id, is_read, read_at)
		VALUES ($1, $2, TRUE, NOW())
		ON CONFLICT (user_id, announcement_id) DO UPDATE SET
			is_read = TRUE, read_at = COALESCE(announcement_statuses.read_at, NOW())`,
		userID, announcementID)
	if err != nil {
		return fmt.Errorf("marking announcement read: %w", err)
	}

	return nil
}

// AcknowledgeAnnouncement implies a read.
func (c *client) AcknowledgeAnnouncement(userID, announcementID int) error {
	_, err := c.db.Exec(`INSERT INTO announcement_statuses (user_id, announcement_id, is_read, read_at, acknowledged, acknowledged_at)
		VALUES ($1, $2, TRUE, NOW(), TRUE, NOW())
		ON CONFLICT (user_id, announcement_id) DO UPDATE SET
			is_read = TRUE,
			read_at = COALESCE(announcement_statuses.read_at, NOW()),
			acknowledged = TRUE,
			acknowledged_at = COALESCE(announcement_statuses.acknowledged_at, NOW())`,
		userID, announcementID)
	if err != nil {
		return fmt.Errorf("acknowledging announcement: %w", err)
	}

	return nil
}
