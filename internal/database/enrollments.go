package database

import (
	"database/sql"
	"fmt"
	"skillforge/internal/model"
	"time"
)

const enrollmentColumns = `e.id, e.student_id, e.course_id, e.status, e.completion_percentage,
	e.enrolled_at, e.last_accessed, e.completed_at, e.certificate_issued`

const enrollmentReturning = `id, student_id, course_id, status, completion_percentage,
	enrolled_at, last_accessed, completed_at, certificate_issued`

func scanEnrollment(row interface{ Scan(...any) error }) (model.Enrollment, error) {
	var e model.Enrollment
	err := row.Scan(
		&e.ID, &e.StudentID, &e.CourseID, &e.Status, &e.CompletionPercentage,
		&e.EnrolledAt, &e.LastAccessed, &e.CompletedAt, &e.CertificateIssued,
	)
	return e, err
}

func (c *client) CreateEnrollment(studentID, courseID int, status string) (model.Enrollment, error) {
	enrollment, err := scanEnrollment(c.db.QueryRow(`INSERT INTO enrollments (student_id, course_id, status)
		VALUES ($1, $2, $3) RETURNING `+enrollmentReturning, studentID, courseID, status))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Enrollment{}, fmt.Errorf("student %d already enrolled in course %d: %w", studentID, courseID, ErrDuplicate)
		}
		return model.Enrollment{}, fmt.Errorf("inserting enrollment: %w", err)
	}

	return enrollment, nil
}

func (c *client) GetEnrollment(studentID, courseID int) (model.Enrollment, error) {
	enrollment, err := scanEnrollment(c.db.QueryRow(`SELECT `+enrollmentColumns+` FROM enrollments e
		WHERE e.student_id = $1 AND e.course_id = $2`, studentID, courseID))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Enrollment{}, fmt.Errorf("no enrollment for student %d in course %d: %w", studentID, courseID, ErrNotFound)
		}
		return model.Enrollment{}, fmt.Errorf("querying for enrollment: %w", err)
	}

	return enrollment, nil
}

func (c *client) GetEnrollmentByID(id int) (model.Enrollment, error) {
	enrollment, err := scanEnrollment(c.db.QueryRow(`SELECT `+enrollmentColumns+` FROM enrollments e WHERE e.id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Enrollment{}, fmt.Errorf("no enrollment found with id %d: %w", id, ErrNotFound)
		}
		return model.Enrollment{}, fmt.Errorf("querying for enrollment by id: %w", err)
	}

	return enrollment, nil
}

func (c *client) GetEnrollmentsByStudent(studentID int) ([]model.Enrollment, error) {
	rows, err := c.db.Query(`SELECT `+enrollmentColumns+`, co.title, co.slug FROM enrollments e
		JOIN courses co ON co.id = e.course_id
		WHERE e.student_id = $1 ORDER BY e.enrolled_at DESC`, studentID)
	if err != nil {
		return nil, fmt.Errorf("querying for student enrollments: %w", err)
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

func (c *client) UpdateEnrollmentStatus(id int, status string) error {
	res, err := c.db.Exec(`UPDATE enrollments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("updating enrollment status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no enrollment found with id %d: %w", id, ErrNotFound)
	}

	return nil
}

// UpdateEnrollmentProgress stores a fresh completion percentage.
// Passing a completion time marks the enrollment completed; once
// completed it stays that way, later progress writes never demote the
// status or clear the timestamp.
func (c *client) UpdateEnrollmentProgress(id, percentage int, completedAt *time.Time) error {
	res, err := c.db.Exec(`UPDATE enrollments SET completion_percentage = $1,
		completed_at = COALESCE(completed_at, $2),
		status = CASE WHEN completed_at IS NOT NULL OR $2 IS NOT NULL THEN $3 ELSE status END,
		last_accessed = NOW() WHERE id = $4`, percentage, completedAt, model.EnrollmentCompleted, id)
	if err != nil {
		return fmt.Errorf("updating enrollment progress: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no enrollment found with id %d: %w", id, ErrNotFound)
	}

	return nil
}

func (c *client) SetEnrollmentCertificateIssued(id int) error {
	_, err := c.db.Exec(`UPDATE enrollments SET certificate_issued = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("flagging certificate issued: %w", err)
	}

	return nil
}

func (c *client) TouchEnrollment(id int) error {
	_, err := c.db.Exec(`UPDATE enrollments SET last_accessed = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("touching enrollment: %w", err)
	}

	return nil
}

func (c *client) UpsertProgress(enrollmentID, contentID int, completed bool, timeSpentSeconds int) (model.Progress, error) {
	query := `INSERT INTO progress (enrollment_id, content_id, completed, time_spent_seconds)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (enrollment_id, content_id) DO UPDATE SET
			completed = progress.completed OR EXCLUDED.completed,
			time_spent_seconds = progress.time_spent_seconds + EXCLUDED.time_spent_seconds,
			last_accessed = NOW()
		RETURNING id, enrollment_id, content_id, completed, time_spent_seconds, last_accessed`
	var p model.Progress
	err := c.db.QueryRow(query, enrollmentID, contentID, completed, timeSpentSeconds).Scan(
		&p.ID, &p.EnrollmentID, &p.ContentID, &p.Completed, &p.TimeSpentSeconds, &p.LastAccessed,
	)
	if err != nil {
		return model.Progress{}, fmt.Errorf("upserting progress: %w", err)
	}

	return p, nil
}

func (c *client) GetProgressByEnrollment(enrollmentID int) ([]model.Progress, error) {
	rows, err := c.db.Query(`SELECT id, enrollment_id, content_id, completed, time_spent_seconds, last_accessed
		FROM progress WHERE enrollment_id = $1 ORDER BY content_id`, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("querying for progress: %w", err)
	}
	defer rows.Close()

	var entries []model.Progress
	for rows.Next() {
		var p model.Progress
		if err := rows.Scan(&p.ID, &p.EnrollmentID, &p.ContentID, &p.Completed, &p.TimeSpentSeconds, &p.LastAccessed); err != nil {
			return nil, err
		}
		entries = append(entries, p)
	}

	return entries, rows.Err()
}

func (c *client) CountCompletedContents(enrollmentID int) (int, error) {
	var count int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM progress WHERE enrollment_id = $1 AND completed`, enrollmentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting completed contents: %w", err)
	}

	return count, nil
}

func (c *client) CreateReview(review model.Review) (model.Review, error) {
	query := `INSERT INTO reviews (course_id, student_id, rating, comment)
		VALUES ($1, $2, $3, $4) RETURNING id, course_id, student_id, rating, comment, created_at, updated_at`
	var created model.Review
	err := c.db.QueryRow(query, review.CourseID, review.StudentID, review.Rating, review.Comment).Scan(
		&created.ID, &created.CourseID, &created.StudentID, &created.Rating, &created.Comment,
		&created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Review{}, fmt.Errorf("student %d already reviewed course %d: %w", review.StudentID, review.CourseID, ErrDuplicate)
		}
		return model.Review{}, fmt.Errorf("inserting review: %w", err)
	}

	return created, nil
}

func (c *client) GetReviewsByCourse(courseID int) ([]model.Review, error) {
	rows, err := c.db.Query(`SELECT r.id, r.course_id, r.student_id, r.rating, r.comment, r.created_at, r.updated_at,
		u.username FROM reviews r JOIN users u ON u.id = r.student_id
		WHERE r.course_id = $1 ORDER BY r.created_at DESC`, courseID)
	if err != nil {
		return nil, fmt.Errorf("querying for reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var r model.Review
		if err := rows.Scan(&r.ID, &r.CourseID, &r.StudentID, &r.Rating, &r.Comment, &r.CreatedAt, &r.UpdatedAt, &r.StudentUsername); err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}

	return reviews, rows.Err()
}
