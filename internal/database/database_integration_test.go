//go:build integration

package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"skillforge/internal/model"
)

func setupDatabase(t *testing.T) Client {
	c, err := NewClient("user=ps_user password=ps_password dbname=skillforge sslmode=disable host=localhost")
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	t.Cleanup(func() {
		c.Close()
	})

	if _, err = c.(*client).db.Exec("TRUNCATE users, categories, courses, challenges RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("Failed to clean up tables: %v", err)
	}

	return c
}

func TestConnect(t *testing.T) {
	db := setupDatabase(t)
	assert.NoError(t, db.Ping())
}

func TestCreateUser(t *testing.T) {
	db := setupDatabase(t)

	user, err := db.CreateUser("testuser", "TestUser@test.com", "TestPassword", model.RoleStudent, "")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	assert.Equal(t, "TestUser@test.com", user.Email)
	assert.Equal(t, model.RoleStudent, user.UserType)
	assert.True(t, user.IsActive)

	_, err = db.CreateUser("testuser", "TestUser@test.com", "TestPassword", model.RoleStudent, "")
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestGetUserByEmailHashesPassword(t *testing.T) {
	db := setupDatabase(t)

	_, err := db.CreateUser("hashcheck", "hash@test.com", "plaintext", model.RoleStudent, "")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	user, err := db.GetUserByEmail("hash@test.com")
	if err != nil {
		t.Fatalf("Failed to fetch user: %v", err)
	}

	assert.NotEqual(t, "plaintext", user.Password)
}

func TestSaveUserPreferences(t *testing.T) {
	db := setupDatabase(t)

	user, err := db.CreateUser("prefuser", "pref@test.com", "TestPassword", model.RoleStudent, "")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	prefs, err := db.GetUserPreferences(user.ID)
	if err != nil {
		t.Fatalf("Failed to fetch default preferences: %v", err)
	}
	assert.Equal(t, model.PaceMedium, prefs.LearningPace)

	prefs.LearningPace = model.PaceFast
	prefs.VisualPreference = 9
	saved, err := db.SaveUserPreferences(prefs)
	if err != nil {
		t.Fatalf("Failed to save preferences: %v", err)
	}
	assert.Equal(t, model.PaceFast, saved.LearningPace)
	assert.Equal(t, 9, saved.VisualPreference)
}

func createTestCourse(t *testing.T, db Client, instructorID int) model.Course {
	t.Helper()

	course, err := db.CreateCourse(model.Course{
		Title:                "Intro to Go",
		InstructorID:         instructorID,
		Overview:             "A beginner course.",
		Level:                model.LevelBeginner,
		Status:               model.CourseDraft,
		Languages:            "en",
		CertificateAvailable: true,
		AllowReviews:         true,
	})
	if err != nil {
		t.Fatalf("Failed to create course: %v", err)
	}

	return course
}

func TestCreateCourseDeduplicatesSlug(t *testing.T) {
	db := setupDatabase(t)

	instructor, err := db.CreateUser("teacher", "teacher@test.com", "TestPassword", model.RoleInstructor, "")
	if err != nil {
		t.Fatalf("Failed to create instructor: %v", err)
	}

	first := createTestCourse(t, db, instructor.ID)
	second := createTestCourse(t, db, instructor.ID)

	assert.Equal(t, "intro-to-go", first.Slug)
	assert.NotEqual(t, first.Slug, second.Slug)
}

func TestEnrollmentProgress(t *testing.T) {
	db := setupDatabase(t)

	instructor, err := db.CreateUser("teacher", "teacher@test.com", "TestPassword", model.RoleInstructor, "")
	if err != nil {
		t.Fatalf("Failed to create instructor: %v", err)
	}
	student, err := db.CreateUser("student", "student@test.com", "TestPassword", model.RoleStudent, "")
	if err != nil {
		t.Fatalf("Failed to create student: %v", err)
	}

	course := createTestCourse(t, db, instructor.ID)
	module, err := db.CreateModule(model.Module{CourseID: course.ID, Title: "Basics"})
	if err != nil {
		t.Fatalf("Failed to create module: %v", err)
	}
	body := "Hello, world."
	content, err := db.CreateContent(model.Content{
		ModuleID:    module.ID,
		Title:       "First lesson",
		ContentType: model.ContentText,
		Body:        &body,
	})
	if err != nil {
		t.Fatalf("Failed to create content: %v", err)
	}

	enrollment, err := db.CreateEnrollment(student.ID, course.ID, model.EnrollmentActive)
	if err != nil {
		t.Fatalf("Failed to enroll: %v", err)
	}
	assert.Equal(t, 0, enrollment.CompletionPercentage)

	_, err = db.UpsertProgress(enrollment.ID, content.ID, true, 120)
	if err != nil {
		t.Fatalf("Failed to record progress: %v", err)
	}

	completed, err := db.CountCompletedContents(enrollment.ID)
	if err != nil {
		t.Fatalf("Failed to count completed contents: %v", err)
	}
	total, err := db.CountCourseContents(course.ID)
	if err != nil {
		t.Fatalf("Failed to count course contents: %v", err)
	}
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, total)

	now := time.Now()
	err = db.UpdateEnrollmentProgress(enrollment.ID, model.CompletionPercentage(completed, total), &now)
	if err != nil {
		t.Fatalf("Failed to update enrollment progress: %v", err)
	}

	updated, err := db.GetEnrollmentByID(enrollment.ID)
	if err != nil {
		t.Fatalf("Failed to fetch enrollment: %v", err)
	}
	assert.Equal(t, 100, updated.CompletionPercentage)
	assert.Equal(t, model.EnrollmentCompleted, updated.Status)

	// Revisiting content after completion writes progress again with no
	// completion time; the enrollment must stay completed.
	err = db.UpdateEnrollmentProgress(enrollment.ID, 100, nil)
	if err != nil {
		t.Fatalf("Failed to re-update enrollment progress: %v", err)
	}
	after, err := db.GetEnrollmentByID(enrollment.ID)
	if err != nil {
		t.Fatalf("Failed to fetch enrollment: %v", err)
	}
	assert.Equal(t, model.EnrollmentCompleted, after.Status)
	if assert.NotNil(t, after.CompletedAt) {
		assert.WithinDuration(t, *updated.CompletedAt, *after.CompletedAt, time.Second)
	}
}

func TestAwardPointsUpdatesLevel(t *testing.T) {
	db := setupDatabase(t)

	user, err := db.CreateUser("pointsuser", "points@test.com", "TestPassword", model.RoleStudent, "")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	tx, err := db.AwardPoints(user.ID, model.PointsCourseCompletion, model.TxCourseCompletion, "completed the course", nil, nil, nil)
	if err != nil {
		t.Fatalf("Failed to award points: %v", err)
	}
	assert.Equal(t, model.PointsCourseCompletion, tx.Points)

	updated, err := db.GetUserByID(user.ID)
	if err != nil {
		t.Fatalf("Failed to fetch user: %v", err)
	}
	assert.Equal(t, model.PointsCourseCompletion, updated.ExperiencePoints)
	assert.GreaterOrEqual(t, updated.Level, 1)
}

func TestCertificateRoundTrip(t *testing.T) {
	db := setupDatabase(t)

	instructor, err := db.CreateUser("teacher", "teacher@test.com", "TestPassword", model.RoleInstructor, "")
	if err != nil {
		t.Fatalf("Failed to create instructor: %v", err)
	}
	student, err := db.CreateUser("student", "student@test.com", "TestPassword", model.RoleStudent, "")
	if err != nil {
		t.Fatalf("Failed to create student: %v", err)
	}
	course := createTestCourse(t, db, instructor.ID)

	cert, err := db.CreateCertificate(model.Certificate{
		CertificateID:    "11111111-2222-3333-4444-555555555555",
		UserID:           student.ID,
		CourseID:         course.ID,
		Title:            "Certificate of Completion: Intro to Go",
		Status:           model.CertificateIssued,
		VerificationCode: "SF-TESTCODE1234",
		IssuerName:       "SkillForge",
	})
	if err != nil {
		t.Fatalf("Failed to create certificate: %v", err)
	}
	assert.Equal(t, "student", cert.UserName)
	assert.Equal(t, course.Title, cert.CourseTitle)

	byCode, err := db.GetCertificateByCode("SF-TESTCODE1234")
	if err != nil {
		t.Fatalf("Failed to fetch certificate by code: %v", err)
	}
	assert.Equal(t, cert.CertificateID, byCode.CertificateID)
	assert.True(t, byCode.IsValid(time.Now()))

	if err := db.RevokeCertificate(cert.CertificateID, "issued in error"); err != nil {
		t.Fatalf("Failed to revoke certificate: %v", err)
	}
	revoked, err := db.GetCertificateByCertificateID(cert.CertificateID)
	if err != nil {
		t.Fatalf("Failed to fetch revoked certificate: %v", err)
	}
	assert.Equal(t, model.CertificateRevoked, revoked.Status)
	assert.False(t, revoked.IsValid(time.Now()))
}
