package database

import (
	"database/sql"
	"fmt"
	"skillforge/internal/model"
	"time"

	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"golang.org/x/crypto/bcrypt"
)

type Client interface {
	Close()
	Ping() error

	// users
	CreateUser(username, email, password, userType, stripeID string) (model.User, error)
	GetUsers() ([]model.User, error)
	GetUserByEmail(email string) (model.User, error)
	GetUserByID(id int) (model.User, error)
	GetUsersByIDs(ids []int) (map[int]model.User, error)
	UpdateUser(user model.User) (model.User, error)
	DeactivateUser(id int) error
	GetUserPreferences(userID int) (model.UserPreference, error)
	SaveUserPreferences(prefs model.UserPreference) (model.UserPreference, error)
	TopUsersByPoints(limit int) ([]model.LeaderboardEntry, error)

	// courses
	GetCategories() ([]model.Category, error)
	CreateCategory(name, description string, parentID *int) (model.Category, error)
	ListCourses(filter CourseFilter) ([]model.Course, int, error)
	GetCourseByID(id int) (model.Course, error)
	GetCourseBySlug(slug string) (model.Course, error)
	CreateCourse(course model.Course) (model.Course, error)
	UpdateCourse(course model.Course) (model.Course, error)
	UpdateCourseStatus(id int, status string) error
	GetCoursesByInstructor(instructorID int) ([]model.Course, error)
	CreateModule(mod model.Module) (model.Module, error)
	GetModulesByCourse(courseID int) ([]model.Module, error)
	GetModuleByID(id int) (model.Module, error)
	CreateContent(content model.Content) (model.Content, error)
	GetContentsByModule(moduleID int) ([]model.Content, error)
	GetContentByID(id int) (model.Content, error)
	CountCourseContents(courseID int) (int, error)

	// enrollments and progress
	CreateEnrollment(studentID, courseID int, status string) (model.Enrollment, error)
	GetEnrollment(studentID, courseID int) (model.Enrollment, error)
	GetEnrollmentByID(id int) (model.Enrollment, error)
	GetEnrollmentsByStudent(studentID int) ([]model.Enrollment, error)
	UpdateEnrollmentStatus(id int, status string) error
	UpdateEnrollmentProgress(id, percentage int, completedAt *time.Time) error
	SetEnrollmentCertificateIssued(id int) error
	TouchEnrollment(id int) error
	UpsertProgress(enrollmentID, contentID int, completed bool, timeSpentSeconds int) (model.Progress, error)
	GetProgressByEnrollment(enrollmentID int) ([]model.Progress, error)
	CountCompletedContents(enrollmentID int) (int, error)
	CreateReview(review model.Review) (model.Review, error)
	GetReviewsByCourse(courseID int) ([]model.Review, error)

	// quizzes
	CreateQuiz(quiz model.Quiz) (model.Quiz, error)
	GetQuizByID(id int) (model.Quiz, error)
	GetQuizzesByCourse(courseID int) ([]model.Quiz, error)
	CreateQuestion(question model.Question) (model.Question, error)
	GetQuestionsByQuiz(quizID int) ([]model.Question, error)
	CountAttempts(quizID, studentID int) (int, error)
	CreateAttempt(quizID, studentID, attemptNumber int) (model.QuizAttempt, error)
	GetAttemptByID(id int) (model.QuizAttempt, error)
	GetAttemptsByStudent(quizID, studentID int) ([]model.QuizAttempt, error)
	SaveAnswer(answer model.Answer) (model.Answer, error)
	GetAnswersByAttempt(attemptID int) ([]model.Answer, error)
	FinishAttempt(attempt model.QuizAttempt) (model.QuizAttempt, error)
	AverageQuizPercentage(studentID int) (float64, int, error)
	CreateAIQuestion(question model.AIQuestion) (model.AIQuestion, error)
	GetAIQuestionsByCourse(courseID int, verifiedOnly bool) ([]model.AIQuestion, error)
	GetAIQuestionByID(id int) (model.AIQuestion, error)
	VerifyAIQuestion(id int) error
	DeleteAIQuestion(id int) error
	PromoteAIQuestion(aiQuestionID, quizID int) (model.Question, error)

	// gamification
	AwardPoints(userID, points int, txType, description string, relatedType *string, relatedID, awardedBy *int) (model.PointTransaction, error)
	GetPointTransactions(userID, limit int) ([]model.PointTransaction, error)
	GetLevels() ([]model.Level, error)
	GetBadges() ([]model.Badge, error)
	GetAchievements() ([]model.Achievement, error)
	GetUserAchievements(userID int) ([]model.UserAchievement, error)
	GrantAchievement(userID, achievementID int) (bool, error)
	GetStreak(userID int) (model.Streak, error)
	SaveStreak(streak model.Streak) (model.Streak, error)
	CountCompletedCourses(studentID int) (int, error)
	ListOpenChallenges(now time.Time) ([]model.Challenge, error)
	GetChallengeByID(id int) (model.Challenge, error)
	JoinChallenge(userID, challengeID int) (model.UserChallenge, error)
	GetUserChallenges(userID int) ([]model.UserChallenge, error)
	ProgressChallenges(userID int, criteriaType string, delta int, now time.Time) ([]model.UserChallenge, error)
	ClaimChallengeReward(userID, userChallengeID int) (model.UserChallenge, error)

	// certificates
	CreateCertificate(cert model.Certificate) (model.Certificate, error)
	GetCertificate(userID, courseID int) (model.Certificate, error)
	GetCertificateByCertificateID(certificateID string) (model.Certificate, error)
	GetCertificateByCode(code string) (model.Certificate, error)
	GetCertificatesByUser(userID int) ([]model.Certificate, error)
	RevokeCertificate(certificateID, reason string) error
	MarkCertificateExpired(certificateID string) error
	AddVerificationRecord(rec model.VerificationRecord) (model.VerificationRecord, error)

	// dashboard
	GetDashboardSummary(userID int) (model.DashboardSummary, error)
	AdminStats() (model.AdminStats, error)
	RecentCourses(userID, limit int) ([]model.Enrollment, error)
	RecommendedCourses(userID, limit int) ([]model.Course, error)
	CreateStudyGoal(goal model.StudyGoal) (model.StudyGoal, error)
	GetStudyGoals(userID int) ([]model.StudyGoal, error)
	AdvanceStudyGoal(id, userID, delta int) (model.StudyGoal, error)
	AbandonStudyGoal(id, userID int) error
	StartStudySession(session model.StudySession) (model.StudySession, error)
	GetOpenStudySession(userID int) (model.StudySession, error)
	CompleteStudySession(id, userID int, end time.Time, topics, notes string) (model.StudySession, error)
	GetStudySessions(userID, limit int) ([]model.StudySession, error)
	CreateAnnouncement(ann model.Announcement) (model.Announcement, error)
	GetAnnouncementsForUser(userID int, now time.Time) ([]model.Announcement, error)
	MarkAnnouncementRead(userID, announcementID int) error
	AcknowledgeAnnouncement(userID, announcementID int) error

	// payments
	AddPayment(pi *stripe.PaymentIntent, userID, courseID int) (*model.Payment, error)
	GetPayment(paymentIntentID string) (*model.Payment, error)
	UpdatePaymentStatus(payment *model.Payment) (*model.Payment, error)
	GetPaymentsByUser(userID int) ([]model.Payment, error)
}

type client struct {
	db *sql.DB
}

func NewClient(connStr string) (Client, error) {
	db, err := sql.Open("postgres", connStr)

	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &client{db: db}, nil
}

func (c *client) Close() {
	err := c.db.Close()
	if err != nil {
		log.Errorf("closing database: %v", err)
	}
}

func (c *client) Ping() error {
	return c.db.Ping()
}

const userColumns = `id, username, email, user_type, bio, date_of_birth, phone_number, preferred_language,
	experience_points, level, last_activity_date, linkedin_profile, github_profile, website, stripe_id, is_active, created_at`

func scanUser(row *sql.Row) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.UserType, &user.Bio, &user.DateOfBirth,
		&user.PhoneNumber, &user.PreferredLanguage, &user.ExperiencePoints, &user.Level,
		&user.LastActivityDate, &user.LinkedinProfile, &user.GithubProfile, &user.Website,
		&user.StripeID, &user.IsActive, &user.CreatedAt,
	)
	return user, err
}

func (c *client) CreateUser(username, email, password, userType, stripeID string) (model.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hashing password: %w", err)
	}

	query := `INSERT INTO users (username, email, password, user_type, stripe_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')) RETURNING ` + userColumns
	user, err := scanUser(c.db.QueryRow(query, username, email, hashedPassword, userType, stripeID))
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, fmt.Errorf("username or email already taken: %w", ErrDuplicate)
		}
		return model.User{}, fmt.Errorf("executing user insert and returning data: %w", err)
	}

	return user, nil
}

func (c *client) GetUsers() ([]model.User, error) {
	rows, err := c.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var user model.User
		if err := rows.Scan(
			&user.ID, &user.Username, &user.Email, &user.UserType, &user.Bio, &user.DateOfBirth,
			&user.PhoneNumber, &user.PreferredLanguage, &user.ExperiencePoints, &user.Level,
			&user.LastActivityDate, &user.LinkedinProfile, &user.GithubProfile, &user.Website,
			&user.StripeID, &user.IsActive, &user.CreatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (c *client) GetUserByEmail(email string) (model.User, error) {
	query := `SELECT id, username, email, password, user_type, experience_points, level, stripe_id, is_active FROM users WHERE email = $1`
	var user model.User
	err := c.db.QueryRow(query, email).Scan(
		&user.ID, &user.Username, &user.Email, &user.Password, &user.UserType,
		&user.ExperiencePoints, &user.Level, &user.StripeID, &user.IsActive,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.User{}, fmt.Errorf("no user found with email %s: %w", email, ErrNotFound)
		}
		return model.User{}, fmt.Errorf("querying for user by email: %w", err)
	}

	return user, nil
}

func (c *client) GetUserByID(id int) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(c.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.User{}, fmt.Errorf("no user found with id %d: %w", id, ErrNotFound)
		}
		return model.User{}, fmt.Errorf("querying for user by id: %w", err)
	}

	return user, nil
}

func (c *client) GetUsersByIDs(ids []int) (map[int]model.User, error) {
	rows, err := c.db.Query(`SELECT id, username, experience_points, level FROM users WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("querying for users by ids: %w", err)
	}
	defer rows.Close()

	users := make(map[int]model.User, len(ids))
	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.ID, &user.Username, &user.ExperiencePoints, &user.Level); err != nil {
			return nil, err
		}
		users[user.ID] = user
	}

	return users, rows.Err()
}

func (c *client) UpdateUser(user model.User) (model.User, error) {
	query := `UPDATE users SET bio = $1, date_of_birth = $2, phone_number = $3, preferred_language = $4,
		linkedin_profile = $5, github_profile = $6, website = $7
		WHERE id = $8 RETURNING ` + userColumns
	updated, err := scanUser(c.db.QueryRow(
		query,
		user.Bio, user.DateOfBirth, user.PhoneNumber, user.PreferredLanguage,
		user.LinkedinProfile, user.GithubProfile, user.Website, user.ID,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.User{}, fmt.Errorf("no user found with id %d: %w", user.ID, ErrNotFound)
		}
		return model.User{}, fmt.Errorf("updating user: %w", err)
	}

	return updated, nil
}

func (c *client) DeactivateUser(id int) error {
	res, err := c.db.Exec(`UPDATE users SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivating user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no user found with id %d: %w", id, ErrNotFound)
	}

	return nil
}

func (c *client) GetUserPreferences(userID int) (model.UserPreference, error) {
	query := `SELECT id, user_id, learning_pace, preferred_content_type, study_reminder_time,
		visual_preference, auditory_preference, reading_preference, kinesthetic_preference
		FROM user_preferences WHERE user_id = $1`
	var prefs model.UserPreference
	err := c.db.QueryRow(query, userID).Scan(
		&prefs.ID, &prefs.UserID, &prefs.LearningPace, &prefs.PreferredContentType, &prefs.StudyReminderTime,
		&prefs.VisualPreference, &prefs.AuditoryPreference, &prefs.ReadingPreference, &prefs.KinestheticPreference,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return defaultPreferences(userID), nil
		}
		return model.UserPreference{}, fmt.Errorf("querying for user preferences: %w", err)
	}

	return prefs, nil
}

func defaultPreferences(userID int) model.UserPreference {
	return model.UserPreference{
		UserID:                userID,
		LearningPace:          model.PaceMedium,
		PreferredContentType:  "mixed",
		VisualPreference:      5,
		AuditoryPreference:    5,
		ReadingPreference:     5,
		KinestheticPreference: 5,
	}
}

func (c *client) SaveUserPreferences(prefs model.UserPreference) (model.UserPreference, error) {
	query := `INSERT INTO user_preferences (user_id, learning_pace, preferred_content_type, study_reminder_time,
		visual_preference, auditory_preference, reading_preference, kinesthetic_preference)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			learning_pace = EXCLUDED.learning_pace,
			preferred_content_type = EXCLUDED.preferred_content_type,
			study_reminder_time = EXCLUDED.study_reminder_time,
			visual_preference = EXCLUDED.visual_preference,
			auditory_preference = EXCLUDED.auditory_preference,
			reading_preference = EXCLUDED.reading_preference,
			kinesthetic_preference = EXCLUDED.kinesthetic_preference
		RETURNING id, user_id, learning_pace, preferred_content_type, study_reminder_time,
			visual_preference, auditory_preference, reading_preference, kinesthetic_preference`
	var saved model.UserPreference
	err := c.db.QueryRow(
		query,
		prefs.UserID, prefs.LearningPace, prefs.PreferredContentType, prefs.StudyReminderTime,
		prefs.VisualPreference, prefs.AuditoryPreference, prefs.ReadingPreference, prefs.KinestheticPreference,
	).Scan(
		&saved.ID, &saved.UserID, &saved.LearningPace, &saved.PreferredContentType, &saved.StudyReminderTime,
		&saved.VisualPreference, &saved.AuditoryPreference, &saved.ReadingPreference, &saved.KinestheticPreference,
	)
	if err != nil {
		return model.UserPreference{}, fmt.Errorf("saving user preferences: %w", err)
	}

	return saved, nil
}

func (c *client) TopUsersByPoints(limit int) ([]model.LeaderboardEntry, error) {
	rows, err := c.db.Query(
		`SELECT id, username, experience_points, level FROM users
		 WHERE is_active ORDER BY experience_points DESC, id LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying for top users: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	rank := 0
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Points, &e.Level); err != nil {
			return nil, err
		}
		rank++
		e.Rank = rank
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
