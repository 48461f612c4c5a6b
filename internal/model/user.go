package model

import "time"

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

type User struct {
	ID                int        `json:"id"`
	Username          string     `json:"username"`
	Email             string     `json:"email"`
	Password          string     `json:"-"`
	UserType          string     `json:"user_type"`
	Bio               string     `json:"bio"`
	DateOfBirth       *time.Time `json:"date_of_birth,omitempty"`
	PhoneNumber       *string    `json:"phone_number,omitempty"`
	PreferredLanguage string     `json:"preferred_language"`
	ExperiencePoints  int        `json:"experience_points"`
	Level             int        `json:"level"`
	LastActivityDate  *time.Time `json:"last_activity_date,omitempty"`
	LinkedinProfile   *string    `json:"linkedin_profile,omitempty"`
	GithubProfile     *string    `json:"github_profile,omitempty"`
	Website           *string    `json:"website,omitempty"`
	StripeID          *string    `json:"-"`
	IsActive          bool       `json:"is_active"`
	CreatedAt         time.Time  `json:"created_at"`
}

func (u User) IsStudent() bool {
	return u.UserType == RoleStudent
}

func (u User) IsInstructor() bool {
	return u.UserType == RoleInstructor
}

func (u User) IsAdmin() bool {
	return u.UserType == RoleAdmin
}

const (
	PaceSlow   = "slow"
	PaceMedium = "medium"
	PaceFast   = "fast"
)

// UserPreference stores per-user learning preferences, including the
// four VARK scores on a 1-10 scale.
type UserPreference struct {
	ID                    int     `json:"id"`
	UserID                int     `json:"user_id"`
	LearningPace          string  `json:"learning_pace"`
	PreferredContentType  string  `json:"preferred_content_type"`
	StudyReminderTime     *string `json:"study_reminder_time,omitempty"`
	VisualPreference      int     `json:"visual_preference"`
	AuditoryPreference    int     `json:"auditory_preference"`
	ReadingPreference     int     `json:"reading_preference"`
	KinestheticPreference int     `json:"kinesthetic_preference"`
}

// Validate checks that the preference scores stay on the 1-10 scale and
// the enumerated fields hold known values.
func (p UserPreference) Validate() error {
	switch p.LearningPace {
	case PaceSlow, PaceMedium, PaceFast:
	default:
		return errInvalid("unknown learning_pace")
	}
	switch p.PreferredContentType {
	case "video", "text", "interactive", "mixed":
	default:
		return errInvalid("unknown preferred_content_type")
	}
	for _, score := range []int{p.VisualPreference, p.AuditoryPreference, p.ReadingPreference, p.KinestheticPreference} {
		if score < 1 || score > 10 {
			return errInvalid("preference scores must be between 1 and 10")
		}
	}
	return nil
}
