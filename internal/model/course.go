package model

import "time"

const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
	LevelExpert       = "expert"
)

const (
	CourseDraft     = "draft"
	CoursePublished = "published"
	CourseArchived  = "archived"
)

type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ParentID    *int   `json:"parent_id,omitempty"`
}

type Course struct {
	ID                   int       `json:"id"`
	Title                string    `json:"title"`
	Slug                 string    `json:"slug"`
	InstructorID         int       `json:"instructor_id"`
	Overview             string    `json:"overview"`
	Description          string    `json:"description"`
	LearningObjectives   string    `json:"learning_objectives"`
	CategoryID           *int      `json:"category_id,omitempty"`
	Level                string    `json:"level"`
	Price                int64     `json:"price"`
	DiscountPrice        *int64    `json:"discount_price,omitempty"`
	Status               string    `json:"status"`
	DurationHours        int       `json:"duration_hours"`
	IsFeatured           bool      `json:"is_featured"`
	Languages            string    `json:"languages"`
	CertificateAvailable bool      `json:"certificate_available"`
	AllowReviews         bool      `json:"allow_reviews"`
	Tags                 string    `json:"tags"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	// Aggregates filled by list/detail queries, not columns.
	Rating        float64 `json:"rating"`
	TotalEnrolled int     `json:"total_enrolled"`
}

// EffectivePrice is what a student actually pays, in cents.
func (c Course) EffectivePrice() int64 {
	if c.DiscountPrice != nil && *c.DiscountPrice < c.Price {
		return *c.DiscountPrice
	}
	return c.Price
}

func (c Course) IsFree() bool {
	return c.EffectivePrice() == 0
}

func ValidCourseLevel(level string) bool {
	switch level {
	case LevelBeginner, LevelIntermediate, LevelAdvanced, LevelExpert:
		return true
	}
	return false
}

type Module struct {
	ID            int    `json:"id"`
	CourseID      int    `json:"course_id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Position      int    `json:"position"`
	IsFreePreview bool   `json:"is_free_preview"`
}

const (
	ContentText       = "text"
	ContentVideo      = "video"
	ContentResource   = "resource"
	ContentAssignment = "assignment"
)

// Content is a single item inside a module. One table holds all four
// kinds; the type-specific columns are nil for the other kinds.
type Content struct {
	ID          int    `json:"id"`
	ModuleID    int    `json:"module_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Position    int    `json:"position"`
	ContentType string `json:"content_type"`

	// text
	Body               *string `json:"body,omitempty"`
	ReadingTimeMinutes *int    `json:"reading_time_minutes,omitempty"`
	// video
	VideoURL        *string `json:"video_url,omitempty"`
	DurationSeconds *int    `json:"duration_seconds,omitempty"`
	Transcript      *string `json:"transcript,omitempty"`
	// resource
	FileURL    *string `json:"file_url,omitempty"`
	FileType   *string `json:"file_type,omitempty"`
	FileSizeKB *int    `json:"file_size_kb,omitempty"`
	// assignment
	Instructions *string    `json:"instructions,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	TotalPoints  *int       `json:"total_points,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks that the fields required by the content type are set.
func (c Content) Validate() error {
	switch c.ContentType {
	case ContentText:
		if c.Body == nil || *c.Body == "" {
			return errInvalid("text content requires a body")
		}
	case ContentVideo:
		if c.VideoURL == nil || *c.VideoURL == "" {
			return errInvalid("video content requires a video_url")
		}
	case ContentResource:
		if c.FileURL == nil || *c.FileURL == "" {
			return errInvalid("resource content requires a file_url")
		}
	case ContentAssignment:
		if c.Instructions == nil || *c.Instructions == "" {
			return errInvalid("assignment content requires instructions")
		}
	default:
		return errInvalid("unknown content_type")
	}
	return nil
}

const (
	EnrollmentActive    = "active"
	EnrollmentPending   = "pending"
	EnrollmentCompleted = "completed"
	EnrollmentDropped   = "dropped"
	EnrollmentRefunded  = "refunded"
)

type Enrollment struct {
	ID                   int        `json:"id"`
	StudentID            int        `json:"student_id"`
	CourseID             int        `json:"course_id"`
	Status               string     `json:"status"`
	CompletionPercentage int        `json:"completion_percentage"`
	EnrolledAt           time.Time  `json:"enrolled_at"`
	LastAccessed         *time.Time `json:"last_accessed,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	CertificateIssued    bool       `json:"certificate_issued"`

	// Joined for listings.
	CourseTitle string `json:"course_title,omitempty"`
	CourseSlug  string `json:"course_slug,omitempty"`
}

// GrantsAccess reports whether this enrollment lets the student into
// gated course content.
func (e Enrollment) GrantsAccess() bool {
	return e.Status == EnrollmentActive || e.Status == EnrollmentCompleted
}

type Progress struct {
	ID               int       `json:"id"`
	EnrollmentID     int       `json:"enrollment_id"`
	ContentID        int       `json:"content_id"`
	Completed        bool      `json:"completed"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
	LastAccessed     time.Time `json:"last_accessed"`
}

type Review struct {
	ID        int       `json:"id"`
	CourseID  int       `json:"course_id"`
	StudentID int       `json:"student_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	StudentUsername string `json:"student_username,omitempty"`
}

// CompletionPercentage converts a completed/total content count into the
// 0-100 figure stored on the enrollment.
func CompletionPercentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	pct := completed * 100 / total
	if pct > 100 {
		pct = 100
	}
	return pct
}
