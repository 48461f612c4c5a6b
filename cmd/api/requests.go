package main

import "time"

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"user_type"`
}

type RegisterResponse struct {
	ID int `json:"id"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInResponse struct {
	Token string `json:"token"`
}

type UpdateProfileRequest struct {
	Bio               string     `json:"bio"`
	DateOfBirth       *time.Time `json:"date_of_birth"`
	PhoneNumber       *string    `json:"phone_number"`
	PreferredLanguage string     `json:"preferred_language"`
	LinkedinProfile   *string    `json:"linkedin_profile"`
	GithubProfile     *string    `json:"github_profile"`
	Website           *string    `json:"website"`
}

type UpdatePreferencesRequest struct {
	LearningPace          string  `json:"learning_pace"`
	PreferredContentType  string  `json:"preferred_content_type"`
	StudyReminderTime     *string `json:"study_reminder_time"`
	VisualPreference      int     `json:"visual_preference"`
	AuditoryPreference    int     `json:"auditory_preference"`
	ReadingPreference     int     `json:"reading_preference"`
	KinestheticPreference int     `json:"kinesthetic_preference"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ParentID    *int   `json:"parent_id"`
}

type CreateCourseRequest struct {
	Title                string `json:"title"`
	Overview             string `json:"overview"`
	Description          string `json:"description"`
	LearningObjectives   string `json:"learning_objectives"`
	CategoryID           *int   `json:"category_id"`
	Level                string `json:"level"`
	Price                int64  `json:"price"`
	DiscountPrice        *int64 `json:"discount_price"`
	DurationHours        int    `json:"duration_hours"`
	Languages            string `json:"languages"`
	CertificateAvailable *bool  `json:"certificate_available"`
	AllowReviews         *bool  `json:"allow_reviews"`
	Tags                 string `json:"tags"`
}

type CreateModuleRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Position      int    `json:"position"`
	IsFreePreview bool   `json:"is_free_preview"`
}

type CreateContentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Position    int    `json:"position"`
	ContentType string `json:"content_type"`

	Body               *string    `json:"body"`
	ReadingTimeMinutes *int       `json:"reading_time_minutes"`
	VideoURL           *string    `json:"video_url"`
	DurationSeconds    *int       `json:"duration_seconds"`
	Transcript         *string    `json:"transcript"`
	FileURL            *string    `json:"file_url"`
	FileType           *string    `json:"file_type"`
	FileSizeKB         *int       `json:"file_size_kb"`
	Instructions       *string    `json:"instructions"`
	DueDate            *time.Time `json:"due_date"`
	TotalPoints        *int       `json:"total_points"`
}

type CompleteContentRequest struct {
	TimeSpentSeconds int `json:"time_spent_seconds"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type CreateQuizRequest struct {
	ModuleID           *int   `json:"module_id"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	TimeLimitMinutes   int    `json:"time_limit_minutes"`
	TotalMarks         int    `json:"total_marks"`
	PassingMarks       int    `json:"passing_marks"`
	Difficulty         string `json:"difficulty"`
	MaxAttempts        int    `json:"max_attempts"`
	RandomizeQuestions bool   `json:"randomize_questions"`
	ShowAnswers        bool   `json:"show_answers"`
}

type CreateQuestionRequest struct {
	Text         string                        `json:"text"`
	QuestionType string                        `json:"question_type"`
	Marks        float64                       `json:"marks"`
	Position     int                           `json:"position"`
	Explanation  string                        `json:"explanation"`
	CodeSnippet  *string                       `json:"code_snippet"`
	Options      []CreateQuestionOptionRequest `json:"options"`
}

type CreateQuestionOptionRequest struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
	Position  int    `json:"position"`
}

type SubmitAttemptRequest struct {
	Answers []SubmitAnswerRequest `json:"answers"`
}

type SubmitAnswerRequest struct {
	QuestionID        int     `json:"question_id"`
	SelectedOptionIDs []int   `json:"selected_option_ids"`
	TextAnswer        *string `json:"text_answer"`
	CodeAnswer        *string `json:"code_answer"`
}

type DraftAIQuestionsRequest struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}

type ApproveAIQuestionRequest struct {
	QuizID int `json:"quiz_id"`
}

type IssueCertificateRequest struct {
	StudentID   int        `json:"student_id"`
	ExpiresAt   *time.Time `json:"expires_at"`
	Description string     `json:"description"`
}

type RevokeCertificateRequest struct {
	Reason string `json:"reason"`
}

type VerifyCertificateQuery struct {
	VerifierName  *string `json:"verifier_name"`
	VerifierEmail *string `json:"verifier_email"`
}

type CreateGoalRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CourseID    *int       `json:"course_id"`
	TargetValue int        `json:"target_value"`
	Unit        string     `json:"unit"`
	Period      string     `json:"period"`
	EndsAt      *time.Time `json:"ends_at"`
}

type AdvanceGoalRequest struct {
	Delta int `json:"delta"`
}

type StartSessionRequest struct {
	CourseID *int `json:"course_id"`
}

type CompleteSessionRequest struct {
	TopicsCovered string `json:"topics_covered"`
	Notes         string `json:"notes"`
}

type CreateAnnouncementRequest struct {
	Title                  string     `json:"title"`
	Body                   string     `json:"body"`
	AnnouncementType       string     `json:"announcement_type"`
	Priority               string     `json:"priority"`
	CourseID               *int       `json:"course_id"`
	StartsAt               *time.Time `json:"starts_at"`
	EndsAt                 *time.Time `json:"ends_at"`
	RequiresAcknowledgment bool       `json:"requires_acknowledgment"`
}

type AdjustPointsRequest struct {
	UserID      int    `json:"user_id"`
	Points      int    `json:"points"`
	Description string `json:"description"`
}
