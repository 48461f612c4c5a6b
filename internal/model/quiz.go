package model

import (
	"strings"
	"time"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
	DifficultyExpert = "expert"
)

type Quiz struct {
	ID                 int       `json:"id"`
	CourseID           int       `json:"course_id"`
	ModuleID           *int      `json:"module_id,omitempty"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	TimeLimitMinutes   int       `json:"time_limit_minutes"`
	TotalMarks         int       `json:"total_marks"`
	PassingMarks       int       `json:"passing_marks"`
	Difficulty         string    `json:"difficulty"`
	IsActive           bool      `json:"is_active"`
	MaxAttempts        int       `json:"max_attempts"`
	RandomizeQuestions bool      `json:"randomize_questions"`
	ShowAnswers        bool      `json:"show_answers"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	QuestionCount int `json:"question_count,omitempty"`
}

const (
	QuestionSingleChoice   = "single_choice"
	QuestionMultipleChoice = "multiple_choice"
	QuestionTrueFalse      = "true_false"
	QuestionFillBlank      = "fill_blank"
	QuestionShortAnswer    = "short_answer"
	QuestionEssay          = "essay"
	QuestionCode           = "code"
)

type Question struct {
	ID           int     `json:"id"`
	QuizID       int     `json:"quiz_id"`
	Text         string  `json:"text"`
	QuestionType string  `json:"question_type"`
	Marks        float64 `json:"marks"`
	Position     int     `json:"position"`
	Explanation  string  `json:"explanation"`
	CodeSnippet  *string `json:"code_snippet,omitempty"`

	Options []QuestionOption `json:"options,omitempty"`
}

type QuestionOption struct {
	ID         int    `json:"id"`
	QuestionID int    `json:"question_id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct,omitempty"`
	Position   int    `json:"position"`
}

// NeedsManualGrading reports whether answers to this question cannot be
// scored automatically.
func (q Question) NeedsManualGrading() bool {
	switch q.QuestionType {
	case QuestionShortAnswer, QuestionEssay, QuestionCode:
		return true
	}
	return false
}

// correctOptionIDs returns the ids of the correct options, sorted order
// not guaranteed.
func (q Question) correctOptionIDs() []int {
	var ids []int
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// ValidateOptions enforces the option shape each question type requires.
func (q Question) ValidateOptions() error {
	correct := len(q.correctOptionIDs())
	switch q.QuestionType {
	case QuestionTrueFalse:
		if len(q.Options) != 2 {
			return errInvalid("true_false questions need exactly 2 options")
		}
		if correct != 1 {
			return errInvalid("true_false questions need exactly 1 correct option")
		}
	case QuestionSingleChoice:
		if len(q.Options) < 2 {
			return errInvalid("single_choice questions need at least 2 options")
		}
		if correct != 1 {
			return errInvalid("single_choice questions need exactly 1 correct option")
		}
	case QuestionMultipleChoice:
		if len(q.Options) < 2 {
			return errInvalid("multiple_choice questions need at least 2 options")
		}
		if correct < 1 {
			return errInvalid("multiple_choice questions need at least 1 correct option")
		}
	case QuestionFillBlank:
		if correct != 1 {
			return errInvalid("fill_blank questions need exactly 1 correct option holding the expected answer")
		}
	case QuestionShortAnswer, QuestionEssay, QuestionCode:
		// graded manually, options optional
	default:
		return errInvalid("unknown question_type")
	}
	return nil
}

// Grade scores one answer. For choice questions selected holds option
// ids; for fill_blank textAnswer holds the student's text. Manually
// graded types always come back incorrect with zero marks awarded.
// There is no partial credit: marks are all or nothing.
func (q Question) Grade(selected []int, textAnswer string) (correct bool, marks float64) {
	switch q.QuestionType {
	case QuestionSingleChoice, QuestionTrueFalse:
		want := q.correctOptionIDs()
		if len(selected) == 1 && len(want) == 1 && selected[0] == want[0] {
			return true, q.Marks
		}
	case QuestionMultipleChoice:
		if sameIDSet(selected, q.correctOptionIDs()) {
			return true, q.Marks
		}
	case QuestionFillBlank:
		for _, o := range q.Options {
			if o.IsCorrect && strings.EqualFold(strings.TrimSpace(textAnswer), strings.TrimSpace(o.Text)) {
				return true, q.Marks
			}
		}
	}
	return false, 0
}

func sameIDSet(a, b []int) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}
	set := make(map[int]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	if len(set) != len(b) {
		return false
	}
	for _, id := range b {
		if !set[id] {
			return false
		}
	}
	return true
}

const (
	AttemptInProgress = "in_progress"
	AttemptCompleted  = "completed"
	AttemptTimedOut   = "timed_out"
	AttemptAbandoned  = "abandoned"
)

type QuizAttempt struct {
	ID               int        `json:"id"`
	QuizID           int        `json:"quiz_id"`
	StudentID        int        `json:"student_id"`
	AttemptNumber    int        `json:"attempt_number"`
	Status           string     `json:"status"`
	Score            float64    `json:"score"`
	Percentage       float64    `json:"percentage"`
	Passed           bool       `json:"passed"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
	TimeTakenSeconds *int       `json:"time_taken_seconds,omitempty"`
}

type Answer struct {
	ID                int     `json:"id"`
	AttemptID         int     `json:"attempt_id"`
	QuestionID        int     `json:"question_id"`
	SelectedOptionIDs []int   `json:"selected_option_ids"`
	TextAnswer        *string `json:"text_answer,omitempty"`
	CodeAnswer        *string `json:"code_answer,omitempty"`
	IsCorrect         bool    `json:"is_correct"`
	MarksAwarded      float64 `json:"marks_awarded"`
}

// AIOption is one draft option inside an AI generated question.
type AIOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// AIQuestion is a model-drafted question held for instructor review. It
// only becomes part of a quiz after an instructor verifies it.
type AIQuestion struct {
	ID           int        `json:"id"`
	CourseID     int        `json:"course_id"`
	Topic        string     `json:"topic"`
	Text         string     `json:"text"`
	QuestionType string     `json:"question_type"`
	Difficulty   string     `json:"difficulty"`
	Marks        float64    `json:"marks"`
	Options      []AIOption `json:"options"`
	Explanation  string     `json:"explanation"`
	IsVerified   bool       `json:"is_verified"`
	UsedCount    int        `json:"used_count"`
	CreatedAt    time.Time  `json:"created_at"`
}
