package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"skillforge/internal/model"

	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

const quizColumns = `id, course_id, module_id, title, description, COALESCE(time_limit_minutes, 0), total_marks,
	passing_marks, difficulty, is_active, max_attempts, randomize_questions, show_answers, created_at, updated_at`

func scanQuiz(row interface{ Scan(...any) error }) (model.Quiz, error) {
	var q model.Quiz
	err := row.Scan(
		&q.ID, &q.CourseID, &q.ModuleID, &q.Title, &q.Description, &q.TimeLimitMinutes, &q.TotalMarks,
		&q.PassingMarks, &q.Difficulty, &q.IsActive, &q.MaxAttempts, &q.RandomizeQuestions, &q.ShowAnswers,
		&q.CreatedAt, &q.UpdatedAt,
	)
	return q, err
}

func (c *client) CreateQuiz(quiz model.Quiz) (model.Quiz, error) {
	created, err := scanQuiz(c.db.QueryRow(`INSERT INTO quizzes (course_id, module_id, title, description,
			time_limit_minutes, total_marks, passing_marks, difficulty, is_active, max_attempts,
			randomize_questions, show_answers)
		VALUES ($1, $2, $3, $4, NULLIF($5, 0), $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+quizColumns,
		quiz.CourseID, quiz.ModuleID, quiz.Title, quiz.Description, quiz.TimeLimitMinutes, quiz.TotalMarks,
		quiz.PassingMarks, quiz.Difficulty, quiz.IsActive, quiz.MaxAttempts, quiz.RandomizeQuestions, quiz.ShowAnswers,
	))
	if err != nil {
		return model.Quiz{}, fmt.Errorf("inserting quiz: %w", err)
	}

	return created, nil
}

func (c *client) GetQuizByID(id int) (model.Quiz, error) {
	quiz, err := scanQuiz(c.db.QueryRow(`SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Quiz{}, fmt.Errorf("no quiz found with id %d: %w", id, ErrNotFound)
		}
		return model.Quiz{}, fmt.Errorf("querying for quiz by id: %w", err)
	}

	return quiz, nil
}

func (c *client) GetQuizzesByCourse(courseID int) ([]model.Quiz, error) {
	rows, err := c.db.Query(`SELECT `+quizColumns+`,
		(SELECT COUNT(*) FROM questions q WHERE q.quiz_id = quizzes.id)
		FROM quizzes WHERE course_id = $1 ORDER BY id`, courseID)
	if err != nil {
		return nil, fmt.Errorf("querying for quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []model.Quiz
	for rows.Next() {
		var q model.Quiz
		if err := rows.Scan(
			&q.ID, &q.CourseID, &q.ModuleID, &q.Title, &q.Description, &q.TimeLimitMinutes, &q.TotalMarks,
			&q.PassingMarks, &q.Difficulty, &q.IsActive, &q.MaxAttempts, &q.RandomizeQuestions, &q.ShowAnswers,
			&q.CreatedAt, &q.UpdatedAt, &q.QuestionCount,
		); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}

	return quizzes, rows.Err()
}

// CreateQuestion inserts the question and its options in one
// transaction so a failed option insert never leaves a bare question.
func (c *client) CreateQuestion(question model.Question) (model.Question, error) {
	tx, err := c.db.Begin()
	if err != nil {
		return model.Question{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var created model.Question
	err = tx.QueryRow(`INSERT INTO questions (quiz_id, question_text, question_type, explanation, marks, position, code_snippet)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, ''))
		RETURNING id, quiz_id, question_text, question_type, marks, position, explanation`,
		question.QuizID, question.Text, question.QuestionType, question.Explanation, question.Marks,
		question.Position, question.CodeSnippet,
	).Scan(&created.ID, &created.QuizID, &created.Text, &created.QuestionType, &created.Marks, &created.Position, &created.Explanation)
	if err != nil {
		return model.Question{}, fmt.Errorf("inserting question: %w", err)
	}
	created.CodeSnippet = question.CodeSnippet

	for _, opt := range question.Options {
		var saved model.QuestionOption
		err = tx.QueryRow(`INSERT INTO question_options (question_id, option_text, is_correct, position)
			VALUES ($1, $2, $3, $4) RETURNING id, question_id, option_text, is_correct, position`,
			created.ID, opt.Text, opt.IsCorrect, opt.Position,
		).Scan(&saved.ID, &saved.QuestionID, &saved.Text, &saved.IsCorrect, &saved.Position)
		if err != nil {
			return model.Question{}, fmt.Errorf("inserting question option: %w", err)
		}
		created.Options = append(created.Options, saved)
	}

	if err := tx.Commit(); err != nil {
		return model.Question{}, fmt.Errorf("committing question insert: %w", err)
	}

	return created, nil
}

func (c *client) GetQuestionsByQuiz(quizID int) ([]model.Question, error) {
	rows, err := c.db.Query(`SELECT id, quiz_id, question_text, question_type, marks, position, explanation, NULLIF(code_snippet, '')
		FROM questions WHERE quiz_id = $1 ORDER BY position, id`, quizID)
	if err != nil {
		return nil, fmt.Errorf("querying for questions: %w", err)
	}
	defer rows.Close()

	var questions []model.Question
	byID := map[int]int{}
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &q.QuestionType, &q.Marks, &q.Position, &q.Explanation, &q.CodeSnippet); err != nil {
			return nil, err
		}
		byID[q.ID] = len(questions)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(questions) == 0 {
		return questions, nil
	}

	optRows, err := c.db.Query(`SELECT o.id, o.question_id, o.option_text, o.is_correct, o.position
		FROM question_options o JOIN questions q ON q.id = o.question_id
		WHERE q.quiz_id = $1 ORDER BY o.position, o.id`, quizID)
	if err != nil {
		return nil, fmt.Errorf("querying for question options: %w", err)
	}
	defer optRows.Close()

	for optRows.Next() {
		var o model.QuestionOption
		if err := optRows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect, &o.Position); err != nil {
			return nil, err
		}
		if idx, ok := byID[o.QuestionID]; ok {
			questions[idx].Options = append(questions[idx].Options, o)
		}
	}

	return questions, optRows.Err()
}

func (c *client) CountAttempts(quizID, studentID int) (int, error) {
	var count int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM quiz_attempts WHERE quiz_id = $1 AND student_id = $2`, quizID, studentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting quiz attempts: %w", err)
	}

	return count, nil
}

const attemptColumns = `id, quiz_id, student_id, attempt_number, status, score, percentage, passed,
	started_at, finished_at, time_taken_seconds`

func scanAttempt(row interface{ Scan(...any) error }) (model.QuizAttempt, error) {
	var a model.QuizAttempt
	err := row.Scan(
		&a.ID, &a.QuizID, &a.StudentID, &a.AttemptNumber, &a.Status, &a.Score, &a.Percentage, &a.Passed,
		&a.StartedAt, &a.FinishedAt, &a.TimeTakenSeconds,
	)
	return a, err
}

func (c *client) CreateAttempt(quizID, studentID, attemptNumber int) (model.QuizAttempt, error) {
	attempt, err := scanAttempt(c.db.QueryRow(`INSERT INTO quiz_attempts (quiz_id, student_id, attempt_number)
		VALUES ($1, $2, $3) RETURNING `+attemptColumns, quizID, studentID, attemptNumber))
	if err != nil {
		if isUniqueViolation(err) {
			return model.QuizAttempt{}, fmt.Errorf("attempt %d already exists: %w", attemptNumber, ErrDuplicate)
		}
		return model.QuizAttempt{}, fmt.Errorf("inserting quiz attempt: %w", err)
	}

	return attempt, nil
}

func (c *client) GetAttemptByID(id int) (model.QuizAttempt, error) {
	attempt, err := scanAttempt(c.db.QueryRow(`SELECT `+attemptColumns+` FROM quiz_attempts WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.QuizAttempt{}, fmt.Errorf("no attempt found with id %d: %w", id, ErrNotFound)
		}
		return model.QuizAttempt{}, fmt.Errorf("querying for attempt by id: %w", err)
	}

	return attempt, nil
}

func (c *client) GetAttemptsByStudent(quizID, studentID int) ([]model.QuizAttempt, error) {
	rows, err := c.db.Query(`SELECT `+attemptColumns+` FROM quiz_attempts
		WHERE quiz_id = $1 AND student_id = $2 ORDER BY attempt_number`, quizID, studentID)
	if err != nil {
		return nil, fmt.Errorf("querying for attempts: %w", err)
	}
	defer rows.Close()

	var attempts []model.QuizAttempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}

	return attempts, rows.Err()
}

func (c *client) SaveAnswer(answer model.Answer) (model.Answer, error) {
	query := `INSERT INTO answers (attempt_id, question_id, selected_option_ids, text_answer, code_answer, is_correct, marks_awarded)
		VALUES ($1, $2, $3, COALESCE($4, ''), COALESCE($5, ''), $6, $7)
		ON CONFLICT (attempt_id, question_id) DO UPDATE SET
			selected_option_ids = EXCLUDED.selected_option_ids,
			text_answer = EXCLUDED.text_answer,
			code_answer = EXCLUDED.code_answer,
			is_correct = EXCLUDED.is_correct,
			marks_awarded = EXCLUDED.marks_awarded
		RETURNING id, attempt_id, question_id, selected_option_ids, NULLIF(text_answer, ''), NULLIF(code_answer, ''), is_correct, marks_awarded`
	var saved model.Answer
	var selected pq.Int64Array
	err := c.db.QueryRow(query,
		answer.AttemptID, answer.QuestionID, pq.Array(answer.SelectedOptionIDs), answer.TextAnswer,
		answer.CodeAnswer, answer.IsCorrect, answer.MarksAwarded,
	).Scan(&saved.ID, &saved.AttemptID, &saved.QuestionID, &selected, &saved.TextAnswer, &saved.CodeAnswer, &saved.IsCorrect, &saved.MarksAwarded)
	if err != nil {
		return model.Answer{}, fmt.Errorf("saving answer: %w", err)
	}
	for _, id := range selected {
		saved.SelectedOptionIDs = append(saved.SelectedOptionIDs, int(id))
	}

	return saved, nil
}

func (c *client) GetAnswersByAttempt(attemptID int) ([]model.Answer, error) {
	rows, err := c.db.Query(`SELECT id, attempt_id, question_id, selected_option_ids,
		NULLIF(text_answer, ''), NULLIF(code_answer, ''), is_correct, marks_awarded
		FROM answers WHERE attempt_id = $1 ORDER BY question_id`, attemptID)
	if err != nil {
		return nil, fmt.Errorf("querying for answers: %w", err)
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		var selected pq.Int64Array
		if err := rows.Scan(&a.ID, &a.AttemptID, &a.QuestionID, &selected, &a.TextAnswer, &a.CodeAnswer, &a.IsCorrect, &a.MarksAwarded); err != nil {
			return nil, err
		}
		for _, id := range selected {
			a.SelectedOptionIDs = append(a.SelectedOptionIDs, int(id))
		}
		answers = append(answers, a)
	}

	return answers, rows.Err()
}

func (c *client) FinishAttempt(attempt model.QuizAttempt) (model.QuizAttempt, error) {
	finished, err := scanAttempt(c.db.QueryRow(`UPDATE quiz_attempts SET status = $1, score = $2, percentage = $3,
			passed = $4, finished_at = NOW(), time_taken_seconds = $5
		WHERE id = $6 RETURNING `+attemptColumns,
		attempt.Status, attempt.Score, attempt.Percentage, attempt.Passed, attempt.TimeTakenSeconds, attempt.ID,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.QuizAttempt{}, fmt.Errorf("no attempt found with id %d: %w", attempt.ID, ErrNotFound)
		}
		return model.QuizAttempt{}, fmt.Errorf("finishing attempt: %w", err)
	}

	return finished, nil
}

// AverageQuizPercentage returns the mean percentage over finished
// attempts plus the count of passed ones.
func (c *client) AverageQuizPercentage(studentID int) (float64, int, error) {
	var avg float64
	var passed int
	err := c.db.QueryRow(`SELECT COALESCE(AVG(percentage), 0),
		COUNT(*) FILTER (WHERE passed)
		FROM quiz_attempts WHERE student_id = $1 AND status IN ('completed', 'timed_out')`, studentID).Scan(&avg, &passed)
	if err != nil {
		return 0, 0, fmt.Errorf("averaging quiz percentages: %w", err)
	}

	return avg, passed, nil
}

func (c *client) CreateAIQuestion(question model.AIQuestion) (model.AIQuestion, error) {
	options, err := json.Marshal(question.Options)
	if err != nil {
		return model.AIQuestion{}, fmt.Errorf("encoding options: %w", err)
	}

	query := `INSERT INTO ai_questions (course_id, question_text, question_type, difficulty, explanation, topic, marks, options)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, course_id, question_text, question_type, difficulty, explanation, topic, marks, options, is_verified, used_count, created_at`
	var created model.AIQuestion
	var rawOptions []byte
	err = c.db.QueryRow(query,
		question.CourseID, question.Text, question.QuestionType, question.Difficulty, question.Explanation,
		question.Topic, question.Marks, options,
	).Scan(&created.ID, &created.CourseID, &created.Text, &created.QuestionType, &created.Difficulty,
		&created.Explanation, &created.Topic, &created.Marks, &rawOptions, &created.IsVerified, &created.UsedCount, &created.CreatedAt)
	if err != nil {
		return model.AIQuestion{}, fmt.Errorf("inserting ai question: %w", err)
	}
	if err := json.Unmarshal(rawOptions, &created.Options); err != nil {
		return model.AIQuestion{}, fmt.Errorf("decoding options: %w", err)
	}

	return created, nil
}

func (c *client) GetAIQuestionsByCourse(courseID int, verifiedOnly bool) ([]model.AIQuestion, error) {
	query := `SELECT id, course_id, question_text, question_type, difficulty, explanation, topic, marks, options, is_verified, used_count, created_at
		FROM ai_questions WHERE course_id = $1`
	if verifiedOnly {
		query += ` AND is_verified`
	}
	rows, err := c.db.Query(query+` ORDER BY created_at DESC`, courseID)
	if err != nil {
		return nil, fmt.Errorf("querying for ai questions: %w", err)
	}
	defer rows.Close()

	var questions []model.AIQuestion
	for rows.Next() {
		var q model.AIQuestion
		var rawOptions []byte
		if err := rows.Scan(&q.ID, &q.CourseID, &q.Text, &q.QuestionType, &q.Difficulty, &q.Explanation,
			&q.Topic, &q.Marks, &rawOptions, &q.IsVerified, &q.UsedCount, &q.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(rawOptions, &q.Options); err != nil {
			return nil, fmt.Errorf("decoding options: %w", err)
		}
		questions = append(questions, q)
	}

	return questions, rows.Err()
}

func (c *client) GetAIQuestionByID(id int) (model.AIQuestion, error) {
	var q model.AIQuestion
	var rawOptions []byte
	err := c.db.QueryRow(`SELECT id, course_id, question_text, question_type, difficulty, explanation, topic, marks, options, is_verified, used_count, created_at
		FROM ai_questions WHERE id = $1`, id).Scan(
		&q.ID, &q.CourseID, &q.Text, &q.QuestionType, &q.Difficulty, &q.Explanation,
		&q.Topic, &q.Marks, &rawOptions, &q.IsVerified, &q.UsedCount, &q.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.AIQuestion{}, fmt.Errorf("no ai question found with id %d: %w", id, ErrNotFound)
		}
		return model.AIQuestion{}, fmt.Errorf("querying for ai question by id: %w", err)
	}
	if err := json.Unmarshal(rawOptions, &q.Options); err != nil {
		return model.AIQuestion{}, fmt.Errorf("decoding options: %w", err)
	}

	return q, nil
}

func (c *client) DeleteAIQuestion(id int) error {
	res, err := c.db.Exec(`DELETE FROM ai_questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting ai question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no ai question found with id %d: %w", id, ErrNotFound)
	}

	return nil
}

func (c *client) VerifyAIQuestion(id int) error {
	res, err := c.db.Exec(`UPDATE ai_questions SET is_verified = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("verifying ai question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no ai question found with id %d: %w", id, ErrNotFound)
	}

	return nil
}

// PromoteAIQuestion copies a draft into a quiz as a real question and
// bumps the draft's usage counter.
func (c *client) PromoteAIQuestion(aiQuestionID, quizID int) (model.Question, error) {
	var draft model.AIQuestion
	var rawOptions []byte
	err := c.db.QueryRow(`SELECT id, course_id, question_text, question_type, difficulty, explanation, topic, marks, options
		FROM ai_questions WHERE id = $1`, aiQuestionID).Scan(
		&draft.ID, &draft.CourseID, &draft.Text, &draft.QuestionType, &draft.Difficulty,
		&draft.Explanation, &draft.Topic, &draft.Marks, &rawOptions,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Question{}, fmt.Errorf("no ai question found with id %d: %w", aiQuestionID, ErrNotFound)
		}
		return model.Question{}, fmt.Errorf("querying for ai question: %w", err)
	}
	if err := json.Unmarshal(rawOptions, &draft.Options); err != nil {
		return model.Question{}, fmt.Errorf("decoding options: %w", err)
	}

	question := model.Question{
		QuizID:       quizID,
		Text:         draft.Text,
		QuestionType: draft.QuestionType,
		Explanation:  draft.Explanation,
		Marks:        draft.Marks,
	}
	for i, opt := range draft.Options {
		question.Options = append(question.Options, model.QuestionOption{
			Text:      opt.Text,
			IsCorrect: opt.IsCorrect,
			Position:  i,
		})
	}

	created, err := c.CreateQuestion(question)
	if err != nil {
		return model.Question{}, err
	}

	if _, err := c.db.Exec(`UPDATE ai_questions SET used_count = used_count + 1 WHERE id = $1`, aiQuestionID); err != nil {
		log.Errorf("bumping ai question used_count: %v", err)
	}

	return created, nil
}
