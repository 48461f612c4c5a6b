package main

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"skillforge/internal/metrics"
	"skillforge/internal/model"
)

func validDifficulty(d string) bool {
	switch d {
	case model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard, model.DifficultyExpert:
		return true
	}
	return false
}

func (s *Server) listQuizzes(w http.ResponseWriter, r *http.Request) {
	course, err := s.db.GetCourseBySlug(muxVar(r, "slug"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	if _, err := s.courseAccess(r, course, false); err != nil {
		s.writeError(w, err)
		return
	}

	quizzes, err := s.db.GetQuizzesByCourse(course.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, quizzes)
}

func (s *Server) createQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	course, err := s.ownedCourse(r, id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var request CreateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if request.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}
	difficulty := request.Difficulty
	if difficulty == "" {
		difficulty = model.DifficultyMedium
	}
	if !validDifficulty(difficulty) {
		http.Error(w, "unknown difficulty", http.StatusBadRequest)
		return
	}
	if request.TotalMarks <= 0 || request.PassingMarks <= 0 || request.PassingMarks > request.TotalMarks {
		http.Error(w, "passing_marks must be positive and not exceed total_marks", http.StatusBadRequest)
		return
	}
	if request.ModuleID != nil {
		module, err := s.db.GetModuleByID(*request.ModuleID)
		if err != nil || module.CourseID != course.ID {
			http.Error(w, "module does not belong to this course", http.StatusBadRequest)
			return
		}
	}

	quiz, err := s.db.CreateQuiz(model.Quiz{
		CourseID:           course.ID,
		ModuleID:           request.ModuleID,
		Title:              request.Title,
		Description:        request.Description,
		TimeLimitMinutes:   request.TimeLimitMinutes,
		TotalMarks:         request.TotalMarks,
		PassingMarks:       request.PassingMarks,
		Difficulty:         difficulty,
		IsActive:           true,
		MaxAttempts:        request.MaxAttempts,
		RandomizeQuestions: request.RandomizeQuestions,
		ShowAnswers:        request.ShowAnswers,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, quiz)
}

func (s *Server) createQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	quiz, err := s.db.GetQuizByID(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.ownedCourse(r, quiz.CourseID); err != nil {
		s.writeError(w, err)
		return
	}

	var request CreateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if request.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	marks := request.Marks
	if marks <= 0 {
		marks = 1
	}

	question := model.Question{
		QuizID:       quiz.ID,
		Text:         request.Text,
		QuestionType: request.QuestionType,
		Marks:        marks,
		Position:     request.Position,
		Explanation:  request.Explanation,
		CodeSnippet:  request.CodeSnippet,
	}
	for i, opt := range request.Options {
		position := opt.Position
		if position == 0 {
			position = i
		}
		question.Options = append(question.Options, model.QuestionOption{
			Text:      opt.Text,
			IsCorrect: opt.IsCorrect,
			Position:  position,
		})
	}
	if err := question.ValidateOptions(); err != nil {
		s.writeError(w, err)
		return
	}

	created, err := s.db.CreateQuestion(question)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

// hideCorrectAnswers strips the correct flags before questions go to a
// student taking the quiz.
func hideCorrectAnswers(questions []model.Question) []model.Question {
	for i := range questions {
		for j := range questions[i].Options {
			questions[i].Options[j].IsCorrect = false
		}
		questions[i].Explanation = ""
	}
	return questions
}

func (s *Server) startAttempt(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	quiz, err := s.db.GetQuizByID(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !quiz.IsActive {
		http.Error(w, "quiz is not active", http.StatusBadRequest)
		return
	}

	enrollment, err := s.db.GetEnrollment(claims.UserID, quiz.CourseID)
	if err != nil || !enrollment.GrantsAccess() {
		s.writeError(w, errForbidden)
		return
	}

	attempts, err := s.db.GetAttemptsByStudent(quiz.ID, claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	questions, err := s.db.GetQuestionsByQuiz(quiz.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if len(questions) == 0 {
		http.Error(w, "quiz has no questions yet", http.StatusBadRequest)
		return
	}
	if quiz.RandomizeQuestions {
		rand.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}
	questions = hideCorrectAnswers(questions)

	// Resume an open attempt instead of opening a second one.
	for _, attempt := range attempts {
		if attempt.Status == model.AttemptInProgress {
			s.respondJSON(w, http.StatusOK, map[string]any{
				"attempt":   attempt,
				"questions": questions,
			})
			return
		}
	}

	if quiz.MaxAttempts > 0 && len(attempts) >= quiz.MaxAttempts {
		http.Error(w, "maximum attempts reached", http.StatusBadRequest)
		return
	}

	attempt, err := s.db.CreateAttempt(quiz.ID, claims.UserID, len(attempts)+1)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, map[string]any{
		"attempt":   attempt,
		"questions": questions,
	})
}

func (s *Server) submitAttempt(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	attempt, err := s.db.GetAttemptByID(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if attempt.StudentID != claims.UserID {
		s.writeError(w, errForbidden)
		return
	}
	if attempt.Status != model.AttemptInProgress {
		http.Error(w, "attempt is already finished", http.StatusBadRequest)
		return
	}

	quiz, err := s.db.GetQuizByID(attempt.QuizID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	questions, err := s.db.GetQuestionsByQuiz(quiz.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var request SubmitAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	answers := make(map[int]SubmitAnswerRequest, len(request.Answers))
	for _, a := range request.Answers {
		answers[a.QuestionID] = a
	}

	now := time.Now()
	timeTaken := int(now.Sub(attempt.StartedAt).Seconds())
	timedOut := quiz.TimeLimitMinutes > 0 && timeTaken > quiz.TimeLimitMinutes*60

	var score, totalMarks float64
	for _, question := range questions {
		totalMarks += question.Marks

		given := answers[question.ID]
		textAnswer := ""
		if given.TextAnswer != nil {
			textAnswer = *given.TextAnswer
		}
		correct, marks := question.Grade(given.SelectedOptionIDs, textAnswer)
		score += marks

		if _, err := s.db.SaveAnswer(model.Answer{
			AttemptID:         attempt.ID,
			QuestionID:        question.ID,
			SelectedOptionIDs: given.SelectedOptionIDs,
			TextAnswer:        given.TextAnswer,
			CodeAnswer:        given.CodeAnswer,
			IsCorrect:         correct,
			MarksAwarded:      marks,
		}); err != nil {
			s.writeError(w, err)
			return
		}
	}

	percentage := 0.0
	if totalMarks > 0 {
		percentage = score / totalMarks * 100
	}

	attempt.Status = model.AttemptCompleted
	attempt.Passed = score >= float64(quiz.PassingMarks)
	if timedOut {
		attempt.Status = model.AttemptTimedOut
		attempt.Passed = false
	}
	attempt.Score = score
	attempt.Percentage = percentage
	attempt.TimeTakenSeconds = &timeTaken

	finished, err := s.db.FinishAttempt(attempt)
	if err != nil {
		s.writeError(w, err)
		return
	}

	outcome := "failed"
	switch {
	case timedOut:
		outcome = "timed_out"
	case finished.Passed:
		outcome = "passed"
	}
	metrics.RecordQuizSubmission(outcome)

	if finished.Passed {
		relatedType := "quiz"
		relatedID := quiz.ID
		s.awardPoints(claims.UserID, quiz.CourseID, model.PointsQuizPass, model.TxQuizPass,
			"passed quiz: "+quiz.Title, &relatedType, &relatedID)
		s.progressChallenges(claims.UserID, model.TxQuizPass, 1)
	}
	// Score achievements go by the percentage alone; a high score on a
	// failed attempt still counts.
	s.checkAchievements(claims.UserID, model.AchievementQuizScore, int(percentage))
	s.touchStreak(claims.UserID)

	s.respondJSON(w, http.StatusOK, finished)
}

func (s *Server) listAttempts(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	attempts, err := s.db.GetAttemptsByStudent(id, claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, attempts)
}

func (s *Server) attemptDetail(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	attempt, err := s.db.GetAttemptByID(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	quiz, err := s.db.GetQuizByID(attempt.QuizID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if attempt.StudentID != claims.UserID {
		course, err := s.db.GetCourseByID(quiz.CourseID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if course.InstructorID != claims.UserID && !claims.IsAdmin() {
			s.writeError(w, errForbidden)
			return
		}
	}

	answers, err := s.db.GetAnswersByAttempt(attempt.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	response := map[string]any{
		"attempt": attempt,
		"answers": answers,
	}

	// The correct options only come back once the attempt is finished
	// and the quiz allows revealing them.
	if quiz.ShowAnswers && attempt.Status != model.AttemptInProgress {
		questions, err := s.db.GetQuestionsByQuiz(quiz.ID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		response["questions"] = questions
	}

	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) draftAIQuestions(w http.ResponseWriter, r *http.Request) {
	// Without an API key the feature does not exist.
	if s.generator == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	course, err := s.ownedCourse(r, id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var request DraftAIQuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if request.Topic == "" {
		http.Error(w, "topic is required", http.StatusBadRequest)
		return
	}
	difficulty := request.Difficulty
	if difficulty == "" {
		difficulty = model.DifficultyMedium
	}
	if !validDifficulty(difficulty) {
		http.Error(w, "unknown difficulty", http.StatusBadRequest)
		return
	}
	count := request.Count
	if count > 10 {
		count = 10
	}

	drafts, err := s.generator.Draft(r.Context(), course.ID, request.Topic, difficulty, count)
	if err != nil {
		log.Errorf("drafting questions for course %d: %v", course.ID, err)
		http.Error(w, "question generation failed", http.StatusBadGateway)
		return
	}

	var saved []model.AIQuestion
	for _, draft := range drafts {
		created, err := s.db.CreateAIQuestion(draft)
		if err != nil {
			s.writeError(w, err)
			return
		}
		saved = append(saved, created)
	}

	s.respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) listAIQuestions(w http.ResponseWriter, r *http.Request) {
	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	course, err := s.ownedCourse(r, id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	verifiedOnly := r.URL.Query().Get("verified") == "true"
	questions, err := s.db.GetAIQuestionsByCourse(course.ID, verifiedOnly)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, questions)
}

func (s *Server) approveAIQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	draft, err := s.db.GetAIQuestionByID(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.ownedCourse(r, draft.CourseID); err != nil {
		s.writeError(w, err)
		return
	}

	var request ApproveAIQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	quiz, err := s.db.GetQuizByID(request.QuizID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if quiz.CourseID != draft.CourseID {
		http.Error(w, "quiz does not belong to the draft's course", http.StatusBadRequest)
		return
	}

	if !draft.IsVerified {
		if err := s.db.VerifyAIQuestion(draft.ID); err != nil {
			s.writeError(w, err)
			return
		}
	}

	question, err := s.db.PromoteAIQuestion(draft.ID, quiz.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, question)
}

func (s *Server) rejectAIQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	draft, err := s.db.GetAIQuestionByID(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.ownedCourse(r, draft.CourseID); err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.db.DeleteAIQuestion(draft.ID); err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
