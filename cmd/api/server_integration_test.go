//go:build integration

package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillforge/internal/database"
)

var server *Server

const baseURL = "http://localhost:8080"

func cleanupDB(t *testing.T) {
	cfg, err := ReadConfig()
	if err != nil {
		t.Fatalf("reading config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.DBCon)
	if err != nil {
		t.Fatalf("Error opening connection to the database: %v", err)
	}
	defer db.Close()

	if _, err = db.Exec("TRUNCATE users, categories, courses, challenges RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("Error cleaning up tables: %v", err)
	}
}

func TestMain(m *testing.M) {
	cfg, err := ReadConfig()
	if err != nil {
		log.Fatalf("reading config: %v", err)
	}

	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		log.Fatalf("converting port to integer: %v", err)
	}

	db, err := database.NewClient(cfg.DBCon)
	if err != nil {
		log.Fatalf("creating database client: %v", err)
	}
	defer db.Close()

	server = NewServer(port, db, cfg.JWTKey, nil, nil, nil, nil)

	go func() {
		if err := server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	time.Sleep(100 * time.Millisecond)

	exitVal := m.Run()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server Shutdown Failed:%+v", err)
	}

	os.Exit(exitVal)
}

func postJSON(t *testing.T, path, token string, body any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest("POST", baseURL+path, bytes.NewBuffer(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func getJSON(t *testing.T, path, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest("GET", baseURL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	return out
}

// registerAndSignIn creates an account and returns its bearer token.
func registerAndSignIn(t *testing.T, username, email, userType string) string {
	t.Helper()

	resp := postJSON(t, "/users", "", RegisterRequest{
		Username: username,
		Email:    email,
		Password: "testpassword",
		UserType: userType,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, "/signin", "", SignInRequest{Email: email, Password: "testpassword"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	signin := decode[SignInResponse](t, resp)
	require.NotEmpty(t, signin.Token)
	return signin.Token
}

func TestHealthz(t *testing.T) {
	resp, err := http.Get(baseURL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterAndSignin(t *testing.T) {
	cleanupDB(t)

	token := registerAndSignIn(t, "alice", "alice@example.com", "student")

	resp := getJSON(t, "/me", token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	me := decode[map[string]json.RawMessage](t, resp)
	assert.Contains(t, me, "user")
	assert.Contains(t, me, "streak")
}

func TestSigninRejectsWrongPassword(t *testing.T) {
	cleanupDB(t)
	registerAndSignIn(t, "bob", "bob@example.com", "student")

	resp := postJSON(t, "/signin", "", SignInRequest{Email: "bob@example.com", Password: "wrongpassword"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRoleIsNotClaimable(t *testing.T) {
	cleanupDB(t)

	token := registerAndSignIn(t, "mallory", "mallory@example.com", "admin")

	resp := getJSON(t, "/me", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	me := decode[map[string]json.RawMessage](t, resp)
	var user struct {
		UserType string `json:"user_type"`
	}
	require.NoError(t, json.Unmarshal(me["user"], &user))
	assert.Equal(t, "student", user.UserType)
}

func TestListCoursesIsPublic(t *testing.T) {
	resp, err := http.Get(baseURL + "/courses")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestCourseLifecycle walks the instructor flow end to end: draft a
// course, fill it, publish, then a student enrolls and completes it.
func TestCourseLifecycle(t *testing.T) {
	cleanupDB(t)

	instructorToken := registerAndSignIn(t, "teacher", "teacher@example.com", "instructor")
	studentToken := registerAndSignIn(t, "learner", "learner@example.com", "student")

	resp := postJSON(t, "/courses", instructorToken, CreateCourseRequest{
		Title:    "Intro to Go",
		Overview: "A beginner course.",
		Level:    "beginner",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	course := decode[struct {
		ID   int    `json:"id"`
		Slug string `json:"slug"`
	}](t, resp)

	// Drafts stay hidden from anonymous visitors.
	anonResp := getJSON(t, "/courses/"+course.Slug, "")
	assert.Equal(t, http.StatusNotFound, anonResp.StatusCode)
	anonResp.Body.Close()

	// Publishing an empty course is rejected.
	resp = postJSON(t, fmt.Sprintf("/courses/%d/publish", course.ID), instructorToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, fmt.Sprintf("/courses/%d/modules", course.ID), instructorToken, CreateModuleRequest{Title: "Basics"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	module := decode[struct {
		ID int `json:"id"`
	}](t, resp)

	body := "Hello, world."
	resp = postJSON(t, fmt.Sprintf("/modules/%d/contents", module.ID), instructorToken, CreateContentRequest{
		Title:       "First lesson",
		ContentType: "text",
		Body:        &body,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	content := decode[struct {
		ID int `json:"id"`
	}](t, resp)

	resp = postJSON(t, fmt.Sprintf("/courses/%d/publish", course.ID), instructorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, "/courses/"+course.Slug+"/enroll", studentToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Enrolling twice conflicts.
	resp = postJSON(t, "/courses/"+course.Slug+"/enroll", studentToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, fmt.Sprintf("/contents/%d/complete", content.ID), studentToken, CompleteContentRequest{TimeSpentSeconds: 90})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	completion := decode[struct {
		CompletionPercentage int `json:"completion_percentage"`
	}](t, resp)
	assert.Equal(t, 100, completion.CompletionPercentage)

	// The only content is done, so the course is completed and points
	// were paid out.
	resp = getJSON(t, "/me/points", studentToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	points := decode[struct {
		ExperiencePoints int `json:"experience_points"`
	}](t, resp)
	assert.Greater(t, points.ExperiencePoints, 0)

	resp = getJSON(t, "/me/certificates", studentToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	certs := decode[[]struct {
		CertificateID string `json:"certificate_id"`
		Status        string `json:"status"`
	}](t, resp)
	require.Len(t, certs, 1)
	assert.Equal(t, "issued", certs[0].Status)

	// Anyone can verify the certificate without a token.
	verifyResp := getJSON(t, "/certificates/verify/"+certs[0].CertificateID, "")
	require.Equal(t, http.StatusOK, verifyResp.StatusCode)
	verdict := decode[struct {
		Valid bool `json:"valid"`
	}](t, verifyResp)
	assert.True(t, verdict.Valid)
}

func TestQuizFlow(t *testing.T) {
	cleanupDB(t)

	instructorToken := registerAndSignIn(t, "quizmaster", "quizmaster@example.com", "instructor")
	studentToken := registerAndSignIn(t, "quiztaker", "quiztaker@example.com", "student")

	resp := postJSON(t, "/courses", instructorToken, CreateCourseRequest{Title: "Quiz Course", Level: "beginner"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	course := decode[struct {
		ID   int    `json:"id"`
		Slug string `json:"slug"`
	}](t, resp)

	resp = postJSON(t, fmt.Sprintf("/courses/%d/modules", course.ID), instructorToken, CreateModuleRequest{Title: "M1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	module := decode[struct {
		ID int `json:"id"`
	}](t, resp)

	body := "Lesson text."
	resp = postJSON(t, fmt.Sprintf("/modules/%d/contents", module.ID), instructorToken, CreateContentRequest{
		Title: "L1", ContentType: "text", Body: &body,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, fmt.Sprintf("/courses/%d/publish", course.ID), instructorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, fmt.Sprintf("/courses/%d/quizzes", course.ID), instructorToken, CreateQuizRequest{
		Title:        "Checkpoint",
		TotalMarks:   1,
		PassingMarks: 1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	quiz := decode[struct {
		ID int `json:"id"`
	}](t, resp)

	resp = postJSON(t, fmt.Sprintf("/quizzes/%d/questions", quiz.ID), instructorToken, CreateQuestionRequest{
		Text:         "Is Go statically typed?",
		QuestionType: "true_false",
		Marks:        1,
		Options: []CreateQuestionOptionRequest{
			{Text: "True", IsCorrect: true},
			{Text: "False"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, "/courses/"+course.Slug+"/enroll", studentToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, fmt.Sprintf("/quizzes/%d/attempts", quiz.ID), studentToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	started := decode[struct {
		Attempt struct {
			ID int `json:"id"`
		} `json:"attempt"`
		Questions []struct {
			ID      int `json:"id"`
			Options []struct {
				ID        int  `json:"id"`
				IsCorrect bool `json:"is_correct"`
			} `json:"options"`
		} `json:"questions"`
	}](t, resp)
	require.Len(t, started.Questions, 1)

	// Correct flags never leak to the student taking the quiz.
	for _, opt := range started.Questions[0].Options {
		assert.False(t, opt.IsCorrect)
	}

	// Answer with the first option; all-or-nothing grading means the
	// attempt either passes with full marks or fails with zero.
	resp = postJSON(t, fmt.Sprintf("/attempts/%d/submit", started.Attempt.ID), studentToken, SubmitAttemptRequest{
		Answers: []SubmitAnswerRequest{{
			QuestionID:        started.Questions[0].ID,
			SelectedOptionIDs: []int{started.Questions[0].Options[0].ID},
		}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	finished := decode[struct {
		Status     string  `json:"status"`
		Score      float64 `json:"score"`
		Percentage float64 `json:"percentage"`
	}](t, resp)
	assert.Equal(t, "completed", finished.Status)
	assert.Contains(t, []float64{0, 1}, finished.Score)
	assert.Contains(t, []float64{0, 100}, finished.Percentage)
}

// A high percentage earns the score achievements even when the attempt
// falls short of the passing marks.
func TestHighScoreOnFailedAttemptEarnsAchievement(t *testing.T) {
	cleanupDB(t)

	instructorToken := registerAndSignIn(t, "grader", "grader@example.com", "instructor")
	studentToken := registerAndSignIn(t, "striver", "striver@example.com", "student")

	resp := postJSON(t, "/courses", instructorToken, CreateCourseRequest{Title: "Hard Course", Level: "beginner"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	course := decode[struct {
		ID   int    `json:"id"`
		Slug string `json:"slug"`
	}](t, resp)

	resp = postJSON(t, fmt.Sprintf("/courses/%d/modules", course.ID), instructorToken, CreateModuleRequest{Title: "M1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	module := decode[struct {
		ID int `json:"id"`
	}](t, resp)

	body := "Lesson text."
	resp = postJSON(t, fmt.Sprintf("/modules/%d/contents", module.ID), instructorToken, CreateContentRequest{
		Title: "L1", ContentType: "text", Body: &body,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, fmt.Sprintf("/courses/%d/publish", course.ID), instructorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, fmt.Sprintf("/courses/%d/quizzes", course.ID), instructorToken, CreateQuizRequest{
		Title:        "Final exam",
		TotalMarks:   10,
		PassingMarks: 10,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	quiz := decode[struct {
		ID int `json:"id"`
	}](t, resp)

	// Fill-in questions grade against the option text, so the test
	// controls exactly which marks the student earns.
	resp = postJSON(t, fmt.Sprintf("/quizzes/%d/questions", quiz.ID), instructorToken, CreateQuestionRequest{
		Text:         "Which language is this course about?",
		QuestionType: "fill_blank",
		Marks:        9,
		Position:     1,
		Options:      []CreateQuestionOptionRequest{{Text: "go", IsCorrect: true}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, fmt.Sprintf("/quizzes/%d/questions", quiz.ID), instructorToken, CreateQuestionRequest{
		Text:         "What keyword starts a goroutine?",
		QuestionType: "fill_blank",
		Marks:        1,
		Position:     2,
		Options:      []CreateQuestionOptionRequest{{Text: "go", IsCorrect: true}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, "/courses/"+course.Slug+"/enroll", studentToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, fmt.Sprintf("/quizzes/%d/attempts", quiz.ID), studentToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	started := decode[struct {
		Attempt struct {
			ID int `json:"id"`
		} `json:"attempt"`
		Questions []struct {
			ID    int     `json:"id"`
			Marks float64 `json:"marks"`
		} `json:"questions"`
	}](t, resp)
	require.Len(t, started.Questions, 2)

	// Answer the nine-mark question correctly and flub the other one:
	// 9 of 10 marks is 90 percent but short of the passing marks.
	right := "go"
	wrong := "channel"
	answers := make([]SubmitAnswerRequest, 0, 2)
	for _, q := range started.Questions {
		answer := wrong
		if q.Marks == 9 {
			answer = right
		}
		answers = append(answers, SubmitAnswerRequest{QuestionID: q.ID, TextAnswer: &answer})
	}

	resp = postJSON(t, fmt.Sprintf("/attempts/%d/submit", started.Attempt.ID), studentToken, SubmitAttemptRequest{Answers: answers})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	finished := decode[struct {
		Passed     bool    `json:"passed"`
		Percentage float64 `json:"percentage"`
	}](t, resp)
	assert.False(t, finished.Passed)
	assert.InDelta(t, 90, finished.Percentage, 0.01)

	resp = getJSON(t, "/me/achievements", studentToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	earned := decode[[]struct {
		AchievementName string `json:"achievement_name"`
	}](t, resp)
	names := make([]string, 0, len(earned))
	for _, e := range earned {
		names = append(names, e.AchievementName)
	}
	assert.Contains(t, names, "Sharpshooter")
}
