package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/newrelic/go-agent/v3/integrations/nrgorilla"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"skillforge/internal/database"
	"skillforge/internal/leaderboard"
	"skillforge/internal/notifications"
	"skillforge/internal/questiongen"
)

type Server struct {
	port       int
	db         database.Client
	jwtKey     string
	sender     *notifications.Sender
	board      *leaderboard.Board
	generator  *questiongen.Generator
	nrApp      *newrelic.Application
	httpServer *http.Server
}

func NewServer(port int, db database.Client, jwtKey string, sender *notifications.Sender,
	board *leaderboard.Board, generator *questiongen.Generator, nrApp *newrelic.Application) *Server {
	return &Server{
		port:      port,
		db:        db,
		jwtKey:    jwtKey,
		sender:    sender,
		board:     board,
		generator: generator,
		nrApp:     nrApp,
	}
}

func (s *Server) Run() error {
	router := mux.NewRouter()

	if s.nrApp != nil {
		router.Use(nrgorilla.Middleware(s.nrApp))
	}
	router.Use(instrument)

	router.HandleFunc("/healthz", s.healthz).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// accounts
	router.HandleFunc("/users", s.register).Methods("POST")
	router.HandleFunc("/signin", s.signin).Methods("POST")
	router.HandleFunc("/users", s.authenticate(s.listUsers)).Methods("GET")
	router.HandleFunc("/users/{id}", s.authenticate(s.getUser)).Methods("GET")
	router.HandleFunc("/users/{id}/deactivate", s.requireRole("admin", s.deactivateUser)).Methods("POST")
	router.HandleFunc("/me", s.authenticate(s.me)).Methods("GET")
	router.HandleFunc("/me", s.authenticate(s.updateProfile)).Methods("PUT")
	router.HandleFunc("/me/preferences", s.authenticate(s.updatePreferences)).Methods("PUT")

	// catalog
	router.HandleFunc("/categories", s.listCategories).Methods("GET")
	router.HandleFunc("/categories", s.requireRole("admin", s.createCategory)).Methods("POST")
	router.HandleFunc("/courses", s.listCourses).Methods("GET")
	router.HandleFunc("/courses", s.requireRole("instructor", s.createCourse)).Methods("POST")
	router.HandleFunc("/courses/{slug}", s.courseDetail).Methods("GET")
	router.HandleFunc("/courses/{id:[0-9]+}", s.requireRole("instructor", s.updateCourse)).Methods("PUT")
	router.HandleFunc("/courses/{id:[0-9]+}/publish", s.requireRole("instructor", s.publishCourse)).Methods("POST")
	router.HandleFunc("/courses/{id:[0-9]+}/archive", s.requireRole("instructor", s.archiveCourse)).Methods("POST")
	router.HandleFunc("/courses/{id:[0-9]+}/modules", s.requireRole("instructor", s.createModule)).Methods("POST")
	router.HandleFunc("/modules/{id}/contents", s.requireRole("instructor", s.createContent)).Methods("POST")
	router.HandleFunc("/instructor/dashboard", s.requireRole("instructor", s.instructorDashboard)).Methods("GET")

	// learning
	router.HandleFunc("/courses/{slug}/enroll", s.authenticate(s.enroll)).Methods("POST")
	router.HandleFunc("/me/courses", s.authenticate(s.myCourses)).Methods("GET")
	router.HandleFunc("/modules/{id}", s.authenticate(s.moduleDetail)).Methods("GET")
	router.HandleFunc("/contents/{id}/complete", s.authenticate(s.completeContent)).Methods("POST")
	router.HandleFunc("/courses/{slug}/reviews", s.listReviews).Methods("GET")
	router.HandleFunc("/courses/{slug}/reviews", s.authenticate(s.createReview)).Methods("POST")

	// quizzes
	router.HandleFunc("/courses/{slug}/quizzes", s.authenticate(s.listQuizzes)).Methods("GET")
	router.HandleFunc("/courses/{id:[0-9]+}/quizzes", s.requireRole("instructor", s.createQuiz)).Methods("POST")
	router.HandleFunc("/quizzes/{id}/questions", s.requireRole("instructor", s.createQuestion)).Methods("POST")
	router.HandleFunc("/quizzes/{id}/attempts", s.authenticate(s.startAttempt)).Methods("POST")
	router.HandleFunc("/quizzes/{id}/attempts", s.authenticate(s.listAttempts)).Methods("GET")
	router.HandleFunc("/attempts/{id}", s.authenticate(s.attemptDetail)).Methods("GET")
	router.HandleFunc("/attempts/{id}/submit", s.authenticate(s.submitAttempt)).Methods("POST")

	// ai question drafts
	router.HandleFunc("/courses/{id:[0-9]+}/ai-questions", s.requireRole("instructor", s.draftAIQuestions)).Methods("POST")
	router.HandleFunc("/courses/{id:[0-9]+}/ai-questions", s.requireRole("instructor", s.listAIQuestions)).Methods("GET")
	router.HandleFunc("/ai-questions/{id}/approve", s.requireRole("instructor", s.approveAIQuestion)).Methods("POST")
	router.HandleFunc("/ai-questions/{id}", s.requireRole("instructor", s.rejectAIQuestion)).Methods("DELETE")

	// gamification
	router.HandleFunc("/gamification/levels", s.listLevels).Methods("GET")
	router.HandleFunc("/gamification/badges", s.listBadges).Methods("GET")
	router.HandleFunc("/gamification/achievements", s.listAchievements).Methods("GET")
	router.HandleFunc("/me/achievements", s.authenticate(s.myAchievements)).Methods("GET")
	router.HandleFunc("/me/points", s.authenticate(s.myPoints)).Methods("GET")
	router.HandleFunc("/me/streak", s.authenticate(s.myStreak)).Methods("GET")
	router.HandleFunc("/leaderboard", s.globalLeaderboard).Methods("GET")
	router.HandleFunc("/courses/{slug}/leaderboard", s.courseLeaderboard).Methods("GET")
	router.HandleFunc("/challenges", s.listChallenges).Methods("GET")
	router.HandleFunc("/challenges/{id}/join", s.authenticate(s.joinChallenge)).Methods("POST")
	router.HandleFunc("/me/challenges", s.authenticate(s.myChallenges)).Methods("GET")
	router.HandleFunc("/me/challenges/{id}/claim", s.authenticate(s.claimChallengeReward)).Methods("POST")

	// certificates
	router.HandleFunc("/me/certificates", s.authenticate(s.myCertificates)).Methods("GET")
	router.HandleFunc("/certificates/verify/{code}", s.verifyCertificate).Methods("GET")
	router.HandleFunc("/certificates/{certificateID}", s.authenticate(s.certificateDetail)).Methods("GET")
	router.HandleFunc("/certificates/{certificateID}/revoke", s.authenticate(s.revokeCertificate)).Methods("POST")
	router.HandleFunc("/courses/{id:[0-9]+}/certificates", s.requireRole("instructor", s.issueCertificateManually)).Methods("POST")

	// dashboard
	router.HandleFunc("/dashboard", s.authenticate(s.dashboard)).Methods("GET")
	router.HandleFunc("/me/goals", s.authenticate(s.listGoals)).Methods("GET")
	router.HandleFunc("/me/goals", s.authenticate(s.createGoal)).Methods("POST")
	router.HandleFunc("/me/goals/{id}/progress", s.authenticate(s.advanceGoal)).Methods("POST")
	router.HandleFunc("/me/goals/{id}", s.authenticate(s.abandonGoal)).Methods("DELETE")
	router.HandleFunc("/me/sessions", s.authenticate(s.listSessions)).Methods("GET")
	router.HandleFunc("/me/sessions", s.authenticate(s.startSession)).Methods("POST")
	router.HandleFunc("/me/sessions/{id}/complete", s.authenticate(s.completeSession)).Methods("POST")
	router.HandleFunc("/announcements", s.authenticate(s.listAnnouncements)).Methods("GET")
	router.HandleFunc("/announcements", s.requireRole("instructor", s.createAnnouncement)).Methods("POST")
	router.HandleFunc("/announcements/{id}/read", s.authenticate(s.readAnnouncement)).Methods("POST")
	router.HandleFunc("/announcements/{id}/acknowledge", s.authenticate(s.acknowledgeAnnouncement)).Methods("POST")

	// payments
	router.HandleFunc("/me/payments", s.authenticate(s.myPayments)).Methods("GET")
	router.HandleFunc("/payments/{paymentIntentID}/confirm", s.authenticate(s.confirmPayment)).Methods("POST")

	// admin
	router.HandleFunc("/admin/stats", s.requireRole("admin", s.adminStats)).Methods("GET")
	router.HandleFunc("/admin/points", s.requireRole("admin", s.adjustPoints)).Methods("POST")

	address := "0.0.0.0"

	log.Printf("listening requests at %v:%v", address, s.port)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%v:%v", address, s.port),
		Handler: router,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		http.Error(w, "database unreachable", http.StatusServiceUnavailable)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
