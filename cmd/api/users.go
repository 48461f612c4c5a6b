package main

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/customer"
	"golang.org/x/crypto/bcrypt"

	"skillforge/internal/metrics"
	"skillforge/internal/model"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var request RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if request.Username == "" || request.Email == "" || len(request.Password) < 8 {
		http.Error(w, "username, email and a password of at least 8 characters are required", http.StatusBadRequest)
		return
	}

	// The admin role is never claimable through the public endpoint.
	userType := request.UserType
	if userType != model.RoleInstructor {
		userType = model.RoleStudent
	}

	var stripeID string
	if stripe.Key != "" {
		c, err := customer.New(&stripe.CustomerParams{Email: stripe.String(request.Email)})
		if err != nil {
			log.Errorf("creating stripe customer: %v", err)
		} else {
			stripeID = c.ID
		}
	}

	user, err := s.db.CreateUser(request.Username, request.Email, request.Password, userType, stripeID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.sender.SendWelcomeEmail(user.Email, user.Username); err != nil {
		log.Errorf("sending welcome email: %v", err)
	}

	metrics.RecordRegistration()

	s.respondJSON(w, http.StatusCreated, RegisterResponse{ID: user.ID})
}

func (s *Server) signin(w http.ResponseWriter, r *http.Request) {
	var request SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := s.db.GetUserByEmail(request.Email)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	if !user.IsActive {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(request.Password)); err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, SignInResponse{Token: token})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	user, err := s.db.GetUserByID(claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	prefs, err := s.db.GetUserPreferences(claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	streak, err := s.db.GetStreak(claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"user":        user,
		"preferences": prefs,
		"streak":      streak,
	})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var request UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	language := request.PreferredLanguage
	if language == "" {
		language = "en"
	}

	user, err := s.db.UpdateUser(model.User{
		ID:                claims.UserID,
		Bio:               request.Bio,
		DateOfBirth:       request.DateOfBirth,
		PhoneNumber:       request.PhoneNumber,
		PreferredLanguage: language,
		LinkedinProfile:   request.LinkedinProfile,
		GithubProfile:     request.GithubProfile,
		Website:           request.Website,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, user)
}

func (s *Server) updatePreferences(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var request UpdatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	prefs := model.UserPreference{
		UserID:                claims.UserID,
		LearningPace:          request.LearningPace,
		PreferredContentType:  request.PreferredContentType,
		StudyReminderTime:     request.StudyReminderTime,
		VisualPreference:      request.VisualPreference,
		AuditoryPreference:    request.AuditoryPreference,
		ReadingPreference:     request.ReadingPreference,
		KinestheticPreference: request.KinestheticPreference,
	}
	if err := prefs.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	saved, err := s.db.SaveUserPreferences(prefs)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, saved)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	if !claims.IsAdmin() {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	users, err := s.db.GetUsers()
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, users)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	if id != claims.UserID && !claims.IsAdmin() {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	user, err := s.db.GetUserByID(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, user)
}

func (s *Server) deactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.db.DeactivateUser(id); err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
