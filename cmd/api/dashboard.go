package main

import (
	"encoding/json"
	"net/http"
	"time"

	"skillforge/internal/model"
)

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	// Opening the dashboard counts as activity for the day.
	s.touchStreak(claims.UserID)

	summary, err := s.db.GetDashboardSummary(claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	recent, err := s.db.RecentCourses(claims.UserID, 3)
	if err != nil {
		s.writeError(w, err)
		return
	}

	recommended, err := s.db.RecommendedCourses(claims.UserID, 3)
	if err != nil {
		s.writeError(w, err)
		return
	}

	goals, err := s.db.GetStudyGoals(claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	active := make([]model.StudyGoal, 0, len(goals))
	for _, g := range goals {
		if g.Status == model.GoalActive {
			active = append(active, g)
		}
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"summary":             summary,
		"recent_courses":      recent,
		"recommended_courses": recommended,
		"active_goals":        active,
	})
}

func validGoalPeriod(period string) bool {
	switch period {
	case model.GoalDaily, model.GoalWeekly, model.GoalMonthly:
		return true
	}
	return false
}

func (s *Server) listGoals(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	goals, err := s.db.GetStudyGoals(claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, goals)
}

func (s *Server) createGoal(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var request CreateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if request.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}
	if request.TargetValue <= 0 {
		http.Error(w, "target_value must be positive", http.StatusBadRequest)
		return
	}
	period := request.Period
	if period == "" {
		period = model.GoalWeekly
	}
	if !validGoalPeriod(period) {
		http.Error(w, "unknown period", http.StatusBadRequest)
		return
	}
	if request.CourseID != nil {
		if _, err := s.db.GetCourseByID(*request.CourseID); err != nil {
			s.writeError(w, err)
			return
		}
	}
	unit := request.Unit
	if unit == "" {
		unit = "minutes"
	}

	goal, err := s.db.CreateStudyGoal(model.StudyGoal{
		UserID:      claims.UserID,
		Title:       request.Title,
		Description: request.Description,
		CourseID:    request.CourseID,
		TargetValue: request.TargetValue,
		Unit:        unit,
		Period:      period,
		Status:      model.GoalActive,
		StartsAt:    time.Now(),
		EndsAt:      request.EndsAt,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, goal)
}

func (s *Server) advanceGoal(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	var request AdvanceGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if request.Delta <= 0 {
		http.Error(w, "delta must be positive", http.StatusBadRequest)
		return
	}

	goal, err := s.db.AdvanceStudyGoal(id, claims.UserID, request.Delta)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, goal)
}

func (s *Server) abandonGoal(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.db.AbandonStudyGoal(id, claims.UserID); err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": model.GoalAbandoned})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	sessions, err := s.db.GetStudySessions(claims.UserID, queryInt(r, "limit", "20"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, sessions)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var request StartSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	// One open session per user; starting again returns the open one.
	if open, err := s.db.GetOpenStudySession(claims.UserID); err == nil {
		s.respondJSON(w, http.StatusOK, open)
		return
	}

	if request.CourseID != nil {
		if _, err := s.db.GetCourseByID(*request.CourseID); err != nil {
			s.writeError(w, err)
			return
		}
	}

	session, err := s.db.StartStudySession(model.StudySession{
		UserID:    claims.UserID,
		CourseID:  request.CourseID,
		StartedAt: time.Now(),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, session)
}

func (s *Server) completeSession(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	var request CompleteSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	session, err := s.db.CompleteStudySession(id, claims.UserID, time.Now(), request.TopicsCovered, request.Notes)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.touchStreak(claims.UserID)

	s.respondJSON(w, http.StatusOK, session)
}

func validAnnouncementType(t string) bool {
	switch t {
	case model.AnnouncementPlatform, model.AnnouncementCourse, model.AnnouncementSystem:
		return true
	}
	return false
}

func validPriority(p string) bool {
	switch p {
	case model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityUrgent:
		return true
	}
	return false
}

func (s *Server) listAnnouncements(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	announcements, err := s.db.GetAnnouncementsForUser(claims.UserID, time.Now())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, announcements)
}

func (s *Server) createAnnouncement(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var request CreateAnnouncementRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if request.Title == "" || request.Body == "" {
		http.Error(w, "title and body are required", http.StatusBadRequest)
		return
	}
	annType := request.AnnouncementType
	if annType == "" {
		annType = model.AnnouncementCourse
	}
	if !validAnnouncementType(annType) {
		http.Error(w, "unknown announcement_type", http.StatusBadRequest)
		return
	}
	priority := request.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !validPriority(priority) {
		http.Error(w, "unknown priority", http.StatusBadRequest)
		return
	}

	// Platform and system wide announcements are admin territory;
	// instructors announce to their own courses.
	if annType == model.AnnouncementCourse {
		if request.CourseID == nil {
			http.Error(w, "course announcements need a course_id", http.StatusBadRequest)
			return
		}
		if _, err := s.ownedCourse(r, *request.CourseID); err != nil {
			s.writeError(w, err)
			return
		}
	} else if !claims.IsAdmin() {
		s.writeError(w, errForbidden)
		return
	}

	announcement := model.Announcement{
		Title:                  request.Title,
		Body:                   request.Body,
		AnnouncementType:       annType,
		Priority:               priority,
		CreatedBy:              claims.UserID,
		CourseID:               request.CourseID,
		EndsAt:                 request.EndsAt,
		IsActive:               true,
		RequiresAcknowledgment: request.RequiresAcknowledgment,
	}
	if request.StartsAt != nil {
		announcement.StartsAt = *request.StartsAt
	}

	created, err := s.db.CreateAnnouncement(announcement)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) readAnnouncement(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.db.MarkAnnouncementRead(claims.UserID, id); err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

func (s *Server) acknowledgeAnnouncement(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.db.AcknowledgeAnnouncement(claims.UserID, id); err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}
