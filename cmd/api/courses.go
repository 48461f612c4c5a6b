package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"skillforge/internal/database"
	"skillforge/internal/metrics"
	"skillforge/internal/model"
)

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.db.GetCategories()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, categories)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var request CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if request.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	category, err := s.db.CreateCategory(request.Name, request.Description, request.ParentID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, category)
}

func (s *Server) listCourses(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := database.CourseFilter{
		CategorySlug: query.Get("category"),
		Query:        query.Get("q"),
		Level:        query.Get("level"),
		Status:       model.CoursePublished,
		Sort:         query.Get("sort"),
		Page:         queryInt(r, "page", "1"),
	}

	courses, total, err := s.db.ListCourses(filter)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"courses": courses,
		"total":   total,
		"page":    filter.Page,
	})
}

func (s *Server) createCourse(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var request CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if request.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}
	level := request.Level
	if level == "" {
		level = model.LevelBeginner
	}
	if !model.ValidCourseLevel(level) {
		http.Error(w, "unknown level", http.StatusBadRequest)
		return
	}
	if request.Price < 0 {
		http.Error(w, "price cannot be negative", http.StatusBadRequest)
		return
	}

	course := model.Course{
		Title:                request.Title,
		InstructorID:         claims.UserID,
		Overview:             request.Overview,
		Description:          request.Description,
		LearningObjectives:   request.LearningObjectives,
		CategoryID:           request.CategoryID,
		Level:                level,
		Price:                request.Price,
		DiscountPrice:        request.DiscountPrice,
		Status:               model.CourseDraft,
		DurationHours:        request.DurationHours,
		Languages:            request.Languages,
		CertificateAvailable: true,
		AllowReviews:         true,
		Tags:                 request.Tags,
	}
	if request.CertificateAvailable != nil {
		course.CertificateAvailable = *request.CertificateAvailable
	}
	if request.AllowReviews != nil {
		course.AllowReviews = *request.AllowReviews
	}

	created, err := s.db.CreateCourse(course)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) courseDetail(w http.ResponseWriter, r *http.Request) {
	course, err := s.db.GetCourseBySlug(muxVar(r, "slug"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	claims := s.optionalClaims(r)

	// Unpublished courses stay invisible to everyone but their
	// instructor and admins.
	if course.Status != model.CoursePublished {
		if claims == nil || (claims.UserID != course.InstructorID && !claims.IsAdmin()) {
			http.Error(w, "course not found", http.StatusNotFound)
			return
		}
	}

	modules, err := s.db.GetModulesByCourse(course.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	response := map[string]any{
		"course":  course,
		"modules": modules,
	}
	if claims != nil {
		if enrollment, err := s.db.GetEnrollment(claims.UserID, course.ID); err == nil {
			response["enrollment"] = enrollment
		}
	}

	s.respondJSON(w, http.StatusOK, response)
}

// ownedCourse loads a course and enforces that the caller is its
// instructor or an admin.
func (s *Server) ownedCourse(r *http.Request, courseID int) (model.Course, error) {
	claims := claimsFrom(r)

	course, err := s.db.GetCourseByID(courseID)
	if err != nil {
		return model.Course{}, err
	}
	if course.InstructorID != claims.UserID && !claims.IsAdmin() {
		return model.Course{}, errForbidden
	}

	return course, nil
}

func (s *Server) updateCourse(w http.ResponseWriter, r *http.Request) {
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

	var request CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if request.Title != "" {
		course.Title = request.Title
	}
	if request.Level != "" {
		if !model.ValidCourseLevel(request.Level) {
			http.Error(w, "unknown level", http.StatusBadRequest)
			return
		}
		course.Level = request.Level
	}
	if request.Price < 0 {
		http.Error(w, "price cannot be negative", http.StatusBadRequest)
		return
	}
	course.Overview = request.Overview
	course.Description = request.Description
	course.LearningObjectives = request.LearningObjectives
	course.CategoryID = request.CategoryID
	course.Price = request.Price
	course.DiscountPrice = request.DiscountPrice
	course.DurationHours = request.DurationHours
	course.Languages = request.Languages
	course.Tags = request.Tags
	if request.CertificateAvailable != nil {
		course.CertificateAvailable = *request.CertificateAvailable
	}
	if request.AllowReviews != nil {
		course.AllowReviews = *request.AllowReviews
	}

	updated, err := s.db.UpdateCourse(course)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) publishCourse(w http.ResponseWriter, r *http.Request) {
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

	contents, err := s.db.CountCourseContents(course.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if contents == 0 {
		http.Error(w, "a course needs at least one content item before publishing", http.StatusBadRequest)
		return
	}

	if err := s.db.UpdateCourseStatus(course.ID, model.CoursePublished); err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": model.CoursePublished})
}

func (s *Server) archiveCourse(w http.ResponseWriter, r *http.Request) {
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

	if err := s.db.UpdateCourseStatus(course.ID, model.CourseArchived); err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": model.CourseArchived})
}

func (s *Server) createModule(w http.ResponseWriter, r *http.Request) {
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

	var request CreateModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if request.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	module, err := s.db.CreateModule(model.Module{
		CourseID:      course.ID,
		Title:         request.Title,
		Description:   request.Description,
		Position:      request.Position,
		IsFreePreview: request.IsFreePreview,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, module)
}

func (s *Server) createContent(w http.ResponseWriter, r *http.Request) {
	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	module, err := s.db.GetModuleByID(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.ownedCourse(r, module.CourseID); err != nil {
		s.writeError(w, err)
		return
	}

	var request CreateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if request.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	content := model.Content{
		ModuleID:           module.ID,
		Title:              request.Title,
		Description:        request.Description,
		Position:           request.Position,
		ContentType:        request.ContentType,
		Body:               request.Body,
		ReadingTimeMinutes: request.ReadingTimeMinutes,
		VideoURL:           request.VideoURL,
		DurationSeconds:    request.DurationSeconds,
		Transcript:         request.Transcript,
		FileURL:            request.FileURL,
		FileType:           request.FileType,
		FileSizeKB:         request.FileSizeKB,
		Instructions:       request.Instructions,
		DueDate:            request.DueDate,
		TotalPoints:        request.TotalPoints,
	}
	if err := content.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	created, err := s.db.CreateContent(content)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) instructorDashboard(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	courses, err := s.db.GetCoursesByInstructor(claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	totalStudents := 0
	var ratingSum float64
	rated := 0
	for _, course := range courses {
		totalStudents += course.TotalEnrolled
		if course.Rating > 0 {
			ratingSum += course.Rating
			rated++
		}
	}
	averageRating := 0.0
	if rated > 0 {
		averageRating = ratingSum / float64(rated)
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"courses":        courses,
		"total_students": totalStudents,
		"average_rating": averageRating,
	})
}

func (s *Server) enroll(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	course, err := s.db.GetCourseBySlug(muxVar(r, "slug"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if course.Status != model.CoursePublished {
		http.Error(w, "course is not open for enrollment", http.StatusBadRequest)
		return
	}
	if course.InstructorID == claims.UserID {
		http.Error(w, "instructors cannot enroll in their own course", http.StatusBadRequest)
		return
	}

	if existing, err := s.db.GetEnrollment(claims.UserID, course.ID); err == nil {
		if existing.Status == model.EnrollmentDropped || existing.Status == model.EnrollmentRefunded {
			if err := s.db.UpdateEnrollmentStatus(existing.ID, model.EnrollmentActive); err != nil {
				s.writeError(w, err)
				return
			}
			existing.Status = model.EnrollmentActive
			s.respondJSON(w, http.StatusOK, map[string]any{"enrollment": existing})
			return
		}
		http.Error(w, "already enrolled", http.StatusConflict)
		return
	}

	if course.IsFree() {
		enrollment, err := s.db.CreateEnrollment(claims.UserID, course.ID, model.EnrollmentActive)
		if err != nil {
			s.writeError(w, err)
			return
		}
		metrics.RecordEnrollment()

		if user, err := s.db.GetUserByID(claims.UserID); err == nil {
			if err := s.sender.SendEnrollmentEmail(user.Email, user.Username, course.Title); err != nil {
				log.Errorf("sending enrollment email: %v", err)
			}
		}

		s.respondJSON(w, http.StatusCreated, map[string]any{"enrollment": enrollment})
		return
	}

	// Paid course: the enrollment stays pending until the payment
	// intent succeeds and the client confirms it.
	user, err := s.db.GetUserByID(claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(course.EffectivePrice()),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if user.StripeID != nil {
		params.Customer = stripe.String(*user.StripeID)
	}
	params.AddMetadata("course_id", fmt.Sprint(course.ID))
	params.AddMetadata("user_id", fmt.Sprint(user.ID))

	pi, err := paymentintent.New(params)
	if err != nil {
		log.Errorf("creating payment intent: %v", err)
		http.Error(w, "payment provider unavailable", http.StatusBadGateway)
		return
	}

	enrollment, err := s.db.CreateEnrollment(claims.UserID, course.ID, model.EnrollmentPending)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if _, err := s.db.AddPayment(pi, user.ID, course.ID); err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, map[string]any{
		"enrollment":    enrollment,
		"client_secret": pi.ClientSecret,
	})
}

func (s *Server) myCourses(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	enrollments, err := s.db.GetEnrollmentsByStudent(claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	status := r.URL.Query().Get("status")
	search := strings.ToLower(r.URL.Query().Get("q"))
	if status != "" || search != "" {
		filtered := make([]model.Enrollment, 0, len(enrollments))
		for _, e := range enrollments {
			if status != "" && e.Status != status {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(e.CourseTitle), search) {
				continue
			}
			filtered = append(filtered, e)
		}
		enrollments = filtered
	}

	s.respondJSON(w, http.StatusOK, enrollments)
}

// courseAccess loads the caller's enrollment for a course. Free preview
// modules, the course instructor and admins bypass the enrollment
// check.
func (s *Server) courseAccess(r *http.Request, course model.Course, freePreview bool) (model.Enrollment, error) {
	claims := claimsFrom(r)

	if claims.UserID == course.InstructorID || claims.IsAdmin() {
		return model.Enrollment{}, nil
	}

	enrollment, err := s.db.GetEnrollment(claims.UserID, course.ID)
	if err != nil {
		if freePreview {
			return model.Enrollment{}, nil
		}
		return model.Enrollment{}, errForbidden
	}
	if !enrollment.GrantsAccess() && !freePreview {
		return model.Enrollment{}, errForbidden
	}

	return enrollment, nil
}

func (s *Server) moduleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	module, err := s.db.GetModuleByID(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	course, err := s.db.GetCourseByID(module.CourseID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	enrollment, err := s.courseAccess(r, course, module.IsFreePreview)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if enrollment.ID != 0 {
		if err := s.db.TouchEnrollment(enrollment.ID); err != nil {
			log.Errorf("touching enrollment %d: %v", enrollment.ID, err)
		}
	}

	contents, err := s.db.GetContentsByModule(module.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"module":   module,
		"contents": contents,
	})
}

func (s *Server) completeContent(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	var request CompleteContentRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	content, err := s.db.GetContentByID(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	module, err := s.db.GetModuleByID(content.ModuleID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	enrollment, err := s.db.GetEnrollment(claims.UserID, module.CourseID)
	if err != nil {
		s.writeError(w, errForbidden)
		return
	}
	if !enrollment.GrantsAccess() {
		s.writeError(w, errForbidden)
		return
	}

	before, err := s.db.CountCompletedContents(enrollment.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	progress, err := s.db.UpsertProgress(enrollment.ID, content.ID, true, request.TimeSpentSeconds)
	if err != nil {
		s.writeError(w, err)
		return
	}

	completed, err := s.db.CountCompletedContents(enrollment.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	total, err := s.db.CountCourseContents(module.CourseID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	firstCompletion := completed > before
	if firstCompletion {
		relatedType := "content"
		relatedID := content.ID
		s.awardPoints(claims.UserID, module.CourseID, model.PointsContentCompletion, model.TxContentCompletion,
			"completed content: "+content.Title, &relatedType, &relatedID)
		s.progressChallenges(claims.UserID, model.TxContentCompletion, 1)
	}
	s.touchStreak(claims.UserID)

	percentage := model.CompletionPercentage(completed, total)
	courseCompleted := percentage == 100 && enrollment.Status != model.EnrollmentCompleted
	var completedAt *time.Time
	if courseCompleted {
		now := time.Now()
		completedAt = &now
	}
	if err := s.db.UpdateEnrollmentProgress(enrollment.ID, percentage, completedAt); err != nil {
		s.writeError(w, err)
		return
	}

	response := map[string]any{
		"progress":              progress,
		"completion_percentage": percentage,
	}

	if courseCompleted {
		relatedType := "course"
		relatedID := module.CourseID
		s.awardPoints(claims.UserID, module.CourseID, model.PointsCourseCompletion, model.TxCourseCompletion,
			"completed the course", &relatedType, &relatedID)
		s.progressChallenges(claims.UserID, model.TxCourseCompletion, 1)

		if finished, err := s.db.CountCompletedCourses(claims.UserID); err == nil {
			s.checkAchievements(claims.UserID, model.AchievementCourseCompletion, finished)
		}

		course, err := s.db.GetCourseByID(module.CourseID)
		if err == nil && course.CertificateAvailable && !enrollment.CertificateIssued {
			if cert, err := s.issueCertificate(claims.UserID, course, enrollment.ID, nil, ""); err != nil {
				log.Errorf("issuing certificate for enrollment %d: %v", enrollment.ID, err)
			} else {
				response["certificate"] = cert
			}
		}
	}

	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	course, err := s.db.GetCourseBySlug(muxVar(r, "slug"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	reviews, err := s.db.GetReviewsByCourse(course.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, reviews)
}

func (s *Server) createReview(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	course, err := s.db.GetCourseBySlug(muxVar(r, "slug"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !course.AllowReviews {
		http.Error(w, "this course does not accept reviews", http.StatusBadRequest)
		return
	}

	enrollment, err := s.db.GetEnrollment(claims.UserID, course.ID)
	if err != nil || !enrollment.GrantsAccess() {
		http.Error(w, "only enrolled students can review a course", http.StatusForbidden)
		return
	}

	var request CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if request.Rating < 1 || request.Rating > 5 {
		http.Error(w, "rating must be between 1 and 5", http.StatusBadRequest)
		return
	}

	review, err := s.db.CreateReview(model.Review{
		CourseID:  course.ID,
		StudentID: claims.UserID,
		Rating:    request.Rating,
		Comment:   request.Comment,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, review)
}
