package main

import (
	"context"
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"skillforge/internal/metrics"
	"skillforge/internal/model"
)

func (s *Server) adminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.AdminStats()
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, stats)
}

// adjustPoints lets an admin grant or deduct experience points, with
// the admin recorded on the transaction.
func (s *Server) adjustPoints(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var request AdjustPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if request.Points == 0 {
		http.Error(w, "points cannot be zero", http.StatusBadRequest)
		return
	}
	description := request.Description
	if description == "" {
		http.Error(w, "a description is required", http.StatusBadRequest)
		return
	}

	if _, err := s.db.GetUserByID(request.UserID); err != nil {
		s.writeError(w, err)
		return
	}

	tx, err := s.db.AwardPoints(request.UserID, request.Points, model.TxAdminAdjustment, description,
		nil, nil, &claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	metrics.RecordPointsAwarded(request.Points)

	if s.board != nil && request.Points > 0 {
		if err := s.board.Award(context.Background(), request.UserID, 0, request.Points); err != nil {
			log.Errorf("updating leaderboard for user %d: %v", request.UserID, err)
		}
	}

	s.respondJSON(w, http.StatusCreated, tx)
}
