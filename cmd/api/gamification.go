package main

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"skillforge/internal/leaderboard"
	"skillforge/internal/model"
)

func (s *Server) listLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := s.db.GetLevels()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, levels)
}

func (s *Server) listBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := s.db.GetBadges()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, badges)
}

func (s *Server) listAchievements(w http.ResponseWriter, r *http.Request) {
	achievements, err := s.db.GetAchievements()
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Hidden achievements stay a surprise until earned.
	visible := make([]model.Achievement, 0, len(achievements))
	for _, a := range achievements {
		if !a.IsHidden {
			visible = append(visible, a)
		}
	}

	s.respondJSON(w, http.StatusOK, visible)
}

func (s *Server) myAchievements(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	earned, err := s.db.GetUserAchievements(claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, earned)
}

func (s *Server) myPoints(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	user, err := s.db.GetUserByID(claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	transactions, err := s.db.GetPointTransactions(claims.UserID, queryInt(r, "limit", "50"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	rank := 0
	if s.board != nil {
		if boardRank, err := s.board.Rank(r.Context(), claims.UserID); err == nil {
			rank = boardRank
		}
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"experience_points": user.ExperiencePoints,
		"level":             user.Level,
		"rank":              rank,
		"transactions":      transactions,
	})
}

func (s *Server) myStreak(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	streak, err := s.db.GetStreak(claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, streak)
}

// hydrateEntries turns raw Redis board entries into rows with usernames
// and levels.
func (s *Server) hydrateEntries(entries []leaderboard.Entry) ([]model.LeaderboardEntry, error) {
	ids := make([]int, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}

	users, err := s.db.GetUsersByIDs(ids)
	if err != nil {
		return nil, err
	}

	rows := make([]model.LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		row := model.LeaderboardEntry{
			Rank:   e.Rank,
			UserID: e.UserID,
			Points: e.Points,
		}
		if user, ok := users[e.UserID]; ok {
			row.Username = user.Username
			row.Level = user.Level
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func (s *Server) globalLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", "10")

	// Without Redis the ranking comes straight from the users table.
	if s.board == nil {
		entries, err := s.db.TopUsersByPoints(limit)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, entries)
		return
	}

	entries, err := s.board.Top(r.Context(), limit)
	if err != nil {
		log.Errorf("reading redis leaderboard: %v", err)
		fallback, err := s.db.TopUsersByPoints(limit)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, fallback)
		return
	}

	rows, err := s.hydrateEntries(entries)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, rows)
}

func (s *Server) courseLeaderboard(w http.ResponseWriter, r *http.Request) {
	course, err := s.db.GetCourseBySlug(muxVar(r, "slug"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	if s.board == nil {
		s.respondJSON(w, http.StatusOK, []model.LeaderboardEntry{})
		return
	}

	entries, err := s.board.TopForCourse(r.Context(), course.ID, queryInt(r, "limit", "10"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	rows, err := s.hydrateEntries(entries)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, rows)
}

func (s *Server) listChallenges(w http.ResponseWriter, r *http.Request) {
	challenges, err := s.db.ListOpenChallenges(time.Now())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, challenges)
}

func (s *Server) joinChallenge(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	challenge, err := s.db.GetChallengeByID(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !challenge.Open(time.Now()) {
		http.Error(w, "challenge is not open", http.StatusBadRequest)
		return
	}

	joined, err := s.db.JoinChallenge(claims.UserID, challenge.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, joined)
}

func (s *Server) myChallenges(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	challenges, err := s.db.GetUserChallenges(claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, challenges)
}

func (s *Server) claimChallengeReward(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	claimed, err := s.db.ClaimChallengeReward(claims.UserID, id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	challenge, err := s.db.GetChallengeByID(claimed.ChallengeID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	relatedType := "challenge"
	relatedID := challenge.ID
	s.awardPoints(claims.UserID, 0, challenge.PointsReward, model.TxAchievement,
		"challenge reward: "+challenge.Name, &relatedType, &relatedID)

	s.respondJSON(w, http.StatusOK, claimed)
}
