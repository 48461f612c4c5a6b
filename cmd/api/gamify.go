package main

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"skillforge/internal/metrics"
	"skillforge/internal/model"
)

// awardPoints records a point transaction and mirrors positive awards
// onto the Redis leaderboards. Failures here never fail the request
// that triggered the award.
func (s *Server) awardPoints(userID, courseID, points int, txType, description string, relatedType *string, relatedID *int) {
	if points == 0 {
		return
	}

	if _, err := s.db.AwardPoints(userID, points, txType, description, relatedType, relatedID, nil); err != nil {
		log.Errorf("awarding %d points to user %d: %v", points, userID, err)
		return
	}
	metrics.RecordPointsAwarded(points)

	if s.board != nil && points > 0 {
		if err := s.board.Award(context.Background(), userID, courseID, points); err != nil {
			log.Errorf("updating leaderboard for user %d: %v", userID, err)
		}
	}
}

// touchStreak registers activity for today. The first activity of the
// day always persists the streak; the daily bonus and the streak
// achievement check only fire when the streak carried forward, so a
// restart after a broken streak earns nothing.
func (s *Server) touchStreak(userID int) {
	streak, err := s.db.GetStreak(userID)
	if err != nil {
		log.Errorf("loading streak for user %d: %v", userID, err)
		return
	}

	counted, continued := streak.Touch(time.Now())
	if !counted {
		return
	}

	if _, err := s.db.SaveStreak(streak); err != nil {
		log.Errorf("saving streak for user %d: %v", userID, err)
		return
	}
	if !continued {
		return
	}

	s.awardPoints(userID, 0, model.PointsStreakBonus, model.TxStreakBonus,
		fmt.Sprintf("daily streak, day %d", streak.CurrentStreak), nil, nil)
	s.checkAchievements(userID, model.AchievementStreak, streak.CurrentStreak)
}

// checkAchievements grants every achievement of the given criteria type
// whose threshold the observed value now meets, paying each one's point
// reward exactly once.
func (s *Server) checkAchievements(userID int, criteriaType string, value int) {
	achievements, err := s.db.GetAchievements()
	if err != nil {
		log.Errorf("loading achievements: %v", err)
		return
	}

	for _, a := range achievements {
		if a.CriteriaType != criteriaType || !a.Met(value) {
			continue
		}
		granted, err := s.db.GrantAchievement(userID, a.ID)
		if err != nil {
			log.Errorf("granting achievement %q to user %d: %v", a.Name, userID, err)
			continue
		}
		if !granted {
			continue
		}
		relatedType := "achievement"
		relatedID := a.ID
		s.awardPoints(userID, 0, a.PointsReward, model.TxAchievement,
			"achievement unlocked: "+a.Name, &relatedType, &relatedID)
	}
}

// progressChallenges advances the user's open challenges of the given
// criteria type. Rewards stay unclaimed until the user collects them.
func (s *Server) progressChallenges(userID int, criteriaType string, delta int) {
	completed, err := s.db.ProgressChallenges(userID, criteriaType, delta, time.Now())
	if err != nil {
		log.Errorf("progressing challenges for user %d: %v", userID, err)
		return
	}
	for _, uc := range completed {
		log.Printf("user %d completed challenge %d", userID, uc.ChallengeID)
	}
}
