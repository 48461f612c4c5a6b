package model

import "time"

// Point awards for platform activity.
const (
	PointsContentCompletion = 10
	PointsQuizPass          = 25
	PointsCourseCompletion  = 100
	PointsStreakBonus       = 5
)

const (
	TxContentCompletion = "content_completion"
	TxQuizPass          = "quiz_pass"
	TxCourseCompletion  = "course_completion"
	TxStreakBonus       = "streak_bonus"
	TxAchievement       = "achievement"
	TxAdminAdjustment   = "admin_adjustment"
)

const (
	BadgeBronze   = "bronze"
	BadgeSilver   = "silver"
	BadgeGold     = "gold"
	BadgePlatinum = "platinum"
)

type Badge struct {
	ID                     int    `json:"id"`
	Name                   string `json:"name"`
	Description            string `json:"description"`
	Level                  string `json:"level"`
	PointsAwarded          int    `json:"points_awarded"`
	RequirementDescription string `json:"requirement_description"`
	IsActive               bool   `json:"is_active"`
}

const (
	AchievementCourseCompletion = "course_completion"
	AchievementQuizScore        = "quiz_score"
	AchievementStreak           = "streak"
	AchievementPoints           = "points"
)

type Achievement struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	CriteriaType  string `json:"criteria_type"`
	RequiredValue int    `json:"required_value"`
	PointsReward  int    `json:"points_reward"`
	BadgeID       *int   `json:"badge_id,omitempty"`
	IsHidden      bool   `json:"is_hidden"`
	IsActive      bool   `json:"is_active"`
}

// Met reports whether an observed value satisfies the criteria.
func (a Achievement) Met(value int) bool {
	return a.IsActive && value >= a.RequiredValue
}

type UserAchievement struct {
	ID            int       `json:"id"`
	UserID        int       `json:"user_id"`
	AchievementID int       `json:"achievement_id"`
	ValueAchieved int       `json:"value_achieved"`
	EarnedAt      time.Time `json:"earned_at"`

	AchievementName string `json:"achievement_name,omitempty"`
}

type Level struct {
	ID          int    `json:"id"`
	LevelNumber int    `json:"level_number"`
	Name        string `json:"name"`
	MinPoints   int    `json:"min_points"`
	MaxPoints   int    `json:"max_points"`
}

// LevelForPoints finds the level whose point band contains points.
// Levels must be ordered by level_number ascending; a points total past
// the last band stays at the last level.
func LevelForPoints(levels []Level, points int) Level {
	if len(levels) == 0 {
		return Level{LevelNumber: 1}
	}
	for _, l := range levels {
		if points >= l.MinPoints && points <= l.MaxPoints {
			return l
		}
	}
	return levels[len(levels)-1]
}

type PointTransaction struct {
	ID                int       `json:"id"`
	UserID            int       `json:"user_id"`
	Points            int       `json:"points"`
	TransactionType   string    `json:"transaction_type"`
	Description       string    `json:"description"`
	RelatedObjectType *string   `json:"related_object_type,omitempty"`
	RelatedObjectID   *int      `json:"related_object_id,omitempty"`
	AwardedBy         *int      `json:"awarded_by,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

type Streak struct {
	ID                int        `json:"id"`
	UserID            int        `json:"user_id"`
	CurrentStreak     int        `json:"current_streak"`
	LongestStreak     int        `json:"longest_streak"`
	LastActivityDate  *time.Time `json:"last_activity_date,omitempty"`
	StreakFreezeCount int        `json:"streak_freeze_count"`
	TotalActivityDays int        `json:"total_activity_days"`
}

// Touch registers activity on the given day. counted reports whether
// the day was a new activity day; a second touch on the same day is a
// noop. continued reports whether the streak carried forward, which is
// what earns the daily bonus. Activity on the day after the last one
// extends the streak. A single missed day is absorbed by a streak
// freeze when one is banked; the frozen day keeps the streak alive but
// does not count toward it. After any longer gap, or with no freeze
// left, the streak restarts at 1 without continuing.
func (s *Streak) Touch(day time.Time) (counted, continued bool) {
	day = truncateToDay(day)
	if s.LastActivityDate != nil {
		last := truncateToDay(*s.LastActivityDate)
		gap := int(day.Sub(last) / (24 * time.Hour))
		switch {
		case gap <= 0:
			return false, false
		case gap == 1:
			s.CurrentStreak++
			continued = true
		case gap == 2 && s.StreakFreezeCount > 0:
			s.StreakFreezeCount--
			continued = true
		default:
			s.CurrentStreak = 1
		}
	} else {
		s.CurrentStreak = 1
	}
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.LastActivityDate = &day
	s.TotalActivityDays++
	return true, continued
}

// truncateToDay normalizes a moment to the UTC calendar date it falls
// on. Activity dates load from the database as UTC midnights, so gaps
// only come out in whole days when the incoming moment is put on the
// same calendar.
func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const (
	ChallengeDaily   = "daily"
	ChallengeWeekly  = "weekly"
	ChallengeMonthly = "monthly"
	ChallengeSpecial = "special"
)

type Challenge struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	ChallengeType string    `json:"challenge_type"`
	CriteriaType  string    `json:"criteria_type"`
	TargetValue   int       `json:"target_value"`
	PointsReward  int       `json:"points_reward"`
	BadgeRewardID *int      `json:"badge_reward_id,omitempty"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	IsActive      bool      `json:"is_active"`
}

// Open reports whether the challenge window contains now.
func (c Challenge) Open(now time.Time) bool {
	return c.IsActive && !now.Before(c.StartsAt) && now.Before(c.EndsAt)
}

const (
	ChallengeInProgress = "in_progress"
	ChallengeCompleted  = "completed"
	ChallengeFailed     = "failed"
)

type UserChallenge struct {
	ID            int        `json:"id"`
	UserID        int        `json:"user_id"`
	ChallengeID   int        `json:"challenge_id"`
	CurrentValue  int        `json:"current_value"`
	Status        string     `json:"status"`
	JoinedAt      time.Time  `json:"joined_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	RewardClaimed bool       `json:"reward_claimed"`

	ChallengeName string `json:"challenge_name,omitempty"`
	TargetValue   int    `json:"target_value,omitempty"`
}

func (uc UserChallenge) ProgressPercentage() int {
	if uc.TargetValue <= 0 {
		return 0
	}
	pct := uc.CurrentValue * 100 / uc.TargetValue
	if pct > 100 {
		pct = 100
	}
	return pct
}

// LeaderboardEntry is one row of a points ranking.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Points   int    `json:"points"`
	Level    int    `json:"level"`
}
