package database

import (
	"database/sql"
	"fmt"
	"skillforge/internal/model"
	"time"
)

// AwardPoints records a point transaction and keeps the user's XP total
// and level in step, all in one transaction. XP never drops below zero
// even for negative adjustments.
func (c *client) AwardPoints(userID, points int, txType, description string, relatedType *string, relatedID, awardedBy *int) (model.PointTransaction, error) {
	tx, err := c.db.Begin()
	if err != nil {
		return model.PointTransaction{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var pt model.PointTransaction
	err = tx.QueryRow(`INSERT INTO point_transactions (user_id, points, transaction_type, description,
			related_object_type, related_object_id, awarded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, user_id, points, transaction_type, description, related_object_type, related_object_id, awarded_by, created_at`,
		userID, points, txType, description, relatedType, relatedID, awardedBy,
	).Scan(&pt.ID, &pt.UserID, &pt.Points, &pt.TransactionType, &pt.Description, &pt.RelatedObjectType,
		&pt.RelatedObjectID, &pt.AwardedBy, &pt.CreatedAt)
	if err != nil {
		return model.PointTransaction{}, fmt.Errorf("inserting point transaction: %w", err)
	}

	_, err = tx.Exec(`UPDATE users SET experience_points = GREATEST(0, experience_points + $1) WHERE id = $2`, points, userID)
	if err != nil {
		return model.PointTransaction{}, fmt.Errorf("updating experience points: %w", err)
	}

	_, err = tx.Exec(`UPDATE users SET level = COALESCE(
			(SELECT level_number FROM levels WHERE users.experience_points BETWEEN min_points AND max_points),
			users.level)
		WHERE id = $1`, userID)
	if err != nil {
		return model.PointTransaction{}, fmt.Errorf("updating level: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.PointTransaction{}, fmt.Errorf("committing point award: %w", err)
	}

	return pt, nil
}

func (c *client) GetPointTransactions(userID, limit int) ([]model.PointTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := c.db.Query(`SELECT id, user_id, points, transaction_type, description, related_object_type,
		related_object_id, awarded_by, created_at
		FROM point_transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying for point transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.PointTransaction
	for rows.Next() {
		var pt model.PointTransaction
		if err := rows.Scan(&pt.ID, &pt.UserID, &pt.Points, &pt.TransactionType, &pt.Description,
			&pt.RelatedObjectType, &pt.RelatedObjectID, &pt.AwardedBy, &pt.CreatedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, pt)
	}

	return transactions, rows.Err()
}

func (c *client) GetLevels() ([]model.Level, error) {
	rows, err := c.db.Query(`SELECT id, level_number, name, min_points, max_points FROM levels ORDER BY level_number`)
	if err != nil {
		return nil, fmt.Errorf("querying for levels: %w", err)
	}
	defer rows.Close()

	var levels []model.Level
	for rows.Next() {
		var l model.Level
		if err := rows.Scan(&l.ID, &l.LevelNumber, &l.Name, &l.MinPoints, &l.MaxPoints); err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}

	return levels, rows.Err()
}

func (c *client) GetBadges() ([]model.Badge, error) {
	rows, err := c.db.Query(`SELECT id, name, description, level, points_awarded, requirement_description, is_active
		FROM badges WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying for badges: %w", err)
	}
	defer rows.Close()

	var badges []model.Badge
	for rows.Next() {
		var b model.Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Level, &b.PointsAwarded, &b.RequirementDescription, &b.IsActive); err != nil {
			return nil, err
		}
		badges = append(badges, b)
	}

	return badges, rows.Err()
}

func (c *client) GetAchievements() ([]model.Achievement, error) {
	rows, err := c.db.Query(`SELECT id, name, description, achievement_type, required_value, points_awarded,
		badge_id, is_hidden, is_active FROM achievements WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying for achievements: %w", err)
	}
	defer rows.Close()

	var achievements []model.Achievement
	for rows.Next() {
		var a model.Achievement
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.CriteriaType, &a.RequiredValue,
			&a.PointsReward, &a.BadgeID, &a.IsHidden, &a.IsActive); err != nil {
			return nil, err
		}
		achievements = append(achievements, a)
	}

	return achievements, rows.Err()
}

func (c *client) GetUserAchievements(userID int) ([]model.UserAchievement, error) {
	rows, err := c.db.Query(`SELECT ua.id, ua.user_id, ua.achievement_id, ua.value_achieved, ua.earned_at, a.name
		FROM user_achievements ua JOIN achievements a ON a.id = ua.achievement_id
		WHERE ua.user_id = $1 ORDER BY ua.earned_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying for user achievements: %w", err)
	}
	defer rows.Close()

	var earned []model.UserAchievement
	for rows.Next() {
		var ua model.UserAchievement
		if err := rows.Scan(&ua.ID, &ua.UserID, &ua.AchievementID, &ua.ValueAchieved, &ua.EarnedAt, &ua.AchievementName); err != nil {
			return nil, err
		}
		earned = append(earned, ua)
	}

	return earned, rows.Err()
}

// GrantAchievement records the achievement for the user. It reports
// false without error when the user already has it.
func (c *client) GrantAchievement(userID, achievementID int) (bool, error) {
	res, err := c.db.Exec(`INSERT INTO user_achievements (user_id, achievement_id)
		VALUES ($1, $2) ON CONFLICT (user_id, achievement_id) DO NOTHING`, userID, achievementID)
	if err != nil {
		return false, fmt.Errorf("granting achievement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("granting achievement: %w", err)
	}

	return n > 0, nil
}

func (c *client) GetStreak(userID int) (model.Streak, error) {
	var s model.Streak
	err := c.db.QueryRow(`SELECT id, user_id, current_streak_days, longest_streak_days, last_activity_date,
		streak_freeze_count, total_activity_days FROM streaks WHERE user_id = $1`, userID).Scan(
		&s.ID, &s.UserID, &s.CurrentStreak, &s.LongestStreak, &s.LastActivityDate, &s.StreakFreezeCount, &s.TotalActivityDays,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Streak{UserID: userID}, nil
		}
		return model.Streak{}, fmt.Errorf("querying for streak: %w", err)
	}

	return s, nil
}

func (c *client) SaveStreak(streak model.Streak) (model.Streak, error) {
	query := `INSERT INTO streaks (user_id, current_streak_days, longest_streak_days, last_activity_date,
			streak_freeze_count, total_activity_days)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			current_streak_days = EXCLUDED.current_streak_days,
			longest_streak_days = EXCLUDED.longest_streak_days,
			last_activity_date = EXCLUDED.last_activity_date,
			streak_freeze_count = EXCLUDED.streak_freeze_count,
			total_activity_days = EXCLUDED.total_activity_days
		RETURNING id, user_id, current_streak_days, longest_streak_days, last_activity_date, streak_freeze_count, total_activity_days`
	var saved model.Streak
	err := c.db.QueryRow(query,
		streak.UserID, streak.CurrentStreak, streak.LongestStreak, streak.LastActivityDate,
		streak.StreakFreezeCount, streak.TotalActivityDays,
	).Scan(&saved.ID, &saved.UserID, &saved.CurrentStreak, &saved.LongestStreak, &saved.LastActivityDate,
		&saved.StreakFreezeCount, &saved.TotalActivityDays)
	if err != nil {
		return model.Streak{}, fmt.Errorf("saving streak: %w", err)
	}

	return saved, nil
}

func (c *client) CountCompletedCourses(studentID int) (int, error) {
	var count int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM enrollments WHERE student_id = $1 AND status = 'completed'`, studentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting completed courses: %w", err)
	}

	return count, nil
}

const challengeColumns = `id, title, description, challenge_type, criteria_type, target_value, points_reward,
	badge_reward_id, start_date, end_date, is_active`

func scanChallenge(row interface{ Scan(...any) error }) (model.Challenge, error) {
	var ch model.Challenge
	err := row.Scan(
		&ch.ID, &ch.Name, &ch.Description, &ch.ChallengeType, &ch.CriteriaType, &ch.TargetValue,
		&ch.PointsReward, &ch.BadgeRewardID, &ch.StartsAt, &ch.EndsAt, &ch.IsActive,
	)
	return ch, err
}

func (c *client) ListOpenChallenges(now time.Time) ([]model.Challenge, error) {
	rows, err := c.db.Query(`SELECT `+challengeColumns+` FROM challenges
		WHERE is_active AND start_date <= $1 AND end_date > $1 ORDER BY end_date`, now)
	if err != nil {
		return nil, fmt.Errorf("querying for open challenges: %w", err)
	}
	defer rows.Close()

	var challenges []model.Challenge
	for rows.Next() {
		ch, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		challenges = append(challenges, ch)
	}

	return challenges, rows.Err()
}

func (c *client) GetChallengeByID(id int) (model.Challenge, error) {
	ch, err := scanChallenge(c.db.QueryRow(`SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Challenge{}, fmt.Errorf("no challenge found with id %d: %w", id, ErrNotFound)
		}
		return model.Challenge{}, fmt.Errorf("querying for challenge by id: %w", err)
	}

	return ch, nil
}

const userChallengeColumns = `uc.id, uc.user_id, uc.challenge_id, uc.current_value, uc.status, uc.joined_at,
	uc.completed_at, uc.reward_claimed, ch.title, ch.target_value`

func scanUserChallenge(row interface{ Scan(...any) error }) (model.UserChallenge, error) {
	var uc model.UserChallenge
	err := row.Scan(
		&uc.ID, &uc.UserID, &uc.ChallengeID, &uc.CurrentValue, &uc.Status, &uc.JoinedAt,
		&uc.CompletedAt, &uc.RewardClaimed, &uc.ChallengeName, &uc.TargetValue,
	)
	return uc, err
}

func (c *client) JoinChallenge(userID, challengeID int) (model.UserChallenge, error) {
	uc, err := scanUserChallenge(c.db.QueryRow(`WITH joined AS (
			INSERT INTO user_challenges (user_id, challenge_id) VALUES ($1, $2)
			RETURNING id, user_id, challenge_id, current_value, status, joined_at, completed_at, reward_claimed
		)
		SELECT uc.id, uc.user_id, uc.challenge_id, uc.current_value, uc.status, uc.joined_at,
			uc.completed_at, uc.reward_claimed, ch.title, ch.target_value
		FROM joined uc JOIN challenges ch ON ch.id = uc.challenge_id`, userID, challengeID))
	if err != nil {
		if isUniqueViolation(err) {
			return model.UserChallenge{}, fmt.Errorf("user %d already joined challenge %d: %w", userID, challengeID, ErrDuplicate)
		}
		return model.UserChallenge{}, fmt.Errorf("joining challenge: %w", err)
	}

	return uc, nil
}

func (c *client) GetUserChallenges(userID int) ([]model.UserChallenge, error) {
	rows, err := c.db.Query(`SELECT `+userChallengeColumns+` FROM user_challenges uc
		JOIN challenges ch ON ch.id = uc.challenge_id
		WHERE uc.user_id = $1 ORDER BY uc.joined_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying for user challenges: %w", err)
	}
	defer rows.Close()

	var challenges []model.UserChallenge
	for rows.Next() {
		uc, err := scanUserChallenge(rows)
		if err != nil {
			return nil, err
		}
		challenges = append(challenges, uc)
	}

	return challenges, rows.Err()
}

// ProgressChallenges advances every in-progress challenge of the user
// whose criteria matches, marking the ones that reach their target as
// completed. It returns the rows that just completed so the caller can
// pay out rewards.
func (c *client) ProgressChallenges(userID int, criteriaType string, delta int, now time.Time) ([]model.UserChallenge, error) {
	tx, err := c.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT `+userChallengeColumns+` FROM user_challenges uc
		JOIN challenges ch ON ch.id = uc.challenge_id
		WHERE uc.user_id = $1 AND uc.status = 'in_progress' AND ch.criteria_type = $2
			AND ch.is_active AND ch.start_date <= $3 AND ch.end_date > $3
		FOR UPDATE OF uc`, userID, criteriaType, now)
	if err != nil {
		return nil, fmt.Errorf("selecting challenges to progress: %w", err)
	}

	var open []model.UserChallenge
	for rows.Next() {
		uc, err := scanUserChallenge(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		open = append(open, uc)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	var completed []model.UserChallenge
	for _, uc := range open {
		uc.CurrentValue += delta
		if uc.CurrentValue >= uc.TargetValue {
			uc.Status = model.ChallengeCompleted
			uc.CompletedAt = &now
		}
		_, err := tx.Exec(`UPDATE user_challenges SET current_value = $1, status = $2, completed_at = $3 WHERE id = $4`,
			uc.CurrentValue, uc.Status, uc.CompletedAt, uc.ID)
		if err != nil {
			return nil, fmt.Errorf("progressing challenge %d: %w", uc.ID, err)
		}
		if uc.Status == model.ChallengeCompleted {
			completed = append(completed, uc)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing challenge progress: %w", err)
	}

	return completed, nil
}

// ClaimChallengeReward flips reward_claimed exactly once; a second
// claim comes back as a duplicate.
func (c *client) ClaimChallengeReward(userID, userChallengeID int) (model.UserChallenge, error) {
	uc, err := scanUserChallenge(c.db.QueryRow(`WITH claimed AS (
			UPDATE user_challenges SET reward_claimed = TRUE
			WHERE id = $1 AND user_id = $2 AND status = 'completed' AND NOT reward_claimed
			RETURNING id, user_id, challenge_id, current_value, status, joined_at, completed_at, reward_claimed
		)
		SELECT uc.id, uc.user_id, uc.challenge_id, uc.current_value, uc.status, uc.joined_at,
			uc.completed_at, uc.reward_claimed, ch.title, ch.target_value
		FROM claimed uc JOIN challenges ch ON ch.id = uc.challenge_id`, userChallengeID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.UserChallenge{}, fmt.Errorf("challenge %d not claimable for user %d: %w", userChallengeID, userID, ErrNotFound)
		}
		return model.UserChallenge{}, fmt.Errorf("claiming challenge reward: %w", err)
	}

	return uc, nil
}
