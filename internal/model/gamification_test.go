package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(yyyy int, mm time.Month, dd int) time.Time {
	return time.Date(yyyy, mm, dd, 0, 0, 0, 0, time.UTC)
}

func TestStreakFirstActivity(t *testing.T) {
	s := &Streak{}
	counted, continued := s.Touch(day(2024, time.March, 1))
	assert.True(t, counted)
	assert.False(t, continued)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.LongestStreak)
	assert.Equal(t, 1, s.TotalActivityDays)
	assert.Equal(t, day(2024, time.March, 1), *s.LastActivityDate)
}

func TestStreakSameDayIsNoop(t *testing.T) {
	s := &Streak{}
	s.Touch(day(2024, time.March, 1))
	counted, continued := s.Touch(day(2024, time.March, 1).Add(5 * time.Hour))
	assert.False(t, counted)
	assert.False(t, continued)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.TotalActivityDays)
}

func TestStreakConsecutiveDaysExtend(t *testing.T) {
	s := &Streak{}
	s.Touch(day(2024, time.March, 1))
	s.Touch(day(2024, time.March, 2))
	_, continued := s.Touch(day(2024, time.March, 3))
	assert.True(t, continued)
	assert.Equal(t, 3, s.CurrentStreak)
	assert.Equal(t, 3, s.LongestStreak)
	assert.Equal(t, 3, s.TotalActivityDays)
}

func TestStreakFreezeAbsorbsOneMissedDay(t *testing.T) {
	s := &Streak{StreakFreezeCount: 1}
	s.Touch(day(2024, time.March, 1))
	s.Touch(day(2024, time.March, 2))
	// March 3 missed. The freeze keeps the streak alive at 2 but the
	// frozen day itself earns nothing.
	counted, continued := s.Touch(day(2024, time.March, 4))
	assert.True(t, counted)
	assert.True(t, continued)
	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, 0, s.StreakFreezeCount)
	assert.Equal(t, 3, s.TotalActivityDays)
}

func TestStreakMissedDayWithoutFreezeResets(t *testing.T) {
	s := &Streak{}
	s.Touch(day(2024, time.March, 1))
	s.Touch(day(2024, time.March, 2))
	counted, continued := s.Touch(day(2024, time.March, 4))
	assert.True(t, counted)
	assert.False(t, continued)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 2, s.LongestStreak)
}

func TestStreakGapIgnoresTimeOfDayAndZone(t *testing.T) {
	sydney := time.FixedZone("AEDT", 11*60*60)
	last := day(2024, time.March, 1)
	s := &Streak{CurrentStreak: 1, LongestStreak: 1, TotalActivityDays: 1, LastActivityDate: &last}

	// March 2 evening in Sydney is still March 2 in UTC; the stored
	// UTC midnight must compare as exactly one day earlier.
	counted, continued := s.Touch(time.Date(2024, time.March, 2, 20, 0, 0, 0, sydney))
	assert.True(t, counted)
	assert.True(t, continued)
	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, day(2024, time.March, 2), *s.LastActivityDate)
}

func TestStreakLongGapResetsEvenWithFreeze(t *testing.T) {
	s := &Streak{StreakFreezeCount: 3}
	s.Touch(day(2024, time.March, 1))
	s.Touch(day(2024, time.March, 2))
	s.Touch(day(2024, time.March, 10))
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 3, s.StreakFreezeCount)
}

func TestStreakLongestSurvivesReset(t *testing.T) {
	s := &Streak{}
	for d := 1; d <= 5; d++ {
		s.Touch(day(2024, time.March, d))
	}
	s.Touch(day(2024, time.March, 20))
	s.Touch(day(2024, time.March, 21))
	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, 5, s.LongestStreak)
	assert.Equal(t, 7, s.TotalActivityDays)
}

func TestLevelForPoints(t *testing.T) {
	levels := []Level{
		{LevelNumber: 1, Name: "Novice", MinPoints: 0, MaxPoints: 99},
		{LevelNumber: 2, Name: "Beginner", MinPoints: 100, MaxPoints: 249},
		{LevelNumber: 3, Name: "Apprentice", MinPoints: 250, MaxPoints: 499},
	}

	assert.Equal(t, 1, LevelForPoints(levels, 0).LevelNumber)
	assert.Equal(t, 1, LevelForPoints(levels, 99).LevelNumber)
	assert.Equal(t, 2, LevelForPoints(levels, 100).LevelNumber)
	assert.Equal(t, 3, LevelForPoints(levels, 300).LevelNumber)
	assert.Equal(t, 3, LevelForPoints(levels, 10000).LevelNumber)
	assert.Equal(t, 1, LevelForPoints(nil, 500).LevelNumber)
}

func TestChallengeOpen(t *testing.T) {
	c := Challenge{
		IsActive: true,
		StartsAt: day(2024, time.March, 1),
		EndsAt:   day(2024, time.March, 8),
	}

	assert.False(t, c.Open(day(2024, time.February, 28)))
	assert.True(t, c.Open(day(2024, time.March, 1)))
	assert.True(t, c.Open(day(2024, time.March, 5)))
	assert.False(t, c.Open(day(2024, time.March, 8)))

	c.IsActive = false
	assert.False(t, c.Open(day(2024, time.March, 5)))
}

func TestUserChallengeProgressPercentage(t *testing.T) {
	assert.Equal(t, 0, UserChallenge{CurrentValue: 3}.ProgressPercentage())
	assert.Equal(t, 30, UserChallenge{CurrentValue: 3, TargetValue: 10}.ProgressPercentage())
	assert.Equal(t, 100, UserChallenge{CurrentValue: 15, TargetValue: 10}.ProgressPercentage())
}

func TestAchievementMet(t *testing.T) {
	a := Achievement{CriteriaType: AchievementStreak, RequiredValue: 7, IsActive: true}
	assert.False(t, a.Met(6))
	assert.True(t, a.Met(7))
	a.IsActive = false
	assert.False(t, a.Met(7))
}
