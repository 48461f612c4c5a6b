package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStudyGoalProgress(t *testing.T) {
	g := StudyGoal{TargetValue: 300, CurrentValue: 90}
	assert.Equal(t, 30, g.ProgressPercentage())
	assert.False(t, g.IsAchieved())

	g.CurrentValue = 450
	assert.Equal(t, 100, g.ProgressPercentage())
	assert.True(t, g.IsAchieved())

	assert.Equal(t, 0, StudyGoal{CurrentValue: 10}.ProgressPercentage())
}

func TestStudySessionComplete(t *testing.T) {
	start := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	s := &StudySession{StartedAt: start}

	mins := s.Complete(start.Add(45 * time.Minute))
	assert.Equal(t, 45, mins)
	assert.Equal(t, 45, s.DurationMinutes)
	assert.True(t, s.IsCompleted)
	assert.Equal(t, start.Add(45*time.Minute), *s.EndedAt)

	s = &StudySession{StartedAt: start}
	assert.Equal(t, 0, s.Complete(start.Add(-time.Minute)))
}

func TestAnnouncementIsCurrent(t *testing.T) {
	starts := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	ends := starts.AddDate(0, 0, 7)
	a := Announcement{IsActive: true, StartsAt: starts, EndsAt: &ends}

	assert.False(t, a.IsCurrent(starts.Add(-time.Hour)))
	assert.True(t, a.IsCurrent(starts))
	assert.True(t, a.IsCurrent(starts.AddDate(0, 0, 3)))
	assert.False(t, a.IsCurrent(ends.Add(time.Hour)))

	open := Announcement{IsActive: true, StartsAt: starts}
	assert.True(t, open.IsCurrent(starts.AddDate(1, 0, 0)))

	a.IsActive = false
	assert.False(t, a.IsCurrent(starts.AddDate(0, 0, 3)))
}
