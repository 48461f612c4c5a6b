package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserRoles(t *testing.T) {
	assert.True(t, User{UserType: RoleStudent}.IsStudent())
	assert.True(t, User{UserType: RoleInstructor}.IsInstructor())
	assert.True(t, User{UserType: RoleAdmin}.IsAdmin())
	assert.False(t, User{UserType: RoleStudent}.IsAdmin())
}

func TestUserPreferenceValidate(t *testing.T) {
	valid := UserPreference{
		LearningPace:          PaceMedium,
		PreferredContentType:  "video",
		VisualPreference:      5,
		AuditoryPreference:    5,
		ReadingPreference:     5,
		KinestheticPreference: 5,
	}
	assert.NoError(t, valid.Validate())

	badPace := valid
	badPace.LearningPace = "frantic"
	assert.Error(t, badPace.Validate())

	badContent := valid
	badContent.PreferredContentType = "osmosis"
	assert.Error(t, badContent.Validate())

	badScore := valid
	badScore.VisualPreference = 11
	assert.Error(t, badScore.Validate())

	badScore.VisualPreference = 0
	assert.Error(t, badScore.Validate())
}
