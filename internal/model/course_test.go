package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectivePrice(t *testing.T) {
	discount := int64(1999)
	bigger := int64(9900)

	assert.Equal(t, int64(4900), Course{Price: 4900}.EffectivePrice())
	assert.Equal(t, int64(1999), Course{Price: 4900, DiscountPrice: &discount}.EffectivePrice())
	assert.Equal(t, int64(4900), Course{Price: 4900, DiscountPrice: &bigger}.EffectivePrice())

	assert.True(t, Course{Price: 0}.IsFree())
	assert.False(t, Course{Price: 4900, DiscountPrice: &discount}.IsFree())
}

func TestValidCourseLevel(t *testing.T) {
	assert.True(t, ValidCourseLevel(LevelBeginner))
	assert.True(t, ValidCourseLevel(LevelExpert))
	assert.False(t, ValidCourseLevel("ninja"))
}

func TestContentValidate(t *testing.T) {
	body := "reading material"
	url := "https://videos.example.com/intro.mp4"

	assert.NoError(t, Content{ContentType: ContentText, Body: &body}.Validate())
	assert.Error(t, Content{ContentType: ContentText}.Validate())

	assert.NoError(t, Content{ContentType: ContentVideo, VideoURL: &url}.Validate())
	assert.Error(t, Content{ContentType: ContentVideo}.Validate())

	assert.NoError(t, Content{ContentType: ContentResource, FileURL: &url}.Validate())
	assert.Error(t, Content{ContentType: ContentResource}.Validate())

	assert.NoError(t, Content{ContentType: ContentAssignment, Instructions: &body}.Validate())
	assert.Error(t, Content{ContentType: ContentAssignment}.Validate())

	assert.Error(t, Content{ContentType: "hologram"}.Validate())
}

func TestEnrollmentGrantsAccess(t *testing.T) {
	assert.True(t, Enrollment{Status: EnrollmentActive}.GrantsAccess())
	assert.True(t, Enrollment{Status: EnrollmentCompleted}.GrantsAccess())
	assert.False(t, Enrollment{Status: EnrollmentPending}.GrantsAccess())
	assert.False(t, Enrollment{Status: EnrollmentDropped}.GrantsAccess())
}

func TestCompletionPercentage(t *testing.T) {
	assert.Equal(t, 0, CompletionPercentage(0, 0))
	assert.Equal(t, 0, CompletionPercentage(0, 10))
	assert.Equal(t, 33, CompletionPercentage(1, 3))
	assert.Equal(t, 100, CompletionPercentage(3, 3))
	assert.Equal(t, 100, CompletionPercentage(5, 3))
}
