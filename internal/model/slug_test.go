package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "intro-to-go", Slugify("Intro to Go"))
	assert.Equal(t, "c-from-zero-to-hero", Slugify("C++: From Zero to Hero!"))
	assert.Equal(t, "100-days-of-code", Slugify("  100 Days of Code  "))
	assert.Equal(t, "", Slugify("!!!"))
}
