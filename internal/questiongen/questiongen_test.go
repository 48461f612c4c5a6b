package questiongen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"skillforge/internal/model"
)

const reply = `[
  {
    "question": "What does SQL stand for?",
    "type": "single_choice",
    "options": ["Structured Query Language", "Simple Query Logic", "Sequential Question List"],
    "correct": [0],
    "explanation": "SQL stands for Structured Query Language."
  },
  {
    "question": "Indexes always speed up writes.",
    "type": "true_false",
    "options": ["True", "False"],
    "correct": [1],
    "explanation": "Indexes must be maintained on every write."
  }
]`

func TestParseDrafts(t *testing.T) {
	questions, err := parseDrafts(reply, 42, "databases", "medium")
	assert.NoError(t, err)
	assert.Len(t, questions, 2)

	first := questions[0]
	assert.Equal(t, 42, first.CourseID)
	assert.Equal(t, "databases", first.Topic)
	assert.Equal(t, model.QuestionSingleChoice, first.QuestionType)
	assert.Len(t, first.Options, 3)
	assert.True(t, first.Options[0].IsCorrect)
	assert.False(t, first.Options[1].IsCorrect)

	second := questions[1]
	assert.Equal(t, model.QuestionTrueFalse, second.QuestionType)
	assert.True(t, second.Options[1].IsCorrect)
}

func TestParseDraftsStripsCodeFence(t *testing.T) {
	questions, err := parseDrafts("```json\n"+reply+"\n```", 1, "go", "easy")
	assert.NoError(t, err)
	assert.Len(t, questions, 2)
}

func TestParseDraftsDropsInvalidQuestions(t *testing.T) {
	mixed := `[
	  {"question": "Only one option", "type": "single_choice", "options": ["A"], "correct": [0], "explanation": ""},
	  {"question": "Valid", "type": "true_false", "options": ["True", "False"], "correct": [0], "explanation": ""}
	]`
	questions, err := parseDrafts(mixed, 1, "go", "easy")
	assert.NoError(t, err)
	assert.Len(t, questions, 1)
	assert.Equal(t, "Valid", questions[0].Text)
}

func TestParseDraftsRejectsGarbage(t *testing.T) {
	_, err := parseDrafts("the model rambled instead of emitting JSON", 1, "go", "easy")
	assert.Error(t, err)

	_, err = parseDrafts("[]", 1, "go", "easy")
	assert.Error(t, err)
}
