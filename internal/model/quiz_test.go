package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func singleChoiceQuestion() Question {
	return Question{
		QuestionType: QuestionSingleChoice,
		Marks:        2,
		Options: []QuestionOption{
			{ID: 1, Text: "map"},
			{ID: 2, Text: "slice", IsCorrect: true},
			{ID: 3, Text: "channel"},
		},
	}
}

func TestGradeSingleChoice(t *testing.T) {
	q := singleChoiceQuestion()

	correct, marks := q.Grade([]int{2}, "")
	assert.True(t, correct)
	assert.Equal(t, 2.0, marks)

	correct, marks = q.Grade([]int{1}, "")
	assert.False(t, correct)
	assert.Equal(t, 0.0, marks)

	correct, _ = q.Grade([]int{1, 2}, "")
	assert.False(t, correct)

	correct, _ = q.Grade(nil, "")
	assert.False(t, correct)
}

func TestGradeTrueFalse(t *testing.T) {
	q := Question{
		QuestionType: QuestionTrueFalse,
		Marks:        1,
		Options: []QuestionOption{
			{ID: 10, Text: "True", IsCorrect: true},
			{ID: 11, Text: "False"},
		},
	}

	correct, marks := q.Grade([]int{10}, "")
	assert.True(t, correct)
	assert.Equal(t, 1.0, marks)

	correct, _ = q.Grade([]int{11}, "")
	assert.False(t, correct)
}

func TestGradeMultipleChoiceNeedsExactSet(t *testing.T) {
	q := Question{
		QuestionType: QuestionMultipleChoice,
		Marks:        3,
		Options: []QuestionOption{
			{ID: 1, Text: "a", IsCorrect: true},
			{ID: 2, Text: "b"},
			{ID: 3, Text: "c", IsCorrect: true},
			{ID: 4, Text: "d"},
		},
	}

	correct, marks := q.Grade([]int{3, 1}, "")
	assert.True(t, correct)
	assert.Equal(t, 3.0, marks)

	// Missing one correct option earns nothing.
	correct, marks = q.Grade([]int{1}, "")
	assert.False(t, correct)
	assert.Equal(t, 0.0, marks)

	// An extra wrong option spoils the answer.
	correct, _ = q.Grade([]int{1, 3, 2}, "")
	assert.False(t, correct)

	correct, _ = q.Grade(nil, "")
	assert.False(t, correct)
}

func TestGradeFillBlankIgnoresCaseAndSpace(t *testing.T) {
	q := Question{
		QuestionType: QuestionFillBlank,
		Marks:        2,
		Options: []QuestionOption{
			{ID: 1, Text: "goroutine", IsCorrect: true},
		},
	}

	correct, marks := q.Grade(nil, "  GoRoutine ")
	assert.True(t, correct)
	assert.Equal(t, 2.0, marks)

	correct, _ = q.Grade(nil, "thread")
	assert.False(t, correct)
}

func TestGradeManualTypesScoreZero(t *testing.T) {
	for _, typ := range []string{QuestionShortAnswer, QuestionEssay, QuestionCode} {
		q := Question{QuestionType: typ, Marks: 5}
		assert.True(t, q.NeedsManualGrading())
		correct, marks := q.Grade(nil, "some answer")
		assert.False(t, correct)
		assert.Equal(t, 0.0, marks)
	}
}

func TestValidateOptions(t *testing.T) {
	valid := singleChoiceQuestion()
	assert.NoError(t, valid.ValidateOptions())

	twoCorrect := singleChoiceQuestion()
	twoCorrect.Options[0].IsCorrect = true
	assert.Error(t, twoCorrect.ValidateOptions())

	tf := Question{
		QuestionType: QuestionTrueFalse,
		Options: []QuestionOption{
			{Text: "True", IsCorrect: true},
			{Text: "False"},
		},
	}
	assert.NoError(t, tf.ValidateOptions())

	tf.Options = append(tf.Options, QuestionOption{Text: "Maybe"})
	assert.Error(t, tf.ValidateOptions())

	mc := Question{
		QuestionType: QuestionMultipleChoice,
		Options: []QuestionOption{
			{Text: "a"},
			{Text: "b"},
		},
	}
	assert.Error(t, mc.ValidateOptions(), "no correct option")

	mc.Options[0].IsCorrect = true
	mc.Options[1].IsCorrect = true
	assert.NoError(t, mc.ValidateOptions())

	fb := Question{QuestionType: QuestionFillBlank}
	assert.Error(t, fb.ValidateOptions())

	fb.Options = []QuestionOption{{Text: "answer", IsCorrect: true}}
	assert.NoError(t, fb.ValidateOptions())

	essay := Question{QuestionType: QuestionEssay}
	assert.NoError(t, essay.ValidateOptions())

	unknown := Question{QuestionType: "ranking"}
	assert.Error(t, unknown.ValidateOptions())
}

func TestValidationErrorsAreTyped(t *testing.T) {
	err := Question{QuestionType: "ranking"}.ValidateOptions()
	assert.ErrorAs(t, err, &ValidationError{})
}
