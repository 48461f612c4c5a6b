// Package questiongen drafts quiz questions with the Gemini API. Drafts
// are never served to students directly; an instructor reviews each one
// before it can join a quiz.
package questiongen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"skillforge/internal/model"
)

const defaultModel = "gemini-2.0-flash"

type Generator struct {
	client *genai.Client
	model  string
}

// New creates a generator backed by the Gemini API.
func New(ctx context.Context, apiKey, modelName string) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("genai api key is required")
	}
	if modelName == "" {
		modelName = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Generator{client: client, model: modelName}, nil
}

type draft struct {
	Question    string   `json:"question"`
	Type        string   `json:"type"`
	Options     []string `json:"options"`
	Correct     []int    `json:"correct"`
	Explanation string   `json:"explanation"`
}

func buildPrompt(topic, difficulty string, count int) string {
	return fmt.Sprintf(`Write %d quiz questions about %q at %s difficulty.
Respond with a JSON array only, no prose. Each element must have:
  "question": the question text
  "type": one of "single_choice", "multiple_choice", "true_false"
  "options": the answer options as strings (exactly ["True", "False"] for true_false)
  "correct": zero-based indexes of the correct options
  "explanation": one sentence explaining the correct answer`, count, topic, difficulty)
}

// Draft asks the model for count draft questions on the topic. The
// drafts come back unverified.
func (g *Generator) Draft(ctx context.Context, courseID int, topic, difficulty string, count int) ([]model.AIQuestion, error) {
	if count <= 0 {
		count = 3
	}

	contents := []*genai.Content{
		genai.NewContentFromText(buildPrompt(topic, difficulty, count), genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("generating questions: %w", err)
	}

	return parseDrafts(result.Text(), courseID, topic, difficulty)
}

// parseDrafts decodes the model's JSON reply into draft questions,
// tolerating a markdown code fence around the array.
func parseDrafts(text string, courseID int, topic, difficulty string) ([]model.AIQuestion, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var drafts []draft
	if err := json.Unmarshal([]byte(text), &drafts); err != nil {
		return nil, fmt.Errorf("decoding model reply: %w", err)
	}

	var questions []model.AIQuestion
	for _, d := range drafts {
		q := model.AIQuestion{
			CourseID:     courseID,
			Topic:        topic,
			Text:         d.Question,
			QuestionType: d.Type,
			Difficulty:   difficulty,
			Marks:        1,
			Explanation:  d.Explanation,
		}

		correct := make(map[int]bool, len(d.Correct))
		for _, idx := range d.Correct {
			correct[idx] = true
		}
		for i, opt := range d.Options {
			q.Options = append(q.Options, model.AIOption{Text: opt, IsCorrect: correct[i]})
		}

		if err := validateDraft(q); err != nil {
			continue
		}
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("model reply held no usable questions")
	}

	return questions, nil
}

// validateDraft applies the same option-shape rules real questions
// must pass, so broken drafts never reach the review queue.
func validateDraft(q model.AIQuestion) error {
	question := model.Question{QuestionType: q.QuestionType}
	for i, opt := range q.Options {
		question.Options = append(question.Options, model.QuestionOption{
			ID:        i + 1,
			Text:      opt.Text,
			IsCorrect: opt.IsCorrect,
		})
	}
	if q.Text == "" {
		return fmt.Errorf("empty question text")
	}
	return question.ValidateOptions()
}
