package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// TaskDrafter proposes a task breakdown for a project.
type TaskDrafter interface {
	DraftTasks(ctx context.Context, brief ProjectBrief, text string) ([]DraftedTask, error)
}

// ProjectBrief is the project context handed to the drafter.
type ProjectBrief struct {
	Title       string
	Description string
	Deadline    *time.Time
}

type DraftedTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
}

type AIService struct {
	client *openai.Client
	model  string
}

func NewAIService(apiKey string) *AIService {
	return NewAIServiceWithConfig(openai.DefaultConfig(apiKey))
}

// NewAIServiceWithConfig allows pointing the client at another base URL.
func NewAIServiceWithConfig(cfg openai.ClientConfig) *AIService {
	return &AIService{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.GPT4o,
	}
}

// DraftTasks asks the model to split the solver's notes into tasks
func (s *AIService) DraftTasks(ctx context.Context, brief ProjectBrief, text string) ([]DraftedTask, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	deadline := "none"
	if brief.Deadline != nil {
		deadline = brief.Deadline.Format(time.RFC3339)
	}

	currentTime := time.Now().Format("2006-01-02 15:04:05")
	prompt := fmt.Sprintf(`You help freelance solvers plan their work. Break the notes below into concrete deliverable tasks for the project.

Current time: %s

Project: %s
Project description: %s
Project deadline: %s

Notes:
%s

Return a JSON array of tasks:
[
  {
    "title": "short task title",
    "description": "what has to be delivered",
    "deadline": "deadline in ISO8601 (e.g. 2025-10-28T23:59:59Z), or null when none is implied"
  }
]

Rules:
- Return [] when the notes contain no work
- Convert relative dates ("tomorrow", "next week") to absolute timestamps
- No task deadline may be later than the project deadline
- Return JSON only, no prose`, currentTime, brief.Title, brief.Description, deadline, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)

	var tasks []DraftedTask
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return tasks, nil
}

// stripCodeFence removes a ```json fence the model sometimes wraps output in.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
