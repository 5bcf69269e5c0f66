package gpt

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"diet-planner/internal/models"
)

// StaticTips are shown when no model is configured or the call fails.
var StaticTips = []string{
	"Tap Swiggy or Zomato to order directly from the app",
	"Mix and match items within the same calorie range",
	"Stay hydrated - drink at least 8 glasses of water daily",
	"Adjust portions based on your hunger and energy levels",
}

// chatCompleter is the part of the OpenAI client we use.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Client struct {
	client chatCompleter
	model  string
}

func NewClient(apiKey string) *Client {
	return &Client{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4oMini,
	}
}

func (c *Client) WithModel(model string) *Client {
	if model != "" {
		c.model = model
	}
	return c
}

func buildPrompt(profile models.Profile, plan *models.MealPlan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "A %d year old %s, %.0f kg, %.0f cm, activity level %s, goal: %s, diet: %s.\n",
		profile.Age, profile.Sex, profile.Weight, profile.Height,
		profile.ActivityLevel, plan.GoalLabel, plan.DietLabel)
	fmt.Fprintf(&sb, "Daily target: %d kcal. Planned total: %.0f kcal, %.0fg protein, %.0fg fiber, cost %.0f.\n",
		plan.DailyCalories, plan.Totals.Calories, plan.Totals.Protein, plan.Totals.Fiber, plan.Totals.Price)
	for _, c := range models.Categories {
		names := make([]string, 0, 4)
		for _, f := range plan.Meals.Get(c) {
			names = append(names, f.Name)
		}
		if len(names) == 0 {
			names = append(names, "nothing available")
		}
		fmt.Fprintf(&sb, "%s (~%d kcal): %s\n", c, plan.MealCalories.Get(c), strings.Join(names, ", "))
	}
	sb.WriteString("\nGive 3 to 4 short, practical tips for following this plan. One tip per line, no numbering, no medical claims.")
	return sb.String()
}

// GenerateTips asks the model for a few tips about the plan.
func (c *Client) GenerateTips(ctx context.Context, profile models.Profile, plan *models.MealPlan) ([]string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an experienced dietitian who explains Indian meal plans in plain language.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(profile, plan),
			},
		},
		MaxTokens:   300,
		Temperature: 0.7,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from GPT API")
	}

	var tips []string
	for _, line := range strings.Split(resp.Choices[0].Message.Content, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-•* "))
		if line != "" {
			tips = append(tips, line)
		}
	}
	if len(tips) == 0 {
		return nil, fmt.Errorf("empty response from GPT API")
	}
	return tips, nil
}
