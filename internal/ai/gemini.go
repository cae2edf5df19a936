// README: Gemini-backed narrator with JSON response mode.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"atlas/internal/modules/intent"
	"atlas/internal/modules/itinerary"
)

// GeminiNarrator implements Narrator using Google's Gemini models.
type GeminiNarrator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiNarrator(ctx context.Context, apiKey string) (*GeminiNarrator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Flash keeps latency and cost low; narration is not quality-critical.
	model := client.GenerativeModel("gemini-2.0-flash")
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.4)

	return &GeminiNarrator{client: client, model: model}, nil
}

func (n *GeminiNarrator) Close() {
	n.client.Close()
}

type highlightsResult struct {
	Highlights []string `json:"highlights"`
}

// Highlights asks the model for three to five short highlight lines. Any
// failure falls back to the deterministic template so plans always carry
// narration.
func (n *GeminiNarrator) Highlights(ctx context.Context, plan *itinerary.TravelPlan, ti intent.TripIntent) ([]string, error) {
	prompt, err := buildHighlightPrompt(plan, ti)
	if err != nil {
		return FallbackHighlights(plan, ti), nil
	}

	resp, err := n.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return FallbackHighlights(plan, ti), nil
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return FallbackHighlights(plan, ti), nil
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}

	var result highlightsResult
	if err := json.Unmarshal([]byte(cleanJSONString(text.String())), &result); err != nil || len(result.Highlights) == 0 {
		return FallbackHighlights(plan, ti), nil
	}
	return result.Highlights, nil
}

func buildHighlightPrompt(plan *itinerary.TravelPlan, ti intent.TripIntent) (string, error) {
	summary, err := json.Marshal(plan.Days)
	if err != nil {
		return "", err
	}
	var moods []string
	for tag := range ti.PreferenceTags {
		moods = append(moods, tag)
	}

	return fmt.Sprintf(`你是旅行规划助手。根据下面的行程安排，用简体中文写3到5条行程亮点，每条不超过40字。
要求：贴合用户偏好（%s），语气温暖自然，不使用系统字段名。

行程数据：
%s

输出JSON格式：
{"highlights": ["...", "..."]}
`, strings.Join(moods, "、"), string(summary)), nil
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
