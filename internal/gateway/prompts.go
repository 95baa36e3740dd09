package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/garderoba/internal/model"
)

func categoryList() string {
	names := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func categorizePrompt() string {
	return fmt.Sprintf(`Analyze the clothing item in this photo.

Output ONLY a valid JSON object matching this exact schema:
{
  "name": "<short descriptive name, e.g. Blue Oxford Shirt>",
  "category": "<one of: %s>",
  "color": "<primary color>",
  "material": "<primary material>"
}

Rules:
- The category MUST be one of the listed values
- Output ONLY the JSON, no markdown, no explanations`, categoryList())
}

// promptItem is the view of an item the model sees during usage analysis.
type promptItem struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Color        string  `json:"color"`
	Material     string  `json:"material"`
	PurchaseDate string  `json:"purchaseDate"`
	LastWornDate *string `json:"lastWornDate"`
	WearCount    int     `json:"wearCount"`
}

func analyzePrompt(items []model.Item, profile model.StyleProfile, now time.Time) (string, error) {
	view := make([]promptItem, len(items))
	for i, it := range items {
		view[i] = promptItem{
			ID:           it.ID,
			Name:         it.Name,
			Category:     string(it.Category),
			Color:        it.Color,
			Material:     it.Material,
			PurchaseDate: it.PurchaseDate,
			LastWornDate: it.LastWornDate,
			WearCount:    it.WearCount,
		}
	}
	itemsJSON, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal items: %w", err)
	}

	return fmt.Sprintf(`You are a sustainable fashion expert. Analyze this wardrobe against the user's style profile and identify items that are likely neglected or underused.

Today is %s.

User style profile:
- Preferred styles: %s
- Preferred colors: %s
- Disliked: %s

Wardrobe items:
%s

Output ONLY a valid JSON array matching this exact schema, one element per item you analyzed:
[
  {
    "itemId": "<id of an item from the list above>",
    "reasoning": "<why the item is or is not being worn>",
    "suggestedAction": "<DONATE|TRANSFORM|RESERVE>",
    "wearProbability": <number between 0 and 1>
  }
]

Rules:
- Only use item ids from the list above
- Order the array from the most to the least neglected item
- Output ONLY the JSON, no markdown, no explanations`,
		model.FormatDate(now),
		joinOrNone(profile.PreferredStyles),
		joinOrNone(profile.PreferredColors),
		joinOrNone(profile.DislikedElements),
		itemsJSON), nil
}

func guidePrompt(item model.Item, profile model.StyleProfile) string {
	return fmt.Sprintf(`Create a DIY transformation guide that turns this %q into something that fits the user's %s style.
The goal is to reduce waste and make sure the user actually wears the item.

Item details: %s %s %s.
Disliked elements to avoid: %s.

Output ONLY a valid JSON object matching this exact schema:
{
  "title": "<guide title>",
  "difficulty": "<Easy|Medium|Hard>",
  "toolsNeeded": ["<tool>"],
  "steps": ["<step>"]
}

Rules:
- Provide at least one step
- Output ONLY the JSON, no markdown, no explanations`,
		item.Name, joinOrNone(profile.PreferredStyles),
		item.Color, item.Material, item.Category,
		joinOrNone(profile.DislikedElements))
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
