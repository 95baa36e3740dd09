package gateway

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/erazemk/garderoba/internal/model"
)

const (
	defaultName  = "New Item"
	unknownValue = "Unknown"
)

type categorizationResponse struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Color    string `json:"color"`
	Material string `json:"material"`
}

func (r categorizationResponse) toModel() model.Categorization {
	c := model.Categorization{
		Name:     strings.TrimSpace(r.Name),
		Category: matchCategory(r.Category),
		Color:    strings.TrimSpace(r.Color),
		Material: strings.TrimSpace(r.Material),
	}
	if c.Name == "" {
		c.Name = defaultName
	}
	if c.Color == "" {
		c.Color = unknownValue
	}
	if c.Material == "" {
		c.Material = unknownValue
	}
	return c
}

// matchCategory maps the model's category onto a fixed one, ignoring case.
func matchCategory(s string) model.Category {
	s = strings.TrimSpace(s)
	for _, c := range model.Categories {
		if strings.EqualFold(s, string(c)) {
			return c
		}
	}
	return model.CategoryOther
}

type analysisResponse struct {
	ItemID          string   `json:"itemId" validate:"required"`
	Reasoning       string   `json:"reasoning" validate:"required"`
	SuggestedAction string   `json:"suggestedAction" validate:"required,oneof=DONATE TRANSFORM RESERVE"`
	WearProbability *float64 `json:"wearProbability" validate:"required"`
}

func (r analysisResponse) toModel() model.AnalysisResult {
	p := *r.WearProbability
	switch {
	case p < 0:
		p = 0
	case p > 1:
		p = 1
	}
	return model.AnalysisResult{
		ItemID:          r.ItemID,
		Reasoning:       r.Reasoning,
		SuggestedAction: model.SuggestedAction(r.SuggestedAction),
		WearProbability: p,
	}
}

type guideResponse struct {
	Title       string   `json:"title" validate:"required"`
	Difficulty  string   `json:"difficulty" validate:"required,oneof=Easy Medium Hard"`
	ToolsNeeded []string `json:"toolsNeeded" validate:"required,dive,required"`
	Steps       []string `json:"steps" validate:"required,min=1,dive,required"`
}

func (r guideResponse) toModel() model.TransformationGuide {
	return model.TransformationGuide{
		Title:       r.Title,
		Difficulty:  model.Difficulty(r.Difficulty),
		ToolsNeeded: r.ToolsNeeded,
		Steps:       r.Steps,
	}
}

// decodeObject extracts the JSON object from text and decodes it into v.
func decodeObject(op, text string, v any) error {
	return decode(op, text, "{", "}", v)
}

// decodeArray extracts the JSON array from text and decodes it into v.
func decodeArray(op, text string, v any) error {
	return decode(op, text, "[", "]", v)
}

func decode(op, text, openDelim, closeDelim string, v any) error {
	if strings.TrimSpace(text) == "" {
		return &Error{Op: op, Kind: KindEmpty}
	}

	raw, err := extractJSON(text, openDelim, closeDelim)
	if err != nil {
		return &Error{Op: op, Kind: KindMalformed, Err: err}
	}
	if !json.Valid([]byte(raw)) {
		return &Error{Op: op, Kind: KindMalformed, Err: errors.New("response does not contain valid JSON")}
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return &Error{Op: op, Kind: KindMalformed, Err: err}
	}
	return nil
}

// extractJSON returns the text between the first opening and the last
// closing delimiter, dropping prose and markdown fences around the answer.
func extractJSON(s, openDelim, closeDelim string) (string, error) {
	start := strings.Index(s, openDelim)
	end := strings.LastIndex(s, closeDelim)
	if start == -1 || end == -1 || end <= start {
		return "", errors.New("no JSON value found in response")
	}
	return s[start : end+1], nil
}
