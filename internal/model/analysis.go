package model

// SuggestedAction is what the usage analysis recommends for an item.
type SuggestedAction string

// Suggested actions.
const (
	ActionDonate    SuggestedAction = "DONATE"
	ActionTransform SuggestedAction = "TRANSFORM"
	ActionReserve   SuggestedAction = "RESERVE"
)

// AnalysisResult is one usage-analysis suggestion. It is never persisted.
type AnalysisResult struct {
	ItemID          string          `json:"item_id"`
	Reasoning       string          `json:"reasoning"`
	SuggestedAction SuggestedAction `json:"suggested_action"`
	// WearProbability is advisory, in [0, 1].
	WearProbability float64 `json:"wear_probability"`
}

// Difficulty rates how hard a transformation is.
type Difficulty string

// Difficulties.
const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// TransformationGuide is a DIY upcycling guide for one item.
type TransformationGuide struct {
	Title       string     `json:"title"`
	Difficulty  Difficulty `json:"difficulty"`
	ToolsNeeded []string   `json:"tools_needed"`
	Steps       []string   `json:"steps"`
}

// Categorization is the model's description of a photographed item.
type Categorization struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Color    string   `json:"color"`
	Material string   `json:"material"`
}

// Attrs converts the categorization into item attributes.
func (c Categorization) Attrs() ItemAttrs {
	return ItemAttrs{Name: c.Name, Category: c.Category, Color: c.Color, Material: c.Material}
}
