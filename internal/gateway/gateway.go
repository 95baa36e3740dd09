// Package gateway translates closet requests into generative-AI calls and
// turns the model's JSON answers back into strict domain types.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/erazemk/garderoba/internal/model"
)

// Image is an inline image sent along with a prompt.
type Image struct {
	MIME string
	Data []byte
}

// Request is a single prompt, optionally with one image.
type Request struct {
	Prompt string
	Image  *Image
}

// Model generates a textual answer for a request.
type Model interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Gateway makes the three closet AI calls.
type Gateway struct {
	model   Model
	timeout time.Duration
	now     func() time.Time
}

// New returns a gateway backed by m. A positive timeout bounds each call.
func New(m Model, timeout time.Duration) *Gateway {
	return &Gateway{model: m, timeout: timeout, now: time.Now}
}

// CategorizeImage asks the model to describe a photographed item.
// Fields the model leaves out are filled with defaults; an empty or
// unparseable answer is an error.
func (g *Gateway) CategorizeImage(ctx context.Context, img Image) (*model.Categorization, error) {
	const op = "categorize"

	text, err := g.generate(ctx, op, Request{Prompt: categorizePrompt(), Image: &img})
	if err != nil {
		return nil, err
	}

	var raw categorizationResponse
	if err := decodeObject(op, text, &raw); err != nil {
		return nil, err
	}
	c := raw.toModel()
	return &c, nil
}

// AnalyzeUsage asks the model which ACTIVE items are neglected and what to
// do with them. Items that are not ACTIVE are left out of the prompt. With
// no ACTIVE items it returns an empty list without calling the model.
// The result order is the model's order.
func (g *Gateway) AnalyzeUsage(ctx context.Context, items []model.Item, profile model.StyleProfile) ([]model.AnalysisResult, error) {
	const op = "analyze"

	active := model.FilterItems(items, model.ItemFilter{Status: model.ItemStatusActive})
	if len(active) == 0 {
		return []model.AnalysisResult{}, nil
	}

	prompt, err := analyzePrompt(active, profile, g.now())
	if err != nil {
		return nil, &Error{Op: op, Kind: KindInvalid, Err: err}
	}

	text, err := g.generate(ctx, op, Request{Prompt: prompt})
	if err != nil {
		return nil, err
	}

	var raw []analysisResponse
	if err := decodeArray(op, text, &raw); err != nil {
		return nil, err
	}

	results := make([]model.AnalysisResult, len(raw))
	for i := range raw {
		if err := model.Validate(raw[i]); err != nil {
			return nil, &Error{Op: op, Kind: KindInvalid, Err: fmt.Errorf("result %d: %w", i, err)}
		}
		results[i] = raw[i].toModel()
	}
	return results, nil
}

// GenerateGuide asks the model for a DIY upcycling guide for item that
// suits the profile.
func (g *Gateway) GenerateGuide(ctx context.Context, item model.Item, profile model.StyleProfile) (*model.TransformationGuide, error) {
	const op = "guide"

	text, err := g.generate(ctx, op, Request{Prompt: guidePrompt(item, profile)})
	if err != nil {
		return nil, err
	}

	var raw guideResponse
	if err := decodeObject(op, text, &raw); err != nil {
		return nil, err
	}
	if err := model.Validate(raw); err != nil {
		return nil, &Error{Op: op, Kind: KindInvalid, Err: err}
	}
	guide := raw.toModel()
	return &guide, nil
}

func (g *Gateway) generate(ctx context.Context, op string, req Request) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	text, err := g.model.Generate(ctx, req)
	if err != nil {
		return "", &Error{Op: op, Kind: KindUpstream, Err: err}
	}
	return text, nil
}

// ModelFunc adapts a function to the Model interface.
type ModelFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f(ctx, req).
func (f ModelFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
