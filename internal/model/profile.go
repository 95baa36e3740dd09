package model

import (
	"slices"
	"time"
)

// StyleProfile holds a user's style preferences. Each user has exactly one.
type StyleProfile struct {
	PreferredStyles  []string  `json:"preferred_styles"`
	PreferredColors  []string  `json:"preferred_colors"`
	DislikedElements []string  `json:"disliked_elements"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ProfileField names one of the style profile lists.
type ProfileField string

// Profile fields.
const (
	ProfileFieldStyles   ProfileField = "styles"
	ProfileFieldColors   ProfileField = "colors"
	ProfileFieldDisliked ProfileField = "disliked"
)

// Valid reports whether f names a profile list.
func (f ProfileField) Valid() bool {
	return f == ProfileFieldStyles || f == ProfileFieldColors || f == ProfileFieldDisliked
}

// DefaultStyleProfile is the profile a user starts with.
func DefaultStyleProfile() StyleProfile {
	return StyleProfile{
		PreferredStyles:  []string{"Minimalist", "Casual"},
		PreferredColors:  []string{"Beige", "Black", "White"},
		DislikedElements: []string{},
	}
}

// List returns a pointer to the list named by f, or nil for an unknown field.
func (p *StyleProfile) List(f ProfileField) *[]string {
	switch f {
	case ProfileFieldStyles:
		return &p.PreferredStyles
	case ProfileFieldColors:
		return &p.PreferredColors
	case ProfileFieldDisliked:
		return &p.DislikedElements
	}
	return nil
}

// Add appends value to the list named by f unless it is already there.
// It reports whether the profile changed.
func (p *StyleProfile) Add(f ProfileField, value string) bool {
	list := p.List(f)
	if list == nil || value == "" || slices.Contains(*list, value) {
		return false
	}
	*list = append(*list, value)
	return true
}

// Remove drops every occurrence of value from the list named by f.
// It reports whether the profile changed.
func (p *StyleProfile) Remove(f ProfileField, value string) bool {
	list := p.List(f)
	if list == nil {
		return false
	}
	n := len(*list)
	*list = slices.DeleteFunc(*list, func(s string) bool { return s == value })
	return len(*list) != n
}
