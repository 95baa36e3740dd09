package model

import "time"

// DateLayout is the layout of purchase and wear dates.
const DateLayout = "2006-01-02"

// Item is one physical clothing item in a user's closet.
type Item struct {
	ID            string     `json:"id"`
	UserID        int64      `json:"-"`
	Name          string     `json:"name"`
	Category      Category   `json:"category"`
	Color         string     `json:"color"`
	Material      string     `json:"material"`
	ImageURL      string     `json:"image_url,omitempty"`
	ImageMime     string     `json:"-"`
	PurchaseDate  string     `json:"purchase_date"`
	LastWornDate  *string    `json:"last_worn_date"`
	WearCount     int        `json:"wear_count"`
	Status        ItemStatus `json:"status"`
	ReserveReason string     `json:"reserve_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

// ItemAttrs are the descriptive, user-editable attributes of an item.
type ItemAttrs struct {
	Name     string   `json:"name" validate:"required,max=200"`
	Category Category `json:"category" validate:"required,category"`
	Color    string   `json:"color" validate:"max=100"`
	Material string   `json:"material" validate:"max=100"`
}

// Category is the kind of clothing an item is.
type Category string

// Categories.
const (
	CategoryShirts    Category = "Shirts"
	CategorySkirts    Category = "Skirts"
	CategoryJeans     Category = "Jeans"
	CategoryPajamas   Category = "Pajamas"
	CategorySocks     Category = "Socks"
	CategoryShoes     Category = "Shoes"
	CategoryDresses   Category = "Dresses"
	CategoryOuterwear Category = "Outerwear"
	CategoryOther     Category = "Other"

	// CategoryAll is the list filter that matches every category.
	CategoryAll Category = "All"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryShirts, CategorySkirts, CategoryJeans, CategoryPajamas, CategorySocks,
	CategoryShoes, CategoryDresses, CategoryOuterwear, CategoryOther,
}

// Valid reports whether c is one of the fixed categories. All is not a category.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// ItemStatus is the lifecycle stage of an item.
type ItemStatus string

// Item statuses.
const (
	ItemStatusActive      ItemStatus = "ACTIVE"
	ItemStatusReserved    ItemStatus = "RESERVED"
	ItemStatusDonated     ItemStatus = "DONATED"
	ItemStatusTransformed ItemStatus = "TRANSFORMED"
)

// Valid reports whether s is a known status.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusActive, ItemStatusReserved, ItemStatusDonated, ItemStatusTransformed:
		return true
	}
	return false
}

// CanTransitionTo reports whether an item in status s may move to next.
// Setting the current status again is always allowed, ACTIVE may move
// anywhere, and a shelved item may only be restored to ACTIVE.
func (s ItemStatus) CanTransitionTo(next ItemStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == next || s == ItemStatusActive {
		return true
	}
	return next == ItemStatusActive
}

// ItemFilter narrows a closet listing. Zero values match everything.
type ItemFilter struct {
	Status   ItemStatus
	Category Category
}

// FilterItems returns the items matching f, preserving order.
func FilterItems(items []Item, f ItemFilter) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if f.Status != "" && it.Status != f.Status {
			continue
		}
		if f.Category != "" && f.Category != CategoryAll && it.Category != f.Category {
			continue
		}
		out = append(out, it)
	}
	return out
}

// FormatDate formats t as a calendar date in t's location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
