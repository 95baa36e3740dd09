package model

import "time"

// Status change sources.
const (
	ChangeSourceManual = "manual"
	ChangeSourceTriage = "triage"
)

// StatusChange records one status transition of an item.
type StatusChange struct {
	ID         int64      `json:"id"`
	ItemID     string     `json:"item_id"`
	FromStatus ItemStatus `json:"from_status"`
	ToStatus   ItemStatus `json:"to_status"`
	Source     string     `json:"source"`
	Reason     string     `json:"reason,omitempty"`
	ChangedAt  time.Time  `json:"changed_at"`
	ChangedBy  *int64     `json:"changed_by,omitempty"`
}

// WearEvent records one "worn today" event.
type WearEvent struct {
	ID     int64     `json:"id"`
	ItemID string    `json:"item_id"`
	WornOn string    `json:"worn_on"`
	WornAt time.Time `json:"worn_at"`
}

// ItemHistory is everything that has happened to an item, newest first.
type ItemHistory struct {
	StatusChanges []StatusChange `json:"status_changes"`
	WearEvents    []WearEvent    `json:"wear_events"`
}
