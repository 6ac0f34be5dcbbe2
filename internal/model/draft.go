package model

import "time"

// ComposeDraft is the single pending "send with text" handoff between a
// triggering action and the popup that completes it. There is at most one
// draft at a time; a new draft overwrites the previous one.
type ComposeDraft struct {
	URL          string    `json:"url"`
	Text         string    `json:"text"`
	ForceRefresh bool      `json:"forceRefresh"`
	Source       string    `json:"source"`
	CreatedAt    time.Time `json:"createdAt"`
}
