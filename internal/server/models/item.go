package models

import "time"

// Item belongs to exactly one Todolist. CreatedAt is assigned by the store
// on insert and never changes.
type Item struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Content    string    `json:"content"`
	TodolistID string    `json:"todolistId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ItemDraft is the creation input. Content length is bounded by the
// admission pipeline rather than by a tag.
type ItemDraft struct {
	Name       string `json:"name" validate:"required,max=255"`
	Content    string `json:"content"`
	TodolistID string `json:"todolistId" validate:"required,uuid"`
}

// ItemPatch carries the fields to change; nil means "keep".
type ItemPatch struct {
	Name    *string `json:"name,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Apply returns a copy of item with the patch merged in.
func (p ItemPatch) Apply(item Item) Item {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Content != nil {
		item.Content = *p.Content
	}
	return item
}

// UpdateResult acknowledges an update without re-reading the row.
type UpdateResult struct {
	ID       string `json:"id"`
	Affected int64  `json:"affected"`
}
