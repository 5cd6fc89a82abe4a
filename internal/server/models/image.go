package models

import "time"

// Image is a media-store object owned by a user.
type Image struct {
	ID         string    `json:"id"`
	UserID     string    `json:"-"`
	StorageKey string    `json:"key"`
	URL        string    `json:"imageUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
