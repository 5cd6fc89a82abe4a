package models

import "time"

// Image is an uploaded image record. URL is a short-lived presigned link.
type Image struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	URL       string    `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Upload is a presigned upload target.
type Upload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
