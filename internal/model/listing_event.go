package model

import "time"

const (
	ListingEventCreated = "listing.created"
	ListingEventDeleted = "listing.deleted"
)

// ListingEvent is published to the broker after a listing is created or deleted.
type ListingEvent struct {
	Type       string    `json:"type"`
	ListingID  uint      `json:"listing_id"`
	OwnerID    uint      `json:"owner_id"`
	ImageURLs  []string  `json:"image_urls"`
	OccurredAt time.Time `json:"occurred_at"`
}
