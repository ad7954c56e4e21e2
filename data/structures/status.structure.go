package structures

import "time"

// StatusPost is an ephemeral post visible to every user until it expires.
type StatusPost struct {
	ID          string      `json:"id" bson:"_id"`
	OwnerID     string      `json:"owner_id" bson:"owner_id"`
	Content     string      `json:"content,omitempty" bson:"content,omitempty"`
	MediaURL    string      `json:"media_url,omitempty" bson:"media_url,omitempty"`
	ContentType ContentType `json:"content_type" bson:"content_type"`
	Viewers     []string    `json:"viewers" bson:"viewers"`
	CreatedAt   time.Time   `json:"created_at" bson:"created_at"`
	ExpiresAt   time.Time   `json:"expires_at" bson:"expires_at"`
}

func (s StatusPost) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

func (s StatusPost) ViewedBy(identity string) bool {
	for _, v := range s.Viewers {
		if v == identity {
			return true
		}
	}

	return false
}
