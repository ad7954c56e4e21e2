package structures

import (
	"time"
)

type Message struct {
	ID             string         `json:"id" bson:"_id"`
	ConversationID string         `json:"conversation_id" bson:"conversation_id"`
	SenderID       string         `json:"sender_id" bson:"sender_id"`
	ReceiverID     string         `json:"receiver_id" bson:"receiver_id"`
	Content        string         `json:"content,omitempty" bson:"content,omitempty"`
	MediaURL       string         `json:"media_url,omitempty" bson:"media_url,omitempty"`
	ContentType    ContentType    `json:"content_type" bson:"content_type"`
	Status         DeliveryStatus `json:"status" bson:"status"`
	Reactions      []Reaction     `json:"reactions" bson:"reactions"`
	// Revision is bumped on every reaction write and guards compare-and-swap updates.
	Revision  int64     `json:"revision" bson:"rev"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// IsParticipant reports whether the identity sent or receives the message.
func (m Message) IsParticipant(identity string) bool {
	return identity != "" && (m.SenderID == identity || m.ReceiverID == identity)
}

type Reaction struct {
	UserID string `json:"user_id" bson:"user_id"`
	Emoji  string `json:"emoji" bson:"emoji"`
}

// DeliveryStatus only ever moves forward: sent, then delivered, then read.
type DeliveryStatus string

const (
	DeliveryStatusSent      DeliveryStatus = "sent"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusRead      DeliveryStatus = "read"
)

var deliveryStatusOrder = []DeliveryStatus{
	DeliveryStatusSent,
	DeliveryStatusDelivered,
	DeliveryStatusRead,
}

// Rank is the position of the status in the delivery order, or 0 if unknown.
func (s DeliveryStatus) Rank() int {
	for i, v := range deliveryStatusOrder {
		if v == s {
			return i + 1
		}
	}

	return 0
}

func (s DeliveryStatus) Valid() bool {
	return s.Rank() > 0
}

// Lower lists every status that may advance to s.
func (s DeliveryStatus) Lower() []DeliveryStatus {
	r := s.Rank()
	if r <= 1 {
		return []DeliveryStatus{}
	}

	result := make([]DeliveryStatus, r-1)
	copy(result, deliveryStatusOrder[:r-1])

	return result
}

// Advances reports whether moving from prev to s is a forward transition.
func (s DeliveryStatus) Advances(prev DeliveryStatus) bool {
	return s.Rank() > prev.Rank()
}

type ReactionChange uint8

const (
	ReactionAdded ReactionChange = iota + 1
	ReactionReplaced
	ReactionRemoved
)

func (c ReactionChange) String() string {
	switch c {
	case ReactionAdded:
		return "added"
	case ReactionReplaced:
		return "replaced"
	case ReactionRemoved:
		return "removed"
	}

	return "unknown"
}

// MergeReaction applies one user's reaction to a list without mutating it.
// The same emoji again removes the reaction, a different one replaces it,
// and a user without a reaction gets one appended.
func MergeReaction(list []Reaction, userID, emoji string) ([]Reaction, ReactionChange) {
	result := make([]Reaction, 0, len(list)+1)
	change := ReactionAdded

	for _, r := range list {
		if r.UserID != userID {
			result = append(result, r)
			continue
		}

		if r.Emoji == emoji {
			change = ReactionRemoved
			continue
		}

		if change == ReactionAdded {
			change = ReactionReplaced
			result = append(result, Reaction{UserID: userID, Emoji: emoji})
		}
	}

	if change == ReactionAdded {
		result = append(result, Reaction{UserID: userID, Emoji: emoji})
	}

	return result, change
}
