package structures

import (
	"sort"
	"time"
)

type Conversation struct {
	ID            string    `json:"id" bson:"_id"`
	Participants  []string  `json:"participants" bson:"participants"`
	PairKey       string    `json:"-" bson:"pair_key"`
	LastMessageID string    `json:"last_message_id,omitempty" bson:"last_message_id,omitempty"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// ParticipantPair orders two identities so (a, b) and (b, a) are the same pair.
func ParticipantPair(a, b string) [2]string {
	p := []string{a, b}
	sort.Strings(p)

	return [2]string{p[0], p[1]}
}

// PairKey is the unique key of a conversation between a and b.
func PairKey(a, b string) string {
	p := ParticipantPair(a, b)

	return p[0] + ":" + p[1]
}

func (c Conversation) HasParticipant(identity string) bool {
	for _, p := range c.Participants {
		if p == identity {
			return true
		}
	}

	return false
}

// Counterpart returns the participant that is not identity.
func (c Conversation) Counterpart(identity string) string {
	for _, p := range c.Participants {
		if p != identity {
			return p
		}
	}

	return ""
}
