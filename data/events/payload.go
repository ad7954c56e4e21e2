package events

import (
	"bytes"

	"github.com/NAKUL-XD/BitChat/data/model"
	"github.com/NAKUL-XD/BitChat/data/structures"
)

// IdentityPayload carries a single identity. Older clients send it as a bare string.
type IdentityPayload struct {
	Identity string `json:"identity"`
}

func (p *IdentityPayload) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &p.Identity)
	}

	type raw struct {
		Identity string `json:"identity"`
		UserID   string `json:"userId"`
	}

	var r raw
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}

	p.Identity = r.Identity
	if p.Identity == "" {
		p.Identity = r.UserID
	}

	return nil
}

type SendMessagePayload struct {
	SenderID       string                 `json:"senderId"`
	ReceiverID     string                 `json:"receiverId"`
	ConversationID string                 `json:"conversationId"`
	Content        string                 `json:"content"`
	MediaRef       string                 `json:"mediaRef"`
	ContentType    structures.ContentType `json:"contentType"`
}

type MarkReadPayload struct {
	MessageIDs []string `json:"messageIds"`
	Identity   string   `json:"identity"`
}

type TypingPayload struct {
	Identity       string `json:"identity"`
	ConversationID string `json:"conversationId"`
	TargetIdentity string `json:"targetIdentity"`
	ReceiverID     string `json:"receiverId"`
}

// Target is the identity that should see the indicator.
func (p TypingPayload) Target() string {
	if p.TargetIdentity != "" {
		return p.TargetIdentity
	}

	return p.ReceiverID
}

type ReactionPayload struct {
	MessageID string `json:"messageId"`
	Identity  string `json:"identity"`
	Emoji     string `json:"emoji"`
}

type DeleteMessagePayload struct {
	MessageID string `json:"messageId"`
	Identity  string `json:"identity"`
}

type StatusUpdatePayload struct {
	MessageID  string                    `json:"messageId"`
	Status     structures.DeliveryStatus `json:"messageStatus"`
	ReceiverID string                    `json:"receiverId"`
}

type ReactionUpdatePayload struct {
	MessageID string                `json:"messageId"`
	Reactions []model.ReactionModel `json:"reactions"`
}

type MessageDeletedPayload struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
}

type StatusDeletedPayload struct {
	StatusID string `json:"statusId"`
}

type StatusViewedPayload struct {
	StatusID     string                   `json:"statusId"`
	ViewerID     string                   `json:"viewerId"`
	TotalViewers int                      `json:"totalViewers"`
	Viewers      []model.UserPartialModel `json:"viewers"`
}

// ErrorPayload acknowledges a failed inbound event to the connection that sent it.
type ErrorPayload struct {
	Event     EventName      `json:"event"`
	Error     string         `json:"error"`
	ErrorCode int            `json:"error_code"`
	Details   map[string]any `json:"details,omitempty"`
}
