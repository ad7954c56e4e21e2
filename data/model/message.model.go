package model

import (
	"github.com/NAKUL-XD/BitChat/data/structures"
)

type MessageModel struct {
	ID             string                    `json:"id"`
	ConversationID string                    `json:"conversationId"`
	Sender         UserPartialModel          `json:"sender"`
	Receiver       UserPartialModel          `json:"receiver"`
	Content        string                    `json:"content,omitempty"`
	MediaURL       string                    `json:"imageOrVideoUrl,omitempty"`
	ContentType    structures.ContentType    `json:"contentType"`
	Status         structures.DeliveryStatus `json:"messageStatus"`
	Reactions      []ReactionModel           `json:"reactions"`
	CreatedAt      int64                     `json:"createdAt"`
	UpdatedAt      int64                     `json:"updatedAt"`
}

type ReactionModel struct {
	User  UserPartialModel `json:"user"`
	Emoji string           `json:"emoji"`
}

func (x *modelizer) Message(v structures.Message, users UserMap) MessageModel {
	reactions := make([]ReactionModel, len(v.Reactions))
	for i, r := range v.Reactions {
		reactions[i] = ReactionModel{
			User:  x.User(users.Get(r.UserID)),
			Emoji: r.Emoji,
		}
	}

	return MessageModel{
		ID:             v.ID,
		ConversationID: v.ConversationID,
		Sender:         x.User(users.Get(v.SenderID)),
		Receiver:       x.User(users.Get(v.ReceiverID)),
		Content:        v.Content,
		MediaURL:       x.media(v.MediaURL),
		ContentType:    v.ContentType,
		Status:         v.Status,
		Reactions:      reactions,
		CreatedAt:      v.CreatedAt.UnixMilli(),
		UpdatedAt:      v.UpdatedAt.UnixMilli(),
	}
}

// MessageUserIDs lists every identity a message payload needs resolved.
func MessageUserIDs(v structures.Message) []string {
	ids := []string{v.SenderID, v.ReceiverID}
	for _, r := range v.Reactions {
		ids = append(ids, r.UserID)
	}

	return ids
}
