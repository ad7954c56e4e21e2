package model

import (
	"github.com/NAKUL-XD/BitChat/data/structures"
)

type ConversationModel struct {
	ID           string             `json:"id"`
	Participants []ParticipantModel `json:"participants"`
	LastMessage  *MessageModel      `json:"lastMessage"`
	// UnreadCount is the number of messages addressed to the requesting user that are not read yet.
	UnreadCount int64 `json:"unreadCount"`
	CreatedAt   int64 `json:"createdAt"`
	UpdatedAt   int64 `json:"updatedAt"`
}

// WithPresence returns a copy with each participant's online flag taken from online.
func (m ConversationModel) WithPresence(online func(identity string) bool) ConversationModel {
	participants := make([]ParticipantModel, len(m.Participants))
	for i, p := range m.Participants {
		participants[i] = p.WithPresence(online(p.ID))
	}

	m.Participants = participants

	return m
}

func (x *modelizer) Conversation(v structures.Conversation, users UserMap, last *structures.Message) ConversationModel {
	participants := make([]ParticipantModel, len(v.Participants))
	for i, id := range v.Participants {
		participants[i] = x.Participant(users.Get(id))
	}

	var lm *MessageModel
	if last != nil {
		m := x.Message(*last, users)
		lm = &m
	}

	return ConversationModel{
		ID:           v.ID,
		Participants: participants,
		LastMessage:  lm,
		CreatedAt:    v.CreatedAt.UnixMilli(),
		UpdatedAt:    v.UpdatedAt.UnixMilli(),
	}
}
