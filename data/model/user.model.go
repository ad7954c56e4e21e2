package model

import (
	"github.com/NAKUL-XD/BitChat/data/structures"
)

type UserPartialModel struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// UserModel is the full record of the authenticated user.
type UserModel struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	PhoneNumber    string `json:"phone_number,omitempty"`
	PhoneSuffix    string `json:"phone_suffix,omitempty"`
	Email          string `json:"email,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	About          string `json:"about,omitempty"`
	IsVerified     bool   `json:"is_verified"`
	IsOnline       bool   `json:"isOnline"`
	LastSeen       int64  `json:"lastSeen,omitempty"`
	CreatedAt      int64  `json:"createdAt"`
}

// ParticipantModel is a user along with its presence.
type ParticipantModel struct {
	UserPartialModel
	IsOnline bool  `json:"isOnline"`
	LastSeen int64 `json:"lastSeen,omitempty"`
}

// WithPresence replaces the stored online flag with the live one.
func (m ParticipantModel) WithPresence(online bool) ParticipantModel {
	m.IsOnline = online
	if online {
		m.LastSeen = 0
	}

	return m
}

// UserListItemModel is one entry of the user directory: another user and
// the conversation the caller has with them, if any.
type UserListItemModel struct {
	ParticipantModel
	About        string             `json:"about,omitempty"`
	Conversation *ConversationModel `json:"conversation"`
}

type UserStatusModel struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
	LastSeen int64  `json:"lastSeen,omitempty"`
}

func (x *modelizer) User(v structures.User) UserPartialModel {
	return UserPartialModel{
		ID:             v.ID,
		Username:       v.Username,
		ProfilePicture: x.media(v.ProfilePicture),
	}
}

func (x *modelizer) Self(v structures.User) UserModel {
	m := UserModel{
		ID:             v.ID,
		Username:       v.Username,
		PhoneNumber:    v.PhoneNumber,
		PhoneSuffix:    v.PhoneSuffix,
		Email:          v.Email,
		ProfilePicture: x.media(v.ProfilePicture),
		About:          v.About,
		IsVerified:     v.IsVerified,
		IsOnline:       v.IsOnline,
		CreatedAt:      v.CreatedAt.UnixMilli(),
	}

	if !v.LastSeen.IsZero() {
		m.LastSeen = v.LastSeen.UnixMilli()
	}

	return m
}

// Participant reports the durable online flag, callers with a live registry
// should override it with WithPresence.
func (x *modelizer) Participant(v structures.User) ParticipantModel {
	m := ParticipantModel{
		UserPartialModel: x.User(v),
		IsOnline:         v.IsOnline,
	}

	if !v.LastSeen.IsZero() {
		m.LastSeen = v.LastSeen.UnixMilli()
	}

	return m
}

// UserStatus reports online from the caller, since only live presence is authoritative.
func (x *modelizer) UserStatus(v structures.User, online bool) UserStatusModel {
	m := UserStatusModel{
		UserID:   v.ID,
		IsOnline: online,
	}

	if !online && !v.LastSeen.IsZero() {
		m.LastSeen = v.LastSeen.UnixMilli()
	}

	return m
}
