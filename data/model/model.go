package model

import (
	"strings"

	"github.com/NAKUL-XD/BitChat/data/structures"
)

// Modelizer turns persisted records into the self-contained payloads sent to clients.
type Modelizer interface {
	User(v structures.User) UserPartialModel
	Self(v structures.User) UserModel
	Participant(v structures.User) ParticipantModel
	UserStatus(v structures.User, online bool) UserStatusModel
	Message(v structures.Message, users UserMap) MessageModel
	Conversation(v structures.Conversation, users UserMap, last *structures.Message) ConversationModel
	Status(v structures.StatusPost, users UserMap) StatusModel
}

type modelizer struct {
	mediaURL string
}

func NewInstance(opt ModelInstanceOptions) Modelizer {
	return &modelizer{
		mediaURL: strings.TrimSuffix(opt.MediaURL, "/"),
	}
}

type ModelInstanceOptions struct {
	// MediaURL prefixes media keys that are not already absolute URLs.
	MediaURL string
}

// UserMap indexes resolved participants by id.
type UserMap map[string]structures.User

func (m UserMap) Get(id string) structures.User {
	if u, ok := m[id]; ok {
		return u
	}

	u := structures.DeletedUser
	u.ID = id

	return u
}

func (x *modelizer) media(key string) string {
	if key == "" || x.mediaURL == "" {
		return key
	}

	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}

	return x.mediaURL + "/" + strings.TrimPrefix(key, "/")
}
