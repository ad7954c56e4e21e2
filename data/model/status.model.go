package model

import (
	"github.com/NAKUL-XD/BitChat/data/structures"
)

type StatusModel struct {
	ID          string                 `json:"id"`
	User        UserPartialModel       `json:"user"`
	Content     string                 `json:"content,omitempty"`
	MediaURL    string                 `json:"imageOrVideoUrl,omitempty"`
	ContentType structures.ContentType `json:"contentType"`
	Viewers     []UserPartialModel     `json:"viewers"`
	CreatedAt   int64                  `json:"createdAt"`
	ExpiresAt   int64                  `json:"expiresAt"`
}

func (x *modelizer) Status(v structures.StatusPost, users UserMap) StatusModel {
	viewers := make([]UserPartialModel, len(v.Viewers))
	for i, id := range v.Viewers {
		viewers[i] = x.User(users.Get(id))
	}

	return StatusModel{
		ID:          v.ID,
		User:        x.User(users.Get(v.OwnerID)),
		Content:     v.Content,
		MediaURL:    x.media(v.MediaURL),
		ContentType: v.ContentType,
		Viewers:     viewers,
		CreatedAt:   v.CreatedAt.UnixMilli(),
		ExpiresAt:   v.ExpiresAt.UnixMilli(),
	}
}

// StatusUserIDs lists every identity a status payload needs resolved.
func StatusUserIDs(v structures.StatusPost) []string {
	return append([]string{v.OwnerID}, v.Viewers...)
}
