// Package structures holds the persisted records of the chat domain.
package structures

import "time"

type User struct {
	ID             string    `json:"id" bson:"_id"`
	Username       string    `json:"username" bson:"username"`
	PhoneNumber    string    `json:"phone_number,omitempty" bson:"phone_number,omitempty"`
	PhoneSuffix    string    `json:"phone_suffix,omitempty" bson:"phone_suffix,omitempty"`
	Email          string    `json:"email,omitempty" bson:"email,omitempty"`
	ProfilePicture string    `json:"profile_picture,omitempty" bson:"profile_picture,omitempty"`
	About          string    `json:"about,omitempty" bson:"about,omitempty"`
	IsOnline       bool      `json:"is_online" bson:"is_online"`
	LastSeen       time.Time `json:"last_seen" bson:"last_seen"`
	IsVerified     bool      `json:"is_verified" bson:"is_verified"`
	TokenVersion   float64   `json:"token_version" bson:"token_version"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

// DeletedUser stands in for a participant whose record no longer resolves.
var DeletedUser = User{
	Username: "*DeletedUser",
}

type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeImage ContentType = "image"
	ContentTypeVideo ContentType = "video"
)

func (ct ContentType) IsMedia() bool {
	return ct == ContentTypeImage || ct == ContentTypeVideo
}

func (ct ContentType) Valid() bool {
	return ct == ContentTypeText || ct.IsMedia()
}
