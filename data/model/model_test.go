package model

import (
	"testing"
	"time"

	"github.com/NAKUL-XD/BitChat/data/structures"
	"github.com/NAKUL-XD/BitChat/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestMessageModelResolvesParticipants(t *testing.T) {
	m := NewInstance(ModelInstanceOptions{MediaURL: "https://cdn.example.com/"})

	users := UserMap{
		"a": {ID: "a", Username: "alice", ProfilePicture: "avatars/a.png"},
		"b": {ID: "b", Username: "bob"},
	}

	now := time.Now()
	msg := m.Message(structures.Message{
		ID:          "m1",
		SenderID:    "a",
		ReceiverID:  "b",
		MediaURL:    "media/m1.jpg",
		ContentType: structures.ContentTypeImage,
		Status:      structures.DeliveryStatusSent,
		Reactions:   []structures.Reaction{{UserID: "c", Emoji: "👍"}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, users)

	testutil.Assert(t, "alice", msg.Sender.Username, "sender username")
	testutil.Assert(t, "https://cdn.example.com/avatars/a.png", msg.Sender.ProfilePicture, "sender picture")
	testutil.Assert(t, "https://cdn.example.com/media/m1.jpg", msg.MediaURL, "media url")
	testutil.Assert(t, "bob", msg.Receiver.Username, "receiver username")
	require.Len(t, msg.Reactions, 1)
	testutil.Assert(t, "c", msg.Reactions[0].User.ID, "unresolved reactor keeps its id")
	testutil.Assert(t, structures.DeletedUser.Username, msg.Reactions[0].User.Username, "unresolved reactor")
}

func TestUserStatusOmitsLastSeenWhenOnline(t *testing.T) {
	m := NewInstance(ModelInstanceOptions{})
	u := structures.User{ID: "a", LastSeen: time.UnixMilli(1000)}

	testutil.Assert(t, int64(0), m.UserStatus(u, true).LastSeen, "online")
	testutil.Assert(t, int64(1000), m.UserStatus(u, false).LastSeen, "offline")
}

func TestConversationParticipantsCarryPresence(t *testing.T) {
	m := NewInstance(ModelInstanceOptions{})

	users := UserMap{
		"a": {ID: "a", Username: "alice", IsOnline: true},
		"b": {ID: "b", Username: "bob", LastSeen: time.UnixMilli(2000)},
	}

	conv := m.Conversation(structures.Conversation{ID: "c1", Participants: []string{"a", "b"}}, users, nil)
	require.Len(t, conv.Participants, 2)
	testutil.Assert(t, true, conv.Participants[0].IsOnline, "stored flag")
	testutil.Assert(t, int64(2000), conv.Participants[1].LastSeen, "stored last seen")

	live := conv.WithPresence(func(id string) bool { return id == "b" })
	testutil.Assert(t, false, live.Participants[0].IsOnline, "live registry wins over a stale flag")
	testutil.Assert(t, true, live.Participants[1].IsOnline, "live")
	testutil.Assert(t, int64(0), live.Participants[1].LastSeen, "no last seen while online")
	testutil.Assert(t, true, conv.Participants[0].IsOnline, "original is untouched")
}
