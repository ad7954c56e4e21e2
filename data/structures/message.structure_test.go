package structures

import (
	"testing"

	"github.com/NAKUL-XD/BitChat/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestDeliveryStatusOrder(t *testing.T) {
	testutil.Assert(t, true, DeliveryStatusDelivered.Advances(DeliveryStatusSent), "sent -> delivered")
	testutil.Assert(t, true, DeliveryStatusRead.Advances(DeliveryStatusSent), "sent -> read")
	testutil.Assert(t, false, DeliveryStatusDelivered.Advances(DeliveryStatusRead), "read -> delivered")
	testutil.Assert(t, false, DeliveryStatusRead.Advances(DeliveryStatusRead), "read -> read")
	testutil.Assert(t, false, DeliveryStatus("seen").Valid(), "unknown status")

	require.Equal(t, []DeliveryStatus{DeliveryStatusSent, DeliveryStatusDelivered}, DeliveryStatusRead.Lower())
	require.Empty(t, DeliveryStatusSent.Lower())
}

func TestMergeReaction(t *testing.T) {
	var list []Reaction

	list, change := MergeReaction(list, "a", "👍")
	testutil.Assert(t, ReactionAdded, change, "first reaction")
	require.Equal(t, []Reaction{{UserID: "a", Emoji: "👍"}}, list)

	list, change = MergeReaction(list, "b", "😂")
	testutil.Assert(t, ReactionAdded, change, "other user")
	require.Len(t, list, 2)

	list, change = MergeReaction(list, "a", "❤️")
	testutil.Assert(t, ReactionReplaced, change, "different emoji")
	require.Equal(t, []Reaction{{UserID: "a", Emoji: "❤️"}, {UserID: "b", Emoji: "😂"}}, list)

	list, change = MergeReaction(list, "a", "❤️")
	testutil.Assert(t, ReactionRemoved, change, "same emoji")
	require.Equal(t, []Reaction{{UserID: "b", Emoji: "😂"}}, list)
}

func TestMergeReactionDoesNotMutateInput(t *testing.T) {
	in := []Reaction{{UserID: "a", Emoji: "👍"}}

	out, _ := MergeReaction(in, "a", "🔥")

	testutil.Assert(t, "👍", in[0].Emoji, "input untouched")
	testutil.Assert(t, "🔥", out[0].Emoji, "output replaced")
}

func TestParticipantPair(t *testing.T) {
	testutil.Assert(t, ParticipantPair("bob", "alice"), ParticipantPair("alice", "bob"), "pair order")
	testutil.Assert(t, PairKey("bob", "alice"), PairKey("alice", "bob"), "pair key order")

	c := Conversation{Participants: []string{"alice", "bob"}}
	testutil.Assert(t, "bob", c.Counterpart("alice"), "counterpart")
	testutil.Assert(t, false, c.HasParticipant("carol"), "not a participant")
}
