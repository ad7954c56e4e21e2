package events

import (
	"testing"

	"github.com/NAKUL-XD/BitChat/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestCanonical(t *testing.T) {
	testutil.Assert(t, EventSendMessage, Canonical("send_message"), "snake case")
	testutil.Assert(t, EventSendMessage, Canonical("send-message"), "kebab case")
	testutil.Assert(t, EventPresenceAnnounce, Canonical("user_connected"), "legacy announce")
	testutil.Assert(t, EventMarkRead, Canonical("message_read"), "legacy read")
}

func TestDecode(t *testing.T) {
	msg, err := Decode([]byte(`{"event":"typing_start","data":{"conversationId":"c1","receiverId":"bob"}}`))
	require.NoError(t, err)
	require.Equal(t, EventTypingStart, msg.Event)

	typed, err := ConvertMessage[TypingPayload](msg)
	require.NoError(t, err)
	require.Equal(t, "c1", typed.Data.ConversationID)
	require.Equal(t, "bob", typed.Data.Target())
}

func TestIdentityPayloadForms(t *testing.T) {
	for _, in := range []string{`"alice"`, `{"identity":"alice"}`, `{"userId":"alice"}`} {
		var p IdentityPayload

		require.NoError(t, json.Unmarshal([]byte(in), &p), in)
		require.Equal(t, "alice", p.Identity, in)
	}
}

func TestEncode(t *testing.T) {
	b, err := Encode(NewMessage(EventStatusDeleted, StatusDeletedPayload{StatusID: "s1"}))
	require.NoError(t, err)
	require.JSONEq(t, `{"event":"status-deleted","data":{"statusId":"s1"}}`, string(b))
}
