package store

import (
	"context"
	goerrors "errors"
	"testing"
	"time"

	"github.com/NAKUL-XD/BitChat/data/structures"
	"github.com/NAKUL-XD/BitChat/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestMemoryConversationPairIsOrderIndependent(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	ab, err := s.UpsertConversation(ctx, "a", "b")
	require.NoError(t, err)

	ba, err := s.UpsertConversation(ctx, "b", "a")
	require.NoError(t, err)

	testutil.Assert(t, ab.ID, ba.ID, "same conversation for both orders")
	require.Equal(t, []string{"a", "b"}, ba.Participants)
}

func TestMemoryAdvanceStatusIsMonotonic(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	msg, err := s.InsertMessage(ctx, structures.Message{SenderID: "a", ReceiverID: "b", Content: "hi"})
	require.NoError(t, err)
	testutil.Assert(t, structures.DeliveryStatusSent, msg.Status, "default status")

	msg, changed, err := s.AdvanceStatus(ctx, msg.ID, structures.DeliveryStatusRead)
	require.NoError(t, err)
	testutil.Assert(t, true, changed, "sent -> read")

	msg, changed, err = s.AdvanceStatus(ctx, msg.ID, structures.DeliveryStatusDelivered)
	require.NoError(t, err)
	testutil.Assert(t, false, changed, "read -> delivered is a no-op")
	testutil.Assert(t, structures.DeliveryStatusRead, msg.Status, "status stays read")

	_, _, err = s.AdvanceStatus(ctx, "missing", structures.DeliveryStatusRead)
	testutil.Assert(t, true, goerrors.Is(err, ErrNotFound), "missing message")
}

func TestMemorySwapReactionsDetectsConflict(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	msg, err := s.InsertMessage(ctx, structures.Message{SenderID: "a", ReceiverID: "b", Content: "hi"})
	require.NoError(t, err)

	updated, err := s.SwapReactions(ctx, msg.ID, msg.Revision, []structures.Reaction{{UserID: "a", Emoji: "👍"}})
	require.NoError(t, err)
	testutil.Assert(t, msg.Revision+1, updated.Revision, "revision bumped")

	_, err = s.SwapReactions(ctx, msg.ID, msg.Revision, nil)
	testutil.Assert(t, true, goerrors.Is(err, ErrConflict), "stale revision")
}

func TestMemoryStatusViewersAreASet(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	now := time.Now()
	post, err := s.InsertStatus(ctx, structures.StatusPost{OwnerID: "a", Content: "hello", ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)

	_, err = s.AddStatusViewer(ctx, post.ID, "b")
	require.NoError(t, err)

	post, err = s.AddStatusViewer(ctx, post.ID, "b")
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, post.Viewers)

	_, err = s.InsertStatus(ctx, structures.StatusPost{OwnerID: "a", ExpiresAt: now.Add(-time.Minute)})
	require.NoError(t, err)

	active, err := s.ListActiveStatuses(ctx, now)
	require.NoError(t, err)
	require.Len(t, active, 1)
}

func TestMemoryFail(t *testing.T) {
	s := NewMemory()
	s.Fail = goerrors.New("down")

	_, err := s.GetMessage(context.Background(), "x")
	testutil.AssertErr(t, s.Fail, err, "fail is returned")
}

func TestMemoryListUsersExcludesCaller(t *testing.T) {
	s := NewMemory()
	s.PutUser(structures.User{ID: "1", Username: "carol"})
	s.PutUser(structures.User{ID: "2", Username: "alice"})
	s.PutUser(structures.User{ID: "3", Username: "bob"})

	users, err := s.ListUsers(context.Background(), "3")
	require.NoError(t, err)
	require.Len(t, users, 2)
	testutil.Assert(t, "alice", users[0].Username, "sorted by username")
	testutil.Assert(t, "carol", users[1].Username, "sorted by username")
}

func TestMemoryCountUnread(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	conv, err := s.UpsertConversation(ctx, "a", "b")
	require.NoError(t, err)

	insert := func(sender, receiver string) structures.Message {
		msg, err := s.InsertMessage(ctx, structures.Message{
			ConversationID: conv.ID,
			SenderID:       sender,
			ReceiverID:     receiver,
			Content:        "hi",
		})
		require.NoError(t, err)

		return msg
	}

	insert("a", "b")
	delivered := insert("a", "b")
	read := insert("a", "b")
	insert("b", "a")

	_, _, err = s.AdvanceStatus(ctx, delivered.ID, structures.DeliveryStatusDelivered)
	require.NoError(t, err)
	_, _, err = s.AdvanceStatus(ctx, read.ID, structures.DeliveryStatusRead)
	require.NoError(t, err)

	n, err := s.CountUnread(ctx, conv.ID, "b")
	require.NoError(t, err)
	testutil.Assert(t, int64(2), n, "sent and delivered count, read does not")

	n, err = s.CountUnread(ctx, conv.ID, "a")
	require.NoError(t, err)
	testutil.Assert(t, int64(1), n, "only messages addressed to the receiver")
}
