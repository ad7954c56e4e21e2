// Package store persists users, conversations, messages and status posts.
package store

import (
	"context"
	goerrors "errors"
	"time"

	"github.com/NAKUL-XD/BitChat/data/structures"
)

var (
	ErrNotFound = goerrors.New("store: not found")
	// ErrConflict is returned when a compare-and-swap lost against a concurrent write.
	ErrConflict = goerrors.New("store: revision conflict")
)

const (
	CollectionNameUsers         = "users"
	CollectionNameConversations = "conversations"
	CollectionNameMessages      = "messages"
	CollectionNameStatuses      = "statuses"
)

type Store interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error

	GetUser(ctx context.Context, id string) (structures.User, error)
	GetUsers(ctx context.Context, ids []string) ([]structures.User, error)
	SetUserPresence(ctx context.Context, id string, online bool, at time.Time) error
	// ListUsers returns every user except exclude, ordered by username.
	ListUsers(ctx context.Context, exclude string) ([]structures.User, error)

	// UpsertConversation returns the conversation for the unordered pair, creating it if absent.
	UpsertConversation(ctx context.Context, a, b string) (structures.Conversation, error)
	GetConversation(ctx context.Context, id string) (structures.Conversation, error)
	ListConversations(ctx context.Context, participant string) ([]structures.Conversation, error)
	SetLastMessage(ctx context.Context, conversationID, messageID string, at time.Time) error

	InsertMessage(ctx context.Context, msg structures.Message) (structures.Message, error)
	GetMessage(ctx context.Context, id string) (structures.Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]structures.Message, error)
	// CountUnread counts the messages of a conversation addressed to receiver that are not read yet.
	CountUnread(ctx context.Context, conversationID, receiver string) (int64, error)
	// AdvanceStatus moves a message forward to status. The boolean is false
	// when the message was already at or past it.
	AdvanceStatus(ctx context.Context, id string, status structures.DeliveryStatus) (structures.Message, bool, error)
	// SwapReactions replaces the reaction list if the message is still at revision rev.
	SwapReactions(ctx context.Context, id string, rev int64, reactions []structures.Reaction) (structures.Message, error)
	DeleteMessage(ctx context.Context, id string) error

	InsertStatus(ctx context.Context, status structures.StatusPost) (structures.StatusPost, error)
	GetStatus(ctx context.Context, id string) (structures.StatusPost, error)
	ListActiveStatuses(ctx context.Context, now time.Time) ([]structures.StatusPost, error)
	AddStatusViewer(ctx context.Context, id, viewer string) (structures.StatusPost, error)
	DeleteStatus(ctx context.Context, id string) error
}

func prepareMessage(msg structures.Message, id string, now time.Time) structures.Message {
	if msg.ID == "" {
		msg.ID = id
	}

	if msg.Status == "" {
		msg.Status = structures.DeliveryStatusSent
	}

	if msg.ContentType == "" {
		msg.ContentType = structures.ContentTypeText
	}

	if msg.Reactions == nil {
		msg.Reactions = []structures.Reaction{}
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}

	msg.UpdatedAt = now

	return msg
}

func prepareStatus(status structures.StatusPost, id string, now time.Time) structures.StatusPost {
	if status.ID == "" {
		status.ID = id
	}

	if status.Viewers == nil {
		status.Viewers = []string{}
	}

	if status.CreatedAt.IsZero() {
		status.CreatedAt = now
	}

	return status
}
