package reconciler

import (
	"context"
	goerrors "errors"

	"github.com/NAKUL-XD/BitChat/data/model"
	"github.com/NAKUL-XD/BitChat/data/store"
	"github.com/NAKUL-XD/BitChat/data/structures"
	"github.com/NAKUL-XD/BitChat/internal/svc/events"
	"github.com/seventv/common/errors"
)

// conversation builds the payload of conv as seen by viewer.
func (r *inst) conversation(ctx context.Context, conv structures.Conversation, viewer string) (model.ConversationModel, error) {
	var last *structures.Message

	ids := append([]string{}, conv.Participants...)

	if conv.LastMessageID != "" {
		msg, err := r.store.GetMessage(ctx, conv.LastMessageID)
		switch {
		case err == nil:
			last = &msg
			ids = append(ids, model.MessageUserIDs(msg)...)
		case goerrors.Is(err, store.ErrNotFound):
			// deleted since, show no preview
		default:
			return model.ConversationModel{}, storeError(err, errors.ErrUnknownMessage())
		}
	}

	users, err := r.resolve(ctx, ids...)
	if err != nil {
		return model.ConversationModel{}, err
	}

	result := r.modelizer.Conversation(conv, users, last)

	if result.UnreadCount, err = r.store.CountUnread(ctx, conv.ID, viewer); err != nil {
		return model.ConversationModel{}, storeError(err, errors.ErrNoItems())
	}

	return result, nil
}

// pair returns the conversation between a and b, creating it on first use.
func (r *inst) pair(ctx context.Context, a, b string) (structures.Conversation, error) {
	if a == "" || b == "" {
		return structures.Conversation{}, errors.ErrMissingRequiredField().SetDetail("participants")
	}

	if a == b {
		return structures.Conversation{}, errors.ErrInvalidRequest().SetDetail("A conversation needs two distinct participants")
	}

	conv, err := r.store.UpsertConversation(ctx, a, b)
	if err != nil {
		return structures.Conversation{}, storeError(err, errors.ErrNoItems())
	}

	return conv, nil
}

func (r *inst) UpsertConversation(ctx context.Context, a, b string) (model.ConversationModel, error) {
	if b != "" && a != b {
		if _, err := r.store.GetUser(ctx, b); err != nil {
			return model.ConversationModel{}, storeError(err, errors.ErrUnknownUser())
		}
	}

	conv, err := r.pair(ctx, a, b)
	if err != nil {
		return model.ConversationModel{}, err
	}

	result, err := r.conversation(ctx, conv, a)
	if err != nil {
		return model.ConversationModel{}, err
	}

	r.publish(ctx, events.EventTypeConversationUp, conv.ID, result)

	return result, nil
}

func (r *inst) Conversations(ctx context.Context, identity string) ([]model.ConversationModel, error) {
	list, err := r.store.ListConversations(ctx, identity)
	if err != nil {
		return nil, storeError(err, errors.ErrNoItems())
	}

	result := make([]model.ConversationModel, len(list))

	for i, conv := range list {
		if result[i], err = r.conversation(ctx, conv, identity); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (r *inst) Messages(ctx context.Context, identity, conversationID string) ([]model.MessageModel, error) {
	conv, err := r.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, storeError(err, errors.ErrNoItems().SetDetail("Conversation not found"))
	}

	if !conv.HasParticipant(identity) {
		return nil, errors.ErrInsufficientPrivilege().SetDetail("Not a participant of this conversation")
	}

	list, err := r.store.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, storeError(err, errors.ErrNoItems())
	}

	return r.messages(ctx, list)
}
