package reconciler

import (
	"context"
	goerrors "errors"
	"strings"

	"github.com/NAKUL-XD/BitChat/data/model"
	"github.com/NAKUL-XD/BitChat/data/store"
	"github.com/NAKUL-XD/BitChat/data/structures"
	"github.com/NAKUL-XD/BitChat/internal/svc/events"
	"github.com/seventv/common/errors"
	"go.uber.org/zap"
)

type SendMessageRequest struct {
	SenderID   string
	ReceiverID string
	// ConversationID is optional. When set it must match the pair's conversation.
	ConversationID string
	Content        string
	MediaURL       string
	ContentType    structures.ContentType
}

func (req *SendMessageRequest) validate() error {
	if req.SenderID == "" || req.ReceiverID == "" {
		return errors.ErrMissingRequiredField().SetDetail("senderId and receiverId")
	}

	if req.SenderID == req.ReceiverID {
		return errors.ErrInvalidRequest().SetDetail("Cannot send a message to yourself")
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" && req.MediaURL == "" {
		return errors.ErrInvalidRequest().SetDetail("Message must have content or media")
	}

	if req.ContentType == "" {
		if req.MediaURL != "" {
			req.ContentType = structures.ContentTypeImage
		} else {
			req.ContentType = structures.ContentTypeText
		}
	}

	switch {
	case !req.ContentType.Valid():
		return errors.ErrInvalidRequest().SetDetail("Unknown content type %q", req.ContentType)
	case req.ContentType.IsMedia() && req.MediaURL == "":
		return errors.ErrInvalidRequest().SetDetail("Content type %s requires media", req.ContentType)
	}

	return nil
}

func (r *inst) message(ctx context.Context, msg structures.Message) (model.MessageModel, error) {
	users, err := r.resolve(ctx, model.MessageUserIDs(msg)...)
	if err != nil {
		return model.MessageModel{}, err
	}

	return r.modelizer.Message(msg, users), nil
}

func (r *inst) messages(ctx context.Context, list []structures.Message) ([]model.MessageModel, error) {
	ids := []string{}
	for _, msg := range list {
		ids = append(ids, model.MessageUserIDs(msg)...)
	}

	users, err := r.resolve(ctx, ids...)
	if err != nil {
		return nil, err
	}

	result := make([]model.MessageModel, len(list))
	for i, msg := range list {
		result[i] = r.modelizer.Message(msg, users)
	}

	return result, nil
}

func (r *inst) SendMessage(ctx context.Context, req SendMessageRequest) (model.MessageModel, error) {
	if err := req.validate(); err != nil {
		return model.MessageModel{}, err
	}

	if _, err := r.store.GetUser(ctx, req.ReceiverID); err != nil {
		return model.MessageModel{}, storeError(err, errors.ErrUnknownUser().SetDetail("receiver"))
	}

	var conv structures.Conversation

	if req.ConversationID != "" {
		c, err := r.store.GetConversation(ctx, req.ConversationID)
		if err != nil && !goerrors.Is(err, store.ErrNotFound) {
			return model.MessageModel{}, storeError(err, errors.ErrNoItems())
		}

		if err != nil || !c.HasParticipant(req.SenderID) || !c.HasParticipant(req.ReceiverID) {
			return model.MessageModel{}, errors.ErrInvalidRequest().SetDetail("Conversation does not belong to this pair")
		}

		conv = c
	} else {
		c, err := r.pair(ctx, req.SenderID, req.ReceiverID)
		if err != nil {
			return model.MessageModel{}, err
		}

		conv = c
	}

	msg, err := r.store.InsertMessage(ctx, structures.Message{
		ConversationID: conv.ID,
		SenderID:       req.SenderID,
		ReceiverID:     req.ReceiverID,
		Content:        req.Content,
		MediaURL:       req.MediaURL,
		ContentType:    req.ContentType,
		Status:         structures.DeliveryStatusSent,
		CreatedAt:      r.now(),
	})
	if err != nil {
		return model.MessageModel{}, storeError(err, errors.ErrNoItems())
	}

	// the message is already stored, a stale preview is not worth failing the send
	if err := r.store.SetLastMessage(ctx, conv.ID, msg.ID, msg.CreatedAt); err != nil {
		zap.S().Warnw("failed to update last message",
			"conversation_id", conv.ID,
			"message_id", msg.ID,
			"error", err,
		)
	}

	result, err := r.message(ctx, msg)
	if err != nil {
		return model.MessageModel{}, err
	}

	r.publish(ctx, events.EventTypeMessageCreate, msg.ID, result)

	return result, nil
}

func (r *inst) ApplyStatus(ctx context.Context, messageID string, status structures.DeliveryStatus) (model.MessageModel, bool, error) {
	if !status.Valid() {
		return model.MessageModel{}, false, errors.ErrInvalidRequest().SetDetail("Unknown message status %q", status)
	}

	msg, changed, err := r.store.AdvanceStatus(ctx, messageID, status)
	if err != nil {
		return model.MessageModel{}, false, storeError(err, errors.ErrUnknownMessage())
	}

	result, err := r.message(ctx, msg)
	if err != nil {
		return model.MessageModel{}, false, err
	}

	if changed {
		r.publish(ctx, events.EventTypeMessageStatus, msg.ID, result)
	}

	return result, changed, nil
}

func (r *inst) MarkRead(ctx context.Context, receiver string, messageIDs []string) ([]model.MessageModel, error) {
	if len(messageIDs) == 0 {
		return nil, errors.ErrMissingRequiredField().SetDetail("messageIds")
	}

	seen := map[string]bool{}
	found := 0
	changed := []structures.Message{}

	for _, id := range messageIDs {
		if id == "" || seen[id] {
			continue
		}

		seen[id] = true

		msg, err := r.store.GetMessage(ctx, id)
		if goerrors.Is(err, store.ErrNotFound) {
			continue
		} else if err != nil {
			return nil, storeError(err, errors.ErrUnknownMessage())
		}

		found++

		// only the receiver may read a message
		if msg.ReceiverID != receiver {
			continue
		}

		msg, ok, err := r.store.AdvanceStatus(ctx, id, structures.DeliveryStatusRead)
		if err != nil {
			if goerrors.Is(err, store.ErrNotFound) {
				continue
			}

			return nil, storeError(err, errors.ErrUnknownMessage())
		}

		if ok {
			changed = append(changed, msg)
		}
	}

	if found == 0 {
		return nil, errors.ErrUnknownMessage()
	}

	result, err := r.messages(ctx, changed)
	if err != nil {
		return nil, err
	}

	for _, m := range result {
		r.publish(ctx, events.EventTypeMessageStatus, m.ID, m)
	}

	return result, nil
}

func (r *inst) MergeReaction(ctx context.Context, messageID, identity, emoji string) (model.MessageModel, structures.ReactionChange, error) {
	if messageID == "" || emoji == "" {
		return model.MessageModel{}, 0, errors.ErrMissingRequiredField().SetDetail("messageId and emoji")
	}

	for i := 0; i < reactionAttempts; i++ {
		msg, err := r.store.GetMessage(ctx, messageID)
		if err != nil {
			return model.MessageModel{}, 0, storeError(err, errors.ErrUnknownMessage())
		}

		if !msg.IsParticipant(identity) {
			return model.MessageModel{}, 0, errors.ErrInsufficientPrivilege().SetDetail("Only participants may react to this message")
		}

		list, change := structures.MergeReaction(msg.Reactions, identity, emoji)

		msg, err = r.store.SwapReactions(ctx, messageID, msg.Revision, list)
		if goerrors.Is(err, store.ErrConflict) {
			continue
		} else if err != nil {
			return model.MessageModel{}, 0, storeError(err, errors.ErrUnknownMessage())
		}

		result, err := r.message(ctx, msg)
		if err != nil {
			return model.MessageModel{}, 0, err
		}

		r.publish(ctx, events.EventTypeMessageReact, msg.ID, result.Reactions)

		return result, change, nil
	}

	return model.MessageModel{}, 0, errors.ErrInternalServerError().SetDetail("Reaction kept conflicting with concurrent updates")
}

func (r *inst) DeleteMessage(ctx context.Context, identity, messageID string) (model.MessageModel, error) {
	if messageID == "" {
		return model.MessageModel{}, errors.ErrMissingRequiredField().SetDetail("messageId")
	}

	msg, err := r.store.GetMessage(ctx, messageID)
	if err != nil {
		return model.MessageModel{}, storeError(err, errors.ErrUnknownMessage())
	}

	if msg.SenderID != identity {
		return model.MessageModel{}, errors.ErrInsufficientPrivilege().SetDetail("Only the sender may delete this message")
	}

	result, err := r.message(ctx, msg)
	if err != nil {
		return model.MessageModel{}, err
	}

	if err := r.store.DeleteMessage(ctx, messageID); err != nil {
		return model.MessageModel{}, storeError(err, errors.ErrUnknownMessage())
	}

	r.publish(ctx, events.EventTypeMessageDelete, msg.ID, map[string]string{
		"conversation_id": msg.ConversationID,
	})

	return result, nil
}
