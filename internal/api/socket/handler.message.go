package socket

import (
	"github.com/NAKUL-XD/BitChat/data/events"
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/NAKUL-XD/BitChat/internal/svc/reconciler"
	jsoniter "github.com/json-iterator/go"
	"github.com/seventv/common/errors"
)

func (s *Session) handleSendMessage(ctx global.Context, data jsoniter.RawMessage) error {
	p, err := decode[events.SendMessagePayload](data)
	if err != nil {
		return err
	}

	sender, err := s.actor(p.SenderID)
	if err != nil {
		return err
	}

	msg, err := ctx.Inst().Dispatch.SendMessage(ctx, reconciler.SendMessageRequest{
		SenderID:       sender,
		ReceiverID:     p.ReceiverID,
		ConversationID: p.ConversationID,
		Content:        p.Content,
		MediaURL:       p.MediaRef,
		ContentType:    p.ContentType,
	})
	if err != nil {
		return err
	}

	return s.Emit(events.EventMessageSent.String(), msg)
}

func (s *Session) handleMarkRead(ctx global.Context, data jsoniter.RawMessage) error {
	p, err := decode[events.MarkReadPayload](data)
	if err != nil {
		return err
	}

	receiver, err := s.actor(p.Identity)
	if err != nil {
		return err
	}

	_, err = ctx.Inst().Dispatch.MarkRead(ctx, receiver, p.MessageIDs)

	return err
}

func (s *Session) handleAddReaction(ctx global.Context, data jsoniter.RawMessage) error {
	p, err := decode[events.ReactionPayload](data)
	if err != nil {
		return err
	}

	identity, err := s.actor(p.Identity)
	if err != nil {
		return err
	}

	_, err = ctx.Inst().Dispatch.React(ctx, identity, p.MessageID, p.Emoji)

	return err
}

func (s *Session) handleDeleteMessage(ctx global.Context, data jsoniter.RawMessage) error {
	p, err := decode[events.DeleteMessagePayload](data)
	if err != nil {
		return err
	}

	if p.MessageID == "" {
		return errors.ErrMissingRequiredField().SetDetail("messageId")
	}

	identity, err := s.actor(p.Identity)
	if err != nil {
		return err
	}

	return ctx.Inst().Dispatch.DeleteMessage(ctx, identity, p.MessageID)
}
