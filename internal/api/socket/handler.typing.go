package socket

import (
	"github.com/NAKUL-XD/BitChat/data/events"
	"github.com/NAKUL-XD/BitChat/internal/global"
	jsoniter "github.com/json-iterator/go"
	"github.com/seventv/common/errors"
)

func (s *Session) typingPayload(data jsoniter.RawMessage) (string, events.TypingPayload, error) {
	p, err := decode[events.TypingPayload](data)
	if err != nil {
		return "", p, err
	}

	identity, err := s.actor(p.Identity)
	if err != nil {
		return "", p, err
	}

	if p.ConversationID == "" || p.Target() == "" {
		return "", p, errors.ErrMissingRequiredField().SetDetail("conversationId and targetIdentity")
	}

	return identity, p, nil
}

func (s *Session) handleTypingStart(ctx global.Context, data jsoniter.RawMessage) error {
	identity, p, err := s.typingPayload(data)
	if err != nil {
		return err
	}

	ctx.Inst().Dispatch.TypingStart(identity, p.ConversationID, p.Target())

	return nil
}

func (s *Session) handleTypingStop(ctx global.Context, data jsoniter.RawMessage) error {
	identity, p, err := s.typingPayload(data)
	if err != nil {
		return err
	}

	ctx.Inst().Dispatch.TypingStop(identity, p.ConversationID, p.Target())

	return nil
}
