package socket

import (
	"github.com/NAKUL-XD/BitChat/data/events"
	"github.com/NAKUL-XD/BitChat/internal/global"
	jsoniter "github.com/json-iterator/go"
	"github.com/seventv/common/errors"
)

// actor resolves the identity an event claims to act as. Sessions may only act as themselves.
func (s *Session) actor(claimed string) (string, error) {
	identity := s.Identity()

	if claimed != "" && claimed != identity {
		return "", errors.ErrInsufficientPrivilege().SetDetail("Cannot act as another user")
	}

	return identity, nil
}

func (s *Session) handlePresenceAnnounce(ctx global.Context, data jsoniter.RawMessage) error {
	p, err := decode[events.IdentityPayload](data)
	if err != nil {
		return err
	}

	identity, err := s.actor(p.Identity)
	if err != nil {
		return err
	}

	s.setState(StateAnnounced)
	ctx.Inst().Dispatch.Announce(ctx, identity, s)

	return nil
}

func (s *Session) handleGetUserStatus(ctx global.Context, data jsoniter.RawMessage) error {
	p, err := decode[events.IdentityPayload](data)
	if err != nil {
		return err
	}

	if p.Identity == "" {
		return errors.ErrMissingRequiredField().SetDetail("identity")
	}

	status, err := ctx.Inst().Dispatch.UserStatus(ctx, p.Identity)
	if err != nil {
		return err
	}

	return s.Emit(events.EventUserStatus.String(), status)
}

func (s *Session) handleLogout(ctx global.Context, data jsoniter.RawMessage) error {
	return errLogout
}
