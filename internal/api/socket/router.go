package socket

import (
	"github.com/NAKUL-XD/BitChat/data/events"
	"github.com/NAKUL-XD/BitChat/internal/global"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type HandlerFunc func(ctx global.Context, data jsoniter.RawMessage) error

// Router maps an inbound event name to the handler that serves it.
type Router map[events.EventName]HandlerFunc

func newRouter(s *Session) Router {
	return Router{
		events.EventPresenceAnnounce: s.handlePresenceAnnounce,
		events.EventSendMessage:      s.handleSendMessage,
		events.EventMarkRead:         s.handleMarkRead,
		events.EventTypingStart:      s.handleTypingStart,
		events.EventTypingStop:       s.handleTypingStop,
		events.EventAddReaction:      s.handleAddReaction,
		events.EventDeleteMessage:    s.handleDeleteMessage,
		events.EventGetUserStatus:    s.handleGetUserStatus,
		events.EventLogout:           s.handleLogout,
		events.EventDisconnect:       s.handleLogout,
	}
}
