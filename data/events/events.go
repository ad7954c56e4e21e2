package events

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Message is the frame exchanged over a chat socket in both directions.
type Message[D any] struct {
	Event EventName `json:"event"`
	Data  D         `json:"data"`
}

func NewMessage[D any](event EventName, data D) Message[D] {
	return Message[D]{
		Event: event,
		Data:  data,
	}
}

func ConvertMessage[D any](c Message[jsoniter.RawMessage]) (Message[D], error) {
	var d D

	var err error
	if len(c.Data) > 0 {
		err = json.Unmarshal(c.Data, &d)
	}

	return Message[D]{
		Event: c.Event,
		Data:  d,
	}, err
}

// Decode parses an inbound frame, normalising its event name.
func Decode(b []byte) (Message[jsoniter.RawMessage], error) {
	msg := Message[jsoniter.RawMessage]{}
	if err := json.Unmarshal(b, &msg); err != nil {
		return msg, err
	}

	msg.Event = Canonical(string(msg.Event))

	return msg, nil
}

func Encode[D any](msg Message[D]) ([]byte, error) {
	return json.Marshal(msg)
}

type EventName string

const (
	// Inbound

	EventPresenceAnnounce EventName = "presence-announce"
	EventSendMessage      EventName = "send-message"
	EventMarkRead         EventName = "mark-read"
	EventTypingStart      EventName = "typing-start"
	EventTypingStop       EventName = "typing-stop"
	EventAddReaction      EventName = "add-reaction"
	EventDeleteMessage    EventName = "delete-message"
	EventGetUserStatus    EventName = "get-user-status"
	EventLogout           EventName = "logout"
	EventDisconnect       EventName = "disconnect"

	// Outbound

	EventReceiveMessage EventName = "receive-message"
	EventMessageSent    EventName = "message-sent"
	EventStatusUpdate   EventName = "status-update"
	EventReactionUpdate EventName = "reaction-update"
	EventMessageDeleted EventName = "message-deleted"
	EventUserStatus     EventName = "user-status"
	EventUserTyping     EventName = "user-typing"
	EventMessageError   EventName = "message-error"
	EventNewStatus      EventName = "new-status"
	EventStatusDeleted  EventName = "status-deleted"
	EventStatusViewed   EventName = "status-viewed"
)

// legacy names older clients still send
var aliases = map[string]EventName{
	"user-connected": EventPresenceAnnounce,
	"message-read":   EventMarkRead,
}

// Canonical maps snake_case and legacy names onto the kebab-case event names.
func Canonical(name string) EventName {
	name = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", "-"))
	if e, ok := aliases[name]; ok {
		return e
	}

	return EventName(name)
}

func (e EventName) String() string {
	return string(e)
}

type CloseCode uint16

const (
	CloseCodeServerError    CloseCode = 4000 // an error occured on the server's end
	CloseCodeInvalidPayload CloseCode = 4002 // the client sent a payload that couldn't be decoded
	CloseCodeAuthFailure    CloseCode = 4003 // the client could not be authenticated
	CloseCodeRateLimit      CloseCode = 4005 // the client is being rate-limited
	CloseCodeRestart        CloseCode = 4006 // the server is restarting and the client should reconnect
	CloseCodeTimeout        CloseCode = 4008 // the client was idle for too long
	CloseCodeLogout         CloseCode = 4009 // the client logged out
)

func (c CloseCode) String() string {
	switch c {
	case CloseCodeServerError:
		return "Internal Server Error"
	case CloseCodeInvalidPayload:
		return "Invalid Payload"
	case CloseCodeAuthFailure:
		return "Authentication Failed"
	case CloseCodeRateLimit:
		return "Rate limit reached"
	case CloseCodeRestart:
		return "Server is restarting"
	case CloseCodeTimeout:
		return "Timeout"
	case CloseCodeLogout:
		return "Logged out"
	default:
		return "Undocumented Closure"
	}
}
