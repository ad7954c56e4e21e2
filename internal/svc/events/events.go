package events

import (
	"context"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type EventType string

const (
	EventTypeUserStatus     EventType = "user.status"
	EventTypeMessageCreate  EventType = "message.create"
	EventTypeMessageStatus  EventType = "message.status"
	EventTypeMessageReact   EventType = "message.reaction"
	EventTypeMessageDelete  EventType = "message.delete"
	EventTypeStatusCreate   EventType = "status.create"
	EventTypeStatusView     EventType = "status.view"
	EventTypeStatusDelete   EventType = "status.delete"
	EventTypeConversationUp EventType = "conversation.upsert"
)

// Message is the envelope published for every domain event.
type Message struct {
	Type      EventType `json:"type"`
	ID        string    `json:"id"`
	Timestamp int64     `json:"t"`
	Data      any       `json:"d"`
}

// Instance publishes domain events for other services to consume.
type Instance interface {
	Publish(ctx context.Context, t EventType, id string, data any) error
	Connected() bool
	Close()
}

type natsInst struct {
	conn   *nats.Conn
	prefix string
}

type Options struct {
	URL    string
	Prefix string
	Name   string
}

func New(ctx context.Context, opt Options) (Instance, error) {
	conn, err := nats.Connect(opt.URL,
		nats.Name(opt.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			zap.S().Warnw("nats disconnected",
				"error", err,
			)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			zap.S().Infow("nats reconnected",
				"url", nc.ConnectedUrl(),
			)
		}),
	)
	if err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		_ = conn.Drain()
	}()

	return &natsInst{
		conn:   conn,
		prefix: strings.TrimSuffix(opt.Prefix, "."),
	}, nil
}

// Subject composes the subject an event is published on.
func Subject(prefix string, t EventType, id string) string {
	parts := []string{}
	if prefix != "" {
		parts = append(parts, prefix)
	}

	parts = append(parts, string(t))
	if id != "" {
		parts = append(parts, id)
	}

	return strings.Join(parts, ".")
}

func (n *natsInst) Publish(ctx context.Context, t EventType, id string, data any) error {
	b, err := json.Marshal(Message{
		Type:      t,
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	})
	if err != nil {
		return err
	}

	return n.conn.Publish(Subject(n.prefix, t, id), b)
}

func (n *natsInst) Connected() bool {
	return n.conn.IsConnected()
}

func (n *natsInst) Close() {
	n.conn.Close()
}

type noop struct{}

// NewNoop returns a publisher that drops everything, for when no bus is configured.
func NewNoop() Instance {
	return noop{}
}

func (noop) Publish(ctx context.Context, t EventType, id string, data any) error {
	return nil
}

func (noop) Connected() bool {
	return true
}

func (noop) Close() {}
