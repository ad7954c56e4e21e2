// Package dispatch persists chat actions through the reconciler and routes
// the resulting events to whichever participants are live.
package dispatch

import (
	"context"
	"time"

	"github.com/NAKUL-XD/BitChat/data/events"
	"github.com/NAKUL-XD/BitChat/data/model"
	"github.com/NAKUL-XD/BitChat/data/structures"
	"github.com/NAKUL-XD/BitChat/internal/svc/presences"
	"github.com/NAKUL-XD/BitChat/internal/svc/prometheus"
	"github.com/NAKUL-XD/BitChat/internal/svc/reconciler"
	"github.com/NAKUL-XD/BitChat/internal/svc/typing"
	"go.uber.org/zap"
)

type Instance interface {
	// Announce makes h the live handle of identity and tells everyone else.
	Announce(ctx context.Context, identity string, h presences.Handle)
	// Depart tears down identity's presence if h is still its live handle.
	Depart(ctx context.Context, identity string, h presences.Handle) bool

	SendMessage(ctx context.Context, req reconciler.SendMessageRequest) (model.MessageModel, error)
	MarkRead(ctx context.Context, receiver string, messageIDs []string) ([]model.MessageModel, error)
	React(ctx context.Context, identity, messageID, emoji string) (events.ReactionUpdatePayload, error)
	DeleteMessage(ctx context.Context, identity, messageID string) error

	TypingStart(identity, conversationID, target string)
	TypingStop(identity, conversationID, target string)

	UserStatus(ctx context.Context, identity string) (model.UserStatusModel, error)
	Me(ctx context.Context, identity string) (model.UserModel, error)
	Users(ctx context.Context, identity string) ([]model.UserListItemModel, error)

	// OpenConversation returns the conversation between identity and peer, creating it if needed.
	OpenConversation(ctx context.Context, identity, peer string) (model.ConversationModel, error)
	Conversations(ctx context.Context, identity string) ([]model.ConversationModel, error)

	CreateStatus(ctx context.Context, req reconciler.CreateStatusRequest) (model.StatusModel, error)
	ViewStatus(ctx context.Context, viewer, statusID string) (model.StatusModel, error)
	DeleteStatus(ctx context.Context, identity, statusID string) error
}

type Options struct {
	Presences  presences.Instance
	Typing     typing.Instance
	Reconciler reconciler.Instance
	Metrics    prometheus.Instance
	Now        func() time.Time
}

type inst struct {
	presences  presences.Instance
	typing     typing.Instance
	reconciler reconciler.Instance
	metrics    prometheus.Instance
	now        func() time.Time
}

func New(opt Options) Instance {
	if opt.Now == nil {
		opt.Now = time.Now
	}

	return &inst{
		presences:  opt.Presences,
		typing:     opt.Typing,
		reconciler: opt.Reconciler,
		metrics:    opt.Metrics,
		now:        opt.Now,
	}
}

// TypingNotifier delivers typing changes to the target's live handle.
func TypingNotifier(p presences.Instance, m prometheus.Instance) typing.Notifier {
	return func(target string, n typing.Notification) {
		push(p, m, target, events.EventUserTyping, n)
	}
}

// push emits to the live handle of target. A false result is a delivery miss.
func push(p presences.Instance, m prometheus.Instance, target string, event events.EventName, payload any) bool {
	h, ok := p.Get(target)
	if !ok {
		return false
	}

	if err := h.Emit(event.String(), payload); err != nil {
		m.PushDropped(event.String())
		zap.S().Debugw("push dropped",
			"target", target,
			"event", event,
			"error", err,
		)

		return false
	}

	m.PushSent(event.String())

	return true
}

func (d *inst) push(target string, event events.EventName, payload any) bool {
	return push(d.presences, d.metrics, target, event, payload)
}

func (d *inst) broadcast(event events.EventName, payload any, exclude string) {
	if err := d.presences.BroadcastAll(event.String(), payload, exclude); err != nil {
		zap.S().Debugw("broadcast incomplete",
			"event", event,
			"error", err,
		)
	}
}

func (d *inst) Announce(ctx context.Context, identity string, h presences.Handle) {
	d.presences.SetOnline(identity, h)
	d.metrics.SetOnline(d.presences.Count())

	d.broadcast(events.EventUserStatus, model.UserStatusModel{
		UserID:   identity,
		IsOnline: true,
	}, identity)
}

func (d *inst) Depart(ctx context.Context, identity string, h presences.Handle) bool {
	if !d.presences.RemoveHandle(identity, h) {
		return false
	}

	d.metrics.SetOnline(d.presences.Count())
	d.typing.ClearAll(identity)

	d.broadcast(events.EventUserStatus, model.UserStatusModel{
		UserID:   identity,
		IsOnline: false,
		LastSeen: d.now().UnixMilli(),
	}, identity)

	return true
}

func (d *inst) SendMessage(ctx context.Context, req reconciler.SendMessageRequest) (model.MessageModel, error) {
	msg, err := d.reconciler.SendMessage(ctx, req)
	if err != nil {
		return model.MessageModel{}, err
	}

	if !d.push(msg.Receiver.ID, events.EventReceiveMessage, msg) {
		return msg, nil
	}

	delivered, _, err := d.reconciler.ApplyStatus(ctx, msg.ID, structures.DeliveryStatusDelivered)
	if err != nil {
		zap.S().Errorw("failed to mark message delivered",
			"message_id", msg.ID,
			"error", err,
		)

		return msg, nil
	}

	return delivered, nil
}

func (d *inst) MarkRead(ctx context.Context, receiver string, messageIDs []string) ([]model.MessageModel, error) {
	list, err := d.reconciler.MarkRead(ctx, receiver, messageIDs)
	if err != nil {
		return nil, err
	}

	for _, msg := range list {
		d.push(msg.Sender.ID, events.EventStatusUpdate, events.StatusUpdatePayload{
			MessageID:  msg.ID,
			Status:     msg.Status,
			ReceiverID: receiver,
		})
	}

	return list, nil
}

func (d *inst) React(ctx context.Context, identity, messageID, emoji string) (events.ReactionUpdatePayload, error) {
	msg, _, err := d.reconciler.MergeReaction(ctx, messageID, identity, emoji)
	if err != nil {
		return events.ReactionUpdatePayload{}, err
	}

	payload := events.ReactionUpdatePayload{
		MessageID: msg.ID,
		Reactions: msg.Reactions,
	}

	d.push(msg.Sender.ID, events.EventReactionUpdate, payload)
	d.push(msg.Receiver.ID, events.EventReactionUpdate, payload)

	return payload, nil
}

func (d *inst) DeleteMessage(ctx context.Context, identity, messageID string) error {
	msg, err := d.reconciler.DeleteMessage(ctx, identity, messageID)
	if err != nil {
		return err
	}

	d.push(msg.Receiver.ID, events.EventMessageDeleted, events.MessageDeletedPayload{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
	})

	return nil
}

func (d *inst) TypingStart(identity, conversationID, target string) {
	d.typing.Start(identity, conversationID, target)
}

func (d *inst) TypingStop(identity, conversationID, target string) {
	d.typing.Stop(identity, conversationID, target)
}

func (d *inst) UserStatus(ctx context.Context, identity string) (model.UserStatusModel, error) {
	return d.reconciler.UserStatus(ctx, identity, d.presences.Online(identity))
}

func (d *inst) Me(ctx context.Context, identity string) (model.UserModel, error) {
	me, err := d.reconciler.Me(ctx, identity)
	if err != nil {
		return model.UserModel{}, err
	}

	if me.IsOnline = d.presences.Online(identity); me.IsOnline {
		me.LastSeen = 0
	}

	return me, nil
}

func (d *inst) Users(ctx context.Context, identity string) ([]model.UserListItemModel, error) {
	list, err := d.reconciler.Users(ctx, identity)
	if err != nil {
		return nil, err
	}

	for i, u := range list {
		list[i].ParticipantModel = u.ParticipantModel.WithPresence(d.presences.Online(u.ID))

		if u.Conversation != nil {
			conv := u.Conversation.WithPresence(d.presences.Online)
			list[i].Conversation = &conv
		}
	}

	return list, nil
}

func (d *inst) OpenConversation(ctx context.Context, identity, peer string) (model.ConversationModel, error) {
	conv, err := d.reconciler.UpsertConversation(ctx, identity, peer)
	if err != nil {
		return model.ConversationModel{}, err
	}

	return conv.WithPresence(d.presences.Online), nil
}

func (d *inst) Conversations(ctx context.Context, identity string) ([]model.ConversationModel, error) {
	list, err := d.reconciler.Conversations(ctx, identity)
	if err != nil {
		return nil, err
	}

	for i, conv := range list {
		list[i] = conv.WithPresence(d.presences.Online)
	}

	return list, nil
}

func (d *inst) CreateStatus(ctx context.Context, req reconciler.CreateStatusRequest) (model.StatusModel, error) {
	s, err := d.reconciler.CreateStatus(ctx, req)
	if err != nil {
		return model.StatusModel{}, err
	}

	d.broadcast(events.EventNewStatus, s, req.OwnerID)

	return s, nil
}

func (d *inst) ViewStatus(ctx context.Context, viewer, statusID string) (model.StatusModel, error) {
	s, added, err := d.reconciler.ViewStatus(ctx, viewer, statusID)
	if err != nil {
		return model.StatusModel{}, err
	}

	if added && s.User.ID != viewer {
		d.push(s.User.ID, events.EventStatusViewed, events.StatusViewedPayload{
			StatusID:     s.ID,
			ViewerID:     viewer,
			TotalViewers: len(s.Viewers),
			Viewers:      s.Viewers,
		})
	}

	return s, nil
}

func (d *inst) DeleteStatus(ctx context.Context, identity, statusID string) error {
	if err := d.reconciler.DeleteStatus(ctx, identity, statusID); err != nil {
		return err
	}

	d.broadcast(events.EventStatusDeleted, events.StatusDeletedPayload{
		StatusID: statusID,
	}, identity)

	return nil
}
