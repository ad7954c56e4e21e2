// Package reconciler applies chat mutations to the durable store and
// re-derives the canonical payloads pushed to clients.
package reconciler

import (
	"context"
	goerrors "errors"
	"time"

	"github.com/NAKUL-XD/BitChat/data/model"
	"github.com/NAKUL-XD/BitChat/data/store"
	"github.com/NAKUL-XD/BitChat/data/structures"
	"github.com/NAKUL-XD/BitChat/internal/svc/events"
	"github.com/patrickmn/go-cache"
	"github.com/seventv/common/errors"
	"go.uber.org/zap"
)

// reactionAttempts bounds the compare-and-swap loop of MergeReaction.
const reactionAttempts = 3

type Instance interface {
	// SetPresence writes the advisory online flag and last seen time.
	SetPresence(ctx context.Context, identity string, online bool, at time.Time) error
	UserStatus(ctx context.Context, identity string, online bool) (model.UserStatusModel, error)
	Me(ctx context.Context, identity string) (model.UserModel, error)
	// Users lists everyone but identity, each with the conversation identity has with them.
	Users(ctx context.Context, identity string) ([]model.UserListItemModel, error)

	UpsertConversation(ctx context.Context, a, b string) (model.ConversationModel, error)
	Conversations(ctx context.Context, identity string) ([]model.ConversationModel, error)
	// Messages lists a conversation's messages. Reading never changes delivery status.
	Messages(ctx context.Context, identity, conversationID string) ([]model.MessageModel, error)

	SendMessage(ctx context.Context, req SendMessageRequest) (model.MessageModel, error)
	// ApplyStatus moves a message forward. The boolean is false when nothing changed.
	ApplyStatus(ctx context.Context, messageID string, status structures.DeliveryStatus) (model.MessageModel, bool, error)
	// MarkRead marks the messages addressed to receiver as read and returns those that changed.
	MarkRead(ctx context.Context, receiver string, messageIDs []string) ([]model.MessageModel, error)
	MergeReaction(ctx context.Context, messageID, identity, emoji string) (model.MessageModel, structures.ReactionChange, error)
	DeleteMessage(ctx context.Context, identity, messageID string) (model.MessageModel, error)

	CreateStatus(ctx context.Context, req CreateStatusRequest) (model.StatusModel, error)
	Statuses(ctx context.Context) ([]model.StatusModel, error)
	ViewStatus(ctx context.Context, viewer, statusID string) (model.StatusModel, bool, error)
	DeleteStatus(ctx context.Context, identity, statusID string) error
}

type Options struct {
	Store     store.Store
	Modelizer model.Modelizer
	// Events receives a copy of every mutation. Optional.
	Events events.Instance
	// CacheTTL is how long resolved display fields are reused.
	CacheTTL  time.Duration
	StatusTTL time.Duration
	Now       func() time.Time
}

type inst struct {
	store     store.Store
	modelizer model.Modelizer
	events    events.Instance
	users     *cache.Cache
	statusTTL time.Duration
	now       func() time.Time
}

func New(opt Options) Instance {
	if opt.Events == nil {
		opt.Events = events.NewNoop()
	}

	if opt.CacheTTL <= 0 {
		opt.CacheTTL = time.Minute
	}

	if opt.StatusTTL <= 0 {
		opt.StatusTTL = 24 * time.Hour
	}

	if opt.Now == nil {
		opt.Now = time.Now
	}

	return &inst{
		store:     opt.Store,
		modelizer: opt.Modelizer,
		events:    opt.Events,
		users:     cache.New(opt.CacheTTL, 5*opt.CacheTTL),
		statusTTL: opt.StatusTTL,
		now:       opt.Now,
	}
}

// storeError turns a store failure into the error reported to the caller.
func storeError(err error, notFound errors.APIError) error {
	if goerrors.Is(err, store.ErrNotFound) {
		return notFound
	}

	return errors.ErrInternalServerError().SetDetail(err.Error())
}

func (r *inst) publish(ctx context.Context, t events.EventType, id string, data any) {
	if err := r.events.Publish(ctx, t, id, data); err != nil {
		zap.S().Warnw("failed to publish event",
			"type", t,
			"id", id,
			"error", err,
		)
	}
}

// resolve fetches the display records of the given identities, using the cache where it can.
func (r *inst) resolve(ctx context.Context, ids ...string) (model.UserMap, error) {
	result := model.UserMap{}
	seen := map[string]bool{}
	missing := []string{}

	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}

		seen[id] = true

		if v, ok := r.users.Get(id); ok {
			result[id] = v.(structures.User)
			continue
		}

		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return result, nil
	}

	users, err := r.store.GetUsers(ctx, missing)
	if err != nil {
		return nil, storeError(err, errors.ErrUnknownUser())
	}

	for _, u := range users {
		result[u.ID] = u
		r.users.SetDefault(u.ID, u)
	}

	return result, nil
}

func (r *inst) SetPresence(ctx context.Context, identity string, online bool, at time.Time) error {
	if err := r.store.SetUserPresence(ctx, identity, online, at); err != nil {
		return storeError(err, errors.ErrUnknownUser())
	}

	r.users.Delete(identity)

	r.publish(ctx, events.EventTypeUserStatus, identity, map[string]any{
		"online": online,
		"at":     at.UnixMilli(),
	})

	return nil
}

func (r *inst) UserStatus(ctx context.Context, identity string, online bool) (model.UserStatusModel, error) {
	if identity == "" {
		return model.UserStatusModel{}, errors.ErrMissingRequiredField().SetDetail("identity")
	}

	u, err := r.store.GetUser(ctx, identity)
	if err != nil {
		return model.UserStatusModel{}, storeError(err, errors.ErrUnknownUser())
	}

	return r.modelizer.UserStatus(u, online), nil
}
