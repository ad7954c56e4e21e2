package reconciler

import (
	"context"

	"github.com/NAKUL-XD/BitChat/data/model"
	"github.com/NAKUL-XD/BitChat/data/structures"
	"github.com/seventv/common/errors"
)

func (r *inst) Me(ctx context.Context, identity string) (model.UserModel, error) {
	u, err := r.store.GetUser(ctx, identity)
	if err != nil {
		return model.UserModel{}, storeError(err, errors.ErrUnknownUser())
	}

	return r.modelizer.Self(u), nil
}

func (r *inst) Users(ctx context.Context, identity string) ([]model.UserListItemModel, error) {
	users, err := r.store.ListUsers(ctx, identity)
	if err != nil {
		return nil, storeError(err, errors.ErrNoItems())
	}

	convs, err := r.store.ListConversations(ctx, identity)
	if err != nil {
		return nil, storeError(err, errors.ErrNoItems())
	}

	byPeer := make(map[string]structures.Conversation, len(convs))
	for _, c := range convs {
		byPeer[c.Counterpart(identity)] = c
	}

	result := make([]model.UserListItemModel, len(users))

	for i, u := range users {
		r.users.SetDefault(u.ID, u)

		result[i] = model.UserListItemModel{
			ParticipantModel: r.modelizer.Participant(u),
			About:            u.About,
		}

		c, ok := byPeer[u.ID]
		if !ok {
			continue
		}

		conv, err := r.conversation(ctx, c, identity)
		if err != nil {
			return nil, err
		}

		result[i].Conversation = &conv
	}

	return result, nil
}
