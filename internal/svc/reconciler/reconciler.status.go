package reconciler

import (
	"context"
	"strings"

	"github.com/NAKUL-XD/BitChat/data/model"
	"github.com/NAKUL-XD/BitChat/data/structures"
	"github.com/NAKUL-XD/BitChat/internal/svc/events"
	"github.com/seventv/common/errors"
)

type CreateStatusRequest struct {
	OwnerID     string
	Content     string
	MediaURL    string
	ContentType structures.ContentType
}

func (r *inst) status(ctx context.Context, s structures.StatusPost) (model.StatusModel, error) {
	users, err := r.resolve(ctx, model.StatusUserIDs(s)...)
	if err != nil {
		return model.StatusModel{}, err
	}

	return r.modelizer.Status(s, users), nil
}

func (r *inst) CreateStatus(ctx context.Context, req CreateStatusRequest) (model.StatusModel, error) {
	if req.OwnerID == "" {
		return model.StatusModel{}, errors.ErrMissingRequiredField().SetDetail("owner")
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" && req.MediaURL == "" {
		return model.StatusModel{}, errors.ErrInvalidRequest().SetDetail("Status must have content or media")
	}

	if req.ContentType == "" {
		req.ContentType = structures.ContentTypeText
		if req.MediaURL != "" {
			req.ContentType = structures.ContentTypeImage
		}
	}

	if !req.ContentType.Valid() {
		return model.StatusModel{}, errors.ErrInvalidRequest().SetDetail("Unknown content type %q", req.ContentType)
	}

	now := r.now()

	s, err := r.store.InsertStatus(ctx, structures.StatusPost{
		OwnerID:     req.OwnerID,
		Content:     req.Content,
		MediaURL:    req.MediaURL,
		ContentType: req.ContentType,
		CreatedAt:   now,
		ExpiresAt:   now.Add(r.statusTTL),
	})
	if err != nil {
		return model.StatusModel{}, storeError(err, errors.ErrNoItems())
	}

	result, err := r.status(ctx, s)
	if err != nil {
		return model.StatusModel{}, err
	}

	r.publish(ctx, events.EventTypeStatusCreate, s.ID, result)

	return result, nil
}

func (r *inst) Statuses(ctx context.Context) ([]model.StatusModel, error) {
	list, err := r.store.ListActiveStatuses(ctx, r.now())
	if err != nil {
		return nil, storeError(err, errors.ErrNoItems())
	}

	ids := []string{}
	for _, s := range list {
		ids = append(ids, model.StatusUserIDs(s)...)
	}

	users, err := r.resolve(ctx, ids...)
	if err != nil {
		return nil, err
	}

	result := make([]model.StatusModel, len(list))
	for i, s := range list {
		result[i] = r.modelizer.Status(s, users)
	}

	return result, nil
}

// ViewStatus records viewer once. The boolean is true when the viewer is new.
func (r *inst) ViewStatus(ctx context.Context, viewer, statusID string) (model.StatusModel, bool, error) {
	s, err := r.store.GetStatus(ctx, statusID)
	if err != nil {
		return model.StatusModel{}, false, storeError(err, errors.ErrNoItems().SetDetail("Status not found"))
	}

	if s.Expired(r.now()) {
		return model.StatusModel{}, false, errors.ErrNoItems().SetDetail("Status has expired")
	}

	added := !s.ViewedBy(viewer)
	if added {
		if s, err = r.store.AddStatusViewer(ctx, statusID, viewer); err != nil {
			return model.StatusModel{}, false, storeError(err, errors.ErrNoItems().SetDetail("Status not found"))
		}
	}

	result, err := r.status(ctx, s)
	if err != nil {
		return model.StatusModel{}, false, err
	}

	if added {
		r.publish(ctx, events.EventTypeStatusView, s.ID, map[string]string{
			"viewer_id": viewer,
		})
	}

	return result, added, nil
}

func (r *inst) DeleteStatus(ctx context.Context, identity, statusID string) error {
	s, err := r.store.GetStatus(ctx, statusID)
	if err != nil {
		return storeError(err, errors.ErrNoItems().SetDetail("Status not found"))
	}

	if s.OwnerID != identity {
		return errors.ErrInsufficientPrivilege().SetDetail("Only the owner may delete this status")
	}

	if err := r.store.DeleteStatus(ctx, statusID); err != nil {
		return storeError(err, errors.ErrNoItems().SetDetail("Status not found"))
	}

	r.publish(ctx, events.EventTypeStatusDelete, s.ID, nil)

	return nil
}
