package stores

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"moni/internal/core"
	"moni/internal/docstore"
	"moni/internal/events"
	"moni/internal/images"
)

// ProfileStore owns the user's profile fields and avatar, independent of the
// finance stores.
type ProfileStore struct {
	docs   docstore.Store
	events *events.Client

	mu       sync.Mutex
	userData *core.User
}

type ProfilePatch struct {
	Name  *string
	Email *string
}

func NewProfileStore(docs docstore.Store, events *events.Client) *ProfileStore {
	return &ProfileStore{docs: docs, events: events}
}

// UpdateAvatar processes the uploaded image and merges the resulting data URL
// into the user's record, updating the local cache on success. The processed
// string is returned for immediate display.
func (s *ProfileStore) UpdateAvatar(ctx context.Context, userID string, data []byte) (string, error) {
	avatar, err := images.Process(data)
	if err != nil {
		slog.ErrorContext(ctx, "Avatar processing failed", "uid", userID, "error", err)
		return "", err
	}

	if err := s.docs.Merge(ctx, core.CollectionUsers, userID, map[string]any{
		core.FieldAvatarURL: avatar,
	}); err != nil {
		slog.ErrorContext(ctx, "Avatar update failed", "uid", userID, "error", err)
		return "", err
	}
	publishChange(ctx, s.events, core.CollectionUsers, userID, events.ActionUpdated)

	s.mu.Lock()
	if s.userData != nil {
		s.userData.AvatarURL = avatar
	}
	s.mu.Unlock()
	return avatar, nil
}

// UpdateProfile merge-writes the patch fields plus an updated-at stamp.
func (s *ProfileStore) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) error {
	fields := map[string]any{
		core.FieldUpdatedAt: core.EncodeTime(time.Now()),
	}
	if patch.Name != nil {
		fields[core.FieldName] = *patch.Name
	}
	if patch.Email != nil {
		fields[core.FieldEmail] = *patch.Email
	}

	if err := s.docs.Merge(ctx, core.CollectionUsers, userID, fields); err != nil {
		slog.ErrorContext(ctx, "Profile update failed", "uid", userID, "error", err)
		return err
	}
	publishChange(ctx, s.events, core.CollectionUsers, userID, events.ActionUpdated)
	return nil
}

// UserProfile loads one user record and caches it, returning nil when the
// record does not exist.
func (s *ProfileStore) UserProfile(ctx context.Context, userID string) (*core.User, error) {
	doc, err := s.docs.Get(ctx, core.CollectionUsers, userID)
	if err == docstore.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "Profile fetch failed", "uid", userID, "error", err)
		return nil, err
	}

	u := core.UserFromDoc(doc.ID, doc.Fields)
	s.mu.Lock()
	s.userData = &u
	s.mu.Unlock()
	return &u, nil
}

// UserData returns the cached profile, or nil.
func (s *ProfileStore) UserData() *core.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userData == nil {
		return nil
	}
	u := *s.userData
	return &u
}
