package stores

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"moni/internal/core"
	"moni/internal/docstore"
	"moni/internal/events"
)

// GroupStore owns group records and membership lists for the signed-in user,
// resolving member identities through the session store.
type GroupStore struct {
	session *SessionStore
	docs    docstore.Store
	events  *events.Client

	mu      sync.Mutex
	groups  []core.Group
	members map[string][]core.User
}

// GroupWithDetails is a group plus its resolved member records.
type GroupWithDetails struct {
	core.Group
	MemberDetails []core.User
}

type GroupPatch struct {
	Name        *string
	Description *string
}

func NewGroupStore(session *SessionStore, docs docstore.Store, events *events.Client) *GroupStore {
	return &GroupStore{
		session: session,
		docs:    docs,
		events:  events,
		members: make(map[string][]core.User),
	}
}

// CreateGroup creates a group whose member set is exactly the creator.
// Silently no-ops when nobody is signed in.
func (s *GroupStore) CreateGroup(ctx context.Context, name, description string) error {
	current := s.session.CurrentUser()
	if current == nil {
		return nil
	}

	g := core.Group{
		Name:        name,
		Description: description,
		CreatedBy:   current.UID,
		Members:     []string{current.UID},
		CreatedAt:   time.Now(),
	}
	if err := g.Validate(); err != nil {
		return err
	}

	id, err := s.docs.Create(ctx, core.CollectionGroups, g.Doc())
	if err != nil {
		slog.ErrorContext(ctx, "Group creation failed", "name", name, "error", err)
		return err
	}
	publishChange(ctx, s.events, core.CollectionGroups, id, events.ActionCreated)

	return s.FetchUserGroups(ctx)
}

// FetchUserGroups loads every group the current user belongs to, then
// resolves member identities for each group concurrently.
func (s *GroupStore) FetchUserGroups(ctx context.Context) error {
	current := s.session.CurrentUser()
	if current == nil {
		return nil
	}

	docs, err := s.docs.Query(ctx, core.CollectionGroups,
		docstore.Where(core.FieldMembers, docstore.OpArrayContains, current.UID))
	if err != nil {
		slog.ErrorContext(ctx, "Group fetch failed", "uid", current.UID, "error", err)
		return err
	}

	groups := make([]core.Group, 0, len(docs))
	for _, d := range docs {
		groups = append(groups, core.GroupFromDoc(d.ID, d.Fields))
	}

	members := make(map[string][]core.User, len(groups))
	var membersMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, grp := range groups {
		g.Go(func() error {
			users, err := s.session.UsersByIDs(gctx, grp.Members)
			if err != nil {
				return err
			}
			membersMu.Lock()
			members[grp.ID] = users
			membersMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.ErrorContext(ctx, "Group member resolution failed", "error", err)
		return err
	}

	s.mu.Lock()
	s.groups = groups
	s.members = members
	s.mu.Unlock()
	return nil
}

// Groups returns the cached group records.
func (s *GroupStore) Groups() []core.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Group(nil), s.groups...)
}

// GroupsWithDetails combines cached groups with their resolved members.
func (s *GroupStore) GroupsWithDetails() []GroupWithDetails {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]GroupWithDetails, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, GroupWithDetails{Group: g, MemberDetails: s.members[g.ID]})
	}
	return out
}

// GroupByID looks a group up in the local cache.
func (s *GroupStore) GroupByID(id string) (core.Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		if g.ID == id {
			return g, true
		}
	}
	return core.Group{}, false
}

// GroupIDs lists the cached groups' IDs.
func (s *GroupStore) GroupIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.groups))
	for _, g := range s.groups {
		ids = append(ids, g.ID)
	}
	return ids
}

// UpdateGroup merge-writes the given fields, then refreshes the collection.
func (s *GroupStore) UpdateGroup(ctx context.Context, id string, patch GroupPatch) error {
	fields := map[string]any{}
	if patch.Name != nil {
		fields[core.FieldName] = *patch.Name
	}
	if patch.Description != nil {
		fields[core.FieldDescription] = *patch.Description
	}
	if len(fields) == 0 {
		return nil
	}
	if err := s.docs.Merge(ctx, core.CollectionGroups, id, fields); err != nil {
		slog.ErrorContext(ctx, "Group update failed", "group_id", id, "error", err)
		return err
	}
	publishChange(ctx, s.events, core.CollectionGroups, id, events.ActionUpdated)
	return s.FetchUserGroups(ctx)
}

// AddGroupMember adds userID to the member set (set semantics, no
// duplicates), then refreshes the collection.
func (s *GroupStore) AddGroupMember(ctx context.Context, groupID, userID string) error {
	group, ok := s.GroupByID(groupID)
	if !ok {
		return nil
	}

	if group.IsMember(userID) {
		// Already present; the write below would be a no-op anyway but the
		// original behavior still refreshes.
		return s.FetchUserGroups(ctx)
	}
	updated := append(append([]string(nil), group.Members...), userID)

	if err := s.docs.Merge(ctx, core.CollectionGroups, groupID, map[string]any{
		core.FieldMembers: updated,
	}); err != nil {
		slog.ErrorContext(ctx, "Adding group member failed", "group_id", groupID, "uid", userID, "error", err)
		return err
	}
	publishChange(ctx, s.events, core.CollectionGroups, groupID, events.ActionUpdated)
	return s.FetchUserGroups(ctx)
}

// RemoveGroupMember removes userID from the member set, then refreshes.
// Nothing prevents removing the creator or the last member.
func (s *GroupStore) RemoveGroupMember(ctx context.Context, groupID, userID string) error {
	group, ok := s.GroupByID(groupID)
	if !ok {
		return nil
	}

	updated := make([]string, 0, len(group.Members))
	for _, m := range group.Members {
		if m != userID {
			updated = append(updated, m)
		}
	}

	if err := s.docs.Merge(ctx, core.CollectionGroups, groupID, map[string]any{
		core.FieldMembers: updated,
	}); err != nil {
		slog.ErrorContext(ctx, "Removing group member failed", "group_id", groupID, "uid", userID, "error", err)
		return err
	}
	publishChange(ctx, s.events, core.CollectionGroups, groupID, events.ActionUpdated)
	return s.FetchUserGroups(ctx)
}

// DeleteGroup removes the record, then refreshes the collection.
func (s *GroupStore) DeleteGroup(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, core.CollectionGroups, id); err != nil {
		slog.ErrorContext(ctx, "Group deletion failed", "group_id", id, "error", err)
		return err
	}
	publishChange(ctx, s.events, core.CollectionGroups, id, events.ActionDeleted)
	return s.FetchUserGroups(ctx)
}
