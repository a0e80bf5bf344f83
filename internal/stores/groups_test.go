package stores

import (
	"context"
	"testing"

	"moni/internal/core"
)

func TestCreateGroupMembersIsExactlyCreator(t *testing.T) {
	set, _ := newTestSet(t)
	ctx := context.Background()
	uid := signUp(t, set, "alice@example.com")

	if err := set.Groups.CreateGroup(ctx, "Household", "rent and groceries"); err != nil {
		t.Fatalf("create group: %v", err)
	}

	groups := set.Groups.Groups()
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if g.CreatedBy != uid {
		t.Errorf("createdBy = %q, want %q", g.CreatedBy, uid)
	}
	if len(g.Members) != 1 || g.Members[0] != uid {
		t.Errorf("members = %v, want exactly [%s]", g.Members, uid)
	}
}

func TestCreateGroupRequiresName(t *testing.T) {
	set, _ := newTestSet(t)
	signUp(t, set, "alice@example.com")

	if err := set.Groups.CreateGroup(context.Background(), "", "no name"); err != core.ErrEmptyName {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if len(set.Groups.Groups()) != 0 {
		t.Error("invalid group should not be created")
	}
}

func TestCreateGroupSignedOutIsNoop(t *testing.T) {
	set, docs := newTestSet(t)
	ctx := context.Background()

	if err := set.Groups.CreateGroup(ctx, "Orphan", ""); err != nil {
		t.Fatalf("create group signed out: %v", err)
	}
	found, err := docs.Query(ctx, core.CollectionGroups)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("expected no group documents, got %d", len(found))
	}
}

func TestAddGroupMemberIsSetSemantics(t *testing.T) {
	set, _ := newTestSet(t)
	ctx := context.Background()
	groupID, creator, second, _ := newSharedGroup(t, set)

	// Adding an existing member again must not duplicate it.
	if err := set.Groups.AddGroupMember(ctx, groupID, second); err != nil {
		t.Fatalf("re-add member: %v", err)
	}

	g, ok := set.Groups.GroupByID(groupID)
	if !ok {
		t.Fatal("group missing from cache")
	}
	if len(g.Members) != 3 {
		t.Fatalf("members = %v, want 3 distinct entries", g.Members)
	}
	counts := map[string]int{}
	for _, m := range g.Members {
		counts[m]++
	}
	if counts[creator] != 1 || counts[second] != 1 {
		t.Errorf("duplicate members: %v", g.Members)
	}
}

func TestAddGroupMemberUnknownGroupIsNoop(t *testing.T) {
	set, _ := newTestSet(t)
	signUp(t, set, "alice@example.com")

	if err := set.Groups.AddGroupMember(context.Background(), "missing", "whoever"); err != nil {
		t.Fatalf("add member to unknown group: %v", err)
	}
}

func TestRemoveGroupMember(t *testing.T) {
	set, _ := newTestSet(t)
	ctx := context.Background()
	groupID, creator, second, third := newSharedGroup(t, set)

	if err := set.Groups.RemoveGroupMember(ctx, groupID, third); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	g, ok := set.Groups.GroupByID(groupID)
	if !ok {
		t.Fatal("group missing from cache")
	}
	want := map[string]bool{creator: true, second: true}
	if len(g.Members) != 2 || !want[g.Members[0]] || !want[g.Members[1]] {
		t.Errorf("members after removal = %v", g.Members)
	}
}

// Removing the creator is allowed; the group simply disappears from the
// creator's view.
func TestRemoveGroupMemberAllowsRemovingCreator(t *testing.T) {
	set, _ := newTestSet(t)
	ctx := context.Background()
	groupID, creator, _, _ := newSharedGroup(t, set)

	if err := set.Groups.RemoveGroupMember(ctx, groupID, creator); err != nil {
		t.Fatalf("remove creator: %v", err)
	}
	if _, ok := set.Groups.GroupByID(groupID); ok {
		t.Error("group still visible to removed creator")
	}
}

func TestGroupsWithDetailsResolvesMembers(t *testing.T) {
	set, _ := newTestSet(t)
	groupID, _, _, _ := newSharedGroup(t, set)

	details := set.Groups.GroupsWithDetails()
	if len(details) != 1 {
		t.Fatalf("expected 1 detailed group, got %d", len(details))
	}
	d := details[0]
	if d.ID != groupID {
		t.Fatalf("unexpected group %q", d.ID)
	}
	if len(d.MemberDetails) != 3 {
		t.Fatalf("resolved members = %d, want 3", len(d.MemberDetails))
	}
	emails := map[string]bool{}
	for _, u := range d.MemberDetails {
		emails[u.Email] = true
	}
	for _, want := range []string{"creator@example.com", "second@example.com", "third@example.com"} {
		if !emails[want] {
			t.Errorf("member %s not resolved", want)
		}
	}
}

func TestUpdateGroup(t *testing.T) {
	set, _ := newTestSet(t)
	ctx := context.Background()
	groupID, _, _, _ := newSharedGroup(t, set)

	name := "Trip 2026"
	if err := set.Groups.UpdateGroup(ctx, groupID, GroupPatch{Name: &name}); err != nil {
		t.Fatalf("update group: %v", err)
	}
	g, ok := set.Groups.GroupByID(groupID)
	if !ok {
		t.Fatal("group missing from cache")
	}
	if g.Name != name {
		t.Errorf("name = %q, want %q", g.Name, name)
	}
	if g.Description != "shared costs" {
		t.Errorf("description changed by partial patch: %q", g.Description)
	}
}

func TestDeleteGroup(t *testing.T) {
	set, _ := newTestSet(t)
	ctx := context.Background()
	groupID, _, _, _ := newSharedGroup(t, set)

	if err := set.Groups.DeleteGroup(ctx, groupID); err != nil {
		t.Fatalf("delete group: %v", err)
	}
	if len(set.Groups.Groups()) != 0 {
		t.Error("group cache not empty after deletion")
	}
}

// A member who is not the creator still sees the group once it is fetched
// under their own session.
func TestFetchUserGroupsForAddedMember(t *testing.T) {
	set, _ := newTestSet(t)
	ctx := context.Background()
	groupID, _, _, _ := newSharedGroup(t, set)

	signIn(t, set, "second@example.com")
	if err := set.Groups.FetchUserGroups(ctx); err != nil {
		t.Fatalf("fetch groups as member: %v", err)
	}
	if _, ok := set.Groups.GroupByID(groupID); !ok {
		t.Error("added member cannot see the group")
	}
}
