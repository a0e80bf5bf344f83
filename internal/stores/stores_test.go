package stores

import (
	"context"
	"testing"

	memauth "moni/internal/auth/memory"
	"moni/internal/core"
	memstore "moni/internal/docstore/memory"
)

const testPassword = "password123"

// newTestSet wires the store graph over in-memory backends.
func newTestSet(t *testing.T) (*Set, *memstore.Store) {
	t.Helper()
	docs := memstore.New()
	set := NewSet(memauth.New(), docs, nil)
	t.Cleanup(set.Close)
	return set, docs
}

// signUp registers and signs in a fresh account, returning its uid.
func signUp(t *testing.T, set *Set, email string) string {
	t.Helper()
	if err := set.Session.SignUp(context.Background(), email, testPassword); err != nil {
		t.Fatalf("sign up %s: %v", email, err)
	}
	current := set.Session.CurrentUser()
	if current == nil {
		t.Fatalf("no current user after signing up %s", email)
	}
	return current.UID
}

// signIn switches the session to an existing account.
func signIn(t *testing.T, set *Set, email string) string {
	t.Helper()
	if err := set.Session.SignIn(context.Background(), email, testPassword); err != nil {
		t.Fatalf("sign in %s: %v", email, err)
	}
	return set.Session.CurrentUser().UID
}

// newSharedGroup signs up three users and returns a group containing all of
// them, with the first user signed in as creator.
func newSharedGroup(t *testing.T, set *Set) (groupID string, creator, second, third string) {
	t.Helper()
	ctx := context.Background()

	creator = signUp(t, set, "creator@example.com")
	second = signUp(t, set, "second@example.com")
	third = signUp(t, set, "third@example.com")

	signIn(t, set, "creator@example.com")
	if err := set.Groups.CreateGroup(ctx, "Trip", "shared costs"); err != nil {
		t.Fatalf("create group: %v", err)
	}
	groups := set.Groups.Groups()
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	groupID = groups[0].ID

	if err := set.Groups.AddGroupMember(ctx, groupID, second); err != nil {
		t.Fatalf("add second member: %v", err)
	}
	if err := set.Groups.AddGroupMember(ctx, groupID, third); err != nil {
		t.Fatalf("add third member: %v", err)
	}
	return groupID, creator, second, third
}

func findExpense(t *testing.T, set *Set, name string) core.Expense {
	t.Helper()
	for _, e := range set.Expenses.Expenses() {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("expense %q not in cache", name)
	return core.Expense{}
}
