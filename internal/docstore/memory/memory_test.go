package memory

import (
	"context"
	"testing"

	"moni/internal/docstore"
)

func TestCreateAndGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.Create(ctx, "budgets", map[string]any{"name": "Groceries", "amount": 500.0})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == "" {
		t.Fatal("empty generated id")
	}

	doc, err := s.Get(ctx, "budgets", id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Fields["name"] != "Groceries" {
		t.Errorf("fields = %v", doc.Fields)
	}
}

func TestGetMissing(t *testing.T) {
	s := New()
	if _, err := s.Get(context.Background(), "budgets", "nope"); err != docstore.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetOverwritesWholesale(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Set(ctx, "expenses", "e1", map[string]any{"name": "Lunch", "budgetId": "b1"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "expenses", "e1", map[string]any{"name": "Dinner"}); err != nil {
		t.Fatalf("second set: %v", err)
	}

	doc, err := s.Get(ctx, "expenses", "e1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Fields["name"] != "Dinner" {
		t.Errorf("name = %v", doc.Fields["name"])
	}
	if _, ok := doc.Fields["budgetId"]; ok {
		t.Error("set preserved an old field; want wholesale overwrite")
	}
}

func TestMergePreservesOtherFields(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Set(ctx, "budgets", "b1", map[string]any{"name": "Groceries", "spent": 20.0}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Merge(ctx, "budgets", "b1", map[string]any{"spent": 50.0}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	doc, err := s.Get(ctx, "budgets", "b1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Fields["spent"] != 50.0 || doc.Fields["name"] != "Groceries" {
		t.Errorf("fields = %v", doc.Fields)
	}
}

func TestMergeUpsertsMissingDocument(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Merge(ctx, "users", "u1", map[string]any{"email": "a@b.c"}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	doc, err := s.Get(ctx, "users", "u1")
	if err != nil {
		t.Fatalf("get after upsert: %v", err)
	}
	if doc.Fields["email"] != "a@b.c" {
		t.Errorf("fields = %v", doc.Fields)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Set(ctx, "incomes", "i1", map[string]any{"name": "Salary"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Delete(ctx, "incomes", "i1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "incomes", "i1"); err != docstore.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "incomes", "i1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if err := s.Delete(ctx, "never-existed", "x"); err != nil {
		t.Fatalf("delete in unknown collection: %v", err)
	}
}

func TestQueryFilters(t *testing.T) {
	s := New()
	ctx := context.Background()

	seed := []map[string]any{
		{"userId": "u1", "groupId": "g1", "members": []any{"u1", "u2"}},
		{"userId": "u2", "groupId": "g2", "members": []any{"u2"}},
		{"userId": "u1", "groupId": "g3", "members": []any{"u1"}},
	}
	for _, fields := range seed {
		if _, err := s.Create(ctx, "groups", fields); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	byOwner, err := s.Query(ctx, "groups", docstore.Where("userId", docstore.OpEqual, "u1"))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(byOwner) != 2 {
		t.Errorf("owner query returned %d docs, want 2", len(byOwner))
	}

	byMember, err := s.Query(ctx, "groups", docstore.Where("members", docstore.OpArrayContains, "u2"))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(byMember) != 2 {
		t.Errorf("member query returned %d docs, want 2", len(byMember))
	}

	byIn, err := s.Query(ctx, "groups", docstore.Where("groupId", docstore.OpIn, []string{"g1", "g3"}))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(byIn) != 2 {
		t.Errorf("in query returned %d docs, want 2", len(byIn))
	}

	empty, err := s.Query(ctx, "nothing-here")
	if err != nil {
		t.Fatalf("query empty collection: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("empty collection returned %d docs", len(empty))
	}
}

func TestQueryEmailPrefixRange(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, email := range []string{"alice@example.com", "alina@example.com", "bob@example.com"} {
		if _, err := s.Create(ctx, "users", map[string]any{"email": email}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	found, err := s.Query(ctx, "users",
		docstore.Where("email", docstore.OpGreaterOrEqual, "ali"),
		docstore.Where("email", docstore.OpLessOrEqual, "ali"+docstore.PrefixEnd),
	)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("prefix query returned %d docs, want 2", len(found))
	}
}

// Documents handed out by the store must be isolated from its internals.
func TestReturnedDocumentsAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Set(ctx, "groups", "g1", map[string]any{
		"members": []any{"u1"},
		"paidBy":  map[string]any{"u1": map[string]any{"paid": false}},
	}); err != nil {
		t.Fatalf("set: %v", err)
	}

	doc, err := s.Get(ctx, "groups", "g1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	doc.Fields["members"].([]any)[0] = "tampered"
	doc.Fields["paidBy"].(map[string]any)["u1"].(map[string]any)["paid"] = true

	fresh, err := s.Get(ctx, "groups", "g1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fresh.Fields["members"].([]any)[0] != "u1" {
		t.Error("stored slice mutated through a returned document")
	}
	if fresh.Fields["paidBy"].(map[string]any)["u1"].(map[string]any)["paid"] != false {
		t.Error("stored nested map mutated through a returned document")
	}
}
