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

// BudgetStore owns budget definitions and their running spent totals. A
// budget is visible to its owner and, when shared, to members of its group.
type BudgetStore struct {
	session *SessionStore
	docs    docstore.Store
	events  *events.Client

	mu      sync.Mutex
	budgets []core.Budget
}

// BudgetInput carries budget creation/update fields. An empty GroupID means
// no group association; the field is then omitted from the document.
type BudgetInput struct {
	Name            string
	Amount          float64
	GroupID         string
	SharedWithGroup bool
}

func NewBudgetStore(session *SessionStore, docs docstore.Store, events *events.Client) *BudgetStore {
	return &BudgetStore{session: session, docs: docs, events: events}
}

// CreateBudget creates a budget with spent=0 owned by the current user.
// Silently no-ops when nobody is signed in.
func (s *BudgetStore) CreateBudget(ctx context.Context, in BudgetInput) error {
	current := s.session.CurrentUser()
	if current == nil {
		return nil
	}

	b := core.Budget{
		Name:            in.Name,
		Amount:          in.Amount,
		Spent:           0,
		UserID:          current.UID,
		GroupID:         in.GroupID,
		SharedWithGroup: in.SharedWithGroup,
		CreatedAt:       time.Now(),
	}
	if err := b.Validate(); err != nil {
		return err
	}

	id, err := s.docs.Create(ctx, core.CollectionBudgets, b.Doc())
	if err != nil {
		slog.ErrorContext(ctx, "Budget creation failed", "name", in.Name, "error", err)
		return err
	}
	publishChange(ctx, s.events, core.CollectionBudgets, id, events.ActionCreated)

	return s.FetchBudgets(ctx)
}

// FetchBudgets queries "mine" and "shared" concurrently and unions them by
// ID, keeping the owned copy on conflict. Shared records without a group ID
// are dropped (malformed shared flag); note the shared query does not check
// the viewer's membership of that group.
func (s *BudgetStore) FetchBudgets(ctx context.Context) error {
	current := s.session.CurrentUser()
	if current == nil {
		return nil
	}

	var mine, shared []docstore.Document
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mine, err = s.docs.Query(gctx, core.CollectionBudgets,
			docstore.Where(core.FieldUserID, docstore.OpEqual, current.UID))
		return err
	})
	g.Go(func() error {
		var err error
		shared, err = s.docs.Query(gctx, core.CollectionBudgets,
			docstore.Where(core.FieldSharedWithGroup, docstore.OpEqual, true))
		return err
	})
	if err := g.Wait(); err != nil {
		slog.ErrorContext(ctx, "Budget fetch failed", "uid", current.UID, "error", err)
		return err
	}

	seen := make(map[string]bool, len(mine))
	budgets := make([]core.Budget, 0, len(mine)+len(shared))
	for _, d := range mine {
		seen[d.ID] = true
		budgets = append(budgets, core.BudgetFromDoc(d.ID, d.Fields))
	}
	for _, d := range shared {
		if seen[d.ID] {
			continue
		}
		b := core.BudgetFromDoc(d.ID, d.Fields)
		if b.GroupID == "" {
			continue
		}
		seen[d.ID] = true
		budgets = append(budgets, b)
	}

	s.mu.Lock()
	s.budgets = budgets
	s.mu.Unlock()
	return nil
}

// Budgets returns the cached budgets.
func (s *BudgetStore) Budgets() []core.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Budget(nil), s.budgets...)
}

// BudgetByID looks a budget up in the local cache.
func (s *BudgetStore) BudgetByID(id string) (core.Budget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.budgets {
		if b.ID == id {
			return b, true
		}
	}
	return core.Budget{}, false
}

// UpdateBudget merge-writes the input fields onto the record, forcing the
// owner to the caller, then refetches. Spent and createdAt are untouched.
func (s *BudgetStore) UpdateBudget(ctx context.Context, id string, in BudgetInput) error {
	current := s.session.CurrentUser()
	if current == nil {
		return nil
	}

	fields := map[string]any{
		core.FieldName:            in.Name,
		core.FieldAmount:          in.Amount,
		core.FieldUserID:          current.UID,
		core.FieldSharedWithGroup: in.SharedWithGroup,
	}
	if in.GroupID != "" {
		fields[core.FieldGroupID] = in.GroupID
	}

	if err := s.docs.Merge(ctx, core.CollectionBudgets, id, fields); err != nil {
		slog.ErrorContext(ctx, "Budget update failed", "budget_id", id, "error", err)
		return err
	}
	publishChange(ctx, s.events, core.CollectionBudgets, id, events.ActionUpdated)
	return s.FetchBudgets(ctx)
}

// UpdateBudgetSpent adds amount to the budget's running spent total.
// No-ops when the budget is not in the local cache.
func (s *BudgetStore) UpdateBudgetSpent(ctx context.Context, id string, amount float64) error {
	budget, ok := s.BudgetByID(id)
	if !ok {
		return nil
	}

	newSpent := budget.Spent + amount
	if err := s.docs.Merge(ctx, core.CollectionBudgets, id, map[string]any{
		core.FieldSpent: newSpent,
	}); err != nil {
		slog.ErrorContext(ctx, "Budget spent update failed", "budget_id", id, "error", err)
		return err
	}
	publishChange(ctx, s.events, core.CollectionBudgets, id, events.ActionUpdated)
	return s.FetchBudgets(ctx)
}

// DeleteBudget removes the record, then refetches.
func (s *BudgetStore) DeleteBudget(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, core.CollectionBudgets, id); err != nil {
		slog.ErrorContext(ctx, "Budget deletion failed", "budget_id", id, "error", err)
		return err
	}
	publishChange(ctx, s.events, core.CollectionBudgets, id, events.ActionDeleted)
	return s.FetchBudgets(ctx)
}

// BudgetsByGroupID filters the cached budgets by group association.
func (s *BudgetStore) BudgetsByGroupID(groupID string) []core.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.GroupID == groupID {
			out = append(out, b)
		}
	}
	return out
}
