package stores

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"moni/internal/core"
	"moni/internal/docstore"
	"moni/internal/events"
)

// ExpenseStore owns expense records, computes per-member splits for shared
// expenses, and debits the linked budget's spent total on creation.
type ExpenseStore struct {
	session *SessionStore
	docs    docstore.Store
	groups  *GroupStore
	budgets *BudgetStore
	events  *events.Client

	mu       sync.Mutex
	expenses []core.Expense
}

// ExpenseInput carries expense creation fields. BudgetID and GroupID are
// optional and omitted from the document when empty.
type ExpenseInput struct {
	Name     string
	Amount   float64
	Date     string
	BudgetID string
	IsShared bool
	GroupID  string
}

// ExpensePatch updates an expense. Nil fields keep the cached value, except
// BudgetID: a nil BudgetID clears the budget link entirely (the field is
// dropped from the rewritten document).
type ExpensePatch struct {
	Name     *string
	Amount   *float64
	Date     *string
	BudgetID *string
}

func NewExpenseStore(session *SessionStore, docs docstore.Store, groups *GroupStore, budgets *BudgetStore, events *events.Client) *ExpenseStore {
	return &ExpenseStore{
		session: session,
		docs:    docs,
		groups:  groups,
		budgets: budgets,
		events:  events,
	}
}

// AddExpense creates an expense. For a shared expense whose group resolves in
// the local group cache, the amount is split evenly across members and the
// creator's share is pre-marked paid; an unresolvable group leaves the paid
// map empty. A linked budget is debited by the full amount, not the split.
func (s *ExpenseStore) AddExpense(ctx context.Context, in ExpenseInput) error {
	current := s.session.CurrentUser()
	if current == nil {
		return nil
	}

	var group *core.Group
	if in.GroupID != "" {
		if g, ok := s.groups.GroupByID(in.GroupID); ok {
			group = &g
		}
	}

	paidBy := map[string]core.PaidShare{}
	if in.IsShared && group != nil {
		split := in.Amount / float64(len(group.Members))
		for _, member := range group.Members {
			paidBy[member] = core.PaidShare{
				Paid:   member == current.UID,
				Amount: split,
			}
		}
	}

	e := core.Expense{
		Name:     in.Name,
		Amount:   in.Amount,
		Date:     in.Date,
		UserID:   current.UID,
		BudgetID: in.BudgetID,
		GroupID:  in.GroupID,
		IsShared: in.IsShared,
		PaidBy:   paidBy,
	}
	if in.GroupID != "" {
		memberCount := 1
		if group != nil {
			memberCount = len(group.Members)
		}
		e.SplitAmount = in.Amount / float64(memberCount)
	}
	if err := e.Validate(); err != nil {
		return err
	}

	id, err := s.docs.Create(ctx, core.CollectionExpenses, e.Doc())
	if err != nil {
		slog.ErrorContext(ctx, "Expense creation failed", "name", in.Name, "error", err)
		return err
	}
	publishChange(ctx, s.events, core.CollectionExpenses, id, events.ActionCreated)

	if in.BudgetID != "" {
		if err := s.budgets.UpdateBudgetSpent(ctx, in.BudgetID, in.Amount); err != nil {
			return err
		}
	}

	return s.FetchExpenses(ctx)
}

// FetchExpenses refreshes the group cache first (groups gate shared expense
// visibility), then queries "mine" and, when the user has groups,
// "shared by group membership" concurrently, unioned with owner priority.
func (s *ExpenseStore) FetchExpenses(ctx context.Context) error {
	current := s.session.CurrentUser()
	if current == nil {
		return nil
	}

	if err := s.groups.FetchUserGroups(ctx); err != nil {
		return err
	}
	groupIDs := s.groups.GroupIDs()

	var mine, shared []docstore.Document
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mine, err = s.docs.Query(gctx, core.CollectionExpenses,
			docstore.Where(core.FieldUserID, docstore.OpEqual, current.UID))
		return err
	})
	if len(groupIDs) > 0 {
		g.Go(func() error {
			var err error
			shared, err = s.docs.Query(gctx, core.CollectionExpenses,
				docstore.Where(core.FieldGroupID, docstore.OpIn, groupIDs))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		slog.ErrorContext(ctx, "Expense fetch failed", "uid", current.UID, "error", err)
		return err
	}

	seen := make(map[string]bool, len(mine))
	expenses := make([]core.Expense, 0, len(mine)+len(shared))
	for _, d := range mine {
		seen[d.ID] = true
		expenses = append(expenses, core.ExpenseFromDoc(d.ID, d.Fields))
	}
	for _, d := range shared {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		expenses = append(expenses, core.ExpenseFromDoc(d.ID, d.Fields))
	}

	s.mu.Lock()
	s.expenses = expenses
	s.mu.Unlock()
	return nil
}

// Expenses returns the cached expenses.
func (s *ExpenseStore) Expenses() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.expenses...)
}

// ExpenseByID looks an expense up in the local cache.
func (s *ExpenseStore) ExpenseByID(id string) (core.Expense, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.expenses {
		if e.ID == id {
			return e, true
		}
	}
	return core.Expense{}, false
}

// UpdateExpense merges the patch onto the cached snapshot (last local write,
// no re-read from the remote store), forces the owner to the caller, and
// overwrites the whole document before refetching. No-op when the record is
// not cached locally or nobody is signed in.
func (s *ExpenseStore) UpdateExpense(ctx context.Context, id string, patch ExpensePatch) error {
	current := s.session.CurrentUser()
	if current == nil || id == "" {
		return nil
	}
	updated, ok := s.ExpenseByID(id)
	if !ok {
		return nil
	}

	if patch.Name != nil {
		updated.Name = *patch.Name
	}
	if patch.Amount != nil {
		updated.Amount = *patch.Amount
	}
	if patch.Date != nil {
		updated.Date = *patch.Date
	}
	if patch.BudgetID != nil {
		updated.BudgetID = *patch.BudgetID
	} else {
		// Unset patch clears the budget link; the field is dropped from the
		// rewritten document, not nulled.
		updated.BudgetID = ""
	}
	updated.UserID = current.UID

	if err := s.docs.Set(ctx, core.CollectionExpenses, id, updated.Doc()); err != nil {
		slog.ErrorContext(ctx, "Expense update failed", "expense_id", id, "error", err)
		return err
	}
	publishChange(ctx, s.events, core.CollectionExpenses, id, events.ActionUpdated)
	return s.FetchExpenses(ctx)
}

// DeleteExpense removes the record, then refetches.
func (s *ExpenseStore) DeleteExpense(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.docs.Delete(ctx, core.CollectionExpenses, id); err != nil {
		slog.ErrorContext(ctx, "Expense deletion failed", "expense_id", id, "error", err)
		return err
	}
	publishChange(ctx, s.events, core.CollectionExpenses, id, events.ActionDeleted)
	return s.FetchExpenses(ctx)
}

// ExpensesByBudget filters the cached expenses by budget link.
func (s *ExpenseStore) ExpensesByBudget(budgetID string) []core.Expense {
	if budgetID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.BudgetID == budgetID {
			out = append(out, e)
		}
	}
	return out
}

// PendingSharedExpenses returns shared expenses the current user still owes
// a share on.
func (s *ExpenseStore) PendingSharedExpenses() []core.Expense {
	current := s.session.CurrentUser()
	if current == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		share, ok := e.PaidBy[current.UID]
		if e.IsShared && ok && !share.Paid {
			out = append(out, e)
		}
	}
	return out
}

// MarkExpenseAsPaid settles the current user's share. Idempotent; no amount
// reconciliation happens on payment.
func (s *ExpenseStore) MarkExpenseAsPaid(ctx context.Context, id string) error {
	current := s.session.CurrentUser()
	if current == nil || id == "" {
		return nil
	}
	expense, ok := s.ExpenseByID(id)
	if !ok {
		return nil
	}

	paidBy := make(map[string]core.PaidShare, len(expense.PaidBy))
	for uid, share := range expense.PaidBy {
		paidBy[uid] = share
	}
	share := paidBy[current.UID]
	share.Paid = true
	paidBy[current.UID] = share

	encoded := map[string]any{}
	for uid, sh := range paidBy {
		encoded[uid] = map[string]any{
			core.FieldPaid:   sh.Paid,
			core.FieldAmount: sh.Amount,
		}
	}
	if err := s.docs.Merge(ctx, core.CollectionExpenses, id, map[string]any{
		core.FieldPaidBy: encoded,
	}); err != nil {
		slog.ErrorContext(ctx, "Marking expense paid failed", "expense_id", id, "error", err)
		return err
	}
	publishChange(ctx, s.events, core.CollectionExpenses, id, events.ActionUpdated)
	return s.FetchExpenses(ctx)
}
