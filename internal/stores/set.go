package stores

import (
	"moni/internal/auth"
	"moni/internal/docstore"
	"moni/internal/events"
)

// Set is the full store graph for one session, wired in dependency order.
// Stores hold explicit references to each other; there are no ambient
// singletons.
type Set struct {
	Session  *SessionStore
	Groups   *GroupStore
	Budgets  *BudgetStore
	Expenses *ExpenseStore
	Incomes  *IncomeStore
	Profile  *ProfileStore
}

// NewSet builds the store graph over one docstore and identity provider and
// starts the auth-state subscription. The events client may be nil.
func NewSet(provider auth.Provider, docs docstore.Store, ev *events.Client) *Set {
	session := NewSessionStore(provider, docs)
	groups := NewGroupStore(session, docs, ev)
	budgets := NewBudgetStore(session, docs, ev)

	set := &Set{
		Session:  session,
		Groups:   groups,
		Budgets:  budgets,
		Expenses: NewExpenseStore(session, docs, groups, budgets, ev),
		Incomes:  NewIncomeStore(session, docs, ev),
		Profile:  NewProfileStore(docs, ev),
	}
	session.Init()
	return set
}

// Close tears the session subscription down.
func (s *Set) Close() {
	s.Session.Close()
}
