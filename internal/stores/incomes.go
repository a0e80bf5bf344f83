package stores

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"moni/internal/core"
	"moni/internal/docstore"
	"moni/internal/events"
)

// monthLabelLayout renders calendar buckets like "January 2024".
const monthLabelLayout = "January 2006"

// IncomeStore owns income records, which are strictly personal, and computes
// trailing monthly totals from the local cache.
type IncomeStore struct {
	session *SessionStore
	docs    docstore.Store
	events  *events.Client

	mu      sync.Mutex
	incomes []core.Income
}

type IncomeInput struct {
	Name   string
	Amount float64
	Date   time.Time
}

type IncomePatch struct {
	Name   *string
	Amount *float64
	Date   *time.Time
}

// MonthlyTotal is one calendar-month income bucket.
type MonthlyTotal struct {
	Label string
	Total float64
}

func NewIncomeStore(session *SessionStore, docs docstore.Store, events *events.Client) *IncomeStore {
	return &IncomeStore{session: session, docs: docs, events: events}
}

// CreateIncome records an income for the current user. Silently no-ops when
// nobody is signed in.
func (s *IncomeStore) CreateIncome(ctx context.Context, in IncomeInput) error {
	current := s.session.CurrentUser()
	if current == nil {
		return nil
	}

	i := core.Income{
		Name:      in.Name,
		Amount:    in.Amount,
		Date:      in.Date,
		UserID:    current.UID,
		CreatedAt: time.Now(),
	}
	if err := i.Validate(); err != nil {
		return err
	}

	id, err := s.docs.Create(ctx, core.CollectionIncomes, i.Doc())
	if err != nil {
		slog.ErrorContext(ctx, "Income creation failed", "name", in.Name, "error", err)
		return err
	}
	publishChange(ctx, s.events, core.CollectionIncomes, id, events.ActionCreated)

	return s.FetchIncomes(ctx)
}

// FetchIncomes loads the current user's incomes and replaces the cache.
func (s *IncomeStore) FetchIncomes(ctx context.Context) error {
	current := s.session.CurrentUser()
	if current == nil {
		return nil
	}

	docs, err := s.docs.Query(ctx, core.CollectionIncomes,
		docstore.Where(core.FieldUserID, docstore.OpEqual, current.UID))
	if err != nil {
		slog.ErrorContext(ctx, "Income fetch failed", "uid", current.UID, "error", err)
		return err
	}

	incomes := make([]core.Income, 0, len(docs))
	for _, d := range docs {
		incomes = append(incomes, core.IncomeFromDoc(d.ID, d.Fields))
	}

	s.mu.Lock()
	s.incomes = incomes
	s.mu.Unlock()
	return nil
}

// Incomes returns the cached incomes.
func (s *IncomeStore) Incomes() []core.Income {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Income(nil), s.incomes...)
}

// UpdateIncome merge-writes the patch fields, then refetches.
func (s *IncomeStore) UpdateIncome(ctx context.Context, id string, patch IncomePatch) error {
	fields := map[string]any{}
	if patch.Name != nil {
		fields[core.FieldName] = *patch.Name
	}
	if patch.Amount != nil {
		fields[core.FieldAmount] = *patch.Amount
	}
	if patch.Date != nil {
		fields[core.FieldDate] = core.EncodeTime(*patch.Date)
	}
	if len(fields) == 0 {
		return nil
	}

	if err := s.docs.Merge(ctx, core.CollectionIncomes, id, fields); err != nil {
		slog.ErrorContext(ctx, "Income update failed", "income_id", id, "error", err)
		return err
	}
	publishChange(ctx, s.events, core.CollectionIncomes, id, events.ActionUpdated)
	return s.FetchIncomes(ctx)
}

// DeleteIncome removes the record, then refetches.
func (s *IncomeStore) DeleteIncome(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, core.CollectionIncomes, id); err != nil {
		slog.ErrorContext(ctx, "Income deletion failed", "income_id", id, "error", err)
		return err
	}
	publishChange(ctx, s.events, core.CollectionIncomes, id, events.ActionDeleted)
	return s.FetchIncomes(ctx)
}

// MonthlyTotals buckets cached incomes by calendar month, most recent first,
// and returns at most the five most recent buckets.
func (s *IncomeStore) MonthlyTotals() []MonthlyTotal {
	s.mu.Lock()
	incomes := append([]core.Income(nil), s.incomes...)
	s.mu.Unlock()

	totals := make(map[string]float64)
	var labels []string
	for _, income := range incomes {
		label := income.Date.Format(monthLabelLayout)
		if _, ok := totals[label]; !ok {
			labels = append(labels, label)
		}
		totals[label] += income.Amount
	}

	sort.SliceStable(labels, func(i, j int) bool {
		ti, _ := time.Parse(monthLabelLayout, labels[i])
		tj, _ := time.Parse(monthLabelLayout, labels[j])
		return ti.After(tj)
	})

	if len(labels) > 5 {
		labels = labels[:5]
	}
	out := make([]MonthlyTotal, 0, len(labels))
	for _, label := range labels {
		out = append(out, MonthlyTotal{Label: label, Total: totals[label]})
	}
	return out
}
