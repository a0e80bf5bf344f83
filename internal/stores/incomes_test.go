package stores

import (
	"context"
	"testing"
	"time"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

func addIncome(t *testing.T, set *Set, name string, amount float64, when time.Time) {
	t.Helper()
	if err := set.Incomes.CreateIncome(context.Background(), IncomeInput{Name: name, Amount: amount, Date: when}); err != nil {
		t.Fatalf("create income %s: %v", name, err)
	}
}

func TestCreateAndFetchIncomes(t *testing.T) {
	set, _ := newTestSet(t)
	uid := signUp(t, set, "alice@example.com")

	addIncome(t, set, "Salary", 2500, date(2026, time.August, 1))

	incomes := set.Incomes.Incomes()
	if len(incomes) != 1 {
		t.Fatalf("expected 1 income, got %d", len(incomes))
	}
	if incomes[0].UserID != uid {
		t.Errorf("owner = %q, want %q", incomes[0].UserID, uid)
	}
	if !incomes[0].Date.Equal(date(2026, time.August, 1)) {
		t.Errorf("date = %v, want round-tripped original", incomes[0].Date)
	}
}

func TestIncomesArePersonal(t *testing.T) {
	set, _ := newTestSet(t)
	signUp(t, set, "alice@example.com")
	addIncome(t, set, "Salary", 2500, date(2026, time.August, 1))

	signUp(t, set, "bob@example.com")
	if err := set.Incomes.FetchIncomes(context.Background()); err != nil {
		t.Fatalf("fetch incomes: %v", err)
	}
	if n := len(set.Incomes.Incomes()); n != 0 {
		t.Errorf("other user sees %d incomes, want 0", n)
	}
}

func TestUpdateIncomePartialPatch(t *testing.T) {
	set, _ := newTestSet(t)
	ctx := context.Background()
	signUp(t, set, "alice@example.com")
	addIncome(t, set, "Salary", 2500, date(2026, time.August, 1))
	id := set.Incomes.Incomes()[0].ID

	amount := 2600.0
	if err := set.Incomes.UpdateIncome(ctx, id, IncomePatch{Amount: &amount}); err != nil {
		t.Fatalf("update income: %v", err)
	}
	got := set.Incomes.Incomes()[0]
	if got.Amount != 2600 {
		t.Errorf("amount = %v, want 2600", got.Amount)
	}
	if got.Name != "Salary" {
		t.Errorf("name changed by partial patch: %q", got.Name)
	}

	// Empty patch writes nothing.
	if err := set.Incomes.UpdateIncome(ctx, id, IncomePatch{}); err != nil {
		t.Fatalf("empty patch: %v", err)
	}
}

func TestDeleteIncome(t *testing.T) {
	set, _ := newTestSet(t)
	ctx := context.Background()
	signUp(t, set, "alice@example.com")
	addIncome(t, set, "One-off", 100, date(2026, time.July, 10))
	id := set.Incomes.Incomes()[0].ID

	if err := set.Incomes.DeleteIncome(ctx, id); err != nil {
		t.Fatalf("delete income: %v", err)
	}
	if len(set.Incomes.Incomes()) != 0 {
		t.Error("income cache not empty after deletion")
	}
}

func TestMonthlyTotalsBucketsAndOrder(t *testing.T) {
	set, _ := newTestSet(t)
	signUp(t, set, "alice@example.com")

	addIncome(t, set, "Salary Jul", 2500, date(2026, time.July, 1))
	addIncome(t, set, "Bonus Jul", 500, date(2026, time.July, 20))
	addIncome(t, set, "Salary Aug", 2500, date(2026, time.August, 1))
	addIncome(t, set, "Salary Jun", 2400, date(2026, time.June, 1))

	totals := set.Incomes.MonthlyTotals()
	if len(totals) != 3 {
		t.Fatalf("expected 3 buckets, got %d: %+v", len(totals), totals)
	}
	want := []MonthlyTotal{
		{Label: "August 2026", Total: 2500},
		{Label: "July 2026", Total: 3000},
		{Label: "June 2026", Total: 2400},
	}
	for i, w := range want {
		if totals[i] != w {
			t.Errorf("bucket %d = %+v, want %+v", i, totals[i], w)
		}
	}
}

func TestMonthlyTotalsCapsAtFiveMostRecent(t *testing.T) {
	set, _ := newTestSet(t)
	signUp(t, set, "alice@example.com")

	for month := time.January; month <= time.July; month++ {
		addIncome(t, set, "Salary", 1000, date(2026, month, 1))
	}

	totals := set.Incomes.MonthlyTotals()
	if len(totals) != 5 {
		t.Fatalf("expected 5 buckets, got %d", len(totals))
	}
	if totals[0].Label != "July 2026" {
		t.Errorf("most recent bucket = %q, want July 2026", totals[0].Label)
	}
	if totals[4].Label != "March 2026" {
		t.Errorf("oldest kept bucket = %q, want March 2026 (Jan/Feb dropped)", totals[4].Label)
	}
}

func TestMonthlyTotalsEmpty(t *testing.T) {
	set, _ := newTestSet(t)
	signUp(t, set, "alice@example.com")
	if totals := set.Incomes.MonthlyTotals(); len(totals) != 0 {
		t.Errorf("expected no buckets, got %+v", totals)
	}
}
