package core

import (
	"errors"
	"strings"
	"time"
)

// Collection names in the remote document store.
const (
	CollectionUsers    = "users"
	CollectionGroups   = "groups"
	CollectionBudgets  = "budgets"
	CollectionExpenses = "expenses"
	CollectionIncomes  = "incomes"
)

type (
	// User is an account record from the users collection. Identity fields
	// (ID, CreatedAt) are immutable; profile fields are owner-mutable.
	User struct {
		ID        string
		Name      string
		Email     string
		AvatarURL string // optional, data-URL encoded image
		CreatedAt time.Time
		UpdatedAt time.Time // optional, stamped on profile updates
	}

	// Group is a membership list shared budgets and expenses hang off.
	// Members is treated as a set; the creator is always a member at creation.
	Group struct {
		ID          string
		Name        string
		Description string // optional
		CreatedBy   string
		Members     []string
		CreatedAt   time.Time
	}

	// Budget is a spending limit with a running derived Spent total.
	// Spent is maintained incrementally by expense creation, never recomputed.
	Budget struct {
		ID              string
		Name            string
		Amount          float64
		Spent           float64
		UserID          string
		GroupID         string // optional, absent from the document when empty
		SharedWithGroup bool
		CreatedAt       time.Time
	}

	// PaidShare is one member's slice of a shared expense.
	PaidShare struct {
		Paid   bool
		Amount float64
	}

	// Expense is a spending record, optionally linked to a budget and
	// optionally split across a group. For a shared expense PaidBy holds one
	// entry per group member at creation time.
	Expense struct {
		ID          string
		Name        string
		Amount      float64
		Date        string
		UserID      string
		BudgetID    string  // optional
		GroupID     string  // optional
		IsShared    bool
		SplitAmount float64 // optional, present only when a group is attached
		PaidBy      map[string]PaidShare
	}

	// Income is a strictly personal earning record.
	Income struct {
		ID        string
		Name      string
		Amount    float64
		Date      time.Time
		UserID    string
		CreatedAt time.Time
	}
)

var (
	ErrEmptyName     = errors.New("empty name")
	ErrInvalidAmount = errors.New("invalid amount")
)

func (g Group) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if b.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (i Income) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if i.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// IsMember reports whether uid is in the group's member set.
func (g Group) IsMember(uid string) bool {
	for _, m := range g.Members {
		if m == uid {
			return true
		}
	}
	return false
}
