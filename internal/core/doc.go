package core

import (
	"time"
)

// Document field names, shared across backends. Optional fields follow the
// sparse-field policy: an absent value is omitted from the document entirely,
// never written as a null sentinel.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldAvatarURL       = "avatarUrl"
	FieldCreatedAt       = "createdAt"
	FieldUpdatedAt       = "updatedAt"
	FieldUserID          = "userId"
	FieldDescription     = "description"
	FieldCreatedBy       = "createdBy"
	FieldMembers         = "members"
	FieldAmount          = "amount"
	FieldSpent           = "spent"
	FieldGroupID         = "groupId"
	FieldSharedWithGroup = "sharedWithGroup"
	FieldBudgetID        = "budgetId"
	FieldIsShared        = "isShared"
	FieldSplitAmount     = "splitAmount"
	FieldPaidBy          = "paidBy"
	FieldDate            = "date"
	FieldPaid            = "paid"
)

// Timestamps are encoded as RFC 3339 strings so documents round-trip
// identically through every backend, JSON included.
func EncodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Doc encodes a group for writing. Description is sparse.
func (g Group) Doc() map[string]any {
	doc := map[string]any{
		FieldName:      g.Name,
		FieldCreatedBy: g.CreatedBy,
		FieldMembers:   toAnySlice(g.Members),
		FieldCreatedAt: EncodeTime(g.CreatedAt),
	}
	if g.Description != "" {
		doc[FieldDescription] = g.Description
	}
	return doc
}

// Doc encodes a budget for writing. GroupID is sparse.
func (b Budget) Doc() map[string]any {
	doc := map[string]any{
		FieldName:            b.Name,
		FieldAmount:          b.Amount,
		FieldSpent:           b.Spent,
		FieldUserID:          b.UserID,
		FieldSharedWithGroup: b.SharedWithGroup,
		FieldCreatedAt:       EncodeTime(b.CreatedAt),
	}
	if b.GroupID != "" {
		doc[FieldGroupID] = b.GroupID
	}
	return doc
}

// Doc encodes an expense for writing. BudgetID, GroupID and SplitAmount are
// sparse; PaidBy is always present, empty for unshared expenses.
func (e Expense) Doc() map[string]any {
	paidBy := map[string]any{}
	for uid, share := range e.PaidBy {
		paidBy[uid] = map[string]any{
			FieldPaid:   share.Paid,
			FieldAmount: share.Amount,
		}
	}
	doc := map[string]any{
		FieldName:     e.Name,
		FieldAmount:   e.Amount,
		FieldDate:     e.Date,
		FieldUserID:   e.UserID,
		FieldIsShared: e.IsShared,
		FieldPaidBy:   paidBy,
	}
	if e.BudgetID != "" {
		doc[FieldBudgetID] = e.BudgetID
	}
	if e.GroupID != "" {
		doc[FieldGroupID] = e.GroupID
		doc[FieldSplitAmount] = e.SplitAmount
	}
	return doc
}

// Doc encodes an income for writing.
func (i Income) Doc() map[string]any {
	return map[string]any{
		FieldName:      i.Name,
		FieldAmount:    i.Amount,
		FieldDate:      EncodeTime(i.Date),
		FieldUserID:    i.UserID,
		FieldCreatedAt: EncodeTime(i.CreatedAt),
	}
}

// UserFromDoc decodes a users document.
func UserFromDoc(id string, fields map[string]any) User {
	return User{
		ID:        id,
		Name:      asString(fields[FieldName]),
		Email:     asString(fields[FieldEmail]),
		AvatarURL: asString(fields[FieldAvatarURL]),
		CreatedAt: asTime(fields[FieldCreatedAt]),
		UpdatedAt: asTime(fields[FieldUpdatedAt]),
	}
}

// GroupFromDoc decodes a groups document.
func GroupFromDoc(id string, fields map[string]any) Group {
	return Group{
		ID:          id,
		Name:        asString(fields[FieldName]),
		Description: asString(fields[FieldDescription]),
		CreatedBy:   asString(fields[FieldCreatedBy]),
		Members:     asStringSlice(fields[FieldMembers]),
		CreatedAt:   asTime(fields[FieldCreatedAt]),
	}
}

// BudgetFromDoc decodes a budgets document.
func BudgetFromDoc(id string, fields map[string]any) Budget {
	return Budget{
		ID:              id,
		Name:            asString(fields[FieldName]),
		Amount:          asFloat(fields[FieldAmount]),
		Spent:           asFloat(fields[FieldSpent]),
		UserID:          asString(fields[FieldUserID]),
		GroupID:         asString(fields[FieldGroupID]),
		SharedWithGroup: asBool(fields[FieldSharedWithGroup]),
		CreatedAt:       asTime(fields[FieldCreatedAt]),
	}
}

// ExpenseFromDoc decodes an expenses document.
func ExpenseFromDoc(id string, fields map[string]any) Expense {
	paidBy := map[string]PaidShare{}
	if raw, ok := fields[FieldPaidBy].(map[string]any); ok {
		for uid, v := range raw {
			share, ok := v.(map[string]any)
			if !ok {
				continue
			}
			paidBy[uid] = PaidShare{
				Paid:   asBool(share[FieldPaid]),
				Amount: asFloat(share[FieldAmount]),
			}
		}
	}
	return Expense{
		ID:          id,
		Name:        asString(fields[FieldName]),
		Amount:      asFloat(fields[FieldAmount]),
		Date:        asString(fields[FieldDate]),
		UserID:      asString(fields[FieldUserID]),
		BudgetID:    asString(fields[FieldBudgetID]),
		GroupID:     asString(fields[FieldGroupID]),
		IsShared:    asBool(fields[FieldIsShared]),
		SplitAmount: asFloat(fields[FieldSplitAmount]),
		PaidBy:      paidBy,
	}
}

// IncomeFromDoc decodes an incomes document.
func IncomeFromDoc(id string, fields map[string]any) Income {
	return Income{
		ID:        id,
		Name:      asString(fields[FieldName]),
		Amount:    asFloat(fields[FieldAmount]),
		Date:      asTime(fields[FieldDate]),
		UserID:    asString(fields[FieldUserID]),
		CreatedAt: asTime(fields[FieldCreatedAt]),
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func asStringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return append([]string(nil), s...)
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func toAnySlice(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
