package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldBackend    = "backend"
	FieldCollection = "collection"
	FieldUserID     = "uid"
	FieldGroupID    = "group_id"
	FieldBudgetID   = "budget_id"
	FieldExpenseID  = "expense_id"
	FieldIncomeID   = "income_id"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentBackend  = "backend"
	ComponentSession  = "session"
	ComponentGroups   = "groups"
	ComponentBudgets  = "budgets"
	ComponentExpenses = "expenses"
	ComponentIncomes  = "incomes"
	ComponentProfile  = "profile"
	ComponentEvents   = "events"
)
