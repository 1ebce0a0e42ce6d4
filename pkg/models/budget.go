package models

// BudgetPolicy defines max tokens per user per day.
// User "*" matches any user.
type BudgetPolicy struct {
	User      string `json:"user" yaml:"user"`
	MaxTokens int64  `json:"max_tokens" yaml:"max_tokens"`
}

// BudgetStatus shows current usage against a policy.
type BudgetStatus struct {
	Policy    BudgetPolicy `json:"policy"`
	Used      int64        `json:"used"`
	Remaining int64        `json:"remaining"`
}
