// Package budget implements budget notes and the budget list view.
//
// Notes are added through AddNoteCommand and AddNoteHandler. Budgets are
// listed through DeriveBudgetList, which ListView recomputes whenever the
// store reports a change.
package budget

import "time"

// Status is the lifecycle stage of a budget.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusPromoted Status = "promoted"
	StatusArchived Status = "archived"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusDraft, StatusActive, StatusPromoted, StatusArchived}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Budget is stored at orgs/{orgId}/budgets/{id}.
type Budget struct {
	ID         string   `json:"id"`
	OrgID      string   `json:"orgId"`
	Name       string   `json:"name"`
	OwnerID    string   `json:"ownerId,omitempty"`
	Status     Status   `json:"status,omitempty"`
	StartYear  int      `json:"startYear"`
	Duration   int      `json:"duration"`
	SharedWith []string `json:"sharedWith,omitempty"`
}

// LastYear is the last calendar year the budget covers.
func (b Budget) LastYear() int {
	return b.StartYear + b.Duration - 1
}

// SharedWithUser reports whether userID owns b or has it shared.
func (b Budget) SharedWithUser(userID string) bool {
	if b.OwnerID == userID {
		return true
	}
	for _, u := range b.SharedWith {
		if u == userID {
			return true
		}
	}
	return false
}

// ListedBudget is a budget as displayed in lists.
type ListedBudget struct {
	Budget
	EndYear int `json:"endYear"`
}

// BudgetNote is stored at orgs/{orgId}/budgets/{budgetId}/notes/{id}.
// Notes are never updated once created.
type BudgetNote struct {
	ID        string    `json:"id"`
	BudgetID  string    `json:"budgetId"`
	OrgID     string    `json:"orgId"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
