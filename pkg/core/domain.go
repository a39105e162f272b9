// Package core holds the storage-agnostic document model shared by every
// budgetry adapter: documents, change events, repository ports and the
// path-scoped collections the budget domain writes through.
package core

import "fmt"

// Metadata represents the flexible key-value pairs associated with a document.
type Metadata map[string]any

// Document is the unit of storage.
// Its ID is a slash separated path such as "orgs/org_1/budgets/org_1_budget_7".
type Document struct {
	ID       string
	Content  string
	Metadata Metadata
}

// EventType represents the type of change in the store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change in the store.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

// String makes Event printable in logs and lifecycle traces.
func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}

type contextKey string

// ChangeReasonKey is the context key for passing a change reason (audit message) to Save/Delete.
const ChangeReasonKey contextKey = "change_reason"
