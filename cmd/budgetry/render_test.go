package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/budgetry/pkg/budget"
)

func TestRenderRows(t *testing.T) {
	out := renderRows("org_a: 1 budgets", []budget.Row{
		{ID: "org_a_budget_1", Name: "Ops", Status: budget.StatusActive, StartYear: 2025, EndYear: 2027, CanEdit: true},
	})

	assert.Contains(t, out, "org_a: 1 budgets")
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "org_a_budget_1")
	assert.Contains(t, out, "2027")
	assert.Contains(t, out, "yes")
}

func TestRenderNotes(t *testing.T) {
	out := renderNotes([]budget.BudgetNote{{
		ID:        "note_1_abcdefghi",
		AuthorID:  "u1",
		Content:   "Raise cap",
		CreatedAt: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
	}})

	assert.Contains(t, out, "note_1_abcdefghi")
	assert.Contains(t, out, "2025-03-01 09:30")
	assert.Contains(t, out, "Raise cap")
}
