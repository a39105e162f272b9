package budget_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/budgetry/pkg/budget"
)

func TestDeriveBudgetList_NilInputs(t *testing.T) {
	for name, in := range map[string][2][]any{
		"both nil":     {nil, nil},
		"overview nil": {nil, {[]any{}}},
		"budgets nil":  {{[]any{}}, nil},
	} {
		t.Run(name, func(t *testing.T) {
			got := budget.DeriveBudgetList(nil, in[0], in[1])
			assert.NotNil(t, got.Overview)
			assert.NotNil(t, got.Budgets)
			assert.Empty(t, got.Overview)
			assert.Empty(t, got.Budgets)
			assert.Equal(t, 0, got.Count())
		})
	}
}

func TestDeriveBudgetList_FlattensOneLevel(t *testing.T) {
	overview := []any{
		[]any{
			map[string]any{"id": "a", "name": "A", "startYear": 2024, "duration": 1},
			map[string]any{"id": "b", "name": "B", "startYear": 2025.0, "duration": 3},
		},
		[]budget.Budget{{ID: "c", StartYear: 2030, Duration: 5}},
	}
	budgets := []any{
		budget.Budget{ID: "d", StartYear: 2020, Duration: 2},
		&budget.Budget{ID: "e", StartYear: 2021, Duration: 10},
		[]map[string]any{{"id": "f", "startYear": 2022, "duration": 0}},
	}

	got := budget.DeriveBudgetList(nil, overview, budgets)

	require.Len(t, got.Overview, 3)
	require.Len(t, got.Budgets, 3)
	assert.Equal(t, 3, got.Count())

	for _, lb := range append(got.Overview, got.Budgets...) {
		assert.Equal(t, lb.StartYear+lb.Duration-1, lb.EndYear, "budget %s", lb.ID)
	}
	assert.Equal(t, 2024, got.Overview[0].EndYear)
	assert.Equal(t, 2027, got.Overview[1].EndYear)
	assert.Equal(t, "B", got.Overview[1].Name)
	assert.Equal(t, 2034, got.Overview[2].EndYear)
	assert.Equal(t, 2030, got.Budgets[1].EndYear)
	assert.Equal(t, 2021, got.Budgets[2].EndYear)
}

func TestDeriveBudgetList_SkipsNilEntries(t *testing.T) {
	overview := []any{nil, []any{nil, budget.Budget{ID: "b1", StartYear: 2025, Duration: 1}}}
	budgets := []any{[]map[string]any{nil, {"id": "b2", "startYear": 2025, "duration": 2}}}

	got := budget.DeriveBudgetList(nil, overview, budgets)
	require.Len(t, got.Overview, 1)
	assert.Equal(t, "b1", got.Overview[0].ID)
	require.Len(t, got.Budgets, 1)
	assert.Equal(t, 2026, got.Budgets[0].EndYear)
}

func TestDeriveBudgetList_BadShapeDegradesToEmpty(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	cases := map[string][]any{
		"scalar":         {42},
		"too deep":       {[]any{[]any{map[string]any{"id": "x"}}}},
		"bad field type": {map[string]any{"id": "x", "startYear": "soon"}},
		"nil pointer":    {(*budget.Budget)(nil)},
	}
	for name, bad := range cases {
		t.Run(name, func(t *testing.T) {
			buf.Reset()
			ok := []any{budget.Budget{ID: "fine", StartYear: 2025, Duration: 1}}

			got := budget.DeriveBudgetList(logger, ok, bad)
			assert.Empty(t, got.Overview)
			assert.Empty(t, got.Budgets)
			assert.Contains(t, buf.String(), "level=ERROR")
		})
	}
}

func TestBudgetList_Equal(t *testing.T) {
	a := budget.DeriveBudgetList(nil, nil, []any{budget.Budget{ID: "x", SharedWith: []string{"u"}}})
	b := budget.DeriveBudgetList(nil, nil, []any{budget.Budget{ID: "x", SharedWith: []string{"u"}}})
	c := budget.DeriveBudgetList(nil, nil, []any{budget.Budget{ID: "x", SharedWith: []string{"v"}}})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
