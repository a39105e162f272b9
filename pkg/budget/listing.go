package budget

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/budgetry/pkg/typed"
)

// BudgetList is the derived display state of the budget list.
type BudgetList struct {
	Overview []ListedBudget `json:"overview"`
	Budgets  []ListedBudget `json:"budgets"`
}

// Count is the number of budgets shown to the user.
func (l BudgetList) Count() int {
	return len(l.Budgets)
}

// Equal compares two lists element by element.
func (l BudgetList) Equal(o BudgetList) bool {
	return listedEqual(l.Overview, o.Overview) && listedEqual(l.Budgets, o.Budgets)
}

func listedEqual(a, b []ListedBudget) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.ID != y.ID || x.OrgID != y.OrgID || x.Name != y.Name || x.OwnerID != y.OwnerID ||
			x.Status != y.Status || x.StartYear != y.StartYear || x.Duration != y.Duration ||
			x.EndYear != y.EndYear || len(x.SharedWith) != len(y.SharedWith) {
			return false
		}
		for j := range x.SharedWith {
			if x.SharedWith[j] != y.SharedWith[j] {
				return false
			}
		}
	}
	return true
}

func emptyList() BudgetList {
	return BudgetList{Overview: []ListedBudget{}, Budgets: []ListedBudget{}}
}

// DeriveBudgetList flattens overview and budgets by one level and sets EndYear
// on every record. Each element is either a record (map[string]any, Budget,
// *Budget, ListedBudget) or a group of records ([]any, []map[string]any,
// []Budget, []ListedBudget). Any other shape is logged and yields an empty list.
func DeriveBudgetList(logger *slog.Logger, overview, budgets []any) (list BudgetList) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("budget list derivation panicked", "panic", r)
			list = emptyList()
		}
	}()

	ov, err := flatten(overview)
	if err != nil {
		logger.Error("failed to derive budget overview", "error", err)
		return emptyList()
	}
	bs, err := flatten(budgets)
	if err != nil {
		logger.Error("failed to derive budget list", "error", err)
		return emptyList()
	}
	return BudgetList{Overview: ov, Budgets: bs}
}

func flatten(items []any) ([]ListedBudget, error) {
	out := []ListedBudget{}
	for i, item := range items {
		switch group := item.(type) {
		case []any:
			for j, rec := range group {
				if rec == nil {
					continue
				}
				lb, err := toListed(rec)
				if err != nil {
					return nil, fmt.Errorf("item %d.%d: %w", i, j, err)
				}
				out = append(out, lb)
			}
		case []map[string]any:
			for j, rec := range group {
				if rec == nil {
					continue
				}
				lb, err := toListed(rec)
				if err != nil {
					return nil, fmt.Errorf("item %d.%d: %w", i, j, err)
				}
				out = append(out, lb)
			}
		case []Budget:
			for _, b := range group {
				out = append(out, listed(b))
			}
		case []ListedBudget:
			for _, lb := range group {
				out = append(out, listed(lb.Budget))
			}
		case nil:
		default:
			lb, err := toListed(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out = append(out, lb)
		}
	}
	return out, nil
}

func toListed(rec any) (ListedBudget, error) {
	switch v := rec.(type) {
	case Budget:
		return listed(v), nil
	case *Budget:
		if v == nil {
			return ListedBudget{}, fmt.Errorf("nil budget")
		}
		return listed(*v), nil
	case ListedBudget:
		return listed(v.Budget), nil
	case map[string]any:
		b, err := typed.FromMetadata[Budget](v)
		if err != nil {
			return ListedBudget{}, err
		}
		return listed(b), nil
	default:
		return ListedBudget{}, fmt.Errorf("unexpected budget record of type %T", rec)
	}
}

func listed(b Budget) ListedBudget {
	return ListedBudget{Budget: b, EndYear: b.LastYear()}
}
