package budget

import (
	"fmt"
	"regexp"
	"strings"
)

var orgBudgetPattern = regexp.MustCompile(`^org_([^_]+)_budget_`)

// DeriveOrgID computes the organization scope encoded in a budget ID:
//
//	org_42_budget_99  -> org_42
//	alpha_beta_gamma  -> alpha_beta
//	solo              -> solo
//
// IDs that are blank or cannot form a path segment yield ErrMalformedIdentifier.
func DeriveOrgID(budgetID string) (string, error) {
	if strings.TrimSpace(budgetID) == "" {
		return "", fmt.Errorf("%w: empty", ErrMalformedIdentifier)
	}
	if strings.ContainsAny(budgetID, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrMalformedIdentifier, budgetID)
	}

	var orgID string
	if m := orgBudgetPattern.FindStringSubmatch(budgetID); m != nil {
		orgID = "org_" + m[1]
	} else if strings.Contains(budgetID, "_") {
		parts := strings.SplitN(budgetID, "_", 3)
		orgID = parts[0] + "_" + parts[1]
	} else {
		orgID = budgetID
	}

	if orgID == "." || orgID == ".." {
		return "", fmt.Errorf("%w: %q", ErrMalformedIdentifier, budgetID)
	}
	return orgID, nil
}
