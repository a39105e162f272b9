package budget_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/budgetry/pkg/budget"
)

var at = time.Date(2025, 6, 1, 9, 30, 15, 123456789, time.UTC)

func TestNewAddNoteCommand_Valid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"single char", "x"},
		{"max length", strings.Repeat("a", budget.MaxNoteLength)},
		{"max length multibyte", strings.Repeat("é", budget.MaxNoteLength)},
		{"multiline", "line one\nline two"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := budget.NewAddNoteCommand("org_42_budget_99", tc.content, "user_1", at)
			require.NoError(t, err)

			assert.Equal(t, "org_42_budget_99", cmd.BudgetID())
			assert.Equal(t, tc.content, cmd.NoteContent())
			assert.Equal(t, "user_1", cmd.AuthorID())
			assert.True(t, at.Equal(cmd.CreatedAt()))

			back, err := budget.AddNoteCommandFromMap(cmd.ToMap())
			require.NoError(t, err)
			assert.True(t, back.Equal(cmd), "round trip changed the command: %v vs %v", back, cmd)
		})
	}
}

func TestNewAddNoteCommandNow(t *testing.T) {
	before := time.Now()
	cmd, err := budget.NewAddNoteCommandNow("b", "note", "u")
	require.NoError(t, err)
	assert.False(t, cmd.CreatedAt().Before(before.Round(0)))
	assert.False(t, cmd.CreatedAt().After(time.Now()))
}

func TestNewAddNoteCommand_ListsEveryViolation(t *testing.T) {
	_, err := budget.NewAddNoteCommand("  ", "", "", time.Time{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, budget.ErrValidation))

	var verr *budget.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Violations, 4)
	assert.True(t, verr.Has("budgetId", "notblank"))
	assert.True(t, verr.Has("noteContent", "notblank"))
	assert.True(t, verr.Has("authorId", "notblank"))
	assert.True(t, verr.Has("createdAt", "timestamp"))
}

func TestNewAddNoteCommand_Invalid(t *testing.T) {
	cases := []struct {
		name     string
		budgetID string
		content  string
		authorID string
		want     [][2]string
	}{
		{"blank budget", "", "hi", "u", [][2]string{{"budgetId", "notblank"}}},
		{"whitespace content", "b", " \t\n", "u", [][2]string{{"noteContent", "notblank"}}},
		{"too long", "b", strings.Repeat("a", budget.MaxNoteLength+1), "u", [][2]string{{"noteContent", "max"}}},
		{"blank author", "b", "hi", " ", [][2]string{{"authorId", "notblank"}}},
		{"too long and no author", "b", strings.Repeat("z", 6000), "", [][2]string{{"noteContent", "max"}, {"authorId", "notblank"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := budget.NewAddNoteCommand(tc.budgetID, tc.content, tc.authorID, at)
			var verr *budget.ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Len(t, verr.Violations, len(tc.want))
			for _, w := range tc.want {
				assert.True(t, verr.Has(w[0], w[1]), "missing %s/%s in %v", w[0], w[1], verr)
			}
		})
	}
}

func TestAddNoteCommand_JSON(t *testing.T) {
	cmd, err := budget.NewAddNoteCommand("alpha_beta", "Trim travel", "user_7", at)
	require.NoError(t, err)

	data, err := json.Marshal(cmd)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"budgetId": "alpha_beta",
		"noteContent": "Trim travel",
		"authorId": "user_7",
		"createdAt": "2025-06-01T09:30:15.123456789Z"
	}`, string(data))

	var back budget.AddNoteCommand
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equal(cmd))

	err = json.Unmarshal([]byte(`{"budgetId":"b","noteContent":"x","authorId":"u","createdAt":"yesterday"}`), &back)
	assert.ErrorIs(t, err, budget.ErrValidation)

	err = json.Unmarshal([]byte(`{"budgetId":"","noteContent":"x","authorId":"u","createdAt":"2025-01-01T00:00:00Z"}`), &back)
	assert.ErrorIs(t, err, budget.ErrValidation)
}

func TestAddNoteCommand_EqualAcrossZones(t *testing.T) {
	local := at.In(time.FixedZone("BRT", -3*3600))
	a, err := budget.NewAddNoteCommand("b", "x", "u", at)
	require.NoError(t, err)
	b, err := budget.NewAddNoteCommand("b", "x", "u", local)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))

	c, err := budget.NewAddNoteCommand("b", "y", "u", at)
	require.NoError(t, err)
	assert.False(t, a.Equal(c))
}
