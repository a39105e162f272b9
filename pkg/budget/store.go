package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/aretw0/budgetry/pkg/core"
	"github.com/aretw0/budgetry/pkg/typed"
)

// BudgetReader looks up a budget within an org scope. A nil budget with a
// nil error means it does not exist.
type BudgetReader interface {
	GetBudget(ctx context.Context, orgID, budgetID string) (*Budget, error)
}

// NoteWriter persists a new note. Writing an existing note ID fails.
type NoteWriter interface {
	CreateNote(ctx context.Context, note BudgetNote) error
}

// Store keeps budgets and notes as documents in a core.Repository, under
// orgs/{orgId}/budgets and orgs/{orgId}/budgets/{budgetId}/notes.
type Store struct {
	repo   core.Repository
	logger *slog.Logger
}

// NewStore wraps repo. A nil logger discards output.
func NewStore(repo core.Repository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{repo: repo, logger: logger}
}

// BudgetsPath returns the collection path holding an org's budgets.
func BudgetsPath(orgID string) string {
	return path.Join("orgs", orgID, "budgets")
}

// NotesPath returns the collection path holding a budget's notes.
func NotesPath(orgID, budgetID string) string {
	return path.Join("orgs", orgID, "budgets", budgetID, "notes")
}

func (s *Store) budgets(orgID string) *typed.Collection[Budget] {
	return typed.NewCollection[Budget](core.NewCollection(s.repo, "orgs", orgID, "budgets"))
}

func (s *Store) notes(orgID, budgetID string) *typed.Collection[BudgetNote] {
	return typed.NewCollection[BudgetNote](core.NewCollection(s.repo, "orgs", orgID, "budgets").Sub(budgetID, "notes"))
}

func checkScope(orgID string) error {
	if strings.TrimSpace(orgID) == "" || strings.ContainsAny(orgID, `/\`) || orgID == "." || orgID == ".." {
		return fmt.Errorf("%w: org %q", core.ErrInvalidID, orgID)
	}
	return nil
}

// GetBudget implements BudgetReader. An ID that cannot name a document, or
// a record stored under a different ID, reads as absent.
func (s *Store) GetBudget(ctx context.Context, orgID, budgetID string) (*Budget, error) {
	if err := checkScope(orgID); err != nil {
		return nil, err
	}
	doc, err := s.budgets(orgID).GetByID(ctx, budgetID)
	if errors.Is(err, core.ErrInvalidID) {
		s.logger.Debug("budget id cannot name a document", "budget_id", budgetID, "error", err)
		return nil, nil
	}
	if err != nil || doc == nil {
		return nil, err
	}
	if doc.Data.ID != budgetID {
		s.logger.Warn("budget record id mismatch", "budget_id", budgetID, "stored_id", doc.Data.ID)
		return nil, nil
	}
	b := doc.Data
	return &b, nil
}

// CreateBudget stores a new budget; it fails with core.ErrAlreadyExists if the ID is taken.
// An empty OrgID is filled with the org derived from the ID.
func (s *Store) CreateBudget(ctx context.Context, b Budget) error {
	b, err := checkBudget(b)
	if err != nil {
		return err
	}
	return s.budgets(b.OrgID).Create(ctx, &typed.DocumentModel[Budget]{ID: b.ID, Data: b})
}

// SaveBudget creates or replaces a budget.
func (s *Store) SaveBudget(ctx context.Context, b Budget) error {
	b, err := checkBudget(b)
	if err != nil {
		return err
	}
	return s.budgets(b.OrgID).Put(ctx, &typed.DocumentModel[Budget]{ID: b.ID, Data: b})
}

// checkBudget keeps a budget under the org its ID derives to, so that
// AddNoteHandler can find it again.
func checkBudget(b Budget) (Budget, error) {
	if b.OrgID != "" {
		if err := checkScope(b.OrgID); err != nil {
			return b, err
		}
	}
	derived, err := DeriveOrgID(b.ID)
	if err != nil {
		return b, err
	}
	switch b.OrgID {
	case "":
		b.OrgID = derived
	case derived:
	default:
		return b, fmt.Errorf("%w: budget %q derives org %q, not %q", ErrMalformedIdentifier, b.ID, derived, b.OrgID)
	}
	if b.Status != "" && !b.Status.Valid() {
		return b, fmt.Errorf("unknown budget status %q", b.Status)
	}
	return b, nil
}

// ListBudgets returns an org's budgets ordered by ID.
func (s *Store) ListBudgets(ctx context.Context, orgID string) ([]Budget, error) {
	if err := checkScope(orgID); err != nil {
		return nil, err
	}
	docs, err := s.budgets(orgID).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets for %s: %w", orgID, err)
	}

	out := make([]Budget, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Data)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	s.logger.Debug("budgets listed", "org_id", orgID, "count", len(out))
	return out, nil
}

// CreateNote implements NoteWriter. The note text is also kept as the document body.
// On transactional repositories the parent budget is re-read in the same
// unit of work as the write, and a missing parent yields ErrBudgetNotFound.
func (s *Store) CreateNote(ctx context.Context, note BudgetNote) error {
	if err := checkScope(note.OrgID); err != nil {
		return err
	}
	doc := &typed.DocumentModel[BudgetNote]{
		ID:      note.ID,
		Content: note.Content,
		Data:    note,
	}

	if _, ok := s.repo.(core.Transactional); !ok {
		return s.notes(note.OrgID, note.BudgetID).Create(ctx, doc)
	}

	svc := core.NewService(s.repo, core.WithServiceLogger(s.logger))
	ctx = context.WithValue(ctx, core.ChangeReasonKey, "add note "+note.ID)
	return svc.WithTransaction(ctx, func(tx core.Transaction) error {
		parent, err := s.budgets(note.OrgID).Tx(tx).GetByID(ctx, note.BudgetID)
		if err != nil {
			return err
		}
		if parent == nil || parent.Data.ID != note.BudgetID {
			return fmt.Errorf("%w: %s", ErrBudgetNotFound, note.BudgetID)
		}
		return s.notes(note.OrgID, note.BudgetID).Tx(tx).Create(ctx, doc)
	})
}

// ListNotes returns a budget's notes, oldest first.
func (s *Store) ListNotes(ctx context.Context, orgID, budgetID string) ([]BudgetNote, error) {
	if err := checkScope(orgID); err != nil {
		return nil, err
	}
	docs, err := s.notes(orgID, budgetID).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notes for %s: %w", budgetID, err)
	}

	out := make([]BudgetNote, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Data)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Source yields the raw collections a list view derives its state from.
type Source func(ctx context.Context) ([]any, error)

// OverviewSource groups an org's budgets by status, one group per status in display order.
func (s *Store) OverviewSource(orgID string) Source {
	return func(ctx context.Context) ([]any, error) {
		all, err := s.ListBudgets(ctx, orgID)
		if err != nil {
			return nil, err
		}
		byStatus := make(map[Status][]Budget)
		for _, b := range all {
			st := b.Status
			if st == "" {
				st = StatusDraft
			}
			byStatus[st] = append(byStatus[st], b)
		}
		var groups []any
		for _, st := range Statuses {
			if group := byStatus[st]; len(group) > 0 {
				groups = append(groups, group)
			}
		}
		return groups, nil
	}
}

// BudgetsSource yields the budgets userID owns followed by those shared with
// them, as two groups. An empty userID yields every budget in the org.
func (s *Store) BudgetsSource(orgID, userID string) Source {
	return func(ctx context.Context) ([]any, error) {
		all, err := s.ListBudgets(ctx, orgID)
		if err != nil {
			return nil, err
		}
		if userID == "" {
			return []any{all}, nil
		}
		var owned, shared []Budget
		for _, b := range all {
			switch {
			case b.OwnerID == userID:
				owned = append(owned, b)
			case b.SharedWithUser(userID):
				shared = append(shared, b)
			}
		}
		return []any{owned, shared}, nil
	}
}

var (
	_ BudgetReader = (*Store)(nil)
	_ NoteWriter   = (*Store)(nil)
)
