package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Result is the outcome of AddNoteHandler.Execute. Success results carry a
// NoteID; failures carry Error and a Kind other than KindNone.
type Result struct {
	Success   bool      `json:"success"`
	NoteID    string    `json:"noteId,omitempty"`
	BudgetID  string    `json:"budgetId"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
	Kind      Kind      `json:"kind"`
}

// Err converts a failed result into an error matching the kind's sentinel.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	if sentinel := r.Kind.sentinel(); sentinel != nil {
		return fmt.Errorf("%w: %s", sentinel, r.Error)
	}
	return errors.New(r.Error)
}

// HandlerOption configures an AddNoteHandler.
type HandlerOption func(*AddNoteHandler)

// WithLogger sets the handler's logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *AddNoteHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *AddNoteHandler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithIDGenerator overrides NewNoteID.
func WithIDGenerator(gen func(time.Time) string) HandlerOption {
	return func(h *AddNoteHandler) {
		if gen != nil {
			h.newID = gen
		}
	}
}

// AddNoteHandler executes AddNoteCommand: one budget read, then one note write.
//
// The handler does not link the read and the write; a NoteWriter that checks
// the parent itself reports a budget removed in between as ErrBudgetNotFound.
type AddNoteHandler struct {
	budgets BudgetReader
	notes   NoteWriter
	logger  *slog.Logger
	now     func() time.Time
	newID   func(time.Time) string
}

// NewAddNoteHandler creates a handler over the given collaborators.
func NewAddNoteHandler(budgets BudgetReader, notes NoteWriter, opts ...HandlerOption) *AddNoteHandler {
	h := &AddNoteHandler{
		budgets: budgets,
		notes:   notes,
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
		newID:   NewNoteID,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Execute runs cmd. It never panics and never returns an error; every
// failure is reported through the Result.
func (h *AddNoteHandler) Execute(ctx context.Context, cmd AddNoteCommand) (res Result) {
	budgetID := cmd.BudgetID()

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("add note panicked", "budget_id", budgetID, "panic", r)
			res = h.failure(budgetID, KindUnexpected, fmt.Sprintf("execution failed: %v", r))
		}
	}()

	if cmd.IsZero() {
		return h.failure(budgetID, KindValidation, "Invalid command")
	}

	h.logger.Info("adding note", "budget_id", budgetID, "author_id", cmd.AuthorID())

	orgID, err := DeriveOrgID(budgetID)
	if err != nil {
		h.logger.Warn("cannot derive org", "budget_id", budgetID, "error", err)
		return h.failure(budgetID, KindMalformedIdentifier, "Invalid budget ID format")
	}

	b, err := h.budgets.GetBudget(ctx, orgID, budgetID)
	if err != nil {
		h.logger.Error("budget lookup failed", "budget_id", budgetID, "org_id", orgID, "error", err)
		return h.failure(budgetID, KindUnexpected, fmt.Sprintf("execution failed: %v", err))
	}
	if b == nil || b.ID == "" {
		h.logger.Warn("budget not found", "budget_id", budgetID, "org_id", orgID)
		return h.failure(budgetID, KindNotFound, fmt.Sprintf("Budget not found: %s", budgetID))
	}

	now := h.now()
	note := BudgetNote{
		ID:        h.newID(now),
		BudgetID:  budgetID,
		OrgID:     orgID,
		Content:   cmd.NoteContent(),
		AuthorID:  cmd.AuthorID(),
		CreatedAt: cmd.CreatedAt(),
		UpdatedAt: now,
	}
	if err := h.notes.CreateNote(ctx, note); err != nil {
		if errors.Is(err, ErrBudgetNotFound) {
			h.logger.Warn("budget removed before note write", "budget_id", budgetID, "org_id", orgID)
			return h.failure(budgetID, KindNotFound, fmt.Sprintf("Budget not found: %s", budgetID))
		}
		h.logger.Error("note write failed", "budget_id", budgetID, "note_id", note.ID, "error", err)
		return h.failure(budgetID, KindUnexpected, fmt.Sprintf("execution failed: %v", err))
	}

	h.logger.Info("note added", "budget_id", budgetID, "org_id", orgID, "note_id", note.ID)
	return Result{
		Success:   true,
		NoteID:    note.ID,
		BudgetID:  budgetID,
		Timestamp: h.now(),
		Kind:      KindNone,
	}
}

func (h *AddNoteHandler) failure(budgetID string, kind Kind, msg string) Result {
	return Result{
		Success:   false,
		BudgetID:  budgetID,
		Timestamp: h.timestamp(),
		Error:     msg,
		Kind:      kind,
	}
}

// timestamp reads the clock, falling back to time.Now if it panics.
func (h *AddNoteHandler) timestamp() (t time.Time) {
	defer func() {
		if recover() != nil {
			t = time.Now()
		}
	}()
	return h.now()
}
