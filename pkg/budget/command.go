package budget

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// MaxNoteLength is the maximum note length in characters.
const MaxNoteLength = 5000

// AddNoteCommand asks for a free-text note to be appended to a budget.
// It can only be obtained through a constructor, so every instance is valid.
type AddNoteCommand struct {
	budgetID    string
	noteContent string
	authorID    string
	createdAt   time.Time
}

// addNoteInput carries the exported fields the validator inspects.
type addNoteInput struct {
	BudgetID    string    `json:"budgetId" validate:"notblank"`
	NoteContent string    `json:"noteContent" validate:"notblank,max=5000"`
	AuthorID    string    `json:"authorId" validate:"notblank"`
	CreatedAt   time.Time `json:"createdAt" validate:"timestamp"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func commandValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("timestamp", func(fl validator.FieldLevel) bool {
			t, ok := fl.Field().Interface().(time.Time)
			if !ok || t.IsZero() {
				return false
			}
			// Must survive the RFC 3339 round trip.
			return t.Year() >= 0 && t.Year() <= 9999
		})
		validate = v
	})
	return validate
}

// NewAddNoteCommand validates the inputs and returns an immutable command.
// On failure the *ValidationError lists every violated field.
func NewAddNoteCommand(budgetID, noteContent, authorID string, createdAt time.Time) (AddNoteCommand, error) {
	in := addNoteInput{
		BudgetID:    budgetID,
		NoteContent: noteContent,
		AuthorID:    authorID,
		CreatedAt:   createdAt,
	}
	if err := commandValidator().Struct(in); err != nil {
		return AddNoteCommand{}, toValidationError(err)
	}
	return AddNoteCommand{
		budgetID:    budgetID,
		noteContent: noteContent,
		authorID:    authorID,
		createdAt:   createdAt.Round(0),
	}, nil
}

// NewAddNoteCommandNow is NewAddNoteCommand with createdAt set to the current time.
func NewAddNoteCommandNow(budgetID, noteContent, authorID string) (AddNoteCommand, error) {
	return NewAddNoteCommand(budgetID, noteContent, authorID, time.Now())
}

func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Violations: []Violation{{Field: "", Rule: "invalid", Message: err.Error()}}}
	}

	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.Violations = append(verr.Violations, Violation{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: violationMessage(fe),
		})
	}
	return verr
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return fmt.Sprintf("%s must not be empty", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "timestamp":
		return fmt.Sprintf("%s must be a valid timestamp", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

func (c AddNoteCommand) BudgetID() string     { return c.budgetID }
func (c AddNoteCommand) NoteContent() string  { return c.noteContent }
func (c AddNoteCommand) AuthorID() string     { return c.authorID }
func (c AddNoteCommand) CreatedAt() time.Time { return c.createdAt }

// IsZero reports whether c was not produced by a constructor.
func (c AddNoteCommand) IsZero() bool {
	return c.budgetID == "" && c.authorID == "" && c.createdAt.IsZero()
}

// Equal reports value equality; timestamps compare as instants.
func (c AddNoteCommand) Equal(o AddNoteCommand) bool {
	return c.budgetID == o.budgetID &&
		c.noteContent == o.noteContent &&
		c.authorID == o.authorID &&
		c.createdAt.Equal(o.createdAt)
}

// ToMap returns the serialized form with createdAt as an RFC 3339 string.
func (c AddNoteCommand) ToMap() map[string]any {
	return map[string]any{
		"budgetId":    c.budgetID,
		"noteContent": c.noteContent,
		"authorId":    c.authorID,
		"createdAt":   c.createdAt.Format(time.RFC3339Nano),
	}
}

// AddNoteCommandFromMap rebuilds and re-validates a command from its serialized form.
func AddNoteCommandFromMap(m map[string]any) (AddNoteCommand, error) {
	str := func(key string) string {
		s, _ := m[key].(string)
		return s
	}

	var createdAt time.Time
	switch v := m["createdAt"].(type) {
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return AddNoteCommand{}, &ValidationError{Violations: []Violation{{
				Field:   "createdAt",
				Rule:    "timestamp",
				Message: fmt.Sprintf("createdAt must be an ISO-8601 timestamp: %v", err),
			}}}
		}
		createdAt = t
	case time.Time:
		createdAt = v
	}

	return NewAddNoteCommand(str("budgetId"), str("noteContent"), str("authorId"), createdAt)
}

func (c AddNoteCommand) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ToMap())
}

func (c *AddNoteCommand) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	cmd, err := AddNoteCommandFromMap(m)
	if err != nil {
		return err
	}
	*c = cmd
	return nil
}

func (c AddNoteCommand) String() string {
	return fmt.Sprintf("AddNoteCommand{budget=%s author=%s at=%s len=%d}",
		c.budgetID, c.authorID, c.createdAt.Format(time.RFC3339), len([]rune(c.noteContent)))
}
