package budget

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrMalformedIdentifier is returned when an org scope cannot be derived from a budget ID.
	ErrMalformedIdentifier = errors.New("malformed budget identifier")
	// ErrBudgetNotFound marks a lookup that produced no usable budget record.
	ErrBudgetNotFound = errors.New("budget not found")
	// ErrNotImplemented is returned by placeholder actions.
	ErrNotImplemented = errors.New("not implemented")
)

// Violation is a single failed rule on one field.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError lists every rule a value violated.
type ValidationError struct {
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(msgs, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Has reports whether field failed rule.
func (e *ValidationError) Has(field, rule string) bool {
	for _, v := range e.Violations {
		if v.Field == field && v.Rule == rule {
			return true
		}
	}
	return false
}

// Kind classifies the outcome of a command execution.
type Kind int

const (
	KindNone Kind = iota
	KindValidation
	KindMalformedIdentifier
	KindNotFound
	KindUnexpected
)

var kindNames = map[Kind]string{
	KindNone:                "none",
	KindValidation:          "validation",
	KindMalformedIdentifier: "malformed_identifier",
	KindNotFound:            "not_found",
	KindUnexpected:          "unexpected",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText renders the kind by name in JSON output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown result kind %q", b)
}

// sentinel maps a kind to the error it wraps.
func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindMalformedIdentifier:
		return ErrMalformedIdentifier
	case KindNotFound:
		return ErrBudgetNotFound
	default:
		return nil
	}
}
