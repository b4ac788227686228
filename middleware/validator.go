package middleware

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation bounds for turn inputs and identifiers.
const (
	MaxInputLength     = 2000
	MaxSessionIDLength = 100
	MaxUserIDLength    = 50
)

// idPattern accepts letters, digits, underscore and hyphen.
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// InputValidator rejects malformed identifiers and empty inputs, and
// truncates oversized inputs instead of failing the turn.
type InputValidator struct {
	maxInput int
}

// NewInputValidator creates the validation middleware. A non-positive
// maxInput selects the default bound.
func NewInputValidator(maxInput int) *InputValidator {
	if maxInput <= 0 {
		maxInput = MaxInputLength
	}
	return &InputValidator{maxInput: maxInput}
}

// Name returns the middleware name.
func (m *InputValidator) Name() string {
	return "InputValidator"
}

// Execute validates the identifiers, rejects empty input and truncates
// oversized input in place before passing the turn on.
func (m *InputValidator) Execute(ctx *Context, next Handler) error {
	if !validID(ctx.SessionID, MaxSessionIDLength) {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, ctx.SessionID)
	}
	if !validID(ctx.UserID, MaxUserIDLength) {
		return fmt.Errorf("%w: %q", ErrInvalidUserID, ctx.UserID)
	}

	input := strings.TrimSpace(ctx.Input)
	if input == "" {
		return ErrEmptyInput
	}
	if utf8.RuneCountInString(input) > m.maxInput {
		input = string([]rune(input)[:m.maxInput])
	}
	ctx.Input = input
	return next(ctx)
}

func validID(id string, maxLen int) bool {
	return id != "" && len(id) <= maxLen && idPattern.MatchString(id)
}
