// Package validate provides shared validation functions.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hay-kot/criterio"
)

// Required validates a value is non-empty after trimming whitespace.
func Required(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("value is required")
	}
	return nil
}

// RequiredField returns a criterio validator for required strings.
func RequiredField(field, value string) error {
	return criterio.Run(field, value, Required)
}

var listIDRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ListID validates a todo list identifier. Ids appear in "goto:" directives,
// so they may not contain whitespace or a colon.
func ListID(id string) error {
	if !listIDRe.MatchString(id) {
		return fmt.Errorf("invalid list id %q: use letters, digits, '-' or '_'", id)
	}
	return nil
}

// OneOf returns a validator accepting only the listed values. The empty
// string is accepted so optional settings can stay unset.
func OneOf(values ...string) func(string) error {
	return func(v string) error {
		if v == "" {
			return nil
		}
		for _, allowed := range values {
			if v == allowed {
				return nil
			}
		}
		return fmt.Errorf("must be one of %s, got %q", strings.Join(values, ", "), v)
	}
}
