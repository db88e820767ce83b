package validator

import (
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: newError(field, "is required", "validation.required", nil),
	}
}

func MaxLen(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= max },
		Error: newError(field, fmt.Sprintf("must be at most %d characters", max), "validation.max_length",
			map[string]any{"max": max}),
	}
}

func Positive[T Numeric](field string, value T) Rule {
	return Rule{
		Check: func() bool { return value > 0 },
		Error: newError(field, "must be greater than zero", "validation.positive", nil),
	}
}

// Between checks min <= value <= max.
func Between[T Numeric](field string, value, min, max T) Rule {
	return Rule{
		Check: func() bool { return value >= min && value <= max },
		Error: newError(field, fmt.Sprintf("must be between %v and %v", min, max), "validation.between",
			map[string]any{"min": min, "max": max}),
	}
}

func InList[T comparable](field string, value T, allowed []T) Rule {
	return Rule{
		Check: func() bool { return slices.Contains(allowed, value) },
		Error: newError(field, fmt.Sprintf("must be one of: %v", allowed), "validation.in_list",
			map[string]any{"allowed_values": allowed}),
	}
}

func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			addr, err := mail.ParseAddress(value)
			return err == nil && addr.Address == value
		},
		Error: newError(field, "must be a valid email address", "validation.email", nil),
	}
}

func RequiredUUID(field string, value uuid.UUID) Rule {
	return Rule{
		Check: func() bool { return value != uuid.Nil },
		Error: newError(field, "is required", "validation.required", nil),
	}
}

// NotBefore checks that a calendar date is not earlier than ref's date.
func NotBefore(field string, value, ref time.Time) Rule {
	return Rule{
		Check: func() bool {
			vy, vm, vd := value.Date()
			ry, rm, rd := ref.In(value.Location()).Date()
			return !time.Date(vy, vm, vd, 0, 0, 0, 0, time.UTC).Before(time.Date(ry, rm, rd, 0, 0, 0, 0, time.UTC))
		},
		Error: newError(field, "must not be in the past", "validation.date_not_past", nil),
	}
}

// ValidDate checks that value parses with layout. Empty values pass; pair
// with Required when the field is mandatory.
func ValidDate(field, value, layout string) Rule {
	return Rule{
		Check: func() bool {
			if value == "" {
				return true
			}
			_, err := time.Parse(layout, value)
			return err == nil
		},
		Error: newError(field, "must be a date formatted as "+layout, "validation.date_format",
			map[string]any{"layout": layout}),
	}
}
