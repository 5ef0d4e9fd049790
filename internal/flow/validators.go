// Package flow provides the pure input validators used by flow steps.
package flow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the accepted format for date answers (4-digit year).
const DateLayout = "2006-01-02"

// NonEmpty accepts any non-empty text.
func NonEmpty(hint string) Validator {
	return func(raw string) (string, error) {
		if raw == "" {
			return "", errors.New(hint)
		}
		return raw, nil
	}
}

// AnyText accepts any input, including empty text.
func AnyText() Validator {
	return func(raw string) (string, error) {
		return raw, nil
	}
}

// IntRange accepts an integer within [min, max] inclusive.
func IntRange(min, max int) Validator {
	return func(raw string) (string, error) {
		n, err := strconv.Atoi(raw)
		if err != nil || n < min || n > max {
			return "", fmt.Errorf("Please enter a whole number between %d and %d.", min, max)
		}
		return strconv.Itoa(n), nil
	}
}

// Numeric accepts any integer. The advertised range in the step prompt is
// deliberately not enforced here; only numeric-ness is checked.
func Numeric() Validator {
	return func(raw string) (string, error) {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return "", errors.New("Please answer with a number.")
		}
		return strconv.Itoa(n), nil
	}
}

// DecimalRange accepts a decimal number within [min, max] inclusive.
func DecimalRange(min, max float64) Validator {
	return func(raw string) (string, error) {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < min || f > max {
			return "", fmt.Errorf("Please enter a number between %g and %g.", min, max)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
}

// OneOf accepts one of the listed values, case-insensitively, and returns
// the canonical lower-case form.
func OneOf(values ...string) Validator {
	return func(raw string) (string, error) {
		lower := strings.ToLower(raw)
		for _, v := range values {
			if lower == v {
				return v, nil
			}
		}
		return "", fmt.Errorf("Please answer with one of: %s.", strings.Join(values, ", "))
	}
}

// YesNo accepts exactly "yes" or "no" (case-insensitive).
func YesNo() Validator {
	return OneOf("yes", "no")
}

// Date accepts a date in YYYY-MM-DD form.
func Date() Validator {
	return func(raw string) (string, error) {
		t, err := time.Parse(DateLayout, raw)
		if err != nil {
			return "", errors.New("Please enter the date as YYYY-MM-DD, for example 2024-01-01.")
		}
		return t.Format(DateLayout), nil
	}
}
