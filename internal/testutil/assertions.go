package testutil

import (
	"errors"
	"fmt"
	"testing"

	apperrors "budgetpace/internal/errors"
)

// AssertAppError fails unless err is an *AppError carrying code.
func AssertAppError(t *testing.T, err error, code string) {
	t.Helper()

	var appErr *apperrors.AppError
	switch {
	case err == nil:
		t.Fatalf("expected %s, got nil", code)
	case !errors.As(err, &appErr):
		t.Fatalf("expected %s, got %T: %v", code, err, err)
	case appErr.Code != code:
		t.Errorf("expected %s, got %s (message: %s)", code, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertCents compares two minor-unit amounts and reports both in major
// units, e.g. "rollover_out: expected 80.00, got 79.99".
func AssertCents(t *testing.T, field string, got, want int64) {
	t.Helper()

	if got != want {
		t.Errorf("%s: expected %s, got %s", field, FormatCents(want), FormatCents(got))
	}
}

// FormatCents renders a minor-unit amount with two decimals.
func FormatCents(v int64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
