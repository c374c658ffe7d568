package output

import (
	"errors"
	"fmt"
	"testing"
)

func TestGetExitCode(t *testing.T) {
	cause := errors.New("permission denied")
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"user", NewUserError("bad flag"), ExitUserError},
		{"user with cause", NewUserErrorWithCause("bad config", cause), ExitUserError},
		{"system", NewSystemErrorWithCause("write failed", cause), ExitSystemError},
		{"conflict", NewConflictError("occupied"), ExitConflict},
		{"wrapped", fmt.Errorf("distribute: %w", NewConflictError("occupied")), ExitConflict},
		{"untyped", errors.New("plain"), ExitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExitError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewSystemErrorWithCause("write failed", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if err.Error() != "write failed" {
		t.Errorf("Error() = %q", err.Error())
	}
}
