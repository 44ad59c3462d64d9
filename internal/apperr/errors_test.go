package apperr

import (
	"errors"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")

	tests := []struct {
		name       string
		err        error
		validation bool
		notFound   bool
		io         bool
	}{
		{name: "validation", err: Validation("title is %s", "empty"), validation: true},
		{name: "not found", err: NotFound(42), notFound: true},
		{name: "io", err: IO("save tasks", cause), io: true},
		{name: "plain", err: cause},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsValidation(tt.err); got != tt.validation {
				t.Errorf("IsValidation() = %v, want %v", got, tt.validation)
			}
			if got := IsNotFound(tt.err); got != tt.notFound {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.notFound)
			}
			if got := IsIO(tt.err); got != tt.io {
				t.Errorf("IsIO() = %v, want %v", got, tt.io)
			}
		})
	}
}

func TestIO_KeepsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := IO("load deadlines", cause)
	if !errors.Is(err, cause) {
		t.Errorf("Expected IO error to wrap its cause, got %v", err)
	}
	if err.Error() != "load deadlines: storage unavailable: connection refused" {
		t.Errorf("Unexpected message: %q", err.Error())
	}
}
