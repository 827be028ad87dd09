package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConfiguration(t *testing.T) {
	t.Parallel()
	err := Configuration("memory_limit", "resource spec is missing memory_limit")

	if !errors.Is(err, ErrConfiguration) {
		t.Error("expected error to match ErrConfiguration")
	}
	if err.Error() != "resource spec is missing memory_limit" {
		t.Errorf("unexpected message: %q", err.Error())
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected error to be *Error")
	}
	if appErr.Field != "memory_limit" {
		t.Errorf("expected field 'memory_limit', got %q", appErr.Field)
	}
}

func TestValidation(t *testing.T) {
	t.Parallel()
	err := Validation("command", "command has unbalanced quotes")

	if !errors.Is(err, ErrValidation) {
		t.Error("expected error to match ErrValidation")
	}
	if err.Error() != "command has unbalanced quotes" {
		t.Errorf("unexpected message: %q", err.Error())
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected error to be *Error")
	}
	if appErr.Field != "command" {
		t.Errorf("expected field 'command', got %q", appErr.Field)
	}
}

func TestNotFound(t *testing.T) {
	t.Parallel()
	err := NotFound("job", "plugin-run-42")

	if !errors.Is(err, ErrNotFound) {
		t.Error("expected error to match ErrNotFound")
	}
	if err.Error() != "job plugin-run-42 not found" {
		t.Errorf("unexpected message: %q", err.Error())
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected error to be *Error")
	}
	if appErr.Resource != "job" {
		t.Errorf("expected resource 'job', got %q", appErr.Resource)
	}
}

func TestConflict(t *testing.T) {
	t.Parallel()
	err := Conflict("job", "plugin-run-42", "job already exists")

	if !errors.Is(err, ErrConflict) {
		t.Error("expected error to match ErrConflict")
	}
	if err.Error() != "job already exists" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestOrchestrator(t *testing.T) {
	t.Parallel()
	cause := fmt.Errorf("connection refused")
	err := Orchestrator("kube.createJob", cause)

	if !errors.Is(err, ErrOrchestrator) {
		t.Error("expected error to match ErrOrchestrator")
	}
	if err.Error() != "kube.createJob: connection refused" {
		t.Errorf("unexpected message: %q", err.Error())
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected error to be *Error")
	}
	if appErr.Op != "kube.createJob" {
		t.Errorf("expected op 'kube.createJob', got %q", appErr.Op)
	}
	if appErr.Cause != cause {
		t.Error("expected cause to be preserved")
	}
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"configuration", Configuration("cpu_limit", "missing"), http.StatusBadRequest},
		{"validation", Validation("command", "unbalanced"), http.StatusBadRequest},
		{"not found", NotFound("job", "j1"), http.StatusNotFound},
		{"conflict", Conflict("job", "j1", "exists"), http.StatusConflict},
		{"orchestrator", Orchestrator("op", fmt.Errorf("fail")), http.StatusInternalServerError},
		{"sentinel configuration", ErrConfiguration, http.StatusBadRequest},
		{"sentinel validation", ErrValidation, http.StatusBadRequest},
		{"sentinel not found", ErrNotFound, http.StatusNotFound},
		{"sentinel conflict", ErrConflict, http.StatusConflict},
		{"sentinel orchestrator", ErrOrchestrator, http.StatusInternalServerError},
		{"wrapped validation", fmt.Errorf("wrap: %w", Validation("f", "m")), http.StatusBadRequest},
		{"unknown error", fmt.Errorf("unknown"), http.StatusInternalServerError},
		{"nil error", nil, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := HTTPStatus(tt.err)
			if got != tt.expected {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestErrorsIsWithWrapping(t *testing.T) {
	t.Parallel()
	// Ensure errors.Is works through fmt.Errorf wrapping
	original := NotFound("pod", "worker-0")
	wrapped := fmt.Errorf("service error: %w", original)
	doubleWrapped := fmt.Errorf("handler error: %w", wrapped)

	if !errors.Is(doubleWrapped, ErrNotFound) {
		t.Error("expected errors.Is to find ErrNotFound through multiple wraps")
	}
}
