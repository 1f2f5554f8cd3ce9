package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err: &AppError{
				Code:    ErrCodeNotFound,
				Message: "job not found",
			},
			want: "job not found",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeFetchFailed,
				Message: "fetch article",
				Cause:   errors.New("connection refused"),
			},
			want: "fetch article: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &AppError{
		Code:    ErrCodeInternal,
		Message: "wrapped error",
		Cause:   cause,
	}

	if unwrapped := err.Unwrap(); !errors.Is(unwrapped, cause) {
		t.Errorf("AppError.Unwrap() = %v, want %v", unwrapped, cause)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantCode ErrorCode
		wantMsg  string
	}{
		{"not found", NotFound("job not found"), ErrCodeNotFound, "job not found"},
		{"not found formatted", NotFoundf("job %s not found", "abc"), ErrCodeNotFound, "job abc not found"},
		{"conflict", Conflict("url already in flight"), ErrCodeConflict, "url already in flight"},
		{"conflict formatted", Conflictf("url %s already in flight", "https://x"), ErrCodeConflict, "url https://x already in flight"},
		{"validation", Validation("url is required"), ErrCodeValidation, "url is required"},
		{"queue full", QueueFull("queue is full"), ErrCodeQueueFull, "queue is full"},
		{"fetch failed", FetchFailed("fetch failed"), ErrCodeFetchFailed, "fetch failed"},
		{"fetch failed formatted", FetchFailedf("fetch %s: status 500", "https://x"), ErrCodeFetchFailed, "fetch https://x: status 500"},
		{"content rejected", ContentRejected("not an article"), ErrCodeContentRejected, "not an article"},
		{"model call failed", ModelCallFailed("model unavailable"), ErrCodeModelCallFailed, "model unavailable"},
		{"persistence failed", PersistenceFailed("write record"), ErrCodePersistenceFailed, "write record"},
		{"internal", Internal("boom"), ErrCodeInternal, "boom"},
		{"internal formatted", Internalf("boom %d", 2), ErrCodeInternal, "boom 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.wantCode)
			}
			if tt.err.Message != tt.wantMsg {
				t.Errorf("Message = %v, want %v", tt.err.Message, tt.wantMsg)
			}
		})
	}
}

func TestValidationField(t *testing.T) {
	err := ValidationField("url", "must be http or https")
	if err.Code != ErrCodeValidation {
		t.Errorf("ValidationField().Code = %v, want %v", err.Code, ErrCodeValidation)
	}
	if err.Field != "url" {
		t.Errorf("ValidationField().Field = %v, want %v", err.Field, "url")
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Wrap(cause, ErrCodeModelCallFailed, "generate summary")

	if err.Code != ErrCodeModelCallFailed {
		t.Errorf("Wrap().Code = %v, want %v", err.Code, ErrCodeModelCallFailed)
	}
	if !errors.Is(err, cause) {
		t.Error("Wrap() should preserve the cause for errors.Is")
	}

	if wrapped := Wrap(nil, ErrCodeInternal, "ignored"); wrapped != nil {
		t.Errorf("Wrap(nil) = %v, want nil", wrapped)
	}
}

func TestWrapf(t *testing.T) {
	cause := errors.New("boom")
	err := Wrapf(cause, ErrCodePersistenceFailed, "upsert summary for %s", "https://example.com")

	if err.Code != ErrCodePersistenceFailed {
		t.Errorf("Wrapf().Code = %v, want %v", err.Code, ErrCodePersistenceFailed)
	}
	if err.Message != "upsert summary for https://example.com" {
		t.Errorf("Wrapf().Message = %v", err.Message)
	}
	if wrapped := Wrapf(nil, ErrCodeInternal, "ignored"); wrapped != nil {
		t.Errorf("Wrapf(nil) = %v, want nil", wrapped)
	}
}

func TestIsHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"IsNotFound matches", NotFound("x"), IsNotFound, true},
		{"IsNotFound rejects other code", Conflict("x"), IsNotFound, false},
		{"IsConflict matches", Conflict("x"), IsConflict, true},
		{"IsValidation matches", Validation("x"), IsValidation, true},
		{"IsQueueFull matches", QueueFull("x"), IsQueueFull, true},
		{"IsFetchFailed matches", FetchFailed("x"), IsFetchFailed, true},
		{"IsContentRejected matches", ContentRejected("x"), IsContentRejected, true},
		{"IsModelCallFailed matches", ModelCallFailed("x"), IsModelCallFailed, true},
		{"IsPersistenceFailed matches", PersistenceFailed("x"), IsPersistenceFailed, true},
		{"IsInternal matches", Internal("x"), IsInternal, true},
		{"plain error never matches", errors.New("x"), IsNotFound, false},
		{"nil never matches", nil, IsQueueFull, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(tt.err); got != tt.want {
				t.Errorf("check(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsHelpers_WrappedErrors(t *testing.T) {
	// Codes must survive fmt.Errorf %w wrapping at call sites.
	inner := QueueFull("queue is full")
	wrapped := fmt.Errorf("submit job: %w", inner)

	if !IsQueueFull(wrapped) {
		t.Error("IsQueueFull should match through fmt.Errorf wrapping")
	}
	if GetCode(wrapped) != ErrCodeQueueFull {
		t.Errorf("GetCode(wrapped) = %v, want %v", GetCode(wrapped), ErrCodeQueueFull)
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(ContentRejected("x")); got != ErrCodeContentRejected {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeContentRejected)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
}

func TestGetField(t *testing.T) {
	if got := GetField(ValidationField("url", "required")); got != "url" {
		t.Errorf("GetField() = %v, want url", got)
	}
	if got := GetField(errors.New("plain")); got != "" {
		t.Errorf("GetField(plain) = %v, want empty", got)
	}
}
