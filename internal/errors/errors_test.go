// internal/errors/errors_test.go
package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestTypeChecksFollowWrapping(t *testing.T) {
	base := NewNetworkError("connection refused", stderrors.New("dial tcp"))
	wrapped := fmt.Errorf("preview failed: %w", base)

	if !IsNetworkError(wrapped) {
		t.Error("IsNetworkError must see through fmt wrapping")
	}
	if IsServiceError(wrapped) {
		t.Error("wrong type matched")
	}
}

func TestWrapErrorPreservesType(t *testing.T) {
	base := NewPreconditionError("clause prompt is empty")
	wrapped := WrapError(base, "request preview", ErrorTypeService)

	if !IsPreconditionError(wrapped) {
		t.Errorf("wrapped type lost: %v", wrapped)
	}

	var appErr *AppError
	if !stderrors.As(wrapped, &appErr) {
		t.Fatal("wrapped error is not an AppError")
	}
	if appErr.Code != "PRECONDITION_VIOLATION" {
		t.Errorf("code = %q", appErr.Code)
	}
}

func TestWrapErrorNil(t *testing.T) {
	if WrapError(nil, "context", ErrorTypeNetwork) != nil {
		t.Error("wrapping nil must stay nil")
	}
}
