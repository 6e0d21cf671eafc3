package platformerrors_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"jan-server/services/chatbot-api/internal/utils/platformerrors"
)

func TestNewError_CarriesRequestID(t *testing.T) {
	ctx := platformerrors.WithRequestID(context.Background(), "req-123")
	err := platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "Conversation x not found", nil, "")

	if err.GetRequestID() != "req-123" {
		t.Errorf("GetRequestID() = %q, want %q", err.GetRequestID(), "req-123")
	}
	if err.GetUUID() == "" {
		t.Error("expected generated UUID")
	}
}

func TestAsError_PreservesType(t *testing.T) {
	ctx := context.Background()
	inner := platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "insert message", errors.New("boom"), "fixed-uuid")

	wrapped := platformerrors.AsError(ctx, platformerrors.LayerDomain, inner, "send message")

	if !platformerrors.IsErrorType(wrapped, platformerrors.ErrorTypeDatabaseError) {
		t.Fatalf("expected DATABASE_ERROR, got %s", wrapped.Type)
	}
	if wrapped.GetUUID() != "fixed-uuid" {
		t.Errorf("GetUUID() = %q, want fixed-uuid", wrapped.GetUUID())
	}
	if !errors.Is(wrapped, inner) {
		t.Error("expected wrapped error to unwrap to inner")
	}
}

func TestAsError_PlainErrorIsInternal(t *testing.T) {
	wrapped := platformerrors.AsError(context.Background(), platformerrors.LayerHandler, errors.New("plain"), "handle")
	if wrapped.Type != platformerrors.ErrorTypeInternal {
		t.Errorf("Type = %s, want INTERNAL", wrapped.Type)
	}
	if platformerrors.AsError(context.Background(), platformerrors.LayerHandler, nil, "noop") != nil {
		t.Error("expected nil for nil error")
	}
}

func TestErrorTypeToHTTPStatus(t *testing.T) {
	tests := []struct {
		errorType platformerrors.ErrorType
		expected  int
	}{
		{platformerrors.ErrorTypeNotFound, http.StatusNotFound},
		{platformerrors.ErrorTypeValidation, http.StatusBadRequest},
		{platformerrors.ErrorTypeUnauthorized, http.StatusUnauthorized},
		{platformerrors.ErrorTypeForbidden, http.StatusForbidden},
		{platformerrors.ErrorTypeExternal, http.StatusBadGateway},
		{platformerrors.ErrorTypeDatabaseError, http.StatusInternalServerError},
		{platformerrors.ErrorType("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.errorType), func(t *testing.T) {
			if got := platformerrors.ErrorTypeToHTTPStatus(tt.errorType); got != tt.expected {
				t.Errorf("ErrorTypeToHTTPStatus(%s) = %d, want %d", tt.errorType, got, tt.expected)
			}
		})
	}
}
