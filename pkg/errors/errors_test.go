package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Sentinel error identity ---

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrInvalidInput,
		ErrInternal, ErrBadGateway, ErrServiceUnavail,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j],
				"sentinels %d and %d should be distinct", i, j)
		}
	}
}

// --- AppError behavior ---

func TestAppError_ErrorString(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	appErr := &AppError{Code: "UPSTREAM_UNAVAILABLE", Message: "catalog source unreachable", Err: inner}
	assert.Equal(t, "UPSTREAM_UNAVAILABLE: catalog source unreachable: connection refused", appErr.Error())

	appErr = &AppError{Code: "NOT_FOUND", Message: "product with id p1 not found"}
	assert.Equal(t, "NOT_FOUND: product with id p1 not found", appErr.Error())
}

// --- Constructors ---

func TestConstructors(t *testing.T) {
	cause := errors.New("decode catalog: products[1].id: is required")

	tests := []struct {
		name     string
		err      *AppError
		code     string
		status   int
		sentinel error
	}{
		{"not found", NotFound("product", "p1"), "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"invalid input", InvalidInput("bad page"), "INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput},
		{"bad gateway", BadGateway("UPSTREAM_INVALID_PAYLOAD", "invalid upstream payload", cause), "UPSTREAM_INVALID_PAYLOAD", http.StatusBadGateway, ErrBadGateway},
		{"unavailable", ServiceUnavailable("CATALOG_NOT_READY", "catalog not loaded"), "CATALOG_NOT_READY", http.StatusServiceUnavailable, ErrServiceUnavail},
		{"internal", Internal(ErrInternal), "INTERNAL_ERROR", http.StatusInternalServerError, ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestNotFound_Message(t *testing.T) {
	assert.Equal(t, "product with id prod_1 not found", NotFound("product", "prod_1").Message)
}

func TestBadGateway_KeepsCause(t *testing.T) {
	cause := errors.New("server returned status 503")
	err := BadGateway("UPSTREAM_UNAVAILABLE", "catalog source unavailable", cause)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrBadGateway)
}

// --- HTTPStatus ---

func TestHTTPStatus_Wrapped(t *testing.T) {
	wrapped := Wrap(NotFound("product", "p1"), "get product")
	assert.Equal(t, http.StatusNotFound, HTTPStatus(wrapped))

	var appErr *AppError
	require.ErrorAs(t, wrapped, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestHTTPStatus_Sentinels(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("x: %w", ErrBadGateway), http.StatusBadGateway},
		{fmt.Errorf("x: %w", ErrServiceUnavail), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}
