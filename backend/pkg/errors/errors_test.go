package errors

import (
	"fmt"
	"testing"
)

func TestIsErrorType(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorType
	}{
		{NewValidationError("name", "must not be empty"), ErrorTypeValidation},
		{ErrMissingToken, ErrorTypeAuth},
		{ErrBadWebhookSignature, ErrorTypeAuth},
		{NewUpstreamError(429, "rate limited"), ErrorTypeUpstream},
		{NewUpstreamTransport("GET /cards/x", fmt.Errorf("timeout")), ErrorTypeUpstream},
		{NewNotImplemented("create card", "no destination"), ErrorTypeNotImplemented},
		{NewThemeNotFound(7), ErrorTypeStore},
	}

	for _, tc := range cases {
		if !IsErrorType(tc.err, tc.want) {
			t.Errorf("expected %v to be %s", tc.err, tc.want)
		}
	}

	if IsErrorType(nil, ErrorTypeUpstream) {
		t.Error("nil must not match any type")
	}
	if IsErrorType(fmt.Errorf("plain"), ErrorTypeUpstream) {
		t.Error("plain errors must not match")
	}
}

func TestUpstreamErrorFields(t *testing.T) {
	err := NewUpstreamError(503, "service unavailable")
	if err.StatusCode != 503 || err.Body != "service unavailable" {
		t.Errorf("upstream fields not preserved: %+v", err)
	}
}

func TestBaseErrorUnwrap(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	err := NewUpstreamTransport("GET /boards/b1", inner)
	if err.Unwrap() != inner {
		t.Error("expected wrapped error to unwrap")
	}
}
