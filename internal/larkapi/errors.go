package larkapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Kind classifies a normalized upstream failure.
type Kind string

const (
	// KindValidation marks bad caller input, e.g. an empty row set.
	KindValidation Kind = "validation"
	// KindUpstreamAuth marks a failed or malformed token acquisition.
	KindUpstreamAuth Kind = "upstream_auth"
	// KindUpstreamRejected marks a non-2xx upstream response.
	KindUpstreamRejected Kind = "upstream_rejected"
	// KindUpstreamUnreachable marks a request that got no response at all.
	KindUpstreamUnreachable Kind = "upstream_unreachable"
	// KindTimeout marks an export that exhausted its polling budget.
	KindTimeout Kind = "timeout"
	// KindInternal marks any other local fault.
	KindInternal Kind = "internal"
)

// Error is the normalized failure every public operation surfaces. The
// HTTPStatus is suitable for relaying to the inbound caller as-is.
type Error struct {
	Kind         Kind
	HTTPStatus   int
	Message      string
	UpstreamBody json.RawMessage
}

func (e *Error) Error() string {
	return fmt.Sprintf("larkapi: %s: %s", e.Kind, e.Message)
}

// ValidationError builds a caller-input failure with HTTP status 400.
func ValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, HTTPStatus: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// InternalError builds a local-fault failure with HTTP status 500.
func InternalError(format string, args ...any) *Error {
	return &Error{Kind: KindInternal, HTTPStatus: http.StatusInternalServerError, Message: fmt.Sprintf(format, args...)}
}

// TimeoutError builds a polling-budget failure with HTTP status 504.
func TimeoutError(format string, args ...any) *Error {
	return &Error{Kind: KindTimeout, HTTPStatus: http.StatusGatewayTimeout, Message: fmt.Sprintf(format, args...)}
}

// StatusOf extracts the relay HTTP status from err, defaulting to 500.
func StatusOf(err error) int {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.HTTPStatus
	}
	return http.StatusInternalServerError
}

// upstreamStatusError carries a non-2xx upstream response until normalization.
type upstreamStatusError struct {
	status int
	body   []byte
}

func (e *upstreamStatusError) Error() string {
	return fmt.Sprintf("larkapi: http %d response: %s", e.status, strings.TrimSpace(string(e.body)))
}

// Normalize maps any failure into an *Error:
//   - upstream responded with an error status -> KindUpstreamRejected with the
//     upstream status, the upstream-provided message when present, and the raw
//     body attached;
//   - no response received (network fault, timeout) -> KindUpstreamUnreachable
//     with status 503;
//   - anything else -> KindInternal with status 500.
//
// Already-normalized errors pass through untouched.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	var rejected *upstreamStatusError
	if errors.As(err, &rejected) {
		msg := upstreamMessage(rejected.body)
		if msg == "" {
			msg = rejected.Error()
		}
		return &Error{
			Kind:         KindUpstreamRejected,
			HTTPStatus:   rejected.status,
			Message:      msg,
			UpstreamBody: append(json.RawMessage(nil), rejected.body...),
		}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{
			Kind:       KindUpstreamUnreachable,
			HTTPStatus: http.StatusServiceUnavailable,
			Message:    "no response received from upstream",
		}
	}
	return &Error{Kind: KindInternal, HTTPStatus: http.StatusInternalServerError, Message: err.Error()}
}

// upstreamMessage pulls the human-readable message out of a Lark error
// envelope. The platform uses "msg" on open-api envelopes and "message" on
// gateway-level errors.
func upstreamMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var parsed struct {
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if strings.TrimSpace(parsed.Message) != "" {
		return strings.TrimSpace(parsed.Message)
	}
	return strings.TrimSpace(parsed.Msg)
}
