package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed call.
type Kind int

// Failure kinds. Non-2xx statuses other than 401 and 5xx are KindValidation.
const (
	KindNetwork Kind = iota + 1
	KindUnauthorized
	KindValidation
	KindServer
	KindDecode
)

// Sentinel errors matched by *Error through errors.Is.
var (
	ErrNetwork      = errors.New("network unreachable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("request rejected")
	ErrServer       = errors.New("server error")
	ErrDecode       = errors.New("malformed response body")
)

// maxMessageLen bounds messages taken from non-JSON bodies.
const maxMessageLen = 512

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindUnauthorized:
		return ErrUnauthorized
	case KindValidation:
		return ErrValidation
	case KindServer:
		return ErrServer
	case KindDecode:
		return ErrDecode
	default:
		return nil
	}
}

// Error is the single failure channel of the client. StatusCode is 0
// when no response was received.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	RequestID  string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error: status %d: %s", e.Kind, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying transport or decode error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindForStatus maps a non-2xx status to a failure kind.
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func newStatusError(status int, body []byte, requestID string) *Error {
	return &Error{
		Kind:       KindForStatus(status),
		StatusCode: status,
		Message:    ExtractMessage(body, status),
		RequestID:  requestID,
	}
}

// ExtractMessage pulls a human-readable message out of an error body.
// Understands {"detail": "..."}, {"detail": [{"loc": [...], "msg": "..."}]},
// {"error": "..."}, {"error": {"message": "..."}} and {"message": "..."}.
func ExtractMessage(body []byte, status int) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := detailMessage(payload["detail"]); msg != "" {
			return msg
		}
		switch e := payload["error"].(type) {
		case string:
			if e != "" {
				return e
			}
		case map[string]any:
			if msg, _ := e["message"].(string); msg != "" {
				return msg
			}
		}
		if msg, _ := payload["message"].(string); msg != "" {
			return msg
		}
	}

	raw := strings.TrimSpace(string(body))
	if raw != "" {
		if len(raw) > maxMessageLen {
			raw = raw[:maxMessageLen] + "..."
		}
		return raw
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}

func detailMessage(detail any) string {
	switch d := detail.(type) {
	case string:
		return d
	case map[string]any:
		if msg, _ := d["msg"].(string); msg != "" {
			return msg
		}
		msg, _ := d["message"].(string)
		return msg
	case []any:
		lines := make([]string, 0, len(d))
		for _, item := range d {
			entry, ok := item.(map[string]any)
			if !ok {
				lines = append(lines, fmt.Sprint(item))
				continue
			}
			msg, _ := entry["msg"].(string)
			if msg == "" {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s: %s", fieldName(entry["loc"]), msg))
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}

// fieldName picks the field from a validation error location such as ["body", "email"].
func fieldName(loc any) string {
	parts, ok := loc.([]any)
	if !ok || len(parts) < 2 {
		return "Field"
	}
	if s := fmt.Sprint(parts[1]); s != "" {
		return s
	}
	return "Field"
}

// UserMessage renders err for display after action failed.
func UserMessage(err error, action string) string {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return fmt.Sprintf("%s failed: %v", action, err)
	}

	switch apiErr.Kind {
	case KindNetwork:
		return fmt.Sprintf("%s failed: cannot connect to server, check that the backend is reachable", action)
	case KindUnauthorized:
		return fmt.Sprintf("%s failed: %s (session cleared, log in again)", action, apiErr.Message)
	case KindValidation:
		msg := apiErr.Message
		if msg == "" || msg == http.StatusText(apiErr.StatusCode) {
			msg = "the server rejected the request"
		}
		return fmt.Sprintf("%s failed: %s", action, msg)
	case KindServer:
		return fmt.Sprintf("%s failed: server error, please try again later", action)
	case KindDecode:
		return fmt.Sprintf("%s failed: unexpected response from server", action)
	default:
		return fmt.Sprintf("%s failed: %v", action, err)
	}
}
