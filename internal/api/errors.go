package api

import (
	"errors"
	"fmt"
	"net/http"

	"fintrack/internal/core"
)

// Kind classifies gateway failures the way pages react to them
type Kind string

const (
	KindAuth       Kind = "auth"
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
	KindNetwork    Kind = "network"
	KindServer     Kind = "server"
)

// Sentinels for errors.Is; each matches any *Error of the same kind
var (
	ErrAuth       = errors.New("session invalid")
	ErrValidation = errors.New("request rejected")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrNetwork    = errors.New("network failure")
	ErrServer     = errors.New("server error")
)

var kindSentinels = map[Kind]error{
	KindAuth:       ErrAuth,
	KindValidation: ErrValidation,
	KindConflict:   ErrConflict,
	KindNotFound:   ErrNotFound,
	KindNetwork:    ErrNetwork,
	KindServer:     ErrServer,
}

// Error is returned by every gateway call that did not get a 2xx response
type Error struct {
	Status  int
	Kind    Kind
	Method  string
	Path    string
	Message string
	// Fields is set when the rejection came from local input validation
	Fields []core.FieldError
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, msg)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	if s, ok := kindSentinels[e.Kind]; ok && s == target {
		return true
	}
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind && e.Status == t.Status
	}
	return false
}

// KindOf returns the kind of a gateway error, or "" for anything else
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// UserMessage returns the backend's message for err when there is one
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// classify maps a non-2xx status to a kind. A 400 on DELETE is the backend's
// way of refusing to remove something still referenced.
func classify(method string, status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusUnprocessableEntity:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusBadRequest && method == http.MethodDelete:
		return KindConflict
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindServer
	}
}

// invalidInput wraps a local validation failure so callers handle it like a backend rejection
func invalidInput(method, path string, err error) error {
	apiErr := &Error{Kind: KindValidation, Method: method, Path: path, Message: err.Error(), Err: err}
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		apiErr.Fields = verr.Fields
	}
	return apiErr
}
