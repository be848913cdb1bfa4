package http

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/state"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ResponseBuilder provides a fluent API for JSON responses
type ResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewResponse creates a new response builder with default 200 status
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the JSON response body
func (b *ResponseBuilder) Body(v any) *ResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
}

// ErrorBody is the JSON shape of every failed request
type ErrorBody struct {
	Error  string            `json:"error"`
	Kind   string            `json:"kind,omitempty"`
	Fields []core.FieldError `json:"fields,omitempty"`
}

// ErrorResponse creates an error response with the given status
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).Body(ErrorBody{Error: message})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// FromError maps a controller or gateway error to a status and body
func FromError(err error) *ResponseBuilder {
	body := ErrorBody{Error: api.UserMessage(err), Kind: string(api.KindOf(err))}

	var verr *core.ValidationError
	var aerr *api.Error
	switch {
	case errors.As(err, &verr):
		body.Fields = verr.Fields
	case errors.As(err, &aerr):
		body.Fields = aerr.Fields
	}
	switch {
	case errors.Is(err, services.ErrCategoryInUse):
		body.Error = services.CategoryInUseMessage
	case errors.Is(err, services.ErrSystemCategory):
		body.Error = services.SystemCategoryMessage
	}
	return NewResponse().Status(statusFor(err)).Body(body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrCategoryInUse):
		return http.StatusConflict
	case errors.Is(err, services.ErrSystemCategory):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidParameter),
		errors.Is(err, core.ErrValidation),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrInvalidPeriod),
		errors.Is(err, core.ErrInvalidGroupBy),
		errors.Is(err, core.ErrInvalidCurrency),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, state.ErrUnsupportedTheme),
		errors.Is(err, state.ErrUnsupportedLanguage):
		return http.StatusBadRequest
	}

	switch api.KindOf(err) {
	case api.KindAuth:
		return http.StatusUnauthorized
	case api.KindNotFound:
		return http.StatusNotFound
	case api.KindConflict:
		return http.StatusConflict
	case api.KindValidation:
		return http.StatusUnprocessableEntity
	case api.KindNetwork, api.KindServer:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// pageResponse returns the page state. A failed refresh still returns the
// state, which carries the error, under the mapped status.
func pageResponse(state any, err error) *ResponseBuilder {
	if err == nil || errors.Is(err, services.ErrRefreshFailed) {
		return NewResponse().Body(state)
	}
	return NewResponse().Status(statusFor(err)).Body(state)
}
