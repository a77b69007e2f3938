package pkg

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/simp-lee/shopbase/internal/domain"
)

// RequestIDKey is the gin.Context key holding the request id.
const RequestIDKey = "request_id"

// ProblemContentType is the media type of error responses.
const ProblemContentType = "application/problem+json"

// Response is the standard JSON envelope for successful API responses.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Problem is the error body returned for every failed API call.
type Problem struct {
	Type     string              `json:"type"`
	Title    string              `json:"title"`
	Status   int                 `json:"status"`
	Detail   string              `json:"detail,omitempty"`
	Instance string              `json:"instance,omitempty"`
	TraceID  string              `json:"traceId,omitempty"`
	Errors   map[string][]string `json:"errors,omitempty"`
}

// Success sends a 200 JSON response with the given data.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

// Created sends a 201 JSON response with the given data.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "success",
		Data:    data,
	})
}

// List sends a 200 JSON response intended for paginated list results.
// result should typically be a *domain.Page[T].
func List(c *gin.Context, result any) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    result,
	})
}

// NewProblem builds the problem body for err in the context of request c.
// Internal errors never expose their underlying cause.
func NewProblem(c *gin.Context, err error) Problem {
	status := domain.HTTPStatusCode(err)
	p := Problem{
		Type:   "/problems/" + domain.Kind(err),
		Title:  http.StatusText(status),
		Status: status,
	}
	if c != nil && c.Request != nil {
		p.Instance = c.Request.URL.Path
		p.TraceID = c.GetString(RequestIDKey)
	}

	var appErr *domain.AppError
	if errors.As(err, &appErr) && appErr.Code != domain.CodeInternal {
		p.Detail = appErr.Message
		if len(appErr.Fields) > 0 {
			p.Errors = appErr.Fields
		}
	} else {
		p.Detail = "internal error"
	}
	return p
}

// Error sends a problem-details error response. If err is a *domain.AppError,
// its code is mapped to the appropriate HTTP status; otherwise 500 is returned.
// Server-side failures are also attached to c.Errors so the access log can
// record the cause that the problem body hides.
func Error(c *gin.Context, err error) {
	p := NewProblem(c, err)
	if p.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.Header("Content-Type", ProblemContentType)
	c.JSON(p.Status, p)
}

// Abort sends the problem response for err and stops the handler chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// ErrorStatus sends a problem response for a plain HTTP status that has no
// domain error behind it, such as an unmatched route or a rate limit.
func ErrorStatus(c *gin.Context, status int, detail string) {
	c.Header("Content-Type", ProblemContentType)
	c.AbortWithStatusJSON(status, StatusProblem(c, status, detail))
}

// StatusProblem builds the problem body ErrorStatus sends.
func StatusProblem(c *gin.Context, status int, detail string) Problem {
	kind := strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "-")
	return Problem{
		Type:     "/problems/" + kind,
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: c.Request.URL.Path,
		TraceID:  c.GetString(RequestIDKey),
	}
}

// BindJSON decodes the request body into obj. The body is cached on the
// context so it can be bound again. Decoding failures are reported as
// validation errors keyed by the offending JSON field, or "body" when the
// payload itself is unreadable.
//
// Usage in handlers:
//
//	if err := pkg.BindJSON(c, &in); err != nil { pkg.Error(c, err); return }
func BindJSON(c *gin.Context, obj any) error {
	err := c.ShouldBindBodyWith(obj, binding.JSON)
	if err == nil {
		return nil
	}

	fields := domain.FieldErrors{}
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		fields.Add(typeErr.Field, "must be a "+typeErr.Type.String())
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		fields.Add("body", "malformed JSON")
	case errors.Is(err, io.EOF):
		fields.Add("body", "request body is required")
	default:
		fields.Add("body", err.Error())
	}
	return domain.NewValidationError(fields)
}
