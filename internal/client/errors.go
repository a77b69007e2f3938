package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/simp-lee/shopbase/internal/domain"
	"github.com/simp-lee/shopbase/internal/pkg"
)

// Error is a failed API call. It unwraps to a *domain.AppError so the
// domain.IsXxx helpers work on client errors too.
type Error struct {
	Status  int
	Problem pkg.Problem
}

func newError(status int, body []byte) *Error {
	e := &Error{Status: status}
	if err := json.Unmarshal(body, &e.Problem); err != nil || e.Problem.Status == 0 {
		e.Problem = pkg.Problem{
			Title:  http.StatusText(status),
			Status: status,
			Detail: strings.TrimSpace(string(body)),
		}
	}
	return e
}

// Error renders the problem as one human-readable line, listing every
// field message in field order.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Problem.Title)
	if e.Problem.Title == "" {
		b.WriteString(http.StatusText(e.Status))
	}
	if e.Problem.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Problem.Detail)
	}

	fields := make([]string, 0, len(e.Problem.Errors))
	for f := range e.Problem.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(&b, "; %s %s", f, strings.Join(e.Problem.Errors[f], ", "))
	}

	if e.Problem.TraceID != "" {
		fmt.Fprintf(&b, " (trace %s)", e.Problem.TraceID)
	}
	return b.String()
}

// Unwrap maps the problem back to its domain error kind.
func (e *Error) Unwrap() error {
	return &domain.AppError{
		Code:    codeFor(e.Status, e.Problem.Type),
		Message: e.Problem.Detail,
		Fields:  domain.FieldErrors(e.Problem.Errors),
	}
}

func codeFor(status int, problemType string) int {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.CodeValidation
	case http.StatusUnauthorized:
		return domain.CodeUnauthorized
	case http.StatusForbidden:
		return domain.CodeForbidden
	case http.StatusNotFound:
		return domain.CodeNotFound
	case http.StatusConflict:
		if strings.HasSuffix(problemType, "/already-exists") {
			return domain.CodeAlreadyExists
		}
		return domain.CodeConflict
	case http.StatusPreconditionFailed:
		return domain.CodePrecondition
	default:
		return domain.CodeInternal
	}
}
