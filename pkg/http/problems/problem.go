// Package problems renders RFC 7807 problem details.
package problems

import (
	"net/http"
	"sort"
)

// ContentType is the media type of a problem response.
const ContentType = "application/problem+json"

// Problem represents RFC7807 Problem Details for HTTP APIs
type Problem struct {
	Type     string       `json:"type,omitempty"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	TraceID  string       `json:"traceId,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
}

type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (p *Problem) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	return p.Title
}

// New creates a new Problem with the given status and detail
func New(status int, detail string) *Problem {
	return &Problem{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
}

// Invalid is a 400 with a custom title and one entry per offending field, sorted by field name.
func Invalid(title string, fields map[string]string) *Problem {
	p := New(http.StatusBadRequest, "")
	p.Title = title
	for field, msg := range fields {
		p.Errors = append(p.Errors, FieldError{Field: field, Message: msg})
	}
	sort.Slice(p.Errors, func(i, j int) bool { return p.Errors[i].Field < p.Errors[j].Field })
	return p
}

func ServiceUnavailable(detail string) *Problem {
	return New(http.StatusServiceUnavailable, detail)
}

func GatewayTimeout(detail string) *Problem {
	return New(http.StatusGatewayTimeout, detail)
}

func Internal(detail string) *Problem {
	return New(http.StatusInternalServerError, detail)
}
