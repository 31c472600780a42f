package httputil

import (
	"encoding/json"
	"net/http"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeProblem = "application/problem+json"
)

// problemTypes maps a status to the RFC section that defines it. Statuses
// missing here are reported as "about:blank".
var problemTypes = map[int]string{
	http.StatusBadRequest:            "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.1",
	http.StatusUnauthorized:          "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.2",
	http.StatusForbidden:             "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.4",
	http.StatusNotFound:              "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.5",
	http.StatusConflict:              "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.10",
	http.StatusRequestEntityTooLarge: "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.14",
	http.StatusUnprocessableEntity:   "https://datatracker.ietf.org/doc/html/rfc9110#section-15.5.21",
	http.StatusTooManyRequests:       "https://datatracker.ietf.org/doc/html/rfc6585#section-4",
	http.StatusInternalServerError:   "https://datatracker.ietf.org/doc/html/rfc9110#section-15.6.1",
}

// Problem is an RFC 7807 problem document. Extensions are written next to
// the standard members, so a "code" extension shows up as a top-level key.
type Problem struct {
	Type       string
	Title      string
	Status     int
	Detail     string
	Extensions map[string]any
}

// NewProblem fills Type and Title from the status.
func NewProblem(status int, detail string) Problem {
	typ, ok := problemTypes[status]
	if !ok {
		typ = "about:blank"
	}
	return Problem{Type: typ, Title: http.StatusText(status), Status: status, Detail: detail}
}

func (p Problem) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(p.Extensions)+4)
	for k, v := range p.Extensions {
		doc[k] = v
	}
	doc["type"] = p.Type
	doc["title"] = p.Title
	doc["status"] = p.Status
	if p.Detail != "" {
		doc["detail"] = p.Detail
	}
	return json.Marshal(doc)
}

// RespondJSON marshals data before touching the response so an encoding
// failure can still become a clean 500.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	write(w, status, contentTypeJSON, payload)
}

// RespondError writes a problem document without extensions.
func RespondError(w http.ResponseWriter, status int, detail string) {
	RespondProblem(w, NewProblem(status, detail))
}

// RespondErrorWithExtras writes a problem document carrying extensions such
// as the machine-readable "code".
func RespondErrorWithExtras(w http.ResponseWriter, status int, detail string, extras map[string]any) {
	p := NewProblem(status, detail)
	p.Extensions = extras
	RespondProblem(w, p)
}

func RespondProblem(w http.ResponseWriter, p Problem) {
	payload, err := json.Marshal(p)
	if err != nil {
		write(w, http.StatusInternalServerError, "text/plain; charset=utf-8", []byte("internal server error"))
		return
	}
	write(w, p.Status, contentTypeProblem, payload)
}

func write(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	w.Write(body)
}
