package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
)

// ParseJSON decodes JSON from the request body into the given destination.
// The body is limited to 1MB; metadata requests never need more.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		return &domain.ValidationError{Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return nil
}

// ParseOptionalJSON is ParseJSON for endpoints that also accept their
// arguments as query parameters. An empty body leaves dest untouched.
func ParseOptionalJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		return &domain.ValidationError{Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return nil
}

// QueryInt parses an integer query parameter, returning def when absent.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ValidationError{Message: fmt.Sprintf("%s must be an integer", name)}
	}
	return n, nil
}

// QueryInt64Ptr parses an optional int64 query parameter.
func QueryInt64Ptr(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("%s must be an integer", name)}
	}
	return &n, nil
}

// QueryBoolPtr parses an optional boolean query parameter.
func QueryBoolPtr(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("%s must be true or false", name)}
	}
	return &b, nil
}

// timeLayouts are tried in order. The zone-less forms are what browser
// datetime-local and date inputs submit; they are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// QueryTimePtr parses an optional timestamp. A bare date is read as
// midnight UTC.
func QueryTimePtr(r *http.Request, name string) (*time.Time, error) {
	t, _, err := queryTime(r, name)
	return t, err
}

// QueryTimeUntilPtr parses an inclusive upper bound. A bare date covers the
// whole day, so it is read as the last instant before the next midnight UTC.
func QueryTimeUntilPtr(r *http.Request, name string) (*time.Time, error) {
	t, dateOnly, err := queryTime(r, name)
	if t != nil && dateOnly {
		end := t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		return &end, nil
	}
	return t, err
}

func queryTime(r *http.Request, name string) (*time.Time, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, false, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, layout == time.DateOnly, nil
		}
	}
	return nil, false, &domain.ValidationError{Message: fmt.Sprintf("%s must be an RFC 3339 timestamp, a local date-time or a date", name)}
}

// FormBool parses a boolean form value; absent means false.
func FormBool(r *http.Request, name string) (bool, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &domain.ValidationError{Message: fmt.Sprintf("%s must be true or false", name)}
	}
	return b, nil
}
