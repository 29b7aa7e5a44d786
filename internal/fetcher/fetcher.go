// Package fetcher issues polite, rate-limited HTTP GETs against JSON APIs.
package fetcher

import (
	"context"
	"fmt"
)

// JSONFetcher retrieves and decodes a JSON document.
type JSONFetcher interface {
	// FetchJSON returns the decoded document. Any error is a *FetchError and
	// means "no data available this call"; it is never fatal to the caller.
	FetchJSON(ctx context.Context, url string) (any, error)
}

// ErrorKind classifies a fetch failure.
type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindStatus    ErrorKind = "status"
	KindDecode    ErrorKind = "decode"
)

// FetchError is the failure value returned by FetchJSON.
type FetchError struct {
	URL    string
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("fetch %s: http %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
