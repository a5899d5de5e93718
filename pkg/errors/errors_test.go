package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", New(ErrInvalidInput, http.StatusTeapot, "brew"), http.StatusTeapot},
		{"wrapped invalid", fmt.Errorf("parsing: %w", ErrInvalidInput), http.StatusBadRequest},
		{"malformed", Malformed("cities.tsv", 3, "bad"), http.StatusBadRequest},
		{"not found", ErrNotFound, http.StatusNotFound},
		{"unavailable", ErrUnavailable, http.StatusServiceUnavailable},
		{"timeout", ErrTimeout, http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusCode(tt.err); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestAppErrorUnwraps(t *testing.T) {
	err := Newf(ErrNotFound, http.StatusNotFound, "record %d", 7)
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected AppError to unwrap to its sentinel")
	}
	if err.Error() != "not found: record 7" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestMalformedMentionsLine(t *testing.T) {
	err := Malformed("docs.tsv", 12, "expected %d fields", 2)
	if !errors.Is(err, ErrMalformedRecord) {
		t.Error("expected ErrMalformedRecord")
	}
	if !strings.Contains(err.Error(), "docs.tsv:12") {
		t.Errorf("expected line reference in %q", err.Error())
	}
}
