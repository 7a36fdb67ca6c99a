package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(CodeValidation)
	if meta.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("expected 400 for validation, got %d", meta.HTTPStatus)
	}
	if !meta.DetailsAllowed {
		t.Fatal("validation errors should expose details")
	}

	meta = MetadataFor(CodeQuoteFailed)
	if meta.HTTPStatus != http.StatusBadGateway {
		t.Fatalf("expected 502 for quote failure, got %d", meta.HTTPStatus)
	}
	if !meta.Retryable {
		t.Fatal("quote failures should be retryable")
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("boom")
	err := Wrap(CodeDependency, cause, "load offerings")

	if err.Unwrap() != cause {
		t.Fatal("expected cause to be preserved")
	}
	if typed := As(fmt.Errorf("outer: %w", err)); typed == nil || typed.Code() != CodeDependency {
		t.Fatalf("expected typed error through the chain, got %v", typed)
	}
}

func TestDumpCapturesUpstreamError(t *testing.T) {
	t.Parallel()

	upstream := &UpstreamError{Status: 422, Body: `{"error":"bad dimensions"}`}
	err := Wrap(CodeQuoteFailed, upstream, "quote line")

	dump := Dump(err)
	if dump.Code != CodeQuoteFailed {
		t.Fatalf("unexpected code: %s", dump.Code)
	}
	if dump.UpstreamStatus != 422 {
		t.Fatalf("unexpected upstream status: %d", dump.UpstreamStatus)
	}
	if len(dump.Chain) < 2 {
		t.Fatalf("expected chain to include cause, got %v", dump.Chain)
	}
}
