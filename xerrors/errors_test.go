package xerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
)

func TestSentinelSurvivesWrapping(t *testing.T) {
	err := ErrMaxIteration.With(nil, "newton stopped after %d steps", 1000)
	wrapped := fmt.Errorf("implied vol: %w", err)

	if !errors.Is(wrapped, ErrMaxIteration) {
		t.Fatalf("expected errors.Is to match ErrMaxIteration")
	}
	if errors.Is(wrapped, ErrSingular) {
		t.Errorf("unexpected match with ErrSingular")
	}
	if err.Detail != "newton stopped after 1000 steps" {
		t.Errorf("detail = %q", err.Detail)
	}
	if ErrMaxIteration.Detail == err.Detail {
		t.Errorf("With must not mutate the sentinel")
	}
}

func TestWrapKeepsCode(t *testing.T) {
	wrapped := Wrap(ErrPoolFull, ErrInternal, "submit batch")
	if wrapped.Code != ErrPoolFull.Code || wrapped.Type != ErrLimitExceeded {
		t.Errorf("wrap lost type/code: %+v", wrapped)
	}
	if Wrap(nil, ErrInternal, "noop") != nil {
		t.Errorf("Wrap(nil) should be nil")
	}
	plain := Wrap(errors.New("boom"), ErrInternal, "plain")
	if plain.Type != ErrInternal {
		t.Errorf("plain wrap type = %v", plain.Type)
	}
}

func TestProtocolMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		http int
		grpc codes.Code
	}{
		{ErrInvalidOption, http.StatusBadRequest, codes.InvalidArgument},
		{ErrMethodNotFound, http.StatusNotFound, codes.NotFound},
		{ErrUnsupported, http.StatusNotImplemented, codes.Unimplemented},
		{ErrPoolFull, http.StatusTooManyRequests, codes.ResourceExhausted},
		{ErrProviderUnavailable, http.StatusServiceUnavailable, codes.Unavailable},
		{ErrNaNResult, http.StatusInternalServerError, codes.Internal},
	}
	for _, c := range cases {
		if got := c.err.HTTPStatus(); got != c.http {
			t.Errorf("%s: HTTPStatus = %d, want %d", c.err.Message, got, c.http)
		}
		if got := c.err.ToGRPCStatus().Code(); got != c.grpc {
			t.Errorf("%s: GRPCCode = %v, want %v", c.err.Message, got, c.grpc)
		}
	}
}

func TestFromErrorFollowsChain(t *testing.T) {
	e, ok := FromError(fmt.Errorf("outer: %w", ErrNaNResult))
	if !ok || e.Code != ErrNaNResult.Code {
		t.Errorf("FromError failed: %v %v", e, ok)
	}
	if _, ok := FromError(errors.New("plain")); ok {
		t.Errorf("plain error should not convert")
	}
}

func TestErrorMessageCarriesDetail(t *testing.T) {
	err := ErrInvalidOption.With(errors.New("strike"), "strike %g", -1.0)
	want := "[InvalidArg] 400020: invalid option: strike -1 (cause: strike)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if ErrorType(99).String() != "Unknown" || (&Error{Type: 99}).GRPCCode() != codes.Unknown {
		t.Error("out of range types should map to unknown")
	}
}
