package errors

import (
	stdlib "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestCause(t *testing.T) {
	std := stdlib.New("this is a stdlib error")

	cases := map[string]struct {
		err  error
		root error
	}{
		"Errors are self-causing": {
			err:  ErrNotFound,
			root: ErrNotFound,
		},
		"Wrap reveals root cause": {
			err:  Wrap(ErrNotFound, "foo"),
			root: ErrNotFound,
		},
		"Cause works for stderr as root": {
			err:  Wrap(std, "Some helpful text"),
			root: std,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := errors.Cause(tc.err); got != tc.root {
				t.Fatal("unexpected result")
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	cases := map[string]struct {
		a      *Error
		b      error
		wantIs bool
	}{
		"instance of the same error": {
			a:      ErrNotFound,
			b:      ErrNotFound,
			wantIs: true,
		},
		"two different coded errors": {
			a:      ErrNotFound,
			b:      ErrInvalidModel,
			wantIs: false,
		},
		"successful comparison to a wrapped error": {
			a:      ErrNotFound,
			b:      Wrap(Wrap(ErrNotFound, "gone"), "really"),
			wantIs: true,
		},
		"unsuccessful comparison to a wrapped error": {
			a:      ErrDerivation,
			b:      Wrap(ErrNotFound, "gone"),
			wantIs: false,
		},
		"nil is nil": {
			a:      nil,
			b:      nil,
			wantIs: true,
		},
		"nil is any error nil": {
			a:      nil,
			b:      (*wrappedError)(nil),
			wantIs: true,
		},
		"nil is not not-nil": {
			a:      nil,
			b:      ErrUnauthorized,
			wantIs: false,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := tc.a.Is(tc.b); got != tc.wantIs {
				t.Fatalf("unexpected result - got: %v", got)
			}
		})
	}
}

func TestStdlibCompatibility(t *testing.T) {
	err := Wrap(ErrInsufficientAmount, "taker")
	if !stdlib.Is(err, ErrInsufficientAmount) {
		t.Fatal("stdlib errors.Is must unwrap")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("duplicate code must panic")
		}
	}()
	Register(ErrNotFound.ABCICode(), "again")
}

func TestRecover(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err)
		panic("boom")
	}
	err := fn()
	if !ErrPanic.Is(err) {
		t.Fatalf("want panic error, got %v", err)
	}
}

func TestABCIInfo(t *testing.T) {
	cases := map[string]struct {
		err      error
		debug    bool
		wantCode uint32
		wantLog  string
	}{
		"nil error": {
			err:      nil,
			wantCode: 0,
			wantLog:  "",
		},
		"registered error": {
			err:      ErrNotFound.New("escrow"),
			wantCode: ErrNotFound.ABCICode(),
			wantLog:  "escrow: not found",
		},
		"stdlib error is redacted": {
			err:      stdlib.New("secret details"),
			wantCode: 1,
			wantLog:  "internal error",
		},
		"stdlib error in debug mode": {
			err:      stdlib.New("secret details"),
			debug:    true,
			wantCode: 1,
			wantLog:  "secret details",
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			code, log := ABCIInfo(tc.err, tc.debug)
			if code != tc.wantCode {
				t.Errorf("want code %d, got %d", tc.wantCode, code)
			}
			if !strings.HasPrefix(log, tc.wantLog) {
				t.Errorf("want log %q, got %q", tc.wantLog, log)
			}
		})
	}
}

func TestStackTraceIsAttachedOnce(t *testing.T) {
	err := Wrap(Wrap(ErrInvalidInput, "inner"), "outer")
	if stackTrace(err) == nil {
		t.Fatal("stack trace expected")
	}
	full := fmt.Sprintf("%+v", err)
	if !strings.HasPrefix(full, "outer: inner: invalid input") {
		t.Fatalf("unexpected formatting: %s", full)
	}
}

func TestABCIErrorRoundTrip(t *testing.T) {
	code, log := ABCIInfo(Wrap(ErrInsufficientAmount, "balance"), false)
	err := ABCIError(code, log)
	if !ErrInsufficientAmount.Is(err) {
		t.Fatalf("want insufficient amount, got %v", err)
	}
	if got, _ := ABCIInfo(err, false); got != code {
		t.Fatalf("want code %d, got %d", code, got)
	}

	if err := ABCIError(SuccessABCICode, ""); err != nil {
		t.Fatalf("success code must not produce an error: %v", err)
	}
	if got, _ := ABCIInfo(ABCIError(987654, "unknown"), true); got != internalABCICode {
		t.Fatalf("unknown code must be internal, got %d", got)
	}
}
