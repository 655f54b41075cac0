package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "not found" {
		t.Errorf("expected message 'not found', got %q", err.Message)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeIO, "read failed")
	if !err.Retryable {
		t.Error("IO_ERROR should be retryable")
	}
}

func TestAppError_TokenNotFound(t *testing.T) {
	err := TokenNotFound("zebra")
	if err.Code != ErrCodeTokenNotFound {
		t.Errorf("expected TOKEN_NOT_FOUND, got %s", err.Code)
	}
	if err.Details["token"] != "zebra" {
		t.Errorf("expected token=zebra, got %v", err.Details["token"])
	}
	if !strings.Contains(err.Error(), "zebra") {
		t.Errorf("expected message to mention token, got %q", err.Error())
	}
}

func TestAppError_IndexNotFound(t *testing.T) {
	err := IndexNotFound(12, 4)
	if err.Code != ErrCodeTokenNotFound {
		t.Errorf("expected TOKEN_NOT_FOUND, got %s", err.Code)
	}
	if err.Details["index"] != 12 || err.Details["size"] != 4 {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	root := fmt.Errorf("disk gone")
	err := StageFailed("lines", root)
	if !stderrors.Is(err, root) {
		t.Error("expected errors.Is to find the root cause")
	}
	if err.Details["stage"] != "lines" {
		t.Errorf("expected stage=lines, got %v", err.Details["stage"])
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := &AppError{Code: ErrCodeInternal}
	err.WithDetail("k", "v")
	if err.Details["k"] != "v" {
		t.Errorf("expected k=v, got %v", err.Details)
	}
}

func TestAppError_Error_Format(t *testing.T) {
	plain := New(ErrCodeInvalidInput, "bad")
	if plain.Error() != "INVALID_INPUT: bad" {
		t.Errorf("unexpected format %q", plain.Error())
	}
	wrapped := New(ErrCodeInternal, "boom").WithCause(fmt.Errorf("inner"))
	if !strings.Contains(wrapped.Error(), "(cause: inner)") {
		t.Errorf("expected cause in message, got %q", wrapped.Error())
	}
}

func TestPanicked_ConvertsValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string value", "kaboom", "panic: kaboom"},
		{"error value", fmt.Errorf("typed"), "typed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Panicked("map", tt.value)
			if err.Code != ErrCodeStageFailed {
				t.Fatalf("expected STAGE_FAILED, got %s", err.Code)
			}
			if err.Cause == nil || err.Cause.Error() != tt.want {
				t.Errorf("expected cause %q, got %v", tt.want, err.Cause)
			}
		})
	}
}

func TestIsCode_WalksCauses(t *testing.T) {
	lookup := TokenNotFound("x")
	stage := StageFailed("vocab", lookup)
	poisoned := LoaderPoisoned(stage)
	wrapped := fmt.Errorf("next: %w", poisoned)

	for _, code := range []ErrorCode{ErrCodeLoaderPoisoned, ErrCodeStageFailed, ErrCodeTokenNotFound} {
		if !IsCode(wrapped, code) {
			t.Errorf("expected IsCode to find %s", code)
		}
	}
	if IsCode(wrapped, ErrCodeIO) {
		t.Error("did not expect IO_ERROR in the chain")
	}
	if IsCode(nil, ErrCodeInternal) {
		t.Error("nil error has no code")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(fmt.Errorf("wrap: %w", LoaderClosed())); got != ErrCodeLoaderClosed {
		t.Errorf("expected LOADER_CLOSED, got %q", got)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != "" {
		t.Errorf("expected empty code, got %q", got)
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		retryable bool
	}{
		{"InvalidInput", InvalidInput("lists", "length mismatch"), ErrCodeInvalidInput, false},
		{"Validation", Validation("bad config"), ErrCodeInvalidInput, false},
		{"MissingField", MissingField("name"), ErrCodeMissingField, false},
		{"NotFound", NotFound("file", "a.txt"), ErrCodeNotFound, false},
		{"IO", IO("open", "a.txt", fmt.Errorf("nope")), ErrCodeIO, true},
		{"LoaderPoisoned", LoaderPoisoned(fmt.Errorf("x")), ErrCodeLoaderPoisoned, false},
		{"LoaderClosed", LoaderClosed(), ErrCodeLoaderClosed, false},
		{"Internal", Internal(nil), ErrCodeInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
			}
			if tt.err.Retryable != tt.retryable {
				t.Errorf("expected retryable=%v, got %v", tt.retryable, tt.err.Retryable)
			}
		})
	}
}

func TestAppError_ImplementsErrorInterface(t *testing.T) {
	var err error = New(ErrCodeInternal, "x")
	if err.Error() == "" {
		t.Error("expected non-empty error string")
	}
}

func TestIsRetryable(t *testing.T) {
	io := IO("read", "/corpus.txt", stderrors.New("busy"))
	if !IsRetryable(io) {
		t.Error("expected IO error to be retryable")
	}
	if !IsRetryable(fmt.Errorf("loading: %w", io)) {
		t.Error("expected wrapped IO error to be retryable")
	}
	if IsRetryable(StageFailed("lines", io)) {
		t.Error("expected the outermost STAGE_FAILED to decide")
	}
	if IsRetryable(stderrors.New("plain")) || IsRetryable(nil) {
		t.Error("expected non-AppErrors to be permanent")
	}
}
