package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeCapacityExceeded, "corpus has %d files", 12)
	if got, want := err.Error(), "CAPACITY_EXCEEDED: corpus has 12 files"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrCodeCapacityExceeded) {
		t.Error("Is() did not match the code")
	}
	if Is(err, ErrCodeInternal) {
		t.Error("Is() matched the wrong code")
	}
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("no such file")
	err := Wrap(ErrCodeFileNotFound, cause, "read %s", "a.tex")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
	if !Is(err, ErrCodeFileNotFound) {
		t.Error("Is() did not match the code")
	}
	if got, want := err.Error(), "FILE_NOT_FOUND: read a.tex: no such file"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIsThroughWrapping(t *testing.T) {
	inner := New(ErrCodeDeadlineExceeded, "scan canceled")
	outer := fmt.Errorf("stage 1: %w", inner)
	if !Is(outer, ErrCodeDeadlineExceeded) {
		t.Error("code not found through fmt.Errorf wrapping")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeInvalidConfig, "bad granularity")); got != ErrCodeInvalidConfig {
		t.Errorf("GetCode = %q", got)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidInput, "entry file not in corpus")); got != "entry file not in corpus" {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage(stderrors.New("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}
