package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNewAndIs(t *testing.T) {
	err := New(ErrCodeCyclicDependency, "edge %d -> %d", 3, 1)
	if !Is(err, ErrCodeCyclicDependency) {
		t.Error("Is should match the code")
	}
	if Is(err, ErrCodeTimeout) {
		t.Error("Is should not match a different code")
	}
	if err.Error() != "CYCLIC_DEPENDENCY: edge 3 -> 1" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeUnreachable, cause, "eliminate request")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}
	if GetCode(err) != ErrCodeUnreachable {
		t.Errorf("GetCode = %s", GetCode(err))
	}

	// Wrapping again keeps the outermost code visible.
	outer := fmt.Errorf("pipeline: %w", err)
	if GetCode(outer) != ErrCodeUnreachable {
		t.Errorf("GetCode through fmt wrap = %s", GetCode(outer))
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidParentTypes, "perpendicular foot wants (point, line)")
	if UserMessage(err) != "perpendicular foot wants (point, line)" {
		t.Errorf("UserMessage = %q", UserMessage(err))
	}
	plain := stderrors.New("plain")
	if UserMessage(plain) != "plain" {
		t.Errorf("UserMessage(plain) = %q", UserMessage(plain))
	}
}

func TestIsLocusFailure(t *testing.T) {
	for _, code := range []Code{ErrCodeTimeout, ErrCodeUnreachable, ErrCodeDegenerateSystem} {
		if !IsLocusFailure(New(code, "x")) {
			t.Errorf("%s should be a locus failure", code)
		}
	}
	if IsLocusFailure(New(ErrCodeCyclicDependency, "x")) {
		t.Error("construction errors are not locus failures")
	}
	if IsLocusFailure(stderrors.New("plain")) {
		t.Error("plain errors are not locus failures")
	}
}
