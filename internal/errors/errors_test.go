package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(TypeConfig, "unknown strategy")
	if got := err.Error(); got != "[CONFIG_ERROR] unknown strategy" {
		t.Errorf("unexpected message: %s", got)
	}

	cause := stderrors.New("file missing")
	wrapped := Wrap(TypeSource, "parsing warehouses", cause)
	if !strings.Contains(wrapped.Error(), "file missing") {
		t.Errorf("cause missing from message: %s", wrapped.Error())
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	wrapped := Wrapf(TypeStorage, cause, "storing %s", "inventory")
	if !stderrors.Is(wrapped, cause) {
		t.Error("wrapped error must unwrap to its cause")
	}
}

func TestIsType(t *testing.T) {
	err := Newf(TypeCapacity, "%s unallocated", "500 bushel")
	if !IsType(err, TypeCapacity) {
		t.Error("expected capacity type to match")
	}
	if IsType(err, TypeStorage) {
		t.Error("unexpected storage type match")
	}
	if IsType(stderrors.New("plain"), TypeInternal) {
		t.Error("plain errors must not match any type")
	}
}

func TestWithContext(t *testing.T) {
	err := New(TypeValidation, "negative amount").
		WithContext("field", "amount").
		WithContext("value", "-5")
	if err.Context["field"] != "amount" || err.Context["value"] != "-5" {
		t.Errorf("unexpected context: %+v", err.Context)
	}
}
