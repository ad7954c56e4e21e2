package testutil

import (
	"testing"
	"time"
)

func Assert[T comparable](t *testing.T, expected T, value T, message string) {
	t.Helper()

	if expected != value {
		t.Fatalf("%s: expected %v got %v", message, expected, value)
	}
}

func AssertErr(t *testing.T, expected error, value error, message string) {
	t.Helper()

	if expected == nil && value == nil {
		return
	}

	if expected == nil || value == nil || expected.Error() != value.Error() {
		t.Fatalf("%s: expected %v got %v", message, expected, value)
	}
}

func IsNil(t *testing.T, value interface{}, message string) {
	t.Helper()

	if value != nil {
		t.Fatalf("%s: expected nil got %v", message, value)
	}
}

func IsNotNil(t *testing.T, value interface{}, message string) {
	t.Helper()

	if value == nil {
		t.Fatalf("%s: expected not nil got nil", message)
	}
}

// Receive waits up to d for a value on ch.
func Receive[T any](t *testing.T, ch <-chan T, d time.Duration, message string) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(d):
		t.Fatalf("%s: nothing received within %s", message, d)
	}

	var zero T

	return zero
}

// Silent fails if anything arrives on ch within d.
func Silent[T any](t *testing.T, ch <-chan T, d time.Duration, message string) {
	t.Helper()

	select {
	case v := <-ch:
		t.Fatalf("%s: expected nothing got %v", message, v)
	case <-time.After(d):
	}
}
