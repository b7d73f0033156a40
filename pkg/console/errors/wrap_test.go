package errors

import (
	"errors"
	"testing"
)

func TestWrapKubernetes(t *testing.T) {
	originalErr := errors.New("connection refused")
	wrapped := WrapKubernetes(originalErr, "failed to get server version")

	if wrapped == nil {
		t.Fatal("WrapKubernetes() should not return nil")
	}

	if !errors.Is(wrapped, ErrKubernetes) {
		t.Error("WrapKubernetes() should wrap with ErrKubernetes")
	}

	if !errors.Is(wrapped, originalErr) {
		t.Error("WrapKubernetes() should preserve original error")
	}

	if WrapKubernetes(nil, "context") != nil {
		t.Error("WrapKubernetes() should return nil for nil error")
	}
}

func TestWrapStorage(t *testing.T) {
	originalErr := errors.New("write failed")
	wrapped := WrapStorage(originalErr, "failed to store event")

	if !errors.Is(wrapped, ErrStorage) {
		t.Error("WrapStorage() should wrap with ErrStorage")
	}

	if !errors.Is(wrapped, originalErr) {
		t.Error("WrapStorage() should preserve original error")
	}

	if WrapStorage(nil, "context") != nil {
		t.Error("WrapStorage() should return nil for nil error")
	}
}

func TestWrapInvalid(t *testing.T) {
	originalErr := errors.New("bad status")
	wrapped := WrapInvalid(originalErr, "invalid connection status")

	if !errors.Is(wrapped, ErrInvalid) {
		t.Error("WrapInvalid() should wrap with ErrInvalid")
	}

	if !errors.Is(wrapped, originalErr) {
		t.Error("WrapInvalid() should preserve original error")
	}

	if WrapInvalid(nil, "context") != nil {
		t.Error("WrapInvalid() should return nil for nil error")
	}
}

func TestWrapNotFound(t *testing.T) {
	originalErr := errors.New("missing")
	wrapped := WrapNotFound(originalErr, "connection not found")

	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("WrapNotFound() should wrap with ErrNotFound")
	}

	if !errors.Is(wrapped, originalErr) {
		t.Error("WrapNotFound() should preserve original error")
	}

	if WrapNotFound(nil, "context") != nil {
		t.Error("WrapNotFound() should return nil for nil error")
	}
}

func TestWrapRemote(t *testing.T) {
	originalErr := errors.New("status 502")
	wrapped := WrapRemote(originalErr, "list events")

	if !errors.Is(wrapped, ErrRemote) {
		t.Error("WrapRemote() should wrap with ErrRemote")
	}

	if !errors.Is(wrapped, originalErr) {
		t.Error("WrapRemote() should preserve original error")
	}

	if WrapRemote(nil, "context") != nil {
		t.Error("WrapRemote() should return nil for nil error")
	}
}

func TestErrorMessageFormat(t *testing.T) {
	wrapped := WrapStorage(errors.New("disk full"), "save connection")
	want := "storage error: save connection: disk full"
	if wrapped.Error() != want {
		t.Errorf("WrapStorage() message = %q, want %q", wrapped.Error(), want)
	}
}

func TestWrap_Generic(t *testing.T) {
	originalErr := errors.New("connected -> discovered")
	wrapped := WrapTransition(originalErr, "conn-1")

	if !errors.Is(wrapped, ErrInvalidTransition) || !errors.Is(wrapped, originalErr) {
		t.Errorf("WrapTransition() = %v, want both sentinel and cause", wrapped)
	}
	if wrapped.Error() != "invalid status transition: conn-1: connected -> discovered" {
		t.Errorf("WrapTransition() message = %q", wrapped.Error())
	}
	if Wrap(ErrRemote, nil, "x") != nil {
		t.Error("Wrap() should return nil for nil error")
	}
}
