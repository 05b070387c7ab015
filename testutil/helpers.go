package testutil

import (
	"context"
	"testing"
)

// CleanupFunc stops a component started by Setup.
type CleanupFunc func() error

// Setup starts a test component and returns a cleanup function.
//
//	cleanup, err := testutil.Setup(srv)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer cleanup()
func Setup(component TestComponent) (CleanupFunc, error) {
	return SetupWithContext(context.Background(), component)
}

// SetupWithContext starts a test component with a custom context and returns a cleanup function.
func SetupWithContext(ctx context.Context, component TestComponent) (CleanupFunc, error) {
	if err := component.Start(ctx); err != nil {
		return nil, err
	}
	return func() error {
		return component.Stop(ctx)
	}, nil
}

// THelper ties component lifecycles to a testing.TB.
type THelper struct {
	t   testing.TB
	ctx context.Context
}

// T wraps t so components started through it are stopped when the test ends.
func T(t testing.TB) *THelper {
	return &THelper{t: t, ctx: context.Background()}
}

// WithContext sets a custom context for the helper.
func (h *THelper) WithContext(ctx context.Context) *THelper {
	h.ctx = ctx
	return h
}

// Setup starts a component and registers its Stop with t.Cleanup.
func (h *THelper) Setup(component TestComponent) {
	h.t.Helper()
	if err := component.Start(h.ctx); err != nil {
		h.t.Fatalf("failed to start component %s: %v", component.Name(), err)
	}
	h.t.Cleanup(func() {
		if err := component.Stop(h.ctx); err != nil {
			h.t.Errorf("failed to stop component %s: %v", component.Name(), err)
		}
	})
}

// Reset resets a component to its initial state.
func (h *THelper) Reset(component TestComponent) {
	h.t.Helper()
	if err := component.Reset(h.ctx); err != nil {
		h.t.Fatalf("failed to reset component %s: %v", component.Name(), err)
	}
}

// StartServer starts a new Server that is stopped when t ends.
func StartServer(t testing.TB) *Server {
	t.Helper()
	srv := NewServer()
	T(t).Setup(srv)
	return srv
}
