package testutil

import (
	"context"

	"github.com/kbukum/rxhttp/component"
)

// TestComponent extends component.Component with a Reset used between test
// cases to restore the initial state.
type TestComponent interface {
	component.Component

	Reset(ctx context.Context) error
}
