package httpclient

import (
	"context"
	"fmt"

	"github.com/kbukum/rxhttp/component"
)

// Component wraps a Session with lifecycle management so it can be started
// and stopped alongside the rest of an application.
type Component struct {
	session *Session
	config  Config
	opts    []Option
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a session component. The session is created in Start.
func NewComponent(cfg Config, opts ...Option) *Component {
	return &Component{config: cfg, opts: opts}
}

// Name returns the component name.
func (c *Component) Name() string {
	if c.config.Name == "" {
		return "http"
	}
	return c.config.Name
}

// Start creates the session.
func (c *Component) Start(_ context.Context) error {
	s, err := New(c.config, c.opts...)
	if err != nil {
		return err
	}
	c.session = s
	return nil
}

// Stop cancels running requests and releases connections.
func (c *Component) Stop(ctx context.Context) error {
	if c.session != nil {
		return c.session.Close(ctx)
	}
	return nil
}

// Health reports unhealthy before Start, after Stop, or while the circuit
// breaker is open.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case c.session == nil:
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	case !c.session.IsAvailable(ctx):
		h.Status = component.StatusUnhealthy
		h.Message = "unavailable"
	default:
		h.Message = fmt.Sprintf("%d active", c.session.ActiveCount())
	}
	return h
}

// Describe returns a one-line summary of the session configuration.
func (c *Component) Describe() component.Description {
	details := c.config.BaseURL
	if c.config.DeferStart {
		details += " (deferred start)"
	}
	return component.Description{
		Name:    c.Name(),
		Type:    "http-session",
		Details: details,
	}
}

// Session returns the underlying session. Nil before Start.
func (c *Component) Session() *Session {
	return c.session
}
