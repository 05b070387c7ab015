package observability

import (
	"context"

	"github.com/kbukum/rxhttp/component"
)

// Component installs the OTLP providers on Start and flushes them on Stop.
type Component struct {
	cfg       Config
	providers *Providers
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates an exporter component for cfg.
func NewComponent(cfg Config) *Component {
	return &Component{cfg: cfg}
}

func (c *Component) Name() string { return "otlp" }

func (c *Component) Start(ctx context.Context) error {
	p, err := Init(ctx, c.cfg)
	if err != nil {
		return err
	}
	c.providers = p
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	if c.providers == nil {
		return nil
	}
	err := c.providers.Shutdown(ctx)
	c.providers = nil
	return err
}

// Health is degraded when export is disabled, since nothing leaves the process.
func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case c.providers == nil:
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	case !c.cfg.Enabled:
		h.Status = component.StatusDegraded
		h.Message = "export disabled"
	}
	return h
}

func (c *Component) Describe() component.Description {
	details := "disabled"
	if c.cfg.Enabled {
		details = c.cfg.Endpoint
	}
	return component.Description{Name: "OpenTelemetry", Type: "otlp", Details: details}
}
