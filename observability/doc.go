// Package observability wires OpenTelemetry tracing and metrics for HTTP
// transfers.
//
// Setup, usually once in main:
//
//	p, err := observability.Init(ctx, observability.DefaultConfig("rxget"))
//	defer p.Shutdown(ctx)
//
// Transfer metrics are recorded by the session when it is given a Metrics:
//
//	m, err := observability.NewMetrics(observability.Meter("rxhttp"))
//	s, err := httpclient.New(cfg, httpclient.WithMetrics(m))
package observability
