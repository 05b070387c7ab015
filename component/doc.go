// Package component defines the lifecycle interface shared by the session
// transport, the observability exporters and the test server, plus a
// Registry that starts them in order and stops them in reverse.
package component
