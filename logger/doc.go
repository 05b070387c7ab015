// Package logger provides structured logging for rxhttp using zerolog.
//
// It supports JSON and console output, per-logger levels, and
// component-scoped loggers with structured fields. Library code obtains
// its logger through Get, so applications control verbosity by calling
// Init (or SetGlobalLogger) once at startup.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//	  output: "stderr"
//
// # Usage
//
//	log := logger.Get("httpclient")
//	log.Debug("request finished", logger.Fields("status", 200))
package logger
