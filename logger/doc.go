// Package logger provides structured logging for starschema using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with structured fields. Redact masks sensitive
// statement parameters (IAM role ARNs, secrets) before they reach a log line.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get(logger.ComponentExecutor)
//	log.Info("stage started", logger.Fields("stage", "stage_events"))
package logger
