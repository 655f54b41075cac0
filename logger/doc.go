// Package logger provides structured logging for dataflow using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("dataloader")
//	log.Info("epoch finished", logger.Fields(logger.FieldEpoch, 2))
package logger
