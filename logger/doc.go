// Package logger provides structured logging for netclient using zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers carrying map-based fields.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg, "netclient").WithComponent("client")
//	log.Debug("call finished", logger.Fields("status", 200))
package logger
