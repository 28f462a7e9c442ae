// Package telemetry provides logging and metrics setup for qtvs.
//
// # Structured Logging
//
// Loggers are plain zerolog loggers built from a LoggingConfig:
//
//	cfg := telemetry.DefaultConfig()
//	logger, closer, err := telemetry.NewLogger(cfg.Logging)
//	if err != nil {
//	    return err
//	}
//	defer closer.Close()
//	logger = telemetry.ComponentLogger(logger, "qtconfig")
//
// Log levels: trace, debug, info, warn, error, fatal
//
// # Metrics
//
// Prometheus metrics track Qt tool runs and qconfig.pri reads:
//
//	metrics.RecordToolRun("lupdate", exitCode, duration)
//	metrics.RecordConfigRead(telemetry.ConfigReadMissing)
//
// qtvs is a short-lived CLI, so instead of serving /metrics the registry is
// dumped with WriteTextfile for the node_exporter textfile collector.
// A nil *Metrics is valid and records nothing.
package telemetry
