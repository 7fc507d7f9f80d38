// Package log provides a small structured logger for the gateway services.
//
// Construction mirrors the rest of the codebase: options in, interface out.
//
//	logger := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(os.Stderr),
//	)
//	logger = logger.WithComponent("receipts")
//	logger.Warn("chain query failed", log.Err(err), log.Str("trace_id", id))
//
// Formats
//
// TextFormatter writes "ts LEVEL [component] msg k=v ..." lines for humans;
// JSONFormatter writes one compact JSON object per line ({"ts","level",
// "msg",...fields}) for collectors. The choice is typically driven by
// ODIN_LOG_FORMAT at startup.
package log
