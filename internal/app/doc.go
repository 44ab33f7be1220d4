// Package app wires SheetPulse together and runs the HTTP server.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, config.yaml, SHEETPULSE_* variables)
//	2. Initialize the JSON logger
//	3. Resolve and create the data, exports, cache and logs directories
//	4. Initialize OpenTelemetry and the business metrics
//	5. Create the dashboard service and load the configured workbook, if any
//	6. Pick the slide image renderer (chrome or static) and create the
//	   export and health services
//	7. Build the chi router and the HTTP server
//
// # Middleware
//
// Every request passes through request ID, real IP, tracing and metrics,
// request logging, panic recovery and security headers. CORS and rate
// limiting are added when enabled. Dashboard API requests are bounded by
// Server.RequestTimeout; export requests are bounded per item by the
// renderer timeout.
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until SIGINT or SIGTERM and then shuts the server and the
// telemetry providers down within Server.ShutdownTimeout.
package app
