// Package app wires the CAMELS rating server together: configuration,
// logging, telemetry, the rating engine, services, HTTP handlers and the
// WebSocket event feed.
//
// # Initialization Flow
//
//  1. Load configuration from defaults, an optional YAML file and the environment
//  2. Initialize logging and OpenTelemetry
//  3. Resolve and create the data directories
//  4. Build the engine from the configured scheme file or the built-in scheme
//  5. Start the WebSocket hub and create the rating and health services
//  6. Set up middleware, routes and the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// BuildEngine and BuildSheetsSource are shared with the command line tool
// so both surfaces rate with the same configuration.
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then stops the server within the
// configured shutdown timeout, closes WebSocket clients and flushes
// telemetry. The package never calls os.Exit.
package app
