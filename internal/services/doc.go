// Package services implements the business layer between the transports
// (HTTP handlers, the CLI) and the CAMELS engine.
//
// # Services
//
//	RatingService  rates and benchmarks observation batches, parses uploads,
//	               reads the optional spreadsheet source and exports results
//	HealthService  reports liveness, readiness, version and host statistics
//
// # Rating runs
//
// Every rating run gets a run ID and a span. Results are memoized by a
// BLAKE2b fingerprint of the observations, the scheme and the options that
// affect output, and identical concurrent runs share one engine call:
//
//	run, err := svc.Rate(ctx, obs, "upload")
//	if err != nil {
//	    code := services.ErrorCode(err) // INVALID_INPUT, NO_OBSERVATIONS, ...
//	}
//
// Finished and failed runs are published to the configured Publisher, which
// in the server is the WebSocket hub. Publishing never fails a run.
//
// # Errors
//
// Engine errors (camels.ErrInvalidInput and friends) pass through unchanged
// so callers can match them with errors.Is. Service-level failures use the
// sentinels in errors.go.
package services
