package config

import "time"

// Application constants
const (
	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Network Timeouts
	DefaultEngineTimeout = 30 * time.Second
	WebSocketPingPeriod  = 30 * time.Second
	WebSocketPongWait    = 60 * time.Second

	// WebSocket Buffer Sizes
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// Uploads
	DefaultMaxUploadBytes = 32 << 20 // 32MB
	DefaultSheetName      = "Institution_Data"

	// File Paths (relative to the base directory)
	DefaultDataDir = "data"
	DefaultLogsDir = "logs"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// API Endpoints
	APIBasePath       = "/api"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)
