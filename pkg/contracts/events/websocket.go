// Package events contains event contract definitions for WebSocket
// communication in the CAMELS rating service.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Rating run messages
	MessageTypeRatingCompleted    MessageType = "rating:completed"
	MessageTypeRatingFailed       MessageType = "rating:failed"
	MessageTypeBenchmarkCompleted MessageType = "benchmark:completed"

	// System messages
	MessageTypeSystemStatus MessageType = "system:status"

	// Connection messages
	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// RatingCompleted is published after a successful rating run
type RatingCompleted struct {
	RunID        string         `json:"run_id"`
	Source       string         `json:"source"`
	Scheme       string         `json:"scheme"`
	Rows         int            `json:"rows"`
	Institutions int            `json:"institutions"`
	Dates        int            `json:"dates"`
	Distribution map[string]int `json:"grade_distribution"`
	DurationMS   int64          `json:"duration_ms"`
	Cached       bool           `json:"cached"`
}

// BenchmarkCompleted is published after a benchmark comparison
type BenchmarkCompleted struct {
	RunID        string `json:"run_id"`
	Date         string `json:"date"`
	Method       string `json:"method"`
	Institutions int    `json:"institutions"`
}

// RatingFailed is published when a run is rejected or fails
type RatingFailed struct {
	RunID  string `json:"run_id"`
	Source string `json:"source"`
	Code   string `json:"code"`
	Error  string `json:"error"`
}

// ErrorMessage represents an error message
type ErrorMessage struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SystemStatus represents a system status event
type SystemStatus struct {
	Status  string `json:"status"` // healthy|degraded|unhealthy
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
	Clients int    `json:"clients"`
}
