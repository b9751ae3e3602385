package config

import "time"

// ServerTimeouts holds the HTTP server timeout settings.
// These can be configured via CLI flags.
type ServerTimeouts struct {
	// Read is the timeout for reading a request including the body. Default: 15s
	Read time.Duration

	// Write is the timeout for writing a response. Default: 60s
	Write time.Duration

	// Idle is how long keep-alive connections wait for the next request. Default: 120s
	Idle time.Duration

	// Request bounds handler execution via the chi Timeout middleware. Default: 60s
	Request time.Duration

	// Shutdown is the grace period for in-flight requests on stop. Default: 30s
	Shutdown time.Duration
}

// DefaultServerTimeouts returns the default timeout configuration
func DefaultServerTimeouts() ServerTimeouts {
	return ServerTimeouts{
		Read:     15 * time.Second,
		Write:    60 * time.Second,
		Idle:     120 * time.Second,
		Request:  60 * time.Second,
		Shutdown: 30 * time.Second,
	}
}
