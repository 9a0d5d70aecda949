package ports

// WebServer defines the interface for the HTTP transport
type WebServer interface {
	// Start begins serving requests
	Start() error

	// Stop drains in-flight requests and shuts down
	Stop() error
}
