package api

import (
	"fmt"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// API server configuration struct
// --------------------------------------------------------------------------

// Config holds all configuration parameters for the admin API server.
type Config struct {
	// Endpoint is the address the HTTP server listens on
	Endpoint string

	// AuthToken protects the /api routes. An empty token disables auth
	// (local development only).
	AuthToken string

	// Store parameters
	StorePath string
	CacheTTL  time.Duration

	// Edge config seeding (optional)
	EdgeConfigID    string
	EdgeConfigToken string

	// Logging configuration
	LogLevel string
}

// AuthEnabled reports whether bearer auth is active for the /api routes.
func (c *Config) AuthEnabled() bool {
	return c.AuthToken != ""
}

// String returns a formatted string representation of the configuration.
// Secrets are redacted.
func (c *Config) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// HTTP settings
	addSection("HTTP API")
	addField("Endpoint", c.Endpoint)
	addField("Auth", fmt.Sprintf("%t", c.AuthEnabled()))

	// Store settings
	addSection("Store")
	addField("Store File", c.StorePath)
	addField("Cache TTL", c.CacheTTL.String())

	// Edge config seeding
	addSection("Edge Config")
	if c.EdgeConfigID != "" {
		addField("ID", c.EdgeConfigID)
		addField("Token", "<redacted>")
	} else {
		addField("Seeding", "disabled")
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
