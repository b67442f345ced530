package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Session client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds all configuration parameters for a session connection.
type ClientConfig struct {
	// Endpoint is the websocket URL of the messaging server
	Endpoint string

	// Origin is sent as the HTTP origin header during the upgrade
	Origin string

	// ProxyURL optionally routes the outbound connection through a proxy
	ProxyURL string

	// Timeouts and intervals
	ConnectTimeoutSecond int
	QueryTimeoutSecond   int
	KeepAliveMs          int
	LivenessProbeMs      int
	ReachableGraceMs     int

	// Logging configuration
	LogLevel string
}

// DefaultClientConfig returns the configuration used when no overrides are
// supplied. The intervals match the protocol's reference client.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ConnectTimeoutSecond: 20,
		QueryTimeoutSecond:   30,
		KeepAliveMs:          20000,
		LivenessProbeMs:      15000,
		ReachableGraceMs:     7500,
		LogLevel:             "info",
	}
}

// ConnectTimeout returns the connect timeout as a duration.
func (c *ClientConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSecond) * time.Second
}

// QueryTimeout returns the default query timeout as a duration.
func (c *ClientConfig) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSecond) * time.Second
}

// KeepAliveInterval returns the keep-alive probe interval as a duration.
func (c *ClientConfig) KeepAliveInterval() time.Duration {
	return time.Duration(c.KeepAliveMs) * time.Millisecond
}

// LivenessProbeInterval returns the remote liveness probe interval.
func (c *ClientConfig) LivenessProbeInterval() time.Duration {
	return time.Duration(c.LivenessProbeMs) * time.Millisecond
}

// ReachableGrace returns the grace period started once the remote peer is
// confirmed reachable, after which an unanswered query is cancelled.
func (c *ClientConfig) ReachableGrace() time.Duration {
	return time.Duration(c.ReachableGraceMs) * time.Millisecond
}

// String returns a formatted string representation of the configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Session Client")
	addField("Endpoint", c.Endpoint)
	addField("Origin", c.Origin)
	if c.ProxyURL != "" {
		addField("Proxy", c.ProxyURL)
	}

	addSection("Timing")
	addField("Connect Timeout", fmt.Sprintf("%d sec", c.ConnectTimeoutSecond))
	addField("Query Timeout", fmt.Sprintf("%d sec", c.QueryTimeoutSecond))
	addField("Keep-Alive Interval", strconv.Itoa(c.KeepAliveMs)+" ms")
	addField("Liveness Probe", strconv.Itoa(c.LivenessProbeMs)+" ms")
	addField("Reachable Grace", strconv.Itoa(c.ReachableGraceMs)+" ms")

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
