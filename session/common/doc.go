// Package common contains the core data structures shared across the session
// client: the payload tree (Node), authentication key material (AuthInfo),
// the disconnect-reason taxonomy, typed protocol errors, client configuration
// and logging utilities.
package common
