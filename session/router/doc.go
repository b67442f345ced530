// Package router implements the event-routing layer of the session client.
//
// It keeps two registries: one-shot tag channels used by the query
// correlator to await exactly one response per correlation tag, and
// persistent wildcard subscriptions keyed by routing keys derived from the
// structural shape of a decoded payload (primary header token, attribute
// name/value pairs, secondary nested header token).
//
// A single inbound payload may fire the tag channel and any number of
// wildcard subscriptions simultaneously.
package router
