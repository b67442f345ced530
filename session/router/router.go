package router

import (
	"sync"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/mklatt/chatwire/session/common"
)

var Logger = logger.GetLogger("router")

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Result is the resolution of a one-shot tag channel: either a payload or an
// error, never both.
type Result struct {
	Payload any
	Err     error
}

// Handler consumes payloads published to a wildcard subscription.
type Handler func(payload any)

// Subscription is the handle returned by Subscribe, used to unsubscribe.
type Subscription struct {
	key     string
	handler Handler
}

// Router dispatches inbound payloads to one-shot tag waiters and persistent
// wildcard subscribers.
type Router struct {
	tags *xsync.MapOf[string, chan Result]

	subsMu sync.RWMutex
	subs   map[string][]*Subscription
}

// New creates an empty router.
func New() *Router {
	return &Router{
		tags: xsync.NewMapOf[string, chan Result](),
		subs: make(map[string][]*Subscription),
	}
}

// --------------------------------------------------------------------------
// Routing Keys
// --------------------------------------------------------------------------

// KeyAttr builds the routing key matching a header plus one attribute with
// its value, e.g. "Cmd,type:disconnect".
func KeyAttr(header, attr, value string) string {
	return header + "," + attr + ":" + value
}

// KeyAttrName builds the routing key matching a header plus an attribute
// name regardless of its value.
func KeyAttrName(header, attr string) string {
	return header + "," + attr
}

// KeyChild builds the routing key matching a header plus the nested child
// header, with the attribute slot left empty.
func KeyChild(header, child string) string {
	return header + ",," + child
}

// --------------------------------------------------------------------------
// One-Shot Tag Channels
// --------------------------------------------------------------------------

// AwaitTag registers a one-shot waiter for the given tag and returns the
// channel its resolution will be delivered on. At most one waiter exists per
// tag; tags are unique per connection so registrations never collide.
func (r *Router) AwaitTag(tag string) <-chan Result {
	ch := make(chan Result, 1)
	r.tags.Store(tag, ch)
	return ch
}

// ResolveTag delivers a payload to the waiter registered for tag. Resolving
// an unregistered tag is a no-op returning false: duplicate and late replies
// are expected after a waiter timed out or was cancelled.
func (r *Router) ResolveTag(tag string, payload any) bool {
	ch, ok := r.tags.LoadAndDelete(tag)
	if !ok {
		return false
	}
	ch <- Result{Payload: payload}
	return true
}

// RejectTag delivers an error to the waiter registered for tag.
func (r *Router) RejectTag(tag string, err error) bool {
	ch, ok := r.tags.LoadAndDelete(tag)
	if !ok {
		return false
	}
	ch <- Result{Err: err}
	return true
}

// CancelTag removes the waiter for tag without resolving it. Removal is
// idempotent; cancelling an already settled tag is a no-op.
func (r *Router) CancelTag(tag string) {
	r.tags.Delete(tag)
}

// RejectAll rejects every pending tag waiter with the same error. Used on
// connection teardown so no waiter outlives the transport.
func (r *Router) RejectAll(err error) {
	r.tags.Range(func(tag string, _ chan Result) bool {
		r.RejectTag(tag, err)
		return true
	})
}

// --------------------------------------------------------------------------
// Wildcard Subscriptions
// --------------------------------------------------------------------------

// Subscribe registers a persistent handler for a routing key. Multiple
// handlers may share a key; each matching publish invokes all of them.
func (r *Router) Subscribe(key string, handler Handler) *Subscription {
	sub := &Subscription{key: key, handler: handler}

	r.subsMu.Lock()
	r.subs[key] = append(r.subs[key], sub)
	r.subsMu.Unlock()

	return sub
}

// Unsubscribe removes a subscription created by Subscribe. Unsubscribing
// twice is a no-op.
func (r *Router) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	r.subsMu.Lock()
	defer r.subsMu.Unlock()

	subs := r.subs[sub.key]
	for i, s := range subs {
		if s == sub {
			r.subs[sub.key] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(r.subs[sub.key]) == 0 {
		delete(r.subs, sub.key)
	}
}

// Publish fans an inbound payload out to the one-shot tag waiter (if the tag
// matches) and to every wildcard subscription whose key matches one of the
// payload's derived routing keys. It reports whether anything handled the
// payload.
func (r *Router) Publish(tag string, payload any) bool {
	handled := r.ResolveTag(tag, payload)

	for _, key := range deriveKeys(payload) {
		for _, sub := range r.matching(key) {
			sub.handler(payload)
			handled = true
		}
	}

	return handled
}

// matching snapshots the subscriptions for a key so handlers run without
// holding the registry lock
func (r *Router) matching(key string) []*Subscription {
	r.subsMu.RLock()
	defer r.subsMu.RUnlock()

	subs := r.subs[key]
	if len(subs) == 0 {
		return nil
	}
	return append([]*Subscription(nil), subs...)
}

// --------------------------------------------------------------------------
// Key Derivation
// --------------------------------------------------------------------------

// deriveKeys enumerates every routing key variant of a payload: the primary
// header alone, header plus each attribute with and without its value, and
// header plus the nested child header.
func deriveKeys(payload any) []string {
	header, attrs, child := payloadShape(payload)
	if header == "" {
		return nil
	}

	keys := []string{header}
	for name, value := range attrs {
		keys = append(keys, KeyAttr(header, name, value))
		keys = append(keys, KeyAttrName(header, name))
	}
	if child != "" {
		keys = append(keys, KeyChild(header, child))
	}
	return keys
}

// payloadShape extracts the routing-relevant shape from a decoded payload.
// Node payloads carry the full shape; JSON array payloads ("<header>",
// {attrs}, ...) contribute header and attributes.
func payloadShape(payload any) (header string, attrs map[string]string, child string) {
	switch p := payload.(type) {
	case *common.Node:
		return p.Header, p.Attrs, p.ChildHeader()
	case common.Node:
		return p.Header, p.Attrs, p.ChildHeader()
	case []any:
		if len(p) == 0 {
			return "", nil, ""
		}
		header, _ = p[0].(string)
		if len(p) > 1 {
			if m, ok := p[1].(map[string]any); ok {
				attrs = make(map[string]string, len(m))
				for k, v := range m {
					if s, ok := v.(string); ok {
						attrs[k] = s
					}
				}
			}
		}
		return header, attrs, ""
	}
	return "", nil, ""
}
