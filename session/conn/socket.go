package conn

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"

	"github.com/mklatt/chatwire/session/common"
	"github.com/mklatt/chatwire/session/router"
	"github.com/mklatt/chatwire/session/transport"
	"github.com/mklatt/chatwire/session/wire"
)

var Logger = logger.GetLogger("conn")

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

var (
	metricFramesSent     = metrics.GetOrCreateCounter(`chatwire_frames_sent_total`)
	metricFramesReceived = metrics.GetOrCreateCounter(`chatwire_frames_received_total`)
	metricPongsReceived  = metrics.GetOrCreateCounter(`chatwire_pongs_received_total`)
	metricProbesSent     = metrics.GetOrCreateCounter(`chatwire_keepalive_probes_sent_total`)
	metricUnhandled      = metrics.GetOrCreateCounter(`chatwire_unhandled_events_total`)
	metricQueries        = metrics.GetOrCreateCounter(`chatwire_queries_total`)
	metricQueryFailures  = metrics.GetOrCreateCounter(`chatwire_query_failures_total`)
)

func countDisconnect(reason common.DisconnectReason) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`chatwire_disconnects_total{reason=%q}`, reason)).Inc()
}

// --------------------------------------------------------------------------
// Lifecycle State
// --------------------------------------------------------------------------

// State is the lifecycle state of a Socket. Closed is terminal.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Socket
// --------------------------------------------------------------------------

// Socket is a single session connection. All mutation of shared state
// (epoch, keys, lifecycle state, waiter registries, reference counts) goes
// through its methods; the instance owns every timer and listener it creates
// and releases them on teardown.
type Socket struct {
	id     string
	config common.ClientConfig

	transport transport.IFrameTransport
	frames    *wire.FrameCodec
	router    *router.Router
	tags      *wire.TagGenerator
	monitor   *LivenessMonitor

	state       atomic.Int32
	dialing     atomic.Bool // set by the first Connect call, never cleared
	lastInbound atomic.Int64 // unix nanoseconds of the last inbound frame
	auth        atomic.Pointer[common.AuthInfo]

	openCh   chan struct{} // closed once the transport is open
	done     chan struct{} // closed once teardown completed
	closeErr atomic.Pointer[common.CloseError]

	onClose        func(*common.CloseError)
	onPeerLiveness func(reachable bool)

	disconnectSub *router.Subscription
}

// New creates a socket for the given transport and frame codec. The socket
// starts in the Connecting state; call Connect to open the transport.
func New(config common.ClientConfig, tr transport.IFrameTransport, frames *wire.FrameCodec) *Socket {
	s := &Socket{
		id:        uuid.NewString(),
		config:    config,
		transport: tr,
		frames:    frames,
		router:    router.New(),
		tags:      wire.NewTagGenerator(),
		openCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}

	s.monitor = newLivenessMonitor(config.LivenessProbeInterval(), s.probePeer, func(reachable bool) {
		if s.onPeerLiveness != nil {
			s.onPeerLiveness(reachable)
		}
	})

	return s
}

// Router exposes the event router for unsolicited push subscriptions.
func (s *Socket) Router() *router.Router {
	return s.router
}

// OnClose registers the terminal close callback. Must be set before Connect.
func (s *Socket) OnClose(fn func(*common.CloseError)) {
	s.onClose = fn
}

// OnPeerLiveness registers the peer-reachability callback invoked by the
// liveness monitor. Must be set before Connect.
func (s *Socket) OnPeerLiveness(fn func(reachable bool)) {
	s.onPeerLiveness = fn
}

// State returns the current lifecycle state.
func (s *Socket) State() State {
	return State(s.state.Load())
}

// CurrentEpoch returns the connection epoch counter (the number of tags
// generated so far).
func (s *Socket) CurrentEpoch() uint64 {
	return s.tags.Epoch()
}

// UpdateKeys supplies or replaces the session key material. Keys are
// replaced atomically, never partially.
func (s *Socket) UpdateKeys(auth common.AuthInfo) {
	s.auth.Store(&auth)
}

// Done is closed once the connection reached its terminal state.
func (s *Socket) Done() <-chan struct{} {
	return s.done
}

// CloseReason returns the terminal close notification, or nil while the
// connection is still alive.
func (s *Socket) CloseReason() *common.CloseError {
	return s.closeErr.Load()
}

// --------------------------------------------------------------------------
// Connect / Teardown
// --------------------------------------------------------------------------

// Connect opens the transport, starts the inbound read loop and the
// keep-alive watchdog. Only the first call dials; concurrent and repeated
// calls fail without touching the transport. A connect failure tears the
// socket down with reason connectionLost.
func (s *Socket) Connect() error {
	if !s.dialing.CompareAndSwap(false, true) {
		return s.closeError()
	}

	if State(s.state.Load()) != StateConnecting {
		return s.closeError()
	}

	if err := s.transport.Dial(s.config); err != nil {
		s.teardown(common.ReasonConnectionLost, err)
		return err
	}

	s.lastInbound.Store(time.Now().UnixNano())

	// End may have won the race while the dial was in flight
	if !s.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen)) {
		_ = s.transport.Close()
		return s.closeError()
	}
	close(s.openCh)

	// Remote-peer disconnect pushes classify the close reason
	s.disconnectSub = s.router.Subscribe(router.KeyAttr("Cmd", "type", "disconnect"), s.handleDisconnectPush)

	go s.readLoop()
	go s.watchKeepAlive()

	Logger.Infof("[%s] session open to %s via %s", s.id, s.config.Endpoint, s.transport.GetName())
	return nil
}

// End terminates the connection with the given reason. Safe to call from any
// goroutine and at any time; later calls are no-ops.
func (s *Socket) End(reason common.DisconnectReason) {
	s.teardown(reason, nil)
}

// teardown performs the single-shot, idempotent close: it stops the
// watchdog and the liveness monitor, detaches listeners, closes the
// transport (swallowing close-time errors) and emits the terminal close
// notification exactly once, with the reason of the first trigger.
func (s *Socket) teardown(reason common.DisconnectReason, cause error) {
	for {
		cur := State(s.state.Load())
		if cur == StateClosing || cur == StateClosed {
			return
		}
		if s.state.CompareAndSwap(int32(cur), int32(StateClosing)) {
			break
		}
	}

	closeErr := &common.CloseError{Reason: reason, Cause: cause}
	s.closeErr.Store(closeErr)

	// Stop the liveness monitor and drop its armed cancellers
	s.monitor.Reset()

	// Detach the push listener
	if s.disconnectSub != nil {
		s.router.Unsubscribe(s.disconnectSub)
		s.disconnectSub = nil
	}

	// Close-time transport errors carry no information the reason does not
	_ = s.transport.Close()

	// Settle every suspended waiter
	s.router.RejectAll(closeErr)

	countDisconnect(reason)
	s.state.Store(int32(StateClosed))
	close(s.done) // stops watchdog and read loop, releases Done waiters

	Logger.Infof("[%s] %v", s.id, closeErr)

	if s.onClose != nil {
		s.onClose(closeErr)
	}
}

// WaitForSocketOpen suspends until the transport is open. It returns
// immediately if already open, and fails immediately if the connection is
// already closing or closed.
func (s *Socket) WaitForSocketOpen() error {
	switch State(s.state.Load()) {
	case StateOpen:
		return nil
	case StateClosing, StateClosed:
		return s.closeError()
	}

	select {
	case <-s.openCh:
		return nil
	case <-s.done:
		return s.closeError()
	}
}

// closeError returns the terminal close error, falling back to the plain
// sentinel while teardown is still storing it
func (s *Socket) closeError() error {
	if err := s.closeErr.Load(); err != nil {
		return err
	}
	return common.ErrConnectionClosed
}

// --------------------------------------------------------------------------
// Inbound Path
// --------------------------------------------------------------------------

// readLoop receives raw frames until the transport fails or the socket
// closes. Any decode failure tears the connection down: the cipher stream is
// assumed desynchronized and cannot be recovered in place.
func (s *Socket) readLoop() {
	for {
		raw, err := s.transport.ReadFrame()
		if err != nil {
			select {
			case <-s.done:
				return // orderly close, the reason is already chosen
			default:
			}
			s.teardown(common.ReasonConnectionLost, err)
			return
		}

		s.lastInbound.Store(time.Now().UnixNano())
		metricFramesReceived.Inc()

		if ts, pong := wire.Classify(raw); pong {
			metricPongsReceived.Inc()
			Logger.Debugf("[%s] pong (server time %d)", s.id, ts)
			continue
		}

		tag, payload, err := s.frames.Decode(raw, s.auth.Load())
		if err != nil {
			s.teardown(common.ReasonBadSession, err)
			return
		}

		if !s.router.Publish(tag, payload) {
			metricUnhandled.Inc()
			Logger.Debugf("[%s] unhandled event (tag %q)", s.id, tag)
		}
	}
}

// handleDisconnectPush classifies a remote-peer disconnect push by its
// embedded kind field
func (s *Socket) handleDisconnectPush(payload any) {
	reason := common.ReasonConnectionLost
	if attrOf(payload, "kind") == "replaced" {
		reason = common.ReasonConnectionReplaced
	}
	s.teardown(reason, nil)
}

// attrOf extracts a named attribute from a node or JSON array payload
func attrOf(payload any, name string) string {
	switch p := payload.(type) {
	case *common.Node:
		return p.Attr(name)
	case common.Node:
		return p.Attr(name)
	case []any:
		if len(p) > 1 {
			if m, ok := p[1].(map[string]any); ok {
				if v, ok := m[name].(string); ok {
					return v
				}
			}
		}
	}
	return ""
}

// --------------------------------------------------------------------------
// Outbound Path
// --------------------------------------------------------------------------

// Send encodes and writes a fire-and-forget message, returning the tag it
// was sent under. Kind 0 sends a plain JSON frame, any other kind an
// encrypted binary frame. Precondition failures (missing keys, non-node
// payload) fail fast without touching the transport.
func (s *Socket) Send(payload any, kind wire.WireKind, tag string) (string, error) {
	if State(s.state.Load()) != StateOpen {
		return "", s.closeError()
	}

	if tag == "" {
		tag = s.tags.Next(kind == 0)
	}

	var frame []byte
	var err error
	if kind == 0 {
		frame, err = s.frames.EncodePlain(tag, payload)
	} else {
		frame, err = s.frames.EncodeBinary(tag, payload, kind, s.auth.Load())
	}
	if err != nil {
		return "", err
	}

	if err := s.transport.WriteFrame(frame); err != nil {
		s.teardown(common.ReasonConnectionLost, err)
		return "", err
	}

	metricFramesSent.Inc()
	return tag, nil
}
