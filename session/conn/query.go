package conn

import (
	"strconv"
	"time"

	"github.com/mklatt/chatwire/session/common"
	"github.com/mklatt/chatwire/session/wire"
)

// StatusServerOverloaded is the status the server declares under overload.
// It fails the query and additionally forces connection teardown.
const StatusServerOverloaded = 599

// QueryOptions controls a single Query call.
type QueryOptions struct {
	// Tag overrides the generated correlation tag
	Tag string

	// Kind selects an encrypted binary frame; 0 sends a plain JSON frame
	Kind wire.WireKind

	// LongTag embeds the full reference timestamp in a generated tag
	LongTag bool

	// Timeout overrides the configured default query timeout
	Timeout time.Duration

	// ExpectSuccess fails the query on any non-2xx response status
	ExpectSuccess bool

	// RequiresPeerLiveness marks the query as answerable only by a
	// reachable remote peer: the liveness monitor runs while it is pending
	// and the peer-reachable grace canceller is armed
	RequiresPeerLiveness bool
}

// Query sends one message and awaits exactly one response correlated by tag.
// It suspends until resolution, timeout, transport close or transport error,
// whichever occurs first. Concurrent queries are independent: responses are
// matched strictly by tag, never by arrival order.
func (s *Socket) Query(payload any, opts QueryOptions) (any, error) {
	if err := s.WaitForSocketOpen(); err != nil {
		return nil, err
	}

	tag := opts.Tag
	if tag == "" {
		tag = s.tags.Next(opts.LongTag)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = s.config.QueryTimeout()
	}

	// Register the one-shot waiter before the frame hits the wire so even
	// an immediate reply finds it. The cancel is idempotent and covers
	// every exit path below.
	ch := s.router.AwaitTag(tag)
	defer s.router.CancelTag(tag)

	if opts.RequiresPeerLiveness {
		s.monitor.Acquire()
		defer s.monitor.Release()

		cancelGrace := s.monitor.OnceReachable(s.config.ReachableGrace(), func() {
			s.router.RejectTag(tag, common.NewNoResponseError(payload))
		})
		defer cancelGrace()
	}

	metricQueries.Inc()

	if _, err := s.Send(payload, opts.Kind, tag); err != nil {
		metricQueryFailures.Inc()
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-ch:
		if result.Err != nil {
			metricQueryFailures.Inc()
			return nil, result.Err
		}
		return s.settle(result.Payload, payload, opts)

	case <-timer.C:
		metricQueryFailures.Inc()
		return nil, common.ErrQueryTimedOut

	case <-s.done:
		metricQueryFailures.Inc()
		return nil, s.closeError()
	}
}

// settle applies the status rules to a resolved response
func (s *Socket) settle(response, request any, opts QueryOptions) (any, error) {
	status := common.StatusOf(response)

	if status == StatusServerOverloaded {
		// The server asked us to back off; the session is over either way
		s.teardown(common.ReasonServerOverloaded, nil)
		metricQueryFailures.Inc()
		return nil, &common.StatusError{Status: status, Message: "server overloaded", Payload: request}
	}

	if opts.ExpectSuccess && !common.IsSuccessStatus(status) {
		metricQueryFailures.Inc()
		return nil, &common.StatusError{Status: status, Payload: request}
	}

	return response, nil
}

// --------------------------------------------------------------------------
// Convenience Queries
// --------------------------------------------------------------------------

// SetQuery sends the given nodes as a binary "action/set" request, the
// protocol's mutation envelope.
func (s *Socket) SetQuery(nodes []common.Node) (any, error) {
	payload := &common.Node{
		Header: "action",
		Attrs: map[string]string{
			"type":  "set",
			"epoch": strconv.FormatUint(s.tags.Epoch(), 10),
		},
		Content: nodes,
	}

	return s.Query(payload, QueryOptions{
		Kind:          wire.KindGroup,
		ExpectSuccess: true,
	})
}

// SendMessage sends a fire-and-forget message node as an encrypted binary
// frame and returns the tag it was sent under. No response is awaited.
func (s *Socket) SendMessage(node *common.Node) (string, error) {
	return s.Send(node, wire.KindMessage, "")
}

// AdminTest sends the minimal ["admin","test"] probe used to check whether
// the remote peer application is reachable.
func (s *Socket) AdminTest(timeout time.Duration) (any, error) {
	return s.Query([]any{"admin", "test"}, QueryOptions{
		LongTag: true,
		Timeout: timeout,
	})
}

// probePeer is the liveness monitor's probe: an admin test on its own
// goroutine whose success signals peer reachability.
func (s *Socket) probePeer() {
	go func() {
		resp, err := s.AdminTest(s.config.LivenessProbeInterval())
		if err == nil && common.IsSuccessStatus(common.StatusOf(resp)) {
			s.monitor.SignalReachable()
		}
	}()
}
