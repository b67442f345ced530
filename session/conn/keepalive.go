package conn

import (
	"time"

	"github.com/mklatt/chatwire/session/common"
	"github.com/mklatt/chatwire/session/wire"
)

// keepAliveGrace is added to the keep-alive interval before the transport is
// declared dead: one full probe round trip may still be in flight.
var keepAliveGrace = 5 * time.Second

// watchKeepAlive runs the keep-alive watchdog while the connection is open.
// Each tick it checks for silent network death and otherwise sends the
// lightweight liveness probe frame. Teardown stops it via the done channel.
func (s *Socket) watchKeepAlive() {
	interval := s.config.KeepAliveInterval()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}

		idle := time.Since(time.Unix(0, s.lastInbound.Load()))
		if idle > interval+keepAliveGrace {
			Logger.Warningf("[%s] no inbound traffic for %v, declaring transport dead", s.id, idle)
			s.teardown(common.ReasonConnectionLost, nil)
			return
		}

		if !s.transport.Writable() {
			// Not fatal on its own, the idle check above catches real death
			Logger.Warningf("[%s] transport not writable, skipping keep-alive probe", s.id)
			continue
		}

		if err := s.transport.WriteFrame(wire.ProbeFrame); err != nil {
			Logger.Warningf("[%s] keep-alive probe failed: %v", s.id, err)
			continue
		}
		metricProbesSent.Inc()
	}
}
