// Package peer owns the ring's single rendezvous point: one State object
// mutated exclusively by Engine's owner goroutine. The datagram receiver,
// the stream acceptor, the ping ticker, and the command reader are all
// independent activities, but none of them touch State directly — they
// each hand a closure ("work item") to Engine's work channel, and only
// the dispatch loop in Run ever executes one. This is the message-passing
// alternative the spec's design notes call for in place of the source's
// global mutable state, and it makes a single mutex unnecessary.
package peer

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ringkeeper/cdht-peer/internal/command"
	"github.com/ringkeeper/cdht-peer/internal/config"
	"github.com/ringkeeper/cdht-peer/internal/event"
	"github.com/ringkeeper/cdht-peer/internal/transport"
	"github.com/ringkeeper/cdht-peer/internal/wire"
)

// Engine runs one CDHT peer: it owns the sockets, the mutable State, and
// the dispatch loop that serializes every mutation.
type Engine struct {
	state State
	cfg   config.Config

	udp     *transport.UDPSocket
	stream  *transport.StreamListener
	limiter *transport.AcceptLimiter
	resolve transport.Resolver

	bus   event.Sink
	clock func() time.Time

	lastPing        time.Time
	sentAt1, sentAt2 time.Time

	work chan func()
	done chan struct{}
	once sync.Once

	snapshot atomic.Value // holds Snapshot
}

// New binds the peer's sockets and returns a ready-to-run Engine. self,
// s1, s2 must each be in [0,255] and self must differ from s1 and s2 —
// these are validated earlier at the CLI boundary. The constructor
// re-checks only self's range (returning ErrInvalidIdentifier); s1, s2
// and their distinctness from self are not re-checked here.
func New(cfg config.Config, self, s1, s2 int, resolve transport.Resolver, bus event.Sink) (*Engine, error) {
	if self < 0 || self > 255 {
		return nil, ErrInvalidIdentifier
	}

	bindHost := cfg.Network.BindHost
	addr := fmt.Sprintf("%s:%d", bindHost, transport.BasePort+self)

	udp, err := transport.ListenUDP(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBindFailed, err)
	}
	stream, err := transport.ListenStream(addr)
	if err != nil {
		udp.Close()
		return nil, fmt.Errorf("%w: %v", ErrBindFailed, err)
	}

	e := &Engine{
		state:   newState(self, s1, s2),
		cfg:     cfg,
		udp:     udp,
		stream:  stream,
		limiter: transport.NewAcceptLimiter(50, 20),
		resolve: resolve,
		bus:     bus,
		clock:   time.Now,
		work:    make(chan func(), 64),
		done:    make(chan struct{}),
	}
	e.publishSnapshot()
	return e, nil
}

// Snapshot returns a point-in-time, concurrency-safe copy of the peer's
// state, suitable for a read-only consumer like the status HTTP API.
func (e *Engine) Snapshot() Snapshot {
	v, _ := e.snapshot.Load().(Snapshot)
	return v
}

func (e *Engine) publishSnapshot() {
	e.snapshot.Store(e.state.toSnapshot())
}

// Submit hands a raw command line to the engine to be parsed and applied
// on the owner goroutine. Safe to call from any goroutine.
func (e *Engine) Submit(line string) {
	e.enqueue(func() { e.onCommand(line) })
}

// Done returns a channel that closes once a graceful quit's grace period
// has elapsed and the process may exit.
func (e *Engine) Done() <-chan struct{} { return e.done }

// scheduleShutdown closes done after the configured quit grace period,
// without blocking the caller (the owner goroutine that's dispatching
// this call must remain free to process any in-flight work items).
func (e *Engine) scheduleShutdown() {
	time.AfterFunc(e.cfg.Churn.QuitGrace, func() {
		e.once.Do(func() { close(e.done) })
	})
}

func (e *Engine) enqueue(fn func()) {
	select {
	case e.work <- fn:
	case <-e.done:
	}
}

// Run starts the datagram and stream activities and then dispatches
// work items until ctx is cancelled or a graceful quit completes.
func (e *Engine) Run(ctx context.Context) error {
	e.emitJoinAnnouncement()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); e.pingActivity(ctx) }()
	go func() { defer wg.Done(); e.streamActivity(ctx) }()

	defer func() {
		e.udp.Close()
		e.stream.Close()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.done:
			return nil
		case fn := <-e.work:
			fn()
			e.publishSnapshot()
		}
	}
}

// pingActivity is the datagram-receiver-plus-ticker activity described in
// the spec's concurrency model: it blocks on a ~1s-bounded receive, and
// whether or not a datagram arrived, it enqueues a tick so the owner
// goroutine can check the 5s ping burst timer and missed-ack thresholds
// at least once per iteration.
func (e *Engine) pingActivity(ctx context.Context) {
	buf := make([]byte, 16)
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		default:
		}

		n, addr, err := e.udp.ReceiveTimeout(buf, e.cfg.Network.DatagramTimeout)
		if err == nil {
			payload := append([]byte(nil), buf[:n]...)
			from := addr
			e.enqueue(func() { e.onDatagram(payload, from) })
		} else if isClosedErr(err) {
			return
		}

		e.enqueue(func() { e.onTick() })
	}
}

// streamActivity accepts inbound stream connections and, for each one,
// spawns a short-lived goroutine that decodes frames and hands each
// decoded message to the owner goroutine. Decoding happens off the
// owner goroutine (it can block on the network); applying the decoded
// message's effects never does.
func (e *Engine) streamActivity(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		default:
		}

		conn, err := e.stream.AcceptTimeout(e.cfg.Network.StreamAcceptTimeout)
		if err != nil {
			if isClosedErr(err) {
				return
			}
			continue
		}
		if !e.limiter.Allow(conn.RemoteAddr()) {
			conn.Close()
			continue
		}
		go e.drainConn(conn)
	}
}

func (e *Engine) drainConn(conn net.Conn) {
	defer conn.Close()
	for {
		msg, err := wire.DecodeStreamMessage(conn)
		if err != nil {
			return
		}
		m := msg
		e.enqueue(func() { e.onStreamMessage(m) })
	}
}

// isClosedErr reports whether err should stop the calling loop entirely,
// as opposed to a plain read/accept timeout, which callers treat as
// "nothing this iteration" and keep looping on.
func isClosedErr(err error) bool {
	if err == nil {
		return false
	}
	ne, ok := err.(net.Error)
	return !(ok && ne.Timeout())
}

func (e *Engine) emitJoinAnnouncement() {
	e.bus.Emit(event.NewStatus(fmt.Sprintf("attempting to join the CDHT network as peer %d", e.state.Self)))
	e.bus.Emit(event.NewStatus("successfully joined the CDHT network"))
}

func (e *Engine) onCommand(line string) {
	cmd, err := command.Parse(line)
	if err != nil {
		e.bus.Emit(event.NewWarning(err.Error()))
		return
	}
	switch cmd.Kind {
	case command.Quit:
		e.onQuit()
	case command.Request:
		e.onUserRequest(cmd.FileID)
	case command.PingToggle:
		e.state.ShowPings = cmd.Show
	}
}
