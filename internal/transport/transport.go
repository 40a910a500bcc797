// Package transport owns the peer's two long-lived sockets — a UDP
// socket for the ping protocol and a TCP listener for the reliable
// control/file-transfer channel — plus the one-shot senders each
// protocol uses. Per the resource policy, there is no connection
// pooling: every outbound ping and every outbound stream message opens
// a fresh socket and closes it once sent.
package transport

import (
	"fmt"
	"net"
	"time"
)

// BasePort is the offset added to a peer id to get its listening port.
const BasePort = 50000

// Addr returns the loopback address of peer id under the default
// addressing rule (127.0.0.1:50000+id). Implementers who need a host
// table instead of loopback can substitute a different Resolver.
func Addr(id int) string {
	return fmt.Sprintf("127.0.0.1:%d", BasePort+id)
}

// Resolver maps a peer id to a dialable address. The zero value uses
// Addr (loopback, default port rule).
type Resolver func(id int) string

func defaultResolver(id int) string { return Addr(id) }

// UDPSocket is the peer's single, process-lifetime datagram socket. It
// both receives ping requests/responses and is read by ReceiveTimeout
// with a bounded deadline so the owning loop can periodically check
// whether it's time to fire the next ping burst.
type UDPSocket struct {
	conn *net.UDPConn
}

// ListenUDP binds the datagram socket to bindAddr (e.g. "127.0.0.1:50003").
func ListenUDP(bindAddr string) (*UDPSocket, error) {
	addr, err := net.ResolveUDPAddr("udp4", bindAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve udp bind addr: %w", err)
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("listen udp: %w", err)
	}
	return &UDPSocket{conn: conn}, nil
}

// ReceiveTimeout blocks for at most timeout waiting for one datagram.
// A timed-out read returns a net.Error with Timeout() == true.
func (u *UDPSocket) ReceiveTimeout(buf []byte, timeout time.Duration) (int, *net.UDPAddr, error) {
	if err := u.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, nil, err
	}
	return u.conn.ReadFromUDP(buf)
}

// LocalAddr returns the bound local address.
func (u *UDPSocket) LocalAddr() net.Addr { return u.conn.LocalAddr() }

// Close releases the datagram socket.
func (u *UDPSocket) Close() error { return u.conn.Close() }

// SendPingTo opens a fresh datagram sender socket, writes payload to the
// peer at id, and closes it. Failures are swallowed — the liveness
// detector will notice the missing ack on its own; there is nothing to
// retry at this layer.
func SendPingTo(id int, payload []byte, resolve Resolver) {
	if resolve == nil {
		resolve = defaultResolver
	}
	addr, err := net.ResolveUDPAddr("udp4", resolve(id))
	if err != nil {
		return
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return
	}
	defer conn.Close()
	_, _ = conn.Write(payload)
}

// StreamListener is the peer's single, process-lifetime TCP listener for
// the file-transfer and churn control channel.
type StreamListener struct {
	ln *net.TCPListener
}

// ListenStream binds the stream listener to bindAddr.
func ListenStream(bindAddr string) (*StreamListener, error) {
	addr, err := net.ResolveTCPAddr("tcp4", bindAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve stream bind addr: %w", err)
	}
	ln, err := net.ListenTCP("tcp4", addr)
	if err != nil {
		return nil, fmt.Errorf("listen tcp: %w", err)
	}
	return &StreamListener{ln: ln}, nil
}

// AcceptTimeout blocks for at most timeout waiting for one inbound
// connection. A timed-out accept returns a net.Error with Timeout() == true,
// which callers should treat as "no connection this iteration".
func (s *StreamListener) AcceptTimeout(timeout time.Duration) (net.Conn, error) {
	if err := s.ln.SetDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	return s.ln.Accept()
}

// Close releases the stream listener.
func (s *StreamListener) Close() error { return s.ln.Close() }

// DialSend opens a fresh connection to peer id, writes each payload in
// order, and closes the connection. Connect and send failures are
// swallowed — per the spec, a failed stream send is silently dropped and
// the liveness detector is the backstop that will eventually notice.
func DialSend(id int, resolve Resolver, payloads ...[]byte) {
	if resolve == nil {
		resolve = defaultResolver
	}
	conn, err := net.DialTimeout("tcp4", resolve(id), 2*time.Second)
	if err != nil {
		return
	}
	defer conn.Close()
	for _, p := range payloads {
		if _, err := conn.Write(p); err != nil {
			return
		}
	}
}
