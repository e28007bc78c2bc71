package bolt

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/orneryd/boltclient/pkg/boltlog"
	"github.com/orneryd/boltclient/pkg/packstream"
	"github.com/orneryd/boltclient/pkg/telemetry"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// ConnState is one node of the connection lifecycle state machine
// (spec §3 "Connection lifecycle").
type ConnState int

const (
	StateConnected ConnState = iota
	StateNegotiated
	StateAuthenticating
	StateReady
	StateStreaming
	StateTxReady
	StateTxStreaming
	StateFailed
	StateInterrupted
	StateDefunct
)

func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "CONNECTED"
	case StateNegotiated:
		return "NEGOTIATED"
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StateReady:
		return "READY"
	case StateStreaming:
		return "STREAMING"
	case StateTxReady:
		return "TX_READY"
	case StateTxStreaming:
		return "TX_STREAMING"
	case StateFailed:
		return "FAILED"
	case StateInterrupted:
		return "INTERRUPTED"
	case StateDefunct:
		return "DEFUNCT"
	default:
		return "UNKNOWN"
	}
}

// ConnConfig configures a single Connection. Named to avoid colliding
// with any higher-level client Config (pool sizing, routing, etc.)
// that wraps several of these.
type ConnConfig struct {
	Address   string
	UserAgent string
	Auth      map[string]any

	DialTimeout time.Duration
	// RecvTimeout bounds every single message read; the server may
	// lower it via the connection.recv_timeout_seconds hint.
	RecvTimeout time.Duration
	// PingTimeout bounds the RESET round trip Ping performs, kept
	// shorter than RecvTimeout so an idle-closed socket is detected
	// quickly.
	PingTimeout time.Duration
	Proposal    [4]slot

	RoutingContext                       map[string]string
	BoltAgent                            map[string]string
	NotificationsMinSeverity             string
	NotificationsDisabledClassifications []string

	// TLS, when non-nil, wraps the dialed socket in a TLS client
	// session before the Bolt handshake. Nil means plain TCP.
	TLS *tls.Config

	// Tracer, when non-nil, spans every RUN and PULL/DISCARD exchange
	// on this connection. Nil means no tracing.
	Tracer trace.Tracer

	// StrictHints makes an unrecognized server hint key fail the
	// connection instead of being ignored. Off by default: new hint
	// keys must never break an already-deployed client.
	StrictHints bool

	// Logger receives this connection's lifecycle/protocol log lines.
	// Defaults to boltlog.Discard (no output) when nil.
	Logger boltlog.Logger
}

// DefaultConnConfig returns sane defaults: the default version
// proposal, 15s dial and receive timeouts, a 5s ping timeout, and
// this module's own user agent.
func DefaultConnConfig(address string) ConnConfig {
	return ConnConfig{
		Address:     address,
		UserAgent:   "boltclient/0.1",
		DialTimeout: 15 * time.Second,
		RecvTimeout: 15 * time.Second,
		PingTimeout: 5 * time.Second,
		Proposal:    DefaultProposal(),
	}
}

// Connection is one live, version-negotiated Bolt socket plus its
// state machine. It is not safe for concurrent use by multiple
// goroutines; callers requiring concurrency use a Pool (pool.go) to
// hand out one Connection per in-flight caller.
//
// Grounded in the reference driver's bolt5/bolt3 connection types:
// one struct owning the socket, the negotiated version, current
// state, and the last server error, with every request method
// gated by Legal() before it touches the wire.
type Connection struct {
	id      string
	conn    net.Conn
	version Version
	enc     *Encoder
	dec     *packstream.Unchunker

	recvTimeout time.Duration
	pingTimeout time.Duration
	hints       map[string]any
	tracer      trace.Tracer

	mu          sync.Mutex
	state       ConnState
	lastFailure *Failure
	txDepth     int

	telemetryLimiter *rate.Limiter
	telemetrySent    bool

	log boltlog.Logger
}

// Connect dials cfg.Address, performs the handshake, and authenticates,
// leaving the Connection in StateReady on success.
func Connect(ctx context.Context, cfg ConnConfig) (*Connection, error) {
	dialer := net.Dialer{Timeout: cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Address)
	if err != nil {
		return nil, wrapErr(ErrKindConnection, err, "dialing %s", cfg.Address)
	}
	if cfg.TLS != nil {
		tconn := tls.Client(conn, cfg.TLS)
		if err := tconn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, wrapErr(ErrKindConnection, err, "TLS handshake with %s", cfg.Address)
		}
		conn = tconn
	}
	logger := cfg.Logger
	if logger == nil {
		logger = boltlog.Discard
	}
	id := uuid.NewString()
	c := &Connection{
		id:          id,
		conn:        conn,
		state:       StateConnected,
		dec:         packstream.NewUnchunker(conn),
		recvTimeout: cfg.RecvTimeout,
		pingTimeout: cfg.PingTimeout,
		tracer:      cfg.Tracer,
		log:         boltlog.Tagged(logger, id),
	}
	if err := c.handshake(cfg.Proposal); err != nil {
		conn.Close()
		return nil, err
	}
	c.enc = NewEncoder(c.version)
	if err := c.authenticate(cfg); err != nil {
		conn.Close()
		c.setState(StateDefunct)
		return nil, err
	}
	c.applyHints()
	c.log.Infof("negotiated Bolt %s, ready (%s)", c.version, cfg.Address)
	return c, nil
}

// hintKeys are the server hints this client understands; anything else
// is ignored (or, under StrictHints, rejected).
var hintKeys = map[string]bool{
	"connection.recv_timeout_seconds": true,
	"telemetry.enabled":               true,
	"ssr.enabled":                     true,
	"hints":                           true,
}

// applyHints acts on the hints the HELLO/INIT SUCCESS carried: the
// server may lower the receive timeout, and TELEMETRY is only armed
// when the server opted in via telemetry.enabled.
func (c *Connection) applyHints() {
	if secs, ok := c.hints["connection.recv_timeout_seconds"].(int64); ok && secs > 0 {
		if hinted := time.Duration(secs) * time.Second; c.recvTimeout <= 0 || hinted < c.recvTimeout {
			c.recvTimeout = hinted
			c.log.Debugf("server lowered recv timeout to %s", c.recvTimeout)
		}
	}
	if enabled, ok := c.hints["telemetry.enabled"].(bool); ok && enabled && profileFor(c.version).telemetry {
		c.telemetryLimiter = newTelemetryThrottle()
	}
}

// ServerHints returns the hints map the server sent on HELLO/INIT
// SUCCESS (connection.recv_timeout_seconds, telemetry.enabled,
// ssr.enabled, plus any nested hints), or nil if none arrived.
func (c *Connection) ServerHints() map[string]any {
	return c.hints
}

func (c *Connection) handshake(proposal [4]slot) error {
	if _, err := c.conn.Write(EncodeHandshake(proposal)); err != nil {
		return wrapErr(ErrKindHandshake, err, "writing handshake")
	}
	if c.recvTimeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.recvTimeout))
		defer c.conn.SetReadDeadline(time.Time{})
	}
	resp := make([]byte, 4)
	if _, err := io.ReadFull(c.conn, resp); err != nil {
		return wrapErr(ErrKindHandshake, err, "reading handshake response")
	}
	v, err := DecodeHandshakeResponse(resp)
	if err != nil {
		return err
	}
	c.version = v
	c.setState(StateNegotiated)
	return nil
}

func (c *Connection) authenticate(cfg ConnConfig) error {
	c.setState(StateAuthenticating)
	c.log.Debugf("authenticating (credential fingerprint %s)", boltlog.Fingerprint(cfg.Auth))
	p := profileFor(c.version)

	var payload []byte
	var err error
	switch {
	case p.initWithAuth:
		payload, err = c.enc.Init(cfg.UserAgent, cfg.Auth)
	case p.helloAuthInline:
		payload, err = c.enc.Hello(HelloOptions{
			UserAgent:                            cfg.UserAgent,
			Auth:                                 cfg.Auth,
			RoutingContext:                       cfg.RoutingContext,
			BoltAgent:                            cfg.BoltAgent,
			NotificationsMinSeverity:             cfg.NotificationsMinSeverity,
			NotificationsDisabledClassifications: cfg.NotificationsDisabledClassifications,
		})
	default: // helloThenLogon
		payload, err = c.enc.Hello(HelloOptions{
			UserAgent:                            cfg.UserAgent,
			RoutingContext:                       cfg.RoutingContext,
			BoltAgent:                            cfg.BoltAgent,
			NotificationsMinSeverity:             cfg.NotificationsMinSeverity,
			NotificationsDisabledClassifications: cfg.NotificationsDisabledClassifications,
		})
	}
	if err != nil {
		return err
	}
	if _, err := c.write(payload); err != nil {
		return err
	}
	resp, err := c.readOne()
	if err != nil {
		return err
	}
	succ, err := c.expectSuccess(resp)
	if err != nil {
		return err
	}
	c.hints = succ.Hints
	if cfg.StrictHints {
		for k := range c.hints {
			if !hintKeys[k] {
				return newErr(ErrKindProtocol, "unrecognized server hint %q", k)
			}
		}
	}

	if p.helloThenLogon {
		if err := c.logonExchange(cfg.Auth); err != nil {
			return err
		}
	}
	c.setState(StateReady)
	return nil
}

func (c *Connection) logonExchange(auth map[string]any) error {
	payload, err := c.enc.Logon(auth)
	if err != nil {
		return err
	}
	if _, err := c.write(payload); err != nil {
		return err
	}
	resp, err := c.readOne()
	if err != nil {
		return err
	}
	_, err = c.expectSuccess(resp)
	return err
}

func (c *Connection) setState(s ConnState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// State reports the connection's current lifecycle state.
func (c *Connection) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Version reports the negotiated Bolt protocol version.
func (c *Connection) Version() Version {
	return c.version
}

func (c *Connection) write(payload []byte) (int, error) {
	n, err := c.conn.Write(payload)
	if err != nil {
		c.setState(StateDefunct)
		return n, wrapErr(ErrKindConnection, err, "writing to %s", c.id)
	}
	return n, nil
}

func (c *Connection) readOne() (any, error) {
	return c.readOneWithin(c.recvTimeout)
}

func (c *Connection) readOneWithin(timeout time.Duration) (any, error) {
	if timeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(timeout))
		defer c.conn.SetReadDeadline(time.Time{})
	}
	payload, err := c.dec.Next()
	if err != nil {
		c.setState(StateDefunct)
		return nil, wrapErr(ErrKindConnection, err, "reading from %s", c.id)
	}
	resp, err := DecodeResponse(payload)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Connection) expectSuccess(resp any) (*Success, error) {
	switch v := resp.(type) {
	case *Failure:
		c.lastFailure = v
		if isFatal(v.Classification) {
			c.setState(StateDefunct)
		} else {
			c.setState(StateFailed)
		}
		return nil, neo4jErrorToProtocolError(v.Code, v.Message)
	case *Success:
		return v, nil
	case *Ignored:
		return nil, ErrServerInFailedState
	default:
		return nil, newErr(ErrKindProtocol, "unexpected response type %T", resp)
	}
}

// LastFailure returns the most recent FAILURE the server sent on this
// connection, or nil if none has occurred.
func (c *Connection) LastFailure() *Failure {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastFailure
}

// Run sends RUN and returns the server's field list (and stream
// metadata) from the matching SUCCESS. Legal from Ready or TxReady;
// transitions to Streaming or TxStreaming.
func (c *Connection) Run(cypher string, params, meta map[string]any) (succ *Success, err error) {
	span := telemetry.RunSpan(c.tracer, c.version.String(), len(cypher))
	defer func() { telemetry.End(span, err) }()

	st := c.State()
	if st != StateReady && st != StateTxReady {
		return nil, newErr(ErrKindProtocol, "RUN not legal in state %s", st)
	}
	if st == StateReady {
		c.maybeSendTelemetry(telemetryAPIAutoCommit)
		st = c.State()
		if st != StateReady {
			return nil, newErr(ErrKindProtocol, "RUN not legal in state %s", st)
		}
	}
	payload, err := c.enc.Run(cypher, params, meta)
	if err != nil {
		return nil, err
	}
	if _, err := c.write(payload); err != nil {
		return nil, err
	}
	resp, err := c.readOne()
	if err != nil {
		return nil, err
	}
	succ, err = c.expectSuccess(resp)
	if err != nil {
		return nil, err
	}
	if st == StateTxReady {
		c.setState(StateTxStreaming)
	} else {
		c.setState(StateStreaming)
	}
	return succ, nil
}

// maybeSendTelemetry emits at most one rate-limited TELEMETRY as its
// own request/response exchange before the query it annotates, so the
// response stream stays paired one-to-one with requests. Failures are
// swallowed after a RESET: TELEMETRY never fails the query riding
// behind it.
func (c *Connection) maybeSendTelemetry(api int) {
	if c.telemetryLimiter == nil || c.telemetrySent || !shouldSendTelemetry(c.telemetryLimiter) {
		return
	}
	c.telemetrySent = true
	payload, err := c.enc.Telemetry(api)
	if err != nil {
		return
	}
	if _, err := c.write(payload); err != nil {
		return
	}
	resp, err := c.readOne()
	if err != nil {
		return
	}
	if _, ok := resp.(*Failure); ok {
		c.setState(StateFailed)
		if err := c.Reset(); err != nil {
			c.log.Warnf("recovering from rejected TELEMETRY: %v", err)
		}
	}
}

// RecordHandler receives each RECORD streamed by Pull.
type RecordHandler func(*Record) error

// Pull streams up to n records (NormalizePullAll's -1 for "all") from
// the query identified by qid (-1 for "current"), invoking handler
// for each RECORD, and returns the terminating SUCCESS/metadata.
// Legal from Streaming or TxStreaming; returns to Ready/TxReady
// (has_more=false) or stays in the streaming state (has_more=true).
func (c *Connection) Pull(n int, qid int64, handler RecordHandler) (succ *Success, err error) {
	span := telemetry.StreamSpan(c.tracer, "pull", c.version.String(), n)
	defer func() { telemetry.End(span, err) }()
	return c.pullOrDiscard(c.enc.Pull, n, qid, handler)
}

// Discard behaves like Pull but drops records instead of invoking a
// handler for them.
func (c *Connection) Discard(n int, qid int64) (succ *Success, err error) {
	span := telemetry.StreamSpan(c.tracer, "discard", c.version.String(), n)
	defer func() { telemetry.End(span, err) }()
	return c.pullOrDiscard(c.enc.Discard, n, qid, nil)
}

func (c *Connection) pullOrDiscard(encode func(int, int64) ([]byte, error), n int, qid int64, handler RecordHandler) (*Success, error) {
	st := c.State()
	if st != StateStreaming && st != StateTxStreaming {
		return nil, newErr(ErrKindProtocol, "PULL/DISCARD not legal in state %s", st)
	}
	payload, err := encode(n, qid)
	if err != nil {
		return nil, err
	}
	if _, err := c.write(payload); err != nil {
		return nil, err
	}
	for {
		resp, err := c.readOne()
		if err != nil {
			return nil, err
		}
		switch v := resp.(type) {
		case *Record:
			if handler != nil {
				if err := handler(v); err != nil {
					return nil, err
				}
			}
			continue
		case *Success:
			if !v.HasMore {
				if st == StateTxStreaming {
					c.setState(StateTxReady)
				} else {
					c.setState(StateReady)
				}
			}
			return v, nil
		case *Failure:
			c.lastFailure = v
			if isFatal(v.Classification) {
				c.setState(StateDefunct)
			} else {
				c.setState(StateFailed)
			}
			return nil, neo4jErrorToProtocolError(v.Code, v.Message)
		default:
			return nil, newErr(ErrKindProtocol, "unexpected response type %T while streaming", resp)
		}
	}
}

// Begin opens an explicit transaction. Legal from Ready, where it
// sends the real wire BEGIN; called again while already in a
// transaction (TxReady or TxStreaming — Neo4j has no savepoints) it
// instead increments txDepth and returns immediately, so nested
// begin/begin/begin calls from user code nested inside a Sandbox
// lease never double up BEGIN on the wire.
func (c *Connection) Begin(meta map[string]any) error {
	st := c.State()
	if st == StateTxReady || st == StateTxStreaming {
		c.mu.Lock()
		c.txDepth++
		c.mu.Unlock()
		return nil
	}
	if st != StateReady {
		return newErr(ErrKindProtocol, "BEGIN not legal in state %s", st)
	}
	c.maybeSendTelemetry(telemetryAPIUnmanagedTx)
	if st = c.State(); st != StateReady {
		return newErr(ErrKindProtocol, "BEGIN not legal in state %s", st)
	}
	payload, err := c.enc.Begin(meta)
	if err != nil {
		return err
	}
	if _, err := c.write(payload); err != nil {
		return err
	}
	resp, err := c.readOne()
	if err != nil {
		return err
	}
	if _, err := c.expectSuccess(resp); err != nil {
		return err
	}
	c.mu.Lock()
	c.txDepth = 1
	c.mu.Unlock()
	c.setState(StateTxReady)
	return nil
}

// TxDepth reports the connection's current reentrant-BEGIN depth (0
// when not inside a transaction).
func (c *Connection) TxDepth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.txDepth
}

// Commit closes the current transaction successfully. Legal only from
// TxReady. When txDepth is greater than 1 (a nested Begin is still
// outstanding), this decrements depth and returns without any wire
// traffic; only the outermost Commit (depth 1→0) actually sends
// COMMIT.
func (c *Connection) Commit() (*Success, error) {
	if c.State() != StateTxReady {
		return nil, newErr(ErrKindProtocol, "COMMIT not legal in state %s", c.State())
	}
	c.mu.Lock()
	if c.txDepth > 1 {
		c.txDepth--
		c.mu.Unlock()
		return &Success{Raw: map[string]any{}}, nil
	}
	c.mu.Unlock()
	payload, err := c.enc.Commit()
	if err != nil {
		return nil, err
	}
	if _, err := c.write(payload); err != nil {
		return nil, err
	}
	resp, err := c.readOne()
	if err != nil {
		return nil, err
	}
	succ, err := c.expectSuccess(resp)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.txDepth = 0
	c.mu.Unlock()
	c.telemetrySent = false
	c.setState(StateReady)
	return succ, nil
}

// Rollback aborts the current transaction. Legal from TxReady or
// TxStreaming (an aborted stream rolls back too). Like Commit, a
// txDepth greater than 1 only decrements the counter; only the
// outermost Rollback (depth 1→0) sends ROLLBACK on the wire.
func (c *Connection) Rollback() error {
	st := c.State()
	if st != StateTxReady && st != StateTxStreaming {
		return newErr(ErrKindProtocol, "ROLLBACK not legal in state %s", st)
	}
	c.mu.Lock()
	if c.txDepth > 1 {
		c.txDepth--
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	payload, err := c.enc.Rollback()
	if err != nil {
		return err
	}
	if _, err := c.write(payload); err != nil {
		return err
	}
	resp, err := c.readOne()
	if err != nil {
		return err
	}
	if _, err := c.expectSuccess(resp); err != nil {
		return err
	}
	c.mu.Lock()
	c.txDepth = 0
	c.mu.Unlock()
	c.telemetrySent = false
	c.setState(StateReady)
	return nil
}

// Reset forcibly returns the connection to Ready from any state short
// of Defunct, discarding any in-flight query or transaction. Used by
// Pool.Checkin before returning a connection to its free list (which
// includes a Sandbox lease's connection after its rollback) and to
// recover from a rejected TELEMETRY.
func (c *Connection) Reset() error {
	return c.resetWithin(c.recvTimeout)
}

func (c *Connection) resetWithin(timeout time.Duration) error {
	if c.State() == StateDefunct {
		return ErrConnectionClosed
	}
	payload, err := c.enc.Reset()
	if err != nil {
		return err
	}
	if _, err := c.write(payload); err != nil {
		return err
	}
	// Drain queued server responses for any interrupted request; they
	// arrive as RECORD/IGNORED ahead of RESET's own SUCCESS.
	for {
		resp, err := c.readOneWithin(timeout)
		if err != nil {
			return err
		}
		switch resp.(type) {
		case *Record, *Ignored:
			continue
		case *Success:
			c.mu.Lock()
			c.txDepth = 0
			c.mu.Unlock()
			c.telemetrySent = false
			c.setState(StateReady)
			return nil
		case *Failure:
			c.setState(StateDefunct)
			return newErr(ErrKindConnection, "RESET rejected by server")
		default:
			c.setState(StateDefunct)
			return newErr(ErrKindProtocol, "unexpected response type %T to RESET", resp)
		}
	}
}

// AckFailure clears the server's Failed state. On v1-v3 it sends the
// legacy ACK_FAILURE; on v4+ it is normalized to RESET per the version
// adapter rules.
func (c *Connection) AckFailure() error {
	if NormalizeAckFailure(c.version) {
		return c.Reset()
	}
	payload, err := c.enc.AckFailure()
	if err != nil {
		return err
	}
	if _, err := c.write(payload); err != nil {
		return err
	}
	resp, err := c.readOne()
	if err != nil {
		return err
	}
	if _, err := c.expectSuccess(resp); err != nil {
		return err
	}
	c.setState(StateReady)
	return nil
}

// Route asks the server for a routing table (v4.3+). The extras map
// carries db when it is non-empty; imp_user is never sent. Caching the
// result is deliberately left to the caller.
func (c *Connection) Route(routingContext map[string]string, bookmarks []string, db string) (*RoutingTable, error) {
	if st := c.State(); st != StateReady {
		return nil, newErr(ErrKindProtocol, "ROUTE not legal in state %s", st)
	}
	extras := map[string]any{}
	if db != "" {
		extras["db"] = db
	}
	payload, err := c.enc.Route(routingContext, bookmarks, extras)
	if err != nil {
		return nil, err
	}
	if _, err := c.write(payload); err != nil {
		return nil, err
	}
	resp, err := c.readOne()
	if err != nil {
		return nil, err
	}
	succ, err := c.expectSuccess(resp)
	if err != nil {
		return nil, err
	}
	if succ.RoutingTable == nil {
		return nil, newErr(ErrKindProtocol, "ROUTE SUCCESS carried no routing table")
	}
	return succ.RoutingTable, nil
}

// Logoff drops the connection's authentication (v5.1+), leaving it in
// the authentication state where only LOGON (or RESET/GOODBYE) is
// accepted.
func (c *Connection) Logoff() error {
	if st := c.State(); st != StateReady {
		return newErr(ErrKindProtocol, "LOGOFF not legal in state %s", st)
	}
	payload, err := c.enc.Logoff()
	if err != nil {
		return err
	}
	if _, err := c.write(payload); err != nil {
		return err
	}
	resp, err := c.readOne()
	if err != nil {
		return err
	}
	if _, err := c.expectSuccess(resp); err != nil {
		return err
	}
	c.setState(StateAuthenticating)
	return nil
}

// Logon re-authenticates a connection after Logoff (v5.1+).
func (c *Connection) Logon(auth map[string]any) error {
	if st := c.State(); st != StateAuthenticating {
		return newErr(ErrKindProtocol, "LOGON not legal in state %s", st)
	}
	if err := c.logonExchange(auth); err != nil {
		return err
	}
	c.setState(StateReady)
	return nil
}

// Goodbye tells the server this connection is going away and closes
// the socket. No response is expected: GOODBYE is fire-and-forget.
func (c *Connection) Goodbye() error {
	payload, err := c.enc.Goodbye()
	if err != nil {
		return err
	}
	if _, err := c.write(payload); err != nil {
		c.conn.Close()
		c.setState(StateDefunct)
		return nil
	}
	c.conn.Close()
	c.setState(StateDefunct)
	return nil
}

// Ping sends RESET as a liveness probe under the shorter ping timeout,
// the mechanism the Pool's idle-interval health check uses to detect
// an idle-closed socket quickly.
func (c *Connection) Ping() error {
	return c.resetWithin(c.pingTimeout)
}

// Interrupt marks the connection Interrupted, the state the protocol
// machine occupies between a driver-initiated cancellation and the
// RESET that clears it. Queued server messages are drained by the
// next Reset call before the connection returns to Ready.
func (c *Connection) Interrupt() {
	c.setState(StateInterrupted)
}

// Close releases the underlying socket without sending GOODBYE; used
// when the connection is already known Defunct.
func (c *Connection) Close() error {
	c.setState(StateDefunct)
	return c.conn.Close()
}

// ID returns this connection's client-generated identifier (distinct
// from the server's own connection_id reported in HELLO's SUCCESS).
func (c *Connection) ID() string {
	return c.id
}
