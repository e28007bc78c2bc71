// Package fixture provides an in-process Bolt server used by this
// module's own tests and by soak-testing the Sandbox against a real
// socket instead of a mock. It is adapted from the teacher's
// pkg/bolt/server.go: the same accept-loop/session shape, but
// speaking this module's actual PackStream codec instead of the
// teacher's stubbed-out placeholders, and answering from a scripted
// QueryExecutor rather than a real query engine.
package fixture

import (
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"sync/atomic"

	"github.com/orneryd/boltclient/pkg/bolt"
	"github.com/orneryd/boltclient/pkg/packstream"
)

// Wire signatures the fixture needs to recognize on requests and emit
// on responses. Kept private to this package; pkg/bolt's own
// signature constants are unexported, so the fixture (being the
// server side of the same wire format) restates the ones it needs.
const (
	msgHello      byte = 0x01
	msgGoodbye    byte = 0x02
	msgAckFailure byte = 0x0E
	msgReset      byte = 0x0F
	msgRun        byte = 0x10
	msgBegin      byte = 0x11
	msgCommit     byte = 0x12
	msgRollback   byte = 0x13
	msgDiscard    byte = 0x2F
	msgPull       byte = 0x3F
	msgTelemetry  byte = 0x54
	msgRoute      byte = 0x66
	msgLogon      byte = 0x6A
	msgLogoff     byte = 0x6B

	msgSuccess byte = 0x70
	msgRecord  byte = 0x71
	msgIgnored byte = 0x7E
	msgFailure byte = 0x7F
)

// Script answers one RUN with a fixed row set, letting tests script a
// connection's conversation without a real graph engine behind it.
type Script struct {
	Fields []string
	Rows   [][]any
	Fail   *ScriptFailure
}

// ScriptFailure makes a RUN return FAILURE instead of SUCCESS.
type ScriptFailure struct {
	Code    string
	Message string
}

// QueryExecutor is the pluggable backing for RUN messages. Tests
// supply a canned implementation; nothing in this module ships a real
// Cypher engine.
type QueryExecutor interface {
	Execute(cypher string, params map[string]any) (*Script, error)
}

// StaticExecutor always answers with the same Script regardless of
// the query text, the simplest QueryExecutor a test can construct.
type StaticExecutor struct {
	Script *Script
}

func (s *StaticExecutor) Execute(string, map[string]any) (*Script, error) {
	return s.Script, nil
}

// Server is a minimal, in-process Bolt server for tests.
type Server struct {
	listener  net.Listener
	executor  QueryExecutor
	versions  []bolt.Version
	closed    atomic.Bool
	wg        sync.WaitGroup
	connIDSeq atomic.Int64
}

// New returns a Server that will answer RUN with whatever executor
// provides, negotiating through bolt.ServerSelect: within the client's
// first proposal slot that covers any entry of versions, the earliest
// such entry wins. versions defaults to just Bolt 5.4 if none are
// given.
func New(executor QueryExecutor, versions ...bolt.Version) *Server {
	if len(versions) == 0 {
		versions = []bolt.Version{bolt.V5_4}
	}
	return &Server{executor: executor, versions: versions}
}

// Listen opens a loopback TCP listener and starts accepting
// connections in the background. Callers read Addr() to connect.
func (s *Server) Listen() error {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("fixture: listen: %w", err)
	}
	s.listener = l
	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr returns the listener's address, e.g. "127.0.0.1:54321".
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Close stops accepting connections and waits for the accept loop to
// exit.
func (s *Server) Close() error {
	s.closed.Store(true)
	err := s.listener.Close()
	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() {
				return
			}
			log.Printf("[fixture] accept error: %v", err)
			return
		}
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()
	sess := &session{
		conn:     conn,
		executor: s.executor,
		connID:   fmt.Sprintf("fixture-%d", s.connIDSeq.Add(1)),
	}
	if err := sess.handshake(s.versions); err != nil {
		log.Printf("[fixture] handshake failed: %v", err)
		return
	}
	for {
		if err := sess.handleOne(); err != nil {
			if err != io.EOF {
				log.Printf("[fixture] session error: %v", err)
			}
			return
		}
	}
}

// session is one accepted connection's conversation state. It tracks
// just enough (transaction flag, failed flag, the pending RUN's rows)
// to answer PULL/DISCARD/COMMIT/ROLLBACK coherently and to return
// IGNORED like a real server while failed.
type session struct {
	conn     net.Conn
	executor QueryExecutor
	connID   string

	inTx    bool
	failed  bool
	pending *Script
}

func (sess *session) handshake(versions []bolt.Version) error {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(sess.conn, magic); err != nil {
		return fmt.Errorf("reading magic: %w", err)
	}
	for i, b := range bolt.Magic {
		if magic[i] != b {
			return fmt.Errorf("bad magic: %x", magic)
		}
	}
	var proposal [4][4]byte
	raw := make([]byte, 16)
	if _, err := io.ReadFull(sess.conn, raw); err != nil {
		return fmt.Errorf("reading proposal: %w", err)
	}
	for i := 0; i < 4; i++ {
		copy(proposal[i][:], raw[i*4:i*4+4])
	}
	selected := bolt.ServerSelect(proposal, versions)
	if _, err := sess.conn.Write(selected[:]); err != nil {
		return fmt.Errorf("writing selection: %w", err)
	}
	return nil
}

func (sess *session) handleOne() error {
	u := packstream.NewUnchunker(sess.conn)
	payload, err := u.Next()
	if err != nil {
		return err
	}
	d := packstream.NewDecoder(payload)
	v, err := d.Unpack()
	if err != nil {
		return fmt.Errorf("fixture: decoding request: %w", err)
	}
	s, ok := v.(*packstream.Struct)
	if !ok {
		return fmt.Errorf("fixture: expected struct, got %T", v)
	}
	if sess.failed && s.Signature != msgReset && s.Signature != msgAckFailure && s.Signature != msgGoodbye {
		return sess.writeIgnored()
	}
	switch s.Signature {
	case msgHello:
		return sess.onHello()
	case msgLogon:
		return sess.writeSuccess(nil)
	case msgLogoff:
		return sess.writeSuccess(nil)
	case msgGoodbye:
		return io.EOF
	case msgRun:
		return sess.onRun(s.Fields)
	case msgPull, msgDiscard:
		return sess.onPull()
	case msgBegin:
		sess.inTx = true
		return sess.writeSuccess(nil)
	case msgCommit:
		sess.inTx = false
		return sess.writeSuccess(map[string]any{})
	case msgRollback:
		sess.inTx = false
		return sess.writeSuccess(nil)
	case msgReset, msgAckFailure:
		sess.inTx = false
		sess.failed = false
		sess.pending = nil
		return sess.writeSuccess(nil)
	case msgTelemetry:
		return sess.writeSuccess(nil)
	case msgRoute:
		return sess.onRoute()
	default:
		return sess.writeFailure("Neo.ClientError.Request.Invalid", fmt.Sprintf("unhandled signature 0x%02x", s.Signature))
	}
}

func (sess *session) onHello() error {
	return sess.writeSuccess(map[string]any{
		"server":        "boltclient-fixture/0.1.0",
		"connection_id": sess.connID,
		"hints": map[string]any{
			"connection.recv_timeout_seconds": int64(30),
			"telemetry.enabled":               true,
		},
	})
}

// onRoute answers with a routing table of three entries (WRITE, READ,
// ROUTE), each pointing back at this fixture, enough for a client to
// exercise its ROUTE round trip.
func (sess *session) onRoute() error {
	addr := sess.conn.LocalAddr().String()
	return sess.writeSuccess(map[string]any{
		"rt": map[string]any{
			"ttl": int64(300),
			"servers": []any{
				map[string]any{"addresses": []any{addr}, "role": "WRITE"},
				map[string]any{"addresses": []any{addr}, "role": "READ"},
				map[string]any{"addresses": []any{addr}, "role": "ROUTE"},
			},
		},
	})
}

func (sess *session) onRun(fields []any) error {
	var cypher string
	if len(fields) > 0 {
		if str, ok := fields[0].(string); ok {
			cypher = str
		}
	}
	var params map[string]any
	if len(fields) > 1 {
		if m, ok := fields[1].(map[string]any); ok {
			params = m
		}
	}
	script, err := sess.executor.Execute(cypher, params)
	if err != nil {
		return sess.writeFailure("Neo.DatabaseError.General.UnknownError", err.Error())
	}
	if script.Fail != nil {
		return sess.writeFailure(script.Fail.Code, script.Fail.Message)
	}
	sess.pending = script
	return sess.writeSuccess(map[string]any{
		"fields":  toAnySlice(script.Fields),
		"t_first": int64(0),
	})
}

func (sess *session) onPull() error {
	if sess.pending == nil {
		return sess.writeSuccess(map[string]any{"has_more": false})
	}
	for _, row := range sess.pending.Rows {
		if err := sess.writeRecord(row); err != nil {
			return err
		}
	}
	sess.pending = nil
	return sess.writeSuccess(map[string]any{"has_more": false})
}

func (sess *session) writeSuccess(meta map[string]any) error {
	var p packstream.Packer
	p.StructHeader(msgSuccess, 1)
	if meta == nil {
		meta = map[string]any{}
	}
	p.Map(meta)
	return sess.writeFrame(&p)
}

func (sess *session) writeFailure(code, message string) error {
	sess.failed = true
	var p packstream.Packer
	p.StructHeader(msgFailure, 1)
	p.Map(map[string]any{"code": code, "message": message})
	return sess.writeFrame(&p)
}

func (sess *session) writeIgnored() error {
	var p packstream.Packer
	p.StructHeader(msgIgnored, 0)
	return sess.writeFrame(&p)
}

func (sess *session) writeRecord(values []any) error {
	var p packstream.Packer
	p.StructHeader(msgRecord, 1)
	p.Any(values)
	return sess.writeFrame(&p)
}

func (sess *session) writeFrame(p *packstream.Packer) error {
	if err := p.Err(); err != nil {
		return fmt.Errorf("fixture: encoding response: %w", err)
	}
	var c packstream.Chunker
	c.Frame(p.Bytes())
	_, err := sess.conn.Write(c.Bytes())
	return err
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
