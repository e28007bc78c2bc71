package bolt

import (
	"github.com/orneryd/boltclient/pkg/packstream"
)

// Encoder builds framed, version-correct Bolt messages. One Encoder is
// created per connection and reused for every outbound message; frame
// clears its packer and chunker before each message. Grounded in the reference driver's
// `outgoing` type (one packer + one chunker per connection), adapted
// to this module's version-table-driven legality checks instead of
// per-Bolt-version encoder structs.
type Encoder struct {
	version Version
	packer  packstream.Packer
	chunker packstream.Chunker
}

// NewEncoder returns an Encoder targeting the given negotiated
// version.
func NewEncoder(v Version) *Encoder {
	return &Encoder{version: v}
}

func (e *Encoder) frame(sig byte, fieldCount int, build func(p *packstream.Packer)) ([]byte, error) {
	e.packer.Reset()
	e.packer.StructHeader(sig, fieldCount)
	build(&e.packer)
	if err := e.packer.Err(); err != nil {
		return nil, wrapErr(ErrKindInvalidInput, err, "encoding failed")
	}
	e.chunker.Reset()
	e.chunker.Frame(e.packer.Bytes())
	out := make([]byte, len(e.chunker.Bytes()))
	copy(out, e.chunker.Bytes())
	return out, nil
}

func (e *Encoder) illegal(kind Kind) error {
	return newErr(ErrKindInvalidInput, "%s is not legal on Bolt %s", kind, e.version)
}

// Init encodes the v1/v2 INIT message: client_name + auth.
func (e *Encoder) Init(userAgent string, auth map[string]any) ([]byte, error) {
	if !Legal(e.version, KindInit) {
		return nil, e.illegal(KindInit)
	}
	return e.frame(sigInitOrHello, 2, func(p *packstream.Packer) {
		p.String(userAgent)
		p.Map(auth)
	})
}

// HelloOptions carries every optional HELLO field gated by version.
type HelloOptions struct {
	UserAgent                            string
	Auth                                 map[string]any // omit entirely for v5.1+ (sent via Logon instead)
	RoutingContext                       map[string]string
	BoltAgent                            map[string]string // product/platform/language, v5.0+
	NotificationsMinSeverity             string            // v5.2+
	NotificationsDisabledClassifications []string          // v5.6+
}

// Hello encodes HELLO, merging auth inline for v3-v5.0 or omitting it
// entirely for v5.1+ (the caller follows up with Logon).
func (e *Encoder) Hello(opts HelloOptions) ([]byte, error) {
	if !Legal(e.version, KindHello) {
		return nil, e.illegal(KindHello)
	}
	p := profileFor(e.version)

	hello := map[string]any{"user_agent": opts.UserAgent}
	if opts.RoutingContext != nil {
		rc := make(map[string]any, len(opts.RoutingContext))
		for k, v := range opts.RoutingContext {
			rc[k] = v
		}
		hello["routing"] = rc
	}
	if p.boltAgent && opts.BoltAgent != nil {
		ba := make(map[string]any, len(opts.BoltAgent))
		for k, v := range opts.BoltAgent {
			ba[k] = v
		}
		hello["bolt_agent"] = ba
	}
	if p.notificationsMinSev && opts.NotificationsMinSeverity != "" {
		hello["notifications_minimum_severity"] = opts.NotificationsMinSeverity
	}
	if p.notificationsDisabled && len(opts.NotificationsDisabledClassifications) > 0 {
		hello["notifications_disabled_classifications"] = opts.NotificationsDisabledClassifications
	}
	if p.helloAuthInline {
		for k, v := range opts.Auth {
			if _, exists := hello[k]; !exists {
				hello[k] = v
			}
		}
	}
	return e.frame(sigInitOrHello, 1, func(pk *packstream.Packer) {
		pk.Map(hello)
	})
}

// Logon encodes LOGON (v5.1+): auth sent separately from HELLO.
func (e *Encoder) Logon(auth map[string]any) ([]byte, error) {
	if !Legal(e.version, KindLogon) {
		return nil, e.illegal(KindLogon)
	}
	return e.frame(sigLogon, 1, func(p *packstream.Packer) {
		p.Map(auth)
	})
}

// Logoff encodes LOGOFF (v5.1+).
func (e *Encoder) Logoff() ([]byte, error) {
	if !Legal(e.version, KindLogoff) {
		return nil, e.illegal(KindLogoff)
	}
	return e.frame(sigLogoff, 0, func(*packstream.Packer) {})
}

// Run encodes RUN: statement text (opaque), params, and — from v3
// onward — tx/run metadata (db, mode, bookmarks, tx_timeout,
// tx_metadata, imp_user). v1/v2 RUN carries only statement and params.
func (e *Encoder) Run(cypher string, params, meta map[string]any) ([]byte, error) {
	if !profileFor(e.version).transactions {
		return e.frame(sigRun, 2, func(p *packstream.Packer) {
			p.String(cypher)
			p.Map(params)
		})
	}
	return e.frame(sigRun, 3, func(p *packstream.Packer) {
		p.String(cypher)
		p.Map(params)
		p.Map(meta)
	})
}

func validateN(n int) error {
	if n != -1 && n < 1 {
		return newErr(ErrKindInvalidInput, "n must be -1 or a positive integer, got %d", n)
	}
	return nil
}

func validateQid(qid int64) error {
	if qid != -1 && qid < 0 {
		return newErr(ErrKindInvalidInput, "qid must be -1 or non-negative, got %d", qid)
	}
	return nil
}

// Pull encodes PULL/PULL_ALL, shaping the payload per version: no
// arguments pre-4.0, {n[, qid]} from 4.0 onward. qid of -1 means
// "current query" and is omitted from the map.
func (e *Encoder) Pull(n int, qid int64) ([]byte, error) {
	return e.pullOrDiscard(sigPull, n, qid)
}

// Discard encodes DISCARD/DISCARD_ALL; same shaping rules as Pull.
func (e *Encoder) Discard(n int, qid int64) ([]byte, error) {
	return e.pullOrDiscard(sigDiscard, n, qid)
}

func (e *Encoder) pullOrDiscard(sig byte, n int, qid int64) ([]byte, error) {
	if err := validateN(n); err != nil {
		return nil, err
	}
	if err := validateQid(qid); err != nil {
		return nil, err
	}
	p := profileFor(e.version)
	if p.pullWithArgs {
		extras := map[string]any{"n": int64(n)}
		if qid != -1 {
			extras["qid"] = qid
		}
		return e.frame(sig, 1, func(pk *packstream.Packer) {
			pk.Map(extras)
		})
	}
	// Pre-4.0: no arguments at all, PULL_ALL/DISCARD_ALL semantics only.
	return e.frame(sig, 0, func(*packstream.Packer) {})
}

// Begin encodes BEGIN with transaction metadata.
func (e *Encoder) Begin(meta map[string]any) ([]byte, error) {
	if !Legal(e.version, KindBegin) {
		return nil, e.illegal(KindBegin)
	}
	return e.frame(sigBegin, 1, func(p *packstream.Packer) {
		p.Map(meta)
	})
}

// Commit encodes COMMIT.
func (e *Encoder) Commit() ([]byte, error) {
	if !Legal(e.version, KindCommit) {
		return nil, e.illegal(KindCommit)
	}
	return e.frame(sigCommit, 0, func(*packstream.Packer) {})
}

// Rollback encodes ROLLBACK.
func (e *Encoder) Rollback() ([]byte, error) {
	if !Legal(e.version, KindRollback) {
		return nil, e.illegal(KindRollback)
	}
	return e.frame(sigRollback, 0, func(*packstream.Packer) {})
}

// Reset encodes RESET. Always legal.
func (e *Encoder) Reset() ([]byte, error) {
	return e.frame(sigReset, 0, func(*packstream.Packer) {})
}

// AckFailure encodes ACK_FAILURE (v1-v3 only). On v4+ NormalizeAckFailure
// reports true and the caller sends Reset instead (as
// Connection.AckFailure does); this method exists for completeness and
// for tests of legacy connections.
func (e *Encoder) AckFailure() ([]byte, error) {
	if !Legal(e.version, KindAckFailure) {
		return nil, e.illegal(KindAckFailure)
	}
	return e.frame(sigAckFailure, 0, func(*packstream.Packer) {})
}

// Goodbye encodes GOODBYE.
func (e *Encoder) Goodbye() ([]byte, error) {
	return e.frame(sigGoodbye, 0, func(*packstream.Packer) {})
}

// Route encodes ROUTE (v4.3+).
func (e *Encoder) Route(routingContext map[string]string, bookmarks []string, extras map[string]any) ([]byte, error) {
	if !Legal(e.version, KindRoute) {
		return nil, e.illegal(KindRoute)
	}
	return e.frame(sigRoute, 3, func(p *packstream.Packer) {
		ctx := make(map[string]any, len(routingContext))
		for k, v := range routingContext {
			ctx[k] = v
		}
		p.Map(ctx)
		p.StringList(bookmarks)
		p.Map(extras)
	})
}

// Telemetry encodes TELEMETRY (v5.4+). api identifies the driver API
// surface that triggered it: 0=unmanaged tx, 1=managed tx, 2=auto-commit,
// 3=managed tx with retries.
func (e *Encoder) Telemetry(api int) ([]byte, error) {
	if !Legal(e.version, KindTelemetry) {
		return nil, e.illegal(KindTelemetry)
	}
	return e.frame(sigTelemetry, 1, func(p *packstream.Packer) {
		p.Map(map[string]any{"api": int64(api)})
	})
}

// NormalizeAckFailure returns whether the caller should send RESET
// (true) instead of ACK_FAILURE (false) at this version — the v4+
// adapter named in spec §4.2 and the design notes' "normalization...
// applied at the call boundary, not in the encoder".
func NormalizeAckFailure(v Version) bool {
	return !profileFor(v).ackFailure
}

// NormalizePullAll returns the (n, qid) arguments to use for a caller
// that conceptually wants "pull everything" (PULL_ALL semantics) at
// any version: n=-1 regardless of version, qid=-1 (current query).
func NormalizePullAll() (n int, qid int64) {
	return -1, -1
}

// NormalizeDiscardAll mirrors NormalizePullAll for DISCARD_ALL.
func NormalizeDiscardAll() (n int, qid int64) {
	return -1, -1
}
