package bolt

import (
	"time"

	"golang.org/x/time/rate"
)

const telemetryInterval = 10 * time.Second

// TELEMETRY api values: which driver API surface triggered the query.
const (
	telemetryAPIUnmanagedTx      = 0
	telemetryAPIManagedTx        = 1
	telemetryAPIAutoCommit       = 2
	telemetryAPIManagedTxRetries = 3
)

// newTelemetryThrottle bounds how often a Connection will emit
// TELEMETRY (spec §4.2: TELEMETRY is best-effort and must never block
// or retry a query on the server's behalf). One token per 10 seconds
// is enough to cover a session's API-usage fingerprint without
// re-announcing it on every single query in a tight loop.
func newTelemetryThrottle() *rate.Limiter {
	return rate.NewLimiter(rate.Every(telemetryInterval), 1)
}

// shouldSendTelemetry reports whether the throttle currently has a
// token available, consuming it if so. A nil limiter (Telemetry not
// supported at the negotiated version) always answers false.
func shouldSendTelemetry(limiter *rate.Limiter) bool {
	if limiter == nil {
		return false
	}
	return limiter.Allow()
}
