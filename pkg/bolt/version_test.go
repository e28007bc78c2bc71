package bolt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLegalityMatrix(t *testing.T) {
	versions := []Version{V1, V2, V3, V4_0, V4_2, V4_3, V4_4, V5_0, V5_1, V5_2, V5_4, V5_6}

	for _, v := range versions {
		t.Run(v.String(), func(t *testing.T) {
			assert.Equal(t, v.Major <= 2, Legal(v, KindInit), "INIT")
			assert.Equal(t, v.Major >= 3, Legal(v, KindHello), "HELLO")
			assert.Equal(t, v.Major >= 3, Legal(v, KindBegin), "BEGIN")
			assert.Equal(t, v.Major >= 3, Legal(v, KindCommit), "COMMIT")
			assert.Equal(t, v.Major >= 3, Legal(v, KindRollback), "ROLLBACK")
			assert.Equal(t, v.Major <= 3, Legal(v, KindAckFailure), "ACK_FAILURE")
			assert.True(t, Legal(v, KindDiscard), "DISCARD")
			assert.True(t, Legal(v, KindPull), "PULL")
			assert.True(t, Legal(v, KindReset), "RESET")
			assert.True(t, Legal(v, KindGoodbye), "GOODBYE")

			wantRoute := v.Major == 4 && v.Minor >= 3 || v.Major == 5
			assert.Equal(t, wantRoute, Legal(v, KindRoute), "ROUTE")

			wantLogon := v.Major == 5 && v.Minor >= 1
			assert.Equal(t, wantLogon, Legal(v, KindLogon), "LOGON")
			assert.Equal(t, wantLogon, Legal(v, KindLogoff), "LOGOFF")

			wantTelemetry := v.Major == 5 && v.Minor >= 4
			assert.Equal(t, wantTelemetry, Legal(v, KindTelemetry), "TELEMETRY")
		})
	}
}

func TestResponseKindsAlwaysLegal(t *testing.T) {
	for _, v := range []Version{V1, V3, V4_4, V5_6} {
		assert.True(t, Legal(v, KindSuccess))
		assert.True(t, Legal(v, KindRecord))
		assert.True(t, Legal(v, KindIgnored))
		assert.True(t, Legal(v, KindFailure))
	}
}

func Test5_5IsNeverSupported(t *testing.T) {
	assert.False(t, Supported(Version{5, 5}))
}
