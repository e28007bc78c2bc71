package bolt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeHandshakeIncludesMagicAndFourSlots(t *testing.T) {
	out := EncodeHandshake(DefaultProposal())
	require.Len(t, out, 4+16)
	assert.Equal(t, Magic[:], out[:4])
}

func TestDecodeHandshakeResponse(t *testing.T) {
	cases := []struct {
		name    string
		resp    []byte
		want    Version
		wantErr error
	}{
		{"bare v3", []byte{0, 0, 0, 3}, Version{3, 0}, nil},
		{"v4.4", []byte{0, 0, 4, 4}, Version{4, 4}, nil},
		{"v5.6 with range", []byte{0, 4, 6, 5}, Version{5, 6}, nil},
		{"rejected", []byte{0, 0, 0, 0}, Version{}, ErrHandshakeRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeHandshakeResponse(tc.resp)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDefaultProposalCoversLatestLine(t *testing.T) {
	s := DefaultProposal()[0]
	assert.Equal(t, 5, s.major)
	assert.Equal(t, 6, s.minor)
	assert.Equal(t, 4, s.rangeDown)
	// 5.5 rides along inside the contiguous range but was never
	// released; a server selecting it is refused.
	assert.False(t, Supported(Version{5, 5}))
}

func TestServerSelectPicksHighestMatchingSlot(t *testing.T) {
	proposal := [4][4]byte{
		DefaultProposal()[0].encode(),
		DefaultProposal()[1].encode(),
		DefaultProposal()[2].encode(),
		DefaultProposal()[3].encode(),
	}
	got := ServerSelect(proposal, []Version{V4_4, V4_2, V3})
	v, err := DecodeHandshakeResponse(got[:])
	require.NoError(t, err)
	assert.Equal(t, V4_4, v)
}

func TestServerSelectMatchesMinorInsideRange(t *testing.T) {
	proposal := [4][4]byte{
		DefaultProposal()[0].encode(),
		DefaultProposal()[1].encode(),
		DefaultProposal()[2].encode(),
		DefaultProposal()[3].encode(),
	}
	got := ServerSelect(proposal, []Version{V5_4})
	v, err := DecodeHandshakeResponse(got[:])
	require.NoError(t, err)
	assert.Equal(t, V5_4, v)
}
