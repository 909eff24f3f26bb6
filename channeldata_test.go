package stun

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelDataRoundTrip(t *testing.T) {
	cd := ChannelData{
		Channel: ChannelNumberAttr(0x4001),
		Data:    []byte("hello relay"),
	}

	buf := EncodeChannelData(cd)
	assert.True(t, IsChannelData(buf))
	assert.False(t, IsMessage(buf))

	got, err := DecodeChannelData(buf)
	require.NoError(t, err)

	if diff := cmp.Diff(cd, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestChannelDataShortBufferRejected(t *testing.T) {
	_, err := DecodeChannelData([]byte{0x40, 0x01})
	require.Error(t, err)
}

func TestChannelDataTruncatedPayloadRejected(t *testing.T) {
	buf := EncodeChannelData(ChannelData{Channel: 0x4001, Data: []byte("full payload")})
	_, err := DecodeChannelData(buf[:len(buf)-4])
	require.Error(t, err)
}

func TestIsBoundChannel(t *testing.T) {
	assert.True(t, IsBoundChannel(ChannelNumberAttr(0x4000)))
	assert.True(t, IsBoundChannel(ChannelNumberAttr(0x7FFE)))
	assert.False(t, IsBoundChannel(ChannelNumberAttr(0x3FFF)))
	assert.False(t, IsBoundChannel(ChannelNumberAttr(0x7FFF)))
}
