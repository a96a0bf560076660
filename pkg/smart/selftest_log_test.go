package smart

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ataLogEntry struct {
	typ    uint8
	status uint8
	hours  uint16
	lba    uint32
}

func ataSelfTestLog(index uint8, entries map[int]ataLogEntry) []byte {
	buf := make([]byte, ataLogSize)
	binary.LittleEndian.PutUint16(buf, 1)
	for slot, e := range entries {
		off := ataLogEntryStart + slot*ataLogEntrySize
		buf[off] = e.typ
		buf[off+1] = e.status
		binary.LittleEndian.PutUint16(buf[off+2:], e.hours)
		binary.LittleEndian.PutUint32(buf[off+5:], e.lba)
	}
	buf[ataLogIndex] = index
	return buf
}

func TestDecodeATASelfTestLogOrder(t *testing.T) {
	// Ring wrapped: slot 1 is the newest, slot 20 the oldest.
	buf := ataSelfTestLog(2, map[int]ataLogEntry{
		0:  {typ: 0x02, status: 0x00, hours: 900},
		1:  {typ: 0x01, status: 0x73, hours: 1000, lba: 0x1234},
		20: {typ: 0x01, status: 0x00, hours: 100},
	})
	entries, err := DecodeATASelfTestLog(buf)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "short", entries[0].Type)
	assert.Equal(t, SelfTestErrorRead, entries[0].Status)
	assert.Equal(t, 30, entries[0].PercentRemaining)
	assert.Equal(t, uint64(1000), entries[0].LifetimeHours)
	assert.Equal(t, uint64(0x1234), entries[0].FailingLBA)

	assert.Equal(t, "extended", entries[1].Type)
	assert.Equal(t, uint64(900), entries[1].LifetimeHours)
	assert.Equal(t, uint64(100), entries[2].LifetimeHours)
}

func TestDecodeATASelfTestLogEmptyAndInvalid(t *testing.T) {
	entries, err := DecodeATASelfTestLog(ataSelfTestLog(0, nil))
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = DecodeATASelfTestLog(ataSelfTestLog(22, nil))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = DecodeATASelfTestLog(make([]byte, 100))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func scsiSelfTestParam(code uint16, b0 byte, hours uint16, lba uint64) LogParam {
	data := make([]byte, 16)
	data[0] = b0
	binary.BigEndian.PutUint16(data[2:], hours)
	binary.BigEndian.PutUint64(data[4:], lba)
	return LogParam{Code: code, Data: data}
}

func TestDecodeSCSISelfTestLog(t *testing.T) {
	params := []LogParam{
		scsiSelfTestParam(1, 1<<5|0x7, 2000, 0x4000),
		scsiSelfTestParam(2, 2<<5|0x0, 1500, ^uint64(0)),
		{Code: 3, Data: make([]byte, 16)},
	}
	entries, err := DecodeSCSISelfTestLog(params)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "short", entries[0].Type)
	assert.Equal(t, SelfTestErrorRead, entries[0].Status)
	assert.Equal(t, uint64(0x4000), entries[0].FailingLBA)

	assert.Equal(t, "extended", entries[1].Type)
	assert.Equal(t, SelfTestCompletedNoError, entries[1].Status)
	assert.Zero(t, entries[1].FailingLBA)

	_, err = DecodeSCSISelfTestLog([]LogParam{{Code: 1, Data: []byte{1, 2}}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
