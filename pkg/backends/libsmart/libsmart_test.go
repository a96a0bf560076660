package libsmart

import (
	"context"
	"encoding/binary"
	"testing"

	libsmart "github.com/anatol/smart.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
)

func TestTechAvail(t *testing.T) {
	b := New()
	assert.NoError(t, b.TechAvail(smart.TechATA, smart.ModeInfo))
	assert.ErrorIs(t, b.TechAvail(smart.TechATA, smart.ModeSelfTest), smart.ErrTechUnavail)
	assert.ErrorIs(t, b.TechAvail(smart.TechSCSI, smart.ModeInfo), smart.ErrTechUnavail)
}

func TestUnsupportedOperations(t *testing.T) {
	b := New()
	ctx := context.Background()

	_, err := b.SCSIGetInfo(ctx, "/dev/sdb", nil)
	assert.ErrorIs(t, err, smart.ErrTechUnavail)
	assert.ErrorIs(t, b.SetEnabled(ctx, "/dev/sda", true, nil), smart.ErrTechUnavail)

	state, err := b.SelfTest(ctx, "/dev/sda", smart.SelfTestOpShort, nil)
	assert.ErrorIs(t, err, smart.ErrTechUnavail)
	assert.Equal(t, smart.StateIdle, state)
}

func TestSelfTestLogRoundTrip(t *testing.T) {
	var log libsmart.AtaSmartSelfTestLog
	log.Version = 1
	log.Index = 1
	log.Entry[0].LBA_7 = 0x02
	log.Entry[0].Status = 0x79
	// the library holds word fields of this page byte-swapped
	log.Entry[0].LifeTimestamp = 0x3412
	log.Entry[0].LBA = 0x40e20100

	page, err := encodePage(binary.BigEndian, &log, pageSize)
	require.NoError(t, err)
	require.Len(t, page, pageSize)

	entries, err := smart.DecodeATASelfTestLog(page)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "extended", entries[0].Type)
	assert.Equal(t, smart.SelfTestErrorRead, entries[0].Status)
	assert.Equal(t, 90, entries[0].PercentRemaining)
	assert.Equal(t, uint64(0x1234), entries[0].LifetimeHours)
	assert.Equal(t, uint64(0x0001e240), entries[0].FailingLBA)
}

func TestEncodePagePads(t *testing.T) {
	v := struct {
		A uint16
		B [4]byte
	}{A: 0x0102, B: [4]byte{1, 2, 3, 4}}

	page, err := encodePage(binary.LittleEndian, &v, 16)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x01, 1, 2, 3, 4, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, page)

	_, err = encodePage(binary.LittleEndian, &v, 4)
	assert.Error(t, err)
}

type fakeATA struct {
	thresholds []byte
	closed     bool
}

func (f *fakeATA) Tech() smart.Tech { return smart.TechATA }
func (f *fakeATA) SendCommand(context.Context, smart.Command) error { return nil }
func (f *fakeATA) Close() error {
	f.closed = true
	return nil
}

func (f *fakeATA) Identify(context.Context) ([]byte, error) { return nil, nil }
func (f *fakeATA) ReadSmartData(context.Context) ([]byte, error) { return nil, nil }
func (f *fakeATA) ReadThresholds(context.Context) ([]byte, error) { return f.thresholds, nil }
func (f *fakeATA) ReadLog(context.Context, uint8) ([]byte, error) { return nil, nil }
func (f *fakeATA) ReturnStatus(context.Context) (uint8, uint8, error) { return 0x4f, 0xc2, nil }

type fakeSCSI struct{}

func (fakeSCSI) Tech() smart.Tech { return smart.TechSCSI }
func (fakeSCSI) SendCommand(context.Context, smart.Command) error { return nil }
func (fakeSCSI) Close() error { return nil }

func TestThresholdsFromTransport(t *testing.T) {
	page := make([]byte, pageSize)
	page[2], page[3] = 5, 140
	ata := &fakeATA{thresholds: page}
	b := &Backend{open: func(context.Context, string) (smart.Device, error) { return ata, nil }}

	got, err := b.thresholds(context.Background(), "/dev/sda")
	require.NoError(t, err)
	assert.Equal(t, page, got)
	assert.True(t, ata.closed)

	b.open = func(context.Context, string) (smart.Device, error) { return fakeSCSI{}, nil }
	_, err = b.thresholds(context.Background(), "/dev/sdb")
	assert.Error(t, err)

	b.open = func(context.Context, string) (smart.Device, error) {
		return nil, &smart.Error{Kind: smart.ErrFailed, Op: "open device", Err: assert.AnError}
	}
	_, err = b.thresholds(context.Background(), "/dev/sdc")
	assert.ErrorIs(t, err, smart.ErrFailed)
}
