package smart

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyIE(t *testing.T) {
	tests := []struct {
		asc, ascq uint8
		want      ScsiIE
	}{
		{0x00, 0x00, IENone},
		{0x0b, 0x00, IEAbortedCommand},
		{0x0b, 0x01, IETemperatureExceeded},
		{0x0b, 0x14, IEPhysicalElementStatusChange},
		{0x0b, 0x15, IENone},
		{0x5d, 0x00, IEFailurePredictionThreshold},
		{0x5d, 0xff, IEFailurePredictionThreshold},
		{0x5d, 0x02, IELogicalUnitFailurePredictionThreshold},
		{0x5d, 0x10, IEHardwareImpendingFailure},
		{0x5d, 0x1d, IEHardwareImpendingFailure},
		{0x5d, 0x1e, IEUnspecified},
		{0x5d, 0x25, IEControllerImpendingFailure},
		{0x5d, 0x3c, IEDataChannelImpendingFailure},
		{0x5d, 0x40, IEServoImpendingFailure},
		{0x5d, 0x5c, IESpindleImpendingFailure},
		{0x5d, 0x6c, IEFirmwareImpendingFailure},
		{0x5d, 0x73, IEMediaEnduranceLimit},
		{0x5d, 0x74, IEUnspecified},
		{0x04, 0x01, IENone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyIE(tt.asc, tt.ascq), "asc 0x%02x ascq 0x%02x", tt.asc, tt.ascq)
	}
}

func TestScanProgress(t *testing.T) {
	assert.InDelta(t, 50.0, ScanProgress(32768), 1e-9)
	assert.InDelta(t, 0.0, ScanProgress(0), 1e-9)
	assert.InDelta(t, 65535*100.0/65536.0, ScanProgress(65535), 1e-9)
}

func TestParseLogPage(t *testing.T) {
	page := logPage(0x03,
		LogParam{Code: 0, Control: 0x02, Data: []byte{0, 0, 0, 5}},
		LogParam{Code: 5, Data: []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00}},
	)
	params, err := ParseLogPage(page, 0x03)
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.Equal(t, uint8(0x02), params[0].Control)

	v, ok := paramUint(params, 5)
	assert.True(t, ok)
	assert.Equal(t, uint64(0x010000000000), v)

	_, err = ParseLogPage(page, 0x02)
	assert.Error(t, err)
	_, err = ParseLogPage(page[:len(page)-1], 0x03)
	assert.Error(t, err)
}

func TestParseLogPageParamPastPageEnd(t *testing.T) {
	// The page declares 4 bytes but its only parameter claims 8 data bytes.
	page := []byte{0x03, 0, 0, 4, 0, 0, 0, 8, 1, 2, 3, 4, 5, 6, 7, 8}
	params, err := ParseLogPage(page, 0x03)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	assert.Nil(t, params)
}

func TestGrownDefectCount(t *testing.T) {
	n, err := GrownDefectCount([]byte{0, 0x0c | 0x05, 0, 24})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	n, err = GrownDefectCount([]byte{0, 0x08, 0, 16})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)

	_, err = GrownDefectCount([]byte{0, 0x07, 0, 16})
	assert.Error(t, err)
}

func u32be(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func healthySCSIPages() Pages {
	bms := make([]byte, 12)
	binary.BigEndian.PutUint32(bms[0:], 123456)
	bms[5] = byte(BMSScanActive)
	binary.BigEndian.PutUint16(bms[6:], 17)
	binary.BigEndian.PutUint16(bms[8:], 32768)
	binary.BigEndian.PutUint16(bms[10:], 4)

	return Pages{
		Log: map[uint8][]byte{
			LogPageInformationalExcep: logPage(LogPageInformationalExcep, LogParam{Code: 0, Data: []byte{0, 0, 38}}),
			LogPageBackgroundScan:     logPage(LogPageBackgroundScan, LogParam{Code: 0, Data: bms}),
			LogPageReadErrors: logPage(LogPageReadErrors,
				LogParam{Code: 0, Data: u32be(10)},
				LogParam{Code: 1, Data: u32be(2)},
				LogParam{Code: 3, Data: u32be(12)},
				LogParam{Code: 5, Data: []byte{0, 0, 0x10, 0, 0, 0, 0, 0}},
				LogParam{Code: 6, Data: []byte{1}},
			),
			LogPageWriteErrors: logPage(LogPageWriteErrors, LogParam{Code: 3, Data: u32be(7)}),
			LogPageStartStop: logPage(LogPageStartStop,
				LogParam{Code: 3, Data: u32be(50000)},
				LogParam{Code: 4, Data: u32be(120)},
				LogParam{Code: 5, Data: u32be(600000)},
				LogParam{Code: 6, Data: u32be(900)},
			),
			LogPageTemperature: logPage(LogPageTemperature,
				LogParam{Code: 0, Data: []byte{0, 36}},
				LogParam{Code: 1, Data: []byte{0, 65}},
			),
			LogPageSelfTestResults: logPage(LogPageSelfTestResults, scsiSelfTestParam(1, 1<<5, 2000, ^uint64(0))),
		},
		Mode:    map[uint8][]byte{ModePageInformationalExcep: iecModeSense(iecEWASC)},
		Defects: []byte{0, 0x05, 0, 16},
	}
}

func TestDecodeSCSIHealth(t *testing.T) {
	h, err := DecodeSCSIHealth(context.Background(), healthySCSIPages())
	require.NoError(t, err)

	assert.True(t, h.SmartSupported)
	assert.True(t, h.SmartEnabled)
	assert.True(t, h.OverallStatusPassed)
	assert.Equal(t, IENone, h.ScsiIE)
	assert.Empty(t, h.IEString)
	assert.True(t, h.TemperatureWarningEnabled)

	assert.Equal(t, BMSScanActive, h.BackgroundScanStatus)
	assert.InDelta(t, 50.0, h.BackgroundScanProgress, 1e-9)
	assert.Equal(t, uint64(17), h.BackgroundScanRuns)
	assert.Equal(t, uint64(4), h.BackgroundMediumScanRuns)
	assert.Equal(t, uint64(123456), h.PowerOnTime)

	assert.Equal(t, uint64(10), h.Read.CorrectedECCFast)
	assert.Equal(t, uint64(2), h.Read.CorrectedECCDelayed)
	assert.Equal(t, uint64(12), h.Read.TotalCorrected)
	assert.Equal(t, uint64(0x100000000000), h.Read.BytesProcessed)
	assert.Equal(t, uint64(1), h.Read.Uncorrected)
	assert.Equal(t, uint64(7), h.Write.TotalCorrected)

	assert.Equal(t, uint64(50000), h.StartStopCycleLifetime)
	assert.Equal(t, uint64(120), h.StartStopCycleCount)
	assert.Equal(t, uint64(600000), h.LoadUnloadCycleLifetime)
	assert.Equal(t, uint64(900), h.LoadUnloadCycleCount)

	assert.InDelta(t, 309.15, h.Temperature, 1e-9)
	assert.InDelta(t, 338.15, h.TemperatureDriveTrip, 1e-9)
	assert.Equal(t, uint64(2), h.ScsiGrownDefectList)
	require.Len(t, h.SelfTestLog, 1)
	assert.Equal(t, SelfTestCompletedNoError, h.SelfTestLog[0].Status)
}

func TestDecodeSCSIHealthException(t *testing.T) {
	pages := healthySCSIPages()
	pages.Log[LogPageInformationalExcep] = logPage(LogPageInformationalExcep, LogParam{Code: 0, Data: []byte{0x5d, 0x25, 40}})
	pages.Mode[ModePageInformationalExcep] = iecModeSense(iecDEXCPT)
	delete(pages.Log, LogPageTemperature)

	h, err := DecodeSCSIHealth(context.Background(), pages)
	require.NoError(t, err)
	assert.False(t, h.OverallStatusPassed)
	assert.False(t, h.SmartEnabled)
	assert.Equal(t, IEControllerImpendingFailure, h.ScsiIE)
	assert.Equal(t, uint8(0x5d), h.IEASC)
	assert.Equal(t, uint8(0x25), h.IEASCQ)
	assert.Equal(t, "Controller impending failure", h.IEString)
	// Falls back to the exceptions page reading.
	assert.InDelta(t, 313.15, h.Temperature, 1e-9)
}

func TestDecodeSCSIHealthOptionalPagesMissing(t *testing.T) {
	pages := Pages{Log: map[uint8][]byte{
		LogPageInformationalExcep: logPage(LogPageInformationalExcep, LogParam{Code: 0, Data: []byte{0, 0}}),
		LogPageBackgroundScan:     {0x15, 0, 0, 40},
	}}
	h, err := DecodeSCSIHealth(context.Background(), pages)
	require.NoError(t, err)
	assert.True(t, h.OverallStatusPassed)
	assert.Zero(t, h.BackgroundScanProgress)
	assert.Zero(t, h.Read)
	assert.Zero(t, h.Temperature)
	assert.Zero(t, h.ScsiGrownDefectList)
}

func TestDecodeSCSIHealthMandatoryPage(t *testing.T) {
	_, err := DecodeSCSIHealth(context.Background(), Pages{})
	assert.ErrorIs(t, err, ErrFailed)
	assert.True(t, errors.Is(err, ErrPageNotSupported))

	malformed := Pages{Log: map[uint8][]byte{LogPageInformationalExcep: {0x2f, 0, 0, 8, 0, 0}}}
	_, err = DecodeSCSIHealth(context.Background(), malformed)
	assert.ErrorIs(t, err, ErrFailed)

	noParam := Pages{Log: map[uint8][]byte{LogPageInformationalExcep: logPage(LogPageInformationalExcep, LogParam{Code: 1, Data: []byte{0, 0}})}}
	_, err = DecodeSCSIHealth(context.Background(), noParam)
	assert.ErrorIs(t, err, ErrFailed)
}

func TestDecodeSCSIHealthCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := DecodeSCSIHealth(ctx, healthySCSIPages())
	assert.ErrorIs(t, err, ErrFailed)
	assert.ErrorIs(t, err, context.Canceled)
}
