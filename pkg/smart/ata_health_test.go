package smart

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleAttrs = []testAttr{
	{id: 1, flags: 0x000f, value: 117, worst: 99, raw: rawLE(123456), thresh: 6},
	{id: 5, flags: 0x0033, value: 100, worst: 100, raw: rawLE(8), thresh: 10},
	{id: 9, flags: 0x0032, value: 88, worst: 88, raw: rawLE(10500), thresh: 0},
	{id: 12, flags: 0x0032, value: 100, worst: 100, raw: rawLE(42), thresh: 20},
	{id: 194, flags: 0x0022, value: 35, worst: 50, raw: rawLE(0x2d140023), thresh: -1},
	{id: 197, flags: 0x0012, value: 100, worst: 100, raw: rawLE(0), thresh: 0},
}

func sampleSmartPage() []byte {
	buf := smartPage(sampleAttrs...)
	buf[offOfflineStatus] = 0x82
	buf[offSelfTestExec] = 0xf3
	binary.LittleEndian.PutUint16(buf[offOfflineCompletion:], 600)
	buf[offOfflineCapability] = byte(OfflineCapExecOfflineImmediate | OfflineCapSelfTest | OfflineCapConveyanceSelfTest)
	binary.LittleEndian.PutUint16(buf[offSmartCapability:], 0x0003)
	buf[offErrorLogging] = 0x01
	buf[offPollingShort] = 1
	buf[offPollingExtended] = 0xff
	buf[offPollingConveyance] = 2
	binary.LittleEndian.PutUint16(buf[offPollingExtWord:], 540)
	return buf
}

func TestDecodeAttributesSkipsHoles(t *testing.T) {
	page := smartPage(
		testAttr{id: 1, value: 100, worst: 100, thresh: 6},
		testAttr{id: 0, value: 0xff, worst: 0xff, thresh: -1},
		testAttr{id: 5, value: 100, worst: 100, thresh: 10},
	)
	attrs, err := DecodeAttributes(page, nil, "")
	require.NoError(t, err)
	require.Len(t, attrs, 2)
	assert.Equal(t, uint8(1), attrs[0].ID)
	assert.Equal(t, uint8(5), attrs[1].ID)
	for _, a := range attrs {
		assert.False(t, a.Threshold.Valid())
	}
}

func TestDecodeAttributesMatchesThresholdsByID(t *testing.T) {
	attrs, err := DecodeAttributes(smartPage(sampleAttrs...), thresholdPage(sampleAttrs...), "")
	require.NoError(t, err)
	require.Len(t, attrs, len(sampleAttrs))

	for i, a := range attrs {
		want := sampleAttrs[i]
		assert.Equal(t, want.id, a.ID)
		if want.thresh < 0 {
			assert.False(t, a.Threshold.Valid(), "id %d", a.ID)
			assert.False(t, a.FailedPast)
			assert.False(t, a.FailingNow)
			continue
		}
		thr, ok := a.Threshold.Get()
		require.True(t, ok, "id %d", a.ID)
		assert.Equal(t, uint8(want.thresh), thr)
		assert.Equal(t, want.worst <= thr, a.FailedPast, "id %d", a.ID)
		assert.Equal(t, want.value <= thr, a.FailingNow, "id %d", a.ID)
	}

	rre := attrs[0]
	assert.Equal(t, "Raw_Read_Error_Rate", rre.Name)
	assert.Equal(t, uint64(123456), rre.Raw)
	assert.True(t, rre.Flags.Has(AttributeFlagPrefailure))
	assert.True(t, rre.Flags.Has(AttributeFlagErrorRate))
	assert.False(t, rre.Flags.Has(AttributeFlagEventCount))
}

func TestDecodeAttributesShortBuffer(t *testing.T) {
	for _, n := range []int{0, 1, 100, ataMinSmartData - 1} {
		_, err := DecodeAttributes(make([]byte, n), nil, "")
		assert.ErrorIs(t, err, ErrInvalidArgument, "len %d", n)
	}

	_, err := DecodeAttributes(smartPage(), make([]byte, 12), "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDecodeATAHealthBarePage(t *testing.T) {
	h, err := DecodeATAHealth(sampleSmartPage())
	require.NoError(t, err)

	assert.True(t, h.SmartSupported)
	assert.True(t, h.SmartEnabled)
	assert.False(t, h.OverallStatusPassed)
	assert.Equal(t, OfflineNoError, h.OfflineDataCollectionStatus)
	assert.True(t, h.AutoOfflineDataCollectionEnabled)
	assert.Equal(t, 600, h.OfflineDataCollectionCompletion)
	assert.True(t, h.OfflineDataCollectionCapabilities.Has(OfflineCapSelfTest))
	assert.False(t, h.OfflineDataCollectionCapabilities.Has(OfflineCapSelectiveSelfTest))
	assert.Equal(t, SelfTestInProgress, h.SelfTestStatus)
	assert.Equal(t, 30, h.SelfTestPercentRemaining)
	assert.Equal(t, 1, h.SelfTestPollingShort)
	assert.Equal(t, 540, h.SelfTestPollingExtended)
	assert.Equal(t, 2, h.SelfTestPollingConveyance)
	assert.True(t, h.SmartCapabilities.Has(CapAttributeAutosave))
	assert.True(t, h.SmartCapabilities.Has(CapAutosaveTimer))
	assert.True(t, h.SmartCapabilities.Has(CapErrorLogging))

	assert.Len(t, h.Attributes, len(sampleAttrs))
	assert.Equal(t, uint64(10500*60), h.PowerOnMinutes)
	assert.Equal(t, uint64(42), h.PowerCycleCount)
	assert.InDelta(t, 308.15, h.Temperature, 1e-9)
}

func TestDecodeATAHealthIsDeterministic(t *testing.T) {
	buf := EncodeATABlob(ATAData{
		SmartData:    sampleSmartPage(),
		Thresholds:   thresholdPage(sampleAttrs...),
		StatusKnown:  true,
		StatusPassed: true,
	})
	first, err := DecodeATAHealth(buf)
	require.NoError(t, err)
	second, err := DecodeATAHealth(buf)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDecodeATAHealthWithoutCapabilityTrailer(t *testing.T) {
	h, err := DecodeATAHealth(sampleSmartPage()[:ataMinSmartData])
	require.NoError(t, err)
	assert.Len(t, h.Attributes, len(sampleAttrs))
	assert.Equal(t, 0, h.SelfTestPollingShort)
	assert.Equal(t, OfflineNeverStarted, h.OfflineDataCollectionStatus)
}

func TestDecodeATAHealthImplausibleTemperature(t *testing.T) {
	page := smartPage(testAttr{id: 194, value: 100, worst: 100, raw: rawLE(200)})
	h, err := DecodeATAHealth(page)
	require.NoError(t, err)
	assert.Zero(t, h.Temperature)
}

func TestDecodeATAHealthTemperatureZeroCelsius(t *testing.T) {
	page := smartPage(testAttr{id: 194, value: 100, worst: 100})
	h, err := DecodeATAHealth(page)
	require.NoError(t, err)
	a, ok := h.Attribute(194)
	require.True(t, ok)
	assert.Equal(t, UnitMillikelvin, a.PrettyUnit)
	assert.Equal(t, int64(273150), a.PrettyValue)
	assert.InDelta(t, 273.15, h.Temperature, 1e-9)
}

func TestOfflineStatusRanges(t *testing.T) {
	tests := map[uint8]OfflineStatus{
		0x00: OfflineNeverStarted,
		0x01: OfflineReserved,
		0x02: OfflineNoError,
		0x06: OfflineAbortedError,
		0x07: OfflineReserved,
		0x3f: OfflineReserved,
		0x40: OfflineVendorSpecific,
		0x7f: OfflineVendorSpecific,
	}
	for raw, want := range tests {
		assert.Equal(t, want, offlineStatus(raw), "raw 0x%02x", raw)
	}
}

func TestDecodeATAHealthBlob(t *testing.T) {
	d := ATAData{
		Identify:     identifyPage("ST4000NM0035-1V4107", "ZC1234", "TN04", true, true),
		SmartData:    sampleSmartPage(),
		Thresholds:   thresholdPage(sampleAttrs...),
		StatusKnown:  true,
		StatusPassed: true,
	}
	h, err := DecodeATAHealth(EncodeATABlob(d))
	require.NoError(t, err)
	assert.True(t, h.OverallStatusPassed)
	assert.Equal(t, "ST4000NM0035-1V4107", h.Identity.Model)
	assert.Equal(t, "ZC1234", h.Identity.Serial)
	assert.Equal(t, "TN04", h.Identity.Firmware)
	assert.Equal(t, "Seagate", h.Identity.Vendor)
	assert.True(t, h.SmartCapabilities.Has(CapGPLogging))

	// Seagate power on hours carry milliseconds in the upper bytes.
	a, ok := h.Attribute(9)
	require.True(t, ok)
	assert.Equal(t, "Power_On_Hours_and_Msec", a.Name)
}

func TestDecodeATAHealthDropsBadSelfTestLog(t *testing.T) {
	slog := make([]byte, 512)
	slog[ataLogIndex] = 22
	d := ATAData{
		SmartData:    sampleSmartPage(),
		SelfTestLog:  slog,
		StatusKnown:  true,
		StatusPassed: true,
	}
	h, err := DecodeATAHealth(EncodeATABlob(d))
	require.NoError(t, err)
	assert.True(t, h.OverallStatusPassed)
	assert.Len(t, h.Attributes, len(sampleAttrs))
	assert.Nil(t, h.SelfTestLog)
	assert.Equal(t, SelfTestInProgress, h.SelfTestStatus)
}

func TestDecodeATAHealthSmartDisabled(t *testing.T) {
	d := ATAData{
		Identify:  identifyPage("WDC WD100EFAX", "X", "1", true, false),
		SmartData: sampleSmartPage(),
	}
	h, err := DecodeATAHealth(EncodeATABlob(d))
	require.NoError(t, err)
	assert.True(t, h.SmartSupported)
	assert.False(t, h.SmartEnabled)
	assert.Empty(t, h.Attributes)
	assert.Zero(t, h.SelfTestPollingShort)
	assert.Zero(t, h.Temperature)
	assert.False(t, h.OverallStatusPassed)
}

func TestParseATABlobErrors(t *testing.T) {
	blob := EncodeATABlob(ATAData{SmartData: sampleSmartPage()})

	_, err := ParseATABlob(blob[:len(blob)-1])
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = ParseATABlob(EncodeATABlob(ATAData{SmartData: nil, StatusKnown: true})[:12])
	assert.ErrorIs(t, err, ErrInvalidArgument)

	d, err := ParseATABlob(blob)
	require.NoError(t, err)
	assert.False(t, d.StatusKnown)
	assert.Equal(t, sampleSmartPage(), d.SmartData)
}

func TestReturnStatusPassed(t *testing.T) {
	ok, err := ReturnStatusPassed(0x4f, 0xc2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ReturnStatusPassed(0xf4, 0x2c)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ReturnStatusPassed(0, 0)
	assert.ErrorIs(t, err, ErrFailed)
}
