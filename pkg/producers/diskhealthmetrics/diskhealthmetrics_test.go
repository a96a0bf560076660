package diskhealthmetrics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
)

func attr(id uint8, name string, value, thresh int64, raw uint64) smart.Attribute {
	return smart.BuildAttribute(smart.AttributeFields{
		ID:        id,
		Name:      name,
		Value:     smart.NormalizedFromInt(value),
		Worst:     smart.NormalizedFromInt(value),
		Threshold: smart.NormalizedFromInt(thresh),
		Raw:       raw,
	}, "")
}

func ataHealth() *smart.AtaHealth {
	return &smart.AtaHealth{
		SmartSupported:      true,
		SmartEnabled:        true,
		OverallStatusPassed: true,
		PowerOnMinutes:      12345 * 60,
		Temperature:         smart.KelvinFromCelsius(35),
		Identity: smart.Identity{
			Model:    "DELL WDC WD4003FZEX",
			Serial:   "WD-1234",
			Firmware: "01.01A01",
			Vendor:   "WesternDigital",
		},
		Attributes: []smart.Attribute{
			attr(5, "Reallocated_Sector_Ct", 100, 10, 8),
			attr(197, "Current_Pending_Sector", 100, 0, 2),
			attr(199, "UDMA_CRC_Error_Count", 200, 0, 4),
		},
		SelfTestStatus: smart.SelfTestCompletedNoError,
		SelfTestLog:    []smart.SelfTestLogEntry{{Type: "short", Status: smart.SelfTestCompletedNoError}},
	}
}

type fakeReader struct {
	backend string
	ata     map[string]*smart.AtaHealth
	scsi    map[string]*smart.ScsiHealth
	err     error
}

func (f *fakeReader) ATAGetInfo(_ context.Context, device string, _ ...smart.ExtraArg) (*smart.AtaHealth, error) {
	if f.err != nil {
		return nil, f.err
	}
	if h, ok := f.ata[device]; ok {
		return h, nil
	}
	return nil, &smart.Error{Kind: smart.ErrInvalidArgument, Op: "ata get info", Err: errors.New("not ata")}
}

func (f *fakeReader) SCSIGetInfo(_ context.Context, device string, _ ...smart.ExtraArg) (*smart.ScsiHealth, error) {
	if h, ok := f.scsi[device]; ok {
		return h, nil
	}
	return nil, &smart.Error{Kind: smart.ErrFailed, Op: "scsi get info", Err: errors.New("no such device")}
}

func (f *fakeReader) BackendName() string {
	if f.backend == "" {
		return "native"
	}
	return f.backend
}

func TestNormalizeATA(t *testing.T) {
	data := normalizeATA("/dev/sda", ataHealth())

	assert.Equal(t, "ata", data.Tech)
	require.NotNil(t, data.HealthStatus)
	assert.True(t, *data.HealthStatus)
	require.NotNil(t, data.TemperatureCelsius)
	assert.Equal(t, int64(35), *data.TemperatureCelsius)
	require.NotNil(t, data.PowerOnHours)
	assert.Equal(t, int64(12345), *data.PowerOnHours)
	require.NotNil(t, data.ReallocatedSectors)
	assert.Equal(t, int64(8), *data.ReallocatedSectors)
	require.NotNil(t, data.PendingSectors)
	assert.Equal(t, int64(2), *data.PendingSectors)
	assert.Equal(t, int64(4), data.ErrorCounts["UDMA_CRC_Error_Count"])
	assert.Equal(t, "completed-pass", data.SelfTest.State)
	assert.Empty(t, data.FailingAttributes)

	require.NotNil(t, data.DeviceInfo)
	assert.Equal(t, "hdd", data.DeviceInfo.Media)
	assert.Equal(t, "Dell (WesternDigital OEM)", data.DeviceInfo.ModelFamily)
	assert.Equal(t, "sectors", data.Attributes["reallocated-sector-count"].Unit)
}

func TestNormalizeATAFailingAttribute(t *testing.T) {
	h := ataHealth()
	h.Attributes = append(h.Attributes, attr(1, "Raw_Read_Error_Rate", 5, 16, 0))
	data := normalizeATA("/dev/sda", h)
	assert.Len(t, data.FailingAttributes, 1)
}

func TestNormalizeATASectorCountsUseLow32Bits(t *testing.T) {
	h := ataHealth()
	h.Attributes[0] = attr(5, "Reallocated_Sector_Ct", 100, 10, 0x0001_0000_0008)
	h.Attributes[1] = attr(197, "Current_Pending_Sector", 100, 0, 0xffff_0000_0002)
	data := normalizeATA("/dev/sda", h)

	require.NotNil(t, data.ReallocatedSectors)
	assert.Equal(t, int64(8), *data.ReallocatedSectors)
	require.NotNil(t, data.PendingSectors)
	assert.Equal(t, int64(2), *data.PendingSectors)
	assert.Equal(t, int64(0x0001_0000_0008), data.Attributes["reallocated-sector-count"].RawValue)
}

func TestNormalizeATACriticalFailedPast(t *testing.T) {
	h := ataHealth()
	h.Attributes = append(h.Attributes, smart.BuildAttribute(smart.AttributeFields{
		ID:        198,
		Name:      "Offline_Uncorrectable",
		Value:     smart.NormalizedFromInt(100),
		Worst:     smart.NormalizedFromInt(5),
		Threshold: smart.NormalizedFromInt(10),
	}, ""), smart.BuildAttribute(smart.AttributeFields{
		ID:        9,
		Name:      "Power_On_Hours",
		Value:     smart.NormalizedFromInt(100),
		Worst:     smart.NormalizedFromInt(5),
		Threshold: smart.NormalizedFromInt(10),
	}, ""))
	data := normalizeATA("/dev/sda", h)

	assert.Empty(t, data.FailingAttributes)
	assert.Equal(t, []string{"offline-uncorrectable"}, data.CriticalFailedPast)

	details := map[string]string{}
	severity, eventType := checkAndSetThresholds(details, data, defaultThresholds)
	assert.Equal(t, severityWarning, severity)
	assert.Equal(t, eventHealthAlert, eventType)
	assert.Equal(t, "offline-uncorrectable", details["CriticalFailedPast"])
	assert.Equal(t, "Failure predicting SMART attributes reached their threshold in the past.", generateMessage(details))
}

func TestNormalizeATASmartDisabled(t *testing.T) {
	data := normalizeATA("/dev/sda", &smart.AtaHealth{SmartSupported: true})
	assert.Nil(t, data.HealthStatus)
	assert.Nil(t, data.TemperatureCelsius)
	assert.Empty(t, data.SelfTest.State)
}

func TestNormalizeSCSI(t *testing.T) {
	h := &smart.ScsiHealth{
		OverallStatusPassed: false,
		IEString:            "Hardware impending failure general hard drive failure",
		Temperature:         smart.KelvinFromCelsius(31),
		PowerOnTime:         30123 * 60,
		ScsiGrownDefectList: 3,
		Read:                smart.ErrorCounters{TotalCorrected: 12},
		Write:               smart.ErrorCounters{Uncorrected: 1},
		SelfTestLog:         []smart.SelfTestLogEntry{{Type: "short", Status: smart.SelfTestErrorRead}},
	}
	data := normalizeSCSI("/dev/sdb", h)

	assert.Equal(t, "scsi", data.Tech)
	require.NotNil(t, data.HealthStatus)
	assert.False(t, *data.HealthStatus)
	assert.Equal(t, int64(31), *data.TemperatureCelsius)
	assert.Equal(t, int64(30123), *data.PowerOnHours)
	assert.Equal(t, int64(3), *data.ReallocatedSectors)
	assert.Equal(t, int64(12), data.ErrorCounts["read_total_corrected"])
	assert.Equal(t, int64(1), data.ErrorCounts["write_total_uncorrected"])
	assert.Equal(t, "completed-fail", data.SelfTest.State)
	assert.Equal(t, "error-read", data.SelfTest.Status)
	assert.Equal(t, h.IEString, data.IEString)
}

func TestCollectFallsBackToSCSI(t *testing.T) {
	reader := &fakeReader{
		ata:  map[string]*smart.AtaHealth{"/dev/sda": ataHealth()},
		scsi: map[string]*smart.ScsiHealth{"/dev/sdb": {OverallStatusPassed: true}},
	}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &collector{reader: reader, now: func() time.Time { return now }}

	metrics := c.collect(context.Background(), DiskHealthMetricsConfig{
		Disks:      []string{"/dev/sda", "/dev/sdb", "/dev/sdc"},
		NodeName:   "node-1",
		InstanceID: "ceph-a",
	})

	require.Len(t, metrics, 2)
	assert.Equal(t, "ata", metrics[0].Tech)
	assert.Equal(t, "scsi", metrics[1].Tech)
	assert.Equal(t, "node-1", metrics[1].NodeName)
	assert.Equal(t, "ceph-a", metrics[1].InstanceID)
	assert.Equal(t, now, metrics[0].CollectedAt)
}

func TestCollectDiskKeepsFailures(t *testing.T) {
	reader := &fakeReader{err: &smart.Error{Kind: smart.ErrFailed, Op: "ata get info", Err: errors.New("io error")}}
	c := &collector{reader: reader, now: time.Now}
	_, err := c.collectDisk(context.Background(), "/dev/sda")
	assert.ErrorIs(t, err, smart.ErrFailed)
}

func TestCollectDiskVerdictlessBackend(t *testing.T) {
	h := ataHealth()
	h.OverallStatusPassed = false
	reader := &fakeReader{backend: "libsmart", ata: map[string]*smart.AtaHealth{"/dev/sda": h}}
	c := &collector{reader: reader, now: time.Now}
	data, err := c.collectDisk(context.Background(), "/dev/sda")
	require.NoError(t, err)
	assert.Nil(t, data.HealthStatus)
}

func TestResolveDisks(t *testing.T) {
	discover := func() ([]string, error) { return []string{"/dev/sda", "/dev/sdb"}, nil }

	disks, err := resolveDisks([]string{"*"}, discover)
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/sda", "/dev/sdb"}, disks)

	disks, err = resolveDisks([]string{"/dev/sdc"}, discover)
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/sdc"}, disks)

	_, err = resolveDisks([]string{"*"}, func() ([]string, error) { return nil, errors.New("boom") })
	assert.Error(t, err)
}

func TestFilterWholeDisks(t *testing.T) {
	got := filterWholeDisks([]string{"sdb", "sda1", "dm-0", "sda", "nvme0n1", "loop0", "sdaa", "md127"})
	assert.Equal(t, []string{"/dev/sda", "/dev/sdaa", "/dev/sdb"}, got)
}

func TestIsVirtualVendor(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "sys_vendor")
	require.NoError(t, os.WriteFile(p, []byte("QEMU\n"), 0o644))
	assert.True(t, isVirtualVendor(p))

	require.NoError(t, os.WriteFile(p, []byte("Dell Inc.\n"), 0o644))
	assert.False(t, isVirtualVendor(p))

	assert.False(t, isVirtualVendor(filepath.Join(dir, "missing")))
}

type fakeUploader struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
}

func (f *fakeUploader) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, body)
	return &manager.UploadOutput{}, nil
}

func TestArchiveStore(t *testing.T) {
	up := &fakeUploader{}
	a := &Archive{
		bucket:   "disk-health",
		prefix:   "reports",
		uploader: up,
		now:      func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) },
	}

	metrics := []NormalizedSmartData{normalizeATA("/dev/sda", ataHealth())}
	require.NoError(t, a.Store(context.Background(), "node-1", metrics))

	require.Len(t, up.inputs, 1)
	assert.Equal(t, "disk-health", *up.inputs[0].Bucket)
	assert.Regexp(t, `^reports/node-1/20250301T120000Z-[0-9a-f-]{36}\.json$`, *up.inputs[0].Key)

	var stored []NormalizedSmartData
	require.NoError(t, json.NewDecoder(bytes.NewReader(up.bodies[0])).Decode(&stored))
	require.Len(t, stored, 1)
	assert.Equal(t, "/dev/sda", stored[0].Device)
}

func TestArchiveDisabled(t *testing.T) {
	a, err := NewArchive(context.Background(), DiskHealthMetricsConfig{})
	require.NoError(t, err)
	assert.Nil(t, a)
	assert.NoError(t, a.Store(context.Background(), "node-1", []NormalizedSmartData{{}}))
}
