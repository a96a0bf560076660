package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcore-dev/smartprobe/pkg/producers/diskhealthmetrics"
)

const sampleConfig = `
global:
  nats_url: nats://nats:4222
  node_name: storage-01
  instance_id: ceph-a
  backend: smartctl
producers:
  - name: disks
    type: disk_health_metrics
    settings:
      disks: ["/dev/sda", "/dev/sdb"]
      interval: 30
      prometheus: true
      pending_sectors_threshold: 5
      archive_bucket: smart-reports
  - name: other
    type: kernel_metrics
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "storage-01", cfg.Global.NodeName)
	require.Len(t, cfg.Producers, 2)
	assert.Equal(t, "disk_health_metrics", cfg.Producers[0].Type)

	settings := DiskHealthMetricsSettings(cfg.Producers[0], cfg.Global)
	assert.Equal(t, "smartctl", settings.Backend)
	assert.True(t, settings.UseNats)
	assert.Equal(t, "osd.disk.health", settings.NatsSubject)
	assert.Equal(t, []string{"/dev/sda", "/dev/sdb"}, settings.Disks)
	assert.Equal(t, 30, settings.Interval)
	assert.True(t, settings.Prometheus)
	assert.Equal(t, int64(5), settings.Thresholds.PendingSectors)
	assert.Equal(t, int64(10), settings.Thresholds.ReallocatedSectors)
	assert.Equal(t, "smart-reports", settings.ArchiveBucket)
	assert.Equal(t, "ceph-a", settings.InstanceID)
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSettingGetters(t *testing.T) {
	s := map[string]interface{}{
		"i":     7,
		"i64":   int64(8),
		"f":     float64(9),
		"str":   "x",
		"b":     true,
		"slice": []interface{}{"a", 1, "b"},
	}
	assert.Equal(t, 7, GetIntSetting(s, "i", 0))
	assert.Equal(t, 8, GetIntSetting(s, "i64", 0))
	assert.Equal(t, 9, GetIntSetting(s, "f", 0))
	assert.Equal(t, 3, GetIntSetting(s, "missing", 3))
	assert.Equal(t, "x", GetStringSetting(s, "str", ""))
	assert.Equal(t, "d", GetStringSetting(s, "i", "d"))
	assert.True(t, GetBoolSetting(s, "b", false))
	assert.Equal(t, []string{"a", "b"}, GetStringSliceSetting(s, "slice", nil))
	assert.Equal(t, []string{"z"}, GetStringSliceSetting(s, "missing", []string{"z"}))
}

func TestRunnerReload(t *testing.T) {
	r := NewRunner(nil)
	store := diskhealthmetrics.NewThresholdStore(diskhealthmetrics.Thresholds{PendingSectors: 3})
	r.thresholds["disks"] = store

	r.Reload(&Config{Producers: []ProducerConfig{
		{Name: "disks", Type: typeDiskHealthMetrics, Settings: map[string]interface{}{"pending_sectors_threshold": 9}},
		{Name: "unknown", Type: typeDiskHealthMetrics},
	}})
	assert.Equal(t, int64(9), store.Get().PendingSectors)
	assert.Equal(t, int64(80), store.Get().TemperatureCelsius)
}

func TestStartProducersOpenError(t *testing.T) {
	r := NewRunner(func(context.Context, string) (diskhealthmetrics.HealthReader, func() error, error) {
		return nil, nil, assert.AnError
	})
	var wg sync.WaitGroup
	wg.Add(1)
	r.StartProducers(context.Background(), ProducerConfig{Name: "disks", Type: typeDiskHealthMetrics}, GlobalConfig{}, &wg)
	wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Contains(t, r.thresholds, "disks")
}
