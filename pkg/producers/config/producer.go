// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/smartprobe/pkg/producers/diskhealthmetrics"
)

const typeDiskHealthMetrics = "disk_health_metrics"

// Opener returns a health reader for the named backend and a function that
// releases it.
type Opener func(ctx context.Context, backend string) (diskhealthmetrics.HealthReader, func() error, error)

// Runner starts configured producers and applies threshold changes to the
// running ones.
type Runner struct {
	Open Opener

	mu         sync.Mutex
	thresholds map[string]*diskhealthmetrics.ThresholdStore
}

func NewRunner(open Opener) *Runner {
	return &Runner{
		Open:       open,
		thresholds: make(map[string]*diskhealthmetrics.ThresholdStore),
	}
}

// DiskHealthMetricsSettings merges producer settings over the global ones.
func DiskHealthMetricsSettings(producer ProducerConfig, global GlobalConfig) diskhealthmetrics.DiskHealthMetricsConfig {
	s := producer.Settings
	natsURL := GetStringSetting(s, "nats_url", global.NatsURL)
	return diskhealthmetrics.DiskHealthMetricsConfig{
		Backend:          GetStringSetting(s, "backend", global.Backend),
		NatsURL:          natsURL,
		NatsSubject:      GetStringSetting(s, "nats_subject", "osd.disk.health"),
		UseNats:          natsURL != "",
		Prometheus:       GetBoolSetting(s, "prometheus", false),
		PrometheusPort:   GetIntSetting(s, "prometheus_port", 8080),
		Disks:            GetStringSliceSetting(s, "disks", []string{"*"}),
		Interval:         GetIntSetting(s, "interval", 60),
		NodeName:         GetStringSetting(s, "node_name", global.NodeName),
		InstanceID:       GetStringSetting(s, "instance_id", global.InstanceID),
		Thresholds:       ThresholdSettings(s),
		ArchiveBucket:    GetStringSetting(s, "archive_bucket", ""),
		ArchiveEndpoint:  GetStringSetting(s, "archive_endpoint", global.ArchiveEndpoint),
		ArchiveRegion:    GetStringSetting(s, "archive_region", global.ArchiveRegion),
		ArchiveAccessKey: GetStringSetting(s, "archive_access_key", global.ArchiveAccessKey),
		ArchiveSecretKey: GetStringSetting(s, "archive_secret_key", global.ArchiveSecretKey),
		ArchivePrefix:    GetStringSetting(s, "archive_prefix", "smart"),
		CephOSDBasePath:  GetStringSetting(s, "ceph_osd_base_path", ""),
	}
}

func ThresholdSettings(s map[string]interface{}) diskhealthmetrics.Thresholds {
	return diskhealthmetrics.Thresholds{
		GrownDefects:       GetInt64Setting(s, "grown_defects_threshold", 10),
		PendingSectors:     GetInt64Setting(s, "pending_sectors_threshold", 3),
		ReallocatedSectors: GetInt64Setting(s, "reallocated_sectors_threshold", 10),
		TemperatureCelsius: GetInt64Setting(s, "temperature_threshold", 80),
	}
}

func (r *Runner) StartProducers(ctx context.Context, producer ProducerConfig, globalConfig GlobalConfig, wg *sync.WaitGroup) {
	defer wg.Done()

	switch producer.Type {
	case typeDiskHealthMetrics:
		settings := DiskHealthMetricsSettings(producer, globalConfig)
		store := diskhealthmetrics.NewThresholdStore(settings.Thresholds)
		r.mu.Lock()
		r.thresholds[producer.Name] = store
		r.mu.Unlock()

		reader, closeReader, err := r.Open(ctx, settings.Backend)
		if err != nil {
			log.Error().Err(err).Str("producer", producer.Name).Msg("error opening smart backend")
			return
		}
		defer closeReader()

		log.Info().Str("producer", producer.Name).Msg("--- disk health metrics ---")
		if err := diskhealthmetrics.StartMonitoring(ctx, reader, settings, store); err != nil {
			log.Error().Err(err).Str("producer", producer.Name).Msg("disk health monitoring failed")
		}
	default:
		log.Warn().Msgf("unknown producer type: %s", producer.Type)
	}
}

// Reload applies the thresholds of cfg to running producers with the same name.
// Other settings take effect on restart.
func (r *Runner) Reload(cfg *Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range cfg.Producers {
		store, ok := r.thresholds[p.Name]
		if !ok || p.Type != typeDiskHealthMetrics {
			continue
		}
		t := ThresholdSettings(p.Settings)
		store.Set(t)
		log.Info().Str("producer", p.Name).Interface("thresholds", t).Msg("thresholds reloaded")
	}
}
