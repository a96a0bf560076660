// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package diskhealthmetrics periodically reads the SMART health of the
// configured disks and publishes it to Prometheus, NATS, stdout and an
// optional S3 archive.
package diskhealthmetrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
)

// Backends that cannot issue SMART RETURN STATUS report no verdict.
var verdictlessBackends = map[string]bool{"libsmart": true}

// HealthReader is the part of smart.Client the monitor uses.
type HealthReader interface {
	ATAGetInfo(ctx context.Context, device string, extra ...smart.ExtraArg) (*smart.AtaHealth, error)
	SCSIGetInfo(ctx context.Context, device string, extra ...smart.ExtraArg) (*smart.ScsiHealth, error)
	BackendName() string
}

type collector struct {
	reader HealthReader
	osds   *osdMapper
	now    func() time.Time
}

// collectDisk reads one disk as ATA first and falls back to SCSI when the
// device turns out not to speak ATA.
func (c *collector) collectDisk(ctx context.Context, disk string) (NormalizedSmartData, error) {
	ata, err := c.reader.ATAGetInfo(ctx, disk)
	if err == nil {
		data := normalizeATA(disk, ata)
		if verdictlessBackends[c.reader.BackendName()] {
			data.HealthStatus = nil
		}
		return data, nil
	}
	if !errors.Is(err, smart.ErrInvalidArgument) && !errors.Is(err, smart.ErrTechUnavail) {
		return NormalizedSmartData{}, err
	}
	log.Debug().Err(err).Str("disk", disk).Msg("not an ata device, trying scsi")

	scsi, err := c.reader.SCSIGetInfo(ctx, disk)
	if err != nil {
		return NormalizedSmartData{}, err
	}
	return normalizeSCSI(disk, scsi), nil
}

func (c *collector) collect(ctx context.Context, cfg DiskHealthMetricsConfig) []NormalizedSmartData {
	var allMetrics []NormalizedSmartData
	now := c.now().UTC()

	for _, disk := range cfg.Disks {
		data, err := c.collectDisk(ctx, disk)
		if err != nil {
			log.Error().Err(err).Str("disk", disk).Msg("error reading smart data")
			continue
		}
		data.NodeName = cfg.NodeName
		data.InstanceID = cfg.InstanceID
		data.OSDID = c.osds.OSDID(disk)
		data.CollectedAt = now
		allMetrics = append(allMetrics, data)
	}
	return allMetrics
}

// StartMonitoring collects every cfg.Interval seconds until ctx is done.
func StartMonitoring(ctx context.Context, reader HealthReader, cfg DiskHealthMetricsConfig, thresholds *ThresholdStore) error {
	disks, err := resolveDisks(cfg.Disks, discoverDevices)
	if err != nil {
		return fmt.Errorf("error discovering devices: %w", err)
	}
	cfg.Disks = disks
	if len(cfg.Disks) == 0 {
		return errors.New("no devices found for monitoring")
	}
	if cfg.NodeName == "" {
		cfg.NodeName = defaultNodeName()
	}
	if IsVirtualized() {
		log.Warn().Msg("running on a virtualized system, disks may not report smart data")
	}
	log.Info().Strs("devices", cfg.Disks).Str("backend", reader.BackendName()).Msg("devices for monitoring")

	var nc *nats.Conn
	if cfg.UseNats {
		nc, err = nats.Connect(cfg.NatsURL)
		if err != nil {
			return fmt.Errorf("error connecting to nats: %w", err)
		}
		defer nc.Close()
	}

	if cfg.Prometheus {
		StartPrometheusServer(cfg.PrometheusPort)
	}

	archive, err := NewArchive(ctx, cfg)
	if err != nil {
		return err
	}

	c := &collector{
		reader: reader,
		osds:   newOSDMapper(cfg.CephOSDBasePath),
		now:    time.Now,
	}

	ticker := time.NewTicker(time.Duration(cfg.Interval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("disk health monitoring stopped")
			return nil
		case <-ticker.C:
		}

		metrics := c.collect(ctx, cfg)

		if cfg.Prometheus {
			PublishToPrometheus(metrics)
		}

		if cfg.UseNats {
			if err := PublishToNATS(metrics, nc, cfg.NatsSubject, thresholds.Get()); err != nil {
				log.Error().Err(err).Msg("error publishing metrics to nats")
			}
		} else {
			metricsJSON, err := json.Marshal(metrics)
			if err != nil {
				log.Error().Err(err).Msg("error marshalling metrics to json")
				continue
			}
			fmt.Println(string(metricsJSON))
		}

		if err := archive.Store(ctx, cfg.NodeName, metrics); err != nil {
			log.Error().Err(err).Msg("error archiving metrics")
		}
	}
}
