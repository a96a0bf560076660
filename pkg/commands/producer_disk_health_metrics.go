// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/smartprobe/pkg/producers/diskhealthmetrics"
)

var (
	dhmNatsURL                     string
	dhmNatsSubject                 string
	dhmPromEnabled                 bool
	dhmPromPort                    int
	dhmDisksFlag                   string
	dhmNodeName                    string
	dhmInstanceID                  string
	dhmInterval                    int
	dhmGrownDefectsThreshold       int64
	dhmPendingSectorsThreshold     int64
	dhmReallocatedSectorsThreshold int64
	dhmTemperatureThreshold        int64
	dhmArchiveBucket               string
	dhmArchiveEndpoint             string
	dhmArchivePrefix               string
	dhmCephOSDBasePath             string
)

var diskHealthMetricsCmd = &cobra.Command{
	Use:   "disk-health-metrics",
	Short: "Disk health metrics collector and media error logger",
	RunE: func(cmd *cobra.Command, args []string) error {
		config := diskhealthmetrics.DiskHealthMetricsConfig{
			Backend:         backendName,
			NatsURL:         dhmNatsURL,
			NatsSubject:     dhmNatsSubject,
			Prometheus:      dhmPromEnabled,
			PrometheusPort:  dhmPromPort,
			Disks:           splitDisks(dhmDisksFlag),
			NodeName:        dhmNodeName,
			InstanceID:      dhmInstanceID,
			Interval:        dhmInterval,
			ArchiveBucket:   dhmArchiveBucket,
			ArchiveEndpoint: dhmArchiveEndpoint,
			ArchivePrefix:   dhmArchivePrefix,
			CephOSDBasePath: dhmCephOSDBasePath,
			Thresholds: diskhealthmetrics.Thresholds{
				GrownDefects:       dhmGrownDefectsThreshold,
				PendingSectors:     dhmPendingSectorsThreshold,
				ReallocatedSectors: dhmReallocatedSectorsThreshold,
				TemperatureCelsius: dhmTemperatureThreshold,
			},
		}

		config = mergeDiskHealthMetricsConfigWithEnv(config)

		config.UseNats = config.NatsURL != ""

		event := log.Info()
		event.Bool("use_nats", config.UseNats)
		if config.UseNats {
			event.Str("nats_url", config.NatsURL)
			event.Str("nats_subject", config.NatsSubject)
		}

		event.Bool("prometheus_enabled", config.Prometheus)
		if config.Prometheus {
			event.Int("prometheus_port", config.PrometheusPort)
		}

		event.Str("backend", config.Backend).
			Str("disks", fmt.Sprintf("%v", config.Disks)).
			Str("node_name", config.NodeName).
			Str("instance_id", config.InstanceID).
			Int("interval_seconds", config.Interval).
			Str("archive_bucket", config.ArchiveBucket)

		event.Msg("configuration_loaded")

		if err := validateDiskHealthMetricsConfig(config); err != nil {
			return err
		}

		client, err := setUpClient(cmd.Context(), config.Backend)
		if err != nil {
			return err
		}
		defer client.Close()

		return diskhealthmetrics.StartMonitoring(cmd.Context(), client, config, diskhealthmetrics.NewThresholdStore(config.Thresholds))
	},
}

func splitDisks(s string) []string {
	var disks []string
	for _, d := range strings.Split(s, ",") {
		if d = strings.TrimSpace(d); d != "" {
			disks = append(disks, d)
		}
	}
	return disks
}

func mergeDiskHealthMetricsConfigWithEnv(cfg diskhealthmetrics.DiskHealthMetricsConfig) diskhealthmetrics.DiskHealthMetricsConfig {
	cfg.NatsURL = getEnv("NATS_URL", cfg.NatsURL)
	cfg.NatsSubject = getEnv("NATS_SUBJECT", cfg.NatsSubject)
	cfg.Prometheus = getEnvBool("PROMETHEUS", cfg.Prometheus)
	cfg.PrometheusPort = getEnvInt("PROMETHEUS_PORT", cfg.PrometheusPort)
	if disksEnv := getEnv("DISKS", ""); disksEnv != "" {
		cfg.Disks = splitDisks(disksEnv)
	}
	cfg.NodeName = getEnv("NODE_NAME", cfg.NodeName)
	cfg.InstanceID = getEnv("INSTANCE_ID", cfg.InstanceID)
	cfg.Interval = getEnvInt("INTERVAL", cfg.Interval)
	cfg.Thresholds.GrownDefects = getEnvInt64("GROWN_DEFECTS_THRESHOLD", cfg.Thresholds.GrownDefects)
	cfg.Thresholds.PendingSectors = getEnvInt64("PENDING_SECTORS_THRESHOLD", cfg.Thresholds.PendingSectors)
	cfg.Thresholds.ReallocatedSectors = getEnvInt64("REALLOCATED_SECTORS_THRESHOLD", cfg.Thresholds.ReallocatedSectors)
	cfg.Thresholds.TemperatureCelsius = getEnvInt64("TEMPERATURE_THRESHOLD", cfg.Thresholds.TemperatureCelsius)
	cfg.ArchiveBucket = getEnv("ARCHIVE_BUCKET", cfg.ArchiveBucket)
	cfg.ArchiveEndpoint = getEnv("ARCHIVE_ENDPOINT", cfg.ArchiveEndpoint)
	cfg.ArchiveRegion = getEnv("ARCHIVE_REGION", cfg.ArchiveRegion)
	cfg.ArchiveAccessKey = getEnv("ARCHIVE_ACCESS_KEY", cfg.ArchiveAccessKey)
	cfg.ArchiveSecretKey = getEnv("ARCHIVE_SECRET_KEY", cfg.ArchiveSecretKey)
	cfg.ArchivePrefix = getEnv("ARCHIVE_PREFIX", cfg.ArchivePrefix)
	cfg.CephOSDBasePath = getEnv("CEPH_OSD_BASE_PATH", cfg.CephOSDBasePath)

	return cfg
}

func init() {
	diskHealthMetricsCmd.Flags().StringVar(&dhmNatsURL, "nats-url", "", "NATS server URL")
	diskHealthMetricsCmd.Flags().StringVar(&dhmNatsSubject, "nats-subject", "osd.disk.health", "NATS subject to publish metrics")
	diskHealthMetricsCmd.Flags().BoolVar(&dhmPromEnabled, "prometheus", false, "Enable Prometheus metrics")
	diskHealthMetricsCmd.Flags().IntVar(&dhmPromPort, "prometheus-port", 8080, "Prometheus metrics port")
	diskHealthMetricsCmd.Flags().StringVar(&dhmDisksFlag, "disks", "*", "Comma separated list of disks to monitor, * discovers all ATA/SCSI disks")
	diskHealthMetricsCmd.Flags().StringVar(&dhmNodeName, "node-name", "", "Node name, defaults to the host name")
	diskHealthMetricsCmd.Flags().StringVar(&dhmInstanceID, "instance-id", "", "Instance ID")
	diskHealthMetricsCmd.Flags().IntVar(&dhmInterval, "interval", 60, "Interval in seconds between metric collections")
	diskHealthMetricsCmd.Flags().Int64Var(&dhmGrownDefectsThreshold, "grown-defects-threshold", 10, "Threshold for grown defects to trigger a warning")
	diskHealthMetricsCmd.Flags().Int64Var(&dhmPendingSectorsThreshold, "pending-sectors-threshold", 3, "Threshold for pending sectors to trigger a warning")
	diskHealthMetricsCmd.Flags().Int64Var(&dhmReallocatedSectorsThreshold, "reallocated-sectors-threshold", 10, "Threshold for reallocated sectors to trigger a warning")
	diskHealthMetricsCmd.Flags().Int64Var(&dhmTemperatureThreshold, "temperature-threshold", 80, "Temperature in Celsius above which a warning is raised, 0 disables")
	diskHealthMetricsCmd.Flags().StringVar(&dhmArchiveBucket, "archive-bucket", "", "S3 bucket for report snapshots")
	diskHealthMetricsCmd.Flags().StringVar(&dhmArchiveEndpoint, "archive-endpoint", "", "S3 endpoint, e.g. the Ceph RGW")
	diskHealthMetricsCmd.Flags().StringVar(&dhmArchivePrefix, "archive-prefix", "smart", "Key prefix for report snapshots")
	diskHealthMetricsCmd.Flags().StringVar(&dhmCephOSDBasePath, "ceph-osd-base-path", "", "Ceph OSD data directory used to map disks to OSD IDs")
}

func validateDiskHealthMetricsConfig(config diskhealthmetrics.DiskHealthMetricsConfig) error {
	var missing []string
	if len(config.Disks) == 0 {
		missing = append(missing, "--disks or DISKS must be set")
	}
	if config.Interval <= 0 {
		missing = append(missing, "--interval or INTERVAL must be positive")
	}
	if config.Prometheus && config.PrometheusPort <= 0 {
		missing = append(missing, "--prometheus-port or PROMETHEUS_PORT must be positive")
	}
	if len(missing) > 0 {
		return errors.New(strings.Join(missing, "; "))
	}
	return nil
}
