// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package diskhealthmetrics

import "sync"

type DiskHealthMetricsConfig struct {
	Backend        string
	NatsURL        string
	NatsSubject    string
	UseNats        bool
	Prometheus     bool
	PrometheusPort int
	Disks          []string
	Interval       int // in seconds
	NodeName       string
	InstanceID     string

	Thresholds Thresholds

	// S3 compatible bucket for report snapshots, disabled when empty.
	ArchiveBucket    string
	ArchiveEndpoint  string
	ArchiveRegion    string
	ArchiveAccessKey string
	ArchiveSecretKey string
	ArchivePrefix    string

	CephOSDBasePath string
}

// Thresholds above which a NATS event becomes an alert.
type Thresholds struct {
	GrownDefects       int64
	PendingSectors     int64
	ReallocatedSectors int64
	TemperatureCelsius int64
}

// ThresholdStore holds thresholds that may change while monitoring runs.
type ThresholdStore struct {
	mu sync.RWMutex
	t  Thresholds
}

func NewThresholdStore(t Thresholds) *ThresholdStore {
	return &ThresholdStore{t: t}
}

func (s *ThresholdStore) Get() Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t
}

func (s *ThresholdStore) Set(t Thresholds) {
	s.mu.Lock()
	s.t = t
	s.mu.Unlock()
}
