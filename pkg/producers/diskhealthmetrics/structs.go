// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package diskhealthmetrics

import "time"

// NormalizedSmartData is the per-disk record published by the monitor. ATA
// and SCSI reports are flattened onto the same fields.
type NormalizedSmartData struct {
	NodeName           string                    `json:"node_name"`
	InstanceID         string                    `json:"instance_id"`
	Device             string                    `json:"device"`
	OSDID              string                    `json:"osd_id,omitempty"`
	Tech               string                    `json:"tech"`
	DeviceInfo         *DeviceInfo               `json:"device_info"`
	HealthStatus       *bool                     `json:"health_status"` // nil if the verdict is unknown
	TemperatureCelsius *int64                    `json:"temperature_celsius"`
	ReallocatedSectors *int64                    `json:"reallocated_sectors"`
	PendingSectors     *int64                    `json:"pending_sectors"`
	PowerOnHours       *int64                    `json:"power_on_hours"`
	SelfTest           SelfTestSummary           `json:"self_test"`
	IEString           string                    `json:"informational_exception,omitempty"`
	FailingAttributes  []string                  `json:"failing_attributes,omitempty"`
	CriticalFailedPast []string                  `json:"critical_failed_past,omitempty"`
	ErrorCounts        map[string]int64          `json:"error_counts"`
	Attributes         map[string]SmartAttribute `json:"attributes"`
	CollectedAt        time.Time                 `json:"collected_at"`
}

type SelfTestSummary struct {
	State            string `json:"state"`
	Status           string `json:"status"`
	PercentRemaining int    `json:"percent_remaining"`
}

// NatsEvent represents an event to be published to NATS
type NatsEvent struct {
	EventID    string            `json:"event_id"`
	NodeName   string            `json:"node_name"`
	InstanceID string            `json:"instance_id"`
	Device     string            `json:"device"`
	EventType  string            `json:"event_type"` // e.g., 'health', 'health_alert', 'failure_alert'
	Severity   string            `json:"severity"` // e.g., 'info', 'warning', 'critical'
	Message    string            `json:"message"`
	Details    map[string]string `json:"details"`
	Timestamp  time.Time         `json:"timestamp"`
}

type DeviceInfo struct {
	DeviceModel     string `json:"device_model"`
	SerialNumber    string `json:"serial_number"`
	FirmwareVersion string `json:"firmware_version"`
	Vendor          string `json:"vendor"`
	ModelFamily     string `json:"model_family,omitempty"` // OEM relationship when detected
	Media           string `json:"media"` // "hdd" or "ssd"
	HealthStatus    bool   `json:"health_status"`
}

// SmartAttribute is one ATA attribute keyed by its well-known or vendor name.
type SmartAttribute struct {
	ID          uint8  `json:"id"`
	Unit        string `json:"unit"`
	Threshold   int64  `json:"threshold"` // -1 when unknown
	Value       int64  `json:"value"`
	Worst       int64  `json:"worst"`
	RawValue    int64  `json:"raw_value"`
	PrettyValue int64  `json:"pretty_value"`
	FailingNow  bool   `json:"failing_now"`
	FailedPast  bool   `json:"failed_past"`
}
