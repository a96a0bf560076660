// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package diskhealthmetrics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
)

const (
	severityInfo     = "info"
	severityWarning  = "warning"
	severityCritical = "critical"

	eventHealth        = "health"
	eventHealthAlert   = "health_alert"
	eventFailureAlert  = "failure_alert"
	eventSelfTestAlert = "self_test_alert"
)

// convertToNatsEvent converts NormalizedSmartData to a NatsEvent
func convertToNatsEvent(data NormalizedSmartData, thresholds Thresholds) NatsEvent {
	details := make(map[string]string)

	if data.TemperatureCelsius != nil {
		details["TemperatureCelsius"] = fmt.Sprintf("%d", *data.TemperatureCelsius)
	}
	if data.ReallocatedSectors != nil {
		details["ReallocatedSectors"] = fmt.Sprintf("%d", *data.ReallocatedSectors)
	}
	if data.PendingSectors != nil {
		details["PendingSectors"] = fmt.Sprintf("%d", *data.PendingSectors)
	}
	if data.PowerOnHours != nil {
		details["PowerOnHours"] = fmt.Sprintf("%d", *data.PowerOnHours)
	}
	if data.SelfTest.State != "" {
		details["SelfTestState"] = data.SelfTest.State
	}
	if data.OSDID != "" {
		details["OSDID"] = data.OSDID
	}
	for name, count := range data.ErrorCounts {
		details[name] = fmt.Sprintf("%d", count)
	}

	severity, eventType := checkAndSetThresholds(details, data, thresholds)

	return NatsEvent{
		EventID:    uuid.NewString(),
		NodeName:   data.NodeName,
		InstanceID: data.InstanceID,
		Device:     data.Device,
		EventType:  eventType,
		Severity:   severity,
		Message:    generateMessage(details),
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}
}

// checkAndSetThresholds checks critical SMART metrics against thresholds,
// annotates details and returns the resulting severity and event type. A
// failing verdict outranks every threshold.
func checkAndSetThresholds(details map[string]string, data NormalizedSmartData, t Thresholds) (string, string) {
	severity, eventType := severityInfo, eventHealth
	warn := func() {
		if severity == severityInfo {
			severity, eventType = severityWarning, eventHealthAlert
		}
	}

	if data.Tech == smart.TechSCSI.String() && data.ReallocatedSectors != nil && *data.ReallocatedSectors > t.GrownDefects {
		details["GrownDefects"] = fmt.Sprintf("%d (Warning: Exceeds threshold of %d)", *data.ReallocatedSectors, t.GrownDefects)
		warn()
	}
	if data.PendingSectors != nil && *data.PendingSectors > t.PendingSectors {
		details["PendingSectors"] = fmt.Sprintf("%d (Warning: Exceeds threshold of %d)", *data.PendingSectors, t.PendingSectors)
		warn()
	}
	if data.Tech == smart.TechATA.String() && data.ReallocatedSectors != nil && *data.ReallocatedSectors > t.ReallocatedSectors {
		details["ReallocatedSectors"] = fmt.Sprintf("%d (Warning: Exceeds threshold of %d)", *data.ReallocatedSectors, t.ReallocatedSectors)
		warn()
	}
	if t.TemperatureCelsius > 0 && data.TemperatureCelsius != nil && *data.TemperatureCelsius > t.TemperatureCelsius {
		details["Temperature"] = fmt.Sprintf("%d (Warning: Exceeds threshold of %d)", *data.TemperatureCelsius, t.TemperatureCelsius)
		warn()
	}
	if data.SelfTest.State == smart.StateCompletedFail.String() {
		details["SelfTest"] = fmt.Sprintf("failed: %s", data.SelfTest.Status)
		severity, eventType = severityWarning, eventSelfTestAlert
	}

	if len(data.CriticalFailedPast) > 0 {
		past := append([]string(nil), data.CriticalFailedPast...)
		sort.Strings(past)
		details["CriticalFailedPast"] = strings.Join(past, ",")
		warn()
	}

	if len(data.FailingAttributes) > 0 {
		failing := append([]string(nil), data.FailingAttributes...)
		sort.Strings(failing)
		details["FailingAttributes"] = strings.Join(failing, ",")
		severity, eventType = severityCritical, eventFailureAlert
	}
	if data.IEString != "" {
		details["InformationalException"] = data.IEString
		severity, eventType = severityCritical, eventFailureAlert
	}
	if data.HealthStatus != nil && !*data.HealthStatus {
		details["HealthStatus"] = "FAILED"
		severity, eventType = severityCritical, eventFailureAlert
	}
	return severity, eventType
}

// generateMessage generates a summary message based on the details.
func generateMessage(details map[string]string) string {
	if _, found := details["HealthStatus"]; found {
		return "SMART overall health check failed."
	}
	if ie, found := details["InformationalException"]; found {
		return fmt.Sprintf("SMART informational exception reported: %s.", ie)
	}
	if _, found := details["FailingAttributes"]; found {
		return "SMART attributes at or below their failure threshold."
	}
	if _, found := details["SelfTest"]; found {
		return "SMART self-test completed with an error."
	}
	if _, found := details["CriticalFailedPast"]; found {
		return "Failure predicting SMART attributes reached their threshold in the past."
	}
	if _, found := details["GrownDefects"]; found {
		return "SMART data indicates potential drive issues (grown defects)."
	}
	if _, found := details["PendingSectors"]; found {
		return "SMART data indicates potential drive issues (pending sectors)."
	}
	if _, found := details["ReallocatedSectors"]; found {
		return "SMART data indicates potential drive issues (reallocated sectors)."
	}
	if _, found := details["Temperature"]; found {
		return "Drive temperature above threshold."
	}
	return "SMART data collected successfully."
}

func PublishToNATS(metrics []NormalizedSmartData, nc *nats.Conn, subject string, thresholds Thresholds) error {
	for _, metric := range metrics {
		event := convertToNatsEvent(metric, thresholds)

		eventJSON, err := json.Marshal(event)
		if err != nil {
			return err
		}

		if err := nc.Publish(subject, eventJSON); err != nil {
			return err
		}
	}

	return nil
}
