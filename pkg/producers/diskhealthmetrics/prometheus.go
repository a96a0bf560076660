// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package diskhealthmetrics

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var diskLabels = []string{"disk", "node", "instance"}

var (
	smartAttributesGaugeVec = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "smart_attributes",
			Help: "Pretty value of the SMART attributes of the disk",
		},
		[]string{"disk", "attribute", "node", "instance"},
	)

	smartAttributeFailingGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "smart_attribute_failing",
			Help: "1 if the normalized value is at or below the threshold",
		},
		[]string{"disk", "attribute", "node", "instance"},
	)

	healthStatusGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "disk_health_status",
			Help: "Overall SMART health verdict (1 passed, 0 failed)",
		},
		diskLabels,
	)

	temperatureGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "disk_temperature_celsius",
			Help: "Disk temperature in Celsius",
		},
		diskLabels,
	)

	reallocatedSectorsGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "disk_reallocated_sectors",
			Help: "Number of reallocated sectors or grown defects",
		},
		diskLabels,
	)

	pendingSectorsGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "disk_pending_sectors",
			Help: "Number of pending sectors",
		},
		diskLabels,
	)

	powerOnHoursGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "disk_power_on_hours",
			Help: "Number of hours the disk has been powered on",
		},
		diskLabels,
	)

	errorCountsGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "disk_error_counts",
			Help: "Various error counts for the disk",
		},
		[]string{"disk", "node", "instance", "error_type"},
	)

	selfTestGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "disk_self_test_state",
			Help: "1 for the current self-test state of the disk",
		},
		[]string{"disk", "node", "instance", "state"},
	)

	informationalExceptionGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "disk_informational_exception",
			Help: "1 while a SCSI informational exception is reported",
		},
		[]string{"disk", "node", "instance", "exception"},
	)
)

func init() {
	prometheus.MustRegister(smartAttributesGaugeVec)
	prometheus.MustRegister(smartAttributeFailingGauge)
	prometheus.MustRegister(healthStatusGauge)
	prometheus.MustRegister(temperatureGauge)
	prometheus.MustRegister(reallocatedSectorsGauge)
	prometheus.MustRegister(pendingSectorsGauge)
	prometheus.MustRegister(powerOnHoursGauge)
	prometheus.MustRegister(errorCountsGauge)
	prometheus.MustRegister(selfTestGauge)
	prometheus.MustRegister(informationalExceptionGauge)
}

func setOptional(g *prometheus.GaugeVec, labels prometheus.Labels, v *int64) {
	if v != nil {
		g.With(labels).Set(float64(*v))
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// PublishToPrometheus publishes the SMART data to Prometheus
func PublishToPrometheus(metrics []NormalizedSmartData) {
	for _, metric := range metrics {
		labels := prometheus.Labels{
			"disk":     metric.Device,
			"node":     metric.NodeName,
			"instance": metric.InstanceID,
		}

		if metric.HealthStatus != nil {
			healthStatusGauge.With(labels).Set(boolGauge(*metric.HealthStatus))
		}
		setOptional(temperatureGauge, labels, metric.TemperatureCelsius)
		setOptional(reallocatedSectorsGauge, labels, metric.ReallocatedSectors)
		setOptional(pendingSectorsGauge, labels, metric.PendingSectors)
		setOptional(powerOnHoursGauge, labels, metric.PowerOnHours)

		for errorType, count := range metric.ErrorCounts {
			errorCountsGauge.With(prometheus.Labels{
				"disk":       metric.Device,
				"node":       metric.NodeName,
				"instance":   metric.InstanceID,
				"error_type": errorType,
			}).Set(float64(count))
		}

		for attrName, attr := range metric.Attributes {
			attrLabels := prometheus.Labels{
				"disk":      metric.Device,
				"attribute": attrName,
				"node":      metric.NodeName,
				"instance":  metric.InstanceID,
			}
			smartAttributesGaugeVec.With(attrLabels).Set(float64(attr.PrettyValue))
			smartAttributeFailingGauge.With(attrLabels).Set(boolGauge(attr.FailingNow))
		}

		if metric.SelfTest.State != "" {
			selfTestGauge.DeletePartialMatch(labels)
			selfTestGauge.With(prometheus.Labels{
				"disk":     metric.Device,
				"node":     metric.NodeName,
				"instance": metric.InstanceID,
				"state":    metric.SelfTest.State,
			}).Set(1)
		}

		informationalExceptionGauge.DeletePartialMatch(labels)
		if metric.IEString != "" {
			informationalExceptionGauge.With(prometheus.Labels{
				"disk":      metric.Device,
				"node":      metric.NodeName,
				"instance":  metric.InstanceID,
				"exception": metric.IEString,
			}).Set(1)
		}
	}
}

func StartPrometheusServer(port int) {
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		log.Info().Msgf("starting prometheus metrics server on :%d", port)
		err := http.ListenAndServe(fmt.Sprintf(":%d", port), nil)
		if err != nil {
			log.Fatal().Err(err).Msg("error starting prometheus metrics server")
		}
	}()
}
