// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package diskhealthmetrics

import (
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
)

const (
	attrReallocatedSectors = "reallocated-sector-count"
	attrPendingSectors     = "current-pending-sector"
	attrUDMACRCErrors      = "udma-crc-error-count"
	attrReportedUncorrect  = "reported-uncorrect"
)

// Wear attributes report remaining life; any of them marks the disk as an SSD.
var ssdWearAttributes = []string{
	"media-wearout-indicator",
	"wear-leveling-count",
	"percent-lifetime-remain",
	"endurance-remaining",
}

func celsius(kelvin float64) *int64 {
	if kelvin == 0 {
		return nil
	}
	c := int64(math.Round(kelvin - 273.15))
	return &c
}

func int64Ptr(v uint64) *int64 {
	i := int64(v)
	return &i
}

// attributeKey names an attribute by its well-known name, falling back to the
// lower-cased vendor name so unknown attributes stay distinguishable.
func attributeKey(a smart.Attribute) string {
	if a.WellKnownName != "" {
		return a.WellKnownName
	}
	return strings.ToLower(a.Name)
}

func newSmartAttribute(a smart.Attribute) SmartAttribute {
	return SmartAttribute{
		ID:          a.ID,
		Unit:        a.PrettyUnit.String(),
		Threshold:   int64(a.Threshold.Int()),
		Value:       int64(a.Value.Int()),
		Worst:       int64(a.Worst.Int()),
		RawValue:    int64(a.Raw),
		PrettyValue: a.PrettyValue,
		FailingNow:  a.FailingNow,
		FailedPast:  a.FailedPast,
	}
}

// FillDeviceInfo builds the device description from the IDENTIFY data.
func FillDeviceInfo(id smart.Identity, attrs map[string]SmartAttribute) *DeviceInfo {
	info := &DeviceInfo{
		DeviceModel:     id.Model,
		SerialNumber:    id.Serial,
		FirmwareVersion: id.Firmware,
		Vendor:          id.Vendor,
		Media:           "hdd",
	}
	for _, name := range ssdWearAttributes {
		if _, ok := attrs[name]; ok {
			info.Media = "ssd"
			break
		}
	}
	if info.Vendor == "" && info.DeviceModel != "" {
		log.Warn().Str("device_model", info.DeviceModel).Msg("Unknown vendor for device model")
	}
	enhanceDeviceInfo(info)
	return info
}

func normalizeATA(disk string, h *smart.AtaHealth) NormalizedSmartData {
	data := NormalizedSmartData{
		Device:      disk,
		Tech:        smart.TechATA.String(),
		ErrorCounts: map[string]int64{},
		Attributes:  map[string]SmartAttribute{},
	}
	for _, a := range h.Attributes {
		key := attributeKey(a)
		if _, dup := data.Attributes[key]; dup {
			continue
		}
		data.Attributes[key] = newSmartAttribute(a)
		if a.FailingNow {
			data.FailingAttributes = append(data.FailingAttributes, key)
		} else if a.Critical && a.FailedPast {
			data.CriticalFailedPast = append(data.CriticalFailedPast, key)
		}
	}
	data.DeviceInfo = FillDeviceInfo(h.Identity, data.Attributes)

	if !h.SmartSupported || !h.SmartEnabled {
		return data
	}

	passed := h.OverallStatusPassed
	data.HealthStatus = &passed
	data.DeviceInfo.HealthStatus = passed
	data.TemperatureCelsius = celsius(h.Temperature)
	if h.PowerOnMinutes > 0 {
		data.PowerOnHours = int64Ptr(h.PowerOnMinutes / 60)
	}
	// Sector counts live in the low 32 bits of the raw value.
	if a, ok := data.Attributes[attrReallocatedSectors]; ok {
		data.ReallocatedSectors = &a.PrettyValue
	}
	if a, ok := data.Attributes[attrPendingSectors]; ok {
		data.PendingSectors = &a.PrettyValue
	}
	if a, ok := data.Attributes[attrUDMACRCErrors]; ok {
		data.ErrorCounts["UDMA_CRC_Error_Count"] = a.RawValue
	}
	if a, ok := data.Attributes[attrReportedUncorrect]; ok {
		data.ErrorCounts["Reported_Uncorrect"] = a.RawValue
	}

	progress := smart.ATASelfTestState(h.SelfTestStatus, h.SelfTestPercentRemaining, h.SelfTestLog)
	data.SelfTest = SelfTestSummary{
		State:            progress.State.String(),
		Status:           h.SelfTestStatus.String(),
		PercentRemaining: progress.PercentRemaining,
	}
	return data
}

func normalizeSCSI(disk string, h *smart.ScsiHealth) NormalizedSmartData {
	passed := h.OverallStatusPassed
	data := NormalizedSmartData{
		Device:             disk,
		Tech:               smart.TechSCSI.String(),
		DeviceInfo:         &DeviceInfo{HealthStatus: passed},
		HealthStatus:       &passed,
		TemperatureCelsius: celsius(h.Temperature),
		ReallocatedSectors: int64Ptr(h.ScsiGrownDefectList),
		IEString:           h.IEString,
		ErrorCounts: map[string]int64{
			"read_total_corrected":    int64(h.Read.TotalCorrected),
			"read_total_uncorrected":  int64(h.Read.Uncorrected),
			"write_total_corrected":   int64(h.Write.TotalCorrected),
			"write_total_uncorrected": int64(h.Write.Uncorrected),
		},
		Attributes: map[string]SmartAttribute{},
	}
	if h.PowerOnTime > 0 {
		data.PowerOnHours = int64Ptr(h.PowerOnTime / 60)
	}

	progress := smart.SCSISelfTestState(h.SelfTestLog)
	data.SelfTest = SelfTestSummary{State: progress.State.String()}
	if len(h.SelfTestLog) > 0 {
		data.SelfTest.Status = h.SelfTestLog[0].Status.String()
	}
	return data
}
