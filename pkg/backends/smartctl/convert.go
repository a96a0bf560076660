// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartctl

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
)

const scsiSelfTestKey = "scsi_self_test_"

// ATAHealth maps the output onto the ATA health report.
func (o *Output) ATAHealth() *smart.AtaHealth {
	vendor := smart.FindVendor(o.ModelName, o.ModelFamily)
	h := &smart.AtaHealth{
		SmartSupported: o.SmartSupport.Available,
		SmartEnabled:   o.SmartSupport.Enabled,
		Identity: smart.Identity{
			Model:          o.ModelName,
			Serial:         o.SerialNumber,
			Firmware:       o.FirmwareVersion,
			Vendor:         vendor,
			SmartSupported: o.SmartSupport.Available,
			SmartEnabled:   o.SmartSupport.Enabled,
		},
	}
	if !h.SmartSupported || !h.SmartEnabled {
		return h
	}
	h.OverallStatusPassed = o.SmartStatus.Passed

	if o.ATASMARTAttributes != nil {
		for _, e := range o.ATASMARTAttributes.Table {
			if e.ID <= 0 || e.ID > 255 {
				continue
			}
			h.Attributes = append(h.Attributes, smart.BuildAttribute(smart.AttributeFields{
				ID:        uint8(e.ID),
				Name:      e.Name,
				Flags:     uint16(e.Flags.Value),
				Value:     smart.NormalizedFromInt(e.Value),
				Worst:     smart.NormalizedFromInt(e.Worst),
				Threshold: smart.NormalizedFromInt(e.Thresh),
				Raw:       uint64(e.Raw.Value),
			}, vendor))
		}
	}

	if d := o.ATASmartData; d != nil {
		h.OfflineDataCollectionStatus, h.AutoOfflineDataCollectionEnabled = smart.DecodeOfflineStatus(uint8(d.OfflineDataCollection.Status.Value))
		h.OfflineDataCollectionCompletion = int(d.OfflineDataCollection.CompletionSeconds)

		exec := uint8(d.SelfTest.Status.Value)
		h.SelfTestStatus = smart.SelfTestStatus(exec >> 4)
		h.SelfTestPercentRemaining = int(exec&0x0f) * 10
		h.SelfTestPollingShort = int(d.SelfTest.PollingMinutes.Short)
		h.SelfTestPollingExtended = int(d.SelfTest.PollingMinutes.Extended)
		h.SelfTestPollingConveyance = int(d.SelfTest.PollingMinutes.Conveyance)

		c := d.Capabilities
		if len(c.Values) > 0 {
			h.OfflineDataCollectionCapabilities = smart.OfflineCapabilities(c.Values[0])
		}
		if c.AttributeAutosaveEnabled {
			h.SmartCapabilities |= smart.CapAttributeAutosave
		}
		if len(c.Values) > 1 && c.Values[1]&0x0002 != 0 {
			h.SmartCapabilities |= smart.CapAutosaveTimer
		}
		if c.ErrorLoggingSupported {
			h.SmartCapabilities |= smart.CapErrorLogging
		}
		if c.GPLoggingSupported {
			h.SmartCapabilities |= smart.CapGPLogging
		}
	}

	if l := o.ATASelfTestLog; l != nil {
		for _, e := range l.Standard.Table {
			h.SelfTestLog = append(h.SelfTestLog, smart.SelfTestLogEntry{
				Type:             smart.ATASelfTestType(uint8(e.Type.Value)),
				Status:           smart.SelfTestStatus(uint8(e.Status.Value) >> 4),
				PercentRemaining: int(e.Status.Value&0x0f) * 10,
				LifetimeHours:    uint64(e.LifetimeHours),
				FailingLBA:       uint64(e.LBA),
			})
		}
	}

	h.DeriveFields()
	if h.PowerOnMinutes == 0 && o.PowerOnTime.Hours > 0 {
		h.PowerOnMinutes = uint64(o.PowerOnTime.Hours*60 + o.PowerOnTime.Minutes)
	}
	if h.PowerCycleCount == 0 && o.PowerCycleCount > 0 {
		h.PowerCycleCount = uint64(o.PowerCycleCount)
	}
	if h.Temperature == 0 && o.Temperature.Current > 0 {
		h.Temperature = smart.KelvinFromCelsius(int(o.Temperature.Current))
	}
	return h
}

// SCSIHealth maps the output onto the SCSI health report.
func (o *Output) SCSIHealth() *smart.ScsiHealth {
	h := &smart.ScsiHealth{
		SmartSupported:      o.SmartSupport.Available,
		SmartEnabled:        o.SmartSupport.Enabled,
		OverallStatusPassed: o.SmartStatus.Passed,
		ScsiGrownDefectList: uint64(o.SCSIGrownDefectList),
		PowerOnTime:         uint64(o.PowerOnTime.Hours*60 + o.PowerOnTime.Minutes),
	}
	// A passing disk carries no exception, whatever ASC smartctl echoes.
	if ie := o.SmartStatus.SCSI; ie != nil && !h.OverallStatusPassed {
		h.IEASC = uint8(ie.ASC)
		h.IEASCQ = uint8(ie.ASCQ)
		h.ScsiIE = smart.ClassifyIE(h.IEASC, h.IEASCQ)
		h.IEString = ie.IEString
		if h.IEString == "" {
			h.IEString = h.ScsiIE.String()
		}
	}
	if o.TemperatureWarning != nil {
		h.TemperatureWarningEnabled = o.TemperatureWarning.Enabled
	}
	if o.Temperature.Current > 0 {
		h.Temperature = smart.KelvinFromCelsius(int(o.Temperature.Current))
	}
	if o.Temperature.DriveTrip > 0 {
		h.TemperatureDriveTrip = smart.KelvinFromCelsius(int(o.Temperature.DriveTrip))
	}
	if ec := o.SCSIErrorCounterLog; ec != nil {
		h.Read = errorCounters(ec.Read)
		h.Write = errorCounters(ec.Write)
	}
	if ss := o.SCSIStartStopCycleCounter; ss != nil {
		h.StartStopCycleCount = uint64(ss.AccumulatedStartStopCycles)
		h.StartStopCycleLifetime = uint64(ss.SpecifiedCycleCountOverDeviceLifetime)
		h.LoadUnloadCycleCount = uint64(ss.AccumulatedLoadUnloadCycles)
		h.LoadUnloadCycleLifetime = uint64(ss.SpecifiedLoadUnloadCountOverDeviceLifetime)
	}
	if bs := o.SCSIBackgroundScan; bs != nil {
		h.BackgroundScanStatus = smart.BackgroundScanStatus(bs.Status.Value)
		h.BackgroundScanRuns = uint64(bs.Status.NumberScansPerformed)
		h.BackgroundMediumScanRuns = uint64(bs.Status.NumberMediumScansPerformed)
		h.BackgroundScanProgress = parsePercent(bs.Status.ScanProgress)
	}
	h.SelfTestLog = o.scsiSelfTestLog()
	return h
}

// SelfTestProgress derives the current self-test state the way the native
// backend does from the raw pages.
func (o *Output) SelfTestProgress(tech smart.Tech) smart.SelfTestProgress {
	if tech == smart.TechATA {
		h := o.ATAHealth()
		return smart.ATASelfTestState(h.SelfTestStatus, h.SelfTestPercentRemaining, h.SelfTestLog)
	}
	return smart.SCSISelfTestState(o.scsiSelfTestLog())
}

// scsiSelfTestLog orders scsi_self_test_N by N, most recent first.
func (o *Output) scsiSelfTestLog() []smart.SelfTestLogEntry {
	type numbered struct {
		n int
		e SCSISelfTest
	}
	var tests []numbered
	for k, e := range o.SCSISelfTestLog {
		n, err := strconv.Atoi(strings.TrimPrefix(k, scsiSelfTestKey))
		if err != nil {
			continue
		}
		tests = append(tests, numbered{n, e})
	}
	sort.Slice(tests, func(i, j int) bool { return tests[i].n < tests[j].n })

	var log []smart.SelfTestLogEntry
	for _, t := range tests {
		entry := smart.SelfTestLogEntry{
			Type:          smart.SCSISelfTestType(uint8(t.e.Code.Value)),
			Status:        smart.SCSISelfTestResult(uint8(t.e.Result.Value)),
			LifetimeHours: uint64(t.e.PowerOnTime.Hours),
		}
		if t.e.LBAFirstFailure.Value > 0 {
			entry.FailingLBA = uint64(t.e.LBAFirstFailure.Value)
		}
		log = append(log, entry)
	}
	return log
}

func errorCounters(d SCSIErrorDetails) smart.ErrorCounters {
	return smart.ErrorCounters{
		CorrectedECCFast:               uint64(d.ErrorsCorrectedByECCFast),
		CorrectedECCDelayed:            uint64(d.ErrorsCorrectedByECCDelayed),
		CorrectedRereads:               uint64(d.ErrorsCorrectedByReReads),
		TotalCorrected:                 uint64(d.TotalErrorsCorrected),
		CorrectionAlgorithmInvocations: uint64(d.CorrectionAlgorithmInvocations),
		BytesProcessed:                 gigabytesToBytes(d.GigabytesProcessed),
		Uncorrected:                    uint64(d.TotalUncorrectedErrors),
	}
}

// smartctl prints processed volume as decimal gigabytes, e.g. "52305.263".
func gigabytesToBytes(s string) uint64 {
	gb, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || gb < 0 {
		return 0
	}
	return uint64(math.Round(gb * 1e9))
}

func parsePercent(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return 0
	}
	return v
}
