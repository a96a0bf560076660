// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"encoding/json"
	"fmt"
)

// Tech is a device technology family.
type Tech int

const (
	TechATA Tech = iota
	TechSCSI
)

func (t Tech) String() string {
	switch t {
	case TechATA:
		return "ata"
	case TechSCSI:
		return "scsi"
	}
	return fmt.Sprintf("tech(%d)", int(t))
}

// ParseTech accepts the names printed by Tech.String.
func ParseTech(s string) (Tech, error) {
	switch s {
	case "ata", "ATA", "sat":
		return TechATA, nil
	case "scsi", "SCSI", "sas":
		return TechSCSI, nil
	}
	return 0, invalidArgf("parse tech", "unknown technology %q", s)
}

// Normalized is an optional normalized attribute value in [0,255].
type Normalized struct {
	v  uint8
	ok bool
}

func Known(v uint8) Normalized {
	return Normalized{v: v, ok: true}
}

var Unknown = Normalized{}

// NormalizedFromInt converts the -1 sentinel convention used by smartctl and older APIs.
func NormalizedFromInt(i int64) Normalized {
	if i < 0 || i > 255 {
		return Unknown
	}
	return Known(uint8(i))
}

func (n Normalized) Get() (uint8, bool) {
	return n.v, n.ok
}

func (n Normalized) Valid() bool {
	return n.ok
}

// Int returns the value or -1 when unknown.
func (n Normalized) Int() int {
	if !n.ok {
		return -1
	}
	return int(n.v)
}

func (n Normalized) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Int())
}

func (n *Normalized) UnmarshalJSON(b []byte) error {
	var i int64
	if err := json.Unmarshal(b, &i); err != nil {
		return err
	}
	*n = NormalizedFromInt(i)
	return nil
}

// AttributeUnit is the unit of Attribute.PrettyValue.
type AttributeUnit int

const (
	UnitUnknown AttributeUnit = iota
	UnitNone
	UnitMilliseconds
	UnitSectors
	UnitMillikelvin
	// UnitSmallPercent is a percentage with three decimal places (value / 1000).
	UnitSmallPercent
	UnitPercent
	UnitMegabytes
)

var unitNames = map[AttributeUnit]string{
	UnitUnknown:      "unknown",
	UnitNone:         "none",
	UnitMilliseconds: "mseconds",
	UnitSectors:      "sectors",
	UnitMillikelvin:  "mkelvin",
	UnitSmallPercent: "small_percent",
	UnitPercent:      "percent",
	UnitMegabytes:    "mb",
}

func (u AttributeUnit) String() string {
	if s, ok := unitNames[u]; ok {
		return s
	}
	return fmt.Sprintf("unit(%d)", int(u))
}

func (u AttributeUnit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// Attribute is one decoded row of the ATA SMART attribute table.
type Attribute struct {
	ID            uint8          `json:"id"`
	Name          string         `json:"name"`
	WellKnownName string         `json:"well_known_name,omitempty"`
	Value         Normalized     `json:"value"`
	Worst         Normalized     `json:"worst"`
	Threshold     Normalized     `json:"threshold"`
	FailedPast    bool           `json:"failed_past"`
	FailingNow    bool           `json:"failing_now"`
	Critical      bool           `json:"critical"`
	Raw           uint64         `json:"raw"`
	Flags         AttributeFlags `json:"flags"`
	PrettyValue   int64          `json:"pretty_value"`
	PrettyUnit    AttributeUnit  `json:"pretty_unit"`
	PrettyString  string         `json:"pretty_value_string,omitempty"`
}

// OfflineStatus is the offline data collection status (offset 362, bit 7 masked).
type OfflineStatus uint8

const (
	OfflineNeverStarted   OfflineStatus = 0x00
	OfflineNoError        OfflineStatus = 0x02
	OfflineInProgress     OfflineStatus = 0x03
	OfflineSuspendedIntr  OfflineStatus = 0x04
	OfflineAbortedIntr    OfflineStatus = 0x05
	OfflineAbortedError   OfflineStatus = 0x06
	OfflineVendorSpecific OfflineStatus = 0x40
	OfflineReserved       OfflineStatus = 0x3f
)

func (s OfflineStatus) String() string {
	switch s {
	case OfflineNeverStarted:
		return "never-started"
	case OfflineNoError:
		return "no-error"
	case OfflineInProgress:
		return "in-progress"
	case OfflineSuspendedIntr:
		return "suspended-interrupted"
	case OfflineAbortedIntr:
		return "aborted-interrupted"
	case OfflineAbortedError:
		return "aborted-error"
	case OfflineVendorSpecific:
		return "vendor-specific"
	}
	return "reserved"
}

// SelfTestStatus is the self-test execution status nibble.
type SelfTestStatus uint8

const (
	SelfTestCompletedNoError SelfTestStatus = 0x00
	SelfTestAbortedHost      SelfTestStatus = 0x01
	SelfTestIntrHostReset    SelfTestStatus = 0x02
	SelfTestErrorFatal       SelfTestStatus = 0x03
	SelfTestErrorUnknown     SelfTestStatus = 0x04
	SelfTestErrorElectrical  SelfTestStatus = 0x05
	SelfTestErrorServo       SelfTestStatus = 0x06
	SelfTestErrorRead        SelfTestStatus = 0x07
	SelfTestErrorHandling    SelfTestStatus = 0x08
	SelfTestInProgress       SelfTestStatus = 0x0f
)

var selfTestStatusNames = map[SelfTestStatus]string{
	SelfTestCompletedNoError: "completed-no-error",
	SelfTestAbortedHost:      "aborted-host",
	SelfTestIntrHostReset:    "interrupted-host-reset",
	SelfTestErrorFatal:       "error-fatal",
	SelfTestErrorUnknown:     "error-unknown",
	SelfTestErrorElectrical:  "error-electrical",
	SelfTestErrorServo:       "error-servo",
	SelfTestErrorRead:        "error-read",
	SelfTestErrorHandling:    "error-handling",
	SelfTestInProgress:       "in-progress",
}

// Known reports whether s is one of the enumerated outcomes.
func (s SelfTestStatus) Known() bool {
	_, ok := selfTestStatusNames[s]
	return ok
}

func (s SelfTestStatus) String() string {
	if n, ok := selfTestStatusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("unknown(0x%02x)", uint8(s))
}

// Failed reports whether s records a self-test that ran and found an error.
func (s SelfTestStatus) Failed() bool {
	return s >= SelfTestErrorFatal && s <= SelfTestErrorHandling
}

// Identity is the subset of IDENTIFY DEVICE data that the decoders use.
type Identity struct {
	Model          string `json:"model,omitempty"`
	Serial         string `json:"serial,omitempty"`
	Firmware       string `json:"firmware,omitempty"`
	Vendor         string `json:"vendor,omitempty"`
	SmartSupported bool   `json:"-"`
	SmartEnabled   bool   `json:"-"`
	GPLogging      bool   `json:"-"`
}

// SelfTestLogEntry is one entry of the ATA or SCSI self-test log, most recent first.
type SelfTestLogEntry struct {
	Type             string         `json:"type"`
	Status           SelfTestStatus `json:"status"`
	PercentRemaining int            `json:"percent_remaining"`
	LifetimeHours    uint64         `json:"lifetime_hours"`
	FailingLBA       uint64         `json:"failing_lba,omitempty"`
}

// AtaHealth is the decoded health report of an ATA device.
type AtaHealth struct {
	SmartSupported                    bool                `json:"smart_supported"`
	SmartEnabled                      bool                `json:"smart_enabled"`
	OverallStatusPassed               bool                `json:"overall_status_passed"`
	OfflineDataCollectionStatus       OfflineStatus       `json:"offline_data_collection_status"`
	AutoOfflineDataCollectionEnabled  bool                `json:"auto_offline_data_collection_enabled"`
	OfflineDataCollectionCompletion   int                 `json:"offline_data_collection_completion"`
	OfflineDataCollectionCapabilities OfflineCapabilities `json:"offline_data_collection_capabilities"`
	SelfTestStatus                    SelfTestStatus      `json:"self_test_status"`
	SelfTestPercentRemaining          int                 `json:"self_test_percent_remaining"`
	SelfTestPollingShort              int                 `json:"self_test_polling_short"`
	SelfTestPollingExtended           int                 `json:"self_test_polling_extended"`
	SelfTestPollingConveyance         int                 `json:"self_test_polling_conveyance"`
	SmartCapabilities                 Capabilities        `json:"smart_capabilities"`
	Attributes                        []Attribute         `json:"attributes"`
	PowerOnMinutes                    uint64              `json:"power_on_minutes"`
	PowerCycleCount                   uint64              `json:"power_cycle_count"`
	// Temperature is in Kelvin, 0 when not reported.
	Temperature float64            `json:"temperature"`
	Identity    Identity           `json:"identity"`
	SelfTestLog []SelfTestLogEntry `json:"self_test_log,omitempty"`
}

// Attribute returns the first attribute with the given id.
func (h *AtaHealth) Attribute(id uint8) (Attribute, bool) {
	for _, a := range h.Attributes {
		if a.ID == id {
			return a, true
		}
	}
	return Attribute{}, false
}

// ScsiIE is an informational exception category derived from ASC/ASCQ.
type ScsiIE int

const (
	IENone ScsiIE = iota
	IEAbortedCommand
	IETemperatureExceeded
	IEEnclosureDegraded
	IEBackgroundSelfTestFailed
	IEBackgroundPrescanMediumError
	IEBackgroundMediumScanMediumError
	IENVCacheVolatile
	IENVCacheDegradedPower
	IEPowerLossExpected
	IEStatisticsNotification
	IEHighCriticalTemp
	IELowCriticalTemp
	IEHighOperatingTemp
	IELowOperatingTemp
	IEHighCriticalHumidity
	IELowCriticalHumidity
	IEHighOperatingHumidity
	IELowOperatingHumidity
	IEMicrocodeSecurityRisk
	IEMicrocodeSignatureValidationFailure
	IEPhysicalElementStatusChange
	IEFailurePredictionThreshold
	IEMediaFailurePredictionThreshold
	IELogicalUnitFailurePredictionThreshold
	IESpareExhaustionPredictionThreshold
	IEHardwareImpendingFailure
	IEControllerImpendingFailure
	IEDataChannelImpendingFailure
	IEServoImpendingFailure
	IESpindleImpendingFailure
	IEFirmwareImpendingFailure
	IEMediaEnduranceLimit
	IEUnspecified
)

// BackgroundScanStatus is the BMS status byte of log page 0x15.
type BackgroundScanStatus uint8

const (
	BMSNoScansActive               BackgroundScanStatus = 0x00
	BMSScanActive                  BackgroundScanStatus = 0x01
	BMSPrescanActive               BackgroundScanStatus = 0x02
	BMSHaltedErrorFatal            BackgroundScanStatus = 0x03
	BMSHaltedPatternVendorSpecific BackgroundScanStatus = 0x04
	BMSHaltedErrorPList            BackgroundScanStatus = 0x05
	BMSHaltedVendorSpecific        BackgroundScanStatus = 0x06
	BMSHaltedTemperature           BackgroundScanStatus = 0x07
	BMSTimer                       BackgroundScanStatus = 0x08
)

func (s BackgroundScanStatus) String() string {
	switch s {
	case BMSNoScansActive:
		return "no-scans-active"
	case BMSScanActive:
		return "scan-active"
	case BMSPrescanActive:
		return "prescan-active"
	case BMSHaltedErrorFatal:
		return "halted-error-fatal"
	case BMSHaltedPatternVendorSpecific:
		return "halted-pattern-vendor-specific"
	case BMSHaltedErrorPList:
		return "halted-error-plist"
	case BMSHaltedVendorSpecific:
		return "halted-vendor-specific"
	case BMSHaltedTemperature:
		return "halted-temperature"
	case BMSTimer:
		return "bms-timer"
	}
	return fmt.Sprintf("bms(0x%02x)", uint8(s))
}

// ErrorCounters is one direction of the SCSI error counter log pages.
type ErrorCounters struct {
	CorrectedECCFast               uint64 `json:"corrected_eccfast"`
	CorrectedECCDelayed            uint64 `json:"corrected_eccdelayed"`
	CorrectedRereads               uint64 `json:"corrected_rereads"`
	TotalCorrected                 uint64 `json:"total_corrected"`
	CorrectionAlgorithmInvocations uint64 `json:"correction_algorithm_invocations"`
	BytesProcessed                 uint64 `json:"bytes_processed"`
	Uncorrected                    uint64 `json:"uncorrected"`
}

// ScsiHealth is the decoded health report of a SCSI/SAS device.
type ScsiHealth struct {
	SmartSupported            bool                 `json:"smart_supported"`
	SmartEnabled              bool                 `json:"smart_enabled"`
	OverallStatusPassed       bool                 `json:"overall_status_passed"`
	ScsiIE                    ScsiIE               `json:"scsi_ie"`
	IEASC                     uint8                `json:"ie_asc"`
	IEASCQ                    uint8                `json:"ie_ascq"`
	IEString                  string               `json:"ie_string,omitempty"`
	BackgroundScanStatus      BackgroundScanStatus `json:"background_scan_status"`
	BackgroundScanProgress    float64              `json:"background_scan_progress"`
	BackgroundScanRuns        uint64               `json:"background_scan_runs"`
	BackgroundMediumScanRuns  uint64               `json:"background_medium_scan_runs"`
	Read                      ErrorCounters        `json:"read"`
	Write                     ErrorCounters        `json:"write"`
	StartStopCycleCount       uint64               `json:"start_stop_cycle_count"`
	StartStopCycleLifetime    uint64               `json:"start_stop_cycle_lifetime"`
	LoadUnloadCycleCount      uint64               `json:"load_unload_cycle_count"`
	LoadUnloadCycleLifetime   uint64               `json:"load_unload_cycle_lifetime"`
	ScsiGrownDefectList       uint64               `json:"scsi_grown_defect_list"`
	PowerOnTime               uint64               `json:"power_on_time"`
	TemperatureWarningEnabled bool                 `json:"temperature_warning_enabled"`
	// Temperature and TemperatureDriveTrip are in Kelvin, 0 when not reported.
	Temperature          float64            `json:"temperature"`
	TemperatureDriveTrip float64            `json:"temperature_drive_trip"`
	SelfTestLog          []SelfTestLogEntry `json:"self_test_log,omitempty"`
}

// SelfTestOp is a requested self-test operation.
type SelfTestOp int

const (
	SelfTestOpAbort SelfTestOp = iota
	SelfTestOpOffline
	SelfTestOpShort
	SelfTestOpLong
	SelfTestOpConveyance
)

func (o SelfTestOp) String() string {
	switch o {
	case SelfTestOpAbort:
		return "abort"
	case SelfTestOpOffline:
		return "offline"
	case SelfTestOpShort:
		return "short"
	case SelfTestOpLong:
		return "long"
	case SelfTestOpConveyance:
		return "conveyance"
	}
	return fmt.Sprintf("op(%d)", int(o))
}

func ParseSelfTestOp(s string) (SelfTestOp, error) {
	for _, op := range []SelfTestOp{SelfTestOpAbort, SelfTestOpOffline, SelfTestOpShort, SelfTestOpLong, SelfTestOpConveyance} {
		if op.String() == s {
			return op, nil
		}
	}
	if s == "extended" {
		return SelfTestOpLong, nil
	}
	return 0, invalidArgf("parse self-test op", "unknown self-test operation %q", s)
}

// ExtraArg is a backend specific option passed through unchanged.
type ExtraArg struct {
	Option string
	Value  string
}

// KelvinFromCelsius converts a whole-degree Celsius reading.
func KelvinFromCelsius(c int) float64 {
	return float64(c) + 273.15
}
