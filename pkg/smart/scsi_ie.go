// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import "fmt"

const (
	ascWarning            = 0x0b
	ascFailurePrediction  = 0x5d
	ascqMediaEndurance    = 0x73
	ascqFailureFalseAlarm = 0xff
)

type ieRange struct {
	lo, hi   uint8
	category ScsiIE
}

// ieTable covers ASC 0x5d. It is checked in order and the ranges do not overlap.
var ieTable = []ieRange{
	{0x00, 0x00, IEFailurePredictionThreshold},
	{0x01, 0x01, IEMediaFailurePredictionThreshold},
	{0x02, 0x02, IELogicalUnitFailurePredictionThreshold},
	{0x03, 0x03, IESpareExhaustionPredictionThreshold},
	{0x10, 0x1d, IEHardwareImpendingFailure},
	{0x20, 0x2c, IEControllerImpendingFailure},
	{0x30, 0x3c, IEDataChannelImpendingFailure},
	{0x40, 0x4c, IEServoImpendingFailure},
	{0x50, 0x5c, IESpindleImpendingFailure},
	{0x60, 0x6c, IEFirmwareImpendingFailure},
	{ascqMediaEndurance, ascqMediaEndurance, IEMediaEnduranceLimit},
	{ascqFailureFalseAlarm, ascqFailureFalseAlarm, IEFailurePredictionThreshold},
}

var ieNames = map[ScsiIE]string{
	IENone:                                  "none",
	IEAbortedCommand:                        "Warning - aborted command",
	IETemperatureExceeded:                   "Warning - specified temperature exceeded",
	IEEnclosureDegraded:                     "Warning - enclosure degraded",
	IEBackgroundSelfTestFailed:              "Warning - background self-test failed",
	IEBackgroundPrescanMediumError:          "Warning - background pre-scan detected medium error",
	IEBackgroundMediumScanMediumError:       "Warning - background medium scan detected medium error",
	IENVCacheVolatile:                       "Warning - non-volatile cache now volatile",
	IENVCacheDegradedPower:                  "Warning - degraded power to non-volatile cache",
	IEPowerLossExpected:                     "Warning - power loss expected",
	IEStatisticsNotification:                "Warning - device statistics notification active",
	IEHighCriticalTemp:                      "Warning - high critical temperature limit exceeded",
	IELowCriticalTemp:                       "Warning - low critical temperature limit exceeded",
	IEHighOperatingTemp:                     "Warning - high operating temperature limit exceeded",
	IELowOperatingTemp:                      "Warning - low operating temperature limit exceeded",
	IEHighCriticalHumidity:                  "Warning - high critical humidity limit exceeded",
	IELowCriticalHumidity:                   "Warning - low critical humidity limit exceeded",
	IEHighOperatingHumidity:                 "Warning - high operating humidity limit exceeded",
	IELowOperatingHumidity:                  "Warning - low operating humidity limit exceeded",
	IEMicrocodeSecurityRisk:                 "Warning - microcode security at risk",
	IEMicrocodeSignatureValidationFailure:   "Warning - microcode digital signature validation failure",
	IEPhysicalElementStatusChange:           "Warning - physical element status change",
	IEFailurePredictionThreshold:            "Failure prediction threshold exceeded",
	IEMediaFailurePredictionThreshold:       "Media failure prediction threshold exceeded",
	IELogicalUnitFailurePredictionThreshold: "Logical unit failure prediction threshold exceeded",
	IESpareExhaustionPredictionThreshold:    "Spare area exhaustion prediction threshold exceeded",
	IEHardwareImpendingFailure:              "Hardware impending failure",
	IEControllerImpendingFailure:            "Controller impending failure",
	IEDataChannelImpendingFailure:           "Data channel impending failure",
	IEServoImpendingFailure:                 "Servo impending failure",
	IESpindleImpendingFailure:               "Spindle impending failure",
	IEFirmwareImpendingFailure:              "Firmware impending failure",
	IEMediaEnduranceLimit:                   "Media impending failure endurance limit met",
	IEUnspecified:                           "Unspecified failure prediction",
}

func (c ScsiIE) String() string {
	if n, ok := ieNames[c]; ok {
		return n
	}
	return fmt.Sprintf("ie(%d)", int(c))
}

// ClassifyIE maps an informational exception ASC/ASCQ pair onto its category.
// ASC 0x0b qualifiers 0x00..0x14 follow the enum order one to one.
func ClassifyIE(asc, ascq uint8) ScsiIE {
	switch asc {
	case ascWarning:
		if ascq <= 0x14 {
			return IEAbortedCommand + ScsiIE(ascq)
		}
		return IENone
	case ascFailurePrediction:
		for _, e := range ieTable {
			if ascq >= e.lo && ascq <= e.hi {
				return e.category
			}
		}
		return IEUnspecified
	}
	return IENone
}
