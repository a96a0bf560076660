// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"fmt"
	"math"
	"math/bits"
)

// attributeRule assigns names and a pretty-value conversion to an attribute id.
// Rules with a Vendor match only devices whose model resolves to that vendor and
// take precedence over the generic rule for the same id.
type attributeRule struct {
	ID        uint8
	Vendor    string
	Key       string
	WellKnown string
	Unit      AttributeUnit
	Pretty    prettyFunc
	// ByteOrder lists the raw bytes from most to least significant:
	// '0'..'5' vendor bytes, 'r' reserved byte, 'v' value, 'w' worst.
	ByteOrder string
	// Critical marks attributes that predict failure.
	Critical bool
}

type prettyFunc func(a *Attribute)

const defaultByteOrder = "543210"

// https://en.wikipedia.org/wiki/Self-Monitoring,_Analysis_and_Reporting_Technology
// https://www.hdsentinel.com/smart/smartattr.php
// Append only: new device families get new rows, decode control flow never changes.
var attributeRules = []attributeRule{
	{ID: 1, Key: "Raw_Read_Error_Rate", WellKnown: "raw-read-error-rate", Unit: UnitNone, Critical: true},
	{ID: 2, Key: "Throughput_Performance", WellKnown: "throughput-performance", Unit: UnitNone},
	{ID: 3, Key: "Spin_Up_Time", WellKnown: "spin-up-time", Unit: UnitMilliseconds, Pretty: prettyLow16, Critical: true},
	{ID: 4, Key: "Start_Stop_Count", WellKnown: "start-stop-count", Unit: UnitNone},
	{ID: 5, Key: "Reallocated_Sector_Ct", WellKnown: "reallocated-sector-count", Unit: UnitSectors, Pretty: prettyLow32, Critical: true},
	{ID: 6, Key: "Read_Channel_Margin", WellKnown: "read-channel-margin", Unit: UnitNone},
	{ID: 7, Key: "Seek_Error_Rate", WellKnown: "seek-error-rate", Unit: UnitNone, Critical: true},
	{ID: 8, Key: "Seek_Time_Performance", WellKnown: "seek-time-performance", Unit: UnitNone, Critical: true},
	{ID: 9, Key: "Power_On_Hours", WellKnown: "power-on-hours", Unit: UnitMilliseconds, Pretty: prettyHours},
	{ID: 10, Key: "Spin_Retry_Count", WellKnown: "spin-retry-count", Unit: UnitNone, Critical: true},
	{ID: 11, Key: "Calibration_Retry_Count", WellKnown: "calibration-retry-count", Unit: UnitNone, Critical: true},
	{ID: 12, Key: "Power_Cycle_Count", WellKnown: "power-cycle-count", Unit: UnitNone},
	{ID: 13, Key: "Read_Soft_Error_Rate", WellKnown: "read-soft-error-rate", Unit: UnitNone},
	{ID: 170, Key: "Available_Reservd_Space", WellKnown: "available-reserved-space", Unit: UnitPercent, Pretty: prettyNormalized},
	{ID: 171, Key: "Program_Fail_Count", WellKnown: "program-fail-count", Unit: UnitNone},
	{ID: 172, Key: "Erase_Fail_Count", WellKnown: "erase-fail-count", Unit: UnitNone},
	{ID: 175, Key: "Program_Fail_Count_Chip", WellKnown: "program-fail-count-chip", Unit: UnitNone},
	{ID: 176, Key: "Erase_Fail_Count_Chip", WellKnown: "erase-fail-count-chip", Unit: UnitNone},
	{ID: 177, Key: "Wear_Leveling_Count", WellKnown: "wear-leveling-count", Unit: UnitNone},
	{ID: 178, Key: "Used_Rsvd_Blk_Cnt_Chip", WellKnown: "used-reserved-blocks-chip", Unit: UnitNone},
	{ID: 179, Key: "Used_Rsvd_Blk_Cnt_Tot", WellKnown: "used-reserved-blocks-total", Unit: UnitNone},
	{ID: 180, Key: "Unused_Rsvd_Blk_Cnt_Tot", WellKnown: "unused-reserved-blocks", Unit: UnitNone},
	{ID: 181, Key: "Program_Fail_Cnt_Total", WellKnown: "program-fail-count-total", Unit: UnitNone},
	{ID: 182, Key: "Erase_Fail_Count_Total", WellKnown: "erase-fail-count-total", Unit: UnitNone},
	{ID: 183, Key: "Runtime_Bad_Block", WellKnown: "runtime-bad-block-total", Unit: UnitNone},
	{ID: 184, Key: "End-to-End_Error", WellKnown: "end-to-end-error", Unit: UnitNone, Critical: true},
	{ID: 187, Key: "Reported_Uncorrect", WellKnown: "reported-uncorrect", Unit: UnitSectors, Pretty: prettyLow32, Critical: true},
	{ID: 188, Key: "Command_Timeout", WellKnown: "command-timeout", Unit: UnitNone, Critical: true},
	{ID: 189, Key: "High_Fly_Writes", WellKnown: "high-fly-writes", Unit: UnitNone},
	{ID: 190, Key: "Airflow_Temperature_Cel", WellKnown: "airflow-temperature-celsius", Unit: UnitMillikelvin, Pretty: prettyTempMinMax},
	{ID: 191, Key: "G-Sense_Error_Rate", WellKnown: "g-sense-error-rate", Unit: UnitNone},
	{ID: 192, Key: "Power-Off_Retract_Count", WellKnown: "power-off-retract-count", Unit: UnitNone},
	{ID: 193, Key: "Load_Cycle_Count", WellKnown: "load-cycle-count", Unit: UnitNone},
	{ID: 194, Key: "Temperature_Celsius", WellKnown: "temperature-celsius-2", Unit: UnitMillikelvin, Pretty: prettyTempMinMax},
	{ID: 195, Key: "Hardware_ECC_Recovered", WellKnown: "hardware-ecc-recovered", Unit: UnitNone},
	{ID: 196, Key: "Reallocated_Event_Count", WellKnown: "reallocated-event-count", Unit: UnitSectors, Pretty: prettyLow32, Critical: true},
	{ID: 197, Key: "Current_Pending_Sector", WellKnown: "current-pending-sector", Unit: UnitSectors, Pretty: prettyLow32, Critical: true},
	{ID: 198, Key: "Offline_Uncorrectable", WellKnown: "offline-uncorrectable", Unit: UnitSectors, Pretty: prettyLow32, Critical: true},
	{ID: 199, Key: "UDMA_CRC_Error_Count", WellKnown: "udma-crc-error-count", Unit: UnitNone},
	{ID: 200, Key: "Multi_Zone_Error_Rate", WellKnown: "multi-zone-error-rate", Unit: UnitNone},
	{ID: 201, Key: "Soft_Read_Error_Rate", WellKnown: "soft-read-error-rate", Unit: UnitNone},
	{ID: 202, Key: "Data_Address_Mark_Errs", WellKnown: "ta-increase-count", Unit: UnitNone},
	{ID: 203, Key: "Run_Out_Cancel", WellKnown: "run-out-cancel", Unit: UnitNone},
	{ID: 204, Key: "Soft_ECC_Correction", WellKnown: "shock-count-write-open", Unit: UnitNone},
	{ID: 205, Key: "Thermal_Asperity_Rate", WellKnown: "shock-rate-write-open", Unit: UnitNone},
	{ID: 206, Key: "Flying_Height", WellKnown: "flying-height", Unit: UnitNone},
	{ID: 207, Key: "Spin_High_Current", WellKnown: "spin-high-current", Unit: UnitNone},
	{ID: 208, Key: "Spin_Buzz", WellKnown: "spin-buzz", Unit: UnitNone},
	{ID: 209, Key: "Offline_Seek_Performnce", WellKnown: "offline-seek-performance", Unit: UnitNone},
	{ID: 220, Key: "Disk_Shift", WellKnown: "disk-shift", Unit: UnitNone},
	{ID: 221, Key: "G-Sense_Error_Rate", WellKnown: "g-sense-error-rate-2", Unit: UnitNone},
	{ID: 222, Key: "Loaded_Hours", WellKnown: "loaded-hours", Unit: UnitMilliseconds, Pretty: prettyHours},
	{ID: 223, Key: "Load_Retry_Count", WellKnown: "load-retry-count", Unit: UnitNone},
	{ID: 224, Key: "Load_Friction", WellKnown: "load-friction", Unit: UnitNone},
	{ID: 225, Key: "Load_Cycle_Count", WellKnown: "load-cycle-count-2", Unit: UnitNone},
	{ID: 226, Key: "Load-in_Time", WellKnown: "load-in-time", Unit: UnitMilliseconds},
	{ID: 227, Key: "Torq-amp_Count", WellKnown: "torq-amp-count", Unit: UnitNone},
	{ID: 228, Key: "Power-off_Retract_Count", WellKnown: "power-off-retract-count-2", Unit: UnitNone},
	{ID: 230, Key: "Head_Amplitude", WellKnown: "head-amplitude", Unit: UnitNone},
	{ID: 231, Key: "Temperature_Celsius", WellKnown: "temperature-celsius", Unit: UnitMillikelvin, Pretty: prettyTempMinMax},
	{ID: 232, Key: "Available_Reservd_Space", WellKnown: "endurance-remaining", Unit: UnitPercent, Pretty: prettyNormalized},
	{ID: 233, Key: "Media_Wearout_Indicator", WellKnown: "media-wearout-indicator", Unit: UnitPercent, Pretty: prettyNormalized},
	{ID: 240, Key: "Head_Flying_Hours", WellKnown: "head-flying-hours", Unit: UnitMilliseconds, Pretty: prettyHours},
	{ID: 241, Key: "Total_LBAs_Written", WellKnown: "total-lbas-written", Unit: UnitMegabytes, Pretty: prettyLBAs},
	{ID: 242, Key: "Total_LBAs_Read", WellKnown: "total-lbas-read", Unit: UnitMegabytes, Pretty: prettyLBAs},
	{ID: 250, Key: "Read_Error_Retry_Rate", WellKnown: "read-error-retry-rate", Unit: UnitNone},

	// Vendor specific semantics.
	{ID: 9, Vendor: "Maxtor", Key: "Power_On_Minutes", WellKnown: "power-on-minutes", Unit: UnitMilliseconds, Pretty: prettyMinutes},
	{ID: 9, Vendor: "Fujitsu", Key: "Power_On_Seconds", WellKnown: "power-on-seconds", Unit: UnitMilliseconds, Pretty: prettySeconds},
	{ID: 9, Vendor: "Seagate", Key: "Power_On_Hours_and_Msec", WellKnown: "power-on-hours", Unit: UnitMilliseconds, Pretty: prettyHoursMsec, ByteOrder: "r543210"},
	{ID: 240, Vendor: "Seagate", Key: "Head_Flying_Hours", WellKnown: "head-flying-hours", Unit: UnitMilliseconds, Pretty: prettyHoursMsec, ByteOrder: "r543210"},
	{ID: 194, Vendor: "Samsung", Key: "Temperature_Celsius", WellKnown: "temperature-centi-celsius", Unit: UnitMillikelvin, Pretty: prettyTemp10x},
	{ID: 177, Vendor: "Samsung", Key: "Wear_Leveling_Count", WellKnown: "wear-leveling-count", Unit: UnitPercent, Pretty: prettyNormalized},
	{ID: 202, Vendor: "Micron", Key: "Percent_Lifetime_Remain", WellKnown: "percent-lifetime-remain", Unit: UnitPercent, Pretty: prettyNormalized},
	{ID: 225, Vendor: "Intel", Key: "Host_Writes_32MiB", WellKnown: "total-lbas-written", Unit: UnitMegabytes, Pretty: prettyLBAs32MiB},
	{ID: 226, Vendor: "Intel", Key: "Workld_Media_Wear_Indic", WellKnown: "timed-workload-media-wear", Unit: UnitSmallPercent, Pretty: prettyWorkloadWear},
	{ID: 227, Vendor: "Intel", Key: "Workld_Host_Reads_Perc", WellKnown: "timed-workload-host-reads", Unit: UnitPercent, Pretty: prettyLow16},
	{ID: 228, Vendor: "Intel", Key: "Workload_Minutes", WellKnown: "workload-timer", Unit: UnitMilliseconds, Pretty: prettyMinutes},
	{ID: 241, Vendor: "Intel", Key: "Host_Writes_32MiB", WellKnown: "total-lbas-written", Unit: UnitMegabytes, Pretty: prettyLBAs32MiB},
	{ID: 242, Vendor: "Intel", Key: "Host_Reads_32MiB", WellKnown: "total-lbas-read", Unit: UnitMegabytes, Pretty: prettyLBAs32MiB},
}

// lookupRule returns the vendor rule for id if one exists, else the generic one.
func lookupRule(vendor string, id uint8) (attributeRule, bool) {
	var generic *attributeRule
	for i := range attributeRules {
		r := &attributeRules[i]
		if r.ID != id {
			continue
		}
		if r.Vendor == "" {
			if generic == nil {
				generic = r
			}
			continue
		}
		if vendor != "" && r.Vendor == vendor {
			return *r, true
		}
	}
	if generic == nil {
		return attributeRule{}, false
	}
	return *generic, true
}

// rawValue accumulates the raw bytes in the rule's byte order.
func rawValue(order string, vendorBytes []byte, reserved, value, worst uint8) uint64 {
	if order == "" {
		order = defaultByteOrder
	}
	var v uint64
	for _, c := range order {
		var b uint8
		switch {
		case c >= '0' && c <= '5':
			b = vendorBytes[c-'0']
		case c == 'r':
			b = reserved
		case c == 'v':
			b = value
		case c == 'w':
			b = worst
		}
		v = v<<8 | uint64(b)
	}
	return v
}

func prettyLow16(a *Attribute) {
	a.PrettyValue = int64(a.Raw & 0xffff)
}

func prettyLow32(a *Attribute) {
	a.PrettyValue = int64(a.Raw & 0xffffffff)
}

func prettyHours(a *Attribute) {
	a.PrettyValue = int64(a.Raw&0xffffffff) * 3600000
}

func prettyHoursMsec(a *Attribute) {
	hours := int64(a.Raw & 0xffffffff)
	msec := int64(a.Raw >> 32)
	a.PrettyValue = hours*3600000 + msec
}

func prettyMinutes(a *Attribute) {
	a.PrettyValue = int64(a.Raw) * 60000
}

func prettySeconds(a *Attribute) {
	a.PrettyValue = int64(a.Raw) * 1000
}

func prettyNormalized(a *Attribute) {
	v, _ := a.Value.Get()
	a.PrettyValue = int64(v)
}

// LBAs of 512 bytes to decimal megabytes.
func prettyLBAs(a *Attribute) {
	a.PrettyValue = int64(a.Raw * 512 / 1000000)
}

// 32 MiB units to decimal megabytes, saturating at math.MaxInt64.
func prettyLBAs32MiB(a *Attribute) {
	hi, lo := bits.Mul64(a.Raw, 65536*512)
	if hi >= 1000000 {
		a.PrettyValue = math.MaxInt64
		return
	}
	mb, _ := bits.Div64(hi, lo, 1000000)
	if mb > math.MaxInt64 {
		mb = math.MaxInt64
	}
	a.PrettyValue = int64(mb)
}

// Raw counts 1/1024 percent; SMALL_PERCENT carries three decimals.
func prettyWorkloadWear(a *Attribute) {
	a.PrettyValue = int64(a.Raw * 1000 / 1024)
}

func prettyTemp10x(a *Attribute) {
	a.PrettyValue = int64(a.Raw&0xffff)*100 + 273150
}

// prettyTempMinMax takes the current temperature from the lowest raw byte and
// decodes optional min/max history from the upper bytes.
func prettyTempMinMax(a *Attribute) {
	t := int64(a.Raw & 0xff)
	a.PrettyValue = t*1000 + 273150
	if lo, hi, ok := tempMinMax(a.Raw); ok {
		a.PrettyString = fmt.Sprintf("%d (Min/Max %d/%d)", t, lo, hi)
	} else {
		a.PrettyString = fmt.Sprintf("%d", t)
	}
}

func tempMinMax(raw uint64) (lo, hi int8, ok bool) {
	word0 := uint16(raw)
	word1 := uint16(raw >> 16)
	word2 := uint16(raw >> 32)

	raw0 := int8(raw)
	raw1 := int8(raw >> 8)
	raw2 := int8(raw >> 16)
	raw3 := int8(raw >> 24)
	raw4 := int8(raw >> 32)

	ctw0 := checkTempWord(word0)
	if word2 == 0 {
		if word1 == 0 && ctw0 != 0 {
			// 00 00 00 00 xx TT
			return 0, 0, false
		}
		if ctw0 != 0 && checkTempRange(raw0, raw2, raw3, &lo, &hi) {
			// 00 00 HL LH xx TT
			return lo, hi, true
		}
		if raw3 == 0 && checkTempRange(raw0, raw1, raw2, &lo, &hi) {
			// 00 00 00 HL LH TT
			return lo, hi, true
		}
	} else if ctw0 != 0 {
		if ctw0&checkTempWord(word1)&checkTempWord(word2) != 0 && checkTempRange(raw0, raw2, raw4, &lo, &hi) {
			// xx HL xx LH xx TT
			return lo, hi, true
		}
		if word2 < 0x7fff && checkTempRange(raw0, raw2, raw3, &lo, &hi) && hi >= 40 {
			// CC CC HL LH xx TT
			return lo, hi, true
		}
	}
	return 0, 0, false
}

func checkTempWord(word uint16) int {
	switch {
	case word <= 0x7f:
		return 0x11
	case word <= 0xff:
		return 0x01
	case word >= 0xff80:
		return 0x10
	}
	return 0x00
}

func checkTempRange(t, t1, t2 int8, lo, hi *int8) bool {
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	if -60 <= t1 && t1 <= t && t <= t2 && t2 <= 120 && !(t1 == -1 && t2 <= 0) {
		*lo = t1
		*hi = t2
		return true
	}
	return false
}
