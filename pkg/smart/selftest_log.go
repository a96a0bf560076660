// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import "fmt"

const (
	ataLogSize       = 512
	ataLogEntryStart = 2
	ataLogEntrySize  = 24
	ataLogEntries    = 21
	ataLogIndex      = 508

	scsiSelfTestParams   = 20
	scsiSelfTestDataSize = 16
)

var ataSelfTestTypes = map[uint8]string{
	0x00: "offline",
	0x01: "short",
	0x02: "extended",
	0x03: "conveyance",
	0x04: "selective",
	0x81: "short-captive",
	0x82: "extended-captive",
	0x83: "conveyance-captive",
	0x84: "selective-captive",
}

var scsiSelfTestTypes = map[uint8]string{
	0: "default",
	1: "short",
	2: "extended",
	5: "short-foreground",
	6: "extended-foreground",
}

func selfTestType(names map[uint8]string, code uint8) string {
	if n, ok := names[code]; ok {
		return n
	}
	return fmt.Sprintf("vendor(0x%02x)", code)
}

// ATASelfTestType names the subcommand recorded in an ATA self-test log entry.
func ATASelfTestType(code uint8) string {
	return selfTestType(ataSelfTestTypes, code)
}

// DecodeATASelfTestLog decodes the SMART self-test log (log address 0x06),
// most recent entry first.
func DecodeATASelfTestLog(buf []byte) ([]SelfTestLogEntry, error) {
	const op = "decode ata self-test log"
	r := NewReader(buf)
	if err := r.Need(0, ataLogSize); err != nil {
		return nil, invalidArgf(op, "%v", err)
	}
	idx, _ := r.U8(ataLogIndex)
	if idx == 0 {
		return nil, nil
	}
	if idx > ataLogEntries {
		return nil, invalidArgf(op, "log index %d out of range", idx)
	}

	var entries []SelfTestLogEntry
	for i := 0; i < ataLogEntries; i++ {
		slot := (int(idx) - 1 - i + ataLogEntries) % ataLogEntries
		raw, _ := r.Slice(ataLogEntryStart+slot*ataLogEntrySize, ataLogEntrySize)
		if allZero(raw) {
			continue
		}
		er := NewReader(raw)
		hours, _ := er.U16LE(2)
		lba, _ := er.U32LE(5)
		entries = append(entries, SelfTestLogEntry{
			Type:             ATASelfTestType(raw[0]),
			Status:           SelfTestStatus(raw[1] >> 4),
			PercentRemaining: int(raw[1]&0x0f) * 10,
			LifetimeHours:    uint64(hours),
			FailingLBA:       uint64(lba),
		})
	}
	return entries, nil
}

// scsiSelfTestStatus maps SCSI self-test result codes onto the ATA status set.
var scsiSelfTestStatus = map[uint8]SelfTestStatus{
	0x0: SelfTestCompletedNoError,
	0x1: SelfTestAbortedHost,
	0x2: SelfTestIntrHostReset,
	0x3: SelfTestErrorFatal,
	0x4: SelfTestErrorUnknown,
	0x5: SelfTestErrorElectrical,
	0x6: SelfTestErrorServo,
	0x7: SelfTestErrorRead,
	0xf: SelfTestInProgress,
}

// SCSISelfTestResult maps a self-test results log result code onto a status.
func SCSISelfTestResult(code uint8) SelfTestStatus {
	if s, ok := scsiSelfTestStatus[code]; ok {
		return s
	}
	return SelfTestStatus(code)
}

// SCSISelfTestType names a self-test code of the self-test results log.
func SCSISelfTestType(code uint8) string {
	return selfTestType(scsiSelfTestTypes, code)
}

// DecodeSCSISelfTestLog decodes the parameters of the self-test results log
// page (0x10), most recent first. Unused parameters are skipped.
func DecodeSCSISelfTestLog(params []LogParam) ([]SelfTestLogEntry, error) {
	const op = "decode scsi self-test log"
	var entries []SelfTestLogEntry
	for _, p := range params {
		if p.Code < 1 || p.Code > scsiSelfTestParams {
			continue
		}
		r := NewReader(p.Data)
		if err := r.Need(0, scsiSelfTestDataSize); err != nil {
			return nil, invalidArgf(op, "parameter %d: %v", p.Code, err)
		}
		if allZero(p.Data[:scsiSelfTestDataSize]) {
			continue
		}
		b0, _ := r.U8(0)
		hours, _ := r.U16BE(2)
		lba, _ := r.U64BE(4)
		e := SelfTestLogEntry{
			Type:          SCSISelfTestType(b0 >> 5),
			Status:        SCSISelfTestResult(b0 & 0x0f),
			LifetimeHours: uint64(hours),
		}
		// All ones means no failing address was recorded.
		if lba != ^uint64(0) {
			e.FailingLBA = lba
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
