// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package device issues ATA and SCSI SMART commands to block devices through
// the Linux SCSI generic interface.
package device

import (
	"encoding/binary"
	"time"
)

const (
	scsiInquiry          = 0x12
	scsiModeSense6       = 0x1a
	scsiLogSense         = 0x4d
	scsiReadDefectData   = 0x37
	scsiATAPassThrough16 = 0x85

	ataIdentifyDevice = 0xec
	ataSmart          = 0xb0

	smartReadData       = 0xd0
	smartReadThresholds = 0xd1
	smartReadLog        = 0xd5
	smartReturnStatus   = 0xda

	smartLBAMid  = 0x4f
	smartLBAHigh = 0xc2

	inquiryReplyLen = 36
	sectorSize      = 512
	maxLogPageLen   = 0xfffc
	maxModePageLen  = 0xff
	defectHeaderLen = 4

	// Vendor identification reported by SAT layers for ATA disks.
	sataVendorIdent = "ATA     "

	defaultTimeout = 20 * time.Second
)

// ATA PASS-THROUGH protocols.
const (
	protoNonData = 3
	protoPIOIn   = 4
)

// ataPassThrough16 builds an ATA PASS-THROUGH(16) CDB for a SMART command.
// dataIn transfers one 512 byte sector from the device; ckCond requests the
// ATA registers back in the sense data.
func ataPassThrough16(command, feature, count, lbaLow uint8, dataIn, ckCond bool) []byte {
	cdb := make([]byte, 16)
	cdb[0] = scsiATAPassThrough16
	if dataIn {
		cdb[1] = protoPIOIn << 1
		cdb[2] = 0x0e // T_DIR in, BYT_BLOK, T_LENGTH in sector count
	} else {
		cdb[1] = protoNonData << 1
	}
	if ckCond {
		cdb[2] |= 0x20
	}
	cdb[4] = feature
	cdb[6] = count
	cdb[8] = lbaLow
	if command == ataSmart {
		cdb[10] = smartLBAMid
		cdb[12] = smartLBAHigh
	}
	cdb[14] = command
	return cdb
}

func inquiryCDB() []byte {
	cdb := make([]byte, 6)
	cdb[0] = scsiInquiry
	binary.BigEndian.PutUint16(cdb[3:5], inquiryReplyLen)
	return cdb
}

func logSenseCDB(page, subpage uint8, alloc uint16) []byte {
	cdb := make([]byte, 10)
	cdb[0] = scsiLogSense
	cdb[2] = 0x40 | page&0x3f // PC = cumulative values
	cdb[3] = subpage
	binary.BigEndian.PutUint16(cdb[7:9], alloc)
	return cdb
}

func modeSense6CDB(page uint8, alloc uint8) []byte {
	return []byte{scsiModeSense6, 0, page & 0x3f, 0, alloc, 0}
}

// readDefectData10CDB requests the grown defect list header in bytes-from-index format.
func readDefectData10CDB(alloc uint16) []byte {
	cdb := make([]byte, 10)
	cdb[0] = scsiReadDefectData
	cdb[2] = 0x08 | 0x04
	binary.BigEndian.PutUint16(cdb[7:9], alloc)
	return cdb
}

// ataReturnRegisters extracts LBA mid and high from the sense data of an ATA
// PASS-THROUGH command issued with CK_COND.
func ataReturnRegisters(sense []byte) (mid, high uint8, ok bool) {
	if len(sense) < 1 {
		return 0, 0, false
	}
	switch sense[0] & 0x7f {
	case 0x72, 0x73:
		// Descriptor format: find the ATA Status Return descriptor.
		if len(sense) < 8 {
			return 0, 0, false
		}
		end := 8 + int(sense[7])
		if end > len(sense) {
			end = len(sense)
		}
		for off := 8; off+1 < end; off += 2 + int(sense[off+1]) {
			if sense[off] == 0x09 && off+12 <= end {
				return sense[off+9], sense[off+11], true
			}
		}
	case 0x70, 0x71:
		if len(sense) >= 12 {
			return sense[10], sense[11], true
		}
	}
	return 0, 0, false
}

// timeoutFor bounds the command timeout by the context deadline.
func timeoutFor(deadline time.Time, ok bool) uint32 {
	t := defaultTimeout
	if ok {
		if left := time.Until(deadline); left < t {
			t = left
		}
	}
	if t < time.Millisecond {
		t = time.Millisecond
	}
	return uint32(t / time.Millisecond)
}
