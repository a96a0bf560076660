// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"bytes"
	"encoding/binary"
)

// Chunk tags of the ATA data blob. Each chunk is a 4 byte tag, a 4 byte
// big-endian payload length and the payload.
const (
	TagIdentify        = "IDFY"
	TagSmartStatus     = "SMST"
	TagSmartData       = "SMDT"
	TagSmartThresholds = "SMTH"
	TagSelfTestLog     = "SLOG"
)

const blobChunkHeader = 8

// ATAData is the set of raw ATA structures an AtaHealth is decoded from.
type ATAData struct {
	Identify    []byte
	SmartData   []byte
	Thresholds  []byte
	SelfTestLog []byte
	// StatusKnown is set when the SMART RETURN STATUS verdict was obtained.
	StatusKnown  bool
	StatusPassed bool
}

func isBlob(buf []byte) bool {
	if len(buf) < blobChunkHeader {
		return false
	}
	switch string(buf[:4]) {
	case TagIdentify, TagSmartStatus, TagSmartData, TagSmartThresholds, TagSelfTestLog:
		return true
	}
	return false
}

// ParseATABlob splits a tagged blob into its structures. Unknown tags are skipped.
func ParseATABlob(buf []byte) (ATAData, error) {
	const op = "parse ata blob"
	var d ATAData
	r := NewReader(buf)
	for off := 0; off < r.Len(); {
		hdr, err := r.Slice(off, blobChunkHeader)
		if err != nil {
			return ATAData{}, invalidArgf(op, "truncated chunk header at %d: %v", off, err)
		}
		tag := string(hdr[:4])
		size := binary.BigEndian.Uint32(hdr[4:])
		payload, err := r.Slice(off+blobChunkHeader, int(size))
		if err != nil {
			return ATAData{}, invalidArgf(op, "chunk %s: %v", tag, err)
		}
		switch tag {
		case TagIdentify:
			d.Identify = payload
		case TagSmartData:
			d.SmartData = payload
		case TagSmartThresholds:
			d.Thresholds = payload
		case TagSelfTestLog:
			d.SelfTestLog = payload
		case TagSmartStatus:
			if size != 4 {
				return ATAData{}, invalidArgf(op, "status chunk is %d bytes, want 4", size)
			}
			d.StatusKnown = true
			d.StatusPassed = binary.BigEndian.Uint32(payload) != 0
		}
		off += blobChunkHeader + int(size)
	}
	if d.SmartData == nil {
		return ATAData{}, invalidArgf(op, "blob has no %s chunk", TagSmartData)
	}
	return d, nil
}

// EncodeATABlob serializes d in the format read by ParseATABlob.
func EncodeATABlob(d ATAData) []byte {
	var buf bytes.Buffer
	put := func(tag string, payload []byte) {
		var hdr [blobChunkHeader]byte
		copy(hdr[:4], tag)
		binary.BigEndian.PutUint32(hdr[4:], uint32(len(payload)))
		buf.Write(hdr[:])
		buf.Write(payload)
	}
	if d.Identify != nil {
		put(TagIdentify, d.Identify)
	}
	if d.StatusKnown {
		var st [4]byte
		if d.StatusPassed {
			st[3] = 1
		}
		put(TagSmartStatus, st[:])
	}
	put(TagSmartData, d.SmartData)
	if d.Thresholds != nil {
		put(TagSmartThresholds, d.Thresholds)
	}
	if d.SelfTestLog != nil {
		put(TagSelfTestLog, d.SelfTestLog)
	}
	return buf.Bytes()
}
