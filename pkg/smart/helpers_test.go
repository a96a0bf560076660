package smart

import "encoding/binary"

type testAttr struct {
	id     uint8
	flags  uint16
	value  uint8
	worst  uint8
	raw    [6]byte
	thresh int // -1 leaves the threshold slot empty
}

func rawLE(v uint64) [6]byte {
	var b [6]byte
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

// smartPage builds a 512 byte SMART READ DATA page with attrs in consecutive slots.
func smartPage(attrs ...testAttr) []byte {
	buf := make([]byte, ataPageSize)
	binary.LittleEndian.PutUint16(buf, 0x0010)
	for i, a := range attrs {
		off := ataTableOffset + i*ataEntrySize
		buf[off] = a.id
		binary.LittleEndian.PutUint16(buf[off+1:], a.flags)
		buf[off+3] = a.value
		buf[off+4] = a.worst
		copy(buf[off+5:off+11], a.raw[:])
	}
	return buf
}

// thresholdPage builds the companion page, writing slots in reverse order to
// exercise matching by id.
func thresholdPage(attrs ...testAttr) []byte {
	buf := make([]byte, ataPageSize)
	slot := 0
	for i := len(attrs) - 1; i >= 0; i-- {
		a := attrs[i]
		if a.thresh < 0 {
			continue
		}
		off := ataTableOffset + slot*ataEntrySize
		buf[off] = a.id
		buf[off+1] = uint8(a.thresh)
		slot++
	}
	return buf
}

// identifyPage builds an IDENTIFY DEVICE page with the given model and SMART bits.
func identifyPage(model, serial, firmware string, supported, enabled bool) []byte {
	buf := make([]byte, identifySize)
	putATAString(buf[idSerialOffset:idSerialOffset+idSerialLen], serial)
	putATAString(buf[idFirmwareOffset:idFirmwareOffset+idFirmwareLen], firmware)
	putATAString(buf[idModelOffset:idModelOffset+idModelLen], model)
	if supported {
		buf[idCmdSetSupported] |= 0x01
	}
	if enabled {
		buf[idCmdSetEnabled] |= 0x01
	}
	buf[idCmdSetDefault] |= 0x20
	return buf
}

func putATAString(dst []byte, s string) {
	padded := make([]byte, len(dst))
	for i := range padded {
		padded[i] = ' '
	}
	copy(padded, s)
	for i := 0; i+1 < len(dst); i += 2 {
		dst[i], dst[i+1] = padded[i+1], padded[i]
	}
}

// logPage builds a SCSI log page from parameter code/data pairs.
func logPage(page uint8, params ...LogParam) []byte {
	var body []byte
	for _, p := range params {
		body = append(body, byte(p.Code>>8), byte(p.Code), p.Control, byte(len(p.Data)))
		body = append(body, p.Data...)
	}
	hdr := []byte{page, 0, byte(len(body) >> 8), byte(len(body))}
	return append(hdr, body...)
}

// iecModeSense builds a MODE SENSE(6) response with an 8 byte block
// descriptor and the informational exceptions page.
func iecModeSense(flags byte) []byte {
	buf := []byte{0, 0, 0, 8}
	buf = append(buf, make([]byte, 8)...)
	page := []byte{0x80 | ModePageInformationalExcep, 0x0a, flags, 0x06, 0, 0, 0, 0, 0, 0, 0, 1}
	buf = append(buf, page...)
	buf[0] = byte(len(buf) - 1)
	return buf
}
