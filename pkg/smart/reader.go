// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"errors"
	"fmt"
	"strings"
)

// ErrOutOfBounds is returned by Reader accessors that would read past the end of the buffer.
var ErrOutOfBounds = errors.New("read out of bounds")

// Reader is a bounds-checked view over a device response buffer.
// It never reads past len(buf) and never pads short reads.
type Reader struct {
	buf []byte
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) Len() int {
	return len(r.buf)
}

// Need reports whether width bytes at off are available.
func (r *Reader) Need(off, width int) error {
	if off < 0 || width < 0 || off+width > len(r.buf) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrOutOfBounds, width, off, len(r.buf))
	}
	return nil
}

// Slice returns width bytes at off without copying.
func (r *Reader) Slice(off, width int) ([]byte, error) {
	if err := r.Need(off, width); err != nil {
		return nil, err
	}
	return r.buf[off : off+width], nil
}

func (r *Reader) U8(off int) (uint8, error) {
	if err := r.Need(off, 1); err != nil {
		return 0, err
	}
	return r.buf[off], nil
}

func (r *Reader) U16LE(off int) (uint16, error) {
	v, err := r.uintLE(off, 2)
	return uint16(v), err
}

func (r *Reader) U24LE(off int) (uint32, error) {
	v, err := r.uintLE(off, 3)
	return uint32(v), err
}

func (r *Reader) U32LE(off int) (uint32, error) {
	v, err := r.uintLE(off, 4)
	return uint32(v), err
}

func (r *Reader) U48LE(off int) (uint64, error) {
	return r.uintLE(off, 6)
}

func (r *Reader) U64LE(off int) (uint64, error) {
	return r.uintLE(off, 8)
}

func (r *Reader) U16BE(off int) (uint16, error) {
	v, err := r.UintBE(off, 2)
	return uint16(v), err
}

func (r *Reader) U32BE(off int) (uint32, error) {
	v, err := r.UintBE(off, 4)
	return uint32(v), err
}

func (r *Reader) U64BE(off int) (uint64, error) {
	return r.UintBE(off, 8)
}

// UintBE reads a big-endian unsigned integer of 1 to 8 bytes.
// SCSI log parameters carry counters of variable width.
func (r *Reader) UintBE(off, width int) (uint64, error) {
	if width < 1 || width > 8 {
		return 0, fmt.Errorf("invalid integer width %d", width)
	}
	if err := r.Need(off, width); err != nil {
		return 0, err
	}
	var v uint64
	for _, b := range r.buf[off : off+width] {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

func (r *Reader) uintLE(off, width int) (uint64, error) {
	if err := r.Need(off, width); err != nil {
		return 0, err
	}
	var v uint64
	for i := width - 1; i >= 0; i-- {
		v = v<<8 | uint64(r.buf[off+i])
	}
	return v, nil
}

// Bits returns the byte at off masked with mask.
func (r *Reader) Bits(off int, mask uint8) (uint8, error) {
	b, err := r.U8(off)
	if err != nil {
		return 0, err
	}
	return b & mask, nil
}

// FixedASCII returns a space or NUL padded string field with the padding trimmed.
func (r *Reader) FixedASCII(off, n int) (string, error) {
	b, err := r.Slice(off, n)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), " \x00"), nil
}

// ATAString decodes an IDENTIFY string field, stored as byte-swapped 16-bit words.
func (r *Reader) ATAString(off, n int) (string, error) {
	b, err := r.Slice(off, n)
	if err != nil {
		return "", err
	}
	out := make([]byte, len(b))
	for i := 0; i+1 < len(b); i += 2 {
		out[i], out[i+1] = b[i+1], b[i]
	}
	return strings.TrimSpace(strings.TrimRight(string(out), "\x00")), nil
}
