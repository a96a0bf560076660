// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"context"
	"errors"
)

// SCSI log and mode pages read by the health decoder.
const (
	LogPageWriteErrors        uint8 = 0x02
	LogPageReadErrors         uint8 = 0x03
	LogPageTemperature        uint8 = 0x0d
	LogPageStartStop          uint8 = 0x0e
	LogPageSelfTestResults    uint8 = 0x10
	LogPageBackgroundScan     uint8 = 0x15
	LogPageInformationalExcep uint8 = 0x2f

	ModePageInformationalExcep uint8 = 0x1c
)

const (
	logPageHeader   = 4
	logParamHeader  = 4
	modeSense6Hdr   = 4
	defectListHdr   = 4
	iecDEXCPT       = 0x08
	iecEWASC        = 0x10
	modePagePSBit   = 0x80
	modePageCodeMax = 0x3f
)

// ErrPageNotSupported is returned by a PageSource for pages the device does not implement.
var ErrPageNotSupported = errors.New("page not supported")

// PageSource supplies raw SCSI page responses. Implementations perform the I/O.
type PageSource interface {
	LogSense(ctx context.Context, page, subpage uint8) ([]byte, error)
	ModeSense(ctx context.Context, page uint8) ([]byte, error)
	ReadDefectData(ctx context.Context) ([]byte, error)
}

// Pages is a PageSource over responses captured earlier.
type Pages struct {
	Log     map[uint8][]byte
	Mode    map[uint8][]byte
	Defects []byte
}

func (p Pages) LogSense(_ context.Context, page, _ uint8) ([]byte, error) {
	if b, ok := p.Log[page]; ok {
		return b, nil
	}
	return nil, ErrPageNotSupported
}

func (p Pages) ModeSense(_ context.Context, page uint8) ([]byte, error) {
	if b, ok := p.Mode[page]; ok {
		return b, nil
	}
	return nil, ErrPageNotSupported
}

func (p Pages) ReadDefectData(context.Context) ([]byte, error) {
	if p.Defects == nil {
		return nil, ErrPageNotSupported
	}
	return p.Defects, nil
}

// LogParam is one parameter of a SCSI log page.
type LogParam struct {
	Code    uint16
	Control uint8
	Data    []byte
}

// ParseLogPage splits a LOG SENSE response into parameters and checks the page code.
func ParseLogPage(buf []byte, page uint8) ([]LogParam, error) {
	r := NewReader(buf)
	code, err := r.Bits(0, modePageCodeMax)
	if err != nil {
		return nil, err
	}
	if code != page {
		return nil, errors.New("unexpected log page code")
	}
	length, err := r.U16BE(2)
	if err != nil {
		return nil, err
	}
	end := logPageHeader + int(length)
	if err := r.Need(0, end); err != nil {
		return nil, err
	}
	// Parameters must fit inside the declared page length.
	r = NewReader(buf[:end])

	var params []LogParam
	for off := logPageHeader; off < end; {
		hdr, err := r.Slice(off, logParamHeader)
		if err != nil {
			return nil, err
		}
		n := int(hdr[3])
		data, err := r.Slice(off+logParamHeader, n)
		if err != nil {
			return nil, err
		}
		params = append(params, LogParam{
			Code:    uint16(hdr[0])<<8 | uint16(hdr[1]),
			Control: hdr[2],
			Data:    data,
		})
		off += logParamHeader + n
	}
	return params, nil
}

func findParam(params []LogParam, code uint16) (LogParam, bool) {
	for _, p := range params {
		if p.Code == code {
			return p, true
		}
	}
	return LogParam{}, false
}

// paramUint reads a counter parameter of any width up to 8 bytes.
func paramUint(params []LogParam, code uint16) (uint64, bool) {
	p, ok := findParam(params, code)
	if !ok || len(p.Data) == 0 || len(p.Data) > 8 {
		return 0, false
	}
	v, err := NewReader(p.Data).UintBE(0, len(p.Data))
	return v, err == nil
}

// ModePage locates a page inside a MODE SENSE(6) response, skipping the
// header and block descriptors.
func ModePage(buf []byte, page uint8) ([]byte, error) {
	r := NewReader(buf)
	bdl, err := r.U8(3)
	if err != nil {
		return nil, err
	}
	off := modeSense6Hdr + int(bdl)
	code, err := r.Bits(off, modePageCodeMax)
	if err != nil {
		return nil, err
	}
	if code != page {
		return nil, errors.New("unexpected mode page code")
	}
	n, err := r.U8(off + 1)
	if err != nil {
		return nil, err
	}
	return r.Slice(off, 2+int(n))
}

// GrownDefectCount counts the entries of a READ DEFECT DATA(10) response.
func GrownDefectCount(buf []byte) (uint64, error) {
	r := NewReader(buf)
	if err := r.Need(0, defectListHdr); err != nil {
		return 0, err
	}
	format, _ := r.Bits(1, 0x07)
	length, _ := r.U16BE(2)
	var size uint64
	switch format {
	case 0:
		size = 4
	case 3, 4, 5:
		size = 8
	default:
		return 0, errors.New("unknown defect list format")
	}
	return uint64(length) / size, nil
}
