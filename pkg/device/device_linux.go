// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package device

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
)

type handle struct {
	fd   int
	path string
}

func (h *handle) Close() error {
	return unix.Close(h.fd)
}

func (h *handle) in(ctx context.Context, cdb []byte, n int) ([]byte, error) {
	t := &transfer{dir: sgDxferFromDev, buf: make([]byte, n)}
	if err := sendCDB(ctx, h.fd, cdb, t); err != nil {
		return nil, h.wrap(cdb, err)
	}
	got := len(t.buf) - t.resid
	if got < 0 || got > len(t.buf) {
		got = len(t.buf)
	}
	return t.buf[:got], nil
}

func (h *handle) out(ctx context.Context, cdb, data []byte) error {
	t := &transfer{dir: sgDxferToDev, buf: data}
	if err := sendCDB(ctx, h.fd, cdb, t); err != nil {
		return h.wrap(cdb, err)
	}
	return nil
}

// wrap maps ILLEGAL REQUEST onto ErrPageNotSupported so optional pages degrade.
func (h *handle) wrap(cdb []byte, err error) error {
	var se *SgioError
	if errors.As(err, &se) && senseKey(se.Sense) == senseIllegalRequest {
		return fmt.Errorf("%s: opcode %#02x: %w: %v", h.path, cdb[0], smart.ErrPageNotSupported, err)
	}
	return fmt.Errorf("%s: opcode %#02x: %w", h.path, cdb[0], err)
}

// Open opens a block device and probes it with INQUIRY. Disks behind a SAT
// layer are returned as smart.ATADevice, everything else as smart.SCSIDevice.
func Open(ctx context.Context, path string) (smart.Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0o600)
	if err != nil {
		return nil, &smart.Error{Kind: smart.ErrFailed, Op: "open device", Err: fmt.Errorf("%s: %w", path, err)}
	}
	h := handle{fd: fd, path: path}

	inq, err := h.in(ctx, inquiryCDB(), inquiryReplyLen)
	if err != nil {
		h.Close()
		return nil, &smart.Error{Kind: smart.ErrFailed, Op: "open device", Err: err}
	}
	if len(inq) < 16 || inq[0]&0x1f != 0 {
		h.Close()
		return nil, &smart.Error{Kind: smart.ErrTechUnavail, Op: "open device", Err: fmt.Errorf("%s is not a direct access block device", path)}
	}

	logger := zerolog.Ctx(ctx)
	if string(inq[8:16]) == sataVendorIdent {
		logger.Debug().Str("device", path).Msg("opened sat device")
		return &ataDevice{handle: h}, nil
	}
	logger.Debug().Str("device", path).Str("vendor", string(inq[8:16])).Msg("opened scsi device")
	return &scsiDevice{handle: h}, nil
}

type ataDevice struct {
	handle
}

func (d *ataDevice) Tech() smart.Tech { return smart.TechATA }

func (d *ataDevice) readSector(ctx context.Context, command, feature, lbaLow uint8) ([]byte, error) {
	buf, err := d.in(ctx, ataPassThrough16(command, feature, 1, lbaLow, true, false), sectorSize)
	if err != nil {
		return nil, err
	}
	if len(buf) < sectorSize {
		return nil, fmt.Errorf("%s: short ata read of %d bytes", d.path, len(buf))
	}
	return buf, nil
}

func (d *ataDevice) Identify(ctx context.Context) ([]byte, error) {
	return d.readSector(ctx, ataIdentifyDevice, 0, 0)
}

func (d *ataDevice) ReadSmartData(ctx context.Context) ([]byte, error) {
	return d.readSector(ctx, ataSmart, smartReadData, 0)
}

func (d *ataDevice) ReadThresholds(ctx context.Context) ([]byte, error) {
	return d.readSector(ctx, ataSmart, smartReadThresholds, 0)
}

func (d *ataDevice) ReadLog(ctx context.Context, addr uint8) ([]byte, error) {
	return d.readSector(ctx, ataSmart, smartReadLog, addr)
}

// ReturnStatus issues SMART RETURN STATUS with CK_COND; the registers come back
// in the sense data whether or not the adapter flags a check condition.
func (d *ataDevice) ReturnStatus(ctx context.Context) (uint8, uint8, error) {
	cdb := ataPassThrough16(ataSmart, smartReturnStatus, 0, 0, false, true)
	t := &transfer{dir: sgDxferNone}
	err := sendCDB(ctx, d.fd, cdb, t)
	var se *SgioError
	if err != nil && !errors.As(err, &se) {
		return 0, 0, d.wrap(cdb, err)
	}
	mid, high, ok := ataReturnRegisters(t.sense)
	if !ok {
		if err != nil {
			return 0, 0, d.wrap(cdb, err)
		}
		return 0, 0, fmt.Errorf("%s: no ata registers in sense data", d.path)
	}
	return mid, high, nil
}

func (d *ataDevice) SendCommand(ctx context.Context, cmd smart.Command) error {
	cdb := ataPassThrough16(ataSmart, cmd.Feature, 0, cmd.LBALow, false, false)
	t := &transfer{dir: sgDxferNone}
	if err := sendCDB(ctx, d.fd, cdb, t); err != nil {
		return d.wrap(cdb, err)
	}
	return nil
}

type scsiDevice struct {
	handle
}

func (d *scsiDevice) Tech() smart.Tech { return smart.TechSCSI }

func (d *scsiDevice) LogSense(ctx context.Context, page, subpage uint8) ([]byte, error) {
	buf, err := d.in(ctx, logSenseCDB(page, subpage, maxLogPageLen), maxLogPageLen)
	if err != nil {
		return nil, err
	}
	if len(buf) >= 4 {
		if n := 4 + int(binary.BigEndian.Uint16(buf[2:4])); n < len(buf) {
			buf = buf[:n]
		}
	}
	return buf, nil
}

func (d *scsiDevice) ModeSense(ctx context.Context, page uint8) ([]byte, error) {
	buf, err := d.in(ctx, modeSense6CDB(page, maxModePageLen), maxModePageLen)
	if err != nil {
		return nil, err
	}
	if len(buf) >= 1 {
		if n := int(buf[0]) + 1; n < len(buf) {
			buf = buf[:n]
		}
	}
	return buf, nil
}

func (d *scsiDevice) ReadDefectData(ctx context.Context) ([]byte, error) {
	return d.in(ctx, readDefectData10CDB(defectHeaderLen), defectHeaderLen)
}

func (d *scsiDevice) SendCommand(ctx context.Context, cmd smart.Command) error {
	if len(cmd.CDB) == 0 {
		return fmt.Errorf("%s: empty scsi command", d.path)
	}
	return d.out(ctx, cmd.CDB, cmd.Data)
}
