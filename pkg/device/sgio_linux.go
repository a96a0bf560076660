// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package device

import (
	"context"
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	sgIO = 0x2285

	sgDxferNone    = -1
	sgDxferToDev   = -2
	sgDxferFromDev = -3

	sgInfoOKMask = 0x1
	sgInfoOK     = 0x0

	senseBufLen = 32
)

// SCSI generic ioctl header, sg_io_hdr_t in <scsi/sg.h>.
type sgIoHdr struct {
	interfaceID    int32   // 'S' for SCSI generic
	dxferDirection int32   // data transfer direction
	cmdLen         uint8   // SCSI command length (<= 16 bytes)
	mxSbLen        uint8   // max length to write to sbp
	iovecCount     uint16  // 0 implies no scatter gather
	dxferLen       uint32  // byte count of data transfer
	dxferp         uintptr // data transfer memory
	cmdp           uintptr // command to perform
	sbp            uintptr // sense buffer memory
	timeout        uint32  // milliseconds
	flags          uint32
	packID         int32
	usrPtr         uintptr
	status         uint8 // SCSI status
	maskedStatus   uint8
	msgStatus      uint8
	sbLenWr        uint8 // byte count actually written to sbp
	hostStatus     uint16
	driverStatus   uint16
	resid          int32 // dxfer_len - actual_transferred
	duration       uint32
	info           uint32
}

// SgioError reports a command the device or the host adapter did not complete.
type SgioError struct {
	Status       uint8
	HostStatus   uint16
	DriverStatus uint16
	Sense        []byte
}

func (e *SgioError) Error() string {
	return fmt.Sprintf("SCSI status: %#02x, host status: %#02x, driver status: %#02x, sense key: %#x",
		e.Status, e.HostStatus, e.DriverStatus, senseKey(e.Sense))
}

type transfer struct {
	dir   int32
	buf   []byte
	sense []byte
	resid int
}

func sendCDB(ctx context.Context, fd int, cdb []byte, t *transfer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.sense = make([]byte, senseBufLen)

	hdr := sgIoHdr{
		interfaceID:    'S',
		dxferDirection: t.dir,
		timeout:        timeoutFor(ctx.Deadline()),
		cmdLen:         uint8(len(cdb)),
		mxSbLen:        uint8(len(t.sense)),
		cmdp:           uintptr(unsafe.Pointer(&cdb[0])),
		sbp:            uintptr(unsafe.Pointer(&t.sense[0])),
	}
	if len(t.buf) > 0 {
		hdr.dxferLen = uint32(len(t.buf))
		hdr.dxferp = uintptr(unsafe.Pointer(&t.buf[0]))
	} else {
		hdr.dxferDirection = sgDxferNone
	}

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), sgIO, uintptr(unsafe.Pointer(&hdr)))
	runtime.KeepAlive(cdb)
	runtime.KeepAlive(t.buf)
	runtime.KeepAlive(t.sense)
	if errno != 0 {
		return errno
	}

	t.sense = t.sense[:hdr.sbLenWr]
	t.resid = int(hdr.resid)
	if hdr.info&sgInfoOKMask != sgInfoOK {
		return &SgioError{
			Status:       hdr.status,
			HostStatus:   hdr.hostStatus,
			DriverStatus: hdr.driverStatus,
			Sense:        t.sense,
		}
	}
	return nil
}
