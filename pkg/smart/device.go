// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"context"

	"github.com/rs/zerolog"
)

// ATA SMART log addresses.
const ATALogSelfTest uint8 = 0x06

// Command is a SMART command for the device transport.
// ATA devices use Feature and LBALow, SCSI devices use CDB and Data.
type Command struct {
	Feature uint8
	LBALow  uint8
	CDB     []byte
	Data    []byte
}

// Device is an open disk handle.
type Device interface {
	Tech() Tech
	SendCommand(ctx context.Context, cmd Command) error
	Close() error
}

// ATADevice reads the raw ATA SMART structures.
type ATADevice interface {
	Device
	Identify(ctx context.Context) ([]byte, error)
	ReadSmartData(ctx context.Context) ([]byte, error)
	ReadThresholds(ctx context.Context) ([]byte, error)
	ReadLog(ctx context.Context, addr uint8) ([]byte, error)
	// ReturnStatus returns the LBA mid and high registers of SMART RETURN STATUS.
	ReturnStatus(ctx context.Context) (lbaMid, lbaHigh uint8, err error)
}

// SCSIDevice reads SCSI log and mode pages.
type SCSIDevice interface {
	Device
	PageSource
}

// Opener opens a device node. Implementations return an ATADevice or a SCSIDevice.
type Opener func(ctx context.Context, path string) (Device, error)

// ReadATAData collects the raw structures of an ATA device. SMART data is not
// read when IDENTIFY reports SMART unsupported or disabled.
func ReadATAData(ctx context.Context, dev ATADevice) (ATAData, error) {
	const op = "read ata data"
	logger := zerolog.Ctx(ctx)

	var d ATAData
	var err error
	if d.Identify, err = dev.Identify(ctx); err != nil {
		return ATAData{}, failed(op, err)
	}
	id, err := ParseIdentify(d.Identify)
	if err != nil {
		return ATAData{}, failed(op, err)
	}
	if !id.SmartSupported || !id.SmartEnabled {
		return d, nil
	}

	if d.SmartData, err = dev.ReadSmartData(ctx); err != nil {
		return ATAData{}, failed(op, err)
	}
	if d.Thresholds, err = dev.ReadThresholds(ctx); err != nil {
		logger.Warn().Err(err).Msg("smart thresholds unavailable")
		d.Thresholds = nil
	}

	mid, high, err := dev.ReturnStatus(ctx)
	if err != nil {
		return ATAData{}, failed(op, err)
	}
	if d.StatusPassed, err = ReturnStatusPassed(mid, high); err != nil {
		return ATAData{}, err
	}
	d.StatusKnown = true

	if len(d.SmartData) > offOfflineCapability &&
		OfflineCapabilities(d.SmartData[offOfflineCapability]).Has(OfflineCapSelfTest) {
		if d.SelfTestLog, err = dev.ReadLog(ctx, ATALogSelfTest); err != nil {
			logger.Warn().Err(err).Msg("self-test log unavailable")
			d.SelfTestLog = nil
		}
	}
	return d, nil
}

// ReadATAHealth reads and decodes the health report of an ATA device.
func ReadATAHealth(ctx context.Context, dev ATADevice) (*AtaHealth, error) {
	d, err := ReadATAData(ctx, dev)
	if err != nil {
		return nil, err
	}
	return d.Decode()
}

// SetSmartEnabled turns SMART on or off. For SCSI devices this toggles the
// DEXCPT bit of the informational exceptions mode page.
func SetSmartEnabled(ctx context.Context, dev Device, enabled bool) error {
	const op = "set smart enabled"
	var cmd Command
	switch d := dev.(type) {
	case ATADevice:
		cmd = ATAEnableCommand(enabled)
	case SCSIDevice:
		page, err := d.ModeSense(ctx, ModePageInformationalExcep)
		if err != nil {
			return failed(op, err)
		}
		if cmd, err = SCSIEnableCommand(page, enabled); err != nil {
			return err
		}
	default:
		return techUnavailf(op, "unsupported device technology %s", dev.Tech())
	}
	if err := dev.SendCommand(ctx, cmd); err != nil {
		return failed(op, err)
	}
	return nil
}

// RunSelfTest checks the requested operation against the device's current
// self-test state and issues the command. It returns once the device accepted
// the request.
func RunSelfTest(ctx context.Context, dev Device, op SelfTestOp) (SelfTestState, error) {
	const name = "device self-test"
	if err := checkSelfTestTech(dev.Tech(), op); err != nil {
		return StateIdle, err
	}

	cur, err := CurrentSelfTest(ctx, dev)
	if err != nil {
		return StateIdle, err
	}
	next, err := NextSelfTestState(cur.State, dev.Tech(), op)
	if err != nil {
		return cur.State, err
	}

	var cmd Command
	switch dev.Tech() {
	case TechATA:
		cmd = ATASelfTestCommand(op)
	default:
		if cmd, err = SCSISelfTestCommand(op); err != nil {
			return cur.State, err
		}
	}
	if err := dev.SendCommand(ctx, cmd); err != nil {
		return cur.State, failed(name, err)
	}
	zerolog.Ctx(ctx).Debug().Str("op", op.String()).Str("from", cur.State.String()).Msg("self-test requested")
	return next, nil
}

// CurrentSelfTest derives the self-test state from what the device reports.
func CurrentSelfTest(ctx context.Context, dev Device) (SelfTestProgress, error) {
	const op = "current self-test"
	switch d := dev.(type) {
	case ATADevice:
		data, err := d.ReadSmartData(ctx)
		if err != nil {
			return SelfTestProgress{}, failed(op, err)
		}
		var log []SelfTestLogEntry
		if buf, err := d.ReadLog(ctx, ATALogSelfTest); err == nil {
			log, _ = DecodeATASelfTestLog(buf)
		}
		r := NewReader(data)
		exec, err := r.U8(offSelfTestExec)
		if err != nil {
			return SelfTestProgress{}, invalidArgf(op, "%v", err)
		}
		return ATASelfTestState(SelfTestStatus(exec>>4), int(exec&0x0f)*10, log), nil
	case SCSIDevice:
		var log []SelfTestLogEntry
		err := readLogPage(ctx, d, LogPageSelfTestResults, func(p []LogParam) error {
			var err error
			log, err = DecodeSCSISelfTestLog(p)
			return err
		})
		if err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Msg("self-test results page unavailable")
		}
		return SCSISelfTestState(log), nil
	}
	return SelfTestProgress{}, techUnavailf(op, "unsupported device technology %s", dev.Tech())
}
