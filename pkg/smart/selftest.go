// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import "fmt"

// SelfTestState is the lifecycle state of a device self-test.
type SelfTestState int

const (
	StateIdle SelfTestState = iota
	StateRequested
	StateRunning
	StateCompletedPass
	StateCompletedFail
	StateAborted
)

func (s SelfTestState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequested:
		return "requested"
	case StateRunning:
		return "running"
	case StateCompletedPass:
		return "completed-pass"
	case StateCompletedFail:
		return "completed-fail"
	case StateAborted:
		return "aborted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// SelfTestProgress is the observed self-test state. Reason is set for
// StateCompletedFail and PercentRemaining for StateRunning.
type SelfTestProgress struct {
	State            SelfTestState
	Reason           SelfTestStatus
	PercentRemaining int
}

// SMART EXECUTE OFF-LINE IMMEDIATE subcommands and related features.
const (
	ataFeatureExecOffline uint8 = 0xd4
	ataFeatureEnable      uint8 = 0xd8
	ataFeatureDisable     uint8 = 0xd9

	ataSubOffline    uint8 = 0x00
	ataSubShort      uint8 = 0x01
	ataSubExtended   uint8 = 0x02
	ataSubConveyance uint8 = 0x03
	ataSubAbort      uint8 = 0x7f
)

// SCSI SEND DIAGNOSTIC and MODE SELECT.
const (
	scsiOpSendDiagnostic uint8 = 0x1d
	scsiOpModeSelect6    uint8 = 0x15

	diagSelfTestBit  uint8 = 0x04
	diagCodeShort    uint8 = 1
	diagCodeExtended uint8 = 2
	diagCodeAbort    uint8 = 4
	modeSelectPFBit  uint8 = 0x10
)

const diagSelfCodeShift = 5

// ATASelfTestState maps the self-test execution status onto a state. A zero
// status with an empty log means no test ever ran.
func ATASelfTestState(status SelfTestStatus, percent int, log []SelfTestLogEntry) SelfTestProgress {
	switch {
	case status == SelfTestInProgress:
		return SelfTestProgress{State: StateRunning, PercentRemaining: percent}
	case status == SelfTestCompletedNoError:
		if len(log) == 0 {
			return SelfTestProgress{State: StateIdle}
		}
		return SelfTestProgress{State: StateCompletedPass}
	case status == SelfTestAbortedHost, status == SelfTestIntrHostReset:
		return SelfTestProgress{State: StateAborted, Reason: status}
	}
	return SelfTestProgress{State: StateCompletedFail, Reason: status}
}

// SCSISelfTestState derives the state from the most recent self-test result.
func SCSISelfTestState(log []SelfTestLogEntry) SelfTestProgress {
	if len(log) == 0 {
		return SelfTestProgress{State: StateIdle}
	}
	last := log[0]
	switch {
	case last.Status == SelfTestInProgress:
		return SelfTestProgress{State: StateRunning}
	case last.Status == SelfTestCompletedNoError:
		return SelfTestProgress{State: StateCompletedPass}
	case last.Status == SelfTestAbortedHost, last.Status == SelfTestIntrHostReset:
		return SelfTestProgress{State: StateAborted, Reason: last.Status}
	}
	return SelfTestProgress{State: StateCompletedFail, Reason: last.Status}
}

func checkSelfTestTech(tech Tech, op SelfTestOp) error {
	if op == SelfTestOpConveyance && tech != TechATA {
		return techUnavailf("device self-test", "conveyance self-test is not available on %s devices", tech)
	}
	return nil
}

// NextSelfTestState validates op against the current state and returns the
// state the device enters once it accepts the request.
func NextSelfTestState(cur SelfTestState, tech Tech, op SelfTestOp) (SelfTestState, error) {
	const name = "device self-test"
	if err := checkSelfTestTech(tech, op); err != nil {
		return cur, err
	}
	switch op {
	case SelfTestOpAbort:
		if cur == StateIdle {
			return cur, invalidArgf(name, "no self-test to abort")
		}
		return StateAborted, nil
	case SelfTestOpOffline, SelfTestOpShort, SelfTestOpLong, SelfTestOpConveyance:
		if cur == StateRunning || cur == StateRequested {
			return cur, invalidArgf(name, "a self-test is already running")
		}
		return StateRequested, nil
	}
	return cur, invalidArgf(name, "unknown self-test operation %s", op)
}

// ATASelfTestCommand builds SMART EXECUTE OFF-LINE IMMEDIATE for op.
func ATASelfTestCommand(op SelfTestOp) Command {
	sub := ataSubOffline
	switch op {
	case SelfTestOpShort:
		sub = ataSubShort
	case SelfTestOpLong:
		sub = ataSubExtended
	case SelfTestOpConveyance:
		sub = ataSubConveyance
	case SelfTestOpAbort:
		sub = ataSubAbort
	}
	return Command{Feature: ataFeatureExecOffline, LBALow: sub}
}

// ATAEnableCommand builds SMART ENABLE OPERATIONS or SMART DISABLE OPERATIONS.
func ATAEnableCommand(enabled bool) Command {
	if enabled {
		return Command{Feature: ataFeatureEnable}
	}
	return Command{Feature: ataFeatureDisable}
}

// SCSISelfTestCommand builds SEND DIAGNOSTIC for op. Offline runs the device's
// default self-test.
func SCSISelfTestCommand(op SelfTestOp) (Command, error) {
	cdb := make([]byte, 6)
	cdb[0] = scsiOpSendDiagnostic
	switch op {
	case SelfTestOpOffline:
		cdb[1] = diagSelfTestBit
	case SelfTestOpShort:
		cdb[1] = diagCodeShort << diagSelfCodeShift
	case SelfTestOpLong:
		cdb[1] = diagCodeExtended << diagSelfCodeShift
	case SelfTestOpAbort:
		cdb[1] = diagCodeAbort << diagSelfCodeShift
	default:
		return Command{}, techUnavailf("device self-test", "%s self-test is not available on scsi devices", op)
	}
	return Command{CDB: cdb}, nil
}

// SCSIEnableCommand builds MODE SELECT(6) for the informational exceptions
// page taken from a MODE SENSE(6) response, with DEXCPT set from enabled.
func SCSIEnableCommand(modeSense []byte, enabled bool) (Command, error) {
	const op = "set smart enabled"
	page, err := ModePage(modeSense, ModePageInformationalExcep)
	if err != nil {
		return Command{}, invalidArgf(op, "%v", err)
	}
	if len(page) < 3 {
		return Command{}, invalidArgf(op, "informational exceptions page is %d bytes", len(page))
	}
	bdl := int(modeSense[3])

	data := make([]byte, 0, modeSense6Hdr+bdl+len(page))
	// Mode data length is reserved for MODE SELECT; keep medium type and block descriptors.
	data = append(data, 0, modeSense[1], 0, modeSense[3])
	data = append(data, modeSense[modeSense6Hdr:modeSense6Hdr+bdl]...)
	pageStart := len(data)
	data = append(data, page...)
	data[pageStart] &^= modePagePSBit
	if enabled {
		data[pageStart+2] &^= iecDEXCPT
	} else {
		data[pageStart+2] |= iecDEXCPT
	}

	cdb := []byte{scsiOpModeSelect6, modeSelectPFBit, 0, 0, byte(len(data)), 0}
	return Command{CDB: cdb, Data: data}, nil
}
