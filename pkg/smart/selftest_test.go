package smart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSelfTestState(t *testing.T) {
	tests := []struct {
		name    string
		cur     SelfTestState
		tech    Tech
		op      SelfTestOp
		want    SelfTestState
		wantErr error
	}{
		{"short from idle", StateIdle, TechATA, SelfTestOpShort, StateRequested, nil},
		{"long after pass", StateCompletedPass, TechSCSI, SelfTestOpLong, StateRequested, nil},
		{"offline after failure", StateCompletedFail, TechATA, SelfTestOpOffline, StateRequested, nil},
		{"conveyance on ata", StateAborted, TechATA, SelfTestOpConveyance, StateRequested, nil},
		{"conveyance on scsi", StateIdle, TechSCSI, SelfTestOpConveyance, StateIdle, ErrTechUnavail},
		{"new test while running", StateRunning, TechATA, SelfTestOpShort, StateRunning, ErrInvalidArgument},
		{"new test while requested", StateRequested, TechSCSI, SelfTestOpLong, StateRequested, ErrInvalidArgument},
		{"abort running", StateRunning, TechATA, SelfTestOpAbort, StateAborted, nil},
		{"abort requested", StateRequested, TechSCSI, SelfTestOpAbort, StateAborted, nil},
		{"abort idle", StateIdle, TechATA, SelfTestOpAbort, StateIdle, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextSelfTestState(tt.cur, tt.tech, tt.op)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestATASelfTestState(t *testing.T) {
	entry := []SelfTestLogEntry{{Type: "short"}}

	assert.Equal(t, SelfTestProgress{State: StateRunning, PercentRemaining: 70}, ATASelfTestState(SelfTestInProgress, 70, entry))
	assert.Equal(t, StateIdle, ATASelfTestState(SelfTestCompletedNoError, 0, nil).State)
	assert.Equal(t, StateCompletedPass, ATASelfTestState(SelfTestCompletedNoError, 0, entry).State)
	assert.Equal(t, StateAborted, ATASelfTestState(SelfTestAbortedHost, 0, entry).State)
	assert.Equal(t, StateAborted, ATASelfTestState(SelfTestIntrHostReset, 0, entry).State)

	p := ATASelfTestState(SelfTestErrorServo, 0, entry)
	assert.Equal(t, StateCompletedFail, p.State)
	assert.Equal(t, SelfTestErrorServo, p.Reason)
	assert.True(t, p.Reason.Failed())
}

func TestSCSISelfTestState(t *testing.T) {
	assert.Equal(t, StateIdle, SCSISelfTestState(nil).State)
	assert.Equal(t, StateRunning, SCSISelfTestState([]SelfTestLogEntry{{Status: SelfTestInProgress}}).State)
	assert.Equal(t, StateCompletedPass, SCSISelfTestState([]SelfTestLogEntry{{Status: SelfTestCompletedNoError}, {Status: SelfTestErrorRead}}).State)
	assert.Equal(t, StateCompletedFail, SCSISelfTestState([]SelfTestLogEntry{{Status: SelfTestErrorRead}}).State)
}

func TestATACommands(t *testing.T) {
	assert.Equal(t, Command{Feature: 0xd4, LBALow: 0x00}, ATASelfTestCommand(SelfTestOpOffline))
	assert.Equal(t, Command{Feature: 0xd4, LBALow: 0x01}, ATASelfTestCommand(SelfTestOpShort))
	assert.Equal(t, Command{Feature: 0xd4, LBALow: 0x02}, ATASelfTestCommand(SelfTestOpLong))
	assert.Equal(t, Command{Feature: 0xd4, LBALow: 0x03}, ATASelfTestCommand(SelfTestOpConveyance))
	assert.Equal(t, Command{Feature: 0xd4, LBALow: 0x7f}, ATASelfTestCommand(SelfTestOpAbort))
	assert.Equal(t, Command{Feature: 0xd8}, ATAEnableCommand(true))
	assert.Equal(t, Command{Feature: 0xd9}, ATAEnableCommand(false))
}

func TestSCSISelfTestCommand(t *testing.T) {
	cmd, err := SCSISelfTestCommand(SelfTestOpShort)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1d, 0x20, 0, 0, 0, 0}, cmd.CDB)

	cmd, err = SCSISelfTestCommand(SelfTestOpLong)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1d, 0x40, 0, 0, 0, 0}, cmd.CDB)

	cmd, err = SCSISelfTestCommand(SelfTestOpAbort)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1d, 0x80, 0, 0, 0, 0}, cmd.CDB)

	cmd, err = SCSISelfTestCommand(SelfTestOpOffline)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1d, 0x04, 0, 0, 0, 0}, cmd.CDB)

	_, err = SCSISelfTestCommand(SelfTestOpConveyance)
	assert.ErrorIs(t, err, ErrTechUnavail)
}

func TestSCSIEnableCommand(t *testing.T) {
	sense := iecModeSense(iecDEXCPT | iecEWASC)
	cmd, err := SCSIEnableCommand(sense, true)
	require.NoError(t, err)

	assert.Equal(t, byte(0x15), cmd.CDB[0])
	assert.Equal(t, byte(0x10), cmd.CDB[1])
	assert.Equal(t, byte(len(cmd.Data)), cmd.CDB[4])
	require.Len(t, cmd.Data, len(sense))
	assert.Zero(t, cmd.Data[0], "mode data length is reserved")

	page := cmd.Data[12:]
	assert.Equal(t, ModePageInformationalExcep, page[0], "PS bit cleared")
	assert.Zero(t, page[2]&iecDEXCPT)
	assert.NotZero(t, page[2]&iecEWASC)

	cmd, err = SCSIEnableCommand(iecModeSense(0), false)
	require.NoError(t, err)
	assert.NotZero(t, cmd.Data[14]&iecDEXCPT)

	_, err = SCSIEnableCommand([]byte{0, 0, 0, 0}, true)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRunSelfTestATA(t *testing.T) {
	dev := newFakeATA()
	dev.data[offSelfTestExec] = 0x00

	state, err := RunSelfTest(context.Background(), dev, SelfTestOpShort)
	require.NoError(t, err)
	assert.Equal(t, StateRequested, state)
	require.Len(t, dev.sent, 1)
	assert.Equal(t, ATASelfTestCommand(SelfTestOpShort), dev.sent[0])

	// Idle device: nothing to abort.
	_, err = RunSelfTest(context.Background(), dev, SelfTestOpAbort)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Len(t, dev.sent, 1)
}

func TestRunSelfTestATAInProgress(t *testing.T) {
	dev := newFakeATA()
	dev.data[offSelfTestExec] = 0xf5

	state, err := RunSelfTest(context.Background(), dev, SelfTestOpLong)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, StateRunning, state)
	assert.Empty(t, dev.sent)

	state, err = RunSelfTest(context.Background(), dev, SelfTestOpAbort)
	require.NoError(t, err)
	assert.Equal(t, StateAborted, state)
	assert.Equal(t, []Command{ATASelfTestCommand(SelfTestOpAbort)}, dev.sent)
}

func TestRunSelfTestSCSI(t *testing.T) {
	dev := newFakeSCSI()

	_, err := RunSelfTest(context.Background(), dev, SelfTestOpConveyance)
	assert.ErrorIs(t, err, ErrTechUnavail)
	assert.Empty(t, dev.sent)

	state, err := RunSelfTest(context.Background(), dev, SelfTestOpLong)
	require.NoError(t, err)
	assert.Equal(t, StateRequested, state)
	require.Len(t, dev.sent, 1)
	assert.Equal(t, byte(0x40), dev.sent[0].CDB[1])

	dev.Log[LogPageSelfTestResults] = logPage(LogPageSelfTestResults, scsiSelfTestParam(1, 2<<5|0xf, 2001, 0))
	_, err = RunSelfTest(context.Background(), dev, SelfTestOpShort)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSetSmartEnabled(t *testing.T) {
	ata := newFakeATA()
	require.NoError(t, SetSmartEnabled(context.Background(), ata, false))
	assert.Equal(t, []Command{ATAEnableCommand(false)}, ata.sent)

	scsi := newFakeSCSI()
	require.NoError(t, SetSmartEnabled(context.Background(), scsi, false))
	require.Len(t, scsi.sent, 1)
	assert.Equal(t, byte(0x15), scsi.sent[0].CDB[0])

	scsi.Mode = nil
	err := SetSmartEnabled(context.Background(), scsi, true)
	assert.ErrorIs(t, err, ErrFailed)
}
