// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/smartprobe/pkg/backends/smartctl"
	"github.com/cobaltcore-dev/smartprobe/pkg/device"
	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
)

var (
	infoJSON     bool
	infoFromFile string
	dumpOutput   string
	selfTestWait bool
	selfTestPoll time.Duration
)

// report is either an ATA or a SCSI health report.
type report struct {
	Tech string            `json:"tech"`
	ATA  *smart.AtaHealth  `json:"ata,omitempty"`
	SCSI *smart.ScsiHealth `json:"scsi,omitempty"`
}

func (r report) selfTest() smart.SelfTestProgress {
	if r.ATA != nil {
		return smart.ATASelfTestState(r.ATA.SelfTestStatus, r.ATA.SelfTestPercentRemaining, r.ATA.SelfTestLog)
	}
	return smart.SCSISelfTestState(r.SCSI.SelfTestLog)
}

type healthReader interface {
	ATAGetInfo(ctx context.Context, device string, extra ...smart.ExtraArg) (*smart.AtaHealth, error)
	SCSIGetInfo(ctx context.Context, device string, extra ...smart.ExtraArg) (*smart.ScsiHealth, error)
}

// readReport tries ATA first and falls back to SCSI for non-ATA devices.
func readReport(ctx context.Context, c healthReader, dev string, extra []smart.ExtraArg) (report, error) {
	ata, err := c.ATAGetInfo(ctx, dev, extra...)
	if err == nil {
		return report{Tech: smart.TechATA.String(), ATA: ata}, nil
	}
	if !errors.Is(err, smart.ErrInvalidArgument) && !errors.Is(err, smart.ErrTechUnavail) {
		return report{}, err
	}
	scsi, err := c.SCSIGetInfo(ctx, dev, extra...)
	if err != nil {
		return report{}, err
	}
	return report{Tech: smart.TechSCSI.String(), SCSI: scsi}, nil
}

func celsius(kelvin float64) string {
	if kelvin == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.0f C", kelvin-273.15)
}

func verdict(passed bool) string {
	if passed {
		return "PASSED"
	}
	return "FAILED"
}

func printATA(w io.Writer, h *smart.AtaHealth) {
	fmt.Fprintf(w, "Model:           %s\n", h.Identity.Model)
	fmt.Fprintf(w, "Serial:          %s\n", h.Identity.Serial)
	fmt.Fprintf(w, "Firmware:        %s\n", h.Identity.Firmware)
	if h.Identity.Vendor != "" {
		fmt.Fprintf(w, "Vendor:          %s\n", h.Identity.Vendor)
	}
	if !h.SmartSupported || !h.SmartEnabled {
		fmt.Fprintf(w, "SMART:           supported=%t enabled=%t\n", h.SmartSupported, h.SmartEnabled)
		return
	}
	fmt.Fprintf(w, "Health:          %s\n", verdict(h.OverallStatusPassed))
	fmt.Fprintf(w, "Temperature:     %s\n", celsius(h.Temperature))
	fmt.Fprintf(w, "Power on:        %s hours\n", humanize.Comma(int64(h.PowerOnMinutes/60)))
	fmt.Fprintf(w, "Power cycles:    %s\n", humanize.Comma(int64(h.PowerCycleCount)))
	fmt.Fprintf(w, "Self-test:       %s\n", h.SelfTestStatus)
	fmt.Fprintf(w, "Offline:         %s\n", h.OfflineDataCollectionStatus)
	fmt.Fprintf(w, "Capabilities:    %s\n", h.OfflineDataCollectionCapabilities)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%3s %-28s %5s %5s %5s  %-12s %s\n", "ID", "ATTRIBUTE", "VALUE", "WORST", "THRESH", "RAW", "PRETTY")
	for _, a := range h.Attributes {
		flag := ""
		switch {
		case a.FailingNow:
			flag = " FAILING_NOW"
		case a.FailedPast:
			flag = " In_the_past"
		}
		fmt.Fprintf(w, "%3d %-28s %5d %5d %5d  %-12d %d %s%s\n",
			a.ID, a.Name, a.Value.Int(), a.Worst.Int(), a.Threshold.Int(), a.Raw, a.PrettyValue, a.PrettyUnit, flag)
	}
}

func printSCSI(w io.Writer, h *smart.ScsiHealth) {
	fmt.Fprintf(w, "Health:          %s\n", verdict(h.OverallStatusPassed))
	if h.IEString != "" {
		fmt.Fprintf(w, "Exception:       %s (asc 0x%02x ascq 0x%02x)\n", h.IEString, h.IEASC, h.IEASCQ)
	}
	fmt.Fprintf(w, "Temperature:     %s (trip %s)\n", celsius(h.Temperature), celsius(h.TemperatureDriveTrip))
	fmt.Fprintf(w, "Power on:        %s hours\n", humanize.Comma(int64(h.PowerOnTime/60)))
	fmt.Fprintf(w, "Grown defects:   %s\n", humanize.Comma(int64(h.ScsiGrownDefectList)))
	fmt.Fprintf(w, "Start/stop:      %s of %s\n", humanize.Comma(int64(h.StartStopCycleCount)), humanize.Comma(int64(h.StartStopCycleLifetime)))
	fmt.Fprintf(w, "Load/unload:     %s of %s\n", humanize.Comma(int64(h.LoadUnloadCycleCount)), humanize.Comma(int64(h.LoadUnloadCycleLifetime)))
	fmt.Fprintf(w, "Background scan: %s, %.2f%%, %d scans\n", h.BackgroundScanStatus, h.BackgroundScanProgress, h.BackgroundScanRuns)
	fmt.Fprintf(w, "Read:            %s processed, %d corrected, %d uncorrected\n", humanize.Bytes(h.Read.BytesProcessed), h.Read.TotalCorrected, h.Read.Uncorrected)
	fmt.Fprintf(w, "Write:           %s processed, %d corrected, %d uncorrected\n", humanize.Bytes(h.Write.BytesProcessed), h.Write.TotalCorrected, h.Write.Uncorrected)
}

func printSelfTestLog(w io.Writer, entries []smart.SelfTestLogEntry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-3s %-12s %-24s %9s %10s %s\n", "NUM", "TYPE", "STATUS", "REMAINING", "HOURS", "LBA")
	for i, e := range entries {
		lba := "-"
		if e.FailingLBA != 0 {
			lba = fmt.Sprint(e.FailingLBA)
		}
		fmt.Fprintf(w, "%-3d %-12s %-24s %8d%% %10d %s\n", i+1, e.Type, e.Status, e.PercentRemaining, e.LifetimeHours, lba)
	}
}

func printReport(w io.Writer, r report) {
	if r.ATA != nil {
		printATA(w, r.ATA)
		printSelfTestLog(w, r.ATA.SelfTestLog)
		return
	}
	printSCSI(w, r.SCSI)
	printSelfTestLog(w, r.SCSI.SelfTestLog)
}

func writeReport(w io.Writer, r report) error {
	if !infoJSON {
		printReport(w, r)
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

var infoCmd = &cobra.Command{
	Use:   "info [device]",
	Short: "Print the SMART health report of a disk",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := setUpClient(ctx, backendName)
		if err != nil {
			return err
		}
		defer client.Close()

		if infoFromFile != "" {
			data, err := os.ReadFile(infoFromFile)
			if err != nil {
				return err
			}
			h, err := client.ATAGetInfoFromData(data)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), report{Tech: smart.TechATA.String(), ATA: h})
		}

		if len(args) != 1 {
			return errors.New("a device or --from-file is required")
		}
		r, err := readReport(ctx, client, args[0], parseExtraArgs(extraArgs))
		if err != nil {
			return err
		}
		return writeReport(cmd.OutOrStdout(), r)
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump <device>",
	Short: "Write the raw SMART structures of an ATA disk as a tagged blob",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := log.Logger.With().Str("device", args[0]).Logger().WithContext(cmd.Context())
		dev, err := device.Open(ctx, args[0])
		if err != nil {
			return err
		}
		defer dev.Close()

		ata, ok := dev.(smart.ATADevice)
		if !ok {
			return fmt.Errorf("%s is a %s device, dump supports ata only", args[0], dev.Tech())
		}
		d, err := smart.ReadATAData(ctx, ata)
		if err != nil {
			return err
		}
		blob := smart.EncodeATABlob(d)

		if dumpOutput == "" || dumpOutput == "-" {
			_, err = cmd.OutOrStdout().Write(blob)
			return err
		}
		if err := os.WriteFile(dumpOutput, blob, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s to %s\n", humanize.Bytes(uint64(len(blob))), dumpOutput)
		return nil
	},
}

var selfTestCmd = &cobra.Command{
	Use:   "self-test <device> <offline|short|long|conveyance|abort>",
	Short: "Request a SMART self-test",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		op, err := smart.ParseSelfTestOp(args[1])
		if err != nil {
			return err
		}
		client, err := setUpClient(ctx, backendName)
		if err != nil {
			return err
		}
		defer client.Close()

		extra := parseExtraArgs(extraArgs)
		wait := selfTestWait && op != smart.SelfTestOpAbort
		var before report
		if wait {
			if before, err = readReport(ctx, client, args[0], extra); err != nil {
				return err
			}
		}
		state, err := client.DeviceSelfTest(ctx, args[0], op, extra...)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: self-test %s %s\n", args[0], op, state)
		if !wait {
			return nil
		}
		return waitForSelfTest(ctx, cmd.ErrOrStderr(), client, args[0], op, before, extra)
	},
}

func finished(s smart.SelfTestState) bool {
	switch s {
	case smart.StateCompletedPass, smart.StateCompletedFail, smart.StateAborted:
		return true
	}
	return false
}

// selfTestMark is the self-test result visible at one poll.
type selfTestMark struct {
	status  smart.SelfTestStatus
	newest  smart.SelfTestLogEntry
	entries int
}

func markOf(r report) selfTestMark {
	var m selfTestMark
	var entries []smart.SelfTestLogEntry
	if r.ATA != nil {
		m.status = r.ATA.SelfTestStatus
		entries = r.ATA.SelfTestLog
	} else if r.SCSI != nil {
		entries = r.SCSI.SelfTestLog
	}
	if len(entries) > 0 {
		m.newest = entries[0]
		if r.ATA == nil {
			m.status = entries[0].Status
		}
	}
	m.entries = len(entries)
	return m
}

// waitForSelfTest polls the device until the requested test finished. A
// finished result equal to the one in before is the previous test and is
// skipped until the device shows the new test running or a different result.
func waitForSelfTest(ctx context.Context, w io.Writer, c healthReader, dev string, op smart.SelfTestOp, before report, extra []smart.ExtraArg) error {
	if op == smart.SelfTestOpOffline {
		if before.ATA == nil {
			// SEND DIAGNOSTIC runs the default self-test to completion.
			fmt.Fprintf(w, "%s: default self-test finished with the request\n", dev)
			return nil
		}
		return waitForOffline(ctx, w, c, dev, before.ATA, extra)
	}

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(dev+" self-test"),
		progressbar.OptionShowCount(),
	)
	ticker := time.NewTicker(selfTestPoll)
	defer ticker.Stop()

	prev := markOf(before)
	seenRunning := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		r, err := readReport(ctx, c, dev, extra)
		if err != nil {
			return err
		}
		p := r.selfTest()
		if p.State == smart.StateRunning {
			seenRunning = true
			if r.ATA != nil {
				_ = bar.Set(100 - p.PercentRemaining)
			}
		}
		if !finished(p.State) || (!seenRunning && markOf(r) == prev) {
			continue
		}
		_ = bar.Finish()
		fmt.Fprintln(w)
		if p.State != smart.StateCompletedPass {
			return &smart.Error{Kind: smart.ErrFailed, Op: "device self-test", Err: fmt.Errorf("%s: %s (%s)", dev, p.State, p.Reason)}
		}
		fmt.Fprintf(w, "%s: self-test %s\n", dev, p.State)
		return nil
	}
}

// waitForOffline polls the offline data collection status. Past the device's
// own completion estimate an unchanged status counts as the new result.
func waitForOffline(ctx context.Context, w io.Writer, c healthReader, dev string, before *smart.AtaHealth, extra []smart.ExtraArg) error {
	const op = "offline data collection"
	deadline := time.Now().Add(time.Duration(before.OfflineDataCollectionCompletion) * time.Second)
	ticker := time.NewTicker(selfTestPoll)
	defer ticker.Stop()

	seenRunning := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		r, err := readReport(ctx, c, dev, extra)
		if err != nil {
			return err
		}
		if r.ATA == nil {
			return &smart.Error{Kind: smart.ErrFailed, Op: op, Err: fmt.Errorf("%s no longer reports ata data", dev)}
		}
		status := r.ATA.OfflineDataCollectionStatus
		if status == smart.OfflineInProgress {
			seenRunning = true
			continue
		}
		if !seenRunning && status == before.OfflineDataCollectionStatus && time.Now().Before(deadline) {
			continue
		}
		if status != smart.OfflineNoError {
			return &smart.Error{Kind: smart.ErrFailed, Op: op, Err: fmt.Errorf("%s: %s", dev, status)}
		}
		fmt.Fprintf(w, "%s: %s %s\n", dev, op, status)
		return nil
	}
}

func setEnabledCmd(enabled bool) *cobra.Command {
	use, short := "disable", "Disable SMART on a disk"
	if enabled {
		use, short = "enable", "Enable SMART on a disk"
	}
	return &cobra.Command{
		Use:   use + " <device>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := setUpClient(cmd.Context(), backendName)
			if err != nil {
				return err
			}
			defer client.Close()
			return client.SetEnabled(cmd.Context(), args[0], enabled, parseExtraArgs(extraArgs)...)
		},
	}
}

var (
	enableCmd  = setEnabledCmd(true)
	disableCmd = setEnabledCmd(false)
)

var techCmd = &cobra.Command{
	Use:   "tech",
	Short: "Show which technologies and operations the backend supports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := setUpClient(cmd.Context(), backendName)
		if err != nil {
			return err
		}
		defer client.Close()

		w := cmd.OutOrStdout()
		for _, tech := range []smart.Tech{smart.TechATA, smart.TechSCSI} {
			for _, m := range []struct {
				name string
				mode smart.TechMode
			}{{"info", smart.ModeInfo}, {"self-test", smart.ModeSelfTest}} {
				ok, err := client.IsTechAvail(tech, m.mode)
				line := fmt.Sprintf("%-5s %-10s %t", tech, m.name, ok)
				if err != nil {
					line += "  " + strings.TrimSpace(err.Error())
				}
				fmt.Fprintln(w, line)
			}
		}
		return nil
	},
}

type deviceScanner interface {
	Scan(ctx context.Context) (*smartctl.ScanOutput, error)
}

// scanDevices lists the devices smartctl can open with their protocol.
func scanDevices(ctx context.Context, w io.Writer, s deviceScanner) error {
	scan, err := s.Scan(ctx)
	if err != nil {
		return err
	}
	for _, d := range scan.Devices {
		fmt.Fprintf(w, "%-14s %-6s %s\n", d.Name, d.Protocol, d.Type)
	}
	return nil
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List the devices smartctl can open",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b := smartctl.New()
		if err := b.Check(cmd.Context()); err != nil {
			return err
		}
		return scanDevices(cmd.Context(), cmd.OutOrStdout(), b)
	},
}

func init() {
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "Print the report as JSON")
	infoCmd.Flags().StringVar(&infoFromFile, "from-file", "", "Decode a SMART data page or tagged blob instead of a device")
	dumpCmd.Flags().StringVarP(&dumpOutput, "output", "o", "-", "Output file, - for stdout")
	selfTestCmd.Flags().BoolVar(&selfTestWait, "wait", false, "Wait for the self-test to finish")
	selfTestCmd.Flags().DurationVar(&selfTestPoll, "poll-interval", 30*time.Second, "Poll interval while waiting")
}
