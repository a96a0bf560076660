// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package smartctl implements a smart.Backend on top of the JSON output of
// smartmontools.
package smartctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
)

const defaultBinary = "smartctl"

// smartctl exit status bits 0 and 1 mean the command line or the device open
// failed; the higher bits report disk conditions next to valid JSON.
const exitFatalMask = 0x3

type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Backend runs smartctl for every request.
type Backend struct {
	binary   string
	run      runner
	lookPath func(string) (string, error)
}

type Option func(*Backend)

// WithBinary overrides the smartctl executable.
func WithBinary(path string) Option {
	return func(b *Backend) { b.binary = path }
}

func New(opts ...Option) *Backend {
	b := &Backend{
		binary:   defaultBinary,
		run:      execRun,
		lookPath: exec.LookPath,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	var ee *exec.ExitError
	if errors.As(err, &ee) && ee.ExitCode()&exitFatalMask == 0 && len(out) > 0 {
		return out, nil
	}
	return out, err
}

func (b *Backend) Name() string { return "smartctl" }

func (b *Backend) Check(context.Context) error {
	if _, err := b.lookPath(b.binary); err != nil {
		return &smart.Error{Kind: smart.ErrTechUnavail, Op: "smartctl backend", Err: fmt.Errorf("smartctl is not installed. please install smartmontools package: %w", err)}
	}
	return nil
}

func (b *Backend) TechAvail(tech smart.Tech, _ smart.TechMode) error {
	switch tech {
	case smart.TechATA, smart.TechSCSI:
		return nil
	}
	return &smart.Error{Kind: smart.ErrTechUnavail, Op: "smartctl backend", Err: fmt.Errorf("technology %s not supported", tech)}
}

func (b *Backend) Close() error { return nil }

// Scan lists the devices smartctl can open.
func (b *Backend) Scan(ctx context.Context) (*ScanOutput, error) {
	out, err := b.run(ctx, b.binary, "--scan-open", "-j")
	if err != nil {
		return nil, fmt.Errorf("error running smartctl --scan-open: %w", err)
	}
	var scan ScanOutput
	if err := json.Unmarshal(out, &scan); err != nil {
		return nil, fmt.Errorf("error parsing JSON: %w", err)
	}
	return &scan, nil
}

func extraArgs(extra []smart.ExtraArg) []string {
	var args []string
	for _, e := range extra {
		if e.Option == "" {
			continue
		}
		args = append(args, e.Option)
		if e.Value != "" {
			args = append(args, e.Value)
		}
	}
	return args
}

func (b *Backend) query(ctx context.Context, device string, extra []smart.ExtraArg, args ...string) (*Output, error) {
	argv := append([]string{"--json"}, args...)
	argv = append(argv, extraArgs(extra)...)
	argv = append(argv, device)

	zerolog.Ctx(ctx).Debug().Strs("args", argv).Msg("running smartctl")
	out, err := b.run(ctx, b.binary, argv...)
	if err != nil {
		return nil, fmt.Errorf("error running smartctl: %w", err)
	}
	return Parse(out)
}

func (b *Backend) info(ctx context.Context, device string, extra []smart.ExtraArg, logs ...string) (*Output, error) {
	args := []string{"--info", "--health", "--attributes", "--capabilities", "--log=selftest"}
	for _, l := range logs {
		args = append(args, "--log="+l)
	}
	args = append(args, "--tolerance=verypermissive", "--nocheck=standby")
	return b.query(ctx, device, extra, args...)
}

// Parse decodes smartctl --json output.
func Parse(data []byte) (*Output, error) {
	var o Output
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("error parsing JSON: %w", err)
	}

	// SCSI self-test results come as numbered top-level keys.
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("error parsing JSON: %w", err)
	}
	for k, v := range top {
		if !strings.HasPrefix(k, scsiSelfTestKey) {
			continue
		}
		var st SCSISelfTest
		if err := json.Unmarshal(v, &st); err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", k, err)
		}
		if o.SCSISelfTestLog == nil {
			o.SCSISelfTestLog = make(map[string]SCSISelfTest)
		}
		o.SCSISelfTestLog[k] = st
	}
	return &o, nil
}

func (o *Output) tech() (smart.Tech, error) {
	return smart.ParseTech(o.Device.Protocol)
}

func (b *Backend) ATAGetInfo(ctx context.Context, device string, extra []smart.ExtraArg) (*smart.AtaHealth, error) {
	o, err := b.info(ctx, device, extra)
	if err != nil {
		return nil, err
	}
	if tech, err := o.tech(); err != nil || tech != smart.TechATA {
		return nil, &smart.Error{Kind: smart.ErrInvalidArgument, Op: "ata get info", Err: fmt.Errorf("%s reports protocol %q", device, o.Device.Protocol)}
	}
	return o.ATAHealth(), nil
}

func (b *Backend) SCSIGetInfo(ctx context.Context, device string, extra []smart.ExtraArg) (*smart.ScsiHealth, error) {
	o, err := b.info(ctx, device, extra, "background", "error")
	if err != nil {
		return nil, err
	}
	if tech, err := o.tech(); err != nil || tech != smart.TechSCSI {
		return nil, &smart.Error{Kind: smart.ErrInvalidArgument, Op: "scsi get info", Err: fmt.Errorf("%s reports protocol %q", device, o.Device.Protocol)}
	}
	return o.SCSIHealth(), nil
}

func (b *Backend) SetEnabled(ctx context.Context, device string, enabled bool, extra []smart.ExtraArg) error {
	state := "off"
	if enabled {
		state = "on"
	}
	o, err := b.query(ctx, device, extra, "--smart="+state)
	if err != nil {
		return err
	}
	return o.fatal("set smart enabled")
}

var selfTestArgs = map[smart.SelfTestOp]string{
	smart.SelfTestOpAbort:      "-X",
	smart.SelfTestOpOffline:    "--test=offline",
	smart.SelfTestOpShort:      "--test=short",
	smart.SelfTestOpLong:       "--test=long",
	smart.SelfTestOpConveyance: "--test=conveyance",
}

func (b *Backend) SelfTest(ctx context.Context, device string, op smart.SelfTestOp, extra []smart.ExtraArg) (smart.SelfTestState, error) {
	arg, ok := selfTestArgs[op]
	if !ok {
		return smart.StateIdle, &smart.Error{Kind: smart.ErrInvalidArgument, Op: "device self-test", Err: fmt.Errorf("unknown self-test operation %s", op)}
	}

	o, err := b.info(ctx, device, extra)
	if err != nil {
		return smart.StateIdle, err
	}
	tech, err := o.tech()
	if err != nil {
		return smart.StateIdle, err
	}
	cur := o.SelfTestProgress(tech)
	next, err := smart.NextSelfTestState(cur.State, tech, op)
	if err != nil {
		return cur.State, err
	}

	res, err := b.query(ctx, device, extra, arg)
	if err != nil {
		return cur.State, err
	}
	if err := res.fatal("device self-test"); err != nil {
		return cur.State, err
	}
	return next, nil
}

// fatal turns error messages smartctl printed while exiting cleanly into an error.
func (o *Output) fatal(op string) error {
	for _, m := range o.Smartctl.Messages {
		if m.Severity == "error" {
			return &smart.Error{Kind: smart.ErrFailed, Op: op, Err: errors.New(m.String)}
		}
	}
	return nil
}
