// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import "context"

// Backend supplies health data for device paths. The native backend talks to
// the device directly; others wrap external tools or libraries and hand over
// pre-parsed fields.
type Backend interface {
	Name() string
	// Check verifies the backend's runtime dependencies.
	Check(ctx context.Context) error
	// TechAvail returns nil when every operation class in mode is available for tech.
	TechAvail(tech Tech, mode TechMode) error
	ATAGetInfo(ctx context.Context, device string, extra []ExtraArg) (*AtaHealth, error)
	SCSIGetInfo(ctx context.Context, device string, extra []ExtraArg) (*ScsiHealth, error)
	SetEnabled(ctx context.Context, device string, enabled bool, extra []ExtraArg) error
	SelfTest(ctx context.Context, device string, op SelfTestOp, extra []ExtraArg) (SelfTestState, error)
	Close() error
}

// Native is the backend that opens devices and decodes their raw pages.
type Native struct {
	open Opener
}

// NewNative returns a backend that opens devices with open.
func NewNative(open Opener) *Native {
	return &Native{open: open}
}

func (n *Native) Name() string { return "native" }

func (n *Native) Check(context.Context) error {
	if n.open == nil {
		return techUnavailf("native backend", "no device transport")
	}
	return nil
}

func (n *Native) TechAvail(tech Tech, mode TechMode) error {
	switch tech {
	case TechATA, TechSCSI:
		return nil
	}
	return techUnavailf("native backend", "technology %s not supported", tech)
}

func (n *Native) withDevice(ctx context.Context, op, path string, fn func(Device) error) error {
	dev, err := n.open(ctx, path)
	if err != nil {
		return classify(op, err)
	}
	defer dev.Close()
	return fn(dev)
}

func (n *Native) ATAGetInfo(ctx context.Context, path string, _ []ExtraArg) (*AtaHealth, error) {
	const op = "ata get info"
	var h *AtaHealth
	err := n.withDevice(ctx, op, path, func(dev Device) error {
		ata, ok := dev.(ATADevice)
		if !ok {
			return invalidArgf(op, "%s is a %s device", path, dev.Tech())
		}
		var err error
		h, err = ReadATAHealth(ctx, ata)
		return err
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (n *Native) SCSIGetInfo(ctx context.Context, path string, _ []ExtraArg) (*ScsiHealth, error) {
	const op = "scsi get info"
	var h *ScsiHealth
	err := n.withDevice(ctx, op, path, func(dev Device) error {
		scsi, ok := dev.(SCSIDevice)
		if !ok {
			return invalidArgf(op, "%s is a %s device", path, dev.Tech())
		}
		var err error
		h, err = DecodeSCSIHealth(ctx, scsi)
		return err
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (n *Native) SetEnabled(ctx context.Context, path string, enabled bool, _ []ExtraArg) error {
	return n.withDevice(ctx, "set smart enabled", path, func(dev Device) error {
		return SetSmartEnabled(ctx, dev, enabled)
	})
}

func (n *Native) SelfTest(ctx context.Context, path string, op SelfTestOp, _ []ExtraArg) (SelfTestState, error) {
	state := StateIdle
	err := n.withDevice(ctx, "device self-test", path, func(dev Device) error {
		var err error
		state, err = RunSelfTest(ctx, dev, op)
		return err
	})
	return state, err
}

func (n *Native) Close() error { return nil }
