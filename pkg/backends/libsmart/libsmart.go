// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package libsmart implements a read-only smart.Backend on top of
// github.com/anatol/smart.go. The library transfers the raw ATA pages; the
// decoding is done by package smart so vendor rules and byte orders are the
// same as for the native backend.
package libsmart

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cobaltcore-dev/smartprobe/pkg/device"
	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
)

const (
	pageSize      = 512
	smartDataSize = 362
)

// Backend reads ATA health through the library. SCSI, enabling SMART and
// self-tests are not offered by the library. The library cannot read SMART
// thresholds, so those come from the SG_IO transport.
type Backend struct {
	open smart.Opener
}

func New() *Backend { return &Backend{open: device.Open} }

func (b *Backend) Name() string { return "libsmart" }

func (b *Backend) Check(context.Context) error { return check() }

func (b *Backend) TechAvail(tech smart.Tech, mode smart.TechMode) error {
	if tech == smart.TechATA && !mode.Has(smart.ModeSelfTest) {
		return nil
	}
	return unavailable("libsmart backend", "%s %s operations not supported", tech, modeName(mode))
}

func (b *Backend) ATAGetInfo(ctx context.Context, path string, _ []smart.ExtraArg) (*smart.AtaHealth, error) {
	d, err := readATA(ctx, path)
	if err != nil {
		return nil, err
	}
	if d.SmartData != nil {
		if d.Thresholds, err = b.thresholds(ctx, path); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("device", path).Msg("smart thresholds unavailable")
			d.Thresholds = nil
		}
	}
	return d.Decode()
}

func (b *Backend) thresholds(ctx context.Context, path string) ([]byte, error) {
	dev, err := b.open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer dev.Close()
	ata, ok := dev.(smart.ATADevice)
	if !ok {
		return nil, fmt.Errorf("%s is not an ata device", path)
	}
	return ata.ReadThresholds(ctx)
}

func (b *Backend) SCSIGetInfo(context.Context, string, []smart.ExtraArg) (*smart.ScsiHealth, error) {
	return nil, unavailable("scsi get info", "not supported by libsmart backend")
}

func (b *Backend) SetEnabled(context.Context, string, bool, []smart.ExtraArg) error {
	return unavailable("set smart enabled", "not supported by libsmart backend")
}

func (b *Backend) SelfTest(context.Context, string, smart.SelfTestOp, []smart.ExtraArg) (smart.SelfTestState, error) {
	return smart.StateIdle, unavailable("device self-test", "not supported by libsmart backend")
}

func (b *Backend) Close() error { return nil }

func unavailable(op, format string, args ...any) error {
	return &smart.Error{Kind: smart.ErrTechUnavail, Op: op, Err: fmt.Errorf(format, args...)}
}

func modeName(m smart.TechMode) string {
	if m.Has(smart.ModeSelfTest) {
		return "self-test"
	}
	return "info"
}

// encodePage turns a page the library decoded back into its wire bytes. order
// must be the byte order the library decoded the page with.
func encodePage(order binary.ByteOrder, v any, size int) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, order, v); err != nil {
		return nil, err
	}
	if buf.Len() > size {
		return nil, fmt.Errorf("page is %d bytes, expected at most %d", buf.Len(), size)
	}
	buf.Write(make([]byte, size-buf.Len()))
	return buf.Bytes(), nil
}

