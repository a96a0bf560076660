// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package libsmart

import (
	"context"
	"encoding/binary"
	"fmt"

	libsmart "github.com/anatol/smart.go"
	"github.com/rs/zerolog"

	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
)

func check() error { return nil }

// readATA collects the pages the library can read. The library has no SMART
// RETURN STATUS, so the verdict stays unknown.
func readATA(ctx context.Context, device string) (smart.ATAData, error) {
	const op = "ata get info"
	logger := zerolog.Ctx(ctx)

	dev, err := libsmart.OpenSata(device)
	if err != nil {
		return smart.ATAData{}, &smart.Error{Kind: smart.ErrInvalidArgument, Op: op, Err: fmt.Errorf("failed open SATA device %s: %w", device, err)}
	}
	defer dev.Close()

	ident, err := dev.Identify()
	if err != nil {
		return smart.ATAData{}, &smart.Error{Kind: smart.ErrFailed, Op: op, Err: fmt.Errorf("failed identify SATA device %s: %w", device, err)}
	}
	var d smart.ATAData
	if d.Identify, err = encodePage(binary.LittleEndian, ident, pageSize); err != nil {
		return smart.ATAData{}, &smart.Error{Kind: smart.ErrFailed, Op: op, Err: err}
	}

	page, err := dev.ReadSMARTData()
	if err != nil {
		return smart.ATAData{}, &smart.Error{Kind: smart.ErrFailed, Op: op, Err: fmt.Errorf("failed read S.M.A.R.T. data from %s: %w", device, err)}
	}
	if d.SmartData, err = encodePage(binary.BigEndian, page, smartDataSize); err != nil {
		return smart.ATAData{}, &smart.Error{Kind: smart.ErrFailed, Op: op, Err: err}
	}

	log, err := dev.ReadSMARTSelfTestLog()
	if err != nil {
		logger.Warn().Err(err).Str("device", device).Msg("self-test log unavailable")
		return d, nil
	}
	if d.SelfTestLog, err = encodePage(binary.BigEndian, log, pageSize); err != nil {
		logger.Warn().Err(err).Str("device", device).Msg("self-test log unusable")
		d.SelfTestLog = nil
	}
	return d, nil
}
