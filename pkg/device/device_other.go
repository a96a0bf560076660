// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package device

import (
	"context"
	"errors"

	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
)

// Open is only implemented on Linux.
func Open(_ context.Context, path string) (smart.Device, error) {
	return nil, &smart.Error{Kind: smart.ErrTechUnavail, Op: "open device", Err: errors.New("SG_IO is not available on this platform")}
}
