// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package libsmart

import (
	"context"

	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
)

func check() error {
	return unavailable("libsmart backend", "not supported on this platform")
}

func readATA(context.Context, string) (smart.ATAData, error) {
	return smart.ATAData{}, check()
}
