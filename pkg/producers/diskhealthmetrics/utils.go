// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package diskhealthmetrics

import (
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

const sysVendorPath = "/sys/devices/virtual/dmi/id/sys_vendor"

var virtVendors = []string{"VMware", "VirtualBox", "QEMU", "Xen", "KVM", "Microsoft Hyper-V", "Parallels", "Oracle VM Server"}

// IsVirtualized checks if the system is running on a virtualized environment.
// Virtual disks rarely answer SMART commands, so failures there are logged
// at debug level only.
func IsVirtualized() bool {
	return isVirtualVendor(sysVendorPath)
}

func isVirtualVendor(path string) bool {
	sysVendor, err := os.ReadFile(path)
	if err != nil {
		log.Debug().Err(err).Msg("error reading sys_vendor")
		return false
	}
	vendor := strings.TrimSpace(string(sysVendor))
	for _, tech := range virtVendors {
		if strings.Contains(vendor, tech) {
			return true
		}
	}
	return false
}
