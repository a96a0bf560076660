// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package diskhealthmetrics

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/disk"
	"github.com/shirou/gopsutil/host"
)

// ATA and SCSI whole disks; partitions, dm and md nodes are skipped.
var wholeDiskPattern = regexp.MustCompile(`^(sd[a-z]+|hd[a-z]+)$`)

// discoverDevices lists the whole disks the kernel keeps I/O counters for.
func discoverDevices() ([]string, error) {
	counters, err := disk.IOCounters()
	if err != nil {
		return nil, fmt.Errorf("error reading disk counters: %w", err)
	}
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	return filterWholeDisks(names), nil
}

func filterWholeDisks(names []string) []string {
	var disks []string
	for _, name := range names {
		if wholeDiskPattern.MatchString(name) {
			disks = append(disks, "/dev/"+name)
		}
	}
	sort.Strings(disks)
	return disks
}

// resolveDisks expands the "*" wildcard into the discovered disks.
func resolveDisks(disks []string, discover func() ([]string, error)) ([]string, error) {
	if len(disks) != 1 || disks[0] != "*" {
		return disks, nil
	}
	found, err := discover()
	if err != nil {
		return nil, err
	}
	log.Debug().Strs("devices", found).Msg("discovered devices")
	return found, nil
}

// defaultNodeName falls back to the host name when no node name is configured.
func defaultNodeName() string {
	info, err := host.Info()
	if err != nil {
		log.Warn().Err(err).Msg("error reading host info")
		return ""
	}
	return info.Hostname
}
