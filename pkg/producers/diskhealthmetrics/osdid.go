// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package diskhealthmetrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// osdMapper maps physical disks to the Ceph OSD that owns them. OSD data
// directories look like <base>/<cluster>_<id>/ with a block symlink and a
// whoami file.
type osdMapper struct {
	basePath string
	sysBlock string

	once  sync.Once
	cache map[string]string
}

func newOSDMapper(basePath string) *osdMapper {
	return &osdMapper{
		basePath: basePath,
		sysBlock: "/sys/block",
		cache:    make(map[string]string),
	}
}

// canonicalPath resolves symlinks, falling back to the path as given.
func canonicalPath(device string) string {
	if canonical, err := filepath.EvalSymlinks(device); err == nil {
		return canonical
	}
	return device
}

// OSDID returns the OSD ID for disk, or "" when no OSD uses it.
func (m *osdMapper) OSDID(disk string) string {
	if m == nil || m.basePath == "" {
		return ""
	}
	m.once.Do(m.load)

	if id, ok := m.cache[canonicalPath(disk)]; ok {
		return id
	}
	if id, ok := m.cache[disk]; ok {
		return id
	}
	log.Debug().Str("disk", disk).Msg("no OSD ID found for disk")
	return ""
}

func (m *osdMapper) add(device, osdID string) {
	m.cache[device] = osdID
	if c := canonicalPath(device); c != device {
		m.cache[c] = osdID
	}
	log.Debug().Str("device", device).Str("osd_id", osdID).Msg("mapped device to OSD ID")
}

func (m *osdMapper) load() {
	if _, err := os.Stat(m.basePath); os.IsNotExist(err) {
		log.Debug().Str("base_path", m.basePath).Msg("ceph OSD base path does not exist, skipping OSD mapping")
		return
	}

	pattern := filepath.Join(m.basePath, "*_*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		log.Warn().Err(err).Str("pattern", pattern).Msg("failed to glob OSD directories")
		return
	}

	for _, dir := range matches {
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			continue
		}
		blockDevice, err := filepath.EvalSymlinks(filepath.Join(dir, "block"))
		if err != nil {
			continue
		}
		whoami, err := os.ReadFile(filepath.Join(dir, "whoami"))
		if err != nil {
			continue
		}
		osdID := strings.TrimSpace(string(whoami))

		if !strings.HasPrefix(blockDevice, "/dev/mapper/") {
			m.add(blockDevice, osdID)
			continue
		}

		dm, err := m.mapperName(blockDevice)
		if err != nil {
			log.Warn().Err(err).Str("device", blockDevice).Msg("failed to resolve mapper device")
			continue
		}
		physical, err := m.resolveSlaves(dm)
		if err != nil {
			log.Warn().Err(err).Str("dm_device", dm).Msg("failed to resolve device mapper chain")
			continue
		}
		for _, dev := range physical {
			m.add(dev, osdID)
		}
	}
	log.Info().Int("total_mappings", len(m.cache)).Msg("OSD mapping cache initialized")
}

// mapperName finds the dm-N node whose major:minor matches the mapper device.
func (m *osdMapper) mapperName(mapperDevice string) (string, error) {
	var st unix.Stat_t
	if err := unix.Stat(mapperDevice, &st); err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", mapperDevice, err)
	}
	want := fmt.Sprintf("%d:%d", unix.Major(uint64(st.Rdev)), unix.Minor(uint64(st.Rdev)))

	matches, err := filepath.Glob(filepath.Join(m.sysBlock, "dm-*"))
	if err != nil {
		return "", err
	}
	for _, dmPath := range matches {
		dev, err := os.ReadFile(filepath.Join(dmPath, "dev"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(dev)) == want {
			return filepath.Base(dmPath), nil
		}
	}
	return "", fmt.Errorf("could not find dm device for %s", mapperDevice)
}

// resolveSlaves walks dm-* slaves down to the physical disks.
func (m *osdMapper) resolveSlaves(dev string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(m.sysBlock, dev, "slaves"))
	if os.IsNotExist(err) || (err == nil && len(entries) == 0) {
		return []string{"/dev/" + dev}, nil
	}
	if err != nil {
		return nil, err
	}

	var devices []string
	for _, e := range entries {
		slave := e.Name()
		if !strings.HasPrefix(slave, "dm-") {
			devices = append(devices, "/dev/"+wholeDisk(slave))
			continue
		}
		nested, err := m.resolveSlaves(slave)
		if err != nil {
			log.Warn().Err(err).Str("slave", slave).Msg("failed to resolve slave")
			continue
		}
		devices = append(devices, nested...)
	}
	return devices, nil
}

// wholeDisk strips a trailing partition number, sda3 -> sda.
func wholeDisk(name string) string {
	trimmed := strings.TrimRightFunc(name, func(r rune) bool { return r >= '0' && r <= '9' })
	if trimmed == "" || strings.HasPrefix(name, "nvme") {
		return name
	}
	if _, err := strconv.Atoi(name[len(trimmed):]); err != nil {
		return name
	}
	return trimmed
}
