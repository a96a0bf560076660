// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import "strings"

// AttributeFlags is the 16-bit flags word of an ATA SMART attribute.
type AttributeFlags uint16

const (
	AttributeFlagPrefailure     AttributeFlags = 0x0001
	AttributeFlagOnline         AttributeFlags = 0x0002
	AttributeFlagPerformance    AttributeFlags = 0x0004
	AttributeFlagErrorRate      AttributeFlags = 0x0008
	AttributeFlagEventCount     AttributeFlags = 0x0010
	AttributeFlagSelfPreserving AttributeFlags = 0x0020
	AttributeFlagOther          AttributeFlags = 0xffc0
)

func (f AttributeFlags) Has(flag AttributeFlags) bool {
	return f&flag != 0
}

func (f AttributeFlags) String() string {
	return flagNames(uint64(f), []flagName{
		{uint64(AttributeFlagPrefailure), "prefailure"},
		{uint64(AttributeFlagOnline), "online"},
		{uint64(AttributeFlagPerformance), "performance"},
		{uint64(AttributeFlagErrorRate), "error-rate"},
		{uint64(AttributeFlagEventCount), "event-count"},
		{uint64(AttributeFlagSelfPreserving), "self-preserving"},
		{uint64(AttributeFlagOther), "other"},
	})
}

// OfflineCapabilities is the offline data collection capability byte (offset 367).
type OfflineCapabilities uint8

const (
	OfflineCapNotSupported         OfflineCapabilities = 0x00
	OfflineCapExecOfflineImmediate OfflineCapabilities = 0x01
	OfflineCapOfflineAbort         OfflineCapabilities = 0x04
	OfflineCapOfflineSurfaceScan   OfflineCapabilities = 0x08
	OfflineCapSelfTest             OfflineCapabilities = 0x10
	OfflineCapConveyanceSelfTest   OfflineCapabilities = 0x20
	OfflineCapSelectiveSelfTest    OfflineCapabilities = 0x40
)

func (c OfflineCapabilities) Has(flag OfflineCapabilities) bool {
	return c&flag != 0
}

func (c OfflineCapabilities) String() string {
	return flagNames(uint64(c), []flagName{
		{uint64(OfflineCapExecOfflineImmediate), "exec-offline-immediate"},
		{uint64(OfflineCapOfflineAbort), "offline-abort"},
		{uint64(OfflineCapOfflineSurfaceScan), "offline-surface-scan"},
		{uint64(OfflineCapSelfTest), "self-test"},
		{uint64(OfflineCapConveyanceSelfTest), "conveyance-self-test"},
		{uint64(OfflineCapSelectiveSelfTest), "selective-self-test"},
	})
}

// Capabilities summarizes the SMART capability word and logging support.
type Capabilities uint8

const (
	CapAttributeAutosave Capabilities = 1 << 0
	CapAutosaveTimer     Capabilities = 1 << 1
	CapErrorLogging      Capabilities = 1 << 2
	CapGPLogging         Capabilities = 1 << 3
)

func (c Capabilities) Has(flag Capabilities) bool {
	return c&flag != 0
}

func (c Capabilities) String() string {
	return flagNames(uint64(c), []flagName{
		{uint64(CapAttributeAutosave), "attribute-autosave"},
		{uint64(CapAutosaveTimer), "autosave-timer"},
		{uint64(CapErrorLogging), "error-logging"},
		{uint64(CapGPLogging), "gp-logging"},
	})
}

// TechMode is a set of operation classes queried through IsTechAvail.
type TechMode uint8

const (
	ModeInfo     TechMode = 1 << 0
	ModeSelfTest TechMode = 1 << 1
)

func (m TechMode) Has(flag TechMode) bool {
	return m&flag != 0
}

type flagName struct {
	bit  uint64
	name string
}

func flagNames(v uint64, names []flagName) string {
	if v == 0 {
		return "none"
	}
	var parts []string
	for _, n := range names {
		if v&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, ",")
}
