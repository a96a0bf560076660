// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package diskhealthmetrics

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// enhanceDeviceInfo records the OEM relationship of rebranded drives.
func enhanceDeviceInfo(deviceInfo *DeviceInfo) {
	if deviceInfo == nil || deviceInfo.ModelFamily != "" {
		return
	}
	deviceInfo.ModelFamily = detectOEMRelationship(deviceInfo.Vendor, deviceInfo.DeviceModel)
}

// oemModelPrefixes are model prefixes that server vendors put in front of the
// manufacturer's model number.
var oemModelPrefixes = []struct {
	prefix  string
	oem     string
	display string // empty means title case of oem
}{
	{"dell ", "dell", ""},
	{"hp ", "hp", "HP"},
	{"hpe ", "hpe", "HPE"},
	{"lenovo ", "lenovo", ""},
	{"ibm ", "ibm", "IBM"},
	{"supermicro ", "supermicro", ""},
}

// detectOEMRelationship returns e.g. "Dell (Intel OEM)" for a Dell branded
// drive whose manufacturer was identified as Intel.
func detectOEMRelationship(vendor, model string) string {
	model = strings.ToLower(model)
	caser := cases.Title(language.English)

	for _, p := range oemModelPrefixes {
		if !strings.HasPrefix(model, p.prefix) {
			continue
		}
		name := p.display
		if name == "" {
			name = caser.String(p.oem)
		}
		if vendor == "" || strings.EqualFold(vendor, p.oem) {
			return name + " OEM"
		}
		return fmt.Sprintf("%s (%s OEM)", name, vendor)
	}
	return ""
}
