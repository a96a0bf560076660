// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import "regexp"

var vendorPatterns = []struct {
	pattern *regexp.Regexp
	vendor  string
}{
	{regexp.MustCompile(`(?i)^DL2400`), "Seagate"},
	{regexp.MustCompile(`(?i)TOSHIBA`), "Toshiba"},
	{regexp.MustCompile(`(?i)^MG0[345678]`), "Toshiba"},
	{regexp.MustCompile(`(?i)INTEL`), "Intel"},
	{regexp.MustCompile(`(?i)^SSDSC`), "Intel"},
	{regexp.MustCompile(`(?i)KIOXIA`), "Kioxia"},
	{regexp.MustCompile(`(?i)WESTERN`), "WesternDigital"},
	{regexp.MustCompile(`(?i)WDC`), "WesternDigital"},
	{regexp.MustCompile(`(?i)^WD100`), "WesternDigital"},
	{regexp.MustCompile(`(?i)SEAGATE`), "Seagate"},
	{regexp.MustCompile(`(?i)^ST[12][0123456789]`), "Seagate"},
	{regexp.MustCompile(`(?i)HGST`), "HGST"},
	{regexp.MustCompile(`(?i)^HU[HS]`), "HGST"},
	{regexp.MustCompile(`(?i)^HITACHI`), "HGST"},
	{regexp.MustCompile(`(?i)MICRON`), "Micron"},
	{regexp.MustCompile(`(?i)MTFDD`), "Micron"},
	{regexp.MustCompile(`(?i)SANDISK`), "SanDisk"},
	{regexp.MustCompile(`(?i)SAMSUNG`), "Samsung"},
	{regexp.MustCompile(`(?i)^MZ7`), "Samsung"},
	{regexp.MustCompile(`(?i)MAXTOR`), "Maxtor"},
	{regexp.MustCompile(`(?i)^FUJITSU`), "Fujitsu"},
}

// FindVendor resolves the attribute-table vendor from a model string or model family.
// It returns "" when no pattern matches.
func FindVendor(deviceModel, modelFamily string) string {
	for _, entry := range vendorPatterns {
		if entry.pattern.MatchString(deviceModel) || entry.pattern.MatchString(modelFamily) {
			return entry.vendor
		}
	}
	return ""
}
