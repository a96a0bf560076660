// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package device

const senseIllegalRequest = 0x05

// senseKey returns the sense key of fixed or descriptor format sense data.
func senseKey(sense []byte) uint8 {
	if len(sense) < 1 {
		return 0
	}
	switch sense[0] & 0x7f {
	case 0x72, 0x73:
		if len(sense) >= 2 {
			return sense[1] & 0x0f
		}
	case 0x70, 0x71:
		if len(sense) >= 3 {
			return sense[2] & 0x0f
		}
	}
	return 0
}
