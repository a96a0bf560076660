// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import "github.com/rs/zerolog/log"

// SMART READ DATA offsets past the attribute table.
const (
	offOfflineStatus     = 362
	offSelfTestExec      = 363
	offOfflineCompletion = 364
	offOfflineCapability = 367
	offSmartCapability   = 368
	offErrorLogging      = 370
	offPollingShort      = 372
	offPollingExtended   = 373
	offPollingConveyance = 374
	offPollingExtWord    = 375
	ataCapabilityEnd     = 377
)

// IDENTIFY DEVICE layout.
const (
	identifySize      = 512
	idSerialOffset    = 20
	idSerialLen       = 20
	idFirmwareOffset  = 46
	idFirmwareLen     = 8
	idModelOffset     = 54
	idModelLen        = 40
	idCmdSetSupported = 82 * 2
	idCmdSetExtension = 84 * 2
	idCmdSetEnabled   = 85 * 2
	idCmdSetDefault   = 87 * 2
)

// SMART RETURN STATUS register signatures.
const (
	statusPassedMid  = 0x4f
	statusPassedHigh = 0xc2
	statusFailMid    = 0xf4
	statusFailHigh   = 0x2c
)

// Temperatures outside this range are sensor garbage.
const (
	minPlausibleKelvin = 233.15
	maxPlausibleKelvin = 423.15
)

var powerOnNames = []string{"power-on-hours", "power-on-minutes", "power-on-seconds"}

var temperatureNames = []string{
	"temperature-celsius",
	"temperature-celsius-2",
	"airflow-temperature-celsius",
	"temperature-centi-celsius",
}

// ReturnStatusPassed interprets the LBA mid/high registers returned by SMART RETURN STATUS.
func ReturnStatusPassed(lbaMid, lbaHigh uint8) (bool, error) {
	switch {
	case lbaMid == statusPassedMid && lbaHigh == statusPassedHigh:
		return true, nil
	case lbaMid == statusFailMid && lbaHigh == statusFailHigh:
		return false, nil
	}
	return false, failedf("smart return status", "unexpected signature 0x%02x/0x%02x", lbaMid, lbaHigh)
}

// ParseIdentify decodes the strings and SMART feature bits of an IDENTIFY DEVICE page.
func ParseIdentify(buf []byte) (Identity, error) {
	const op = "parse identify"
	r := NewReader(buf)
	if err := r.Need(0, identifySize); err != nil {
		return Identity{}, invalidArgf(op, "%v", err)
	}

	var id Identity
	id.Serial, _ = r.ATAString(idSerialOffset, idSerialLen)
	id.Firmware, _ = r.ATAString(idFirmwareOffset, idFirmwareLen)
	id.Model, _ = r.ATAString(idModelOffset, idModelLen)
	id.Vendor = FindVendor(id.Model, "")

	w82, _ := r.U16LE(idCmdSetSupported)
	w84, _ := r.U16LE(idCmdSetExtension)
	w85, _ := r.U16LE(idCmdSetEnabled)
	w87, _ := r.U16LE(idCmdSetDefault)
	id.SmartSupported = w82&0x0001 != 0
	id.SmartEnabled = w85&0x0001 != 0
	id.GPLogging = w84&0x0020 != 0 || w87&0x0020 != 0
	return id, nil
}

// DecodeATAHealth decodes either a bare SMART READ DATA page or a tagged blob
// produced by EncodeATABlob. A bare page carries no status verdict, so the
// overall status is reported as not passed.
func DecodeATAHealth(buf []byte) (*AtaHealth, error) {
	if isBlob(buf) {
		d, err := ParseATABlob(buf)
		if err != nil {
			return nil, err
		}
		return d.Decode()
	}
	return ATAData{SmartData: buf}.Decode()
}

// Decode builds the health report. Without an IDENTIFY page SMART is assumed
// supported and enabled.
func (d ATAData) Decode() (*AtaHealth, error) {
	id := Identity{SmartSupported: true, SmartEnabled: true}
	if d.Identify != nil {
		var err error
		if id, err = ParseIdentify(d.Identify); err != nil {
			return nil, err
		}
	}
	if !id.SmartSupported || !id.SmartEnabled {
		return &AtaHealth{
			SmartSupported: id.SmartSupported,
			SmartEnabled:   id.SmartEnabled,
			Identity:       id,
		}, nil
	}

	attrs, err := DecodeAttributes(d.SmartData, d.Thresholds, id.Vendor)
	if err != nil {
		return nil, err
	}

	h := &AtaHealth{
		SmartSupported:      true,
		SmartEnabled:        true,
		OverallStatusPassed: d.StatusKnown && d.StatusPassed,
		Attributes:          attrs,
		Identity:            id,
	}
	if id.GPLogging {
		h.SmartCapabilities |= CapGPLogging
	}

	// Pages cut short after the attribute table still carry usable attributes.
	r := NewReader(d.SmartData)
	if r.Len() >= ataCapabilityEnd {
		decodeCapabilities(r, h)
	}

	// The self-test log is optional; an unusable one is dropped.
	if d.SelfTestLog != nil {
		if h.SelfTestLog, err = DecodeATASelfTestLog(d.SelfTestLog); err != nil {
			log.Warn().Err(err).Str("model", id.Model).Msg("ignoring unusable self-test log")
			h.SelfTestLog = nil
		}
	}

	h.DeriveFields()
	return h, nil
}

func decodeCapabilities(r *Reader, h *AtaHealth) {
	offline, _ := r.U8(offOfflineStatus)
	h.OfflineDataCollectionStatus, h.AutoOfflineDataCollectionEnabled = DecodeOfflineStatus(offline)

	exec, _ := r.U8(offSelfTestExec)
	h.SelfTestStatus = SelfTestStatus(exec >> 4)
	h.SelfTestPercentRemaining = int(exec&0x0f) * 10

	completion, _ := r.U16LE(offOfflineCompletion)
	h.OfflineDataCollectionCompletion = int(completion)

	offCap, _ := r.U8(offOfflineCapability)
	h.OfflineDataCollectionCapabilities = OfflineCapabilities(offCap)

	smartCap, _ := r.U16LE(offSmartCapability)
	if smartCap&0x0001 != 0 {
		h.SmartCapabilities |= CapAttributeAutosave
	}
	if smartCap&0x0002 != 0 {
		h.SmartCapabilities |= CapAutosaveTimer
	}
	if errLog, _ := r.Bits(offErrorLogging, 0x01); errLog != 0 {
		h.SmartCapabilities |= CapErrorLogging
	}

	short, _ := r.U8(offPollingShort)
	extended, _ := r.U8(offPollingExtended)
	conveyance, _ := r.U8(offPollingConveyance)
	h.SelfTestPollingShort = int(short)
	h.SelfTestPollingConveyance = int(conveyance)
	h.SelfTestPollingExtended = int(extended)
	if extended == 0xff {
		word, _ := r.U16LE(offPollingExtWord)
		h.SelfTestPollingExtended = int(word)
	}
}

// DecodeOfflineStatus splits the off-line data collection status byte into the
// status and the automatic off-line collection bit.
func DecodeOfflineStatus(b uint8) (OfflineStatus, bool) {
	return offlineStatus(b & 0x7f), b&0x80 != 0
}

func offlineStatus(v uint8) OfflineStatus {
	switch {
	case v == 0x00, v >= 0x02 && v <= 0x06:
		return OfflineStatus(v)
	case v >= 0x40:
		return OfflineVendorSpecific
	}
	return OfflineReserved
}

// DeriveFields fills power-on time, power cycles and temperature from the
// well-known attributes.
func (h *AtaHealth) DeriveFields() {
	if a, ok := firstWellKnown(h.Attributes, powerOnNames); ok && a.PrettyValue > 0 {
		h.PowerOnMinutes = uint64(a.PrettyValue) / 60000
	}
	if a, ok := h.Attribute(12); ok {
		h.PowerCycleCount = a.Raw
	}
	if a, ok := firstWellKnown(h.Attributes, temperatureNames); ok {
		k := float64(a.PrettyValue) / 1000
		if k >= minPlausibleKelvin && k <= maxPlausibleKelvin {
			h.Temperature = k
		}
	}
}

// firstWellKnown honors the preference order of names, not the table order.
func firstWellKnown(attrs []Attribute, names []string) (Attribute, bool) {
	for _, n := range names {
		for _, a := range attrs {
			if a.WellKnownName == n {
				return a, true
			}
		}
	}
	return Attribute{}, false
}
