// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

const (
	ataPageSize      = 512
	ataTableOffset   = 2
	ataEntrySize     = 12
	ataEntrySlots    = 30
	ataMinSmartData  = ataTableOffset + ataEntrySize*ataEntrySlots
	ataMinThresholds = ataMinSmartData
)

// AttributeFields are the scalar fields of one attribute row, either cut out of
// a SMART READ DATA page or already extracted by an external tool.
type AttributeFields struct {
	ID        uint8
	Name      string
	Flags     uint16
	Value     Normalized
	Worst     Normalized
	Threshold Normalized
	Raw       uint64
}

// BuildAttribute derives the failure flags, names and pretty value of an attribute.
// vendor selects vendor specific rules and may be empty.
func BuildAttribute(f AttributeFields, vendor string) Attribute {
	a := Attribute{
		ID:        f.ID,
		Name:      f.Name,
		Value:     f.Value,
		Worst:     f.Worst,
		Threshold: f.Threshold,
		Raw:       f.Raw,
		Flags:     AttributeFlags(f.Flags),
	}

	if thr, ok := f.Threshold.Get(); ok {
		if worst, ok := f.Worst.Get(); ok {
			a.FailedPast = worst <= thr
		}
		if value, ok := f.Value.Get(); ok {
			a.FailingNow = value <= thr
		}
	}

	rule, ok := lookupRule(vendor, f.ID)
	if !ok {
		if a.Name == "" {
			a.Name = "Unknown_Attribute"
		}
		a.PrettyUnit = UnitNone
		a.PrettyValue = int64(a.Raw)
		return a
	}

	if a.Name == "" {
		a.Name = rule.Key
	}
	a.WellKnownName = rule.WellKnown
	a.Critical = rule.Critical
	a.PrettyUnit = rule.Unit
	a.PrettyValue = int64(a.Raw)
	if rule.Pretty != nil {
		rule.Pretty(&a)
	}
	return a
}

// DecodeAttributes decodes the attribute table of a SMART READ DATA page.
// thresholds is the companion SMART READ THRESHOLDS page and may be nil, in which
// case every threshold is unknown. Slots with id 0 are holes and are skipped.
func DecodeAttributes(data, thresholds []byte, vendor string) ([]Attribute, error) {
	const op = "decode ata attributes"
	if len(data) < ataMinSmartData {
		return nil, invalidArgf(op, "smart data is %d bytes, need at least %d", len(data), ataMinSmartData)
	}

	thr, err := decodeThresholds(thresholds)
	if err != nil {
		return nil, invalidArgf(op, "%v", err)
	}

	r := NewReader(data)
	attrs := make([]Attribute, 0, ataEntrySlots)
	for slot := 0; slot < ataEntrySlots; slot++ {
		off := ataTableOffset + slot*ataEntrySize
		entry, err := r.Slice(off, ataEntrySize)
		if err != nil {
			return nil, invalidArgf(op, "slot %d: %v", slot, err)
		}
		id := entry[0]
		if id == 0 {
			continue
		}

		er := NewReader(entry)
		flags, _ := er.U16LE(1)
		value, worst := entry[3], entry[4]
		vendorBytes := entry[5:11]
		reserved := entry[11]

		order := defaultByteOrder
		if rule, ok := lookupRule(vendor, id); ok && rule.ByteOrder != "" {
			order = rule.ByteOrder
		}

		f := AttributeFields{
			ID:        id,
			Flags:     flags,
			Value:     Known(value),
			Worst:     Known(worst),
			Threshold: Unknown,
			Raw:       rawValue(order, vendorBytes, reserved, value, worst),
		}
		if t, ok := thr[id]; ok {
			f.Threshold = Known(t)
		}
		attrs = append(attrs, BuildAttribute(f, vendor))
	}
	return attrs, nil
}

// decodeThresholds maps attribute id to threshold. Devices may omit or reorder
// slots, so the map is keyed by id rather than position.
func decodeThresholds(buf []byte) (map[uint8]uint8, error) {
	thr := make(map[uint8]uint8)
	if buf == nil {
		return thr, nil
	}
	r := NewReader(buf)
	if err := r.Need(0, ataMinThresholds); err != nil {
		return nil, err
	}
	for slot := 0; slot < ataEntrySlots; slot++ {
		off := ataTableOffset + slot*ataEntrySize
		id, _ := r.U8(off)
		if id == 0 {
			continue
		}
		t, _ := r.U8(off + 1)
		if _, dup := thr[id]; !dup {
			thr[id] = t
		}
	}
	return thr, nil
}
