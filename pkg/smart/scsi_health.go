// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"context"

	"github.com/rs/zerolog"
)

const (
	bmsProgressScale = 65536.0
	scsiTempUnknown  = 0xff
)

// Error counter log parameter codes, shared by pages 0x02 and 0x03.
const (
	ecParamECCFast uint16 = iota
	ecParamECCDelayed
	ecParamRereads
	ecParamTotalCorrected
	ecParamAlgorithmInvocations
	ecParamBytesProcessed
	ecParamUncorrected
)

// Start-stop cycle counter parameter codes.
const (
	ssParamStartStopLifetime  uint16 = 0x0003
	ssParamStartStopCount     uint16 = 0x0004
	ssParamLoadUnloadLifetime uint16 = 0x0005
	ssParamLoadUnloadCount    uint16 = 0x0006
)

// DecodeSCSIHealth reads and decodes the SCSI health pages from src.
// Only the informational exceptions page is mandatory; optional pages that are
// missing or malformed leave their fields at zero and are logged through the
// logger carried by ctx.
func DecodeSCSIHealth(ctx context.Context, src PageSource) (*ScsiHealth, error) {
	const op = "decode scsi health"
	logger := zerolog.Ctx(ctx)

	ie, err := src.LogSense(ctx, LogPageInformationalExcep, 0)
	if err != nil {
		return nil, failed(op, err)
	}
	h := &ScsiHealth{SmartSupported: true, SmartEnabled: true}
	ieTemp, err := decodeIEPage(ie, h)
	if err != nil {
		return nil, failed(op, err)
	}

	optional := func(page string, err error) {
		if err != nil {
			logger.Warn().Err(err).Str("page", page).Msg("optional scsi page unavailable")
		}
	}

	if mode, err := src.ModeSense(ctx, ModePageInformationalExcep); err == nil {
		optional("mode-0x1c", decodeIEModePage(mode, h))
	} else {
		optional("mode-0x1c", err)
	}

	optional("log-0x15", readLogPage(ctx, src, LogPageBackgroundScan, func(p []LogParam) error {
		return decodeBackgroundScan(p, h)
	}))
	optional("log-0x03", readLogPage(ctx, src, LogPageReadErrors, func(p []LogParam) error {
		h.Read = decodeErrorCounters(p)
		return nil
	}))
	optional("log-0x02", readLogPage(ctx, src, LogPageWriteErrors, func(p []LogParam) error {
		h.Write = decodeErrorCounters(p)
		return nil
	}))
	optional("log-0x0e", readLogPage(ctx, src, LogPageStartStop, func(p []LogParam) error {
		h.StartStopCycleLifetime, _ = paramUint(p, ssParamStartStopLifetime)
		h.StartStopCycleCount, _ = paramUint(p, ssParamStartStopCount)
		h.LoadUnloadCycleLifetime, _ = paramUint(p, ssParamLoadUnloadLifetime)
		h.LoadUnloadCycleCount, _ = paramUint(p, ssParamLoadUnloadCount)
		return nil
	}))
	optional("log-0x0d", readLogPage(ctx, src, LogPageTemperature, func(p []LogParam) error {
		decodeTemperature(p, h)
		return nil
	}))
	optional("log-0x10", readLogPage(ctx, src, LogPageSelfTestResults, func(p []LogParam) error {
		log, err := DecodeSCSISelfTestLog(p)
		h.SelfTestLog = log
		return err
	}))

	if defects, err := src.ReadDefectData(ctx); err == nil {
		n, err := GrownDefectCount(defects)
		h.ScsiGrownDefectList = n
		optional("defect-data", err)
	} else {
		optional("defect-data", err)
	}

	if h.Temperature == 0 && ieTemp != 0 && ieTemp != scsiTempUnknown {
		h.Temperature = KelvinFromCelsius(int(ieTemp))
	}

	if err := ctx.Err(); err != nil {
		return nil, failed(op, err)
	}
	logger.Debug().Str("ie", h.ScsiIE.String()).Bool("passed", h.OverallStatusPassed).Msg("scsi health decoded")
	return h, nil
}

func readLogPage(ctx context.Context, src PageSource, page uint8, decode func([]LogParam) error) error {
	buf, err := src.LogSense(ctx, page, 0)
	if err != nil {
		return err
	}
	params, err := ParseLogPage(buf, page)
	if err != nil {
		return err
	}
	return decode(params)
}

// decodeIEPage fills the exception fields and returns the temperature byte of
// the most recent reading.
func decodeIEPage(buf []byte, h *ScsiHealth) (uint8, error) {
	params, err := ParseLogPage(buf, LogPageInformationalExcep)
	if err != nil {
		return 0, err
	}
	p, ok := findParam(params, 0)
	if !ok {
		return 0, ErrPageNotSupported
	}
	r := NewReader(p.Data)
	asc, err := r.U8(0)
	if err != nil {
		return 0, err
	}
	ascq, err := r.U8(1)
	if err != nil {
		return 0, err
	}
	temp, _ := r.U8(2)

	h.IEASC = asc
	h.IEASCQ = ascq
	h.OverallStatusPassed = asc == 0
	h.ScsiIE = ClassifyIE(asc, ascq)
	if !h.OverallStatusPassed {
		h.IEString = h.ScsiIE.String()
	}
	return temp, nil
}

func decodeIEModePage(buf []byte, h *ScsiHealth) error {
	page, err := ModePage(buf, ModePageInformationalExcep)
	if err != nil {
		return err
	}
	flags, err := NewReader(page).U8(2)
	if err != nil {
		return err
	}
	h.SmartEnabled = flags&iecDEXCPT == 0
	h.TemperatureWarningEnabled = flags&iecEWASC != 0
	return nil
}

func decodeBackgroundScan(params []LogParam, h *ScsiHealth) error {
	p, ok := findParam(params, 0)
	if !ok {
		return ErrPageNotSupported
	}
	r := NewReader(p.Data)
	if err := r.Need(0, 12); err != nil {
		return err
	}
	minutes, _ := r.U32BE(0)
	status, _ := r.U8(5)
	runs, _ := r.U16BE(6)
	progress, _ := r.U16BE(8)
	mediumRuns, _ := r.U16BE(10)

	h.PowerOnTime = uint64(minutes)
	h.BackgroundScanStatus = BackgroundScanStatus(status)
	h.BackgroundScanRuns = uint64(runs)
	h.BackgroundScanProgress = ScanProgress(progress)
	h.BackgroundMediumScanRuns = uint64(mediumRuns)
	return nil
}

// ScanProgress converts the background scan progress fraction to a percentage.
func ScanProgress(raw uint16) float64 {
	return float64(raw) * 100.0 / bmsProgressScale
}

func decodeErrorCounters(params []LogParam) ErrorCounters {
	var c ErrorCounters
	c.CorrectedECCFast, _ = paramUint(params, ecParamECCFast)
	c.CorrectedECCDelayed, _ = paramUint(params, ecParamECCDelayed)
	c.CorrectedRereads, _ = paramUint(params, ecParamRereads)
	c.TotalCorrected, _ = paramUint(params, ecParamTotalCorrected)
	c.CorrectionAlgorithmInvocations, _ = paramUint(params, ecParamAlgorithmInvocations)
	c.BytesProcessed, _ = paramUint(params, ecParamBytesProcessed)
	c.Uncorrected, _ = paramUint(params, ecParamUncorrected)
	return c
}

func decodeTemperature(params []LogParam, h *ScsiHealth) {
	if p, ok := findParam(params, 0); ok && len(p.Data) >= 2 && p.Data[1] != scsiTempUnknown {
		h.Temperature = KelvinFromCelsius(int(p.Data[1]))
	}
	if p, ok := findParam(params, 1); ok && len(p.Data) >= 2 && p.Data[1] != scsiTempUnknown {
		h.TemperatureDriveTrip = KelvinFromCelsius(int(p.Data[1]))
	}
}
