// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartctl

// ScanOutput represents the root structure of the JSON output from smartctl --scan-open -j
type ScanOutput struct {
	JSONFormatVersion []int64  `json:"json_format_version"`
	Smartctl          Details  `json:"smartctl"`
	Devices           []Device `json:"devices"`
}

// Output is the subset of smartctl --json that maps onto the health reports.
type Output struct {
	Smartctl                  Details                 `json:"smartctl"`
	Device                    Device                  `json:"device"`
	ModelFamily               string                  `json:"model_family,omitempty"`
	ModelName                 string                  `json:"model_name"`
	SerialNumber              string                  `json:"serial_number"`
	FirmwareVersion           string                  `json:"firmware_version"`
	SCSIVendor                string                  `json:"scsi_vendor,omitempty"`
	SCSIProduct               string                  `json:"scsi_product,omitempty"`
	SCSIRevision              string                  `json:"scsi_revision,omitempty"`
	SmartSupport              SmartSupport            `json:"smart_support"`
	SmartStatus               SmartStatus             `json:"smart_status"`
	ATASmartData              *ATASmartData           `json:"ata_smart_data,omitempty"`
	ATASMARTAttributes        *ATASMARTAttributes     `json:"ata_smart_attributes,omitempty"`
	ATASelfTestLog            *ATASelfTestLog         `json:"ata_smart_self_test_log,omitempty"`
	PowerOnTime               PowerOnTime             `json:"power_on_time"`
	PowerCycleCount           int64                   `json:"power_cycle_count"`
	Temperature               Temperature             `json:"temperature"`
	TemperatureWarning        *TemperatureWarning     `json:"temperature_warning,omitempty"`
	SCSIErrorCounterLog       *SCSIErrorCounterLog    `json:"scsi_error_counter_log,omitempty"`
	SCSIGrownDefectList       int64                   `json:"scsi_grown_defect_list,omitempty"`
	SCSIStartStopCycleCounter *SCSIStartStopCycle     `json:"scsi_start_stop_cycle_counter,omitempty"`
	SCSIBackgroundScan        *SCSIBackgroundScan     `json:"scsi_background_scan,omitempty"`
	SCSISelfTestLog           map[string]SCSISelfTest `json:"-"`
}

// Details represents the details about the smartctl command used
type Details struct {
	Argv       []string  `json:"argv"`
	ExitStatus int64     `json:"exit_status"`
	Version    []int64   `json:"version"`
	Messages   []Message `json:"messages,omitempty"`
}

// Message is a diagnostic smartctl attaches to its output.
type Message struct {
	String   string `json:"string"`
	Severity string `json:"severity"`
}

// Device represents the device details
type Device struct {
	InfoName string `json:"info_name"`
	Name     string `json:"name"`
	Protocol string `json:"protocol"`
	Type     string `json:"type"`
}

// SmartSupport indicates whether SMART is supported and enabled
type SmartSupport struct {
	Available bool `json:"available"`
	Enabled   bool `json:"enabled"`
}

// SmartStatus represents the SMART health status
type SmartStatus struct {
	Passed bool             `json:"passed"`
	SCSI   *SCSISmartStatus `json:"scsi,omitempty"`
}

// SCSISmartStatus carries the informational exception of a failing SCSI disk.
type SCSISmartStatus struct {
	ASC      int64  `json:"asc"`
	ASCQ     int64  `json:"ascq"`
	IEString string `json:"ie_string"`
}

// ValueString is the {value, string} pair smartctl uses for enumerations.
type ValueString struct {
	Value  int64  `json:"value"`
	String string `json:"string"`
}

// ATASmartData is the decoded capability trailer of SMART READ DATA.
type ATASmartData struct {
	OfflineDataCollection struct {
		Status            ValueString `json:"status"`
		CompletionSeconds int64       `json:"completion_seconds"`
	} `json:"offline_data_collection"`
	SelfTest struct {
		Status struct {
			Value            int64  `json:"value"`
			String           string `json:"string"`
			RemainingPercent int64  `json:"remaining_percent,omitempty"`
		} `json:"status"`
		PollingMinutes struct {
			Short      int64 `json:"short"`
			Extended   int64 `json:"extended"`
			Conveyance int64 `json:"conveyance"`
		} `json:"polling_minutes"`
	} `json:"self_test"`
	Capabilities struct {
		Values                        []int64 `json:"values"`
		ExecOfflineImmediateSupported bool    `json:"exec_offline_immediate_supported"`
		OfflineIsAbortedUponNewCmd    bool    `json:"offline_is_aborted_upon_new_cmd"`
		OfflineSurfaceScanSupported   bool    `json:"offline_surface_scan_supported"`
		SelfTestsSupported            bool    `json:"self_tests_supported"`
		ConveyanceSelfTestSupported   bool    `json:"conveyance_self_test_supported"`
		SelectiveSelfTestSupported    bool    `json:"selective_self_test_supported"`
		AttributeAutosaveEnabled      bool    `json:"attribute_autosave_enabled"`
		ErrorLoggingSupported         bool    `json:"error_logging_supported"`
		GPLoggingSupported            bool    `json:"gp_logging_supported"`
	} `json:"capabilities"`
}

// ATASMARTAttributes represents the ATA SMART attributes
type ATASMARTAttributes struct {
	Revision int64           `json:"revision"`
	Table    []ATASMARTEntry `json:"table"`
}

// ATASMARTEntry represents a single ATA SMART attribute entry
type ATASMARTEntry struct {
	ID         int64         `json:"id"`
	Name       string        `json:"name"`
	Value      int64         `json:"value"`
	Worst      int64         `json:"worst"`
	Thresh     int64         `json:"thresh"`
	WhenFailed string        `json:"when_failed,omitempty"`
	Flags      ATASMARTFlags `json:"flags"`
	Raw        ATASMARTRaw   `json:"raw"`
}

// ATASMARTFlags represents the flags for a single ATA SMART attribute entry
type ATASMARTFlags struct {
	Value  int64  `json:"value"`
	String string `json:"string"`
}

// ATASMARTRaw represents the raw value for a single ATA SMART attribute entry
type ATASMARTRaw struct {
	Value  int64  `json:"value"`
	String string `json:"string"`
}

// ATASelfTestLog is the standard self-test log.
type ATASelfTestLog struct {
	Standard struct {
		Revision int64              `json:"revision"`
		Table    []ATASelfTestEntry `json:"table"`
		Count    int64              `json:"count"`
	} `json:"standard"`
}

// ATASelfTestEntry is one self-test log descriptor, newest first.
type ATASelfTestEntry struct {
	Type   ValueString `json:"type"`
	Status struct {
		Value            int64  `json:"value"`
		String           string `json:"string"`
		RemainingPercent int64  `json:"remaining_percent,omitempty"`
		Passed           bool   `json:"passed"`
	} `json:"status"`
	LifetimeHours int64 `json:"lifetime_hours"`
	LBA           int64 `json:"lba,omitempty"`
}

// PowerOnTime represents the power-on time of the device
type PowerOnTime struct {
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes,omitempty"`
}

// Temperature represents the temperature readings of the device
type Temperature struct {
	Current   int64 `json:"current"`
	DriveTrip int64 `json:"drive_trip,omitempty"`
}

// TemperatureWarning represents whether temperature warning is enabled
type TemperatureWarning struct {
	Enabled bool `json:"enabled"`
}

// SCSIErrorCounterLog represents the SCSI error counter log
type SCSIErrorCounterLog struct {
	Read   SCSIErrorDetails `json:"read"`
	Verify SCSIErrorDetails `json:"verify"`
	Write  SCSIErrorDetails `json:"write"`
}

// SCSIErrorDetails represents details of SCSI errors
type SCSIErrorDetails struct {
	CorrectionAlgorithmInvocations int64  `json:"correction_algorithm_invocations"`
	ErrorsCorrectedByECCDelayed    int64  `json:"errors_corrected_by_eccdelayed"`
	ErrorsCorrectedByECCFast       int64  `json:"errors_corrected_by_eccfast"`
	ErrorsCorrectedByReReads       int64  `json:"errors_corrected_by_rereads_rewrites"`
	GigabytesProcessed             string `json:"gigabytes_processed"`
	TotalErrorsCorrected           int64  `json:"total_errors_corrected"`
	TotalUncorrectedErrors         int64  `json:"total_uncorrected_errors"`
}

// SCSIStartStopCycle represents the start-stop cycle counter
type SCSIStartStopCycle struct {
	AccumulatedLoadUnloadCycles                int64 `json:"accumulated_load_unload_cycles"`
	AccumulatedStartStopCycles                 int64 `json:"accumulated_start_stop_cycles"`
	SpecifiedCycleCountOverDeviceLifetime      int64 `json:"specified_cycle_count_over_device_lifetime"`
	SpecifiedLoadUnloadCountOverDeviceLifetime int64 `json:"specified_load_unload_count_over_device_lifetime"`
}

// SCSIBackgroundScan is the background scan results page.
type SCSIBackgroundScan struct {
	Status struct {
		Value                      int64  `json:"value"`
		String                     string `json:"string"`
		ScanProgress               string `json:"scan_progress,omitempty"`
		NumberScansPerformed       int64  `json:"number_scans_performed"`
		NumberMediumScansPerformed int64  `json:"number_medium_scans_performed"`
	} `json:"status"`
}

// SCSISelfTest is one scsi_self_test_N entry.
type SCSISelfTest struct {
	Code        ValueString `json:"code"`
	Result      ValueString `json:"result"`
	PowerOnTime struct {
		Hours int64 `json:"hours"`
	} `json:"power_on_time"`
	LBAFirstFailure struct {
		Value int64 `json:"value"`
	} `json:"lba_first_failure"`
}
