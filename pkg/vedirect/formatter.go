// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatFrame formats a frame into a human-readable string
func FormatFrame(f *Frame) string {
	timestamp := f.timestamp.Format("15:04:05.000")

	result := fmt.Sprintf("[%s] FRAME fields=%d", timestamp, len(f.labels))
	if pid, ok := f.ProductID(); ok {
		result += fmt.Sprintf(" product=%s", ProductName(pid))
	}
	result += "\n"

	for _, label := range f.labels {
		result += FormatField(label, f.fields[label])
	}

	return result
}

// FormatField formats a single label/value pair as one indented line.
// Known fields render with scaling, units, and enum names; unknown labels
// render raw.
func FormatField(label, value string) string {
	def, known := fieldsByLabel[label]
	if !known {
		return fmt.Sprintf("  %-9s %s\n", label, value)
	}
	return fmt.Sprintf("  %-9s %s\n", label, formatValue(def, value))
}

// formatValue renders a wire value according to its field kind
func formatValue(def FieldDef, value string) string {
	switch def.Kind {
	case KindScaled:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return value
		}
		return fmt.Sprintf("%.*f %s", scaleDecimals(def.Scale), float64(n)*def.Scale, def.Unit)

	case KindInt:
		if def.Unit != "" {
			return fmt.Sprintf("%s %s", value, def.Unit)
		}
		return value

	case KindEnum:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return value
		}
		switch def.Label {
		case "CS":
			return fmt.Sprintf("%s (%d)", FormatChargeState(ChargeState(n)), n)
		case "MPPT":
			return fmt.Sprintf("%s (%d)", FormatTrackerState(TrackerState(n)), n)
		case "ERR":
			return fmt.Sprintf("%s (%d)", FormatErrorCode(ErrorCode(n)), n)
		}
		return value

	case KindHex:
		n, err := parseHex(value)
		if err != nil {
			return value
		}
		switch def.Label {
		case "PID":
			return fmt.Sprintf("%s (%s)", ProductName(uint16(n)), value)
		case "OR":
			return fmt.Sprintf("%s (%s)", FormatOffReason(OffReason(n)), value)
		}
		return value
	}

	return value
}

// parseHex parses a 0x-prefixed hexadecimal wire value
func parseHex(value string) (uint32, error) {
	if len(value) < 3 || (value[:2] != "0x" && value[:2] != "0X") {
		return 0, fmt.Errorf("missing 0x prefix")
	}
	n, err := strconv.ParseUint(value[2:], 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

// scaleDecimals returns the number of decimal places a scale factor needs
func scaleDecimals(scale float64) int {
	switch scale {
	case 0.001:
		return 3
	case 0.01:
		return 2
	case 0.1:
		return 1
	}
	return 0
}

// FormatChargeState returns a human-readable charge state name
func FormatChargeState(s ChargeState) string {
	switch s {
	case ChargeStateOff:
		return "Off"
	case ChargeStateLowPower:
		return "Low power"
	case ChargeStateFault:
		return "Fault"
	case ChargeStateBulk:
		return "Bulk"
	case ChargeStateAbsorption:
		return "Absorption"
	case ChargeStateFloat:
		return "Float"
	case ChargeStateStorage:
		return "Storage"
	case ChargeStateEqualize:
		return "Equalize (manual)"
	case ChargeStateInverting:
		return "Inverting"
	case ChargeStatePowerSupply:
		return "Power supply"
	case ChargeStateStartingUp:
		return "Starting-up"
	case ChargeStateRepeatedAbsorption:
		return "Repeated absorption"
	case ChargeStateAutoEqualize:
		return "Auto equalize"
	case ChargeStateBatterySafe:
		return "BatterySafe"
	case ChargeStateExternalControl:
		return "External control"
	default:
		return "Unknown"
	}
}

// FormatTrackerState returns a human-readable MPP tracker mode name
func FormatTrackerState(s TrackerState) string {
	switch s {
	case TrackerOff:
		return "Off"
	case TrackerLimited:
		return "Voltage or current limited"
	case TrackerActive:
		return "MPP tracker active"
	default:
		return "Unknown"
	}
}

// FormatErrorCode returns a human-readable device error name
func FormatErrorCode(c ErrorCode) string {
	switch c {
	case ErrorNone:
		return "No error"
	case ErrorBatteryVoltageHigh:
		return "Battery voltage too high"
	case ErrorChargerTempHigh:
		return "Charger temperature too high"
	case ErrorChargerOverCurrent:
		return "Charger over current"
	case ErrorCurrentReversed:
		return "Charger current reversed"
	case ErrorBulkTimeExceeded:
		return "Bulk time limit exceeded"
	case ErrorCurrentSensor:
		return "Current sensor issue"
	case ErrorTerminalsOverheated:
		return "Terminals overheated"
	case ErrorConverter:
		return "Converter issue"
	case ErrorInputVoltageHigh:
		return "Input voltage too high"
	case ErrorInputCurrentHigh:
		return "Input current too high"
	case ErrorInputShutdownVolt:
		return "Input shutdown (excessive battery voltage)"
	case ErrorInputShutdownCur:
		return "Input shutdown (current flow during off mode)"
	case ErrorLostComm:
		return "Lost communication with a device"
	case ErrorSyncConfig:
		return "Synchronised charging configuration issue"
	case ErrorBMSLost:
		return "BMS connection lost"
	case ErrorNetworkConfig:
		return "Network misconfigured"
	case ErrorCalibrationLost:
		return "Factory calibration data lost"
	case ErrorInvalidFirmware:
		return "Invalid or incompatible firmware"
	case ErrorUserSettings:
		return "User settings invalid"
	default:
		return "Unknown"
	}
}

// FormatOffReason returns the names of the set off-reason bits
func FormatOffReason(r OffReason) string {
	if r == 0 {
		return "None"
	}

	names := []struct {
		bit  OffReason
		name string
	}{
		{OffReasonNoInputPower, "No input power"},
		{OffReasonPowerSwitch, "Power switch off"},
		{OffReasonDeviceMode, "Device mode off"},
		{OffReasonRemoteInput, "Remote input"},
		{OffReasonProtection, "Protection active"},
		{OffReasonPaygo, "Paygo"},
		{OffReasonBMS, "BMS"},
		{OffReasonEngineShutdown, "Engine shutdown detection"},
		{OffReasonAnalysingInput, "Analysing input voltage"},
	}

	parts := []string{}
	for _, entry := range names {
		if r&entry.bit != 0 {
			parts = append(parts, entry.name)
		}
	}
	if len(parts) == 0 {
		return "Unknown"
	}
	return strings.Join(parts, ", ")
}

// ProductName returns the product name for a device PID
func ProductName(pid uint16) string {
	switch pid {
	case 0x0203:
		return "BMV-700"
	case 0x0204:
		return "BMV-702"
	case 0x0205:
		return "BMV-700H"
	case 0x0300:
		return "BlueSolar MPPT 70|15"
	case 0xA040:
		return "BlueSolar MPPT 75|50"
	case 0xA041:
		return "BlueSolar MPPT 150|35"
	case 0xA042:
		return "BlueSolar MPPT 75|15"
	case 0xA043:
		return "BlueSolar MPPT 100|15"
	case 0xA044:
		return "BlueSolar MPPT 100|30"
	case 0xA045:
		return "BlueSolar MPPT 100|50"
	case 0xA046:
		return "BlueSolar MPPT 150|70"
	case 0xA047:
		return "BlueSolar MPPT 150|100"
	case 0xA049:
		return "BlueSolar MPPT 100|50 rev2"
	case 0xA04A:
		return "BlueSolar MPPT 100|30 rev2"
	case 0xA04B:
		return "BlueSolar MPPT 150|35 rev2"
	case 0xA04C:
		return "BlueSolar MPPT 75|10"
	case 0xA04D:
		return "BlueSolar MPPT 150|45"
	case 0xA04E:
		return "BlueSolar MPPT 150|60"
	case 0xA04F:
		return "BlueSolar MPPT 150|85"
	case 0xA050:
		return "SmartSolar MPPT 250|100"
	case 0xA051:
		return "SmartSolar MPPT 150|100"
	case 0xA052:
		return "SmartSolar MPPT 150|85"
	case 0xA053:
		return "SmartSolar MPPT 75|15"
	case 0xA054:
		return "SmartSolar MPPT 75|10"
	case 0xA055:
		return "SmartSolar MPPT 100|15"
	case 0xA056:
		return "SmartSolar MPPT 100|30"
	case 0xA057:
		return "SmartSolar MPPT 100|50"
	case 0xA058:
		return "SmartSolar MPPT 150|35"
	case 0xA059:
		return "SmartSolar MPPT 150|100 rev2"
	case 0xA05A:
		return "SmartSolar MPPT 150|85 rev2"
	case 0xA05B:
		return "SmartSolar MPPT 250|70"
	case 0xA05C:
		return "SmartSolar MPPT 250|85"
	case 0xA05D:
		return "SmartSolar MPPT 250|60"
	case 0xA05E:
		return "SmartSolar MPPT 250|45"
	case 0xA05F:
		return "SmartSolar MPPT 100|20"
	case 0xA060:
		return "SmartSolar MPPT 100|20 48V"
	case 0xA061:
		return "SmartSolar MPPT 150|45"
	case 0xA062:
		return "SmartSolar MPPT 150|60"
	case 0xA063:
		return "SmartSolar MPPT 150|70"
	case 0xA064:
		return "SmartSolar MPPT 250|85 rev2"
	case 0xA065:
		return "SmartSolar MPPT 250|100 rev2"
	case 0xA201:
		return "Phoenix Inverter 12V 250VA 230V"
	case 0xA202:
		return "Phoenix Inverter 24V 250VA 230V"
	case 0xA204:
		return "Phoenix Inverter 48V 250VA 230V"
	case 0xA211:
		return "Phoenix Inverter 12V 375VA 230V"
	case 0xA212:
		return "Phoenix Inverter 24V 375VA 230V"
	case 0xA221:
		return "Phoenix Inverter 12V 500VA 230V"
	case 0xA222:
		return "Phoenix Inverter 24V 500VA 230V"
	default:
		return "Unknown"
	}
}
