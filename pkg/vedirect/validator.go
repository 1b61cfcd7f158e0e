// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import "fmt"

// AnomalyType represents different types of frame anomalies
type AnomalyType int

const (
	AnomalyNonNumeric AnomalyType = iota
	AnomalyInvalidValue
	AnomalyVoltageRange
	AnomalyPowerRange
	AnomalyUnknownEnum
	AnomalyDayRange
	AnomalyChecksumError
	AnomalyDecodeError
)

// ValidationError represents a frame validation failure
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateFrame checks a checksum-valid frame for anomalous field values.
// Returns a slice of validation errors (empty if the frame is plausible).
// Checksum failures never reach validation; they drop the frame outright.
func ValidateFrame(f *Frame) []ValidationError {
	errors := []ValidationError{}

	errors = append(errors, validateFieldSyntax(f)...)
	errors = append(errors, validateVoltages(f)...)
	errors = append(errors, validatePower(f)...)
	errors = append(errors, validateEnums(f)...)
	errors = append(errors, validateDaySequence(f)...)

	return errors
}

// validateFieldSyntax checks every known field against its declared kind
func validateFieldSyntax(f *Frame) []ValidationError {
	errors := []ValidationError{}

	for _, label := range f.labels {
		def, known := fieldsByLabel[label]
		if !known {
			continue
		}
		value := f.fields[label]

		switch def.Kind {
		case KindInt, KindScaled, KindEnum:
			if _, ok := f.Int(label); !ok {
				errors = append(errors, ValidationError{
					Type:    AnomalyNonNumeric,
					Message: fmt.Sprintf("Non-numeric value for %s (%q)", label, value),
					Details: map[string]interface{}{"label": label, "value": value},
				})
			}
		case KindHex:
			if _, ok := f.Hex(label); !ok {
				errors = append(errors, ValidationError{
					Type:    AnomalyNonNumeric,
					Message: fmt.Sprintf("Malformed hex value for %s (%q)", label, value),
					Details: map[string]interface{}{"label": label, "value": value},
				})
			}
		case KindOnOff:
			if _, ok := f.OnOff(label); !ok {
				errors = append(errors, ValidationError{
					Type:    AnomalyInvalidValue,
					Message: fmt.Sprintf("Invalid switch value for %s (%q, valid: ON/OFF)", label, value),
					Details: map[string]interface{}{"label": label, "value": value},
				})
			}
		}
	}

	return errors
}

// validateVoltages checks battery and panel voltages against plausible ranges
func validateVoltages(f *Frame) []ValidationError {
	errors := []ValidationError{}

	if volts, ok := f.BatteryVolts(); ok && (volts < 0 || volts > 96.0) {
		errors = append(errors, ValidationError{
			Type:    AnomalyVoltageRange,
			Message: fmt.Sprintf("Battery voltage out of range (%.3f V, valid: 0 to 96 V)", volts),
			Details: map[string]interface{}{"value": volts, "min": 0.0, "max": 96.0},
		})
	}

	if volts, ok := f.SolarVolts(); ok && (volts < 0 || volts > 250.0) {
		errors = append(errors, ValidationError{
			Type:    AnomalyVoltageRange,
			Message: fmt.Sprintf("Panel voltage out of range (%.3f V, valid: 0 to 250 V)", volts),
			Details: map[string]interface{}{"value": volts, "min": 0.0, "max": 250.0},
		})
	}

	return errors
}

// validatePower checks panel power against the plausible range
func validatePower(f *Frame) []ValidationError {
	errors := []ValidationError{}

	if watts, ok := f.SolarPower(); ok && (watts < 0 || watts > 2000) {
		errors = append(errors, ValidationError{
			Type:    AnomalyPowerRange,
			Message: fmt.Sprintf("Panel power out of range (%d W, valid: 0 to 2000 W)", watts),
			Details: map[string]interface{}{"value": watts, "min": 0, "max": 2000},
		})
	}

	return errors
}

// validateEnums checks CS, MPPT, and ERR against their published value sets
func validateEnums(f *Frame) []ValidationError {
	errors := []ValidationError{}

	if state, ok := f.ChargeState(); ok && !knownChargeState(state) {
		errors = append(errors, ValidationError{
			Type:    AnomalyUnknownEnum,
			Message: fmt.Sprintf("Unknown charge state=%d", int(state)),
			Details: map[string]interface{}{"state": int(state)},
		})
	}

	if mode, ok := f.TrackerState(); ok && !knownTrackerState(mode) {
		errors = append(errors, ValidationError{
			Type:    AnomalyUnknownEnum,
			Message: fmt.Sprintf("Unknown tracker state=%d (valid 0-%d)", int(mode), int(TrackerActive)),
			Details: map[string]interface{}{"state": int(mode), "max": int(TrackerActive)},
		})
	}

	if code, ok := f.ErrorCode(); ok && !knownErrorCode(code) {
		errors = append(errors, ValidationError{
			Type:    AnomalyUnknownEnum,
			Message: fmt.Sprintf("Unknown error code=%d", int(code)),
			Details: map[string]interface{}{"code": int(code)},
		})
	}

	return errors
}

// validateDaySequence checks HSDS against its documented 0-365 range
func validateDaySequence(f *Frame) []ValidationError {
	errors := []ValidationError{}

	if day, ok := f.DaySequence(); ok && (day < 0 || day > 365) {
		errors = append(errors, ValidationError{
			Type:    AnomalyDayRange,
			Message: fmt.Sprintf("Day sequence out of range (%d, valid: 0-365)", day),
			Details: map[string]interface{}{"value": day, "min": 0, "max": 365},
		})
	}

	return errors
}

// knownChargeState reports whether the CS value is in the published set
func knownChargeState(s ChargeState) bool {
	switch s {
	case ChargeStateOff, ChargeStateLowPower, ChargeStateFault, ChargeStateBulk,
		ChargeStateAbsorption, ChargeStateFloat, ChargeStateStorage,
		ChargeStateEqualize, ChargeStateInverting, ChargeStatePowerSupply,
		ChargeStateStartingUp, ChargeStateRepeatedAbsorption,
		ChargeStateAutoEqualize, ChargeStateBatterySafe, ChargeStateExternalControl:
		return true
	}
	return false
}

// knownTrackerState reports whether the MPPT value is in the published set
func knownTrackerState(s TrackerState) bool {
	return s >= TrackerOff && s <= TrackerActive
}

// knownErrorCode reports whether the ERR value is in the published set
func knownErrorCode(c ErrorCode) bool {
	switch c {
	case ErrorNone, ErrorBatteryVoltageHigh, ErrorChargerTempHigh,
		ErrorChargerOverCurrent, ErrorCurrentReversed, ErrorBulkTimeExceeded,
		ErrorCurrentSensor, ErrorTerminalsOverheated, ErrorConverter,
		ErrorInputVoltageHigh, ErrorInputCurrentHigh, ErrorInputShutdownVolt,
		ErrorInputShutdownCur, ErrorLostComm, ErrorSyncConfig, ErrorBMSLost,
		ErrorNetworkConfig, ErrorCalibrationLost, ErrorInvalidFirmware,
		ErrorUserSettings:
		return true
	}
	return false
}
