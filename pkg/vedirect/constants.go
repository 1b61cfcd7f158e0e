// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package vedirect provides a reference Go implementation of the VE.Direct
// text protocol decoder.
//
// VE.Direct is the serial telemetry protocol spoken by Victron solar charge
// controllers, battery monitors, and inverters. A device emits a frame of
// tab-separated label/value lines roughly once per second, closed by a
// "Checksum" line whose single raw value byte brings the sum of every frame
// byte to zero modulo 256. This package provides frame decoding, checksum
// validation, field extraction, encoding, and formatting.
package vedirect

// Protocol delimiter bytes
const (
	FieldSeparator  = '\t'
	CarriageReturn  = '\r'
	LineFeed        = '\n'
	HexRecordMarker = ':'
)

// Buffer size limits recommended by the protocol documentation
const (
	MaxLabelSize = 9
	MaxValueSize = 33
	rawBufferCap = 512 // initial capacity for raw frame capture
)

// ChecksumLabel closes a text frame; the byte after its separator is the
// raw checksum value.
const ChecksumLabel = "Checksum"

// DefaultBaudRate is the fixed serial rate of VE.Direct devices (8N1).
const DefaultBaudRate = 19200

// Decoder states
// InTextFrame is split into label and value phases; resync skips to the
// next line terminator after a malformed line.
const (
	stateIdle = iota
	stateLabel
	stateValue
	stateChecksum
	stateHexRecord
	stateResync
)

// ChargeState represents charger operation states from the CS field
type ChargeState int

// Charge state values
const (
	ChargeStateOff                ChargeState = 0
	ChargeStateLowPower           ChargeState = 1
	ChargeStateFault              ChargeState = 2
	ChargeStateBulk               ChargeState = 3
	ChargeStateAbsorption         ChargeState = 4
	ChargeStateFloat              ChargeState = 5
	ChargeStateStorage            ChargeState = 6
	ChargeStateEqualize           ChargeState = 7
	ChargeStateInverting          ChargeState = 9
	ChargeStatePowerSupply        ChargeState = 11
	ChargeStateStartingUp         ChargeState = 245
	ChargeStateRepeatedAbsorption ChargeState = 246
	ChargeStateAutoEqualize       ChargeState = 247
	ChargeStateBatterySafe        ChargeState = 248
	ChargeStateExternalControl    ChargeState = 252
)

// TrackerState represents MPP tracker operation modes from the MPPT field
type TrackerState int

// Tracker state values
const (
	TrackerOff     TrackerState = 0
	TrackerLimited TrackerState = 1
	TrackerActive  TrackerState = 2
)

// ErrorCode represents device error codes from the ERR field
type ErrorCode int

// Charger error register values
const (
	ErrorNone                ErrorCode = 0
	ErrorBatteryVoltageHigh  ErrorCode = 2
	ErrorChargerTempHigh     ErrorCode = 17
	ErrorChargerOverCurrent  ErrorCode = 18
	ErrorCurrentReversed     ErrorCode = 19
	ErrorBulkTimeExceeded    ErrorCode = 20
	ErrorCurrentSensor       ErrorCode = 21
	ErrorTerminalsOverheated ErrorCode = 26
	ErrorConverter           ErrorCode = 28
	ErrorInputVoltageHigh    ErrorCode = 33
	ErrorInputCurrentHigh    ErrorCode = 34
	ErrorInputShutdownVolt   ErrorCode = 38
	ErrorInputShutdownCur    ErrorCode = 39
	ErrorLostComm            ErrorCode = 65
	ErrorSyncConfig          ErrorCode = 66
	ErrorBMSLost             ErrorCode = 67
	ErrorNetworkConfig       ErrorCode = 68
	ErrorCalibrationLost     ErrorCode = 116
	ErrorInvalidFirmware     ErrorCode = 117
	ErrorUserSettings        ErrorCode = 119
)

// OffReason represents bits of the OR field bitmask
type OffReason uint32

// Off reason bits
const (
	OffReasonNoInputPower   OffReason = 0x00000001
	OffReasonPowerSwitch    OffReason = 0x00000002
	OffReasonDeviceMode     OffReason = 0x00000004
	OffReasonRemoteInput    OffReason = 0x00000008
	OffReasonProtection     OffReason = 0x00000010
	OffReasonPaygo          OffReason = 0x00000020
	OffReasonBMS            OffReason = 0x00000040
	OffReasonEngineShutdown OffReason = 0x00000080
	OffReasonAnalysingInput OffReason = 0x00000100
)
