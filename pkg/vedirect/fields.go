// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

// FieldKind classifies how a field's wire value is interpreted
type FieldKind int

// Field kind values
const (
	KindString FieldKind = iota
	KindInt
	KindScaled // integer wire value times Scale
	KindOnOff
	KindEnum
	KindHex // 0x-prefixed hexadecimal
)

// FieldDef describes one known telemetry field: its stable external name,
// wire label, interpretation, and scaling
type FieldDef struct {
	Name  string
	Label string
	Kind  FieldKind
	Scale float64
	Unit  string
}

// fieldTable is the fixed set of known fields. Lookup goes through the
// indexes below; unknown labels still decode, they just carry no typing.
var fieldTable = []FieldDef{
	{Name: "battery_volts", Label: "V", Kind: KindScaled, Scale: 0.001, Unit: "V"},
	{Name: "battery_amps", Label: "I", Kind: KindScaled, Scale: 0.001, Unit: "A"},
	{Name: "solar_volts", Label: "VPV", Kind: KindScaled, Scale: 0.001, Unit: "V"},
	{Name: "solar_power", Label: "PPV", Kind: KindInt, Unit: "W"},
	{Name: "load_amps", Label: "IL", Kind: KindScaled, Scale: 0.001, Unit: "A"},
	{Name: "load_state", Label: "LOAD", Kind: KindOnOff},
	{Name: "charge_state", Label: "CS", Kind: KindEnum},
	{Name: "tracker_state", Label: "MPPT", Kind: KindEnum},
	{Name: "error_code", Label: "ERR", Kind: KindEnum},
	{Name: "off_reason", Label: "OR", Kind: KindHex},
	{Name: "product_id", Label: "PID", Kind: KindHex},
	{Name: "firmware_version", Label: "FW", Kind: KindString},
	{Name: "device_serial", Label: "SER#", Kind: KindString},
	{Name: "yield_total", Label: "H19", Kind: KindScaled, Scale: 0.01, Unit: "kWh"},
	{Name: "yield_today", Label: "H20", Kind: KindScaled, Scale: 0.01, Unit: "kWh"},
	{Name: "max_power_today", Label: "H21", Kind: KindInt, Unit: "W"},
	{Name: "yield_yesterday", Label: "H22", Kind: KindScaled, Scale: 0.01, Unit: "kWh"},
	{Name: "max_power_yesterday", Label: "H23", Kind: KindInt, Unit: "W"},
	{Name: "day_sequence", Label: "HSDS", Kind: KindInt},
}

var (
	fieldsByName  = make(map[string]FieldDef, len(fieldTable))
	fieldsByLabel = make(map[string]FieldDef, len(fieldTable))
)

func init() {
	for _, def := range fieldTable {
		fieldsByName[def.Name] = def
		fieldsByLabel[def.Label] = def
	}
}

// LookupField returns the field definition for an external name
func LookupField(name string) (FieldDef, bool) {
	def, ok := fieldsByName[name]
	return def, ok
}

// LookupLabel returns the field definition for a wire label
func LookupLabel(label string) (FieldDef, bool) {
	def, ok := fieldsByLabel[label]
	return def, ok
}

// FieldTable returns a copy of the known field definitions in table order
func FieldTable() []FieldDef {
	table := make([]FieldDef, len(fieldTable))
	copy(table, fieldTable)
	return table
}

// scaled returns the integer wire value of a KindScaled field times its scale
func (f *Frame) scaled(label string) (float64, bool) {
	def, ok := fieldsByLabel[label]
	if !ok || def.Kind != KindScaled {
		return 0, false
	}
	n, ok := f.Int(label)
	if !ok {
		return 0, false
	}
	return float64(n) * def.Scale, true
}

// BatteryVolts returns the main battery voltage in volts (V field)
func (f *Frame) BatteryVolts() (float64, bool) {
	return f.scaled("V")
}

// BatteryAmps returns the main battery current in amps (I field)
func (f *Frame) BatteryAmps() (float64, bool) {
	return f.scaled("I")
}

// SolarVolts returns the panel voltage in volts (VPV field)
func (f *Frame) SolarVolts() (float64, bool) {
	return f.scaled("VPV")
}

// SolarPower returns the panel power in watts (PPV field)
func (f *Frame) SolarPower() (int64, bool) {
	return f.Int("PPV")
}

// LoadAmps returns the load output current in amps (IL field)
func (f *Frame) LoadAmps() (float64, bool) {
	return f.scaled("IL")
}

// LoadOn returns the load output switch state (LOAD field)
func (f *Frame) LoadOn() (bool, bool) {
	return f.OnOff("LOAD")
}

// ChargeState returns the charger operation state (CS field)
func (f *Frame) ChargeState() (ChargeState, bool) {
	n, ok := f.Int("CS")
	if !ok {
		return 0, false
	}
	return ChargeState(n), true
}

// TrackerState returns the MPP tracker mode (MPPT field)
func (f *Frame) TrackerState() (TrackerState, bool) {
	n, ok := f.Int("MPPT")
	if !ok {
		return 0, false
	}
	return TrackerState(n), true
}

// ErrorCode returns the device error code (ERR field)
func (f *Frame) ErrorCode() (ErrorCode, bool) {
	n, ok := f.Int("ERR")
	if !ok {
		return 0, false
	}
	return ErrorCode(n), true
}

// OffReason returns the charger off-reason bitmask (OR field)
func (f *Frame) OffReason() (OffReason, bool) {
	n, ok := f.Hex("OR")
	if !ok {
		return 0, false
	}
	return OffReason(n), true
}

// ProductID returns the device product id (PID field)
func (f *Frame) ProductID() (uint16, bool) {
	n, ok := f.Hex("PID")
	if !ok || n > 0xFFFF {
		return 0, false
	}
	return uint16(n), true
}

// FirmwareVersion returns the firmware version string (FW field)
func (f *Frame) FirmwareVersion() (string, bool) {
	return f.Get("FW")
}

// SerialNumber returns the device serial number (SER# field)
func (f *Frame) SerialNumber() (string, bool) {
	return f.Get("SER#")
}

// YieldTotal returns the lifetime energy yield in kWh (H19 field)
func (f *Frame) YieldTotal() (float64, bool) {
	return f.scaled("H19")
}

// YieldToday returns today's energy yield in kWh (H20 field)
func (f *Frame) YieldToday() (float64, bool) {
	return f.scaled("H20")
}

// MaxPowerToday returns today's maximum power in watts (H21 field)
func (f *Frame) MaxPowerToday() (int64, bool) {
	return f.Int("H21")
}

// YieldYesterday returns yesterday's energy yield in kWh (H22 field)
func (f *Frame) YieldYesterday() (float64, bool) {
	return f.scaled("H22")
}

// MaxPowerYesterday returns yesterday's maximum power in watts (H23 field)
func (f *Frame) MaxPowerYesterday() (int64, bool) {
	return f.Int("H23")
}

// DaySequence returns the historical day sequence number (HSDS field)
func (f *Frame) DaySequence() (int64, bool) {
	return f.Int("HSDS")
}
