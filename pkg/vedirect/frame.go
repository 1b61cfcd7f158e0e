// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import (
	"strconv"
	"time"
)

// Frame is an immutable snapshot of one checksum-valid VE.Direct text frame.
// Label order is the order of first appearance on the wire; a label repeated
// within the frame keeps its position with the last value winning.
type Frame struct {
	labels    []string
	fields    map[string]string
	raw       []byte
	timestamp time.Time
}

// newFrame builds a frame taking ownership of the label order, field map,
// and raw byte capture
func newFrame(labels []string, fields map[string]string, raw []byte) *Frame {
	return &Frame{
		labels:    labels,
		fields:    fields,
		raw:       raw,
		timestamp: time.Now(),
	}
}

// Get returns the raw string value for a label
func (f *Frame) Get(label string) (string, bool) {
	value, ok := f.fields[label]
	return value, ok
}

// Has reports whether the frame carries the given label
func (f *Frame) Has(label string) bool {
	_, ok := f.fields[label]
	return ok
}

// Labels returns the frame's labels in wire order
func (f *Frame) Labels() []string {
	labels := make([]string, len(f.labels))
	copy(labels, f.labels)
	return labels
}

// Fields returns a copy of the label to value map
func (f *Frame) Fields() map[string]string {
	fields := make(map[string]string, len(f.fields))
	for label, value := range f.fields {
		fields[label] = value
	}
	return fields
}

// Len returns the number of fields in the frame
func (f *Frame) Len() int {
	return len(f.labels)
}

// Raw returns a copy of the frame's wire bytes, from the first label byte
// through the checksum byte, excluding interleaved HEX records
func (f *Frame) Raw() []byte {
	raw := make([]byte, len(f.raw))
	copy(raw, f.raw)
	return raw
}

// Timestamp returns the frame's decode timestamp
func (f *Frame) Timestamp() time.Time {
	return f.timestamp
}

// Int returns a label's value parsed as a decimal integer
func (f *Frame) Int(label string) (int64, bool) {
	value, ok := f.fields[label]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Float returns a label's value parsed as a decimal number
func (f *Frame) Float(label string) (float64, bool) {
	value, ok := f.fields[label]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// OnOff returns a label's value interpreted as an ON/OFF switch
func (f *Frame) OnOff(label string) (bool, bool) {
	value, ok := f.fields[label]
	if !ok {
		return false, false
	}
	switch value {
	case "ON", "On", "on":
		return true, true
	case "OFF", "Off", "off":
		return false, true
	}
	return false, false
}

// Hex returns a label's value parsed as a 0x-prefixed hexadecimal number
func (f *Frame) Hex(label string) (uint32, bool) {
	value, ok := f.fields[label]
	if !ok {
		return 0, false
	}
	if len(value) < 3 || (value[:2] != "0x" && value[:2] != "0X") {
		return 0, false
	}
	n, err := strconv.ParseUint(value[2:], 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}
