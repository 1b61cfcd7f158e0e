// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import "fmt"

// fieldTokenizer accumulates the label and value bytes of the line being
// decoded. Buffers are bounded by the protocol's recommended sizes; an
// overflow is reported to the state machine as a malformed line.
type fieldTokenizer struct {
	label []byte
	value []byte
}

// newFieldTokenizer creates a tokenizer with buffers at the protocol limits
func newFieldTokenizer() *fieldTokenizer {
	return &fieldTokenizer{
		label: make([]byte, 0, MaxLabelSize),
		value: make([]byte, 0, MaxValueSize),
	}
}

// appendLabel adds one byte to the label buffer
func (t *fieldTokenizer) appendLabel(b byte) error {
	if len(t.label) >= MaxLabelSize {
		return &MalformedLineError{
			Reason:   fmt.Sprintf("label overflow: %q exceeds %d bytes", t.label, MaxLabelSize),
			Overflow: true,
		}
	}
	t.label = append(t.label, b)
	return nil
}

// appendValue adds one byte to the value buffer
func (t *fieldTokenizer) appendValue(b byte) error {
	if len(t.value) >= MaxValueSize {
		return &MalformedLineError{
			Reason:   fmt.Sprintf("value overflow: label %q exceeds %d bytes", t.label, MaxValueSize),
			Overflow: true,
		}
	}
	t.value = append(t.value, b)
	return nil
}

// lineStart reports whether no label byte has arrived on the current line
func (t *fieldTokenizer) lineStart() bool {
	return len(t.label) == 0
}

// labelString returns the accumulated label
func (t *fieldTokenizer) labelString() string {
	return string(t.label)
}

// valueString returns the accumulated value
func (t *fieldTokenizer) valueString() string {
	return string(t.value)
}

// reset clears both buffers for the next line
func (t *fieldTokenizer) reset() {
	t.label = t.label[:0]
	t.value = t.value[:0]
}
