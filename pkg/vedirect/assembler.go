// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

// frameAssembler stages decoded fields until the frame's checksum verdict.
// Fields are held out of sight until commit; a failed frame never leaks
// partial state.
type frameAssembler struct {
	labels []string
	fields map[string]string
}

// newFrameAssembler creates an empty staging area
func newFrameAssembler() *frameAssembler {
	return &frameAssembler{fields: make(map[string]string)}
}

// stage records one label/value pair. A repeated label overwrites its prior
// value without changing its position in the frame's label order.
func (a *frameAssembler) stage(label, value string) {
	if _, seen := a.fields[label]; !seen {
		a.labels = append(a.labels, label)
	}
	a.fields[label] = value
}

// len returns the number of staged fields
func (a *frameAssembler) len() int {
	return len(a.labels)
}

// commit publishes the staged fields as an immutable Frame and clears the
// staging area. Ownership of the label order and field map moves to the
// frame; the assembler starts fresh.
func (a *frameAssembler) commit(raw []byte) *Frame {
	frame := newFrame(a.labels, a.fields, raw)
	a.labels = nil
	a.fields = make(map[string]string)
	return frame
}

// discard drops all staged fields
func (a *frameAssembler) discard() {
	a.labels = a.labels[:0]
	clear(a.fields)
}
